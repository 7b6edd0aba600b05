package link

import "sync/atomic"

// seqCounter is an independent, monotonically increasing 16-bit sequence
// counter that wraps silently on overflow. Each outbound packet type owns
// its own counter; next is safe to call from any goroutine.
type seqCounter struct {
	n atomic.Uint32
}

func (c *seqCounter) next() uint16 {
	return uint16(c.n.Add(1) - 1)
}
