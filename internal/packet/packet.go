// Package packet implements the fixed-format binary wire protocol spoken
// between the ground station and the on-vehicle bridge.
//
// Every packet is a 2-character ASCII tag followed by a type-specific
// little-endian field layout and, last, a 16-bit sequence number. There are
// four outbound (station → vehicle) tags and fourteen inbound (vehicle →
// station) tags; each tag has exactly one fixed byte length. The codec is
// pure and stateless: Decode never reads past the buffer and is safe to
// fuzz directly.
package packet

import (
	"errors"
	"fmt"
)

// Outbound tags (station → vehicle).
const (
	TagHeartbeat = "HB" // liveness, sent unconditionally at heartbeat_rate
	TagTeleop    = "TC" // motion command, sent only while mode == ModeRemote
	TagEStop     = "ES" // emergency stop toggle, event-triggered
	TagCmdMode   = "CM" // control mode change, event-triggered
)

// Inbound tags (vehicle → station).
const (
	TagMuxStatus   = "MS" // mux requested/active source and activity flags
	TagTwist       = "TV" // nav/teleop/final twist components
	TagNetwork     = "NS" // bridge connectivity, RTT, bandwidth
	TagHunter      = "HS" // chassis pose/velocity/battery telemetry
	TagEStopStatus = "EP" // vehicle-side e-stop state and cause flags
	TagRemoteEn    = "RE" // remote_enabled parameter echo
	TagCPU         = "CR" // CPU core counts, usage, temperature, load
	TagMemory      = "MR" // RAM totals
	TagGPUSummary  = "GS" // GPU device count
	TagGPU         = "GR" // one per-GPU reading, keyed by index
	TagDiskSummary = "DI" // disk capacity totals
	TagPartition   = "DP" // one per-partition reading, keyed by index
	TagNetSummary  = "NM" // interface up/down counts
	TagNetIface    = "NF" // one per-interface reading, keyed by index
)

// Control modes carried by CM packets and echoed in mux status.
const (
	ModeIdle    int8 = -1
	ModeControl int8 = 0
	ModeNav     int8 = 1
	ModeRemote  int8 = 2
)

// Vehicle-reported e-stop cause flags. Opaque to the station: parsed and
// displayed, never computed locally.
const (
	BridgeFlagNormal        int8 = 0
	BridgeFlagServerCommand int8 = 1
	BridgeFlagSocketError   int8 = 2
	BridgeFlagHBTimeout     int8 = 3
	BridgeFlagTeleopTimeout int8 = 4

	MuxFlagNormal   int8 = 0
	MuxFlagNoTeleop int8 = 1
)

// Decode errors. Both are returned wrapped with the offending tag/length so
// callers can match with errors.Is.
var (
	ErrUnknownTag = errors.New("unknown packet tag")
	ErrBadLength  = errors.New("bad packet length")
)

// tagSize is the length of the ASCII tag prefix on every packet.
const tagSize = 2

// Fixed on-wire sizes per inbound tag, including tag prefix and trailing
// sequence number.
var inboundSize = map[string]int{
	TagMuxStatus:   11,
	TagTwist:       28,
	TagNetwork:     14,
	TagHunter:      32,
	TagEStopStatus: 7,
	TagRemoteEn:    5,
	TagCPU:         18,
	TagMemory:      20,
	TagGPUSummary:  5,
	TagGPU:         25,
	TagDiskSummary: 21,
	TagPartition:   58,
	TagNetSummary:  7,
	TagNetIface:    50,
}

// Fixed widths of the embedded null-padded strings.
const (
	MountpointLen = 32
	IfaceNameLen  = 16
)

// Inbound is the closed set of decoded vehicle → station packets. Exactly
// one concrete type exists per inbound tag, so a type switch over Inbound
// can be checked for exhaustiveness.
type Inbound interface {
	// Tag returns the 2-character wire tag of the packet.
	Tag() string
	// Encode serialises the packet back to its wire form.
	Encode() []byte
}

func badLength(tag string, want, got int) error {
	return fmt.Errorf("%w: tag %s expects %d bytes, got %d", ErrBadLength, tag, want, got)
}

// Decode parses a single datagram into its tagged variant. It returns
// ErrUnknownTag if the 2-byte prefix is not one of the fourteen inbound
// tags, and ErrBadLength if the buffer length does not match the fixed
// size for the recognised tag.
func Decode(buf []byte) (Inbound, error) {
	if len(buf) < tagSize {
		return nil, fmt.Errorf("%w: %d-byte datagram is shorter than the tag prefix", ErrBadLength, len(buf))
	}
	tag := string(buf[:tagSize])
	want, ok := inboundSize[tag]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
	}
	if len(buf) != want {
		return nil, badLength(tag, want, len(buf))
	}

	r := reader{buf: buf, off: tagSize}
	switch tag {
	case TagMuxStatus:
		return decodeMuxStatus(&r), nil
	case TagTwist:
		return decodeTwist(&r), nil
	case TagNetwork:
		return decodeNetwork(&r), nil
	case TagHunter:
		return decodeHunter(&r), nil
	case TagEStopStatus:
		return decodeEStopStatus(&r), nil
	case TagRemoteEn:
		return decodeRemoteEnabled(&r), nil
	case TagCPU:
		return decodeCPU(&r), nil
	case TagMemory:
		return decodeMemory(&r), nil
	case TagGPUSummary:
		return decodeGPUSummary(&r), nil
	case TagGPU:
		return decodeGPU(&r), nil
	case TagDiskSummary:
		return decodeDiskSummary(&r), nil
	case TagPartition:
		return decodePartition(&r), nil
	case TagNetSummary:
		return decodeNetSummary(&r), nil
	case TagNetIface:
		return decodeNetIface(&r), nil
	}
	// Unreachable: every key in inboundSize is handled above.
	return nil, fmt.Errorf("%w: %q", ErrUnknownTag, tag)
}
