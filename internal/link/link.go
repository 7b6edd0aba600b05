// Package link owns the UDP socket to the on-vehicle bridge. It runs
// independent periodic send schedules per outgoing packet type, event
// sends for e-stop and mode changes, and a receive dispatch loop that
// decodes inbound datagrams into shared state mutations.
//
// Binding the receive socket is the only fatal failure; every steady-state
// socket or decode error is logged and the next tick or datagram proceeds.
package link

import (
	"context"
	"errors"
	"fmt"
	"net"
	"sync"
	"sync/atomic"
	"time"

	"github.com/nevlife/nev-gcs/internal/monitoring"
	"github.com/nevlife/nev-gcs/internal/packet"
	"github.com/nevlife/nev-gcs/internal/state"
	"github.com/nevlife/nev-gcs/internal/timeutil"
	"github.com/nevlife/nev-gcs/internal/validate"
)

// readPollInterval bounds how long a blocked read can delay noticing
// context cancellation.
const readPollInterval = 100 * time.Millisecond

// StatsRecorder persists alert transitions and periodic link statistics.
// A nil recorder disables persistence.
type StatsRecorder interface {
	RecordAlerts(alerts []state.Alert) error
	RecordLinkStats(rxPackets, decodeErrors, sendErrors uint64) error
}

// Config holds the link's addressing and scheduling parameters.
type Config struct {
	// VehicleAddr is the bridge's "host:port" target for outbound packets.
	VehicleAddr string
	// ListenAddr is the local receive address, typically ":<rx_port>".
	ListenAddr string
	// HeartbeatRate and TeleopRate are send frequencies in Hz.
	HeartbeatRate float64
	TeleopRate    float64
	// ValidateInterval bounds alert staleness when no traffic arrives.
	ValidateInterval time.Duration
	// StatsInterval paces the periodic statistics log. Zero defaults to
	// one minute.
	StatsInterval time.Duration
	// RcvBuf is the socket receive buffer size in bytes. Zero keeps the
	// OS default.
	RcvBuf int
}

// Link is the station half of the vehicle link.
type Link struct {
	cfg    Config
	state  *state.State
	engine *validate.Engine
	clock  timeutil.Clock
	rec    StatsRecorder

	conn    *net.UDPConn
	vehicle *net.UDPAddr

	hbSeq, tcSeq, esSeq, cmSeq seqCounter

	rxPackets    atomic.Uint64
	decodeErrors atomic.Uint64
	sendErrors   atomic.Uint64
}

// New creates an unbound Link. Call Listen before Run.
func New(cfg Config, st *state.State, eng *validate.Engine, clock timeutil.Clock, rec StatsRecorder) *Link {
	if cfg.HeartbeatRate <= 0 {
		cfg.HeartbeatRate = 5
	}
	if cfg.TeleopRate <= 0 {
		cfg.TeleopRate = 20
	}
	if cfg.ValidateInterval <= 0 {
		cfg.ValidateInterval = 500 * time.Millisecond
	}
	if cfg.StatsInterval <= 0 {
		cfg.StatsInterval = time.Minute
	}
	return &Link{cfg: cfg, state: st, engine: eng, clock: clock, rec: rec}
}

// Listen resolves the vehicle address and binds the receive socket. A
// failure here is fatal at startup; callers should not retry.
func (l *Link) Listen() error {
	vehicle, err := net.ResolveUDPAddr("udp", l.cfg.VehicleAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve vehicle address %q: %w", l.cfg.VehicleAddr, err)
	}
	laddr, err := net.ResolveUDPAddr("udp", l.cfg.ListenAddr)
	if err != nil {
		return fmt.Errorf("failed to resolve listen address %q: %w", l.cfg.ListenAddr, err)
	}
	conn, err := net.ListenUDP("udp", laddr)
	if err != nil {
		return fmt.Errorf("failed to bind receive socket on %q: %w", l.cfg.ListenAddr, err)
	}
	if l.cfg.RcvBuf > 0 {
		if err := conn.SetReadBuffer(l.cfg.RcvBuf); err != nil {
			monitoring.Logf("warning: failed to set UDP receive buffer to %d: %v", l.cfg.RcvBuf, err)
		}
	}
	l.vehicle = vehicle
	l.conn = conn
	monitoring.Logf("vehicle link listening on %s, sending to %s", conn.LocalAddr(), vehicle)
	return nil
}

// LocalAddr returns the bound receive address. Listen must have succeeded.
func (l *Link) LocalAddr() net.Addr {
	return l.conn.LocalAddr()
}

// Run drives the send schedules, periodic validation, statistics logging,
// and the receive loop until the context is cancelled. Each schedule ticks
// independently; jitter in one never delays another.
func (l *Link) Run(ctx context.Context) error {
	if l.conn == nil {
		return errors.New("link: Run called before Listen")
	}
	defer l.conn.Close()

	var wg sync.WaitGroup
	wg.Add(4)
	go func() { defer wg.Done(); l.runHeartbeat(ctx) }()
	go func() { defer wg.Done(); l.runTeleop(ctx) }()
	go func() { defer wg.Done(); l.runValidation(ctx) }()
	go func() { defer wg.Done(); l.runStats(ctx) }()

	err := l.receiveLoop(ctx)
	wg.Wait()
	return err
}

func hzInterval(hz float64) time.Duration {
	return time.Duration(float64(time.Second) / hz)
}

func (l *Link) runHeartbeat(ctx context.Context) {
	ticker := l.clock.NewTicker(hzInterval(l.cfg.HeartbeatRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			hb := packet.Heartbeat{
				Timestamp: float64(l.clock.Now().UnixNano()) / float64(time.Second),
				Seq:       l.hbSeq.next(),
			}
			l.send(hb.Encode())
		}
	}
}

func (l *Link) runTeleop(ctx context.Context) {
	ticker := l.clock.NewTicker(hzInterval(l.cfg.TeleopRate))
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			ctrl := l.state.Control()
			if ctrl.Mode != packet.ModeRemote {
				// Paused, not stopped: no final zero command is sent.
				// The vehicle side owns timeout-driven safety stop.
				continue
			}
			tc := packet.Teleop{
				LinearX:  float32(ctrl.LinearX),
				AngularZ: float32(ctrl.AngularZ),
				Seq:      l.tcSeq.next(),
			}
			l.send(tc.Encode())
		}
	}
}

func (l *Link) runValidation(ctx context.Context) {
	ticker := l.clock.NewTicker(l.cfg.ValidateInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			l.revalidate()
		}
	}
}

func (l *Link) runStats(ctx context.Context) {
	ticker := l.clock.NewTicker(l.cfg.StatsInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C():
			rx := l.rxPackets.Load()
			decodeErrs := l.decodeErrors.Load()
			sendErrs := l.sendErrors.Load()
			monitoring.Logf("link stats: rx=%d decode_errors=%d send_errors=%d", rx, decodeErrs, sendErrs)
			if l.rec != nil {
				if err := l.rec.RecordLinkStats(rx, decodeErrs, sendErrs); err != nil {
					monitoring.Logf("failed to record link stats: %v", err)
				}
			}
		}
	}
}

// receiveLoop reads datagrams until the context is cancelled. Failed
// decodes are counted and discarded; they never stop the loop.
func (l *Link) receiveLoop(ctx context.Context) error {
	buf := make([]byte, 2048)
	for {
		select {
		case <-ctx.Done():
			monitoring.Logf("vehicle link receive loop stopping")
			return ctx.Err()
		default:
			l.conn.SetReadDeadline(time.Now().Add(readPollInterval))
			n, _, err := l.conn.ReadFromUDP(buf)
			if err != nil {
				if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
					continue
				}
				if ctx.Err() != nil {
					return ctx.Err()
				}
				monitoring.Logf("UDP read error: %v", err)
				continue
			}
			l.handleDatagram(buf[:n])
		}
	}
}

func (l *Link) handleDatagram(raw []byte) {
	p, err := packet.Decode(raw)
	if err != nil {
		l.decodeErrors.Add(1)
		monitoring.Debugf("discarding datagram: %v", err)
		return
	}
	l.rxPackets.Add(1)
	l.state.Apply(p)
	l.revalidate()
}

// revalidate runs the rule engine against a fresh snapshot and publishes
// the result. Alert transitions are persisted when a recorder is attached.
func (l *Link) revalidate() {
	alerts := l.engine.Evaluate(l.state.Snapshot())
	if !l.state.SetAlerts(alerts) {
		return
	}
	if l.rec != nil {
		if err := l.rec.RecordAlerts(alerts); err != nil {
			monitoring.Logf("failed to record alerts: %v", err)
		}
	}
}

// SendEStop transmits one event-triggered e-stop packet.
func (l *Link) SendEStop(active bool) error {
	es := packet.EStop{Active: active, Seq: l.esSeq.next()}
	monitoring.Logf("e-stop -> %v", active)
	return l.send(es.Encode())
}

// SendMode transmits one event-triggered mode change packet.
func (l *Link) SendMode(mode int8) error {
	cm := packet.CmdMode{Mode: mode, Seq: l.cmSeq.next()}
	monitoring.Logf("cmd mode -> %d", mode)
	return l.send(cm.Encode())
}

// send writes one datagram to the vehicle. Transport failures are logged
// and counted; the next scheduled send proceeds regardless.
func (l *Link) send(buf []byte) error {
	if _, err := l.conn.WriteToUDP(buf, l.vehicle); err != nil {
		l.sendErrors.Add(1)
		monitoring.Logf("UDP send error: %v", err)
		return err
	}
	return nil
}
