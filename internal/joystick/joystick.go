// Package joystick polls the operator's gamepad and converts normalized
// axis readings into the bounded control command held in shared state.
//
// Polling runs on its own goroutine because the device API is blocking and
// must not stall the network schedules. Device loss is non-fatal: the
// handler retries reconnection on a fixed interval and leaves the prior
// control values in shared state untouched while disconnected.
package joystick

import (
	"context"
	"math"
	"time"

	"github.com/0xcafed00d/joystick"

	"github.com/nevlife/nev-gcs/internal/monitoring"
	"github.com/nevlife/nev-gcs/internal/state"
	"github.com/nevlife/nev-gcs/internal/timeutil"
)

const (
	// pollInterval is the gamepad sampling period (50 Hz).
	pollInterval = 20 * time.Millisecond
	// reconnectInterval paces reconnection attempts after device loss.
	reconnectInterval = time.Second
	// axisScale normalizes the driver's integer axis range to [-1, 1].
	axisScale = 32767.0
)

// Commander transmits the event packets the input source can trigger.
type Commander interface {
	SendEStop(active bool) error
}

// Config maps device axes and buttons to control functions and bounds the
// physical output.
type Config struct {
	DeviceID     int
	AxisSpeed    int     // drives linear_x
	AxisSteer    int     // drives angular_z
	AxisRawSpeed int     // display only, unscaled
	AxisRawSteer int     // display only, unscaled
	ButtonEStop  int     // edge-triggered e-stop toggle
	MaxSpeed     float64 // m/s
	MaxSteerDeg  float64 // degrees, converted to radians at construction
	Deadzone     float64 // normalized threshold in [0, 1)
	InvertSpeed  bool
}

// Device is the subset of the driver interface the handler uses; tests
// substitute a fake.
type Device interface {
	AxisCount() int
	ButtonCount() int
	Name() string
	Read() (joystick.State, error)
	Close()
}

// Handler owns the device lifecycle and the edge detection state.
type Handler struct {
	cfg      Config
	state    *state.State
	cmd      Commander
	clock    timeutil.Clock
	maxSteer float64 // radians

	// openDevice is swapped out by tests.
	openDevice func(id int) (Device, error)

	dev          Device
	prevEStopBtn bool
	hasRawSpeed  bool
	hasRawSteer  bool
	useEStopBtn  bool
}

// New creates a Handler. The commander receives the immediate ES send when
// the e-stop button toggles.
func New(cfg Config, st *state.State, cmd Commander, clock timeutil.Clock) *Handler {
	return &Handler{
		cfg:      cfg,
		state:    st,
		cmd:      cmd,
		clock:    clock,
		maxSteer: cfg.MaxSteerDeg * math.Pi / 180,
		openDevice: func(id int) (Device, error) {
			dev, err := joystick.Open(id)
			if err != nil {
				return nil, err
			}
			return dev, nil
		},
	}
}

// Run polls the device until the context is cancelled, reconnecting on a
// fixed interval whenever the device is absent.
func (h *Handler) Run(ctx context.Context) error {
	defer h.dropDevice()

	ticker := h.clock.NewTicker(pollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C():
			if h.dev == nil {
				if !h.tryConnect() {
					select {
					case <-ctx.Done():
						return ctx.Err()
					case <-h.clock.After(reconnectInterval):
					}
				}
				continue
			}
			h.poll()
		}
	}
}

// tryConnect attempts to open the configured device and validates the axis
// and button mapping against its capabilities.
func (h *Handler) tryConnect() bool {
	dev, err := h.openDevice(h.cfg.DeviceID)
	if err != nil {
		h.state.SetJoystickConnected(false)
		return false
	}
	h.dev = dev
	h.prevEStopBtn = false
	monitoring.Logf("joystick connected: %s (%d axes, %d buttons)",
		dev.Name(), dev.AxisCount(), dev.ButtonCount())
	h.validateMapping(dev)
	h.state.SetJoystickConnected(true)
	return true
}

// validateMapping runs once per connection to catch bad axis and button
// indices early. Control axes are clamped to 0; display axes and the
// e-stop button are disabled when out of range.
func (h *Handler) validateMapping(dev Device) {
	axes := dev.AxisCount()
	buttons := dev.ButtonCount()

	if h.cfg.AxisSpeed >= axes {
		monitoring.Logf("axis_speed=%d out of range (joystick has %d axes), clamping to 0", h.cfg.AxisSpeed, axes)
		h.cfg.AxisSpeed = 0
	}
	if h.cfg.AxisSteer >= axes {
		monitoring.Logf("axis_steer=%d out of range (joystick has %d axes), clamping to 0", h.cfg.AxisSteer, axes)
		h.cfg.AxisSteer = 0
	}

	h.hasRawSpeed = h.cfg.AxisRawSpeed < axes
	h.hasRawSteer = h.cfg.AxisRawSteer < axes
	if !h.hasRawSpeed {
		monitoring.Logf("axis_raw_speed=%d out of range, raw_speed disabled", h.cfg.AxisRawSpeed)
	}
	if !h.hasRawSteer {
		monitoring.Logf("axis_raw_steer=%d out of range, raw_steer disabled", h.cfg.AxisRawSteer)
	}

	h.useEStopBtn = h.cfg.ButtonEStop < buttons
	if !h.useEStopBtn {
		monitoring.Logf("btn_estop=%d out of range (joystick has %d buttons), e-stop button disabled", h.cfg.ButtonEStop, buttons)
	}
}

// poll reads one sample, updates the control intent, and fires the e-stop
// toggle on a rising button edge.
func (h *Handler) poll() {
	s, err := h.dev.Read()
	if err != nil {
		monitoring.Logf("joystick disconnected: %v", err)
		h.dropDevice()
		return
	}

	speed := ApplyDeadzone(normalize(s.AxisData, h.cfg.AxisSpeed), h.cfg.Deadzone)
	if h.cfg.InvertSpeed {
		speed = -speed
	}
	steer := ApplyDeadzone(normalize(s.AxisData, h.cfg.AxisSteer), h.cfg.Deadzone)

	var rawSpeed, rawSteer float64
	if h.hasRawSpeed {
		rawSpeed = normalize(s.AxisData, h.cfg.AxisRawSpeed)
	}
	if h.hasRawSteer {
		rawSteer = normalize(s.AxisData, h.cfg.AxisRawSteer)
	}

	h.state.SetControlAxes(speed*h.cfg.MaxSpeed, steer*h.maxSteer, rawSpeed, rawSteer)

	if h.useEStopBtn {
		pressed := s.Buttons&(1<<uint(h.cfg.ButtonEStop)) != 0
		if pressed && !h.prevEStopBtn {
			h.toggleEStop()
		}
		h.prevEStopBtn = pressed
	}
}

func (h *Handler) toggleEStop() {
	active := h.state.ToggleEStop()
	monitoring.Logf("joystick e-stop -> %v", active)
	if err := h.cmd.SendEStop(active); err != nil {
		monitoring.Logf("failed to send e-stop: %v", err)
	}
}

// dropDevice releases the device. Prior control values in shared state are
// left unchanged; only the connected flag is cleared.
func (h *Handler) dropDevice() {
	if h.dev == nil {
		return
	}
	h.dev.Close()
	h.dev = nil
	h.state.SetJoystickConnected(false)
}

// normalize maps one driver axis value to [-1, 1]. Missing axes read as 0.
func normalize(axes []int, idx int) float64 {
	if idx < 0 || idx >= len(axes) {
		return 0
	}
	v := float64(axes[idx]) / axisScale
	return math.Max(-1, math.Min(1, v))
}

// ApplyDeadzone maps |v| below the threshold to 0 and linearly rescales
// the remaining range so the output is continuous at the threshold
// boundary and reaches ±1 at full deflection.
func ApplyDeadzone(v, threshold float64) float64 {
	if math.Abs(v) < threshold {
		return 0
	}
	sign := 1.0
	if v < 0 {
		sign = -1
	}
	return sign * (math.Abs(v) - threshold) / (1 - threshold)
}
