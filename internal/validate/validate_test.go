package validate

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevlife/nev-gcs/internal/packet"
	"github.com/nevlife/nev-gcs/internal/state"
	"github.com/nevlife/nev-gcs/internal/timeutil"
)

var t0 = time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC)

// freshSnapshot returns a snapshot that triggers no rule.
func freshSnapshot(clock timeutil.Clock) state.Snapshot {
	return state.Snapshot{
		LastVehicleRecv: clock.Now(),
		ServerTime:      clock.Now(),
	}
}

func levels(alerts []state.Alert) []string {
	var out []string
	for _, a := range alerts {
		out = append(out, a.Level)
	}
	return out
}

func messages(alerts []state.Alert) []string {
	var out []string
	for _, a := range alerts {
		out = append(out, a.Message)
	}
	return out
}

func TestEvaluateCleanState(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)
	assert.Empty(t, e.Evaluate(freshSnapshot(clock)))
}

func TestMotionDuringEStop(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)

	snap := freshSnapshot(clock)
	snap.EStop = packet.EStopStatus{IsEStop: true, BridgeFlag: packet.BridgeFlagServerCommand}
	snap.Twist = packet.TwistValues{FinalLX: 0.2}

	alerts := e.Evaluate(snap)
	require.NotEmpty(t, alerts)
	assert.Contains(t, messages(alerts), "E-STOP active but vehicle is moving!")
	assert.Contains(t, levels(alerts), state.LevelError)

	// Below the motion epsilon the vehicle counts as stationary.
	snap.Twist = packet.TwistValues{FinalLX: 0.04, FinalAZ: -0.04}
	for _, m := range messages(e.Evaluate(snap)) {
		assert.NotEqual(t, "E-STOP active but vehicle is moving!", m)
	}

	// Angular motion alone also fires.
	snap.Twist = packet.TwistValues{FinalAZ: -0.2}
	assert.Contains(t, messages(e.Evaluate(snap)), "E-STOP active but vehicle is moving!")
}

func TestEStopUnconfirmed(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)

	snap := freshSnapshot(clock)
	snap.Control.EStop = true

	alerts := e.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, state.LevelWarn, alerts[0].Level)
	assert.Equal(t, "E-stop sent — waiting for vehicle confirmation", alerts[0].Message)

	// Vehicle confirmation clears the warning.
	snap.EStop.IsEStop = true
	assert.Empty(t, e.Evaluate(snap))
}

func TestRemoteWithoutTeleop(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)

	snap := freshSnapshot(clock)
	snap.Control.Mode = packet.ModeRemote
	snap.Mux = packet.MuxStatus{RequestedMode: 2, RemoteEnabled: true, TeleopActive: false}

	alerts := e.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, state.LevelWarn, alerts[0].Level)
	assert.Equal(t, "Remote mode active but no teleop commands received", alerts[0].Message)

	// Teleop flowing on the vehicle clears it.
	snap.Mux.TeleopActive = true
	assert.Empty(t, e.Evaluate(snap))

	// Not commanded remote: no warning regardless of mux state.
	snap.Control.Mode = packet.ModeNav
	snap.Mux.TeleopActive = false
	assert.Empty(t, e.Evaluate(snap))
}

func TestStaleVehicleData(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)

	snap := freshSnapshot(clock)
	snap.LastVehicleRecv = clock.Now().Add(-3100 * time.Millisecond)
	alerts := e.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, state.LevelError, alerts[0].Level)
	assert.Equal(t, "No vehicle data for 3.1s", alerts[0].Message)

	snap.LastVehicleRecv = clock.Now().Add(-2900 * time.Millisecond)
	assert.Empty(t, e.Evaluate(snap))
}

func TestStaleWhenNeverReceived(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)
	clock.Advance(10 * time.Second)

	snap := state.Snapshot{} // LastVehicleRecv unset: infinitely stale
	alerts := e.Evaluate(snap)
	require.Len(t, alerts, 1)
	assert.Equal(t, state.LevelError, alerts[0].Level)
	assert.Equal(t, "No vehicle data for 10.0s", alerts[0].Message)
}

// All applicable rules fire together; there is no short-circuit.
func TestRulesAreIndependent(t *testing.T) {
	clock := timeutil.NewMockClock(t0)
	e := New(clock)

	snap := state.Snapshot{
		EStop:   packet.EStopStatus{IsEStop: true},
		Twist:   packet.TwistValues{FinalLX: 1.0},
		Control: state.ControlState{Mode: packet.ModeRemote},
		Mux:     packet.MuxStatus{RemoteEnabled: true},
	}
	clock.Advance(5 * time.Second)

	alerts := e.Evaluate(snap)
	assert.Len(t, alerts, 3)
	assert.ElementsMatch(t, []string{
		"E-STOP active but vehicle is moving!",
		"Remote mode active but no teleop commands received",
		"No vehicle data for 5.0s",
	}, messages(alerts))
}
