// Package validate derives the operator-facing alert list from a vehicle
// state snapshot. Evaluation is a pure function of the snapshot and the
// current wall-clock time; every applicable rule fires independently.
package validate

import (
	"fmt"
	"math"
	"time"

	"github.com/nevlife/nev-gcs/internal/packet"
	"github.com/nevlife/nev-gcs/internal/state"
	"github.com/nevlife/nev-gcs/internal/timeutil"
)

const (
	// StaleAfter is how long the station tolerates silence from the
	// vehicle before raising the stale-data alert.
	StaleAfter = 3.0 // seconds

	// motionEpsilon is the final-twist magnitude below which the vehicle
	// is considered stationary.
	motionEpsilon = 0.05
)

// Engine evaluates the fixed rule set. It keeps the station start time so
// the stale-data age is meaningful before the first packet arrives.
type Engine struct {
	clock timeutil.Clock
	start time.Time
}

// New creates an Engine anchored at the clock's current time.
func New(clock timeutil.Clock) *Engine {
	return &Engine{clock: clock, start: clock.Now()}
}

// Evaluate runs every rule against the snapshot and returns the resulting
// alert list in rule order. It never mutates the snapshot.
func (e *Engine) Evaluate(snap state.Snapshot) []state.Alert {
	now := e.clock.Now()
	var alerts []state.Alert

	// Vehicle reports e-stop engaged but the final twist is still moving.
	if snap.EStop.IsEStop &&
		(math.Abs(float64(snap.Twist.FinalLX)) > motionEpsilon ||
			math.Abs(float64(snap.Twist.FinalAZ)) > motionEpsilon) {
		alerts = append(alerts, state.Alert{
			Level:   state.LevelError,
			Message: "E-STOP active but vehicle is moving!",
		})
	}

	// Station commanded e-stop but the vehicle has not confirmed it yet.
	if snap.Control.EStop && !snap.EStop.IsEStop {
		alerts = append(alerts, state.Alert{
			Level:   state.LevelWarn,
			Message: "E-stop sent — waiting for vehicle confirmation",
		})
	}

	// Remote mode commanded and enabled on the vehicle, but the mux sees
	// no teleop stream.
	if snap.Control.Mode == packet.ModeRemote &&
		snap.Mux.RemoteEnabled && !snap.Mux.TeleopActive {
		alerts = append(alerts, state.Alert{
			Level:   state.LevelWarn,
			Message: "Remote mode active but no teleop commands received",
		})
	}

	// No successfully decoded packet for too long. An unset timestamp is
	// infinitely stale; its reported age is measured from station start.
	if snap.LastVehicleRecv.IsZero() {
		alerts = append(alerts, state.Alert{
			Level:   state.LevelError,
			Message: fmt.Sprintf("No vehicle data for %.1fs", now.Sub(e.start).Seconds()),
		})
	} else if age := now.Sub(snap.LastVehicleRecv).Seconds(); age > StaleAfter {
		alerts = append(alerts, state.Alert{
			Level:   state.LevelError,
			Message: fmt.Sprintf("No vehicle data for %.1fs", age),
		})
	}

	return alerts
}
