// Package state holds the single mutable aggregate of vehicle telemetry,
// server-side control intent, and derived freshness metadata. All other
// components read or write through it.
//
// Mutations replace one whole sub-state at a time; readers take a deep-copy
// Snapshot and never observe a torn write. A monotonic version counter
// advances on every visible change and drives the change Notifier.
package state

import (
	"sync"
	"time"

	"github.com/nevlife/nev-gcs/internal/packet"
	"github.com/nevlife/nev-gcs/internal/timeutil"
)

// Alert severity levels.
const (
	LevelWarn  = "warn"
	LevelError = "error"
)

// Alert is one operator-facing finding from a validation pass.
type Alert struct {
	Level   string `json:"level"`
	Message string `json:"message"`
}

// ControlState is the station's own outgoing intent: the commanded mode and
// e-stop flag plus the bounded joystick command. RawSpeed and RawSteer are
// unscaled display-only axis readings and never reach the wire.
type ControlState struct {
	Mode              int8    `json:"mode"`
	EStop             bool    `json:"estop"`
	LinearX           float64 `json:"linear_x"`
	AngularZ          float64 `json:"angular_z"`
	RawSpeed          float64 `json:"raw_speed"`
	RawSteer          float64 `json:"raw_steer"`
	JoystickConnected bool    `json:"joystick_connected"`
}

// Resources merges the scalar system-resource packets (CR, MR, GS, DI, NM)
// into one record for display.
type Resources struct {
	CPUPhys        uint8   `json:"cpu_phys"`
	CPULogic       uint8   `json:"cpu_logic"`
	CPUUsage       float32 `json:"cpu_usage"`
	CPUTemp        float32 `json:"cpu_temp"`
	CPULoad        float32 `json:"cpu_load"`
	RAMTotal       uint64  `json:"ram_total"`
	RAMUsed        uint64  `json:"ram_used"`
	GPUCount       uint8   `json:"gpu_count"`
	DiskPartitions uint8   `json:"disk_partitions"`
	DiskTotal      uint64  `json:"disk_total_bytes"`
	DiskUsed       uint64  `json:"disk_used_bytes"`
	NetTotal       uint8   `json:"net_total_ifaces"`
	NetActive      uint8   `json:"net_active_ifaces"`
	NetDown        uint8   `json:"net_down_ifaces"`
}

// Snapshot is a fully consistent copy of the aggregate at one instant.
type Snapshot struct {
	Mux            packet.MuxStatus       `json:"mux"`
	Twist          packet.TwistValues     `json:"twist"`
	Network        packet.NetworkStatus   `json:"network"`
	Hunter         packet.HunterStatus    `json:"hunter"`
	EStop          packet.EStopStatus     `json:"estop"`
	RemoteEnabled  bool                   `json:"remote_enabled"`
	Resources      Resources              `json:"resources"`
	GPUs           []packet.GPUReading    `json:"gpu_list"`
	DiskPartitions []packet.DiskPartition `json:"disk_partitions"`
	NetInterfaces  []packet.NetInterface  `json:"net_interfaces"`
	Control        ControlState           `json:"control"`
	Alerts         []Alert                `json:"alerts"`

	// LastVehicleRecv is zero until the first inbound packet decodes.
	LastVehicleRecv time.Time `json:"-"`
	// VehicleAge is seconds since LastVehicleRecv, or -1 when unset.
	VehicleAge float64 `json:"vehicle_age"`
	// ServerTime is the station wall clock at the moment of the snapshot.
	ServerTime time.Time `json:"server_time"`
}

// State is the internally synchronised container. Construct with New and
// pass the one instance to every component; it lives for the process.
type State struct {
	clock timeutil.Clock

	mu              sync.RWMutex
	version         uint64
	mux             packet.MuxStatus
	twist           packet.TwistValues
	network         packet.NetworkStatus
	hunter          packet.HunterStatus
	estop           packet.EStopStatus
	remoteEnabled   bool
	resources       Resources
	gpus            []packet.GPUReading
	diskPartitions  []packet.DiskPartition
	netInterfaces   []packet.NetInterface
	control         ControlState
	alerts          []Alert
	lastVehicleRecv time.Time
}

// New creates a State with every sub-state at its zero value and the
// freshness timestamp unset (infinitely stale).
func New(clock timeutil.Clock) *State {
	return &State{clock: clock, control: ControlState{Mode: packet.ModeIdle}}
}

// Apply atomically replaces the sub-state owned by the decoded packet and
// advances the freshness timestamp. The receive path is the only caller.
func (s *State) Apply(p packet.Inbound) {
	now := s.clock.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	switch v := p.(type) {
	case packet.MuxStatus:
		s.mux = v
		s.remoteEnabled = v.RemoteEnabled
	case packet.TwistValues:
		s.twist = v
	case packet.NetworkStatus:
		s.network = v
	case packet.HunterStatus:
		s.hunter = v
	case packet.EStopStatus:
		s.estop = v
	case packet.RemoteEnabled:
		s.remoteEnabled = v.Enabled
	case packet.CPUStatus:
		s.resources.CPUPhys = v.PhysCores
		s.resources.CPULogic = v.LogicCores
		s.resources.CPUUsage = v.Usage
		s.resources.CPUTemp = v.Temp
		s.resources.CPULoad = v.Load
	case packet.MemoryStatus:
		s.resources.RAMTotal = v.Total
		s.resources.RAMUsed = v.Used
	case packet.GPUSummary:
		s.resources.GPUCount = v.Count
		if int(v.Count) < len(s.gpus) {
			s.gpus = s.gpus[:v.Count]
		}
	case packet.GPUReading:
		s.gpus = upsert(s.gpus, int(v.Index), v)
	case packet.DiskSummary:
		s.resources.DiskPartitions = v.Partitions
		s.resources.DiskTotal = v.TotalBytes
		s.resources.DiskUsed = v.UsedBytes
	case packet.DiskPartition:
		s.diskPartitions = upsert(s.diskPartitions, int(v.Index), v)
	case packet.NetSummary:
		s.resources.NetTotal = v.Total
		s.resources.NetActive = v.Active
		s.resources.NetDown = v.Down
	case packet.NetInterface:
		s.netInterfaces = upsert(s.netInterfaces, int(v.Index), v)
	}

	// Freshness only ever advances.
	if now.After(s.lastVehicleRecv) {
		s.lastVehicleRecv = now
	}
	s.version++
}

// upsert places v at index idx, growing the slice with zero-value slots as
// needed so readings arriving out of index order still land in place.
func upsert[T any](list []T, idx int, v T) []T {
	for len(list) <= idx {
		var zero T
		list = append(list, zero)
	}
	list[idx] = v
	return list
}

// Snapshot returns a deep copy of the aggregate.
func (s *State) Snapshot() Snapshot {
	now := s.clock.Now()

	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		Mux:             s.mux,
		Twist:           s.twist,
		Network:         s.network,
		Hunter:          s.hunter,
		EStop:           s.estop,
		RemoteEnabled:   s.remoteEnabled,
		Resources:       s.resources,
		GPUs:            append([]packet.GPUReading(nil), s.gpus...),
		DiskPartitions:  append([]packet.DiskPartition(nil), s.diskPartitions...),
		NetInterfaces:   append([]packet.NetInterface(nil), s.netInterfaces...),
		Control:         s.control,
		Alerts:          append([]Alert(nil), s.alerts...),
		LastVehicleRecv: s.lastVehicleRecv,
		ServerTime:      now,
		VehicleAge:      -1,
	}
	if !s.lastVehicleRecv.IsZero() {
		snap.VehicleAge = now.Sub(s.lastVehicleRecv).Seconds()
	}
	return snap
}

// Version returns the mutation counter. The Notifier compares successive
// observations of it to detect change.
func (s *State) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Control returns a copy of the current control intent.
func (s *State) Control() ControlState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.control
}

// SetControlMode records the commanded mux mode.
func (s *State) SetControlMode(mode int8) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control.Mode = mode
	s.version++
}

// SetControlEStop records the server-side e-stop flag.
func (s *State) SetControlEStop(active bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control.EStop = active
	s.version++
}

// ToggleEStop flips the server-side e-stop flag atomically and returns the
// new value. Used by the edge-triggered joystick button.
func (s *State) ToggleEStop() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control.EStop = !s.control.EStop
	s.version++
	return s.control.EStop
}

// SetControlAxes records one joystick sample: the bounded command pair and
// the unscaled display axes.
func (s *State) SetControlAxes(linearX, angularZ, rawSpeed, rawSteer float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.control.LinearX = linearX
	s.control.AngularZ = angularZ
	s.control.RawSpeed = rawSpeed
	s.control.RawSteer = rawSteer
	s.version++
}

// SetJoystickConnected records input device presence.
func (s *State) SetJoystickConnected(connected bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.control.JoystickConnected == connected {
		return
	}
	s.control.JoystickConnected = connected
	s.version++
}

// SetAlerts replaces the alert list with the result of a validation pass.
// It reports whether the list changed; an unchanged pass does not bump the
// version, so periodic re-validation does not wake notifier subscribers.
func (s *State) SetAlerts(alerts []Alert) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if alertsEqual(s.alerts, alerts) {
		return false
	}
	s.alerts = append([]Alert(nil), alerts...)
	s.version++
	return true
}

func alertsEqual(a, b []Alert) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
