package packet

// MuxStatus reports the vehicle-side command arbitration state: which
// source the operator requested, which source currently drives the wheels,
// and per-stream activity flags.
type MuxStatus struct {
	RequestedMode int8   `json:"requested_mode"` // -1 idle, 0 ctrl, 1 nav, 2 remote
	ActiveSource  int8   `json:"active_source"`  // 0 nav, 1 teleop, -1 none
	RemoteEnabled bool   `json:"remote_enabled"`
	NavActive     bool   `json:"nav_active"`
	TeleopActive  bool   `json:"teleop_active"`
	FinalActive   bool   `json:"final_active"`
	RawStatus     uint8  `json:"raw_status"`
	Seq           uint16 `json:"seq"`
}

func (MuxStatus) Tag() string { return TagMuxStatus }

func (p MuxStatus) Encode() []byte {
	w := newWriter(TagMuxStatus, inboundSize[TagMuxStatus])
	w.i8(p.RequestedMode)
	w.i8(p.ActiveSource)
	w.bool8(p.RemoteEnabled)
	w.bool8(p.NavActive)
	w.bool8(p.TeleopActive)
	w.bool8(p.FinalActive)
	w.u8(p.RawStatus)
	w.u16(p.Seq)
	return w.buf
}

func decodeMuxStatus(r *reader) MuxStatus {
	return MuxStatus{
		RequestedMode: r.i8(),
		ActiveSource:  r.i8(),
		RemoteEnabled: r.bool8(),
		NavActive:     r.bool8(),
		TeleopActive:  r.bool8(),
		FinalActive:   r.bool8(),
		RawStatus:     r.u8(),
		Seq:           r.u16(),
	}
}

// TwistValues carries the three velocity pairs flowing through the mux:
// the nav stack's command, the teleop command as received on the vehicle,
// and the final arbitrated output.
type TwistValues struct {
	NavLX    float32 `json:"nav_lx"`
	NavAZ    float32 `json:"nav_az"`
	TeleopLX float32 `json:"teleop_lx"`
	TeleopAZ float32 `json:"teleop_az"`
	FinalLX  float32 `json:"final_lx"`
	FinalAZ  float32 `json:"final_az"`
	Seq      uint16  `json:"seq"`
}

func (TwistValues) Tag() string { return TagTwist }

func (p TwistValues) Encode() []byte {
	w := newWriter(TagTwist, inboundSize[TagTwist])
	w.f32(p.NavLX)
	w.f32(p.NavAZ)
	w.f32(p.TeleopLX)
	w.f32(p.TeleopAZ)
	w.f32(p.FinalLX)
	w.f32(p.FinalAZ)
	w.u16(p.Seq)
	return w.buf
}

func decodeTwist(r *reader) TwistValues {
	return TwistValues{
		NavLX:    r.f32(),
		NavAZ:    r.f32(),
		TeleopLX: r.f32(),
		TeleopAZ: r.f32(),
		FinalLX:  r.f32(),
		FinalAZ:  r.f32(),
		Seq:      r.u16(),
	}
}

// NetworkStatus is the bridge's view of the station link.
type NetworkStatus struct {
	Connected     bool    `json:"connected"`
	StatusCode    int8    `json:"status_code"` // 0 ok, 1 hb delay, 2 socket error
	RTTMs         float32 `json:"rtt_ms"`
	BandwidthMbps float32 `json:"bandwidth_mbps"`
	Seq           uint16  `json:"seq"`
}

func (NetworkStatus) Tag() string { return TagNetwork }

func (p NetworkStatus) Encode() []byte {
	w := newWriter(TagNetwork, inboundSize[TagNetwork])
	w.bool8(p.Connected)
	w.i8(p.StatusCode)
	w.f32(p.RTTMs)
	w.f32(p.BandwidthMbps)
	w.u16(p.Seq)
	return w.buf
}

func decodeNetwork(r *reader) NetworkStatus {
	return NetworkStatus{
		Connected:     r.bool8(),
		StatusCode:    r.i8(),
		RTTMs:         r.f32(),
		BandwidthMbps: r.f32(),
		Seq:           r.u16(),
	}
}

// HunterStatus is the chassis telemetry relayed from the Hunter base.
type HunterStatus struct {
	LinearVel      float64 `json:"linear_vel"`
	SteeringAngle  float64 `json:"steering_angle"`
	VehicleState   uint8   `json:"vehicle_state"`
	ControlMode    uint8   `json:"control_mode"`
	ErrorCode      uint16  `json:"error_code"`
	BatteryVoltage float64 `json:"battery_voltage"`
	Seq            uint16  `json:"seq"`
}

func (HunterStatus) Tag() string { return TagHunter }

func (p HunterStatus) Encode() []byte {
	w := newWriter(TagHunter, inboundSize[TagHunter])
	w.f64(p.LinearVel)
	w.f64(p.SteeringAngle)
	w.u8(p.VehicleState)
	w.u8(p.ControlMode)
	w.u16(p.ErrorCode)
	w.f64(p.BatteryVoltage)
	w.u16(p.Seq)
	return w.buf
}

func decodeHunter(r *reader) HunterStatus {
	return HunterStatus{
		LinearVel:      r.f64(),
		SteeringAngle:  r.f64(),
		VehicleState:   r.u8(),
		ControlMode:    r.u8(),
		ErrorCode:      r.u16(),
		BatteryVoltage: r.f64(),
		Seq:            r.u16(),
	}
}

// EStopStatus is the vehicle-side emergency stop state. BridgeFlag and
// MuxFlag are vehicle-computed cause enumerants; the station only displays
// them.
type EStopStatus struct {
	IsEStop    bool   `json:"is_estop"`
	BridgeFlag int8   `json:"bridge_flag"`
	MuxFlag    int8   `json:"mux_flag"`
	Seq        uint16 `json:"seq"`
}

func (EStopStatus) Tag() string { return TagEStopStatus }

func (p EStopStatus) Encode() []byte {
	w := newWriter(TagEStopStatus, inboundSize[TagEStopStatus])
	w.bool8(p.IsEStop)
	w.i8(p.BridgeFlag)
	w.i8(p.MuxFlag)
	w.u16(p.Seq)
	return w.buf
}

func decodeEStopStatus(r *reader) EStopStatus {
	return EStopStatus{
		IsEStop:    r.bool8(),
		BridgeFlag: r.i8(),
		MuxFlag:    r.i8(),
		Seq:        r.u16(),
	}
}

// RemoteEnabled echoes the vehicle-side remote_enabled parameter.
type RemoteEnabled struct {
	Enabled bool   `json:"enabled"`
	Seq     uint16 `json:"seq"`
}

func (RemoteEnabled) Tag() string { return TagRemoteEn }

func (p RemoteEnabled) Encode() []byte {
	w := newWriter(TagRemoteEn, inboundSize[TagRemoteEn])
	w.bool8(p.Enabled)
	w.u16(p.Seq)
	return w.buf
}

func decodeRemoteEnabled(r *reader) RemoteEnabled {
	return RemoteEnabled{Enabled: r.bool8(), Seq: r.u16()}
}

// CPUStatus is the vehicle computer's processor readings.
type CPUStatus struct {
	PhysCores  uint8   `json:"cpu_phys"`
	LogicCores uint8   `json:"cpu_logic"`
	Usage      float32 `json:"cpu_usage"`
	Temp       float32 `json:"cpu_temp"`
	Load       float32 `json:"cpu_load"`
	Seq        uint16  `json:"seq"`
}

func (CPUStatus) Tag() string { return TagCPU }

func (p CPUStatus) Encode() []byte {
	w := newWriter(TagCPU, inboundSize[TagCPU])
	w.u8(p.PhysCores)
	w.u8(p.LogicCores)
	w.f32(p.Usage)
	w.f32(p.Temp)
	w.f32(p.Load)
	w.u16(p.Seq)
	return w.buf
}

func decodeCPU(r *reader) CPUStatus {
	return CPUStatus{
		PhysCores:  r.u8(),
		LogicCores: r.u8(),
		Usage:      r.f32(),
		Temp:       r.f32(),
		Load:       r.f32(),
		Seq:        r.u16(),
	}
}

// MemoryStatus is the vehicle computer's RAM readings, in bytes.
type MemoryStatus struct {
	Total uint64 `json:"ram_total"`
	Used  uint64 `json:"ram_used"`
	Seq   uint16 `json:"seq"`
}

func (MemoryStatus) Tag() string { return TagMemory }

func (p MemoryStatus) Encode() []byte {
	w := newWriter(TagMemory, inboundSize[TagMemory])
	w.u64(p.Total)
	w.u64(p.Used)
	w.u16(p.Seq)
	return w.buf
}

func decodeMemory(r *reader) MemoryStatus {
	return MemoryStatus{Total: r.u64(), Used: r.u64(), Seq: r.u16()}
}

// GPUSummary reports how many GPU devices are present, bounding the
// per-device GR stream.
type GPUSummary struct {
	Count uint8  `json:"count"`
	Seq   uint16 `json:"seq"`
}

func (GPUSummary) Tag() string { return TagGPUSummary }

func (p GPUSummary) Encode() []byte {
	w := newWriter(TagGPUSummary, inboundSize[TagGPUSummary])
	w.u8(p.Count)
	w.u16(p.Seq)
	return w.buf
}

func decodeGPUSummary(r *reader) GPUSummary {
	return GPUSummary{Count: r.u8(), Seq: r.u16()}
}

// GPUReading is one per-device GPU sample, keyed by Index.
type GPUReading struct {
	Index      uint8   `json:"idx"`
	Usage      float32 `json:"gpu_usage"`
	MemUsedMB  uint32  `json:"gpu_mem_used"`
	MemTotalMB uint32  `json:"gpu_mem_total"`
	Temp       float32 `json:"gpu_temp"`
	Power      float32 `json:"gpu_power"`
	Seq        uint16  `json:"seq"`
}

func (GPUReading) Tag() string { return TagGPU }

func (p GPUReading) Encode() []byte {
	w := newWriter(TagGPU, inboundSize[TagGPU])
	w.u8(p.Index)
	w.f32(p.Usage)
	w.u32(p.MemUsedMB)
	w.u32(p.MemTotalMB)
	w.f32(p.Temp)
	w.f32(p.Power)
	w.u16(p.Seq)
	return w.buf
}

func decodeGPU(r *reader) GPUReading {
	return GPUReading{
		Index:      r.u8(),
		Usage:      r.f32(),
		MemUsedMB:  r.u32(),
		MemTotalMB: r.u32(),
		Temp:       r.f32(),
		Power:      r.f32(),
		Seq:        r.u16(),
	}
}

// DiskSummary reports aggregate disk capacity across all partitions.
type DiskSummary struct {
	Partitions uint8  `json:"partitions"`
	TotalBytes uint64 `json:"total_bytes"`
	UsedBytes  uint64 `json:"used_bytes"`
	Seq        uint16 `json:"seq"`
}

func (DiskSummary) Tag() string { return TagDiskSummary }

func (p DiskSummary) Encode() []byte {
	w := newWriter(TagDiskSummary, inboundSize[TagDiskSummary])
	w.u8(p.Partitions)
	w.u64(p.TotalBytes)
	w.u64(p.UsedBytes)
	w.u16(p.Seq)
	return w.buf
}

func decodeDiskSummary(r *reader) DiskSummary {
	return DiskSummary{
		Partitions: r.u8(),
		TotalBytes: r.u64(),
		UsedBytes:  r.u64(),
		Seq:        r.u16(),
	}
}

// DiskPartition is one per-partition sample, keyed by Index. Mountpoint is
// null-padded to MountpointLen bytes on the wire.
type DiskPartition struct {
	Index      uint8   `json:"idx"`
	Mountpoint string  `json:"mountpoint"`
	TotalBytes uint64  `json:"total_bytes"`
	UsedBytes  uint64  `json:"used_bytes"`
	Percent    float32 `json:"percent"`
	Accessible bool    `json:"accessible"`
	Seq        uint16  `json:"seq"`
}

func (DiskPartition) Tag() string { return TagPartition }

func (p DiskPartition) Encode() []byte {
	w := newWriter(TagPartition, inboundSize[TagPartition])
	w.u8(p.Index)
	w.str(p.Mountpoint, MountpointLen)
	w.u64(p.TotalBytes)
	w.u64(p.UsedBytes)
	w.f32(p.Percent)
	w.bool8(p.Accessible)
	w.u16(p.Seq)
	return w.buf
}

func decodePartition(r *reader) DiskPartition {
	return DiskPartition{
		Index:      r.u8(),
		Mountpoint: r.str(MountpointLen),
		TotalBytes: r.u64(),
		UsedBytes:  r.u64(),
		Percent:    r.f32(),
		Accessible: r.bool8(),
		Seq:        r.u16(),
	}
}

// NetSummary reports interface counts on the vehicle computer.
type NetSummary struct {
	Total  uint8  `json:"net_total_ifaces"`
	Active uint8  `json:"net_active_ifaces"`
	Down   uint8  `json:"net_down_ifaces"`
	Seq    uint16 `json:"seq"`
}

func (NetSummary) Tag() string { return TagNetSummary }

func (p NetSummary) Encode() []byte {
	w := newWriter(TagNetSummary, inboundSize[TagNetSummary])
	w.u8(p.Total)
	w.u8(p.Active)
	w.u8(p.Down)
	w.u16(p.Seq)
	return w.buf
}

func decodeNetSummary(r *reader) NetSummary {
	return NetSummary{
		Total:  r.u8(),
		Active: r.u8(),
		Down:   r.u8(),
		Seq:    r.u16(),
	}
}

// NetInterface is one per-interface sample, keyed by Index. Name is
// null-padded to IfaceNameLen bytes on the wire.
type NetInterface struct {
	Index     uint8  `json:"idx"`
	Name      string `json:"name"`
	IsUp      bool   `json:"is_up"`
	SpeedMbps uint32 `json:"speed_mbps"`
	RxBytes   uint64 `json:"rx_bytes"`
	TxBytes   uint64 `json:"tx_bytes"`
	RxPackets uint32 `json:"rx_packets"`
	TxPackets uint32 `json:"tx_packets"`
	Seq       uint16 `json:"seq"`
}

func (NetInterface) Tag() string { return TagNetIface }

func (p NetInterface) Encode() []byte {
	w := newWriter(TagNetIface, inboundSize[TagNetIface])
	w.u8(p.Index)
	w.str(p.Name, IfaceNameLen)
	w.bool8(p.IsUp)
	w.u32(p.SpeedMbps)
	w.u64(p.RxBytes)
	w.u64(p.TxBytes)
	w.u32(p.RxPackets)
	w.u32(p.TxPackets)
	w.u16(p.Seq)
	return w.buf
}

func decodeNetIface(r *reader) NetInterface {
	return NetInterface{
		Index:     r.u8(),
		Name:      r.str(IfaceNameLen),
		IsUp:      r.bool8(),
		SpeedMbps: r.u32(),
		RxBytes:   r.u64(),
		TxBytes:   r.u64(),
		RxPackets: r.u32(),
		TxPackets: r.u32(),
		Seq:       r.u16(),
	}
}
