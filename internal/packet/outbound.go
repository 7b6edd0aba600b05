package packet

// Fixed on-wire sizes per outbound tag, including tag prefix and trailing
// sequence number.
var outboundSize = map[string]int{
	TagHeartbeat: 12,
	TagTeleop:    12,
	TagEStop:     5,
	TagCmdMode:   5,
}

// Heartbeat is the unconditional station liveness packet.
type Heartbeat struct {
	Timestamp float64 // station wall clock, seconds since the Unix epoch
	Seq       uint16
}

func (Heartbeat) Tag() string { return TagHeartbeat }

func (p Heartbeat) Encode() []byte {
	w := newWriter(TagHeartbeat, outboundSize[TagHeartbeat])
	w.f64(p.Timestamp)
	w.u16(p.Seq)
	return w.buf
}

// Teleop is the periodic motion command, valid only while the station is in
// remote mode.
type Teleop struct {
	LinearX  float32 // m/s
	AngularZ float32 // rad
	Seq      uint16
}

func (Teleop) Tag() string { return TagTeleop }

func (p Teleop) Encode() []byte {
	w := newWriter(TagTeleop, outboundSize[TagTeleop])
	w.f32(p.LinearX)
	w.f32(p.AngularZ)
	w.u16(p.Seq)
	return w.buf
}

// EStop toggles the server-commanded emergency stop. Event-triggered, sent
// exactly once per operator action.
type EStop struct {
	Active bool
	Seq    uint16
}

func (EStop) Tag() string { return TagEStop }

func (p EStop) Encode() []byte {
	w := newWriter(TagEStop, outboundSize[TagEStop])
	w.bool8(p.Active)
	w.u16(p.Seq)
	return w.buf
}

// CmdMode requests a control mode change on the vehicle mux.
type CmdMode struct {
	Mode int8
	Seq  uint16
}

func (CmdMode) Tag() string { return TagCmdMode }

func (p CmdMode) Encode() []byte {
	w := newWriter(TagCmdMode, outboundSize[TagCmdMode])
	w.i8(p.Mode)
	w.u16(p.Seq)
	return w.buf
}
