package packet

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// roundTripPackets covers every inbound tag with boundary field values:
// max uint16 sequence, negative int8 enumerants, full-range counters.
var roundTripPackets = []Inbound{
	MuxStatus{
		RequestedMode: -1,
		ActiveSource:  -1,
		RemoteEnabled: true,
		NavActive:     false,
		TeleopActive:  true,
		FinalActive:   true,
		RawStatus:     0xFF,
		Seq:           65535,
	},
	MuxStatus{RequestedMode: 2, ActiveSource: 1},
	TwistValues{
		NavLX:    -1.5,
		NavAZ:    0.25,
		TeleopLX: 1.0,
		TeleopAZ: -0.47,
		FinalLX:  0.001,
		FinalAZ:  -3.25,
		Seq:      12345,
	},
	NetworkStatus{Connected: true, StatusCode: 2, RTTMs: 18.5, BandwidthMbps: 94.2, Seq: 1},
	HunterStatus{
		LinearVel:      -2.75,
		SteeringAngle:  0.4712,
		VehicleState:   3,
		ControlMode:    1,
		ErrorCode:      65535,
		BatteryVoltage: 48.6,
		Seq:            65535,
	},
	EStopStatus{IsEStop: true, BridgeFlag: BridgeFlagServerCommand, MuxFlag: MuxFlagNoTeleop, Seq: 7},
	EStopStatus{BridgeFlag: BridgeFlagTeleopTimeout},
	RemoteEnabled{Enabled: true, Seq: 9},
	CPUStatus{PhysCores: 8, LogicCores: 16, Usage: 73.25, Temp: 61.5, Load: 4.25, Seq: 42},
	MemoryStatus{Total: 1<<63 + 7, Used: 12884901888, Seq: 99},
	GPUSummary{Count: 2, Seq: 3},
	GPUReading{Index: 1, Usage: 97.5, MemUsedMB: 10240, MemTotalMB: 24576, Temp: 71.0, Power: 289.5, Seq: 500},
	DiskSummary{Partitions: 4, TotalBytes: 2 << 40, UsedBytes: 1 << 40, Seq: 17},
	DiskPartition{
		Index:      3,
		Mountpoint: "/var/log",
		TotalBytes: 512 << 30,
		UsedBytes:  400 << 30,
		Percent:    78.125,
		Accessible: true,
		Seq:        65535,
	},
	NetSummary{Total: 5, Active: 3, Down: 2, Seq: 21},
	NetInterface{
		Index:     0,
		Name:      "enp3s0",
		IsUp:      true,
		SpeedMbps: 1000,
		RxBytes:   1 << 50,
		TxBytes:   987654321,
		RxPackets: 4294967295,
		TxPackets: 1,
		Seq:       2,
	},
}

func TestInboundRoundTrip(t *testing.T) {
	for _, want := range roundTripPackets {
		t.Run(want.Tag(), func(t *testing.T) {
			raw := want.Encode()
			require.Equal(t, inboundSize[want.Tag()], len(raw), "encoded length must match the fixed size")

			got, err := Decode(raw)
			require.NoError(t, err)
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("round trip mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOutboundEncodeSizes(t *testing.T) {
	tests := []struct {
		pkt  interface{ Encode() []byte }
		tag  string
		size int
	}{
		{Heartbeat{Timestamp: 1724630400.123, Seq: 65535}, TagHeartbeat, 12},
		{Teleop{LinearX: -1.0, AngularZ: 0.4712, Seq: 100}, TagTeleop, 12},
		{EStop{Active: true, Seq: 0}, TagEStop, 5},
		{CmdMode{Mode: -1, Seq: 1}, TagCmdMode, 5},
	}
	for _, tt := range tests {
		raw := tt.pkt.Encode()
		assert.Equal(t, tt.size, len(raw), "tag %s", tt.tag)
		assert.Equal(t, tt.tag, string(raw[:2]))
	}
}

func TestDecodeUnknownTag(t *testing.T) {
	for _, tag := range []string{"XX", "hb", "ZQ", "\x00\x00"} {
		buf := append([]byte(tag), make([]byte, 10)...)
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrUnknownTag, "tag %q", tag)
	}

	// Outbound tags are not valid inbound traffic.
	_, err := Decode(Heartbeat{Seq: 1}.Encode())
	assert.ErrorIs(t, err, ErrUnknownTag)
}

func TestDecodeBadLength(t *testing.T) {
	for tag, want := range inboundSize {
		for _, n := range []int{tagSize, want - 1, want + 1, want * 2} {
			if n == want {
				continue
			}
			buf := append([]byte(tag), make([]byte, n-tagSize)...)
			_, err := Decode(buf)
			assert.ErrorIs(t, err, ErrBadLength, "tag %s with %d bytes", tag, n)
		}
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	for _, buf := range [][]byte{nil, {}, {'M'}} {
		_, err := Decode(buf)
		assert.ErrorIs(t, err, ErrBadLength)
	}
}

// Decode must never panic or read out of bounds, whatever the input.
func TestDecodeArbitraryBytes(t *testing.T) {
	for length := 0; length < 80; length++ {
		buf := make([]byte, length)
		for i := range buf {
			buf[i] = byte(i * 37)
		}
		assert.NotPanics(t, func() { Decode(buf) }, "length %d", length)
	}
}

func TestFixedStringTruncation(t *testing.T) {
	long := "/mnt/an-extremely-long-partition-mountpoint-name-that-overflows"
	p := DiskPartition{Index: 1, Mountpoint: long, Seq: 4}
	got, err := Decode(p.Encode())
	require.NoError(t, err)

	dp, ok := got.(DiskPartition)
	require.True(t, ok)
	assert.Equal(t, long[:MountpointLen], dp.Mountpoint)
	assert.Len(t, p.Encode(), inboundSize[TagPartition])
}
