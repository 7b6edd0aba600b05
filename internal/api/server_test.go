package api

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevlife/nev-gcs/internal/packet"
	"github.com/nevlife/nev-gcs/internal/state"
	"github.com/nevlife/nev-gcs/internal/timeutil"
)

type fakeCommander struct {
	mu     sync.Mutex
	modes  []int8
	estops []bool
	fail   bool
}

func (f *fakeCommander) SendEStop(active bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.estops = append(f.estops, active)
	return nil
}

func (f *fakeCommander) SendMode(mode int8) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("send failed")
	}
	f.modes = append(f.modes, mode)
	return nil
}

func newTestServer(t *testing.T) (*httptest.Server, *state.State, *fakeCommander) {
	t.Helper()
	clock := timeutil.RealClock{}
	st := state.New(clock)
	notifier := state.NewNotifier(st, clock, 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	go notifier.Run(ctx)

	cmd := &fakeCommander{}
	srv := httptest.NewServer(NewServer(st, notifier, cmd).ServeMux())
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, st, cmd
}

func TestStateEndpoint(t *testing.T) {
	srv, st, _ := newTestServer(t)
	st.Apply(packet.TwistValues{FinalLX: 0.5, Seq: 9})

	resp, err := http.Get(srv.URL + "/api/state")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.Header.Get("Content-Type"))

	var snap state.Snapshot
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&snap))
	assert.Equal(t, float32(0.5), snap.Twist.FinalLX)
	assert.Equal(t, uint16(9), snap.Twist.Seq)
	assert.NotZero(t, snap.ServerTime)
}

func TestStateEndpointRejectsPost(t *testing.T) {
	srv, _, _ := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/state", "application/json", nil)
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
}

func TestCmdModeEndpoint(t *testing.T) {
	srv, st, cmd := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/cmd_mode", "application/json", strings.NewReader(`{"mode": 2}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []int8{packet.ModeRemote}, cmd.modes)
	assert.Equal(t, packet.ModeRemote, st.Control().Mode)
}

func TestCmdModeRejectsUnknownMode(t *testing.T) {
	srv, st, cmd := newTestServer(t)

	// 256, -255, and 514 are congruent to valid modes mod 256; narrowing
	// before validation would let them through as 0, 1, and 2.
	for _, body := range []string{
		`{"mode": 3}`, `{"mode": -2}`, `{"mode": 99}`,
		`{"mode": 256}`, `{"mode": -255}`, `{"mode": 514}`,
		`not json`,
	} {
		resp, err := http.Post(srv.URL+"/api/cmd_mode", "application/json", strings.NewReader(body))
		require.NoError(t, err)
		resp.Body.Close()
		assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "body %q", body)
	}
	assert.Empty(t, cmd.modes)
	assert.Equal(t, packet.ModeIdle, st.Control().Mode)
}

func TestCmdModeReportsSendFailure(t *testing.T) {
	srv, st, cmd := newTestServer(t)
	cmd.fail = true

	resp, err := http.Post(srv.URL+"/api/cmd_mode", "application/json", strings.NewReader(`{"mode": 1}`))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	// Local intent is applied even when the transmit fails.
	assert.Equal(t, packet.ModeNav, st.Control().Mode)
}

func TestEStopEndpoint(t *testing.T) {
	srv, st, cmd := newTestServer(t)

	resp, err := http.Post(srv.URL+"/api/estop", "application/json", strings.NewReader(`{"active": true}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	assert.Equal(t, []bool{true}, cmd.estops)
	assert.True(t, st.Control().EStop)

	resp, err = http.Post(srv.URL+"/api/estop", "application/json", strings.NewReader(`{"active": false}`))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.False(t, st.Control().EStop)
}

func TestEventsStream(t *testing.T) {
	srv, st, _ := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, srv.URL+"/api/events", nil)
	require.NoError(t, err)
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	resp, err := http.DefaultClient.Do(req.WithContext(ctx))
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))
	assert.Equal(t, "no-cache", resp.Header.Get("Cache-Control"))

	scanner := bufio.NewScanner(resp.Body)
	scanner.Buffer(make([]byte, 64*1024), 64*1024)
	readEvent := func() state.Snapshot {
		t.Helper()
		for scanner.Scan() {
			line := scanner.Text()
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var snap state.Snapshot
			require.NoError(t, json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &snap))
			return snap
		}
		t.Fatalf("stream ended without an event: %v", scanner.Err())
		return state.Snapshot{}
	}

	// One event arrives immediately on connect.
	first := readEvent()
	assert.Zero(t, first.Twist.Seq)

	// A state change produces another within one push interval.
	st.Apply(packet.TwistValues{FinalLX: 1.5, Seq: 42})
	for {
		snap := readEvent()
		if snap.Twist.Seq == 42 {
			assert.Equal(t, float32(1.5), snap.Twist.FinalLX)
			break
		}
	}
}
