package recorder

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nevlife/nev-gcs/internal/state"
)

func openTestRecorder(t *testing.T) *Recorder {
	t.Helper()
	rec, err := Open(filepath.Join(t.TempDir(), "station_log.db"))
	require.NoError(t, err)
	t.Cleanup(func() { rec.Close() })
	return rec
}

func TestRecordAlerts(t *testing.T) {
	rec := openTestRecorder(t)

	n, err := rec.AlertCount()
	require.NoError(t, err)
	assert.Zero(t, n)

	require.NoError(t, rec.RecordAlerts([]state.Alert{
		{Level: state.LevelError, Message: "E-STOP active but vehicle is moving!"},
		{Level: state.LevelWarn, Message: "Remote mode active but no teleop commands received"},
	}))

	n, err = rec.AlertCount()
	require.NoError(t, err)
	assert.Equal(t, 2, n)

	var level, message string
	err = rec.db.QueryRow("SELECT level, message FROM alerts ORDER BY rowid LIMIT 1").Scan(&level, &message)
	require.NoError(t, err)
	assert.Equal(t, state.LevelError, level)
	assert.Equal(t, "E-STOP active but vehicle is moving!", message)
}

func TestRecordAlertsEmptyList(t *testing.T) {
	rec := openTestRecorder(t)
	require.NoError(t, rec.RecordAlerts(nil))

	n, err := rec.AlertCount()
	require.NoError(t, err)
	assert.Zero(t, n)
}

func TestRecordLinkStats(t *testing.T) {
	rec := openTestRecorder(t)

	require.NoError(t, rec.RecordLinkStats(120, 3, 1))
	require.NoError(t, rec.RecordLinkStats(240, 3, 1))

	var rows int
	require.NoError(t, rec.db.QueryRow("SELECT COUNT(*) FROM link_stats").Scan(&rows))
	assert.Equal(t, 2, rows)

	var rx, decodeErrs, sendErrs uint64
	err := rec.db.QueryRow(
		"SELECT rx_packets, decode_errors, send_errors FROM link_stats ORDER BY rowid DESC LIMIT 1").
		Scan(&rx, &decodeErrs, &sendErrs)
	require.NoError(t, err)
	assert.Equal(t, uint64(240), rx)
	assert.Equal(t, uint64(3), decodeErrs)
	assert.Equal(t, uint64(1), sendErrs)
}

func TestReopenKeepsRows(t *testing.T) {
	path := filepath.Join(t.TempDir(), "station_log.db")

	rec, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, rec.RecordAlerts([]state.Alert{{Level: state.LevelWarn, Message: "No vehicle data for 4.2s"}}))
	require.NoError(t, rec.Close())

	rec, err = Open(path)
	require.NoError(t, err)
	defer rec.Close()

	n, err := rec.AlertCount()
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}
