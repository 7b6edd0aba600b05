// Package recorder persists the station's operational log to sqlite:
// alert transitions as they are raised and periodic link statistics rows.
// Recording is best-effort; failures are surfaced to callers as errors and
// never affect the link.
package recorder

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"

	"github.com/nevlife/nev-gcs/internal/state"
)

// Recorder is an append-only sqlite log.
type Recorder struct {
	db *sql.DB
}

// Open opens (creating if needed) the station log at path.
func Open(path string) (*Recorder, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open station log: %w", err)
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS alerts (
			level TEXT NOT NULL,
			message TEXT NOT NULL,
			raised_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS link_stats (
			rx_packets BIGINT,
			decode_errors BIGINT,
			send_errors BIGINT,
			recorded_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
	`)
	if err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialise station log schema: %w", err)
	}

	return &Recorder{db: db}, nil
}

// RecordAlerts appends one row per alert in a changed alert list.
func (r *Recorder) RecordAlerts(alerts []state.Alert) error {
	for _, a := range alerts {
		if _, err := r.db.Exec("INSERT INTO alerts (level, message) VALUES (?, ?)", a.Level, a.Message); err != nil {
			return err
		}
	}
	return nil
}

// RecordLinkStats appends one statistics row.
func (r *Recorder) RecordLinkStats(rxPackets, decodeErrors, sendErrors uint64) error {
	_, err := r.db.Exec(
		"INSERT INTO link_stats (rx_packets, decode_errors, send_errors) VALUES (?, ?, ?)",
		rxPackets, decodeErrors, sendErrors)
	return err
}

// AlertCount reports how many alert rows have been logged.
func (r *Recorder) AlertCount() (int, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM alerts").Scan(&n)
	return n, err
}

// Close releases the database handle.
func (r *Recorder) Close() error {
	return r.db.Close()
}
