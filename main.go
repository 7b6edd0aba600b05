// Command nev-gcs is the ground-station half of the NEV remote drive link.
//
// It exchanges fixed-format binary packets with the on-vehicle bridge over
// UDP, maintains the canonical vehicle state snapshot, validates it against
// the safety rules, reads operator intent from a gamepad, and serves the
// snapshot and command endpoints over HTTP.
package main

import (
	"context"
	"errors"
	"flag"
	"log"
	"net/http"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/nevlife/nev-gcs/internal/api"
	"github.com/nevlife/nev-gcs/internal/config"
	"github.com/nevlife/nev-gcs/internal/joystick"
	"github.com/nevlife/nev-gcs/internal/link"
	"github.com/nevlife/nev-gcs/internal/monitoring"
	"github.com/nevlife/nev-gcs/internal/recorder"
	"github.com/nevlife/nev-gcs/internal/state"
	"github.com/nevlife/nev-gcs/internal/timeutil"
	"github.com/nevlife/nev-gcs/internal/validate"
)

var (
	configPath = flag.String("config", "config.json", "Station config file (defaults apply if absent)")
	listen     = flag.String("listen", ":8080", "HTTP listen address")
	dbPath     = flag.String("db", "station_log.db", "Station log database path (empty disables)")
	joystickID = flag.Int("joystick", 0, "Joystick device ID")
	debug      = flag.Bool("debug", false, "Enable per-packet debug logging")
)

func main() {
	flag.Parse()
	monitoring.SetDebug(*debug)

	cfg, err := config.Load(*configPath)
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	clock := timeutil.RealClock{}
	st := state.New(clock)
	notifier := state.NewNotifier(st, clock, cfg.PushInterval())
	engine := validate.New(clock)

	var rec *recorder.Recorder
	if *dbPath != "" {
		rec, err = recorder.Open(*dbPath)
		if err != nil {
			log.Fatalf("Failed to open station log: %v", err)
		}
		defer rec.Close()
	}

	lnk := link.New(link.Config{
		VehicleAddr:   cfg.VehicleAddr(),
		ListenAddr:    cfg.ListenAddr(),
		HeartbeatRate: cfg.HeartbeatRate,
		TeleopRate:    cfg.TeleopRate,
	}, st, engine, clock, statsRecorder(rec))
	if err := lnk.Listen(); err != nil {
		log.Fatalf("Failed to start vehicle link: %v", err)
	}

	joy := joystick.New(joystick.Config{
		DeviceID:     *joystickID,
		AxisSpeed:    cfg.AxisSpeed,
		AxisSteer:    cfg.AxisSteer,
		AxisRawSpeed: cfg.AxisRawSpeed,
		AxisRawSteer: cfg.AxisRawSteer,
		ButtonEStop:  cfg.BtnEStop,
		MaxSpeed:     cfg.MaxSpeed,
		MaxSteerDeg:  cfg.MaxSteerDeg,
		Deadzone:     cfg.Deadzone,
		InvertSpeed:  cfg.InvertSpeed,
	}, st, lnk, clock)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := lnk.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Vehicle link stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := notifier.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Notifier stopped: %v", err)
		}
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		if err := joy.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Printf("Joystick handler stopped: %v", err)
		}
	}()

	server := &http.Server{
		Addr:    *listen,
		Handler: api.NewServer(st, notifier, lnk).ServeMux(),
	}
	wg.Add(1)
	go func() {
		defer wg.Done()
		log.Printf("HTTP server listening on %s", *listen)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("HTTP server stopped: %v", err)
		}
	}()

	<-ctx.Done()
	log.Print("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("HTTP shutdown error: %v", err)
	}

	wg.Wait()
	log.Print("Shutdown complete")
}

// statsRecorder adapts the optional recorder to the link's interface while
// keeping a typed-nil *Recorder from masquerading as a non-nil interface.
func statsRecorder(rec *recorder.Recorder) link.StatsRecorder {
	if rec == nil {
		return nil
	}
	return rec
}
