// Package config loads the station configuration. The JSON file is
// overlaid on top of compiled-in defaults, so partial configs are safe and
// a missing file runs with defaults. Invalid values are fatal at startup.
package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// ErrInvalid wraps every validation failure so callers can match the class
// with errors.Is.
var ErrInvalid = errors.New("invalid config")

// maxFileSize caps the config file read (1MB).
const maxFileSize = 1 * 1024 * 1024

// Config is the station configuration. Field names mirror the config file
// keys one to one.
type Config struct {
	VehicleIP   string `json:"vehicle_ip"`
	VehiclePort int    `json:"vehicle_port"`
	RxPort      int    `json:"rx_port"`

	HeartbeatRate     float64 `json:"heartbeat_rate"`      // Hz
	TeleopRate        float64 `json:"teleop_rate"`         // Hz
	StatePushInterval float64 `json:"state_push_interval"` // seconds

	AxisSpeed    int     `json:"axis_speed"`
	AxisSteer    int     `json:"axis_steer"`
	AxisRawSpeed int     `json:"axis_raw_speed"`
	AxisRawSteer int     `json:"axis_raw_steer"`
	BtnEStop     int     `json:"btn_estop"`
	MaxSpeed     float64 `json:"max_speed"`     // m/s
	MaxSteerDeg  float64 `json:"max_steer_deg"` // degrees
	Deadzone     float64 `json:"deadzone"`
	InvertSpeed  bool    `json:"invert_speed"`
}

// Default returns the compiled-in station defaults.
func Default() Config {
	return Config{
		VehicleIP:         "127.0.0.1",
		VehiclePort:       48100,
		RxPort:            48101,
		HeartbeatRate:     5.0,
		TeleopRate:        20.0,
		StatePushInterval: 0.5,
		AxisSpeed:         1, // left stick Y
		AxisSteer:         3, // right stick X
		AxisRawSpeed:      4, // right stick Y, display only
		AxisRawSteer:      0, // left stick X, display only
		BtnEStop:          4,
		MaxSpeed:          1.0,
		MaxSteerDeg:       27.0,
		Deadzone:          0.05,
		InvertSpeed:       true,
	}
}

// Load reads a JSON config file over the defaults. A missing file is not
// an error: defaults apply. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()
	if path != "" {
		cleanPath := filepath.Clean(path)
		if ext := filepath.Ext(cleanPath); ext != ".json" {
			return cfg, fmt.Errorf("%w: config file must have .json extension, got %q", ErrInvalid, ext)
		}
		info, err := os.Stat(cleanPath)
		switch {
		case errors.Is(err, os.ErrNotExist):
			return cfg, cfg.Validate()
		case err != nil:
			return cfg, fmt.Errorf("failed to stat config file: %w", err)
		}
		if info.Size() > maxFileSize {
			return cfg, fmt.Errorf("%w: config file too large: %d bytes (max %d)", ErrInvalid, info.Size(), maxFileSize)
		}
		data, err := os.ReadFile(cleanPath)
		if err != nil {
			return cfg, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := json.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("failed to parse config file: %w", err)
		}
	}
	return cfg, cfg.Validate()
}

// Validate checks every field against its allowed range.
func (c Config) Validate() error {
	if c.VehicleIP == "" {
		return fmt.Errorf("%w: vehicle_ip must not be empty", ErrInvalid)
	}
	if c.VehiclePort < 1 || c.VehiclePort > 65535 {
		return fmt.Errorf("%w: vehicle_port %d out of range", ErrInvalid, c.VehiclePort)
	}
	if c.RxPort < 1 || c.RxPort > 65535 {
		return fmt.Errorf("%w: rx_port %d out of range", ErrInvalid, c.RxPort)
	}
	if c.HeartbeatRate <= 0 {
		return fmt.Errorf("%w: heartbeat_rate must be positive, got %g", ErrInvalid, c.HeartbeatRate)
	}
	if c.TeleopRate <= 0 {
		return fmt.Errorf("%w: teleop_rate must be positive, got %g", ErrInvalid, c.TeleopRate)
	}
	if c.StatePushInterval <= 0 {
		return fmt.Errorf("%w: state_push_interval must be positive, got %g", ErrInvalid, c.StatePushInterval)
	}
	if c.AxisSpeed < 0 || c.AxisSteer < 0 || c.AxisRawSpeed < 0 || c.AxisRawSteer < 0 {
		return fmt.Errorf("%w: axis indices must not be negative", ErrInvalid)
	}
	if c.BtnEStop < 0 {
		return fmt.Errorf("%w: btn_estop must not be negative", ErrInvalid)
	}
	if c.MaxSpeed <= 0 {
		return fmt.Errorf("%w: max_speed must be positive, got %g", ErrInvalid, c.MaxSpeed)
	}
	if c.MaxSteerDeg <= 0 {
		return fmt.Errorf("%w: max_steer_deg must be positive, got %g", ErrInvalid, c.MaxSteerDeg)
	}
	if c.Deadzone < 0 || c.Deadzone >= 1 {
		return fmt.Errorf("%w: deadzone %g outside [0, 1)", ErrInvalid, c.Deadzone)
	}
	return nil
}

// VehicleAddr returns the outbound "host:port" target.
func (c Config) VehicleAddr() string {
	return fmt.Sprintf("%s:%d", c.VehicleIP, c.VehiclePort)
}

// ListenAddr returns the local receive bind address.
func (c Config) ListenAddr() string {
	return fmt.Sprintf(":%d", c.RxPort)
}

// PushInterval returns state_push_interval as a duration.
func (c Config) PushInterval() time.Duration {
	return time.Duration(c.StatePushInterval * float64(time.Second))
}
