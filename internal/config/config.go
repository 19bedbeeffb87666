// Package config loads the client configuration and installs the process
// wide logger.
package config

import (
	"errors"
	"fmt"
	"log/slog"
	"net"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/gafferongames/cubes/internal/protocol"
)

var ErrInvalid = errors.New("invalid configuration")

type Config struct {
	ServerAddr string `toml:"server_addr"`
	ListenAddr string `toml:"listen_addr"`
	// StatusAddr is where /metrics and /session are served. Empty disables
	// the status server.
	StatusAddr string `toml:"status_addr"`

	Timeout       Duration `toml:"timeout"`
	FrameRate     int      `toml:"frame_rate"`
	TicksPerFrame int      `toml:"ticks_per_frame"`

	LogLevel string `toml:"log_level"`
	Headless bool   `toml:"headless"`
}

// Duration reads TOML strings such as "5s" or "250ms".
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	var err error
	d.Duration, err = time.ParseDuration(string(text))
	return err
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

func Default() Config {
	// NOTE: keep fields exhaustive
	return Config{
		ServerAddr:    fmt.Sprintf("127.0.0.1:%d", protocol.ServerPort),
		ListenAddr:    ":0",
		StatusAddr:    "",
		Timeout:       Duration{protocol.Timeout},
		FrameRate:     protocol.ClientFrameRate,
		TicksPerFrame: protocol.TicksPerClientFrame,
		LogLevel:      "info",
		Headless:      false,
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (Config, error) {
	cfg := Default()
	md, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("decoding config %q: %w", path, err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("config %q: unknown key %q: %w", path, undecoded[0].String(), ErrInvalid)
	}
	return cfg, cfg.Validate()
}

func (c Config) Validate() error {
	var errs []error
	if _, _, err := net.SplitHostPort(c.ServerAddr); err != nil {
		errs = append(errs, fmt.Errorf("server_addr %q: %w", c.ServerAddr, err))
	}
	if _, _, err := net.SplitHostPort(c.ListenAddr); err != nil {
		errs = append(errs, fmt.Errorf("listen_addr %q: %w", c.ListenAddr, err))
	}
	if c.StatusAddr != "" {
		if _, _, err := net.SplitHostPort(c.StatusAddr); err != nil {
			errs = append(errs, fmt.Errorf("status_addr %q: %w", c.StatusAddr, err))
		}
	}
	if c.Timeout.Duration <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %s", c.Timeout))
	}
	if c.FrameRate <= 0 {
		errs = append(errs, fmt.Errorf("frame_rate must be positive, got %d", c.FrameRate))
	}
	if c.TicksPerFrame <= 0 || c.TicksPerFrame > protocol.MaxInputsPerPacket {
		errs = append(errs, fmt.Errorf("ticks_per_frame must be in [1, %d], got %d",
			protocol.MaxInputsPerPacket, c.TicksPerFrame))
	}
	if _, err := ParseLevel(c.LogLevel); err != nil {
		errs = append(errs, err)
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalid, errors.Join(errs...))
	}
	return nil
}

func (c Config) FrameDuration() time.Duration {
	return time.Second / time.Duration(c.FrameRate)
}

func ParseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("log_level %q: %w", s, err)
	}
	return level, nil
}
