package config

import (
	"errors"
	"flag"
	"fmt"
	"strconv"
	"time"
)

// Config holds the game server settings.
type Config struct {
	Addr              string
	LogLevel          string
	PrettyLogs        bool
	SessionTTL        time.Duration
	SweepInterval     time.Duration
	HeartbeatInterval time.Duration
	ShutdownTimeout   time.Duration
}

// Default returns the settings used when nothing is overridden.
func Default() Config {
	return Config{
		Addr:              ":8080",
		LogLevel:          "info",
		SessionTTL:        time.Hour,
		SweepInterval:     time.Minute,
		HeartbeatInterval: 15 * time.Second,
		ShutdownTimeout:   10 * time.Second,
	}
}

const envPrefix = "TICTACTOE_"

// Load reads flags from args; environment variables prefixed with
// TICTACTOE_ (e.g. TICTACTOE_ADDR) provide the defaults. Flags win.
func Load(name string, args []string, getenv func(string) string) (Config, error) {
	cfg := Default()
	if err := cfg.fromEnv(getenv); err != nil {
		return Config{}, err
	}

	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.StringVar(&cfg.Addr, "addr", cfg.Addr, "listen address")
	fs.StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "debug|info|warn|error")
	fs.BoolVar(&cfg.PrettyLogs, "pretty", cfg.PrettyLogs, "human readable logs")
	fs.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "discard sessions idle this long")
	fs.DurationVar(&cfg.SweepInterval, "sweep-interval", cfg.SweepInterval, "how often idle sessions are discarded")
	fs.DurationVar(&cfg.HeartbeatInterval, "heartbeat", cfg.HeartbeatInterval, "SSE and websocket keepalive interval")
	fs.DurationVar(&cfg.ShutdownTimeout, "shutdown-timeout", cfg.ShutdownTimeout, "graceful shutdown limit")
	if err := fs.Parse(args); err != nil {
		return Config{}, err
	}
	return cfg, cfg.validate()
}

func (c *Config) fromEnv(getenv func(string) string) error {
	if getenv == nil {
		return nil
	}
	if v := getenv(envPrefix + "ADDR"); v != "" {
		c.Addr = v
	}
	if v := getenv(envPrefix + "LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
	if v := getenv(envPrefix + "PRETTY"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%sPRETTY: %w", envPrefix, err)
		}
		c.PrettyLogs = b
	}
	durations := []struct {
		key string
		dst *time.Duration
	}{
		{"SESSION_TTL", &c.SessionTTL},
		{"SWEEP_INTERVAL", &c.SweepInterval},
		{"HEARTBEAT", &c.HeartbeatInterval},
		{"SHUTDOWN_TIMEOUT", &c.ShutdownTimeout},
	}
	for _, d := range durations {
		v := getenv(envPrefix + d.key)
		if v == "" {
			continue
		}
		dur, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%s%s: %w", envPrefix, d.key, err)
		}
		*d.dst = dur
	}
	return nil
}

func (c Config) validate() error {
	if c.Addr == "" {
		return errors.New("addr must not be empty")
	}
	if c.SessionTTL <= 0 || c.SweepInterval <= 0 || c.HeartbeatInterval <= 0 || c.ShutdownTimeout <= 0 {
		return errors.New("durations must be positive")
	}
	return nil
}
