package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"

	apperrors "officetime/internal/platform/errors"
)

const (
	StoreSQLite = "sqlite"
	StoreFile   = "file"

	OracleNmcli   = "nmcli"
	OracleIwgetid = "iwgetid"
	OracleStatic  = "static"
)

type Config struct {
	DataDir  string         `yaml:"data_dir" env:"OFFICETIME_DATA_DIR"`
	Store    StoreConfig    `yaml:"store" envPrefix:"OFFICETIME_STORE_"`
	Tracking TrackingConfig `yaml:"tracking" envPrefix:"OFFICETIME_TRACKING_"`
	Network  NetworkConfig  `yaml:"network" envPrefix:"OFFICETIME_NETWORK_"`
	Logging  LoggingConfig  `yaml:"logging" envPrefix:"OFFICETIME_LOG_"`
}

type StoreConfig struct {
	Driver string `yaml:"driver" env:"DRIVER"`
	// Path defaults to <data_dir>/officetime.db or <data_dir>/store.json.
	Path string `yaml:"path" env:"PATH"`
}

type TrackingConfig struct {
	TickInterval   time.Duration `yaml:"tick_interval" env:"TICK_INTERVAL"`
	HeartbeatEvery time.Duration `yaml:"heartbeat_every" env:"HEARTBEAT_EVERY"`
	ZombieAfter    time.Duration `yaml:"zombie_after" env:"ZOMBIE_AFTER"`
}

type NetworkConfig struct {
	Oracle    string        `yaml:"oracle" env:"ORACLE"`
	Interface string        `yaml:"interface" env:"INTERFACE"`
	Timeout   time.Duration `yaml:"timeout" env:"TIMEOUT"`
	// Static oracle values, mostly useful on machines without nmcli.
	StaticOnWifi bool   `yaml:"static_on_wifi" env:"STATIC_ON_WIFI"`
	StaticSSID   string `yaml:"static_ssid" env:"STATIC_SSID"`
}

type LoggingConfig struct {
	Level  string `yaml:"level" env:"LEVEL"`
	Format string `yaml:"format" env:"FORMAT"`
}

func Default(dataDir string) Config {
	return Config{
		DataDir: dataDir,
		Store:   StoreConfig{Driver: StoreSQLite},
		Tracking: TrackingConfig{
			TickInterval:   time.Second,
			HeartbeatEvery: 5 * time.Second,
			ZombieAfter:    20 * time.Minute,
		},
		Network: NetworkConfig{
			Oracle:  OracleNmcli,
			Timeout: 2 * time.Second,
		},
		Logging: LoggingConfig{Level: "info", Format: "console"},
	}
}

// DefaultDataDir resolves $XDG_DATA_HOME/officetime, falling back to ~/.local/share/officetime.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "officetime")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".officetime"
	}
	return filepath.Join(home, ".local", "share", "officetime")
}

// Load reads the YAML file at path (missing file means defaults), then applies
// OFFICETIME_* environment overrides. An explicit dataDir wins over both.
func Load(path, dataDir string) (Config, error) {
	cfg := Default(DefaultDataDir())

	if path != "" {
		data, err := os.ReadFile(filepath.Clean(path))
		switch {
		case err == nil:
			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return Config{}, fmt.Errorf("parse config %s: %w", path, err)
			}
		case errors.Is(err, os.ErrNotExist):
		default:
			return Config{}, fmt.Errorf("read config %s: %w", path, err)
		}
	}

	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}
	if dataDir != "" {
		cfg.DataDir = dataDir
	}
	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Network.Oracle = strings.ToLower(strings.TrimSpace(c.Network.Oracle))
	if c.Store.Path == "" {
		switch c.Store.Driver {
		case StoreFile:
			c.Store.Path = filepath.Join(c.DataDir, "store.json")
		default:
			c.Store.Path = filepath.Join(c.DataDir, "officetime.db")
		}
	}
}

func (c Config) Validate() error {
	if c.DataDir == "" {
		return fmt.Errorf("%w: data dir is required", apperrors.ErrInvalidInput)
	}
	switch c.Store.Driver {
	case StoreSQLite, StoreFile:
	default:
		return fmt.Errorf("%w: unknown store driver %q", apperrors.ErrInvalidInput, c.Store.Driver)
	}
	switch c.Network.Oracle {
	case OracleNmcli, OracleIwgetid, OracleStatic:
	default:
		return fmt.Errorf("%w: unknown network oracle %q", apperrors.ErrInvalidInput, c.Network.Oracle)
	}
	if c.Tracking.TickInterval <= 0 || c.Tracking.HeartbeatEvery <= 0 || c.Tracking.ZombieAfter <= 0 {
		return fmt.Errorf("%w: tracking intervals must be positive", apperrors.ErrInvalidInput)
	}
	if c.Tracking.ZombieAfter <= c.Tracking.HeartbeatEvery {
		return fmt.Errorf("%w: zombie_after must exceed heartbeat_every", apperrors.ErrInvalidInput)
	}
	return nil
}

// PIDPath is where a running daemon records its process id.
func (c Config) PIDPath() string {
	return filepath.Join(c.DataDir, "daemon.pid")
}
