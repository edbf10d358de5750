package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/toml"
	"github.com/knadh/koanf/providers/confmap"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/v2"
)

// Environment variables that override file values.
const (
	EnvBaseURL   = "SOUNDLOADER_BASE_URL"
	EnvUserAgent = "SOUNDLOADER_USER_AGENT"
	EnvStore     = "SOUNDLOADER_STORE"
	EnvLogLevel  = "SOUNDLOADER_LOG_LEVEL"
)

// Store backends.
const (
	StoreSQLite = "sqlite"
	StoreMemory = "memory"
)

type Config struct {
	BaseURL   string   `koanf:"base_url"`   // game server root, e.g. "http://localhost:8080/"
	SoundsDir string   `koanf:"sounds_dir"` // directory of audio files on the server
	Effects   []string `koanf:"effects"`    // effect names registered at startup
	UserAgent string   `koanf:"user_agent"` // device user agent used to pick the volume preset
	WatchDir  string   `koanf:"watch_dir"`  // local mirror of sounds_dir to watch; empty disables
	LogLevel  string   `koanf:"log_level"`  // zerolog level name

	Store  StoreConfig  `koanf:"store"`
	Census CensusConfig `koanf:"census"`
	Timing TimingConfig `koanf:"timing"`
	Volume VolumeConfig `koanf:"volume"`
}

// StoreConfig selects where session state is kept.
type StoreConfig struct {
	Backend string `koanf:"backend"` // "sqlite" or "memory"
	Path    string `koanf:"path"`    // sqlite file; empty uses the XDG data dir
}

// CensusConfig bounds the track census.
type CensusConfig struct {
	Limit      int `koanf:"limit"`       // highest index probed (default: 20)
	DefaultMax int `koanf:"default_max"` // track count before the census finishes (default: 6)
}

// TimingConfig holds every delay and period of the loader.
type TimingConfig struct {
	LoadTimeout      time.Duration `koanf:"load_timeout"`       // default: 3s
	PlayRetryDelay   time.Duration `koanf:"play_retry_delay"`   // default: 1s
	ScanInterval     time.Duration `koanf:"scan_interval"`      // default: 60s
	VisibilitySettle time.Duration `koanf:"visibility_settle"`  // default: 1s
	StartupLoadDelay time.Duration `koanf:"startup_load_delay"` // default: 1.5s
	StartupScanDelay time.Duration `koanf:"startup_scan_delay"` // default: 1.8s
	ProbeTimeout     time.Duration `koanf:"probe_timeout"`      // default: 10s
}

// VolumeConfig holds the device volume presets (0.0 to 1.0).
type VolumeConfig struct {
	Mobile   float64 `koanf:"mobile"`   // default: 0.021
	Desktop  float64 `koanf:"desktop"`  // default: 0.164
	Sentence float64 `koanf:"sentence"` // default: 0.8
}

func defaults() map[string]interface{} {
	return map[string]interface{}{
		"base_url":           "http://localhost:8080/",
		"sounds_dir":         "sounds",
		"effects":            []string{"shoot", "explosion"},
		"log_level":          "info",
		"store.backend":      StoreSQLite,
		"census.limit":       20,
		"census.default_max": 6,
	}
}

func Load() (*Config, error) {
	// A missing .env file is fine.
	_ = godotenv.Load()
	return load(getConfigPaths())
}

func load(configPaths []string) (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(confmap.Provider(defaults(), "."), nil); err != nil {
		return nil, err
	}

	// Try config files in order of priority (last wins)
	for _, path := range configPaths {
		if _, err := os.Stat(path); err == nil {
			if err := k.Load(file.Provider(path), toml.Parser()); err != nil {
				return nil, err
			}
		}
	}

	overrides := map[string]string{
		EnvBaseURL:   "base_url",
		EnvUserAgent: "user_agent",
		EnvStore:     "store.backend",
		EnvLogLevel:  "log_level",
	}
	for env, key := range overrides {
		if v, ok := os.LookupEnv(env); ok && v != "" {
			if err := k.Set(key, v); err != nil {
				return nil, err
			}
		}
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, err
	}

	if !strings.HasSuffix(cfg.BaseURL, "/") {
		cfg.BaseURL += "/"
	}
	cfg.SoundsDir = strings.Trim(cfg.SoundsDir, "/")
	cfg.WatchDir = expandPath(cfg.WatchDir)
	cfg.Store.Path = expandPath(cfg.Store.Path)
	cfg.Store.Backend = strings.ToLower(cfg.Store.Backend)

	return cfg, nil
}

func getConfigPaths() []string {
	paths := []string{}

	// 1. ~/.config/soundloader/config.toml
	if home, err := os.UserHomeDir(); err == nil {
		paths = append(paths, filepath.Join(home, ".config", "soundloader", "config.toml"))
	}

	// 2. ./config.toml (pwd, highest priority)
	paths = append(paths, "config.toml")

	return paths
}

func expandPath(path string) string {
	if path != "" && path[0] == '~' {
		if home, err := os.UserHomeDir(); err == nil {
			return filepath.Join(home, path[1:])
		}
	}
	return path
}

// HasWatchDir returns true if local change watching is configured.
func (c *Config) HasWatchDir() bool {
	return c.WatchDir != ""
}

// UseMemoryStore returns true if session state should not touch the disk.
func (c *Config) UseMemoryStore() bool {
	return c.Store.Backend == StoreMemory
}

// GetCensusConfig returns the census configuration with defaults applied.
func (c *Config) GetCensusConfig() CensusConfig {
	cfg := c.Census
	if cfg.Limit <= 0 || cfg.Limit > 100 {
		cfg.Limit = 20
	}
	if cfg.DefaultMax <= 0 {
		cfg.DefaultMax = 6
	}
	if cfg.DefaultMax > cfg.Limit {
		cfg.DefaultMax = cfg.Limit
	}
	return cfg
}

// GetTimingConfig returns the timing configuration with defaults applied.
func (c *Config) GetTimingConfig() TimingConfig {
	cfg := c.Timing
	if cfg.LoadTimeout <= 0 {
		cfg.LoadTimeout = 3 * time.Second
	}
	if cfg.PlayRetryDelay <= 0 {
		cfg.PlayRetryDelay = time.Second
	}
	if cfg.ScanInterval <= 0 {
		cfg.ScanInterval = 60 * time.Second
	}
	if cfg.VisibilitySettle <= 0 {
		cfg.VisibilitySettle = time.Second
	}
	if cfg.StartupLoadDelay <= 0 {
		cfg.StartupLoadDelay = 1500 * time.Millisecond
	}
	if cfg.StartupScanDelay <= 0 {
		cfg.StartupScanDelay = 1800 * time.Millisecond
	}
	if cfg.ProbeTimeout <= 0 {
		cfg.ProbeTimeout = 10 * time.Second
	}
	return cfg
}

// GetVolumeConfig returns the volume presets with defaults applied.
func (c *Config) GetVolumeConfig() VolumeConfig {
	cfg := c.Volume
	if cfg.Mobile <= 0 || cfg.Mobile > 1 {
		cfg.Mobile = 0.021
	}
	if cfg.Desktop <= 0 || cfg.Desktop > 1 {
		cfg.Desktop = 0.164
	}
	if cfg.Sentence <= 0 || cfg.Sentence > 1 {
		cfg.Sentence = 0.8
	}
	return cfg
}
