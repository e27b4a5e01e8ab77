// Package config provides configuration management for the Framecut agent.
// Configuration is loaded from environment variables with sensible defaults.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

const (
	// Default values
	DefaultPort     = 8797
	DefaultLogLevel = "info"
	DefaultDataDir  = ".framecut"

	DefaultSaveTimeout  = 3600 // seconds
	DefaultProbeTimeout = 30   // seconds

	BackendLocal  = "local"
	BackendRemote = "remote"

	// Environment variable names
	EnvPort         = "FRAMECUT_PORT"
	EnvLogLevel     = "FRAMECUT_LOG_LEVEL"
	EnvDataDir      = "FRAMECUT_DATA_DIR"
	EnvHeadless     = "FRAMECUT_HEADLESS"
	EnvFFmpegPath   = "FRAMECUT_FFMPEG_PATH"
	EnvFFprobePath  = "FRAMECUT_FFPROBE_PATH"
	EnvSaveTimeout  = "FRAMECUT_SAVE_TIMEOUT"
	EnvProbeTimeout = "FRAMECUT_PROBE_TIMEOUT"
	EnvBackend      = "FRAMECUT_BACKEND"
	EnvRemoteURL    = "FRAMECUT_REMOTE_URL"
	EnvRemoteToken  = "FRAMECUT_REMOTE_TOKEN"

	DBFilename       = "framecut.db"
	SettingsFilename = "settings.toml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	SettingsPath() string
	Headless() bool
	FFmpegPath() string
	FFprobePath() string
	SaveTimeout() time.Duration
	ProbeTimeout() time.Duration
	Backend() string
	RemoteURL() string
	RemoteToken() string
}

// EnvConfig reads configuration from environment variables
type EnvConfig struct {
	port         int
	logLevel     string
	dataDir      string
	headless     bool
	ffmpegPath   string
	ffprobePath  string
	saveTimeout  time.Duration
	probeTimeout time.Duration
	backend      string
	remoteURL    string
	remoteToken  string
}

// New creates a new EnvConfig with defaults and environment variable overrides
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:         DefaultPort,
		logLevel:     DefaultLogLevel,
		dataDir:      defaultDataDir(),
		saveTimeout:  DefaultSaveTimeout * time.Second,
		probeTimeout: DefaultProbeTimeout * time.Second,
		backend:      BackendLocal,
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		if port < 1 || port > 65535 {
			return nil, fmt.Errorf("invalid %s: port must be between 1 and 65535", EnvPort)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}

	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if h := os.Getenv(EnvHeadless); h != "" {
		headless, err := strconv.ParseBool(h)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		cfg.headless = headless
	}

	cfg.ffmpegPath = os.Getenv(EnvFFmpegPath)
	cfg.ffprobePath = os.Getenv(EnvFFprobePath)

	var err error
	if cfg.saveTimeout, err = secondsFromEnv(EnvSaveTimeout, cfg.saveTimeout); err != nil {
		return nil, err
	}
	if cfg.probeTimeout, err = secondsFromEnv(EnvProbeTimeout, cfg.probeTimeout); err != nil {
		return nil, err
	}

	if b := os.Getenv(EnvBackend); b != "" {
		b = strings.ToLower(b)
		if b != BackendLocal && b != BackendRemote {
			return nil, fmt.Errorf("invalid %s: must be %q or %q", EnvBackend, BackendLocal, BackendRemote)
		}
		cfg.backend = b
	}

	cfg.remoteURL = strings.TrimRight(os.Getenv(EnvRemoteURL), "/")
	cfg.remoteToken = os.Getenv(EnvRemoteToken)
	if cfg.backend == BackendRemote && cfg.remoteURL == "" {
		return nil, fmt.Errorf("%s is required when %s=%s", EnvRemoteURL, EnvBackend, BackendRemote)
	}

	return cfg, nil
}

func secondsFromEnv(name string, def time.Duration) (time.Duration, error) {
	v := os.Getenv(name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %w", name, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("invalid %s: must be a positive number of seconds", name)
	}
	return time.Duration(n) * time.Second, nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

func (c *EnvConfig) SettingsPath() string {
	return filepath.Join(c.dataDir, SettingsFilename)
}

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

// FFmpegPath is empty when ffmpeg should be looked up on PATH.
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

func (c *EnvConfig) SaveTimeout() time.Duration {
	return c.saveTimeout
}

func (c *EnvConfig) ProbeTimeout() time.Duration {
	return c.probeTimeout
}

// Backend returns BackendLocal or BackendRemote.
func (c *EnvConfig) Backend() string {
	return c.backend
}

func (c *EnvConfig) RemoteURL() string {
	return c.remoteURL
}

func (c *EnvConfig) RemoteToken() string {
	return c.remoteToken
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
