// ABOUTME: Vigil configuration management with backend selection.
// ABOUTME: Handles storage, logging, and risk monitor settings plus the storage backend factory.

package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/mood"
	"github.com/harperreed/vigil/internal/risk"
	"github.com/harperreed/vigil/internal/storage"
)

// Backend names accepted in the config file.
const (
	BackendSQLite = "sqlite"
	BackendBadger = "badger"
)

// Config stores vigil configuration.
type Config struct {
	// Backend selects the storage backend: "sqlite" (default) or "badger".
	Backend string `json:"backend,omitempty"`

	// DataDir is the root directory for data storage.
	// SQLite puts vigil.db here, Badger uses the kv/ folder, and logs go to logs/.
	// Supports ~ expansion for home directory. Defaults to ~/.local/share/vigil.
	DataDir string `json:"data_dir,omitempty"`

	// Debug mirrors the log to stderr at debug level.
	Debug bool `json:"debug,omitempty"`

	Risk RiskConfig `json:"risk,omitzero"`
}

// RiskConfig tunes the risk monitor. Zero values fall back to defaults.
type RiskConfig struct {
	NegativeMoods    []string `json:"negative_moods,omitempty"`
	Threshold        int      `json:"threshold,omitempty"`
	WindowDays       int      `json:"window_days,omitempty"`
	RiskLevels       []string `json:"risk_levels,omitempty"`
	UserTimeout      string   `json:"user_timeout,omitempty"`
	Concurrency      int      `json:"concurrency,omitempty"`
	InactivityAlerts bool     `json:"inactivity_alerts,omitempty"`
}

// GetBackend returns the configured backend, defaulting to "sqlite".
func (c *Config) GetBackend() string {
	if c.Backend == "" {
		return BackendSQLite
	}
	return c.Backend
}

// GetDataDir returns the configured data directory with ~ expanded,
// defaulting to the standard XDG data directory.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return storage.DataDir()
	}
	return ExpandPath(c.DataDir)
}

// GetLogDir returns the directory the rotating log file lives in.
func (c *Config) GetLogDir() string {
	return filepath.Join(c.GetDataDir(), "logs")
}

// MonitorConfig converts the risk section into a risk.Config. Unknown
// mood labels, risk levels, or durations are rejected.
func (c *Config) MonitorConfig() (risk.Config, error) {
	rc := risk.Config{
		Threshold:        c.Risk.Threshold,
		WindowDays:       c.Risk.WindowDays,
		Concurrency:      c.Risk.Concurrency,
		InactivityAlerts: c.Risk.InactivityAlerts,
	}

	if len(c.Risk.NegativeMoods) > 0 {
		moods, err := models.ParseMoods(c.Risk.NegativeMoods)
		if err != nil {
			return risk.Config{}, fmt.Errorf("risk.negative_moods: %w", err)
		}
		rc.NegativeMoods = mood.NewSet(moods...)
	}

	if c.Risk.UserTimeout != "" {
		d, err := time.ParseDuration(c.Risk.UserTimeout)
		if err != nil || d <= 0 {
			return risk.Config{}, fmt.Errorf("risk.user_timeout: %w: %q", models.ErrInvalidInput, c.Risk.UserTimeout)
		}
		rc.UserTimeout = d
	}

	return rc, nil
}

// GetRiskLevels returns the candidate risk levels, defaulting to high and critical.
func (c *Config) GetRiskLevels() ([]models.RiskLevel, error) {
	if len(c.Risk.RiskLevels) == 0 {
		return models.ElevatedRiskLevels, nil
	}
	levels := make([]models.RiskLevel, 0, len(c.Risk.RiskLevels))
	for _, s := range c.Risk.RiskLevels {
		l, err := models.ParseRiskLevel(s)
		if err != nil {
			return nil, fmt.Errorf("risk.risk_levels: %w", err)
		}
		levels = append(levels, l)
	}
	return levels, nil
}

// ExpandPath expands a leading ~ to the user's home directory.
func ExpandPath(path string) string {
	if path == "" {
		return ""
	}
	if path == "~" {
		home, _ := os.UserHomeDir()
		return home
	}
	if strings.HasPrefix(path, "~/") {
		home, _ := os.UserHomeDir()
		return filepath.Join(home, path[2:])
	}
	return path
}

// OpenStorage creates a Repository implementation based on the configured backend.
func (c *Config) OpenStorage() (storage.Repository, error) {
	return OpenBackend(c.GetBackend(), c.GetDataDir())
}

// OpenBackend opens the named backend rooted at dataDir.
func OpenBackend(backend, dataDir string) (storage.Repository, error) {
	// Return a nil interface on failure, never a typed nil store.
	switch backend {
	case BackendSQLite:
		db, err := storage.Open(filepath.Join(dataDir, "vigil.db"))
		if err != nil {
			return nil, err
		}
		return db, nil
	case BackendBadger:
		kv, err := storage.OpenKV(filepath.Join(dataDir, "kv"))
		if err != nil {
			return nil, err
		}
		return kv, nil
	default:
		return nil, fmt.Errorf("unknown backend: %q", backend)
	}
}

// GetConfigPath returns the config file path.
func GetConfigPath() string {
	configDir := os.Getenv("XDG_CONFIG_HOME")
	if configDir == "" {
		homeDir, _ := os.UserHomeDir()
		configDir = filepath.Join(homeDir, ".config")
	}
	return filepath.Join(configDir, "vigil", "config.json")
}

// Load reads config from disk.
func Load() (*Config, error) {
	path := GetConfigPath()
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &Config{}, nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Save writes config to disk.
func (c *Config) Save() error {
	path := GetConfigPath()
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0750); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}
