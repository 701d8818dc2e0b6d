// ABOUTME: Tests for vigil configuration management.
// ABOUTME: Covers load, save, defaults, backend selection, risk settings, and path expansion.
package config

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/harperreed/vigil/internal/models"
	"github.com/harperreed/vigil/internal/storage"
)

func withConfigHome(t *testing.T) string {
	t.Helper()
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", tmpDir)
	return tmpDir
}

func TestGetBackendDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetBackend(); got != "sqlite" {
		t.Errorf("GetBackend() = %q, want %q", got, "sqlite")
	}
}

func TestGetBackendExplicit(t *testing.T) {
	cfg := &Config{Backend: "badger"}
	if got := cfg.GetBackend(); got != "badger" {
		t.Errorf("GetBackend() = %q, want %q", got, "badger")
	}
}

func TestGetDataDirDefault(t *testing.T) {
	cfg := &Config{}
	if got := cfg.GetDataDir(); got != storage.DataDir() {
		t.Errorf("GetDataDir() = %q, want %q", got, storage.DataDir())
	}
}

func TestGetDataDirExplicit(t *testing.T) {
	cfg := &Config{DataDir: "/tmp/vigil-test"}
	if got := cfg.GetDataDir(); got != "/tmp/vigil-test" {
		t.Errorf("GetDataDir() = %q, want %q", got, "/tmp/vigil-test")
	}
	if got := cfg.GetLogDir(); got != "/tmp/vigil-test/logs" {
		t.Errorf("GetLogDir() = %q, want %q", got, "/tmp/vigil-test/logs")
	}
}

func TestExpandPath(t *testing.T) {
	home, _ := os.UserHomeDir()

	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{"/tmp/foo", "/tmp/foo"},
		{"~", home},
		{"~/data/vigil", filepath.Join(home, "data/vigil")},
		{"data/vigil", "data/vigil"},
	}
	for _, tt := range tests {
		if got := ExpandPath(tt.in); got != tt.want {
			t.Errorf("ExpandPath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestGetDataDirExpandsTilde(t *testing.T) {
	home, _ := os.UserHomeDir()

	cfg := &Config{DataDir: "~/vigil-data"}
	want := filepath.Join(home, "vigil-data")
	if got := cfg.GetDataDir(); got != want {
		t.Errorf("GetDataDir() = %q, want %q", got, want)
	}
}

func TestLoadNonExistentConfig(t *testing.T) {
	withConfigHome(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() with no config file should not error: %v", err)
	}
	if cfg.Backend != "" || cfg.DataDir != "" || cfg.Debug {
		t.Errorf("expected zero config, got %+v", cfg)
	}
}

func TestSaveAndLoad(t *testing.T) {
	withConfigHome(t)

	cfg := &Config{
		Backend: "badger",
		DataDir: "/tmp/vigil-data",
		Debug:   true,
		Risk: RiskConfig{
			NegativeMoods:    []string{"sad", "anxious"},
			Threshold:        4,
			UserTimeout:      "2s",
			InactivityAlerts: true,
		},
	}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() failed: %v", err)
	}

	loaded, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if loaded.Backend != "badger" || loaded.DataDir != "/tmp/vigil-data" || !loaded.Debug {
		t.Errorf("loaded = %+v", loaded)
	}
	if loaded.Risk.Threshold != 4 || len(loaded.Risk.NegativeMoods) != 2 || !loaded.Risk.InactivityAlerts {
		t.Errorf("loaded risk = %+v", loaded.Risk)
	}
}

func TestSaveCreatesDirectory(t *testing.T) {
	tmpDir := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", filepath.Join(tmpDir, "nonexistent"))

	cfg := &Config{Backend: "sqlite"}
	if err := cfg.Save(); err != nil {
		t.Fatalf("Save() should create directory: %v", err)
	}

	configDir := filepath.Join(tmpDir, "nonexistent", "vigil")
	if _, err := os.Stat(configDir); os.IsNotExist(err) {
		t.Error("Expected config directory to be created")
	}
}

func TestLoadInvalidJSON(t *testing.T) {
	tmpDir := withConfigHome(t)

	configDir := filepath.Join(tmpDir, "vigil")
	if err := os.MkdirAll(configDir, 0755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(configDir, "config.json"), []byte("invalid json"), 0600); err != nil {
		t.Fatal(err)
	}

	if _, err := Load(); err == nil {
		t.Error("Expected error for invalid JSON config")
	}
}

func TestGetConfigPath(t *testing.T) {
	tmpDir := withConfigHome(t)

	want := filepath.Join(tmpDir, "vigil", "config.json")
	if got := GetConfigPath(); got != want {
		t.Errorf("GetConfigPath() = %q, want %q", got, want)
	}
}

func TestOpenStorageSQLite(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: "sqlite", DataDir: tmpDir}

	repo, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for sqlite failed: %v", err)
	}
	defer repo.Close()

	if _, ok := repo.(*storage.DB); !ok {
		t.Errorf("expected *storage.DB, got %T", repo)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "vigil.db")); os.IsNotExist(err) {
		t.Error("Expected vigil.db to be created")
	}
}

func TestOpenStorageBadger(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := &Config{Backend: "badger", DataDir: tmpDir}

	repo, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() for badger failed: %v", err)
	}
	defer repo.Close()

	if _, ok := repo.(*storage.KVStore); !ok {
		t.Errorf("expected *storage.KVStore, got %T", repo)
	}
	if _, err := os.Stat(filepath.Join(tmpDir, "kv")); os.IsNotExist(err) {
		t.Error("Expected kv directory to be created")
	}
}

func TestOpenStorageDefaultBackend(t *testing.T) {
	cfg := &Config{DataDir: t.TempDir()}

	repo, err := cfg.OpenStorage()
	if err != nil {
		t.Fatalf("OpenStorage() with default backend failed: %v", err)
	}
	defer repo.Close()
}

func TestOpenStorageInvalidBackend(t *testing.T) {
	cfg := &Config{Backend: "invalid", DataDir: t.TempDir()}

	if _, err := cfg.OpenStorage(); err == nil {
		t.Error("Expected error for invalid backend")
	}
}

func TestConfigJSONOmitsEmpty(t *testing.T) {
	data, err := json.Marshal(&Config{})
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if string(data) != "{}" {
		t.Errorf("Expected empty JSON object, got %s", string(data))
	}
}

func TestMonitorConfigDefaults(t *testing.T) {
	rc, err := (&Config{}).MonitorConfig()
	if err != nil {
		t.Fatalf("MonitorConfig() failed: %v", err)
	}
	if rc.NegativeMoods != nil || rc.Threshold != 0 || rc.UserTimeout != 0 {
		t.Errorf("expected zero values for the monitor to default, got %+v", rc)
	}
}

func TestMonitorConfigExplicit(t *testing.T) {
	cfg := &Config{Risk: RiskConfig{
		NegativeMoods: []string{"Sad", "neutral"},
		Threshold:     2,
		WindowDays:    14,
		UserTimeout:   "500ms",
		Concurrency:   8,
	}}

	rc, err := cfg.MonitorConfig()
	if err != nil {
		t.Fatalf("MonitorConfig() failed: %v", err)
	}
	if !rc.NegativeMoods.Has(models.MoodSad) || !rc.NegativeMoods.Has(models.MoodNeutral) || rc.NegativeMoods.Has(models.MoodAngry) {
		t.Errorf("negative moods = %v", rc.NegativeMoods.Moods())
	}
	if rc.Threshold != 2 || rc.WindowDays != 14 || rc.Concurrency != 8 {
		t.Errorf("monitor config = %+v", rc)
	}
	if rc.UserTimeout != 500*time.Millisecond {
		t.Errorf("UserTimeout = %v, want 500ms", rc.UserTimeout)
	}
}

func TestMonitorConfigInvalid(t *testing.T) {
	tests := []struct {
		name string
		risk RiskConfig
	}{
		{"unknown mood", RiskConfig{NegativeMoods: []string{"gloomy"}}},
		{"bad timeout", RiskConfig{UserTimeout: "soon"}},
		{"negative timeout", RiskConfig{UserTimeout: "-1s"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := (&Config{Risk: tt.risk}).MonitorConfig()
			if !errors.Is(err, models.ErrInvalidInput) {
				t.Errorf("MonitorConfig() = %v, want ErrInvalidInput", err)
			}
		})
	}
}

func TestGetRiskLevels(t *testing.T) {
	levels, err := (&Config{}).GetRiskLevels()
	if err != nil || len(levels) != 2 || levels[0] != models.RiskHigh || levels[1] != models.RiskCritical {
		t.Errorf("default levels = %v, %v", levels, err)
	}

	levels, err = (&Config{Risk: RiskConfig{RiskLevels: []string{"medium"}}}).GetRiskLevels()
	if err != nil || len(levels) != 1 || levels[0] != models.RiskMedium {
		t.Errorf("explicit levels = %v, %v", levels, err)
	}

	if _, err := (&Config{Risk: RiskConfig{RiskLevels: []string{"extreme"}}}).GetRiskLevels(); !errors.Is(err, models.ErrInvalidInput) {
		t.Errorf("invalid level error = %v", err)
	}
}
