package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Logging.Level != "info" {
		t.Errorf("Logging.Level = %q, want info", cfg.Logging.Level)
	}
	if cfg.Output.Dir != "plot" {
		t.Errorf("Output.Dir = %q, want plot", cfg.Output.Dir)
	}
	if cfg.Output.PNG || cfg.Output.Open {
		t.Error("PNG and Open should default to false")
	}
	if !cfg.Ledger.Enabled {
		t.Error("Ledger should default to enabled")
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config invalid: %v", err)
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config.yaml")
	content := `
logging:
  level: debug
output:
  dir: results
  png: true
oracle:
  workers: 3
telemetry:
  metrics_file: /tmp/walkscale.prom
ledger:
  enabled: false
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}

	if cfg.Logging.Level != "debug" {
		t.Errorf("Logging.Level = %q, want debug", cfg.Logging.Level)
	}
	if cfg.Output.Dir != "results" || !cfg.Output.PNG {
		t.Errorf("Output = %+v", cfg.Output)
	}
	if cfg.Oracle.Workers != 3 {
		t.Errorf("Oracle.Workers = %d, want 3", cfg.Oracle.Workers)
	}
	if cfg.Telemetry.MetricsFile != "/tmp/walkscale.prom" {
		t.Errorf("Telemetry.MetricsFile = %q", cfg.Telemetry.MetricsFile)
	}
	if cfg.Ledger.Enabled {
		t.Error("Ledger.Enabled = true, want false")
	}
}

func TestLoadFromFile_KeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("oracle:\n  workers: 2\n"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Output.Dir != "plot" {
		t.Errorf("Output.Dir = %q, want default plot", cfg.Output.Dir)
	}
	if !cfg.Ledger.Enabled {
		t.Error("Ledger.Enabled lost its default")
	}
}

func TestLoadFromFile_EnvExpansion(t *testing.T) {
	t.Setenv("WALKSCALE_TEST_DIR", "/data/runs")
	path := filepath.Join(t.TempDir(), "config.yaml")
	content := "output:\n  dir: ${WALKSCALE_TEST_DIR}/plots\nledger:\n  path: ${WALKSCALE_TEST_DIR}/ledger.db\n"
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile: %v", err)
	}
	if cfg.Output.Dir != "/data/runs/plots" {
		t.Errorf("Output.Dir = %q", cfg.Output.Dir)
	}
	if got, _ := cfg.LedgerPath(); got != "/data/runs/ledger.db" {
		t.Errorf("LedgerPath = %q", got)
	}
}

func TestLoadFromFile_NotFound(t *testing.T) {
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestLoadFromFile_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("output: [unclosed"), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("expected error for invalid YAML")
	}
}

func TestLoad_HomeConfigAndEnv(t *testing.T) {
	home := t.TempDir()
	t.Setenv("HOME", home)
	if err := os.MkdirAll(filepath.Join(home, ".walkscale"), 0755); err != nil {
		t.Fatal(err)
	}
	content := "output:\n  dir: from-file\noracle:\n  workers: 2\n"
	if err := os.WriteFile(filepath.Join(home, ".walkscale", "config.yaml"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("WALKSCALE_WORKERS", "8")
	t.Setenv("WALKSCALE_LOG_LEVEL", "trace")
	t.Setenv("WALKSCALE_PNG", "1")
	t.Setenv("WALKSCALE_LEDGER", "false")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Output.Dir != "from-file" {
		t.Errorf("Output.Dir = %q, want from-file", cfg.Output.Dir)
	}
	if cfg.Oracle.Workers != 8 {
		t.Errorf("Oracle.Workers = %d, env should win", cfg.Oracle.Workers)
	}
	if cfg.Logging.Level != "trace" || !cfg.Output.PNG || cfg.Ledger.Enabled {
		t.Errorf("env overrides not applied: %+v", cfg)
	}
	if got, _ := cfg.LedgerPath(); got != filepath.Join(home, ".walkscale", "walkscale.db") {
		t.Errorf("LedgerPath = %q", got)
	}
}

func TestEnvOverrides_IgnoresBadNumbers(t *testing.T) {
	t.Setenv("WALKSCALE_WORKERS", "many")
	cfg := Default()
	applyEnvOverrides(cfg)
	if cfg.Oracle.Workers != 0 {
		t.Errorf("Oracle.Workers = %d, want 0", cfg.Oracle.Workers)
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"empty level", func(c *Config) { c.Logging.Level = "" }, false},
		{"trace level", func(c *Config) { c.Logging.Level = "trace" }, false},
		{"bad level", func(c *Config) { c.Logging.Level = "verbose" }, true},
		{"empty dir", func(c *Config) { c.Output.Dir = " " }, true},
		{"negative workers", func(c *Config) { c.Oracle.Workers = -1 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
