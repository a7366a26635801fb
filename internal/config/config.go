// Package config loads walkscale's application settings and batch
// experiment files.
//
// Application settings come from defaults, then ~/.walkscale/config.yaml,
// then WALKSCALE_* environment variables. Batch files describe the traces
// of one non-interactive run; see LoadBatch.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/nvandessel/walkscale/internal/constants"
	"github.com/nvandessel/walkscale/internal/logging"
	"github.com/nvandessel/walkscale/internal/pathutil"
	"gopkg.in/yaml.v3"
)

// Config contains all walkscale application settings.
type Config struct {
	Logging   LoggingConfig   `json:"logging" yaml:"logging"`
	Output    OutputConfig    `json:"output" yaml:"output"`
	Oracle    OracleConfig    `json:"oracle" yaml:"oracle"`
	Telemetry TelemetryConfig `json:"telemetry" yaml:"telemetry"`
	Ledger    LedgerConfig    `json:"ledger" yaml:"ledger"`
}

// LoggingConfig configures the stderr logger and the event log.
type LoggingConfig struct {
	// Level is "info" (default), "debug" or "trace". At debug and above,
	// run events are appended to events.jsonl in the output directory.
	Level string `json:"level" yaml:"level"`
}

// OutputConfig controls where and how figures are written.
type OutputConfig struct {
	// Dir receives <name>.html and <name>_loglog.html.
	Dir string `json:"dir" yaml:"dir"`

	// PNG additionally writes static snapshots of both figures.
	PNG bool `json:"png" yaml:"png"`

	// Open launches the linear figure in the default browser when done.
	Open bool `json:"open" yaml:"open"`
}

// OracleConfig configures the in-process lattice oracle.
type OracleConfig struct {
	// Workers bounds the goroutines per oracle call. 0 uses GOMAXPROCS.
	Workers int `json:"workers" yaml:"workers"`
}

// TelemetryConfig configures optional metrics and span export.
type TelemetryConfig struct {
	// MetricsFile receives Prometheus textfile metrics at the end of a run.
	MetricsFile string `json:"metrics_file,omitempty" yaml:"metrics_file,omitempty"`

	// TraceFile receives OpenTelemetry spans as JSON.
	TraceFile string `json:"trace_file,omitempty" yaml:"trace_file,omitempty"`
}

// LedgerConfig configures the SQLite run ledger.
type LedgerConfig struct {
	Enabled bool `json:"enabled" yaml:"enabled"`

	// Path of the database. Empty means ~/.walkscale/walkscale.db.
	Path string `json:"path,omitempty" yaml:"path,omitempty"`
}

// Default returns a Config with the built-in defaults.
func Default() *Config {
	return &Config{
		Logging: LoggingConfig{Level: "info"},
		Output:  OutputConfig{Dir: constants.DefaultOutputDir},
		Ledger:  LedgerConfig{Enabled: true},
	}
}

// Load reads ~/.walkscale/config.yaml if it exists and applies environment
// overrides on top.
func Load() (*Config, error) {
	cfg := Default()

	if home, err := os.UserHomeDir(); err == nil {
		path := filepath.Join(home, constants.AppDir, "config.yaml")
		if _, statErr := os.Stat(path); statErr == nil {
			fileCfg, loadErr := LoadFromFile(path)
			if loadErr != nil {
				return nil, fmt.Errorf("loading config file %s: %w", pathutil.RedactPath(path), loadErr)
			}
			cfg = fileCfg
		}
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

// LoadFromFile reads a YAML config file over the defaults. ${VAR} references
// in path settings are expanded.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	cfg.Output.Dir = expandEnvVars(cfg.Output.Dir)
	cfg.Telemetry.MetricsFile = expandEnvVars(cfg.Telemetry.MetricsFile)
	cfg.Telemetry.TraceFile = expandEnvVars(cfg.Telemetry.TraceFile)
	cfg.Ledger.Path = expandEnvVars(cfg.Ledger.Path)
	return cfg, nil
}

// Validate checks that the configuration is usable.
func (c *Config) Validate() error {
	if c.Logging.Level != "" && !logging.ValidLevel(c.Logging.Level) {
		return fmt.Errorf("invalid log level: %s (valid: info, debug, trace, or empty for default)", c.Logging.Level)
	}
	if strings.TrimSpace(c.Output.Dir) == "" {
		return fmt.Errorf("output dir must not be empty")
	}
	if c.Oracle.Workers < 0 {
		return fmt.Errorf("oracle workers must be non-negative, got %d", c.Oracle.Workers)
	}
	return nil
}

// LedgerPath resolves the ledger database path.
func (c *Config) LedgerPath() (string, error) {
	if c.Ledger.Path != "" {
		return c.Ledger.Path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolve home directory: %w", err)
	}
	return filepath.Join(home, constants.AppDir, constants.LedgerFile), nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("WALKSCALE_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("WALKSCALE_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("WALKSCALE_PNG"); v != "" {
		cfg.Output.PNG = parseBool(v)
	}
	if v := os.Getenv("WALKSCALE_OPEN"); v != "" {
		cfg.Output.Open = parseBool(v)
	}
	if v := os.Getenv("WALKSCALE_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Oracle.Workers = n
		}
	}
	if v := os.Getenv("WALKSCALE_METRICS_FILE"); v != "" {
		cfg.Telemetry.MetricsFile = v
	}
	if v := os.Getenv("WALKSCALE_TRACE_FILE"); v != "" {
		cfg.Telemetry.TraceFile = v
	}
	if v := os.Getenv("WALKSCALE_LEDGER"); v != "" {
		cfg.Ledger.Enabled = parseBool(v)
	}
	if v := os.Getenv("WALKSCALE_LEDGER_PATH"); v != "" {
		cfg.Ledger.Path = v
	}
}

func parseBool(v string) bool {
	return v == "true" || v == "1"
}

// expandEnvVars expands ${VAR} patterns in s.
func expandEnvVars(s string) string {
	if !strings.Contains(s, "${") {
		return s
	}
	return os.Expand(s, os.Getenv)
}
