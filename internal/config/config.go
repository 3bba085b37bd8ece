package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and bind address configuration.
type Paths struct {
	DataDir  string `toml:"data_dir"`
	LogDir   string `toml:"log_dir"`
	APIBind  string `toml:"api_bind"`
	APIToken string `toml:"api_token"`
}

// Catalog contains configuration for the remote AI-artist catalog.
type Catalog struct {
	Enabled         bool   `toml:"enabled"`
	URL             string `toml:"url"`
	RefreshInterval int    `toml:"refresh_interval"` // seconds
	RequestTimeout  int    `toml:"request_timeout"`  // seconds
	MinFetchGap     int    `toml:"min_fetch_gap"`    // seconds between fetches
}

// Matching contains knobs for the decision engine.
type Matching struct {
	// ShortEntryThreshold is the length at or below which remote artist
	// entries require an exact token match instead of a substring match.
	ShortEntryThreshold int `toml:"short_entry_threshold"`
}

// Intervention contains timing for the skip protocol.
type Intervention struct {
	PollAttempts   int `toml:"poll_attempts"`
	PollIntervalMS int `toml:"poll_interval_ms"`
	SettleDelayMS  int `toml:"settle_delay_ms"`
	SeekDelayMS    int `toml:"seek_delay_ms"`
}

// Notifications contains configuration for ntfy push notifications.
type Notifications struct {
	NtfyTopic      string `toml:"ntfy_topic"`
	RequestTimeout int    `toml:"request_timeout"`
	Interventions  bool   `toml:"interventions"`
	CatalogErrors  bool   `toml:"catalog_errors"`
}

// Events contains configuration for publishing intervention events to NATS.
type Events struct {
	NATSURL string `toml:"nats_url"`
	Subject string `toml:"subject"`
}

// Metrics toggles the Prometheus endpoint on the host bridge.
type Metrics struct {
	Enabled bool `toml:"enabled"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for ward.
//
// Configuration sections by subsystem:
//   - Paths: data/log directories and the host bridge bind address
//   - Catalog: remote AI-artist catalog sync
//   - Matching: decision engine policy
//   - Intervention: skip protocol timings
//   - Notifications: ntfy push notification settings
//   - Events: NATS publishing of interventions
//   - Metrics: Prometheus endpoint
//   - Logging: log format, level, and retention
type Config struct {
	Paths         Paths         `toml:"paths"`
	Catalog       Catalog       `toml:"catalog"`
	Matching      Matching      `toml:"matching"`
	Intervention  Intervention  `toml:"intervention"`
	Notifications Notifications `toml:"notifications"`
	Events        Events        `toml:"events"`
	Metrics       Metrics       `toml:"metrics"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("ward.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates required directories for daemon operation.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.DataDir, c.Paths.LogDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// DatabasePath returns the location of the blocklist database.
func (c *Config) DatabasePath() string {
	return filepath.Join(c.Paths.DataDir, "ward.db")
}

// LockPath returns the daemon single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.DataDir, "ward.lock")
}

// CatalogRefreshInterval returns the periodic catalog refresh cadence.
func (c *Config) CatalogRefreshInterval() time.Duration {
	return time.Duration(c.Catalog.RefreshInterval) * time.Second
}

// CatalogRequestTimeout returns the HTTP timeout for catalog fetches.
func (c *Config) CatalogRequestTimeout() time.Duration {
	return time.Duration(c.Catalog.RequestTimeout) * time.Second
}

// CatalogMinFetchGap returns the minimum spacing between two catalog fetches.
func (c *Config) CatalogMinFetchGap() time.Duration {
	return time.Duration(c.Catalog.MinFetchGap) * time.Second
}

// InterventionTimings converts the millisecond knobs into durations.
func (c *Config) InterventionTimings() (pollInterval, settle, seek time.Duration) {
	return time.Duration(c.Intervention.PollIntervalMS) * time.Millisecond,
		time.Duration(c.Intervention.SettleDelayMS) * time.Millisecond,
		time.Duration(c.Intervention.SeekDelayMS) * time.Millisecond
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
