// Package config loads and persists the companion configuration.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/pelletier/go-toml/v2"
)

// Config represents the application configuration.
type Config struct {
	// Log file scraping settings
	Log LogConfig `toml:"log"`

	// Match record output settings
	Output OutputConfig `toml:"output"`

	// Remote submission settings
	Submit SubmitConfig `toml:"submit"`

	// Local archive settings
	Archive ArchiveConfig `toml:"archive"`

	// Companion API settings
	API APIConfig `toml:"api"`

	// Match finalization timing
	Finalize FinalizeConfig `toml:"finalize"`
}

// LogConfig contains game log scraping settings.
type LogConfig struct {
	FilePath     string `toml:"file_path"`     // Path to the tracker's hdt_log.txt
	WindowKB     int    `toml:"window_kb"`     // Tail window size in KiB
	MaxAttempts  int    `toml:"max_attempts"`  // Read retries before giving up
	RetryBackoff string `toml:"retry_backoff"` // Base backoff between retries (e.g. "100ms")
	UseFsnotify  bool   `toml:"use_fsnotify"`  // Use file system events
	PollInterval string `toml:"poll_interval"` // Backup polling interval (e.g. "2s")
}

// OutputConfig contains match record file output settings.
type OutputConfig struct {
	Enabled bool   `toml:"enabled"`
	Dir     string `toml:"dir"` // Directory for bggame_*.json files
}

// SubmitConfig contains remote submission settings.
type SubmitConfig struct {
	Enabled  bool   `toml:"enabled"`
	Endpoint string `toml:"endpoint"` // Collection endpoint URL
}

// ArchiveConfig contains local SQLite archive settings.
type ArchiveConfig struct {
	Enabled bool   `toml:"enabled"`
	DBPath  string `toml:"db_path"` // SQLite file path
}

// APIConfig contains companion API server settings.
type APIConfig struct {
	Enabled bool `toml:"enabled"`
	Port    int  `toml:"port"`
}

// FinalizeConfig contains match finalization timing.
type FinalizeConfig struct {
	SettleDelay        string `toml:"settle_delay"`         // Wait before reading rating history (e.g. "5s")
	TrailingParseDelay string `toml:"trailing_parse_delay"` // Wait before the closing log parse (e.g. "2s")
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Log: LogConfig{
			FilePath:     "",
			WindowKB:     512,
			MaxAttempts:  3,
			RetryBackoff: "100ms",
			UseFsnotify:  true,
			PollInterval: "2s",
		},
		Output: OutputConfig{
			Enabled: true,
			Dir:     "",
		},
		Submit: SubmitConfig{
			Enabled:  false,
			Endpoint: "",
		},
		Archive: ArchiveConfig{
			Enabled: true,
			DBPath:  "",
		},
		API: APIConfig{
			Enabled: true,
			Port:    8115,
		},
		Finalize: FinalizeConfig{
			SettleDelay:        "5s",
			TrailingParseDelay: "2s",
		},
	}
}

// configPath returns the path to the configuration file.
func configPath() (string, error) {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home directory: %w", err)
	}

	configDir := filepath.Join(homeDir, ".bg-companion")
	if err := os.MkdirAll(configDir, 0o755); err != nil {
		return "", fmt.Errorf("create config directory: %w", err)
	}

	return filepath.Join(configDir, "config.toml"), nil
}

// Load loads the configuration from disk. Returns default config if the
// file doesn't exist.
func Load() (*Config, error) {
	path, err := configPath()
	if err != nil {
		return nil, err
	}
	return LoadFrom(path)
}

// LoadFrom loads the configuration from an explicit path.
func LoadFrom(path string) (*Config, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return DefaultConfig(), nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	config := DefaultConfig()
	if err := toml.Unmarshal(data, config); err != nil {
		return nil, fmt.Errorf("parse config file: %w", err)
	}

	return config, nil
}

// Save saves the configuration to disk.
func (c *Config) Save() error {
	path, err := configPath()
	if err != nil {
		return err
	}

	data, err := toml.Marshal(c)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration values.
func (c *Config) Validate() error {
	if c.Log.WindowKB < 1 {
		return fmt.Errorf("log window must be at least 1 KiB: %d", c.Log.WindowKB)
	}
	if c.Log.MaxAttempts < 1 {
		return fmt.Errorf("log read attempts must be at least 1: %d", c.Log.MaxAttempts)
	}
	for name, raw := range map[string]string{
		"retry backoff":        c.Log.RetryBackoff,
		"poll interval":        c.Log.PollInterval,
		"settle delay":         c.Finalize.SettleDelay,
		"trailing parse delay": c.Finalize.TrailingParseDelay,
	} {
		if _, err := time.ParseDuration(raw); err != nil {
			return fmt.Errorf("invalid %s %q: %w", name, raw, err)
		}
	}
	if c.Submit.Enabled && c.Submit.Endpoint == "" {
		return fmt.Errorf("submission enabled without an endpoint")
	}
	if c.API.Enabled && (c.API.Port < 1 || c.API.Port > 65535) {
		return fmt.Errorf("invalid api port: %d", c.API.Port)
	}
	return nil
}

// GetRetryBackoff returns the log read retry backoff as a duration.
func (c *Config) GetRetryBackoff() (time.Duration, error) {
	return time.ParseDuration(c.Log.RetryBackoff)
}

// GetPollInterval returns the log poll interval as a duration.
func (c *Config) GetPollInterval() (time.Duration, error) {
	return time.ParseDuration(c.Log.PollInterval)
}

// GetSettleDelay returns the rating settle delay as a duration.
func (c *Config) GetSettleDelay() (time.Duration, error) {
	return time.ParseDuration(c.Finalize.SettleDelay)
}

// GetTrailingParseDelay returns the closing log parse delay as a duration.
func (c *Config) GetTrailingParseDelay() (time.Duration, error) {
	return time.ParseDuration(c.Finalize.TrailingParseDelay)
}
