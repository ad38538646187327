package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Log.WindowKB != 512 || cfg.Log.MaxAttempts != 3 {
		t.Errorf("log defaults = %d KiB / %d attempts", cfg.Log.WindowKB, cfg.Log.MaxAttempts)
	}
	if d, err := cfg.GetSettleDelay(); err != nil || d.Seconds() != 5 {
		t.Errorf("settle delay = %v, %v", d, err)
	}
}

func TestLoadFrom(t *testing.T) {
	t.Run("MissingFileReturnsDefaults", func(t *testing.T) {
		cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.toml"))
		if err != nil {
			t.Fatalf("LoadFrom: %v", err)
		}
		if cfg.API.Port != 8115 {
			t.Errorf("port = %d, want default 8115", cfg.API.Port)
		}
	})

	t.Run("PartialFileKeepsDefaults", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		content := "[log]\nfile_path = \"/tmp/hdt_log.txt\"\nwindow_kb = 256\n\n[submit]\nenabled = true\nendpoint = \"https://example.com/api/matches\"\n"
		if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}

		cfg, err := LoadFrom(path)
		if err != nil {
			t.Fatalf("LoadFrom: %v", err)
		}
		if cfg.Log.FilePath != "/tmp/hdt_log.txt" || cfg.Log.WindowKB != 256 {
			t.Errorf("log = %+v", cfg.Log)
		}
		if !cfg.Submit.Enabled || cfg.Submit.Endpoint == "" {
			t.Errorf("submit = %+v", cfg.Submit)
		}
		// Untouched sections keep their defaults.
		if cfg.Log.MaxAttempts != 3 || cfg.API.Port != 8115 {
			t.Errorf("defaults lost: attempts=%d port=%d", cfg.Log.MaxAttempts, cfg.API.Port)
		}
		if err := cfg.Validate(); err != nil {
			t.Errorf("Validate: %v", err)
		}
	})

	t.Run("MalformedFileIsError", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "config.toml")
		if err := os.WriteFile(path, []byte("not = [valid"), 0o644); err != nil {
			t.Fatalf("writing config: %v", err)
		}
		if _, err := LoadFrom(path); err == nil {
			t.Fatal("expected parse error")
		}
	})
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*Config)
	}{
		{"BadBackoff", func(c *Config) { c.Log.RetryBackoff = "soon" }},
		{"ZeroWindow", func(c *Config) { c.Log.WindowKB = 0 }},
		{"ZeroAttempts", func(c *Config) { c.Log.MaxAttempts = 0 }},
		{"SubmitWithoutEndpoint", func(c *Config) { c.Submit.Enabled = true; c.Submit.Endpoint = "" }},
		{"BadPort", func(c *Config) { c.API.Port = 0 }},
		{"BadSettleDelay", func(c *Config) { c.Finalize.SettleDelay = "5" }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tc.mutate(cfg)
			if err := cfg.Validate(); err == nil {
				t.Fatal("expected validation error")
			}
		})
	}
}
