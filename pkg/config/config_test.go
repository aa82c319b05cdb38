package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/sdejongh/filenorris/pkg/models"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.Organize.Mode != models.ModeContent {
		t.Errorf("Mode = %s, want content", cfg.Organize.Mode)
	}
	if cfg.Performance.MaxWorkers < 1 {
		t.Errorf("MaxWorkers = %d, want >= 1", cfg.Performance.MaxWorkers)
	}
	if len(cfg.Scan.Extensions) == 0 {
		t.Error("default extensions should not be empty")
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		field  string
	}{
		{"BadMode", func(c *Config) { c.Organize.Mode = "size" }, "organize.mode"},
		{"BadLink", func(c *Config) { c.Organize.Link = "move" }, "organize.link"},
		{"ZeroTimeout", func(c *Config) { c.Classify.TimeoutSeconds = 0 }, "classify.timeout_seconds"},
		{"ZeroWorkers", func(c *Config) { c.Performance.MaxWorkers = 0 }, "performance.max_workers"},
		{"SmallBuffer", func(c *Config) { c.Performance.BufferSize = 10 }, "performance.buffer_size"},
		{"NoExtensions", func(c *Config) { c.Scan.Extensions = nil }, "scan.extensions"},
		{"BadOutput", func(c *Config) { c.Output.Format = "xml" }, "output.format"},
		{"BadLogFormat", func(c *Config) { c.Logging.Format = "xml" }, "logging.format"},
		{"BadLogLevel", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			var ve *models.ValidationError
			if err := cfg.Validate(); !errors.As(err, &ve) {
				t.Fatalf("Validate() error = %v, want *ValidationError", err)
			}
			if ve.Field != tt.field {
				t.Errorf("Field = %s, want %s", ve.Field, tt.field)
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("YAML", func(t *testing.T) {
		path := writeFile(t, dir, "config.yaml", `
organize:
  mode: date
  link: copy
performance:
  max_workers: 3
`)
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Organize.Mode != models.ModeDate {
			t.Errorf("Mode = %s, want date", cfg.Organize.Mode)
		}
		if cfg.Organize.Link != "copy" {
			t.Errorf("Link = %s, want copy", cfg.Organize.Link)
		}
		if cfg.Performance.MaxWorkers != 3 {
			t.Errorf("MaxWorkers = %d, want 3", cfg.Performance.MaxWorkers)
		}
		// untouched sections keep defaults
		if cfg.Classify.TextModel != Default().Classify.TextModel {
			t.Errorf("TextModel = %s, want default", cfg.Classify.TextModel)
		}
	})

	t.Run("TOML", func(t *testing.T) {
		path := writeFile(t, dir, "config.toml", `
[organize]
mode = "type"
link = "soft"

[classify]
timeout_seconds = 30
`)
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Organize.Mode != models.ModeType {
			t.Errorf("Mode = %s, want type", cfg.Organize.Mode)
		}
		if cfg.Classify.TimeoutSeconds != 30 {
			t.Errorf("TimeoutSeconds = %d, want 30", cfg.Classify.TimeoutSeconds)
		}
	})

	t.Run("FlatJSON", func(t *testing.T) {
		path := writeFile(t, dir, "organizer.config.json", `{
  "input_path": "/data/in",
  "mode": "content",
  "link": "copy",
  "dry_run": true,
  "model_text": "llama3:8b",
  "ollama_url": "http://ollama:11434"
}`)
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Organize.InputPath != "/data/in" {
			t.Errorf("InputPath = %s, want /data/in", cfg.Organize.InputPath)
		}
		if !cfg.Organize.DryRun {
			t.Error("DryRun should be true")
		}
		if cfg.Classify.TextModel != "llama3:8b" {
			t.Errorf("TextModel = %s, want llama3:8b", cfg.Classify.TextModel)
		}
		if cfg.Classify.OllamaURL != "http://ollama:11434" {
			t.Errorf("OllamaURL = %s", cfg.Classify.OllamaURL)
		}
	})

	t.Run("SectionedJSON", func(t *testing.T) {
		path := writeFile(t, dir, "config.json", `{"organize": {"mode": "date", "link": "hard"}}`)
		cfg, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("LoadFromFile() error = %v", err)
		}
		if cfg.Organize.Mode != models.ModeDate {
			t.Errorf("Mode = %s, want date", cfg.Organize.Mode)
		}
	})

	t.Run("InvalidValues", func(t *testing.T) {
		path := writeFile(t, dir, "bad.yaml", "organize:\n  mode: bogus\n")
		if _, err := LoadFromFile(path); err == nil {
			t.Error("LoadFromFile() should fail for invalid mode")
		}
	})

	t.Run("Missing", func(t *testing.T) {
		if _, err := LoadFromFile(filepath.Join(dir, "nope.yaml")); err == nil {
			t.Error("LoadFromFile() should fail for missing file")
		}
	})
}

func TestSaveToFileRoundTrip(t *testing.T) {
	for _, name := range []string{"out.yaml", "out.toml", "out.json"} {
		t.Run(name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "nested", name)
			cfg := Default()
			cfg.Organize.Mode = models.ModeDate
			cfg.Performance.MaxWorkers = 7

			if err := SaveToFile(cfg, path); err != nil {
				t.Fatalf("SaveToFile() error = %v", err)
			}
			loaded, err := LoadFromFile(path)
			if err != nil {
				t.Fatalf("LoadFromFile() error = %v", err)
			}
			if loaded.Organize.Mode != models.ModeDate || loaded.Performance.MaxWorkers != 7 {
				t.Errorf("loaded = %+v, want mode date and 7 workers", loaded.Organize)
			}
		})
	}
}

func TestFormatForPath(t *testing.T) {
	tests := map[string]Format{
		"a.yaml": FormatYAML,
		"a.yml":  FormatYAML,
		"a.TOML": FormatTOML,
		"a.json": FormatJSON,
		"a":      FormatYAML,
	}
	for path, want := range tests {
		if got := FormatForPath(path); got != want {
			t.Errorf("FormatForPath(%s) = %s, want %s", path, got, want)
		}
	}
}
