package config

import (
	"runtime"

	"github.com/sdejongh/filenorris/pkg/models"
)

// Config represents the application configuration
type Config struct {
	Organize    OrganizeConfig    `yaml:"organize" toml:"organize" json:"organize"`
	Classify    ClassifyConfig    `yaml:"classify" toml:"classify" json:"classify"`
	Scan        ScanConfig        `yaml:"scan" toml:"scan" json:"scan"`
	Performance PerformanceConfig `yaml:"performance" toml:"performance" json:"performance"`
	Output      OutputConfig      `yaml:"output" toml:"output" json:"output"`
	Logging     LoggingConfig     `yaml:"logging" toml:"logging" json:"logging"`
}

// OrganizeConfig holds the run settings
type OrganizeConfig struct {
	InputPath     string              `yaml:"input_path" toml:"input_path" json:"input_path"`
	OutputPath    string              `yaml:"output_path" toml:"output_path" json:"output_path"`
	Mode          models.OrganizeMode `yaml:"mode" toml:"mode" json:"mode"`
	Link          string              `yaml:"link" toml:"link" json:"link"` // hard, soft or copy
	DryRun        bool                `yaml:"dry_run" toml:"dry_run" json:"dry_run"`
	Silent        bool                `yaml:"silent" toml:"silent" json:"silent"`
	AlignExisting bool                `yaml:"align_existing" toml:"align_existing" json:"align_existing"`
	LinkFallback  bool                `yaml:"link_fallback" toml:"link_fallback" json:"link_fallback"`
	Verify        bool                `yaml:"verify" toml:"verify" json:"verify"`
}

// ClassifyConfig holds the settings of the classification service
type ClassifyConfig struct {
	OllamaURL      string `yaml:"ollama_url" toml:"ollama_url" json:"ollama_url"`
	TextModel      string `yaml:"model_text" toml:"model_text" json:"model_text"`
	ImageModel     string `yaml:"model_image" toml:"model_image" json:"model_image"`
	TimeoutSeconds int    `yaml:"timeout_seconds" toml:"timeout_seconds" json:"timeout_seconds"`
	MaxTextBytes   int    `yaml:"max_text_bytes" toml:"max_text_bytes" json:"max_text_bytes"`
	MaxAttempts    int    `yaml:"max_attempts" toml:"max_attempts" json:"max_attempts"`
}

// ScanConfig holds the supported extensions and exclude patterns
type ScanConfig struct {
	Extensions []string `yaml:"extensions" toml:"extensions" json:"extensions"`
	Exclude    []string `yaml:"exclude" toml:"exclude" json:"exclude"`
}

// PerformanceConfig holds performance-related settings
type PerformanceConfig struct {
	MaxWorkers     int   `yaml:"max_workers" toml:"max_workers" json:"max_workers"`
	BufferSize     int   `yaml:"buffer_size" toml:"buffer_size" json:"buffer_size"`
	BandwidthLimit int64 `yaml:"bandwidth_limit" toml:"bandwidth_limit" json:"bandwidth_limit"`
}

// OutputConfig holds output-related settings
type OutputConfig struct {
	Format   string `yaml:"format" toml:"format" json:"format"`       // "human" or "json"
	Progress bool   `yaml:"progress" toml:"progress" json:"progress"` // Show progress bars
	Quiet    bool   `yaml:"quiet" toml:"quiet" json:"quiet"`          // Suppress non-error output
}

// LoggingConfig holds logging-related settings
type LoggingConfig struct {
	Format string `yaml:"format" toml:"format" json:"format"` // "json" or "text"
	Level  string `yaml:"level" toml:"level" json:"level"`    // "debug", "info", "warn", "error"
	File   string `yaml:"file" toml:"file" json:"file"`       // Log file path (empty = console only)
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		Organize: OrganizeConfig{
			Mode: models.ModeContent,
			Link: "hard",
		},
		Classify: ClassifyConfig{
			OllamaURL:      "http://localhost:11434",
			TextModel:      "llama3.2:3b",
			ImageModel:     "llava:7b",
			TimeoutSeconds: 120,
			MaxTextBytes:   8192,
			MaxAttempts:    3,
		},
		Scan: ScanConfig{
			Extensions: models.DefaultExtensions(),
			Exclude: []string{
				"*.tmp",
				".git/",
				"node_modules/",
			},
		},
		Performance: PerformanceConfig{
			MaxWorkers:     runtime.NumCPU(),
			BufferSize:     65536,
			BandwidthLimit: 0,
		},
		Output: OutputConfig{
			Format:   "human",
			Progress: true,
			Quiet:    false,
		},
		Logging: LoggingConfig{
			Format: "text",
			Level:  "info",
			File:   "",
		},
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	validModes := map[models.OrganizeMode]bool{
		models.ModeContent: true,
		models.ModeType:    true,
		models.ModeDate:    true,
		models.ModeTest:    true,
	}
	if !validModes[c.Organize.Mode] {
		return &models.ValidationError{
			Field:   "organize.mode",
			Message: "must be 'content', 'type', 'date' or 'test'",
		}
	}

	if _, err := models.ParseLinkMode(c.Organize.Link); err != nil {
		return &models.ValidationError{
			Field:   "organize.link",
			Message: "must be 'hard', 'soft' or 'copy'",
		}
	}

	if c.Classify.TimeoutSeconds < 1 {
		return &models.ValidationError{
			Field:   "classify.timeout_seconds",
			Message: "must be at least 1",
		}
	}

	if c.Performance.MaxWorkers < 1 {
		return &models.ValidationError{
			Field:   "performance.max_workers",
			Message: "must be at least 1",
		}
	}

	if c.Performance.BufferSize < 1024 {
		return &models.ValidationError{
			Field:   "performance.buffer_size",
			Message: "must be at least 1024 bytes",
		}
	}

	if len(c.Scan.Extensions) == 0 {
		return &models.ValidationError{
			Field:   "scan.extensions",
			Message: "at least one extension is required",
		}
	}

	validFormats := map[string]bool{"human": true, "json": true}
	if !validFormats[c.Output.Format] {
		return &models.ValidationError{
			Field:   "output.format",
			Message: "must be 'human' or 'json'",
		}
	}

	validLogFormats := map[string]bool{"json": true, "text": true}
	if !validLogFormats[c.Logging.Format] {
		return &models.ValidationError{
			Field:   "logging.format",
			Message: "must be 'json' or 'text'",
		}
	}

	validLogLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLogLevels[c.Logging.Level] {
		return &models.ValidationError{
			Field:   "logging.level",
			Message: "must be 'debug', 'info', 'warn', or 'error'",
		}
	}

	return nil
}
