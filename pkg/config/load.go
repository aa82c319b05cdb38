package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"

	"github.com/sdejongh/filenorris/pkg/models"
)

// Format identifies a configuration file encoding
type Format string

const (
	FormatYAML Format = "yaml"
	FormatTOML Format = "toml"
	FormatJSON Format = "json"
)

// FormatForPath picks the decoder from the file extension; unknown extensions are read as YAML
func FormatForPath(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".toml":
		return FormatTOML
	case ".json":
		return FormatJSON
	default:
		return FormatYAML
	}
}

// LoadFromFile loads configuration from a YAML, TOML or JSON file.
// Values missing from the file keep their defaults.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := Decode(data, FormatForPath(path), cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}

	return cfg, nil
}

// Decode unmarshals data in the given format on top of cfg
func Decode(data []byte, format Format, cfg *Config) error {
	switch format {
	case FormatTOML:
		return toml.Unmarshal(data, cfg)
	case FormatJSON:
		return decodeJSON(data, cfg)
	default:
		return yaml.Unmarshal(data, cfg)
	}
}

// flatJSON is the single-level organizer.config.json layout
type flatJSON struct {
	InputPath  *string `json:"input_path"`
	OutputPath *string `json:"output_path"`
	Mode       *string `json:"mode"`
	Link       *string `json:"link"`
	DryRun     *bool   `json:"dry_run"`
	Silent     *bool   `json:"silent"`
	TextModel  *string `json:"model_text"`
	ImageModel *string `json:"model_image"`
	OllamaURL  *string `json:"ollama_url"`
}

// decodeJSON accepts both the sectioned layout and the flat one
func decodeJSON(data []byte, cfg *Config) error {
	var probe map[string]json.RawMessage
	if err := json.Unmarshal(data, &probe); err != nil {
		return err
	}

	sectioned := false
	for _, key := range []string{"organize", "classify", "scan", "performance", "output", "logging"} {
		if _, ok := probe[key]; ok {
			sectioned = true
			break
		}
	}
	if sectioned {
		return json.NewDecoder(bytes.NewReader(data)).Decode(cfg)
	}

	var flat flatJSON
	if err := json.Unmarshal(data, &flat); err != nil {
		return err
	}
	setString(&cfg.Organize.InputPath, flat.InputPath)
	setString(&cfg.Organize.OutputPath, flat.OutputPath)
	if flat.Mode != nil {
		cfg.Organize.Mode = models.OrganizeMode(*flat.Mode)
	}
	setString(&cfg.Organize.Link, flat.Link)
	if flat.DryRun != nil {
		cfg.Organize.DryRun = *flat.DryRun
	}
	if flat.Silent != nil {
		cfg.Organize.Silent = *flat.Silent
	}
	setString(&cfg.Classify.TextModel, flat.TextModel)
	setString(&cfg.Classify.ImageModel, flat.ImageModel)
	setString(&cfg.Classify.OllamaURL, flat.OllamaURL)
	return nil
}

func setString(dst *string, v *string) {
	if v != nil && *v != "" {
		*dst = *v
	}
}

// SaveToFile saves configuration, encoded according to the file extension
func SaveToFile(cfg *Config, path string) error {
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch FormatForPath(path) {
	case FormatTOML:
		data, err = toml.Marshal(cfg)
	case FormatJSON:
		data, err = json.MarshalIndent(cfg, "", "  ")
	default:
		data, err = yaml.Marshal(cfg)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Ensure parent directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// DefaultConfigPath returns the default configuration file path
func DefaultConfigPath() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}

	return filepath.Join(home, ".config", "filenorris", "config.yaml"), nil
}

// LoadDefault attempts to load configuration from the default location,
// then from organizer.config.json in the working directory.
// If neither exists, returns the default configuration.
func LoadDefault() (*Config, error) {
	path, err := DefaultConfigPath()
	if err != nil {
		return nil, err
	}

	if _, err := os.Stat(path); err == nil {
		return LoadFromFile(path)
	}

	if wd, err := os.Getwd(); err == nil {
		local := filepath.Join(wd, "organizer.config.json")
		if _, err := os.Stat(local); err == nil {
			return LoadFromFile(local)
		}
	}

	return Default(), nil
}
