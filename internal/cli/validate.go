package cli

import (
	"fmt"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"github.com/sdejongh/filenorris/internal/platform"
	"github.com/sdejongh/filenorris/pkg/config"
	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/scan"
)

// loadConfig loads configuration from file or returns default
func loadConfig() (*config.Config, error) {
	if globalFlags.ConfigFile != "" {
		return config.LoadFromFile(globalFlags.ConfigFile)
	}
	return config.LoadDefault()
}

// applyFlagsToConfig overrides config values with command-line flags.
// Precedence is flags, then config file, then defaults.
func applyFlagsToConfig(cmd *cobra.Command, cfg *config.Config) error {
	flags := cmd.Flags()

	if organizeFlags.Input != "" {
		cfg.Organize.InputPath = organizeFlags.Input
	}
	if organizeFlags.Output != "" {
		cfg.Organize.OutputPath = organizeFlags.Output
	}
	if organizeFlags.Mode != "" {
		cfg.Organize.Mode = models.OrganizeMode(organizeFlags.Mode)
	}
	if organizeFlags.Link != "" {
		cfg.Organize.Link = organizeFlags.Link
	}

	// preview forces dry-run without marking the flag as changed
	if organizeFlags.DryRun || flags.Changed("dry-run") {
		cfg.Organize.DryRun = organizeFlags.DryRun
	}
	if flags.Changed("silent") {
		cfg.Organize.Silent = organizeFlags.Silent
	}
	if flags.Changed("align-existing") {
		cfg.Organize.AlignExisting = organizeFlags.AlignExisting
	}
	if flags.Changed("link-fallback") {
		cfg.Organize.LinkFallback = organizeFlags.LinkFallback
	}
	if flags.Changed("verify") {
		cfg.Organize.Verify = organizeFlags.Verify
	}

	// Parallel workers (default: number of CPUs)
	if organizeFlags.Parallel > 0 {
		cfg.Performance.MaxWorkers = organizeFlags.Parallel
	}

	if organizeFlags.Bandwidth != "" {
		limit, err := humanize.ParseBytes(organizeFlags.Bandwidth)
		if err != nil {
			return fmt.Errorf("invalid bandwidth limit %q: %w", organizeFlags.Bandwidth, err)
		}
		cfg.Performance.BandwidthLimit = int64(limit)
	}

	if organizeFlags.Timeout > 0 {
		cfg.Classify.TimeoutSeconds = organizeFlags.Timeout
	}
	if organizeFlags.OllamaURL != "" {
		cfg.Classify.OllamaURL = organizeFlags.OllamaURL
	}
	if organizeFlags.TextModel != "" {
		cfg.Classify.TextModel = organizeFlags.TextModel
	}
	if organizeFlags.ImageModel != "" {
		cfg.Classify.ImageModel = organizeFlags.ImageModel
	}

	// Scan filters
	if len(organizeFlags.Exclude) > 0 {
		cfg.Scan.Exclude = organizeFlags.Exclude
	}
	if len(organizeFlags.Extensions) > 0 {
		cfg.Scan.Extensions = organizeFlags.Extensions
	}

	// Output format
	if organizeFlags.Format != "" {
		cfg.Output.Format = organizeFlags.Format
	}

	// Logging
	if organizeFlags.LogFile != "" {
		cfg.Logging.File = organizeFlags.LogFile
	}
	if organizeFlags.LogFormat != "" {
		cfg.Logging.Format = organizeFlags.LogFormat
	}
	if organizeFlags.LogLevel != "" {
		cfg.Logging.Level = organizeFlags.LogLevel
	}

	// Disable progress in quiet mode
	if globalFlags.Quiet {
		cfg.Output.Progress = false
		cfg.Output.Quiet = true
	}

	return cfg.Validate()
}

// createRunConfig resolves the configuration into the immutable settings of one run
func createRunConfig(cfg *config.Config) (models.RunConfig, error) {
	if cfg.Organize.InputPath == "" {
		return models.RunConfig{}, &models.ValidationError{
			Field:   "InputPath",
			Message: "input path is required (--input or organize.input_path)",
		}
	}

	input, err := platform.Absolute(cfg.Organize.InputPath)
	if err != nil {
		return models.RunConfig{}, err
	}
	outputRoot, err := platform.ResolveOutputRoot(input, cfg.Organize.OutputPath)
	if err != nil {
		return models.RunConfig{}, err
	}

	if outputRoot == input {
		return models.RunConfig{}, fmt.Errorf("input and output cannot be the same: %s", input)
	}
	if platform.IsWithin(outputRoot, input) {
		return models.RunConfig{}, fmt.Errorf("input cannot be inside the output directory")
	}

	link, err := models.ParseLinkMode(cfg.Organize.Link)
	if err != nil {
		return models.RunConfig{}, err
	}

	extensions := make([]string, 0, len(cfg.Scan.Extensions))
	for _, ext := range cfg.Scan.Extensions {
		extensions = append(extensions, scan.NormalizeExtension(ext))
	}

	rc := models.RunConfig{
		ID:              uuid.New().String(),
		InputPath:       input,
		OutputPath:      outputRoot,
		Mode:            cfg.Organize.Mode,
		LinkMode:        link,
		DryRun:          cfg.Organize.DryRun,
		Silent:          cfg.Organize.Silent,
		LogPath:         cfg.Logging.File,
		MaxWorkers:      cfg.Performance.MaxWorkers,
		ClassifyTimeout: time.Duration(cfg.Classify.TimeoutSeconds) * time.Second,
		Extensions:      extensions,
		Exclude:         cfg.Scan.Exclude,
		AlignExisting:   cfg.Organize.AlignExisting,
		LinkFallback:    cfg.Organize.LinkFallback,
		Verify:          cfg.Organize.Verify,
		BandwidthLimit:  cfg.Performance.BandwidthLimit,
		BufferSize:      cfg.Performance.BufferSize,
		CreatedAt:       time.Now(),
	}

	if err := rc.Validate(); err != nil {
		return models.RunConfig{}, err
	}
	return rc, nil
}
