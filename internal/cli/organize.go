package cli

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filenorris/pkg/classify"
	"github.com/sdejongh/filenorris/pkg/config"
	"github.com/sdejongh/filenorris/pkg/logging"
	"github.com/sdejongh/filenorris/pkg/models"
	"github.com/sdejongh/filenorris/pkg/organize"
	"github.com/sdejongh/filenorris/pkg/output"
	"github.com/sdejongh/filenorris/pkg/storage"
)

// DefaultLogFile is used in silent mode when no log file is configured
const DefaultLogFile = "filenorris.log"

// OrganizeFlags holds organize command flags
type OrganizeFlags struct {
	Input         string
	Output        string
	Mode          string
	Link          string
	DryRun        bool
	Silent        bool
	Parallel      int
	Timeout       int
	Exclude       []string
	Extensions    []string
	AlignExisting bool
	LinkFallback  bool
	Verify        bool
	Bandwidth     string
	Format        string
	// Classification flags
	OllamaURL  string
	TextModel  string
	ImageModel string
	// Logging flags
	LogFile   string
	LogFormat string
	LogLevel  string
}

var organizeFlags OrganizeFlags

// NewOrganizeCommand creates the organize command
func NewOrganizeCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "organize",
		Short: "Organize a folder into a new tree",
		Long: `Scan an input folder and place every supported file into a new tree under
the output folder, grouped by content category, file type or date.
Source files are never modified; destinations are hard links, symbolic links
or copies, and existing files are never overwritten.`,
		RunE: runOrganize,
	}
	addOrganizeFlags(cmd)
	return cmd
}

func addOrganizeFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&organizeFlags.Input, "input", "i", "", "input directory path (required unless set in the config file)")
	cmd.Flags().StringVarP(&organizeFlags.Output, "output", "o", "", "output directory path (default: <input>/organized_folder)")
	cmd.Flags().StringVarP(&organizeFlags.Mode, "mode", "m", "", "organize mode: content, type, date, test")
	cmd.Flags().StringVarP(&organizeFlags.Link, "link", "l", "", "link mode: hard, soft, copy")
	cmd.Flags().BoolVar(&organizeFlags.DryRun, "dry-run", false, "preview the resulting tree without writing anything")
	cmd.Flags().BoolVar(&organizeFlags.Silent, "silent", false, "no console output, log to file only")
	cmd.Flags().IntVarP(&organizeFlags.Parallel, "parallel", "p", 0, "number of parallel workers (default: number of CPUs)")
	cmd.Flags().IntVar(&organizeFlags.Timeout, "timeout", 0, "classification timeout per file in seconds")
	cmd.Flags().StringSliceVar(&organizeFlags.Exclude, "exclude", []string{}, "glob patterns to exclude")
	cmd.Flags().StringSliceVar(&organizeFlags.Extensions, "extensions", []string{}, "supported file extensions (e.g. .txt,.pdf)")
	cmd.Flags().BoolVar(&organizeFlags.AlignExisting, "align-existing", false, "reuse similar folders already present in the output")
	cmd.Flags().BoolVar(&organizeFlags.LinkFallback, "link-fallback", false, "copy the file when a link cannot be created")
	cmd.Flags().BoolVar(&organizeFlags.Verify, "verify", false, "compare every copy with its source after writing")
	cmd.Flags().StringVarP(&organizeFlags.Bandwidth, "bandwidth", "b", "", "copy bandwidth limit (e.g., \"10M\", \"1G\")")
	cmd.Flags().StringVar(&organizeFlags.Format, "format", "", "output format: human, json")

	// Classification flags
	cmd.Flags().StringVar(&organizeFlags.OllamaURL, "ollama-url", "", "Ollama server URL")
	cmd.Flags().StringVar(&organizeFlags.TextModel, "model-text", "", "model used for text files")
	cmd.Flags().StringVar(&organizeFlags.ImageModel, "model-image", "", "model used for images")

	// Logging flags
	cmd.Flags().StringVar(&organizeFlags.LogFile, "log-file", "", "write logs to file")
	cmd.Flags().StringVar(&organizeFlags.LogFormat, "log-format", "", "log format: text, json")
	cmd.Flags().StringVar(&organizeFlags.LogLevel, "log-level", "", "log level: debug, info, warn, error")
}

func runOrganize(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	// Load configuration
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}

	// Override config with command-line flags
	if err := applyFlagsToConfig(cmd, cfg); err != nil {
		return err
	}

	runConfig, err := createRunConfig(cfg)
	if err != nil {
		return fmt.Errorf("invalid run configuration: %w", err)
	}

	logger, err := createLogger(cfg, runConfig)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Close()

	formatter := createFormatter(cfg, runConfig)

	backend, err := storage.NewLocal(runConfig.OutputPath)
	if err != nil {
		return fmt.Errorf("failed to create output backend: %w", err)
	}
	defer backend.Close()

	engine := organize.NewEngine(runConfig, createClassifier(cfg, runConfig, logger), backend, formatter, logger)

	result, err := engine.Run(ctx)
	if err != nil {
		logger.Error(ctx, "run failed", err, nil)
		formatter.Error(err)
		return &StatusError{Code: exitCodeFor(err), Err: err}
	}

	if result.Report != nil && result.Report.Status != models.StatusSuccess {
		return &StatusError{Code: result.Report.Status.ExitCode()}
	}
	return nil
}

// createClassifier selects the classification backend of the mode
func createClassifier(cfg *config.Config, rc models.RunConfig, logger logging.Logger) classify.Classifier {
	switch rc.Mode {
	case models.ModeContent:
		client := classify.NewOllama(classify.OllamaConfig{
			BaseURL:        cfg.Classify.OllamaURL,
			TextModel:      cfg.Classify.TextModel,
			ImageModel:     cfg.Classify.ImageModel,
			TimeoutSeconds: cfg.Classify.TimeoutSeconds,
			MaxTextBytes:   cfg.Classify.MaxTextBytes,
			MaxAttempts:    cfg.Classify.MaxAttempts,
		}, classify.WithLogger(logger))
		return classify.NewOllamaDispatcher(client)
	case models.ModeTest:
		return classify.NewSimulatedDispatcher()
	default:
		return nil
	}
}

// createFormatter writes to stdout unless the run is silent
func createFormatter(cfg *config.Config, rc models.RunConfig) output.Formatter {
	if rc.Silent {
		return output.NullFormatter{}
	}
	return output.New(cfg.Output.Format, os.Stdout, cfg.Output.Progress && !cfg.Output.Quiet)
}

// createLogger combines a console logger on stderr with an optional file
// logger. Silent runs log to the file only.
func createLogger(cfg *config.Config, rc models.RunConfig) (logging.Logger, error) {
	var loggers []logging.Logger

	logFile := rc.LogPath
	if rc.Silent && logFile == "" {
		logFile = DefaultLogFile
	}
	if logFile != "" {
		format := logging.FormatText
		if cfg.Logging.Format == "json" {
			format = logging.FormatJSON
		}
		fileLogger, err := logging.NewFileLogger(logging.FileLoggerConfig{
			Path:       logFile,
			Format:     format,
			Level:      logging.ParseLevel(cfg.Logging.Level),
			MaxSize:    10 * 1024 * 1024, // 10 MB
			MaxBackups: 5,
		})
		if err != nil {
			return nil, err
		}
		loggers = append(loggers, fileLogger)
	}

	if !rc.Silent {
		loggers = append(loggers, logging.NewConsoleLogger(os.Stderr, consoleLevel()))
	}

	return logging.NewMultiLogger(loggers...), nil
}

// consoleLevel keeps the console to warnings unless verbose
func consoleLevel() logging.Level {
	switch {
	case globalFlags.Quiet:
		return logging.ErrorLevel
	case globalFlags.Verbose:
		return logging.DebugLevel
	default:
		return logging.WarnLevel
	}
}
