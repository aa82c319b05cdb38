package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filenorris/pkg/config"
)

// NewConfigCommand creates the config command
func NewConfigCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage configuration",
		Long:  `View or modify filenorris configuration.`,
	}

	cmd.AddCommand(newConfigShowCommand())
	cmd.AddCommand(newConfigInitCommand())

	return cmd
}

func newConfigShowCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Mode: %s\n", cfg.Organize.Mode)
			fmt.Fprintf(out, "Link: %s\n", cfg.Organize.Link)
			fmt.Fprintf(out, "Input: %s\n", valueOrUnset(cfg.Organize.InputPath))
			fmt.Fprintf(out, "Output: %s\n", valueOrUnset(cfg.Organize.OutputPath))
			fmt.Fprintf(out, "Align Existing: %t\n", cfg.Organize.AlignExisting)
			fmt.Fprintf(out, "Link Fallback: %t\n", cfg.Organize.LinkFallback)
			fmt.Fprintf(out, "Verify Copies: %t\n", cfg.Organize.Verify)
			fmt.Fprintf(out, "Ollama URL: %s\n", cfg.Classify.OllamaURL)
			fmt.Fprintf(out, "Text Model: %s\n", cfg.Classify.TextModel)
			fmt.Fprintf(out, "Image Model: %s\n", cfg.Classify.ImageModel)
			fmt.Fprintf(out, "Classify Timeout: %ds\n", cfg.Classify.TimeoutSeconds)
			fmt.Fprintf(out, "Extensions: %s\n", strings.Join(cfg.Scan.Extensions, " "))
			fmt.Fprintf(out, "Max Workers: %d\n", cfg.Performance.MaxWorkers)
			fmt.Fprintf(out, "Output Format: %s\n", cfg.Output.Format)
			fmt.Fprintf(out, "Log Format: %s\n", cfg.Logging.Format)
			fmt.Fprintf(out, "Log Level: %s\n", cfg.Logging.Level)

			return nil
		},
	}
}

func newConfigInitCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := globalFlags.ConfigFile
			if path == "" {
				var err error
				path, err = config.DefaultConfigPath()
				if err != nil {
					return err
				}
			}

			cfg := config.Default()
			if err := config.SaveToFile(cfg, path); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Configuration file created at: %s\n", path)
			return nil
		},
	}
}

func valueOrUnset(s string) string {
	if s == "" {
		return "(unset)"
	}
	return s
}
