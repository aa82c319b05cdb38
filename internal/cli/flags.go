package cli

import (
	"os"

	"github.com/spf13/cobra"
)

// GlobalFlags holds flags shared by every command
type GlobalFlags struct {
	ConfigFile string
	Verbose    bool
	Quiet      bool
	NoColor    bool
}

var globalFlags GlobalFlags

// AddGlobalFlags adds global flags to the root command
func AddGlobalFlags(cmd *cobra.Command) {
	cmd.PersistentFlags().StringVar(
		&globalFlags.ConfigFile,
		"config",
		"",
		"config file (default is $HOME/.config/filenorris/config.yaml, then ./organizer.config.json)",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Verbose,
		"verbose",
		"v",
		false,
		"log debug events to the console",
	)
	cmd.PersistentFlags().BoolVarP(
		&globalFlags.Quiet,
		"quiet",
		"q",
		false,
		"suppress progress and non-error console output",
	)
	cmd.PersistentFlags().BoolVar(
		&globalFlags.NoColor,
		"no-color",
		false,
		"disable styled output (same as NO_COLOR=1)",
	)

	cmd.PersistentPreRunE = func(cmd *cobra.Command, args []string) error {
		if globalFlags.Verbose && globalFlags.Quiet {
			return errVerboseQuiet
		}
		if globalFlags.NoColor {
			return os.Setenv("NO_COLOR", "1")
		}
		return nil
	}
}
