package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/sdejongh/filenorris/internal/cli"
)

var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	os.Exit(run())
}

func run() int {
	cli.Version, cli.Commit, cli.BuildDate = version, commit, date

	rootCmd := &cobra.Command{
		Use:   "filenorris",
		Short: "Organize a folder into a clean tree without touching the originals",
		Long: `filenorris scans a folder and builds a new, organized tree next to it.
Files are grouped by content category (using a local Ollama model), by file
type or by date, and placed with hard links, symbolic links or copies.
Originals are never moved, renamed or overwritten.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Add global flags
	cli.AddGlobalFlags(rootCmd)

	// Add commands
	rootCmd.AddCommand(cli.NewOrganizeCommand())
	rootCmd.AddCommand(cli.NewPreviewCommand())
	rootCmd.AddCommand(cli.NewConfigCommand())
	rootCmd.AddCommand(cli.NewVersionCommand())

	// Ctrl-C cancels the run; completed operations are kept
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	err := rootCmd.ExecuteContext(ctx)
	code, show := cli.ExitCode(err)
	if show {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	}
	return code
}
