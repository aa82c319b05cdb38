package cli

import (
	"github.com/spf13/cobra"
)

// NewPreviewCommand creates the preview command
func NewPreviewCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Preview the organized tree without writing (dry-run)",
		Long: `Scan, classify and plan exactly like organize, then print the resulting
tree and a per-folder summary without performing any file operation.
This is equivalent to organize --dry-run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			organizeFlags.DryRun = true
			return runOrganize(cmd, args)
		},
	}

	// Reuse organize flags
	addOrganizeFlags(cmd)
	cmd.Flags().MarkHidden("dry-run")

	return cmd
}
