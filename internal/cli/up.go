// internal/cli/up.go
package cli

import (
	"apptainer-compose/internal/apptainer"

	"github.com/spf13/cobra"
)

// upCmd starts every service in declaration order.
var upCmd = &cobra.Command{
	Use:   "up",
	Short: "Start all services in declaration order",
	Args:  cobra.NoArgs,
	RunE:  runUp,
}

func init() {
	upCmd.Flags().BoolVar(&writableTmpfs, "writable-tmpfs", false, "run containers with an ephemeral writable overlay")
}

func runUp(cmd *cobra.Command, args []string) error {
	f, err := loadCompose()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("writable-tmpfs") {
		writableTmpfs = cfg.WritableTmpfs
	}
	r := apptainer.NewRunner(runnerOptions(), dryRun)
	return wrapExit(r.Up(cmd.Context(), f))
}
