// internal/cli/run.go
package cli

import (
	"apptainer-compose/internal/apptainer"

	"github.com/spf13/cobra"
)

// runCmd starts a single service. Arguments after the service name are
// appended to the synthesized command.
var runCmd = &cobra.Command{
	Use:   "run <service> [-- args...]",
	Short: "Start one service",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runRun,
}

func init() {
	runCmd.Flags().BoolVar(&writableTmpfs, "writable-tmpfs", false, "run the container with an ephemeral writable overlay")
}

func runRun(cmd *cobra.Command, args []string) error {
	f, err := loadCompose()
	if err != nil {
		return err
	}
	if !cmd.Flags().Changed("writable-tmpfs") {
		writableTmpfs = cfg.WritableTmpfs
	}
	opts := runnerOptions()
	opts.Args = args[1:]
	r := apptainer.NewRunner(opts, dryRun)
	return wrapExit(r.Run(cmd.Context(), f, args[0]))
}
