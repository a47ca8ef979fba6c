// internal/cli/build.go
package cli

import (
	"apptainer-compose/internal/apptainer"

	"github.com/spf13/cobra"
)

// buildCmd translates each build-directive service's Dockerfile and
// builds its image.
var buildCmd = &cobra.Command{
	Use:   "build",
	Short: "Translate Dockerfiles and build all service images",
	Args:  cobra.NoArgs,
	RunE:  runBuild,
}

func runBuild(cmd *cobra.Command, args []string) error {
	f, err := loadCompose()
	if err != nil {
		return err
	}
	r := apptainer.NewRunner(runnerOptions(), dryRun)
	return wrapExit(r.Build(cmd.Context(), f))
}
