// internal/cli/init.go
package cli

import (
	"fmt"
	"os"

	"apptainer-compose/internal/assets"

	"github.com/spf13/cobra"
)

var (
	initForce bool

	// initCmd scaffolds a project in the current directory.
	initCmd = &cobra.Command{
		Use:   "init",
		Short: "Write a starter compose.yaml and Dockerfile",
		Long: `Write a starter compose.yaml and Dockerfile into the current
directory, ready for 'apptainer-compose build'.`,
		Args: cobra.NoArgs,
		RunE: runInit,
	}
)

func init() {
	initCmd.Flags().BoolVar(&initForce, "force", false, "overwrite existing files")
}

func runInit(cmd *cobra.Command, args []string) error {
	starters := []struct {
		name string
		body string
	}{
		{"compose.yaml", assets.ComposeStarter()},
		{"Dockerfile", assets.DockerfileStarter()},
	}

	if !initForce {
		for _, s := range starters {
			if _, err := os.Stat(s.name); err == nil {
				return fmt.Errorf("%s already exists, use --force to overwrite", s.name)
			}
		}
	}

	for _, s := range starters {
		if err := os.WriteFile(s.name, []byte(s.body), 0o644); err != nil {
			return fmt.Errorf("failed to write %s: %w", s.name, err)
		}
		fmt.Printf("%s wrote %s\n", SuccessStyle.Render("✓"), CmdStyle.Render(s.name))
	}

	fmt.Println()
	fmt.Println(SubtitleStyle.Render("Next steps:"))
	fmt.Println("  1. Edit the Dockerfile to describe your image")
	fmt.Println("  2. Run 'apptainer-compose build' to create app.sif")
	fmt.Println("  3. Run 'apptainer-compose up' to start the service")

	return nil
}
