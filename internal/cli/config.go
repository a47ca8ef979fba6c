// internal/cli/config.go
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"apptainer-compose/internal/config"

	"github.com/spf13/cobra"
)

// configCmd prints the settings the other commands would run with.
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Print the resolved settings",
	Args:  cobra.NoArgs,
	RunE:  runConfig,
}

func runConfig(cmd *cobra.Command, args []string) error {
	fmt.Println(TitleStyle.Render("Resolved Settings"))
	fmt.Println("-----------------")
	fmt.Printf("  Compose File          : %s\n", composeFile)
	fmt.Printf("  Runtime Binary        : %s\n", binary)
	fmt.Printf("  Writable Tmpfs        : %v\n", cfg.WritableTmpfs)
	fmt.Printf("  Log Level             : %s\n", cfg.LogLevel)
	fmt.Println()

	fmt.Println("Sources")
	dir, err := config.Dir()
	if err != nil {
		fmt.Printf("  Config Directory      : (unavailable: %v)\n", err)
		return nil
	}
	path := filepath.Join(dir, "config.yaml")
	state := "absent"
	if _, err := os.Stat(path); err == nil {
		state = "present"
	}
	fmt.Printf("  Config File           : %s (%s)\n", path, state)
	fmt.Printf("  Environment Prefix    : %s\n", "APPTAINER_COMPOSE_")
	return nil
}
