// internal/cli/root.go

// Package cli contains all commands for apptainer-compose.
package cli

import (
	"context"
	"errors"
	"fmt"
	"os"

	"apptainer-compose/internal/apptainer"
	"apptainer-compose/internal/config"
	"apptainer-compose/pkg/compose"

	"github.com/charmbracelet/fang"
	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// composeFile is the compose document to operate on.
	composeFile string
	// verbose enables debug logging and the service summary.
	verbose bool
	// dryRun prints commands instead of executing them.
	dryRun bool
	// binary overrides the container runtime executable.
	binary string
	// writableTmpfs adds an ephemeral overlay on run/up.
	writableTmpfs bool

	// cfg holds the resolved settings; flags left at their zero value
	// fall back to it.
	cfg = config.Default()

	rootCmd = &cobra.Command{
		Use:   "apptainer-compose",
		Short: "Run compose services with Apptainer",
		Long: TitleStyle.Render("apptainer-compose") + SubtitleStyle.Render(" - run compose services with Apptainer") + `

apptainer-compose reads a restricted compose.yaml, translates each
service's Dockerfile into an Apptainer definition file, and drives the
apptainer binary to build and run the services sequentially.

` + SubtitleStyle.Render("Examples:") + `
  apptainer-compose build          Translate and build every service with a build directive
  apptainer-compose up             Start all services in declaration order
  apptainer-compose run web        Start the 'web' service
  apptainer-compose convert        Print the definition file for ./Dockerfile
  apptainer-compose init           Write a starter compose.yaml and Dockerfile`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	rootCmd.PersistentFlags().StringVarP(&composeFile, "file", "f", "", "compose file (default compose.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")
	rootCmd.PersistentFlags().BoolVar(&dryRun, "dry-run", false, "print commands instead of executing them")
	rootCmd.PersistentFlags().StringVar(&binary, "binary", "", "container runtime executable (default apptainer)")

	rootCmd.AddCommand(buildCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(upCmd)
	rootCmd.AddCommand(convertCmd)
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(configCmd)
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute runs the root command. Called by main.main().
func Execute() {
	// fang overrides rootCmd.Version, so the version goes through
	// fang.WithVersion.
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(exitErr.Code)
		}
		os.Exit(1)
	}
}

// initRootConfig loads settings and fills in flags the user did not
// set. Flags beat config, config beats defaults.
func initRootConfig() {
	loaded, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, WarningStyle.Render("warning: ")+err.Error())
	} else {
		cfg = *loaded
	}

	if composeFile == "" {
		composeFile = cfg.File
	}
	if binary == "" {
		binary = cfg.Binary
	}

	if verbose {
		log.SetLevel(log.DebugLevel)
	} else if lvl, err := log.ParseLevel(cfg.LogLevel); err == nil {
		log.SetLevel(lvl)
	}
}

// loadCompose parses the selected compose document, resolving extends.
func loadCompose() (*compose.File, error) {
	f, err := compose.ParseFile(composeFile)
	if err != nil {
		return nil, err
	}
	if verbose {
		printSummary(f)
	}
	return f, nil
}

// runnerOptions assembles the synthesizer options from flags and
// config.
func runnerOptions() apptainer.Options {
	return apptainer.Options{
		Binary:        binary,
		WritableTmpfs: writableTmpfs,
	}
}
