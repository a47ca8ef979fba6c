// apptainer-compose main entrypoint
//
// This binary translates a restricted compose.yaml and the Dockerfiles
// it references into Apptainer definition files and CLI invocations,
// then runs them sequentially.
//
// Keep this file simple: load project-local env overrides, dispatch to
// the command tree. All the heavy lifting stays internal.

package main

import (
	"github.com/joho/godotenv"

	"apptainer-compose/internal/cli"
)

func main() {
	// Local overrides for dev runs; absent file is harmless.
	_ = godotenv.Load()

	cli.Execute()
}
