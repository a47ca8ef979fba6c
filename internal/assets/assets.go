// internal/assets/assets.go
package assets

import (
	"embed"
	"fmt"
)

//go:embed compose.yaml Dockerfile
var starters embed.FS

// ComposeStarter loads the embedded compose.yaml as a string.
func ComposeStarter() string {
	return read("compose.yaml")
}

// DockerfileStarter loads the embedded Dockerfile as a string.
func DockerfileStarter() string {
	return read("Dockerfile")
}

func read(name string) string {
	data, err := starters.ReadFile(name)
	if err != nil {
		// fail-safe: return a marker so we don't write a blank file
		return fmt.Sprintf("# error reading embedded %s: %v\n", name, err)
	}
	return string(data)
}
