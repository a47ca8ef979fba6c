// internal/cli/summary.go
package cli

import (
	"fmt"
	"strings"

	"apptainer-compose/pkg/compose"
)

// printSummary emits a scannable report of the parsed compose document,
// one section per service.
func printSummary(f *compose.File) {
	fmt.Println("Compose Summary")
	fmt.Println("---------------")
	fmt.Printf("  Compose File          : %s\n", f.Path)
	fmt.Printf("  Services              : %d\n", len(f.Services))
	fmt.Println()

	for _, svc := range f.Services {
		fmt.Println(svc.Name)
		if svc.Build != "" {
			fmt.Printf("  Build Context         : %s\n", svc.Build)
			fmt.Printf("  Definition File       : %s\n", svc.DefFile)
			fmt.Printf("  Image File            : %s\n", svc.SifFile)
		} else {
			fmt.Printf("  Image                 : %s\n", formatOrNone(svc.Image))
		}
		if len(svc.Command) > 0 {
			fmt.Printf("  Command               : %s\n", strings.Join(svc.Command, " "))
		}
		fmt.Printf("  Binds                 : %d\n", svc.Volumes.Len())
		fmt.Printf("  Environment Entries   : %d\n", svc.Environment.Len())
		fmt.Println()
	}
}

func formatOrNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}
