// internal/version/version.go
package version

import (
	"fmt"
	"strconv"
	"strings"
)

// Version is a semantic version triple.
type Version struct {
	Major int
	Minor int
	Patch int
}

func (v Version) String() string {
	return fmt.Sprintf("%d.%d.%d", v.Major, v.Minor, v.Patch)
}

// Parse parses a version string in the format "X.Y.Z".
func Parse(versionStr string) (Version, error) {
	parts := strings.Split(versionStr, ".")
	if len(parts) != 3 {
		return Version{}, fmt.Errorf("invalid version format: expected X.Y.Z, got %s", versionStr)
	}

	major, err := strconv.Atoi(parts[0])
	if err != nil {
		return Version{}, fmt.Errorf("invalid major version: %w", err)
	}
	minor, err := strconv.Atoi(parts[1])
	if err != nil {
		return Version{}, fmt.Errorf("invalid minor version: %w", err)
	}
	patch, err := strconv.Atoi(parts[2])
	if err != nil {
		return Version{}, fmt.Errorf("invalid patch version: %w", err)
	}

	return Version{Major: major, Minor: minor, Patch: patch}, nil
}

func (v Version) LessThan(other Version) bool {
	if v.Major != other.Major {
		return v.Major < other.Major
	}
	if v.Minor != other.Minor {
		return v.Minor < other.Minor
	}
	return v.Patch < other.Patch
}

// FromOutput extracts the semantic version from a container runtime's
// --version output, such as "apptainer version 1.2.5" or
// "singularity version 3.8.7-1.el8". Distribution suffixes after "-"
// or "+" are ignored.
func FromOutput(out string) (Version, error) {
	for _, field := range strings.Fields(out) {
		field = strings.TrimPrefix(field, "v")
		if field == "" || field[0] < '0' || field[0] > '9' {
			continue
		}
		core := field
		if i := strings.IndexAny(core, "-+"); i >= 0 {
			core = core[:i]
		}
		if v, err := Parse(core); err == nil {
			return v, nil
		}
	}
	return Version{}, fmt.Errorf("no version found in %q", out)
}
