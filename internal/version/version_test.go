// internal/version/version_test.go
package version

import (
	"testing"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Version
		expectErr bool
	}{
		{
			name:  "Valid version",
			input: "1.2.3",
			want:  Version{Major: 1, Minor: 2, Patch: 3},
		},
		{
			name:      "Missing patch",
			input:     "1.2",
			expectErr: true,
		},
		{
			name:      "Too many segments",
			input:     "1.2.3.4",
			expectErr: true,
		},
		{
			name:      "Non-numeric parts",
			input:     "a.b.c",
			expectErr: true,
		},
		{
			name:      "Invalid major version",
			input:     "a.2.3",
			expectErr: true,
		},
		{
			name:      "Invalid minor version",
			input:     "1.b.3",
			expectErr: true,
		},
		{
			name:      "Invalid patch version",
			input:     "1.2.c",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Parse(tt.input)

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error but got none for input %q", tt.input)
				}
			} else {
				if err != nil {
					t.Errorf("unexpected error for input %q: %v", tt.input, err)
				}
				if got != tt.want {
					t.Errorf("expected %+v, got %+v", tt.want, got)
				}
			}
		})
	}
}

func TestString(t *testing.T) {
	v := Version{Major: 1, Minor: 2, Patch: 3}
	got := v.String()
	want := "1.2.3"

	if got != want {
		t.Errorf("expected %q, got %q", want, got)
	}
}

func TestLessThan(t *testing.T) {
	tests := []struct {
		a, b Version
		want bool
	}{
		{Version{1, 0, 0}, Version{1, 0, 1}, true},
		{Version{1, 2, 0}, Version{1, 3, 0}, true},
		{Version{1, 2, 3}, Version{2, 0, 0}, true},
		{Version{2, 0, 0}, Version{1, 2, 3}, false},
		{Version{1, 2, 3}, Version{1, 2, 3}, false},
	}

	for _, tt := range tests {
		got := tt.a.LessThan(tt.b)
		if got != tt.want {
			t.Errorf("LessThan(%v, %v) = %v; want %v", tt.a, tt.b, got, tt.want)
		}
	}
}

func TestFromOutput(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      Version
		expectErr bool
	}{
		{
			name:  "apptainer",
			input: "apptainer version 1.2.5",
			want:  Version{Major: 1, Minor: 2, Patch: 5},
		},
		{
			name:  "singularity with distro suffix",
			input: "singularity version 3.8.7-1.el8",
			want:  Version{Major: 3, Minor: 8, Patch: 7},
		},
		{
			name:  "v prefix",
			input: "v1.0.2",
			want:  Version{Major: 1, Minor: 0, Patch: 2},
		},
		{
			name:  "build metadata",
			input: "apptainer version 1.3.0+245-gdeadbeef",
			want:  Version{Major: 1, Minor: 3, Patch: 0},
		},
		{
			name:      "no version anywhere",
			input:     "command not found",
			expectErr: true,
		},
		{
			name:      "empty output",
			input:     "",
			expectErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FromOutput(tt.input)

			if tt.expectErr {
				if err == nil {
					t.Errorf("expected error but got none for input %q", tt.input)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error for input %q: %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("expected %+v, got %+v", tt.want, got)
			}
		})
	}
}
