// pkg/recipe/writer.go
package recipe

import (
	"fmt"
	"io"
	"os"
	"regexp"
	"strings"
)

var reUserLine = regexp.MustCompile(`^USER\s+(\S+)`)

// WriteDefinition renders the recipe as an Apptainer definition file.
// Every stage is validated before a single byte is written.
func WriteDefinition(w io.Writer, r *Recipe) error {
	text, err := render(r)
	if err != nil {
		return err
	}
	_, err = io.WriteString(w, text)
	return err
}

// SaveDefinition renders the recipe to path. An existing file is left
// untouched unless force is set.
func SaveDefinition(path string, r *Recipe, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("%s already exists", path)
		}
	}
	text, err := render(r)
	if err != nil {
		return err
	}
	return os.WriteFile(path, []byte(text), 0o644)
}

// Validate checks that every stage carries a base image header.
func (r *Recipe) Validate() error {
	for _, s := range r.Stages {
		if s.From == "" {
			return &MissingFromError{Stage: s.Name}
		}
	}
	return nil
}

func render(r *Recipe) (string, error) {
	if err := r.Validate(); err != nil {
		return "", err
	}
	var blocks []string
	for i, s := range r.Stages {
		blocks = append(blocks, stageBlocks(s, i == len(r.Stages)-1)...)
	}
	return strings.Join(blocks, "\n\n") + "\n", nil
}

// stageBlocks renders one stage as a list of blank-line-separated
// blocks. Only the last stage carries the startup and test sections.
func stageBlocks(s *Stage, last bool) []string {
	blocks := []string{
		"Bootstrap: docker\nFrom: " + s.From + "\nStage: " + s.Name,
	}
	if len(s.Files) > 0 {
		lines := []string{"%files"}
		for _, p := range s.Files {
			lines = append(lines, pairLine(p))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	for _, g := range s.StageFiles {
		lines := []string{"%files from " + g.Stage}
		for _, p := range g.Pairs {
			lines = append(lines, pairLine(p))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if len(s.Labels) > 0 {
		blocks = append(blocks, strings.Join(append([]string{"%labels"}, s.Labels...), "\n"))
	}
	if len(s.Install) > 0 {
		lines := []string{"%post"}
		for _, l := range s.Install {
			lines = append(lines, rewriteUser(l))
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if len(s.Env) > 0 {
		lines := []string{"%environment"}
		for _, e := range s.Env {
			lines = append(lines, "export "+e)
		}
		blocks = append(blocks, strings.Join(lines, "\n"))
	}
	if !last {
		return blocks
	}
	if body := startupBody(s); body != nil {
		blocks = append(blocks,
			strings.Join(append([]string{"%runscript"}, body...), "\n"),
			strings.Join(append([]string{"%startscript"}, body...), "\n"))
	}
	if s.Test != "" {
		blocks = append(blocks, "%test\n"+rewriteUser(s.Test))
	}
	return blocks
}

func pairLine(p FilePair) string {
	return strings.Trim(strings.TrimSpace(p.Source+" "+p.Dest), `\`)
}

// startupBody builds the runscript lines: entrypoint then cmd,
// exec-prefixed and handed the positional arguments, preceded by a
// directory change when a working directory was recorded. Nil when the
// stage defines neither.
func startupBody(s *Stage) []string {
	var parts []string
	if j := s.Entrypoint.Join(); j != "" {
		parts = append(parts, j)
	}
	if j := s.Cmd.Join(); j != "" {
		parts = append(parts, j)
	}
	if len(parts) == 0 {
		return nil
	}
	script := strings.Join(parts, " ")
	if !strings.HasPrefix(script, "exec") {
		script = "exec " + script
	}
	if !strings.Contains(script, "$@") {
		script += ` "$@"`
	}
	var lines []string
	if s.WorkDir != "" {
		lines = append(lines, "cd "+s.WorkDir)
	}
	return append(lines, rewriteUser(script))
}

// rewriteUser converts a USER switch, which the definition grammar
// cannot express, into an su invocation keeping the original line as a
// comment.
func rewriteUser(line string) string {
	m := reUserLine.FindStringSubmatch(line)
	if m == nil {
		return line
	}
	return "su - " + m[1] + " # " + line
}
