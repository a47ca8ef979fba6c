// pkg/recipe/recipe.go
package recipe

import (
	"encoding/json"
	"strings"
)

// CommandLine is the payload of a CMD or ENTRYPOINT instruction.
// Docker accepts both a JSON token array and a plain shell string; the
// form is decided once at parse time and carried explicitly so the
// JSON rendering can round-trip it.
type CommandLine struct {
	Tokens []string
	Raw    string
	IsList bool
}

// Join renders the payload for shell use. Token lists are
// space-joined, scalar payloads pass through unchanged.
func (c *CommandLine) Join() string {
	if c == nil {
		return ""
	}
	if c.IsList {
		return strings.Join(c.Tokens, " ")
	}
	return c.Raw
}

func (c CommandLine) MarshalJSON() ([]byte, error) {
	if c.IsList {
		return json.Marshal(c.Tokens)
	}
	return json.Marshal(c.Raw)
}

// FilePair is one source/destination pair from a COPY or ADD
// instruction.
type FilePair struct {
	Source string
	Dest   string
}

func (p FilePair) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]string{p.Source, p.Dest})
}

// StageFileGroup collects the pairs copied out of one earlier build
// stage.
type StageFileGroup struct {
	Stage string     `json:"stage"`
	Pairs []FilePair `json:"files"`
}

// Stage is one build stage of a Dockerfile.
type Stage struct {
	Name       string            `json:"name"`
	From       string            `json:"from,omitempty"`
	Files      []FilePair        `json:"files,omitempty"`
	StageFiles []*StageFileGroup `json:"stageFiles,omitempty"`
	Install    []string          `json:"install,omitempty"`
	Env        []string          `json:"environment,omitempty"`
	Labels     []string          `json:"labels,omitempty"`
	Ports      []string          `json:"ports,omitempty"`
	Volumes    []string          `json:"volumes,omitempty"`
	StopSignal string            `json:"stopSignal,omitempty"`
	Test       string            `json:"test,omitempty"`
	WorkDir    string            `json:"workdir,omitempty"`
	Cmd        *CommandLine      `json:"cmd,omitempty"`
	Entrypoint *CommandLine      `json:"entrypoint,omitempty"`
}

// addStageFile appends a pair under its source stage, keeping groups
// in first-reference order.
func (s *Stage) addStageFile(stage string, pair FilePair) {
	for _, g := range s.StageFiles {
		if g.Stage == stage {
			g.Pairs = append(g.Pairs, pair)
			return
		}
	}
	s.StageFiles = append(s.StageFiles, &StageFileGroup{Stage: stage, Pairs: []FilePair{pair}})
}

// Recipe is a parsed Dockerfile, one Stage per FROM.
type Recipe struct {
	Stages []*Stage `json:"stages"`
}

// Stage returns the named build stage.
func (r *Recipe) Stage(name string) (*Stage, bool) {
	for _, s := range r.Stages {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Final returns the stage the image boots into, the last one declared.
func (r *Recipe) Final() *Stage {
	if len(r.Stages) == 0 {
		return nil
	}
	return r.Stages[len(r.Stages)-1]
}

// JSON renders the recipe as indented JSON.
func (r *Recipe) JSON() ([]byte, error) {
	return json.MarshalIndent(r, "", "  ")
}
