// Package types provides shared type definitions used across neonresearch packages.
// This package exists to break import cycles between the session, synth, store and chat layers.
// Types in this package should be foundational data structures with no complex dependencies.
package types

import (
	"sort"
	"strings"
	"time"
)

// =============================================================================
// SESSION STATUS
// =============================================================================

// Status is the observable state of a research session.
type Status int

const (
	StatusReady Status = iota
	StatusResearching
)

func (s Status) String() string {
	switch s {
	case StatusReady:
		return "Ready"
	case StatusResearching:
		return "Researching"
	default:
		return "Unknown"
	}
}

// =============================================================================
// RESEARCH RESULTS
// =============================================================================

// ResearchResult is the structured answer produced for a single query.
type ResearchResult struct {
	Topic             string   `json:"topic"`
	Summary           string   `json:"summary"`
	KeyPoints         []string `json:"key_points"`
	Sources           []string `json:"sources"`
	FollowUpQuestions []string `json:"follow_up_questions"`
	ToolsUsed         []string `json:"tools_used"` // set semantics, see Normalize
}

// Normalize trims every field and turns ToolsUsed into a sorted set.
// Empty list entries are dropped.
func (r ResearchResult) Normalize() ResearchResult {
	out := ResearchResult{
		Topic:             strings.TrimSpace(r.Topic),
		Summary:           strings.TrimSpace(r.Summary),
		KeyPoints:         compact(r.KeyPoints),
		Sources:           compact(r.Sources),
		FollowUpQuestions: compact(r.FollowUpQuestions),
	}

	seen := make(map[string]struct{}, len(r.ToolsUsed))
	for _, tool := range r.ToolsUsed {
		tool = strings.TrimSpace(tool)
		if tool == "" {
			continue
		}
		if _, ok := seen[tool]; ok {
			continue
		}
		seen[tool] = struct{}{}
		out.ToolsUsed = append(out.ToolsUsed, tool)
	}
	sort.Strings(out.ToolsUsed)
	return out
}

// Clone returns a deep copy so callers cannot mutate stored history.
func (r ResearchResult) Clone() ResearchResult {
	r.KeyPoints = cloneStrings(r.KeyPoints)
	r.Sources = cloneStrings(r.Sources)
	r.FollowUpQuestions = cloneStrings(r.FollowUpQuestions)
	r.ToolsUsed = cloneStrings(r.ToolsUsed)
	return r
}

// UsedTool reports whether the named tool contributed to the result.
func (r ResearchResult) UsedTool(name string) bool {
	for _, tool := range r.ToolsUsed {
		if tool == name {
			return true
		}
	}
	return false
}

// Turn is one query and its result, stored in session history.
type Turn struct {
	Query  string
	Result ResearchResult
	At     time.Time
}

// Clone returns a deep copy of the turn.
func (t Turn) Clone() Turn {
	t.Result = t.Result.Clone()
	return t
}

func compact(in []string) []string {
	var out []string
	for _, s := range in {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func cloneStrings(in []string) []string {
	if in == nil {
		return nil
	}
	out := make([]string, len(in))
	copy(out, in)
	return out
}
