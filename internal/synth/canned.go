// Package synth provides the answer generators behind a research turn.
// Canned fills fixed templates locally; Gemini asks a remote model for a
// structured answer. Both satisfy types.Synthesizer.
package synth

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"neonresearch/internal/logging"
	"neonresearch/internal/types"
)

// Placeholders recognized in templates.
const (
	TopicPlaceholder      = "{topic}" // topic as typed
	TitleTopicPlaceholder = "{Topic}" // topic in title case
)

// Templates are the fixed strings a Canned synthesizer expands.
type Templates struct {
	Summary   string
	KeyPoints []string
	Sources   []string
	FollowUps []string
	Tools     []string
}

// DefaultTemplates returns five key points, four sources and four follow-up
// questions, each mentioning the topic.
func DefaultTemplates() Templates {
	return Templates{
		Summary: "Based on my research about '{topic}', I've found several interesting points. " +
			"This is a fascinating subject with many aspects to explore. " +
			"The information available suggests that {topic} has significant implications " +
			"in various fields and continues to be an area of active interest and development.",
		KeyPoints: []string{
			"The concept of {topic} has evolved significantly over time",
			"Recent developments in {topic} show promising results",
			"Experts in the field have different perspectives on {topic}",
			"There are several practical applications of {topic} in everyday life",
			"Further research on {topic} could lead to important breakthroughs",
		},
		Sources: []string{
			"Research Journal of {topic} Studies (2023)",
			"International {topic} Association",
			"The {topic} Handbook (2022 Edition)",
			"Expert interviews and analysis on {topic}",
		},
		FollowUps: []string{
			"What are the historical origins of {topic}?",
			"How does {topic} impact different industries?",
			"What are the future trends in {topic}?",
			"Who are the leading experts in {topic}?",
		},
		Tools: []string{"search", "wikipedia"},
	}
}

// Canned expands templates with the query as topic. It never blocks.
type Canned struct {
	templates Templates
	title     cases.Caser
}

// NewCanned creates a template synthesizer.
func NewCanned(t Templates) *Canned {
	return &Canned{templates: t, title: cases.Title(language.English)}
}

// Name identifies the synthesizer in logs.
func (c *Canned) Name() string { return "canned" }

// Latency reports that answers are computed instantly.
func (c *Canned) Latency() types.Latency { return types.LatencyInstant }

// Generate fills every template with the trimmed query.
func (c *Canned) Generate(ctx context.Context, query string) (types.ResearchResult, error) {
	if err := ctx.Err(); err != nil {
		return types.ResearchResult{}, types.AsGenerationError(query, err)
	}
	topic := strings.TrimSpace(query)
	if topic == "" {
		return types.ResearchResult{}, types.NewGenerationError(types.GenerationMalformed, query, errors.New("empty query"))
	}

	r := strings.NewReplacer(
		TopicPlaceholder, topic,
		TitleTopicPlaceholder, c.title.String(topic),
	)
	expand := func(in []string) []string {
		out := make([]string, len(in))
		for i, s := range in {
			out[i] = r.Replace(s)
		}
		return out
	}

	result := types.ResearchResult{
		Topic:             topic,
		Summary:           r.Replace(c.templates.Summary),
		KeyPoints:         expand(c.templates.KeyPoints),
		Sources:           expand(c.templates.Sources),
		FollowUpQuestions: expand(c.templates.FollowUps),
		ToolsUsed:         append([]string(nil), c.templates.Tools...),
	}.Normalize()

	logging.Get(logging.CategorySynth).Debug("canned answer for %q: %d key points", topic, len(result.KeyPoints))
	return result, nil
}
