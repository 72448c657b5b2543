package synth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/genai"

	"neonresearch/internal/types"
)

// =============================================================================
// CANNED
// =============================================================================

func TestCannedGravity(t *testing.T) {
	c := NewCanned(DefaultTemplates())
	res, err := c.Generate(context.Background(), "gravity")
	require.NoError(t, err)

	assert.Equal(t, "gravity", res.Topic)
	assert.Len(t, res.KeyPoints, 5)
	assert.Len(t, res.Sources, 4)
	assert.Len(t, res.FollowUpQuestions, 4)

	for _, group := range [][]string{res.KeyPoints, res.Sources, res.FollowUpQuestions, {res.Summary}} {
		for _, s := range group {
			assert.Contains(t, s, "gravity")
		}
	}
	assert.Equal(t, []string{"search", "wikipedia"}, res.ToolsUsed)
	assert.Equal(t, types.LatencyInstant, types.LatencyOf(c))
}

func TestCannedTitlePlaceholder(t *testing.T) {
	c := NewCanned(Templates{
		Summary:   "{Topic}: notes on {topic}",
		KeyPoints: []string{"{Topic} basics"},
		Tools:     []string{"wikipedia", "search", "search"},
	})
	res, err := c.Generate(context.Background(), "  quantum tunnelling ")
	require.NoError(t, err)

	want := types.ResearchResult{
		Topic:     "quantum tunnelling",
		Summary:   "Quantum Tunnelling: notes on quantum tunnelling",
		KeyPoints: []string{"Quantum Tunnelling basics"},
		ToolsUsed: []string{"search", "wikipedia"},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("canned result mismatch (-want +got):\n%s", diff)
	}
}

func TestCannedErrors(t *testing.T) {
	c := NewCanned(DefaultTemplates())

	_, err := c.Generate(context.Background(), "   ")
	var genErr *types.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, types.GenerationMalformed, genErr.Kind)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = c.Generate(ctx, "gravity")
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, types.GenerationCanceled, genErr.Kind)
	assert.ErrorIs(t, err, context.Canceled)
}

// =============================================================================
// GEMINI
// =============================================================================

type fakeModels struct {
	text   string
	err    error
	block  bool
	model  string
	config *genai.GenerateContentConfig
	prompt string
}

func (f *fakeModels) GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	f.model = model
	f.config = config
	if len(contents) > 0 && len(contents[0].Parts) > 0 {
		f.prompt = contents[0].Parts[0].Text
	}
	if f.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if f.err != nil {
		return nil, f.err
	}
	return &genai.GenerateContentResponse{
		Candidates:    []*genai.Candidate{{Content: genai.NewContentFromText(f.text, genai.RoleModel)}},
		UsageMetadata: &genai.GenerateContentResponseUsageMetadata{PromptTokenCount: 12, CandidatesTokenCount: 40, TotalTokenCount: 52},
	}, nil
}

func TestNewGeminiRequiresKey(t *testing.T) {
	_, err := NewGemini(context.Background(), GeminiConfig{})
	assert.Error(t, err)
}

func TestGeminiParsesStructuredAnswer(t *testing.T) {
	fake := &fakeModels{text: "```json\n" + `{
		"topic": "Black holes",
		"summary": "Regions of spacetime.",
		"key_points": ["event horizon", "hawking radiation"],
		"sources": ["Wald, General Relativity"],
		"follow_up_questions": ["What is spaghettification?"]
	}` + "\n```"}
	g := NewGeminiWith(fake, GeminiConfig{Timeout: time.Minute})

	res, err := g.Generate(context.Background(), " black holes ")
	require.NoError(t, err)

	want := types.ResearchResult{
		Topic:             "Black holes",
		Summary:           "Regions of spacetime.",
		KeyPoints:         []string{"event horizon", "hawking radiation"},
		Sources:           []string{"Wald, General Relativity"},
		FollowUpQuestions: []string{"What is spaghettification?"},
		ToolsUsed:         []string{"gemini"},
	}
	if diff := cmp.Diff(want, res); diff != "" {
		t.Fatalf("gemini result mismatch (-want +got):\n%s", diff)
	}

	assert.Equal(t, "gemini-2.0-flash", fake.model)
	assert.Equal(t, "black holes", fake.prompt)
	assert.Equal(t, "application/json", fake.config.ResponseMIMEType)
	assert.Equal(t, types.LatencyVariable, types.LatencyOf(g))
	assert.Equal(t, "gemini:gemini-2.0-flash", g.Name())
}

func TestGeminiPlainTextBecomesSummary(t *testing.T) {
	g := NewGeminiWith(&fakeModels{text: "Gravity is a fundamental interaction."}, GeminiConfig{Model: "m"})
	res, err := g.Generate(context.Background(), "gravity")
	require.NoError(t, err)

	assert.Equal(t, "gravity", res.Topic)
	assert.Equal(t, "Gravity is a fundamental interaction.", res.Summary)
	assert.Empty(t, res.KeyPoints)
	assert.True(t, res.UsedTool(GeminiTool))
}

func TestGeminiEmptyResponseIsMalformed(t *testing.T) {
	g := NewGeminiWith(&fakeModels{text: "  "}, GeminiConfig{})
	_, err := g.Generate(context.Background(), "gravity")

	var genErr *types.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, types.GenerationMalformed, genErr.Kind)
}

func TestGeminiErrorClassification(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want types.GenerationKind
	}{
		{"auth", genai.APIError{Code: 403, Message: "API key not valid"}, types.GenerationAuth},
		{"unauthenticated", fmt.Errorf("wrapped: %w", genai.APIError{Code: 401}), types.GenerationAuth},
		{"rate limit", genai.APIError{Code: 429, Status: "RESOURCE_EXHAUSTED"}, types.GenerationRateLimit},
		{"server", genai.APIError{Code: 503}, types.GenerationNetwork},
		{"bad request", genai.APIError{Code: 400}, types.GenerationMalformed},
		{"timeout", context.DeadlineExceeded, types.GenerationNetwork},
		{"other", errors.New("boom"), types.GenerationUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := NewGeminiWith(&fakeModels{err: tt.err}, GeminiConfig{})
			_, err := g.Generate(context.Background(), "gravity")

			var genErr *types.GenerationError
			require.ErrorAs(t, err, &genErr)
			assert.Equal(t, tt.want, genErr.Kind)
			assert.Equal(t, "gravity", genErr.Query)
			assert.True(t, strings.HasPrefix(err.Error(), "generation failed ("))
		})
	}
}

func TestGeminiTimeout(t *testing.T) {
	g := NewGeminiWith(&fakeModels{block: true}, GeminiConfig{Timeout: 10 * time.Millisecond})
	_, err := g.Generate(context.Background(), "gravity")

	var genErr *types.GenerationError
	require.ErrorAs(t, err, &genErr)
	assert.Equal(t, types.GenerationNetwork, genErr.Kind)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestGeminiCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	g := NewGeminiWith(&fakeModels{block: true}, GeminiConfig{})
	_, err := g.Generate(ctx, "gravity")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestStripFences(t *testing.T) {
	assert.Equal(t, `{"a":1}`, stripFences("```json\n{\"a\":1}\n```"))
	assert.Equal(t, `{"a":1}`, stripFences("```\n{\"a\":1}```"))
	assert.Equal(t, "plain", stripFences("  plain "))
}
