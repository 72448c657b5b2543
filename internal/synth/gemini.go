package synth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"strings"
	"time"

	"google.golang.org/genai"

	"neonresearch/internal/logging"
	"neonresearch/internal/types"
)

// =============================================================================
// GOOGLE GENAI RESEARCH SYNTHESIZER
// =============================================================================

// GeminiTool is recorded in ToolsUsed for remote answers.
const GeminiTool = "gemini"

const researchInstruction = `You are a research assistant. Answer the user's research query with a single JSON object and nothing else:
{"topic": string, "summary": string, "key_points": [string], "sources": [string], "follow_up_questions": [string]}
Give 3 to 5 key points, up to 4 sources and 3 to 4 follow-up questions.`

// ContentGenerator is the slice of the genai models service Gemini uses.
type ContentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

// Gemini asks a Gemini model for a structured research answer.
type Gemini struct {
	models  ContentGenerator
	model   string
	timeout time.Duration
}

// GeminiConfig configures NewGemini.
type GeminiConfig struct {
	APIKey  string
	Model   string
	Timeout time.Duration
}

// NewGemini creates a Gemini synthesizer. A missing API key is a startup error.
func NewGemini(ctx context.Context, cfg GeminiConfig) (*Gemini, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}
	return NewGeminiWith(client.Models, cfg), nil
}

// NewGeminiWith builds a synthesizer over an existing generator.
func NewGeminiWith(models ContentGenerator, cfg GeminiConfig) *Gemini {
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}
	return &Gemini{models: models, model: cfg.Model, timeout: cfg.Timeout}
}

// Latency reports that answers depend on the network.
func (g *Gemini) Latency() types.Latency { return types.LatencyVariable }

// Name returns the synthesizer name.
func (g *Gemini) Name() string { return "gemini:" + g.model }

// Generate sends the query and parses the structured answer.
func (g *Gemini) Generate(ctx context.Context, query string) (types.ResearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return types.ResearchResult{}, types.NewGenerationError(types.GenerationMalformed, query, errors.New("empty query"))
	}
	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	logging.APIDebug("GenerateContent: model=%s query=%q", g.model, query)
	timer := logging.StartTimer(logging.CategoryAPI, "GenerateContent")
	resp, err := g.models.GenerateContent(ctx, g.model, genai.Text(query), &genai.GenerateContentConfig{
		SystemInstruction: genai.NewContentFromText(researchInstruction, genai.RoleUser),
		ResponseMIMEType:  "application/json",
	})
	elapsed := timer.StopWithThreshold(30 * time.Second)
	logging.Audit().LLMCall(g.model, elapsed, err)
	if err != nil {
		genErr := classify(query, err)
		logging.Get(logging.CategoryAPI).Warn("GenerateContent failed (%s): %v", genErr.Kind, err)
		return types.ResearchResult{}, genErr
	}

	if resp != nil && resp.UsageMetadata != nil && logging.IsCategoryEnabled(logging.CategoryAPI) {
		u := resp.UsageMetadata
		logging.APIDebug("tokens: prompt=%d candidates=%d total=%d",
			u.PromptTokenCount, u.CandidatesTokenCount, u.TotalTokenCount)
	}

	text := ""
	if resp != nil {
		text = strings.TrimSpace(resp.Text())
	}
	if text == "" {
		return types.ResearchResult{}, types.NewGenerationError(types.GenerationMalformed, query, errors.New("empty response"))
	}

	result := parseResult(query, text)
	result.ToolsUsed = append(result.ToolsUsed, GeminiTool)
	return result.Normalize(), nil
}

type researchPayload struct {
	Topic             string   `json:"topic"`
	Summary           string   `json:"summary"`
	KeyPoints         []string `json:"key_points"`
	Sources           []string `json:"sources"`
	FollowUpQuestions []string `json:"follow_up_questions"`
}

// parseResult decodes a JSON answer, tolerating code fences. Text that is not
// the expected object becomes the summary.
func parseResult(query, text string) types.ResearchResult {
	body := stripFences(text)

	var p researchPayload
	if err := json.Unmarshal([]byte(body), &p); err != nil || (p.Summary == "" && len(p.KeyPoints) == 0) {
		logging.APIDebug("response is not structured, using it as summary")
		return types.ResearchResult{Topic: query, Summary: text}
	}

	result := types.ResearchResult{
		Topic:             p.Topic,
		Summary:           p.Summary,
		KeyPoints:         p.KeyPoints,
		Sources:           p.Sources,
		FollowUpQuestions: p.FollowUpQuestions,
	}
	if strings.TrimSpace(result.Topic) == "" {
		result.Topic = query
	}
	return result
}

func stripFences(text string) string {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:] // drop language tag line
	}
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

// classify maps transport and API failures onto generation kinds.
func classify(query string, err error) *types.GenerationError {
	var apiErr genai.APIError
	var apiErrPtr *genai.APIError
	if errors.As(err, &apiErrPtr) && apiErrPtr != nil {
		apiErr = *apiErrPtr
	}
	if apiErr.Code != 0 || errors.As(err, &apiErr) {
		switch {
		case apiErr.Code == 401 || apiErr.Code == 403:
			return types.NewGenerationError(types.GenerationAuth, query, err)
		case apiErr.Code == 429:
			return types.NewGenerationError(types.GenerationRateLimit, query, err)
		case apiErr.Code >= 500:
			return types.NewGenerationError(types.GenerationNetwork, query, err)
		case apiErr.Code == 400:
			return types.NewGenerationError(types.GenerationMalformed, query, err)
		}
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return types.NewGenerationError(types.GenerationNetwork, query, err)
	}
	return types.AsGenerationError(query, err)
}
