package strategy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// ModelTier selects a quality/latency trade-off for remote decisions.
type ModelTier string

const (
	TierFast     ModelTier = "fast"
	TierBalanced ModelTier = "balanced"
	TierStrong   ModelTier = "strong"
)

type modelConfig struct {
	Model       string
	MaxTokens   int32
	Temperature float32
	Timeout     time.Duration
}

var modelConfigs = map[ModelTier]modelConfig{
	TierFast:     {Model: "gemini-2.5-flash-lite", MaxTokens: 512, Temperature: 0.3, Timeout: 10 * time.Second},
	TierBalanced: {Model: "gemini-2.5-flash", MaxTokens: 1024, Temperature: 0.5, Timeout: 20 * time.Second},
	TierStrong:   {Model: "gemini-2.5-pro", MaxTokens: 2048, Temperature: 0.7, Timeout: 30 * time.Second},
}

// ParseTier validates a tier name, defaulting to TierFast for empty input.
func ParseTier(raw string) (ModelTier, error) {
	if raw == "" {
		return TierFast, nil
	}
	tier := ModelTier(raw)
	if _, ok := modelConfigs[tier]; !ok {
		return "", fmt.Errorf("unknown model tier %q", raw)
	}
	return tier, nil
}

// Gemini asks a remote model to pick the next move. Every failure mode —
// API error, timeout, unparseable reply, illegal move — surfaces as an
// error so the pipeline can fall through to a deterministic strategy.
type Gemini struct {
	client *genai.Client
	tier   ModelTier
}

func NewGemini(ctx context.Context, apiKey string, tier ModelTier) (*Gemini, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	if _, ok := modelConfigs[tier]; !ok {
		return nil, fmt.Errorf("unknown model tier %q", tier)
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("create genai client: %w", err)
	}
	return &Gemini{client: client, tier: tier}, nil
}

func (g *Gemini) Close() error { return g.client.Close() }

func (g *Gemini) Name() string { return "gemini-" + string(g.tier) }

// CanHandle declines only when there is nothing to decide.
func (g *Gemini) CanHandle(dc DecisionContext) bool { return len(dc.ValidMoves) > 0 }

func (g *Gemini) DecideMove(ctx context.Context, dc DecisionContext) (Decision, error) {
	cfg := modelConfigs[g.tier]
	ctx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()

	prompt, err := buildPrompt(dc)
	if err != nil {
		return Decision{}, err
	}

	model := g.client.GenerativeModel(cfg.Model)
	model.SetMaxOutputTokens(cfg.MaxTokens)
	model.SetTemperature(cfg.Temperature)

	resp, err := model.GenerateContent(ctx, genai.Text(prompt))
	if err != nil {
		return Decision{}, fmt.Errorf("generate content: %w", err)
	}
	text, err := responseText(resp)
	if err != nil {
		return Decision{}, err
	}

	move, reasoning, err := parseMoveReply(text)
	if err != nil {
		return Decision{}, err
	}
	if !moveIsLegal(move, dc.ValidMoves) {
		return Decision{}, fmt.Errorf("model chose illegal move %+v", move)
	}
	return Decision{Move: move, Reasoning: reasoning, Strategy: g.Name()}, nil
}

func responseText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty model response")
	}
	var out string
	for _, part := range resp.Candidates[0].Content.Parts {
		if text, ok := part.(genai.Text); ok {
			out += string(text)
		}
	}
	if out == "" {
		return "", fmt.Errorf("model response has no text parts")
	}
	return out, nil
}

var _ Strategy = (*Gemini)(nil)
var _ Strategy = (*BigMoney)(nil)
