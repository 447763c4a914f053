package planner

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/randalmurphal/tripflow/pkg/tripflow/faults"
	"github.com/randalmurphal/tripflow/pkg/tripflow/trip"
)

// Request carries the parameters for one plan generation call.
type Request struct {
	UserName    string
	Destination string
	StartDate   string
	EndDate     string
	Budget      float64
	// FormattedPreferences is the user's preference block, already
	// rendered for the prompt (see FormatPreferences).
	FormattedPreferences string
}

// PlanGenerator produces a travel plan for a request. Implementations are
// synchronous; the engine bounds each invocation with the step timeout. A
// structural-parse failure must be returned as *faults.ParseError so the
// retry policy re-issues the prompt.
type PlanGenerator interface {
	GeneratePlan(ctx context.Context, req Request) (trip.TravelPlan, error)
}

// LLMConfig configures the OpenAI-backed generator from the environment.
// Use envconfig.Process with a prefix, e.g. TRIPFLOW_LLM.
type LLMConfig struct {
	BaseURL     string        `envconfig:"BASE_URL" split_words:"true"`
	APIKey      string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Model       string        `envconfig:"MODEL" split_words:"true" default:"gpt-4o-mini"`
	Temperature float64       `envconfig:"TEMPERATURE" split_words:"true" default:"0.5"`
	Timeout     time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"120s"`
}

// LLMConfigFromEnv loads the generator configuration from environment
// variables with the given prefix.
func LLMConfigFromEnv(prefix string) (LLMConfig, error) {
	var cfg LLMConfig
	if err := envconfig.Process(prefix, &cfg); err != nil {
		return LLMConfig{}, fmt.Errorf("load llm config: %w", err)
	}
	return cfg, nil
}

// OpenAIGenerator generates travel plans with an OpenAI-compatible chat
// completion endpoint.
type OpenAIGenerator struct {
	client openai.Client
	cfg    LLMConfig
}

// NewOpenAIGenerator creates a generator from the given configuration.
func NewOpenAIGenerator(cfg LLMConfig) *OpenAIGenerator {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
	}
	if trimmed := strings.TrimRight(cfg.BaseURL, "/"); trimmed != "" {
		opts = append(opts, option.WithBaseURL(trimmed))
	}
	if cfg.Timeout > 0 {
		opts = append(opts, option.WithRequestTimeout(cfg.Timeout))
	}

	return &OpenAIGenerator{
		client: openai.NewClient(opts...),
		cfg:    cfg,
	}
}

// GeneratePlan implements PlanGenerator.
func (g *OpenAIGenerator) GeneratePlan(ctx context.Context, req Request) (trip.TravelPlan, error) {
	completion, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.cfg.Model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(BuildPrompt(req)),
		},
		Temperature: openai.Float(g.cfg.Temperature),
	})
	if err != nil {
		return trip.TravelPlan{}, fmt.Errorf("chat completion: %w", err)
	}
	if len(completion.Choices) == 0 {
		return trip.TravelPlan{}, fmt.Errorf("chat completion returned no choices")
	}

	return ParsePlan(completion.Choices[0].Message.Content)
}

// ParsePlan validates that a raw LLM response is structurally parseable
// into a TravelPlan. A parse failure is transient: a re-issued prompt may
// produce parseable output, with no guarantee of identical content.
func ParsePlan(raw string) (trip.TravelPlan, error) {
	cleaned := stripFences(raw)

	var plan trip.TravelPlan
	if err := json.Unmarshal([]byte(cleaned), &plan); err != nil {
		return trip.TravelPlan{}, &faults.ParseError{
			Input:   raw,
			Message: fmt.Sprintf("travel plan JSON: %v", err),
		}
	}
	return plan, nil
}

// stripFences removes a markdown code fence wrapper, if present.
// Models frequently wrap JSON output in ```json fences despite instructions.
func stripFences(s string) string {
	s = strings.TrimSpace(s)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	return strings.TrimSpace(s)
}
