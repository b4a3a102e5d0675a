package llmservice

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog/log"
	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"
	"github.com/tmc/langchaingo/schema"

	"knowledge-rag/internal/config"
	"knowledge-rag/internal/models"
)

// Generator produces a completion for a system prompt + user prompt pair.
// Implemented by Client; faked in orchestrator tests.
type Generator interface {
	Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error)
}

// Result is a successful generation: the answer text plus whatever token
// usage the provider reported.
type Result struct {
	Text  string
	Usage models.Usage
}

type Client struct {
	llm *openai.LLM
	cfg *config.LLMConfig
}

func NewClient(cfg *config.LLMConfig) (*Client, error) {
	llm, err := openai.New(
		openai.WithBaseURL(cfg.BaseURL),
		openai.WithToken(strings.TrimPrefix(cfg.Key, "Bearer ")),
		openai.WithModel(cfg.Model),
	)
	if err != nil {
		return nil, err
	}
	return &Client{llm: llm, cfg: cfg}, nil
}

func (c *Client) Generate(ctx context.Context, systemPrompt, userPrompt string) (Result, error) {
	messages := []llms.MessageContent{
		{
			Role:  schema.ChatMessageTypeSystem,
			Parts: []llms.ContentPart{llms.TextContent{Text: systemPrompt}},
		},
		{
			Role:  schema.ChatMessageTypeHuman,
			Parts: []llms.ContentPart{llms.TextContent{Text: userPrompt}},
		},
	}

	resp, err := c.llm.GenerateContent(ctx, messages,
		llms.WithTemperature(c.cfg.Temperature),
		llms.WithMaxTokens(c.cfg.MaxTokens),
	)
	if err != nil {
		return Result{}, err
	}
	if len(resp.Choices) == 0 || resp.Choices[0].Content == "" {
		return Result{}, errors.New("generator returned an empty response")
	}

	choice := resp.Choices[0]
	return Result{
		Text:  choice.Content,
		Usage: extractUsage(choice.GenerationInfo, c.cfg.Model),
	}, nil
}

// extractUsage pulls token counts out of the provider's generation info.
// Providers disagree on field names, so each count is probed under the known
// aliases; a provider that matches none of them gets logged instead of being
// silently under-counted.
func extractUsage(info map[string]any, model string) models.Usage {
	var usage models.Usage
	var ok bool

	usage.InputTokens, ok = intField(info, "PromptTokens", "prompt_tokens", "input_tokens")
	if !ok {
		log.Warn().Str("model", model).Msg("provider reported no input token count")
	}
	usage.OutputTokens, ok = intField(info, "CompletionTokens", "completion_tokens", "output_tokens")
	if !ok {
		log.Warn().Str("model", model).Msg("provider reported no output token count")
	}
	// The provider's own total wins over input+output when they disagree.
	usage.TotalTokens, ok = intField(info, "TotalTokens", "total_tokens")
	if !ok {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return usage
}

func intField(info map[string]any, keys ...string) (int, bool) {
	for _, key := range keys {
		v, present := info[key]
		if !present {
			continue
		}
		switch n := v.(type) {
		case int:
			return n, true
		case int64:
			return int(n), true
		case float64:
			return int(n), true
		}
	}
	return 0, false
}
