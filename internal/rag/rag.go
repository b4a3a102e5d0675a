package rag

import (
	"context"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/rs/zerolog/log"

	"knowledge-rag/internal/config"
	"knowledge-rag/internal/costs"
	"knowledge-rag/internal/helper"
	"knowledge-rag/internal/llmservice"
	"knowledge-rag/internal/models"
	"knowledge-rag/internal/prompt"
	"knowledge-rag/internal/tokens"
)

// retrieveLimit is the fixed retrieval fan-out, higher than what the user
// sees after deduplication.
const retrieveLimit = 5

const fallbackConfidence = 0.5

// Searcher is the retrieval side of the pipeline.
type Searcher interface {
	Search(ctx context.Context, query string, limit int) ([]models.RetrievalHit, error)
}

// CostSink persists cost records. A failing or absent sink never blocks
// answer delivery.
type CostSink interface {
	Track(ctx context.Context, rec *costs.Record) error
}

// Engine drives one request through retrieve, assemble, generate and the
// fallback branch, emitting a cost record on every path.
type Engine struct {
	retriever Searcher
	generator llmservice.Generator
	counter   *tokens.Counter
	sink      CostSink

	model       string
	provider    string
	streamDelay time.Duration
}

func NewEngine(retriever Searcher, generator llmservice.Generator, counter *tokens.Counter, sink CostSink, cfg *config.LLMConfig) *Engine {
	return &Engine{
		retriever:   retriever,
		generator:   generator,
		counter:     counter,
		sink:        sink,
		model:       cfg.Model,
		provider:    cfg.Provider,
		streamDelay: 10 * time.Millisecond,
	}
}

// generation is the two-branch outcome of the generate step: either a model
// completion with usage, or a degraded marker carrying the failure reason.
type generation struct {
	result   llmservice.Result
	degraded bool
	reason   error
}

// Answer runs the full pipeline for one query. Generator failures are
// recovered locally through the fallback branch; retrieval failures surface
// to the caller.
func (e *Engine) Answer(ctx context.Context, query string) (*models.Answer, error) {
	start := time.Now()
	requestID := helper.NewRequestID()

	hits, err := e.retriever.Search(ctx, query, retrieveLimit)
	if err != nil {
		return nil, fmt.Errorf("retrieval failed: %w", err)
	}

	userPrompt := prompt.Assemble(query, hits)
	gen := e.generate(ctx, userPrompt)

	var answer *models.Answer
	var usage models.Usage
	if gen.degraded {
		log.Warn().Err(gen.reason).Str("request_id", requestID).Msg("generation failed, serving fallback answer")
		// Estimate: the query's tokens only, nothing generated.
		queryTokens := e.counter.Count(query, e.model)
		usage = models.Usage{InputTokens: queryTokens, TotalTokens: queryTokens}
		answer = &models.Answer{
			Text:       fallbackAnswer(hits),
			Sources:    hits,
			Confidence: fallbackConfidence,
			Degraded:   true,
		}
	} else {
		usage = e.reconcileUsage(gen.result, userPrompt)
		answer = &models.Answer{
			Text:       gen.result.Text,
			Sources:    hits,
			Confidence: confidence(hits),
		}
	}

	breakdown := costs.Price(e.model, e.provider, usage.InputTokens, usage.OutputTokens)
	answer.Cost = models.CostInfo{
		RequestID:     requestID,
		InputTokens:   usage.InputTokens,
		OutputTokens:  usage.OutputTokens,
		TotalTokens:   usage.TotalTokens,
		EstimatedCost: breakdown.TotalCost,
	}

	e.trackCost(ctx, requestID, query, answer, usage, breakdown, start)
	return answer, nil
}

func (e *Engine) generate(ctx context.Context, userPrompt string) generation {
	result, err := e.generator.Generate(ctx, models.SystemPrompt, userPrompt)
	if err != nil {
		return generation{degraded: true, reason: err}
	}
	return generation{result: result}
}

// reconcileUsage fills in whatever the provider did not report: the input
// from a local message count, the output from counting the answer, the total
// from the sum. A reported total always wins.
func (e *Engine) reconcileUsage(result llmservice.Result, userPrompt string) models.Usage {
	usage := result.Usage
	if usage.InputTokens == 0 {
		usage.InputTokens = e.counter.CountMessages([]tokens.Message{
			{Role: "system", Content: models.SystemPrompt},
			{Role: "user", Content: userPrompt},
		}, e.model)
	}
	if usage.OutputTokens == 0 {
		usage.OutputTokens = e.counter.Count(result.Text, e.model)
	}
	if usage.TotalTokens == 0 {
		usage.TotalTokens = usage.InputTokens + usage.OutputTokens
	}
	return usage
}

// confidence is the mean of the top-3 hit scores, 0 with no hits.
func confidence(hits []models.RetrievalHit) float64 {
	if len(hits) == 0 {
		return 0
	}
	n := len(hits)
	if n > 3 {
		n = 3
	}
	var sum float64
	for _, h := range hits[:n] {
		sum += h.Score
	}
	return sum / float64(n)
}

// fallbackAnswer synthesizes a degraded answer from the retrieval hits alone,
// with no network call.
func fallbackAnswer(hits []models.RetrievalHit) string {
	if len(hits) == 0 {
		return "I couldn't find any relevant information about your question in the knowledge base."
	}

	var b strings.Builder
	b.WriteString("The assistant is temporarily unavailable, so here is the most relevant information from the documents:\n\n")

	top := hits[0]
	b.WriteString("**" + top.Chunk.Title + "**\n\n")
	b.WriteString(sentenceTrim(top.Chunk.Text, 400))
	b.WriteString("\n")

	if len(hits) > 1 {
		b.WriteString("\n**Related information:**\n")
		related := hits[1:]
		if len(related) > 2 {
			related = related[:2]
		}
		for _, h := range related {
			excerpt := h.Chunk.Text
			if len(excerpt) > 100 {
				excerpt = excerpt[:100] + "..."
			}
			b.WriteString("• " + h.Chunk.Title + ": " + excerpt + "\n")
		}
	}
	return b.String()
}

func sentenceTrim(text string, limit int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if period := strings.LastIndex(cut, "."); period > limit/2 {
		cut = cut[:period+1]
	}
	return strings.TrimSpace(cut)
}

// truncateQuery caps the stored query at limit bytes without splitting a
// multi-byte rune, which would make the record invalid UTF-8.
func truncateQuery(query string, limit int) string {
	if len(query) <= limit {
		return query
	}
	cut := limit
	for cut > 0 && !utf8.RuneStart(query[cut]) {
		cut--
	}
	return query[:cut]
}

func (e *Engine) trackCost(ctx context.Context, requestID, query string, answer *models.Answer, usage models.Usage, breakdown costs.Breakdown, start time.Time) {
	if e.sink == nil {
		return
	}

	userQuery := truncateQuery(query, 500)

	rec := &costs.Record{
		RequestID:      requestID,
		Timestamp:      time.Now(),
		Model:          e.model,
		Provider:       e.provider,
		InputTokens:    usage.InputTokens,
		OutputTokens:   usage.OutputTokens,
		TotalTokens:    usage.TotalTokens,
		InputCost:      breakdown.InputCost,
		OutputCost:     breakdown.OutputCost,
		TotalCost:      breakdown.TotalCost,
		UserQuery:      userQuery,
		ResponseLength: len(answer.Text),
		ProcessingTime: time.Since(start).Seconds(),
		Tags:           []string{"rag", "chat"},
	}

	// A broken accounting path must never block answer delivery.
	if err := e.sink.Track(ctx, rec); err != nil {
		log.Error().Err(err).Str("request_id", requestID).Msg("failed to track request cost")
	}
}
