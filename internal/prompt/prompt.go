package prompt

import (
	"fmt"
	"strings"

	"knowledge-rag/internal/models"
)

// body length limits per category; bodies are cut back to the last sentence
// boundary before the limit when one exists.
const (
	researchBodyLimit  = 800
	technicalBodyLimit = 600
	defaultBodyLimit   = 400
)

// Assemble produces the full user prompt: a context block built from the
// hits, wrapped in the fixed instruction template together with the query.
func Assemble(query string, hits []models.RetrievalHit) string {
	return fmt.Sprintf(models.AugmentedPromptTemplate, Context(hits), query)
}

// Context renders the retrieved chunks as a numbered block with title,
// category, source file and relevance, so the model can cite documents
// without leaking file names into the answer.
func Context(hits []models.RetrievalHit) string {
	if len(hits) == 0 {
		return "No relevant documents found."
	}

	var parts []string
	for i, h := range hits {
		parts = append(parts, fmt.Sprintf("[Document %d] %s", i+1, h.Chunk.Title))
		parts = append(parts, fmt.Sprintf("Category: %s", h.Chunk.Category))
		parts = append(parts, fmt.Sprintf("Source file: %s", h.Chunk.File))
		parts = append(parts, fmt.Sprintf("Relevance: %.0f%%", h.Score*100))
		parts = append(parts, fmt.Sprintf("Content: %s", body(h.Chunk)))
		parts = append(parts, "")
	}
	return strings.Join(parts, "\n")
}

func body(chunk models.Chunk) string {
	limit := defaultBodyLimit
	switch strings.ToLower(chunk.Category) {
	case "research":
		limit = researchBodyLimit
	case "technical":
		limit = technicalBodyLimit
	}

	text := strings.TrimSpace(chunk.Text)
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if period := strings.LastIndex(cut, "."); period > limit/2 {
		cut = cut[:period+1]
	}
	return strings.TrimSpace(cut)
}
