package retriever

import (
	"context"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/rs/zerolog/log"

	"knowledge-rag/internal/models"
	"knowledge-rag/internal/vectorstore"
)

// Embedder turns query text into a vector. Satisfied by
// *embeddings.EmbedderImpl from langchaingo.
type Embedder interface {
	EmbedQuery(ctx context.Context, text string) ([]float32, error)
}

// Store is the nearest-neighbor side of the vector store.
type Store interface {
	Query(ctx context.Context, embedding []float32, k int) ([]vectorstore.Hit, error)
}

type Retriever struct {
	embedder Embedder
	store    Store
}

func New(embedder Embedder, store Store) *Retriever {
	return &Retriever{embedder: embedder, store: store}
}

// Search embeds the query, over-fetches neighbors, deduplicates them by
// title keeping the best-ranked occurrence, and returns at most limit hits
// sorted by score descending. An empty store yields an empty result.
func (r *Retriever) Search(ctx context.Context, query string, limit int) ([]models.RetrievalHit, error) {
	if limit <= 0 {
		return nil, nil
	}

	embedding, err := r.embedder.EmbedQuery(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to embed query: %w", err)
	}

	// Over-fetch so title deduplication still leaves enough candidates.
	fetch := limit * 2
	if fetch > 20 {
		fetch = 20
	}
	raw, err := r.store.Query(ctx, embedding, fetch)
	if err != nil {
		return nil, fmt.Errorf("vector store query failed: %w", err)
	}

	seen := make(map[string]bool)
	var hits []models.RetrievalHit
	for _, h := range raw {
		chunk := chunkFromHit(h)
		if seen[chunk.Title] {
			continue
		}
		seen[chunk.Title] = true

		score := 1 - h.Distance
		if score < 0 {
			score = 0
		} else if score > 1 {
			score = 1
		}

		hits = append(hits, models.RetrievalHit{
			Chunk:   chunk,
			Score:   score,
			Snippet: Snippet(chunk.Text, chunk.Category),
		})
	}

	sort.SliceStable(hits, func(i, j int) bool { return hits[i].Score > hits[j].Score })
	if len(hits) > limit {
		hits = hits[:limit]
	}
	for i := range hits {
		hits[i].Rank = i + 1
	}

	log.Debug().Str("query", query).Int("hits", len(hits)).Msg("retrieval complete")
	return hits, nil
}

func chunkFromHit(h vectorstore.Hit) models.Chunk {
	meta := h.Metadata
	title := meta["title"]
	if title == "" {
		title = "Untitled Document"
	}
	index, _ := strconv.Atoi(meta["chunk_index"])
	total, _ := strconv.Atoi(meta["total_chunks"])
	return models.Chunk{
		ID:          h.ID,
		Text:        h.Text,
		Index:       index,
		TotalChunks: total,
		Title:       title,
		Category:    meta["category"],
		File:        meta["file"],
		Quality:     meta["conversion_quality"],
	}
}

var abstractMarkers = []string{"abstract", "summary", "overview"}
var introMarkers = []string{"introduction", "background"}

// Snippet extracts a short preview of a chunk. Research material prefers the
// text following an abstract or introduction marker; everything else takes
// the opening sentences.
func Snippet(content, category string) string {
	content = strings.TrimSpace(content)
	if content == "" {
		return ""
	}

	if strings.EqualFold(category, "research") {
		lower := strings.ToLower(content)
		for _, marker := range abstractMarkers {
			if idx := strings.Index(lower, marker); idx >= 0 {
				return sentenceTrim(content[idx+len(marker):], 400, 200)
			}
		}
		for _, marker := range introMarkers {
			if idx := strings.Index(lower, marker); idx >= 0 {
				return sentenceTrim(content[idx+len(marker):], 300, 150)
			}
		}
	}
	return sentenceTrim(content, 200, 100)
}

// sentenceTrim cuts text at limit, pulling the cut back to the last sentence
// boundary when one falls after minCut.
func sentenceTrim(text string, limit, minCut int) string {
	text = strings.TrimSpace(text)
	if len(text) <= limit {
		return text
	}
	cut := text[:limit]
	if period := strings.LastIndex(cut, "."); period > minCut {
		cut = cut[:period+1]
	}
	return strings.TrimSpace(cut)
}
