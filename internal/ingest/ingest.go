package ingest

import (
	"context"
	"crypto/md5"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"knowledge-rag/internal/chunker"
	"knowledge-rag/internal/config"
	"knowledge-rag/internal/converter"
	"knowledge-rag/internal/models"
	"knowledge-rag/internal/vectorstore"
)

// Embedder embeds document chunks in batch.
type Embedder interface {
	EmbedDocuments(ctx context.Context, texts []string) ([][]float32, error)
}

// Engine walks the document tree, converts and chunks each file, and writes
// the embedded chunks into the vector store. The directory layout maps each
// top-level subdirectory of the docs path to a category.
type Engine struct {
	store    *vectorstore.Store
	embedder Embedder

	docsPath    string
	chunkCfg    chunker.Config
	lastUpdated time.Time
}

func NewEngine(store *vectorstore.Store, embedder Embedder, cfg *config.RAGConfig) *Engine {
	return &Engine{
		store:    store,
		embedder: embedder,
		docsPath: cfg.DocsPath,
		chunkCfg: chunker.Config{
			ChunkSize:    cfg.ChunkSize,
			Overlap:      cfg.ChunkOverlap,
			MinChunkSize: cfg.MinChunkSize,
			MaxChunkSize: cfg.MaxChunkSize,
		},
	}
}

// IngestAll rebuilds the whole index. The store is reset first so documents
// deleted from disk disappear from retrieval.
func (e *Engine) IngestAll(ctx context.Context) (*models.IngestSummary, error) {
	// Bad chunking parameters poison every document, so the run aborts
	// before touching the store.
	if err := e.chunkCfg.Validate(); err != nil {
		return nil, err
	}

	if err := e.store.Reset(); err != nil {
		return nil, fmt.Errorf("failed to reset vector store: %w", err)
	}

	entries, err := os.ReadDir(e.docsPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read docs directory %s: %w", e.docsPath, err)
	}

	summary := newSummary()
	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}
		if err := e.ingestDir(ctx, entry.Name(), summary); err != nil {
			return nil, err
		}
	}

	e.lastUpdated = time.Now()
	log.Info().
		Int("documents", summary.Documents).
		Int("chunks", summary.Chunks).
		Msg("full ingestion complete")
	return summary, nil
}

// IngestCategory re-indexes a single category, clearing its previous chunks
// first so the category reflects the current directory contents.
func (e *Engine) IngestCategory(ctx context.Context, category string) (*models.IngestSummary, error) {
	if err := e.chunkCfg.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Join(e.docsPath, category)
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("category %s not found under %s", category, e.docsPath)
	}

	if err := e.store.DeleteCategory(ctx, category); err != nil {
		return nil, err
	}

	summary := newSummary()
	if err := e.ingestDir(ctx, category, summary); err != nil {
		return nil, err
	}

	e.lastUpdated = time.Now()
	log.Info().
		Str("category", category).
		Int("documents", summary.Documents).
		Int("chunks", summary.Chunks).
		Msg("category ingestion complete")
	return summary, nil
}

// Stats reports the current index state.
func (e *Engine) Stats() models.Stats {
	docs := make(map[string]bool)
	// Document count is derived from the docs tree, not the store, so it
	// reflects what the next ingestion would cover.
	_ = filepath.WalkDir(e.docsPath, func(path string, d os.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return nil
		}
		if converter.CanConvert(path) {
			docs[path] = true
		}
		return nil
	})

	return models.Stats{
		ChunkCount:    e.store.Count(),
		DocumentCount: len(docs),
		LastUpdated:   e.lastUpdated,
	}
}

func newSummary() *models.IngestSummary {
	return &models.IngestSummary{QualityStats: map[string]int{
		models.QualityExcellent: 0,
		models.QualityGood:      0,
		models.QualityFair:      0,
		models.QualityPoor:      0,
		models.QualityError:     0,
	}}
}

func (e *Engine) ingestDir(ctx context.Context, category string, summary *models.IngestSummary) error {
	dir := filepath.Join(e.docsPath, category)
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read category %s: %w", category, err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(dir, entry.Name())
		if !converter.CanConvert(path) {
			log.Debug().Str("file", entry.Name()).Msg("skipping unsupported file")
			continue
		}

		chunks, quality, err := e.ingestFile(ctx, path, category)
		if err != nil {
			// One broken document must not abort the run.
			log.Warn().Err(err).Str("file", entry.Name()).Msg("skipping document")
			summary.QualityStats[models.QualityError]++
			continue
		}

		summary.Documents++
		summary.Chunks += chunks
		summary.QualityStats[quality]++
	}
	return nil
}

func (e *Engine) ingestFile(ctx context.Context, path, category string) (int, string, error) {
	result, err := converter.Convert(path)
	if err != nil {
		return 0, result.Quality, err
	}

	text := chunker.Clean(result.Text)
	pieces, err := chunker.Split(text, e.chunkCfg)
	if err != nil {
		return 0, models.QualityError, err
	}
	if len(pieces) == 0 {
		return 0, result.Quality, fmt.Errorf("no usable text in %s", filepath.Base(path))
	}

	embeddings, err := e.embedder.EmbedDocuments(ctx, pieces)
	if err != nil {
		return 0, models.QualityError, fmt.Errorf("failed to embed %s: %w", filepath.Base(path), err)
	}
	if len(embeddings) != len(pieces) {
		return 0, models.QualityError, fmt.Errorf("embedding count mismatch for %s: %d != %d",
			filepath.Base(path), len(embeddings), len(pieces))
	}

	title := result.Title
	if title == "" {
		title = titleFromFilename(path)
	}

	docID := fmt.Sprintf("%x", md5.Sum([]byte(path)))
	records := make([]vectorstore.Record, len(pieces))
	for i, piece := range pieces {
		records[i] = vectorstore.Record{
			ID:        docID + "_" + strconv.Itoa(i),
			Text:      piece,
			Embedding: embeddings[i],
			Metadata: map[string]string{
				"title":              title,
				"category":           category,
				"file":               filepath.Base(path),
				"chunk_index":        strconv.Itoa(i),
				"total_chunks":       strconv.Itoa(len(pieces)),
				"conversion_quality": result.Quality,
			},
		}
	}

	if err := e.store.Upsert(ctx, records); err != nil {
		return 0, models.QualityError, err
	}

	log.Debug().
		Str("file", filepath.Base(path)).
		Str("category", category).
		Int("chunks", len(pieces)).
		Str("quality", result.Quality).
		Msg("document indexed")
	return len(pieces), result.Quality, nil
}

// titleFromFilename turns "q3_sales_report.pdf" into "Q3 Sales Report".
func titleFromFilename(path string) string {
	base := strings.TrimSuffix(filepath.Base(path), filepath.Ext(path))
	words := strings.FieldsFunc(base, func(r rune) bool {
		return r == '_' || r == '-' || r == ' '
	})
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	if len(words) == 0 {
		return "Untitled Document"
	}
	return strings.Join(words, " ")
}
