package vectorstore

import (
	"context"
	"fmt"
	"runtime"

	"github.com/philippgille/chromem-go"
	"github.com/rs/zerolog/log"
)

// Record is one stored chunk: id, text, metadata, embedding.
type Record struct {
	ID        string
	Text      string
	Metadata  map[string]string
	Embedding []float32
}

// Hit is one nearest neighbor. Distance is 1 - cosine similarity, so callers
// can score hits as 1 - distance.
type Hit struct {
	ID       string
	Text     string
	Metadata map[string]string
	Distance float64
}

// Store wraps a chromem-go database and a single collection.
type Store struct {
	db             *chromem.DB
	collection     *chromem.Collection
	collectionName string
}

const compress = false

// New opens (or creates) the vector database. An in-memory store is useful
// for tests; the persistent variant writes under path.
func New(path, collectionName string, inMemory bool) (*Store, error) {
	var db *chromem.DB
	var err error
	if inMemory {
		db = chromem.NewDB()
	} else {
		db, err = chromem.NewPersistentDB(path, compress)
		if err != nil {
			return nil, fmt.Errorf("failed to open vector database: %w", err)
		}
	}

	collection, err := db.GetOrCreateCollection(collectionName, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create/get collection: %w", err)
	}

	return &Store{db: db, collection: collection, collectionName: collectionName}, nil
}

// Upsert writes records into the collection. chromem replaces documents with
// matching ids, so re-ingesting a document is idempotent.
func (s *Store) Upsert(ctx context.Context, records []Record) error {
	if len(records) == 0 {
		return nil
	}
	docs := make([]chromem.Document, len(records))
	for i, r := range records {
		docs[i] = chromem.Document{
			ID:        r.ID,
			Content:   r.Text,
			Metadata:  r.Metadata,
			Embedding: r.Embedding,
		}
	}
	if err := s.collection.AddDocuments(ctx, docs, runtime.NumCPU()); err != nil {
		return fmt.Errorf("failed to add documents: %w", err)
	}
	return nil
}

// Query returns up to k nearest neighbors for the embedding. An empty
// collection yields an empty result, never an error; k is clamped to the
// collection size because chromem rejects oversized result requests.
func (s *Store) Query(ctx context.Context, embedding []float32, k int) ([]Hit, error) {
	count := s.collection.Count()
	if count == 0 || k <= 0 {
		return nil, nil
	}
	if k > count {
		k = count
	}

	results, err := s.collection.QueryEmbedding(ctx, embedding, k, nil, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to query collection: %w", err)
	}

	hits := make([]Hit, len(results))
	for i, r := range results {
		hits[i] = Hit{
			ID:       r.ID,
			Text:     r.Content,
			Metadata: r.Metadata,
			Distance: 1 - float64(r.Similarity),
		}
	}
	return hits, nil
}

// DeleteCategory removes every record whose metadata category matches.
func (s *Store) DeleteCategory(ctx context.Context, category string) error {
	err := s.collection.Delete(ctx, map[string]string{"category": category}, nil)
	if err != nil {
		return fmt.Errorf("failed to delete category %s: %w", category, err)
	}
	log.Debug().Str("category", category).Msg("cleared category from vector store")
	return nil
}

// Reset drops and recreates the backing collection.
func (s *Store) Reset() error {
	if err := s.db.DeleteCollection(s.collectionName); err != nil {
		return fmt.Errorf("failed to drop collection: %w", err)
	}
	collection, err := s.db.GetOrCreateCollection(s.collectionName, nil, nil)
	if err != nil {
		return fmt.Errorf("failed to recreate collection: %w", err)
	}
	s.collection = collection
	return nil
}

// Count reports the number of stored chunks.
func (s *Store) Count() int {
	return s.collection.Count()
}
