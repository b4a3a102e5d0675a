package vectorstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := New("", "test_docs", true)
	require.NoError(t, err)
	return s
}

func seed(t *testing.T, s *Store) {
	t.Helper()
	err := s.Upsert(context.Background(), []Record{
		{ID: "a_0", Text: "pets on fridays", Metadata: map[string]string{"category": "handbooks"}, Embedding: []float32{1, 0, 0}},
		{ID: "b_0", Text: "api rate limits", Metadata: map[string]string{"category": "technical"}, Embedding: []float32{0, 1, 0}},
		{ID: "c_0", Text: "quarterly results", Metadata: map[string]string{"category": "reports"}, Embedding: []float32{0, 0, 1}},
	})
	require.NoError(t, err)
}

func TestQuery_EmptyStore(t *testing.T) {
	s := newTestStore(t)
	hits, err := s.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
}

func TestQuery_ClampsK(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	// Asking for more neighbors than stored documents must not error.
	hits, err := s.Query(context.Background(), []float32{1, 0, 0}, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 3)
}

func TestQuery_NearestFirst(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	hits, err := s.Query(context.Background(), []float32{1, 0, 0}, 2)
	require.NoError(t, err)
	require.Len(t, hits, 2)
	assert.Equal(t, "a_0", hits[0].ID)
	assert.InDelta(t, 0.0, hits[0].Distance, 1e-5)
	assert.Less(t, hits[0].Distance, hits[1].Distance)
}

func TestUpsert_Idempotent(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)
	seed(t, s)
	assert.Equal(t, 3, s.Count())
}

func TestDeleteCategory(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	require.NoError(t, s.DeleteCategory(context.Background(), "handbooks"))
	assert.Equal(t, 2, s.Count())

	hits, err := s.Query(context.Background(), []float32{1, 0, 0}, 5)
	require.NoError(t, err)
	for _, h := range hits {
		assert.NotEqual(t, "a_0", h.ID)
	}
}

func TestReset(t *testing.T) {
	s := newTestStore(t)
	seed(t, s)

	require.NoError(t, s.Reset())
	assert.Equal(t, 0, s.Count())

	// Store remains usable after the reset.
	seed(t, s)
	assert.Equal(t, 3, s.Count())
}
