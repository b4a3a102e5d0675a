package models

import "time"

// Chunk is a bounded text span derived from a source document. It is the unit
// stored in the vector database and returned by retrieval.
type Chunk struct {
	ID          string
	Text        string
	Index       int
	TotalChunks int
	Title       string
	Category    string
	File        string
	Quality     string
}

// RetrievalHit is one chunk returned by a similarity query, with its score in
// [0,1] and its rank in the result set. Never persisted.
type RetrievalHit struct {
	Chunk   Chunk
	Score   float64
	Rank    int
	Snippet string
}

// Usage holds the token counts reported (or estimated) for one generation.
type Usage struct {
	InputTokens  int
	OutputTokens int
	TotalTokens  int
}

// CostInfo is the per-request accounting summary returned to the caller.
type CostInfo struct {
	RequestID     string  `json:"request_id"`
	InputTokens   int     `json:"input_tokens"`
	OutputTokens  int     `json:"output_tokens"`
	TotalTokens   int     `json:"total_tokens"`
	EstimatedCost float64 `json:"estimated_cost"`
}

// Answer is the result of one question against the corpus.
type Answer struct {
	Text       string
	Sources    []RetrievalHit
	Confidence float64
	Degraded   bool
	Cost       CostInfo
}

// StreamEvent is one increment of a streamed answer. The Token events carry
// the answer text piecewise; Sources arrives after the last token; Done marks
// end of stream.
type StreamEvent struct {
	Type       string // "token", "sources", "done", "error"
	Content    string
	Sources    []RetrievalHit
	Confidence float64
	Cost       CostInfo
	Err        error
}

// Stats describes the state of the indexed corpus.
type Stats struct {
	ChunkCount    int       `json:"chunk_count"`
	DocumentCount int       `json:"document_count"`
	LastUpdated   time.Time `json:"last_updated"`
}

// IngestSummary reports one ingestion run.
type IngestSummary struct {
	Documents    int            `json:"documents"`
	Chunks       int            `json:"chunks"`
	QualityStats map[string]int `json:"quality_stats"`
}
