package chunker

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() Config {
	return Config{ChunkSize: 500, Overlap: 100, MinChunkSize: 100, MaxChunkSize: 500}
}

func TestConfigValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, testConfig().Validate())
	})

	t.Run("chunk size too small", func(t *testing.T) {
		cfg := testConfig()
		cfg.ChunkSize = 99
		assert.ErrorIs(t, cfg.Validate(), ErrConfig)
	})

	t.Run("overlap not below chunk size", func(t *testing.T) {
		cfg := testConfig()
		cfg.Overlap = 500
		assert.ErrorIs(t, cfg.Validate(), ErrConfig)
	})

	t.Run("min above chunk size", func(t *testing.T) {
		cfg := testConfig()
		cfg.MinChunkSize = 501
		assert.ErrorIs(t, cfg.Validate(), ErrConfig)
	})
}

func TestSplit_ShortDocument(t *testing.T) {
	chunks, err := Split("  Just one short note.  ", testConfig())
	require.NoError(t, err)
	require.Len(t, chunks, 1)
	assert.Equal(t, "Just one short note.", chunks[0])
}

func TestSplit_Empty(t *testing.T) {
	chunks, err := Split("   \n\n  ", testConfig())
	require.NoError(t, err)
	assert.Empty(t, chunks)
}

func TestSplit_InvalidConfig(t *testing.T) {
	_, err := Split("some text", Config{ChunkSize: 10})
	assert.ErrorIs(t, err, ErrConfig)
}

func TestSplit_SentencePacking(t *testing.T) {
	// "A. B. C." repeated out to ~1200 characters.
	text := strings.TrimSpace(strings.Repeat("A. B. C. ", 134))
	require.GreaterOrEqual(t, len(text), 1200)

	chunks, err := Split(text, testConfig())
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(chunks), 2)

	for _, c := range chunks {
		assert.GreaterOrEqual(t, len(c), 100)
		assert.LessOrEqual(t, len(c), 500)
	}
}

func TestSplit_FallbackOnOversizedSentence(t *testing.T) {
	// A single 1200-character "sentence" cannot be packed within bounds, so
	// the fixed-size fallback has to take over.
	text := strings.Repeat("word ", 240)
	chunks, err := Split(text, testConfig())
	require.NoError(t, err)
	require.NotEmpty(t, chunks)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, len(c), 100)
		assert.LessOrEqual(t, len(c), 500)
	}
}

func TestByWindow_Progress(t *testing.T) {
	// Overlap of chunkSize-1 must still terminate.
	cfg := Config{ChunkSize: 100, Overlap: 99, MinChunkSize: 10, MaxChunkSize: 100}
	text := strings.Repeat("abcde fghij ", 50)
	chunks := byWindow(text, cfg)
	assert.NotEmpty(t, chunks)
}

func TestByWindow_Overlap(t *testing.T) {
	cfg := testConfig()
	text := strings.TrimSpace(strings.Repeat("alpha beta gamma delta. ", 60))
	chunks := byWindow(text, cfg)
	require.GreaterOrEqual(t, len(chunks), 2)
	for _, c := range chunks {
		assert.GreaterOrEqual(t, len(c), cfg.MinChunkSize)
		assert.LessOrEqual(t, len(c), cfg.ChunkSize)
	}
}

func TestSplitSentences(t *testing.T) {
	sentences := splitSentences("First one. Second! Third? Trailing fragment")
	require.Len(t, sentences, 4)
	assert.Equal(t, "First one.", sentences[0])
	assert.Equal(t, "Second!", sentences[1])
	assert.Equal(t, "Third?", sentences[2])
	assert.Equal(t, "Trailing fragment", sentences[3])
}

func TestSplitSentences_NoAbbrevCutMidWord(t *testing.T) {
	// A period not followed by whitespace does not end a sentence.
	sentences := splitSentences("Version 1.2 shipped. Done.")
	require.Len(t, sentences, 2)
	assert.Equal(t, "Version 1.2 shipped.", sentences[0])
}

func TestClean(t *testing.T) {
	t.Run("collapses blank lines", func(t *testing.T) {
		out := Clean("first paragraph here\n\n\n\n\nsecond paragraph here")
		assert.Equal(t, "first paragraph here\n\nsecond paragraph here", out)
	})

	t.Run("drops low alpha lines", func(t *testing.T) {
		out := Clean("real sentence here\n| 12 | 34 | 56 |\nanother real line")
		assert.NotContains(t, out, "12")
		assert.Contains(t, out, "real sentence here")
		assert.Contains(t, out, "another real line")
	})

	t.Run("strips control characters", func(t *testing.T) {
		out := Clean("hello\x00\x07 world")
		assert.Equal(t, "hello world", out)
	})

	t.Run("pure function", func(t *testing.T) {
		in := "same input text"
		assert.Equal(t, Clean(in), Clean(in))
	})
}
