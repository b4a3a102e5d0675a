package chunker

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
	"unicode"

	"github.com/rs/zerolog/log"
)

// ErrConfig reports invalid chunking parameters. Ingestion must not proceed
// until the configuration is fixed.
var ErrConfig = errors.New("invalid chunking config")

type Config struct {
	ChunkSize    int
	Overlap      int
	MinChunkSize int
	MaxChunkSize int
}

func (c Config) Validate() error {
	if c.ChunkSize < 100 {
		return fmt.Errorf("%w: chunk_size %d is below the minimum of 100", ErrConfig, c.ChunkSize)
	}
	if c.Overlap >= c.ChunkSize {
		return fmt.Errorf("%w: overlap %d must be smaller than chunk_size %d", ErrConfig, c.Overlap, c.ChunkSize)
	}
	if c.MinChunkSize > c.ChunkSize {
		return fmt.Errorf("%w: min_chunk_size %d exceeds chunk_size %d", ErrConfig, c.MinChunkSize, c.ChunkSize)
	}
	return nil
}

var blankLines = regexp.MustCompile(`\n{3,}`)

// Clean normalizes converted document text before chunking: strips characters
// outside a safe printable set, drops lines that are mostly non-alphabetic
// (table and binary garbage left over from format conversion), and collapses
// runs of blank lines. Pure function, no side effects.
func Clean(text string) string {
	lines := strings.Split(text, "\n")
	kept := make([]string, 0, len(lines))
	for _, line := range lines {
		line = stripUnsafe(line)
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			kept = append(kept, "")
			continue
		}
		if alphaRatio(trimmed) < 0.3 {
			continue
		}
		kept = append(kept, line)
	}
	out := strings.Join(kept, "\n")
	out = blankLines.ReplaceAllString(out, "\n\n")
	return strings.TrimSpace(out)
}

func stripUnsafe(line string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r), unicode.IsSpace(r):
			return r
		case unicode.IsPunct(r), unicode.IsSymbol(r):
			return r
		default:
			return -1
		}
	}, line)
}

// alphaRatio is the share of alphabetic runes among the non-space runes of a
// line. Lines below 0.3 are treated as conversion noise.
func alphaRatio(line string) float64 {
	var letters, total int
	for _, r := range line {
		if unicode.IsSpace(r) {
			continue
		}
		total++
		if unicode.IsLetter(r) {
			letters++
		}
	}
	if total == 0 {
		return 0
	}
	return float64(letters) / float64(total)
}

// Split breaks text into ordered chunk strings. The primary pass packs whole
// sentences up to ChunkSize; if that produces undersized or skewed chunks the
// result is discarded and the character-window fallback runs instead.
func Split(text string, cfg Config) ([]string, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil, nil
	}
	if len(text) < cfg.MinChunkSize {
		return []string{text}, nil
	}

	chunks := bySentence(text, cfg)
	if validChunks(chunks, cfg) {
		return chunks, nil
	}

	log.Debug().Int("chunks", len(chunks)).Msg("sentence chunking below quality gate, using fixed-size fallback")
	return byWindow(text, cfg), nil
}

// splitSentences cuts on terminal punctuation followed by whitespace. Trailing
// text without a terminator becomes the last sentence.
func splitSentences(text string) []string {
	var sentences []string
	start := 0
	for i := 0; i < len(text); i++ {
		c := text[i]
		if (c == '.' || c == '!' || c == '?') && (i+1 == len(text) || isSpaceByte(text[i+1])) {
			if s := strings.TrimSpace(text[start : i+1]); s != "" {
				sentences = append(sentences, s)
			}
			start = i + 1
		}
	}
	if rest := strings.TrimSpace(text[start:]); rest != "" {
		sentences = append(sentences, rest)
	}
	return sentences
}

func bySentence(text string, cfg Config) []string {
	var chunks []string
	var buf strings.Builder
	for _, sentence := range splitSentences(text) {
		if buf.Len() > 0 && buf.Len()+len(sentence)+1 > cfg.ChunkSize {
			if buf.Len() >= cfg.MinChunkSize {
				chunks = append(chunks, buf.String())
			}
			buf.Reset()
		}
		if buf.Len() > 0 {
			buf.WriteByte(' ')
		}
		buf.WriteString(sentence)
	}
	if buf.Len() >= cfg.MinChunkSize {
		chunks = append(chunks, buf.String())
	}
	return chunks
}

// validChunks is the quality gate on the sentence pass: every chunk within
// the configured bounds and a mean length of at least 1.5x the minimum.
func validChunks(chunks []string, cfg Config) bool {
	if len(chunks) == 0 {
		return false
	}
	var total int
	for _, c := range chunks {
		if len(c) < cfg.MinChunkSize || (cfg.MaxChunkSize > 0 && len(c) > cfg.MaxChunkSize) {
			return false
		}
		total += len(c)
	}
	mean := float64(total) / float64(len(chunks))
	return mean >= 1.5*float64(cfg.MinChunkSize)
}

// byWindow advances a ChunkSize window over the text, cutting each chunk back
// to the nearest sentence terminator, else the nearest whitespace. The start
// position advances by at least one byte per iteration regardless of overlap.
func byWindow(text string, cfg Config) []string {
	var chunks []string
	start := 0
	for start < len(text) {
		end := start + cfg.ChunkSize
		if end > len(text) {
			end = len(text)
		} else {
			end = breakPoint(text, start, end)
		}

		if piece := strings.TrimSpace(text[start:end]); len(piece) >= cfg.MinChunkSize {
			chunks = append(chunks, piece)
		}
		if end >= len(text) {
			break
		}

		next := end - cfg.Overlap
		if next <= start {
			next = start + 1
		}
		start = next
	}
	return chunks
}

func breakPoint(text string, start, end int) int {
	for i := end - 1; i > start; i-- {
		if c := text[i]; c == '.' || c == '!' || c == '?' {
			return i + 1
		}
	}
	for i := end - 1; i > start; i-- {
		if isSpaceByte(text[i]) {
			return i
		}
	}
	return end
}

func isSpaceByte(c byte) bool {
	return c == ' ' || c == '\n' || c == '\t' || c == '\r'
}
