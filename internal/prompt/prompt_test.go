package prompt

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"knowledge-rag/internal/models"
)

func makeHit(title, category, text string, score float64) models.RetrievalHit {
	return models.RetrievalHit{
		Chunk: models.Chunk{
			Title:    title,
			Category: category,
			File:     strings.ToLower(strings.ReplaceAll(title, " ", "-")) + ".md",
			Text:     text,
		},
		Score: score,
	}
}

func TestContext_Empty(t *testing.T) {
	assert.Equal(t, "No relevant documents found.", Context(nil))
}

func TestContext_EnumeratesHits(t *testing.T) {
	hits := []models.RetrievalHit{
		makeHit("Pet Policy", "handbooks", "Pets are welcome on Fridays.", 0.92),
		makeHit("Remote Work", "handbooks", "Up to three days remote per week.", 0.78),
	}

	ctx := Context(hits)
	assert.Contains(t, ctx, "[Document 1] Pet Policy")
	assert.Contains(t, ctx, "[Document 2] Remote Work")
	assert.Contains(t, ctx, "Category: handbooks")
	assert.Contains(t, ctx, "Source file: pet-policy.md")
	assert.Contains(t, ctx, "Relevance: 92%")
	assert.Contains(t, ctx, "Pets are welcome on Fridays.")
}

func TestContext_BodyTruncation(t *testing.T) {
	sentence := "This sentence pads the chunk body out considerably. "

	t.Run("default category cut at 400", func(t *testing.T) {
		hits := []models.RetrievalHit{makeHit("Doc", "handbooks", strings.Repeat(sentence, 20), 0.5)}
		ctx := Context(hits)
		bodyLine := lineWithPrefix(t, ctx, "Content: ")
		assert.LessOrEqual(t, len(bodyLine), len("Content: ")+400)
		assert.True(t, strings.HasSuffix(bodyLine, "."))
	})

	t.Run("research keeps more", func(t *testing.T) {
		hits := []models.RetrievalHit{makeHit("Paper", "research", strings.Repeat(sentence, 20), 0.5)}
		ctx := Context(hits)
		bodyLine := lineWithPrefix(t, ctx, "Content: ")
		assert.Greater(t, len(bodyLine), len("Content: ")+400)
		assert.LessOrEqual(t, len(bodyLine), len("Content: ")+800)
	})
}

func lineWithPrefix(t *testing.T, text, prefix string) string {
	t.Helper()
	for _, line := range strings.Split(text, "\n") {
		if strings.HasPrefix(line, prefix) {
			return line
		}
	}
	t.Fatalf("no line with prefix %q", prefix)
	return ""
}

func TestAssemble(t *testing.T) {
	hits := []models.RetrievalHit{makeHit("Pet Policy", "handbooks", "Pets on Fridays.", 0.9)}
	out := Assemble("Can I bring my dog?", hits)

	assert.Contains(t, out, "CONTEXT:")
	assert.Contains(t, out, "USER QUESTION:")
	assert.Contains(t, out, "Can I bring my dog?")
	assert.Contains(t, out, "[Document 1] Pet Policy")
}

func TestAssemble_NoHitsStillForwardsQuery(t *testing.T) {
	out := Assemble("What is the parking policy?", nil)
	assert.Contains(t, out, "No relevant documents found.")
	assert.Contains(t, out, "What is the parking policy?")
}
