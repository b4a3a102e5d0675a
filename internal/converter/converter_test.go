package converter

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"knowledge-rag/internal/models"
)

func writeTemp(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestCanConvert(t *testing.T) {
	assert.True(t, CanConvert("doc.pdf"))
	assert.True(t, CanConvert("notes.MD"))
	assert.True(t, CanConvert("sheet.xlsx"))
	assert.False(t, CanConvert("image.png"))
	assert.False(t, CanConvert("archive.tar.gz"))
}

func TestConvert_Unsupported(t *testing.T) {
	res, err := Convert("file.exe")
	assert.ErrorIs(t, err, ErrUnsupported)
	assert.False(t, res.Success)
	assert.Equal(t, models.QualityError, res.Quality)
}

func TestConvert_Markdown(t *testing.T) {
	path := writeTemp(t, "pet-policy.md", "# Pet Policy\n\nEmployees may bring pets to the office on Fridays. Dogs must be well-behaved and vaccinated.\n")

	res, err := Convert(path)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "Pet Policy", res.Title)
	assert.Equal(t, models.QualityExcellent, res.Quality)
	assert.Contains(t, res.Text, "pets to the office")
}

func TestConvert_PlainText(t *testing.T) {
	path := writeTemp(t, "note.txt", "A short note without a heading but with enough words to pass the length check for text files.")

	res, err := Convert(path)
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Empty(t, res.Title)
	assert.Equal(t, models.QualityGood, res.Quality)
}

func TestConvert_CorruptFile(t *testing.T) {
	path := writeTemp(t, "broken.docx", "this is not a zip archive")

	res, err := Convert(path)
	require.Error(t, err)
	assert.False(t, res.Success)
	assert.Equal(t, models.QualityError, res.Quality)
}

func TestExtractTitle(t *testing.T) {
	t.Run("first heading wins", func(t *testing.T) {
		title := extractTitle("# Remote Work Policy\n\n## Core Hours\n\ntext")
		assert.Equal(t, "Remote Work Policy", title)
	})

	t.Run("no heading", func(t *testing.T) {
		assert.Empty(t, extractTitle("plain paragraph with no heading"))
	})
}

func TestAssessQuality(t *testing.T) {
	tests := []struct {
		name    string
		content string
		ext     string
		want    string
	}{
		{"structured document", "# Title\n\n## Section\n\nbody", ".pdf", models.QualityExcellent},
		{"flat document", "# Title\nbody", ".docx", models.QualityGood},
		{"long unstructured document", strings.Repeat("text ", 50), ".pdf", models.QualityFair},
		{"tiny content", "x", ".pdf", models.QualityPoor},
		{"spreadsheet with sheets", "## Sheet: Q1\n| a | b |\n", ".xlsx", models.QualityExcellent},
		{"long text file", strings.Repeat("word ", 30), ".txt", models.QualityExcellent},
		{"short text file", "just over fifty characters of content right here ok", ".txt", models.QualityGood},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, assessQuality(tt.content, tt.ext))
		})
	}
}
