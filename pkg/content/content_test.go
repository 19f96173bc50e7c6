package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtractTitleFromFirstH1(t *testing.T) {
	nc, chunks := Extract([]byte("# Hello\n\nworld"))
	assert.Equal(t, "Hello", nc.Title)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Hello"}, chunks[0].Breadcrumb)
	assert.Equal(t, "\n\nworld", chunks[0].Text)
}

func TestExtractTitleFallsBackToFirstLine(t *testing.T) {
	nc, _ := Extract([]byte("no heading here\nmore text"))
	assert.Equal(t, "no heading here", nc.Title)
}

func TestExtractTitleFallbackTruncatesTo120Runes(t *testing.T) {
	long := ""
	for i := 0; i < 200; i++ {
		long += "x"
	}
	nc, _ := Extract([]byte(long))
	assert.Len(t, []rune(nc.Title), maxFallbackTitleRunes)
}

func TestExtractEmptyFileHasEmptyTitle(t *testing.T) {
	nc, chunks := Extract([]byte(""))
	assert.Equal(t, "", nc.Title)
	assert.Empty(t, chunks)
}

func TestExtractChunkingWithBreadcrumbStack(t *testing.T) {
	_, chunks := Extract([]byte("# A\nx\n## B\ny\n# C\nz"))
	require.Len(t, chunks, 3)
	assert.Equal(t, []string{"A"}, chunks[0].Breadcrumb)
	assert.Equal(t, "x\n", chunks[0].Text)
	assert.Equal(t, []string{"A", "B"}, chunks[1].Breadcrumb)
	assert.Equal(t, "y\n", chunks[1].Text)
	assert.Equal(t, []string{"C"}, chunks[2].Breadcrumb)
	assert.Equal(t, "z", chunks[2].Text)
}

func TestExtractPreambleChunkOnlyWhenNonWhitespace(t *testing.T) {
	_, chunks := Extract([]byte("intro text\n# A\nbody"))
	require.Len(t, chunks, 2)
	assert.Empty(t, chunks[0].Breadcrumb)
	assert.Equal(t, "intro text\n", chunks[0].Text)

	_, chunks = Extract([]byte("\n   \n# A\nbody"))
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"A"}, chunks[0].Breadcrumb)
}

func TestExtractFencedCodeSuspendsHeadingRecognition(t *testing.T) {
	body := "# A\n```\n# not a heading\n```\nreal text"
	_, chunks := Extract([]byte(body))
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"A"}, chunks[0].Breadcrumb)
	assert.Contains(t, chunks[0].Text, "# not a heading")
}

func TestExtractStripsFrontmatterBeforeScanning(t *testing.T) {
	body := "---\ntitle: ignored\ntags: [a, b]\n---\n# Real Title\nbody text"
	nc, chunks := Extract([]byte(body))
	assert.Equal(t, "Real Title", nc.Title)
	require.Len(t, chunks, 1)
	assert.Equal(t, []string{"Real Title"}, chunks[0].Breadcrumb)
}

func TestHashIsDeterministic(t *testing.T) {
	a := Hash([]byte("same content"))
	b := Hash([]byte("same content"))
	c := Hash([]byte("different content"))
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
}
