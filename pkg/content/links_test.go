package content

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetMarkdownAndLinksRewritesWikilinks(t *testing.T) {
	text := "see [[Other Note]] and [[sub/page|Custom Label]]"
	rewritten, links := GetMarkdownAndLinks(text)

	assert.Equal(t, "see [Other Note](Other Note.md) and [Custom Label](sub/page.md)", rewritten)
	require.Len(t, links, 2)
	assert.Equal(t, LinkNote, links[0].Kind)
	assert.Equal(t, "Other Note.md", links[0].Note.Display())
	assert.Equal(t, "Other Note", links[0].Label)
	assert.Equal(t, "Custom Label", links[1].Label)
	assert.Equal(t, "sub/page.md", links[1].Note.Display())
}

func TestGetMarkdownAndLinksReportsExternalURLs(t *testing.T) {
	text := "read [docs](https://example.com/path) for more"
	rewritten, links := GetMarkdownAndLinks(text)

	assert.Equal(t, text, rewritten)
	require.Len(t, links, 1)
	assert.Equal(t, LinkURL, links[0].Kind)
	assert.Equal(t, "https://example.com/path", links[0].URL)
}

func TestGetMarkdownAndLinksStripsAnchor(t *testing.T) {
	_, links := GetMarkdownAndLinks("[[Page#Heading]]")
	require.Len(t, links, 1)
	assert.Equal(t, "Page.md", links[0].Note.Display())
}
