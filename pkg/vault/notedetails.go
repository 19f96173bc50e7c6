package vault

import (
	"github.com/kimun-go/vaultcore/pkg/content"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

// NoteDetails mirrors the embedded NoteDetails interface (§6): pure
// inspection of a note's text that needs no open vault, for collaborators
// that already have the bytes (e.g. an editor buffer) and want title or
// link extraction without a round-trip through the façade.
type NoteDetails struct {
	Path vaultpath.Path
	Text string
}

// NewNoteDetails wraps path and text for inspection.
func NewNoteDetails(path vaultpath.Path, text string) NoteDetails {
	return NoteDetails{Path: path, Text: text}
}

// GetTitleFromText returns the title NoteDetails.Title would derive,
// without constructing a NoteDetails value. Depends only on text (§8,
// Title stability).
func GetTitleFromText(text string) string {
	nc, _ := content.Extract([]byte(text))
	return nc.Title
}

// Title returns the note's derived title.
func (n NoteDetails) Title() string {
	return GetTitleFromText(n.Text)
}

// GetMarkdownAndLinks rewrites wikilinks to Markdown links and returns the
// links found, delegating to the pure content.GetMarkdownAndLinks.
func (n NoteDetails) GetMarkdownAndLinks() (string, []content.Link) {
	return content.GetMarkdownAndLinks(n.Text)
}
