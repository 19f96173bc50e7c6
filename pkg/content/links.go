package content

import (
	"regexp"
	"strings"

	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

// LinkKind distinguishes an internal note reference from an external URL.
type LinkKind int

const (
	LinkNote LinkKind = iota
	LinkURL
)

// Link is a reference extracted from a note's body.
type Link struct {
	Kind  LinkKind
	Note  vaultpath.Path // set when Kind == LinkNote
	URL   string         // set when Kind == LinkURL
	Label string
}

var (
	wikilinkRE  = regexp.MustCompile(`\[\[([^\]|]+)(?:\|([^\]]*))?\]\]`)
	markdownRE  = regexp.MustCompile(`\[([^\]]*)\]\(([^)]+)\)`)
	schemeRE    = regexp.MustCompile(`^[a-zA-Z][a-zA-Z0-9+.-]*://`)
)

// GetMarkdownAndLinks rewrites wikilinks ([[target|label]]) into standard
// Markdown links and returns the rewritten text alongside every link found,
// classified as a vault Note reference or an external Url. Markdown links
// already present in the text are left untouched; those whose target has a
// URL scheme are reported as Url links, the others are not reported.
func GetMarkdownAndLinks(text string) (string, []Link) {
	var links []Link

	rewritten := wikilinkRE.ReplaceAllStringFunc(text, func(match string) string {
		sub := wikilinkRE.FindStringSubmatch(match)
		target := strings.TrimSpace(sub[1])
		label := strings.TrimSpace(sub[2])
		if label == "" {
			label = baseLabel(target)
		}

		notePath := notePathForTarget(target)
		links = append(links, Link{Kind: LinkNote, Note: notePath, Label: label})

		return "[" + label + "](" + notePath.Display() + ")"
	})

	for _, m := range markdownRE.FindAllStringSubmatch(rewritten, -1) {
		label, target := m[1], m[2]
		if schemeRE.MatchString(target) {
			links = append(links, Link{Kind: LinkURL, URL: target, Label: label})
		}
	}

	return rewritten, links
}

func baseLabel(target string) string {
	if idx := strings.LastIndex(target, "/"); idx >= 0 {
		return target[idx+1:]
	}
	return target
}

func notePathForTarget(target string) vaultpath.Path {
	if idx := strings.Index(target, "#"); idx >= 0 {
		target = target[:idx]
	}
	p, err := vaultpath.FromString(target)
	if err != nil {
		p = vaultpath.Root()
	}
	return p.WithExtensionIfMissing(vaultpath.DefaultNoteExtension)
}
