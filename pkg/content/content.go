// Package content extracts structured data from a note's raw text: a
// title, a change-detection hash, and an ordered list of heading-scoped
// chunks with breadcrumbs.
package content

import (
	"hash/fnv"
	"regexp"
	"strings"

	vfrontmatter "github.com/kimun-go/vaultcore/pkg/frontmatter"
)

// maxFallbackTitleRunes bounds the fallback title derived from the first
// non-heading line when no top-level heading is present.
const maxFallbackTitleRunes = 120

var headingRE = regexp.MustCompile(`^(#{1,6})\s+(.*)$`)

// NoteContent is the derived, cacheable summary of a note's body.
type NoteContent struct {
	Title string
	Hash  uint64
}

// Chunk is a heading-scoped fragment of a note's body.
type Chunk struct {
	Breadcrumb []string
	Text       string
}

// Hash returns a deterministic 64-bit non-cryptographic hash of raw, used
// only for change detection. FNV-1a is used because it needs no seeding and
// is stable across platforms and Go versions; the pack carries SHA-256 for
// content-addressing elsewhere, but that is a 256-bit cryptographic hash and
// not a fit for a cheap 64-bit change signal.
func Hash(raw []byte) uint64 {
	h := fnv.New64a()
	h.Write(raw)
	return h.Sum64()
}

// Extract parses raw note text into its NoteContent summary and ordered
// chunk list. raw is expected to be UTF-8; the hash covers the untouched
// byte sequence, while title and chunk detection run against the body with
// any leading YAML frontmatter stripped so frontmatter keys never pollute
// headings.
func Extract(raw []byte) (NoteContent, []Chunk) {
	hash := Hash(raw)
	body := stripFrontmatter(string(raw))

	title, chunks := extractTitleAndChunks(body)
	return NoteContent{Title: title, Hash: hash}, chunks
}

func stripFrontmatter(text string) string {
	if !vfrontmatter.HasFrontmatter(text) {
		return text
	}
	_, body, err := vfrontmatter.Parse(text)
	if err != nil {
		return text
	}
	return body
}

type headingFrame struct {
	level int
	text  string
}

func extractTitleAndChunks(body string) (string, []Chunk) {
	lines := strings.Split(body, "\n")
	total := len(lines)

	var chunks []Chunk
	var stack []headingFrame
	var firstH1 string
	haveH1 := false

	var curBreadcrumb []string // nil until the first heading is opened
	var curLines []string      // raw line content, terminators tracked in curLineHasTerm
	var curLineHasTerm []bool
	firstLineOfScope := false
	inFence := false

	flush := func() {
		var b strings.Builder
		for i, l := range curLines {
			b.WriteString(l)
			if curLineHasTerm[i] {
				b.WriteByte('\n')
			}
		}
		text := b.String()
		if curBreadcrumb == nil && strings.TrimSpace(text) == "" {
			curLines, curLineHasTerm = nil, nil
			return
		}
		chunks = append(chunks, Chunk{Breadcrumb: append([]string(nil), curBreadcrumb...), Text: text})
		curLines, curLineHasTerm = nil, nil
	}

	appendLine := func(line string, hasTerm bool) {
		curLines = append(curLines, line)
		curLineHasTerm = append(curLineHasTerm, hasTerm)
	}

	for i, raw := range lines {
		line := strings.TrimRight(raw, "\r")
		trimmed := strings.TrimSpace(line)
		hasTerm := i < total-1

		if isFenceDelimiter(trimmed) {
			inFence = !inFence
			appendLine(line, hasTerm)
			firstLineOfScope = false
			continue
		}

		if !inFence {
			if m := headingRE.FindStringSubmatch(trimmed); m != nil {
				flush()

				level := len(m[1])
				text := strings.TrimSpace(m[2])

				for len(stack) > 0 && stack[len(stack)-1].level >= level {
					stack = stack[:len(stack)-1]
				}
				stack = append(stack, headingFrame{level: level, text: text})

				if !haveH1 && level == 1 {
					firstH1 = text
					haveH1 = true
				}

				curBreadcrumb = make([]string, len(stack))
				for i, f := range stack {
					curBreadcrumb[i] = f.text
				}
				firstLineOfScope = true
				continue
			}
		}

		if firstLineOfScope && trimmed == "" {
			// The heading line's own terminator was never written to the
			// chunk; a blank separator directly beneath a heading carries
			// that terminator into the chunk along with its own.
			appendLine("", true)
		}
		firstLineOfScope = false

		appendLine(line, hasTerm)
	}
	flush()

	title := firstH1
	if title == "" {
		title = fallbackTitle(lines)
	}
	return title, chunks
}

func fallbackTitle(lines []string) string {
	for _, raw := range lines {
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if headingRE.MatchString(trimmed) {
			continue
		}
		runes := []rune(trimmed)
		if len(runes) > maxFallbackTitleRunes {
			return string(runes[:maxFallbackTitleRunes])
		}
		return trimmed
	}
	return ""
}

func isFenceDelimiter(trimmed string) bool {
	return strings.HasPrefix(trimmed, "```") || strings.HasPrefix(trimmed, "~~~")
}
