package frontmatter

import (
	"errors"
	"strings"

	"github.com/adrg/frontmatter"
)

const (
	Delimiter               = "---"
	InvalidFrontmatterError = "frontmatter contains invalid YAML"
)

// Parse extracts and parses frontmatter from note content.
// Returns the frontmatter as a map, the body content, and any error.
func Parse(content string) (map[string]interface{}, string, error) {
	var fm map[string]interface{}
	rest, err := frontmatter.Parse(strings.NewReader(content), &fm)
	if err != nil {
		return nil, "", errors.New(InvalidFrontmatterError)
	}
	return fm, string(rest), nil
}

// HasFrontmatter checks if content starts with frontmatter delimiters.
func HasFrontmatter(content string) bool {
	lines := strings.Split(content, "\n")
	if len(lines) == 0 {
		return false
	}
	return strings.TrimSpace(lines[0]) == Delimiter
}
