package vaultpath

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromStringBasics(t *testing.T) {
	p, err := FromString("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, []string{"notes", "a.md"}, p.Segments())
	assert.Equal(t, "notes/a.md", p.Display())

	root, err := FromString("")
	require.NoError(t, err)
	assert.True(t, root.IsRoot())
	assert.Equal(t, "/", root.Display())
}

func TestFromStringRejectsEscapes(t *testing.T) {
	for _, s := range []string{"a//b", "../a", "./a", "a/./b", "a\x00b"} {
		_, err := FromString(s)
		assert.ErrorIs(t, err, ErrInvalidPath, "input %q", s)
	}
}

func TestFromOSPathRoundTrip(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))
	osPath := filepath.Join(root, "sub", "note.md")

	p, err := FromOSPath(root, osPath)
	require.NoError(t, err)
	assert.Equal(t, "sub/note.md", p.Display())
	assert.Equal(t, osPath, p.ToOSPath(root))
}

func TestFromOSPathOutsideRoot(t *testing.T) {
	root := t.TempDir()
	other := t.TempDir()
	_, err := FromOSPath(root, filepath.Join(other, "note.md"))
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestIsNoteIsDirectory(t *testing.T) {
	note, err := FromString("a/b.md")
	require.NoError(t, err)
	assert.True(t, note.IsNote(".md"))
	assert.False(t, note.IsDirectory(".md"))

	dir, err := FromString("a/b")
	require.NoError(t, err)
	assert.False(t, dir.IsNote(".md"))
	assert.True(t, dir.IsDirectory(".md"))

	assert.True(t, Root().IsDirectory(".md"))
}

func TestParent(t *testing.T) {
	p, err := FromString("a/b/c.md")
	require.NoError(t, err)
	parent, last := p.Parent()
	assert.Equal(t, "a/b", parent.Display())
	assert.Equal(t, "c.md", last)

	top, err := FromString("c.md")
	require.NoError(t, err)
	parent, last = top.Parent()
	assert.True(t, parent.IsRoot())
	assert.Equal(t, "c.md", last)

	parent, last = Root().Parent()
	assert.True(t, parent.IsRoot())
	assert.Equal(t, "", last)
}

func TestWithExtensionIfMissing(t *testing.T) {
	p, err := FromString("a/b")
	require.NoError(t, err)
	assert.Equal(t, "a/b.md", p.WithExtensionIfMissing(".md").Display())

	already, err := FromString("a/b.md")
	require.NoError(t, err)
	assert.Equal(t, "a/b.md", already.WithExtensionIfMissing(".md").Display())
}

func TestJoin(t *testing.T) {
	p, err := FromString("a")
	require.NoError(t, err)
	joined, err := p.Join("b.md")
	require.NoError(t, err)
	assert.Equal(t, "a/b.md", joined.Display())

	_, err = p.Join("b/c")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = p.Join(".")
	assert.ErrorIs(t, err, ErrInvalidPath)

	_, err = p.Join("..")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestOrderingIsLexicographicBySegment(t *testing.T) {
	a, _ := FromString("a/z.md")
	b, _ := FromString("a/y.md")
	c, _ := FromString("a")
	assert.True(t, b.Compare(a) < 0)
	assert.True(t, a.Compare(b) > 0)
	assert.True(t, c.Compare(a) < 0)
	assert.True(t, a.Equal(a))
}
