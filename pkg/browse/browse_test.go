package browse

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimun-go/vaultcore/pkg/reconcile"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
	"github.com/kimun-go/vaultcore/pkg/walk"
)

func writeFile(t *testing.T, root, rel, body string) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
}

func TestDirStreamsNoteAndDirectoryResults(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# Title\n\nbody")
	require.NoError(t, os.MkdirAll(filepath.Join(root, "sub"), 0o755))

	out := make(chan SearchResult, 8)
	diff, err := Dir(context.Background(), root, vaultpath.Root(), walk.Options{NoteExtension: ".md"}, reconcile.ModeNone, nil, nil, out)
	close(out)
	require.NoError(t, err)
	require.Len(t, diff.InsertNotes, 1)

	var results []SearchResult
	for r := range out {
		results = append(results, r)
	}
	require.Len(t, results, 2)

	var sawNote, sawDir bool
	for _, r := range results {
		switch r.Kind {
		case ResultNote:
			sawNote = true
			assert.Equal(t, "a.md", r.Path.Display())
			assert.Equal(t, "Title", r.Note.Title)
		case ResultDirectory:
			sawDir = true
			assert.Equal(t, "sub", r.Path.Display())
		}
	}
	assert.True(t, sawNote)
	assert.True(t, sawDir)
}

func TestDirStopsSendingWhenContextCancelled(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "a.md", "# Title\n\nbody")
	writeFile(t, root, "b.md", "# Other\n\nbody")

	ctx, cancel := context.WithCancel(context.Background())
	out := make(chan SearchResult) // unbuffered: first send blocks until cancel fires
	cancel()

	_, err := Dir(ctx, root, vaultpath.Root(), walk.Options{NoteExtension: ".md"}, reconcile.ModeNone, nil, nil, out)
	assert.ErrorIs(t, err, reconcile.ErrAborted)
}
