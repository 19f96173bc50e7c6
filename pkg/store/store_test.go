package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kimun-go/vaultcore/pkg/content"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(context.Background(), filepath.Join(t.TempDir(), "index.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestPathKeyRootIsEmptyString(t *testing.T) {
	assert.Equal(t, "", PathKey(vaultpath.Root()))
	p, err := vaultpath.FromString("notes/a.md")
	require.NoError(t, err)
	assert.Equal(t, "notes/a.md", PathKey(p))
}

func TestInitSeedsRootDirectoryAndSchemaVersion(t *testing.T) {
	s := openTestStore(t)
	dirs, err := s.GetDirectories(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, dirs, "only child directories of root are returned, not root itself")

	version, ok, err := s.getMeta(context.Background(), "schema_version")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, CurrentSchemaVersion, version)
}

func TestOpenRejectsMismatchedSchemaVersion(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "index.db")
	s, err := Open(context.Background(), dbPath)
	require.NoError(t, err)
	require.NoError(t, s.setMeta(context.Background(), "schema_version", "999"))
	require.NoError(t, s.Close())

	_, err = Open(context.Background(), dbPath)
	assert.ErrorIs(t, err, ErrSchemaVersionMismatch)
}

func TestApplyMutationInsertUpdateDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	err := s.ApplyMutation(ctx, Mutation{
		InsertDirs: []DirRow{{Path: "notes", Parent: ""}},
		InsertNotes: []NoteRow{
			{Path: "notes/a.md", Parent: "notes", Size: 10, Modified: 1, Title: "A", Hash: 1},
		},
	})
	require.NoError(t, err)

	notes, err := s.GetNotes(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "A", notes[0].Title)

	err = s.ApplyMutation(ctx, Mutation{
		UpdateNotes: []NoteRow{
			{Path: "notes/a.md", Parent: "notes", Size: 20, Modified: 2, Title: "A2", Hash: 2},
		},
	})
	require.NoError(t, err)

	notes, err = s.GetNotes(ctx, "notes")
	require.NoError(t, err)
	require.Len(t, notes, 1)
	assert.Equal(t, "A2", notes[0].Title)
	assert.EqualValues(t, 2, notes[0].Hash)

	err = s.ApplyMutation(ctx, Mutation{DeleteNotePaths: []string{"notes/a.md"}})
	require.NoError(t, err)

	notes, err = s.GetNotes(ctx, "notes")
	require.NoError(t, err)
	assert.Empty(t, notes)
}

func TestApplyMutationRoundTripsChunks(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	chunks := []content.Chunk{{Breadcrumb: []string{"A", "B"}, Text: "body"}}
	require.NoError(t, s.ApplyMutation(ctx, Mutation{
		InsertNotes: []NoteRow{{Path: "a.md", Parent: "", Size: 4, Modified: 1, Title: "A", Hash: 1, Chunks: chunks}},
	}))

	got, err := s.GetChunks(ctx, "a.md")
	require.NoError(t, err)
	assert.Equal(t, chunks, got)
}

func TestResetClearsNotesAndDirsButKeepsRoot(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.ApplyMutation(ctx, Mutation{
		InsertDirs:  []DirRow{{Path: "notes", Parent: ""}},
		InsertNotes: []NoteRow{{Path: "notes/a.md", Parent: "notes", Title: "A"}},
	}))
	require.NoError(t, s.Reset(ctx))

	notes, err := s.GetNotes(ctx, "notes")
	require.NoError(t, err)
	assert.Empty(t, notes)
	dirs, err := s.GetDirectories(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, dirs)
}

func seedSearchNotes(t *testing.T, s *Store) {
	t.Helper()
	require.NoError(t, s.ApplyMutation(context.Background(), Mutation{
		InsertNotes: []NoteRow{
			{Path: "a.md", Title: "Project Plan"},
			{Path: "b.md", Title: "Weekly Plan"},
			{Path: "planning/c.md", Title: "Meeting Notes"},
			{Path: "d.md", Title: "plan"},
		},
	}))
}

func TestSearchNotesEmptyQueryMatchesNothing(t *testing.T) {
	s := openTestStore(t)
	seedSearchNotes(t, s)

	results, err := s.SearchNotes(context.Background(), "")
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchNotesRanksExactTitleFirst(t *testing.T) {
	s := openTestStore(t)
	seedSearchNotes(t, s)

	results, err := s.SearchNotes(context.Background(), "plan")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "d.md", results[0].Note.Path, "exact title match ranks above prefix/substring matches")
}

func TestSearchNotesPrefixBeatsSubstring(t *testing.T) {
	s := openTestStore(t)
	seedSearchNotes(t, s)

	results, err := s.SearchNotes(context.Background(), "project")
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, "a.md", results[0].Note.Path)
}

func TestSearchNotesMatchesPathSubstring(t *testing.T) {
	s := openTestStore(t)
	seedSearchNotes(t, s)

	results, err := s.SearchNotes(context.Background(), "planning")
	require.NoError(t, err)
	var found bool
	for _, r := range results {
		if r.Note.Path == "planning/c.md" {
			found = true
		}
	}
	assert.True(t, found)
}

func TestSearchNotesFuzzySubsequenceMatch(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.ApplyMutation(context.Background(), Mutation{
		InsertNotes: []NoteRow{{Path: "x.md", Title: "Meeting Agenda"}},
	}))

	results, err := s.SearchNotes(context.Background(), "mtgagn")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "x.md", results[0].Note.Path)
}

func TestSearchTierNoMatch(t *testing.T) {
	tier, _ := searchTier("zzz", "a.md", "Project Plan")
	assert.Equal(t, 0, tier)
}
