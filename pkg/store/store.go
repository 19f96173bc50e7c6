// Package store is the embedded relational cache that mirrors a vault's
// notes and directories. It is backed by modernc.org/sqlite and is only
// ever touched through a pool worker's dedicated connection.
package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	_ "modernc.org/sqlite"

	"github.com/kimun-go/vaultcore/pkg/content"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

// PathKey maps a vault path to the string used for the "path"/"parent"
// columns: the root is stored as the empty string (matching the seeded root
// directory row from Init), every other path as its slash Display form.
func PathKey(p vaultpath.Path) string {
	if p.IsRoot() {
		return ""
	}
	return p.Display()
}

// DatabaseFileName is the reserved filename the index database occupies
// inside the vault root. The walker excludes it from enumeration.
const DatabaseFileName = ".vaultcore-index.db"

// CurrentSchemaVersion is bumped whenever the table layout changes
// incompatibly; any other stored version, older or newer, makes Init fail
// with ErrSchemaVersionMismatch.
const CurrentSchemaVersion = "1"

// ErrSchemaVersionMismatch signals the caller should recreate the index.
var ErrSchemaVersionMismatch = errors.New("store: schema version mismatch, recreate the index")

// Store wraps a single *sql.DB. It is safe to share across goroutines at
// the database/sql level, but the pool (package pool) is the only
// component that is expected to hold a reference to it.
type Store struct {
	db *sql.DB
}

// NoteRow is the persisted representation of a cached note.
type NoteRow struct {
	Path     string
	Parent   string
	Size     int64
	Modified int64
	Title    string
	Hash     uint64
	Chunks   []content.Chunk
}

// DirRow is the persisted representation of a cached directory.
type DirRow struct {
	Path   string
	Parent string
}

// SearchResult is one ranked hit from SearchNotes.
type SearchResult struct {
	Note    NoteRow
	Content content.NoteContent
}

// Open opens (creating if absent) the sqlite database at path and ensures
// its schema and pragmas, mirroring how the teacher's embeddings store
// opens and self-initializes in one step.
func Open(ctx context.Context, path string) (*Store, error) {
	if path == "" {
		return nil, errors.New("store: path is required")
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("store: create directory: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	s := &Store{db: db}
	if err := s.Init(ctx); err != nil {
		_ = db.Close()
		return nil, err
	}
	return s, nil
}

// Close releases the underlying connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Init idempotently creates the schema, enables write-ahead journaling, and
// inserts the root directory row if absent. It also validates the stored
// schema version, returning ErrSchemaVersionMismatch when it disagrees with
// CurrentSchemaVersion so the façade can decide to recreate the index.
func (s *Store) Init(ctx context.Context) error {
	stmts := []string{
		`PRAGMA journal_mode = WAL;`,
		`PRAGMA foreign_keys = ON;`,
		`CREATE TABLE IF NOT EXISTS meta (key TEXT PRIMARY KEY, value TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS directories (path TEXT PRIMARY KEY, parent TEXT NOT NULL);`,
		`CREATE TABLE IF NOT EXISTS notes (
			path     TEXT PRIMARY KEY,
			parent   TEXT NOT NULL,
			size     INTEGER NOT NULL,
			modified INTEGER NOT NULL,
			title    TEXT NOT NULL,
			hash     INTEGER NOT NULL,
			chunks   BLOB
		);`,
		`CREATE INDEX IF NOT EXISTS idx_notes_parent ON notes(parent);`,
		`CREATE INDEX IF NOT EXISTS idx_directories_parent ON directories(parent);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("store: init schema: %w", err)
		}
	}

	version, ok, err := s.getMeta(ctx, "schema_version")
	if err != nil {
		return err
	}
	if !ok {
		if err := s.setMeta(ctx, "schema_version", CurrentSchemaVersion); err != nil {
			return err
		}
	} else if version != CurrentSchemaVersion {
		return ErrSchemaVersionMismatch
	}

	var rootExists bool
	if err := s.db.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM directories WHERE path = '')`).Scan(&rootExists); err != nil {
		return fmt.Errorf("store: check root directory: %w", err)
	}
	if !rootExists {
		if _, err := s.db.ExecContext(ctx, `INSERT INTO directories (path, parent) VALUES ('', '')`); err != nil {
			return fmt.Errorf("store: insert root directory: %w", err)
		}
	}
	return nil
}

func (s *Store) getMeta(ctx context.Context, key string) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM meta WHERE key = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return value, true, nil
}

func (s *Store) setMeta(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO meta (key, value) VALUES (?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, key, value)
	return err
}

// Reset drops all note rows and every directory row except the root (used
// by recreate_index), keeping the schema and meta table intact.
func (s *Store) Reset(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM notes`); err != nil {
		return err
	}
	if _, err := s.db.ExecContext(ctx, `DELETE FROM directories WHERE path != ''`); err != nil {
		return err
	}
	return nil
}

// GetNotes returns the cached snapshot of direct note children of parent.
func (s *Store) GetNotes(ctx context.Context, parent string) ([]NoteRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, parent, size, modified, title, hash, chunks FROM notes WHERE parent = ?`, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []NoteRow
	for rows.Next() {
		var r NoteRow
		var hashSigned int64
		var chunksBlob []byte
		if err := rows.Scan(&r.Path, &r.Parent, &r.Size, &r.Modified, &r.Title, &hashSigned, &chunksBlob); err != nil {
			return nil, err
		}
		r.Hash = uint64(hashSigned)
		if len(chunksBlob) > 0 {
			if err := json.Unmarshal(chunksBlob, &r.Chunks); err != nil {
				return nil, fmt.Errorf("store: decode chunks for %s: %w", r.Path, err)
			}
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// GetDirectories returns the cached snapshot of direct directory children of parent.
func (s *Store) GetDirectories(ctx context.Context, parent string) ([]DirRow, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, parent FROM directories WHERE parent = ? AND path != ''`, parent)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []DirRow
	for rows.Next() {
		var d DirRow
		if err := rows.Scan(&d.Path, &d.Parent); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// AllDirectoryPaths returns every cached directory path, including the root
// (stored as ""), used by the façade to register a filesystem watch across
// the whole tree.
func (s *Store) AllDirectoryPaths(ctx context.Context) ([]string, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path FROM directories`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []string
	for rows.Next() {
		var p string
		if err := rows.Scan(&p); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// searchTier ranks a (path, title) row against query into the four bands
// from §4.4: exact title match, title-prefix, substring, then fuzzy
// subsequence. A tier of 0 means no match at all. No library in the pack
// implements this exact ranked-tier query (see DESIGN.md), so it is plain
// stdlib string/rune scanning.
func searchTier(query, path, title string) (tier int, score int) {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return 0, 0
	}
	lowerTitle := strings.ToLower(title)
	lowerPath := strings.ToLower(path)

	switch {
	case lowerTitle == q:
		return 4, 0
	case strings.HasPrefix(lowerTitle, q):
		return 3, 0
	case strings.Contains(lowerTitle, q) || strings.Contains(lowerPath, q):
		return 2, 0
	}
	if ok, score := fuzzySubsequence(q, lowerTitle); ok {
		return 1, score
	}
	return 0, 0
}

// fuzzySubsequence reports whether every rune of q appears in order
// (not necessarily contiguously) within s, and a score that rewards tighter
// matches (smaller span, earlier start) for tie-breaking within the tier.
func fuzzySubsequence(q, s string) (bool, int) {
	if q == "" {
		return false, 0
	}
	qr := []rune(q)
	sr := []rune(s)
	qi := 0
	start, last := -1, -1
	for si, r := range sr {
		if qi < len(qr) && r == qr[qi] {
			if start == -1 {
				start = si
			}
			last = si
			qi++
		}
	}
	if qi < len(qr) {
		return false, 0
	}
	return true, (last - start) + start
}

// SearchNotes returns notes ranked against query: exact title match first,
// then title-prefix, then substring (title or path), then fuzzy subsequence
// match on the title; ties are broken by path. An empty query matches
// nothing.
func (s *Store) SearchNotes(ctx context.Context, query string) ([]SearchResult, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT path, parent, size, modified, title, hash, chunks FROM notes`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	type scored struct {
		row   NoteRow
		tier  int
		score int
	}
	var candidates []scored
	for rows.Next() {
		var r NoteRow
		var hashSigned int64
		var chunksBlob []byte
		if err := rows.Scan(&r.Path, &r.Parent, &r.Size, &r.Modified, &r.Title, &hashSigned, &chunksBlob); err != nil {
			return nil, err
		}
		r.Hash = uint64(hashSigned)
		if len(chunksBlob) > 0 {
			if err := json.Unmarshal(chunksBlob, &r.Chunks); err != nil {
				return nil, fmt.Errorf("store: decode chunks for %s: %w", r.Path, err)
			}
		}
		tier, score := searchTier(query, r.Path, r.Title)
		if tier == 0 {
			continue
		}
		candidates = append(candidates, scored{row: r, tier: tier, score: score})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if a.tier != b.tier {
			return a.tier > b.tier
		}
		if a.score != b.score {
			return a.score < b.score
		}
		return a.row.Path < b.row.Path
	})

	out := make([]SearchResult, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, SearchResult{
			Note:    c.row,
			Content: content.NoteContent{Title: c.row.Title, Hash: c.row.Hash},
		})
	}
	return out, nil
}

// GetChunks returns the chunk list cached for path.
func (s *Store) GetChunks(ctx context.Context, path string) ([]content.Chunk, error) {
	var chunksBlob []byte
	err := s.db.QueryRowContext(ctx, `SELECT chunks FROM notes WHERE path = ?`, path).Scan(&chunksBlob)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	if len(chunksBlob) == 0 {
		return nil, nil
	}
	var chunks []content.Chunk
	if err := json.Unmarshal(chunksBlob, &chunks); err != nil {
		return nil, err
	}
	return chunks, nil
}

// Mutation is a bundle of changes applied atomically by ApplyMutation. Any
// of the five sets may be empty.
type Mutation struct {
	InsertNotes     []NoteRow
	UpdateNotes     []NoteRow
	DeleteNotePaths []string
	InsertDirs      []DirRow
	DeleteDirPaths  []string
}

// ApplyMutation runs every change in m inside a single transaction. A
// partial failure rolls back the whole batch; the store is never left with
// a half-applied diff for a directory.
func (s *Store) ApplyMutation(ctx context.Context, m Mutation) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = tx.Rollback()
		}
	}()

	upsert := `
		INSERT INTO notes (path, parent, size, modified, title, hash, chunks)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(path) DO UPDATE SET
			parent = excluded.parent,
			size = excluded.size,
			modified = excluded.modified,
			title = excluded.title,
			hash = excluded.hash,
			chunks = excluded.chunks
	`
	for _, set := range [][]NoteRow{m.InsertNotes, m.UpdateNotes} {
		for _, r := range set {
			blob, err := json.Marshal(r.Chunks)
			if err != nil {
				return fmt.Errorf("store: encode chunks for %s: %w", r.Path, err)
			}
			if _, err := tx.ExecContext(ctx, upsert, r.Path, r.Parent, r.Size, r.Modified, r.Title, int64(r.Hash), blob); err != nil {
				return fmt.Errorf("store: upsert note %s: %w", r.Path, err)
			}
		}
	}

	if len(m.DeleteNotePaths) > 0 {
		if err := execDeleteIn(ctx, tx, "notes", "path", m.DeleteNotePaths); err != nil {
			return err
		}
	}

	for _, d := range m.InsertDirs {
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO directories (path, parent) VALUES (?, ?)
			ON CONFLICT(path) DO UPDATE SET parent = excluded.parent
		`, d.Path, d.Parent); err != nil {
			return fmt.Errorf("store: insert directory %s: %w", d.Path, err)
		}
	}

	if len(m.DeleteDirPaths) > 0 {
		if err := execDeleteIn(ctx, tx, "directories", "path", m.DeleteDirPaths); err != nil {
			return err
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("store: commit: %w", err)
	}
	committed = true
	return nil
}

func execDeleteIn(ctx context.Context, tx *sql.Tx, table, column string, values []string) error {
	holders := make([]string, len(values))
	args := make([]any, len(values))
	for i, v := range values {
		holders[i] = "?"
		args[i] = v
	}
	query := fmt.Sprintf(`DELETE FROM %s WHERE %s IN (%s)`, table, column, strings.Join(holders, ","))
	_, err := tx.ExecContext(ctx, query, args...)
	return err
}
