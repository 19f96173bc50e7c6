// Package vault is the public façade (C8): open/create a vault, index it,
// browse and search the cache, and load/save/create individual notes. It is
// the only package collaborators (a CLI, an MCP server, a desktop UI) are
// meant to import; everything underneath (store, reconcile, browse, walk,
// pool) is an implementation detail reachable only through this surface,
// the same layering the teacher uses between pkg/obsidian (domain) and
// pkg/cache (service) versus cmd/ (collaborator).
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/dustin/go-humanize"

	"github.com/kimun-go/vaultcore/pkg/browse"
	"github.com/kimun-go/vaultcore/pkg/content"
	"github.com/kimun-go/vaultcore/pkg/fsutil"
	"github.com/kimun-go/vaultcore/pkg/pool"
	"github.com/kimun-go/vaultcore/pkg/reconcile"
	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vaulterr"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
	"github.com/kimun-go/vaultcore/pkg/walk"
	"github.com/kimun-go/vaultcore/pkg/watch"
)

// Re-exported validation modes (§4.5) so collaborators don't need to import
// package reconcile directly.
const (
	ModeNone = reconcile.ModeNone
	ModeFast = reconcile.ModeFast
	ModeFull = reconcile.ModeFull
)

// IndexReport summarizes one sync pass (§4.8).
type IndexReport struct {
	Duration    time.Duration
	Added       int
	Updated     int
	Deleted     int
	NonCritical []error
}

// String renders a human-readable summary for CLI/MCP output.
func (r IndexReport) String() string {
	total := r.Added + r.Updated + r.Deleted
	return fmt.Sprintf(
		"%s changes (+%s ~%s -%s) in %s",
		humanize.Comma(int64(total)),
		humanize.Comma(int64(r.Added)),
		humanize.Comma(int64(r.Updated)),
		humanize.Comma(int64(r.Deleted)),
		r.Duration.Round(time.Millisecond),
	)
}

// NoteVault is a handle on one open vault: its root directory and the
// connection pool guarding its index database.
type NoteVault struct {
	root string
	opts Options
	pool *pool.Pool

	watchMu sync.Mutex
	watcher *watch.Watcher
}

// Open verifies root exists and is a directory, opens (creating if absent)
// the index database and its connection pool, and runs InitAndValidate.
// A stored schema version other than store.CurrentSchemaVersion (older or
// newer) makes Open delete the database file and rebuild the index from
// scratch; a missing version is recorded by store.Init.
func Open(ctx context.Context, root string, opts Options) (*NoteVault, error) {
	info, err := os.Stat(root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, vaulterr.WithPath(vaulterr.KindNotFound, root, err)
		}
		return nil, vaulterr.WithPath(vaulterr.KindIO, root, err)
	}
	if !info.IsDir() {
		return nil, vaulterr.WithPath(vaulterr.KindInvalidPath, root, errors.New("vault root is not a directory"))
	}

	opts = opts.withDefaults()
	dbPath := filepath.Join(root, opts.DBFileName)

	p, err := pool.Open(ctx, dbPath, opts.PoolSize)
	if errors.Is(err, store.ErrSchemaVersionMismatch) {
		if rmErr := os.Remove(dbPath); rmErr != nil && !os.IsNotExist(rmErr) {
			return nil, vaulterr.WithPath(vaulterr.KindIO, dbPath, rmErr)
		}
		p, err = pool.Open(ctx, dbPath, opts.PoolSize)
	}
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindDBFailure, err)
	}

	v := &NoteVault{root: root, opts: opts, pool: p}
	if _, err := v.InitAndValidate(ctx); err != nil {
		_ = p.Close()
		return nil, err
	}
	return v, nil
}

// Close stops any active watch and shuts down the connection pool, draining
// in-flight jobs.
func (v *NoteVault) Close() error {
	_ = v.StopWatching()
	return v.pool.Close()
}

// StartWatching installs an fsnotify-backed watch over every directory
// already present in the index, so a subsequent Refresh can repair only the
// paths that changed instead of re-walking the whole tree. Calling it twice
// replaces the previous watcher.
func (v *NoteVault) StartWatching(ctx context.Context) error {
	w, err := watch.New(v.root)
	if err != nil {
		return vaulterr.New(vaulterr.KindIO, err)
	}

	dirs, err := v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		return s.AllDirectoryPaths(ctx)
	})
	if err != nil {
		_ = w.Close()
		return vaulterr.New(vaulterr.KindDBFailure, err)
	}

	w.WatchDir(v.root)
	for _, raw := range dirs.([]string) {
		if raw == "" {
			continue
		}
		p, err := vaultpath.FromString(raw)
		if err != nil {
			continue
		}
		w.WatchDir(p.ToOSPath(v.root))
	}

	v.watchMu.Lock()
	prev := v.watcher
	v.watcher = w
	v.watchMu.Unlock()
	if prev != nil {
		_ = prev.Close()
	}
	return nil
}

// StopWatching tears down the active watch, if any. It is a no-op when no
// watch is installed.
func (v *NoteVault) StopWatching() error {
	v.watchMu.Lock()
	w := v.watcher
	v.watcher = nil
	v.watchMu.Unlock()
	if w == nil {
		return nil
	}
	return w.Close()
}

// Refresh reconciles only the parent directory of each path the active
// watch has observed changing since the last call, falling back to a ModeFast pass over the
// whole vault when the watch reports it has gone stale (a dropped fsnotify
// channel). It is a no-op returning a zero IndexReport when no watch is
// active.
func (v *NoteVault) Refresh(ctx context.Context) (IndexReport, error) {
	v.watchMu.Lock()
	w := v.watcher
	v.watchMu.Unlock()
	if w == nil {
		return IndexReport{}, nil
	}

	if w.Stale() {
		return v.IndexNotes(ctx, reconcile.ModeFast)
	}

	dirty := w.TakeDirty()
	if len(dirty) == 0 {
		return IndexReport{}, nil
	}

	start := time.Now()
	report := &IndexReport{}
	seen := make(map[string]bool)
	for rel := range dirty {
		p, err := vaultpath.FromString(rel)
		if err != nil {
			continue
		}
		dir, _ := p.Parent()
		key := store.PathKey(dir)
		if seen[key] {
			continue
		}
		seen[key] = true
		if err := v.runLevel(ctx, dir, reconcile.ModeFast, false, nil, report); err != nil && !errors.Is(err, reconcile.ErrAborted) {
			report.Duration = time.Since(start)
			return *report, err
		}
	}
	report.Duration = time.Since(start)
	return *report, nil
}

// Root returns the vault's filesystem root.
func (v *NoteVault) Root() string { return v.root }

// InitAndValidate runs a None-mode sync across the entire tree, repairing
// only structural drift (added/removed notes and directories) without
// reading any note body that is already cached.
func (v *NoteVault) InitAndValidate(ctx context.Context) (IndexReport, error) {
	return v.IndexNotes(ctx, reconcile.ModeNone)
}

// IndexNotes runs a sync pass across the whole vault in the given mode.
func (v *NoteVault) IndexNotes(ctx context.Context, mode reconcile.Mode) (IndexReport, error) {
	start := time.Now()
	report := &IndexReport{}
	err := v.runLevel(ctx, vaultpath.Root(), mode, true, nil, report)
	report.Duration = time.Since(start)
	if err != nil && !errors.Is(err, reconcile.ErrAborted) {
		return *report, err
	}
	return *report, nil
}

// RecreateIndex drops every cached row and rebuilds the index from scratch
// in Full mode.
func (v *NoteVault) RecreateIndex(ctx context.Context) (IndexReport, error) {
	_, err := v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		return nil, s.Reset(ctx)
	})
	if err != nil {
		return IndexReport{}, vaulterr.New(vaulterr.KindDBFailure, err)
	}
	return v.IndexNotes(ctx, reconcile.ModeFull)
}

// BrowseOptions controls one BrowseVault call.
type BrowseOptions struct {
	Path           vaultpath.Path
	Recursive      bool
	ValidationMode reconcile.Mode
	// Receiver is drained by the caller; BrowseVault closes it on
	// completion or cancellation (§6).
	Receiver chan<- browse.SearchResult
}

// BrowseVault starts a List walk at options.Path, streaming a SearchResult
// through options.Receiver for every entry as it is classified, while
// repairing the cache the same way IndexNotes does. It returns once the
// walk completes; the caller drains Receiver concurrently.
func (v *NoteVault) BrowseVault(ctx context.Context, opts BrowseOptions) error {
	defer close(opts.Receiver)
	report := &IndexReport{}
	err := v.runLevel(ctx, opts.Path, opts.ValidationMode, opts.Recursive, opts.Receiver, report)
	if err != nil && !errors.Is(err, reconcile.ErrAborted) {
		return err
	}
	return nil
}

// SearchNotes delegates to the store's ranked search.
func (v *NoteVault) SearchNotes(ctx context.Context, query string) ([]store.SearchResult, error) {
	v2, err := v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		return s.SearchNotes(ctx, query)
	})
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindDBFailure, err)
	}
	return v2.([]store.SearchResult), nil
}

// GetChunks returns the cached chunk list for path.
func (v *NoteVault) GetChunks(ctx context.Context, path vaultpath.Path) ([]content.Chunk, error) {
	v2, err := v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		return s.GetChunks(ctx, path.Display())
	})
	if err != nil {
		return nil, vaulterr.New(vaulterr.KindDBFailure, err)
	}
	return v2.([]content.Chunk), nil
}

// osPath resolves path to its on-disk location, rejecting anything that
// would resolve outside the vault root. vaultpath.Path already forbids the
// segment shapes (".", "..") that would make that possible, but this is the
// boundary check the façade itself is responsible for before touching disk.
func (v *NoteVault) osPath(path vaultpath.Path) (string, error) {
	osPath, err := fsutil.SafeJoinVaultPath(v.root, path.ToOSPath(""))
	if err != nil {
		return "", vaulterr.WithPath(vaulterr.KindInvalidPath, path.Display(), err)
	}
	return osPath, nil
}

// LoadNote reads a note's raw text.
func (v *NoteVault) LoadNote(ctx context.Context, path vaultpath.Path) (string, error) {
	osPath, err := v.osPath(path)
	if err != nil {
		return "", err
	}
	raw, err := os.ReadFile(osPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", vaulterr.WithPath(vaulterr.KindNotFound, path.Display(), err)
		}
		return "", vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	if !utf8.Valid(raw) {
		return "", vaulterr.WithPath(vaulterr.KindEncoding, path.Display(), errors.New("note body is not valid UTF-8"))
	}
	return string(raw), nil
}

// SaveNote writes text atomically (write-temp-then-rename) and re-extracts
// + updates the cache row in one transaction.
func (v *NoteVault) SaveNote(ctx context.Context, path vaultpath.Path, text string) error {
	osPath, err := v.osPath(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(osPath), 0o755); err != nil {
		return vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	if err := fsutil.WriteFileAtomic(osPath, []byte(text), 0o644); err != nil {
		return vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	return v.reExtractAndStore(ctx, path, []byte(text))
}

// CreateNote creates path with the given text, failing with NoteExists if
// the file is already present.
func (v *NoteVault) CreateNote(ctx context.Context, path vaultpath.Path, text string) error {
	osPath, err := v.osPath(path)
	if err != nil {
		return err
	}
	if _, err := os.Stat(osPath); err == nil {
		return vaulterr.NoteExists(path.Display())
	} else if !os.IsNotExist(err) {
		return vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	if err := os.MkdirAll(filepath.Dir(osPath), 0o755); err != nil {
		return vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	if err := fsutil.WriteFileAtomic(osPath, []byte(text), 0o644); err != nil {
		return vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	return v.reExtractAndStore(ctx, path, []byte(text))
}

// JournalEntry returns (creating if absent) today's note under the
// conventional "daily" subdirectory, named by ISO date, seeded with a
// top-level heading the first time it is created.
func (v *NoteVault) JournalEntry(ctx context.Context) (vaultpath.Path, string, error) {
	dir, err := vaultpath.FromString("daily")
	if err != nil {
		return vaultpath.Path{}, "", vaulterr.New(vaulterr.KindInvalidPath, err)
	}
	date := time.Now().Format("2006-01-02")
	notePath, err := dir.Join(date + v.opts.NoteExtension)
	if err != nil {
		return vaultpath.Path{}, "", vaulterr.New(vaulterr.KindInvalidPath, err)
	}

	notedOSPath, err := v.osPath(notePath)
	if err != nil {
		return vaultpath.Path{}, "", err
	}
	if _, statErr := os.Stat(notedOSPath); statErr == nil {
		text, loadErr := v.LoadNote(ctx, notePath)
		return notePath, text, loadErr
	}

	text := fmt.Sprintf("# %s\n", date)
	if err := v.CreateNote(ctx, notePath, text); err != nil {
		return notePath, "", err
	}
	return notePath, text, nil
}

func (v *NoteVault) reExtractAndStore(ctx context.Context, path vaultpath.Path, raw []byte) error {
	osPath, err := v.osPath(path)
	if err != nil {
		return err
	}
	info, err := os.Stat(osPath)
	if err != nil {
		return vaulterr.WithPath(vaulterr.KindIO, path.Display(), err)
	}
	nc, chunks := content.Extract(raw)
	parentPath, _ := path.Parent()
	row := store.NoteRow{
		Path:     path.Display(),
		Parent:   store.PathKey(parentPath),
		Size:     info.Size(),
		Modified: info.ModTime().Unix(),
		Title:    nc.Title,
		Hash:     nc.Hash,
		Chunks:   chunks,
	}

	_, err = v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		if err := ensureDirChain(ctx, s, parentPath); err != nil {
			return nil, err
		}
		return nil, s.ApplyMutation(ctx, store.Mutation{UpdateNotes: []store.NoteRow{row}})
	})
	if err != nil {
		return vaulterr.New(vaulterr.KindDBFailure, err)
	}
	return nil
}

// ensureDirChain inserts any ancestor directory rows (root to dir,
// inclusive) missing from the cache, so a direct SaveNote/CreateNote into a
// brand-new subdirectory doesn't leave it invisible to browse until the
// next full index pass.
func ensureDirChain(ctx context.Context, s *store.Store, dir vaultpath.Path) error {
	var chain []vaultpath.Path
	for cur := dir; !cur.IsRoot(); {
		chain = append(chain, cur)
		parent, _ := cur.Parent()
		cur = parent
	}
	var dirs []store.DirRow
	for i := len(chain) - 1; i >= 0; i-- {
		p := chain[i]
		parent, _ := p.Parent()
		dirs = append(dirs, store.DirRow{Path: p.Display(), Parent: store.PathKey(parent)})
	}
	if len(dirs) == 0 {
		return nil
	}
	return s.ApplyMutation(ctx, store.Mutation{InsertDirs: dirs})
}

// runLevel reconciles one directory level and, when recurse is true,
// descends into every live child directory afterward. out is nil for a
// plain index pass (no streaming).
func (v *NoteVault) runLevel(ctx context.Context, dir vaultpath.Path, mode reconcile.Mode, recurse bool, out chan<- browse.SearchResult, report *IndexReport) error {
	cachedNotes, cachedDirs, err := v.snapshot(ctx, dir)
	if err != nil {
		return err
	}

	walkOpts := walk.Options{
		NoteExtension: v.opts.NoteExtension,
		IgnoreGlobs:   v.opts.IgnoreGlobs,
		ReservedNames: []string{v.opts.DBFileName, v.opts.DBFileName + "-wal", v.opts.DBFileName + "-shm"},
	}

	var diff reconcile.Diff
	var derr error
	if out != nil {
		diff, derr = browse.Dir(ctx, v.root, dir, walkOpts, mode, cachedNotes, cachedDirs, out)
	} else {
		diff, derr = reconcile.Dir(ctx, v.root, dir, walkOpts, mode, cachedNotes, cachedDirs, nil)
	}

	hardErr := derr != nil && !errors.Is(derr, reconcile.ErrAborted)
	if hardErr {
		return derr
	}

	if err := v.commit(ctx, diff); err != nil {
		return err
	}
	report.Added += len(diff.InsertNotes) + len(diff.InsertDirs)
	report.Updated += len(diff.UpdateNotes)
	report.Deleted += len(diff.DeleteNotePaths) + len(diff.DeleteDirPaths)
	report.NonCritical = append(report.NonCritical, diff.NonCritical...)

	if errors.Is(derr, reconcile.ErrAborted) {
		return derr
	}

	if recurse {
		for _, child := range diff.LiveDirPaths {
			if err := v.runLevel(ctx, child, mode, recurse, out, report); err != nil {
				return err
			}
		}
	}
	return nil
}

func (v *NoteVault) snapshot(ctx context.Context, dir vaultpath.Path) ([]store.NoteRow, []store.DirRow, error) {
	parent := store.PathKey(dir)
	res, err := v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		notes, err := s.GetNotes(ctx, parent)
		if err != nil {
			return nil, err
		}
		dirs, err := s.GetDirectories(ctx, parent)
		if err != nil {
			return nil, err
		}
		return [2]any{notes, dirs}, nil
	})
	if err != nil {
		return nil, nil, vaulterr.New(vaulterr.KindDBFailure, err)
	}
	pair := res.([2]any)
	return pair[0].([]store.NoteRow), pair[1].([]store.DirRow), nil
}

// commit applies a directory's diff inside a single transaction (§4.5).
func (v *NoteVault) commit(ctx context.Context, diff reconcile.Diff) error {
	if len(diff.InsertNotes) == 0 && len(diff.UpdateNotes) == 0 && len(diff.DeleteNotePaths) == 0 &&
		len(diff.InsertDirs) == 0 && len(diff.DeleteDirPaths) == 0 {
		return nil
	}
	_, err := v.pool.Submit(ctx, func(ctx context.Context, s *store.Store) (any, error) {
		return nil, s.ApplyMutation(ctx, store.Mutation{
			InsertNotes:     diff.InsertNotes,
			UpdateNotes:     diff.UpdateNotes,
			DeleteNotePaths: diff.DeleteNotePaths,
			InsertDirs:      diff.InsertDirs,
			DeleteDirPaths:  diff.DeleteDirPaths,
		})
	})
	if err != nil {
		return vaulterr.New(vaulterr.KindDBFailure, err)
	}
	return nil
}
