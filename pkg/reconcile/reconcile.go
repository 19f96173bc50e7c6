// Package reconcile is the synchronization protocol's diff engine (C5):
// given one directory's walker stream and its cached snapshot, it produces
// the insert/update/delete sets the façade commits in a single transaction
// (§4.5). The optional Emit hook lets a streaming consumer (C6, package
// browse) observe every classified entry before that commit happens,
// mirroring how the teacher's cache.Service.Refresh folds a dirty set into
// its index while callers keep reading through Entry()/Paths().
package reconcile

import (
	"context"
	"errors"
	"log"
	"os"
	"strings"
	"unicode/utf8"

	"github.com/kimun-go/vaultcore/pkg/content"
	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vaulterr"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
	"github.com/kimun-go/vaultcore/pkg/walk"
)

// Mode selects how aggressively cached notes are re-read during a pass.
type Mode int

const (
	// ModeNone trusts the cache entirely for existing notes; only
	// structural add/delete is computed, no file is read for a note
	// already present in the cache.
	ModeNone Mode = iota
	// ModeFast trusts size+modified equality; a metadata mismatch forces
	// a read and re-hash.
	ModeFast
	// ModeFull always reads and re-hashes every existing note, catching
	// external edits that preserve mtime.
	ModeFull
)

func (m Mode) String() string {
	switch m {
	case ModeNone:
		return "none"
	case ModeFast:
		return "fast"
	case ModeFull:
		return "full"
	default:
		return "unknown"
	}
}

// Diff is the accumulated set of changes for one directory level.
type Diff struct {
	InsertNotes     []store.NoteRow
	UpdateNotes     []store.NoteRow
	DeleteNotePaths []string
	InsertDirs      []store.DirRow
	DeleteDirPaths  []string
	// LiveDirPaths lists every directory child classified this pass
	// (pre-existing and newly inserted), for the façade to recurse into.
	LiveDirPaths []vaultpath.Path
	// NonCritical accumulates per-entry errors (§7); the pass continues.
	NonCritical []error
}

// ErrAborted is returned by Dir when emit signals the consumer went away
// (ctx was cancelled mid-walk). The diff accumulated up to that point is
// still valid and should still be committed (§4.6: "structural progress is
// never lost").
var ErrAborted = errors.New("reconcile: aborted by consumer")

// Emit is invoked once per Note/Directory/Attachment entry classification,
// before the directory's diff is committed. note is non-nil for Note
// entries (the row to use, new or existing). Returning an error aborts the
// remaining walk for this directory (see ErrAborted); the façade still
// commits the partial diff.
type Emit func(entry walk.Entry, note *store.NoteRow) error

// Dir reconciles one directory level: it walks root/dir non-recursively and
// diffs the result against cachedNotes/cachedDirs (the store snapshot for
// direct children of dir).
func Dir(ctx context.Context, root string, dir vaultpath.Path, opts walk.Options, mode Mode, cachedNotes []store.NoteRow, cachedDirs []store.DirRow, emit Emit) (Diff, error) {
	cachedNoteMap := make(map[string]store.NoteRow, len(cachedNotes))
	for _, r := range cachedNotes {
		cachedNoteMap[r.Path] = r
	}
	cachedDirMap := make(map[string]store.DirRow, len(cachedDirs))
	for _, d := range cachedDirs {
		cachedDirMap[d.Path] = d
	}

	var diff Diff
	touchedNotes := make(map[string]bool)
	touchedDirs := make(map[string]bool)
	seenLower := make(map[string]bool)
	parentKey := store.PathKey(dir)

	walkOpts := opts
	walkOpts.Recursive = false

	aborted := false
	walkErr := walk.Walk(root, dir, walkOpts, func(e walk.Entry) error {
		if e.Path.Equal(dir) {
			// This is the directory's own self-entry (walker emits the
			// start directory before its children); it names dir, not a
			// child, and is handled by the parent level's InsertDirs step.
			return nil
		}

		select {
		case <-ctx.Done():
			aborted = true
			return ErrAborted
		default:
		}

		lower := strings.ToLower(e.Path.Display())
		if seenLower[lower] {
			log.Printf("reconcile: duplicate path on case-insensitive filesystem, skipping %s", e.Path.Display())
			return nil
		}
		seenLower[lower] = true

		switch e.Kind {
		case walk.KindDirectory:
			path := e.Path.Display()
			touchedDirs[path] = true
			diff.LiveDirPaths = append(diff.LiveDirPaths, e.Path)
			if _, ok := cachedDirMap[path]; !ok {
				diff.InsertDirs = append(diff.InsertDirs, store.DirRow{Path: path, Parent: parentKey})
			}
			if emit != nil {
				if err := emit(e, nil); err != nil {
					aborted = true
					return ErrAborted
				}
			}
			return nil

		case walk.KindNote:
			path := e.Path.Display()
			touchedNotes[path] = true

			cached, ok := cachedNoteMap[path]
			var row store.NoteRow
			if !ok {
				r, err := readAndExtract(root, e, parentKey)
				if err != nil {
					if os.IsNotExist(err) {
						return nil
					}
					diff.NonCritical = append(diff.NonCritical, err)
					return nil
				}
				row = r
				diff.InsertNotes = append(diff.InsertNotes, row)
			} else {
				metadataMatches := cached.Size == e.Size && cached.Modified == e.ModifiedSecs
				if !needsRead(mode, metadataMatches) {
					row = cached
				} else {
					raw, err := os.ReadFile(e.Path.ToOSPath(root))
					if err != nil {
						if os.IsNotExist(err) {
							diff.DeleteNotePaths = append(diff.DeleteNotePaths, path)
							return nil
						}
						diff.NonCritical = append(diff.NonCritical, vaulterr.WithPath(vaulterr.KindIO, path, err))
						row = cached
					} else if !utf8.Valid(raw) {
						diff.NonCritical = append(diff.NonCritical, vaulterr.WithPath(vaulterr.KindEncoding, path, errors.New("note body is not valid UTF-8")))
						row = cached
					} else {
						hash := content.Hash(raw)
						if hash == cached.Hash {
							row = cached
							row.Size = e.Size
							row.Modified = e.ModifiedSecs
							if !metadataMatches {
								diff.UpdateNotes = append(diff.UpdateNotes, row)
							}
						} else {
							nc, chunks := content.Extract(raw)
							row = store.NoteRow{
								Path: path, Parent: parentKey, Size: e.Size,
								Modified: e.ModifiedSecs, Title: nc.Title,
								Hash: nc.Hash, Chunks: chunks,
							}
							diff.UpdateNotes = append(diff.UpdateNotes, row)
						}
					}
				}
			}
			if emit != nil {
				if err := emit(e, &row); err != nil {
					aborted = true
					return ErrAborted
				}
			}
			return nil

		case walk.KindAttachment:
			if emit != nil {
				if err := emit(e, nil); err != nil {
					aborted = true
					return ErrAborted
				}
			}
			return nil

		default: // KindUnknown
			log.Printf("reconcile: unreadable entry at %s", e.Path.Display())
			return nil
		}
	})

	if walkErr != nil && !aborted && !errors.Is(walkErr, ErrAborted) {
		return diff, walkErr
	}

	for path := range cachedNoteMap {
		if !touchedNotes[path] {
			diff.DeleteNotePaths = append(diff.DeleteNotePaths, path)
		}
	}
	for path := range cachedDirMap {
		if !touchedDirs[path] {
			diff.DeleteDirPaths = append(diff.DeleteDirPaths, path)
		}
	}

	if aborted {
		return diff, ErrAborted
	}
	return diff, nil
}

func needsRead(mode Mode, metadataMatches bool) bool {
	switch mode {
	case ModeNone:
		return false
	case ModeFull:
		return true
	default: // ModeFast
		return !metadataMatches
	}
}

func readAndExtract(root string, e walk.Entry, parentKey string) (store.NoteRow, error) {
	raw, err := os.ReadFile(e.Path.ToOSPath(root))
	if err != nil {
		return store.NoteRow{}, err
	}
	if !utf8.Valid(raw) {
		return store.NoteRow{}, vaulterr.WithPath(vaulterr.KindEncoding, e.Path.Display(), errors.New("note body is not valid UTF-8"))
	}
	nc, chunks := content.Extract(raw)
	return store.NoteRow{
		Path: e.Path.Display(), Parent: parentKey, Size: e.Size,
		Modified: e.ModifiedSecs, Title: nc.Title, Hash: nc.Hash, Chunks: chunks,
	}, nil
}
