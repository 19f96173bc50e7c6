// Package browse implements the List Visitor (C6): it drives the same
// per-directory reconciliation as package reconcile but additionally
// streams a materialized SearchResult to a consumer channel as each entry
// is classified, before the directory's diff commits (§4.6). Backpressure
// is a blocking channel send; a cancelled context stands in for "the
// consumer closed the channel" (§4.6, §5) since Go channels are closed by
// senders, not receivers — the idiomatic equivalent the teacher's own
// ctx-checked loops (cache.Service.Refresh) already use.
package browse

import (
	"context"

	"github.com/kimun-go/vaultcore/pkg/content"
	"github.com/kimun-go/vaultcore/pkg/reconcile"
	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
	"github.com/kimun-go/vaultcore/pkg/walk"
)

// ResultKind discriminates a SearchResult's payload.
type ResultKind int

const (
	ResultNote ResultKind = iota
	ResultDirectory
	ResultAttachment
)

// SearchResult is one materialized entry streamed to a browse consumer.
type SearchResult struct {
	Kind     ResultKind
	Path     vaultpath.Path
	Size     int64
	Modified int64
	Note     content.NoteContent // set when Kind == ResultNote
}

// Dir runs one directory's List Visitor pass: it reconciles dir's walker
// stream against cachedNotes/cachedDirs, sending a SearchResult to out for
// every Note/Directory/Attachment entry as it is classified. Sending
// blocks when out is full (backpressure, §5). If ctx is cancelled the walk
// aborts after the in-flight entry, but the diff accumulated so far is
// still returned for the caller to commit — structural progress is never
// lost.
func Dir(ctx context.Context, root string, dir vaultpath.Path, opts walk.Options, mode reconcile.Mode, cachedNotes []store.NoteRow, cachedDirs []store.DirRow, out chan<- SearchResult) (reconcile.Diff, error) {
	emit := func(e walk.Entry, note *store.NoteRow) error {
		var r SearchResult
		switch e.Kind {
		case walk.KindDirectory:
			r = SearchResult{Kind: ResultDirectory, Path: e.Path, Modified: e.ModifiedSecs}
		case walk.KindNote:
			r = SearchResult{
				Kind: ResultNote, Path: e.Path, Size: e.Size, Modified: e.ModifiedSecs,
			}
			if note != nil {
				r.Note = content.NoteContent{Title: note.Title, Hash: note.Hash}
			}
		case walk.KindAttachment:
			r = SearchResult{Kind: ResultAttachment, Path: e.Path, Size: e.Size, Modified: e.ModifiedSecs}
		default:
			return nil
		}

		select {
		case out <- r:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	return reconcile.Dir(ctx, root, dir, opts, mode, cachedNotes, cachedDirs, emit)
}
