// Package watch translates filesystem notifications into dirty-path
// markers that the vault façade consumes between sync passes. It does not
// maintain its own content cache; that is the Index Store's job.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// DirtyKind captures why a path was marked dirty.
type DirtyKind int

const (
	DirtyUnknown DirtyKind = iota
	DirtyCreated
	DirtyModified
	DirtyRemoved
	DirtyRenamed
)

// Watcher owns one fsnotify watcher registered against a set of vault
// directories and accumulates dirty markers until a caller drains them.
type Watcher struct {
	root string

	mu       sync.Mutex
	dirty    map[string]DirtyKind
	dirIndex map[string]struct{}
	stale    bool

	fsw    *fsnotify.Watcher
	ctx    context.Context
	cancel context.CancelFunc
}

// New constructs a Watcher rooted at root. The caller must call WatchDir for
// every directory it wants notifications for (typically every directory
// visited during the initial index pass) and Close when done.
func New(root string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	ctx, cancel := context.WithCancel(context.Background())
	w := &Watcher{
		root:     root,
		dirty:    make(map[string]DirtyKind),
		dirIndex: make(map[string]struct{}),
		fsw:      fsw,
		ctx:      ctx,
		cancel:   cancel,
	}
	go w.loop()
	return w, nil
}

// WatchDir registers osDir (an absolute filesystem path under root) for
// notifications. Safe to call repeatedly for the same directory.
func (w *Watcher) WatchDir(osDir string) {
	w.mu.Lock()
	if _, ok := w.dirIndex[osDir]; ok {
		w.mu.Unlock()
		return
	}
	w.dirIndex[osDir] = struct{}{}
	w.mu.Unlock()
	if err := w.fsw.Add(osDir); err != nil {
		log.Printf("watch: failed to watch %s: %v", osDir, err)
	}
}

// Close stops the watch loop and releases the underlying fsnotify handle.
func (w *Watcher) Close() error {
	w.cancel()
	return w.fsw.Close()
}

// TakeDirty drains and returns the accumulated dirty set, keyed by
// vault-relative slash path.
func (w *Watcher) TakeDirty() map[string]DirtyKind {
	w.mu.Lock()
	defer w.mu.Unlock()
	dirty := w.dirty
	w.dirty = make(map[string]DirtyKind)
	return dirty
}

// Stale reports whether the watcher has lost events (its channel closed or
// errored) since the last call, and clears the flag. A caller observing true
// should fall back to a whole-vault sync rather than trusting dirty markers
// alone.
func (w *Watcher) Stale() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	stale := w.stale
	w.stale = false
	return stale
}

func (w *Watcher) markDirty(absPath string, kind DirtyKind) {
	rel, err := filepath.Rel(w.root, absPath)
	if err != nil {
		return
	}
	rel = filepath.ToSlash(rel)

	w.mu.Lock()
	defer w.mu.Unlock()
	if existing, ok := w.dirty[rel]; ok {
		if existing == DirtyRemoved || kind == DirtyRemoved {
			w.dirty[rel] = DirtyRemoved
		}
		return
	}
	w.dirty[rel] = kind
}

func (w *Watcher) markStale() {
	w.mu.Lock()
	w.stale = true
	w.mu.Unlock()
}

func (w *Watcher) loop() {
	for {
		select {
		case <-w.ctx.Done():
			return
		case evt, ok := <-w.fsw.Events:
			if !ok {
				w.markStale()
				return
			}
			w.handleEvent(evt)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				w.markStale()
				return
			}
			log.Printf("watch: fsnotify error: %v", err)
			w.markStale()
		}
	}
}

func (w *Watcher) handleEvent(evt fsnotify.Event) {
	name := filepath.Base(evt.Name)
	if strings.HasPrefix(name, ".") {
		return
	}
	switch {
	case evt.Op&fsnotify.Create == fsnotify.Create:
		w.markDirty(evt.Name, DirtyCreated)
	case evt.Op&fsnotify.Write == fsnotify.Write:
		w.markDirty(evt.Name, DirtyModified)
	case evt.Op&fsnotify.Remove == fsnotify.Remove:
		w.markDirty(evt.Name, DirtyRemoved)
		w.mu.Lock()
		delete(w.dirIndex, evt.Name)
		w.mu.Unlock()
	case evt.Op&fsnotify.Rename == fsnotify.Rename:
		w.markDirty(evt.Name, DirtyRenamed)
		w.mu.Lock()
		delete(w.dirIndex, evt.Name)
		w.mu.Unlock()
	}
}
