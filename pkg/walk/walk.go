// Package walk enumerates a vault subtree, producing a typed, stably
// ordered stream of entries for the synchronization and browse engines.
package walk

import (
	"fmt"
	"os"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

// Kind classifies a walked filesystem entry.
type Kind int

const (
	KindNote Kind = iota
	KindDirectory
	KindAttachment
	KindUnknown
)

func (k Kind) String() string {
	switch k {
	case KindNote:
		return "note"
	case KindDirectory:
		return "directory"
	case KindAttachment:
		return "attachment"
	default:
		return "unknown"
	}
}

// Entry is one yielded filesystem item.
type Entry struct {
	Path         vaultpath.Path
	Kind         Kind
	Size         int64
	ModifiedSecs int64
}

// Options controls a single Walk call.
type Options struct {
	// NoteExtension classifies a file as KindNote, e.g. ".md". Required.
	NoteExtension string
	// Recursive descends into subdirectories; false lists direct children only.
	Recursive bool
	// IgnoreGlobs are doublestar patterns matched against the vault-relative
	// slash path; matching entries are skipped entirely (not emitted).
	IgnoreGlobs []string
	// ReservedNames are exact basenames skipped everywhere, used to hide the
	// index database file from enumeration.
	ReservedNames []string
}

// Visit is called once per entry in walk order. Returning an error aborts
// the walk and the error propagates to the Walk caller.
type Visit func(Entry) error

// Walk enumerates root/start according to opts, calling visit for every
// directory (including start) before its children, and for every note or
// attachment found. I/O errors on an individual entry are reported as
// KindUnknown rather than aborting the walk; a failure listing a directory's
// children does abort (it is not a single-entry error).
func Walk(root string, start vaultpath.Path, opts Options, visit Visit) error {
	if opts.NoteExtension == "" {
		opts.NoteExtension = vaultpath.DefaultNoteExtension
	}
	return walkDir(root, start, opts, visit, true)
}

func walkDir(root string, dir vaultpath.Path, opts Options, visit Visit, emitSelf bool) error {
	if emitSelf {
		info, err := os.Stat(dir.ToOSPath(root))
		if err != nil {
			return visit(Entry{Path: dir, Kind: KindUnknown})
		}
		if err := visit(Entry{Path: dir, Kind: KindDirectory, ModifiedSecs: info.ModTime().Unix()}); err != nil {
			return err
		}
	}

	osDir := dir.ToOSPath(root)
	children, err := os.ReadDir(osDir)
	if err != nil {
		return fmt.Errorf("read directory %s: %w", osDir, err)
	}

	for _, child := range children {
		name := child.Name()
		if strings.HasPrefix(name, ".") {
			continue
		}
		if child.Type()&os.ModeSymlink != 0 {
			continue
		}
		if isReserved(name, opts.ReservedNames) {
			continue
		}

		childPath, err := dir.Join(name)
		if err != nil {
			continue
		}
		if matchesAny(opts.IgnoreGlobs, childPath.Display()) {
			continue
		}

		if child.IsDir() {
			if opts.Recursive {
				if err := walkDir(root, childPath, opts, visit, true); err != nil {
					return err
				}
				continue
			}
			info, err := child.Info()
			if err != nil {
				if err := visit(Entry{Path: childPath, Kind: KindUnknown}); err != nil {
					return err
				}
				continue
			}
			if err := visit(Entry{Path: childPath, Kind: KindDirectory, ModifiedSecs: info.ModTime().Unix()}); err != nil {
				return err
			}
			continue
		}

		info, err := child.Info()
		if err != nil {
			if err := visit(Entry{Path: childPath, Kind: KindUnknown}); err != nil {
				return err
			}
			continue
		}

		kind := KindAttachment
		if strings.HasSuffix(name, opts.NoteExtension) {
			kind = KindNote
		}
		entry := Entry{
			Path:         childPath,
			Kind:         kind,
			Size:         info.Size(),
			ModifiedSecs: info.ModTime().Unix(),
		}
		if err := visit(entry); err != nil {
			return err
		}
	}
	return nil
}

func isReserved(name string, reserved []string) bool {
	for _, r := range reserved {
		if name == r {
			return true
		}
	}
	return false
}

func matchesAny(globs []string, slashPath string) bool {
	for _, g := range globs {
		if ok, err := doublestar.Match(g, slashPath); err == nil && ok {
			return true
		}
	}
	return false
}
