package vault

import (
	"github.com/kimun-go/vaultcore/pkg/reconcile"
	"github.com/kimun-go/vaultcore/pkg/store"
	"github.com/kimun-go/vaultcore/pkg/vaultpath"
)

// Options controls a NoteVault, in the style of the teacher's cache.Options:
// a plain struct of overridable knobs rather than functional options, since
// every field here is a one-time, vault-lifetime setting.
type Options struct {
	// NoteExtension classifies a file as a note, e.g. ".md". Defaults to
	// vaultpath.DefaultNoteExtension.
	NoteExtension string
	// DBFileName overrides the reserved index database filename. Defaults
	// to store.DatabaseFileName.
	DBFileName string
	// PoolSize overrides the connection pool's worker count. Defaults to
	// pool.DefaultSize().
	PoolSize int
	// IgnoreGlobs are doublestar patterns excluded from every walk.
	IgnoreGlobs []string
	// DefaultValidationMode is stored with the vault's options but is not
	// read by any operation: IndexNotes, BrowseVault and Refresh each take
	// their mode explicitly. No default is applied; the zero value is
	// ModeNone.
	DefaultValidationMode reconcile.Mode
}

func (o Options) withDefaults() Options {
	if o.NoteExtension == "" {
		o.NoteExtension = vaultpath.DefaultNoteExtension
	}
	if o.DBFileName == "" {
		o.DBFileName = store.DatabaseFileName
	}
	return o
}
