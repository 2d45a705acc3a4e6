// Package source defines where bindings and configuration bytes are read from
// and written to. Sources handle raw bytes only; parsing belongs to the
// bindings and format packages.
package source

import (
	"context"
	"errors"
)

// ErrSaveNotSupported is returned when Save is called on a read-only source.
var ErrSaveNotSupported = errors.New("save not supported for this source")

// UpdateFunc produces the bytes to save from the current contents of the source.
type UpdateFunc func(current []byte) ([]byte, error)

// Source loads and optionally saves raw bytes.
type Source interface {
	// Load reads the current contents.
	Load(ctx context.Context) ([]byte, error)

	// Save replaces the contents with the result of update. The current bytes
	// passed to update are read while the source is locked for writing.
	//
	// Returns ErrSaveNotSupported if the source is read-only.
	Save(ctx context.Context, update UpdateFunc) error

	// CanSave reports whether Save is supported.
	CanSave() bool
}

// Locator is implemented by sources backed by a file on disk.
type Locator interface {
	// ResolvedPath returns the path of the file the source reads.
	ResolvedPath() string
}
