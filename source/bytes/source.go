// Package bytes provides a read-only in-memory source, used for bindings read
// from standard input. Save returns source.ErrSaveNotSupported.
package bytes

import (
	"context"
	"fmt"
	"io"

	"github.com/yacchi/bindwatch/source"
)

// Source serves a fixed byte slice.
type Source struct {
	data []byte
}

var _ source.Source = (*Source)(nil)

// New creates a source from raw bytes.
func New(data []byte) *Source {
	return &Source{data: data}
}

// FromString creates a source from a string.
func FromString(data string) *Source {
	return New([]byte(data))
}

// FromReader reads r to the end and serves its contents.
//
// Example:
//
//	src, err := bytes.FromReader(os.Stdin)
func FromReader(r io.Reader) (*Source, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read input: %w", err)
	}
	return New(data), nil
}

// Load returns a copy of the data.
func (s *Source) Load(ctx context.Context) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	result := make([]byte, len(s.data))
	copy(result, s.data)
	return result, nil
}

// Save always returns source.ErrSaveNotSupported.
func (s *Source) Save(ctx context.Context, update source.UpdateFunc) error {
	return source.ErrSaveNotSupported
}

// CanSave returns false.
func (s *Source) CanSave() bool {
	return false
}
