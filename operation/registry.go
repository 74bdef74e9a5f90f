package operation

import (
	"errors"
	"fmt"

	"github.com/spf13/afero"

	"github.com/byte4ever/gitstate/filestate"
)

// ErrDuplicateKind is returned when a kind is
// registered twice.
var ErrDuplicateKind = errors.New("duplicate operation kind")

// Factory builds operations of one kind.
type Factory struct {
	Kind Kind

	// Applicable inspects the target and the current
	// disk state. An error means the target's options
	// are invalid for this kind.
	Applicable func(t *filestate.Target) (bool, error)

	// New returns a fresh operation for t.
	New func(t *filestate.Target) Operation
}

// Registry holds factories in registration order.
type Registry struct {
	factories []Factory
	kinds     map[Kind]struct{}
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{kinds: make(map[Kind]struct{})}
}

// DefaultRegistry returns a registry holding the
// directory operation bound to fs. fs defaults to the
// OS filesystem when nil.
func DefaultRegistry(fs afero.Fs) *Registry {
	reg := NewRegistry()

	//nolint:errcheck // empty registry cannot clash
	_ = reg.Register(CreateDirectoryFactory(fs))

	return reg
}

// Register appends f.
func (r *Registry) Register(f Factory) error {
	const errCtx = "registering operation"

	if f.Kind == "" || f.Applicable == nil || f.New == nil {
		return fmt.Errorf(
			"%s: incomplete factory %q", errCtx, f.Kind,
		)
	}

	if _, ok := r.kinds[f.Kind]; ok {
		return fmt.Errorf(
			"%s: %w %q", errCtx, ErrDuplicateKind, f.Kind,
		)
	}

	r.kinds[f.Kind] = struct{}{}
	r.factories = append(r.factories, f)

	return nil
}

// Factories returns the registered factories in order.
func (r *Registry) Factories() []Factory {
	return r.factories
}

// Kinds returns the registered kinds in order.
func (r *Registry) Kinds() []Kind {
	kinds := make([]Kind, 0, len(r.factories))
	for _, f := range r.factories {
		kinds = append(kinds, f.Kind)
	}

	return kinds
}
