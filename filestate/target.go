package filestate

import (
	"path/filepath"
)

// Kind tells whether a target is a directory or a file.
type Kind string

// Target kinds.
const (
	KindDirectory Kind = "dir"
	KindFile      Kind = "file"
)

// Target is one node of the desired-state tree. Path is
// absolute and fixed once the tree is loaded.
type Target struct {
	Path     string
	Kind     Kind
	Parent   *Target
	Children []*Target

	options map[OptionKey]Value
}

// NewTarget returns a detached target at path. Path is
// made absolute and cleaned.
func NewTarget(path string, kind Kind) (*Target, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}

	if kind == "" {
		kind = KindDirectory
	}

	return &Target{
		Path:    abs,
		Kind:    kind,
		options: make(map[OptionKey]Value),
	}, nil
}

// AddChild creates a child target named name below t.
func (t *Target) AddChild(name string, kind Kind) *Target {
	if kind == "" {
		kind = KindDirectory
	}

	child := &Target{
		Path:    filepath.Join(t.Path, name),
		Kind:    kind,
		Parent:  t,
		options: make(map[OptionKey]Value),
	}

	t.Children = append(t.Children, child)

	return child
}

// Name returns the base name of the target path.
func (t *Target) Name() string {
	return filepath.Base(t.Path)
}

// IsDir reports whether the target is a directory.
func (t *Target) IsDir() bool {
	return t.Kind == KindDirectory
}

// SetOption stores val under key. Values set directly
// are not validated; LoadConfig validates.
func (t *Target) SetOption(key OptionKey, val Value) {
	t.options[key] = val
}

// Option returns the value stored under key.
func (t *Target) Option(key OptionKey) (Value, bool) {
	val, ok := t.options[key]

	return val, ok
}

// ShouldExist reports the should_exist option, true
// when unset.
func (t *Target) ShouldExist() bool {
	val, ok := t.Option(OptionShouldExist)
	if !ok || !val.IsBool() {
		return true
	}

	return val.Bool()
}

// IsAncestorOf reports whether t is a strict ancestor of
// other in the tree.
func (t *Target) IsAncestorOf(other *Target) bool {
	for p := other.Parent; p != nil; p = p.Parent {
		if p == t {
			return true
		}
	}

	return false
}

// Walk visits t and its descendants depth-first, parents
// before children. It stops at the first error.
func (t *Target) Walk(fn func(*Target) error) error {
	if err := fn(t); err != nil {
		return err
	}

	for _, child := range t.Children {
		if err := child.Walk(fn); err != nil {
			return err
		}
	}

	return nil
}

// FindByName returns the first target, in walk order,
// whose base name is name.
func (t *Target) FindByName(name string) (*Target, bool) {
	var found *Target

	//nolint:errcheck // the callback never fails
	_ = t.Walk(func(cur *Target) error {
		if found == nil && cur.Name() == name {
			found = cur
		}

		return nil
	})

	return found, found != nil
}
