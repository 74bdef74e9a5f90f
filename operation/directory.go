package operation

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/afero"

	"github.com/byte4ever/gitstate/filestate"
)

// KindCreateDirectory creates a missing directory
// target.
const KindCreateDirectory Kind = "directory.create"

const dirPerm os.FileMode = 0o755

// CreateDirectory creates the directory of its target.
type CreateDirectory struct {
	fs      afero.Fs
	target  *filestate.Target
	created bool
}

// NewCreateDirectory returns the operation for t on fs.
func NewCreateDirectory(
	fs afero.Fs,
	t *filestate.Target,
) *CreateDirectory {
	return &CreateDirectory{fs: fs, target: t}
}

// CreateDirectoryFactory returns the factory of
// CreateDirectory bound to fs (OS filesystem when nil).
func CreateDirectoryFactory(fs afero.Fs) Factory {
	if fs == nil {
		fs = afero.NewOsFs()
	}

	return Factory{
		Kind: KindCreateDirectory,
		Applicable: func(t *filestate.Target) (bool, error) {
			return DirectoryApplicable(fs, t)
		},
		New: func(t *filestate.Target) Operation {
			return NewCreateDirectory(fs, t)
		},
	}
}

// DirectoryApplicable reports whether t is a directory
// that should exist but does not.
func DirectoryApplicable(
	fs afero.Fs,
	t *filestate.Target,
) (bool, error) {
	const errCtx = "checking directory"

	if !t.IsDir() || !t.ShouldExist() {
		return false, nil
	}

	exists, err := afero.Exists(fs, t.Path)
	if err != nil {
		return false, fmt.Errorf(
			"%s: %s: %w", errCtx, t.Path, err,
		)
	}

	return !exists, nil
}

// Kind returns KindCreateDirectory.
func (o *CreateDirectory) Kind() Kind {
	return KindCreateDirectory
}

// Target returns the directory target.
func (o *CreateDirectory) Target() *filestate.Target {
	return o.target
}

// Dependencies makes a directory wait for its parents.
func (o *CreateDirectory) Dependencies() []Kind {
	return []Kind{KindCreateDirectory}
}

// Apply creates the directory. Missing ancestors outside
// the tree are created too but never removed by Undo.
func (o *CreateDirectory) Apply(context.Context) error {
	const errCtx = "creating directory"

	if err := o.fs.MkdirAll(o.target.Path, dirPerm); err != nil {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, o.target.Path, err,
		)
	}

	o.created = true

	slog.Info("created directory", "path", o.target.Path)

	return nil
}

// Undo removes the directory if Apply created it. The
// removal is not recursive.
func (o *CreateDirectory) Undo(context.Context) error {
	const errCtx = "removing directory"

	if !o.created {
		return nil
	}

	err := o.fs.Remove(o.target.Path)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf(
			"%s: %s: %w", errCtx, o.target.Path, err,
		)
	}

	o.created = false

	slog.Info("removed directory", "path", o.target.Path)

	return nil
}

// Description returns "Create directory".
func (o *CreateDirectory) Description() string {
	return "Create directory"
}

// DescribeBefore returns "Directory missing".
func (o *CreateDirectory) DescribeBefore() string {
	return "Directory missing"
}

// DescribeAfter returns "Directory created".
func (o *CreateDirectory) DescribeAfter() string {
	return "Directory created"
}
