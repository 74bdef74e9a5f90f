package gitop

import (
	"context"
	"fmt"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/gitops/git"
	"github.com/byte4ever/gitstate/operation"
)

// KindInitRepository initializes a git repository in a
// directory target.
const KindInitRepository operation.Kind = "git.init"

// InitRepository creates the .git directory of its
// target.
type InitRepository struct {
	target      *filestate.Target
	initialized bool
}

// NewInitRepository returns the operation for t.
func NewInitRepository(t *filestate.Target) *InitRepository {
	return &InitRepository{target: t}
}

// InitRepositoryFactory returns the factory of
// InitRepository.
func InitRepositoryFactory() operation.Factory {
	return operation.Factory{
		Kind:       KindInitRepository,
		Applicable: InitApplicable,
		New: func(t *filestate.Target) operation.Operation {
			return NewInitRepository(t)
		},
	}
}

// InitApplicable reports whether t is a directory whose
// git option asks for a repository that is not yet
// initialized.
func InitApplicable(t *filestate.Target) (bool, error) {
	if !t.IsDir() || !t.ShouldExist() {
		return false, nil
	}

	cfg, ok, err := ConfigOf(t)
	if err != nil {
		return false, err
	}

	if !ok || !cfg.Enabled {
		return false, nil
	}

	return !git.IsInitialized(t.Path), nil
}

// Kind returns KindInitRepository.
func (o *InitRepository) Kind() operation.Kind {
	return KindInitRepository
}

// Target returns the directory target.
func (o *InitRepository) Target() *filestate.Target {
	return o.target
}

// Dependencies waits for the directory to exist.
func (o *InitRepository) Dependencies() []operation.Kind {
	return []operation.Kind{operation.KindCreateDirectory}
}

// Apply initializes the repository.
func (o *InitRepository) Apply(context.Context) error {
	const errCtx = "initializing repository"

	if _, err := git.Init(o.target.Path); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	o.initialized = true

	return nil
}

// Undo removes the .git directory when Apply created
// it.
func (o *InitRepository) Undo(context.Context) error {
	const errCtx = "removing repository"

	if !o.initialized {
		return nil
	}

	if err := git.RemoveMetadata(o.target.Path); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	o.initialized = false

	return nil
}

// Description returns "Initialize .git directory".
func (o *InitRepository) Description() string {
	return "Initialize .git directory"
}

// DescribeBefore returns "No initialized .git
// directory".
func (o *InitRepository) DescribeBefore() string {
	return "No initialized .git directory"
}

// DescribeAfter returns "Initialized .git directory".
func (o *InitRepository) DescribeAfter() string {
	return "Initialized .git directory"
}
