package gitop

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"maps"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/gitops/git"
	"github.com/byte4ever/gitstate/operation"
)

// KindConfigureRemote adds the declared remotes to a
// repository.
const KindConfigureRemote operation.Kind = "git.remote"

// ConfigureRemote adds missing remotes to the
// repository of its target.
type ConfigureRemote struct {
	target    *filestate.Target
	providers *git.ProviderSet

	// createdRemotes maps a resolved remote name to
	// whether this operation created it.
	createdRemotes map[string]bool
}

// NewConfigureRemote returns the operation for t.
// providers may be nil, in which case "create" entries
// are skipped.
func NewConfigureRemote(
	t *filestate.Target,
	providers *git.ProviderSet,
) *ConfigureRemote {
	return &ConfigureRemote{
		target:         t,
		providers:      providers,
		createdRemotes: make(map[string]bool),
	}
}

// ConfigureRemoteFactory returns the factory of
// ConfigureRemote using providers for hosted
// repositories.
func ConfigureRemoteFactory(
	providers *git.ProviderSet,
) operation.Factory {
	return operation.Factory{
		Kind:       KindConfigureRemote,
		Applicable: RemoteApplicable,
		New: func(t *filestate.Target) operation.Operation {
			return NewConfigureRemote(t, providers)
		},
	}
}

// RemoteApplicable reports whether t declares remotes
// and either its repository still has to be initialized
// or one of the declared remotes is missing.
func RemoteApplicable(t *filestate.Target) (bool, error) {
	const errCtx = "checking remotes"

	cfg, ok, err := ConfigOf(t)
	if err != nil {
		return false, err
	}

	if !ok || !cfg.Structured || len(cfg.Remotes) == 0 {
		return false, nil
	}

	initNeeded, err := InitApplicable(t)
	if err != nil || initNeeded {
		return initNeeded, err
	}

	if !t.IsDir() || !git.IsInitialized(t.Path) {
		return false, nil
	}

	repo, err := git.Open(t.Path)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	vars := PatternVars(t)

	for _, rc := range cfg.Remotes {
		name, err := rc.Name.Resolve(vars)
		if err != nil {
			return false, fmt.Errorf("%s: %w", errCtx, err)
		}

		has, err := repo.HasRemote(name)
		if err != nil {
			return false, fmt.Errorf("%s: %w", errCtx, err)
		}

		if !has {
			return true, nil
		}
	}

	return false, nil
}

// Kind returns KindConfigureRemote.
func (o *ConfigureRemote) Kind() operation.Kind {
	return KindConfigureRemote
}

// Target returns the repository target.
func (o *ConfigureRemote) Target() *filestate.Target {
	return o.target
}

// Dependencies waits for the repository.
func (o *ConfigureRemote) Dependencies() []operation.Kind {
	return []operation.Kind{KindInitRepository}
}

// Apply resolves every declared remote and creates the
// ones that are missing. Existing remotes are kept as
// they are. When an entry fails, the remotes added by
// this call are removed again before returning.
func (o *ConfigureRemote) Apply(ctx context.Context) error {
	const errCtx = "configuring remotes"

	cfg, _, err := ConfigOf(o.target)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	repo, err := git.Open(o.target.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	var added []string

	if err := o.addRemotes(ctx, repo, cfg, &added); err != nil {
		if rbErr := o.removeAdded(repo, added); rbErr != nil {
			return fmt.Errorf(
				"%s: %w (rollback: %w)", errCtx, err, rbErr,
			)
		}

		return fmt.Errorf("%s: %w", errCtx, err)
	}

	return nil
}

// addRemotes creates the missing remotes of cfg and
// appends the names it created to added.
func (o *ConfigureRemote) addRemotes(
	ctx context.Context,
	repo *git.Repo,
	cfg Config,
	added *[]string,
) error {
	vars := PatternVars(o.target)

	for _, rc := range cfg.Remotes {
		name, err := rc.Name.Resolve(vars)
		if err != nil {
			return fmt.Errorf("name: %w", err)
		}

		url, err := rc.URL.Resolve(vars)
		if err != nil {
			return fmt.Errorf("url: %w", err)
		}

		if rc.Create {
			if err := o.ensureHosted(ctx, url); err != nil {
				return fmt.Errorf("%s: %w", name, err)
			}
		}

		created, err := repo.CreateRemoteOnce(name, url)
		if err != nil {
			return err
		}

		if created {
			*added = append(*added, name)
		}

		// A remote created earlier in the cycle stays
		// owned even if a later entry reuses its name.
		if !o.createdRemotes[name] {
			o.createdRemotes[name] = created
		}
	}

	return nil
}

// removeAdded deletes the remotes created by a failed
// Apply call and forgets them.
func (o *ConfigureRemote) removeAdded(
	repo *git.Repo,
	added []string,
) error {
	var errs []error

	for _, name := range added {
		if err := repo.DeleteRemote(name); err != nil {
			errs = append(errs, err)

			continue
		}

		delete(o.createdRemotes, name)
	}

	return errors.Join(errs...)
}

func (o *ConfigureRemote) ensureHosted(
	ctx context.Context,
	url string,
) error {
	if o.providers == nil {
		slog.Warn(
			"no provider set, hosted repository not checked",
			"url", url,
		)

		return nil
	}

	provider, err := o.providers.ForURL(url)
	if err != nil {
		return err
	}

	_, err = git.CreateRepositoryIfNotExists(ctx, provider, url)

	return err
}

// Undo deletes the remotes this operation created and
// forgets them. Hosted repositories are left in place.
func (o *ConfigureRemote) Undo(context.Context) error {
	const errCtx = "removing remotes"

	if len(o.createdRemotes) == 0 {
		return nil
	}

	defer clear(o.createdRemotes)

	cfg, _, err := ConfigOf(o.target)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	repo, err := git.Open(o.target.Path)
	if err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	vars := PatternVars(o.target)

	for _, rc := range cfg.Remotes {
		name, err := rc.Name.Resolve(vars)
		if err != nil {
			return fmt.Errorf("%s: name: %w", errCtx, err)
		}

		if !o.createdRemotes[name] {
			continue
		}

		if err := repo.DeleteRemote(name); err != nil {
			return fmt.Errorf("%s: %w", errCtx, err)
		}

		// Duplicate entries must not delete twice.
		o.createdRemotes[name] = false
	}

	return nil
}

// Description returns "Add remote in .git directory".
func (o *ConfigureRemote) Description() string {
	return "Add remote in .git directory"
}

// DescribeBefore returns "Remote missing in .git
// directory".
func (o *ConfigureRemote) DescribeBefore() string {
	return "Remote missing in .git directory"
}

// DescribeAfter returns "Remote added .git directory".
func (o *ConfigureRemote) DescribeAfter() string {
	return "Remote added .git directory"
}

// CreatedRemotes returns a copy of the created-remote
// registry.
func (o *ConfigureRemote) CreatedRemotes() map[string]bool {
	return maps.Clone(o.createdRemotes)
}
