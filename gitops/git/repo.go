package git

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
)

// MetadataDir is the name of the repository metadata
// directory inside a working tree.
const MetadataDir = ".git"

// Repo is a local, non-bare repository. Create with Init
// or Open.
type Repo struct {
	// Dir is the working tree location.
	Dir string

	repo *gogit.Repository
}

// IsInitialized reports whether dir holds a repository
// of its own. Repositories of parent directories do not
// count.
func IsInitialized(dir string) bool {
	_, err := gogit.PlainOpen(dir)

	return err == nil
}

// Init creates a new repository in dir. The directory
// must exist.
func Init(dir string) (*Repo, error) {
	const errCtx = "initializing repository"

	repo, err := gogit.PlainInit(dir, false)
	if err != nil {
		return nil, fmt.Errorf(
			"%s %s: %w", errCtx, dir, err,
		)
	}

	slog.Info("initialized repository", "dir", dir)

	return &Repo{Dir: dir, repo: repo}, nil
}

// Open opens the repository whose working tree is dir.
func Open(dir string) (*Repo, error) {
	const errCtx = "opening repository"

	repo, err := gogit.PlainOpen(dir)
	if err != nil {
		return nil, fmt.Errorf(
			"%s %s: %w", errCtx, dir, err,
		)
	}

	return &Repo{Dir: dir, repo: repo}, nil
}

// RemoveMetadata deletes the metadata directory of the
// repository in dir, leaving the working tree files in
// place.
func RemoveMetadata(dir string) error {
	const errCtx = "removing repository metadata"

	if err := os.RemoveAll(
		filepath.Join(dir, MetadataDir),
	); err != nil {
		return fmt.Errorf("%s: %w", errCtx, err)
	}

	slog.Info("removed repository metadata", "dir", dir)

	return nil
}

// RemoteNames returns the configured remote names in
// sorted order.
func (r *Repo) RemoteNames() ([]string, error) {
	const errCtx = "listing remotes"

	remotes, err := r.repo.Remotes()
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	names := make([]string, 0, len(remotes))
	for _, rm := range remotes {
		names = append(names, rm.Config().Name)
	}

	sort.Strings(names)

	return names, nil
}

// HasRemote reports whether a remote called name is
// configured.
func (r *Repo) HasRemote(name string) (bool, error) {
	_, err := r.repo.Remote(name)
	if errors.Is(err, gogit.ErrRemoteNotFound) {
		return false, nil
	}

	if err != nil {
		return false, fmt.Errorf(
			"looking up remote %s: %w", name, err,
		)
	}

	return true, nil
}

// RemoteURL returns the first URL of remote name.
func (r *Repo) RemoteURL(name string) (string, error) {
	const errCtx = "reading remote url"

	rm, err := r.repo.Remote(name)
	if err != nil {
		return "", fmt.Errorf(
			"%s %s: %w", errCtx, name, err,
		)
	}

	urls := rm.Config().URLs
	if len(urls) == 0 {
		return "", fmt.Errorf(
			"%s %s: no url configured", errCtx, name,
		)
	}

	return urls[0], nil
}

// CreateRemoteOnce adds remote name pointing at url
// unless a remote with that name already exists, in
// which case the existing remote is left untouched.
// Returns true when the remote was created by this call.
func (r *Repo) CreateRemoteOnce(
	name string,
	url string,
) (bool, error) {
	const errCtx = "creating remote"

	exists, err := r.HasRemote(name)
	if err != nil {
		return false, fmt.Errorf("%s: %w", errCtx, err)
	}

	if exists {
		slog.Info(
			"keeping existing remote",
			"dir", r.Dir,
			"remote", name,
		)

		return false, nil
	}

	if _, err := r.repo.CreateRemote(&config.RemoteConfig{
		Name: name,
		URLs: []string{url},
	}); err != nil {
		return false, fmt.Errorf(
			"%s %s: %w", errCtx, name, err,
		)
	}

	slog.Info(
		"created remote",
		"dir", r.Dir,
		"remote", name,
		"url", url,
	)

	return true, nil
}

// DeleteRemote removes remote name.
func (r *Repo) DeleteRemote(name string) error {
	const errCtx = "deleting remote"

	if err := r.repo.DeleteRemote(name); err != nil {
		return fmt.Errorf(
			"%s %s: %w", errCtx, name, err,
		)
	}

	slog.Info(
		"deleted remote",
		"dir", r.Dir,
		"remote", name,
	)

	return nil
}
