package git

import (
	"context"
	"fmt"
	"log/slog"
)

// Pattern: Strategy -- swap hosting platform without
// changing remote reconciliation logic.

// RepositoryInfo identifies a hosted repository.
// Namespace is the owning user, organisation or project
// and may be empty.
type RepositoryInfo struct {
	Name      string
	Namespace string
}

// CreateOptions describes a repository to create.
type CreateOptions struct {
	Name        string
	Description string
	Private     bool
	// Namespace is the organisation, group or project
	// to create the repository in. Empty means the
	// authenticated account.
	Namespace string
}

// Repository describes a repository created on a
// hosting platform.
type Repository struct {
	ID        int64
	Name      string
	Namespace string
	WebURL    string
	CloneURL  string
	SSHURL    string
}

// RemoteProvider manages repositories on a hosting
// platform.
type RemoteProvider interface {
	// Name returns the short platform identifier.
	Name() string

	// Detect reports whether url points at this
	// platform. It is pure and makes no request.
	Detect(url string) bool

	// ParseRepositoryURL splits url into namespace and
	// repository name.
	ParseRepositoryURL(url string) RepositoryInfo

	// CheckRepositoryExists reports whether the
	// repository exists. Any failure, including
	// transport errors and unexpected statuses, is
	// reported as false.
	CheckRepositoryExists(
		ctx context.Context,
		name string,
		namespace string,
	) bool

	// CreateRepository creates a repository. Any
	// status other than the platform's creation
	// status is an error.
	CreateRepository(
		ctx context.Context,
		opts CreateOptions,
	) (*Repository, error)

	// ExpectedEnvKeys lists the environment variables
	// the provider needs to be built from the
	// environment.
	ExpectedEnvKeys() []string
}

// CreateRepositoryIfNotExists parses url with p and
// creates the repository unless it already exists.
// Returns nil without error when nothing was created.
func CreateRepositoryIfNotExists(
	ctx context.Context,
	p RemoteProvider,
	url string,
) (*Repository, error) {
	const errCtx = "ensuring hosted repository"

	info := p.ParseRepositoryURL(url)
	if info.Name == "" {
		return nil, fmt.Errorf(
			"%s: no repository name in %q", errCtx, url,
		)
	}

	if p.CheckRepositoryExists(
		ctx, info.Name, info.Namespace,
	) {
		slog.Info(
			"hosted repository exists",
			"provider", p.Name(),
			"namespace", info.Namespace,
			"name", info.Name,
		)

		return nil, nil //nolint:nilnil // nothing created
	}

	created, err := p.CreateRepository(ctx, CreateOptions{
		Name:      info.Name,
		Namespace: info.Namespace,
	})
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return created, nil
}
