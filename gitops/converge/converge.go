package converge

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/joho/godotenv"
	"github.com/spf13/afero"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/gitops/git"
	"github.com/byte4ever/gitstate/gitops/git/bitbucket"
	"github.com/byte4ever/gitstate/gitops/git/github"
	"github.com/byte4ever/gitstate/gitops/git/gitlab"
	"github.com/byte4ever/gitstate/gitops/gitop"
	"github.com/byte4ever/gitstate/operation"
)

// Config holds all settings for a convergence run.
type Config struct {
	// ConfigPath is the YAML desired-state file.
	ConfigPath string

	// Root is the directory the tree is rooted at.
	// Defaults to the directory of ConfigPath.
	Root string

	// EnvFile is an optional .env file providing
	// provider credentials. Process environment
	// variables take precedence.
	EnvFile string

	// DryRun plans and logs without applying.
	DryRun bool

	// RollbackOnError undoes applied operations when
	// one fails.
	RollbackOnError bool

	// Providers backs "create: true" remotes. Built
	// from the environment when nil.
	Providers *git.ProviderSet

	// Fs is the filesystem for directory operations.
	// Defaults to the OS filesystem.
	Fs afero.Fs
}

// Factories returns the supported hosting platforms in
// detection order.
func Factories() []git.ProviderFactory {
	return []git.ProviderFactory{
		github.Factory(),
		gitlab.Factory(),
		bitbucket.Factory(),
	}
}

// DefaultProviderSet returns a provider set over every
// supported platform reading credentials with getenv.
func DefaultProviderSet(
	getenv func(string) string,
) *git.ProviderSet {
	return git.NewProviderSet(getenv, Factories()...)
}

// EnvLookup returns a getenv function reading the
// process environment first and envFile second. An
// empty envFile yields os.Getenv.
func EnvLookup(envFile string) (func(string) string, error) {
	const errCtx = "loading env file"

	if envFile == "" {
		return os.Getenv, nil
	}

	values, err := godotenv.Read(envFile)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: %s: %w", errCtx, envFile, err,
		)
	}

	slog.Debug(
		"loaded env file",
		"path", envFile,
		"keys", len(values),
	)

	return func(key string) string {
		if val, ok := os.LookupEnv(key); ok && val != "" {
			return val
		}

		return values[key]
	}, nil
}

// Plan loads the configuration and plans the run
// without applying anything.
func Plan(ctx context.Context, cfg Config) (*operation.Plan, error) {
	const errCtx = "planning convergence"

	providers := cfg.Providers
	if providers == nil {
		getenv, err := EnvLookup(cfg.EnvFile)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", errCtx, err)
		}

		providers = DefaultProviderSet(getenv)
	}

	fs := cfg.Fs
	if fs == nil {
		fs = afero.NewOsFs()
	}

	opts := filestate.DefaultOptionRegistry()
	ops := operation.DefaultRegistry(fs)

	if err := gitop.Register(opts, ops, providers); err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	root := cfg.Root
	if root == "" {
		root = filepath.Dir(cfg.ConfigPath)
	}

	tree, err := filestate.LoadConfigFile(cfg.ConfigPath, root, opts)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	plan, err := operation.NewPlan(ctx, tree, ops)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return plan, nil
}

// Run plans and, unless DryRun is set, applies the
// plan. The returned plan reflects what was applied.
func Run(ctx context.Context, cfg Config) (*operation.Plan, error) {
	const errCtx = "running convergence"

	plan, err := Plan(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	for _, step := range plan.Steps() {
		slog.Info(
			"planned",
			"kind", step.Kind,
			"path", step.Path,
			"before", step.Before,
			"after", step.After,
		)
	}

	if cfg.DryRun {
		slog.Info(
			"dry run: skipping apply",
			"operations", len(plan.Operations()),
		)

		return plan, nil
	}

	applyErr := plan.Apply(ctx)
	if applyErr == nil {
		slog.Info(
			"converged",
			"root", plan.Root().Path,
			"applied", len(plan.Applied()),
		)

		return plan, nil
	}

	if !cfg.RollbackOnError {
		return plan, fmt.Errorf("%s: %w", errCtx, applyErr)
	}

	slog.Warn(
		"apply failed, rolling back",
		"applied", len(plan.Applied()),
		"error", applyErr,
	)

	// Rollback runs even when ctx is done.
	if undoErr := plan.Undo(context.WithoutCancel(ctx)); undoErr != nil {
		return plan, fmt.Errorf(
			"%s: %w (rollback: %w)", errCtx, applyErr, undoErr,
		)
	}

	return plan, fmt.Errorf("%s: %w", errCtx, applyErr)
}

// EnsureRemote creates the hosted repository behind url
// unless it exists. Returns nil when nothing was
// created.
func EnsureRemote(
	ctx context.Context,
	set *git.ProviderSet,
	url string,
) (*git.Repository, error) {
	const errCtx = "ensuring remote"

	provider, err := set.ForURL(url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	repo, err := git.CreateRepositoryIfNotExists(ctx, provider, url)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", errCtx, err)
	}

	return repo, nil
}
