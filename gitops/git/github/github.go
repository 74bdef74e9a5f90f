package github

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	gh "github.com/google/go-github/v68/github"

	"github.com/byte4ever/gitstate/gitops/git"
)

// Environment variables read by NewProviderFromEnv.
const (
	EnvAPIToken   = "GITHUB_API_TOKEN"
	EnvDefaultURL = "GITHUB_DEFAULT_URL"
)

// ProviderName identifies the platform.
const ProviderName = "github"

var hostSignature = regexp.MustCompile(`github\.com[:/]`)

// Config holds the settings needed to create a GitHub
// repository provider.
type Config struct {
	// AccessToken is a personal access token or
	// GitHub App token used for authentication.
	AccessToken string
	// BaseURL optionally replaces the REST API base
	// address (default https://api.github.com/).
	BaseURL string
}

// Provider manages repositories on GitHub.
//
// Pattern: Strategy -- implements git.RemoteProvider.
type Provider struct {
	client *gh.Client
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating github provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	client := gh.NewClient(nil).
		WithAuthToken(cfg.AccessToken)

	if cfg.BaseURL != "" {
		base := cfg.BaseURL
		if !strings.HasSuffix(base, "/") {
			base += "/"
		}

		parsed, err := url.Parse(base)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: base url: %w", errCtx, err,
			)
		}

		client.BaseURL = parsed
	}

	return &Provider{client: client}, nil
}

// NewProviderFromEnv builds a Provider from
// GITHUB_API_TOKEN and GITHUB_DEFAULT_URL as returned by
// getenv.
func NewProviderFromEnv(
	getenv func(string) string,
) (*Provider, error) {
	return NewProvider(Config{
		AccessToken: getenv(EnvAPIToken),
		BaseURL:     getenv(EnvDefaultURL),
	})
}

// Factory describes the GitHub provider to a
// git.ProviderSet.
func Factory() git.ProviderFactory {
	return git.ProviderFactory{
		Name:    ProviderName,
		Detect:  Detect,
		EnvKeys: []string{EnvAPIToken},
		New: func(
			getenv func(string) string,
		) (git.RemoteProvider, error) {
			return NewProviderFromEnv(getenv)
		},
	}
}

// Detect reports whether url points at github.com.
func Detect(url string) bool {
	return hostSignature.MatchString(url)
}

// Name returns "github".
func (p *Provider) Name() string {
	return ProviderName
}

// Detect reports whether url points at github.com.
func (p *Provider) Detect(url string) bool {
	return Detect(url)
}

// ExpectedEnvKeys lists GITHUB_API_TOKEN.
func (p *Provider) ExpectedEnvKeys() []string {
	return []string{EnvAPIToken}
}

// ParseRepositoryURL splits a GitHub https or SSH URL
// into owner and repository name.
func (p *Provider) ParseRepositoryURL(
	url string,
) git.RepositoryInfo {
	return git.ParseRepositoryURL(url)
}

// CheckRepositoryExists looks up namespace/name, or
// scans the authenticated user's repositories when
// namespace is empty. Errors are logged and reported as
// false.
func (p *Provider) CheckRepositoryExists(
	ctx context.Context,
	name string,
	namespace string,
) bool {
	if namespace != "" {
		_, resp, err := p.client.Repositories.Get(
			ctx, namespace, name,
		)
		if err != nil {
			slog.Debug(
				"github repository lookup failed",
				"namespace", namespace,
				"name", name,
				"error", err,
			)
		}

		return resp != nil &&
			resp.StatusCode == http.StatusOK
	}

	opts := &gh.RepositoryListByAuthenticatedUserOptions{
		ListOptions: gh.ListOptions{PerPage: 100},
	}

	for {
		repos, resp, err := p.client.Repositories.
			ListByAuthenticatedUser(ctx, opts)
		if err != nil {
			slog.Debug(
				"github repository listing failed",
				"error", err,
			)

			return false
		}

		for _, repo := range repos {
			if repo.GetName() == name {
				return true
			}
		}

		if resp.NextPage == 0 {
			return false
		}

		opts.Page = resp.NextPage
	}
}

// CreateRepository creates a repository under the
// organisation opts.Namespace, or under the
// authenticated user when it is empty. Only HTTP 201 is
// accepted.
func (p *Provider) CreateRepository(
	ctx context.Context,
	opts git.CreateOptions,
) (*git.Repository, error) {
	const errCtx = "creating github repository"

	created, resp, err := p.client.Repositories.Create(
		ctx,
		opts.Namespace,
		&gh.Repository{
			Name:        gh.Ptr(opts.Name),
			Description: gh.Ptr(opts.Description),
			Private:     gh.Ptr(opts.Private),
			AutoInit:    gh.Ptr(true),
		},
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s %s: %w", errCtx, opts.Name, err,
		)
	}

	if resp.StatusCode != http.StatusCreated {
		return nil, fmt.Errorf(
			"%s %s: unexpected status %d",
			errCtx, opts.Name, resp.StatusCode,
		)
	}

	slog.Info(
		"created github repository",
		"url", created.GetHTMLURL(),
	)

	return &git.Repository{
		ID:        created.GetID(),
		Name:      created.GetName(),
		Namespace: created.GetOwner().GetLogin(),
		WebURL:    created.GetHTMLURL(),
		CloneURL:  created.GetCloneURL(),
		SSHURL:    created.GetSSHURL(),
	}, nil
}
