package gitlab

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"regexp"

	gl "gitlab.com/gitlab-org/api/client-go"

	"github.com/byte4ever/gitstate/gitops/git"
)

// Environment variables read by NewProviderFromEnv.
const (
	EnvAPIToken   = "GITLAB_API_TOKEN"
	EnvDefaultURL = "GITLAB_DEFAULT_URL"
)

// ProviderName identifies the platform.
const ProviderName = "gitlab"

const defaultHost = "https://gitlab.com"

var hostSignature = regexp.MustCompile(`gitlab\.com[:/]`)

// Config holds the settings needed to create a GitLab
// repository provider.
type Config struct {
	// Host is the base URL of the GitLab instance
	// (e.g. "https://gitlab.com").
	Host string
	// AccessToken is a personal or group access
	// token used for authentication.
	AccessToken string
}

// Provider manages projects on GitLab.
//
// Pattern: Strategy -- implements git.RemoteProvider.
type Provider struct {
	client *gl.Client
}

// NewProvider validates cfg and returns a Provider.
// Client retries are disabled so every call is a single
// request.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating gitlab provider"

	if cfg.AccessToken == "" {
		return nil, fmt.Errorf(
			"%s: access token must be set", errCtx,
		)
	}

	host := cfg.Host
	if host == "" {
		host = defaultHost
	}

	client, err := gl.NewClient(
		cfg.AccessToken,
		gl.WithBaseURL(host),
		gl.WithoutRetries(),
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: new client: %w", errCtx, err,
		)
	}

	return &Provider{client: client}, nil
}

// NewProviderFromEnv builds a Provider from
// GITLAB_API_TOKEN and GITLAB_DEFAULT_URL as returned by
// getenv.
func NewProviderFromEnv(
	getenv func(string) string,
) (*Provider, error) {
	return NewProvider(Config{
		Host:        getenv(EnvDefaultURL),
		AccessToken: getenv(EnvAPIToken),
	})
}

// Factory describes the GitLab provider to a
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

// Detect reports whether url points at gitlab.com.
func Detect(url string) bool {
	return hostSignature.MatchString(url)
}

// Name returns "gitlab".
func (p *Provider) Name() string {
	return ProviderName
}

// Detect reports whether url points at gitlab.com.
func (p *Provider) Detect(url string) bool {
	return Detect(url)
}

// ExpectedEnvKeys lists GITLAB_API_TOKEN.
func (p *Provider) ExpectedEnvKeys() []string {
	return []string{EnvAPIToken}
}

// ParseRepositoryURL splits a GitLab URL into group
// and project name. Only the innermost group is kept.
func (p *Provider) ParseRepositoryURL(
	url string,
) git.RepositoryInfo {
	return git.ParseRepositoryURL(url)
}

// CheckRepositoryExists looks up namespace/name, or
// searches the caller's own projects when namespace is
// empty.
func (p *Provider) CheckRepositoryExists(
	ctx context.Context,
	name string,
	namespace string,
) bool {
	if namespace != "" {
		_, resp, err := p.client.Projects.GetProject(
			namespace+"/"+name,
			nil,
			gl.WithContext(ctx),
		)
		if err != nil {
			slog.Debug(
				"gitlab project lookup failed",
				"namespace", namespace,
				"name", name,
				"error", err,
			)
		}

		return resp != nil &&
			resp.StatusCode == http.StatusOK
	}

	opts := &gl.ListProjectsOptions{
		ListOptions: gl.ListOptions{PerPage: 100},
		Owned:       gl.Ptr(true),
		Search:      gl.Ptr(name),
	}

	for {
		projects, resp, err := p.client.Projects.
			ListProjects(opts, gl.WithContext(ctx))
		if err != nil {
			slog.Debug(
				"gitlab project listing failed",
				"error", err,
			)

			return false
		}

		for _, prj := range projects {
			if prj.Path == name || prj.Name == name {
				return true
			}
		}

		if resp.NextPage == 0 {
			return false
		}

		opts.Page = resp.NextPage
	}
}

// CreateRepository creates a project in the group
// opts.Namespace, or in the caller's personal namespace
// when it is empty. Only HTTP 201 is accepted.
func (p *Provider) CreateRepository(
	ctx context.Context,
	opts git.CreateOptions,
) (*git.Repository, error) {
	const errCtx = "creating gitlab project"

	visibility := gl.PublicVisibility
	if opts.Private {
		visibility = gl.PrivateVisibility
	}

	req := &gl.CreateProjectOptions{
		Name:                 gl.Ptr(opts.Name),
		Description:          gl.Ptr(opts.Description),
		Visibility:           gl.Ptr(visibility),
		InitializeWithReadme: gl.Ptr(true),
	}

	if opts.Namespace != "" {
		ns, _, err := p.client.Namespaces.GetNamespace(
			opts.Namespace, gl.WithContext(ctx),
		)
		if err != nil {
			return nil, fmt.Errorf(
				"%s %s: namespace %s: %w",
				errCtx, opts.Name, opts.Namespace, err,
			)
		}

		req.NamespaceID = gl.Ptr(ns.ID)
	}

	created, resp, err := p.client.Projects.CreateProject(
		req, gl.WithContext(ctx),
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
		"created gitlab project",
		"url", created.WebURL,
	)

	repo := &git.Repository{
		ID:       int64(created.ID),
		Name:     created.Path,
		WebURL:   created.WebURL,
		CloneURL: created.HTTPURLToRepo,
		SSHURL:   created.SSHURLToRepo,
	}

	if created.Namespace != nil {
		repo.Namespace = created.Namespace.FullPath
	}

	return repo, nil
}
