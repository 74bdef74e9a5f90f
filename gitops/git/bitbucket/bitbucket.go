package bitbucket

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strings"

	json "github.com/goccy/go-json"

	"github.com/byte4ever/gitstate/gitops/git"
)

// Environment variables read by NewProviderFromEnv.
const (
	EnvAPIUser    = "BITBUCKET_API_USER"
	EnvAPIToken   = "BITBUCKET_API_TOKEN"
	EnvDefaultURL = "BITBUCKET_DEFAULT_URL"
)

// ProviderName identifies the platform.
const ProviderName = "bitbucket"

const apiPrefix = "/rest/api/1.0"

var hostSignature = regexp.MustCompile(`bitbucket\.[^/:]+[:/]`)

// Config holds the settings needed to create a
// Bitbucket repository provider.
type Config struct {
	// BaseURL is the Bitbucket Server address
	// (e.g. "https://bitbucket.example.com").
	BaseURL string
	// User is the Bitbucket API username.
	User string
	// Password is the Bitbucket API password (or
	// personal access token).
	Password string
	// HTTPClient defaults to http.DefaultClient.
	HTTPClient *http.Client
}

// Provider manages repositories on Bitbucket Server.
//
// Pattern: Strategy -- implements git.RemoteProvider.
type Provider struct {
	base     string
	user     string
	password string
	client   *http.Client
}

type project struct {
	Key string `json:"key,omitempty"`
}

type link struct {
	Href string `json:"href"`
	Name string `json:"name,omitempty"`
}

type links struct {
	Clone []link `json:"clone,omitempty"`
	Self  []link `json:"self,omitempty"`
}

type repository struct {
	ID      int64    `json:"id,omitempty"`
	Slug    string   `json:"slug,omitempty"`
	Name    string   `json:"name,omitempty"`
	SCMID   string   `json:"scmId,omitempty"`
	Public  bool     `json:"public"`
	Project *project `json:"project,omitempty"`
	Links   *links   `json:"links,omitempty"`
}

// NewProvider validates cfg and returns a Provider.
func NewProvider(cfg Config) (*Provider, error) {
	const errCtx = "creating bitbucket provider"

	if cfg.BaseURL == "" {
		return nil, fmt.Errorf(
			"%s: base url must be set", errCtx,
		)
	}

	if _, err := url.ParseRequestURI(cfg.BaseURL); err != nil {
		return nil, fmt.Errorf(
			"%s: base url: %w", errCtx, err,
		)
	}

	if cfg.User == "" {
		return nil, fmt.Errorf(
			"%s: user must be set", errCtx,
		)
	}

	if cfg.Password == "" {
		return nil, fmt.Errorf(
			"%s: password must be set", errCtx,
		)
	}

	client := cfg.HTTPClient
	if client == nil {
		client = http.DefaultClient
	}

	return &Provider{
		base:     strings.TrimSuffix(cfg.BaseURL, "/"),
		user:     cfg.User,
		password: cfg.Password,
		client:   client,
	}, nil
}

// NewProviderFromEnv builds a Provider from the
// BITBUCKET_* variables returned by getenv.
func NewProviderFromEnv(
	getenv func(string) string,
) (*Provider, error) {
	return NewProvider(Config{
		BaseURL:  getenv(EnvDefaultURL),
		User:     getenv(EnvAPIUser),
		Password: getenv(EnvAPIToken),
	})
}

// Factory describes the Bitbucket provider to a
// git.ProviderSet.
func Factory() git.ProviderFactory {
	return git.ProviderFactory{
		Name:    ProviderName,
		Detect:  Detect,
		EnvKeys: []string{EnvAPIUser, EnvAPIToken, EnvDefaultURL},
		New: func(
			getenv func(string) string,
		) (git.RemoteProvider, error) {
			return NewProviderFromEnv(getenv)
		},
	}
}

// Detect reports whether url points at a bitbucket.*
// host.
func Detect(url string) bool {
	return hostSignature.MatchString(url)
}

// Name returns "bitbucket".
func (p *Provider) Name() string {
	return ProviderName
}

// Detect reports whether url points at a bitbucket.*
// host.
func (p *Provider) Detect(url string) bool {
	return Detect(url)
}

// ExpectedEnvKeys lists the user, token and server URL
// variables.
func (p *Provider) ExpectedEnvKeys() []string {
	return []string{EnvAPIUser, EnvAPIToken, EnvDefaultURL}
}

// ParseRepositoryURL splits a clone URL into project key
// and repository slug. Bitbucket Server "scm/" path
// prefixes are not part of the namespace.
func (p *Provider) ParseRepositoryURL(
	url string,
) git.RepositoryInfo {
	return git.ParseRepositoryURL(url)
}

// projectKey maps an empty namespace to the user's
// personal project.
func (p *Provider) projectKey(namespace string) string {
	if namespace == "" {
		return "~" + p.user
	}

	return namespace
}

func (p *Provider) reposURL(namespace string) string {
	return p.base + apiPrefix + "/projects/" +
		url.PathEscape(p.projectKey(namespace)) + "/repos"
}

// CheckRepositoryExists returns true only when the
// repository lookup answers 200.
func (p *Provider) CheckRepositoryExists(
	ctx context.Context,
	name string,
	namespace string,
) bool {
	resp, err := p.do(
		ctx,
		http.MethodGet,
		p.reposURL(namespace)+"/"+url.PathEscape(name),
		nil,
	)
	if err != nil {
		slog.Debug(
			"bitbucket repository lookup failed",
			"namespace", namespace,
			"name", name,
			"error", err,
		)

		return false
	}

	defer resp.Body.Close() //nolint:errcheck

	_, _ = io.Copy(io.Discard, resp.Body) //nolint:errcheck

	return resp.StatusCode == http.StatusOK
}

// CreateRepository creates a git repository in the
// project opts.Namespace, or in the user's personal
// project when it is empty. Only HTTP 201 is accepted.
func (p *Provider) CreateRepository(
	ctx context.Context,
	opts git.CreateOptions,
) (*git.Repository, error) {
	const errCtx = "creating bitbucket repository"

	payload, err := json.Marshal(&repository{
		Name:   opts.Name,
		SCMID:  "git",
		Public: !opts.Private,
	})
	if err != nil {
		return nil, fmt.Errorf(
			"%s: marshal request: %w", errCtx, err,
		)
	}

	resp, err := p.do(
		ctx,
		http.MethodPost,
		p.reposURL(opts.Namespace),
		payload,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s %s: %w", errCtx, opts.Name, err,
		)
	}

	defer resp.Body.Close() //nolint:errcheck

	rb, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf(
			"%s %s: read response: %w",
			errCtx, opts.Name, err,
		)
	}

	if resp.StatusCode != http.StatusCreated {
		slog.Warn(
			"bitbucket response",
			"status", resp.Status,
			"body", string(rb),
		)

		return nil, fmt.Errorf(
			"%s %s: unexpected status %d",
			errCtx, opts.Name, resp.StatusCode,
		)
	}

	var created repository
	if err := json.Unmarshal(rb, &created); err != nil {
		return nil, fmt.Errorf(
			"%s %s: decode response: %w",
			errCtx, opts.Name, err,
		)
	}

	repo := &git.Repository{
		ID:   created.ID,
		Name: created.Slug,
	}

	if created.Project != nil {
		repo.Namespace = created.Project.Key
	}

	if created.Links != nil {
		for _, l := range created.Links.Self {
			repo.WebURL = l.Href
		}

		for _, l := range created.Links.Clone {
			switch l.Name {
			case "http", "https":
				repo.CloneURL = l.Href
			case "ssh":
				repo.SSHURL = l.Href
			}
		}
	}

	slog.Info(
		"created bitbucket repository",
		"namespace", repo.Namespace,
		"name", repo.Name,
	)

	return repo, nil
}

func (p *Provider) do(
	ctx context.Context,
	method string,
	endpoint string,
	payload []byte,
) (*http.Response, error) {
	const errCtx = "bitbucket request"

	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(
		ctx, method, endpoint, body,
	)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: build request: %w", errCtx, err,
		)
	}

	req.Header.Set("Accept", "application/json")

	if payload != nil {
		req.Header.Set(
			"Content-Type",
			"application/json; charset=utf-8",
		)
	}

	req.SetBasicAuth(p.user, p.password)

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf(
			"%s: send request: %w", errCtx, err,
		)
	}

	return resp, nil
}
