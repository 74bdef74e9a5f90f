package git

import (
	"errors"
	"fmt"
	"os"
	"strings"
)

var (
	// ErrNoProvider is returned when no registered
	// provider recognises a remote URL.
	ErrNoProvider = errors.New("no provider for url")

	// ErrMissingEnv is returned when a provider's
	// required environment variables are not set.
	ErrMissingEnv = errors.New("missing environment variables")
)

// ProviderFactory describes how to recognise and build a
// provider without holding credentials.
type ProviderFactory struct {
	Name    string
	Detect  func(url string) bool
	EnvKeys []string
	New     func(getenv func(string) string) (RemoteProvider, error)
}

// ProviderSet selects the provider owning a remote URL.
// Providers are built on first use and cached. Not safe
// for concurrent use.
type ProviderSet struct {
	factories []ProviderFactory
	getenv    func(string) string
	built     map[string]RemoteProvider
}

// NewProviderSet returns a set trying factories in
// order. getenv defaults to os.Getenv when nil.
func NewProviderSet(
	getenv func(string) string,
	factories ...ProviderFactory,
) *ProviderSet {
	if getenv == nil {
		getenv = os.Getenv
	}

	return &ProviderSet{
		factories: factories,
		getenv:    getenv,
		built:     make(map[string]RemoteProvider),
	}
}

// Factories returns the registered factories.
func (s *ProviderSet) Factories() []ProviderFactory {
	return s.factories
}

// ForURL returns the provider whose Detect accepts url.
func (s *ProviderSet) ForURL(url string) (RemoteProvider, error) {
	const errCtx = "selecting provider"

	for _, fac := range s.factories {
		if !fac.Detect(url) {
			continue
		}

		if p, ok := s.built[fac.Name]; ok {
			return p, nil
		}

		if missing := s.missingEnv(fac); len(missing) > 0 {
			return nil, fmt.Errorf(
				"%s: %s: %w: %s",
				errCtx, fac.Name, ErrMissingEnv,
				strings.Join(missing, ", "),
			)
		}

		p, err := fac.New(s.getenv)
		if err != nil {
			return nil, fmt.Errorf(
				"%s: %s: %w", errCtx, fac.Name, err,
			)
		}

		s.built[fac.Name] = p

		return p, nil
	}

	return nil, fmt.Errorf("%s: %w %q", errCtx, ErrNoProvider, url)
}

func (s *ProviderSet) missingEnv(fac ProviderFactory) []string {
	var missing []string

	for _, key := range fac.EnvKeys {
		if s.getenv(key) == "" {
			missing = append(missing, key)
		}
	}

	return missing
}
