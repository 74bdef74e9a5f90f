package gitop_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/gitops/git"
	"github.com/byte4ever/gitstate/gitops/gitop"
	"github.com/byte4ever/gitstate/operation"
)

// loadTree loads yamlDoc rooted at a fresh temporary
// directory with the git option and operations
// registered.
func loadTree(
	tb testing.TB,
	yamlDoc string,
	providers *git.ProviderSet,
) (*filestate.Target, *operation.Registry) {
	tb.Helper()

	opts := filestate.DefaultOptionRegistry()
	ops := operation.DefaultRegistry(afero.NewOsFs())
	require.NoError(tb, gitop.Register(opts, ops, providers))

	root, err := filestate.LoadConfig(
		[]byte(yamlDoc), tb.TempDir(), opts,
	)
	require.NoError(tb, err)

	return root, ops
}

func child(tb testing.TB, root *filestate.Target, name string) *filestate.Target {
	tb.Helper()

	tg, ok := root.FindByName(name)
	require.True(tb, ok, name)

	return tg
}

func mkdir(tb testing.TB, tg *filestate.Target) {
	tb.Helper()

	require.NoError(tb, os.MkdirAll(tg.Path, 0o750))
}

func gitDir(tg *filestate.Target) string {
	return filepath.Join(tg.Path, git.MetadataDir)
}

func planKinds(tb testing.TB, plan *operation.Plan) []operation.Kind {
	tb.Helper()

	kinds := make([]operation.Kind, 0, len(plan.Operations()))
	for _, op := range plan.Operations() {
		kinds = append(kinds, op.Kind())
	}

	return kinds
}

// fakeProvider records existence checks and creations.
type fakeProvider struct {
	mu      sync.Mutex
	exists  bool
	checks  []git.RepositoryInfo
	creates []git.CreateOptions
}

func (p *fakeProvider) Name() string {
	return "fake"
}

func (p *fakeProvider) Detect(string) bool {
	return true
}

func (p *fakeProvider) ExpectedEnvKeys() []string {
	return nil
}

func (p *fakeProvider) ParseRepositoryURL(url string) git.RepositoryInfo {
	return git.ParseRepositoryURL(url)
}

func (p *fakeProvider) CheckRepositoryExists(
	_ context.Context,
	name string,
	namespace string,
) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.checks = append(p.checks, git.RepositoryInfo{
		Name: name, Namespace: namespace,
	})

	return p.exists
}

func (p *fakeProvider) CreateRepository(
	_ context.Context,
	opts git.CreateOptions,
) (*git.Repository, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.creates = append(p.creates, opts)
	p.exists = true

	return &git.Repository{Name: opts.Name, Namespace: opts.Namespace}, nil
}

func fakeProviderSet(p *fakeProvider) *git.ProviderSet {
	return git.NewProviderSet(
		func(string) string { return "" },
		git.ProviderFactory{
			Name:   "fake",
			Detect: p.Detect,
			New: func(func(string) string) (git.RemoteProvider, error) {
				return p, nil
			},
		},
	)
}
