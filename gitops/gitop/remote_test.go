package gitop_test

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/byte4ever/gitstate/filestate"
	"github.com/byte4ever/gitstate/gitops/git"
	"github.com/byte4ever/gitstate/gitops/gitop"
	"github.com/byte4ever/gitstate/operation"
	"github.com/byte4ever/gitstate/templating"
)

const remoteDoc = `
children:
  - name: repo
    git:
      remote:
        - name: origin
          url: https://host/ns/repo.git
`

// initRepo creates the target directory and repository.
func initRepo(t *testing.T, tg *filestate.Target) *git.Repo {
	t.Helper()

	mkdir(t, tg)

	repo, err := git.Init(tg.Path)
	require.NoError(t, err)

	return repo
}

func TestConfigureRemote_create_once(t *testing.T) {
	t.Parallel()

	root, _ := loadTree(t, remoteDoc, nil)
	tg := child(t, root, "repo")
	repo := initRepo(t, tg)

	op := gitop.NewConfigureRemote(tg, nil)

	require.NoError(t, op.Apply(context.Background()))

	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "https://host/ns/repo.git", url)

	require.NoError(t, op.Apply(context.Background()))

	names, err := repo.RemoteNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, names)

	url, err = repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "https://host/ns/repo.git", url)

	// The second pass found the remote present but the
	// first pass created it.
	assert.Equal(
		t, map[string]bool{"origin": true}, op.CreatedRemotes(),
	)

	require.NoError(t, op.Undo(context.Background()))

	names, err = repo.RemoteNames()
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.Empty(t, op.CreatedRemotes())
}

func TestConfigureRemote_undo_keeps_preexisting_remote(
	t *testing.T,
) {
	t.Parallel()

	root, _ := loadTree(t, `
children:
  - name: repo
    git:
      remote:
        - name: origin
          url: https://host/ns/repo.git
        - name: upstream
          url: https://host/up/repo.git
`, nil)
	tg := child(t, root, "repo")
	repo := initRepo(t, tg)

	created, err := repo.CreateRemoteOnce(
		"origin", "https://elsewhere/ns/repo.git",
	)
	require.NoError(t, err)
	require.True(t, created)

	op := gitop.NewConfigureRemote(tg, nil)

	require.NoError(t, op.Apply(context.Background()))
	assert.Equal(
		t,
		map[string]bool{"origin": false, "upstream": true},
		op.CreatedRemotes(),
	)

	url, err := repo.RemoteURL("origin")
	require.NoError(t, err)
	assert.Equal(t, "https://elsewhere/ns/repo.git", url)

	require.NoError(t, op.Undo(context.Background()))

	names, err := repo.RemoteNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"origin"}, names)
}

func TestConfigureRemote_duplicate_name_stays_owned(
	t *testing.T,
) {
	t.Parallel()

	root, _ := loadTree(t, `
children:
  - name: repo
    git:
      remote:
        - name: origin
          url: https://host/ns/repo.git
        - name: origin
          url: https://host/other/repo.git
`, nil)
	tg := child(t, root, "repo")
	repo := initRepo(t, tg)

	op := gitop.NewConfigureRemote(tg, nil)

	require.NoError(t, op.Apply(context.Background()))
	assert.Equal(
		t, map[string]bool{"origin": true}, op.CreatedRemotes(),
	)

	require.NoError(t, op.Undo(context.Background()))

	names, err := repo.RemoteNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestConfigureRemote_patterns(t *testing.T) {
	t.Parallel()

	root, _ := loadTree(t, `
children:
  - name: service
    git:
      remote:
        - name:
            pattern: "{name}-mirror"
          url:
            pattern: "git@github.com:org/{name}.git"
        - name: local
          url:
            pattern: "file://{path}/../backup.git"
`, nil)
	tg := child(t, root, "service")
	repo := initRepo(t, tg)

	op := gitop.NewConfigureRemote(tg, nil)

	require.NoError(t, op.Apply(context.Background()))

	url, err := repo.RemoteURL("service-mirror")
	require.NoError(t, err)
	assert.Equal(t, "git@github.com:org/service.git", url)

	url, err = repo.RemoteURL("local")
	require.NoError(t, err)
	assert.Equal(
		t, "file://"+filepath.Join(root.Path, "service")+"/../backup.git", url,
	)

	require.NoError(t, op.Undo(context.Background()))

	names, err := repo.RemoteNames()
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestConfigureRemote_unknown_pattern_variable_rejected_at_load(
	t *testing.T,
) {
	t.Parallel()

	opts := filestate.DefaultOptionRegistry()
	require.NoError(t, gitop.RegisterOptions(opts))

	_, err := filestate.LoadConfig([]byte(`
children:
  - name: repo
    git:
      remote:
        - name: origin
          url:
            pattern: "git@github.com:{owner}/{name}.git"
`), t.TempDir(), opts)

	require.ErrorIs(t, err, gitop.ErrInvalidConfig)
	require.ErrorIs(t, err, templating.ErrUnknownVariable)
	assert.ErrorContains(t, err, `"owner"`)
}

const partialFailureDoc = `
children:
  - name: repo
    git:
      remote:
        - name: origin
          url: https://host/ns/repo.git
        - name: upstream
          url: https://unhosted.example/ns/repo.git
          create: true
`

// emptyProviderSet recognises no URL.
func emptyProviderSet() *git.ProviderSet {
	return git.NewProviderSet(func(string) string { return "" })
}

func TestConfigureRemote_failed_apply_removes_added_remotes(
	t *testing.T,
) {
	t.Parallel()

	root, _ := loadTree(t, partialFailureDoc, nil)
	tg := child(t, root, "repo")
	repo := initRepo(t, tg)

	_, err := repo.CreateRemoteOnce("mine", "https://host/me/repo.git")
	require.NoError(t, err)

	op := gitop.NewConfigureRemote(tg, emptyProviderSet())

	err = op.Apply(context.Background())

	require.ErrorIs(t, err, git.ErrNoProvider)
	assert.Empty(t, op.CreatedRemotes())

	names, err := repo.RemoteNames()
	require.NoError(t, err)
	assert.Equal(t, []string{"mine"}, names)
}

func TestPlan_rollback_on_existing_repository(t *testing.T) {
	t.Parallel()

	opts := filestate.DefaultOptionRegistry()
	ops := operation.NewRegistry()
	require.NoError(t, gitop.Register(opts, ops, emptyProviderSet()))

	root, err := filestate.LoadConfig(
		[]byte(partialFailureDoc), t.TempDir(), opts,
	)
	require.NoError(t, err)

	tg := child(t, root, "repo")
	repo := initRepo(t, tg)

	plan, err := operation.NewPlan(context.Background(), root, ops)
	require.NoError(t, err)
	require.Equal(
		t,
		[]operation.Kind{gitop.KindConfigureRemote},
		planKinds(t, plan),
	)

	require.ErrorIs(t, plan.Apply(context.Background()), git.ErrNoProvider)
	assert.Empty(t, plan.Applied())
	require.NoError(t, plan.Undo(context.Background()))

	names, err := repo.RemoteNames()
	require.NoError(t, err)
	assert.Empty(t, names)
	assert.True(t, git.IsInitialized(tg.Path))
}

func TestConfigureRemote_creates_hosted_repository(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{}

	root, _ := loadTree(t, `
children:
  - name: repo
    git:
      remote:
        - name: origin
          url:
            pattern: "git@github.com:org/{name}.git"
          create: true
`, fakeProviderSet(provider))
	tg := child(t, root, "repo")
	initRepo(t, tg)

	op := gitop.NewConfigureRemote(tg, fakeProviderSet(provider))

	require.NoError(t, op.Apply(context.Background()))

	assert.Equal(
		t,
		[]git.RepositoryInfo{{Name: "repo", Namespace: "org"}},
		provider.checks,
	)
	assert.Equal(
		t,
		[]git.CreateOptions{{Name: "repo", Namespace: "org"}},
		provider.creates,
	)

	require.NoError(t, op.Undo(context.Background()))
	assert.Len(t, provider.creates, 1)
	assert.Len(t, provider.checks, 1)
}

func TestConfigureRemote_hosted_repository_exists(t *testing.T) {
	t.Parallel()

	provider := &fakeProvider{exists: true}

	root, _ := loadTree(t, `
children:
  - name: repo
    git:
      remote:
        - name: origin
          url: git@github.com:org/repo.git
          create: true
`, nil)
	tg := child(t, root, "repo")
	initRepo(t, tg)

	op := gitop.NewConfigureRemote(tg, fakeProviderSet(provider))

	require.NoError(t, op.Apply(context.Background()))
	assert.Len(t, provider.checks, 1)
	assert.Empty(t, provider.creates)
}

func TestConfigureRemote_descriptions(t *testing.T) {
	t.Parallel()

	op := gitop.NewConfigureRemote(&filestate.Target{Path: "/x"}, nil)

	assert.Equal(t, gitop.KindConfigureRemote, op.Kind())
	assert.Equal(
		t,
		[]operation.Kind{gitop.KindInitRepository},
		op.Dependencies(),
	)
	assert.Equal(t, "Add remote in .git directory", op.Description())
	assert.Equal(t, "Remote missing in .git directory", op.DescribeBefore())
	assert.Equal(t, "Remote added .git directory", op.DescribeAfter())
}

func TestRemoteApplicable(t *testing.T) {
	t.Parallel()

	root, _ := loadTree(t, `
children:
  - name: fresh
    git:
      remote:
        - name: origin
          url: https://host/ns/fresh.git
  - name: missing
    git:
      remote:
        - name: origin
          url: https://host/ns/missing.git
  - name: complete
    git:
      remote:
        - name: origin
          url: https://host/ns/complete.git
  - name: bare
    git: true
  - name: empty
    git:
      remote: []
`, nil)

	initRepo(t, child(t, root, "missing"))

	complete := initRepo(t, child(t, root, "complete"))
	_, err := complete.CreateRemoteOnce("origin", "https://x/y.git")
	require.NoError(t, err)

	for name, want := range map[string]bool{
		"fresh":    true,
		"missing":  true,
		"complete": false,
		"bare":     false,
		"empty":    false,
	} {
		got, err := gitop.RemoteApplicable(child(t, root, name))

		require.NoError(t, err, name)
		assert.Equal(t, want, got, name)
	}
}

func TestPlan_init_then_remote(t *testing.T) {
	t.Parallel()

	root, reg := loadTree(t, remoteDoc, nil)
	tg := child(t, root, "repo")

	plan, err := operation.NewPlan(context.Background(), root, reg)
	require.NoError(t, err)

	require.Equal(
		t,
		[]operation.Kind{
			operation.KindCreateDirectory,
			gitop.KindInitRepository,
			gitop.KindConfigureRemote,
		},
		planKinds(t, plan),
	)

	require.NoError(t, plan.Apply(context.Background()))

	repo, err := git.Open(tg.Path)
	require.NoError(t, err)

	has, err := repo.HasRemote("origin")
	require.NoError(t, err)
	assert.True(t, has)

	require.NoError(t, plan.Undo(context.Background()))
	assert.NoDirExists(t, tg.Path)
}
