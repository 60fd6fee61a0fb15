package gitinfo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func commitFile(t *testing.T, repo *git.Repository, root, name, content, author string, when time.Time) {
	t.Helper()
	p := filepath.Join(root, filepath.FromSlash(name))
	require.NoError(t, os.MkdirAll(filepath.Dir(p), 0o755))
	require.NoError(t, os.WriteFile(p, []byte(content), 0o600))
	wt, err := repo.Worktree()
	require.NoError(t, err)
	_, err = wt.Add(name)
	require.NoError(t, err)
	_, err = wt.Commit("update "+name, &git.CommitOptions{
		Author: &object.Signature{Name: author, Email: author + "@example.com", When: when},
	})
	require.NoError(t, err)
}

func newRepo(t *testing.T) (*git.Repository, string) {
	t.Helper()
	root := t.TempDir()
	repo, err := git.PlainInit(root, false)
	require.NoError(t, err)
	_, err = repo.CreateRemote(&config.RemoteConfig{Name: "origin", URLs: []string{"https://example.com/docs.git"}})
	require.NoError(t, err)
	return repo, root
}

func TestProvider_RepositoryAndContributors(t *testing.T) {
	repo, root := newRepo(t)
	base := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	commitFile(t, repo, root, "docs/a.md", "one", "alice", base)
	commitFile(t, repo, root, "docs/a.md", "two", "bob", base.Add(time.Hour))
	commitFile(t, repo, root, "docs/a.md", "three", "bob", base.Add(2*time.Hour))
	commitFile(t, repo, root, "docs/b.md", "other", "carol", base.Add(3*time.Hour))

	cacheDir := filepath.Join(t.TempDir(), "cache")
	p, err := Open(filepath.Join(root, "docs"), cacheDir)
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	info := p.Repository()
	assert.Equal(t, "https://example.com/docs.git", info.Remote)
	assert.Len(t, info.Commit, 40)
	assert.NotEmpty(t, info.Branch)

	contributors, err := p.Contributors(t.Context(), "a.md")
	require.NoError(t, err)
	require.Len(t, contributors, 2)
	assert.Equal(t, Contributor{Name: "bob", Email: "bob@example.com", Commits: 2}, contributors[0])
	assert.Equal(t, "alice", contributors[1].Name)

	require.NoError(t, p.SaveCommits(t.Context()))
	require.NoError(t, p.SaveContributions())
	assert.FileExists(t, filepath.Join(cacheDir, ContributorsFile))

	reopened, err := Open(filepath.Join(root, "docs"), cacheDir)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()
	stored, ok := reopened.store.Get("docs/a.md")
	require.True(t, ok)
	assert.Len(t, stored, 2)

	cached, ok, err := reopened.commits.Get(t.Context(), "docs/a.md", info.Commit)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, cached, 3)
}

func TestProvider_OutsideRepository(t *testing.T) {
	p, err := Open(t.TempDir(), "")
	require.NoError(t, err)
	defer func() { _ = p.Close() }()

	assert.Empty(t, p.Repository().Commit)
	contributors, err := p.Contributors(t.Context(), "a.md")
	require.NoError(t, err)
	assert.Empty(t, contributors)
	assert.NoError(t, p.SaveCommits(t.Context()))
	assert.NoError(t, p.SaveContributions())
}

func TestCommitCache_PendingUntilSave(t *testing.T) {
	c, err := OpenCommitCache(":memory:")
	require.NoError(t, err)
	defer func() { _ = c.Close() }()

	when := time.Unix(1700000000, 0).UTC()
	c.Put("a.md", "head", []Commit{{Hash: "h1", AuthorName: "a", AuthorEmail: "a@x", When: when}})

	got, ok, err := c.Get(t.Context(), "a.md", "head")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, got, 1)

	require.NoError(t, c.Save(t.Context()))
	got, ok, err = c.Get(t.Context(), "a.md", "head")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, []Commit{{Hash: "h1", AuthorName: "a", AuthorEmail: "a@x", When: when}}, got)

	_, ok, err = c.Get(t.Context(), "a.md", "other")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAggregate(t *testing.T) {
	got := Aggregate([]Commit{
		{AuthorName: "b", AuthorEmail: "b@x"},
		{AuthorName: "a", AuthorEmail: "a@x"},
		{AuthorName: "b", AuthorEmail: "b@x"},
		{AuthorName: "c", AuthorEmail: "c@x"},
	})
	assert.Equal(t, []Contributor{
		{Name: "b", Email: "b@x", Commits: 2},
		{Name: "a", Email: "a@x", Commits: 1},
		{Name: "c", Email: "c@x", Commits: 1},
	}, got)
}
