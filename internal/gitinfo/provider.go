package gitinfo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"git.home.luguber.info/inful/docsetbuilder/internal/docset"
	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
	"git.home.luguber.info/inful/docsetbuilder/internal/logfields"
)

// Cache file names below the cache directory.
const (
	CommitCacheFile  = "commits.db"
	ContributorsFile = "contributors.json"
)

// Provider answers repository questions for one docset. A docset outside any
// git repository gets a provider that reports no history.
type Provider struct {
	docsetDir string
	repo      *git.Repository
	root      string
	commits   *CommitCache
	store     *ContributionStore

	// go-git repositories are not safe for concurrent log walks.
	mu sync.Mutex
}

// Open opens the repository enclosing docsetDir. State is persisted under
// cacheDir; an empty cacheDir keeps it in memory.
func Open(docsetDir, cacheDir string) (*Provider, error) {
	dbPath := ":memory:"
	storePath := ""
	if cacheDir != "" {
		dbPath = filepath.Join(cacheDir, CommitCacheFile)
		storePath = filepath.Join(cacheDir, ContributorsFile)
		if err := ensureDir(cacheDir); err != nil {
			return nil, err
		}
	}
	commits, err := OpenCommitCache(dbPath)
	if err != nil {
		return nil, err
	}

	p := &Provider{
		docsetDir: docsetDir,
		commits:   commits,
		store:     OpenContributionStore(storePath),
	}

	repo, err := git.PlainOpenWithOptions(docsetDir, &git.PlainOpenOptions{DetectDotGit: true})
	switch {
	case errors.Is(err, git.ErrRepositoryNotExists):
		slog.Debug("Docset is not inside a git repository", logfields.Docset(docsetDir))
		return p, nil
	case err != nil:
		_ = commits.Close()
		return nil, foundationerrors.GitError("open repository").WithCause(err).WithContext("docset", docsetDir).Build()
	}
	p.repo = repo
	if wt, err := repo.Worktree(); err == nil {
		p.root = wt.Filesystem.Root()
	}
	return p, nil
}

// Repository returns the metadata of the enclosing repository.
func (p *Provider) Repository() docset.Repository {
	info := docset.Repository{Root: p.root}
	if p.repo == nil {
		return info
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	if head, err := p.repo.Head(); err == nil {
		info.Commit = head.Hash().String()
		if head.Name().IsBranch() {
			info.Branch = head.Name().Short()
		}
	}
	if remote, err := p.repo.Remote("origin"); err == nil {
		if urls := remote.Config().URLs; len(urls) > 0 {
			info.Remote = urls[0]
		}
	}
	return info
}

// Contributors returns the authors of the docset file at rel, most active first.
func (p *Provider) Contributors(ctx context.Context, rel string) ([]Contributor, error) {
	if p.repo == nil || p.root == "" {
		return nil, nil
	}
	repoPath, err := filepath.Rel(p.root, filepath.Join(p.docsetDir, filepath.FromSlash(rel)))
	if err != nil {
		return nil, err
	}
	repoPath = filepath.ToSlash(repoPath)

	commits, err := p.history(ctx, repoPath)
	if err != nil {
		return nil, err
	}
	contributors := Aggregate(commits)
	p.store.Record(repoPath, contributors)
	return contributors, nil
}

func (p *Provider) history(ctx context.Context, repoPath string) ([]Commit, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	head, err := p.repo.Head()
	if errors.Is(err, plumbing.ErrReferenceNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("resolve head: %w", err)
	}
	headHash := head.Hash().String()

	if cached, ok, err := p.commits.Get(ctx, repoPath, headHash); err != nil {
		slog.Warn("Commit cache lookup failed", logfields.File(repoPath), logfields.Error(err))
	} else if ok {
		return cached, nil
	}

	iter, err := p.repo.Log(&git.LogOptions{From: head.Hash(), FileName: &repoPath})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	defer iter.Close()

	commits := make([]Commit, 0)
	err = iter.ForEach(func(c *object.Commit) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		commits = append(commits, Commit{
			Hash:        c.Hash.String(),
			AuthorName:  c.Author.Name,
			AuthorEmail: c.Author.Email,
			When:        c.Author.When.UTC(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk history: %w", err)
	}
	p.commits.Put(repoPath, headHash, commits)
	return commits, nil
}

// SaveCommits flushes the commit cache.
func (p *Provider) SaveCommits(ctx context.Context) error {
	return p.commits.Save(ctx)
}

// SaveContributions flushes the contribution store.
func (p *Provider) SaveContributions() error {
	return p.store.Save()
}

// Close releases the commit cache.
func (p *Provider) Close() error {
	return p.commits.Close()
}
