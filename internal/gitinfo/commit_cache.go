package gitinfo

import (
	"context"
	"database/sql"
	"fmt"
	"sync"
	"time"

	_ "modernc.org/sqlite"

	foundationerrors "git.home.luguber.info/inful/docsetbuilder/internal/foundation/errors"
)

// Commit is a commit that touched a file.
type Commit struct {
	Hash        string
	AuthorName  string
	AuthorEmail string
	When        time.Time
}

type cacheKey struct {
	path string
	head string
}

// CommitCache stores per-file commit history keyed by the head commit it was
// computed at. New entries are buffered until Save.
type CommitCache struct {
	db      *sql.DB
	mu      sync.RWMutex
	pending map[cacheKey][]Commit
}

// OpenCommitCache opens the cache database. Use ":memory:" for an
// in-memory cache.
func OpenCommitCache(dbPath string) (*CommitCache, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, foundationerrors.PersistenceError("open commit cache").WithCause(err).WithContext("path", dbPath).Build()
	}
	// A single connection keeps ":memory:" databases shared.
	db.SetMaxOpenConns(1)

	c := &CommitCache{db: db, pending: make(map[cacheKey][]Commit)}
	if err := c.initialize(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("initialize schema: %w", err)
	}
	return c, nil
}

func (c *CommitCache) initialize() error {
	schema := `
	CREATE TABLE IF NOT EXISTS file_history (
		path TEXT NOT NULL,
		head TEXT NOT NULL,
		computed INTEGER NOT NULL,
		PRIMARY KEY (path, head)
	);
	CREATE TABLE IF NOT EXISTS file_commits (
		path TEXT NOT NULL,
		head TEXT NOT NULL,
		seq INTEGER NOT NULL,
		hash TEXT NOT NULL,
		author_name TEXT NOT NULL,
		author_email TEXT NOT NULL,
		committed_at INTEGER NOT NULL,
		PRIMARY KEY (path, head, seq)
	);
	`
	_, err := c.db.Exec(schema)
	return err
}

// Get returns the history of path at head.
func (c *CommitCache) Get(ctx context.Context, path, head string) ([]Commit, bool, error) {
	c.mu.RLock()
	commits, ok := c.pending[cacheKey{path, head}]
	c.mu.RUnlock()
	if ok {
		return commits, true, nil
	}

	var computed int64
	err := c.db.QueryRowContext(ctx,
		"SELECT computed FROM file_history WHERE path = ? AND head = ?", path, head,
	).Scan(&computed)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("query history: %w", err)
	}

	rows, err := c.db.QueryContext(ctx,
		"SELECT hash, author_name, author_email, committed_at FROM file_commits WHERE path = ? AND head = ? ORDER BY seq",
		path, head)
	if err != nil {
		return nil, false, fmt.Errorf("query commits: %w", err)
	}
	defer func() { _ = rows.Close() }()

	commits = make([]Commit, 0)
	for rows.Next() {
		var cm Commit
		var when int64
		if err := rows.Scan(&cm.Hash, &cm.AuthorName, &cm.AuthorEmail, &when); err != nil {
			return nil, false, fmt.Errorf("scan commit: %w", err)
		}
		cm.When = time.Unix(when, 0).UTC()
		commits = append(commits, cm)
	}
	if err := rows.Err(); err != nil {
		return nil, false, err
	}
	return commits, true, nil
}

// Put buffers the history of path at head.
func (c *CommitCache) Put(path, head string, commits []Commit) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.pending[cacheKey{path, head}] = commits
}

// Save flushes buffered entries in one transaction.
func (c *CommitCache) Save(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.pending) == 0 {
		return nil
	}

	tx, err := c.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().Unix()
	for key, commits := range c.pending {
		if _, err := tx.ExecContext(ctx,
			"INSERT OR REPLACE INTO file_history (path, head, computed) VALUES (?, ?, ?)",
			key.path, key.head, now); err != nil {
			return fmt.Errorf("insert history: %w", err)
		}
		if _, err := tx.ExecContext(ctx,
			"DELETE FROM file_commits WHERE path = ? AND head = ?", key.path, key.head); err != nil {
			return fmt.Errorf("clear commits: %w", err)
		}
		for i, cm := range commits {
			if _, err := tx.ExecContext(ctx,
				"INSERT INTO file_commits (path, head, seq, hash, author_name, author_email, committed_at) VALUES (?, ?, ?, ?, ?, ?, ?)",
				key.path, key.head, i, cm.Hash, cm.AuthorName, cm.AuthorEmail, cm.When.Unix()); err != nil {
				return fmt.Errorf("insert commit: %w", err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit transaction: %w", err)
	}
	c.pending = make(map[cacheKey][]Commit)
	return nil
}

// Close closes the database.
func (c *CommitCache) Close() error {
	return c.db.Close()
}
