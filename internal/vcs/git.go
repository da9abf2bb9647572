// Package vcs commits and pushes the stats file with go-git.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	githttp "github.com/go-git/go-git/v5/plumbing/transport/http"
	"go.uber.org/zap"
)

// Author identifies the committer of stats updates.
type Author struct {
	Name  string
	Email string
}

// Committer records changes of a file in the enclosing git repository.
type Committer struct {
	repo   *git.Repository
	root   string
	author Author
	logger *zap.Logger
	now    func() time.Time
}

// Open finds the git repository that contains path.
func Open(path string, author Author, logger *zap.Logger) (*Committer, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	repo, err := git.PlainOpenWithOptions(filepath.Dir(abs), &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		return nil, fmt.Errorf("failed to open git repository for %s: %w", path, err)
	}
	wt, err := repo.Worktree()
	if err != nil {
		return nil, fmt.Errorf("failed to get worktree: %w", err)
	}
	return &Committer{
		repo:   repo,
		root:   wt.Filesystem.Root(),
		author: author,
		logger: logger,
		now:    time.Now,
	}, nil
}

// Commit stages path and commits it with message. It returns a zero hash
// and no error when the file has no staged changes.
func (c *Committer) Commit(path, message string) (plumbing.Hash, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	rel, err := filepath.Rel(c.root, abs)
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("%s is outside of the repository: %w", path, err)
	}
	rel = filepath.ToSlash(rel)

	wt, err := c.repo.Worktree()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get worktree: %w", err)
	}
	if _, err := wt.Add(rel); err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to stage %s: %w", rel, err)
	}

	status, err := wt.Status()
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to get worktree status: %w", err)
	}
	if fs, ok := status[rel]; !ok || fs.Staging == git.Unmodified {
		c.logger.Debug("Nothing to commit", zap.String("file", rel))
		return plumbing.ZeroHash, nil
	}

	hash, err := wt.Commit(message, &git.CommitOptions{
		Author: &object.Signature{
			Name:  c.author.Name,
			Email: c.author.Email,
			When:  c.now(),
		},
	})
	if err != nil {
		return plumbing.ZeroHash, fmt.Errorf("failed to commit %s: %w", rel, err)
	}
	c.logger.Info("Committed stats", zap.String("file", rel), zap.String("commit", hash.String()))
	return hash, nil
}

// Push pushes the current branch to remote, authenticating with token over
// HTTPS. An up-to-date remote is not an error.
func (c *Committer) Push(ctx context.Context, remote, token string) error {
	opts := &git.PushOptions{RemoteName: remote}
	if token != "" {
		opts.Auth = &githttp.BasicAuth{Username: "x-access-token", Password: token}
	}
	err := c.repo.PushContext(ctx, opts)
	if errors.Is(err, git.NoErrAlreadyUpToDate) {
		c.logger.Debug("Remote already up to date", zap.String("remote", remote))
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to push to %s: %w", remote, err)
	}
	c.logger.Info("Pushed stats", zap.String("remote", remote))
	return nil
}
