package gitrevs

import (
	"context"
	"errors"
	"fmt"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
	"github.com/go-git/go-git/v5/plumbing/storer"

	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/logger"
)

// ErrNoCommit is returned when no commit qualifies for the requested date.
var ErrNoCommit = errors.New("no qualifying commit")

// remoteHeads are tried in order before falling back to the local HEAD, so
// resolution reflects the fetched remote state rather than a stale checkout.
var remoteHeads = []plumbing.ReferenceName{
	"refs/remotes/origin/main",
	"refs/remotes/origin/master",
}

// Resolver answers "which commit represents this repository on date D" for a
// single local clone.
type Resolver struct {
	path string
	repo *git.Repository
	log  *logger.Logger
}

// Open opens the repository at path.
func Open(path string, log *logger.Logger) (*Resolver, error) {
	repo, err := git.PlainOpen(path)
	if err != nil {
		return nil, apperrors.NewInternalError(
			fmt.Sprintf("failed to open repository %s", path), err, nil)
	}
	return &Resolver{path: path, repo: repo, log: log}, nil
}

// Fetch updates the remote-tracking references from origin. A clone with no
// remote configured is queried as-is.
func (r *Resolver) Fetch(ctx context.Context) error {
	err := r.repo.FetchContext(ctx, &git.FetchOptions{RemoteName: "origin"})
	switch {
	case err == nil, errors.Is(err, git.NoErrAlreadyUpToDate):
		return nil
	case errors.Is(err, git.ErrRemoteNotFound):
		r.log.Debug("no origin remote, skipping fetch", "repo", r.path)
		return nil
	default:
		return apperrors.NewSubprocessError(
			fmt.Sprintf("failed to fetch %s", r.path), err,
			map[string]interface{}{"repo": r.path})
	}
}

// LastCommitOnDate returns the most recent commit made on the given calendar
// day. Returns ErrNoCommit when nothing was committed that day.
func (r *Resolver) LastCommitOnDate(date time.Time) (Revision, error) {
	start, end := dayBounds(date)
	return r.scan(end, &start)
}

// LatestCommitAsOf returns the most recent commit at or before the end of the
// given calendar day. Returns ErrNoCommit when the history is empty at that
// point.
func (r *Resolver) LatestCommitAsOf(date time.Time) (Revision, error) {
	_, end := dayBounds(date)
	return r.scan(end, nil)
}

// scan walks history newest-first and returns the first commit whose
// committer time is before until and, if since is set, not before since.
func (r *Resolver) scan(until time.Time, since *time.Time) (Revision, error) {
	head, err := r.headHash()
	if err != nil {
		return Revision{}, err
	}
	iter, err := r.repo.Log(&git.LogOptions{From: head, Order: git.LogOrderCommitterTime})
	if err != nil {
		return Revision{}, apperrors.NewInternalError(
			fmt.Sprintf("failed to read history of %s", r.path), err, nil)
	}
	defer iter.Close()

	var found *object.Commit
	err = iter.ForEach(func(c *object.Commit) error {
		when := c.Committer.When
		if !when.Before(until) {
			return nil
		}
		if since != nil && when.Before(*since) {
			return storer.ErrStop
		}
		found = c
		return storer.ErrStop
	})
	if err != nil {
		return Revision{}, apperrors.NewInternalError(
			fmt.Sprintf("failed to walk history of %s", r.path), err, nil)
	}
	if found == nil {
		return Revision{}, ErrNoCommit
	}
	return Revision{Hash: found.Hash.String(), When: found.Committer.When}, nil
}

func (r *Resolver) headHash() (plumbing.Hash, error) {
	for _, name := range remoteHeads {
		if ref, err := r.repo.Reference(name, true); err == nil {
			return ref.Hash(), nil
		}
	}
	ref, err := r.repo.Head()
	if err != nil {
		return plumbing.ZeroHash, apperrors.NewInternalError(
			fmt.Sprintf("failed to find head of %s", r.path), err, nil)
	}
	return ref.Hash(), nil
}

// ValidateTarget rejects target dates that are not strictly in the past.
// A benchmark for today or a future date would not be reproducible.
func ValidateTarget(date, now time.Time) error {
	if date.Format("2006-01-02") >= now.Format("2006-01-02") {
		return apperrors.NewValidationError(
			fmt.Sprintf("target date %s is not in the past", date.Format("2006-01-02")),
			map[string]interface{}{"date": date.Format("2006-01-02")})
	}
	return nil
}

// ParseDate parses an ISO calendar date.
func ParseDate(s string) (time.Time, error) {
	date, err := time.Parse("2006-01-02", s)
	if err != nil {
		return time.Time{}, apperrors.NewValidationError(
			fmt.Sprintf("invalid date %q, expected YYYY-MM-DD", s), nil)
	}
	return date, nil
}

func dayBounds(date time.Time) (time.Time, time.Time) {
	start := time.Date(date.Year(), date.Month(), date.Day(), 0, 0, 0, 0, date.Location())
	return start, start.Add(24 * time.Hour)
}
