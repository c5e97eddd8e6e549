package gitrevs

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/climabench/climabench/pkg/config"
	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/logger"
)

// Revision identifies a single resolved commit.
type Revision struct {
	Hash string    `json:"hash"`
	When time.Time `json:"when"`
}

// RevisionSet partitions the tracked repositories by whether a commit was
// made on the target day itself (changed) or only before it (unchanged).
type RevisionSet struct {
	Changed   map[string]Revision `json:"changed"`
	Unchanged map[string]Revision `json:"unchanged"`
}

// Lookup returns the revision for a repository from either partition.
func (s *RevisionSet) Lookup(name string) (Revision, bool) {
	if rev, ok := s.Changed[name]; ok {
		return rev, true
	}
	rev, ok := s.Unchanged[name]
	return rev, ok
}

// WriteJSON persists the revision set for provenance.
func (s *RevisionSet) WriteJSON(path string) error {
	data, err := json.MarshalIndent(s, "", "    ")
	if err != nil {
		return apperrors.NewInternalError("failed to encode revision set", err, nil)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return apperrors.NewInternalError(
			fmt.Sprintf("failed to write revision set to %s", path), err, nil)
	}
	return nil
}

// ResolveAll resolves every tracked repository at the target date. Each clone
// is fetched first, then resolved under the strict on-the-day policy with a
// fallback to latest-at-or-before. A repository with no commit at or before
// the date fails the whole resolution.
func ResolveAll(ctx context.Context, cfg *config.Config, date time.Time, log *logger.Logger) (*RevisionSet, error) {
	set := &RevisionSet{
		Changed:   make(map[string]Revision),
		Unchanged: make(map[string]Revision),
	}
	for _, name := range cfg.Repos {
		resolver, err := Open(cfg.RepoPath(name), log)
		if err != nil {
			return nil, err
		}
		if err := resolver.Fetch(ctx); err != nil {
			return nil, err
		}
		rev, err := resolver.LastCommitOnDate(date)
		switch {
		case err == nil:
			set.Changed[name] = rev
		case errors.Is(err, ErrNoCommit):
			rev, err = resolver.LatestCommitAsOf(date)
			if errors.Is(err, ErrNoCommit) {
				return nil, apperrors.NewResolutionError(
					fmt.Sprintf("no revision found for repository %s at %s", name, date.Format("2006-01-02")),
					map[string]interface{}{"repo": name})
			}
			if err != nil {
				return nil, err
			}
			set.Unchanged[name] = rev
		default:
			return nil, err
		}
	}
	return set, nil
}
