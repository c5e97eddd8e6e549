package gitrevs

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	git "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/climabench/climabench/pkg/config"
	apperrors "github.com/climabench/climabench/pkg/errors"
	"github.com/climabench/climabench/pkg/logger"
)

func initTestRepo(t *testing.T, dir string) *git.Worktree {
	t.Helper()
	repo, err := git.PlainInit(dir, false)
	if err != nil {
		t.Fatalf("failed to init repo: %v", err)
	}
	w, err := repo.Worktree()
	if err != nil {
		t.Fatalf("failed to get worktree: %v", err)
	}
	return w
}

func commitAt(t *testing.T, dir string, w *git.Worktree, name, content string, when time.Time) string {
	t.Helper()
	path := filepath.Join(dir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		t.Fatalf("failed to create dir for %s: %v", name, err)
	}
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write %s: %v", name, err)
	}
	if _, err := w.Add(name); err != nil {
		t.Fatalf("failed to add %s: %v", name, err)
	}
	sig := &object.Signature{Name: "tester", Email: "tester@example.com", When: when}
	hash, err := w.Commit("update "+name, &git.CommitOptions{Author: sig, Committer: sig})
	if err != nil {
		t.Fatalf("failed to commit %s: %v", name, err)
	}
	return hash.String()
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestLastCommitOnDate(t *testing.T) {
	dir := t.TempDir()
	w := initTestRepo(t, dir)
	commitAt(t, dir, w, "a.txt", "v1", time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))
	second := commitAt(t, dir, w, "a.txt", "v2", time.Date(2024, 3, 10, 15, 0, 0, 0, time.UTC))
	third := commitAt(t, dir, w, "a.txt", "v3", time.Date(2024, 3, 11, 9, 0, 0, 0, time.UTC))

	resolver, err := Open(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	tests := []struct {
		name    string
		date    time.Time
		want    string
		wantErr bool
	}{
		{name: "most recent commit of the day", date: day(2024, 3, 10), want: second},
		{name: "single commit on day", date: day(2024, 3, 11), want: third},
		{name: "no commit on day", date: day(2024, 3, 12), wantErr: true},
		{name: "day before history", date: day(2024, 3, 9), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev, err := resolver.LastCommitOnDate(tt.date)
			if tt.wantErr {
				if !errors.Is(err, ErrNoCommit) {
					t.Fatalf("LastCommitOnDate() error = %v, want ErrNoCommit", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LastCommitOnDate() error = %v", err)
			}
			if rev.Hash != tt.want {
				t.Errorf("LastCommitOnDate() = %s, want %s", rev.Hash, tt.want)
			}
		})
	}
}

func TestLatestCommitAsOf(t *testing.T) {
	dir := t.TempDir()
	w := initTestRepo(t, dir)
	first := commitAt(t, dir, w, "a.txt", "v1", time.Date(2024, 3, 10, 10, 0, 0, 0, time.UTC))
	second := commitAt(t, dir, w, "a.txt", "v2", time.Date(2024, 3, 12, 15, 0, 0, 0, time.UTC))

	resolver, err := Open(dir, logger.NewNop())
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}

	tests := []struct {
		name    string
		date    time.Time
		want    string
		wantErr bool
	}{
		{name: "latest at later date", date: day(2024, 3, 20), want: second},
		{name: "skips commits after date", date: day(2024, 3, 11), want: first},
		{name: "on the commit day itself", date: day(2024, 3, 10), want: first},
		{name: "before all commits", date: day(2024, 3, 1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rev, err := resolver.LatestCommitAsOf(tt.date)
			if tt.wantErr {
				if !errors.Is(err, ErrNoCommit) {
					t.Fatalf("LatestCommitAsOf() error = %v, want ErrNoCommit", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("LatestCommitAsOf() error = %v", err)
			}
			if rev.Hash != tt.want {
				t.Errorf("LatestCommitAsOf() = %s, want %s", rev.Hash, tt.want)
			}
		})
	}
}

func TestValidateTarget(t *testing.T) {
	now := time.Date(2024, 3, 15, 12, 30, 0, 0, time.UTC)
	tests := []struct {
		name    string
		date    time.Time
		wantErr bool
	}{
		{name: "yesterday", date: day(2024, 3, 14), wantErr: false},
		{name: "distant past", date: day(2020, 1, 1), wantErr: false},
		{name: "today", date: day(2024, 3, 15), wantErr: true},
		{name: "tomorrow", date: day(2024, 3, 16), wantErr: true},
		{name: "far future", date: day(2030, 1, 1), wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateTarget(tt.date, now)
			if (err != nil) != tt.wantErr {
				t.Errorf("ValidateTarget() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !apperrors.IsType(err, apperrors.ValidationError) {
				t.Errorf("ValidateTarget() error type = %v, want ValidationError", err)
			}
		})
	}
}

func TestParseDate(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{name: "valid", input: "2024-03-15"},
		{name: "not a date", input: "nope", wantErr: true},
		{name: "wrong format", input: "15/03/2024", wantErr: true},
		{name: "empty", input: "", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseDate() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && got.Format("2006-01-02") != tt.input {
				t.Errorf("ParseDate() = %v, want %s", got, tt.input)
			}
		})
	}
}

func TestResolveAll(t *testing.T) {
	reposDir := t.TempDir()

	changedDir := filepath.Join(reposDir, "Changed.jl")
	w := initTestRepo(t, changedDir)
	onDay := commitAt(t, changedDir, w, "a.txt", "v1", time.Date(2024, 3, 10, 11, 0, 0, 0, time.UTC))

	unchangedDir := filepath.Join(reposDir, "Unchanged.jl")
	w = initTestRepo(t, unchangedDir)
	older := commitAt(t, unchangedDir, w, "b.txt", "v1", time.Date(2024, 2, 1, 11, 0, 0, 0, time.UTC))

	cfg := &config.Config{
		ReposDir:    reposDir,
		Repos:       []string{"Changed.jl", "Unchanged.jl"},
		Coordinator: "Changed.jl",
	}

	revs, err := ResolveAll(context.Background(), cfg, day(2024, 3, 10), logger.NewNop())
	if err != nil {
		t.Fatalf("ResolveAll() error = %v", err)
	}
	if got := revs.Changed["Changed.jl"].Hash; got != onDay {
		t.Errorf("changed revision = %s, want %s", got, onDay)
	}
	if got := revs.Unchanged["Unchanged.jl"].Hash; got != older {
		t.Errorf("unchanged revision = %s, want %s", got, older)
	}
	if _, ok := revs.Lookup("Unchanged.jl"); !ok {
		t.Error("Lookup() did not find unchanged repository")
	}
}

func TestResolveAllUnresolvable(t *testing.T) {
	reposDir := t.TempDir()
	dir := filepath.Join(reposDir, "Future.jl")
	w := initTestRepo(t, dir)
	commitAt(t, dir, w, "a.txt", "v1", time.Date(2024, 6, 1, 11, 0, 0, 0, time.UTC))

	cfg := &config.Config{
		ReposDir:    reposDir,
		Repos:       []string{"Future.jl"},
		Coordinator: "Future.jl",
	}

	_, err := ResolveAll(context.Background(), cfg, day(2024, 3, 10), logger.NewNop())
	if err == nil {
		t.Fatal("ResolveAll() expected error for repository with no commits at date")
	}
	if !apperrors.IsType(err, apperrors.ResolutionError) {
		t.Errorf("ResolveAll() error type = %v, want ResolutionError", err)
	}
}

func TestRevisionSetWriteJSON(t *testing.T) {
	set := &RevisionSet{
		Changed:   map[string]Revision{"A.jl": {Hash: "abc", When: day(2024, 3, 10)}},
		Unchanged: map[string]Revision{"B.jl": {Hash: "def", When: day(2024, 2, 1)}},
	}
	path := filepath.Join(t.TempDir(), "repo-revs.json")
	if err := set.WriteJSON(path); err != nil {
		t.Fatalf("WriteJSON() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read back revision set: %v", err)
	}
	for _, want := range []string{`"changed"`, `"unchanged"`, `"abc"`, `"def"`} {
		if !strings.Contains(string(data), want) {
			t.Errorf("revision record missing %s", want)
		}
	}
}
