package benchmark

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/climabench/climabench/pkg/config"
	"github.com/climabench/climabench/pkg/logger"
)

func collectorConfig(t *testing.T) (*config.Config, time.Time) {
	t.Helper()
	root := t.TempDir()
	cfg := &config.Config{
		ReposDir:    filepath.Join(root, "repos"),
		RunRoot:     filepath.Join(root, "envs"),
		Repos:       []string{"Coord.jl"},
		Coordinator: "Coord.jl",
		EnvSubdir:   filepath.Join("experiments", "Earth"),
		JobID:       "bench_job",
	}
	return cfg, time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)
}

func makeOutput(t *testing.T, dir string) {
	t.Helper()
	if err := os.MkdirAll(dir, 0755); err != nil {
		t.Fatalf("failed to create output dir: %v", err)
	}
	if err := os.WriteFile(filepath.Join(dir, "result.nc"), []byte("data"), 0644); err != nil {
		t.Fatalf("failed to write output file: %v", err)
	}
}

func TestCollectSingleCandidate(t *testing.T) {
	cfg, date := collectorConfig(t)
	coordDir := cfg.CoordinatorCopy(date)
	outDir := filepath.Join(coordDir, cfg.EnvSubdir, "output", cfg.JobID)
	makeOutput(t, outDir)

	collector := NewCollector(cfg, logger.NewNop())
	if err := collector.Collect(date); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	artifact := filepath.Join(cfg.RunDir(date), "artifacts", "result.nc")
	if _, err := os.Stat(artifact); err != nil {
		t.Errorf("artifact not relocated: %v", err)
	}
	if _, err := os.Stat(coordDir); !os.IsNotExist(err) {
		t.Error("coordinator copy should be removed after collection")
	}
}

func TestCollectNoCandidate(t *testing.T) {
	cfg, date := collectorConfig(t)
	coordDir := cfg.CoordinatorCopy(date)
	if err := os.MkdirAll(coordDir, 0755); err != nil {
		t.Fatalf("failed to create coordinator copy: %v", err)
	}

	collector := NewCollector(cfg, logger.NewNop())
	if err := collector.Collect(date); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.RunDir(date), "artifacts")); !os.IsNotExist(err) {
		t.Error("no artifacts directory should be created without output")
	}
	if _, err := os.Stat(coordDir); err != nil {
		t.Error("coordinator copy should be left in place when no output is found")
	}
}

func TestCollectAmbiguousCandidates(t *testing.T) {
	cfg, date := collectorConfig(t)
	coordDir := cfg.CoordinatorCopy(date)
	first := filepath.Join(coordDir, cfg.EnvSubdir, "output", cfg.JobID)
	makeOutput(t, first)

	// Second candidate is relative to the working directory.
	cwd, err := os.Getwd()
	if err != nil {
		t.Fatalf("failed to get cwd: %v", err)
	}
	if err := os.Chdir(t.TempDir()); err != nil {
		t.Fatalf("failed to chdir: %v", err)
	}
	defer func() {
		if err := os.Chdir(cwd); err != nil {
			t.Fatalf("failed to restore cwd: %v", err)
		}
	}()
	second := filepath.Join("output", cfg.JobID)
	makeOutput(t, second)

	collector := NewCollector(cfg, logger.NewNop())
	if err := collector.Collect(date); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}

	if _, err := os.Stat(filepath.Join(cfg.RunDir(date), "artifacts")); !os.IsNotExist(err) {
		t.Error("ambiguous output should not be relocated")
	}
	if _, err := os.Stat(first); err != nil {
		t.Error("first candidate should be left in place")
	}
	if _, err := os.Stat(second); err != nil {
		t.Error("second candidate should be left in place")
	}
	if _, err := os.Stat(coordDir); err != nil {
		t.Error("coordinator copy should be left in place on ambiguity")
	}
}
