package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// Config describes the orchestrator: which repositories are tracked, where
// their local clones live, and how the simulation is invoked.
type Config struct {
	// ReposDir holds one local clone per tracked repository, named after it.
	ReposDir string `yaml:"repos_dir"`
	// RunRoot is where per-date run directories are created.
	RunRoot string `yaml:"run_root"`
	// Repos is the fixed set of tracked repositories.
	Repos []string `yaml:"repos"`
	// Coordinator is the repository whose experiment code and directory
	// structure anchor the assembled environment. Must appear in Repos.
	Coordinator string `yaml:"coordinator"`
	// UpstreamTemplate expands a repository name to its remote URL.
	UpstreamTemplate string `yaml:"upstream_template"`
	// JuliaBin is the julia executable used for Pkg commands and the run.
	JuliaBin string `yaml:"julia_bin"`
	// EnvSubdir is the project environment, relative to the coordinator copy.
	EnvSubdir string `yaml:"env_subdir"`
	// Entrypoint is the simulation script, relative to the coordinator copy.
	Entrypoint string `yaml:"entrypoint"`
	// Manifest is the package-manager manifest file name copied back into the
	// run directory for provenance.
	Manifest string `yaml:"manifest"`
	// ExtraPackages are added to the environment after the pinned set.
	ExtraPackages []string `yaml:"extra_packages"`
	// ConfigFiles are copied from the coordinator's working clone at HEAD
	// into the coordinator copy, relative paths preserved.
	ConfigFiles []string `yaml:"config_files"`
	// BenchmarkConfig is the simulation config, relative to the coordinator copy.
	BenchmarkConfig string `yaml:"benchmark_config"`
	// JobID names the benchmark configuration and its output directory.
	JobID string `yaml:"job_id"`
}

// Default returns the configuration for the AMIP nightly benchmark.
func Default() *Config {
	return &Config{
		ReposDir: "repos",
		RunRoot:  "envs",
		Repos: []string{
			"ClimaCoupler.jl",
			"ClimaAtmos.jl",
			"ClimaCore.jl",
			"ClimaTimesteppers.jl",
			"Thermodynamics.jl",
			"RRTMGP.jl",
		},
		Coordinator:      "ClimaCoupler.jl",
		UpstreamTemplate: "https://github.com/CliMA/%s",
		JuliaBin:         "julia",
		EnvSubdir:        filepath.Join("experiments", "ClimaEarth"),
		Entrypoint:       filepath.Join("experiments", "ClimaEarth", "run_amip.jl"),
		Manifest:         "Manifest-v1.11.toml",
		ExtraPackages:    []string{"MPI"},
		ConfigFiles: []string{
			"config/benchmark_configs/amip_progedmf_1m_land_he16.yml",
			"config/atmos_configs/climaatmos_progedmf_1m.yml",
			"toml/amip_progedmf_1m.toml",
		},
		BenchmarkConfig: "config/benchmark_configs/amip_progedmf_1m_land_he16.yml",
		JobID:           "gpu_amip_progedmf_1M_land_he16",
	}
}

// Load reads a YAML config over the defaults. An empty path returns the
// defaults unchanged.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configuration is internally consistent.
func (c *Config) Validate() error {
	if len(c.Repos) == 0 {
		return fmt.Errorf("at least one tracked repository is required")
	}
	if c.Coordinator == "" {
		return fmt.Errorf("coordinator repository is required")
	}
	found := false
	for _, name := range c.Repos {
		if name == c.Coordinator {
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("coordinator %s is not in the tracked repository set", c.Coordinator)
	}
	if c.JobID == "" {
		return fmt.Errorf("job_id is required")
	}
	return nil
}

// RepoPath returns the local clone path for a tracked repository.
func (c *Config) RepoPath(name string) string {
	return filepath.Join(c.ReposDir, name)
}

// RunDir returns the per-date run directory for a target date.
func (c *Config) RunDir(date time.Time) string {
	return filepath.Join(c.RunRoot, date.Format("2006-01-02"))
}

// CoordinatorCopy returns the path of the coordinator copy inside a run
// directory.
func (c *Config) CoordinatorCopy(date time.Time) string {
	return filepath.Join(c.RunDir(date), c.Coordinator)
}

// UpstreamURL returns the remote URL for a tracked repository.
func (c *Config) UpstreamURL(name string) string {
	return fmt.Sprintf(c.UpstreamTemplate, name)
}
