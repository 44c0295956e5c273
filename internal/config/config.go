// Package config loads the solver's tunable constants and oracle
// credentials: built-in defaults, optionally overridden by a TOML file,
// then by environment variables. Grounded on the teacher's toml.go
// (pelletier/go-toml tree queries used to pull structured values out of a
// manifest) and context.go (NewContext's environment-driven setup).
package config

import (
	"os"
	"strconv"

	"github.com/pelletier/go-toml"
	"github.com/pkg/errors"
)

// Solver holds the tunable constants named throughout spec.md §4.
type Solver struct {
	// WalkLenMultiplier scales N for the walk-identify solver's random
	// walk (spec.md §4.4: 5N).
	WalkLenMultiplier int
	// SeparatorLenMultiplier scales N for the walk-identify solver's
	// distinguishing suffix (spec.md §4.4: 13N - 1).
	SeparatorLenMultiplier int
	// RewriteWalkLenMultiplier scales N for the rewrite-encoded solver's
	// classification walk (spec.md §4.5: 6N - Delta - 1).
	RewriteWalkLenMultiplier int
	// DiscriminatorLen is the rewrite-encoded solver's short
	// discriminator length (spec.md §4.5: Delta = 6).
	DiscriminatorLen int
	// CSPMaxExpansions caps the CSP solver's DFS node expansions
	// (spec.md §4.6: 200,000).
	CSPMaxExpansions int
	// CSPWalkLenMultiplier scales N for the CSP solver's single long
	// random walk (spec.md §4.6: 18N).
	CSPWalkLenMultiplier int
	// MaxTrials caps the driver's retry loop (spec.md §4.7: 100).
	MaxTrials int
	// BisimTrials and BisimSteps parameterize the randomized bisimulation
	// check (spec.md §4.3: 100 trials of 10000 steps).
	BisimTrials int
	BisimSteps  int
}

// Oracle caps plan sizes per spec.md §3/§6.
type Oracle struct {
	// BasicEdgeCapMultiplier scales N for the basic oracle's per-plan
	// edge-step cap (18N).
	BasicEdgeCapMultiplier int
	// RewriteEdgeCapMultiplier scales N for the rewriting oracle's
	// per-plan edge-step cap (6N).
	RewriteEdgeCapMultiplier int
}

// Config is the fully-resolved configuration: defaults, overridden by an
// optional TOML file, overridden by environment variables.
type Config struct {
	BaseURL string
	ID      string
	Solver  Solver
	Oracle  Oracle
}

// Defaults returns the built-in constants named in spec.md, before any
// file or environment overrides are applied.
func Defaults() Config {
	return Config{
		Solver: Solver{
			WalkLenMultiplier:        5,
			SeparatorLenMultiplier:   13,
			RewriteWalkLenMultiplier: 6,
			DiscriminatorLen:         6,
			CSPMaxExpansions:         200000,
			CSPWalkLenMultiplier:     18,
			MaxTrials:                100,
			BisimTrials:              100,
			BisimSteps:               10000,
		},
		Oracle: Oracle{
			BasicEdgeCapMultiplier:   18,
			RewriteEdgeCapMultiplier: 6,
		},
	}
}

// Load resolves a Config from defaults, an optional TOML file at path
// (skipped entirely if it doesn't exist), and the BASE_URL/ID environment
// variables, which are required in the end result.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		if _, err := os.Stat(path); err == nil {
			if err := applyFile(&cfg, path); err != nil {
				return Config{}, errors.Wrapf(err, "loading config file %q", path)
			}
		} else if !os.IsNotExist(err) {
			return Config{}, errors.Wrapf(err, "statting config file %q", path)
		}
	}

	baseURL, ok := os.LookupEnv("BASE_URL")
	if !ok || baseURL == "" {
		return Config{}, errors.New("BASE_URL environment variable is required")
	}
	cfg.BaseURL = baseURL

	id, ok := os.LookupEnv("ID")
	if !ok || id == "" {
		return Config{}, errors.New("ID environment variable is required")
	}
	cfg.ID = id

	return cfg, nil
}

// applyFile overlays TOML-file values onto cfg, mirroring the teacher's
// tomlMapper's query-based field extraction rather than a single
// Unmarshal call, since only a handful of scalar fields are optional.
func applyFile(cfg *Config, path string) error {
	tree, err := toml.LoadFile(path)
	if err != nil {
		return errors.Wrap(err, "parsing toml")
	}

	intField := func(key string, dst *int) error {
		if !tree.Has(key) {
			return nil
		}
		v := tree.Get(key)
		n, ok := v.(int64)
		if !ok {
			return errors.Errorf("key %q: expected integer, got %T", key, v)
		}
		*dst = int(n)
		return nil
	}

	fields := []struct {
		key string
		dst *int
	}{
		{"solver.walk_len_multiplier", &cfg.Solver.WalkLenMultiplier},
		{"solver.separator_len_multiplier", &cfg.Solver.SeparatorLenMultiplier},
		{"solver.rewrite_walk_len_multiplier", &cfg.Solver.RewriteWalkLenMultiplier},
		{"solver.discriminator_len", &cfg.Solver.DiscriminatorLen},
		{"solver.csp_max_expansions", &cfg.Solver.CSPMaxExpansions},
		{"solver.csp_walk_len_multiplier", &cfg.Solver.CSPWalkLenMultiplier},
		{"solver.max_trials", &cfg.Solver.MaxTrials},
		{"solver.bisim_trials", &cfg.Solver.BisimTrials},
		{"solver.bisim_steps", &cfg.Solver.BisimSteps},
		{"oracle.basic_edge_cap_multiplier", &cfg.Oracle.BasicEdgeCapMultiplier},
		{"oracle.rewrite_edge_cap_multiplier", &cfg.Oracle.RewriteEdgeCapMultiplier},
	}
	for _, f := range fields {
		if err := intField(f.key, f.dst); err != nil {
			return err
		}
	}
	return nil
}

// ResolveProblem parses a problem name into a room count and an oracle
// mode, per spec.md §6: a bare integer string is accepted as N, treated
// as the rewriting oracle; any other name is looked up in a small static
// table that real deployments would back with the oracle's own catalog.
func ResolveProblem(name string) (n int, rewriting bool, err error) {
	if v, convErr := strconv.Atoi(name); convErr == nil {
		if v <= 0 {
			return 0, false, errors.Errorf("problem %q: room count must be positive", name)
		}
		return v, true, nil
	}

	if p, ok := namedProblems[name]; ok {
		return p.n, p.rewriting, nil
	}
	return 0, false, errors.Errorf("unknown problem name %q", name)
}

type namedProblem struct {
	n         int
	rewriting bool
}

// namedProblems mirrors the concrete scenarios named in spec.md §8.
var namedProblems = map[string]namedProblem{
	"probatio": {n: 3, rewriting: false},
	"secundus": {n: 12, rewriting: false},
	"aleph":    {n: 12, rewriting: true},
}
