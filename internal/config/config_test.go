package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedificium/roomsolve/internal/config"
)

func TestLoadRequiresEnv(t *testing.T) {
	os.Unsetenv("BASE_URL")
	os.Unsetenv("ID")
	_, err := config.Load("")
	assert.Error(t, err)
}

func TestLoadDefaultsWithEnv(t *testing.T) {
	t.Setenv("BASE_URL", "https://oracle.example/")
	t.Setenv("ID", "team-credential")

	cfg, err := config.Load("")
	require.NoError(t, err)
	assert.Equal(t, "https://oracle.example/", cfg.BaseURL)
	assert.Equal(t, "team-credential", cfg.ID)
	assert.Equal(t, 100, cfg.Solver.MaxTrials)
	assert.Equal(t, 200000, cfg.Solver.CSPMaxExpansions)
}

func TestLoadFileOverridesDefaults(t *testing.T) {
	t.Setenv("BASE_URL", "https://oracle.example/")
	t.Setenv("ID", "team-credential")

	dir := t.TempDir()
	path := filepath.Join(dir, "roomsolve.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
[solver]
max_trials = 50
csp_max_expansions = 1000

[oracle]
basic_edge_cap_multiplier = 20
`), 0o600))

	cfg, err := config.Load(path)
	require.NoError(t, err)
	assert.Equal(t, 50, cfg.Solver.MaxTrials)
	assert.Equal(t, 1000, cfg.Solver.CSPMaxExpansions)
	assert.Equal(t, 20, cfg.Oracle.BasicEdgeCapMultiplier)
	// Unset fields keep their defaults.
	assert.Equal(t, 5, cfg.Solver.WalkLenMultiplier)
}

func TestLoadMissingFileIsNotAnError(t *testing.T) {
	t.Setenv("BASE_URL", "https://oracle.example/")
	t.Setenv("ID", "team-credential")

	_, err := config.Load(filepath.Join(t.TempDir(), "does-not-exist.toml"))
	assert.NoError(t, err)
}

func TestResolveProblem(t *testing.T) {
	n, rewriting, err := config.ResolveProblem("12")
	require.NoError(t, err)
	assert.Equal(t, 12, n)
	assert.True(t, rewriting)

	n, rewriting, err = config.ResolveProblem("probatio")
	require.NoError(t, err)
	assert.Equal(t, 3, n)
	assert.False(t, rewriting)

	_, _, err = config.ResolveProblem("nonexistent-problem")
	assert.Error(t, err)
}
