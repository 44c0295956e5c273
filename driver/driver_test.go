package driver_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedificium/roomsolve/driver"
	"github.com/aedificium/roomsolve/internal/config"
	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/solver/csp"
	"github.com/aedificium/roomsolve/solver/walkident"
	"github.com/aedificium/roomsolve/testoracle"
)

var (
	_ driver.Attempter = (*walkident.Solver)(nil)
	_ driver.Attempter = (*csp.Solver)(nil)
)

func TestRunSucceedsWithinTrials(t *testing.T) {
	const n = 3
	cfg := config.Defaults().Solver

	srv := testoracle.NewRandom(n, false, config.Defaults().Oracle.BasicEdgeCapMultiplier, rand.New(rand.NewSource(1)))
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)

	result, err := driver.Run(
		context.Background(),
		c,
		"probatio",
		20,
		func(trial int) driver.Attempter {
			return walkident.New(c, n, cfg, nil)
		},
		func(trial int) *rand.Rand {
			return rand.New(rand.NewSource(int64(trial) + 1))
		},
		nil,
	)

	require.NoError(t, err)
	assert.LessOrEqual(t, result.Trials, 20)
}

func TestRunFailsWhenSolverAlwaysErrors(t *testing.T) {
	const n = 12
	cfg := config.Defaults().Solver
	cfg.CSPMaxExpansions = 1

	srv := testoracle.NewRandom(n, false, config.Defaults().Oracle.BasicEdgeCapMultiplier, rand.New(rand.NewSource(2)))
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)

	_, err := driver.Run(
		context.Background(),
		c,
		"secundus",
		3,
		func(trial int) driver.Attempter {
			return csp.New(c, n, cfg, nil)
		},
		func(trial int) *rand.Rand {
			return rand.New(rand.NewSource(int64(trial) + 1))
		},
		nil,
	)

	assert.Error(t, err)
}
