package walkident_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedificium/roomsolve/bisim"
	"github.com/aedificium/roomsolve/internal/config"
	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/roomgraph"
	"github.com/aedificium/roomsolve/solver/walkident"
	"github.com/aedificium/roomsolve/testoracle"
)

func TestSolveRecoversProbatio(t *testing.T) {
	const n = 3
	cfg := config.Defaults().Solver

	var srv *testoracle.Server
	var candidate roomgraph.Candidate
	var solveErr error

	for seed := int64(0); seed < 20; seed++ {
		rng := rand.New(rand.NewSource(seed))
		srv = testoracle.NewRandom(n, false, config.Defaults().Oracle.BasicEdgeCapMultiplier, rng)

		c := oracle.NewClient(srv.URL(), "cred", nil)
		require.NoError(t, c.Select(context.Background(), "probatio"))

		sv := walkident.New(c, n, cfg, nil)
		candidate, _, solveErr = sv.Solve(context.Background(), rand.New(rand.NewSource(seed+1)))
		if solveErr == nil {
			break
		}
		srv.Close()
	}
	require.NoError(t, solveErr)
	defer srv.Close()

	guessGraph := &roomgraph.Graph{
		Labels: candidate.Rooms,
		Door:   candidate.Doors,
		Start:  candidate.StartingRoom,
	}
	assert.True(t, bisim.Exact(srv.Graph(), guessGraph))
}
