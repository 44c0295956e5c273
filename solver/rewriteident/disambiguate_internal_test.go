package rewriteident

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedificium/roomsolve/internal/config"
	"github.com/aedificium/roomsolve/roomgraph"
)

// capCheckingOracle is a test double that fails the test the moment a plan
// would exceed the rewriting oracle's edge-step cap, and otherwise tags
// each trace's last element with a caller-supplied value so disambiguate's
// suffix-key matching can be driven deterministically.
type capCheckingOracle struct {
	t          *testing.T
	capEdges   int
	tailLabels []int
}

func (o *capCheckingOracle) Select(ctx context.Context, problemName string) error { return nil }

func (o *capCheckingOracle) Explore(ctx context.Context, plans []roomgraph.Plan) ([]roomgraph.Trace, int, error) {
	res := make([]roomgraph.Trace, len(plans))
	for i, p := range plans {
		require.LessOrEqualf(o.t, p.EdgeCount(), o.capEdges, "plan %d has %d edge steps, exceeding the cap of %d", i, p.EdgeCount(), o.capEdges)
		trace := make(roomgraph.Trace, len(p)+1)
		trace[len(trace)-1] = o.tailLabels[i]
		res[i] = trace
	}
	return res, 0, nil
}

func (o *capCheckingOracle) Guess(ctx context.Context, candidate roomgraph.Candidate) (bool, error) {
	return false, nil
}

// TestDisambiguateBudgetsMagicAgainstRewriteCap reproduces the scenario
// where a room's representative position sits close to the rewriting
// oracle's edge-step cap: the magic suffix disambiguate appends must
// shrink to fit, rather than reusing the basic-oracle solver's (much
// larger) separator-length constant.
func TestDisambiguateBudgetsMagicAgainstRewriteCap(t *testing.T) {
	const n = 3
	fake := &capCheckingOracle{t: t, capEdges: n * 2, tailLabels: []int{1, 2, 1}}
	sv := &Solver{Oracle: fake, N: n, OracleCfg: config.Oracle{RewriteEdgeCapMultiplier: 2}}

	randomWalkPlan := roomgraph.Plan{roomgraph.Edge(0), roomgraph.Edge(1)}
	rwPos := []int{2, 2, 2}
	edges := make([][roomgraph.Doors]int, n)
	ambiguous := []ambiguousEdge{{u: 0, e: 3, candidates: []int{1, 2}}}

	_, err := sv.disambiguate(context.Background(), rand.New(rand.NewSource(1)), randomWalkPlan, rwPos, ambiguous, edges)
	require.NoError(t, err)
	assert.Equal(t, 1, edges[0][3])
}
