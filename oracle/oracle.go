// Package oracle is the transport for the three operations a solver
// issues against the remote room-graph oracle: select, explore, guess.
package oracle

import (
	"context"

	"github.com/aedificium/roomsolve/roomgraph"
)

// Oracle is the interface solvers depend on, grounded on the teacher's
// own habit of routing solver logic through a small sourceBridge
// interface (bridge.go) rather than a concrete *http.Client, so tests can
// substitute an in-process implementation (see the testoracle package).
type Oracle interface {
	// Select begins a session for the named problem. The hidden graph is
	// fixed until the next Select call.
	Select(ctx context.Context, problemName string) error

	// Explore submits a batch of plans and returns their traces plus the
	// session's running query count.
	Explore(ctx context.Context, plans []roomgraph.Plan) (results []roomgraph.Trace, queryCount int, err error)

	// Guess submits a candidate graph and reports whether the oracle
	// judged it bisimilar to the hidden graph.
	Guess(ctx context.Context, candidate roomgraph.Candidate) (correct bool, err error)
}
