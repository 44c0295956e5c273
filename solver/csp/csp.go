package csp

import (
	"context"
	"math/rand"
	"sort"

	"github.com/aedificium/roomsolve/internal/config"
	"github.com/aedificium/roomsolve/internal/errs"
	"github.com/aedificium/roomsolve/internal/log"
	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/roomgraph"
)

// Solver runs one CSP-backtracking attempt at reconstructing an n-room
// graph from a single long random walk's trace.
type Solver struct {
	Oracle oracle.Oracle
	N      int
	Cfg    config.Solver
	Trace  *log.Tracer

	dfsCalls int
}

// New builds a Solver. tracer may be nil.
func New(o oracle.Oracle, n int, cfg config.Solver, tracer *log.Tracer) *Solver {
	return &Solver{Oracle: o, N: n, Cfg: cfg, Trace: tracer}
}

// Solve runs one attempt, returning the recovered candidate graph and the
// oracle's reported query count.
func (s *Solver) Solve(ctx context.Context, rng *rand.Rand) (roomgraph.Candidate, int, error) {
	walkLen := s.N * s.Cfg.CSPWalkLenMultiplier
	walk := make([]int, walkLen)
	for i := range walk {
		walk[i] = rng.Intn(roomgraph.Doors)
	}

	plan := make(roomgraph.Plan, walkLen)
	for i, d := range walk {
		plan[i] = roomgraph.Edge(d)
	}

	s.trace("csp: exploring one walk of length %d", walkLen)
	results, queryCount, err := s.Oracle.Explore(ctx, []roomgraph.Plan{plan})
	if err != nil {
		return roomgraph.Candidate{}, 0, err
	}
	walkLabels := []int(results[0])

	labels, edges, adj, err := s.reconstruct(walk, walkLabels)
	if err != nil {
		return roomgraph.Candidate{}, 0, err
	}

	finalizeLeftoverDoors(s.N, labels, edges, adj)

	return roomgraph.Candidate{Rooms: labels, StartingRoom: 0, Doors: edges}, queryCount, nil
}

func (s *Solver) reconstruct(walk, walkLabels []int) ([]int, [][roomgraph.Doors]int, [][]bool, error) {
	state := newSearchState(s.N, walk, walkLabels)
	s.dfsCalls = 0
	if !s.dfs(state, walk, walkLabels) {
		return nil, nil, nil, errs.Precondition("csp: search exhausted without a complete assignment")
	}
	return state.labels, state.edges, state.adj, nil
}

// dfs assigns walk positions to room ids by most-constrained-position
// order (MRV), trying existing rooms before opening a new one, and
// backtracks through the undo log on failure. Grounded on solver6.rs's
// Solver6::dfs, including its hard expansion cap and its candidate
// ordering: rooms with the strongest structural compatibility score are
// tried first, with degree as a tiebreaker among equally-scored rooms.
func (s *Solver) dfs(state *searchState, walk, walkLabels []int) bool {
	s.dfsCalls++
	if s.dfsCalls > s.Cfg.CSPMaxExpansions {
		return false
	}

	if state.complete() {
		return true
	}

	ix := s.chooseMRVPosition(state, walk, walkLabels)

	nu := state.nextVertex()
	candidates := make([]int, 0, nu)
	for u := 0; u < nu; u++ {
		if state.labels[u] == walkLabels[ix] {
			candidates = append(candidates, u)
		}
	}
	scores := make(map[int]int, len(candidates))
	for _, u := range candidates {
		scores[u] = state.mergeScore(u, walk, walkLabels, ix)
	}
	sort.Slice(candidates, func(i, j int) bool {
		a, b := candidates[i], candidates[j]
		if scores[a] != scores[b] {
			return scores[a] > scores[b]
		}
		return state.degree[a] > state.degree[b]
	})

	for _, u := range candidates {
		if !state.mergeable(u, walk, walkLabels, ix) {
			continue
		}
		ops, ok := state.merge(u, walk, walkLabels, ix)
		if ok && s.dfs(state, walk, walkLabels) {
			return true
		}
		state.undo(ops)
	}

	if nu < s.N {
		ops, ok := state.merge(nu, walk, walkLabels, ix)
		if ok && s.dfs(state, walk, walkLabels) {
			return true
		}
		state.undo(ops)
	}

	return false
}

// chooseMRVPosition picks the unassigned walk position with the fewest
// mergeable existing rooms (plus the open-new-room option), the
// minimum-remaining-values heuristic solver6.rs uses to order the DFS.
func (s *Solver) chooseMRVPosition(state *searchState, walk, walkLabels []int) int {
	best := -1
	minOptions := int(^uint(0) >> 1)
	for i := range walkLabels {
		if state.toID[i] != unset {
			continue
		}
		options := 0
		for u := 0; u < state.assigned; u++ {
			if state.mergeable(u, walk, walkLabels, i) {
				options++
			}
		}
		if state.assigned < s.N {
			options++
		}
		if options < minOptions {
			minOptions = options
			best = i
		}
	}
	return best
}

// finalizeLeftoverDoors assigns any door left unresolved by the walk to
// an adjacent room missing an inbound match, falling back to a self-loop,
// per solver6.rs's post-DFS cleanup.
func finalizeLeftoverDoors(n int, labels []int, edges [][roomgraph.Doors]int, adj [][]bool) {
	for u := 0; u < n; u++ {
		has := make([]bool, n)
		for d := 0; d < roomgraph.Doors; d++ {
			if edges[u][d] != unset {
				has[edges[u][d]] = true
			}
		}

		var noEdge []int
		for v := 0; v < n; v++ {
			if adj[u][v] && !has[v] {
				noEdge = append(noEdge, v)
			}
		}

		for d := 0; d < roomgraph.Doors; d++ {
			if edges[u][d] != unset {
				continue
			}
			if len(noEdge) > 0 {
				edges[u][d] = noEdge[len(noEdge)-1]
				noEdge = noEdge[:len(noEdge)-1]
			} else {
				edges[u][d] = u
			}
		}
	}
}

func (s *Solver) trace(format string, args ...interface{}) {
	if s.Trace != nil {
		s.Trace.Tracef(format, args...)
	}
}
