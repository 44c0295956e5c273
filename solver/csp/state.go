// Package csp implements the backtracking constraint-search solver,
// grounded field-for-field on original_source/japlj/src/solver6.rs: a
// single long random walk is explored once, then a DFS assigns each walk
// position to a room id (new or previously seen), backtracking via an
// explicit undo log whenever a merge violates the door-degree bound or
// the per-label room bound.
// Candidate rooms are tried in order of a structural compatibility score
// against a precomputed walk-position compatibility matrix, tiebroken by
// descending degree, exactly as solver6.rs orders its own search.
package csp

import "github.com/aedificium/roomsolve/roomgraph"

const unset = -1

// undoOp is one reversible mutation applied during merge, grounded on
// solver6.rs's UndoOp enum (its multi-edge bookkeeping variants are
// dropped here since this state never represents parallel edges between
// the same two rooms).
type undoOp struct {
	kind undoKind
	a, b int
}

type undoKind int

const (
	undoRemoveNewVertex undoKind = iota
	undoRevertToID
	undoRemoveEdge
	undoRevertAdj
	undoRevertEdgeToLabel
	undoPopFromID
)

// searchState is the partial assignment built up during the DFS: which
// walk positions map to which room ids, and the edges/adjacency/degree
// implied so far.
type searchState struct {
	labels       []int
	edges        [][roomgraph.Doors]int
	adj          [][]bool
	degree       []int
	toID         []int
	fromID       [][]int
	edgesToLabel [][roomgraph.Doors]int
	assigned     int

	// matches[i][j] reports whether walk positions i and j could name the
	// same room without an eventual contradiction: their labels and the
	// doors they take agree for as long as both walks keep taking the same
	// door, per solver6.rs's SearchState::new. mergeable consults it so a
	// merge considers every position already assigned to a room, not just
	// its immediate neighbors in the walk.
	matches [][]bool
}

func newSearchState(n int, walk, walkLabels []int) *searchState {
	rwVertices := len(walkLabels)
	s := &searchState{
		labels:       make([]int, n),
		edges:        make([][roomgraph.Doors]int, n),
		adj:          make([][]bool, n),
		degree:       make([]int, n),
		toID:         make([]int, rwVertices),
		fromID:       make([][]int, n),
		edgesToLabel: make([][roomgraph.Doors]int, n),
		matches:      computeMatches(walk, walkLabels),
	}
	for i := range s.labels {
		s.labels[i] = unset
	}
	for i := range s.edges {
		for d := range s.edges[i] {
			s.edges[i][d] = unset
			s.edgesToLabel[i][d] = unset
		}
	}
	for i := range s.adj {
		s.adj[i] = make([]bool, n)
	}
	for i := range s.toID {
		s.toID[i] = unset
	}
	return s
}

// computeMatches precomputes, for every pair of walk positions, whether
// following identical door choices from each would keep observing
// identical labels for as long as the choices stay identical. Ported from
// solver6.rs's SearchState::new.
func computeMatches(walk, walkLabels []int) [][]bool {
	n := len(walkLabels)
	m := make([][]bool, n)
	for i := range m {
		m[i] = make([]bool, n)
	}
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			ok := true
			for d := 0; ; d++ {
				ok = ok && walkLabels[i+d] == walkLabels[j+d]
				hi := i
				if j > hi {
					hi = j
				}
				if hi+d >= len(walk) || walk[i+d] != walk[j+d] {
					break
				}
			}
			m[i][j] = ok
		}
	}
	return m
}

func (s *searchState) nextVertex() int { return s.assigned }

// mergeable reports whether walk position ix can be assigned to room u
// (which must already exist, u < s.assigned) without an immediate
// contradiction: matching label, and consistency with the door taken to
// reach ix and the door taken to leave it.
func (s *searchState) mergeable(u int, walk []int, walkLabels []int, ix int) bool {
	if s.labels[u] != walkLabels[ix] {
		return false
	}

	for _, jx := range s.fromID[u] {
		if !s.matches[jx][ix] {
			return false
		}
	}

	if ix > 0 && s.toID[ix-1] != unset {
		pu := s.toID[ix-1]
		edgeID := walk[ix-1]
		if s.edges[pu][edgeID] != unset && s.edges[pu][edgeID] != u {
			return false
		}
		if s.edgesToLabel[pu][edgeID] != unset && s.edgesToLabel[pu][edgeID] != walkLabels[ix] {
			return false
		}
	}

	if ix < len(walk) {
		edgeID := walk[ix]
		if s.edgesToLabel[u][edgeID] != unset && s.edgesToLabel[u][edgeID] != walkLabels[ix+1] {
			return false
		}
	}

	if ix < len(walk) && s.toID[ix+1] != unset {
		nu := s.toID[ix+1]
		edgeID := walk[ix]
		if s.edges[u][edgeID] != unset && s.edges[u][edgeID] != nu {
			return false
		}
		if s.edgesToLabel[u][edgeID] != unset && s.edgesToLabel[u][edgeID] != walkLabels[ix+1] {
			return false
		}
	}

	return true
}

// mergeScore ranks an already-mergeable room u as a candidate for walk
// position ix, rewarding assignments that confirm structure the search
// has already committed to: 100 for an edge that already names u as its
// exact neighbor-target, 10 for a neighbor pair already marked adjacent,
// 1 for a neighbor edge whose recorded target label merely agrees.
// Ported from solver6.rs's merge_score, which uses the same weights to
// prefer reusing rooms the walk has strong structural evidence for over
// rooms that are merely label-compatible.
func (s *searchState) mergeScore(u int, walk []int, walkLabels []int, ix int) int {
	score := 0

	if ix > 0 && s.toID[ix-1] != unset {
		pu := s.toID[ix-1]
		edgeID := walk[ix-1]
		switch {
		case s.edges[pu][edgeID] == u:
			score += 100
		case s.adj[pu][u]:
			score += 10
		case s.edgesToLabel[pu][edgeID] == walkLabels[ix]:
			score++
		}
	}

	if ix < len(walk) && s.toID[ix+1] != unset {
		nu := s.toID[ix+1]
		edgeID := walk[ix]
		switch {
		case s.edges[u][edgeID] == nu:
			score += 100
		case s.adj[u][nu]:
			score += 10
		case s.edgesToLabel[u][edgeID] == walkLabels[ix+1]:
			score++
		}
	}

	return score
}

// merge assigns walk position ix to room u (new if u == s.assigned),
// returning the undo log to reverse it and whether the assignment stayed
// within the per-room door-degree bound and the per-label room bound.
func (s *searchState) merge(u int, walk []int, walkLabels []int, ix int) ([]undoOp, bool) {
	var ops []undoOp

	if u >= s.assigned {
		s.assigned++
		s.labels[u] = walkLabels[ix]
		ops = append(ops, undoOp{kind: undoRemoveNewVertex, a: u})

		// Label balance: no label may name more than ceil(n/Labels) rooms.
		count := 0
		for v := 0; v < s.assigned; v++ {
			if s.labels[v] == s.labels[u] {
				count++
			}
		}
		if count > (len(s.labels)+roomgraph.Labels-1)/roomgraph.Labels {
			return ops, false
		}
	}

	s.toID[ix] = u
	ops = append(ops, undoOp{kind: undoRevertToID, a: ix})

	s.fromID[u] = append(s.fromID[u], ix)
	ops = append(ops, undoOp{kind: undoPopFromID, a: u})

	if ix > 0 && s.toID[ix-1] != unset {
		pu := s.toID[ix-1]
		edgeID := walk[ix-1]
		if s.edges[pu][edgeID] == unset {
			s.edges[pu][edgeID] = u
			ops = append(ops, undoOp{kind: undoRemoveEdge, a: pu, b: edgeID})
			if !s.adj[pu][u] {
				s.adj[pu][u] = true
				s.adj[u][pu] = true
				s.degree[pu]++
				s.degree[u]++
				ops = append(ops, undoOp{kind: undoRevertAdj, a: pu, b: u})
				if s.degree[pu] > roomgraph.Doors || s.degree[u] > roomgraph.Doors {
					return ops, false
				}
			}
		}
	}

	if ix < len(walk) {
		edgeID := walk[ix]
		if s.edgesToLabel[u][edgeID] == unset {
			s.edgesToLabel[u][edgeID] = walkLabels[ix+1]
			ops = append(ops, undoOp{kind: undoRevertEdgeToLabel, a: u, b: edgeID})
		}
	}

	if ix < len(walk) && s.toID[ix+1] != unset {
		nu := s.toID[ix+1]
		edgeID := walk[ix]
		if s.edges[u][edgeID] == unset {
			s.edges[u][edgeID] = nu
			ops = append(ops, undoOp{kind: undoRemoveEdge, a: u, b: edgeID})
			if !s.adj[u][nu] {
				s.adj[u][nu] = true
				s.adj[nu][u] = true
				s.degree[u]++
				s.degree[nu]++
				ops = append(ops, undoOp{kind: undoRevertAdj, a: u, b: nu})
			}
		}
	}

	return ops, true
}

func (s *searchState) undo(ops []undoOp) {
	for i := len(ops) - 1; i >= 0; i-- {
		op := ops[i]
		switch op.kind {
		case undoRemoveNewVertex:
			s.assigned--
			s.labels[op.a] = unset
		case undoRevertToID:
			s.toID[op.a] = unset
		case undoRemoveEdge:
			s.edges[op.a][op.b] = unset
		case undoRevertAdj:
			pu, u := op.a, op.b
			s.adj[pu][u] = false
			s.adj[u][pu] = false
			s.degree[pu]--
			s.degree[u]--
		case undoRevertEdgeToLabel:
			s.edgesToLabel[op.a][op.b] = unset
		case undoPopFromID:
			s.fromID[op.a] = s.fromID[op.a][:len(s.fromID[op.a])-1]
		}
	}
}

// complete reports whether every walk position has a room assignment.
func (s *searchState) complete() bool {
	for _, id := range s.toID {
		if id == unset {
			return false
		}
	}
	return true
}
