// Package bisim decides whether two room graphs are bisimilar from their
// respective start rooms: the definition of "correct" a submitted
// candidate graph must satisfy.
package bisim

import (
	"math/rand"

	"github.com/aedificium/roomsolve/roomgraph"
)

// Exact runs labeled partition refinement on the disjoint union of g and
// h. It is sound and complete for the no-rewrite (basic) oracle, where
// plain edge-only walks cannot observe anything partition refinement
// doesn't already capture. Grounded on the reference tester's
// Graph::bisimulation (non-full branch).
func Exact(g, h *roomgraph.Graph) bool {
	n := g.NRooms()
	if n != h.NRooms() {
		return false
	}

	// Indices 0..n-1 are g's rooms, n..2n-1 are h's rooms (shifted).
	total := 2 * n
	label := func(i int) int {
		if i < n {
			return g.Labels[i]
		}
		return h.Labels[i-n]
	}
	doorOf := func(i, d int) int {
		if i < n {
			return g.Door[i][d]
		}
		return h.Door[i-n][d] + n
	}

	groupID := make([]int, total)
	groups := make([]map[int]struct{}, roomgraph.Labels)
	for l := range groups {
		groups[l] = map[int]struct{}{}
	}
	for i := 0; i < total; i++ {
		l := label(i)
		groupID[i] = l
		groups[l][i] = struct{}{}
	}

	nextGroupID := roomgraph.Labels
	var worklist []map[int]struct{}
	for _, g := range groups {
		worklist = append(worklist, g)
	}

	for len(worklist) > 0 {
		block := worklist[0]
		worklist = worklist[1:]

		for d := 0; d < roomgraph.Doors; d++ {
			entering := map[int]map[int]struct{}{}
			for i := 0; i < total; i++ {
				if _, in := block[doorOf(i, d)]; in {
					gid := groupID[i]
					if entering[gid] == nil {
						entering[gid] = map[int]struct{}{}
					}
					entering[gid][i] = struct{}{}
				}
			}

			for gid, enter := range entering {
				if len(groups[gid]) == len(enter) {
					continue
				}
				for v := range enter {
					delete(groups[gid], v)
					groupID[v] = nextGroupID
				}
				groups = append(groups, enter)
				nextGroupID++

				if len(enter) < len(groups[gid]) {
					worklist = append(worklist, enter)
				} else {
					worklist = append(worklist, groups[gid])
				}
			}
		}
	}

	return groupID[g.Start] == groupID[h.Start+n]
}

// Randomized approximates bisimilarity for the rewrite-enabled oracle,
// where plain partition refinement is incomplete: rewrites let walks
// observe finer structure than edge-only bisimulation captures. It
// samples random mixed edge/rewrite plans and accepts iff every sampled
// trace agrees between g and h. Grounded on the reference tester's
// Graph::bisimulation_randomized (trials=100, steps=10000).
func Randomized(g, h *roomgraph.Graph, trials, steps int, rng *rand.Rand) bool {
	for t := 0; t < trials; t++ {
		mixProb := rng.Float64()
		plan := make(roomgraph.Plan, steps)
		for i := 0; i < steps; i++ {
			if rng.Float64() < mixProb {
				plan[i] = roomgraph.Rewrite(rng.Intn(roomgraph.Labels))
			} else {
				plan[i] = roomgraph.Edge(rng.Intn(roomgraph.Doors))
			}
		}
		if !traceEqual(g.Walk(plan), h.Walk(plan)) {
			return false
		}
	}
	return true
}

func traceEqual(a, b roomgraph.Trace) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
