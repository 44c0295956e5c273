package roomgraph

import (
	"math/rand"

	"github.com/pkg/errors"
)

// Graph is the hidden room graph: N rooms, each with a label and a
// length-Doors table of destination rooms. It is stored as index-keyed
// adjacency, not owning references, since the graph is inherently cyclic
// (spec.md §9's "cyclic graph" design note).
type Graph struct {
	Labels []int
	Door   [][Doors]int
	Start  int
}

// NRooms returns the room count.
func (g *Graph) NRooms() int { return len(g.Labels) }

// Walk executes plan from g.Start against a fresh label overlay (cloned
// from g.Labels) and returns the resulting trace. Per spec.md §4.2,
// rewrites performed during one call never leak into another: every call
// clones rather than recording/rolling back edits.
func (g *Graph) Walk(plan Plan) Trace {
	overlay := make([]int, len(g.Labels))
	copy(overlay, g.Labels)

	current := g.Start
	trace := make(Trace, 0, len(plan)+1)
	trace = append(trace, overlay[current])

	for _, step := range plan {
		switch step.Kind {
		case StepEdge:
			current = g.Door[current][step.Arg]
			trace = append(trace, overlay[current])
		case StepRewrite:
			overlay[current] = step.Arg
			trace = append(trace, step.Arg)
		}
	}
	return trace
}

// Connected reports whether every room is reachable from Start, via a
// plain BFS over the door table.
func (g *Graph) Connected() bool {
	n := len(g.Labels)
	visited := make([]bool, n)
	visited[g.Start] = true
	queue := []int{g.Start}
	count := 1
	for len(queue) > 0 {
		u := queue[0]
		queue = queue[1:]
		for d := 0; d < Doors; d++ {
			v := g.Door[u][d]
			if !visited[v] {
				visited[v] = true
				count++
				queue = append(queue, v)
			}
		}
	}
	return count == n
}

// Random generates a hidden graph of n rooms: a balanced, shuffled label
// multiset and a random door pairing, rejecting disconnected draws.
// Grounded on the reference tester's Graph::random.
func Random(n int, rng *rand.Rand) *Graph {
	for {
		g := randomAttempt(n, rng)
		if g.Connected() {
			return g
		}
	}
}

func randomAttempt(n int, rng *rand.Rand) *Graph {
	labels := make([]int, n)
	for i := range labels {
		labels[i] = i % Labels
	}
	rng.Shuffle(n, func(i, j int) { labels[i], labels[j] = labels[j], labels[i] })

	doors := make([][Doors]int, n)
	filled := make([]int, n)
	for i := 0; i < n; i++ {
		for filled[i] < Doors {
			j := rng.Intn(n)
			okJ := (i != j && filled[j] < Doors) || (i == j && filled[j] < Doors-1)
			if !okJ {
				continue
			}
			doors[i][filled[i]] = j
			filled[i]++
			if j != i {
				doors[j][filled[j]] = i
				filled[j]++
			} else {
				doors[i][filled[i]] = i
				filled[i]++
			}
		}
	}
	for i := 0; i < n; i++ {
		rng.Shuffle(Doors, func(a, b int) { doors[i][a], doors[i][b] = doors[i][b], doors[i][a] })
	}

	return &Graph{
		Labels: labels,
		Door:   doors,
		Start:  rng.Intn(n),
	}
}

// PairDoors converts an N x Doors destination table into a Connection
// list, following the deterministic pairing procedure from spec.md §4.1:
// iterate (u, du) in row-major order; if unpaired, let v = table[u][du];
// self-pair if v == u; otherwise pick the smallest unpaired dv on v with
// table[v][dv] == u. Fails if no such dv exists.
func PairDoors(table [][Doors]int) ([]Connection, error) {
	n := len(table)
	paired := make([][Doors]bool, n)
	var conns []Connection

	for u := 0; u < n; u++ {
		for du := 0; du < Doors; du++ {
			if paired[u][du] {
				continue
			}
			v := table[u][du]
			if v == u {
				paired[u][du] = true
				conns = append(conns, Connection{From: RoomDoor{u, du}, To: RoomDoor{u, du}})
				continue
			}

			dv, found := findReverse(table, paired, v, u)
			if !found {
				return nil, errors.Errorf("no reverse door on room %d pointing back to room %d (door %d)", v, u, du)
			}
			paired[u][du] = true
			paired[v][dv] = true
			conns = append(conns, Connection{From: RoomDoor{u, du}, To: RoomDoor{v, dv}})
		}
	}
	return conns, nil
}

// findReverse finds the smallest unpaired door dv on room v with
// table[v][dv] == want.
func findReverse(table [][Doors]int, paired [][Doors]bool, v, want int) (int, bool) {
	for dv := 0; dv < Doors; dv++ {
		if !paired[v][dv] && table[v][dv] == want {
			return dv, true
		}
	}
	return -1, false
}
