package bisim_test

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/aedificium/roomsolve/bisim"
	"github.com/aedificium/roomsolve/roomgraph"
)

func TestExactBisimulationExample(t *testing.T) {
	g1 := &roomgraph.Graph{
		Labels: []int{0, 2, 1},
		Door: [][roomgraph.Doors]int{
			{2, 0, 2, 0, 0, 0},
			{1, 1, 1, 2, 2, 1},
			{2, 1, 1, 0, 2, 0},
		},
		Start: 1,
	}
	g2 := &roomgraph.Graph{
		Labels: []int{0, 1, 2},
		Door: [][roomgraph.Doors]int{
			{1, 0, 1, 0, 0, 0},
			{1, 2, 2, 0, 1, 0},
			{2, 2, 2, 1, 1, 2},
		},
		Start: 2,
	}

	assert.True(t, bisim.Exact(g1, g2))
	assert.True(t, bisim.Exact(g2, g1))
}

func TestExactReflexive(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	g := roomgraph.Random(9, rng)
	assert.True(t, bisim.Exact(g, g))
}

func TestExactRejectsDifferentStartLabel(t *testing.T) {
	g := &roomgraph.Graph{
		Labels: []int{0, 1},
		Door:   [][roomgraph.Doors]int{{0, 0, 0, 0, 0, 1}, {1, 1, 1, 1, 1, 0}},
		Start:  0,
	}
	h := &roomgraph.Graph{
		Labels: []int{0, 1},
		Door:   [][roomgraph.Doors]int{{0, 0, 0, 0, 0, 1}, {1, 1, 1, 1, 1, 0}},
		Start:  1,
	}
	assert.False(t, bisim.Exact(g, h))
}

func TestRandomizedReflexive(t *testing.T) {
	rng := rand.New(rand.NewSource(3))
	g := roomgraph.Random(6, rng)
	assert.True(t, bisim.Randomized(g, g, 10, 200, rng))
}

func TestRandomizedDetectsDivergence(t *testing.T) {
	rng := rand.New(rand.NewSource(5))
	g := roomgraph.Random(6, rng)
	h := &roomgraph.Graph{Labels: append([]int{}, g.Labels...), Door: append([][roomgraph.Doors]int{}, g.Door...), Start: g.Start}
	// Flip the start room's label so every sampled trace differs from g's
	// at its first element.
	h.Labels[h.Start] = (h.Labels[h.Start] + 1) % roomgraph.Labels
	assert.False(t, bisim.Randomized(g, h, 50, 500, rng))
}
