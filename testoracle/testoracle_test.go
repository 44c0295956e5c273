package testoracle_test

import (
	"context"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/roomgraph"
	"github.com/aedificium/roomsolve/testoracle"
)

func exampleGraph() *roomgraph.Graph {
	return &roomgraph.Graph{
		Labels: []int{0, 2, 1},
		Door: [][roomgraph.Doors]int{
			{1, 2, 0, 1, 2, 0},
			{0, 0, 1, 2, 2, 1},
			{2, 1, 2, 0, 0, 1},
		},
		Start: 1,
	}
}

func TestSelectResetsQueryCount(t *testing.T) {
	srv := testoracle.New(exampleGraph(), false, 18)
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)
	require.NoError(t, c.Select(context.Background(), "probatio"))
	assert.Equal(t, 0, srv.QueryCount())
}

func TestExploreMatchesGraphWalk(t *testing.T) {
	g := exampleGraph()
	srv := testoracle.New(g, false, 18)
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)
	plan := roomgraph.Plan{roomgraph.Edge(0), roomgraph.Edge(1)}
	traces, qc, err := c.Explore(context.Background(), []roomgraph.Plan{plan})
	require.NoError(t, err)
	assert.Equal(t, g.Walk(plan), traces[0])
	assert.Equal(t, 2, qc)
}

func TestExploreRejectsRewriteWhenNotRewriting(t *testing.T) {
	srv := testoracle.New(exampleGraph(), false, 18)
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)
	plan := roomgraph.Plan{roomgraph.Edge(0), roomgraph.Rewrite(3)}
	_, _, err := c.Explore(context.Background(), []roomgraph.Plan{plan})
	assert.Error(t, err)
}

func TestExploreRejectsOverlongPlan(t *testing.T) {
	srv := testoracle.New(exampleGraph(), false, 1)
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)
	steps := make(roomgraph.Plan, 10)
	for i := range steps {
		steps[i] = roomgraph.Edge(0)
	}
	_, _, err := c.Explore(context.Background(), []roomgraph.Plan{steps})
	assert.Error(t, err)
}

func TestGuessAcceptsIdenticalGraph(t *testing.T) {
	g := exampleGraph()
	srv := testoracle.New(g, false, 18)
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)
	candidate := roomgraph.Candidate{Rooms: append([]int(nil), g.Labels...), StartingRoom: g.Start, Doors: append([][roomgraph.Doors]int(nil), g.Door...)}
	correct, err := c.Guess(context.Background(), candidate)
	require.NoError(t, err)
	assert.True(t, correct)
}

func TestGuessRejectsDifferentGraph(t *testing.T) {
	g := exampleGraph()
	srv := testoracle.New(g, false, 18)
	defer srv.Close()

	c := oracle.NewClient(srv.URL(), "cred", nil)
	badLabels := append([]int(nil), g.Labels...)
	badLabels[0] = (badLabels[0] + 1) % roomgraph.Labels
	candidate := roomgraph.Candidate{Rooms: badLabels, StartingRoom: g.Start, Doors: append([][roomgraph.Doors]int(nil), g.Door...)}
	correct, err := c.Guess(context.Background(), candidate)
	require.NoError(t, err)
	assert.False(t, correct)
}

func TestNewRandomProducesConnectedGraph(t *testing.T) {
	srv := testoracle.NewRandom(12, true, 6, rand.New(rand.NewSource(42)))
	defer srv.Close()
	assert.True(t, srv.Graph().Connected())
	assert.Equal(t, 12, srv.Graph().NRooms())
}
