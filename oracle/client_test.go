package oracle_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/roomgraph"
)

func TestSelectSendsIDAndProblemName(t *testing.T) {
	var gotBody map[string]interface{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/select", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotBody))
		json.NewEncoder(w).Encode(map[string]string{"problemName": gotBody["problemName"].(string)})
	}))
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "cred-1", nil)
	err := c.Select(context.Background(), "probatio")
	require.NoError(t, err)
	assert.Equal(t, "cred-1", gotBody["id"])
	assert.Equal(t, "probatio", gotBody["problemName"])
}

func TestExploreRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Plans []string `json:"plans"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		require.Equal(t, []string{"01[2]"}, body.Plans)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"results":    [][]int{{0, 1, 2, 2}},
			"queryCount": 5,
		})
	}))
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "cred", nil)
	plans := []roomgraph.Plan{{roomgraph.Edge(0), roomgraph.Edge(1), roomgraph.Rewrite(2)}}
	traces, qc, err := c.Explore(context.Background(), plans)
	require.NoError(t, err)
	assert.Equal(t, 5, qc)
	assert.Equal(t, roomgraph.Trace{0, 1, 2, 2}, traces[0])
}

func TestExploreRejectsMismatchedResultCount(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]interface{}{"results": [][]int{}, "queryCount": 1})
	}))
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "cred", nil)
	_, _, err := c.Explore(context.Background(), []roomgraph.Plan{{roomgraph.Edge(0)}})
	assert.Error(t, err)
}

func TestGuessRoundTrip(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/guess", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]bool{"correct": true})
	}))
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "cred", nil)
	doors := [][roomgraph.Doors]int{{0, 0, 0, 0, 0, 0}}
	correct, err := c.Guess(context.Background(), roomgraph.Candidate{Rooms: []int{0}, StartingRoom: 0, Doors: doors})
	require.NoError(t, err)
	assert.True(t, correct)
}

func TestNon2xxIsProtocolError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad plan", http.StatusBadRequest)
	}))
	defer srv.Close()

	c := oracle.NewClient(srv.URL, "cred", nil)
	err := c.Select(context.Background(), "probatio")
	assert.Error(t, err)
}
