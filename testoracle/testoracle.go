// Package testoracle is an in-process stand-in for the real room-graph
// oracle HTTP service, grounded on original_source/tester/src/main.rs: an
// httptest.Server wrapping a single mutex-guarded roomgraph.Graph, handling
// /select, /explore, /guess with the same request/response shapes and
// length caps the real oracle enforces.
package testoracle

import (
	"encoding/json"
	"math/rand"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/aedificium/roomsolve/bisim"
	"github.com/aedificium/roomsolve/roomgraph"
)

// defaultBisimTrials and defaultBisimSteps mirror internal/config's
// defaults (spec.md §4.3) for the randomized bisimulation check the
// rewriting oracle uses to judge guesses.
const (
	defaultBisimTrials = 100
	defaultBisimSteps  = 10000
)

// Server is an in-process oracle backed by a fixed hidden graph.
type Server struct {
	mu         sync.Mutex
	graph      *roomgraph.Graph
	rewriting  bool
	edgeCapMul int
	queryCount int
	rng        *rand.Rand
	bisimTrials int
	bisimSteps  int

	httpSrv *httptest.Server
}

// New starts a Server wrapping graph. rewriting selects whether the
// oracle accepts Rewrite steps (the "aleph"-style oracle) or rejects
// them (the "probatio"/"secundus"-style oracle); edgeCapMul bounds a
// plan's edge-step count at edgeCapMul*N, per spec.md §3.
func New(graph *roomgraph.Graph, rewriting bool, edgeCapMul int) *Server {
	s := &Server{
		graph:       graph,
		rewriting:   rewriting,
		edgeCapMul:  edgeCapMul,
		rng:         rand.New(rand.NewSource(42)),
		bisimTrials: defaultBisimTrials,
		bisimSteps:  defaultBisimSteps,
	}
	mux := http.NewServeMux()
	mux.HandleFunc("/select", s.handleSelect)
	mux.HandleFunc("/explore", s.handleExplore)
	mux.HandleFunc("/guess", s.handleGuess)
	s.httpSrv = httptest.NewServer(mux)
	return s
}

// NewRandom builds a Server around a freshly sampled connected graph of n
// rooms, per original_source/tester/src/main.rs's select_handler.
func NewRandom(n int, rewriting bool, edgeCapMul int, rng *rand.Rand) *Server {
	return New(roomgraph.Random(n, rng), rewriting, edgeCapMul)
}

// URL returns the server's base URL, suitable for oracle.NewClient.
func (s *Server) URL() string { return s.httpSrv.URL }

// Close shuts down the underlying httptest.Server.
func (s *Server) Close() { s.httpSrv.Close() }

// QueryCount reports the session's running query count, mirroring the
// oracle's own bookkeeping (one unit per plan, plus one for the batch).
func (s *Server) QueryCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.queryCount
}

// Graph exposes the hidden graph, for test assertions only; a real oracle
// client has no equivalent.
func (s *Server) Graph() *roomgraph.Graph {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.graph
}

type selectRequest struct {
	ID          string `json:"id"`
	ProblemName string `json:"problemName"`
}

type selectResponse struct {
	ProblemName string `json:"problemName"`
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	s.queryCount = 0
	s.mu.Unlock()

	writeJSON(w, selectResponse{ProblemName: req.ProblemName})
}

type exploreRequest struct {
	ID    string   `json:"id"`
	Plans []string `json:"plans"`
}

type exploreResponse struct {
	Results    [][]int `json:"results"`
	QueryCount int     `json:"queryCount"`
}

func (s *Server) handleExplore(w http.ResponseWriter, r *http.Request) {
	var req exploreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	maxLen := s.graph.NRooms() * s.edgeCapMul
	plans := make([]roomgraph.Plan, len(req.Plans))
	for i, raw := range req.Plans {
		plan, err := roomgraph.ParsePlan(raw)
		if err != nil {
			http.Error(w, "invalid plan: "+raw, http.StatusBadRequest)
			return
		}
		if !s.rewriting {
			for _, step := range plan {
				if step.Kind == roomgraph.StepRewrite {
					http.Error(w, "rewrite steps not permitted for this problem: "+raw, http.StatusBadRequest)
					return
				}
			}
		}
		if plan.EdgeCount() > maxLen {
			http.Error(w, "too long plan: "+raw, http.StatusBadRequest)
			return
		}
		plans[i] = plan
	}

	results := make([][]int, len(plans))
	for i, plan := range plans {
		results[i] = []int(s.graph.Walk(plan))
	}
	s.queryCount += len(plans) + 1

	writeJSON(w, exploreResponse{Results: results, QueryCount: s.queryCount})
}

type guessRequest struct {
	ID  string     `json:"id"`
	Map guessGraph `json:"map"`
}

type guessGraph struct {
	Rooms        []int             `json:"rooms"`
	StartingRoom int               `json:"startingRoom"`
	Connections  []guessConnection `json:"connections"`
}

type guessConnection struct {
	From guessRoomDoor `json:"from"`
	To   guessRoomDoor `json:"to"`
}

type guessRoomDoor struct {
	Room int `json:"room"`
	Door int `json:"door"`
}

type guessResponse struct {
	Correct bool `json:"correct"`
}

func (s *Server) handleGuess(w http.ResponseWriter, r *http.Request) {
	var req guessRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	guess, err := graphFromMap(req.Map)
	if err != nil {
		http.Error(w, "invalid map: "+err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var correct bool
	if s.rewriting {
		correct = bisim.Randomized(s.graph, guess, s.bisimTrials, s.bisimSteps, s.rng)
	} else {
		correct = bisim.Exact(s.graph, guess)
	}
	writeJSON(w, guessResponse{Correct: correct})
}

// graphFromMap rebuilds a Graph from the wire representation, rejecting
// incomplete door tables the way original_source's create_graph_from_map
// does.
func graphFromMap(m guessGraph) (*roomgraph.Graph, error) {
	n := len(m.Rooms)
	const unset = -1
	doors := make([][roomgraph.Doors]int, n)
	for i := range doors {
		for d := 0; d < roomgraph.Doors; d++ {
			doors[i][d] = unset
		}
	}

	for _, c := range m.Connections {
		if c.From.Room < 0 || c.From.Room >= n || c.To.Room < 0 || c.To.Room >= n {
			continue
		}
		if c.From.Door < 0 || c.From.Door >= roomgraph.Doors || c.To.Door < 0 || c.To.Door >= roomgraph.Doors {
			continue
		}
		doors[c.From.Room][c.From.Door] = c.To.Room
		doors[c.To.Room][c.To.Door] = c.From.Room
	}

	for i := 0; i < n; i++ {
		for d := 0; d < roomgraph.Doors; d++ {
			if doors[i][d] == unset {
				return nil, errIncompleteGraph
			}
		}
	}

	return &roomgraph.Graph{Labels: append([]int(nil), m.Rooms...), Door: doors, Start: m.StartingRoom}, nil
}

var errIncompleteGraph = incompleteGraphError{}

type incompleteGraphError struct{}

func (incompleteGraphError) Error() string { return "incomplete graph structure" }

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
