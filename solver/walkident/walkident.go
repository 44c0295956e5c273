// Package walkident implements the walk-and-identify solver for the
// non-rewriting oracle, grounded field-for-field on
// original_source/japlj/src/solver.rs: a single random walk prefixed onto a
// long fixed suffix ("magic") distinguishes rooms by their suffix trace,
// then one extra door-step per candidate room's prefix recovers its edges.
package walkident

import (
	"context"
	"fmt"
	"math/rand"
	"strings"

	"github.com/aedificium/roomsolve/internal/config"
	"github.com/aedificium/roomsolve/internal/errs"
	"github.com/aedificium/roomsolve/internal/log"
	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/roomgraph"
)

// Solver runs one attempt at reconstructing an n-room graph through a
// non-rewriting Oracle.
type Solver struct {
	Oracle oracle.Oracle
	N      int
	Cfg    config.Solver
	Trace  *log.Tracer
}

// New builds a Solver. tracer may be nil.
func New(o oracle.Oracle, n int, cfg config.Solver, tracer *log.Tracer) *Solver {
	return &Solver{Oracle: o, N: n, Cfg: cfg, Trace: tracer}
}

// Solve runs one attempt, returning the recovered candidate graph and the
// oracle's reported query count. A non-nil error means this attempt
// failed and the caller (see the driver package) should retry with a
// fresh rng seed.
func (s *Solver) Solve(ctx context.Context, rng *rand.Rand) (roomgraph.Candidate, int, error) {
	walkLen := s.N * s.Cfg.WalkLenMultiplier
	magicLen := s.N*s.Cfg.SeparatorLenMultiplier - 1
	if magicLen < 0 {
		magicLen = 0
	}

	randomWalk := randomDoorSequence(rng, walkLen)
	magic := randomDoorSequence(rng, magicLen)

	firstPlans := make([]roomgraph.Plan, walkLen+1)
	for walk := 0; walk <= walkLen; walk++ {
		firstPlans[walk] = concatDoorPlans(randomWalk[:walk], magic)
	}

	s.trace("walkident: exploring %d prefix plans", len(firstPlans))
	firstRes, _, err := s.Oracle.Explore(ctx, firstPlans)
	if err != nil {
		return roomgraph.Candidate{}, 0, err
	}

	patterns := map[string]int{}
	var ixs []int
	var labels []int
	for ix, res := range firstRes {
		pattern := traceSuffixKey(res, ix)
		if _, ok := patterns[pattern]; !ok {
			patterns[pattern] = len(ixs)
			ixs = append(ixs, ix)
			labels = append(labels, res[ix])
		}
	}

	if len(patterns) != s.N {
		return roomgraph.Candidate{}, 0, errs.Precondition("walkident: distinguished %d rooms, want %d", len(patterns), s.N)
	}

	secondPlans := make([]roomgraph.Plan, 0, len(ixs)*roomgraph.Doors)
	for _, ix := range ixs {
		for door := 0; door < roomgraph.Doors; door++ {
			plan := concatDoorPlans(randomWalk[:ix], []int{door})
			plan = append(plan, magicSteps(magic)...)
			secondPlans = append(secondPlans, plan)
		}
	}

	s.trace("walkident: exploring %d edge-discovery plans", len(secondPlans))
	secondRes, queryCount, err := s.Oracle.Explore(ctx, secondPlans)
	if err != nil {
		return roomgraph.Candidate{}, 0, err
	}

	doors := make([][roomgraph.Doors]int, s.N)
	for i, ix := range ixs {
		for door := 0; door < roomgraph.Doors; door++ {
			res := secondRes[roomgraph.Doors*i+door]
			pattern := traceSuffixKey(res, ix+1)
			j, ok := patterns[pattern]
			if !ok {
				return roomgraph.Candidate{}, 0, errs.Precondition("walkident: no room matches post-step pattern for room %d door %d", i, door)
			}
			doors[i][door] = j
		}
	}

	candidate := roomgraph.Candidate{Rooms: labels, StartingRoom: 0, Doors: doors}
	return candidate, queryCount, nil
}

func (s *Solver) trace(format string, args ...interface{}) {
	if s.Trace != nil {
		s.Trace.Tracef(format, args...)
	}
}

func randomDoorSequence(rng *rand.Rand, n int) []int {
	seq := make([]int, n)
	for i := range seq {
		seq[i] = rng.Intn(roomgraph.Doors)
	}
	return seq
}

func magicSteps(doors []int) roomgraph.Plan {
	plan := make(roomgraph.Plan, len(doors))
	for i, d := range doors {
		plan[i] = roomgraph.Edge(d)
	}
	return plan
}

func concatDoorPlans(prefixes ...[]int) roomgraph.Plan {
	total := 0
	for _, p := range prefixes {
		total += len(p)
	}
	plan := make(roomgraph.Plan, 0, total)
	for _, p := range prefixes {
		for _, d := range p {
			plan = append(plan, roomgraph.Edge(d))
		}
	}
	return plan
}

// traceSuffixKey renders trace[from:] as a compact string key, grounded on
// solver.rs's per-element string join used to hash a distinguishing
// suffix.
func traceSuffixKey(trace roomgraph.Trace, from int) string {
	if from >= len(trace) {
		return ""
	}
	var b strings.Builder
	for _, v := range trace[from:] {
		fmt.Fprintf(&b, "%d", v)
	}
	return b.String()
}
