// Package driver runs a solver against an oracle session to completion,
// retrying fresh attempts the way original_source/japlj/src/main.rs does:
// each trial re-selects the problem (drawing a fresh hidden graph from
// the oracle's perspective) and runs the solver once; a solver error or a
// rejected guess both count as a failed trial.
package driver

import (
	"context"
	"math/rand"

	"github.com/pkg/errors"

	"github.com/aedificium/roomsolve/internal/log"
	"github.com/aedificium/roomsolve/oracle"
	"github.com/aedificium/roomsolve/roomgraph"
)

// Attempter is the subset of a solver family's API the driver needs: run
// one attempt against an already-selected oracle session and return the
// recovered candidate graph.
type Attempter interface {
	Solve(ctx context.Context, rng *rand.Rand) (roomgraph.Candidate, int, error)
}

// Result summarizes a completed run across one or more trials.
type Result struct {
	Trials     int
	QueryCount int
	Candidate  roomgraph.Candidate
}

// Run selects problemName on o, then attempts newAttempter's solver up to
// maxTrials times, re-selecting before each trial. newAttempter is called
// once per trial so the caller can hand back a solver bound to a fresh
// rng seed. A trial succeeds when the solver returns a candidate and the
// oracle's Guess confirms it; any other outcome retries.
func Run(ctx context.Context, o oracle.Oracle, problemName string, maxTrials int, newAttempter func(trial int) Attempter, rngForTrial func(trial int) *rand.Rand, tracer *log.Tracer) (Result, error) {
	var lastErr error
	for trial := 0; trial < maxTrials; trial++ {
		if tracer != nil {
			tracer.Tracef("driver: trial %d/%d", trial+1, maxTrials)
		}

		if err := o.Select(ctx, problemName); err != nil {
			lastErr = errors.Wrap(err, "selecting problem")
			continue
		}

		attempter := newAttempter(trial)
		candidate, queryCount, err := attempter.Solve(ctx, rngForTrial(trial))
		if err != nil {
			lastErr = err
			continue
		}

		correct, err := o.Guess(ctx, candidate)
		if err != nil {
			lastErr = errors.Wrap(err, "submitting guess")
			continue
		}
		if !correct {
			lastErr = errors.New("oracle rejected guess")
			continue
		}

		return Result{Trials: trial + 1, QueryCount: queryCount, Candidate: candidate}, nil
	}

	if lastErr == nil {
		lastErr = errors.New("no trials attempted")
	}
	return Result{}, errors.Wrapf(lastErr, "exhausted %d trials", maxTrials)
}
