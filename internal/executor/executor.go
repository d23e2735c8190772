// Package executor runs a scenario's replica ensemble across a pool of
// worker goroutines, streams each replica's result through a ResultSink,
// and reassembles a deterministic, index-ordered ScenarioResult.
package executor

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"

	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/aristath/glp-resilience/internal/engine"
	"github.com/aristath/glp-resilience/internal/events"
)

// defaultMaxWorkers mirrors the teacher worker pool's default of 10 when
// no explicit worker count is configured.
const defaultMaxWorkers = 10

// defaultSampleSize is K, the number of replicas (by index, deterministic)
// whose full DailyRecord sequence is retained and persisted, per spec.md
// §4.9.
const defaultSampleSize = 50

// ResultSink is the append-only, streaming destination each completed
// replica is written to as it finishes. Implementations (internal/persistence)
// must tolerate out-of-order writes and never block progress on a full
// buffer for long.
type ResultSink interface {
	WriteReplica(ctx context.Context, output domain.ReplicaOutput) error
}

// Options configures one RunScenario call. Zero values fall back to the
// package defaults.
type Options struct {
	MaxWorkers int
	SampleSize int
	BaseSeed   int64

	// OnProgress, if set, is invoked after every replica completes (success
	// or failure) with the running completed/total counts. Called from
	// worker goroutines; implementations must not block.
	OnProgress func(completed, total int)

	// Events, if set, receives a ReplicaCompleted/ReplicaFailed event for
	// every replica as it finishes. Nil disables event emission.
	Events *events.Manager

	// SkipIndices, if set, excludes the given replica indices from the
	// claim range — already-persisted replicas a resumed run shouldn't
	// re-simulate. Skipped indices are not counted against NCompleted,
	// NFailed, or NRequested.
	SkipIndices map[int]bool
}

func (o Options) withDefaults(numReplicas int) Options {
	if o.MaxWorkers <= 0 {
		o.MaxWorkers = defaultMaxWorkers
	}
	if o.MaxWorkers > numReplicas {
		o.MaxWorkers = numReplicas
	}
	if o.SampleSize <= 0 {
		o.SampleSize = defaultSampleSize
	}
	return o
}

// RunScenario executes numReplicas replicas of s across opts.MaxWorkers
// worker goroutines, the package-level API named `run_scenario` in
// spec.md §6. Workers claim the next unclaimed replica index from a
// shared atomic counter (no pre-built job queue, since the work is
// open-ended and cancelable) and check ctx for cancellation between
// claims. Every successfully simulated replica is written to sink (a
// replica whose engine run fails is only counted, never written); the
// returned ScenarioResult's KPITable is sorted by replica index
// regardless of completion order.
func RunScenario(ctx context.Context, s domain.Scenario, numReplicas int, sink ResultSink, opts Options) (domain.ScenarioResult, error) {
	s = s.WithDefaults()
	if err := s.Validate(); err != nil {
		return domain.ScenarioResult{ScenarioID: s.ID}, err
	}
	if numReplicas <= 0 {
		return domain.ScenarioResult{ScenarioID: s.ID}, nil
	}
	opts = opts.withDefaults(numReplicas)
	target := numReplicas - len(opts.SkipIndices)
	if target < 0 {
		target = 0
	}

	var claimCounter int64 = -1 // next claim is atomic.AddInt64(&claimCounter, 1)
	var completedCounter int64
	var failedCounter int64

	outputs := make(chan domain.ReplicaOutput, numReplicas)

	var wg sync.WaitGroup
	for w := 0; w < opts.MaxWorkers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			runWorker(ctx, s, numReplicas, opts, sink, &claimCounter, &completedCounter, &failedCounter, outputs)
		}()
	}

	wg.Wait()
	close(outputs)

	var collected []domain.ReplicaOutput
	for out := range outputs {
		collected = append(collected, out)
	}
	sort.Slice(collected, func(i, j int) bool {
		return collected[i].ReplicaIndex < collected[j].ReplicaIndex
	})

	table := make([]domain.KPIVector, len(collected))
	for i, out := range collected {
		table[i] = out.KPIs
	}

	nCompleted := int(atomic.LoadInt64(&completedCounter)) - int(atomic.LoadInt64(&failedCounter))
	nFailed := int(atomic.LoadInt64(&failedCounter))

	result := domain.ScenarioResult{
		ScenarioID: s.ID,
		KPITable:   table,
		NCompleted: nCompleted,
		NFailed:    nFailed,
		NRequested: target,
		Partial:    ctx.Err() != nil || nCompleted+nFailed < target,
	}
	return result, nil
}

func runWorker(
	ctx context.Context,
	s domain.Scenario,
	numReplicas int,
	opts Options,
	sink ResultSink,
	claimCounter, completedCounter, failedCounter *int64,
	outputs chan<- domain.ReplicaOutput,
) {
	target := numReplicas - len(opts.SkipIndices)
	if target < 0 {
		target = 0
	}
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		idx := atomic.AddInt64(claimCounter, 1)
		if idx >= int64(numReplicas) {
			return
		}
		replicaIndex := int(idx)
		if opts.SkipIndices[replicaIndex] {
			continue
		}

		keepDailyRecords := replicaIndex < opts.SampleSize
		seed := engine.DeriveReplicaSeed(opts.BaseSeed, s.ID, replicaIndex)

		out, err := engine.RunReplica(s, seed, keepDailyRecords)
		if err != nil {
			atomic.AddInt64(failedCounter, 1)
			atomic.AddInt64(completedCounter, 1)
			if opts.Events != nil {
				opts.Events.EmitError("executor", err, map[string]interface{}{
					"scenario_id":   s.ID,
					"replica_index": replicaIndex,
				})
				opts.Events.Emit(events.ReplicaFailed, "executor", map[string]interface{}{
					"scenario_id":   s.ID,
					"replica_index": replicaIndex,
				})
			}
			if opts.OnProgress != nil {
				opts.OnProgress(int(atomic.LoadInt64(completedCounter)), target)
			}
			continue
		}
		out.ReplicaIndex = replicaIndex

		if sinkErr := writeWithRetry(ctx, sink, out); sinkErr != nil {
			atomic.AddInt64(failedCounter, 1)
		}

		outputs <- out
		atomic.AddInt64(completedCounter, 1)
		if opts.Events != nil {
			opts.Events.Emit(events.ReplicaCompleted, "executor", map[string]interface{}{
				"scenario_id":       s.ID,
				"replica_index":     replicaIndex,
				"service_level_pct": out.KPIs.ServiceLevelPct,
			})
		}
		if opts.OnProgress != nil {
			opts.OnProgress(int(atomic.LoadInt64(completedCounter)), target)
		}
	}
}

// writeWithRetry writes a replica's result to sink, retrying exactly once
// on failure before surfacing a PersistenceError, per spec.md §7's
// escalation rule. The replica's in-memory result is still returned to
// the caller even if persistence ultimately fails.
func writeWithRetry(ctx context.Context, sink ResultSink, out domain.ReplicaOutput) error {
	if err := sink.WriteReplica(ctx, out); err == nil {
		return nil
	}
	if err := sink.WriteReplica(ctx, out); err != nil {
		return domain.NewPersistenceError("failed to persist replica result after retry", err)
	}
	return nil
}
