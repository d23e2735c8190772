package executor

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/aristath/glp-resilience/internal/engine"
	"github.com/stretchr/testify/require"
)

type fakeSink struct {
	mu      sync.Mutex
	written []domain.ReplicaOutput
	failN   int // fail the first failN writes, then succeed
}

func (f *fakeSink) WriteReplica(ctx context.Context, out domain.ReplicaOutput) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failN > 0 {
		f.failN--
		return errTransient
	}
	f.written = append(f.written, out)
	return nil
}

var errTransient = errors.New("transient write failure")

func testScenario() domain.Scenario {
	return domain.Scenario{
		ID:                      "executor-test",
		CapacityTM:              400,
		ReorderPointTM:          150,
		OrderQuantityTM:         150,
		InitialInventoryPct:     90,
		DemandBaseDailyTM:       30,
		DemandNoiseSigma:        0.1,
		DisruptionRatePerYear:   2,
		DisruptionDurationMinD:  1,
		DisruptionDurationModeD: 5,
		DisruptionDurationMaxD:  10,
		NominalLeadTimeD:        4,
		HorizonDays:             60,
		MaxConcurrentOrders:     2,
	}
}

func TestRunScenario_OrderedByReplicaIndex(t *testing.T) {
	sink := &fakeSink{}
	s := testScenario()

	result, err := RunScenario(context.Background(), s, 40, sink, Options{MaxWorkers: 6, BaseSeed: 1})
	require.NoError(t, err)
	require.Equal(t, 40, result.NRequested)
	require.Equal(t, 40, result.NCompleted)
	require.Equal(t, 0, result.NFailed)
	require.False(t, result.Partial)
	require.Len(t, result.KPITable, 40)

	// Row i must be replica i's KPIs, whatever order workers finished in.
	for i, kpis := range result.KPITable {
		expected, err := engine.RunReplica(s, engine.DeriveReplicaSeed(1, s.ID, i), false)
		require.NoError(t, err)
		require.Equal(t, expected.KPIs, kpis)
	}

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.written, 40)
}

func TestRunScenario_SampleSizeControlsDailyRecords(t *testing.T) {
	sink := &fakeSink{}
	s := testScenario()

	_, err := RunScenario(context.Background(), s, 20, sink, Options{MaxWorkers: 4, SampleSize: 5, BaseSeed: 9})
	require.NoError(t, err)

	sink.mu.Lock()
	defer sink.mu.Unlock()

	byIndex := map[int]domain.ReplicaOutput{}
	for _, out := range sink.written {
		byIndex[out.ReplicaIndex] = out
	}
	for i := 0; i < 20; i++ {
		out, ok := byIndex[i]
		require.True(t, ok)
		if i < 5 {
			require.NotEmpty(t, out.DailyRecords)
		} else {
			require.Empty(t, out.DailyRecords)
		}
	}
}

func TestRunScenario_CancellationLeavesPartialResult(t *testing.T) {
	sink := &fakeSink{}
	s := testScenario()
	s.HorizonDays = 3650 // make each replica slow enough to cancel mid-run

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(5 * time.Millisecond)
		cancel()
	}()

	result, err := RunScenario(ctx, s, 5000, sink, Options{MaxWorkers: 4, BaseSeed: 3})
	require.NoError(t, err)
	require.True(t, result.Partial)
	require.Less(t, result.NCompleted, result.NRequested)
}

func TestRunScenario_RejectsInvalidScenarioBeforeStarting(t *testing.T) {
	sink := &fakeSink{}
	s := testScenario()
	s.CapacityTM = -1 // invalid: negative capacity

	result, err := RunScenario(context.Background(), s, 10, sink, Options{MaxWorkers: 2})
	require.Error(t, err)
	var configErr *domain.ConfigurationError
	require.ErrorAs(t, err, &configErr)
	require.Equal(t, 0, result.NCompleted)
	require.Empty(t, result.KPITable)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Empty(t, sink.written, "no replica should run once upfront validation fails")
}

func TestRunScenario_SkipIndicesExcludesReplicas(t *testing.T) {
	sink := &fakeSink{}
	s := testScenario()
	skip := map[int]bool{0: true, 1: true, 2: true}

	result, err := RunScenario(context.Background(), s, 10, sink, Options{MaxWorkers: 3, BaseSeed: 2, SkipIndices: skip})
	require.NoError(t, err)
	require.Equal(t, 7, result.NRequested)
	require.Equal(t, 7, result.NCompleted)
	require.False(t, result.Partial)

	sink.mu.Lock()
	defer sink.mu.Unlock()
	require.Len(t, sink.written, 7)
	for _, out := range sink.written {
		require.False(t, skip[out.ReplicaIndex])
	}
}

func TestRunScenario_ZeroReplicas(t *testing.T) {
	sink := &fakeSink{}
	result, err := RunScenario(context.Background(), testScenario(), 0, sink, Options{})
	require.NoError(t, err)
	require.Empty(t, result.KPITable)
}

func TestRunScenario_ProgressCallbackReachesTotal(t *testing.T) {
	sink := &fakeSink{}
	s := testScenario()

	var mu sync.Mutex
	maxCompleted := 0
	onProgress := func(completed, total int) {
		mu.Lock()
		defer mu.Unlock()
		if completed > maxCompleted {
			maxCompleted = completed
		}
	}

	_, err := RunScenario(context.Background(), s, 15, sink, Options{MaxWorkers: 3, OnProgress: onProgress, BaseSeed: 4})
	require.NoError(t, err)

	mu.Lock()
	defer mu.Unlock()
	require.Equal(t, 15, maxCompleted)
}
