package engine

import (
	"math"
	"testing"

	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/stretchr/testify/require"
)

func baseScenario() domain.Scenario {
	return domain.Scenario{
		ID:                      "baseline",
		CapacityTM:              431,
		ReorderPointTM:          150,
		OrderQuantityTM:         200,
		InitialInventoryPct:     100,
		DemandBaseDailyTM:       41.3,
		DemandNoiseSigma:        0.1,
		DisruptionRatePerYear:   2,
		DisruptionDurationMinD:  2,
		DisruptionDurationModeD: 5,
		DisruptionDurationMaxD:  20,
		NominalLeadTimeD:        5,
		HorizonDays:             365,
		MaxConcurrentOrders:     2,
	}
}

// Boundary case 1: infinite capacity, no disruptions.
func TestRunReplica_InfiniteCapacityNoDisruptions(t *testing.T) {
	s := baseScenario()
	s.CapacityTM = 1e6
	s.ReorderPointTM = 1e5
	s.OrderQuantityTM = 1e5
	s.InitialInventoryPct = 100
	s.DisruptionRatePerYear = 0
	s.DemandNoiseSigma = 0
	s.HorizonDays = 365

	out, err := RunReplica(s, 42, false)
	require.NoError(t, err)
	require.InDelta(t, 100.0, out.KPIs.ServiceLevelPct, 1e-9)
	require.Equal(t, 0, out.KPIs.StockoutDays)
	require.Equal(t, 0, out.KPIs.DisruptionCount)
}

// Boundary case 2: zero inventory, permanent block.
func TestRunReplica_ZeroInventoryPermanentBlock(t *testing.T) {
	s := baseScenario()
	s.InitialInventoryPct = 0
	s.DisruptionRatePerYear = 100000 // guarantee an arrival by day 1
	s.DisruptionDurationMinD = float64(s.HorizonDays)
	s.DisruptionDurationModeD = float64(s.HorizonDays)
	s.DisruptionDurationMaxD = float64(s.HorizonDays)

	out, err := RunReplica(s, 7, false)
	require.NoError(t, err)
	require.InDelta(t, 0.0, out.KPIs.ServiceLevelPct, 1e-9)
	require.Equal(t, s.HorizonDays, out.KPIs.StockoutDays)
}

// Boundary case 3: calibration baseline — autonomy stays near capacity/demand.
func TestRunReplica_CalibrationBaseline(t *testing.T) {
	s := baseScenario()
	s.DisruptionRatePerYear = 0

	var sum float64
	const n = 100
	for i := 0; i < n; i++ {
		seed := DeriveReplicaSeed(1, s.ID, i)
		out, err := RunReplica(s, seed, false)
		require.NoError(t, err)
		sum += out.KPIs.AvgAutonomyDays
	}
	avg := sum / n
	require.InDelta(t, 10.4, avg, 1.5)
}

// Boundary case 4: reorder cap is respected across a full run.
func TestRunReplica_ReorderCapRespected(t *testing.T) {
	s := baseScenario()
	s.ReorderPointTM = s.CapacityTM * 0.95
	s.OrderQuantityTM = 10
	s.NominalLeadTimeD = 20
	s.MaxConcurrentOrders = 2
	s.DisruptionRatePerYear = 0

	out, err := RunReplica(s, 99, true)
	require.NoError(t, err)

	maxPending := 0
	for _, r := range out.DailyRecords {
		if r.PendingOrders > maxPending {
			maxPending = r.PendingOrders
		}
		require.LessOrEqual(t, r.PendingOrders, s.MaxConcurrentOrders)
	}
	require.Equal(t, s.MaxConcurrentOrders, maxPending)
}

// Boundary case 5: lead-time extension bumps an in-transit order's
// arrival to unblock_day+1.
func TestApplyDisruption_BumpsInTransitOrder(t *testing.T) {
	route := domain.NewRouteState()
	book := NewOrderBook()
	order := book.Place(200, 1, 6) // placed day 1, due day 6

	ApplyDisruption(route, book, 3, 10) // disruption starts day 3, lasts 10 days -> unblock_day = 12

	require.Equal(t, 12, route.UnblockDay)
	require.Equal(t, 13, order.ScheduledArrivalDay)
}

func TestApplyDisruption_MergesOverlappingDisruptions(t *testing.T) {
	route := domain.NewRouteState()
	book := NewOrderBook()

	ApplyDisruption(route, book, 1, 5) // unblock_day = 5
	require.Equal(t, 5, route.UnblockDay)

	// A new disruption starting the same day the previous one ends merges.
	ApplyDisruption(route, book, 5, 3) // candidate unblock_day = 7
	require.Equal(t, 7, route.UnblockDay)

	// A shorter disruption never moves unblock_day earlier.
	ApplyDisruption(route, book, 6, 1) // candidate unblock_day = 6 < 7
	require.Equal(t, 7, route.UnblockDay)
}

// Universal invariants across many seeds: bounded inventory, demand
// feasibility, order-book cap, mass balance.
func TestRunReplica_UniversalInvariants(t *testing.T) {
	s := baseScenario()

	for seed := int64(0); seed < 50; seed++ {
		out, err := RunReplica(s, seed, true)
		require.NoError(t, err)

		var totalReceived, totalDispatched float64
		for _, r := range out.DailyRecords {
			require.GreaterOrEqual(t, r.Inventory, -1e-6*s.CapacityTM)
			require.LessOrEqual(t, r.Inventory, s.CapacityTM*(1+1e-9))
			require.LessOrEqual(t, r.DemandSatisfied, r.Demand+1e-9)
			require.LessOrEqual(t, r.PendingOrders, s.MaxConcurrentOrders)

			totalReceived += r.SupplyReceived
			totalDispatched += r.DemandSatisfied
		}

		initialInventory := s.CapacityTM * s.InitialInventoryPct / 100
		finalInventory := out.DailyRecords[len(out.DailyRecords)-1].Inventory
		balance := initialInventory + totalReceived - totalDispatched - finalInventory
		require.InDelta(t, 0, balance, 1e-6*s.CapacityTM)
	}
}

// Reproducibility: identical (scenario, seed) reproduces identical output.
func TestRunReplica_Reproducible(t *testing.T) {
	s := baseScenario()
	seed := DeriveReplicaSeed(12345, s.ID, 3)

	out1, err := RunReplica(s, seed, true)
	require.NoError(t, err)
	out2, err := RunReplica(s, seed, true)
	require.NoError(t, err)

	require.Equal(t, out1.KPIs, out2.KPIs)
	require.Equal(t, out1.DailyRecords, out2.DailyRecords)
}

// Poisson rate: empirical disruption rate matches the configured one.
func TestDisruptionGenerator_EmpiricalRateMatchesConfigured(t *testing.T) {
	s := baseScenario()
	s.HorizonDays = 3650 // 10 years
	s.DisruptionRatePerYear = 4

	const replicas = 600
	var totalCount int
	for i := 0; i < replicas; i++ {
		seed := DeriveReplicaSeed(9, s.ID, i)
		out, err := RunReplica(s, seed, false)
		require.NoError(t, err)
		totalCount += out.KPIs.DisruptionCount
	}

	years := float64(s.HorizonDays) / 365
	empiricalRate := float64(totalCount) / (float64(replicas) * years)
	require.InDelta(t, s.DisruptionRatePerYear, empiricalRate, 0.3)
}

// Monotonicity: service level is nondecreasing in capacity, holding else fixed.
func TestRunReplica_MonotonicInCapacity(t *testing.T) {
	low := baseScenario()
	low.CapacityTM = 200
	low.ReorderPointTM = 100
	low.OrderQuantityTM = 100

	high := low
	high.CapacityTM = 800
	high.ReorderPointTM = 100
	high.OrderQuantityTM = 100

	const n = 200
	var lowSum, highSum float64
	for i := 0; i < n; i++ {
		seed := DeriveReplicaSeed(55, low.ID, i)
		lo, err := RunReplica(low, seed, false)
		require.NoError(t, err)
		hi, err := RunReplica(high, seed, false)
		require.NoError(t, err)
		lowSum += lo.KPIs.ServiceLevelPct
		highSum += hi.KPIs.ServiceLevelPct
	}

	require.GreaterOrEqual(t, highSum/n, lowSum/n-0.5)
}

// Longer disruptions should weakly reduce average service level, holding
// everything else (including the replica seed) fixed, per spec.md §8.
func TestRunReplica_MonotonicInDisruptionDurationMax(t *testing.T) {
	short := baseScenario()
	short.DisruptionRatePerYear = 6
	short.DisruptionDurationMinD = 2
	short.DisruptionDurationModeD = 3
	short.DisruptionDurationMaxD = 4

	long := short
	long.DisruptionDurationModeD = 20
	long.DisruptionDurationMaxD = 40

	const n = 200
	var shortSum, longSum float64
	for i := 0; i < n; i++ {
		seed := DeriveReplicaSeed(77, short.ID, i)
		sh, err := RunReplica(short, seed, false)
		require.NoError(t, err)
		lo, err := RunReplica(long, seed, false)
		require.NoError(t, err)
		shortSum += sh.KPIs.ServiceLevelPct
		longSum += lo.KPIs.ServiceLevelPct
	}

	require.GreaterOrEqual(t, shortSum/n, longSum/n-0.5)
}

func TestScenario_ValidateRejectsBadInvariants(t *testing.T) {
	s := baseScenario()
	s.ReorderPointTM = s.CapacityTM + 1
	_, err := RunReplica(s, 1, false)
	require.Error(t, err)

	var cfgErr *domain.ConfigurationError
	require.ErrorAs(t, err, &cfgErr)
}

func TestSampleDemand_NeverNegative(t *testing.T) {
	s := baseScenario()
	s.DemandNoiseSigma = 0.9
	streams := NewReplicaStreams(1)
	for day := 1; day <= 1000; day++ {
		d := SampleDemand(s, day, streams.Demand)
		require.False(t, math.IsNaN(d))
		require.GreaterOrEqual(t, d, 0.0)
	}
}
