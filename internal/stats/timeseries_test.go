package stats

import (
	"testing"

	"github.com/aristath/glp-resilience/internal/domain"
	"github.com/aristath/glp-resilience/internal/engine"
	"github.com/stretchr/testify/require"
)

func TestAggregateTimeSeries_BandsOrderedAndBounded(t *testing.T) {
	s := domain.Scenario{
		ID:                      "ts",
		CapacityTM:              400,
		ReorderPointTM:          150,
		OrderQuantityTM:         150,
		InitialInventoryPct:     90,
		DemandBaseDailyTM:       30,
		DemandNoiseSigma:        0.15,
		DisruptionRatePerYear:   2,
		DisruptionDurationMinD:  2,
		DisruptionDurationModeD: 6,
		DisruptionDurationMaxD:  15,
		NominalLeadTimeD:        5,
		HorizonDays:             60,
		MaxConcurrentOrders:     2,
	}

	var sampled []domain.ReplicaOutput
	for i := 0; i < 20; i++ {
		seed := engine.DeriveReplicaSeed(77, s.ID, i)
		out, err := engine.RunReplica(s, seed, true)
		require.NoError(t, err)
		sampled = append(sampled, out)
	}

	bands := AggregateTimeSeries(sampled)
	require.Len(t, bands.Inventory, s.HorizonDays)
	require.Len(t, bands.AutonomyDays, s.HorizonDays)
	require.Len(t, bands.StockoutProbability, s.HorizonDays)
	require.Len(t, bands.RouteBlockedProbability, s.HorizonDays)

	for i, b := range bands.Inventory {
		require.Equal(t, i+1, b.Day)
		require.LessOrEqual(t, b.P5, b.Mean+1e-9)
		require.LessOrEqual(t, b.Mean, b.P95+1e-9)
	}
	for _, b := range bands.StockoutProbability {
		require.GreaterOrEqual(t, b.Mean, 0.0)
		require.LessOrEqual(t, b.Mean, 1.0)
	}
}

func TestAggregateTimeSeries_EmptyInput(t *testing.T) {
	bands := AggregateTimeSeries(nil)
	require.Empty(t, bands.Inventory)
}
