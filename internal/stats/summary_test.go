package stats

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestSummarize_EmptyInput(t *testing.T) {
	s := Summarize("avg_inventory_tm", nil)
	require.Equal(t, 0, s.N)
	require.Empty(t, s.Percentiles)
}

func TestSummarize_KnownDistribution(t *testing.T) {
	values := []float64{10, 20, 30, 40, 50}
	s := Summarize("x", values)

	require.Equal(t, 5, s.N)
	require.InDelta(t, 30, s.Mean, 1e-9)
	require.InDelta(t, 10, s.Min, 1e-9)
	require.InDelta(t, 50, s.Max, 1e-9)
	require.InDelta(t, 30, s.Percentiles[50], 1e-9)
	require.True(t, s.CILow <= s.Mean)
	require.True(t, s.CIHigh >= s.Mean)

	for _, p := range summaryPercentiles {
		_, ok := s.Percentiles[p]
		require.True(t, ok)
	}
}

func TestFieldValues_UnknownField(t *testing.T) {
	_, ok := FieldValues(nil, "definitely_not_a_field")
	require.False(t, ok)
}

func TestFieldNames_Sorted(t *testing.T) {
	names := FieldNames()
	require.NotEmpty(t, names)
	for i := 1; i < len(names); i++ {
		require.Less(t, names[i-1], names[i])
	}
}
