package stats

import (
	"math"
	"sort"

	"github.com/aristath/glp-resilience/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// summaryPercentiles is the fixed percentile set every per-scenario
// summary reports.
var summaryPercentiles = []int{5, 25, 50, 75, 95}

// Summarize reduces one KPI field's values into mean, std, min, max, the
// fixed percentile set, and a 95% CI for the mean using the large-n
// asymptotic formula 1.96*sigma/sqrt(n). Mirrors the nil-weights,
// empty-guard calling convention of `pkg/formulas/stats.go`.
func Summarize(field string, values []float64) domain.KPISummary {
	n := len(values)
	summary := domain.KPISummary{Field: field, N: n, Percentiles: map[int]float64{}}
	if n == 0 {
		return summary
	}

	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)

	summary.Mean = stat.Mean(values, nil)
	summary.StdDev = stat.StdDev(values, nil)
	summary.Min = sorted[0]
	summary.Max = sorted[n-1]

	for _, p := range summaryPercentiles {
		summary.Percentiles[p] = stat.Quantile(float64(p)/100, stat.Empirical, sorted, nil)
	}

	halfWidth := 1.96 * summary.StdDev / math.Sqrt(float64(n))
	summary.CILow = summary.Mean - halfWidth
	summary.CIHigh = summary.Mean + halfWidth

	return summary
}

// SummarizeKPITable summarizes every recognized KPI field in table,
// keyed by field name.
func SummarizeKPITable(table []domain.KPIVector) map[string]domain.KPISummary {
	summaries := make(map[string]domain.KPISummary, len(fieldAccessors))
	for _, field := range FieldNames() {
		values, _ := FieldValues(table, field)
		summaries[field] = Summarize(field, values)
	}
	return summaries
}
