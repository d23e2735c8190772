package stats

import (
	"sort"

	"github.com/aristath/glp-resilience/internal/domain"
)

// fieldAccessors maps every KPI name persisted in the KPI table to the
// function that reads it off a KPIVector. Kept as a package-level map,
// mirroring the named-accessor style `pkg/formulas/stats.go` uses for
// each statistic it wraps, so new KPIs only need one new entry here to
// become available to Summarize and TwoWayANOVA.
var fieldAccessors = map[string]func(domain.KPIVector) float64{
	"service_level_pct":         func(k domain.KPIVector) float64 { return k.ServiceLevelPct },
	"stockout_probability_pct":  func(k domain.KPIVector) float64 { return k.StockoutProbabilityPct },
	"avg_inventory_tm":          func(k domain.KPIVector) float64 { return k.AvgInventoryTM },
	"min_inventory_tm":          func(k domain.KPIVector) float64 { return k.MinInventoryTM },
	"max_inventory_tm":          func(k domain.KPIVector) float64 { return k.MaxInventoryTM },
	"std_inventory_tm":          func(k domain.KPIVector) float64 { return k.StdInventoryTM },
	"avg_autonomy_days":         func(k domain.KPIVector) float64 { return k.AvgAutonomyDays },
	"min_autonomy_days":         func(k domain.KPIVector) float64 { return k.MinAutonomyDays },
	"total_demand_tm":           func(k domain.KPIVector) float64 { return k.TotalDemandTM },
	"satisfied_demand_tm":       func(k domain.KPIVector) float64 { return k.SatisfiedDemandTM },
	"unsatisfied_demand_tm":     func(k domain.KPIVector) float64 { return k.UnsatisfiedDemandTM },
	"avg_daily_demand_tm":       func(k domain.KPIVector) float64 { return k.AvgDailyDemandTM },
	"max_daily_demand_tm":       func(k domain.KPIVector) float64 { return k.MaxDailyDemandTM },
	"min_daily_demand_tm":       func(k domain.KPIVector) float64 { return k.MinDailyDemandTM },
	"total_received_tm":         func(k domain.KPIVector) float64 { return k.TotalReceivedTM },
	"total_dispatched_tm":       func(k domain.KPIVector) float64 { return k.TotalDispatchedTM },
	"disruption_count":          func(k domain.KPIVector) float64 { return float64(k.DisruptionCount) },
	"blocked_days_total":        func(k domain.KPIVector) float64 { return float64(k.BlockedDaysTotal) },
	"blocked_time_pct":          func(k domain.KPIVector) float64 { return k.BlockedTimePct },
	"stockout_days":             func(k domain.KPIVector) float64 { return float64(k.StockoutDays) },
	"simulated_days":            func(k domain.KPIVector) float64 { return float64(k.SimulatedDays) },
}

// FieldValues extracts one named KPI field from every row of a KPI table.
// Returns nil, false if the field name is not recognized.
func FieldValues(table []domain.KPIVector, field string) ([]float64, bool) {
	accessor, ok := fieldAccessors[field]
	if !ok {
		return nil, false
	}
	values := make([]float64, len(table))
	for i, k := range table {
		values[i] = accessor(k)
	}
	return values, true
}

// FieldNames returns every KPI field name Summarize/TwoWayANOVA accept.
func FieldNames() []string {
	names := make([]string, 0, len(fieldAccessors))
	for name := range fieldAccessors {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
