package stats

import (
	"sort"

	"github.com/aristath/glp-resilience/internal/domain"
	"gonum.org/v1/gonum/stat"
)

// AggregateTimeSeries computes the four per-day bands spec'd for the
// executor's bounded sample of full-record replicas: mean and 5th/95th
// percentile for inventory, autonomy days, stockout probability, and
// route-blocked probability. Replicas must share the same horizon
// length; days are aligned by index, not by wall-clock time.
func AggregateTimeSeries(sampled []domain.ReplicaOutput) domain.TimeSeriesBands {
	var bands domain.TimeSeriesBands
	if len(sampled) == 0 {
		return bands
	}

	horizon := len(sampled[0].DailyRecords)
	for _, r := range sampled {
		if len(r.DailyRecords) < horizon {
			horizon = len(r.DailyRecords)
		}
	}

	bands.Inventory = make([]domain.DailyBand, horizon)
	bands.AutonomyDays = make([]domain.DailyBand, horizon)
	bands.StockoutProbability = make([]domain.DailyBand, horizon)
	bands.RouteBlockedProbability = make([]domain.DailyBand, horizon)

	inventory := make([]float64, len(sampled))
	autonomy := make([]float64, len(sampled))
	stockout := make([]float64, len(sampled))
	blocked := make([]float64, len(sampled))

	for day := 0; day < horizon; day++ {
		for i, r := range sampled {
			rec := r.DailyRecords[day]
			inventory[i] = rec.Inventory
			autonomy[i] = rec.AutonomyDays
			stockout[i] = boolToFloat(rec.Stockout)
			blocked[i] = boolToFloat(rec.RouteBlocked)
		}

		bands.Inventory[day] = dayBand(day+1, inventory)
		bands.AutonomyDays[day] = dayBand(day+1, autonomy)
		bands.StockoutProbability[day] = dayBand(day+1, stockout)
		bands.RouteBlockedProbability[day] = dayBand(day+1, blocked)
	}

	return bands
}

func dayBand(day int, values []float64) domain.DailyBand {
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return domain.DailyBand{
		Day:  day,
		Mean: stat.Mean(values, nil),
		P5:   stat.Quantile(0.05, stat.Empirical, sorted, nil),
		P95:  stat.Quantile(0.95, stat.Empirical, sorted, nil),
	}
}

func boolToFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
