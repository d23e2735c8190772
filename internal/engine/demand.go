package engine

import (
	"math"
	"math/rand"

	"github.com/aristath/glp-resilience/internal/domain"
)

// SampleDemand draws the day-t demand for the scenario from the given
// stream, per spec.md §4.7: base rate times optional sinusoidal
// seasonality times Normal(1, sigma) multiplicative noise, with negative
// noise clamped to zero.
func SampleDemand(s domain.Scenario, day int, stream *rand.Rand) float64 {
	xi := 1 + stream.NormFloat64()*s.DemandNoiseSigma
	if xi < 0 {
		xi = 0
	}

	base := s.DemandBaseDailyTM
	if s.SeasonalityEnabled {
		phase := 2 * math.Pi * float64(day-s.SeasonalityPeakDay) / 365
		base *= 1 + s.SeasonalityAmplitude*math.Sin(phase)
	}

	demand := base * xi
	if demand < 0 {
		demand = 0
	}
	return demand
}
