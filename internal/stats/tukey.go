package stats

import (
	"math"

	"github.com/aristath/glp-resilience/internal/domain"
	"gonum.org/v1/gonum/stat/distuv"
)

var standardNormal = distuv.Normal{Mu: 0, Sigma: 1}

// tukeyHSD runs pairwise Tukey HSD comparisons over a factor's levels,
// using the residual mean square from the enclosing two-way ANOVA as the
// pooled variance estimate, per spec.md §4.10. nPerLevel is the number of
// raw observations each level's marginal mean was computed over (b*n for
// factor A, a*n for factor B in a balanced a x b x n design).
func tukeyHSD(levels []string, means map[string]float64, nPerLevel, msResidual, dfResidual float64) []domain.TukeyComparison {
	k := len(levels)
	se := math.Sqrt(msResidual / nPerLevel)

	var comparisons []domain.TukeyComparison
	for i := 0; i < k; i++ {
		for j := i + 1; j < k; j++ {
			diff := means[levels[i]] - means[levels[j]]
			q := math.Abs(diff) / se
			p := 1 - studentizedRangeCDF(q, k, dfResidual)
			comparisons = append(comparisons, domain.TukeyComparison{
				LevelI: levels[i], LevelJ: levels[j],
				MeanDiff: diff, PAdj: p, Reject: p < 0.05,
			})
		}
	}
	return comparisons
}

// studentizedRangeCDF evaluates P(Q_{k,df} <= q), the CDF of the
// studentized range distribution with k groups and df residual degrees
// of freedom, by direct Simpson's-rule integration over distuv.Normal's
// CDF/PDF rather than `gonum/integrate/quad` (see DESIGN.md for why):
// the outer integral averages the range-of-k-
// normals CDF over the scaled-chi density of the estimated standard
// deviation, following the standard definition used by statistical
// software (e.g. R's ptukey).
func studentizedRangeCDF(q float64, k int, df float64) float64 {
	if q <= 0 {
		return 0
	}
	// For large df the sample variance is essentially exact; skip the
	// outer integral and evaluate the range CDF directly at q.
	if df > 2000 {
		return normalRangeCDF(q, k)
	}

	const steps = 64
	upper := 4.0 // u = s/sigma rarely exceeds 4 for any realistic df
	h := upper / steps
	integral := 0.0
	for i := 0; i <= steps; i++ {
		u := float64(i) * h
		val := uDensity(u, df) * normalRangeCDF(q*u, k)
		weight := 2.0
		if i == 0 || i == steps {
			weight = 1.0
		} else if i%2 == 1 {
			weight = 4.0
		}
		integral += weight * val
	}
	return integral * h / 3
}

// uDensity is the density of u = s/sigma where s^2 ~ sigma^2 * chi2_df/df:
// f(u) = 2*(df/2)^(df/2)/Gamma(df/2) * u^(df-1) * exp(-df*u^2/2), u > 0.
func uDensity(u, df float64) float64 {
	if u <= 0 {
		return 0
	}
	logC := math.Ln2 + (df/2)*math.Log(df/2) - lgamma(df/2)
	logF := logC + (df-1)*math.Log(u) - df*u*u/2
	return math.Exp(logF)
}

func lgamma(x float64) float64 {
	v, _ := math.Lgamma(x)
	return v
}

// normalRangeCDF evaluates P(range of k iid N(0,1) variables <= w) via
// Simpson's rule: k * integral phi(z) * [Phi(z) - Phi(z-w)]^(k-1) dz.
func normalRangeCDF(w float64, k int) float64 {
	if w <= 0 {
		return 0
	}
	lower, upper := -8.0, 8.0+w
	const steps = 200
	h := (upper - lower) / steps
	integral := 0.0
	for i := 0; i <= steps; i++ {
		z := lower + float64(i)*h
		val := standardNormal.Prob(z) * math.Pow(standardNormal.CDF(z)-standardNormal.CDF(z-w), float64(k-1))
		weight := 2.0
		if i == 0 || i == steps {
			weight = 1.0
		} else if i%2 == 1 {
			weight = 4.0
		}
		integral += weight * val
	}
	return float64(k) * integral * h / 3
}
