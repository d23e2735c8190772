package stats

import (
	"fmt"
	"math"
	"sort"

	"github.com/aristath/glp-resilience/internal/domain"
	"gonum.org/v1/gonum/mathext"
	"gonum.org/v1/gonum/stat"
)

// TwoWayANOVA decomposes the named KPI field's variance across a balanced
// two-factor factorial design into SS_A, SS_B, SS_AB, SS_residual, reports
// F statistics and p-values via the F-distribution, and eta-squared /
// adjusted R-squared effect sizes, per spec.md §4.10. cells must cover
// every combination of the distinct level_a x level_b pairs found in
// cells, with an equal replica count n in every cell (a balanced design);
// an unbalanced or incomplete grid is a ConfigurationError.
func TwoWayANOVA(cells []domain.FactorCell, field string) (domain.ANOVAResult, error) {
	if len(cells) == 0 {
		return domain.ANOVAResult{}, domain.NewConfigurationError("no factorial cells provided", nil)
	}

	cellValues := map[string]map[string][]float64{}
	levelsA, levelsB := map[string]bool{}, map[string]bool{}
	for _, c := range cells {
		values, ok := FieldValues(c.KPITable, field)
		if !ok {
			return domain.ANOVAResult{}, domain.NewConfigurationError(fmt.Sprintf("unrecognized KPI field %q", field), nil)
		}
		if cellValues[c.LevelA] == nil {
			cellValues[c.LevelA] = map[string][]float64{}
		}
		cellValues[c.LevelA][c.LevelB] = values
		levelsA[c.LevelA] = true
		levelsB[c.LevelB] = true
	}

	aLevels := sortedKeys(levelsA)
	bLevels := sortedKeys(levelsB)
	a, b := len(aLevels), len(bLevels)
	if a < 2 || b < 2 {
		return domain.ANOVAResult{}, domain.NewConfigurationError("two-way ANOVA requires at least two levels per factor", nil)
	}

	n := -1
	for _, la := range aLevels {
		for _, lb := range bLevels {
			values, ok := cellValues[la][lb]
			if !ok {
				return domain.ANOVAResult{}, domain.NewConfigurationError(fmt.Sprintf("missing cell (%s, %s) in factorial design", la, lb), nil)
			}
			if n == -1 {
				n = len(values)
			} else if len(values) != n {
				return domain.ANOVAResult{}, domain.NewConfigurationError("factorial design is unbalanced: cells have differing replica counts", nil)
			}
		}
	}
	if n < 2 {
		return domain.ANOVAResult{}, domain.NewConfigurationError("each factorial cell needs at least 2 replicas", nil)
	}

	var all []float64
	cellMean := map[string]map[string]float64{}
	rowMean := map[string]float64{}
	colMean := map[string]float64{}
	for _, la := range aLevels {
		cellMean[la] = map[string]float64{}
		var rowValues []float64
		for _, lb := range bLevels {
			values := cellValues[la][lb]
			cellMean[la][lb] = stat.Mean(values, nil)
			rowValues = append(rowValues, values...)
			all = append(all, values...)
		}
		rowMean[la] = stat.Mean(rowValues, nil)
	}
	for _, lb := range bLevels {
		var colValues []float64
		for _, la := range aLevels {
			colValues = append(colValues, cellValues[la][lb]...)
		}
		colMean[lb] = stat.Mean(colValues, nil)
	}
	grandMean := stat.Mean(all, nil)

	var ssA, ssB, ssAB, ssResidual, ssTotal float64
	for _, la := range aLevels {
		d := rowMean[la] - grandMean
		ssA += float64(b*n) * d * d
	}
	for _, lb := range bLevels {
		d := colMean[lb] - grandMean
		ssB += float64(a*n) * d * d
	}
	for _, la := range aLevels {
		for _, lb := range bLevels {
			d := cellMean[la][lb] - rowMean[la] - colMean[lb] + grandMean
			ssAB += float64(n) * d * d
			for _, v := range cellValues[la][lb] {
				rd := v - cellMean[la][lb]
				ssResidual += rd * rd
			}
		}
	}
	for _, v := range all {
		d := v - grandMean
		ssTotal += d * d
	}

	dfA := float64(a - 1)
	dfB := float64(b - 1)
	dfAB := float64((a - 1) * (b - 1))
	dfResidual := float64(a * b * (n - 1))
	dfTotal := float64(a*b*n - 1)

	msA := ssA / dfA
	msB := ssB / dfB
	msAB := ssAB / dfAB
	msResidual := ssResidual / dfResidual

	fA := msA / msResidual
	fB := msB / msResidual
	fAB := msAB / msResidual

	result := domain.ANOVAResult{
		ANOVATable: []domain.ANOVARow{
			{Source: "A", SS: ssA, DF: dfA, MS: msA, F: fA, P: fDistPValue(fA, dfA, dfResidual)},
			{Source: "B", SS: ssB, DF: dfB, MS: msB, F: fB, P: fDistPValue(fB, dfB, dfResidual)},
			{Source: "A:B", SS: ssAB, DF: dfAB, MS: msAB, F: fAB, P: fDistPValue(fAB, dfAB, dfResidual)},
			{Source: "Residual", SS: ssResidual, DF: dfResidual, MS: msResidual},
		},
		EtaSquaredA:  ssA / ssTotal,
		EtaSquaredB:  ssB / ssTotal,
		EtaSquaredAB: ssAB / ssTotal,
		AdjRSquared:  1 - (ssResidual/dfResidual)/(ssTotal/dfTotal),
	}

	for _, la := range aLevels {
		for _, lb := range bLevels {
			values := cellValues[la][lb]
			mean := cellMean[la][lb]
			std := stat.StdDev(values, nil)
			halfWidth := 1.96 * std / math.Sqrt(float64(len(values)))
			result.CellMeans = append(result.CellMeans, domain.CellMean{
				LevelA: la, LevelB: lb, Mean: mean, Std: std, N: len(values),
				CILow: mean - halfWidth, CIHigh: mean + halfWidth,
			})
		}
	}

	result.TukeyA = tukeyHSD(aLevels, rowMean, float64(b*n), msResidual, dfResidual)
	result.TukeyB = tukeyHSD(bLevels, colMean, float64(a*n), msResidual, dfResidual)

	return result, nil
}

// fDistPValue computes the upper-tail p-value of the F(df1, df2)
// distribution at statistic f via the standard identity relating the
// F-CDF to the regularized incomplete beta function:
//
//	P(F <= f) = I_{df1*f/(df1*f+df2)}(df1/2, df2/2)
func fDistPValue(f, df1, df2 float64) float64 {
	if f <= 0 || math.IsNaN(f) {
		return 1
	}
	x := df1 * f / (df1*f + df2)
	return 1 - mathext.RegIncBeta(df1/2, df2/2, x)
}

func sortedKeys(set map[string]bool) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
