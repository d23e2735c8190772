package stats

import "github.com/aristath/glp-resilience/internal/domain"

// AggregateFactorial is the package-level API surface named in spec.md
// §6 (`aggregate_factorial(kpi_tables_by_cell) -> ANOVAResult`): a pure
// function from a factorial design's per-cell KPI tables to the full
// two-way ANOVA result for one response field.
func AggregateFactorial(cells []domain.FactorCell, field string) (domain.ANOVAResult, error) {
	return TwoWayANOVA(cells, field)
}
