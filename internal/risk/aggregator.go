// internal/risk/aggregator.go
package risk

import (
	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
)

// Aggregate averages the six factor scores of one applicant. The mean is
// taken over the raw integer scores and rounded once.
func Aggregate(applicant string, factors map[models.Factor]models.ScoreResult) (models.AggregateResult, error) {
	present := 0
	sum := 0
	for _, f := range models.AllFactors {
		r, ok := factors[f]
		if !ok {
			continue
		}
		present++
		sum += r.Score
	}
	if present != len(models.AllFactors) || len(factors) != len(models.AllFactors) {
		return models.AggregateResult{}, errors.NewIncompleteAggregationError(applicant, present)
	}

	snapshot := make(map[models.Factor]models.ScoreResult, len(factors))
	for f, r := range factors {
		snapshot[f] = r
	}

	return models.AggregateResult{
		Applicant:    applicant,
		Factors:      snapshot,
		AverageScore: Round2(float64(sum) / float64(len(models.AllFactors))),
	}, nil
}
