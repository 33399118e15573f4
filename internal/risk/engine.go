// internal/risk/engine.go
package risk

import (
	"loan-risk-workers/internal/models"
)

// Engine scores one applicant across all factors. The result is atomic: any
// scorer error means no AggregateResult for that applicant.
type Engine struct {
	scorers []Scorer
}

func NewEngine(policy Policy) *Engine {
	return &Engine{scorers: Scorers(policy)}
}

// NewEngineWithScorers builds an engine over an explicit scorer set.
func NewEngineWithScorers(scorers ...Scorer) *Engine {
	return &Engine{scorers: scorers}
}

func (e *Engine) Evaluate(rec models.ApplicantRecord) (models.AggregateResult, error) {
	factors := make(map[models.Factor]models.ScoreResult, len(e.scorers))
	for _, s := range e.scorers {
		r, err := s.Score(rec)
		if err != nil {
			return models.AggregateResult{}, err
		}
		factors[s.Factor()] = r
	}
	return Aggregate(rec.Name, factors)
}
