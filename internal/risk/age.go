// internal/risk/age.go
package risk

import "loan-risk-workers/internal/models"

const ageAgent = "Age Agent"

// AgeScorer bands the applicant's age. Every integer has an answer.
type AgeScorer struct{}

func (AgeScorer) Factor() models.Factor { return models.FactorAge }

func (AgeScorer) Score(rec models.ApplicantRecord) (models.ScoreResult, error) {
	age := rec.Age
	switch {
	case age >= 25 && age <= 40:
		return result(ageAgent, 90, "Ideal age range for long-tenure repayment."), nil
	case age >= 41 && age <= 55:
		return result(ageAgent, 75, "Mid-career stage. Moderate risk due to shorter tenure left."), nil
	case age >= 18 && age < 25:
		return result(ageAgent, 60, "Young applicant. Limited credit history but long repayment runway."), nil
	case age >= 56 && age <= 65:
		return result(ageAgent, 45, "Near retirement age. Limited repayment window."), nil
	default:
		return result(ageAgent, 25, "High risk due to age beyond typical lending bracket."), nil
	}
}
