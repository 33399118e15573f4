package explainloandecision

import (
	"loan-risk-workers/internal/explain"
	"loan-risk-workers/internal/models"
)

// Input is the decision to explain; approved comes from the process.
type Input = explain.Input

type Output struct {
	models.Explanation
	Risk models.RiskScreen `json:"risk"`
}
