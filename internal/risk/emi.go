// internal/risk/emi.go
package risk

import (
	"fmt"
	"math"

	"loan-risk-workers/internal/common/errors"
)

// CalculateEMI returns the equated monthly installment for an amortising loan.
// annualRatePercent is a percentage (10 means 10%).
func CalculateEMI(principal, annualRatePercent float64, tenureMonths int) (float64, error) {
	if tenureMonths <= 0 {
		return 0, errors.NewInvalidInputError("tenureMonths", fmt.Sprintf("must be positive, got %d", tenureMonths))
	}
	if principal < 0 || math.IsNaN(principal) {
		return 0, errors.NewInvalidInputError("requestedLoanAmount", fmt.Sprintf("must be non-negative, got %v", principal))
	}

	r := annualRatePercent / 12 / 100
	n := float64(tenureMonths)
	if r == 0 {
		return principal / n, nil
	}

	growth := math.Pow(1+r, n)
	emi := principal * r * growth / (growth - 1)
	if math.IsInf(growth, 1) {
		// growth/(growth-1) tends to 1 for very long tenures.
		emi = principal * r
	}
	if !isFinite(emi) {
		return 0, errors.NewInvalidInputError("requestedLoanAmount", fmt.Sprintf("EMI out of range for %v over %d months", principal, tenureMonths))
	}
	return emi, nil
}
