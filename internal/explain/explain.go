// internal/explain/explain.go
package explain

import (
	"fmt"
	"math"
	"strings"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
	"loan-risk-workers/internal/risk"

	"golang.org/x/text/language"
	"golang.org/x/text/message"
	"golang.org/x/text/number"
)

// Thresholds of the explanation heuristic. They are independent of the
// six-factor scorers.
const (
	stableSalary      = 30000
	minEligibleSalary = 20000
	goodCreditScore   = 700
	lowCreditScore    = 650
	safeRatio         = 5
	rejectRatio       = 6
	approvedHeader    = "Loan approved because:"
	rejectedHeader    = "Loan rejected because:"
	bullet            = "• "
)

var printer = message.NewPrinter(language.English)

// Input is the data behind a decision made elsewhere.
type Input struct {
	Salary       float64 `json:"salary"`
	CreditScore  int     `json:"creditScore"`
	LoanAmount   float64 `json:"loanAmount"`
	TenureMonths int     `json:"tenure"`
	Approved     bool    `json:"approved"`
}

// LoanToIncomeRatio is the loan amount over the income earned during the
// tenure, expressed in years of salary.
func LoanToIncomeRatio(salary, loanAmount float64, tenureMonths int) float64 {
	return loanAmount / (salary * (float64(tenureMonths) / 12))
}

// Explain lists the reasons supporting an approve or reject decision.
func Explain(in Input) (models.Explanation, error) {
	if in.Salary <= 0 {
		return models.Explanation{}, errors.NewInvalidInputError("salary", fmt.Sprintf("must be positive, got %v", in.Salary))
	}
	if in.TenureMonths <= 0 {
		return models.Explanation{}, errors.NewInvalidInputError("tenure", fmt.Sprintf("must be positive, got %d", in.TenureMonths))
	}

	ratio := LoanToIncomeRatio(in.Salary, in.LoanAmount, in.TenureMonths)
	if math.IsNaN(ratio) || math.IsInf(ratio, 0) {
		return models.Explanation{}, errors.NewInvalidInputError("salary", fmt.Sprintf("loan-to-income ratio out of range for salary %v", in.Salary))
	}

	var header string
	var reasons []string
	if in.Approved {
		header = approvedHeader
		if in.Salary > stableSalary {
			reasons = append(reasons, printer.Sprintf("Stable salary of ₹%v", number.Decimal(in.Salary)))
		}
		if in.CreditScore >= goodCreditScore {
			reasons = append(reasons, fmt.Sprintf("Good credit score (%d)", in.CreditScore))
		}
		if ratio <= safeRatio {
			reasons = append(reasons, "Loan-to-income ratio within safe range")
		} else {
			reasons = append(reasons, "Ratio slightly high, but acceptable")
		}
	} else {
		header = rejectedHeader
		if in.CreditScore < lowCreditScore {
			reasons = append(reasons, fmt.Sprintf("Credit score too low (%d)", in.CreditScore))
		}
		if ratio > rejectRatio {
			reasons = append(reasons, fmt.Sprintf("Loan-to-income ratio too high (%.2fx)", ratio))
		}
		if in.Salary < minEligibleSalary {
			reasons = append(reasons, "Salary below minimum eligibility limit")
		}
	}
	if reasons == nil {
		reasons = []string{}
	}

	lines := make([]string, 0, len(reasons)+1)
	lines = append(lines, header)
	for _, r := range reasons {
		lines = append(lines, bullet+r)
	}

	return models.Explanation{
		Approved: in.Approved,
		Summary:  header,
		Reasons:  reasons,
		Text:     strings.Join(lines, "\n"),
		Factors: models.ExplanationFactors{
			Salary:       in.Salary,
			CreditScore:  in.CreditScore,
			LoanAmount:   in.LoanAmount,
			TenureMonths: in.TenureMonths,
			Ratio:        risk.Round2(ratio),
		},
	}, nil
}
