// internal/risk/policy.go
package risk

import "loan-risk-workers/internal/common/config"

// Policy holds the lending constants the scorers depend on. They used to be
// literals inside the scorers; keeping them here makes them configurable.
type Policy struct {
	// ReferenceIncome is the assumed monthly income used by the existing-loans
	// EMI burden check. It is independent of the applicant's own income.
	ReferenceIncome float64 `mapstructure:"reference_income"`
	// EMIBurdenRatio is the share of ReferenceIncome above which existing EMIs
	// are penalised.
	EMIBurdenRatio float64 `mapstructure:"emi_burden_ratio"`
	// NewLoanAnnualRate is the annual percentage rate assumed for the loan
	// being evaluated.
	NewLoanAnnualRate         float64 `mapstructure:"new_loan_annual_rate"`
	DefaultJobStabilityMonths int     `mapstructure:"default_job_stability_months"`
}

func DefaultPolicy() Policy {
	return Policy{
		ReferenceIncome:           50000,
		EMIBurdenRatio:            0.40,
		NewLoanAnnualRate:         10.0,
		DefaultJobStabilityMonths: 12,
	}
}

// EMIBurdenLimit is the monthly EMI above which the burden penalty applies.
func (p Policy) EMIBurdenLimit() float64 {
	return p.ReferenceIncome * p.EMIBurdenRatio
}

// PolicyFromConfig maps the policy section of the service config.
func PolicyFromConfig(cfg config.PolicyConfig) Policy {
	return Policy{
		ReferenceIncome:           cfg.ReferenceIncome,
		EMIBurdenRatio:            cfg.EMIBurdenRatio,
		NewLoanAnnualRate:         cfg.NewLoanAnnualRate,
		DefaultJobStabilityMonths: cfg.DefaultJobStabilityMonths,
	}
}
