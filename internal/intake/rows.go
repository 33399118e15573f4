// internal/intake/rows.go
package intake

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"
)

// Defaults applied to structured rows with missing columns.
const (
	DefaultAge                = 30
	DefaultCreditScore        = 700
	DefaultEmploymentType     = string(models.EmploymentSalaried)
	DefaultLoanAmount         = 100000
	DefaultTenureMonths       = 12
	DefaultJobStabilityMonths = 24
)

// Row is one already-parsed tabular record keyed by column header.
type Row map[string]string

// column aliases, keyed by normalised header
var columns = map[string][]string{
	"name":             {"name", "applicant", "applicantname"},
	"salary":           {"salary", "monthlyincome", "income"},
	"age":              {"age"},
	"creditScore":      {"cibilscore", "creditscore", "cibil"},
	"employmentType":   {"employmenttype", "employment"},
	"yearsExperience":  {"yearsexperience", "experience"},
	"activeLoans":      {"activeloans"},
	"totalOutstanding": {"totaloutstanding", "outstanding"},
	"existingEmis":     {"existingemis", "existingemi", "emis"},
	"loanAmount":       {"loanamount", "requestedloanamount"},
	"tenureMonths":     {"tenuremonths", "tenure"},
	"jobStability":     {"jobstability", "jobstabilitymonths"},
}

func normaliseHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	return strings.NewReplacer("_", "", " ", "", "-", "").Replace(h)
}

type rowReader struct {
	values map[string]string
}

func newRowReader(row Row) rowReader {
	values := make(map[string]string, len(row))
	for k, v := range row {
		values[normaliseHeader(k)] = strings.TrimSpace(v)
	}
	return rowReader{values: values}
}

func (r rowReader) lookup(field string) (string, bool) {
	for _, alias := range columns[field] {
		if v, ok := r.values[alias]; ok && v != "" {
			return v, true
		}
	}
	return "", false
}

func parseAmount(field, raw string) (float64, error) {
	cleaned := strings.NewReplacer(",", "", "₹", "", " ", "").Replace(raw)
	v, err := strconv.ParseFloat(cleaned, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, errors.NewInvalidInputError(field, fmt.Sprintf("not a number: %q", raw))
	}
	return v, nil
}

func parseCount(field, raw string) (int, error) {
	v, err := parseAmount(field, raw)
	if err != nil {
		return 0, err
	}
	if v != math.Trunc(v) {
		return 0, errors.NewInvalidInputError(field, fmt.Sprintf("not a whole number: %q", raw))
	}
	if v > math.MaxInt32 || v < math.MinInt32 {
		return 0, errors.NewInvalidInputError(field, fmt.Sprintf("out of range: %q", raw))
	}
	return int(v), nil
}

func (r rowReader) amount(field string, def float64) (float64, error) {
	raw, ok := r.lookup(field)
	if !ok {
		return def, nil
	}
	return parseAmount(field, raw)
}

func (r rowReader) count(field string, def int) (int, error) {
	raw, ok := r.lookup(field)
	if !ok {
		return def, nil
	}
	return parseCount(field, raw)
}

// FromRow maps a structured row to an ApplicantRecord. source names the file
// the row came from and is used when the row has no name column. A missing
// salary is an error rather than a silent zero.
func FromRow(source string, row Row) (models.ApplicantRecord, error) {
	r := newRowReader(row)

	rawSalary, ok := r.lookup("salary")
	if !ok {
		return models.ApplicantRecord{}, errors.NewInvalidInputError("monthlyIncome", "salary column missing or empty")
	}
	salary, err := parseAmount("monthlyIncome", rawSalary)
	if err != nil {
		return models.ApplicantRecord{}, err
	}

	rec := models.ApplicantRecord{
		Name:           source,
		MonthlyIncome:  salary,
		EmploymentType: DefaultEmploymentType,
	}
	if name, ok := r.lookup("name"); ok {
		rec.Name = name
	}
	if emp, ok := r.lookup("employmentType"); ok {
		rec.EmploymentType = emp
	}

	ints := []struct {
		field string
		def   int
		dst   *int
	}{
		{"age", DefaultAge, &rec.Age},
		{"creditScore", DefaultCreditScore, &rec.CreditScore},
		{"activeLoans", 0, &rec.ActiveLoans},
		{"tenureMonths", DefaultTenureMonths, &rec.TenureMonths},
	}
	for _, f := range ints {
		if *f.dst, err = r.count(f.field, f.def); err != nil {
			return models.ApplicantRecord{}, err
		}
	}

	amounts := []struct {
		field string
		def   float64
		dst   *float64
	}{
		{"totalOutstanding", 0, &rec.TotalOutstanding},
		{"existingEmis", 0, &rec.ExistingEMIs},
		{"loanAmount", DefaultLoanAmount, &rec.RequestedLoanAmount},
	}
	for _, f := range amounts {
		if *f.dst, err = r.amount(f.field, f.def); err != nil {
			return models.ApplicantRecord{}, err
		}
	}

	stability, err := r.count("jobStability", DefaultJobStabilityMonths)
	if err != nil {
		return models.ApplicantRecord{}, err
	}
	rec.JobStabilityMonths = &stability

	// experience falls back to whole years of stability
	if rec.YearsExperience, err = r.count("yearsExperience", stability/12); err != nil {
		return models.ApplicantRecord{}, err
	}

	return rec, nil
}
