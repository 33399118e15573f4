// internal/intake/schema.go
package intake

import (
	"loan-risk-workers/internal/common/validation"
	"loan-risk-workers/internal/models"
)

const applicantSchema = `{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": [
    "name", "age", "monthlyIncome", "creditScore", "employmentType",
    "yearsExperience", "activeLoans", "totalOutstanding", "existingEmis",
    "requestedLoanAmount", "tenureMonths"
  ],
  "properties": {
    "name":                {"type": "string", "minLength": 1},
    "age":                 {"type": "integer"},
    "monthlyIncome":       {"type": "number", "minimum": 0},
    "creditScore":         {"type": "integer"},
    "employmentType":      {"type": "string"},
    "yearsExperience":     {"type": "integer", "minimum": 0},
    "activeLoans":         {"type": "integer", "minimum": 0},
    "totalOutstanding":    {"type": "number", "minimum": 0},
    "existingEmis":        {"type": "number", "minimum": 0},
    "requestedLoanAmount": {"type": "number", "exclusiveMinimum": 0},
    "tenureMonths":        {"type": "integer", "minimum": 1},
    "jobStabilityMonths":  {"type": "integer", "minimum": 0}
  }
}`

// RecordValidator checks applicant records against the intake schema.
type RecordValidator struct {
	validator *validation.Validator
}

func NewRecordValidator() *RecordValidator {
	return &RecordValidator{validator: validation.MustCompile(applicantSchema)}
}

// Validate returns an INVALID_INPUT error naming the first bad field.
func (v *RecordValidator) Validate(rec models.ApplicantRecord) error {
	result, err := v.validator.Validate(rec)
	if err != nil {
		return err
	}
	return result.Err()
}
