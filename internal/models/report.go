// internal/models/report.go
package models

import "time"

type ReportStatus string

const (
	ReportCompleted  ReportStatus = "COMPLETED"
	ReportEmptyBatch ReportStatus = "EMPTY_BATCH"
)

// Distribution counts aggregates per decision band.
type Distribution struct {
	Pass int `json:"PASS"`
	Warn int `json:"WARN"`
	Fail int `json:"FAIL"`
}

// Add counts one aggregate in its band.
func (d *Distribution) Add(s Status) {
	switch s {
	case StatusPass:
		d.Pass++
	case StatusWarn:
		d.Warn++
	default:
		d.Fail++
	}
}

// RecordFailure identifies a record that was seen but not scored.
type RecordFailure struct {
	Index     int    `json:"index"`
	Applicant string `json:"applicant"`
	Code      string `json:"code"`
	Message   string `json:"message"`
}

// PortfolioReport summarises one batch run. It is read-only once returned.
type PortfolioReport struct {
	BatchID               string            `json:"batchId"`
	BatchName             string            `json:"batchName,omitempty"`
	Status                ReportStatus      `json:"status"`
	RecordsSeen           int               `json:"recordsSeen"`
	TotalRecords          int               `json:"totalRecords"`
	FailedRecords         int               `json:"failedRecords"`
	AverageScore          float64           `json:"averageScore"`
	Distribution          Distribution      `json:"distribution"`
	TopCandidates         []AggregateResult `json:"topCandidates"`
	Failures              []RecordFailure   `json:"failures,omitempty"`
	ProcessingTimeSeconds float64           `json:"processingTimeSeconds"`
	CreatedAt             time.Time         `json:"createdAt"`

	// Results holds every successful aggregate in input order. It is not
	// part of the wire format; the result indexer consumes it.
	Results []AggregateResult `json:"-"`
}

// IsEmpty reports whether no applicant could be scored.
func (r *PortfolioReport) IsEmpty() bool {
	return r.TotalRecords == 0
}
