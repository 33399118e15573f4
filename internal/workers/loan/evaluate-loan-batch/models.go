package evaluateloanbatch

import (
	"context"

	"loan-risk-workers/internal/batch"
	"loan-risk-workers/internal/models"
)

type Input struct {
	BatchName string `json:"batchName"`
	// Rows are tabular records keyed by column header. Values may be
	// strings or numbers.
	Rows        []map[string]interface{} `json:"rows"`
	OCRResults  []models.OCRResult       `json:"ocrResults"`
	FailOnEmpty bool                     `json:"failOnEmpty"`
}

type Output struct {
	*models.PortfolioReport
	Persisted      bool `json:"persisted"`
	IndexedResults int  `json:"indexedResults"`
}

// BatchEvaluator scores a batch into a portfolio report.
type BatchEvaluator interface {
	Evaluate(ctx context.Context, batchName string, items []batch.Item) *models.PortfolioReport
}

type ReportSaver interface {
	Save(ctx context.Context, report *models.PortfolioReport) error
}

type ReportCacher interface {
	Set(ctx context.Context, report *models.PortfolioReport) error
}

type ResultIndexer interface {
	IndexReport(ctx context.Context, report *models.PortfolioReport) (int, error)
}
