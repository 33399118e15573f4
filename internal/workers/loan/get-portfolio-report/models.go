package getportfolioreport

import (
	"context"

	"loan-risk-workers/internal/models"
)

type Input struct {
	BatchID string `json:"batchId"`
}

const (
	SourceCache    = "cache"
	SourceDatabase = "database"
)

type Output struct {
	*models.PortfolioReport
	Source string `json:"reportSource"`
}

// ReportReader is the durable report store.
type ReportReader interface {
	Get(ctx context.Context, batchID string) (*models.PortfolioReport, error)
}

// ReportCache is the read-through cache in front of ReportReader.
type ReportCache interface {
	Get(ctx context.Context, batchID string) (*models.PortfolioReport, bool, error)
	Set(ctx context.Context, report *models.PortfolioReport) error
}
