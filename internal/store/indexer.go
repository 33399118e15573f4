package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"time"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
)

// ScoreDocument is one applicant's aggregate as stored in the search index.
type ScoreDocument struct {
	BatchID      string                   `json:"batchId"`
	Position     int                      `json:"position"`
	Applicant    string                   `json:"applicant"`
	AverageScore float64                  `json:"averageScore"`
	Band         models.Status            `json:"band"`
	Scores       map[models.Factor]int    `json:"scores"`
	Statuses     map[models.Factor]string `json:"statuses"`
	ScoredAt     time.Time                `json:"scoredAt"`
}

// ResultIndexer writes per-applicant aggregates to Elasticsearch so
// portfolios can be searched by band, factor score or applicant.
type ResultIndexer struct {
	es    *elasticsearch.Client
	index string
}

func NewResultIndexer(es *elasticsearch.Client, index string) *ResultIndexer {
	return &ResultIndexer{es: es, index: index}
}

type bulkResponse struct {
	Errors bool `json:"errors"`
	Items  []map[string]struct {
		Status int `json:"status"`
		Error  *struct {
			Type   string `json:"type"`
			Reason string `json:"reason"`
		} `json:"error,omitempty"`
	} `json:"items"`
}

// IndexReport bulk-indexes every scored applicant of the report and returns
// how many documents were written. Document ids are batchId-position, so
// re-indexing a batch overwrites instead of duplicating.
func (ix *ResultIndexer) IndexReport(ctx context.Context, report *models.PortfolioReport) (int, error) {
	if len(report.Results) == 0 {
		return 0, nil
	}

	var body bytes.Buffer
	enc := json.NewEncoder(&body)
	for i, res := range report.Results {
		meta := map[string]map[string]string{
			"index": {"_id": fmt.Sprintf("%s-%d", report.BatchID, i)},
		}
		if err := enc.Encode(meta); err != nil {
			return 0, errors.NewIndexFailedError(err)
		}
		if err := enc.Encode(newScoreDocument(report, i, res)); err != nil {
			return 0, errors.NewIndexFailedError(err)
		}
	}

	res, err := ix.es.Bulk(
		bytes.NewReader(body.Bytes()),
		ix.es.Bulk.WithContext(ctx),
		ix.es.Bulk.WithIndex(ix.index),
	)
	if err != nil {
		return 0, errors.NewIndexFailedError(err)
	}
	defer res.Body.Close()

	if res.IsError() {
		return 0, errors.NewIndexFailedError(fmt.Errorf("bulk request failed: %s", res.Status()))
	}

	var parsed bulkResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return 0, errors.NewIndexFailedError(fmt.Errorf("decode bulk response: %w", err))
	}

	written := 0
	var firstErr string
	for _, item := range parsed.Items {
		for _, op := range item {
			if op.Error == nil && op.Status < 300 {
				written++
			} else if firstErr == "" && op.Error != nil {
				firstErr = op.Error.Type + ": " + op.Error.Reason
			}
		}
	}
	if parsed.Errors {
		return written, errors.NewIndexFailedError(fmt.Errorf("%d of %d documents rejected: %s",
			len(report.Results)-written, len(report.Results), firstErr))
	}
	return written, nil
}

func newScoreDocument(report *models.PortfolioReport, position int, res models.AggregateResult) ScoreDocument {
	doc := ScoreDocument{
		BatchID:      report.BatchID,
		Position:     position,
		Applicant:    res.Applicant,
		AverageScore: res.AverageScore,
		Band:         res.Band(),
		Scores:       make(map[models.Factor]int, len(res.Factors)),
		Statuses:     make(map[models.Factor]string, len(res.Factors)),
		ScoredAt:     report.CreatedAt,
	}
	for factor, score := range res.Factors {
		doc.Scores[factor] = score.Score
		doc.Statuses[factor] = string(score.Status)
	}
	return doc
}
