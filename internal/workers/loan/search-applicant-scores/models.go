package searchapplicantscores

import (
	"context"

	"loan-risk-workers/internal/store"
)

type Pagination struct {
	From int `json:"from"`
	Size int `json:"size"`
}

type Input struct {
	BatchID    string     `json:"batchId"`
	Band       string     `json:"band"`
	Applicant  string     `json:"applicant"`
	MinScore   *float64   `json:"minScore"`
	MaxScore   *float64   `json:"maxScore"`
	Pagination Pagination `json:"pagination"`
}

type Output struct {
	Results   []store.ScoreDocument `json:"results"`
	TotalHits int64                 `json:"totalHits"`
	Took      int64                 `json:"took"`
}

// Searcher queries the applicant score index.
type Searcher interface {
	Search(ctx context.Context, q store.ScoreQuery) (*store.ScoreSearchResult, error)
}
