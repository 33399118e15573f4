package store

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"

	"github.com/elastic/go-elasticsearch/v8"
	"github.com/elastic/go-elasticsearch/v8/esapi"
)

const (
	DefaultSearchSize = 20
	MaxSearchSize     = 100
)

const scoresMapping = `{
  "mappings": {
    "properties": {
      "batchId":      {"type": "keyword"},
      "position":     {"type": "integer"},
      "applicant":    {"type": "text", "fields": {"keyword": {"type": "keyword"}}},
      "averageScore": {"type": "float"},
      "band":         {"type": "keyword"},
      "scores":       {"type": "object"},
      "statuses":     {"type": "object"},
      "scoredAt":     {"type": "date"}
    }
  }
}`

// EnsureIndex creates the scores index with its mapping when it does not
// exist yet.
func (ix *ResultIndexer) EnsureIndex(ctx context.Context) error {
	res, err := ix.es.Indices.Exists([]string{ix.index}, ix.es.Indices.Exists.WithContext(ctx))
	if err != nil {
		return errors.NewIndexFailedError(err)
	}
	res.Body.Close()
	if res.StatusCode == 200 {
		return nil
	}

	res, err = ix.es.Indices.Create(ix.index,
		ix.es.Indices.Create.WithContext(ctx),
		ix.es.Indices.Create.WithBody(strings.NewReader(scoresMapping)),
	)
	if err != nil {
		return errors.NewIndexFailedError(err)
	}
	defer res.Body.Close()
	if res.IsError() {
		return errors.NewIndexFailedError(fmt.Errorf("create index %s: %s", ix.index, res.String()))
	}
	return nil
}

// ScoreQuery filters indexed applicant scores. Zero values mean "any".
type ScoreQuery struct {
	BatchID   string
	Band      models.Status
	Applicant string
	MinScore  *float64
	MaxScore  *float64
	From      int
	Size      int
}

type ScoreSearchResult struct {
	Total     int64
	Documents []ScoreDocument
	Took      int64
}

// ScoreSearch queries the applicant score index.
type ScoreSearch struct {
	es    *elasticsearch.Client
	index string
}

func NewScoreSearch(es *elasticsearch.Client, index string) *ScoreSearch {
	return &ScoreSearch{es: es, index: index}
}

type searchResponse struct {
	Took int64 `json:"took"`
	Hits struct {
		Total struct {
			Value int64 `json:"value"`
		} `json:"total"`
		Hits []struct {
			Source ScoreDocument `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// Search returns matching documents, best average score first.
func (s *ScoreSearch) Search(ctx context.Context, q ScoreQuery) (*ScoreSearchResult, error) {
	q = normalisePage(q)

	body, err := json.Marshal(buildScoreQuery(q))
	if err != nil {
		return nil, errors.NewParseError(err)
	}

	req := esapi.SearchRequest{
		Index: []string{s.index},
		Body:  bytes.NewReader(body),
		From:  &q.From,
		Size:  &q.Size,
	}
	res, err := req.Do(ctx, s.es)
	if err != nil {
		return nil, errors.NewQueryExecutionFailedError("search_scores", err)
	}
	defer res.Body.Close()

	if res.IsError() {
		if res.StatusCode == 404 {
			return &ScoreSearchResult{Documents: []ScoreDocument{}}, nil
		}
		return nil, errors.NewQueryExecutionFailedError("search_scores", fmt.Errorf("%s", res.String()))
	}

	var parsed searchResponse
	if err := json.NewDecoder(res.Body).Decode(&parsed); err != nil {
		return nil, errors.NewParseError(err)
	}

	out := &ScoreSearchResult{
		Total:     parsed.Hits.Total.Value,
		Took:      parsed.Took,
		Documents: make([]ScoreDocument, 0, len(parsed.Hits.Hits)),
	}
	for _, hit := range parsed.Hits.Hits {
		out.Documents = append(out.Documents, hit.Source)
	}
	return out, nil
}

func normalisePage(q ScoreQuery) ScoreQuery {
	if q.From < 0 {
		q.From = 0
	}
	if q.Size < 1 {
		q.Size = DefaultSearchSize
	}
	if q.Size > MaxSearchSize {
		q.Size = MaxSearchSize
	}
	return q
}

func buildScoreQuery(q ScoreQuery) map[string]interface{} {
	must := []interface{}{}
	filter := []interface{}{}

	if q.Applicant != "" {
		must = append(must, map[string]interface{}{
			"match": map[string]interface{}{"applicant": q.Applicant},
		})
	}
	if q.BatchID != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"batchId": q.BatchID},
		})
	}
	if q.Band != "" {
		filter = append(filter, map[string]interface{}{
			"term": map[string]interface{}{"band": string(q.Band)},
		})
	}
	if q.MinScore != nil || q.MaxScore != nil {
		bounds := map[string]interface{}{}
		if q.MinScore != nil {
			bounds["gte"] = *q.MinScore
		}
		if q.MaxScore != nil {
			bounds["lte"] = *q.MaxScore
		}
		filter = append(filter, map[string]interface{}{
			"range": map[string]interface{}{"averageScore": bounds},
		})
	}

	return map[string]interface{}{
		"query": map[string]interface{}{
			"bool": map[string]interface{}{
				"must":   must,
				"filter": filter,
			},
		},
		"sort": []interface{}{
			map[string]interface{}{"averageScore": map[string]interface{}{"order": "desc"}},
			map[string]interface{}{"position": map[string]interface{}{"order": "asc"}},
		},
	}
}
