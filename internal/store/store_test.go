package store

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/elastic/go-elasticsearch/v8"
	"github.com/go-redis/redismock/v9"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Test Helper Functions
// ==========================

func createTestReport() *models.PortfolioReport {
	alice := models.AggregateResult{
		Applicant: "alice",
		Factors: map[models.Factor]models.ScoreResult{
			models.FactorCreditHistory: {AgentName: "Credit History Agent", Score: 95, Status: models.StatusPass},
			models.FactorIncome:        {AgentName: "Income Agent", Score: 90, Status: models.StatusPass},
		},
		AverageScore: 92.5,
	}
	bob := models.AggregateResult{
		Applicant: "bob",
		Factors: map[models.Factor]models.ScoreResult{
			models.FactorCreditHistory: {AgentName: "Credit History Agent", Score: 55, Status: models.StatusWarn},
		},
		AverageScore: 55,
	}
	return &models.PortfolioReport{
		BatchID:       "batch-001",
		BatchName:     "october",
		Status:        models.ReportCompleted,
		RecordsSeen:   3,
		TotalRecords:  2,
		FailedRecords: 1,
		AverageScore:  73.75,
		Distribution:  models.Distribution{Pass: 1, Fail: 1},
		TopCandidates: []models.AggregateResult{alice, bob},
		Failures: []models.RecordFailure{
			{Index: 2, Applicant: "carol", Code: "INVALID_INPUT", Message: "Invalid input: monthlyIncome"},
		},
		ProcessingTimeSeconds: 0.42,
		CreatedAt:             time.Date(2026, 10, 1, 9, 30, 0, 0, time.UTC),
		Results:               []models.AggregateResult{alice, bob},
	}
}

// ==========================
// Report Repository
// ==========================

func TestReportRepository_Save(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	report := createTestReport()
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	mock.ExpectExec(`INSERT INTO portfolio_reports`).
		WithArgs("batch-001", "october", "COMPLETED", 3, 2, 1, 73.75, string(raw), report.CreatedAt).
		WillReturnResult(sqlmock.NewResult(1, 1))

	repo := NewReportRepository(db)
	require.NoError(t, repo.Save(context.Background(), report))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_Save_DatabaseError(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`INSERT INTO portfolio_reports`).
		WillReturnError(stderrors.New("connection reset"))

	err = NewReportRepository(db).Save(context.Background(), createTestReport())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeDatabaseInsertFailed, errors.CodeOf(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_Get(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	report := createTestReport()
	raw, err := json.Marshal(report)
	require.NoError(t, err)

	mock.ExpectQuery(`SELECT report FROM portfolio_reports WHERE batch_id = \$1`).
		WithArgs("batch-001").
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow(raw))

	got, err := NewReportRepository(db).Get(context.Background(), "batch-001")
	require.NoError(t, err)
	assert.Equal(t, "batch-001", got.BatchID)
	assert.Equal(t, 73.75, got.AverageScore)
	assert.Equal(t, models.Distribution{Pass: 1, Fail: 1}, got.Distribution)
	require.Len(t, got.TopCandidates, 2)
	assert.Equal(t, "alice", got.TopCandidates[0].Applicant)
	assert.Equal(t, 2, got.Failures[0].Index)
	assert.Nil(t, got.Results, "per-applicant results are not part of the stored report")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestReportRepository_Get_Errors(t *testing.T) {
	tests := []struct {
		name     string
		setup    func(mock sqlmock.Sqlmock)
		wantCode errors.ErrorCode
	}{
		{
			name: "not found",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT report`).WithArgs("missing").WillReturnError(sql.ErrNoRows)
			},
			wantCode: errors.ErrCodeReportNotFound,
		},
		{
			name: "query failure",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT report`).WithArgs("missing").WillReturnError(stderrors.New("timeout"))
			},
			wantCode: errors.ErrCodeQueryExecutionFailed,
		},
		{
			name: "corrupt payload",
			setup: func(mock sqlmock.Sqlmock) {
				mock.ExpectQuery(`SELECT report`).WithArgs("missing").
					WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow([]byte("{not json")))
			},
			wantCode: errors.ErrCodeParseError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			db, mock, err := sqlmock.New()
			require.NoError(t, err)
			defer db.Close()

			tt.setup(mock)
			_, err = NewReportRepository(db).Get(context.Background(), "missing")
			require.Error(t, err)
			assert.Equal(t, tt.wantCode, errors.CodeOf(err))
			assert.NoError(t, mock.ExpectationsWereMet())
		})
	}
}

func TestReportRepository_EnsureSchema(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(`CREATE TABLE IF NOT EXISTS portfolio_reports`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, NewReportRepository(db).EnsureSchema(context.Background()))
	assert.NoError(t, mock.ExpectationsWereMet())
}

// ==========================
// Report Cache
// ==========================

func TestReportCache_RoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	cache := NewReportCache(client, 30*time.Minute)
	ctx := context.Background()

	_, hit, err := cache.Get(ctx, "batch-001")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, cache.Set(ctx, createTestReport()))
	assert.True(t, mr.Exists("portfolio:batch-001"))
	assert.Equal(t, 30*time.Minute, mr.TTL("portfolio:batch-001"))

	got, hit, err := cache.Get(ctx, "batch-001")
	require.NoError(t, err)
	require.True(t, hit)
	assert.Equal(t, "october", got.BatchName)
	assert.Equal(t, 1, got.FailedRecords)

	mr.FastForward(31 * time.Minute)
	_, hit, err = cache.Get(ctx, "batch-001")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestReportCache_CorruptEntryIsMiss(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	require.NoError(t, mr.Set("portfolio:batch-001", "garbage"))

	_, hit, err := NewReportCache(client, time.Minute).Get(context.Background(), "batch-001")
	require.NoError(t, err)
	assert.False(t, hit)
}

func TestReportCache_Errors(t *testing.T) {
	client, redisMock := redismock.NewClientMock()
	cache := NewReportCache(client, 5*time.Minute)

	redisMock.ExpectGet("portfolio:batch-001").SetErr(stderrors.New("connection refused"))
	_, _, err := cache.Get(context.Background(), "batch-001")
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCacheFailed, errors.CodeOf(err))

	report := createTestReport()
	data, err := json.Marshal(report)
	require.NoError(t, err)
	redisMock.ExpectSet("portfolio:batch-001", data, 5*time.Minute).SetErr(stderrors.New("READONLY"))
	err = cache.Set(context.Background(), report)
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeCacheFailed, errors.CodeOf(err))

	assert.NoError(t, redisMock.ExpectationsWereMet())
}

// ==========================
// Result Indexer
// ==========================

func newTestES(t *testing.T, handler http.HandlerFunc) *elasticsearch.Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Elastic-Product", "Elasticsearch")
		w.Header().Set("Content-Type", "application/json")
		handler(w, r)
	}))
	t.Cleanup(srv.Close)

	es, err := elasticsearch.NewClient(elasticsearch.Config{Addresses: []string{srv.URL}})
	require.NoError(t, err)
	return es
}

func TestResultIndexer_IndexReport(t *testing.T) {
	var path string
	var lines []string
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		path = r.URL.Path
		body, _ := io.ReadAll(r.Body)
		lines = strings.Split(strings.TrimSpace(string(body)), "\n")
		_, _ = io.WriteString(w, `{"errors":false,"items":[{"index":{"status":201}},{"index":{"status":201}}]}`)
	})

	n, err := NewResultIndexer(es, "loan-applicant-scores").IndexReport(context.Background(), createTestReport())
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.Equal(t, "/loan-applicant-scores/_bulk", path)

	require.Len(t, lines, 4)
	assert.JSONEq(t, `{"index":{"_id":"batch-001-0"}}`, lines[0])

	var doc ScoreDocument
	require.NoError(t, json.Unmarshal([]byte(lines[1]), &doc))
	assert.Equal(t, "alice", doc.Applicant)
	assert.Equal(t, models.StatusPass, doc.Band)
	assert.Equal(t, 95, doc.Scores[models.FactorCreditHistory])
	assert.Equal(t, "PASS", doc.Statuses[models.FactorIncome])

	require.NoError(t, json.Unmarshal([]byte(lines[3]), &doc))
	assert.Equal(t, "bob", doc.Applicant)
	assert.Equal(t, 1, doc.Position)
	assert.Equal(t, models.StatusFail, doc.Band)
}

func TestResultIndexer_EmptyReportSkipsRequest(t *testing.T) {
	called := false
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) { called = true })

	report := createTestReport()
	report.Results = nil
	n, err := NewResultIndexer(es, "scores").IndexReport(context.Background(), report)
	require.NoError(t, err)
	assert.Zero(t, n)
	assert.False(t, called)
}

func TestResultIndexer_PartialFailure(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.WriteString(w, `{"errors":true,"items":[
			{"index":{"status":201}},
			{"index":{"status":400,"error":{"type":"mapper_parsing_exception","reason":"bad score"}}}]}`)
	})

	n, err := NewResultIndexer(es, "scores").IndexReport(context.Background(), createTestReport())
	require.Error(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, errors.ErrCodeIndexFailed, errors.CodeOf(err))
	assert.Contains(t, err.Error(), "mapper_parsing_exception")
}

func TestResultIndexer_RequestRejected(t *testing.T) {
	es := newTestES(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error":"bad request"}`)
	})

	_, err := NewResultIndexer(es, "scores").IndexReport(context.Background(), createTestReport())
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeIndexFailed, errors.CodeOf(err))
}
