package getportfolioreport

import (
	"context"
	"database/sql"
	"encoding/json"
	stderrors "errors"
	"testing"
	"time"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/models"
	"loan-risk-workers/internal/store"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ==========================
// Mock Implementations
// ==========================

type MockRepository struct {
	GetFunc func(ctx context.Context, batchID string) (*models.PortfolioReport, error)
	calls   int
}

func (m *MockRepository) Get(ctx context.Context, batchID string) (*models.PortfolioReport, error) {
	m.calls++
	return m.GetFunc(ctx, batchID)
}

type MockCache struct {
	GetFunc func(ctx context.Context, batchID string) (*models.PortfolioReport, bool, error)
	SetFunc func(ctx context.Context, report *models.PortfolioReport) error
	sets    int
}

func (m *MockCache) Get(ctx context.Context, batchID string) (*models.PortfolioReport, bool, error) {
	if m.GetFunc != nil {
		return m.GetFunc(ctx, batchID)
	}
	return nil, false, nil
}

func (m *MockCache) Set(ctx context.Context, report *models.PortfolioReport) error {
	m.sets++
	if m.SetFunc != nil {
		return m.SetFunc(ctx, report)
	}
	return nil
}

// ==========================
// Test Helper Functions
// ==========================

func createTestReport() *models.PortfolioReport {
	return &models.PortfolioReport{
		BatchID:      "batch-001",
		BatchName:    "october",
		Status:       models.ReportCompleted,
		RecordsSeen:  3,
		TotalRecords: 2,
		AverageScore: 71.5,
		Distribution: models.Distribution{Pass: 1, Warn: 1},
		CreatedAt:    time.Date(2026, 10, 1, 9, 0, 0, 0, time.UTC),
	}
}

func createTestHandler(t *testing.T, repo ReportReader, cache ReportCache) *Handler {
	t.Helper()
	h, err := NewHandler(HandlerOptions{
		Repository: repo,
		Cache:      cache,
		Logger:     logger.NewTestLogger(t),
	})
	require.NoError(t, err)
	return h
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_ReadThrough(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()

	raw, err := json.Marshal(createTestReport())
	require.NoError(t, err)
	mock.ExpectQuery(`SELECT report FROM portfolio_reports WHERE batch_id = \$1`).
		WithArgs("batch-001").
		WillReturnRows(sqlmock.NewRows([]string{"report"}).AddRow(raw))

	h := createTestHandler(t,
		store.NewReportRepository(db),
		store.NewReportCache(client, 30*time.Minute),
	)

	first, err := h.Execute(context.Background(), &Input{BatchID: "batch-001"})
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, first.Source)
	assert.Equal(t, 71.5, first.AverageScore)
	assert.True(t, mr.Exists(store.ReportKey("batch-001")), "cache repopulated")

	second, err := h.Execute(context.Background(), &Input{BatchID: "batch-001"})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, second.Source)
	assert.Equal(t, first.Distribution, second.Distribution)

	assert.NoError(t, mock.ExpectationsWereMet(), "second read must not hit the database")
}

func TestHandler_Execute_CacheHit(t *testing.T) {
	repo := &MockRepository{}
	cache := &MockCache{
		GetFunc: func(context.Context, string) (*models.PortfolioReport, bool, error) {
			return createTestReport(), true, nil
		},
	}

	out, err := createTestHandler(t, repo, cache).Execute(context.Background(), &Input{BatchID: " batch-001 "})
	require.NoError(t, err)
	assert.Equal(t, SourceCache, out.Source)
	assert.Zero(t, repo.calls)
	assert.Zero(t, cache.sets)
}

// ==========================
// Error Handling Tests
// ==========================

func TestHandler_Execute_CacheOutageFallsBack(t *testing.T) {
	repo := &MockRepository{
		GetFunc: func(context.Context, string) (*models.PortfolioReport, error) {
			return createTestReport(), nil
		},
	}
	cache := &MockCache{
		GetFunc: func(context.Context, string) (*models.PortfolioReport, bool, error) {
			return nil, false, errors.NewCacheFailedError("get", stderrors.New("connection refused"))
		},
		SetFunc: func(context.Context, *models.PortfolioReport) error {
			return errors.NewCacheFailedError("set", stderrors.New("connection refused"))
		},
	}

	out, err := createTestHandler(t, repo, cache).Execute(context.Background(), &Input{BatchID: "batch-001"})
	require.NoError(t, err)
	assert.Equal(t, SourceDatabase, out.Source)
	assert.Equal(t, 1, repo.calls)
	assert.Equal(t, 1, cache.sets)
}

func TestHandler_Execute_Errors(t *testing.T) {
	tests := []struct {
		name    string
		batchID string
		repoErr error
		want    error
	}{
		{name: "blank batch id", batchID: "  ", want: errors.ErrInvalidInput},
		{name: "unknown batch", batchID: "nope", repoErr: errors.NewReportNotFoundError("nope"), want: errors.ErrReportNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := &MockRepository{
				GetFunc: func(context.Context, string) (*models.PortfolioReport, error) {
					return nil, tt.repoErr
				},
			}
			cache := &MockCache{}

			_, err := createTestHandler(t, repo, cache).Execute(context.Background(), &Input{BatchID: tt.batchID})
			require.Error(t, err)
			assert.True(t, stderrors.Is(err, tt.want))
			assert.Zero(t, cache.sets)
		})
	}
}

func TestHandler_Execute_WithoutCache(t *testing.T) {
	repo := &MockRepository{
		GetFunc: func(context.Context, string) (*models.PortfolioReport, error) {
			return nil, errors.NewQueryExecutionFailedError("select_report", sql.ErrConnDone)
		},
	}
	h, err := NewHandler(HandlerOptions{Repository: repo})
	require.NoError(t, err)

	_, err = h.Execute(context.Background(), &Input{BatchID: "batch-001"})
	require.Error(t, err)
	assert.Equal(t, errors.ErrCodeQueryExecutionFailed, errors.CodeOf(err))
}

func TestNewHandler_RequiresRepository(t *testing.T) {
	_, err := NewHandler(HandlerOptions{})
	assert.Error(t, err)
}
