package store

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"time"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/models"

	"github.com/redis/go-redis/v9"
)

const reportKeyPrefix = "portfolio:"

// ReportKey is the Redis key for a batch report.
func ReportKey(batchID string) string {
	return reportKeyPrefix + batchID
}

// ReportCache keeps recently produced reports in Redis.
type ReportCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewReportCache(client *redis.Client, ttl time.Duration) *ReportCache {
	return &ReportCache{client: client, ttl: ttl}
}

// Get returns (nil, false, nil) on a cache miss. Entries that no longer
// decode are treated as misses.
func (c *ReportCache) Get(ctx context.Context, batchID string) (*models.PortfolioReport, bool, error) {
	val, err := c.client.Get(ctx, ReportKey(batchID)).Bytes()
	if err != nil {
		if stderrors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, errors.NewCacheFailedError("get", err)
	}

	var report models.PortfolioReport
	if err := json.Unmarshal(val, &report); err != nil {
		return nil, false, nil
	}
	return &report, true, nil
}

// Set stores the report under its batch id with the configured TTL.
func (c *ReportCache) Set(ctx context.Context, report *models.PortfolioReport) error {
	data, err := json.Marshal(report)
	if err != nil {
		return errors.NewParseError(err)
	}
	if err := c.client.Set(ctx, ReportKey(report.BatchID), data, c.ttl).Err(); err != nil {
		return errors.NewCacheFailedError("set", err)
	}
	return nil
}
