// internal/batch/coordinator.go
package batch

import (
	"context"
	"fmt"
	"sort"
	"time"

	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/common/metrics"
	"loan-risk-workers/internal/common/observability"
	"loan-risk-workers/internal/models"
	"loan-risk-workers/internal/risk"

	"github.com/google/uuid"
	"github.com/sourcegraph/conc/iter"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const (
	DefaultTopCandidates = 10
	DefaultConcurrency   = 8
)

// Evaluator scores one applicant across all factors.
type Evaluator interface {
	Evaluate(rec models.ApplicantRecord) (models.AggregateResult, error)
}

// RecordValidator rejects records before they reach the scorers.
type RecordValidator interface {
	Validate(rec models.ApplicantRecord) error
}

// ScoreRecorder receives every successful aggregate score.
type ScoreRecorder interface {
	RecordApplicantScore(ctx context.Context, score float64, band string)
}

// Item is one entry of a batch. Err is set when the source could not turn
// the entry into a record; such items count as seen and failed.
type Item struct {
	Name   string
	Record models.ApplicantRecord
	Err    error
}

// ItemsFromRecords wraps already-built records.
func ItemsFromRecords(recs []models.ApplicantRecord) []Item {
	items := make([]Item, len(recs))
	for i, r := range recs {
		items[i] = Item{Name: r.Name, Record: r}
	}
	return items
}

type Config struct {
	TopCandidates int
	Concurrency   int
}

type Coordinator struct {
	evaluator Evaluator
	validator RecordValidator
	recorder  ScoreRecorder
	logger    logger.Logger
	topK      int
	workers   int
	now       func() time.Time
	newID     func() string
}

type Option func(*Coordinator)

func WithValidator(v RecordValidator) Option {
	return func(c *Coordinator) { c.validator = v }
}

func WithScoreRecorder(r ScoreRecorder) Option {
	return func(c *Coordinator) { c.recorder = r }
}

func WithClock(now func() time.Time) Option {
	return func(c *Coordinator) { c.now = now }
}

func WithIDGenerator(f func() string) Option {
	return func(c *Coordinator) { c.newID = f }
}

func NewCoordinator(evaluator Evaluator, cfg Config, log logger.Logger, opts ...Option) *Coordinator {
	if cfg.TopCandidates <= 0 {
		cfg.TopCandidates = DefaultTopCandidates
	}
	if cfg.Concurrency <= 0 {
		cfg.Concurrency = DefaultConcurrency
	}

	c := &Coordinator{
		evaluator: evaluator,
		logger:    log.WithFields(map[string]interface{}{"component": "batch-coordinator"}),
		topK:      cfg.TopCandidates,
		workers:   cfg.Concurrency,
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// outcome is the per-item result; exactly one field is set.
type outcome struct {
	result  *models.AggregateResult
	failure *models.RecordFailure
}

// Evaluate scores every item and builds the portfolio report. Per-item
// failures are logged and listed in the report; they never abort the batch.
func (c *Coordinator) Evaluate(ctx context.Context, batchName string, items []Item) *models.PortfolioReport {
	start := c.now()
	batchID := c.newID()

	ctx, span := observability.StartSpan(ctx, "batch.evaluate",
		attribute.String("batch.id", batchID),
		attribute.Int("batch.records_seen", len(items)),
	)
	defer span.End()

	mapper := iter.Mapper[Item, outcome]{MaxGoroutines: c.workers}
	outcomes := mapper.Map(items, func(it *Item) outcome {
		return c.scoreItem(it)
	})

	// Map keeps input order, so results and failures stay in processing order.
	report := &models.PortfolioReport{
		BatchID:     batchID,
		BatchName:   batchName,
		RecordsSeen: len(items),
		CreatedAt:   start.UTC(),
	}

	var sum float64
	for i, o := range outcomes {
		if o.failure != nil {
			o.failure.Index = i
			c.logSkipped(batchID, *o.failure)
			metrics.ApplicantsSkipped.WithLabelValues(o.failure.Code).Inc()
			report.Failures = append(report.Failures, *o.failure)
			continue
		}

		agg := *o.result
		band := agg.Band()
		report.Results = append(report.Results, agg)
		report.Distribution.Add(band)
		sum += agg.AverageScore

		metrics.ApplicantsScored.WithLabelValues(string(band)).Inc()
		if c.recorder != nil {
			c.recorder.RecordApplicantScore(ctx, agg.AverageScore, string(band))
		}
	}

	report.TotalRecords = len(report.Results)
	report.FailedRecords = len(report.Failures)
	report.TopCandidates = topCandidates(report.Results, c.topK)

	if report.TotalRecords == 0 {
		report.Status = models.ReportEmptyBatch
		report.TopCandidates = []models.AggregateResult{}
		span.SetStatus(codes.Error, string(errors.ErrCodeEmptyBatch))
		c.logger.Warn("batch produced no scored applicants", map[string]interface{}{
			"batchId":     batchID,
			"recordsSeen": report.RecordsSeen,
		})
	} else {
		report.Status = models.ReportCompleted
		report.AverageScore = risk.Round2(sum / float64(report.TotalRecords))
	}

	elapsed := c.now().Sub(start)
	report.ProcessingTimeSeconds = risk.Round2(elapsed.Seconds())

	metrics.BatchDuration.Observe(elapsed.Seconds())
	metrics.BatchesEvaluated.WithLabelValues(string(report.Status)).Inc()
	span.SetAttributes(
		attribute.Int("batch.total_records", report.TotalRecords),
		attribute.Int("batch.failed_records", report.FailedRecords),
		attribute.Float64("batch.average_score", report.AverageScore),
	)

	c.logger.Info("batch evaluated", map[string]interface{}{
		"batchId":       batchID,
		"recordsSeen":   report.RecordsSeen,
		"totalRecords":  report.TotalRecords,
		"failedRecords": report.FailedRecords,
		"averageScore":  report.AverageScore,
		"distribution":  report.Distribution,
		"durationMs":    elapsed.Milliseconds(),
	})

	return report
}

func (c *Coordinator) scoreItem(it *Item) (out outcome) {
	name := it.Name
	if name == "" {
		name = it.Record.Name
	}
	defer func() {
		if r := recover(); r != nil {
			out = failed(name, fmt.Errorf("scoring panicked: %v", r))
		}
	}()

	if it.Err != nil {
		return failed(name, it.Err)
	}
	if c.validator != nil {
		if err := c.validator.Validate(it.Record); err != nil {
			return failed(name, err)
		}
	}

	agg, err := c.evaluator.Evaluate(it.Record)
	if err != nil {
		return failed(name, err)
	}
	if agg.Applicant == "" {
		agg.Applicant = name
	}
	return outcome{result: &agg}
}

func failed(name string, err error) outcome {
	stdErr := errors.Normalize(err)
	msg := stdErr.Message
	if stdErr.Details != "" {
		msg += ": " + stdErr.Details
	}
	return outcome{failure: &models.RecordFailure{
		Applicant: name,
		Code:      string(stdErr.Code),
		Message:   msg,
	}}
}

func (c *Coordinator) logSkipped(batchID string, f models.RecordFailure) {
	c.logger.Warn("applicant skipped", map[string]interface{}{
		"batchId":   batchID,
		"applicant": f.Applicant,
		"index":     f.Index,
		"errorCode": f.Code,
		"details":   f.Message,
	})
}

// topCandidates ranks by average score, descending. Ties keep input order.
func topCandidates(results []models.AggregateResult, k int) []models.AggregateResult {
	ranked := make([]models.AggregateResult, len(results))
	copy(ranked, results)
	sort.SliceStable(ranked, func(i, j int) bool {
		return ranked[i].AverageScore > ranked[j].AverageScore
	})
	if len(ranked) > k {
		ranked = ranked[:k]
	}
	return ranked
}
