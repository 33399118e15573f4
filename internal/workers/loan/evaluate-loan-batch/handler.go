package evaluateloanbatch

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"loan-risk-workers/internal/batch"
	"loan-risk-workers/internal/common/camunda"
	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/common/metrics"
	"loan-risk-workers/internal/intake"
	"loan-risk-workers/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "evaluate-loan-batch"

type Handler struct {
	config      *Config
	logger      logger.Logger
	coordinator BatchEvaluator
	repository  ReportSaver
	cache       ReportCacher
	indexer     ResultIndexer
	recorder    camunda.JobRecorder
	errors      *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Coordinator  BatchEvaluator
	Repository   ReportSaver
	Cache        ReportCacher
	Indexer      ResultIndexer
	Recorder     camunda.JobRecorder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Coordinator == nil {
		return nil, fmt.Errorf("%s requires a batch coordinator", TaskType)
	}

	log := opts.Logger
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	log = log.WithFields(map[string]interface{}{"taskType": TaskType})

	recorder := opts.Recorder
	if recorder == nil {
		recorder = camunda.NopRecorder{}
	}

	return &Handler{
		config:      cfg,
		logger:      log,
		coordinator: opts.Coordinator,
		repository:  opts.Repository,
		cache:       opts.Cache,
		indexer:     opts.Indexer,
		recorder:    recorder,
		errors:      errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("processing job", map[string]interface{}{
		"jobKey":      job.Key,
		"workflowKey": job.ProcessInstanceKey,
	})

	var input Input
	err := camunda.ParseVariables(job, &input)
	var output *Output
	if err == nil {
		output, err = h.Execute(ctx, &input)
	}
	if err != nil {
		code := h.errors.HandleJobError(ctx, client, job, err)
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, code).Inc()
		h.finish(ctx, start, "failed")
		return
	}

	if err := camunda.CompleteJob(ctx, client, job, output); err != nil {
		h.logger.Error("failed to complete job", map[string]interface{}{
			"jobKey": job.Key,
			"error":  err.Error(),
		})
		h.finish(ctx, start, "failed")
		return
	}
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	h.finish(ctx, start, "completed")
}

func (h *Handler) finish(ctx context.Context, start time.Time, status string) {
	elapsed := time.Since(start)
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.recorder.RecordJobProcessed(ctx, TaskType, status)
	h.recorder.RecordJobDuration(ctx, TaskType, elapsed, status)
}

// Execute maps the rows and OCR results to records, scores the batch and
// persists the report. Persistence failures are logged and reported in the
// output; they do not fail the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if n := len(input.Rows) + len(input.OCRResults); n > h.config.MaxRecords {
		return nil, errors.NewInvalidInputError("rows",
			fmt.Sprintf("batch holds %d records, limit is %d", n, h.config.MaxRecords))
	}

	items := buildItems(input)
	report := h.coordinator.Evaluate(ctx, input.BatchName, items)

	h.logger.Info("batch evaluated", map[string]interface{}{
		"batchId":       report.BatchID,
		"status":        report.Status,
		"recordsSeen":   report.RecordsSeen,
		"totalRecords":  report.TotalRecords,
		"failedRecords": report.FailedRecords,
		"averageScore":  report.AverageScore,
	})

	out := &Output{PortfolioReport: report}
	out.Persisted, out.IndexedResults = h.persist(ctx, report)

	if report.IsEmpty() && input.FailOnEmpty {
		return nil, errors.NewEmptyBatchError(report.RecordsSeen)
	}
	return out, nil
}

func (h *Handler) persist(ctx context.Context, report *models.PortfolioReport) (bool, int) {
	persisted := false
	if h.repository != nil {
		if err := h.repository.Save(ctx, report); err != nil {
			h.logPersistFailure("repository", report.BatchID, err)
		} else {
			persisted = true
		}
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, report); err != nil {
			h.logPersistFailure("cache", report.BatchID, err)
		}
	}

	indexed := 0
	if h.indexer != nil {
		n, err := h.indexer.IndexReport(ctx, report)
		if err != nil {
			h.logPersistFailure("index", report.BatchID, err)
		}
		indexed = n
	}
	return persisted, indexed
}

func (h *Handler) logPersistFailure(target, batchID string, err error) {
	h.logger.Warn("report persistence failed", map[string]interface{}{
		"target":    target,
		"batchId":   batchID,
		"errorCode": string(errors.CodeOf(err)),
		"error":     err.Error(),
	})
}

// buildItems keeps input order: rows first, then OCR results.
func buildItems(input *Input) []batch.Item {
	items := make([]batch.Item, 0, len(input.Rows)+len(input.OCRResults))
	for i, raw := range input.Rows {
		source := fmt.Sprintf("row-%d", i+1)
		rec, err := intake.FromRow(source, toRow(raw))
		name := rec.Name
		if err != nil {
			name = rowName(raw, source)
		}
		items = append(items, batch.Item{Name: name, Record: rec, Err: err})
	}
	for _, res := range input.OCRResults {
		rec, err := intake.FromOCR(res)
		items = append(items, batch.Item{Name: res.Source, Record: rec, Err: err})
	}
	return items
}

// toRow flattens JSON scalars to the strings intake expects. Nulls are
// dropped so the column default applies.
func toRow(raw map[string]interface{}) intake.Row {
	row := make(intake.Row, len(raw))
	for k, v := range raw {
		switch val := v.(type) {
		case nil:
		case string:
			row[k] = val
		case float64:
			row[k] = strconv.FormatFloat(val, 'f', -1, 64)
		case bool:
			row[k] = strconv.FormatBool(val)
		default:
			row[k] = fmt.Sprint(val)
		}
	}
	return row
}

func rowName(raw map[string]interface{}, fallback string) string {
	if name, ok := raw["name"].(string); ok && name != "" {
		return name
	}
	return fallback
}
