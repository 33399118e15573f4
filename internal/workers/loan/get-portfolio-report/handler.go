package getportfolioreport

import (
	"context"
	"fmt"
	"strings"
	"time"

	"loan-risk-workers/internal/common/camunda"
	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/common/metrics"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "get-portfolio-report"

type Handler struct {
	config     *Config
	logger     logger.Logger
	repository ReportReader
	cache      ReportCache
	recorder   camunda.JobRecorder
	errors     *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Repository   ReportReader
	Cache        ReportCache
	Recorder     camunda.JobRecorder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Repository == nil {
		return nil, fmt.Errorf("%s requires a report repository", TaskType)
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
		config:     cfg,
		logger:     log,
		repository: opts.Repository,
		cache:      opts.Cache,
		recorder:   recorder,
		errors:     errors.NewErrorHandler(log),
	}, nil
}

func (h *Handler) Handle(client worker.JobClient, job entities.Job) {
	start := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

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

// Execute reads through the cache. A cache outage degrades to the
// repository; a repository hit is written back to the cache.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	batchID := strings.TrimSpace(input.BatchID)
	if batchID == "" {
		return nil, errors.NewInvalidInputError("batchId", "batchId is required")
	}

	if h.cache != nil {
		report, hit, err := h.cache.Get(ctx, batchID)
		if err != nil {
			h.logger.Warn("report cache unavailable", map[string]interface{}{
				"batchId": batchID,
				"error":   err.Error(),
			})
		} else if hit {
			h.logger.Debug("report served from cache", map[string]interface{}{"batchId": batchID})
			return &Output{PortfolioReport: report, Source: SourceCache}, nil
		}
	}

	report, err := h.repository.Get(ctx, batchID)
	if err != nil {
		return nil, err
	}

	if h.cache != nil {
		if err := h.cache.Set(ctx, report); err != nil {
			h.logger.Warn("failed to repopulate report cache", map[string]interface{}{
				"batchId": batchID,
				"error":   err.Error(),
			})
		}
	}
	return &Output{PortfolioReport: report, Source: SourceDatabase}, nil
}
