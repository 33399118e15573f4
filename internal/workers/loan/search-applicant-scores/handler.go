package searchapplicantscores

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
	"loan-risk-workers/internal/models"
	"loan-risk-workers/internal/store"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "search-applicant-scores"

type Handler struct {
	config   *Config
	logger   logger.Logger
	searcher Searcher
	recorder camunda.JobRecorder
	errors   *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Searcher     Searcher
	Recorder     camunda.JobRecorder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Searcher == nil {
		return nil, fmt.Errorf("%s requires a score searcher", TaskType)
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
		config:   cfg,
		logger:   log,
		searcher: opts.Searcher,
		recorder: recorder,
		errors:   errors.NewErrorHandler(log),
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

func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	q, err := toQuery(input)
	if err != nil {
		return nil, err
	}

	res, err := h.searcher.Search(ctx, q)
	if err != nil {
		if ctx.Err() == context.DeadlineExceeded {
			return nil, errors.NewTimeoutError("elasticsearch", err)
		}
		return nil, err
	}

	h.logger.Debug("score search", map[string]interface{}{
		"batchId":   q.BatchID,
		"band":      q.Band,
		"totalHits": res.Total,
		"returned":  len(res.Documents),
	})
	return &Output{Results: res.Documents, TotalHits: res.Total, Took: res.Took}, nil
}

func toQuery(input *Input) (store.ScoreQuery, error) {
	q := store.ScoreQuery{
		BatchID:   strings.TrimSpace(input.BatchID),
		Applicant: strings.TrimSpace(input.Applicant),
		MinScore:  input.MinScore,
		MaxScore:  input.MaxScore,
		From:      input.Pagination.From,
		Size:      input.Pagination.Size,
	}

	if input.Band != "" {
		band := models.Status(strings.ToUpper(strings.TrimSpace(input.Band)))
		switch band {
		case models.StatusPass, models.StatusWarn, models.StatusFail:
			q.Band = band
		default:
			return q, errors.NewInvalidInputError("band", fmt.Sprintf("unknown band %q", input.Band))
		}
	}

	if q.MinScore != nil && q.MaxScore != nil && *q.MinScore > *q.MaxScore {
		return q, errors.NewInvalidInputError("minScore", "minScore is greater than maxScore")
	}
	return q, nil
}
