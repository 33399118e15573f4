package explainloandecision

import (
	"context"
	"fmt"
	"time"

	"loan-risk-workers/internal/common/camunda"
	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/common/metrics"
	"loan-risk-workers/internal/explain"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
)

const TaskType = "explain-loan-decision"

type Handler struct {
	config   *Config
	logger   logger.Logger
	recorder camunda.JobRecorder
	errors   *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Recorder     camunda.JobRecorder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
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

// Execute explains the decision and attaches the loan-to-income screen for
// the same inputs.
func (h *Handler) Execute(_ context.Context, input *Input) (*Output, error) {
	explanation, err := explain.Explain(*input)
	if err != nil {
		return nil, err
	}
	screen := explain.Screen(input.Salary, input.LoanAmount, input.CreditScore, input.TenureMonths)

	h.logger.Debug("decision explained", map[string]interface{}{
		"approved":  input.Approved,
		"reasons":   len(explanation.Reasons),
		"riskLevel": screen.Level,
	})
	return &Output{Explanation: explanation, Risk: screen}, nil
}
