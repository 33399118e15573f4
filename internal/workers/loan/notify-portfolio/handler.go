package notifyportfolio

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

const TaskType = "notify-portfolio"

type Handler struct {
	config    *Config
	logger    logger.Logger
	mailer    Mailer
	publisher Publisher
	recorder  camunda.JobRecorder
	errors    *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Mailer       Mailer
	Publisher    Publisher
	Recorder     camunda.JobRecorder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if cfg.EmailEnabled && opts.Mailer == nil {
		return nil, fmt.Errorf("%s: email enabled without a mailer", TaskType)
	}
	if cfg.TopicEnabled && opts.Publisher == nil {
		return nil, fmt.Errorf("%s: topic enabled without a publisher", TaskType)
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
		config:    cfg,
		logger:    log,
		mailer:    opts.Mailer,
		publisher: opts.Publisher,
		recorder:  recorder,
		errors:    errors.NewErrorHandler(log),
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

// Execute sends the report summary on every enabled channel. The first
// failing channel fails the job.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	if strings.TrimSpace(input.BatchID) == "" {
		return nil, errors.NewInvalidInputError("batchId", "batchId is required")
	}
	if input.Status == "" {
		return nil, errors.NewInvalidInputError("status", "status is required")
	}

	out := &Output{NotificationStatus: StatusSkipped, Channels: []string{}}
	subj, text := subject(input), body(input)

	if h.config.EmailEnabled {
		id, err := h.mailer.SendText(ctx, h.config.FromEmail, h.config.Recipients, subj, text)
		if err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelEmail, err)
		}
		out.EmailMessageID = id
		out.Channels = append(out.Channels, ChannelEmail)
	}

	if h.config.TopicEnabled {
		attrs := map[string]string{
			"batchId": input.BatchID,
			"status":  string(input.Status),
		}
		id, err := h.publisher.PublishToTopic(ctx, h.config.TopicARN, subj, text, attrs)
		if err != nil {
			return nil, errors.NewNotificationSendFailedError(ChannelTopic, err)
		}
		out.TopicMessageID = id
		out.Channels = append(out.Channels, ChannelTopic)
	}

	if len(out.Channels) > 0 {
		out.NotificationStatus = StatusSent
	}
	h.logger.Info("portfolio notification processed", map[string]interface{}{
		"batchId":  input.BatchID,
		"status":   out.NotificationStatus,
		"channels": out.Channels,
	})
	return out, nil
}
