package assessloanapplication

import (
	"context"
	"fmt"
	"time"

	"loan-risk-workers/internal/common/camunda"
	"loan-risk-workers/internal/common/config"
	"loan-risk-workers/internal/common/errors"
	"loan-risk-workers/internal/common/logger"
	"loan-risk-workers/internal/common/metrics"
	"loan-risk-workers/internal/common/observability"
	"loan-risk-workers/internal/common/validation"
	"loan-risk-workers/internal/explain"
	"loan-risk-workers/internal/predictor"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

const TaskType = "assess-loan-application"

var inputSchema = validation.MustCompile(`{
  "$schema": "http://json-schema.org/draft-07/schema#",
  "type": "object",
  "required": ["creditScore", "loanAmount", "tenure"],
  "properties": {
    "creditScore": {"type": "integer", "minimum": 300, "maximum": 900},
    "loanAmount":  {"type": "number", "exclusiveMinimum": 0},
    "tenure":      {"type": "integer", "minimum": 1},
    "salary":      {"type": ["number", "null"]}
  }
}`)

type Handler struct {
	config    *Config
	logger    logger.Logger
	gate      Gate
	predictor Predictor
	recorder  camunda.JobRecorder
	errors    *errors.ErrorHandler
}

type HandlerOptions struct {
	AppConfig    *config.Config
	CustomConfig *Config
	Gate         Gate
	Predictor    Predictor
	Recorder     camunda.JobRecorder
	Logger       logger.Logger
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	cfg := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", TaskType, err)
	}
	if opts.Gate == nil || opts.Predictor == nil {
		return nil, fmt.Errorf("%s requires an access gate and a predictor", TaskType)
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
		gate:      opts.Gate,
		predictor: opts.Predictor,
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

// Execute runs the single-application pipeline: access gate, salary
// resolution, external prediction, risk screen and explanation.
func (h *Handler) Execute(ctx context.Context, input *Input) (*Output, error) {
	ctx, span := observability.StartSpan(ctx, "loan.assess_application",
		attribute.String("applicant", input.Applicant),
	)
	defer span.End()

	out, err := h.assess(ctx, input)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, string(errors.CodeOf(err)))
		return nil, err
	}
	span.SetAttributes(
		attribute.Bool("approved", out.Prediction.Approved),
		attribute.String("risk_level", string(out.Risk.Level)),
	)
	return out, nil
}

func (h *Handler) assess(ctx context.Context, input *Input) (*Output, error) {
	if err := h.gate.Allow(ctx, input.Token); err != nil {
		h.logger.Warn("access denied", map[string]interface{}{
			"applicant": input.Applicant,
			"errorCode": string(errors.CodeOf(err)),
		})
		return nil, err
	}

	res, err := inputSchema.Validate(input)
	if err != nil {
		return nil, err
	}
	if err := res.Err(); err != nil {
		return nil, err
	}

	salary, source, err := resolveSalary(input)
	if err != nil {
		return nil, err
	}

	applicant := input.Applicant
	if applicant == "" && input.OCR != nil {
		applicant = input.OCR.Source
	}

	prediction, err := h.predictor.Predict(ctx, predictor.Features{
		Salary:       salary,
		CreditScore:  input.CreditScore,
		LoanAmount:   input.LoanAmount,
		TenureMonths: input.TenureMonths,
	})
	if err != nil {
		return nil, err
	}

	screen := explain.Screen(salary, input.LoanAmount, input.CreditScore, input.TenureMonths)

	explanation, err := explain.Explain(explain.Input{
		Salary:       salary,
		CreditScore:  input.CreditScore,
		LoanAmount:   input.LoanAmount,
		TenureMonths: input.TenureMonths,
		Approved:     prediction.Approved,
	})
	if err != nil {
		return nil, err
	}

	h.logger.Info("application assessed", map[string]interface{}{
		"applicant":    applicant,
		"salarySource": source,
		"approved":     prediction.Approved,
		"riskLevel":    screen.Level,
	})

	return &Output{
		Applicant:    applicant,
		Salary:       salary,
		SalarySource: source,
		Prediction:   prediction,
		Risk:         screen,
		Explanation:  explanation,
	}, nil
}

// resolveSalary prefers the OCR salary over the declared one.
func resolveSalary(input *Input) (float64, string, error) {
	var salary float64
	var source string
	switch {
	case input.OCR != nil && input.OCR.Salary != nil:
		salary, source = *input.OCR.Salary, SalarySourceOCR
	case input.Salary != nil:
		salary, source = *input.Salary, SalarySourceDeclared
	case input.OCR != nil:
		return 0, "", errors.NewSalaryNotDetectedError(input.OCR.Source)
	default:
		return 0, "", errors.NewSalaryNotDetectedError(input.Applicant)
	}

	if salary <= 0 {
		return 0, "", errors.NewInvalidInputError("salary", fmt.Sprintf("must be positive, got %v", salary))
	}
	return salary, source, nil
}
