package crmleadcreate

import (
	"context"
	"fmt"
	"time"

	"lead-crm/internal/common/camunda"
	"lead-crm/internal/common/config"
	"lead-crm/internal/common/errors"
	"lead-crm/internal/common/logger"
	"lead-crm/internal/common/metrics"
	"lead-crm/internal/common/observability"
	"lead-crm/internal/leads/service"
	"lead-crm/internal/models"

	"github.com/camunda/zeebe/clients/go/v8/pkg/entities"
	"github.com/camunda/zeebe/clients/go/v8/pkg/worker"
	"github.com/camunda/zeebe/clients/go/v8/pkg/zbc"
)

const TaskType = "crm.lead.create"

type Handler struct {
	config        *Config
	logger        logger.Logger
	camunda       *camunda.Client
	creator       LeadCreator
	errorHandler  *errors.ErrorHandler
	observability *observability.Observability
}

type HandlerOptions struct {
	AppConfig     *config.Config
	Camunda       *camunda.Client
	CustomConfig  *Config
	Creator       LeadCreator
	Logger        logger.Logger
	Observability *observability.Observability
}

func NewHandler(opts HandlerOptions) (*Handler, error) {
	workerConfig := createConfigFromAppConfig(opts.AppConfig, opts.CustomConfig)

	if err := workerConfig.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration for %s: %w", ConfigKey, err)
	}
	if opts.Creator == nil {
		return nil, fmt.Errorf("lead creator is required for %s", ConfigKey)
	}

	loggerInstance := opts.Logger
	if loggerInstance == nil {
		loggerInstance = logger.NewStructured("info", "json")
	}
	loggerInstance = loggerInstance.WithFields(map[string]interface{}{"worker": TaskType})

	return &Handler{
		config:        workerConfig,
		logger:        loggerInstance,
		camunda:       opts.Camunda,
		creator:       opts.Creator,
		errorHandler:  errors.NewErrorHandler(loggerInstance),
		observability: opts.Observability,
	}, nil
}

// Handle creates a lead from the job variables and completes the job with the result.
func (h *Handler) Handle(client worker.JobClient, job entities.Job) error {
	startTime := time.Now()
	metrics.WorkerJobsActive.WithLabelValues(TaskType).Inc()
	defer metrics.WorkerJobsActive.WithLabelValues(TaskType).Dec()

	ctx, cancel := context.WithTimeout(context.Background(), h.config.Timeout)
	defer cancel()

	h.logger.Info("Processing lead create request", map[string]interface{}{
		"jobKey":             job.GetKey(),
		"processInstanceKey": job.GetProcessInstanceKey(),
	})

	output, err := h.process(ctx, job)
	if err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		h.observability.RecordJobProcessed(ctx, "failed")
		h.errorHandler.HandleJobError(ctx, client, job, err)
		return err
	}

	if err := h.completeJob(ctx, client, job, output); err != nil {
		metrics.WorkerJobsFailed.WithLabelValues(TaskType, extractErrorCode(err)).Inc()
		return err
	}

	elapsed := time.Since(startTime)
	metrics.WorkerJobsCompleted.WithLabelValues(TaskType).Inc()
	metrics.WorkerJobDuration.WithLabelValues(TaskType).Observe(elapsed.Seconds())
	h.observability.RecordJobProcessed(ctx, "completed")
	h.observability.RecordJobDuration(ctx, elapsed, "completed")
	return nil
}

func (h *Handler) process(ctx context.Context, job entities.Job) (*Output, error) {
	if !h.config.Enabled {
		h.logger.Info("Worker disabled by configuration", nil)
		return &Output{Success: false, Message: "Lead creation disabled"}, nil
	}

	input, err := parseInput(job)
	if err != nil {
		return nil, err
	}

	lead, err := h.creator.Create(service.WithChannel(ctx, service.ChannelWorkflow), *input)
	if err != nil {
		return nil, err
	}

	return &Output{
		Success:    true,
		Message:    "Lead created successfully",
		LeadID:     lead.ID,
		Status:     lead.Status,
		AssignedTo: lead.AssignedTo,
	}, nil
}

func parseInput(job entities.Job) (*models.CreateLeadRequest, error) {
	var input models.CreateLeadRequest
	if err := job.GetVariablesAs(&input); err != nil {
		return nil, errors.NewInvalidRequestBodyError(err)
	}
	return &input, nil
}

func (h *Handler) completeJob(ctx context.Context, client worker.JobClient, job entities.Job, output *Output) error {
	send := func(ctx context.Context) (interface{}, error) {
		request, err := client.NewCompleteJobCommand().JobKey(job.GetKey()).VariablesFromMap(output.Variables())
		if err != nil {
			return nil, err
		}
		return request.Send(ctx)
	}

	var err error
	if h.camunda != nil {
		_, err = h.camunda.ExecuteWithRetry(ctx, send, "complete-job")
	} else {
		_, err = send(ctx)
	}
	if err != nil {
		h.logger.Error("Failed to complete job", map[string]interface{}{
			"jobKey": job.GetKey(),
			"error":  err.Error(),
		})
		return err
	}

	h.logger.Info("Successfully completed lead create", map[string]interface{}{
		"jobKey":  job.GetKey(),
		"success": output.Success,
		"leadId":  output.LeadID,
	})
	return nil
}

// Register subscribes the handler to its task type. Nil is returned when the
// worker is disabled.
func (h *Handler) Register(client zbc.Client) *camunda.CamundaWorker {
	if !h.config.Enabled {
		h.logger.Info("Worker is disabled, skipping registration", nil)
		return nil
	}
	return camunda.NewWorker(client, camunda.WorkerOptions{
		TaskType:      TaskType,
		MaxJobsActive: h.config.MaxJobsActive,
		Timeout:       h.config.Timeout,
	}, h, h.logger)
}

func (h *Handler) GetTaskType() string {
	return TaskType
}

func (h *Handler) IsEnabled() bool {
	return h.config.Enabled
}

func (h *Handler) GetConfig() *Config {
	return h.config
}

func extractErrorCode(err error) string {
	if stdErr, ok := errors.AsStandardError(err); ok {
		return string(stdErr.Code)
	}
	return "UNKNOWN_ERROR"
}
