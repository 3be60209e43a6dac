package worker

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/dunamismax/seamflow/internal/config"
	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/pipeline"
	"github.com/dunamismax/seamflow/internal/queue"
	"github.com/dunamismax/seamflow/internal/storage"
	"github.com/dunamismax/seamflow/internal/store"
	"github.com/dunamismax/seamflow/internal/webhook"
	"github.com/hibiken/asynq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

type Server struct {
	logger          *log.Logger
	server          *asynq.Server
	sem             chan struct{}
	localProcessor  processor
	objectProcessor processor
	webhookClient   webhookSender
	jobStore        store.JobStore
	usageStore      store.UsageStore
	metrics         *metrics
	tracer          trace.Tracer
	lastAttempt     func(ctx context.Context) bool
}

type processor interface {
	Process(ctx context.Context, req pipeline.Request) (pipeline.Result, error)
}

type webhookSender interface {
	Send(ctx context.Context, endpoint, event string, payload any) error
}

// NewServer builds the queue consumer. A nil storage client limits the worker
// to local_file jobs.
func NewServer(
	logger *log.Logger,
	queueCfg config.QueueConfig,
	workerCfg config.WorkerConfig,
	limits pipeline.Limits,
	storageClient *storage.Client,
	webhookClient webhookSender,
	jobStore store.JobStore,
	usageStore store.UsageStore,
) (*Server, error) {
	localProcessor, err := pipeline.NewLocalProcessor(workerCfg.LocalOutputDir, limits)
	if err != nil {
		return nil, fmt.Errorf("initialize pipeline processor: %w", err)
	}

	var objectProcessor processor
	if storageClient != nil {
		objectProcessor, err = pipeline.NewObjectStoreProcessor(storageClient, "outputs", limits)
		if err != nil {
			return nil, fmt.Errorf("initialize object-store processor: %w", err)
		}
	}

	if usageStore == nil {
		if jobAndUsageStore, ok := jobStore.(store.UsageStore); ok {
			usageStore = jobAndUsageStore
		}
	}

	s := &Server{
		logger: logger,
		server: asynq.NewServer(
			queueCfg.RedisClientOpt(),
			asynq.Config{
				Concurrency: workerCfg.Concurrency,
				Queues: map[string]int{
					queueCfg.Name: 1,
				},
				LogLevel: asynq.InfoLevel,
				ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
					retried, _ := asynq.GetRetryCount(ctx)
					maxRetry, _ := asynq.GetMaxRetry(ctx)
					logger.Printf("task failed type=%s retry=%d/%d err=%v", task.Type(), retried, maxRetry, err)
				}),
			},
		),
		sem:             make(chan struct{}, max(1, workerCfg.MaxActiveJobs)),
		localProcessor:  localProcessor,
		objectProcessor: objectProcessor,
		webhookClient:   webhookClient,
		jobStore:        jobStore,
		usageStore:      usageStore,
		metrics:         newMetrics(),
		tracer:          otel.Tracer("seamflow/worker"),
		lastAttempt:     isLastAttempt,
	}
	return s, nil
}

func (s *Server) Run() error {
	mux := asynq.NewServeMux()
	mux.HandleFunc(queue.TypeCarveImage, s.handleCarveImage)
	return s.server.Run(mux)
}

func (s *Server) MetricsHandler() http.Handler {
	return s.metrics.Handler()
}

func (s *Server) handleCarveImage(ctx context.Context, task *asynq.Task) error {
	startedAt := time.Now()
	outcome := domain.JobStatusFailed

	payload, err := queue.ParseCarveImagePayload(task)
	if err != nil {
		return fmt.Errorf("parse payload: %v: %w", err, asynq.SkipRetry)
	}

	ctx, span := s.tracer.Start(ctx, "worker.carve_image", trace.WithSpanKind(trace.SpanKindConsumer))
	span.SetAttributes(
		attribute.String("job.id", payload.JobID),
		attribute.String("job.source_type", payload.SourceType),
		attribute.Int("job.pipeline_steps", len(payload.Pipeline)),
	)
	defer span.End()
	defer func() {
		s.metrics.jobDuration.WithLabelValues(payload.SourceType, outcome).Observe(time.Since(startedAt).Seconds())
		s.metrics.jobsTotal.WithLabelValues(payload.SourceType, outcome).Inc()
	}()

	select {
	case s.sem <- struct{}{}:
	case <-ctx.Done():
		return ctx.Err()
	}
	s.metrics.activeJobs.Inc()
	defer func() {
		<-s.sem
		s.metrics.activeJobs.Dec()
	}()

	s.logger.Printf(
		"Carving... job_id=%s source_type=%s steps=%d object_key=%s",
		payload.JobID,
		payload.SourceType,
		len(payload.Pipeline),
		payload.ObjectKey,
	)

	s.updateJobStatus(ctx, payload.JobID, domain.JobStatusProcessing)

	result, err := s.process(ctx, payload)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "pipeline failed")
		final := permanent(err)
		if !final && !s.isLastAttempt(ctx) {
			s.logger.Printf("carve attempt failed, will retry job_id=%s err=%v", payload.JobID, err)
			s.updateJobStatus(ctx, payload.JobID, domain.JobStatusQueued)
			return fmt.Errorf("run pipeline: %w", err)
		}

		// ctx may already be past its deadline.
		doneCtx := context.WithoutCancel(ctx)
		s.updateJobStatus(doneCtx, payload.JobID, domain.JobStatusFailed)
		_ = s.dispatchWebhook(doneCtx, payload, webhook.EventJobFailed, webhook.JobEvent{
			JobID:       payload.JobID,
			Status:      domain.JobStatusFailed,
			SourceType:  payload.SourceType,
			ObjectKey:   payload.ObjectKey,
			RequestedAt: payload.RequestedAt,
			FinishedAt:  time.Now().UTC(),
			Error:       err.Error(),
		})
		if final {
			return fmt.Errorf("run pipeline: %v: %w", err, asynq.SkipRetry)
		}
		return fmt.Errorf("run pipeline: %w", err)
	}

	s.logger.Printf(
		"Carved job_id=%s outputs=%d seams_removed=%d",
		payload.JobID,
		len(result.Outputs),
		result.SeamsRemoved(),
	)
	s.updateJobStatus(ctx, payload.JobID, domain.JobStatusSucceeded)
	s.metrics.observeOutputs(result.Outputs)
	s.recordUsage(ctx, payload, result, time.Since(startedAt))

	if err := s.dispatchWebhook(ctx, payload, webhook.EventJobCompleted, webhook.JobEvent{
		JobID:        payload.JobID,
		Status:       domain.JobStatusSucceeded,
		SourceType:   payload.SourceType,
		ObjectKey:    payload.ObjectKey,
		RequestedAt:  payload.RequestedAt,
		FinishedAt:   time.Now().UTC(),
		SeamsRemoved: result.SeamsRemoved(),
		Outputs:      result.Outputs,
	}); err != nil {
		// The outputs and usage are already recorded; a retry would redo both.
		span.RecordError(err)
	}

	outcome = domain.JobStatusSucceeded
	span.SetStatus(codes.Ok, "carved")
	return nil
}

func (s *Server) process(ctx context.Context, payload queue.CarveImagePayload) (pipeline.Result, error) {
	request := pipeline.Request{
		JobID:      payload.JobID,
		SourceType: payload.SourceType,
		ObjectKey:  payload.ObjectKey,
		Pipeline:   payload.Pipeline,
	}

	switch payload.SourceType {
	case domain.SourceTypeLocalFile:
		return s.localProcessor.Process(ctx, request)
	case domain.SourceTypeS3Presigned:
		if s.objectProcessor == nil {
			return pipeline.Result{}, fmt.Errorf("%w: object storage is disabled", pipeline.ErrUnsupportedSourceType)
		}
		return s.objectProcessor.Process(ctx, request)
	default:
		return pipeline.Result{}, fmt.Errorf("%w: %s", pipeline.ErrUnsupportedSourceType, payload.SourceType)
	}
}

// permanent reports errors a retry cannot fix. A job that ran out of time
// will run out of time again.
func permanent(err error) bool {
	return errors.Is(err, pipeline.ErrUnsupportedSourceType) ||
		errors.Is(err, pipeline.ErrInvalidStepAction) ||
		errors.Is(err, pipeline.ErrInvalidStep) ||
		errors.Is(err, pipeline.ErrSourceTooLarge) ||
		errors.Is(err, context.DeadlineExceeded)
}

func (s *Server) isLastAttempt(ctx context.Context) bool {
	if s.lastAttempt == nil {
		return isLastAttempt(ctx)
	}
	return s.lastAttempt(ctx)
}

// isLastAttempt reports whether asynq will archive the task if this attempt
// fails. Outside a task context every attempt is the last.
func isLastAttempt(ctx context.Context) bool {
	retried, ok := asynq.GetRetryCount(ctx)
	if !ok {
		return true
	}
	maxRetry, ok := asynq.GetMaxRetry(ctx)
	if !ok {
		return true
	}
	return retried >= maxRetry
}

func (s *Server) updateJobStatus(ctx context.Context, jobID, status string) {
	if s.jobStore == nil {
		return
	}
	if _, err := s.jobStore.UpdateStatus(ctx, jobID, status); err != nil {
		s.logger.Printf("job status update failed job_id=%s status=%s err=%v", jobID, status, err)
	}
}

func (s *Server) dispatchWebhook(ctx context.Context, payload queue.CarveImagePayload, event string, body webhook.JobEvent) error {
	if payload.WebhookURL == "" || s.webhookClient == nil {
		return nil
	}

	if err := s.webhookClient.Send(ctx, payload.WebhookURL, event, body); err != nil {
		s.logger.Printf("webhook delivery failed job_id=%s event=%s err=%v", payload.JobID, event, err)
		return fmt.Errorf("dispatch webhook: %w", err)
	}

	return nil
}

// recordUsage charges every step for a full pass over the source image.
func (s *Server) recordUsage(ctx context.Context, payload queue.CarveImagePayload, result pipeline.Result, computeDuration time.Duration) {
	if s.usageStore == nil {
		return
	}

	userID := strings.TrimSpace(payload.UserID)
	if userID == "" && s.jobStore != nil {
		job, ok, err := s.jobStore.Get(ctx, payload.JobID)
		if err != nil {
			s.logger.Printf("usage lookup failed job_id=%s err=%v", payload.JobID, err)
		} else if ok {
			userID = strings.TrimSpace(job.UserID)
		}
	}
	if userID == "" {
		userID = "anonymous"
	}

	pixelsProcessed := int64(result.SourceWidth) * int64(result.SourceHeight) * int64(len(result.Outputs))
	seamsRemoved := int64(result.SeamsRemoved())

	computeTimeMS := computeDuration.Milliseconds()
	if computeTimeMS < 1 {
		computeTimeMS = 1
	}

	usage := domain.UsageLog{
		UserID:          userID,
		JobID:           payload.JobID,
		PixelsProcessed: pixelsProcessed,
		SeamsRemoved:    seamsRemoved,
		ComputeTimeMS:   computeTimeMS,
		CreatedAt:       time.Now().UTC(),
	}
	if err := s.usageStore.CreateUsageLog(ctx, usage); err != nil {
		s.logger.Printf("usage log write failed job_id=%s err=%v", payload.JobID, err)
		return
	}

	s.metrics.pixelsProcessedTotal.Add(float64(pixelsProcessed))
	s.metrics.seamsRemovedTotal.Add(float64(seamsRemoved))
	s.metrics.computeTimeMSTotal.Add(float64(computeTimeMS))
}
