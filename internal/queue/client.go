package queue

import (
	"context"
	"strings"
	"time"

	"github.com/hibiken/asynq"

	"github.com/dunamismax/seamflow/internal/domain"
)

const (
	maxRetry    = 5
	baseTimeout = 2 * time.Minute
	stepTimeout = time.Minute
	maxTimeout  = 15 * time.Minute
	retention   = 24 * time.Hour
)

type Client struct {
	client *asynq.Client
	queue  string
}

func NewClient(redisOpt asynq.RedisClientOpt, queueName string) *Client {
	return &Client{
		client: asynq.NewClient(redisOpt),
		queue:  queueName,
	}
}

// EnqueueCarveImage schedules a job. The task id is the job id, so starting
// the same job twice is rejected by asynq with ErrTaskIDConflict.
func (c *Client) EnqueueCarveImage(ctx context.Context, payload CarveImagePayload) (*asynq.TaskInfo, error) {
	task, err := NewCarveImageTask(payload)
	if err != nil {
		return nil, err
	}
	return c.client.EnqueueContext(
		ctx,
		task,
		asynq.Queue(c.queue),
		asynq.TaskID(payload.JobID),
		asynq.MaxRetry(maxRetry),
		asynq.Timeout(TaskTimeout(payload.Pipeline)),
		asynq.Retention(retention),
	)
}

// TaskTimeout grows with the pipeline: every carve or seams step is a full
// seam extraction over the source. stepTimeout covers one extraction at the
// default carve limits (CARVE_MAX_SEAMS seams over CARVE_MAX_SOURCE_PIXELS).
func TaskTimeout(steps []domain.PipelineStep) time.Duration {
	timeout := baseTimeout
	for _, step := range steps {
		if !strings.EqualFold(strings.TrimSpace(step.Action), domain.ActionEnergy) {
			timeout += stepTimeout
		}
	}
	return min(timeout, maxTimeout)
}

func (c *Client) Close() error {
	return c.client.Close()
}
