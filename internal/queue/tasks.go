package queue

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/hibiken/asynq"
)

const TypeCarveImage = "seam:carve"

type CarveImagePayload struct {
	JobID       string                `json:"job_id"`
	UserID      string                `json:"user_id,omitempty"`
	SourceType  string                `json:"source_type"`
	WebhookURL  string                `json:"webhook_url,omitempty"`
	ObjectKey   string                `json:"object_key"`
	Pipeline    []domain.PipelineStep `json:"pipeline"`
	RequestedAt time.Time             `json:"requested_at"`
}

func NewCarveImageTask(payload CarveImagePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal carve payload: %w", err)
	}
	return asynq.NewTask(TypeCarveImage, body), nil
}

func ParseCarveImagePayload(task *asynq.Task) (CarveImagePayload, error) {
	var payload CarveImagePayload
	if err := json.Unmarshal(task.Payload(), &payload); err != nil {
		return CarveImagePayload{}, fmt.Errorf("unmarshal carve payload: %w", err)
	}
	if payload.JobID == "" {
		return CarveImagePayload{}, fmt.Errorf("carve payload is missing job_id")
	}
	return payload, nil
}
