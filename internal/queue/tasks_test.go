package queue

import (
	"testing"
	"time"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/hibiken/asynq"
)

func TestCarveImageTaskRoundTrip(t *testing.T) {
	payload := CarveImagePayload{
		JobID:      "job-123",
		UserID:     "user-9",
		SourceType: "s3_presigned",
		ObjectKey:  "uploads/job-123/source",
		Pipeline: []domain.PipelineStep{
			{
				ID:     "narrow",
				Action: domain.ActionCarve,
				Seams:  12,
			},
		},
		RequestedAt: time.Now().UTC(),
	}

	task, err := NewCarveImageTask(payload)
	if err != nil {
		t.Fatalf("NewCarveImageTask returned error: %v", err)
	}
	if task.Type() != TypeCarveImage {
		t.Fatalf("expected task type %q, got %q", TypeCarveImage, task.Type())
	}

	parsed, err := ParseCarveImagePayload(task)
	if err != nil {
		t.Fatalf("ParseCarveImagePayload returned error: %v", err)
	}

	if parsed.JobID != payload.JobID || parsed.UserID != payload.UserID {
		t.Fatalf("expected job %q/%q, got %q/%q", payload.JobID, payload.UserID, parsed.JobID, parsed.UserID)
	}
	if len(parsed.Pipeline) != 1 || parsed.Pipeline[0].Seams != 12 {
		t.Fatalf("expected one carve step with 12 seams, got %+v", parsed.Pipeline)
	}
}

func TestParseCarveImagePayloadRejectsMissingJob(t *testing.T) {
	if _, err := ParseCarveImagePayload(asynq.NewTask(TypeCarveImage, []byte(`{"source_type":"local_file"}`))); err == nil {
		t.Fatal("expected error for payload without job_id")
	}
	if _, err := ParseCarveImagePayload(asynq.NewTask(TypeCarveImage, []byte(`{`))); err == nil {
		t.Fatal("expected error for malformed payload")
	}
}

func TestTaskTimeout(t *testing.T) {
	cases := []struct {
		steps []domain.PipelineStep
		want  time.Duration
	}{
		{nil, 2 * time.Minute},
		{[]domain.PipelineStep{{Action: domain.ActionEnergy}}, 2 * time.Minute},
		{[]domain.PipelineStep{{Action: domain.ActionCarve}, {Action: domain.ActionSeams}}, 4 * time.Minute},
		{[]domain.PipelineStep{{Action: "ENERGY"}, {Action: " Energy "}}, 2 * time.Minute},
		{make([]domain.PipelineStep, 40), 15 * time.Minute},
	}
	for _, tc := range cases {
		if got := TaskTimeout(tc.steps); got != tc.want {
			t.Fatalf("TaskTimeout(%d steps) = %s, want %s", len(tc.steps), got, tc.want)
		}
	}
}
