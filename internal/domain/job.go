package domain

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	JobStatusCreated    = "created"
	JobStatusQueued     = "queued"
	JobStatusProcessing = "processing"
	JobStatusSucceeded  = "succeeded"
	JobStatusFailed     = "failed"

	SourceTypeLocalFile   = "local_file"
	SourceTypeS3Presigned = "s3_presigned"

	ActionCarve  = "carve"
	ActionEnergy = "energy"
	ActionSeams  = "seams"

	EnergyStageEdge       = "edge"
	EnergyStageCumulative = "cumulative"
)

type CreateJobRequest struct {
	SourceType string         `json:"source_type"`
	WebhookURL string         `json:"webhook_url,omitempty"`
	ObjectKey  string         `json:"object_key,omitempty"`
	UserID     string         `json:"user_id,omitempty"`
	Pipeline   []PipelineStep `json:"pipeline"`
}

// PipelineStep is one output of a job. Carve steps take either a target
// Width or a number of Seams to remove.
type PipelineStep struct {
	ID      string `json:"id"`
	Action  string `json:"action"`
	Width   int    `json:"width,omitempty"`
	Seams   int    `json:"seams,omitempty"`
	Stage   string `json:"stage,omitempty"`
	Format  string `json:"format,omitempty"`
	Quality int    `json:"quality,omitempty"`
}

type Job struct {
	ID         string
	UserID     string
	Status     string
	SourceType string
	WebhookURL string
	Pipeline   []PipelineStep
	ObjectKey  string
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (r CreateJobRequest) Validate() error {
	sourceType := strings.ToLower(strings.TrimSpace(r.SourceType))
	if sourceType == "" {
		return errors.New("source_type is required")
	}
	if sourceType != SourceTypeLocalFile && sourceType != SourceTypeS3Presigned {
		return fmt.Errorf("unsupported source_type: %s", r.SourceType)
	}
	if sourceType == SourceTypeLocalFile && strings.TrimSpace(r.ObjectKey) == "" {
		return errors.New("object_key is required for source_type=local_file")
	}
	if len(r.Pipeline) == 0 {
		return errors.New("pipeline must contain at least one step")
	}
	seen := make(map[string]bool, len(r.Pipeline))
	for i, step := range r.Pipeline {
		if strings.TrimSpace(step.ID) == "" {
			return fmt.Errorf("pipeline[%d].id is required", i)
		}
		if seen[step.ID] {
			return fmt.Errorf("pipeline[%d].id %q is duplicated", i, step.ID)
		}
		seen[step.ID] = true
		if err := step.Validate(); err != nil {
			return fmt.Errorf("pipeline[%d]: %w", i, err)
		}
	}
	return nil
}

// Validate checks the step against its action. Bounds that depend on the
// source image are checked when the step runs.
func (s PipelineStep) Validate() error {
	switch strings.ToLower(strings.TrimSpace(s.Action)) {
	case "":
		return errors.New("action is required")
	case ActionCarve:
		if s.Width < 0 || s.Seams < 0 {
			return errors.New("carve width and seams must not be negative")
		}
		if (s.Width > 0) == (s.Seams > 0) {
			return errors.New("carve requires exactly one of width or seams")
		}
	case ActionEnergy:
		switch strings.ToLower(strings.TrimSpace(s.Stage)) {
		case "", EnergyStageEdge, EnergyStageCumulative:
		default:
			return fmt.Errorf("unsupported energy stage: %s", s.Stage)
		}
	case ActionSeams:
	default:
		return fmt.Errorf("unsupported action: %s", s.Action)
	}
	if s.Quality < 0 || s.Quality > 100 {
		return errors.New("quality must be between 0 and 100")
	}
	return nil
}

// SeamCount resolves how many seams a carve step removes from an image of the
// given width.
func (s PipelineStep) SeamCount(sourceWidth int) (int, error) {
	n := s.Seams
	if s.Width > 0 {
		if s.Width > sourceWidth {
			return 0, fmt.Errorf("target width %d exceeds source width %d", s.Width, sourceWidth)
		}
		n = sourceWidth - s.Width
	}
	if n >= sourceWidth {
		return 0, fmt.Errorf("cannot remove %d seams from width %d", n, sourceWidth)
	}
	return n, nil
}
