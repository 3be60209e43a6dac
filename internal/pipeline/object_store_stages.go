package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
	"github.com/dunamismax/seamflow/internal/storage"
)

// ObjectStoreFetcher reads presigned uploads back from the bucket.
type ObjectStoreFetcher struct {
	Storage  *storage.Client
	MaxBytes int64
}

func (f ObjectStoreFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if f.Storage == nil {
		return nil, errors.New("storage client is required")
	}
	if !strings.EqualFold(req.SourceType, domain.SourceTypeS3Presigned) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	data, err := f.Storage.ReadObject(ctx, req.ObjectKey, f.MaxBytes)
	if errors.Is(err, storage.ErrObjectTooLarge) {
		return nil, fmt.Errorf("%w: %v", ErrSourceTooLarge, err)
	}
	return data, err
}

// ObjectStoreEmitter writes each step output under OutputPrefix/<job>/<step>.<ext>
// and tags it with the step that produced it.
type ObjectStoreEmitter struct {
	Storage      *storage.Client
	OutputPrefix string
}

func (e ObjectStoreEmitter) Emit(ctx context.Context, req Request, step domain.PipelineStep, art Artifact) (Output, error) {
	if e.Storage == nil {
		return Output{}, errors.New("storage client is required")
	}
	if strings.TrimSpace(step.ID) == "" {
		return Output{}, errors.New("pipeline step id is required")
	}

	objectKey := storage.OutputKey(e.OutputPrefix, req.JobID, step.ID, art.Format)
	if err := e.Storage.WriteObject(ctx, objectKey, art.Data, raster.ContentType(art.Format), objectMetadata(req, step, art)); err != nil {
		return Output{}, err
	}

	return art.output(step, objectKey), nil
}

func objectMetadata(req Request, step domain.PipelineStep, art Artifact) map[string]string {
	return map[string]string{
		"job-id":        req.JobID,
		"step-id":       step.ID,
		"action":        strings.ToLower(strings.TrimSpace(step.Action)),
		"width":         strconv.Itoa(art.Width),
		"height":        strconv.Itoa(art.Height),
		"seams-removed": strconv.Itoa(art.SeamsRemoved),
	}
}
