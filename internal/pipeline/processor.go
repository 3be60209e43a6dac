package pipeline

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
	"github.com/dunamismax/seamflow/internal/storage"
)

const SourceTypeLocalFile = domain.SourceTypeLocalFile

var (
	ErrUnsupportedSourceType = errors.New("unsupported source_type")
	ErrInvalidStepAction     = errors.New("invalid pipeline action")
	ErrInvalidStep           = errors.New("invalid pipeline step")
	ErrSourceTooLarge        = errors.New("source image too large")
)

type Request struct {
	JobID      string
	SourceType string
	ObjectKey  string
	Pipeline   []domain.PipelineStep
}

type Output struct {
	StepID       string `json:"step_id"`
	Action       string `json:"action"`
	Format       string `json:"format"`
	Path         string `json:"path"`
	Bytes        int    `json:"bytes"`
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	SeamsRemoved int    `json:"seams_removed,omitempty"`
	Success      bool   `json:"success"`
}

type Result struct {
	SourceBytes  int
	SourceWidth  int
	SourceHeight int
	Outputs      []Output
}

// SeamsRemoved totals the seams removed across carve outputs.
func (r Result) SeamsRemoved() int {
	total := 0
	for _, out := range r.Outputs {
		total += out.SeamsRemoved
	}
	return total
}

// Limits bound the work one request may cause. Zero disables a limit.
type Limits struct {
	MaxSourceBytes  int64
	MaxSourcePixels int
	MaxSeams        int
}

func (l Limits) checkPixels(width, height int) error {
	if l.MaxSourcePixels > 0 && width*height > l.MaxSourcePixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrSourceTooLarge, width, height, l.MaxSourcePixels)
	}
	return nil
}

type Fetcher interface {
	Fetch(ctx context.Context, req Request) ([]byte, error)
}

type Emitter interface {
	Emit(ctx context.Context, req Request, step domain.PipelineStep, art Artifact) (Output, error)
}

type Processor struct {
	fetcher     Fetcher
	transformer Transformer
	emitter     Emitter
	limits      Limits
	tracer      trace.Tracer
}

func NewProcessor(fetcher Fetcher, emitter Emitter, limits Limits) (*Processor, error) {
	if fetcher == nil || emitter == nil {
		return nil, errors.New("fetcher and emitter are required")
	}

	transformer, err := newTransformer(limits)
	if err != nil {
		return nil, fmt.Errorf("build transformer: %w", err)
	}

	return &Processor{
		fetcher:     fetcher,
		transformer: transformer,
		emitter:     emitter,
		limits:      limits,
		tracer:      otel.Tracer("seamflow/pipeline"),
	}, nil
}

func NewLocalProcessor(outputDir string, limits Limits) (*Processor, error) {
	return NewProcessor(LocalFileFetcher{MaxBytes: limits.MaxSourceBytes}, LocalFileEmitter{OutputDir: outputDir}, limits)
}

func NewObjectStoreProcessor(client *storage.Client, outputPrefix string, limits Limits) (*Processor, error) {
	if client == nil {
		return nil, errors.New("storage client is required")
	}
	return NewProcessor(
		ObjectStoreFetcher{Storage: client, MaxBytes: limits.MaxSourceBytes},
		ObjectStoreEmitter{Storage: client, OutputPrefix: outputPrefix},
		limits,
	)
}

func (p *Processor) Process(ctx context.Context, req Request) (Result, error) {
	if strings.TrimSpace(req.JobID) == "" {
		return Result{}, errors.New("job_id is required")
	}
	if len(req.Pipeline) == 0 {
		return Result{}, errors.New("pipeline must contain at least one step")
	}

	sourceBytes, err := p.fetcher.Fetch(ctx, req)
	if err != nil {
		return Result{}, fmt.Errorf("fetch stage: %w", err)
	}

	src, srcFormat, err := p.decode(ctx, sourceBytes)
	if err != nil {
		return Result{}, fmt.Errorf("decode stage: %w", err)
	}

	out := Result{
		SourceBytes:  len(sourceBytes),
		SourceWidth:  src.Width,
		SourceHeight: src.Height,
		Outputs:      make([]Output, 0, len(req.Pipeline)),
	}
	for _, step := range req.Pipeline {
		select {
		case <-ctx.Done():
			return Result{}, ctx.Err()
		default:
		}

		art, err := p.transform(ctx, src, srcFormat, step)
		if err != nil {
			return Result{}, fmt.Errorf("transform stage step=%s action=%s: %w", step.ID, step.Action, err)
		}

		written, err := p.emitter.Emit(ctx, req, step, art)
		if err != nil {
			return Result{}, fmt.Errorf("emit stage step=%s action=%s: %w", step.ID, step.Action, err)
		}
		out.Outputs = append(out.Outputs, written)
	}

	return out, nil
}

func (p *Processor) decode(ctx context.Context, data []byte) (raster.Buffer, string, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline.decode")
	defer span.End()

	// Formats the header reader does not know are left to the transformer.
	if w, h, _, err := raster.Dimensions(data); err == nil {
		if err := p.limits.checkPixels(w, h); err != nil {
			span.SetStatus(codes.Error, "source too large")
			return raster.Buffer{}, "", err
		}
	}

	src, format, err := p.transformer.Decode(ctx, data)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "decode failed")
		return raster.Buffer{}, "", err
	}
	span.SetAttributes(
		attribute.String("image.format", format),
		attribute.Int("image.width", src.Width),
		attribute.Int("image.height", src.Height),
	)

	if err := p.limits.checkPixels(src.Width, src.Height); err != nil {
		span.SetStatus(codes.Error, "source too large")
		return raster.Buffer{}, "", err
	}
	return src, format, nil
}

func (p *Processor) transform(ctx context.Context, src raster.Buffer, srcFormat string, step domain.PipelineStep) (Artifact, error) {
	ctx, span := p.tracer.Start(ctx, "pipeline."+strings.ToLower(strings.TrimSpace(step.Action)))
	span.SetAttributes(
		attribute.String("step.id", step.ID),
		attribute.Int("image.width", src.Width),
		attribute.Int("image.height", src.Height),
	)
	defer span.End()

	art, err := p.transformer.Transform(ctx, src, srcFormat, step)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "transform failed")
		return Artifact{}, err
	}
	span.SetAttributes(
		attribute.String("output.format", art.Format),
		attribute.Int("output.width", art.Width),
		attribute.Int("seams.removed", art.SeamsRemoved),
	)
	return art, nil
}

type LocalFileFetcher struct {
	MaxBytes int64
}

func (f LocalFileFetcher) Fetch(ctx context.Context, req Request) ([]byte, error) {
	if !strings.EqualFold(req.SourceType, SourceTypeLocalFile) {
		return nil, fmt.Errorf("%w: %s", ErrUnsupportedSourceType, req.SourceType)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	if f.MaxBytes > 0 {
		info, err := os.Stat(req.ObjectKey)
		if err != nil {
			return nil, fmt.Errorf("stat input file %s: %w", req.ObjectKey, err)
		}
		if info.Size() > f.MaxBytes {
			return nil, fmt.Errorf("%w: %s is %d bytes, limit %d", ErrSourceTooLarge, req.ObjectKey, info.Size(), f.MaxBytes)
		}
	}

	data, err := os.ReadFile(req.ObjectKey)
	if err != nil {
		return nil, fmt.Errorf("read input file %s: %w", req.ObjectKey, err)
	}
	return data, nil
}

type LocalFileEmitter struct {
	OutputDir string
}

func (e LocalFileEmitter) Emit(_ context.Context, req Request, step domain.PipelineStep, art Artifact) (Output, error) {
	if strings.TrimSpace(e.OutputDir) == "" {
		return Output{}, errors.New("output directory is required")
	}
	if strings.TrimSpace(step.ID) == "" {
		return Output{}, errors.New("pipeline step id is required")
	}

	jobDir := filepath.Join(e.OutputDir, storage.SanitizeToken(req.JobID))
	if err := os.MkdirAll(jobDir, 0o755); err != nil {
		return Output{}, fmt.Errorf("create output dir: %w", err)
	}

	filename := fmt.Sprintf("%s.%s", storage.SanitizeToken(step.ID), art.Format)
	fullPath := filepath.Join(jobDir, filename)
	if err := os.WriteFile(fullPath, art.Data, 0o644); err != nil {
		return Output{}, fmt.Errorf("write output file: %w", err)
	}

	return art.output(step, fullPath), nil
}
