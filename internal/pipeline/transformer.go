package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"image"
	"strings"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
	"github.com/dunamismax/seamflow/internal/seam"
)

type Transformer interface {
	Decode(ctx context.Context, input []byte) (raster.Buffer, string, error)
	Transform(ctx context.Context, src raster.Buffer, srcFormat string, step domain.PipelineStep) (Artifact, error)
}

// Artifact is one encoded step output.
type Artifact struct {
	Data         []byte
	Format       string
	Width        int
	Height       int
	SeamsRemoved int
}

func (a Artifact) output(step domain.PipelineStep, path string) Output {
	return Output{
		StepID:       step.ID,
		Action:       step.Action,
		Format:       a.Format,
		Path:         path,
		Bytes:        len(a.Data),
		Width:        a.Width,
		Height:       a.Height,
		SeamsRemoved: a.SeamsRemoved,
		Success:      true,
	}
}

// rendered is a step result before encoding: either an image or a JSON
// document.
type rendered struct {
	img    image.Image
	doc    any
	width  int
	height int
	seams  int
}

func render(ctx context.Context, src raster.Buffer, step domain.PipelineStep, limits Limits) (rendered, error) {
	if err := step.Validate(); err != nil {
		return rendered{}, fmt.Errorf("%w: %v", ErrInvalidStep, err)
	}
	wantJSON := strings.EqualFold(strings.TrimSpace(step.Format), "json")

	switch strings.ToLower(strings.TrimSpace(step.Action)) {
	case domain.ActionCarve:
		n, err := step.SeamCount(src.Width)
		if err != nil {
			return rendered{}, fmt.Errorf("%w: %v", ErrInvalidStep, err)
		}
		seams, err := extractSeams(ctx, src, n, limits)
		if err != nil {
			return rendered{}, err
		}
		if wantJSON {
			return rendered{
				doc:    raster.SeamSet{Width: src.Width, Height: src.Height, Seams: seams},
				width:  src.Width - n,
				height: src.Height,
				seams:  n,
			}, nil
		}
		out, err := raster.RemoveSeams(src, seams)
		if err != nil {
			return rendered{}, fmt.Errorf("remove seams: %w", err)
		}
		return rendered{img: out.Image(), width: out.Width, height: out.Height, seams: n}, nil

	case domain.ActionEnergy:
		if wantJSON {
			return rendered{}, fmt.Errorf("%w: energy maps are images, json output is not supported", ErrInvalidStep)
		}
		field := src.Energy()
		if strings.EqualFold(strings.TrimSpace(step.Stage), domain.EnergyStageCumulative) {
			field = seam.MinVertEnergy(field, src.Width, src.Height)
		}
		img, err := raster.EnergyImage(field, src.Width, src.Height)
		if err != nil {
			return rendered{}, err
		}
		return rendered{img: img, width: src.Width, height: src.Height}, nil

	case domain.ActionSeams:
		seams, err := extractSeams(ctx, src, src.Width, limits)
		if err != nil {
			return rendered{}, err
		}
		if wantJSON {
			return rendered{
				doc:    raster.SeamSet{Width: src.Width, Height: src.Height, Seams: seams},
				width:  src.Width,
				height: src.Height,
			}, nil
		}
		img, err := raster.SeamRankImage(seams, src.Width, src.Height)
		if err != nil {
			return rendered{}, err
		}
		return rendered{img: img, width: src.Width, height: src.Height}, nil

	default:
		return rendered{}, fmt.Errorf("%w: %q", ErrInvalidStepAction, step.Action)
	}
}

// extractSeams finds n seams in removal order, enforcing the seam limit.
func extractSeams(ctx context.Context, src raster.Buffer, n int, limits Limits) ([]seam.Seam, error) {
	if limits.MaxSeams > 0 && n > limits.MaxSeams {
		return nil, fmt.Errorf("%w: %d seams exceeds limit %d", ErrInvalidStep, n, limits.MaxSeams)
	}
	seams, err := raster.Seams(ctx, src, n, nil)
	if err != nil {
		return nil, fmt.Errorf("extract seams: %w", err)
	}
	return seams, nil
}

func encodeDocument(doc any) ([]byte, error) {
	data, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("encode json: %w", err)
	}
	return data, nil
}

// formatForStep picks the output format: the step's own, else the source's
// when it can be written back, else png.
func formatForStep(stepFormat, srcFormat string, webp bool) string {
	if strings.TrimSpace(stepFormat) != "" {
		return raster.NormalizeFormat(stepFormat)
	}
	switch format := raster.NormalizeFormat(srcFormat); format {
	case "webp":
		if webp {
			return format
		}
		return "png"
	case "json":
		return "png"
	default:
		return format
	}
}
