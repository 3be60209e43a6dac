package pipeline

import (
	"context"
	"errors"

	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
)

type stdlibTransformer struct {
	limits Limits
}

func (t stdlibTransformer) Decode(ctx context.Context, input []byte) (raster.Buffer, string, error) {
	if err := ctx.Err(); err != nil {
		return raster.Buffer{}, "", err
	}
	return raster.Decode(input)
}

func (t stdlibTransformer) Transform(ctx context.Context, src raster.Buffer, srcFormat string, step domain.PipelineStep) (Artifact, error) {
	if err := ctx.Err(); err != nil {
		return Artifact{}, err
	}

	out, err := render(ctx, src, step, t.limits)
	if err != nil {
		return Artifact{}, err
	}

	if out.doc != nil {
		data, err := encodeDocument(out.doc)
		if err != nil {
			return Artifact{}, err
		}
		return Artifact{Data: data, Format: "json", Width: out.width, Height: out.height, SeamsRemoved: out.seams}, nil
	}

	format := formatForStep(step.Format, srcFormat, false)
	if format == "webp" {
		return Artifact{}, errors.New("webp export requires govips build tag")
	}
	data, err := raster.Encode(out.img, format, step.Quality)
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Data: data, Format: format, Width: out.width, Height: out.height, SeamsRemoved: out.seams}, nil
}
