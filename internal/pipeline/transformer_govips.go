//go:build govips && cgo

package pipeline

import (
	"context"
	"fmt"

	"github.com/davidbyttow/govips/v2/vips"
	"github.com/dunamismax/seamflow/internal/domain"
	"github.com/dunamismax/seamflow/internal/raster"
)

// govipsTransformer decodes and encodes through libvips, which adds HEIF input,
// WebP output and EXIF orientation. Carving is the same code as the stdlib path.
type govipsTransformer struct {
	limits Limits
}

func (t govipsTransformer) Decode(ctx context.Context, input []byte) (raster.Buffer, string, error) {
	if err := ctx.Err(); err != nil {
		return raster.Buffer{}, "", err
	}

	img, err := vips.NewImageFromBuffer(input)
	if err != nil {
		return raster.Buffer{}, "", fmt.Errorf("decode source image: %w", err)
	}
	defer img.Close()

	if err := t.limits.checkPixels(img.Width(), img.Height()); err != nil {
		return raster.Buffer{}, "", err
	}

	if err := img.AutoRotate(); err != nil {
		return raster.Buffer{}, "", fmt.Errorf("auto-rotate source image: %w", err)
	}

	flat, _, err := img.ExportPng(vips.NewPngExportParams())
	if err != nil {
		return raster.Buffer{}, "", fmt.Errorf("flatten source image: %w", err)
	}
	buf, _, err := raster.Decode(flat)
	if err != nil {
		return raster.Buffer{}, "", err
	}
	return buf, sourceFormat(vips.DetermineImageType(input)), nil
}

func (t govipsTransformer) Transform(ctx context.Context, src raster.Buffer, srcFormat string, step domain.PipelineStep) (Artifact, error) {
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

	format := formatForStep(step.Format, srcFormat, true)
	var data []byte
	switch format {
	case "jpeg", "png", "webp":
		data, err = exportGovips(out, format, step.Quality)
	default:
		data, err = raster.Encode(out.img, format, step.Quality)
	}
	if err != nil {
		return Artifact{}, err
	}
	return Artifact{Data: data, Format: format, Width: out.width, Height: out.height, SeamsRemoved: out.seams}, nil
}

func sourceFormat(t vips.ImageType) string {
	switch t {
	case vips.ImageTypeJPEG:
		return "jpeg"
	case vips.ImageTypeWEBP:
		return "webp"
	case vips.ImageTypeTIFF:
		return "tiff"
	case vips.ImageTypeBMP:
		return "bmp"
	default:
		return "png"
	}
}

func exportGovips(out rendered, format string, quality int) ([]byte, error) {
	lossless, err := raster.Encode(out.img, "png", 0)
	if err != nil {
		return nil, err
	}
	img, err := vips.NewImageFromBuffer(lossless)
	if err != nil {
		return nil, fmt.Errorf("load carved image: %w", err)
	}
	defer img.Close()

	switch format {
	case "jpeg":
		params := vips.NewJpegExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := img.ExportJpeg(params)
		if err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
		return data, nil
	case "png":
		params := vips.NewPngExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := img.ExportPng(params)
		if err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
		return data, nil
	case "webp":
		params := vips.NewWebpExportParams()
		if quality > 0 && quality <= 100 {
			params.Quality = quality
		}
		data, _, err := img.ExportWebp(params)
		if err != nil {
			return nil, fmt.Errorf("encode webp: %w", err)
		}
		return data, nil
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}
}
