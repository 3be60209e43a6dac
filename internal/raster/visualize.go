package raster

import (
	"fmt"
	"image"
	"math"

	"github.com/dunamismax/seamflow/internal/seam"
)

// EnergyImage scales a scalar field by its maximum into an 8-bit gray image.
// An all-zero field renders black.
func EnergyImage(field []float32, width, height int) (*image.Gray, error) {
	if width <= 0 || height <= 0 || len(field) != width*height {
		return nil, fmt.Errorf("%w: %dx%d with %d values", ErrEmptyImage, width, height, len(field))
	}

	var peak float32
	for _, v := range field {
		if v > peak {
			peak = v
		}
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	if peak <= 0 {
		return img, nil
	}
	for i, v := range field {
		scaled := math.Round(float64(v) * 255 / float64(peak))
		img.Pix[i] = uint8(max(0, min(255, scaled)))
	}
	return img, nil
}

// SeamRankImage paints every pixel of a width x height image by the rank of
// the seam that removed it. It needs a full extraction, one seam per column.
// Rank 0, the cheapest seam, is black.
func SeamRankImage(seams []seam.Seam, width, height int) (*image.Gray, error) {
	if len(seams) != width {
		return nil, fmt.Errorf("%w: rank map needs %d seams, got %d", ErrInvalidSeamCount, width, len(seams))
	}
	cols, err := OriginalColumns(seams, width, height)
	if err != nil {
		return nil, err
	}

	img := image.NewGray(image.Rect(0, 0, width, height))
	if width == 1 {
		return img, nil
	}
	for rank, orig := range cols {
		shade := uint8(math.Round(float64(rank) * 255 / float64(width-1)))
		for y, x := range orig {
			img.Pix[y*img.Stride+x] = shade
		}
	}
	return img, nil
}
