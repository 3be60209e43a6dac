package raster

import (
	"context"
	"fmt"

	"github.com/dunamismax/seamflow/internal/seam"
)

// SeamSet is the JSON form of an extraction: the source size and the seams
// in removal order.
type SeamSet struct {
	Width  int         `json:"width"`
	Height int         `json:"height"`
	Seams  []seam.Seam `json:"seams"`
}

// Carve removes n seams from buf, leaving at least one column. progress, when
// set, is called after each seam is found.
func Carve(ctx context.Context, buf Buffer, n int, progress func(done, total int)) (Buffer, []seam.Seam, error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Pixels() {
		return Buffer{}, nil, fmt.Errorf("%w: %dx%d with %d pixels", ErrEmptyImage, buf.Width, buf.Height, len(buf.Pix))
	}
	if n < 0 || n >= buf.Width {
		return Buffer{}, nil, fmt.Errorf("%w: %d for width %d", ErrInvalidSeamCount, n, buf.Width)
	}

	seams, err := Seams(ctx, buf, n, progress)
	if err != nil {
		return Buffer{}, nil, err
	}
	out, err := RemoveSeams(buf, seams)
	if err != nil {
		return Buffer{}, nil, err
	}
	return out, seams, nil
}

// Seams extracts n seams, 0 <= n <= width, in removal order. Every seam is a
// full pass over the image, so ctx is checked before each one.
func Seams(ctx context.Context, buf Buffer, n int, progress func(done, total int)) ([]seam.Seam, error) {
	if buf.Width <= 0 || buf.Height <= 0 || len(buf.Pix) != buf.Pixels() {
		return nil, fmt.Errorf("%w: %dx%d with %d pixels", ErrEmptyImage, buf.Width, buf.Height, len(buf.Pix))
	}
	if n < 0 || n > buf.Width {
		return nil, fmt.Errorf("%w: %d for width %d", ErrInvalidSeamCount, n, buf.Width)
	}

	seams := make([]seam.Seam, 0, n)
	if n == 0 {
		return seams, nil
	}
	ex := seam.NewExtractor(buf.Energy(), buf.Width, buf.Height)
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		seams = append(seams, ex.Next())
		if progress != nil {
			progress(i+1, n)
		}
	}
	return seams, nil
}

// RemoveSeams deletes seams from a copy of buf in order: seam i is applied to
// the buffer already narrowed by seams 0..i-1.
func RemoveSeams(buf Buffer, seams []seam.Seam) (Buffer, error) {
	if len(seams) >= buf.Width {
		return Buffer{}, fmt.Errorf("%w: %d for width %d", ErrInvalidSeamCount, len(seams), buf.Width)
	}

	pix := make([]seam.RGB, len(buf.Pix))
	copy(pix, buf.Pix)

	width := buf.Width
	for i, s := range seams {
		if !s.Valid(width, buf.Height) {
			return Buffer{}, fmt.Errorf("%w: seam %d for width %d", ErrInvalidSeam, i, width)
		}
		n := 0
		for y, cut := range s {
			row := pix[y*width : (y+1)*width]
			n += copy(pix[n:], row[:cut])
			n += copy(pix[n:], row[cut+1:])
		}
		pix = pix[:n]
		width--
	}

	return Buffer{Pix: pix, Width: width, Height: buf.Height}, nil
}

// OriginalColumns maps each seam of an ordered seam set back to the columns
// it occupied in the original width x height image.
func OriginalColumns(seams []seam.Seam, width, height int) ([][]int, error) {
	if len(seams) > width {
		return nil, fmt.Errorf("%w: %d for width %d", ErrInvalidSeamCount, len(seams), width)
	}

	cols := make([][]int, height)
	for y := range cols {
		cols[y] = make([]int, width)
		for x := range cols[y] {
			cols[y][x] = x
		}
	}

	out := make([][]int, len(seams))
	for i, s := range seams {
		if !s.Valid(width-i, height) {
			return nil, fmt.Errorf("%w: seam %d for width %d", ErrInvalidSeam, i, width-i)
		}
		orig := make([]int, height)
		for y, x := range s {
			orig[y] = cols[y][x]
			cols[y] = append(cols[y][:x], cols[y][x+1:]...)
		}
		out[i] = orig
	}
	return out, nil
}
