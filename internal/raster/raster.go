// Package raster moves images in and out of the flat RGB buffers the seam
// package works on, and applies seam sets to them.
package raster

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"

	"github.com/dunamismax/seamflow/internal/seam"
)

var (
	ErrEmptyImage       = errors.New("image has no pixels")
	ErrInvalidSeamCount = errors.New("invalid seam count")
	ErrInvalidSeam      = errors.New("invalid seam")
)

// Buffer is a row-major RGB image.
type Buffer struct {
	Pix    []seam.RGB
	Width  int
	Height int
}

func (b Buffer) Pixels() int {
	return b.Width * b.Height
}

// Decode reads any registered image format into a Buffer and reports the
// format name.
func Decode(data []byte) (Buffer, string, error) {
	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Buffer{}, "", fmt.Errorf("decode source image: %w", err)
	}
	buf, err := FromImage(img)
	if err != nil {
		return Buffer{}, "", err
	}
	return buf, format, nil
}

// Dimensions reads only the image header, so it is safe to call on untrusted
// input before Decode.
func Dimensions(data []byte) (width, height int, format string, err error) {
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return 0, 0, "", fmt.Errorf("read image header: %w", err)
	}
	return cfg.Width, cfg.Height, format, nil
}

// FromImage flattens img. Translucent pixels end up composited over black.
func FromImage(img image.Image) (Buffer, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w <= 0 || h <= 0 {
		return Buffer{}, fmt.Errorf("%w: %dx%d", ErrEmptyImage, w, h)
	}

	rgba, ok := img.(*image.RGBA)
	if !ok || rgba.Bounds().Min != (image.Point{}) {
		rgba = image.NewRGBA(image.Rect(0, 0, w, h))
		draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	}

	buf := Buffer{Pix: make([]seam.RGB, w*h), Width: w, Height: h}
	for y := 0; y < h; y++ {
		row := rgba.Pix[y*rgba.Stride : y*rgba.Stride+4*w]
		for x := 0; x < w; x++ {
			buf.Pix[y*w+x] = seam.RGB{row[4*x], row[4*x+1], row[4*x+2]}
		}
	}
	return buf, nil
}

// Image returns an opaque copy of b.
func (b Buffer) Image() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, b.Width, b.Height))
	for i, p := range b.Pix {
		img.Pix[4*i] = p[0]
		img.Pix[4*i+1] = p[1]
		img.Pix[4*i+2] = p[2]
		img.Pix[4*i+3] = 0xff
	}
	return img
}

// Energy runs intensity extraction and edge detection over b.
func (b Buffer) Energy() []float32 {
	return seam.EdgeDetect(seam.RGBToIntensity(b.Pix, b.Width, b.Height), b.Width, b.Height)
}
