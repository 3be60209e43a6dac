package raster_test

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/dunamismax/seamflow/internal/raster"
	"github.com/dunamismax/seamflow/internal/seam"
	"github.com/stretchr/testify/require"
)

// stripes builds a w x h buffer whose columns hold their own index in the red
// channel, so removed columns can be identified after carving.
func stripes(w, h int) raster.Buffer {
	buf := raster.Buffer{Pix: make([]seam.RGB, w*h), Width: w, Height: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Pix[y*w+x] = seam.RGB{uint8(x), 0, 0}
		}
	}
	return buf
}

func encodePNG(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestDecode_RoundTripsPixels(t *testing.T) {
	src := image.NewNRGBA(image.Rect(0, 0, 3, 2))
	src.Set(0, 0, color.NRGBA{R: 10, G: 20, B: 30, A: 255})
	src.Set(2, 1, color.NRGBA{R: 200, G: 100, B: 50, A: 255})

	buf, format, err := raster.Decode(encodePNG(t, src))
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 3, buf.Width)
	require.Equal(t, 2, buf.Height)
	require.Equal(t, seam.RGB{10, 20, 30}, buf.Pix[0])
	require.Equal(t, seam.RGB{200, 100, 50}, buf.Pix[5])

	out := buf.Image()
	require.Equal(t, color.RGBA{R: 200, G: 100, B: 50, A: 255}, out.RGBAAt(2, 1))
}

func TestDecode_RejectsGarbage(t *testing.T) {
	_, _, err := raster.Decode([]byte("not an image"))
	require.Error(t, err)
}

func TestDimensions_ReadsHeaderOnly(t *testing.T) {
	data := encodePNG(t, image.NewNRGBA(image.Rect(0, 0, 7, 3)))

	w, h, format, err := raster.Dimensions(data)
	require.NoError(t, err)
	require.Equal(t, "png", format)
	require.Equal(t, 7, w)
	require.Equal(t, 3, h)

	// The header is all Dimensions needs.
	w, h, _, err = raster.Dimensions(data[:33])
	require.NoError(t, err)
	require.Equal(t, 7, w)
	require.Equal(t, 3, h)

	_, _, _, err = raster.Dimensions([]byte("not an image"))
	require.Error(t, err)
}

func TestFromImage_OffsetBounds(t *testing.T) {
	src := image.NewRGBA(image.Rect(5, 5, 7, 6))
	src.SetRGBA(6, 5, color.RGBA{R: 1, G: 2, B: 3, A: 255})

	buf, err := raster.FromImage(src)
	require.NoError(t, err)
	require.Equal(t, 2, buf.Width)
	require.Equal(t, seam.RGB{1, 2, 3}, buf.Pix[1])
}

func TestFromImage_EmptyImage(t *testing.T) {
	_, err := raster.FromImage(image.NewRGBA(image.Rect(0, 0, 0, 3)))
	require.ErrorIs(t, err, raster.ErrEmptyImage)
}

func TestRemoveSeams_SequentialIndices(t *testing.T) {
	buf := stripes(4, 2)
	// Seam 1 is relative to the 3-wide buffer left by seam 0.
	out, err := raster.RemoveSeams(buf, []seam.Seam{{1, 2}, {1, 0}})
	require.NoError(t, err)
	require.Equal(t, 2, out.Width)
	require.Equal(t, []seam.RGB{
		{0, 0, 0}, {3, 0, 0},
		{1, 0, 0}, {3, 0, 0},
	}, out.Pix)

	// The source buffer is untouched.
	require.Equal(t, stripes(4, 2), buf)
}

func TestRemoveSeams_RejectsInvalid(t *testing.T) {
	buf := stripes(3, 3)
	_, err := raster.RemoveSeams(buf, []seam.Seam{{0, 2, 2}})
	require.ErrorIs(t, err, raster.ErrInvalidSeam)

	_, err = raster.RemoveSeams(buf, []seam.Seam{{0, 0, 0}, {0, 0, 0}, {0, 0, 0}})
	require.ErrorIs(t, err, raster.ErrInvalidSeamCount)
}

func TestCarve_KeepsHighEnergyColumn(t *testing.T) {
	// A uniform image with one bright column: carving two seams must keep it.
	const w, h = 6, 5
	buf := raster.Buffer{Pix: make([]seam.RGB, w*h), Width: w, Height: h}
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			buf.Pix[y*w+x] = seam.RGB{40, 40, 40}
		}
		buf.Pix[y*w+4] = seam.RGB{250, 250, 250}
	}

	var calls []int
	out, seams, err := raster.Carve(context.Background(), buf, 2, func(done, total int) {
		require.Equal(t, 2, total)
		calls = append(calls, done)
	})
	require.NoError(t, err)
	require.Equal(t, []int{1, 2}, calls)
	require.Len(t, seams, 2)
	require.Equal(t, w-2, out.Width)
	require.Equal(t, h, out.Height)
	require.Len(t, out.Pix, (w-2)*h)

	for y := 0; y < h; y++ {
		bright := 0
		for x := 0; x < out.Width; x++ {
			if out.Pix[y*out.Width+x] == (seam.RGB{250, 250, 250}) {
				bright++
			}
		}
		require.Equalf(t, 1, bright, "row %d", y)
	}
}

func TestCarve_BadCounts(t *testing.T) {
	buf := stripes(3, 2)
	_, _, err := raster.Carve(context.Background(), buf, 3, nil)
	require.ErrorIs(t, err, raster.ErrInvalidSeamCount)
	_, _, err = raster.Carve(context.Background(), buf, -1, nil)
	require.ErrorIs(t, err, raster.ErrInvalidSeamCount)

	out, seams, err := raster.Carve(context.Background(), buf, 0, nil)
	require.NoError(t, err)
	require.Empty(t, seams)
	require.Equal(t, buf, out)
}

func TestSeams_FullExtraction(t *testing.T) {
	buf := stripes(5, 3)
	seams, err := raster.Seams(context.Background(), buf, 5, nil)
	require.NoError(t, err)
	require.Len(t, seams, 5)
}

func TestSeams_StopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	buf := stripes(8, 4)

	seams, err := raster.Seams(ctx, buf, 6, func(done, _ int) {
		if done == 2 {
			cancel()
		}
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Nil(t, seams)
}

func TestOriginalColumns_CoversEveryPixelOnce(t *testing.T) {
	const w, h = 6, 4
	buf := stripes(w, h)
	seams, err := raster.Seams(context.Background(), buf, w, nil)
	require.NoError(t, err)

	cols, err := raster.OriginalColumns(seams, w, h)
	require.NoError(t, err)
	for y := 0; y < h; y++ {
		seen := make(map[int]bool)
		for _, orig := range cols {
			require.False(t, seen[orig[y]], "column %d removed twice in row %d", orig[y], y)
			seen[orig[y]] = true
		}
		require.Len(t, seen, w)
	}
}

func TestOriginalColumns_ShiftsLaterSeams(t *testing.T) {
	cols, err := raster.OriginalColumns([]seam.Seam{{0, 0}, {0, 0}, {0, 0}}, 3, 2)
	require.NoError(t, err)
	require.Equal(t, [][]int{{0, 0}, {1, 1}, {2, 2}}, cols)
}

func TestEnergyImage_ScalesByPeak(t *testing.T) {
	img, err := raster.EnergyImage([]float32{0, 0.25, 0.5, 1}, 2, 2)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 64, 128, 255}, img.Pix)

	flat, err := raster.EnergyImage(make([]float32, 4), 2, 2)
	require.NoError(t, err)
	require.Equal(t, make([]uint8, 4), flat.Pix)

	_, err = raster.EnergyImage(make([]float32, 3), 2, 2)
	require.Error(t, err)
}

func TestSeamRankImage(t *testing.T) {
	img, err := raster.SeamRankImage([]seam.Seam{{0, 0}, {0, 0}, {0, 0}}, 3, 2)
	require.NoError(t, err)
	require.Equal(t, []uint8{0, 128, 255, 0, 128, 255}, img.Pix)

	_, err = raster.SeamRankImage([]seam.Seam{{0, 0}}, 3, 2)
	require.ErrorIs(t, err, raster.ErrInvalidSeamCount)
}

func TestEncode_PGMHeader(t *testing.T) {
	img := image.NewGray(image.Rect(0, 0, 2, 1))
	img.Pix[0], img.Pix[1] = 7, 9

	data, err := raster.Encode(img, "pgm", 0)
	require.NoError(t, err)
	require.Equal(t, append([]byte("P5 2 1 255\n"), 7, 9), data)
}

func TestEncode_FormatsDecodeBack(t *testing.T) {
	img := stripes(8, 4).Image()
	for _, format := range []string{"png", "jpeg", "bmp", "tiff"} {
		data, err := raster.Encode(img, format, 90)
		require.NoError(t, err, format)

		buf, got, err := raster.Decode(data)
		require.NoError(t, err, format)
		require.Equal(t, format, got)
		require.Equal(t, 8, buf.Width, format)
	}

	_, err := raster.Encode(img, "webp", 90)
	require.Error(t, err)
}

func TestNormalizeFormat(t *testing.T) {
	require.Equal(t, "jpeg", raster.NormalizeFormat("JPG"))
	require.Equal(t, "tiff", raster.NormalizeFormat("tif"))
	require.Equal(t, "json", raster.NormalizeFormat("json"))
	require.Equal(t, "png", raster.NormalizeFormat("gif"))
	require.Equal(t, "image/x-portable-graymap", raster.ContentType("pgm"))
}
