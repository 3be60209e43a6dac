package raster

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"image/png"
	"io"
	"strings"

	"golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	"golang.org/x/image/tiff"
)

// NormalizeFormat maps a requested output format onto one Encode supports,
// falling back to png.
func NormalizeFormat(format string) string {
	switch format = strings.ToLower(strings.TrimSpace(format)); format {
	case "jpg":
		return "jpeg"
	case "tif":
		return "tiff"
	case "jpeg", "png", "bmp", "tiff", "pgm", "webp", "json":
		return format
	default:
		return "png"
	}
}

func ContentType(format string) string {
	switch NormalizeFormat(format) {
	case "jpeg":
		return "image/jpeg"
	case "bmp":
		return "image/bmp"
	case "tiff":
		return "image/tiff"
	case "pgm":
		return "image/x-portable-graymap"
	case "webp":
		return "image/webp"
	case "json":
		return "application/json"
	default:
		return "image/png"
	}
}

func Encode(img image.Image, format string, quality int) ([]byte, error) {
	var buf bytes.Buffer

	switch format {
	case "jpeg":
		if quality <= 0 || quality > 100 {
			quality = 80
		}
		if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
			return nil, fmt.Errorf("encode jpeg: %w", err)
		}
	case "png":
		encoder := png.Encoder{CompressionLevel: png.DefaultCompression}
		if err := encoder.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode png: %w", err)
		}
	case "bmp":
		if err := bmp.Encode(&buf, img); err != nil {
			return nil, fmt.Errorf("encode bmp: %w", err)
		}
	case "tiff":
		if err := tiff.Encode(&buf, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
			return nil, fmt.Errorf("encode tiff: %w", err)
		}
	case "pgm":
		if err := writePGM(&buf, img); err != nil {
			return nil, fmt.Errorf("encode pgm: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported output format: %s", format)
	}

	return buf.Bytes(), nil
}

// writePGM writes a binary (P5) graymap. Color images are converted to gray.
func writePGM(w io.Writer, img image.Image) error {
	gray, ok := img.(*image.Gray)
	if !ok {
		gray = image.NewGray(image.Rect(0, 0, img.Bounds().Dx(), img.Bounds().Dy()))
		draw.Draw(gray, gray.Bounds(), img, img.Bounds().Min, draw.Src)
	}

	bw := bufio.NewWriter(w)
	width, height := gray.Bounds().Dx(), gray.Bounds().Dy()
	if _, err := fmt.Fprintf(bw, "P5 %d %d 255\n", width, height); err != nil {
		return err
	}
	for y := 0; y < height; y++ {
		off := gray.PixOffset(gray.Bounds().Min.X, gray.Bounds().Min.Y+y)
		if _, err := bw.Write(gray.Pix[off : off+width]); err != nil {
			return err
		}
	}
	return bw.Flush()
}
