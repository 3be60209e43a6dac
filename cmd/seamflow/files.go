package main

import (
	"encoding/json"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/schollz/progressbar/v3"

	"github.com/dunamismax/seamflow/internal/raster"
	"github.com/dunamismax/seamflow/internal/seam"
)

func readBuffer(path string) (raster.Buffer, string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return raster.Buffer{}, "", fmt.Errorf("read input: %w", err)
	}
	buf, format, err := raster.Decode(data)
	if err != nil {
		return raster.Buffer{}, "", fmt.Errorf("decode %s: %w", path, err)
	}
	return buf, format, nil
}

// outputFormat derives the encoder from the file extension.
func outputFormat(path string) (string, error) {
	ext := strings.ToLower(strings.TrimPrefix(filepath.Ext(path), "."))
	switch ext {
	case "png", "jpg", "jpeg", "bmp", "tif", "tiff", "pgm", "json":
		return raster.NormalizeFormat(ext), nil
	default:
		return "", fmt.Errorf("unsupported output extension %q for %s", filepath.Ext(path), path)
	}
}

// imageFormat is outputFormat without json.
func imageFormat(path string) (string, error) {
	format, err := outputFormat(path)
	if err != nil {
		return "", err
	}
	if format == "json" {
		return "", fmt.Errorf("cannot write an image as json: %s", path)
	}
	return format, nil
}

func writeImage(path, format string, img image.Image, quality int) error {
	data, err := raster.Encode(img, format, quality)
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

func writeSeamSet(path string, width, height int, seams []seam.Seam) error {
	data, err := json.MarshalIndent(raster.SeamSet{Width: width, Height: height, Seams: seams}, "", "  ")
	if err != nil {
		return fmt.Errorf("encode seams: %w", err)
	}
	return writeFile(path, append(data, '\n'))
}

func writeFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	return nil
}

func samePath(a, b string) bool {
	absA, errA := filepath.Abs(a)
	absB, errB := filepath.Abs(b)
	return errA == nil && errB == nil && absA == absB
}

// newProgress returns a seam progress callback drawing a bar on stderr, and
// the function that finishes the bar.
func newProgress(n int, description string, quiet bool) (func(done, total int), func()) {
	if quiet || n == 0 {
		return nil, func() {}
	}

	bar := progressbar.NewOptions(n,
		progressbar.OptionSetDescription(description),
		progressbar.OptionSetWriter(os.Stderr),
		progressbar.OptionShowCount(),
		progressbar.OptionClearOnFinish(),
	)
	return func(done, _ int) {
		_ = bar.Set(done)
	}, func() {
		_ = bar.Finish()
	}
}
