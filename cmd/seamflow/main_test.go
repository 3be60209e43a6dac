package main

import (
	"bytes"
	"encoding/json"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/dunamismax/seamflow/internal/raster"
)

func writeTestPNG(t *testing.T, dir string, width, height int) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 9), G: uint8(y * 13), B: uint8((x + y) * 5), A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	path := filepath.Join(dir, "in.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write png: %v", err)
	}
	return path
}

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var stderr bytes.Buffer
	cmd := newRootCmd(&stderr)
	cmd.SetOut(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stderr.String(), err
}

func decodeSize(t *testing.T, path string) (int, int) {
	t.Helper()
	f, err := os.Open(path)
	if err != nil {
		t.Fatalf("open output: %v", err)
	}
	defer f.Close()
	cfg, _, err := image.DecodeConfig(f)
	if err != nil {
		t.Fatalf("decode output: %v", err)
	}
	return cfg.Width, cfg.Height
}

func TestCarveToWidth(t *testing.T) {
	dir := t.TempDir()
	in := writeTestPNG(t, dir, 20, 8)
	out := filepath.Join(dir, "out.png")
	seamsPath := filepath.Join(dir, "seams.json")

	logs, err := run(t, "carve", "-q", "-i", in, "-o", out, "--width", "12", "--seam-json", seamsPath)
	if err != nil {
		t.Fatalf("carve: %v", err)
	}
	if !strings.Contains(logs, "[seamflow] carved") {
		t.Fatalf("expected carve log line, got %q", logs)
	}

	if w, h := decodeSize(t, out); w != 12 || h != 8 {
		t.Fatalf("expected 12x8, got %dx%d", w, h)
	}

	data, err := os.ReadFile(seamsPath)
	if err != nil {
		t.Fatalf("read seams: %v", err)
	}
	var set raster.SeamSet
	if err := json.Unmarshal(data, &set); err != nil {
		t.Fatalf("decode seams: %v", err)
	}
	if set.Width != 20 || set.Height != 8 || len(set.Seams) != 8 {
		t.Fatalf("unexpected seam set %dx%d with %d seams", set.Width, set.Height, len(set.Seams))
	}
	for i, s := range set.Seams {
		if !s.Valid(20-i, 8) {
			t.Fatalf("seam %d is not valid for width %d", i, 20-i)
		}
	}
}

func TestCarveRejectsBadFlags(t *testing.T) {
	dir := t.TempDir()
	in := writeTestPNG(t, dir, 10, 4)

	cases := [][]string{
		{"carve", "-q", "-i", in, "-o", filepath.Join(dir, "a.png")},
		{"carve", "-q", "-i", in, "-o", filepath.Join(dir, "a.png"), "--width", "4", "--seams", "2"},
		{"carve", "-q", "-i", in, "-o", filepath.Join(dir, "a.png"), "--seams", "10"},
		{"carve", "-q", "-i", in, "-o", filepath.Join(dir, "a.png"), "--width", "11"},
		{"carve", "-q", "-i", in, "-o", in, "--seams", "1"},
		{"carve", "-q", "-o", filepath.Join(dir, "a.png"), "--seams", "1"},
	}
	for _, args := range cases {
		if _, err := run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
	}
}

func TestEnergyWritesPGM(t *testing.T) {
	dir := t.TempDir()
	in := writeTestPNG(t, dir, 9, 6)
	out := filepath.Join(dir, "energy.pgm")

	if _, err := run(t, "energy", "-i", in, "-o", out, "--stage", "cumulative"); err != nil {
		t.Fatalf("energy: %v", err)
	}
	data, err := os.ReadFile(out)
	if err != nil {
		t.Fatalf("read output: %v", err)
	}
	header := "P5 9 6 255\n"
	if !bytes.HasPrefix(data, []byte(header)) {
		t.Fatalf("expected header %q, got %q", header, data[:min(len(data), len(header))])
	}
	if len(data) != len(header)+9*6 {
		t.Fatalf("expected %d bytes, got %d", len(header)+9*6, len(data))
	}

	if _, err := run(t, "energy", "-i", in, "-o", out, "--stage", "sideways"); err == nil {
		t.Fatal("expected error for unknown stage")
	}
}

func TestSeamsOutputs(t *testing.T) {
	dir := t.TempDir()
	in := writeTestPNG(t, dir, 7, 5)

	rank := filepath.Join(dir, "rank.png")
	if _, err := run(t, "seams", "-q", "-i", in, "-o", rank); err != nil {
		t.Fatalf("seams image: %v", err)
	}
	if w, h := decodeSize(t, rank); w != 7 || h != 5 {
		t.Fatalf("expected 7x5 rank map, got %dx%d", w, h)
	}

	doc := filepath.Join(dir, "rank.json")
	if _, err := run(t, "seams", "-q", "-i", in, "-o", doc); err != nil {
		t.Fatalf("seams json: %v", err)
	}
	data, err := os.ReadFile(doc)
	if err != nil {
		t.Fatalf("read json: %v", err)
	}
	var set raster.SeamSet
	if err := json.Unmarshal(data, &set); err != nil {
		t.Fatalf("decode json: %v", err)
	}
	if len(set.Seams) != 7 {
		t.Fatalf("expected 7 seams, got %d", len(set.Seams))
	}
}

func TestOutputFormat(t *testing.T) {
	cases := map[string]string{
		"a.png":  "png",
		"a.JPG":  "jpeg",
		"a.tif":  "tiff",
		"a.pgm":  "pgm",
		"a.json": "json",
	}
	for path, want := range cases {
		got, err := outputFormat(path)
		if err != nil {
			t.Fatalf("outputFormat(%q): %v", path, err)
		}
		if got != want {
			t.Fatalf("outputFormat(%q) = %q, want %q", path, got, want)
		}
	}

	for _, path := range []string{"noextension", "a.webp", "a.txt", "a.gif"} {
		if _, err := outputFormat(path); err == nil {
			t.Fatalf("expected error for %q", path)
		}
	}
	if _, err := imageFormat("a.json"); err == nil {
		t.Fatal("expected imageFormat to reject json")
	}
}

func TestRejectsUnknownOutputExtension(t *testing.T) {
	dir := t.TempDir()
	in := writeTestPNG(t, dir, 10, 4)

	for _, args := range [][]string{
		{"carve", "-q", "-i", in, "-o", filepath.Join(dir, "out.txt"), "--seams", "2"},
		{"energy", "-q", "-i", in, "-o", filepath.Join(dir, "energy.dat")},
		{"seams", "-q", "-i", in, "-o", filepath.Join(dir, "rank")},
	} {
		if _, err := run(t, args...); err == nil {
			t.Fatalf("expected error for %v", args)
		}
		if _, err := os.Stat(args[5]); err == nil {
			t.Fatalf("expected no output written for %v", args)
		}
	}
}
