package seam_test

import (
	"testing"

	"github.com/dunamismax/seamflow/internal/seam"
	"github.com/stretchr/testify/require"
)

func uniform(w, h int, p seam.RGB) []seam.RGB {
	pix := make([]seam.RGB, w*h)
	for i := range pix {
		pix[i] = p
	}
	return pix
}

func TestIntensity_Extremes(t *testing.T) {
	require.Equal(t, float32(0), seam.Intensity(seam.RGB{0, 0, 0}))
	require.Equal(t, float32(1), seam.Intensity(seam.RGB{255, 255, 255}))
	require.InDelta(t, 0.299, seam.Intensity(seam.RGB{255, 0, 0}), 1e-6)
	require.InDelta(t, 0.587, seam.Intensity(seam.RGB{0, 255, 0}), 1e-6)
	require.InDelta(t, 0.114, seam.Intensity(seam.RGB{0, 0, 255}), 1e-6)
}

func TestRGBToIntensity_RangeAndShape(t *testing.T) {
	const w, h = 7, 5
	pix := make([]seam.RGB, w*h)
	for i := range pix {
		pix[i] = seam.RGB{uint8(i * 37), uint8(255 - i*11), uint8(i * 5)}
	}

	out := seam.RGBToIntensity(pix, w, h)
	require.Len(t, out, w*h)
	for i, v := range out {
		require.GreaterOrEqualf(t, v, float32(0), "pixel %d", i)
		require.LessOrEqualf(t, v, float32(1), "pixel %d", i)
	}
}

func TestRGBToIntensity_PanicsOnContractViolation(t *testing.T) {
	require.Panics(t, func() { seam.RGBToIntensity(make([]seam.RGB, 4), 0, 4) })
	require.Panics(t, func() { seam.RGBToIntensity(make([]seam.RGB, 4), 4, 0) })
	require.Panics(t, func() { seam.RGBToIntensity(make([]seam.RGB, 5), 2, 2) })
}

func TestEdgeDetect_FlatFieldIsZero(t *testing.T) {
	const w, h = 6, 4
	intensity := seam.RGBToIntensity(uniform(w, h, seam.RGB{128, 128, 128}), w, h)

	energy := seam.EdgeDetect(intensity, w, h)
	require.Len(t, energy, w*h)
	for i, v := range energy {
		require.Zerof(t, v, "pixel %d", i)
	}
}

func TestEdgeDetect_EveryGrayLevelIsFlat(t *testing.T) {
	const w, h = 3, 3
	for level := 0; level < 256; level++ {
		g := uint8(level)
		intensity := seam.RGBToIntensity(uniform(w, h, seam.RGB{g, g, g}), w, h)
		require.Equalf(t, make([]float32, w*h), seam.EdgeDetect(intensity, w, h), "gray %d", level)
	}
}

func TestEdgeDetect_VerticalStep(t *testing.T) {
	// Columns 0-1 dark, 2-3 bright: only columns 1 and 2 see the step.
	const w, h = 4, 3
	intensity := make([]float32, w*h)
	for y := 0; y < h; y++ {
		intensity[y*w+2] = 1
		intensity[y*w+3] = 1
	}

	energy := seam.EdgeDetect(intensity, w, h)
	for y := 0; y < h; y++ {
		require.Zero(t, energy[y*w+0])
		require.InDelta(t, 0.5, energy[y*w+1], 1e-6)
		require.InDelta(t, 0.5, energy[y*w+2], 1e-6)
		require.Zero(t, energy[y*w+3])
	}
}

func TestEdgeDetect_ClampsBorders(t *testing.T) {
	// A single bright pixel in the corner. With edge replication the corner's
	// left and top neighbors are itself, so gx = (1/8+1/4)*(0-1) + 1/8*(0-0).
	intensity := []float32{
		1, 0, 0,
		0, 0, 0,
		0, 0, 0,
	}
	energy := seam.EdgeDetect(intensity, 3, 3)

	gx := float32(-(1.0/8 + 1.0/4))
	gy := float32(-(1.0/8 + 1.0/4))
	want := float32(0.53033006) // sqrt(gx^2 + gy^2)
	require.InDelta(t, want, energy[0], 1e-6)
	require.InDelta(t, float64(gx*gx+gy*gy), float64(energy[0]*energy[0]), 1e-6)

	// Bottom-right is two pixels away from the bright one in both axes.
	require.Zero(t, energy[8])
}

func TestEdgeDetect_Deterministic(t *testing.T) {
	const w, h = 9, 7
	intensity := make([]float32, w*h)
	for i := range intensity {
		intensity[i] = float32((i*7919)%101) / 100
	}
	require.Equal(t, seam.EdgeDetect(intensity, w, h), seam.EdgeDetect(intensity, w, h))
}

func TestEdgeDetect_PanicsOnLengthMismatch(t *testing.T) {
	require.Panics(t, func() { seam.EdgeDetect(make([]float32, 8), 3, 3) })
}
