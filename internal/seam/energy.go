package seam

import "math"

// Luma weights, REC.601.
const (
	lumaR = 0.299
	lumaG = 0.587
	lumaB = 0.114
)

// Intensity returns the luma of one pixel in [0,1]. The sum is taken in
// float64 so that white rounds to exactly 1.
func Intensity(p RGB) float32 {
	return float32(lumaR*(float64(p[0])/255) +
		lumaG*(float64(p[1])/255) +
		lumaB*(float64(p[2])/255))
}

// RGBToIntensity converts a pixel buffer to a luma field.
func RGBToIntensity(pixels []RGB, width, height int) []float32 {
	mustDims("pixel buffer", len(pixels), width, height)

	out := make([]float32, len(pixels))
	for i, p := range pixels {
		out[i] = Intensity(p)
	}
	return out
}

// sobel is the outer column (Gx) or row (Gy) of the normalized Sobel pair:
//
//	Gx = [[-1/8, 0, 1/8], [-1/4, 0, 1/4], [-1/8, 0, 1/8]]
//	Gy = [[-1/8, -1/4, -1/8], [0, 0, 0], [1/8, 1/4, 1/8]]
//
// Both kernels are antisymmetric, so each response is taken as the weighted
// difference of opposite sides. A flat neighborhood gives exactly zero.
var sobel = [3]float32{1.0 / 8, 1.0 / 4, 1.0 / 8}

// EdgeDetect returns the gradient magnitude of an intensity field. Neighbors
// outside the field are clamped to the nearest edge pixel.
func EdgeDetect(intensity []float32, width, height int) []float32 {
	mustDims("intensity", len(intensity), width, height)

	out := make([]float32, len(intensity))
	for y := 0; y < height; y++ {
		rows := [3]int{
			clamp(y-1, 0, height-1) * width,
			y * width,
			clamp(y+1, 0, height-1) * width,
		}
		for x := 0; x < width; x++ {
			cols := [3]int{clamp(x-1, 0, width-1), x, clamp(x+1, 0, width-1)}

			var win [3][3]float32
			for r, off := range rows {
				for c, col := range cols {
					win[r][c] = intensity[off+col]
				}
			}

			// The float32 conversions stop the compiler from fusing
			// multiply-add, so results match across architectures.
			var gx, gy float32
			for i, k := range sobel {
				gx += float32(k * (win[i][2] - win[i][0]))
				gy += float32(k * (win[2][i] - win[0][i]))
			}
			out[y*width+x] = float32(math.Sqrt(float64(float32(gx*gx) + float32(gy*gy))))
		}
	}
	return out
}
