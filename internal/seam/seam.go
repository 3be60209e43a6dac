package seam

import "fmt"

// RGB is one pixel, channel order R, G, B.
type RGB [3]uint8

// Seam holds one column index per row, top row first.
type Seam []int

// Valid reports whether s is a connected vertical seam of a width x height field.
func (s Seam) Valid(width, height int) bool {
	if len(s) != height {
		return false
	}
	for y, x := range s {
		if x < 0 || x >= width {
			return false
		}
		if y > 0 && (x-s[y-1] > 1 || s[y-1]-x > 1) {
			return false
		}
	}
	return true
}

func mustDims(what string, n, width, height int) {
	if width <= 0 {
		panic(fmt.Sprintf("seam: need non-zero width, got %d", width))
	}
	if height <= 0 {
		panic(fmt.Sprintf("seam: need non-zero height, got %d", height))
	}
	if n != width*height {
		panic(fmt.Sprintf("seam: need %s length %d to match %dx%d", what, n, width, height))
	}
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}

// argmin returns the index of the first smallest value in row.
func argmin(row []float32) int {
	best := 0
	for i := 1; i < len(row); i++ {
		if row[i] < row[best] {
			best = i
		}
	}
	return best
}
