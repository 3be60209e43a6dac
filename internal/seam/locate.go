package seam

// FindVertSeam backtracks the cheapest vertical seam through an accumulated
// field produced by MinVertEnergy. Ties go to the leftmost candidate.
func FindVertSeam(minEnergy []float32, width, height int) Seam {
	mustDims("min energy", len(minEnergy), width, height)
	return locate(minEnergy, width, height)
}

func locate(acc []float32, width, height int) Seam {
	s := make(Seam, height)
	s[0] = argmin(acc[:width])
	for y := 1; y < height; y++ {
		lo := clamp(s[y-1]-1, 0, width-1)
		hi := clamp(s[y-1]+1, 0, width-1)
		row := acc[y*width : (y+1)*width]
		s[y] = lo + argmin(row[lo:hi+1])
	}
	return s
}
