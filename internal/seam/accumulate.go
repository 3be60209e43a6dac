package seam

// MinVertEnergy returns, for every cell, its energy plus the cheapest path from
// the row below to the bottom edge. The top row then holds the total cost of the
// best seam starting at each column, and the bottom row equals the input.
func MinVertEnergy(energy []float32, width, height int) []float32 {
	mustDims("energy", len(energy), width, height)

	acc := make([]float32, len(energy))
	copy(acc, energy)
	accumulate(acc, width, height)
	return acc
}

// accumulate runs the bottom-up pass in place over the first width*height cells.
func accumulate(acc []float32, width, height int) {
	for y := height - 2; y >= 0; y-- {
		row := acc[y*width : (y+1)*width]
		below := acc[(y+1)*width : (y+2)*width]
		for x := range row {
			row[x] += min(
				below[clamp(x-1, 0, width-1)],
				below[x],
				below[clamp(x+1, 0, width-1)],
			)
		}
	}
}
