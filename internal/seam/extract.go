package seam

import "fmt"

// Extractor removes seams from a private copy of an energy field, one per call
// to Next. Each seam is found against the field narrowed by all previous seams.
type Extractor struct {
	energy []float32
	acc    []float32
	width  int
	height int
	found  int
}

// NewExtractor copies energy, the output of EdgeDetect, into a new Extractor.
func NewExtractor(energy []float32, width, height int) *Extractor {
	mustDims("energy", len(energy), width, height)

	work := make([]float32, len(energy))
	copy(work, energy)
	return &Extractor{
		energy: work,
		acc:    make([]float32, len(energy)),
		width:  width,
		height: height,
	}
}

// Width is the working width, the width the next seam is relative to.
func (e *Extractor) Width() int { return e.width }

// Found is the number of seams returned so far.
func (e *Extractor) Found() int { return e.found }

// Remaining is the number of seams left before the field is empty.
func (e *Extractor) Remaining() int { return e.width }

// Next finds the cheapest seam of the working field, removes it and returns it.
// It panics once every column has been removed.
func (e *Extractor) Next() Seam {
	if e.width == 0 {
		panic(fmt.Sprintf("seam: no columns left after %d seams", e.found))
	}

	n := e.width * e.height
	acc := e.acc[:n]
	copy(acc, e.energy[:n])
	accumulate(acc, e.width, e.height)
	s := locate(acc, e.width, e.height)

	e.energy = removeColumns(e.energy[:n], e.width, s)
	e.width--
	e.found++
	return s
}

// removeColumns deletes s[y] from every row of a width-wide field in one
// forward pass, reusing field's storage.
func removeColumns(field []float32, width int, s Seam) []float32 {
	w := 0
	for y, cut := range s {
		row := field[y*width : (y+1)*width]
		w += copy(field[w:], row[:cut])
		w += copy(field[w:], row[cut+1:])
	}
	return field[:w]
}

// FindNVertSeams extracts n seams, 0 <= n <= width, from an energy field (not
// an accumulated one). Seam i is relative to width-i; the order is the removal
// order, cheapest first.
func FindNVertSeams(n int, energy []float32, width, height int) []Seam {
	mustDims("energy", len(energy), width, height)
	if n < 0 || n > width {
		panic(fmt.Sprintf("seam: need seam count in [0, %d], got %d", width, n))
	}

	seams := make([]Seam, 0, n)
	if n == 0 {
		return seams
	}
	ex := NewExtractor(energy, width, height)
	for range n {
		seams = append(seams, ex.Next())
	}
	return seams
}

// FindAllVertSeams extracts one seam per column, ranking every column of the
// field by removal order.
func FindAllVertSeams(energy []float32, width, height int) []Seam {
	return FindNVertSeams(width, energy, width, height)
}
