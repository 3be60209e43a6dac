/*
Package seam computes energy maps and vertical seams for content-aware image resizing.

All fields are flat, row-major float32 slices addressed by y*width + x. The pipeline is:

	intensity := seam.RGBToIntensity(pixels, w, h)
	energy := seam.EdgeDetect(intensity, w, h)
	seams := seam.FindNVertSeams(n, energy, w, h)

Seam i of a multi-seam extraction holds column indices relative to a field that has already
lost seams 0..i-1, so it is valid for width w-i. Removing the seams from a pixel buffer must
therefore be done in order, one seam at a time.

Every function panics when width or height is not positive or when an input slice does not
hold exactly width*height values. These are caller errors; there is no error return.
*/
package seam
