package pixelmorph

import (
	"fmt"
	"math"
)

// maxSquaredError is the largest possible squared brightness difference.
const maxSquaredError = 255 * 255

// Similarity scores how well p carries the source brightness onto the target.
// sourceRGBA holds N RGBA pixels (tight stride); target holds N RGB pixels.
// The score is (1 - MSE/65025) * 100 clamped at 0 and rounded to one decimal.
func Similarity(sourceRGBA []byte, target PixelBuffer, p Permutation) (float64, error) {
	n := len(p)
	if n == 0 || len(sourceRGBA) != n*4 || target.Len() != n || len(target.Pix) != n*3 {
		return 0, fmt.Errorf("%w: similarity over %d mapped pixels, %d source bytes, %d target bytes",
			ErrSizeMismatch, n, len(sourceRGBA), len(target.Pix))
	}

	var sum float64
	for i, j := range p {
		s := i * 4
		src := Brightness(sourceRGBA[s], sourceRGBA[s+1], sourceRGBA[s+2])
		tr, tg, tb := target.RGB(int(j))
		d := src - Brightness(tr, tg, tb)
		sum += d * d
	}
	mse := sum / float64(n)
	score := math.Max(0, 1-mse/maxSquaredError) * 100
	return math.Round(score*10) / 10, nil
}
