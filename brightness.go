package pixelmorph

import (
	"cmp"
	"slices"
)

// BrightnessSample pairs a linear pixel index (y*W+x) with its luma.
type BrightnessSample struct {
	Index      int
	Brightness float64
}

// Brightness returns the Rec. 709 luma of an RGB triplet, in [0, 255].
func Brightness(r, g, b uint8) float64 {
	return 0.2126*float64(r) + 0.7152*float64(g) + 0.0722*float64(b)
}

// IndexByBrightness returns one sample per pixel of buf, sorted ascending by
// brightness with ties broken by ascending index. buf must be valid.
func IndexByBrightness(buf PixelBuffer) []BrightnessSample {
	n := buf.Len()
	samples := make([]BrightnessSample, n)
	for i := range samples {
		r, g, b := buf.RGB(i)
		samples[i] = BrightnessSample{Index: i, Brightness: Brightness(r, g, b)}
	}
	slices.SortFunc(samples, compareSamples)
	return samples
}

func compareSamples(a, b BrightnessSample) int {
	if c := cmp.Compare(a.Brightness, b.Brightness); c != 0 {
		return c
	}
	return cmp.Compare(a.Index, b.Index)
}
