package pixelmorph

import (
	"image"
	"image/color"
	"math"
)

// MorphPosition returns where source pixel i is drawn at progress t when it
// travels to target index j on a grid of the given width. Each axis is
// interpolated and rounded independently.
func MorphPosition(i, j, width int, t float64) image.Point {
	sx, sy := i%width, i/width
	tx, ty := j%width, j/width
	return image.Point{
		X: int(math.Round(lerp(float64(sx), float64(tx), t))),
		Y: int(math.Round(lerp(float64(sy), float64(ty), t))),
	}
}

// RenderFrame draws the morph of source under p at progress t into dst.
// dst is cleared to transparent black first; every written pixel is opaque and
// carries the source color of the pixel that landed there (or DebugColor when
// debug is set). Returns false without touching dst when the inputs do not
// describe the same grid or p is not a bijection.
func RenderFrame(dst *image.RGBA, p Permutation, source *image.RGBA, t float64, debug bool) bool {
	b := dst.Bounds()
	w, h := b.Dx(), b.Dy()
	if len(p) == 0 || len(p) != w*h || source == nil || source.Bounds().Size() != b.Size() {
		return false
	}
	if p.Validate() != nil {
		return false
	}

	clear(dst.Pix)
	t = clamp01(t)
	sb := source.Bounds()
	for i, j := range p {
		pos := MorphPosition(i, int(j), w, t)
		o := dst.PixOffset(b.Min.X+pos.X, b.Min.Y+pos.Y)
		var c color.RGBA
		if debug {
			c = DebugColor(i)
		} else {
			s := source.PixOffset(sb.Min.X+i%w, sb.Min.Y+i/w)
			c = color.RGBA{source.Pix[s], source.Pix[s+1], source.Pix[s+2], 0xff}
		}
		dst.Pix[o] = c.R
		dst.Pix[o+1] = c.G
		dst.Pix[o+2] = c.B
		dst.Pix[o+3] = 0xff
	}
	return true
}

// DebugColor returns a fixed pseudo-random opaque color for pixel index i,
// used to make the permutation visible regardless of the source colors.
func DebugColor(i int) color.RGBA {
	x := uint32(i + 1)
	x = (x ^ (x >> 16)) * 0x45d9f3b
	x = (x ^ (x >> 16)) * 0x45d9f3b
	x ^= x >> 16
	return color.RGBA{R: uint8(x), G: uint8(x >> 8), B: uint8(x >> 16), A: 0xff}
}
