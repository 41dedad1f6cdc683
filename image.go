package pixelmorph

import (
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"math"
	"os"

	_ "golang.org/x/image/bmp"
	xdraw "golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

// LoadImage decodes the image at path and letterboxes it into a size×size
// RGBA grid over bg.
func LoadImage(path string, size int, bg color.Color) (*image.RGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("load image %s: %w", path, err)
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("decode %s: %w", path, err)
	}
	return FitImage(img, size, bg), nil
}

// FitImage scales img to fit inside a size×size grid, preserving its aspect
// ratio, centered over a bg fill.
func FitImage(img image.Image, size int, bg color.Color) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, size, size))
	xdraw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, xdraw.Src)

	b := img.Bounds()
	if b.Empty() {
		return dst
	}
	scale := math.Min(float64(size)/float64(b.Dx()), float64(size)/float64(b.Dy()))
	w := max(1, int(math.Round(float64(b.Dx())*scale)))
	h := max(1, int(math.Round(float64(b.Dy())*scale)))
	x := (size - w) / 2
	y := (size - h) / 2
	xdraw.CatmullRom.Scale(dst, image.Rect(x, y, x+w, y+h), img, b, xdraw.Over, nil)
	return dst
}
