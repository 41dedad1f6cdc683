package pixelmorph

import (
	"image"
	"image/color"
	"math"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/vector"
)

// capSegments is the number of edges used to approximate each round cap.
const capSegments = 12

// Canvas is a freehand drawing surface of fixed size. Strokes use a round
// brush; Capture hands the result to a Session as the morph source.
type Canvas struct {
	img        *image.RGBA
	raster     *vector.Rasterizer
	background color.RGBA
	brush      float64
	color      color.RGBA

	drawing      bool
	lastX, lastY float64
}

// NewCanvas creates a size×size canvas filled with background.
func NewCanvas(size int, background color.RGBA) *Canvas {
	c := &Canvas{
		img:        image.NewRGBA(image.Rect(0, 0, size, size)),
		raster:     vector.NewRasterizer(size, size),
		background: background,
		brush:      6,
		color:      color.RGBA{0xf8, 0xfa, 0xfc, 0xff},
	}
	c.Clear()
	return c
}

// SetBrush sets the stroke width in pixels and the stroke color.
func (c *Canvas) SetBrush(width float64, col color.RGBA) {
	if width > 0 {
		c.brush = width
	}
	c.color = col
}

// Brush returns the stroke width and color.
func (c *Canvas) Brush() (float64, color.RGBA) {
	return c.brush, c.color
}

// Clear fills the canvas with its background and ends any stroke.
func (c *Canvas) Clear() {
	xdraw.Draw(c.img, c.img.Bounds(), image.NewUniform(c.background), image.Point{}, xdraw.Src)
	c.drawing = false
}

// Load replaces the canvas content with img, letterboxed onto the background
// when its size differs.
func (c *Canvas) Load(img image.Image) {
	size := c.img.Bounds().Dx()
	if img.Bounds() != c.img.Bounds() {
		img = FitImage(img, size, c.background)
	}
	xdraw.Draw(c.img, c.img.Bounds(), img, img.Bounds().Min, xdraw.Src)
	c.drawing = false
}

// Begin starts a stroke at (x, y) and paints a dot there.
func (c *Canvas) Begin(x, y float64) {
	c.drawing = true
	c.lastX, c.lastY = x, y
	c.segment(x, y, x, y)
}

// Move extends the current stroke to (x, y). It does nothing between strokes.
func (c *Canvas) Move(x, y float64) {
	if !c.drawing {
		return
	}
	c.segment(c.lastX, c.lastY, x, y)
	c.lastX, c.lastY = x, y
}

// End finishes the current stroke. It reports whether a stroke was in
// progress.
func (c *Canvas) End() bool {
	was := c.drawing
	c.drawing = false
	return was
}

// Drawing reports whether a stroke is in progress.
func (c *Canvas) Drawing() bool {
	return c.drawing
}

// Stroke draws a complete line from (x0, y0) to (x1, y1).
func (c *Canvas) Stroke(x0, y0, x1, y1 float64) {
	c.Begin(x0, y0)
	c.Move(x1, y1)
	c.End()
}

// Image returns the live canvas. It must not be retained across strokes by
// anything that needs a stable snapshot; use Capture for that.
func (c *Canvas) Image() *image.RGBA {
	return c.img
}

// Capture returns a copy of the canvas.
func (c *Canvas) Capture() *image.RGBA {
	return cloneRGBA(c.img)
}

// segment fills the capsule around the line (x0,y0)-(x1,y1) with radius
// brush/2. A zero-length segment is a filled circle.
func (c *Canvas) segment(x0, y0, x1, y1 float64) {
	b := c.img.Bounds()
	w, h := b.Dx(), b.Dy()
	r := c.brush / 2
	dir := math.Atan2(y1-y0, x1-x0)

	z := c.raster
	z.Reset(w, h)
	z.DrawOp = xdraw.Over
	limit := func(x, y float64) (float32, float32) {
		return float32(math.Max(0, math.Min(float64(w), x))), float32(math.Max(0, math.Min(float64(h), y)))
	}
	// Half circle around the end point, then around the start point.
	for i := 0; i <= capSegments; i++ {
		a := dir - math.Pi/2 + math.Pi*float64(i)/capSegments
		px, py := limit(x1+r*math.Cos(a), y1+r*math.Sin(a))
		if i == 0 {
			z.MoveTo(px, py)
		} else {
			z.LineTo(px, py)
		}
	}
	for i := 0; i <= capSegments; i++ {
		a := dir + math.Pi/2 + math.Pi*float64(i)/capSegments
		z.LineTo(limit(x0+r*math.Cos(a), y0+r*math.Sin(a)))
	}
	z.ClosePath()
	z.Draw(c.img, b, image.NewUniform(c.color), image.Point{})
}
