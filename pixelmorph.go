package pixelmorph

import (
	"fmt"
	"image"
)

// DefaultSize is the edge length of the square pixel grid.
const DefaultSize = 256

// PixelBuffer is a Width×Height grid of RGB triplets in row-major order.
// Pix always holds exactly Width*Height*3 bytes.
type PixelBuffer struct {
	Width, Height int
	Pix           []byte
}

// NewPixelBuffer allocates a black buffer of the given size.
func NewPixelBuffer(w, h int) PixelBuffer {
	return PixelBuffer{Width: w, Height: h, Pix: make([]byte, w*h*3)}
}

// PixelBufferFromRGBA copies img into a new PixelBuffer, dropping alpha.
func PixelBufferFromRGBA(img *image.RGBA) PixelBuffer {
	b := img.Bounds()
	w, h := b.Dx(), b.Dy()
	buf := NewPixelBuffer(w, h)
	for y := 0; y < h; y++ {
		row := img.Pix[y*img.Stride : y*img.Stride+w*4]
		out := buf.Pix[y*w*3 : (y+1)*w*3]
		for x := 0; x < w; x++ {
			out[x*3] = row[x*4]
			out[x*3+1] = row[x*4+1]
			out[x*3+2] = row[x*4+2]
		}
	}
	return buf
}

// Len returns the number of pixels, N = Width*Height.
func (p PixelBuffer) Len() int {
	return p.Width * p.Height
}

// Validate reports whether the buffer dimensions and length agree.
func (p PixelBuffer) Validate() error {
	if p.Width <= 0 || p.Height <= 0 {
		return fmt.Errorf("%w: %dx%d grid", ErrSizeMismatch, p.Width, p.Height)
	}
	if len(p.Pix) != p.Len()*3 {
		return fmt.Errorf("%w: %dx%d grid needs %d bytes, got %d",
			ErrSizeMismatch, p.Width, p.Height, p.Len()*3, len(p.Pix))
	}
	return nil
}

// RGB returns the color of pixel i.
func (p PixelBuffer) RGB(i int) (r, g, b uint8) {
	o := i * 3
	return p.Pix[o], p.Pix[o+1], p.Pix[o+2]
}

// cloneRGBA returns a copy of img rebased to the origin with a tight stride.
func cloneRGBA(img *image.RGBA) *image.RGBA {
	b := img.Bounds()
	out := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	for y := 0; y < b.Dy(); y++ {
		src := img.Pix[img.PixOffset(b.Min.X, b.Min.Y+y):]
		copy(out.Pix[y*out.Stride:(y+1)*out.Stride], src[:b.Dx()*4])
	}
	return out
}

// EngineKind identifies which compute backend served a mapping request.
type EngineKind uint8

const (
	EngineNone   EngineKind = iota // no request served yet
	EngineScript                   // pure Go indexer + matcher
	EngineNative                   // precompiled WebAssembly kernel
)

func (k EngineKind) String() string {
	switch k {
	case EngineScript:
		return "script"
	case EngineNative:
		return "native"
	default:
		return "none"
	}
}

// State is a Session lifecycle state.
type State uint8

const (
	StateIdle      State = iota // no mapping requested yet
	StateComputing              // a capture is being mapped
	StateReady                  // a mapping is installed, animation not started
	StateAnimating              // frames are being interpolated
	StateSettled                // the animation reached t == 1
)

func (s State) String() string {
	switch s {
	case StateComputing:
		return "computing"
	case StateReady:
		return "ready"
	case StateAnimating:
		return "animating"
	case StateSettled:
		return "settled"
	default:
		return "idle"
	}
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}
