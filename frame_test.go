package pixelmorph

import (
	"image"
	"image/color"
	"testing"
)

func TestMorphPositionMidpoint(t *testing.T) {
	const w = 5
	got := MorphPosition(0, 4*w+4, w, 0.5)
	if got != image.Pt(2, 2) {
		t.Errorf("MorphPosition at t=0.5 = %v, want (2,2)", got)
	}
}

func TestMorphPositionEndpoints(t *testing.T) {
	const w = 7
	tests := []struct {
		i, j int
		t    float64
		want image.Point
	}{
		{10, 40, 0, image.Pt(3, 1)},
		{10, 40, 1, image.Pt(5, 5)},
		{0, 6, 0.25, image.Pt(2, 0)}, // 1.5 rounds away from zero
		{6, 0, 0.25, image.Pt(5, 0)}, // 4.5 rounds away from zero
	}
	for _, tt := range tests {
		got := MorphPosition(tt.i, tt.j, w, tt.t)
		if got != tt.want {
			t.Errorf("MorphPosition(%d, %d, %d, %v) = %v, want %v", tt.i, tt.j, w, tt.t, got, tt.want)
		}
	}
}

func TestRenderFrameAtZeroReproducesSource(t *testing.T) {
	src := gradientRGBA(6)
	p := identity(36)
	// Reverse the mapping so t=0 and t=1 differ.
	for i := range p {
		p[i] = int32(35 - i)
	}
	dst := image.NewRGBA(src.Bounds())

	if !RenderFrame(dst, p, src, 0, false) {
		t.Fatal("RenderFrame returned false")
	}
	for y := 0; y < 6; y++ {
		for x := 0; x < 6; x++ {
			want := src.RGBAAt(x, y)
			want.A = 255
			if got := dst.RGBAAt(x, y); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderFrameAtOnePlacesPixelsAtDestination(t *testing.T) {
	src := greyRGBA(10, 20, 30, 40)
	p := Permutation{2, 0, 3, 1}
	dst := image.NewRGBA(src.Bounds())

	RenderFrame(dst, p, src, 1, false)
	for i, j := range p {
		want := src.RGBAAt(i, 0)
		if got := dst.RGBAAt(int(j), 0); got != want {
			t.Errorf("destination %d = %v, want source %d color %v", j, got, i, want)
		}
	}
}

func TestRenderFrameClearsUnwrittenPixels(t *testing.T) {
	// Two pixels swap; at t=0.5 both land on the same column, leaving one
	// cell empty.
	src := greyRGBA(100, 200)
	dst := image.NewRGBA(src.Bounds())
	dst.SetRGBA(0, 0, color.RGBA{1, 2, 3, 4})
	dst.SetRGBA(1, 0, color.RGBA{1, 2, 3, 4})

	RenderFrame(dst, Permutation{1, 0}, src, 0.5, false)

	var transparent, opaque int
	for x := 0; x < 2; x++ {
		switch dst.RGBAAt(x, 0).A {
		case 0:
			if dst.RGBAAt(x, 0) != (color.RGBA{}) {
				t.Errorf("empty pixel %d = %v, want transparent black", x, dst.RGBAAt(x, 0))
			}
			transparent++
		case 255:
			opaque++
		}
	}
	if transparent != 1 || opaque != 1 {
		t.Errorf("transparent = %d, opaque = %d, want 1 and 1", transparent, opaque)
	}
}

func TestRenderFrameDebugColors(t *testing.T) {
	src := gradientRGBA(4)
	p := identity(16)
	a := image.NewRGBA(src.Bounds())
	b := image.NewRGBA(src.Bounds())

	RenderFrame(a, p, src, 1, true)
	RenderFrame(b, p, src, 1, true)
	for i := 0; i < 16; i++ {
		got := a.RGBAAt(i%4, i/4)
		if got != DebugColor(i) {
			t.Fatalf("pixel %d = %v, want DebugColor %v", i, got, DebugColor(i))
		}
		if got != b.RGBAAt(i%4, i/4) {
			t.Fatalf("pixel %d differs between renders", i)
		}
	}
}

func TestDebugColorDeterministic(t *testing.T) {
	distinct := make(map[color.RGBA]bool)
	for i := 0; i < 256; i++ {
		c := DebugColor(i)
		if c != DebugColor(i) {
			t.Fatalf("DebugColor(%d) not deterministic", i)
		}
		if c.A != 255 {
			t.Fatalf("DebugColor(%d).A = %d, want 255", i, c.A)
		}
		distinct[c] = true
	}
	if len(distinct) < 250 {
		t.Errorf("only %d distinct colors for 256 indices", len(distinct))
	}
}

func TestRenderFrameMismatchIsNoOp(t *testing.T) {
	src := gradientRGBA(4)
	dst := image.NewRGBA(image.Rect(0, 0, 4, 4))
	dst.Pix[0] = 42

	tests := []struct {
		name string
		p    Permutation
		src  *image.RGBA
	}{
		{"short mapping", identity(15), src},
		{"empty mapping", nil, src},
		{"nil source", identity(16), nil},
		{"source size", identity(16), gradientRGBA(3)},
		{"out of range", append(identity(15), 16), src},
		{"negative", append(identity(15), -1), src},
		{"duplicate", append(identity(15), 0), src},
	}
	for _, tt := range tests {
		if RenderFrame(dst, tt.p, tt.src, 0.5, false) {
			t.Errorf("%s: RenderFrame returned true", tt.name)
		}
		if dst.Pix[0] != 42 {
			t.Errorf("%s: dst was modified", tt.name)
		}
	}
}
