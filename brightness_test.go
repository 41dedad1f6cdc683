package pixelmorph

import (
	"math"
	"testing"
)

func TestBrightnessWeights(t *testing.T) {
	tests := []struct {
		r, g, b uint8
		want    float64
	}{
		{0, 0, 0, 0},
		{255, 255, 255, 255},
		{255, 0, 0, 0.2126 * 255},
		{0, 255, 0, 0.7152 * 255},
		{0, 0, 255, 0.0722 * 255},
		{100, 100, 100, 100},
	}
	for _, tt := range tests {
		got := Brightness(tt.r, tt.g, tt.b)
		if math.Abs(got-tt.want) > 1e-9 {
			t.Errorf("Brightness(%d,%d,%d) = %f, want %f", tt.r, tt.g, tt.b, got, tt.want)
		}
	}
}

func TestIndexByBrightnessOrder(t *testing.T) {
	samples := IndexByBrightness(greyBuffer(50, 10, 200, 90))

	want := []int{1, 0, 3, 2}
	if len(samples) != len(want) {
		t.Fatalf("len = %d, want %d", len(samples), len(want))
	}
	for i, s := range samples {
		if s.Index != want[i] {
			t.Errorf("samples[%d].Index = %d, want %d", i, s.Index, want[i])
		}
	}
}

func TestIndexByBrightnessTiesByIndex(t *testing.T) {
	samples := IndexByBrightness(greyBuffer(7, 3, 7, 3, 7))

	want := []int{1, 3, 0, 2, 4}
	for i, s := range samples {
		if s.Index != want[i] {
			t.Errorf("samples[%d].Index = %d, want %d", i, s.Index, want[i])
		}
	}
}

func TestIndexByBrightnessCoversEveryPixel(t *testing.T) {
	buf := PixelBufferFromRGBA(gradientRGBA(16))
	samples := IndexByBrightness(buf)

	seen := make([]bool, buf.Len())
	for i, s := range samples {
		if seen[s.Index] {
			t.Fatalf("index %d appears twice", s.Index)
		}
		seen[s.Index] = true
		if i > 0 && samples[i-1].Brightness > s.Brightness {
			t.Fatalf("samples[%d] brightness %f < previous %f", i, s.Brightness, samples[i-1].Brightness)
		}
	}
	if len(samples) != buf.Len() {
		t.Errorf("len = %d, want %d", len(samples), buf.Len())
	}
}
