package pixelmorph

import (
	"errors"
	"image/color"
	"testing"
)

func identity(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = int32(i)
	}
	return p
}

func TestSimilarityIdenticalIsPerfect(t *testing.T) {
	img := gradientRGBA(8)
	got, err := Similarity(img.Pix, PixelBufferFromRGBA(img), identity(64))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if got != 100 {
		t.Errorf("score = %v, want 100", got)
	}
}

func TestSimilarityOppositeIsZero(t *testing.T) {
	white := solidRGBA(4, color.RGBA{255, 255, 255, 255})
	black := solidRGBA(4, color.RGBA{0, 0, 0, 255})
	got, err := Similarity(white.Pix, PixelBufferFromRGBA(black), identity(16))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if got != 0 {
		t.Errorf("score = %v, want 0", got)
	}
}

func TestSimilarityRoundsToOneDecimal(t *testing.T) {
	// Every pixel is off by 51: MSE = 2601, score = (1 - 2601/65025) * 100 = 96.
	src := solidRGBA(2, color.RGBA{102, 102, 102, 255})
	tgt := solidRGBA(2, color.RGBA{51, 51, 51, 255})
	got, err := Similarity(src.Pix, PixelBufferFromRGBA(tgt), identity(4))
	if err != nil {
		t.Fatalf("Similarity: %v", err)
	}
	if got != 96 {
		t.Errorf("score = %v, want 96", got)
	}
}

func TestSimilarityUsesMapping(t *testing.T) {
	src := greyRGBA(0, 255)
	tgt := PixelBufferFromRGBA(greyRGBA(255, 0))

	swapped, _ := Similarity(src.Pix, tgt, Permutation{1, 0})
	straight, _ := Similarity(src.Pix, tgt, Permutation{0, 1})
	if swapped != 100 || straight != 0 {
		t.Errorf("swapped = %v, straight = %v, want 100 and 0", swapped, straight)
	}
}

func TestSimilaritySizeMismatch(t *testing.T) {
	img := gradientRGBA(2)
	if _, err := Similarity(img.Pix, PixelBufferFromRGBA(img), identity(3)); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("err = %v, want ErrSizeMismatch", err)
	}
	if _, err := Similarity(nil, PixelBuffer{}, nil); !errors.Is(err, ErrSizeMismatch) {
		t.Errorf("empty err = %v, want ErrSizeMismatch", err)
	}
}
