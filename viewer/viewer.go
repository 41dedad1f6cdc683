// Package viewer hosts a pixelmorph Studio in an ebiten window: the scribble
// canvas on the left, the morph on the right and a status line underneath.
package viewer

import (
	"errors"
	"fmt"
	"image/color"
	"time"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/ebitenutil"
	"github.com/hajimehoshi/ebiten/v2/inpututil"

	"github.com/phanxgames/pixelmorph"
)

const (
	panelGap = 8
	hudH     = 36
)

// RunConfig configures the viewer window.
type RunConfig struct {
	Title string
	// Scale multiplies the window size; the grid is drawn at 1:1 and scaled
	// by ebiten.
	Scale      int
	Background color.Color
	// Palette is selectable with the number keys 1-9.
	Palette []color.RGBA
	ShowFPS bool
}

// Game implements ebiten.Game around a Studio.
type Game struct {
	studio  *pixelmorph.Studio
	cfg     RunConfig
	size    int
	canvas  *ebiten.Image
	morph   *ebiten.Image
	drawing bool
}

// NewGame creates a viewer for studio.
func NewGame(studio *pixelmorph.Studio, cfg RunConfig) *Game {
	if cfg.Scale <= 0 {
		cfg.Scale = 2
	}
	if cfg.Title == "" {
		cfg.Title = "pixelmorph"
	}
	if cfg.Background == nil {
		cfg.Background = color.RGBA{A: 255}
	}
	size := studio.Session().Size()
	g := &Game{
		studio: studio,
		cfg:    cfg,
		size:   size,
		canvas: ebiten.NewImage(size, size),
		morph:  ebiten.NewImage(size, size),
	}
	if len(cfg.Palette) > 0 {
		width, _ := studio.Canvas().Brush()
		studio.Canvas().SetBrush(width, cfg.Palette[0])
	}
	return g
}

// Update handles input and advances the studio by one frame.
func (g *Game) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return ebiten.Termination
	}
	g.handleKeys()
	if !g.studio.Injecting() {
		g.handlePointer()
	}
	g.studio.Update(time.Now())
	return nil
}

func (g *Game) handleKeys() {
	st := g.studio
	if inpututil.IsKeyJustPressed(ebiten.KeyD) {
		st.SetDebugColors(!st.Session().DebugColors())
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyC) {
		st.Clear()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyR) {
		st.Session().Replay()
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyS) {
		st.Screenshot("viewer")
	}
	c := st.Canvas()
	width, col := c.Brush()
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketLeft) {
		c.SetBrush(max(1, width-1), col)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyBracketRight) {
		c.SetBrush(width+1, col)
	}
	for i := 0; i < len(g.cfg.Palette) && i < 9; i++ {
		if inpututil.IsKeyJustPressed(ebiten.Key1 + ebiten.Key(i)) {
			c.SetBrush(width, g.cfg.Palette[i])
		}
	}
}

// handlePointer feeds the left mouse button to the canvas. A press only
// starts a stroke inside the canvas panel; moves outside it are clamped by
// the canvas.
func (g *Game) handlePointer() {
	mx, my := ebiten.CursorPosition()
	x, y := float64(mx), float64(my)
	pressed := ebiten.IsMouseButtonPressed(ebiten.MouseButtonLeft)

	switch {
	case pressed && !g.drawing:
		if mx >= 0 && my >= 0 && mx < g.size && my < g.size {
			g.drawing = true
			g.studio.PointerDown(x, y)
		}
	case pressed:
		g.studio.PointerMove(x, y)
	case g.drawing:
		g.drawing = false
		g.studio.PointerMove(x, y)
		g.studio.PointerUp()
	}
}

// Draw renders both panels and the status line.
func (g *Game) Draw(screen *ebiten.Image) {
	screen.Fill(g.cfg.Background)

	g.canvas.WritePixels(g.studio.Canvas().Image().Pix)
	screen.DrawImage(g.canvas, nil)

	if frame := g.studio.Frame(); frame != nil {
		g.morph.WritePixels(frame.Pix)
		op := &ebiten.DrawImageOptions{}
		op.GeoM.Translate(float64(g.size+panelGap), 0)
		screen.DrawImage(g.morph, op)
	}

	ebitenutil.DebugPrintAt(screen, g.status(), 4, g.size+4)
}

func (g *Game) status() string {
	s := g.studio.Session()
	line := fmt.Sprintf("engine: %s  morph: %d%%  similarity: %.1f  %s",
		s.Engine(), s.Percent(), s.Score(), s.State())
	if s.DebugColors() {
		line += "  [debug]"
	}
	if g.cfg.ShowFPS {
		width, _ := g.studio.Canvas().Brush()
		line += fmt.Sprintf("\nFPS: %.1f  brush: %.0f", ebiten.ActualFPS(), width)
	}
	return line
}

// Layout returns the fixed logical screen size.
func (g *Game) Layout(_, _ int) (int, int) {
	return 2*g.size + panelGap, g.size + hudH
}

// Run opens the window and blocks until it is closed. Closing with Esc is not
// an error.
func Run(studio *pixelmorph.Studio, cfg RunConfig) error {
	g := NewGame(studio, cfg)
	w, h := g.Layout(0, 0)
	ebiten.SetWindowTitle(g.cfg.Title)
	ebiten.SetWindowSize(w*g.cfg.Scale, h*g.cfg.Scale)
	if err := ebiten.RunGame(g); err != nil && !errors.Is(err, ebiten.Termination) {
		return fmt.Errorf("viewer: %w", err)
	}
	return nil
}
