package pixelmorph

import (
	"context"
	"fmt"
	"image"
	"os"
	"time"
)

// Studio ties a scribble Canvas (the morph source) and a target image to a
// Session. Finishing a stroke, clearing the canvas or changing the target
// triggers a new capture. Hosts call Update once per frame and display the
// returned frame.
type Studio struct {
	ctx     context.Context
	session *Session
	canvas  *Canvas
	target  *image.RGBA
	debug   bool

	// ScreenshotDir is the directory Screenshot writes PNG files to.
	ScreenshotDir string

	frame           *image.RGBA
	last            Result
	pending         []<-chan Result
	screenshotQueue []string
	injectQueue     []syntheticPointerEvent
	script          *Script
}

// NewStudio creates a studio drawing on canvas and morphing through session.
// ctx bounds every capture the studio starts.
func NewStudio(ctx context.Context, session *Session, canvas *Canvas) *Studio {
	return &Studio{
		ctx:           ctx,
		session:       session,
		canvas:        canvas,
		ScreenshotDir: "screenshots",
	}
}

// Session returns the studio's session.
func (st *Studio) Session() *Session {
	return st.session
}

// Canvas returns the studio's canvas.
func (st *Studio) Canvas() *Canvas {
	return st.canvas
}

// Target returns the current target image, or nil.
func (st *Studio) Target() *image.RGBA {
	return st.target
}

// SetTarget replaces the target image and recaptures.
func (st *Studio) SetTarget(img *image.RGBA) {
	st.target = img
	st.Recapture()
}

// Recapture snapshots the canvas and starts a capture against the target.
// It reports false when no target is set.
func (st *Studio) Recapture() bool {
	if st.target == nil {
		return false
	}
	st.pending = append(st.pending, st.session.Capture(st.ctx, st.canvas.Capture(), st.target))
	return true
}

// PointerDown begins a stroke at canvas coordinates (x, y).
func (st *Studio) PointerDown(x, y float64) {
	st.canvas.Begin(x, y)
}

// PointerMove extends the current stroke.
func (st *Studio) PointerMove(x, y float64) {
	st.canvas.Move(x, y)
}

// PointerUp ends the current stroke and recaptures if one was in progress.
func (st *Studio) PointerUp() {
	if st.canvas.End() {
		st.Recapture()
	}
}

// Clear wipes the canvas and recaptures.
func (st *Studio) Clear() {
	st.canvas.Clear()
	st.Recapture()
}

// SetDebugColors toggles debug coloring and replays the morph.
func (st *Studio) SetDebugColors(on bool) {
	st.session.SetDebugColors(on)
}

// SetDebugMode enables or disables per-capture stats on stderr.
func (st *Studio) SetDebugMode(enabled bool) {
	st.debug = enabled
}

// Busy reports whether a capture has not been collected yet.
func (st *Studio) Busy() bool {
	return len(st.pending) > 0
}

// LastResult returns the most recent non-stale capture result.
func (st *Studio) LastResult() Result {
	return st.last
}

// Frame returns the most recently rendered frame, or nil.
func (st *Studio) Frame() *image.RGBA {
	return st.frame
}

// Update runs one frame: script step, injected input, finished captures,
// session animation and queued screenshots, in that order.
func (st *Studio) Update(now time.Time) *image.RGBA {
	if st.script != nil {
		st.script.step(st)
	}
	st.processInjectedInput()
	st.collectResults()
	if frame, _ := st.session.Update(now); frame != nil {
		st.frame = frame
	}
	st.flushScreenshots()
	return st.frame
}

// WaitIdle blocks until every pending capture has delivered its result.
func (st *Studio) WaitIdle() {
	for _, ch := range st.pending {
		st.record(<-ch)
	}
	st.pending = st.pending[:0]
}

// collectResults drains finished captures without blocking.
func (st *Studio) collectResults() {
	kept := st.pending[:0]
	for _, ch := range st.pending {
		select {
		case res := <-ch:
			st.record(res)
		default:
			kept = append(kept, ch)
		}
	}
	st.pending = kept
}

func (st *Studio) record(res Result) {
	if st.debug {
		st.debugLog(res)
	}
	if res.Stale {
		return
	}
	if res.Err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] capture %d: %v\n", res.Generation, res.Err)
	}
	st.last = res
}
