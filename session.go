package pixelmorph

import (
	"context"
	"fmt"
	"image"
	"math"
	"sync"
	"time"

	"github.com/tanema/gween/ease"
)

// DefaultDuration is the length of one morph animation.
const DefaultDuration = 3200 * time.Millisecond

// SessionOptions configures a Session. Zero values select the defaults.
type SessionOptions struct {
	// Size is the grid edge length in pixels.
	Size int
	// Duration is the animation length.
	Duration time.Duration
	// Easing shapes t over the duration. Nil means linear.
	Easing ease.TweenFunc
	// DebugColors draws each pixel with DebugColor instead of its own color.
	DebugColors bool
}

// Result reports the outcome of one capture.
type Result struct {
	Generation uint64
	Engine     EngineKind
	Score      float64
	Elapsed    time.Duration
	Err        error
	// Stale is set when a newer capture superseded this one; nothing was
	// installed.
	Stale bool
}

// morph is an installed mapping. It is never mutated after installation.
type morph struct {
	generation uint64
	mapping    Permutation
	source     *image.RGBA
	score      float64
	engine     EngineKind
}

// Session owns the active mapping and the animation clock. A capture bumps
// the generation, cancels pending work and the running animation, and
// computes a new mapping in the background; results from older generations
// are discarded. Update is the per-frame callback that advances the
// animation.
type Session struct {
	mu       sync.Mutex
	engine   *Engine
	size     int
	duration time.Duration
	easing   ease.TweenFunc
	debug    bool

	state      State
	rest       State // state restored when a pending capture fails
	generation uint64
	active     *morph
	clock      *Clock
	cancel     context.CancelFunc
	frame      *image.RGBA
	progress   float64
}

// NewSession creates an idle session computing through engine.
func NewSession(engine *Engine, opts SessionOptions) *Session {
	if opts.Size <= 0 {
		opts.Size = DefaultSize
	}
	if opts.Duration == 0 {
		opts.Duration = DefaultDuration
	}
	return &Session{
		engine:   engine,
		size:     opts.Size,
		duration: opts.Duration,
		easing:   opts.Easing,
		debug:    opts.DebugColors,
		frame:    image.NewRGBA(image.Rect(0, 0, opts.Size, opts.Size)),
	}
}

// Size returns the grid edge length.
func (s *Session) Size() int {
	return s.size
}

// Capture starts mapping source onto target. Both images must match the
// session grid. The images are copied before Capture returns. The returned
// channel receives exactly one Result.
func (s *Session) Capture(ctx context.Context, source, target *image.RGBA) <-chan Result {
	out := make(chan Result, 1)

	var src *image.RGBA
	var tgt PixelBuffer
	if source != nil && target != nil {
		src = cloneRGBA(source)
		tgt = PixelBufferFromRGBA(target)
	}

	s.mu.Lock()
	if s.cancel != nil {
		s.cancel()
	}
	s.generation++
	gen := s.generation
	if s.state != StateComputing {
		s.rest = restingState(s.state)
	}
	s.state = StateComputing
	s.clock = nil
	cctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.mu.Unlock()

	go func() {
		defer cancel()
		out <- s.compute(cctx, gen, src, tgt)
	}()
	return out
}

// Compute is Capture followed by waiting for its result.
func (s *Session) Compute(ctx context.Context, source, target *image.RGBA) Result {
	return <-s.Capture(ctx, source, target)
}

func (s *Session) compute(ctx context.Context, gen uint64, source *image.RGBA, target PixelBuffer) Result {
	start := time.Now()
	res := Result{Generation: gen}

	var mapping Permutation
	var err error
	switch {
	case source == nil:
		err = fmt.Errorf("%w: missing source or target image", ErrSizeMismatch)
	case source.Bounds().Dx() != s.size || source.Bounds().Dy() != s.size ||
		target.Width != s.size || target.Height != s.size:
		err = fmt.Errorf("%w: session grid is %dx%d, got source %v and target %dx%d",
			ErrSizeMismatch, s.size, s.size, source.Bounds().Size(), target.Width, target.Height)
	default:
		mapping, res.Engine, err = s.engine.Compute(ctx, PixelBufferFromRGBA(source).Pix, target.Pix, s.size, s.size)
	}
	if err == nil {
		res.Score, err = Similarity(source.Pix, target, mapping)
	}
	res.Err = err
	res.Elapsed = time.Since(start)

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.generation {
		res.Stale = true
		return res
	}
	s.cancel = nil
	if err != nil {
		s.state = s.rest
		return res
	}
	s.active = &morph{
		generation: gen,
		mapping:    mapping,
		source:     source,
		score:      res.Score,
		engine:     res.Engine,
	}
	s.state = StateReady
	s.rest = StateReady
	s.progress = 0
	return res
}

// restingState maps a state to the one a failed capture falls back to.
func restingState(st State) State {
	switch st {
	case StateAnimating, StateSettled:
		return StateSettled
	default:
		return st
	}
}

// Update advances the session to now and returns the current frame. changed
// is false when no new frame was rendered. Without an installed mapping this
// is a no-op returning nil. The frame is reused by later calls.
func (s *Session) Update(now time.Time) (frame *image.RGBA, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	m := s.active
	if m == nil {
		return nil, false
	}
	switch s.state {
	case StateReady:
		s.clock = NewClock(s.duration, s.easing)
		s.clock.Start(now)
		s.state = StateAnimating
	case StateAnimating:
	default:
		return s.frame, false
	}

	t := s.clock.At(now)
	s.progress = t
	RenderFrame(s.frame, m.mapping, m.source, t, s.debug)
	if s.clock.Done {
		s.clock = nil
		s.state = StateSettled
		s.rest = StateSettled
	}
	return s.frame, true
}

// Replay restarts the animation of the installed mapping.
func (s *Session) Replay() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.replayLocked()
}

func (s *Session) replayLocked() {
	if s.active == nil || s.state == StateComputing {
		return
	}
	s.clock = nil
	s.state = StateReady
	s.rest = StateReady
}

// SetDebugColors switches between source colors and DebugColor and replays
// the installed mapping.
func (s *Session) SetDebugColors(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.debug = on
	s.replayLocked()
}

// DebugColors reports whether debug coloring is on.
func (s *Session) DebugColors() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.debug
}

// State returns the lifecycle state.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Generation returns the generation of the latest capture request.
func (s *Session) Generation() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.generation
}

// Mapping returns the installed mapping, or nil. The slice must not be
// modified.
func (s *Session) Mapping() Permutation {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return nil
	}
	return s.active.mapping
}

// Engine returns the kind of backend that produced the installed mapping.
func (s *Session) Engine() EngineKind {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return EngineNone
	}
	return s.active.engine
}

// Score returns the similarity score of the installed mapping.
func (s *Session) Score() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active == nil {
		return 0
	}
	return s.active.score
}

// Progress returns the t of the last rendered frame.
func (s *Session) Progress() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.progress
}

// Percent returns Progress as a rounded percentage.
func (s *Session) Percent() int {
	return int(math.Round(s.Progress() * 100))
}

// RenderAt draws the installed mapping at progress t into dst, independent of
// the animation clock. Returns false when there is no mapping.
func (s *Session) RenderAt(dst *image.RGBA, t float64) bool {
	s.mu.Lock()
	m, debug := s.active, s.debug
	s.mu.Unlock()
	if m == nil {
		return false
	}
	return RenderFrame(dst, m.mapping, m.source, t, debug)
}

// Close cancels any pending capture.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}
