package pixelmorph

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
)

// Backend computes a Permutation from two RGB buffers of width*height*3
// bytes each.
type Backend interface {
	Kind() EngineKind
	Compute(ctx context.Context, source, target []byte, width, height int) (Permutation, error)
}

// checkBuffers rejects requests whose buffers do not match the grid.
func checkBuffers(source, target []byte, width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %dx%d grid", ErrSizeMismatch, width, height)
	}
	want := width * height * 3
	if len(source) != want || len(target) != want {
		return fmt.Errorf("%w: want %d bytes, got source %d, target %d",
			ErrSizeMismatch, want, len(source), len(target))
	}
	return nil
}

// ScriptBackend is the pure Go pipeline: IndexByBrightness on both buffers
// followed by Policy.Match.
type ScriptBackend struct {
	Policy    Policy
	Threshold float64
}

// Kind returns EngineScript.
func (b ScriptBackend) Kind() EngineKind {
	return EngineScript
}

// Compute indexes both buffers and matches them. ctx is checked between
// stages.
func (b ScriptBackend) Compute(ctx context.Context, source, target []byte, width, height int) (Permutation, error) {
	if err := checkBuffers(source, target, width, height); err != nil {
		return nil, err
	}
	src := IndexByBrightness(PixelBuffer{Width: width, Height: height, Pix: source})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	tgt := IndexByBrightness(PixelBuffer{Width: width, Height: height, Pix: target})
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return b.Policy.Match(src, tgt, b.Threshold)
}

// Engine serves mapping requests from an explicit priority list: the native
// backend while it is loaded and healthy, then the fallback. It records which
// kind served the latest request.
type Engine struct {
	mu       sync.Mutex
	native   Backend
	fallback Backend
	disabled bool
	loading  bool
	last     EngineKind
	ready    chan struct{}
}

// NewEngine creates an Engine that uses fallback until a native backend is
// loaded.
func NewEngine(fallback Backend) *Engine {
	return &Engine{fallback: fallback, ready: make(chan struct{})}
}

// LoadNative runs load once on a background goroutine. On success the result
// becomes the first choice for subsequent requests; on failure the native
// path stays disabled for the life of the Engine. Requests issued before load
// finishes are served by the fallback. Later calls are ignored.
func (e *Engine) LoadNative(ctx context.Context, load func(context.Context) (Backend, error)) {
	e.mu.Lock()
	if e.loading {
		e.mu.Unlock()
		return
	}
	e.loading = true
	e.mu.Unlock()

	go func() {
		defer close(e.ready)
		b, err := load(ctx)
		e.mu.Lock()
		defer e.mu.Unlock()
		if err != nil {
			e.disabled = true
			_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] native kernel unavailable, using script engine: %v\n", err)
			return
		}
		e.native = b
	}()
}

// NativeReady returns a channel that is closed once a LoadNative call has
// finished, successfully or not.
func (e *Engine) NativeReady() <-chan struct{} {
	return e.ready
}

// NativeActive reports whether the native backend is loaded and healthy.
func (e *Engine) NativeActive() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.native != nil && !e.disabled
}

// Last returns the kind of backend that served the most recent successful
// request.
func (e *Engine) Last() EngineKind {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.last
}

// Compute validates the buffers and tries each backend in priority order.
// A backend whose result fails validation is skipped for this request; a
// native fault disables the native backend for good.
func (e *Engine) Compute(ctx context.Context, source, target []byte, width, height int) (Permutation, EngineKind, error) {
	if err := checkBuffers(source, target, width, height); err != nil {
		return nil, EngineNone, err
	}

	var lastErr error
	for _, b := range e.backends() {
		p, err := b.Compute(ctx, source, target, width, height)
		if err == nil {
			err = checkResult(p, width*height)
		}
		if err == nil {
			e.mu.Lock()
			e.last = b.Kind()
			e.mu.Unlock()
			return p, b.Kind(), nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, EngineNone, ctxErr
		}
		if errors.Is(err, ErrKernelFault) {
			e.disable(b, err)
		}
		lastErr = fmt.Errorf("%s engine: %w", b.Kind(), err)
	}
	return nil, EngineNone, lastErr
}

// Close releases the native backend, if it holds resources.
func (e *Engine) Close(ctx context.Context) error {
	e.mu.Lock()
	native := e.native
	e.native = nil
	e.mu.Unlock()
	if c, ok := native.(interface{ Close(context.Context) error }); ok {
		return c.Close(ctx)
	}
	return nil
}

func (e *Engine) backends() []Backend {
	e.mu.Lock()
	defer e.mu.Unlock()
	list := make([]Backend, 0, 2)
	if e.native != nil && !e.disabled {
		list = append(list, e.native)
	}
	return append(list, e.fallback)
}

func (e *Engine) disable(b Backend, cause error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if b.Kind() != EngineNative || e.disabled {
		return
	}
	e.disabled = true
	_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] native kernel disabled: %v\n", cause)
}

func checkResult(p Permutation, n int) error {
	if len(p) != n {
		return fmt.Errorf("%w: mapping has %d entries, want %d", ErrSizeMismatch, len(p), n)
	}
	return p.Validate()
}
