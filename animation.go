package pixelmorph

import (
	"fmt"
	"time"

	"github.com/tanema/gween"
	"github.com/tanema/gween/ease"
)

// Clock maps wall-clock time onto morph progress t in [0, 1]. Linear t is
// elapsed/duration in float64; an easing curve, when set, is applied to it
// through a unit gween tween. Done is set once t reaches 1.
//
// There is no global ticker; the owner calls At once per frame.
type Clock struct {
	tween    *gween.Tween
	duration time.Duration
	start    time.Time
	Done     bool
}

// NewClock creates a stopped clock. A nil easing function means linear.
func NewClock(duration time.Duration, fn ease.TweenFunc) *Clock {
	c := &Clock{duration: duration}
	if fn != nil {
		c.tween = gween.New(0, 1, 1, fn)
	}
	return c
}

// Start rewinds the clock and anchors elapsed time at now.
func (c *Clock) Start(now time.Time) {
	c.start = now
	c.Done = false
	if c.tween != nil {
		c.tween.Reset()
	}
}

// At returns the progress at now. Times before Start yield 0; times at or past
// the duration yield exactly 1 and set Done.
func (c *Clock) At(now time.Time) float64 {
	if c.duration <= 0 {
		c.Done = true
		return 1
	}
	elapsed := now.Sub(c.start)
	if elapsed >= c.duration {
		c.Done = true
		return 1
	}
	c.Done = false
	t := clamp01(float64(elapsed) / float64(c.duration))
	if c.tween == nil {
		return t
	}
	v, _ := c.tween.Set(float32(t))
	return clamp01(float64(v))
}

// easings lists the curves that stay inside [0, 1]; overshooting curves
// (back, elastic, bounce) would push pixels off the grid. Linear is nil so
// the clock keeps t in float64.
var easings = map[string]ease.TweenFunc{
	"linear":       nil,
	"in-quad":      ease.InQuad,
	"out-quad":     ease.OutQuad,
	"in-out-quad":  ease.InOutQuad,
	"in-cubic":     ease.InCubic,
	"out-cubic":    ease.OutCubic,
	"in-out-cubic": ease.InOutCubic,
	"in-sine":      ease.InSine,
	"out-sine":     ease.OutSine,
	"in-out-sine":  ease.InOutSine,
}

// EasingByName returns the named easing curve. The empty name and "linear"
// return nil, which NewClock treats as linear.
func EasingByName(name string) (ease.TweenFunc, error) {
	if name == "" {
		return nil, nil
	}
	fn, ok := easings[name]
	if !ok {
		return nil, fmt.Errorf("unknown easing %q", name)
	}
	return fn, nil
}
