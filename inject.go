package pixelmorph

// syntheticPointerEvent is a queued pointer sample in canvas coordinates.
type syntheticPointerEvent struct {
	x, y    float64
	pressed bool
}

// InjectPress queues a pointer press at (x, y). Queued events are consumed one
// per Update, before real input.
func (st *Studio) InjectPress(x, y float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectMove queues a pointer move at (x, y) with the button held down.
func (st *Studio) InjectMove(x, y float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{x: x, y: y, pressed: true})
}

// InjectRelease queues a pointer release at (x, y).
func (st *Studio) InjectRelease(x, y float64) {
	st.injectQueue = append(st.injectQueue, syntheticPointerEvent{x: x, y: y})
}

// InjectStroke queues a full stroke: press at (fromX, fromY), frames-2
// linearly interpolated moves, and release at (toX, toY). The sequence
// consumes `frames` frames; the minimum is 2.
func (st *Studio) InjectStroke(fromX, fromY, toX, toY float64, frames int) {
	if frames < 2 {
		frames = 2
	}
	st.InjectPress(fromX, fromY)
	steps := frames - 2
	for i := 1; i <= steps; i++ {
		t := float64(i) / float64(steps+1)
		st.InjectMove(lerp(fromX, toX, t), lerp(fromY, toY, t))
	}
	st.InjectRelease(toX, toY)
}

// Injecting reports whether queued pointer events remain. Hosts skip real
// pointer input while this is true.
func (st *Studio) Injecting() bool {
	return len(st.injectQueue) > 0
}

// processInjectedInput pops one queued event and feeds it to the canvas.
// Returns true if an event was consumed.
func (st *Studio) processInjectedInput() bool {
	if len(st.injectQueue) == 0 {
		return false
	}
	evt := st.injectQueue[0]
	copy(st.injectQueue, st.injectQueue[1:])
	st.injectQueue = st.injectQueue[:len(st.injectQueue)-1]

	switch {
	case evt.pressed && !st.canvas.Drawing():
		st.PointerDown(evt.x, evt.y)
	case evt.pressed:
		st.PointerMove(evt.x, evt.y)
	default:
		st.PointerMove(evt.x, evt.y)
		st.PointerUp()
	}
	return true
}
