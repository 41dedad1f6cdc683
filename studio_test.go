package pixelmorph

import (
	"context"
	"image/color"
	"testing"
	"time"
)

func newTestStudio(size int) *Studio {
	return NewStudio(context.Background(), newTestSession(size), NewCanvas(size, canvasBG))
}

// runFrames advances st by n frames of virtual time, waiting out each capture
// so results are deterministic.
func runFrames(st *Studio, start time.Time, n int) time.Time {
	now := start
	for i := 0; i < n; i++ {
		st.Update(now)
		st.WaitIdle()
		now = now.Add(time.Second / 60)
	}
	return now
}

func TestStudioRecaptureNeedsTarget(t *testing.T) {
	st := newTestStudio(8)
	if st.Recapture() {
		t.Error("Recapture without a target returned true")
	}
	if st.Busy() {
		t.Error("Busy without a target")
	}
}

func TestStudioSetTargetCaptures(t *testing.T) {
	st := newTestStudio(8)
	st.SetTarget(gradientRGBA(8))
	if !st.Busy() {
		t.Fatal("SetTarget did not start a capture")
	}
	st.WaitIdle()

	if st.Busy() {
		t.Error("Busy after WaitIdle")
	}
	res := st.LastResult()
	if res.Err != nil || res.Generation != 1 || res.Engine != EngineScript {
		t.Errorf("LastResult = %+v", res)
	}
	if st.Session().State() != StateReady {
		t.Errorf("state = %s, want ready", st.Session().State())
	}
}

func TestStudioStrokeRecaptures(t *testing.T) {
	st := newTestStudio(16)
	st.SetTarget(gradientRGBA(16))
	st.WaitIdle()

	st.Canvas().SetBrush(4, canvasWhite)
	st.PointerDown(2, 8)
	st.PointerMove(14, 8)
	if st.Busy() {
		t.Fatal("capture started mid-stroke")
	}
	st.PointerUp()
	if !st.Busy() {
		t.Fatal("PointerUp did not recapture")
	}
	st.WaitIdle()
	if st.Session().Generation() != 2 {
		t.Errorf("generation = %d, want 2", st.Session().Generation())
	}

	// A release without a stroke does nothing.
	st.PointerUp()
	if st.Busy() {
		t.Error("PointerUp without a stroke recaptured")
	}
}

func TestStudioClearRecaptures(t *testing.T) {
	st := newTestStudio(8)
	st.SetTarget(gradientRGBA(8))
	st.WaitIdle()
	st.Canvas().Stroke(1, 1, 6, 6)

	st.Clear()
	st.WaitIdle()
	if st.Session().Generation() != 2 {
		t.Errorf("generation = %d, want 2", st.Session().Generation())
	}
	if got := st.Canvas().Image().RGBAAt(3, 3); got != canvasBG {
		t.Errorf("pixel (3,3) = %v, want background", got)
	}
}

func TestStudioUpdateAnimatesToSettled(t *testing.T) {
	st := NewStudio(context.Background(),
		NewSession(directEngine(), SessionOptions{Size: 8, Duration: 100 * time.Millisecond}),
		NewCanvas(8, canvasBG))
	st.SetTarget(gradientRGBA(8))

	if st.Frame() != nil {
		t.Fatal("frame before any Update")
	}
	runFrames(st, time.Unix(0, 0), 10)

	if st.Session().State() != StateSettled {
		t.Errorf("state = %s, want settled", st.Session().State())
	}
	if st.Frame() == nil {
		t.Fatal("no frame after settling")
	}
	if !st.Settled() {
		t.Error("Settled() = false")
	}
}

func TestStudioOnlyLatestResultCounts(t *testing.T) {
	st := newTestStudio(8)
	target := gradientRGBA(8)
	st.SetTarget(target)
	st.SetTarget(solidRGBA(8, color.RGBA{200, 200, 200, 255}))
	st.WaitIdle()

	if st.LastResult().Generation != 2 {
		t.Errorf("LastResult generation = %d, want 2", st.LastResult().Generation)
	}
	if st.Target() == target {
		t.Error("Target() returned the replaced image")
	}
}

func TestStudioSetDebugColors(t *testing.T) {
	st := newTestStudio(8)
	st.SetTarget(gradientRGBA(8))
	st.WaitIdle()
	st.SetDebugColors(true)
	if !st.Session().DebugColors() {
		t.Error("debug colors not forwarded to the session")
	}
}
