package pixelmorph

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestLoadScriptValid(t *testing.T) {
	script, err := LoadScript([]byte(`{"steps": [
		{"action": "stroke", "fromX": 1, "fromY": 2, "toX": 3, "toY": 4, "frames": 6},
		{"action": "brush", "width": 3, "color": "#ff8800"},
		{"action": "wait", "frames": 2},
		{"action": "settle"},
		{"action": "screenshot", "label": "done"}
	]}`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}
	if len(script.steps) != 5 {
		t.Fatalf("steps = %d, want 5", len(script.steps))
	}
	if s := script.steps[0]; s.FromX != 1 || s.ToY != 4 || s.Frames != 6 {
		t.Errorf("stroke step = %+v", s)
	}
	if script.Done() {
		t.Error("new script is Done")
	}
}

func TestLoadScriptErrors(t *testing.T) {
	tests := []struct {
		name, json, want string
	}{
		{"invalid json", `{`, "parse script"},
		{"no steps", `{"steps": []}`, "no steps"},
		{"unknown action", `{"steps": [{"action": "teleport"}]}`, `unknown action "teleport"`},
		{"bad color", `{"steps": [{"action": "brush", "width": 2, "color": "nope"}]}`, "step 0"},
	}
	for _, tt := range tests {
		_, err := LoadScript([]byte(tt.json))
		if err == nil || !strings.Contains(err.Error(), tt.want) {
			t.Errorf("%s: err = %v, want it to mention %q", tt.name, err, tt.want)
		}
	}
}

func TestLoadScriptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "script.json")
	if err := os.WriteFile(path, []byte(`{"steps": [{"action": "capture"}]}`), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadScriptFile(path); err != nil {
		t.Errorf("LoadScriptFile: %v", err)
	}
	if _, err := LoadScriptFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("expected error for a missing file")
	}
}

func TestScriptWaitCountsFrames(t *testing.T) {
	script, _ := LoadScript([]byte(`{"steps": [{"action": "wait", "frames": 3}]}`))
	st := newTestStudio(8)
	st.SetScript(script)

	for i := 0; i < 3; i++ {
		if script.Done() {
			t.Fatalf("Done after %d frames, want 3", i)
		}
		st.Update(time.Unix(0, 0))
	}
	if !script.Done() {
		t.Error("not Done after 3 frames")
	}
}

func TestScriptStrokeWaitsForInjectedEvents(t *testing.T) {
	script, _ := LoadScript([]byte(`{"steps": [
		{"action": "stroke", "fromX": 2, "fromY": 4, "toX": 12, "toY": 4, "frames": 4},
		{"action": "clear"}
	]}`))
	st := newTestStudio(16)
	st.SetScript(script)

	// The stroke occupies four frames; clear runs on the fifth.
	for i := 0; i < 4; i++ {
		st.Update(time.Unix(0, 0))
	}
	if got := st.Canvas().Image().RGBAAt(7, 4); got == canvasBG {
		t.Fatal("stroke not drawn after four frames")
	}
	st.Update(time.Unix(0, 0))
	if got := st.Canvas().Image().RGBAAt(7, 4); got != canvasBG {
		t.Errorf("pixel (7,4) = %v, want cleared", got)
	}
	if !script.Done() {
		t.Error("script not Done")
	}
}

func TestScriptEndToEnd(t *testing.T) {
	script, err := LoadScript([]byte(`{"steps": [
		{"action": "brush", "width": 4, "color": "#ffffff"},
		{"action": "stroke", "fromX": 2, "fromY": 8, "toX": 14, "toY": 8, "frames": 5},
		{"action": "settle"},
		{"action": "debug", "on": true},
		{"action": "settle"},
		{"action": "screenshot", "label": "end"}
	]}`))
	if err != nil {
		t.Fatalf("LoadScript: %v", err)
	}

	session := NewSession(directEngine(), SessionOptions{Size: 16, Duration: 50 * time.Millisecond})
	st := NewStudio(context.Background(), session, NewCanvas(16, canvasBG))
	st.ScreenshotDir = t.TempDir()
	st.SetScript(script)
	st.SetTarget(gradientRGBA(16))

	now := time.Unix(0, 0)
	for frame := 0; frame < 200 && !(script.Done() && st.Settled()); frame++ {
		st.Update(now)
		st.WaitIdle()
		now = now.Add(time.Second / 60)
	}

	if !script.Done() {
		t.Fatal("script did not finish")
	}
	if session.Generation() != 2 {
		t.Errorf("generation = %d, want 2 (target + stroke)", session.Generation())
	}
	if !session.DebugColors() || session.State() != StateSettled {
		t.Errorf("debug = %v, state = %s", session.DebugColors(), session.State())
	}
	matches, _ := filepath.Glob(filepath.Join(st.ScreenshotDir, "*_end.png"))
	if len(matches) != 1 {
		t.Errorf("found %d screenshots, want 1", len(matches))
	}
}
