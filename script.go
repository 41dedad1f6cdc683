package pixelmorph

import (
	"encoding/json"
	"fmt"
	"os"
)

// scriptStep is a single action in a studio script.
type scriptStep struct {
	Action string  `json:"action"`
	Label  string  `json:"label,omitempty"`
	FromX  float64 `json:"fromX,omitempty"`
	FromY  float64 `json:"fromY,omitempty"`
	ToX    float64 `json:"toX,omitempty"`
	ToY    float64 `json:"toY,omitempty"`
	Frames int     `json:"frames,omitempty"`
	Width  float64 `json:"width,omitempty"`
	Color  string  `json:"color,omitempty"`
	On     bool    `json:"on,omitempty"`
}

// scriptFile is the top-level JSON structure of a script.
type scriptFile struct {
	Steps []scriptStep `json:"steps"`
}

// Script sequences strokes, captures and screenshots across frames so a
// Studio can run unattended. Attach it with Studio.SetScript.
//
// Actions: stroke, clear, capture, brush, debug, replay, wait, settle,
// screenshot.
type Script struct {
	steps     []scriptStep
	cursor    int
	waitCount int
	settling  bool
	done      bool
}

// LoadScript parses a JSON script.
func LoadScript(jsonData []byte) (*Script, error) {
	var file scriptFile
	if err := json.Unmarshal(jsonData, &file); err != nil {
		return nil, fmt.Errorf("parse script: %w", err)
	}
	if len(file.Steps) == 0 {
		return nil, fmt.Errorf("parse script: no steps")
	}
	for i, st := range file.Steps {
		switch st.Action {
		case "stroke", "clear", "capture", "debug", "replay", "wait", "settle", "screenshot":
		case "brush":
			if _, err := parseHexColor(st.Color); err != nil {
				return nil, fmt.Errorf("parse script: step %d: %w", i, err)
			}
		default:
			return nil, fmt.Errorf("parse script: step %d: unknown action %q", i, st.Action)
		}
	}
	return &Script{steps: file.Steps}, nil
}

// LoadScriptFile reads and parses the script at path.
func LoadScriptFile(path string) (*Script, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read script %s: %w", path, err)
	}
	return LoadScript(data)
}

// SetScript attaches a script; it advances once per Studio.Update.
func (st *Studio) SetScript(script *Script) {
	st.script = script
}

// Done reports whether every step has run.
func (r *Script) Done() bool {
	return r.done
}

// Settled reports whether the studio has no capture or animation in flight.
func (st *Studio) Settled() bool {
	if st.Busy() {
		return false
	}
	switch st.session.State() {
	case StateComputing, StateReady, StateAnimating:
		return false
	}
	return true
}

// step advances the script by one frame. Called from Studio.Update.
func (r *Script) step(st *Studio) {
	if r.done {
		return
	}
	r.advance(st)
	if r.cursor >= len(r.steps) && r.waitCount == 0 && !r.settling && len(st.injectQueue) == 0 {
		r.done = true
	}
}

func (r *Script) advance(st *Studio) {
	// Wait for pending strokes to drain before advancing.
	if len(st.injectQueue) > 0 {
		return
	}
	if r.waitCount > 0 {
		r.waitCount--
		return
	}
	if r.settling {
		if !st.Settled() {
			return
		}
		r.settling = false
	}
	if r.cursor >= len(r.steps) {
		return
	}

	s := r.steps[r.cursor]
	r.cursor++

	switch s.Action {
	case "stroke":
		st.InjectStroke(s.FromX, s.FromY, s.ToX, s.ToY, max(s.Frames, 2))
	case "clear":
		st.Clear()
	case "capture":
		st.Recapture()
	case "brush":
		col, _ := parseHexColor(s.Color)
		st.canvas.SetBrush(s.Width, col)
	case "debug":
		st.SetDebugColors(s.On)
	case "replay":
		st.session.Replay()
	case "wait":
		if s.Frames > 0 {
			r.waitCount = s.Frames - 1 // this frame counts as one
		}
	case "settle":
		r.settling = true
	case "screenshot":
		st.Screenshot(s.Label)
	}
}
