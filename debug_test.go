package pixelmorph

import (
	"bytes"
	"errors"
	"os"
	"strings"
	"testing"
	"time"
)

// captureStderr returns everything fn writes to os.Stderr.
func captureStderr(t *testing.T, fn func()) string {
	t.Helper()
	oldStderr := os.Stderr
	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	os.Stderr = w

	fn()

	w.Close()
	os.Stderr = oldStderr

	var buf bytes.Buffer
	buf.ReadFrom(r)
	return buf.String()
}

func TestDebugLogReportsCapture(t *testing.T) {
	st := newTestStudio(8)
	st.SetDebugMode(true)

	output := captureStderr(t, func() {
		st.record(Result{Generation: 3, Engine: EngineScript, Score: 87.5, Elapsed: 2 * time.Millisecond})
	})

	for _, want := range []string{"[pixelmorph] capture 3", "engine: script", "similarity: 87.5", "state: idle"} {
		if !strings.Contains(output, want) {
			t.Errorf("output %q missing %q", output, want)
		}
	}
}

func TestDebugLogStale(t *testing.T) {
	st := newTestStudio(8)
	st.SetDebugMode(true)

	output := captureStderr(t, func() {
		st.record(Result{Generation: 1, Stale: true})
	})
	if !strings.Contains(output, "superseded") {
		t.Errorf("output %q missing stale notice", output)
	}
	if st.LastResult().Generation != 0 {
		t.Error("stale result was recorded")
	}
}

func TestDebugLogDisabled(t *testing.T) {
	st := newTestStudio(8)

	output := captureStderr(t, func() {
		st.record(Result{Generation: 1, Engine: EngineScript})
	})
	if output != "" {
		t.Errorf("expected no output with debug off, got %q", output)
	}
}

func TestRecordLogsErrorsRegardlessOfDebug(t *testing.T) {
	st := newTestStudio(8)

	output := captureStderr(t, func() {
		st.record(Result{Generation: 4, Err: errors.New("kaput")})
	})
	if !strings.Contains(output, "capture 4: kaput") {
		t.Errorf("output %q missing error", output)
	}
	if st.LastResult().Err == nil {
		t.Error("failed result was not recorded")
	}
}
