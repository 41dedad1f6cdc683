package pixelmorph

import (
	"fmt"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Screenshot queues a labeled capture of the output frame, written at the end
// of the current Update to ScreenshotDir with a timestamped filename.
func (st *Studio) Screenshot(label string) {
	st.screenshotQueue = append(st.screenshotQueue, label)
}

// flushScreenshots writes the current frame once per queued label. Without a
// rendered frame the queue is dropped.
func (st *Studio) flushScreenshots() {
	if len(st.screenshotQueue) == 0 {
		return
	}
	defer func() { st.screenshotQueue = st.screenshotQueue[:0] }()

	if st.frame == nil {
		_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] screenshot: no frame rendered yet\n")
		return
	}
	if err := os.MkdirAll(st.ScreenshotDir, 0o755); err != nil {
		_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] screenshot: mkdir %s: %v\n", st.ScreenshotDir, err)
		return
	}

	stamp := time.Now().Format("20060102_150405")
	for _, label := range st.screenshotQueue {
		path := filepath.Join(st.ScreenshotDir, fmt.Sprintf("%s_%s.png", stamp, sanitizeLabel(label)))
		if err := writePNG(path, st.frame); err != nil {
			_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] screenshot: %v\n", err)
		}
	}
}

// ExportFrames renders the session's installed mapping at frames evenly spaced
// values of t from 0 to 1 and writes them to dir as <label>_NNN.png. It
// returns the written paths.
func ExportFrames(s *Session, dir, label string, frames int) ([]string, error) {
	if frames < 2 {
		frames = 2
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("export frames: %w", err)
	}

	frame := image.NewRGBA(image.Rect(0, 0, s.Size(), s.Size()))
	label = sanitizeLabel(label)
	paths := make([]string, 0, frames)
	for i := 0; i < frames; i++ {
		t := float64(i) / float64(frames-1)
		if !s.RenderAt(frame, t) {
			return paths, fmt.Errorf("export frames: no mapping installed")
		}
		path := filepath.Join(dir, fmt.Sprintf("%s_%03d.png", label, i))
		if err := writePNG(path, frame); err != nil {
			return paths, err
		}
		paths = append(paths, path)
	}
	return paths, nil
}

// writePNG encodes an image to a PNG file at the given path.
func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}

// sanitizeLabel replaces characters that are unsafe in file names with
// underscores and falls back to "unlabeled" for empty strings.
func sanitizeLabel(label string) string {
	label = strings.TrimSpace(label)
	if label == "" {
		return "unlabeled"
	}
	var b strings.Builder
	b.Grow(len(label))
	for _, r := range label {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z',
			r >= '0' && r <= '9', r == '-', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
	}
	return b.String()
}
