package pixelmorph

import (
	"errors"
	"fmt"
	"image/color"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/lucasb-eyer/go-colorful"
)

// CanvasConfig controls the scribble canvas.
type CanvasConfig struct {
	Brush   float64  `toml:"brush"`
	Palette []string `toml:"palette"`
}

// WatchConfig controls watch mode.
type WatchConfig struct {
	DebounceMS int `toml:"debounce_ms"` // 0 = default (300ms)
}

// Debounce returns the delay used to coalesce bursts of file events.
func (w WatchConfig) Debounce() time.Duration {
	if w.DebounceMS > 0 {
		return time.Duration(w.DebounceMS) * time.Millisecond
	}
	return 300 * time.Millisecond
}

// ExportConfig controls frame export.
type ExportConfig struct {
	Dir    string `toml:"dir"`
	Frames int    `toml:"frames"`
}

// Config is the on-disk configuration (TOML).
type Config struct {
	Size        int          `toml:"size"`
	DurationMS  int          `toml:"duration_ms"`
	Threshold   float64      `toml:"threshold"`
	Policy      string       `toml:"policy"`
	DebugColors bool         `toml:"debug_colors"`
	Easing      string       `toml:"easing"`
	Kernel      string       `toml:"kernel"`
	Background  string       `toml:"background"`
	Canvas      CanvasConfig `toml:"canvas"`
	Watch       WatchConfig  `toml:"watch"`
	Export      ExportConfig `toml:"export"`
}

// DefaultConfig returns the configuration used when no file is present.
func DefaultConfig() *Config {
	return &Config{
		Size:       DefaultSize,
		DurationMS: int(DefaultDuration / time.Millisecond),
		Threshold:  DefaultThreshold,
		Policy:     PolicySegmented.String(),
		Easing:     "linear",
		Background: "#05070b",
		Canvas: CanvasConfig{
			Brush:   6,
			Palette: []string{"#f8fafc", "#f43f5e", "#f59e0b", "#22c55e", "#38bdf8", "#a855f7"},
		},
		Export: ExportConfig{
			Dir:    "frames",
			Frames: 24,
		},
	}
}

// LoadConfig reads path over the defaults. A missing file is not an error.
func LoadConfig(path string) (*Config, error) {
	cfg := DefaultConfig()

	_, err := os.Stat(path)
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, err
	}

	if _, err := toml.DecodeFile(path, cfg); err != nil {
		return nil, fmt.Errorf("parsing config %s: %w", path, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks every option.
func (c *Config) Validate() error {
	if c.Size <= 0 {
		return fmt.Errorf("size must be positive, got %d", c.Size)
	}
	if c.DurationMS < 0 {
		return fmt.Errorf("duration_ms must not be negative, got %d", c.DurationMS)
	}
	if c.Threshold < 0 || c.Threshold > 255 {
		return fmt.Errorf("threshold must be within [0, 255], got %g", c.Threshold)
	}
	if _, err := ParsePolicy(c.Policy); err != nil {
		return err
	}
	if _, err := EasingByName(c.Easing); err != nil {
		return err
	}
	if _, err := c.BackgroundColor(); err != nil {
		return err
	}
	if _, err := c.PaletteColors(); err != nil {
		return err
	}
	if c.Canvas.Brush <= 0 {
		return fmt.Errorf("canvas brush must be positive, got %g", c.Canvas.Brush)
	}
	if c.Export.Frames < 0 {
		return fmt.Errorf("export frames must not be negative, got %d", c.Export.Frames)
	}
	return nil
}

// Duration returns the animation duration.
func (c *Config) Duration() time.Duration {
	return time.Duration(c.DurationMS) * time.Millisecond
}

// SessionOptions converts the configuration into SessionOptions.
func (c *Config) SessionOptions() (SessionOptions, error) {
	fn, err := EasingByName(c.Easing)
	if err != nil {
		return SessionOptions{}, err
	}
	d := c.Duration()
	if d == 0 {
		// NewSession reads 0 as "default"; 1ns settles on the second frame.
		d = time.Nanosecond
	}
	return SessionOptions{
		Size:        c.Size,
		Duration:    d,
		Easing:      fn,
		DebugColors: c.DebugColors,
	}, nil
}

// NewEngine returns an Engine whose fallback is the script backend with the
// configured policy and threshold. The native kernel is not loaded.
func (c *Config) NewEngine() (*Engine, error) {
	policy, err := ParsePolicy(c.Policy)
	if err != nil {
		return nil, err
	}
	return NewEngine(ScriptBackend{Policy: policy, Threshold: c.Threshold}), nil
}

// BackgroundColor parses Background.
func (c *Config) BackgroundColor() (color.RGBA, error) {
	bg, err := parseHexColor(c.Background)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("background: %w", err)
	}
	return bg, nil
}

// PaletteColors parses the canvas palette.
func (c *Config) PaletteColors() ([]color.RGBA, error) {
	out := make([]color.RGBA, 0, len(c.Canvas.Palette))
	for i, hex := range c.Canvas.Palette {
		col, err := parseHexColor(hex)
		if err != nil {
			return nil, fmt.Errorf("canvas palette[%d]: %w", i, err)
		}
		out = append(out, col)
	}
	return out, nil
}

func parseHexColor(hex string) (color.RGBA, error) {
	c, err := colorful.Hex(hex)
	if err != nil {
		return color.RGBA{}, fmt.Errorf("invalid hex color %q: %w", hex, err)
	}
	r, g, b := c.RGB255()
	return color.RGBA{R: r, G: g, B: b, A: 0xff}, nil
}
