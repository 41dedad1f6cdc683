// Command pixelmorph rearranges the pixels of one image into the shape of
// another and animates the transition.
//
//	pixelmorph -source a.png -target b.png -out frames
//	pixelmorph -target b.png -view
//	pixelmorph -target b.png -script demo.json
//	pixelmorph -source a.png -target b.png -watch
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"image"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/phanxgames/pixelmorph"
	"github.com/phanxgames/pixelmorph/viewer"
)

// maxScriptFrames bounds a headless script run (ten minutes at 60 fps).
const maxScriptFrames = 60 * 60 * 10

type options struct {
	source, target string
	configPath     string
	out            string
	frames         int
	script         string
	kernel         string
	watch          bool
	view           bool
	debug          bool
}

func main() {
	var opts options
	flag.StringVar(&opts.source, "source", "", "Source image; its pixels are rearranged")
	flag.StringVar(&opts.target, "target", "", "Target image; the shape to morph into")
	flag.StringVar(&opts.configPath, "config", "pixelmorph.toml", "Path to config file (TOML)")
	flag.StringVar(&opts.out, "out", "", "Directory to export animation frames to (default from config)")
	flag.IntVar(&opts.frames, "frames", 0, "Number of frames to export (default from config)")
	flag.StringVar(&opts.script, "script", "", "Run a JSON studio script headless")
	flag.StringVar(&opts.kernel, "kernel", "", "Path to a native WebAssembly mapping kernel")
	flag.BoolVar(&opts.watch, "watch", false, "Recompute whenever the source or target changes")
	flag.BoolVar(&opts.view, "view", false, "Open the interactive viewer")
	flag.BoolVar(&opts.debug, "debug", false, "Print per-capture stats to stderr")
	flag.Parse()

	cfg, err := pixelmorph.LoadConfig(opts.configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}
	if opts.kernel != "" {
		cfg.Kernel = opts.kernel
	}
	if opts.out != "" {
		cfg.Export.Dir = opts.out
	}
	if opts.frames > 0 {
		cfg.Export.Frames = opts.frames
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, opts); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, cfg *pixelmorph.Config, opts options) error {
	engine, err := newEngine(ctx, cfg)
	if err != nil {
		return err
	}
	defer engine.Close(context.Background())

	sessOpts, err := cfg.SessionOptions()
	if err != nil {
		return err
	}
	session := pixelmorph.NewSession(engine, sessOpts)
	defer session.Close()

	switch {
	case opts.view:
		return runViewer(ctx, cfg, session, opts)
	case opts.script != "":
		return runScript(ctx, cfg, session, opts)
	case opts.watch:
		return runWatch(ctx, cfg, session, opts)
	default:
		return runOnce(ctx, cfg, session, opts)
	}
}

// newEngine builds the engine and, when a kernel is configured, waits for
// the native backend to load or fail before returning.
func newEngine(ctx context.Context, cfg *pixelmorph.Config) (*pixelmorph.Engine, error) {
	engine, err := cfg.NewEngine()
	if err != nil {
		return nil, err
	}
	if cfg.Kernel == "" {
		return engine, nil
	}
	engine.LoadNative(ctx, func(ctx context.Context) (pixelmorph.Backend, error) {
		return pixelmorph.LoadWasmKernelFile(ctx, cfg.Kernel)
	})
	select {
	case <-engine.NativeReady():
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	if engine.NativeActive() {
		fmt.Printf("Native kernel loaded from '%s'\n", cfg.Kernel)
	}
	return engine, nil
}

func loadPair(cfg *pixelmorph.Config, source, target string) (*image.RGBA, *image.RGBA, error) {
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, nil, err
	}
	src, err := pixelmorph.LoadImage(source, cfg.Size, bg)
	if err != nil {
		return nil, nil, err
	}
	tgt, err := pixelmorph.LoadImage(target, cfg.Size, bg)
	if err != nil {
		return nil, nil, err
	}
	return src, tgt, nil
}

func runOnce(ctx context.Context, cfg *pixelmorph.Config, session *pixelmorph.Session, opts options) error {
	if opts.source == "" || opts.target == "" {
		fmt.Fprintln(os.Stderr, "Usage: pixelmorph -source <image> -target <image> [-out dir] [-frames n] [-config pixelmorph.toml]")
		fmt.Fprintln(os.Stderr, "       pixelmorph -target <image> -view | -script <file.json>")
		flag.PrintDefaults()
		os.Exit(1)
	}
	src, tgt, err := loadPair(cfg, opts.source, opts.target)
	if err != nil {
		return err
	}
	return computeAndExport(ctx, cfg, session, src, tgt, opts.debug)
}

func computeAndExport(ctx context.Context, cfg *pixelmorph.Config, session *pixelmorph.Session, src, tgt *image.RGBA, debug bool) error {
	res := session.Compute(ctx, src, tgt)
	if res.Err != nil {
		return res.Err
	}
	fmt.Printf("Mapped %dx%d pixels with the %s engine in %.2fs (similarity %.1f)\n",
		cfg.Size, cfg.Size, res.Engine, res.Elapsed.Seconds(), res.Score)
	if debug {
		fmt.Fprintf(os.Stderr, "[pixelmorph] capture %d | policy: %s | threshold: %g\n",
			res.Generation, cfg.Policy, cfg.Threshold)
	}

	if cfg.Export.Frames == 0 {
		return nil
	}
	start := time.Now()
	paths, err := pixelmorph.ExportFrames(session, cfg.Export.Dir, "morph", cfg.Export.Frames)
	if err != nil {
		return err
	}
	fmt.Printf("Wrote %d frames to '%s' in %.2fs\n", len(paths), cfg.Export.Dir, time.Since(start).Seconds())
	return nil
}

func runWatch(ctx context.Context, cfg *pixelmorph.Config, session *pixelmorph.Session, opts options) error {
	if opts.source == "" || opts.target == "" {
		return errors.New("-watch requires -source and -target")
	}
	recompute := func() {
		src, tgt, err := loadPair(cfg, opts.source, opts.target)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			return
		}
		if err := computeAndExport(ctx, cfg, session, src, tgt, opts.debug); err != nil && ctx.Err() == nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
	}
	recompute()

	fmt.Printf("Watching '%s' and '%s' (Ctrl+C to stop)...\n", opts.source, opts.target)
	return pixelmorph.WatchImages(ctx, []string{opts.source, opts.target}, cfg.Watch.Debounce(), func(path string) {
		fmt.Printf("Change detected in '%s'\n", filepath.Base(path))
		recompute()
	})
}

// newStudio builds a studio with the configured canvas, seeded from the
// source image when one is given. The target is not set yet.
func newStudio(ctx context.Context, cfg *pixelmorph.Config, session *pixelmorph.Session, opts options) (*pixelmorph.Studio, *image.RGBA, error) {
	if opts.target == "" {
		return nil, nil, errors.New("a -target image is required")
	}
	bg, err := cfg.BackgroundColor()
	if err != nil {
		return nil, nil, err
	}
	palette, err := cfg.PaletteColors()
	if err != nil {
		return nil, nil, err
	}
	canvas := pixelmorph.NewCanvas(cfg.Size, bg)
	if len(palette) > 0 {
		canvas.SetBrush(cfg.Canvas.Brush, palette[0])
	}
	if opts.source != "" {
		src, err := pixelmorph.LoadImage(opts.source, cfg.Size, bg)
		if err != nil {
			return nil, nil, err
		}
		canvas.Load(src)
	}
	tgt, err := pixelmorph.LoadImage(opts.target, cfg.Size, bg)
	if err != nil {
		return nil, nil, err
	}

	st := pixelmorph.NewStudio(ctx, session, canvas)
	st.SetDebugMode(opts.debug)
	if opts.out != "" {
		st.ScreenshotDir = opts.out
	}
	return st, tgt, nil
}

func runViewer(ctx context.Context, cfg *pixelmorph.Config, session *pixelmorph.Session, opts options) error {
	st, tgt, err := newStudio(ctx, cfg, session, opts)
	if err != nil {
		return err
	}
	if opts.script != "" {
		script, err := pixelmorph.LoadScriptFile(opts.script)
		if err != nil {
			return err
		}
		st.SetScript(script)
	}
	st.SetTarget(tgt)

	bg, _ := cfg.BackgroundColor()
	palette, _ := cfg.PaletteColors()
	return viewer.Run(st, viewer.RunConfig{
		Title:      "pixelmorph - " + strings.TrimSuffix(filepath.Base(opts.target), filepath.Ext(opts.target)),
		Scale:      2,
		Background: bg,
		Palette:    palette,
		ShowFPS:    opts.debug,
	})
}

// runScript drives the studio with virtual time at 60 frames per second
// until the script has finished and the last morph has settled.
func runScript(ctx context.Context, cfg *pixelmorph.Config, session *pixelmorph.Session, opts options) error {
	script, err := pixelmorph.LoadScriptFile(opts.script)
	if err != nil {
		return err
	}
	st, tgt, err := newStudio(ctx, cfg, session, opts)
	if err != nil {
		return err
	}
	st.SetScript(script)
	st.SetTarget(tgt)

	now := time.Now()
	for frame := 0; frame < maxScriptFrames; frame++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		st.Update(now)
		if st.Busy() {
			st.WaitIdle()
		}
		if script.Done() && st.Settled() {
			res := st.LastResult()
			fmt.Printf("Script finished after %d frames (engine %s, similarity %.1f)\n", frame+1, res.Engine, res.Score)
			return res.Err
		}
		now = now.Add(time.Second / 60)
	}
	return fmt.Errorf("script did not finish within %d frames", maxScriptFrames)
}
