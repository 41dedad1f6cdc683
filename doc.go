// Package pixelmorph rearranges the pixels of a source image so that, taken
// as a whole, they approximate a target image, and animates each pixel
// flying from its origin to its destination.
//
// # Quick start
//
// A [Session] owns the current mapping and the animation clock. Compute a
// mapping, then call [Session.Update] once per frame:
//
//	engine := pixelmorph.NewEngine(pixelmorph.ScriptBackend{
//		Policy:    pixelmorph.PolicySegmented,
//		Threshold: pixelmorph.DefaultThreshold,
//	})
//	session := pixelmorph.NewSession(engine, pixelmorph.SessionOptions{Size: 256})
//	res := session.Compute(ctx, source, target)
//	if res.Err != nil {
//		// ...
//	}
//	frame, _ := session.Update(time.Now())
//
// [Session.Capture] is the asynchronous form: a newer capture supersedes an
// older one, whose result arrives with Stale set and is never installed.
//
// # Mapping
//
// Both images are indexed by perceptual brightness ([IndexByBrightness]) and
// paired rank by rank. [PolicySegmented], the default, first pairs the
// bright "active" pixels of each image among themselves so a sparse drawing
// fills the target's subject rather than its background. The result is a
// [Permutation]: Permutation[i] is the destination of source pixel i, and
// every destination is used exactly once.
//
// # Engines
//
// An [Engine] tries an optional native backend and falls back to
// [ScriptBackend]. The native backend is a WebAssembly kernel run with
// wazero ([LoadWasmKernel]); a kernel that traps is disabled for the rest of
// the process, while a result that fails validation only falls back for
// that request.
//
// # Studio
//
// [Studio] wires a freehand [Canvas] to a Session: each finished stroke
// captures the canvas as the new source. The viewer package hosts a Studio
// in an ebiten window, and [Script] drives one unattended from JSON.
//
// Configuration is read from TOML with [LoadConfig].
package pixelmorph
