package pixelmorph

import (
	"fmt"
	"os"
)

// debugLog prints the outcome and timing of one capture to stderr.
func (st *Studio) debugLog(res Result) {
	if !st.debug {
		return
	}
	if res.Stale {
		_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] capture %d: superseded after %v\n",
			res.Generation, res.Elapsed)
		return
	}
	_, _ = fmt.Fprintf(os.Stderr,
		"[pixelmorph] capture %d | engine: %s | similarity: %.1f | compute: %v\n",
		res.Generation, res.Engine, res.Score, res.Elapsed)
	_, _ = fmt.Fprintf(os.Stderr, "[pixelmorph] state: %s | pending: %d | injected: %d\n",
		st.session.State(), len(st.pending), len(st.injectQueue))
}
