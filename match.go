package pixelmorph

import (
	"errors"
	"fmt"
)

// Errors
var (
	ErrSizeMismatch = errors.New("pixelmorph: size mismatch")
	ErrNotBijective = errors.New("pixelmorph: mapping is not a bijection")
)

// DefaultThreshold is the brightness above which a pixel counts as "active"
// for the segmented policy.
const DefaultThreshold = 20

// Permutation maps each source pixel index i to the target index p[i] its
// color moves to.
type Permutation []int32

// Validate reports an error unless every value in [0, len(p)) appears exactly
// once.
func (p Permutation) Validate() error {
	seen := make([]bool, len(p))
	for i, v := range p {
		if v < 0 || int(v) >= len(p) {
			return fmt.Errorf("%w: index %d maps to %d, outside [0,%d)", ErrNotBijective, i, v, len(p))
		}
		if seen[v] {
			return fmt.Errorf("%w: target %d assigned twice", ErrNotBijective, v)
		}
		seen[v] = true
	}
	return nil
}

// Policy selects how sorted source and target samples are paired.
type Policy uint8

const (
	PolicyDirect    Policy = iota // pair the i-th darkest source with the i-th darkest target
	PolicySegmented               // pair bright pixels first, then the remainders
)

func (p Policy) String() string {
	if p == PolicySegmented {
		return "segmented"
	}
	return "direct"
}

// ParsePolicy converts a policy name ("direct" or "segmented") to a Policy.
func ParsePolicy(name string) (Policy, error) {
	switch name {
	case "direct":
		return PolicyDirect, nil
	case "segmented", "":
		return PolicySegmented, nil
	}
	return 0, fmt.Errorf("unknown matching policy %q", name)
}

// Match pairs src with tgt using the policy. threshold is only consulted by
// PolicySegmented.
func (p Policy) Match(src, tgt []BrightnessSample, threshold float64) (Permutation, error) {
	if p == PolicySegmented {
		return MatchSegmented(src, tgt, threshold)
	}
	return MatchDirect(src, tgt)
}

// MatchDirect sets p[src[i].Index] = tgt[i].Index for every i.
func MatchDirect(src, tgt []BrightnessSample) (Permutation, error) {
	if len(src) != len(tgt) {
		return nil, fmt.Errorf("%w: %d source samples, %d target samples", ErrSizeMismatch, len(src), len(tgt))
	}
	p := newPermutation(len(src))
	pairInto(p, src, tgt)
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return p, nil
}

// MatchSegmented splits both sides at threshold into active (brighter) and
// background samples. The first k = min(active counts) actives are paired
// positionally; each side's leftover actives followed by its background are
// then paired positionally. Both remainders hold N-k samples. If either side
// has no active samples the result equals MatchDirect.
func MatchSegmented(src, tgt []BrightnessSample, threshold float64) (Permutation, error) {
	if len(src) != len(tgt) {
		return nil, fmt.Errorf("%w: %d source samples, %d target samples", ErrSizeMismatch, len(src), len(tgt))
	}
	srcActive, srcBackground := partition(src, threshold)
	tgtActive, tgtBackground := partition(tgt, threshold)
	if len(srcActive) == 0 || len(tgtActive) == 0 {
		return MatchDirect(src, tgt)
	}

	k := min(len(srcActive), len(tgtActive))
	p := newPermutation(len(src))
	pairInto(p, srcActive[:k], tgtActive[:k])
	pairInto(p, remainder(srcActive[k:], srcBackground), remainder(tgtActive[k:], tgtBackground))

	if err := p.Validate(); err != nil {
		return nil, fmt.Errorf("segmented match: %w", err)
	}
	return p, nil
}

// newPermutation returns a permutation with every slot unassigned (-1), so a
// slot missed by pairing fails Validate.
func newPermutation(n int) Permutation {
	p := make(Permutation, n)
	for i := range p {
		p[i] = -1
	}
	return p
}

func pairInto(p Permutation, src, tgt []BrightnessSample) {
	for i := range src {
		p[src[i].Index] = int32(tgt[i].Index)
	}
}

// partition splits samples into those brighter than threshold and the rest,
// preserving order within each part.
func partition(samples []BrightnessSample, threshold float64) (active, background []BrightnessSample) {
	for _, s := range samples {
		if s.Brightness > threshold {
			active = append(active, s)
		} else {
			background = append(background, s)
		}
	}
	return active, background
}

func remainder(leftover, background []BrightnessSample) []BrightnessSample {
	out := make([]BrightnessSample, 0, len(leftover)+len(background))
	out = append(out, leftover...)
	return append(out, background...)
}
