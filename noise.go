package shroud

import (
	"math"
)

// Distribution selects the noise distribution for NewNoise.
type Distribution string

const (
	// Uniform draws noise uniformly from [-maxAbs, +maxAbs).
	// Zero mean, variance maxAbs²/3.
	Uniform Distribution = "uniform"

	// Laplace draws noise from a Laplace distribution with scale
	// b = maxAbs/ln2, placing ≈50% of the mass within ±maxAbs.
	Laplace Distribution = "laplace"
)

// laplaceEps keeps the uniform draw away from ±0.5, where the inverse
// CDF's log term is singular.
const laplaceEps = 1e-12

// Noise adds calibrated statistical noise to a numeric value.
// maxAbs = 0 is an explicit identity escape. Construct with NewNoise.
type Noise struct {
	maxAbs float64
	dist   Distribution
	ent    entropy
}

// NoiseOption configures a Noise primitive.
type NoiseOption func(*Noise)

// WithSeed attaches a seed provider, making the noise deterministic per
// provider-observed key.
func WithSeed(p SeedProvider) NoiseOption {
	return func(n *Noise) { n.ent.provider = p }
}

// NewNoise returns a noise-addition primitive.
// maxAbs must be ≥ 0 and dist one of Uniform or Laplace; anything else is
// a construction error.
func NewNoise(maxAbs float64, dist Distribution, opts ...NoiseOption) (*Noise, error) {
	if maxAbs < 0 || math.IsNaN(maxAbs) || math.IsInf(maxAbs, 0) {
		return nil, newConfigError("noise", "maxAbs", "must be a finite value >= 0")
	}
	switch dist {
	case Uniform, Laplace:
	default:
		return nil, newConfigError("noise", "distribution", "must be uniform or laplace")
	}
	n := &Noise{maxAbs: maxAbs, dist: dist}
	for _, opt := range opts {
		opt(n)
	}
	return n, nil
}

// TransformNumber returns f plus one noise draw.
func (n *Noise) TransformNumber(f float64) (float64, error) {
	if n.maxAbs == 0 {
		return f, nil
	}
	return f + n.sample(f), nil
}

// sample draws one noise value for input v.
func (n *Noise) sample(v any) float64 {
	gen := n.ent.generator(v)
	switch n.dist {
	case Laplace:
		// Inverse CDF over u ~ U(-0.5, 0.5), clamped off the singularity.
		u := gen.Float64() - 0.5
		if u > 0.5-laplaceEps {
			u = 0.5 - laplaceEps
		}
		if u < -(0.5 - laplaceEps) {
			u = -(0.5 - laplaceEps)
		}
		b := n.maxAbs / math.Ln2
		sign := 1.0
		if u < 0 {
			sign = -1.0
		}
		return -b * sign * math.Log(1-2*math.Abs(u))
	default:
		return gen.Float64()*2*n.maxAbs - n.maxAbs
	}
}

// saturateInt narrows a float64 to the given signed integer bounds,
// clamping instead of wrapping.
func saturateInt(f float64, min, max int64) int64 {
	if math.IsNaN(f) {
		return 0
	}
	if f >= float64(max) {
		return max
	}
	if f <= float64(min) {
		return min
	}
	return int64(math.RoundToEven(f))
}

// saturateUint narrows a float64 to an unsigned integer bound.
func saturateUint(f float64, max uint64) uint64 {
	if math.IsNaN(f) || f <= 0 {
		return 0
	}
	if f >= float64(max) {
		return max
	}
	return uint64(math.RoundToEven(f))
}
