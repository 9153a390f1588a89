package solver

import "github.com/texelbake/texelbake/pkg/math3d"

// ThicknessOptions extends MonteCarloOptions with the inverted-writer open
// question from spec.md §9: the legacy source's ExportAOMap path writes
// `1.0 - d`, a later revision writes d directly. This module defaults to
// the direct convention and exposes the inversion as an explicit option
// rather than hard-coding either, per the open question's own instruction.
type ThicknessOptions struct {
	MonteCarloOptions
	InvertOutput bool
}

// Thickness is the Monte-Carlo solver estimating the expected inbound-ray
// depth of the solid body at a surface point: the hemisphere is inverted
// (sampled on the inward side of the true surface normal) while the ray
// origin is still offset outward along the true normal by MinDistance, so
// the ray crosses back into the mesh before measuring its exit depth.
type Thickness struct {
	Common
	opts   ThicknessOptions
	pool   *SamplePool
	frames []RayFrame
	out    []float64
}

// NewThickness constructs a Thickness solver.
func NewThickness(c Common, opts ThicknessOptions) *Thickness {
	return &Thickness{
		Common: c,
		opts:   opts,
		pool:   NewSamplePool(opts.SampleCount),
		frames: buildFrames(c.Tex, c.Mapped, c.Flat),
		out:    make([]float64, c.WorkCount()),
	}
}

func (th *Thickness) Name() string { return "thickness" }

func (th *Thickness) RunStep() bool {
	start, end, done := th.advance()
	maxDist := th.opts.MaxDistance
	parallelOverTexels(end-start, func(j int) {
		i := start + j
		perm := th.pool.Permutation(i)
		emit := func(dist float64, hit bool, _ math3d.Vec3) (float64, math3d.Vec3) {
			if hit {
				return dist, math3d.Vec3{}
			}
			return maxDist, math3d.Vec3{}
		}
		scalarSum, _ := sampleTexel(th.Flat, th.frames[i], th.pool, perm, true, th.opts.MonteCarloOptions, emit)
		result := scalarSum / float64(th.opts.SampleCount)
		if th.opts.InvertOutput {
			result = 1.0 - result
		}
		th.out[i] = result
	})
	return done
}

func (th *Thickness) Finish() Output {
	return Output{Kind: KindScalar, Scalar: th.out}
}
