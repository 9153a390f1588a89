package solver

import "github.com/texelbake/texelbake/pkg/math3d"

// AO is the ambient-occlusion Monte-Carlo solver: the cosine-weighted
// hemisphere's hit fraction estimates the fraction of the hemisphere
// blocked by nearby geometry within MaxDistance.
type AO struct {
	Common
	opts   MonteCarloOptions
	pool   *SamplePool
	frames []RayFrame
	out    []float64
}

// NewAO constructs an AO solver, running phase 1 (ray-data generation)
// eagerly since it is O(N), not O(N·S) like phase 2.
func NewAO(c Common, opts MonteCarloOptions) *AO {
	return &AO{
		Common: c,
		opts:   opts,
		pool:   NewSamplePool(opts.SampleCount),
		frames: buildFrames(c.Tex, c.Mapped, c.Flat),
		out:    make([]float64, c.WorkCount()),
	}
}

func (a *AO) Name() string { return "ao" }

func (a *AO) RunStep() bool {
	start, end, done := a.advance()
	parallelOverTexels(end-start, func(j int) {
		i := start + j
		perm := a.pool.Permutation(i)
		scalarSum, _ := sampleTexel(a.Flat, a.frames[i], a.pool, perm, false, a.opts, aoEmit)
		a.out[i] = scalarSum / float64(a.opts.SampleCount)
	})
	return done
}

func (a *AO) Finish() Output {
	return Output{Kind: KindScalar, Scalar: a.out}
}

func aoEmit(_ float64, hit bool, _ math3d.Vec3) (float64, math3d.Vec3) {
	if hit {
		return 1, math3d.Vec3{}
	}
	return 0, math3d.Vec3{}
}
