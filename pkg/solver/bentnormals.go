package solver

import "github.com/texelbake/texelbake/pkg/math3d"

// BentNormals is the Monte-Carlo solver emitting the average unoccluded
// hemisphere direction at each texel.
type BentNormals struct {
	Common
	opts         MonteCarloOptions
	pool         *SamplePool
	frames       []RayFrame
	out          []math3d.Vec3
	TangentSpace bool
}

// NewBentNormals constructs a BentNormals solver.
func NewBentNormals(c Common, opts MonteCarloOptions, tangentSpace bool) *BentNormals {
	return &BentNormals{
		Common:       c,
		opts:         opts,
		pool:         NewSamplePool(opts.SampleCount),
		frames:       buildFrames(c.Tex, c.Mapped, c.Flat),
		out:          make([]math3d.Vec3, c.WorkCount()),
		TangentSpace: tangentSpace,
	}
}

func (b *BentNormals) Name() string { return "bent_normals" }

func (b *BentNormals) RunStep() bool {
	start, end, done := b.advance()
	parallelOverTexels(end-start, func(j int) {
		i := start + j
		perm := b.pool.Permutation(i)
		_, vectorSum := sampleTexel(b.Flat, b.frames[i], b.pool, perm, false, b.opts, bentNormalEmit)
		b.out[i] = vectorSum.Normalize()
	})
	return done
}

func (b *BentNormals) Finish() Output {
	out := b.out
	if b.TangentSpace {
		out = ToTangentSpace(out, b.Tex)
	}
	return Output{Kind: KindVector, Vector: out}
}

// bentNormalEmit contributes the sample direction only when it was
// unoccluded; the normalized sum approximates the average unoccluded
// direction.
func bentNormalEmit(_ float64, hit bool, dir math3d.Vec3) (float64, math3d.Vec3) {
	if hit {
		return 0, math3d.Vec3{}
	}
	return 0, dir
}
