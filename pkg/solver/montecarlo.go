package solver

import (
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/texelbake/texelbake/pkg/bvh"
	"github.com/texelbake/texelbake/pkg/mapping"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// MonteCarloOptions configures a hemisphere-sampling solver.
type MonteCarloOptions struct {
	SampleCount              int
	MinDistance, MaxDistance float64
	CullBackfaces            bool
}

// buildFrames is phase 1 (ray-data generation): for every texel with a
// mapping hit, compute the geometric normal of the hit triangle, the world
// hit point, and an orthonormal tangent frame aligned to that normal.
// Misses produce the zero RayFrame (Valid == false), so every per-sample
// contribution from that texel reads as occluded/no-hit.
func buildFrames(tex *uvraster.Compressed, mapped []mapping.Result, flat *bvh.Flat) []RayFrame {
	frames := make([]RayFrame, len(mapped))
	for i, r := range mapped {
		if r.Triangle == mapping.TriangleNone {
			continue
		}
		p0, p1, p2 := TrianglePositions(flat, r.Triangle)
		n := bvh.GeometricNormal(p0, p1, p2)
		origin := tex.Positions[i].Add(tex.Directions[i].Scale(r.T))
		tx, ty := OrthonormalBasis(n)
		frames[i] = RayFrame{Origin: origin, Normal: n, TangentX: tx, TangentY: ty, Valid: true}
	}
	return frames
}

// sampleTexel runs phase 2 (sampling) for one texel: casts SampleCount
// hemisphere rays from frame, offset outward by MinDistance along frame's
// normal, accumulating contributions via emit. perm selects this texel's
// deterministic sample permutation (pool.Permutation(linearTexelIndex)).
// invert flips the sampled hemisphere to the opposite side of frame's true
// surface normal (thickness.go), while the ray origin is still offset
// outward along the true normal — spec.md §9's "keep these two conventions
// consistent" resolution.
func sampleTexel(flat *bvh.Flat, frame RayFrame, pool *SamplePool, perm int, invert bool, opts MonteCarloOptions,
	emit func(hitDist float64, hit bool, dir math3d.Vec3) (scalar float64, vector math3d.Vec3)) (scalarSum float64, vectorSum math3d.Vec3) {

	if !frame.Valid {
		for k := 0; k < opts.SampleCount; k++ {
			s, v := emit(0, false, math3d.Vec3{})
			scalarSum += s
			vectorSum = vectorSum.Add(v)
		}
		return scalarSum, vectorSum
	}

	dirNormal := frame.Normal
	if invert {
		dirNormal = frame.Normal.Negate()
	}
	origin := frame.Origin.Add(frame.Normal.Scale(opts.MinDistance))
	for k := 0; k < opts.SampleCount; k++ {
		dir := ToWorld(pool.Sample(perm, k), frame.TangentX, frame.TangentY, dirNormal)
		ray := bvh.Ray{Origin: origin, Direction: dir}
		hit, _, ok := bvh.TraverseNearest(flat, ray, opts.MaxDistance, opts.CullBackfaces)

		s, v := emit(hit.T, ok, dir)
		scalarSum += s
		vectorSum = vectorSum.Add(v)
	}
	return scalarSum, vectorSum
}

// parallelOverTexels runs fn(i) for every texel index in [0,n) across
// runtime.GOMAXPROCS(0) goroutines, matching pkg/mapping.Map's chunking.
func parallelOverTexels(n int, fn func(i int)) {
	workers := runtime.GOMAXPROCS(0)
	if workers > n {
		workers = n
	}
	if workers < 1 {
		workers = 1
	}
	var g errgroup.Group
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := start + chunk
		if start >= n {
			break
		}
		if end > n {
			end = n
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				fn(i)
			}
			return nil
		})
	}
	_ = g.Wait()
}
