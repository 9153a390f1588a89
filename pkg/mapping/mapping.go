// Package mapping traces one ray per valid UV texel against a flattened BVH
// to find the nearest high-poly triangle, recording its barycentrics and
// triangle index. Grounded on original_source/Src/meshmapping.cpp's
// traversal loop and scheduling constants; the ray/AABB and Möller-Trumbore
// primitives it calls live in pkg/bvh (the teacher has no ray-casting path
// of its own — pkg/render/rasterizer.go is screen-space only).
package mapping

import (
	"math"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/texelbake/texelbake/pkg/bvh"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// TriangleNone marks a mapping miss: no triangle intersected the ray.
const TriangleNone = ^uint32(0)

// Scheduling constants carried verbatim from meshmapping.cpp, translated
// from GPU compute-dispatch group/slice sizes to the solvers' cooperative
// RunStep slicing (pkg/solver) and goroutine-parallel slice dispatch.
const (
	GroupSize    = 64
	WorkPerFrame = 1024 * 128
)

// Result is the per-texel mapping outcome: hit barycentrics, ray parameter,
// and the hit triangle's flat-BVH vertex-triple start index (or
// TriangleNone on a miss).
type Result struct {
	U, V, W, T float64
	Triangle   uint32
}

// Options configures the per-texel ray cast.
type Options struct {
	CullBackfaces bool
}

// Map traces one ray per valid texel in tex against flat, in parallel
// across runtime.GOMAXPROCS(0) goroutines. The result slice has exactly
// tex.Len() entries (the group-size padding from spec.md §4.4 is an
// artifact of the GPU dispatch model and is not reproduced). Map processes
// every texel in one call; it is not split into cooperative slices.
func Map(tex *uvraster.Compressed, flat *bvh.Flat, opts Options) []Result {
	n := tex.Len()
	results := make([]Result, n)

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
				results[i] = traceOne(tex, flat, i, opts)
			}
			return nil
		})
	}
	_ = g.Wait()

	return results
}

func traceOne(tex *uvraster.Compressed, flat *bvh.Flat, i int, opts Options) Result {
	ray := bvh.Ray{Origin: tex.Positions[i], Direction: tex.Directions[i]}

	hit, tri, ok := bvh.TraverseNearest(flat, ray, math.Inf(1), opts.CullBackfaces)
	if !ok {
		return Result{Triangle: TriangleNone}
	}
	return Result{U: hit.U, V: hit.V, W: hit.W, T: hit.T, Triangle: tri}
}

// HitPoint returns the world-space point the mapping ray hit, origin +
// direction*t, used by solvers that need the actual intersection location
// rather than the barycentric reconstruction.
func HitPoint(tex *uvraster.Compressed, i int, r Result) math3d.Vec3 {
	return tex.Positions[i].Add(tex.Directions[i].Scale(r.T))
}
