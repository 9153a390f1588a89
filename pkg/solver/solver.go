// Package solver implements the six per-texel attribute solvers: three
// direct solvers (height, position, normal) that read the mapping result
// straight through, and three Monte-Carlo solvers (ambient occlusion, bent
// normals, thickness) that run hemispherical sampling against the BVH in
// the three-phase shape from spec.md §4.5 (ray-data generation → sampling →
// aggregation). Solvers differ only in their per-sample emission and
// aggregation operator — modeled as a capability set of plain functions
// rather than an inheritance chain, per spec.md §9's design note.
package solver

import (
	"github.com/texelbake/texelbake/pkg/bvh"
	"github.com/texelbake/texelbake/pkg/mapping"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// RayFrame is the per-texel orthonormal frame aligned to the hit point's
// geometric normal, used to transform canonical hemisphere samples into
// world space for the Monte-Carlo solvers. A miss (Triangle == TriangleNone
// during phase 1) produces the zero frame, and every per-sample
// contribution for that texel must read as occluded/no-hit.
type RayFrame struct {
	Origin, Normal, TangentX, TangentY math3d.Vec3
	Valid                              bool
}

// Output carries a solver's per-texel results. Exactly one of Scalar/Vector
// is populated, matching the solver's declared Kind.
type Output struct {
	Kind   Kind
	Scalar []float64
	Vector []math3d.Vec3
}

// Kind distinguishes scalar solvers (height, AO, thickness) from vector
// solvers (position, normal, bent normals) for the image writer.
type Kind int

const (
	KindScalar Kind = iota
	KindVector
)

// Solver is the capability set every attribute solver implements. There is
// no Init method: each New* constructor primes the solver from the shared
// mapping/BVH data. RunStep advances its internal
// work offset by one cooperative slice and reports whether it has finished,
// Progress reports fractional completion, and Finish returns the
// accumulated per-texel output. Grounded on
// original_source/Src/meshmapping.cpp's MeshMappingTask{runStep, finish,
// progress} three-method shape, generalized to every solver task.
type Solver interface {
	Name() string
	RunStep() bool
	Progress() float64
	Finish() Output
}

// Common holds the inputs every solver needs and the work-offset bookkeeping
// shared by spec.md §4.7's cooperative scheduling model. Embedded, not
// inherited from, by each concrete solver.
type Common struct {
	Tex        *uvraster.Compressed
	Mapped     []mapping.Result
	Flat       *bvh.Flat
	workOffset int
}

// WorkCount is the number of valid texels this solver must process.
func (c *Common) WorkCount() int {
	return c.Tex.Len()
}

// Progress reports fractional completion of the work-offset walk.
func (c *Common) Progress() float64 {
	n := c.WorkCount()
	if n == 0 {
		return 1
	}
	return float64(c.workOffset) / float64(n)
}

// advance returns the [start, end) texel range for the next slice and moves
// workOffset past it, matching mapping.WorkPerFrame (rounded down to a
// mapping.GroupSize multiple, as spec.md §4.4's cooperative scheduling
// requires). mapping.Map itself is not sliced.
func (c *Common) advance() (start, end int, done bool) {
	n := c.WorkCount()
	if c.workOffset >= n {
		return n, n, true
	}
	slice := mapping.WorkPerFrame - (mapping.WorkPerFrame % mapping.GroupSize)
	if slice < mapping.GroupSize {
		slice = mapping.GroupSize
	}
	start = c.workOffset
	end = start + slice
	if end > n {
		end = n
	}
	c.workOffset = end
	return start, end, c.workOffset >= n
}

// TrianglePositions resolves the three world-space vertex positions of the
// hit triangle referenced by a mapping result's flat-BVH vertex-triple
// start index.
func TrianglePositions(flat *bvh.Flat, tri uint32) (p0, p1, p2 math3d.Vec3) {
	return flat.Positions[tri], flat.Positions[tri+1], flat.Positions[tri+2]
}

// TriangleNormals resolves the three per-vertex normals of the hit triangle.
func TriangleNormals(flat *bvh.Flat, tri uint32) (n0, n1, n2 math3d.Vec3) {
	return flat.Normals[tri], flat.Normals[tri+1], flat.Normals[tri+2]
}

// InterpVec3 barycentrically interpolates a, b, c by (u, v, w).
func InterpVec3(a, b, c math3d.Vec3, u, v, w float64) math3d.Vec3 {
	return a.Scale(u).Add(b.Scale(v)).Add(c.Scale(w))
}
