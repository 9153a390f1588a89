// Package bvh builds and flattens a bounding-volume hierarchy over a high-
// poly mesh's triangles, and provides the ray/AABB and ray/triangle tests
// the mesh-mapping and solver stages traverse it with.
package bvh

import (
	"math"

	"github.com/texelbake/texelbake/pkg/math3d"
)

// AABB is an axis-aligned bounding box stored as center and half-size,
// matching the BVH node representation rather than a min/max form.
type AABB struct {
	Center   math3d.Vec3
	HalfSize math3d.Vec3
}

// Min returns the box's minimum corner.
func (b AABB) Min() math3d.Vec3 {
	return b.Center.Sub(b.HalfSize)
}

// Max returns the box's maximum corner.
func (b AABB) Max() math3d.Vec3 {
	return b.Center.Add(b.HalfSize)
}

// SurfaceArea returns 2*(sx*sy + sx*sz + sy*sz) for half-size s, the cost
// term the SAH split evaluation minimizes.
func (b AABB) SurfaceArea() float64 {
	s := b.HalfSize
	return 2 * (s.X*s.Y + s.X*s.Z + s.Y*s.Z)
}

// Contains reports whether point p lies within the box (inclusive).
func (b AABB) Contains(p math3d.Vec3) bool {
	mn, mx := b.Min(), b.Max()
	return p.X >= mn.X && p.X <= mx.X &&
		p.Y >= mn.Y && p.Y <= mx.Y &&
		p.Z >= mn.Z && p.Z <= mx.Z
}

// aabbAccum accumulates min/max corners and converts to an AABB; used while
// the builder is still discovering a node's extent.
type aabbAccum struct {
	min, max math3d.Vec3
	has      bool
}

func newAABBAccum() aabbAccum {
	return aabbAccum{
		min: math3d.V3(math.Inf(1), math.Inf(1), math.Inf(1)),
		max: math3d.V3(math.Inf(-1), math.Inf(-1), math.Inf(-1)),
	}
}

func (a *aabbAccum) addPoint(p math3d.Vec3) {
	a.min = a.min.Min(p)
	a.max = a.max.Max(p)
	a.has = true
}

func (a aabbAccum) toAABB() AABB {
	if !a.has {
		return AABB{}
	}
	return AABB{
		Center:   a.min.Add(a.max).Scale(0.5),
		HalfSize: a.max.Sub(a.min).Scale(0.5),
	}
}
