package bvh

import (
	"math"

	"github.com/texelbake/texelbake/pkg/math3d"
)

const rayEpsilon = 1e-6

// Ray is a parametric ray: point at parameter t is Origin + Direction*t.
type Ray struct {
	Origin, Direction math3d.Vec3
}

// RayAABBIntersect is the slab-method ray/AABB test from spec.md §4.4.
// Direction components smaller than rayEpsilon in magnitude are clamped to
// rayEpsilon before dividing, so a ray parallel to a face never divides by
// zero. Returns true (and admits origins inside the box) iff tmax >= 0 and
// tmin <= tmax.
func RayAABBIntersect(ray Ray, box AABB) bool {
	mn, mx := box.Min(), box.Max()

	tmin, tmax := math.Inf(-1), math.Inf(1)

	for axis := 0; axis < 3; axis++ {
		o := component(ray.Origin, axis)
		d := component(ray.Direction, axis)
		if math.Abs(d) < rayEpsilon {
			if d < 0 {
				d = -rayEpsilon
			} else {
				d = rayEpsilon
			}
		}

		lo, hi := component(mn, axis), component(mx, axis)
		t0 := (lo - o) / d
		t1 := (hi - o) / d
		if t0 > t1 {
			t0, t1 = t1, t0
		}
		if t0 > tmin {
			tmin = t0
		}
		if t1 < tmax {
			tmax = t1
		}
	}

	return tmax >= 0 && tmin <= tmax
}

func component(v math3d.Vec3, axis int) float64 {
	switch axis {
	case 0:
		return v.X
	case 1:
		return v.Y
	default:
		return v.Z
	}
}

// TriangleHit is the result of a successful Möller-Trumbore test.
type TriangleHit struct {
	T, U, V, W float64
}

// RayTriangleIntersect implements the Möller-Trumbore ray/triangle test.
// Rejects when the determinant's magnitude is below 1e-6 or any of the
// barycentric tests fails; a hit additionally requires t >= rayEpsilon.
func RayTriangleIntersect(ray Ray, p0, p1, p2 math3d.Vec3) (TriangleHit, bool) {
	edge1 := p1.Sub(p0)
	edge2 := p2.Sub(p0)

	h := ray.Direction.Cross(edge2)
	det := edge1.Dot(h)
	if math.Abs(det) < 1e-6 {
		return TriangleHit{}, false
	}
	invDet := 1.0 / det

	s := ray.Origin.Sub(p0)
	u := s.Dot(h) * invDet
	if u < 0 || u > 1 {
		return TriangleHit{}, false
	}

	q := s.Cross(edge1)
	v := ray.Direction.Dot(q) * invDet
	if v < 0 || u+v > 1 {
		return TriangleHit{}, false
	}

	t := edge2.Dot(q) * invDet
	if t < rayEpsilon {
		return TriangleHit{}, false
	}

	return TriangleHit{T: t, U: 1 - u - v, V: u, W: v}, true
}

// GeometricNormal returns the unnormalized-then-normalized face normal of a
// triangle using the emitted (right-hand rule) vertex order.
func GeometricNormal(p0, p1, p2 math3d.Vec3) math3d.Vec3 {
	return p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
}
