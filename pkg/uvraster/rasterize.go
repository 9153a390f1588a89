package uvraster

import (
	"fmt"
	"math"

	"github.com/texelbake/texelbake/pkg/bakeerr"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
)

// Mode selects how a texel's ray direction is derived, spec.md §4.1.
type Mode int

const (
	// ModeSmooth uses the smoothing mesh's interpolated vertex normals.
	ModeSmooth Mode = iota
	// ModeLowPolyNormals uses the interpolated per-face low-poly normal.
	ModeLowPolyNormals
	// ModeHybrid blends smooth and low-poly directions by distance to the
	// nearest triangle edge.
	ModeHybrid
)

// Options configures the rasterization pass.
type Options struct {
	Mode Mode
	// HybridEdge is the world-space distance over which ModeHybrid blends
	// from per-face direction (interior) to smoothed direction (near edges).
	HybridEdge float64
}

// acceptEpsilon loosens the inside test so triangles sharing a UV edge both
// fill the boundary pixel; the image writer is last-wins so double fills are
// harmless.
const acceptEpsilon = 0.001

// Rasterize rasterizes low into a dense W×H grid of surface samples. smooth,
// if non-nil, supplies the per-vertex normals used by ModeSmooth/ModeHybrid
// (typically low with RecomputeSmoothNormalsByPosition already applied on a
// clone); if nil, low's own normals are reused for every mode. Returns an
// error if any bakeable triangle is missing a texcoord or normal reference.
func Rasterize(low *mesh.Mesh, smooth *mesh.Mesh, width, height int, opts Options) (*Dense, error) {
	if smooth == nil {
		smooth = low
	}

	dense := NewDense(width, height)

	for ti, tri := range low.Triangles {
		if !low.TriangleBakeable(tri) {
			return nil, fmt.Errorf("uvraster: triangle %d: %w", ti, bakeerr.ErrInvalidMeshTopology)
		}
		rasterizeTriangle(dense, low, smooth, tri, opts)
	}

	return dense, nil
}

func rasterizeTriangle(dense *Dense, low, smooth *mesh.Mesh, tri mesh.Triangle, opts Options) {
	w, h := float64(dense.Width), float64(dense.Height)

	v0, v1, v2 := low.Vertices[tri.V[0]], low.Vertices[tri.V[1]], low.Vertices[tri.V[2]]
	uv0, uv1, uv2 := low.Texcoords[v0.Texcoord], low.Texcoords[v1.Texcoord], low.Texcoords[v2.Texcoord]
	p0, p1, p2 := low.TrianglePositions(tri)
	n0, n1, n2 := low.Normals[v0.Normal], low.Normals[v1.Normal], low.Normals[v2.Normal]

	smoothDir0, smoothDir1, smoothDir2 := n0, n1, n2
	if smooth != low {
		smoothDir0 = smoothVertexNormal(low, smooth, tri.V[0])
		smoothDir1 = smoothVertexNormal(low, smooth, tri.V[1])
		smoothDir2 = smoothVertexNormal(low, smooth, tri.V[2])
	}

	hasTangent := len(low.Tangents) > 0 && v0.Normal != mesh.InvalidIndex
	var t0, t1, t2, b0, b1, b2 math3d.Vec3
	if hasTangent {
		// spec.md §3 gives VertexRef no separate tangent index; the loaders
		// store tangents/bitangents parallel to Positions, so they're looked
		// up by v.Position rather than by a tangent-specific field.
		t0, t1, t2 = low.Tangents[v0.Position], low.Tangents[v1.Position], low.Tangents[v2.Position]
		if len(low.Bitangents) > 0 {
			b0, b1, b2 = low.Bitangents[v0.Position], low.Bitangents[v1.Position], low.Bitangents[v2.Position]
		}
	}

	// Pixel-space UV bounding box, uv_pixel = (uv - 0.5/res) * res.
	px0 := pixelSpace(uv0, w, h)
	px1 := pixelSpace(uv1, w, h)
	px2 := pixelSpace(uv2, w, h)

	minX := int(math.Floor(min3(px0.X, px1.X, px2.X)))
	maxX := int(math.Ceil(max3(px0.X, px1.X, px2.X))) + 1
	minY := int(math.Floor(min3(px0.Y, px1.Y, px2.Y)))
	maxY := int(math.Ceil(max3(px0.Y, px1.Y, px2.Y))) + 1

	if minX < 0 {
		minX = 0
	}
	if minY < 0 {
		minY = 0
	}
	if maxX > dense.Width {
		maxX = dense.Width
	}
	if maxY > dense.Height {
		maxY = dense.Height
	}

	for y := minY; y < maxY; y++ {
		for x := minX; x < maxX; x++ {
			u := (float64(x) + 0.5) / w
			v := (float64(y) + 0.5) / h

			bc, ok := barycentric2D(uv0, uv1, uv2, u, v)
			if !ok {
				continue
			}

			texel := dense.At(x, y)
			texel.Valid = true
			texel.Position = interp3(p0, p1, p2, bc)
			normal := interp3(n0, n1, n2, bc).Normalize()
			texel.Normal = normal
			if hasTangent {
				texel.Tangent = interp3(t0, t1, t2, bc).Normalize()
				texel.Bitangent = interp3(b0, b1, b2, bc).Normalize()
			}

			smoothDir := interp3(smoothDir0, smoothDir1, smoothDir2, bc).Normalize()

			switch opts.Mode {
			case ModeLowPolyNormals:
				texel.Direction = normal
			case ModeSmooth:
				texel.Direction = smoothDir
			case ModeHybrid:
				d := triangleEdgeDistance(p0, p1, p2, texel.Position)
				edge := opts.HybridEdge
				t := 1.0
				if edge > 0 {
					t = math.Min(1, d/edge)
				}
				texel.Direction = smoothDir.Lerp(normal, t).Normalize()
			}
		}
	}
}

// smoothVertexNormal resolves the smoothing mesh's normal for the vertex of
// low at index vi, matched by position value since smooth is typically a
// clone of low with RecomputeSmoothNormalsByPosition applied (which may
// reassign normal indices). Falls back to low's own normal if the position
// can't be resolved in smooth's vertex set.
func smoothVertexNormal(low, smooth *mesh.Mesh, vi int) math3d.Vec3 {
	vr := low.Vertices[vi]
	pos := low.Positions[vr.Position]
	fallback := low.Normals[vr.Normal]

	for _, svr := range smooth.Vertices {
		if svr.Position >= len(smooth.Positions) || smooth.Positions[svr.Position] != pos {
			continue
		}
		if svr.Normal != mesh.InvalidIndex {
			return smooth.Normals[svr.Normal]
		}
	}
	return fallback
}

func pixelSpace(uv math3d.Vec2, w, h float64) math3d.Vec2 {
	return math3d.V2((uv.X-0.5/w)*w, (uv.Y-0.5/h)*h)
}

func min3(a, b, c float64) float64 { return math.Min(a, math.Min(b, c)) }
func max3(a, b, c float64) float64 { return math.Max(a, math.Max(b, c)) }

// barycentric2D computes 2D barycentric weights of (u, v) in triangle
// (uv0, uv1, uv2), accepting weights down to -0.001 (upper bound 1) as the
// conservative inside test from spec.md §4.1 so triangles sharing a UV edge
// both fill the boundary.
func barycentric2D(uv0, uv1, uv2 math3d.Vec2, u, v float64) (math3d.Vec3, bool) {
	v0x, v0y := uv2.X-uv0.X, uv2.Y-uv0.Y
	v1x, v1y := uv1.X-uv0.X, uv1.Y-uv0.Y
	v2x, v2y := u-uv0.X, v-uv0.Y

	dot00 := v0x*v0x + v0y*v0y
	dot01 := v0x*v1x + v0y*v1y
	dot02 := v0x*v2x + v0y*v2y
	dot11 := v1x*v1x + v1y*v1y
	dot12 := v1x*v2x + v1y*v2y

	denom := dot00*dot11 - dot01*dot01
	if denom == 0 {
		return math3d.Vec3{}, false
	}
	invDenom := 1.0 / denom
	b2 := (dot11*dot02 - dot01*dot12) * invDenom
	b1 := (dot00*dot12 - dot01*dot02) * invDenom
	b0 := 1 - b1 - b2

	if b0 < -acceptEpsilon || b0 > 1 ||
		b1 < -acceptEpsilon || b1 > 1 ||
		b2 < -acceptEpsilon || b2 > 1 {
		return math3d.Vec3{}, false
	}
	return math3d.V3(b0, b1, b2), true
}

func interp3(a, b, c math3d.Vec3, bc math3d.Vec3) math3d.Vec3 {
	return a.Scale(bc.X).Add(b.Scale(bc.Y)).Add(c.Scale(bc.Z))
}

// triangleEdgeDistance returns the minimum perpendicular distance from p to
// the three lines containing the triangle's edges, in world space.
func triangleEdgeDistance(p0, p1, p2, p math3d.Vec3) float64 {
	d0 := pointLineDistance(p, p0, p1)
	d1 := pointLineDistance(p, p1, p2)
	d2 := pointLineDistance(p, p2, p0)
	return math.Min(d0, math.Min(d1, d2))
}

func pointLineDistance(p, a, b math3d.Vec3) float64 {
	ab := b.Sub(a)
	len := ab.Len()
	if len == 0 {
		return p.Sub(a).Len()
	}
	ap := p.Sub(a)
	cross := ap.Cross(ab)
	return cross.Len() / len
}
