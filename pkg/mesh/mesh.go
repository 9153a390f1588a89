// Package mesh provides the indexed triangle mesh data model consumed by
// every baking stage: UV rasterizer, BVH builder, mapping, and solvers.
// Mesh files are parsed by pkg/mesh/loader; this package treats the on-disk
// format as opaque and only knows the in-memory shape.
package mesh

import (
	"github.com/texelbake/texelbake/pkg/math3d"
)

// InvalidIndex marks a vertex attribute reference as absent.
const InvalidIndex = -1

// VertexRef indexes a mesh vertex's attributes into the mesh's parallel
// Positions/Texcoords/Normals arrays. Any field may be InvalidIndex.
type VertexRef struct {
	Position int
	Texcoord int
	Normal   int
}

// Triangle references three vertices by index into Mesh.Vertices.
type Triangle struct {
	V [3]int
}

// Mesh is an indexed triangle mesh: ordered attribute sequences plus a
// vertex list of (position, texcoord, normal) index triples and a triangle
// list indexing that vertex list. Constructed by a loader, immutable
// through the rest of the pipeline.
type Mesh struct {
	Name string

	Positions  []math3d.Vec3
	Texcoords  []math3d.Vec2
	Normals    []math3d.Vec3
	Tangents   []math3d.Vec3
	Bitangents []math3d.Vec3

	Vertices  []VertexRef
	Triangles []Triangle

	BoundsMin math3d.Vec3
	BoundsMax math3d.Vec3
}

// New creates an empty named mesh.
func New(name string) *Mesh {
	return &Mesh{Name: name}
}

// CalculateBounds computes the axis-aligned bounding box over Positions.
func (m *Mesh) CalculateBounds() {
	if len(m.Positions) == 0 {
		return
	}
	m.BoundsMin = m.Positions[0]
	m.BoundsMax = m.Positions[0]
	for _, p := range m.Positions[1:] {
		m.BoundsMin = m.BoundsMin.Min(p)
		m.BoundsMax = m.BoundsMax.Max(p)
	}
}

// Center returns the center of the bounding box.
func (m *Mesh) Center() math3d.Vec3 {
	return m.BoundsMin.Add(m.BoundsMax).Scale(0.5)
}

// Size returns the dimensions of the bounding box.
func (m *Mesh) Size() math3d.Vec3 {
	return m.BoundsMax.Sub(m.BoundsMin)
}

// TriangleCount returns the number of triangles.
func (m *Mesh) TriangleCount() int {
	return len(m.Triangles)
}

// VertexCount returns the number of vertex records.
func (m *Mesh) VertexCount() int {
	return len(m.Vertices)
}

// TriangleBakeable reports whether every vertex of triangle t has a valid
// texcoord and normal index, the invariant the UV rasterizer requires.
func (m *Mesh) TriangleBakeable(t Triangle) bool {
	for _, vi := range t.V {
		vr := m.Vertices[vi]
		if vr.Texcoord == InvalidIndex || vr.Normal == InvalidIndex {
			return false
		}
	}
	return true
}

// TrianglePositions returns the three world-space vertex positions of
// triangle t.
func (m *Mesh) TrianglePositions(t Triangle) (p0, p1, p2 math3d.Vec3) {
	v0, v1, v2 := m.Vertices[t.V[0]], m.Vertices[t.V[1]], m.Vertices[t.V[2]]
	return m.Positions[v0.Position], m.Positions[v1.Position], m.Positions[v2.Position]
}

// TriangleCentroid returns the mean of a triangle's three vertex positions.
func (m *Mesh) TriangleCentroid(t Triangle) math3d.Vec3 {
	p0, p1, p2 := m.TrianglePositions(t)
	return p0.Add(p1).Add(p2).Scale(1.0 / 3.0)
}

// CalculateFaceNormals assigns one flat (per-face) normal to every
// triangle's three vertices, replacing Normals and every vertex's normal
// index. Mirrors the "ComputePerFace" normal-import mode.
func (m *Mesh) CalculateFaceNormals() {
	normals := make([]math3d.Vec3, 0, len(m.Triangles)*3)
	for ti := range m.Triangles {
		tri := &m.Triangles[ti]
		p0, p1, p2 := m.TrianglePositions(*tri)
		n := p1.Sub(p0).Cross(p2.Sub(p0)).Normalize()
		for k := 0; k < 3; k++ {
			idx := len(normals)
			normals = append(normals, n)
			m.Vertices[tri.V[k]].Normal = idx
		}
	}
	m.Normals = normals
}

// Transform applies an affine transform to every position and re-normalizes
// every normal by the matrix's rotational part, then recomputes bounds.
func (m *Mesh) Transform(mat math3d.Mat4) {
	for i := range m.Positions {
		m.Positions[i] = mat.MulVec3(m.Positions[i])
	}
	for i := range m.Normals {
		m.Normals[i] = mat.MulVec3Dir(m.Normals[i]).Normalize()
	}
	m.CalculateBounds()
}

// Clone creates a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	clone := &Mesh{
		Name:      m.Name,
		BoundsMin: m.BoundsMin,
		BoundsMax: m.BoundsMax,
	}
	clone.Positions = append(clone.Positions, m.Positions...)
	clone.Texcoords = append(clone.Texcoords, m.Texcoords...)
	clone.Normals = append(clone.Normals, m.Normals...)
	clone.Tangents = append(clone.Tangents, m.Tangents...)
	clone.Bitangents = append(clone.Bitangents, m.Bitangents...)
	clone.Vertices = append(clone.Vertices, m.Vertices...)
	clone.Triangles = append(clone.Triangles, m.Triangles...)
	return clone
}
