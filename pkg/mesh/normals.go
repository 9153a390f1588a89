package mesh

import "github.com/texelbake/texelbake/pkg/math3d"

// posAccum accumulates a face-weighted normal sum for every distinct
// position value and remembers the slot it was assigned in the rebuilt
// Normals array.
type posAccum struct {
	sum   math3d.Vec3
	index int
}

// RecomputeSmoothNormalsByPosition rewrites the mesh's Normals array and
// every vertex's Normal index so vertices sharing the same position *value*
// (not the same position index) share one averaged, face-area-weighted
// normal. Loaders sometimes duplicate a position's coordinates across
// distinct position-array slots (e.g. once per UV seam); merging by index
// alone would miss that duplication and under-smooth across the seam, so
// this groups by the position's float value instead.
func (m *Mesh) RecomputeSmoothNormalsByPosition() {
	accum := make(map[math3d.Vec3]*posAccum)

	for _, tri := range m.Triangles {
		p0, p1, p2 := m.TrianglePositions(tri)
		faceNormal := p1.Sub(p0).Cross(p2.Sub(p0)) // unnormalized: area-weighted

		for k := 0; k < 3; k++ {
			vr := m.Vertices[tri.V[k]]
			pos := m.Positions[vr.Position]
			a, ok := accum[pos]
			if !ok {
				a = &posAccum{index: len(accum)}
				accum[pos] = a
			}
			a.sum = a.sum.Add(faceNormal)
		}
	}

	normals := make([]math3d.Vec3, len(accum))
	for _, a := range accum {
		normals[a.index] = a.sum.Normalize()
	}

	for i := range m.Vertices {
		pos := m.Positions[m.Vertices[i].Position]
		m.Vertices[i].Normal = accum[pos].index
	}

	m.Normals = normals
}
