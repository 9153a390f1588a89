package solver

import (
	"github.com/texelbake/texelbake/pkg/mapping"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// Normal is the direct solver result[i] := normalize(interp(normals, tri,
// uvw)), in object space. A TangentSpace pass (solver.ToTangentSpace) may
// be applied to Finish's output afterward.
type Normal struct {
	Common
	out []math3d.Vec3
}

// NewNormal constructs a Normal solver.
func NewNormal(c Common) *Normal {
	return &Normal{Common: c, out: make([]math3d.Vec3, c.WorkCount())}
}

func (n *Normal) Name() string { return "normal" }

func (n *Normal) RunStep() bool {
	start, end, done := n.advance()
	for i := start; i < end; i++ {
		r := n.Mapped[i]
		if r.Triangle == mapping.TriangleNone {
			n.out[i] = math3d.Vec3{}
			continue
		}
		n0, n1, n2 := TriangleNormals(n.Flat, r.Triangle)
		n.out[i] = InterpVec3(n0, n1, n2, r.U, r.V, r.W).Normalize()
	}
	return done
}

func (n *Normal) Finish() Output {
	return Output{Kind: KindVector, Vector: n.out}
}

// ToTangentSpace re-expresses each vector in result (object-space normals
// or bent normals) in the low-poly per-texel tangent frame recorded in tex:
// result_ts[i] = (dot(r, T), dot(r, B), dot(r, N)), per spec.md §4.5's
// tangent-space postprocess.
func ToTangentSpace(result []math3d.Vec3, tex *uvraster.Compressed) []math3d.Vec3 {
	out := make([]math3d.Vec3, len(result))
	for i, r := range result {
		t, b, n := tex.Tangents[i], tex.Bitangents[i], tex.Normals[i]
		out[i] = math3d.V3(r.Dot(t), r.Dot(b), r.Dot(n))
	}
	return out
}
