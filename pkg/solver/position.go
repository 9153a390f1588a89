package solver

import (
	"github.com/texelbake/texelbake/pkg/mapping"
	"github.com/texelbake/texelbake/pkg/math3d"
)

// Position is the direct solver result[i] := interp(positions, tri, uvw).
// Written as float EXR, no normalization (pkg/bakeimage).
type Position struct {
	Common
	out []math3d.Vec3
}

// NewPosition constructs a Position solver.
func NewPosition(c Common) *Position {
	return &Position{Common: c, out: make([]math3d.Vec3, c.WorkCount())}
}

func (p *Position) Name() string { return "position" }

func (p *Position) RunStep() bool {
	start, end, done := p.advance()
	for i := start; i < end; i++ {
		r := p.Mapped[i]
		if r.Triangle == mapping.TriangleNone {
			p.out[i] = math3d.Vec3{}
			continue
		}
		p0, p1, p2 := TrianglePositions(p.Flat, r.Triangle)
		p.out[i] = InterpVec3(p0, p1, p2, r.U, r.V, r.W)
	}
	return done
}

func (p *Position) Finish() Output {
	return Output{Kind: KindVector, Vector: p.out}
}
