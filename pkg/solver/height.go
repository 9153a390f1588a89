package solver

import "github.com/texelbake/texelbake/pkg/mapping"

// Height is the direct solver result[i] := coords[i].t, the mapping ray
// parameter. Misses yield 0. The image writer normalizes the whole array to
// [0,1] before quantizing to 8-bit, recording the raw min/max for
// diagnostics (pkg/bakeimage).
type Height struct {
	Common
	out []float64
}

// NewHeight constructs a Height solver over the given mapping results.
func NewHeight(c Common) *Height {
	return &Height{Common: c, out: make([]float64, c.WorkCount())}
}

func (h *Height) Name() string { return "height" }

func (h *Height) RunStep() bool {
	start, end, done := h.advance()
	for i := start; i < end; i++ {
		r := h.Mapped[i]
		if r.Triangle == mapping.TriangleNone {
			h.out[i] = 0
			continue
		}
		h.out[i] = r.T
	}
	return done
}

func (h *Height) Finish() Output {
	return Output{Kind: KindScalar, Scalar: h.out}
}
