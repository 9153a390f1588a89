package solver

import (
	"math"
	"testing"

	"github.com/texelbake/texelbake/pkg/bvh"
	"github.com/texelbake/texelbake/pkg/mapping"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// quadMesh builds a single axis-aligned quad (two triangles) spanning UV
// [0,1]x[0,1] and world XY at Z=0, normal +Z — the same "bake onto itself"
// scenario spec.md §8 names for the direct solvers.
func quadMesh() *mesh.Mesh {
	m := mesh.New("quad")
	m.Positions = []math3d.Vec3{
		math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(1, 1, 0), math3d.V3(0, 1, 0),
	}
	m.Texcoords = []math3d.Vec2{
		math3d.V2(0, 0), math3d.V2(1, 0), math3d.V2(1, 1), math3d.V2(0, 1),
	}
	for i := 0; i < 4; i++ {
		m.Vertices = append(m.Vertices, mesh.VertexRef{Position: i, Texcoord: i, Normal: mesh.InvalidIndex})
	}
	m.Triangles = []mesh.Triangle{
		{V: [3]int{0, 1, 2}},
		{V: [3]int{0, 2, 3}},
	}
	m.CalculateFaceNormals()
	return m
}

// quadCommon rasterizes quadMesh onto itself and maps every texel,
// returning the Common every solver is constructed from.
func quadCommon(t *testing.T) Common {
	t.Helper()
	m := quadMesh()
	dense, err := uvraster.Rasterize(m, nil, 8, 8, uvraster.Options{Mode: uvraster.ModeLowPolyNormals})
	if err != nil {
		t.Fatalf("Rasterize: %v", err)
	}
	tex := uvraster.Compress(dense)

	root := bvh.Build(m, bvh.DefaultOptions())
	flat := bvh.Flatten(m, root)

	mapped := mapping.Map(tex, flat, mapping.Options{})
	return Common{Tex: tex, Mapped: mapped, Flat: flat}
}

func runToCompletion(s Solver) Output {
	for !s.RunStep() {
	}
	return s.Finish()
}

func TestHeightZeroOntoSelf(t *testing.T) {
	c := quadCommon(t)
	out := runToCompletion(NewHeight(c))
	if out.Kind != KindScalar {
		t.Fatalf("Kind = %v, want KindScalar", out.Kind)
	}
	if len(out.Scalar) != c.Tex.Len() {
		t.Fatalf("len(Scalar) = %d, want %d", len(out.Scalar), c.Tex.Len())
	}
	for i, v := range out.Scalar {
		if math.Abs(v) > 1e-9 {
			t.Errorf("height[%d] = %v, want 0 (baked onto itself)", i, v)
		}
	}
}

func TestPositionMatchesTexelPosition(t *testing.T) {
	c := quadCommon(t)
	out := runToCompletion(NewPosition(c))
	if out.Kind != KindVector {
		t.Fatalf("Kind = %v, want KindVector", out.Kind)
	}
	for i, v := range out.Vector {
		want := c.Tex.Positions[i]
		if v.Sub(want).Len() > 1e-9 {
			t.Errorf("position[%d] = %+v, want %+v", i, v, want)
		}
	}
}

func TestNormalPointsUp(t *testing.T) {
	c := quadCommon(t)
	out := runToCompletion(NewNormal(c))
	want := math3d.V3(0, 0, 1)
	for i, v := range out.Vector {
		if v.Sub(want).Len() > 1e-9 {
			t.Errorf("normal[%d] = %+v, want %+v", i, v, want)
		}
	}
}

func TestNormalProgressReachesOne(t *testing.T) {
	c := quadCommon(t)
	n := NewNormal(c)
	for !n.RunStep() {
	}
	if got := n.Progress(); got != 1 {
		t.Errorf("Progress() = %v, want 1 after completion", got)
	}
}

func TestToTangentSpaceIdentityFrame(t *testing.T) {
	tex := &uvraster.Compressed{
		Tangents:   []math3d.Vec3{math3d.V3(1, 0, 0)},
		Bitangents: []math3d.Vec3{math3d.V3(0, 1, 0)},
		Normals:    []math3d.Vec3{math3d.V3(0, 0, 1)},
	}
	in := []math3d.Vec3{math3d.V3(0.25, -0.5, 0.83)}
	out := ToTangentSpace(in, tex)
	if out[0].Sub(in[0]).Len() > 1e-9 {
		t.Errorf("ToTangentSpace under the identity frame = %+v, want %+v", out[0], in[0])
	}
}

// enclosedBoxMesh returns a unit cube (outward normals) so the
// hemisphere-sampling solvers have real self-occlusion to measure.
func enclosedBoxMesh() *mesh.Mesh {
	m := mesh.New("box")
	positions := []math3d.Vec3{
		math3d.V3(-1, -1, -1), math3d.V3(1, -1, -1), math3d.V3(1, 1, -1), math3d.V3(-1, 1, -1),
		math3d.V3(-1, -1, 1), math3d.V3(1, -1, 1), math3d.V3(1, 1, 1), math3d.V3(-1, 1, 1),
	}
	m.Positions = positions
	uv := math3d.V2(0, 0)
	m.Texcoords = []math3d.Vec2{uv}
	for range positions {
		m.Vertices = append(m.Vertices, mesh.VertexRef{Position: len(m.Vertices), Texcoord: 0, Normal: mesh.InvalidIndex})
	}
	faces := [][4]int{
		{0, 1, 2, 3}, // -Z
		{5, 4, 7, 6}, // +Z
		{4, 0, 3, 7}, // -X
		{1, 5, 6, 2}, // +X
		{4, 5, 1, 0}, // -Y
		{3, 2, 6, 7}, // +Y
	}
	for _, f := range faces {
		m.Triangles = append(m.Triangles,
			mesh.Triangle{V: [3]int{f[0], f[1], f[2]}},
			mesh.Triangle{V: [3]int{f[0], f[2], f[3]}},
		)
	}
	m.CalculateFaceNormals()
	return m
}

// faceCenterCommon maps a single texel straight down from above the box's
// +Z face onto that face, giving the Monte-Carlo solvers a concave-free
// flat surface (so no self-occlusion) to sanity-check against.
func faceCenterCommon(t *testing.T) Common {
	t.Helper()
	m := enclosedBoxMesh()
	root := bvh.Build(m, bvh.DefaultOptions())
	flat := bvh.Flatten(m, root)

	tex := &uvraster.Compressed{
		Width: 1, Height: 1,
		Indices:    []int{0},
		Positions:  []math3d.Vec3{math3d.V3(0, 0, 5)},
		Directions: []math3d.Vec3{math3d.V3(0, 0, -1)},
		Normals:    []math3d.Vec3{math3d.V3(0, 0, 1)},
		Tangents:   []math3d.Vec3{math3d.V3(1, 0, 0)},
		Bitangents: []math3d.Vec3{math3d.V3(0, 1, 0)},
	}
	mapped := mapping.Map(tex, flat, mapping.Options{})
	return Common{Tex: tex, Mapped: mapped, Flat: flat}
}

func TestAOUnoccludedFaceIsFullyOpen(t *testing.T) {
	c := faceCenterCommon(t)
	ao := NewAO(c, MonteCarloOptions{SampleCount: 64, MinDistance: 0.001, MaxDistance: 100})
	out := runToCompletion(ao)
	if len(out.Scalar) != 1 {
		t.Fatalf("len(Scalar) = %d, want 1", len(out.Scalar))
	}
	v := out.Scalar[0]
	if v < 0 || v > 1 {
		t.Fatalf("AO value %v outside [0,1]", v)
	}
	// out.Scalar holds the occluded hit fraction (aoEmit returns 1 on a
	// hit), so an outward face with nothing above it should read near 0.
	if v > 0.1 {
		t.Errorf("AO of an unoccluded outward face = %v, want close to 0 (no neighboring geometry)", v)
	}
}

func TestBentNormalsMatchesSurfaceNormalWhenUnoccluded(t *testing.T) {
	c := faceCenterCommon(t)
	bn := NewBentNormals(c, MonteCarloOptions{SampleCount: 128, MinDistance: 0.001, MaxDistance: 100}, false)
	out := runToCompletion(bn)
	want := math3d.V3(0, 0, 1)
	if out.Vector[0].Sub(want).Len() > 0.25 {
		t.Errorf("bent normal = %+v, want close to %+v for an unoccluded flat face", out.Vector[0], want)
	}
}

func TestThicknessOfOpenFaceIsLarge(t *testing.T) {
	c := faceCenterCommon(t)
	th := NewThickness(c, ThicknessOptions{MonteCarloOptions: MonteCarloOptions{SampleCount: 64, MinDistance: 0.001, MaxDistance: 100}})
	out := runToCompletion(th)
	// Sampling inward from the +Z face of the box, every ray should cross
	// the full ~2-unit interior before exiting through the opposite wall.
	if out.Scalar[0] < 1.0 {
		t.Errorf("thickness = %v, want a large value crossing the box interior", out.Scalar[0])
	}
}

func TestThicknessInvertOutput(t *testing.T) {
	c := faceCenterCommon(t)
	direct := runToCompletion(NewThickness(c, ThicknessOptions{MonteCarloOptions: MonteCarloOptions{SampleCount: 32, MaxDistance: 100}}))
	inverted := runToCompletion(NewThickness(c, ThicknessOptions{MonteCarloOptions: MonteCarloOptions{SampleCount: 32, MaxDistance: 100}, InvertOutput: true}))
	if math.Abs((direct.Scalar[0]+inverted.Scalar[0])-1) > 1e-9 {
		t.Errorf("direct %v + inverted %v != 1", direct.Scalar[0], inverted.Scalar[0])
	}
}
