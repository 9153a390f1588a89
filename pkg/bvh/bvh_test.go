package bvh

import (
	"math"
	"math/rand"
	"testing"

	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
)

func cubeMesh() *mesh.Mesh {
	m := mesh.New("cube")
	m.Positions = []math3d.Vec3{
		math3d.V3(-1, -1, -1), math3d.V3(1, -1, -1),
		math3d.V3(1, 1, -1), math3d.V3(-1, 1, -1),
		math3d.V3(-1, -1, 1), math3d.V3(1, -1, 1),
		math3d.V3(1, 1, 1), math3d.V3(-1, 1, 1),
	}
	faces := [][4]int{
		{0, 1, 2, 3}, {5, 4, 7, 6}, {4, 0, 3, 7},
		{1, 5, 6, 2}, {4, 5, 1, 0}, {3, 2, 6, 7},
	}
	for _, f := range faces {
		base := len(m.Vertices)
		for _, p := range f {
			m.Vertices = append(m.Vertices, mesh.VertexRef{Position: p, Texcoord: mesh.InvalidIndex, Normal: mesh.InvalidIndex})
		}
		m.Triangles = append(m.Triangles,
			mesh.Triangle{V: [3]int{base, base + 1, base + 2}},
			mesh.Triangle{V: [3]int{base, base + 2, base + 3}},
		)
	}
	m.CalculateBounds()
	return m
}

// randomMesh builds n disjoint unit triangles scattered in a cube, enough to
// force several levels of BVH subdivision.
func randomMesh(n int) *mesh.Mesh {
	rng := rand.New(rand.NewSource(1))
	m := mesh.New("random")
	for i := 0; i < n; i++ {
		cx := rng.Float64()*100 - 50
		cy := rng.Float64()*100 - 50
		cz := rng.Float64()*100 - 50
		base := len(m.Positions)
		m.Positions = append(m.Positions,
			math3d.V3(cx, cy, cz),
			math3d.V3(cx+1, cy, cz),
			math3d.V3(cx, cy+1, cz),
		)
		vbase := len(m.Vertices)
		for k := 0; k < 3; k++ {
			m.Vertices = append(m.Vertices, mesh.VertexRef{Position: base + k, Texcoord: mesh.InvalidIndex, Normal: mesh.InvalidIndex})
		}
		m.Triangles = append(m.Triangles, mesh.Triangle{V: [3]int{vbase, vbase + 1, vbase + 2}})
	}
	return m
}

func TestBuildSingleTriangleLeaf(t *testing.T) {
	m := mesh.New("tri")
	m.Positions = []math3d.Vec3{math3d.V3(0, 0, 0), math3d.V3(1, 0, 0), math3d.V3(0, 1, 0)}
	m.Vertices = []mesh.VertexRef{{Position: 0, Texcoord: -1, Normal: -1}, {Position: 1, Texcoord: -1, Normal: -1}, {Position: 2, Texcoord: -1, Normal: -1}}
	m.Triangles = []mesh.Triangle{{V: [3]int{0, 1, 2}}}

	root := Build(m, DefaultOptions())
	if !root.IsLeaf() {
		t.Fatal("single-triangle mesh should build a single leaf")
	}
	if len(root.Triangles) != 1 {
		t.Fatalf("expected 1 triangle in leaf, got %d", len(root.Triangles))
	}
}

func TestAABBContainsSubtree(t *testing.T) {
	m := cubeMesh()
	opts := Options{MaxTrianglesPerLeaf: 1, MaxDepth: 16}
	root := Build(m, opts)

	var walk func(n *Node)
	walk = func(n *Node) {
		for _, ti := range n.Triangles {
			p0, p1, p2 := m.TrianglePositions(m.Triangles[ti])
			for _, p := range [3]math3d.Vec3{p0, p1, p2} {
				if !containsWithEpsilon(n.AABB, p, 1e-9) {
					t.Errorf("node AABB %+v does not contain vertex %v of triangle %d", n.AABB, p, ti)
				}
			}
		}
		if !n.IsLeaf() {
			walk(&n.Children[0])
			walk(&n.Children[1])
		}
	}
	walk(root)
}

func containsWithEpsilon(b AABB, p math3d.Vec3, eps float64) bool {
	mn, mx := b.Min(), b.Max()
	return p.X >= mn.X-eps && p.X <= mx.X+eps &&
		p.Y >= mn.Y-eps && p.Y <= mx.Y+eps &&
		p.Z >= mn.Z-eps && p.Z <= mx.Z+eps
}

func TestSubtreeTriangleCountIsSumOfChildren(t *testing.T) {
	m := cubeMesh()
	root := Build(m, Options{MaxTrianglesPerLeaf: 1, MaxDepth: 16})

	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			return
		}
		l, r := &n.Children[0], &n.Children[1]
		walk(l)
		walk(r)
		if n.SubtreeTriangleCount != l.SubtreeTriangleCount+r.SubtreeTriangleCount {
			t.Errorf("subtree count %d != %d + %d", n.SubtreeTriangleCount, l.SubtreeTriangleCount, r.SubtreeTriangleCount)
		}
	}
	walk(root)
}

func TestBVHPartitionsAllTriangles(t *testing.T) {
	m := randomMesh(10000)
	root := Build(m, DefaultOptions())

	seen := make(map[uint32]bool)
	var walk func(n *Node)
	walk = func(n *Node) {
		if n.IsLeaf() {
			for _, ti := range n.Triangles {
				if seen[ti] {
					t.Errorf("triangle %d referenced by more than one leaf", ti)
				}
				seen[ti] = true
			}
			return
		}
		walk(&n.Children[0])
		walk(&n.Children[1])
	}
	walk(root)

	if len(seen) != len(m.Triangles) {
		t.Errorf("partition covers %d triangles, want %d", len(seen), len(m.Triangles))
	}
}

func TestFlattenSkipIndexInvariants(t *testing.T) {
	m := cubeMesh()
	root := Build(m, Options{MaxTrianglesPerLeaf: 1, MaxDepth: 16})
	flat := Flatten(m, root)

	n := uint32(len(flat.Nodes))
	if flat.Nodes[0].Skip != n {
		t.Errorf("root skip index = %d, want %d", flat.Nodes[0].Skip, n)
	}
	for i, node := range flat.Nodes {
		if node.Skip <= uint32(i) || node.Skip > n {
			t.Errorf("node %d skip index %d out of range (%d, %d]", i, node.Skip, i, n)
		}
	}
}

func TestRayAABBAdmitsOriginInside(t *testing.T) {
	box := AABB{Center: math3d.V3(0, 0, 0), HalfSize: math3d.V3(1, 1, 1)}
	ray := Ray{Origin: math3d.V3(0, 0, 0), Direction: math3d.V3(1, 0, 0)}
	if !RayAABBIntersect(ray, box) {
		t.Error("ray originating inside the box should intersect")
	}
}

func TestRayAABBMiss(t *testing.T) {
	box := AABB{Center: math3d.V3(0, 0, 0), HalfSize: math3d.V3(1, 1, 1)}
	ray := Ray{Origin: math3d.V3(10, 10, 10), Direction: math3d.V3(0, 0, 1)}
	if RayAABBIntersect(ray, box) {
		t.Error("ray pointing away from the box should not intersect")
	}
}

func TestMollerTrumboreHitAndBarycentricRoundTrip(t *testing.T) {
	p0 := math3d.V3(0, 0, 0)
	p1 := math3d.V3(1, 0, 0)
	p2 := math3d.V3(0, 1, 0)

	ray := Ray{Origin: math3d.V3(0.2, 0.2, 1), Direction: math3d.V3(0, 0, -1)}
	hit, ok := RayTriangleIntersect(ray, p0, p1, p2)
	if !ok {
		t.Fatal("expected a hit")
	}

	interp := p0.Scale(hit.U).Add(p1.Scale(hit.V)).Add(p2.Scale(hit.W))
	rayHit := ray.Origin.Add(ray.Direction.Scale(hit.T))
	if interp.Distance(rayHit) > 1e-4 {
		t.Errorf("barycentric interpolation %v does not match ray hit point %v", interp, rayHit)
	}
	if math.Abs(hit.U+hit.V+hit.W-1) > 1e-9 {
		t.Errorf("barycentrics do not sum to 1: %v", hit)
	}
}

func TestMollerTrumboreVertexGrazingRay(t *testing.T) {
	p0 := math3d.V3(0, 0, 0)
	p1 := math3d.V3(1, 0, 0)
	p2 := math3d.V3(0, 1, 0)
	n := GeometricNormal(p0, p1, p2)

	ray := Ray{Origin: p0.Add(n.Scale(1)), Direction: n.Negate()}
	hit, ok := RayTriangleIntersect(ray, p0, p1, p2)
	if !ok {
		t.Fatal("ray toward a triangle vertex along its normal should hit")
	}
	if hit.T < 0 {
		t.Errorf("hit parameter should be non-negative, got %f", hit.T)
	}
	if math.Abs(hit.U+hit.V+hit.W-1) > 1e-9 {
		t.Errorf("barycentrics should sum to 1, got %v", hit)
	}
}
