package loader

import (
	"strings"
	"testing"

	"github.com/texelbake/texelbake/pkg/mesh"
)

const cubeOBJ = `
v -1 -1 -1
v  1 -1 -1
v  1  1 -1
v -1  1 -1
vt 0 0
vt 1 0
vt 1 1
vt 0 1
f 1/1 2/2 3/3
f 1/1 3/3 4/4
`

func TestOBJLoadBasic(t *testing.T) {
	m, err := NewOBJ().Load(strings.NewReader(cubeOBJ), "quad")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Positions) != 4 {
		t.Fatalf("expected 4 positions, got %d", len(m.Positions))
	}
	if len(m.Triangles) != 2 {
		t.Fatalf("expected 2 triangles, got %d", len(m.Triangles))
	}
	for _, tri := range m.Triangles {
		if !m.TriangleBakeable(tri) {
			t.Errorf("triangle %v should be bakeable (has texcoords + computed normals)", tri)
		}
	}
}

func TestOBJMissingNormalsComputed(t *testing.T) {
	m, err := NewOBJ().Load(strings.NewReader(cubeOBJ), "quad")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if len(m.Normals) == 0 {
		t.Fatal("expected normals to be computed when source OBJ omits vn")
	}
	for i := range m.Vertices {
		if m.Vertices[i].Normal == mesh.InvalidIndex {
			t.Errorf("vertex %d should have a computed normal index", i)
		}
	}
}

func TestOBJSmoothNormals(t *testing.T) {
	m, err := LoadOBJSmooth("/nonexistent.obj")
	if err == nil {
		t.Fatal("expected error for nonexistent file")
	}
	_ = m
}

func TestResolveIndex(t *testing.T) {
	cases := []struct {
		idx, count, want int
	}{
		{0, 10, -1},
		{1, 10, 0},
		{10, 10, 9},
		{-1, 10, 9},
		{-3, 10, 7},
	}
	for _, c := range cases {
		got := resolveIndex(c.idx, c.count)
		if got != c.want {
			t.Errorf("resolveIndex(%d,%d) = %d, want %d", c.idx, c.count, got, c.want)
		}
	}
}
