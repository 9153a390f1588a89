package bakejob

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/texelbake/texelbake/pkg/uvraster"
)

// writeQuadOBJ writes a single-quad mesh (two triangles, +Z normal, UVs
// spanning the whole [0,1]^2 chart) so a bake onto itself reproduces
// spec.md §8's "height of cube onto itself" scenario at quad scale:
// every mapping hit should land at t≈0.
func writeQuadOBJ(t *testing.T, dir string) string {
	t.Helper()
	const obj = `v -1 -1 0
v 1 -1 0
v 1 1 0
v -1 1 0
vt 0 0
vt 1 0
vt 1 1
vt 0 1
vn 0 0 1
f 1/1/1 2/2/1 3/3/1
f 1/1/1 3/3/1 4/4/1
`
	path := filepath.Join(dir, "quad.obj")
	if err := os.WriteFile(path, []byte(obj), 0o644); err != nil {
		t.Fatalf("write quad.obj: %v", err)
	}
	return path
}

func TestRunBakesHeightAndPositionOntoSelf(t *testing.T) {
	dir := t.TempDir()
	meshPath := writeQuadOBJ(t, dir)
	heightOut := filepath.Join(dir, "height.png")
	positionOut := filepath.Join(dir, "position.exr")

	job := Job{
		LowMeshPath:         meshPath,
		Width:               16,
		Height:              16,
		MappingMode:         uvraster.ModeLowPolyNormals,
		MaxTrianglesPerLeaf: 1,
		HeightSolver:        HeightConfig{SolverOutput: SolverOutput{Enabled: true, OutputPath: heightOut}},
		PositionSolver:      PositionConfig{SolverOutput: SolverOutput{Enabled: true, OutputPath: positionOut}},
	}

	if err := Run(context.Background(), job); err != nil {
		t.Fatalf("Run() = %v", err)
	}

	for _, path := range []string{heightOut, positionOut} {
		info, err := os.Stat(path)
		if err != nil {
			t.Fatalf("expected output %s to exist: %v", path, err)
		}
		if info.Size() == 0 {
			t.Errorf("output %s is empty", path)
		}
	}
}

func TestRunFailsOnMissingMesh(t *testing.T) {
	job := Job{
		LowMeshPath: filepath.Join(t.TempDir(), "does-not-exist.obj"),
		Width:       4,
		Height:      4,
	}
	if err := Run(context.Background(), job); err == nil {
		t.Fatalf("expected Run() to fail for a missing mesh")
	}
}

func TestRunRejectsInvalidMeshTopology(t *testing.T) {
	dir := t.TempDir()
	// No vt/vn references at all: every triangle is unbakeable.
	const obj = "v -1 -1 0\nv 1 -1 0\nv 1 1 0\nf 1 2 3\n"
	path := filepath.Join(dir, "bad.obj")
	if err := os.WriteFile(path, []byte(obj), 0o644); err != nil {
		t.Fatalf("write bad.obj: %v", err)
	}

	job := Job{
		LowMeshPath:  path,
		Width:        4,
		Height:       4,
		MappingMode:  uvraster.ModeLowPolyNormals,
		HeightSolver: HeightConfig{SolverOutput: SolverOutput{Enabled: true, OutputPath: filepath.Join(dir, "h.png")}},
	}
	if err := Run(context.Background(), job); err == nil {
		t.Fatalf("expected Run() to fail on unbakeable topology")
	}
}
