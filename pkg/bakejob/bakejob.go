// Package bakejob wires mesh loading, UV rasterization, BVH construction,
// mesh mapping, and the attribute solvers into one orchestrated bake,
// matching spec.md §6's single flat orchestration record and §4.7's
// runner-driven control flow (mapping pushed at the stack bottom, every
// enabled solver pushed above it).
package bakejob

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/texelbake/texelbake/pkg/bakeerr"
	"github.com/texelbake/texelbake/pkg/bvh"
	"github.com/texelbake/texelbake/pkg/mapping"
	"github.com/texelbake/texelbake/pkg/mesh"
	"github.com/texelbake/texelbake/pkg/mesh/loader"
	"github.com/texelbake/texelbake/pkg/runner"
	"github.com/texelbake/texelbake/pkg/solver"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// NormalMode selects how a loaded mesh's normals are established before
// baking, spec.md §6's per-mesh normal-import mode.
type NormalMode int

const (
	// NormalImport keeps whatever normals the loader produced.
	NormalImport NormalMode = iota
	// NormalComputePerFace discards loaded normals and assigns one flat
	// normal per triangle.
	NormalComputePerFace
	// NormalComputePerVertex discards loaded normals and recomputes
	// position-keyed smooth normals.
	NormalComputePerVertex
)

// SolverOutput is the {enabled, output_path} pair spec.md §6 requires for
// every solver.
type SolverOutput struct {
	Enabled    bool
	OutputPath string
}

// HeightConfig configures the height solver.
type HeightConfig struct {
	SolverOutput
}

// PositionConfig configures the position solver.
type PositionConfig struct {
	SolverOutput
}

// NormalConfig configures the object-space normal solver.
type NormalConfig struct {
	SolverOutput
	TangentSpace bool
}

// AOConfig configures the ambient-occlusion solver.
type AOConfig struct {
	SolverOutput
	SampleCount              int
	MinDistance, MaxDistance float64
	CullBackfaces            bool
}

// BentNormalsConfig configures the bent-normals solver.
type BentNormalsConfig struct {
	SolverOutput
	SampleCount              int
	MinDistance, MaxDistance float64
	CullBackfaces            bool
	TangentSpace             bool
}

// ThicknessConfig configures the thickness solver.
type ThicknessConfig struct {
	SolverOutput
	SampleCount              int
	MinDistance, MaxDistance float64
	CullBackfaces            bool
	InvertOutput             bool
}

// Job is the complete description of one bake, mirroring spec.md §6's
// orchestration record field-for-field.
type Job struct {
	LowMeshPath  string
	HighMeshPath string // empty reuses the low-poly mesh as its own high-poly reference

	LowNormalMode  NormalMode
	HighNormalMode NormalMode

	Width, Height int
	Dilation      int

	MappingMode     uvraster.Mode
	HybridEdge      float64
	IgnoreBackfaces bool

	MaxTrianglesPerLeaf int

	HeightSolver      HeightConfig
	PositionSolver    PositionConfig
	NormalSolver      NormalConfig
	AOSolver          AOConfig
	BentNormalsSolver BentNormalsConfig
	ThicknessSolver   ThicknessConfig
}

// loadMesh dispatches to the OBJ or glTF/GLB loader by file extension.
func loadMesh(path string) (*mesh.Mesh, error) {
	var m *mesh.Mesh
	var err error
	switch strings.ToLower(filepath.Ext(path)) {
	case ".obj":
		m, err = loader.NewOBJ().LoadFile(path)
	case ".gltf", ".glb":
		m, err = loader.NewGLTF().Load(path)
	default:
		return nil, fmt.Errorf("bakejob: %w: %s", bakeerr.ErrMissingMesh, path)
	}
	if err != nil {
		return nil, fmt.Errorf("bakejob: %w: %s: %w", bakeerr.ErrMissingMesh, path, err)
	}
	return m, nil
}

func applyNormalMode(m *mesh.Mesh, mode NormalMode) {
	switch mode {
	case NormalComputePerFace:
		m.CalculateFaceNormals()
	case NormalComputePerVertex:
		m.RecomputeSmoothNormalsByPosition()
	}
}

// Run loads both meshes, rasterizes, builds the BVH, maps, and runs every
// enabled solver to completion, returning the runner's aggregate error.
// Per spec.md §6's exit condition, a nil error means every enabled solver
// wrote its output file; a non-nil error does not roll back outputs other
// tasks already wrote.
func Run(ctx context.Context, job Job) error {
	low, err := loadMesh(job.LowMeshPath)
	if err != nil {
		return fmt.Errorf("bakejob: load low mesh: %w", err)
	}
	applyNormalMode(low, job.LowNormalMode)
	low.CalculateBounds()

	high := low
	if job.HighMeshPath != "" {
		high, err = loadMesh(job.HighMeshPath)
		if err != nil {
			return fmt.Errorf("bakejob: load high mesh: %w", err)
		}
		applyNormalMode(high, job.HighNormalMode)
		high.CalculateBounds()
	}

	var smooth *mesh.Mesh
	if job.MappingMode == uvraster.ModeSmooth || job.MappingMode == uvraster.ModeHybrid {
		smooth = low.Clone()
		smooth.RecomputeSmoothNormalsByPosition()
	}

	dense, err := uvraster.Rasterize(low, smooth, job.Width, job.Height, uvraster.Options{
		Mode:       job.MappingMode,
		HybridEdge: job.HybridEdge,
	})
	if err != nil {
		return fmt.Errorf("bakejob: rasterize: %w", err)
	}
	tex := uvraster.Compress(dense)

	bvhOpts := bvh.DefaultOptions()
	if job.MaxTrianglesPerLeaf > 0 {
		bvhOpts.MaxTrianglesPerLeaf = job.MaxTrianglesPerLeaf
	}
	root := bvh.Build(high, bvhOpts)
	flat := bvh.Flatten(high, root)

	// Mapping runs to completion here, not through the runner's
	// cooperative ticking: pkg/mapping.Map already fans the whole pass out
	// across runtime.GOMAXPROCS(0) goroutines in one call, so there is no
	// partial-slice state for a RunStep to resume. The mappingTask pushed
	// below is a bookkeeping placeholder occupying the runner stack's
	// bottom slot, matching spec.md §4.7's "mapping task completes before
	// any solver starts reading its outputs" guarantee literally: results
	// are produced before any solver task is even constructed.
	results := mapping.Map(tex, flat, mapping.Options{CullBackfaces: job.IgnoreBackfaces})

	r := runner.New()
	r.Push(&mappingTask{})

	common := solver.Common{Tex: tex, Mapped: results, Flat: flat}

	if job.HeightSolver.Enabled {
		r.Push(newHeightTask(common, job.HeightSolver, job.Dilation))
	}
	if job.PositionSolver.Enabled {
		r.Push(newPositionTask(common, job.PositionSolver, job.Dilation))
	}
	if job.NormalSolver.Enabled {
		r.Push(newNormalTask(common, job.NormalSolver, job.Dilation))
	}
	if job.AOSolver.Enabled {
		r.Push(newAOTask(common, job.AOSolver, job.Dilation))
	}
	if job.BentNormalsSolver.Enabled {
		r.Push(newBentNormalsTask(common, job.BentNormalsSolver, job.Dilation))
	}
	if job.ThicknessSolver.Enabled {
		r.Push(newThicknessTask(common, job.ThicknessSolver, job.Dilation))
	}

	if err := r.Run(ctx); err != nil {
		return fmt.Errorf("bakejob: %w", err)
	}
	return nil
}

// mappingTask is a completed-on-construction placeholder occupying the
// runner stack's bottom slot: the actual mapping pass has already run by
// the time this is pushed (see Run), so it exists only so the runner's
// progress accounting and task-popping order match spec.md §4.7's stated
// shape (mapping at the bottom, solvers above it).
type mappingTask struct{}

func (t *mappingTask) Name() string      { return "mapping" }
func (t *mappingTask) Progress() float64 { return 1 }
func (t *mappingTask) RunStep() bool     { return true }
func (t *mappingTask) Finish() error     { return nil }
