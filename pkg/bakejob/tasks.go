package bakejob

import (
	"fmt"

	"github.com/texelbake/texelbake/pkg/bakeimage"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/solver"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

// writeScalar scatters a solver's compressed scalar result back into a
// dense grid, dilates, and writes it. normalize applies the height
// solver's [0,1] rescale (spec.md §4.5). AO (in [0,1]) and thickness (in
// [0, MaxDistance]) skip it; PNG/TGA output clamps values above 1.
func writeScalar(tex *uvraster.Compressed, path string, dilation int, normalize bool, values []float64) error {
	if normalize {
		values, _, _ = bakeimage.NormalizeRange(values)
	}
	g := bakeimage.ScatterScalar(tex.Width, tex.Height, tex.Indices, values)
	bakeimage.DilateRGB(g, dilation)
	if err := bakeimage.Write(path, g, true, false); err != nil {
		return fmt.Errorf("bakejob: %w", err)
	}
	return nil
}

// writeVector scatters a solver's compressed vector result, dilates, and
// writes it. direction selects the PNG/TGA *0.5+0.5 normal-map byte
// mapping (ignored for EXR, which always stores raw floats).
func writeVector(tex *uvraster.Compressed, path string, dilation int, direction bool, values []math3d.Vec3) error {
	g := bakeimage.ScatterVector(tex.Width, tex.Height, tex.Indices, values)
	bakeimage.DilateRGB(g, dilation)
	if err := bakeimage.Write(path, g, false, direction); err != nil {
		return fmt.Errorf("bakejob: %w", err)
	}
	return nil
}

// heightTask adapts solver.Height into a runner.Task, writing the
// normalized [0,1] result (spec.md §4.5: "the writer normalizes the whole
// array to [0,1] before quantizing").
type heightTask struct {
	s        *solver.Height
	tex      *uvraster.Compressed
	cfg      HeightConfig
	dilation int
}

func newHeightTask(c solver.Common, cfg HeightConfig, dilation int) *heightTask {
	return &heightTask{s: solver.NewHeight(c), tex: c.Tex, cfg: cfg, dilation: dilation}
}

func (t *heightTask) Name() string      { return t.s.Name() }
func (t *heightTask) RunStep() bool     { return t.s.RunStep() }
func (t *heightTask) Progress() float64 { return t.s.Progress() }
func (t *heightTask) Finish() error {
	out := t.s.Finish()
	return writeScalar(t.tex, t.cfg.OutputPath, t.dilation, true, out.Scalar)
}

// positionTask adapts solver.Position into a runner.Task. Written without
// normalization, typically to EXR (spec.md §4.5).
type positionTask struct {
	s        *solver.Position
	tex      *uvraster.Compressed
	cfg      PositionConfig
	dilation int
}

func newPositionTask(c solver.Common, cfg PositionConfig, dilation int) *positionTask {
	return &positionTask{s: solver.NewPosition(c), tex: c.Tex, cfg: cfg, dilation: dilation}
}

func (t *positionTask) Name() string      { return t.s.Name() }
func (t *positionTask) RunStep() bool     { return t.s.RunStep() }
func (t *positionTask) Progress() float64 { return t.s.Progress() }
func (t *positionTask) Finish() error {
	out := t.s.Finish()
	return writeVector(t.tex, t.cfg.OutputPath, t.dilation, false, out.Vector)
}

// normalTask adapts solver.Normal into a runner.Task, optionally applying
// the tangent-space postprocess before writing.
type normalTask struct {
	s        *solver.Normal
	tex      *uvraster.Compressed
	cfg      NormalConfig
	dilation int
}

func newNormalTask(c solver.Common, cfg NormalConfig, dilation int) *normalTask {
	return &normalTask{s: solver.NewNormal(c), tex: c.Tex, cfg: cfg, dilation: dilation}
}

func (t *normalTask) Name() string      { return t.s.Name() }
func (t *normalTask) RunStep() bool     { return t.s.RunStep() }
func (t *normalTask) Progress() float64 { return t.s.Progress() }
func (t *normalTask) Finish() error {
	out := t.s.Finish()
	vec := out.Vector
	if t.cfg.TangentSpace {
		vec = solver.ToTangentSpace(vec, t.tex)
	}
	return writeVector(t.tex, t.cfg.OutputPath, t.dilation, true, vec)
}

// aoTask adapts solver.AO into a runner.Task.
type aoTask struct {
	s        *solver.AO
	tex      *uvraster.Compressed
	cfg      AOConfig
	dilation int
}

func newAOTask(c solver.Common, cfg AOConfig, dilation int) *aoTask {
	opts := solver.MonteCarloOptions{SampleCount: cfg.SampleCount, MinDistance: cfg.MinDistance, MaxDistance: cfg.MaxDistance, CullBackfaces: cfg.CullBackfaces}
	return &aoTask{s: solver.NewAO(c, opts), tex: c.Tex, cfg: cfg, dilation: dilation}
}

func (t *aoTask) Name() string      { return t.s.Name() }
func (t *aoTask) RunStep() bool     { return t.s.RunStep() }
func (t *aoTask) Progress() float64 { return t.s.Progress() }
func (t *aoTask) Finish() error {
	out := t.s.Finish()
	return writeScalar(t.tex, t.cfg.OutputPath, t.dilation, false, out.Scalar)
}

// bentNormalsTask adapts solver.BentNormals into a runner.Task.
type bentNormalsTask struct {
	s        *solver.BentNormals
	tex      *uvraster.Compressed
	cfg      BentNormalsConfig
	dilation int
}

func newBentNormalsTask(c solver.Common, cfg BentNormalsConfig, dilation int) *bentNormalsTask {
	opts := solver.MonteCarloOptions{SampleCount: cfg.SampleCount, MinDistance: cfg.MinDistance, MaxDistance: cfg.MaxDistance, CullBackfaces: cfg.CullBackfaces}
	return &bentNormalsTask{s: solver.NewBentNormals(c, opts, cfg.TangentSpace), tex: c.Tex, cfg: cfg, dilation: dilation}
}

func (t *bentNormalsTask) Name() string      { return t.s.Name() }
func (t *bentNormalsTask) RunStep() bool     { return t.s.RunStep() }
func (t *bentNormalsTask) Progress() float64 { return t.s.Progress() }
func (t *bentNormalsTask) Finish() error {
	out := t.s.Finish()
	return writeVector(t.tex, t.cfg.OutputPath, t.dilation, true, out.Vector)
}

// thicknessTask adapts solver.Thickness into a runner.Task.
type thicknessTask struct {
	s        *solver.Thickness
	tex      *uvraster.Compressed
	cfg      ThicknessConfig
	dilation int
}

func newThicknessTask(c solver.Common, cfg ThicknessConfig, dilation int) *thicknessTask {
	opts := solver.ThicknessOptions{
		MonteCarloOptions: solver.MonteCarloOptions{SampleCount: cfg.SampleCount, MinDistance: cfg.MinDistance, MaxDistance: cfg.MaxDistance, CullBackfaces: cfg.CullBackfaces},
		InvertOutput:      cfg.InvertOutput,
	}
	return &thicknessTask{s: solver.NewThickness(c, opts), tex: c.Tex, cfg: cfg, dilation: dilation}
}

func (t *thicknessTask) Name() string      { return t.s.Name() }
func (t *thicknessTask) RunStep() bool     { return t.s.RunStep() }
func (t *thicknessTask) Progress() float64 { return t.s.Progress() }
func (t *thicknessTask) Finish() error {
	out := t.s.Finish()
	return writeScalar(t.tex, t.cfg.OutputPath, t.dilation, false, out.Scalar)
}
