// texelbake bakes per-texel surface attributes (height, position, normal,
// ambient occlusion, bent normals, thickness) from a high-poly reference
// mesh onto a low-poly mesh's UV layout and writes each result as an image
// file.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/texelbake/texelbake/pkg/bakejob"
	"github.com/texelbake/texelbake/pkg/uvraster"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "texelbake",
		Short:         "Bake per-texel surface attributes onto a low-poly mesh's UV layout",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newBakeCmd())
	return root
}

// bakeFlags mirrors pkg/bakejob.Job field-for-field; cobra flag names echo
// the teacher's own flag vocabulary (-texture, -fps, -bg in cmd/trophy)
// where a concept overlaps, otherwise name the Job field directly.
type bakeFlags struct {
	lowMesh, highMesh   string
	lowNormal, highNorm string
	width, height       int
	dilation            int
	mappingMode         string
	hybridEdge          float64
	ignoreBackfaces     bool
	maxTrisPerLeaf      int

	heightOut      string
	positionOut    string
	normalOut      string
	normalTangent  bool
	aoOut          string
	aoSamples      int
	aoMinDist      float64
	aoMaxDist      float64
	aoCullBack     bool
	bentOut        string
	bentSamples    int
	bentMinDist    float64
	bentMaxDist    float64
	bentCullBack   bool
	bentTangent    bool
	thickOut       string
	thickSamples   int
	thickMinDist   float64
	thickMaxDist   float64
	thickCullBack  bool
	thickInvert    bool
}

func newBakeCmd() *cobra.Command {
	f := &bakeFlags{}
	cmd := &cobra.Command{
		Use:   "bake",
		Short: "Run one bake job and write its enabled outputs",
		RunE: func(cmd *cobra.Command, args []string) error {
			job, err := f.job()
			if err != nil {
				return err
			}

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			sigCh := make(chan os.Signal, 1)
			signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)
			go func() {
				<-sigCh
				log.Print("texelbake: interrupted, cancelling")
				cancel()
			}()

			if err := bakejob.Run(ctx, job); err != nil {
				return fmt.Errorf("texelbake: %w", err)
			}
			log.Print("texelbake: bake complete")
			return nil
		},
	}

	fl := cmd.Flags()
	fl.StringVar(&f.lowMesh, "low", "", "Path to the low-poly mesh (.obj, .gltf, .glb)")
	fl.StringVar(&f.highMesh, "high", "", "Path to the high-poly reference mesh (defaults to --low)")
	fl.StringVar(&f.lowNormal, "low-normals", "import", "Low-poly normal mode: import, per-face, per-vertex")
	fl.StringVar(&f.highNorm, "high-normals", "import", "High-poly normal mode: import, per-face, per-vertex")
	fl.IntVar(&f.width, "width", 512, "Output image width in texels")
	fl.IntVar(&f.height, "height", 512, "Output image height in texels")
	fl.IntVar(&f.dilation, "dilation", 4, "Edge dilation radius in texels")
	fl.StringVar(&f.mappingMode, "mapping", "lowpoly", "Ray-direction mode: lowpoly, smooth, hybrid")
	fl.Float64Var(&f.hybridEdge, "hybrid-edge", 0.01, "World-space blend distance for --mapping=hybrid")
	fl.BoolVar(&f.ignoreBackfaces, "ignore-backfaces", false, "Cull backface hits during mesh mapping")
	fl.IntVar(&f.maxTrisPerLeaf, "bvh-max-tris", 0, "Max triangles per BVH leaf (0 uses the builder default)")

	fl.StringVar(&f.heightOut, "height-out", "", "Write a height map to this path (enables the solver)")
	fl.StringVar(&f.positionOut, "position-out", "", "Write a world-position map to this path (enables the solver)")
	fl.StringVar(&f.normalOut, "normal-out", "", "Write a normal map to this path (enables the solver)")
	fl.BoolVar(&f.normalTangent, "normal-tangent-space", false, "Encode the normal map in tangent space instead of object space")
	fl.StringVar(&f.aoOut, "ao-out", "", "Write an ambient occlusion map to this path (enables the solver)")
	fl.IntVar(&f.aoSamples, "ao-samples", 64, "Hemisphere sample count for ambient occlusion")
	fl.Float64Var(&f.aoMinDist, "ao-min-distance", 0.001, "Ray origin offset along the surface normal")
	fl.Float64Var(&f.aoMaxDist, "ao-max-distance", 1.0, "Maximum occlusion ray length")
	fl.BoolVar(&f.aoCullBack, "ao-cull-backfaces", false, "Ignore backface hits when sampling ambient occlusion")
	fl.StringVar(&f.bentOut, "bent-normals-out", "", "Write a bent-normals map to this path (enables the solver)")
	fl.IntVar(&f.bentSamples, "bent-normals-samples", 64, "Hemisphere sample count for bent normals")
	fl.Float64Var(&f.bentMinDist, "bent-normals-min-distance", 0.001, "Ray origin offset along the surface normal")
	fl.Float64Var(&f.bentMaxDist, "bent-normals-max-distance", 1.0, "Maximum unoccluded-direction ray length")
	fl.BoolVar(&f.bentCullBack, "bent-normals-cull-backfaces", false, "Ignore backface hits when sampling bent normals")
	fl.BoolVar(&f.bentTangent, "bent-normals-tangent-space", false, "Encode bent normals in tangent space instead of object space")
	fl.StringVar(&f.thickOut, "thickness-out", "", "Write a thickness map to this path (enables the solver)")
	fl.IntVar(&f.thickSamples, "thickness-samples", 64, "Inward hemisphere sample count for thickness")
	fl.Float64Var(&f.thickMinDist, "thickness-min-distance", 0.001, "Ray origin offset along the inward normal")
	fl.Float64Var(&f.thickMaxDist, "thickness-max-distance", 1.0, "Maximum inbound ray length")
	fl.BoolVar(&f.thickCullBack, "thickness-cull-backfaces", false, "Ignore backface hits when sampling thickness")
	fl.BoolVar(&f.thickInvert, "thickness-invert", false, "Write 1-d instead of d (legacy ExportAOMap convention)")

	cmd.MarkFlagRequired("low")
	return cmd
}

func (f *bakeFlags) job() (bakejob.Job, error) {
	lowMode, err := parseNormalMode(f.lowNormal)
	if err != nil {
		return bakejob.Job{}, fmt.Errorf("--low-normals: %w", err)
	}
	highMode, err := parseNormalMode(f.highNorm)
	if err != nil {
		return bakejob.Job{}, fmt.Errorf("--high-normals: %w", err)
	}
	mode, err := parseMappingMode(f.mappingMode)
	if err != nil {
		return bakejob.Job{}, fmt.Errorf("--mapping: %w", err)
	}

	return bakejob.Job{
		LowMeshPath:  f.lowMesh,
		HighMeshPath: f.highMesh,

		LowNormalMode:  lowMode,
		HighNormalMode: highMode,

		Width:    f.width,
		Height:   f.height,
		Dilation: f.dilation,

		MappingMode:     mode,
		HybridEdge:      f.hybridEdge,
		IgnoreBackfaces: f.ignoreBackfaces,

		MaxTrianglesPerLeaf: f.maxTrisPerLeaf,

		HeightSolver: bakejob.HeightConfig{
			SolverOutput: bakejob.SolverOutput{Enabled: f.heightOut != "", OutputPath: f.heightOut},
		},
		PositionSolver: bakejob.PositionConfig{
			SolverOutput: bakejob.SolverOutput{Enabled: f.positionOut != "", OutputPath: f.positionOut},
		},
		NormalSolver: bakejob.NormalConfig{
			SolverOutput: bakejob.SolverOutput{Enabled: f.normalOut != "", OutputPath: f.normalOut},
			TangentSpace: f.normalTangent,
		},
		AOSolver: bakejob.AOConfig{
			SolverOutput:  bakejob.SolverOutput{Enabled: f.aoOut != "", OutputPath: f.aoOut},
			SampleCount:   f.aoSamples,
			MinDistance:   f.aoMinDist,
			MaxDistance:   f.aoMaxDist,
			CullBackfaces: f.aoCullBack,
		},
		BentNormalsSolver: bakejob.BentNormalsConfig{
			SolverOutput:  bakejob.SolverOutput{Enabled: f.bentOut != "", OutputPath: f.bentOut},
			SampleCount:   f.bentSamples,
			MinDistance:   f.bentMinDist,
			MaxDistance:   f.bentMaxDist,
			CullBackfaces: f.bentCullBack,
			TangentSpace:  f.bentTangent,
		},
		ThicknessSolver: bakejob.ThicknessConfig{
			SolverOutput:  bakejob.SolverOutput{Enabled: f.thickOut != "", OutputPath: f.thickOut},
			SampleCount:   f.thickSamples,
			MinDistance:   f.thickMinDist,
			MaxDistance:   f.thickMaxDist,
			CullBackfaces: f.thickCullBack,
			InvertOutput:  f.thickInvert,
		},
	}, nil
}

func parseNormalMode(s string) (bakejob.NormalMode, error) {
	switch s {
	case "import":
		return bakejob.NormalImport, nil
	case "per-face":
		return bakejob.NormalComputePerFace, nil
	case "per-vertex":
		return bakejob.NormalComputePerVertex, nil
	default:
		return 0, fmt.Errorf("unknown normal mode %q (want import, per-face, per-vertex)", s)
	}
}

func parseMappingMode(s string) (uvraster.Mode, error) {
	switch s {
	case "lowpoly":
		return uvraster.ModeLowPolyNormals, nil
	case "smooth":
		return uvraster.ModeSmooth, nil
	case "hybrid":
		return uvraster.ModeHybrid, nil
	default:
		return 0, fmt.Errorf("unknown mapping mode %q (want lowpoly, smooth, hybrid)", s)
	}
}
