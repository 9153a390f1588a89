// Package bakeimage packs per-texel solver results back into a dense 2D
// pixel grid, dilates the UV-seam edges, and writes PNG, TGA, or EXR files.
// Format selection is a case-sensitive match on the final path extension.
package bakeimage

import (
	"fmt"
	"path/filepath"

	"github.com/texelbake/texelbake/pkg/bakeerr"
	"github.com/texelbake/texelbake/pkg/math3d"
)

// Grid is the dense pixel buffer a solver's compressed results are
// scattered into, already Y-flipped (pixel_y = H - y - 1) so OBJ's v axis
// points up in the final image, per spec.md §6.
type Grid struct {
	Width, Height int
	Pixels        []math3d.Vec3
	Valid         []bool
}

// NewGrid allocates an empty width×height grid.
func NewGrid(width, height int) *Grid {
	return &Grid{Width: width, Height: height, Pixels: make([]math3d.Vec3, width*height), Valid: make([]bool, width*height)}
}

func (g *Grid) flip(flatIndex, width, height int) int {
	x := flatIndex % width
	y := flatIndex / width
	py := height - y - 1
	return py*width + x
}

// ScatterScalar builds a grid from a scalar solver's compressed results,
// replicating the value across all three channels (the writer's PNG/TGA
// convention for scalar outputs).
func ScatterScalar(width, height int, indices []int, values []float64) *Grid {
	g := NewGrid(width, height)
	for i, flat := range indices {
		idx := g.flip(flat, width, height)
		v := values[i]
		g.Pixels[idx] = math3d.V3(v, v, v)
		g.Valid[idx] = true
	}
	return g
}

// ScatterVector builds a grid from a vector solver's compressed results.
func ScatterVector(width, height int, indices []int, values []math3d.Vec3) *Grid {
	g := NewGrid(width, height)
	for i, flat := range indices {
		idx := g.flip(flat, width, height)
		g.Pixels[idx] = values[i]
		g.Valid[idx] = true
	}
	return g
}

// NormalizeRange rescales a scalar result array to [0,1] using its raw
// min/max, the Height solver's writer convention (spec.md §4.5): when
// min == max the scale is 1 and bias 0, so a uniform array maps to all
// zero rather than dividing by zero. Returns the normalized copy and the
// raw (min, max) for diagnostics.
func NormalizeRange(values []float64) (normalized []float64, min, max float64) {
	if len(values) == 0 {
		return nil, 0, 0
	}
	min, max = values[0], values[0]
	for _, v := range values[1:] {
		if v < min {
			min = v
		}
		if v > max {
			max = v
		}
	}
	normalized = make([]float64, len(values))
	span := max - min
	if span == 0 {
		return normalized, min, max // all zero
	}
	for i, v := range values {
		normalized[i] = (v - min) / span
	}
	return normalized, min, max
}

// Write dispatches to the PNG/TGA/EXR writer selected by path's extension.
// vectorIsDirection controls the PNG/TGA normal-map byte mapping
// (channel = byte(clamp(v*0.5+0.5, 0, 1)*255)); ignored for scalar grids
// and for EXR (which always writes raw float/half values).
func Write(path string, g *Grid, scalar bool, vectorIsDirection bool) error {
	switch filepath.Ext(path) {
	case ".png":
		return WritePNG(path, g, scalar, vectorIsDirection)
	case ".tga":
		return WriteTGA(path, g, scalar, vectorIsDirection)
	case ".exr":
		return WriteEXR(path, g, scalar)
	default:
		return fmt.Errorf("%w: %s", bakeerr.ErrUnsupportedImageExt, path)
	}
}

func toByte(v float64) byte {
	if v < 0 {
		v = 0
	}
	if v > 1 {
		v = 1
	}
	return byte(v * 255)
}

// rgb8 returns the 24-bit RGB byte triple for one pixel, applying the
// direction mapping (*0.5+0.5) for normal/bent-normal vector outputs.
func rgb8(p math3d.Vec3, scalar, direction bool) (r, g, b byte) {
	if scalar || !direction {
		return toByte(p.X), toByte(p.Y), toByte(p.Z)
	}
	return toByte(p.X*0.5 + 0.5), toByte(p.Y*0.5 + 0.5), toByte(p.Z*0.5 + 0.5)
}
