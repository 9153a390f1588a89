// Package uvraster rasterizes a low-poly mesh into a dense grid of per-texel
// surface samples keyed by UV, then compresses that grid into the parallel
// arrays the mapping and solver stages consume. Grounded on the teacher's
// pkg/render/rasterizer.go barycentric/bounding-box-scan idiom, retargeted
// from screen-space-with-depth to UV-space-with-surface-attributes.
package uvraster

import "github.com/texelbake/texelbake/pkg/math3d"

// Texel holds the surface sample recorded at one populated grid cell.
type Texel struct {
	Valid     bool
	Position  math3d.Vec3
	Direction math3d.Vec3
	Normal    math3d.Vec3
	Tangent   math3d.Vec3
	Bitangent math3d.Vec3
}

// Dense is a W×H grid of texel samples, row-major, indexed [y*W+x].
type Dense struct {
	Width, Height int
	Texels        []Texel
}

// NewDense allocates an empty W×H grid.
func NewDense(width, height int) *Dense {
	return &Dense{Width: width, Height: height, Texels: make([]Texel, width*height)}
}

// At returns the texel at pixel (x, y).
func (d *Dense) At(x, y int) *Texel {
	return &d.Texels[y*d.Width+x]
}

// Compressed drops every unpopulated cell and keeps the parallel arrays the
// rest of the pipeline (mapping, solvers, image writer) reads. Indices is
// strictly increasing by construction (built from a single forward scan).
type Compressed struct {
	Width, Height int
	Indices       []int
	Positions     []math3d.Vec3
	Directions    []math3d.Vec3
	Normals       []math3d.Vec3
	Tangents      []math3d.Vec3
	Bitangents    []math3d.Vec3
}

// Compress builds the compressed texel arrays from a dense grid in raster
// order, so Indices comes out strictly increasing.
func Compress(d *Dense) *Compressed {
	c := &Compressed{Width: d.Width, Height: d.Height}
	for i, t := range d.Texels {
		if !t.Valid {
			continue
		}
		c.Indices = append(c.Indices, i)
		c.Positions = append(c.Positions, t.Position)
		c.Directions = append(c.Directions, t.Direction)
		c.Normals = append(c.Normals, t.Normal)
		c.Tangents = append(c.Tangents, t.Tangent)
		c.Bitangents = append(c.Bitangents, t.Bitangent)
	}
	return c
}

// Len returns the number of valid texels.
func (c *Compressed) Len() int {
	return len(c.Indices)
}
