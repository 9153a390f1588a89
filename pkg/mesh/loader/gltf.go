// Package loader adapts on-disk mesh formats (glTF, Wavefront OBJ) into the
// mesh.Mesh data model. The core baking pipeline never imports this
// package directly — mesh file parsing is an external collaborator per the
// bake system's design, and pkg/bakejob is the only caller.
package loader

import (
	"fmt"
	"path/filepath"
	"unsafe"

	"github.com/qmuntal/gltf"
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
)

// GLTF loads glTF/GLB files into mesh.Mesh.
type GLTF struct {
	// CalculateNormals computes normals when the source has none.
	CalculateNormals bool
	// SmoothNormals selects position-keyed smooth normals over flat
	// per-face normals when CalculateNormals applies.
	SmoothNormals bool
}

// NewGLTF creates a loader with default options (compute smooth normals
// when the source lacks them).
func NewGLTF() *GLTF {
	return &GLTF{CalculateNormals: true, SmoothNormals: true}
}

// LoadGLB loads a binary glTF (.glb) file with default options.
func LoadGLB(path string) (*mesh.Mesh, error) {
	return NewGLTF().Load(path)
}

// Load loads a glTF or GLB file and returns a Mesh.
func (l *GLTF) Load(path string) (*mesh.Mesh, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open gltf: %w", err)
	}

	m := mesh.New(filepath.Base(path))

	for _, gm := range doc.Meshes {
		if err := l.processMesh(doc, gm, m); err != nil {
			return nil, fmt.Errorf("process mesh %q: %w", gm.Name, err)
		}
	}

	hasNormals := len(m.Normals) > 0
	if l.CalculateNormals && !hasNormals {
		if l.SmoothNormals {
			m.RecomputeSmoothNormalsByPosition()
		} else {
			m.CalculateFaceNormals()
		}
	}

	m.CalculateBounds()
	return m, nil
}

// processMesh extracts geometry from a glTF mesh's primitives, appending
// into m's parallel attribute arrays and vertex/triangle lists.
func (l *GLTF) processMesh(doc *gltf.Document, gm *gltf.Mesh, m *mesh.Mesh) error {
	for _, prim := range gm.Primitives {
		if prim.Mode != gltf.PrimitiveTriangles && prim.Mode != 0 {
			continue
		}

		posIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok {
			continue
		}
		positions, err := readVec3Accessor(doc, posIdx)
		if err != nil {
			return fmt.Errorf("read positions: %w", err)
		}

		var normals []math3d.Vec3
		if normIdx, ok := prim.Attributes[gltf.NORMAL]; ok {
			normals, err = readVec3Accessor(doc, normIdx)
			if err != nil {
				return fmt.Errorf("read normals: %w", err)
			}
		}

		var uvs []math3d.Vec2
		if uvIdx, ok := prim.Attributes[gltf.TEXCOORD_0]; ok {
			uvs, err = readVec2Accessor(doc, uvIdx)
			if err != nil {
				return fmt.Errorf("read uvs: %w", err)
			}
		}

		basePos := len(m.Positions)
		baseNorm := len(m.Normals)
		baseUV := len(m.Texcoords)
		baseVertex := len(m.Vertices)

		m.Positions = append(m.Positions, positions...)
		m.Normals = append(m.Normals, normals...)
		for _, uv := range uvs {
			// glTF uses top-left UV origin (V=0 at top); flip to bottom-left.
			m.Texcoords = append(m.Texcoords, math3d.V2(uv.X, 1.0-uv.Y))
		}

		for i := range positions {
			vr := mesh.VertexRef{Position: basePos + i, Texcoord: mesh.InvalidIndex, Normal: mesh.InvalidIndex}
			if i < len(normals) {
				vr.Normal = baseNorm + i
			}
			if i < len(uvs) {
				vr.Texcoord = baseUV + i
			}
			m.Vertices = append(m.Vertices, vr)
		}

		// glTF uses CCW front-face winding; swap the last two indices to
		// match this module's CW convention (same reversal the teacher's
		// rasterizer-facing loader applied).
		if prim.Indices != nil {
			indices, err := readIndices(doc, *prim.Indices)
			if err != nil {
				return fmt.Errorf("read indices: %w", err)
			}
			for i := 0; i+2 < len(indices); i += 3 {
				m.Triangles = append(m.Triangles, mesh.Triangle{V: [3]int{
					baseVertex + indices[i],
					baseVertex + indices[i+2],
					baseVertex + indices[i+1],
				}})
			}
		} else {
			for i := 0; i+2 < len(positions); i += 3 {
				m.Triangles = append(m.Triangles, mesh.Triangle{V: [3]int{
					baseVertex + i,
					baseVertex + i + 2,
					baseVertex + i + 1,
				}})
			}
		}
	}

	return nil
}

func readVec3Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec3, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec3 {
		return nil, fmt.Errorf("expected VEC3, got %v", accessor.Type)
	}
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	floats, ok := data.([][3]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC3")
	}
	result := make([]math3d.Vec3, len(floats))
	for i, f := range floats {
		result[i] = math3d.V3(float64(f[0]), float64(f[1]), float64(f[2]))
	}
	return result, nil
}

func readVec2Accessor(doc *gltf.Document, accessorIdx int) ([]math3d.Vec2, error) {
	accessor := doc.Accessors[accessorIdx]
	if accessor.Type != gltf.AccessorVec2 {
		return nil, fmt.Errorf("expected VEC2, got %v", accessor.Type)
	}
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	floats, ok := data.([][2]float32)
	if !ok {
		return nil, fmt.Errorf("unexpected data type for VEC2")
	}
	result := make([]math3d.Vec2, len(floats))
	for i, f := range floats {
		result[i] = math3d.V2(float64(f[0]), float64(f[1]))
	}
	return result, nil
}

func readIndices(doc *gltf.Document, accessorIdx int) ([]int, error) {
	accessor := doc.Accessors[accessorIdx]
	data, err := readAccessorData(doc, accessor)
	if err != nil {
		return nil, err
	}
	switch v := data.(type) {
	case []uint8:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	case []uint16:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	case []uint32:
		result := make([]int, len(v))
		for i, x := range v {
			result[i] = int(x)
		}
		return result, nil
	default:
		return nil, fmt.Errorf("unexpected index type: %T", data)
	}
}

func readAccessorData(doc *gltf.Document, accessor *gltf.Accessor) (any, error) {
	if accessor.BufferView == nil {
		return nil, fmt.Errorf("accessor has no buffer view")
	}
	bufferView := doc.BufferViews[*accessor.BufferView]
	buffer := doc.Buffers[bufferView.Buffer]

	var bufData []byte
	if buffer.URI == "" {
		bufData = buffer.Data
	} else {
		return nil, fmt.Errorf("external buffers not supported yet")
	}
	if bufData == nil {
		return nil, fmt.Errorf("buffer has no data")
	}

	start := bufferView.ByteOffset + accessor.ByteOffset
	stride := bufferView.ByteStride
	count := accessor.Count

	switch accessor.Type {
	case gltf.AccessorVec3:
		if stride == 0 {
			stride = 12
		}
		result := make([][3]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 3 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorVec2:
		if stride == 0 {
			stride = 8
		}
		result := make([][2]float32, count)
		for i := range count {
			offset := start + i*stride
			for j := range 2 {
				result[i][j] = readFloat32(bufData[offset+j*4:])
			}
		}
		return result, nil

	case gltf.AccessorScalar:
		if stride == 0 {
			switch accessor.ComponentType {
			case gltf.ComponentUbyte:
				stride = 1
			case gltf.ComponentUshort:
				stride = 2
			case gltf.ComponentUint:
				stride = 4
			}
		}
		switch accessor.ComponentType {
		case gltf.ComponentUbyte:
			result := make([]uint8, count)
			for i := range count {
				result[i] = bufData[start+i*stride]
			}
			return result, nil
		case gltf.ComponentUshort:
			result := make([]uint16, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint16(bufData[offset]) | uint16(bufData[offset+1])<<8
			}
			return result, nil
		case gltf.ComponentUint:
			result := make([]uint32, count)
			for i := range count {
				offset := start + i*stride
				result[i] = uint32(bufData[offset]) |
					uint32(bufData[offset+1])<<8 |
					uint32(bufData[offset+2])<<16 |
					uint32(bufData[offset+3])<<24
			}
			return result, nil
		}
	}

	return nil, fmt.Errorf("unsupported accessor type: %v / %v", accessor.Type, accessor.ComponentType)
}

func readFloat32(b []byte) float32 {
	bits := uint32(b[0]) | uint32(b[1])<<8 | uint32(b[2])<<16 | uint32(b[3])<<24
	return float32frombits(bits)
}

func float32frombits(b uint32) float32 {
	return *(*float32)(unsafe.Pointer(&b))
}
