package loader

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
)

// OBJ loads Wavefront OBJ files.
type OBJ struct {
	CalculateNormals bool // If true, calculate normals if not provided
	SmoothNormals    bool // If true, use position-keyed smooth normals
}

// NewOBJ creates a new OBJ loader with default settings.
func NewOBJ() *OBJ {
	return &OBJ{CalculateNormals: true, SmoothNormals: false}
}

// LoadFile loads an OBJ file from disk.
func (l *OBJ) LoadFile(path string) (*mesh.Mesh, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open OBJ file: %w", err)
	}
	defer f.Close()
	return l.Load(f, path)
}

// Load parses an OBJ from a reader.
//
// OBJ indices are 1-based in the file and converted to 0-based on load; a
// face vertex that omits its texcoord or normal slot (v, v//vn, v/vt) maps
// to mesh.InvalidIndex rather than a resolved array position.
func (l *OBJ) Load(r io.Reader, name string) (*mesh.Mesh, error) {
	m := mesh.New(name)

	var positions []math3d.Vec3
	var normals []math3d.Vec3
	var uvs []math3d.Vec2

	// OBJ can reuse the same position across different texcoord/normal
	// combinations; dedupe by the full (pos,uv,normal) triple so shared
	// combinations reuse one VertexRef.
	type vertexKey struct{ pos, uv, normal int }
	vertexMap := make(map[vertexKey]int)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNum := 0

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if len(line) == 0 || line[0] == '#' {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) == 0 {
			continue
		}

		switch fields[0] {
		case "v":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: invalid vertex (need x y z)", lineNum)
			}
			x, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid x coordinate: %w", lineNum, err)
			}
			y, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid y coordinate: %w", lineNum, err)
			}
			z, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid z coordinate: %w", lineNum, err)
			}
			positions = append(positions, math3d.V3(x, y, z))

		case "vt":
			if len(fields) < 3 {
				return nil, fmt.Errorf("line %d: invalid texture coord (need u v)", lineNum)
			}
			u, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid u coordinate: %w", lineNum, err)
			}
			v, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid v coordinate: %w", lineNum, err)
			}
			uvs = append(uvs, math3d.V2(u, v))

		case "vn":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: invalid normal (need x y z)", lineNum)
			}
			x, err := strconv.ParseFloat(fields[1], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid normal x: %w", lineNum, err)
			}
			y, err := strconv.ParseFloat(fields[2], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid normal y: %w", lineNum, err)
			}
			z, err := strconv.ParseFloat(fields[3], 64)
			if err != nil {
				return nil, fmt.Errorf("line %d: invalid normal z: %w", lineNum, err)
			}
			normals = append(normals, math3d.V3(x, y, z).Normalize())

		case "f":
			if len(fields) < 4 {
				return nil, fmt.Errorf("line %d: face needs at least 3 vertices", lineNum)
			}

			var faceVerts []int
			for i := 1; i < len(fields); i++ {
				posIdx, uvIdx, normalIdx, err := parseFaceVertex(fields[i])
				if err != nil {
					return nil, fmt.Errorf("line %d: %w", lineNum, err)
				}

				posIdx = resolveIndex(posIdx, len(positions))
				uvIdx = resolveIndex(uvIdx, len(uvs))
				normalIdx = resolveIndex(normalIdx, len(normals))

				if posIdx < 0 || posIdx >= len(positions) {
					return nil, fmt.Errorf("line %d: position index %d out of range", lineNum, posIdx+1)
				}

				key := vertexKey{posIdx, uvIdx, normalIdx}
				vertIdx, exists := vertexMap[key]
				if !exists {
					vr := mesh.VertexRef{Position: posIdx, Texcoord: mesh.InvalidIndex, Normal: mesh.InvalidIndex}
					if uvIdx >= 0 && uvIdx < len(uvs) {
						vr.Texcoord = uvIdx
					}
					if normalIdx >= 0 && normalIdx < len(normals) {
						vr.Normal = normalIdx
					}
					vertIdx = len(m.Vertices)
					m.Vertices = append(m.Vertices, vr)
					vertexMap[key] = vertIdx
				}
				faceVerts = append(faceVerts, vertIdx)
			}

			// Fan-triangulate convex polygons. OBJ uses CCW winding for
			// front-facing; this module uses CW, so swap the trailing pair.
			for i := 1; i < len(faceVerts)-1; i++ {
				m.Triangles = append(m.Triangles, mesh.Triangle{
					V: [3]int{faceVerts[0], faceVerts[i+1], faceVerts[i]},
				})
			}

		case "o", "g":
			if len(fields) > 1 {
				m.Name = fields[1]
			}

		case "mtllib", "usemtl", "s":
			// Material/smoothing directives: out of scope for this loader.

		default:
			// Ignore unknown directives.
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading OBJ: %w", err)
	}

	m.Positions = positions
	m.Texcoords = uvs
	m.Normals = normals

	m.CalculateBounds()

	if l.CalculateNormals && len(normals) == 0 {
		if l.SmoothNormals {
			m.RecomputeSmoothNormalsByPosition()
		} else {
			m.CalculateFaceNormals()
		}
	}

	return m, nil
}

// parseFaceVertex parses a face vertex token: v, v/vt, v/vt/vn, or v//vn.
// Returns 1-indexed values (0 means not specified).
func parseFaceVertex(s string) (pos, uv, normal int, err error) {
	parts := strings.Split(s, "/")

	pos, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, 0, 0, fmt.Errorf("invalid vertex index: %s", parts[0])
	}

	if len(parts) > 1 && parts[1] != "" {
		uv, err = strconv.Atoi(parts[1])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid texture index: %s", parts[1])
		}
	}

	if len(parts) > 2 && parts[2] != "" {
		normal, err = strconv.Atoi(parts[2])
		if err != nil {
			return 0, 0, 0, fmt.Errorf("invalid normal index: %s", parts[2])
		}
	}

	return pos, uv, normal, nil
}

// resolveIndex converts an OBJ 1-indexed (or negative, relative) index to
// 0-indexed. Returns -1 if idx was 0 (not specified).
func resolveIndex(idx, count int) int {
	if idx == 0 {
		return -1
	}
	if idx < 0 {
		return count + idx
	}
	return idx - 1
}

// LoadOBJ loads an OBJ file with default settings (flat per-face normals
// when the file has none).
func LoadOBJ(path string) (*mesh.Mesh, error) {
	return NewOBJ().LoadFile(path)
}

// LoadOBJSmooth loads an OBJ file with position-keyed smooth normals when
// the file has none.
func LoadOBJSmooth(path string) (*mesh.Mesh, error) {
	l := NewOBJ()
	l.SmoothNormals = true
	return l.LoadFile(path)
}
