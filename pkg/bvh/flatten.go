package bvh

import (
	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
)

// FlatNode is one record of the depth-first-linearized traversal BVH.
// A node is a leaf iff TriEnd > TriStart. Skip points at the index to
// resume traversal from when this node's AABB test fails.
type FlatNode struct {
	AABBMin, AABBMax math3d.Vec3
	TriStart, TriEnd uint32
	Skip             uint32
}

// Flat is the flattened BVH plus its companion flat triangle-vertex arrays.
// Positions/Normals are stored in parallel, stride 3 per triangle (matching
// the companion arrays described in spec.md §3).
type Flat struct {
	Nodes     []FlatNode
	Positions []math3d.Vec3
	Normals   []math3d.Vec3
}

// Flatten performs the DFS emission of root into a Flat BVH, collapsing any
// "chain" node that has one empty-subtree child and one non-empty (emitting
// only the non-empty child in its place), matching
// original_source/Src/meshmapping.cpp's fillMeshData.
func Flatten(m *mesh.Mesh, root *Node) *Flat {
	f := &Flat{}
	emit(m, root, f)
	return f
}

// emit mirrors fillMeshData: an internal node with exactly one non-empty
// child is replaced by that child outright (an extra AABB test for nothing
// otherwise); a node with no children and no triangles is skipped entirely.
func emit(m *mesh.Mesh, node *Node, f *Flat) {
	if node.IsLeaf() && len(node.Triangles) == 0 {
		return
	}

	if !node.IsLeaf() {
		left, right := &node.Children[0], &node.Children[1]
		if left.SubtreeTriangleCount > 0 && right.SubtreeTriangleCount == 0 {
			emit(m, left, f)
			return
		}
		if right.SubtreeTriangleCount > 0 && left.SubtreeTriangleCount == 0 {
			emit(m, right, f)
			return
		}
	}

	index := len(f.Nodes)
	f.Nodes = append(f.Nodes, FlatNode{
		AABBMin: node.AABB.Min(),
		AABBMax: node.AABB.Max(),
	})

	start := uint32(len(f.Positions))
	for _, ti := range node.Triangles {
		tri := m.Triangles[ti]
		p0, p1, p2 := m.TrianglePositions(tri)
		v0, v1, v2 := m.Vertices[tri.V[0]], m.Vertices[tri.V[1]], m.Vertices[tri.V[2]]
		f.Positions = append(f.Positions, p0, p1, p2)
		f.Normals = append(f.Normals,
			vertexNormal(m, v0), vertexNormal(m, v1), vertexNormal(m, v2))
	}
	end := uint32(len(f.Positions))
	f.Nodes[index].TriStart = start
	f.Nodes[index].TriEnd = end

	if !node.IsLeaf() {
		emit(m, &node.Children[0], f)
		emit(m, &node.Children[1], f)
	}

	// A pointer into f.Nodes would be invalidated by nested emit() calls
	// reallocating it, so re-index rather than hold one across the calls.
	f.Nodes[index].Skip = uint32(len(f.Nodes))
}

func vertexNormal(m *mesh.Mesh, v mesh.VertexRef) math3d.Vec3 {
	if v.Normal == mesh.InvalidIndex {
		return math3d.Vec3{}
	}
	return m.Normals[v.Normal]
}
