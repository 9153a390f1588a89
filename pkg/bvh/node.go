package bvh

// Node is a builder-tree BVH node: owned by its parent (tree shape, no
// cycles), either internal (two Children, empty Triangles) or a leaf (no
// Children, one or more Triangles).
type Node struct {
	AABB                 AABB
	Triangles            []uint32
	Children             *[2]Node
	SubtreeTriangleCount int
}

// IsLeaf reports whether this node has no children.
func (n *Node) IsLeaf() bool {
	return n.Children == nil
}
