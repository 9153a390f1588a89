package bvh

// TraverseNearest walks the flat BVH per spec.md §4.4's iterative traversal
// loop and returns the nearest triangle intersection with t in
// [rayEpsilon, maxT). cullBackfaces discards hits where the ray strikes the
// back of the triangle under GeometricNormal's winding. Shared by
// pkg/mapping's closest-hit search and pkg/solver's hemisphere shadow rays
// so both stages traverse the same way.
func TraverseNearest(flat *Flat, ray Ray, maxT float64, cullBackfaces bool) (hit TriangleHit, tri uint32, ok bool) {
	bestT := maxT

	cursor := uint32(0)
	n := uint32(len(flat.Nodes))
	for cursor < n {
		node := flat.Nodes[cursor]
		box := AABB{
			Center:   node.AABBMin.Add(node.AABBMax).Scale(0.5),
			HalfSize: node.AABBMax.Sub(node.AABBMin).Scale(0.5),
		}
		if !RayAABBIntersect(ray, box) {
			cursor = node.Skip
			continue
		}
		if node.TriEnd > node.TriStart {
			for v := node.TriStart; v < node.TriEnd; v += 3 {
				p0, p1, p2 := flat.Positions[v], flat.Positions[v+1], flat.Positions[v+2]
				h, okHit := RayTriangleIntersect(ray, p0, p1, p2)
				if !okHit || h.T >= bestT {
					continue
				}
				if cullBackfaces && ray.Direction.Dot(GeometricNormal(p0, p1, p2)) >= 0 {
					continue
				}
				bestT = h.T
				hit = h
				tri = v
				ok = true
			}
		}
		cursor++
	}
	return hit, tri, ok
}
