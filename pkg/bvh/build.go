package bvh

import (
	"math"

	"github.com/texelbake/texelbake/pkg/math3d"
	"github.com/texelbake/texelbake/pkg/mesh"
)

const numBuckets = 16

// Options configures BVH construction.
type Options struct {
	MaxTrianglesPerLeaf int
	MaxDepth            int
}

// DefaultOptions returns reasonable defaults for a mid-size mesh.
func DefaultOptions() Options {
	return Options{MaxTrianglesPerLeaf: 8, MaxDepth: 32}
}

// Build constructs the binary BVH builder tree over m's triangles. The root
// AABB bounds every mesh vertex position; every triangle ends up referenced
// by exactly one leaf.
func Build(m *mesh.Mesh, opts Options) *Node {
	acc := newAABBAccum()
	for _, p := range m.Positions {
		acc.addPoint(p)
	}

	root := &Node{
		AABB:      acc.toAABB(),
		Triangles: make([]uint32, len(m.Triangles)),
	}
	for i := range m.Triangles {
		root.Triangles[i] = uint32(i)
	}

	subdivide(m, opts, root, 0)
	return root
}

// subdivide recursively splits node in place following spec.md §4.3: bucket
// centroids on all three axes into 16 buckets, evaluate per-axis SAH cost
// over the 15 split planes between buckets, pick the best, and recurse — or collapse to a leaf when
// either side of the chosen split would be empty.
func subdivide(m *mesh.Mesh, opts Options, node *Node, depth int) {
	if len(node.Triangles) <= opts.MaxTrianglesPerLeaf || depth >= opts.MaxDepth {
		node.SubtreeTriangleCount = len(node.Triangles)
		return
	}

	axis, plane, ok := findBestSplit(m, node.Triangles)
	if !ok {
		node.SubtreeTriangleCount = len(node.Triangles)
		return
	}

	var leftTris, rightTris []uint32
	leftAcc, rightAcc := newAABBAccum(), newAABBAccum()

	for _, ti := range node.Triangles {
		tri := m.Triangles[ti]
		p0, p1, p2 := m.TrianglePositions(tri)
		centroid := p0.Add(p1).Add(p2).Scale(1.0 / 3.0)

		if axisValue(centroid, axis) <= plane {
			leftTris = append(leftTris, ti)
			leftAcc.addPoint(p0)
			leftAcc.addPoint(p1)
			leftAcc.addPoint(p2)
		} else {
			rightTris = append(rightTris, ti)
			rightAcc.addPoint(p0)
			rightAcc.addPoint(p1)
			rightAcc.addPoint(p2)
		}
	}

	if len(leftTris) == 0 || len(rightTris) == 0 {
		// Empty-side guard: discard the attempted split and keep as leaf.
		node.SubtreeTriangleCount = len(node.Triangles)
		return
	}

	node.Triangles = nil
	node.Children = &[2]Node{
		{AABB: leftAcc.toAABB(), Triangles: leftTris},
		{AABB: rightAcc.toAABB(), Triangles: rightTris},
	}

	subdivide(m, opts, &node.Children[0], depth+1)
	subdivide(m, opts, &node.Children[1], depth+1)

	node.AABB = unionAABB(node.Children[0].AABB, node.Children[1].AABB)
	node.SubtreeTriangleCount = node.Children[0].SubtreeTriangleCount + node.Children[1].SubtreeTriangleCount
}

type axis int

const (
	axisX axis = iota
	axisY
	axisZ
)

func axisValue(v math3d.Vec3, a axis) float64 {
	switch a {
	case axisX:
		return v.X
	case axisY:
		return v.Y
	default:
		return v.Z
	}
}

// findBestSplit buckets triangle centroids on all three axes into 16
// fixed bins, evaluates SAH cost = count(side) * surface_area(aabb(side))
// for every one of the 15 internal split positions per axis, and returns
// the (axis, world-space split plane) pair with lowest total cost.
func findBestSplit(m *mesh.Mesh, tris []uint32) (axis, float64, bool) {
	centAcc := newAABBAccum()
	for _, ti := range tris {
		centAcc.addPoint(m.TriangleCentroid(m.Triangles[ti]))
	}
	cmin, cmax := centAcc.min, centAcc.max

	type bucket struct {
		count int
		acc   aabbAccum
	}
	buckets := [3][numBuckets]bucket{}
	for a := range buckets {
		for i := range buckets[a] {
			buckets[a][i].acc = newAABBAccum()
		}
	}

	bucketIndex := func(v, lo, hi float64) int {
		if hi == lo {
			return 0
		}
		i := int((v - lo) / (hi - lo) * 15.99)
		if i < 0 {
			i = 0
		}
		if i > numBuckets-1 {
			i = numBuckets - 1
		}
		return i
	}

	for _, ti := range tris {
		tri := m.Triangles[ti]
		p0, p1, p2 := m.TrianglePositions(tri)
		centroid := p0.Add(p1).Add(p2).Scale(1.0 / 3.0)

		ix := bucketIndex(centroid.X, cmin.X, cmax.X)
		iy := bucketIndex(centroid.Y, cmin.Y, cmax.Y)
		iz := bucketIndex(centroid.Z, cmin.Z, cmax.Z)

		for _, pair := range [...]struct {
			a axis
			i int
		}{{axisX, ix}, {axisY, iy}, {axisZ, iz}} {
			b := &buckets[pair.a][pair.i]
			b.count++
			b.acc.addPoint(p0)
			b.acc.addPoint(p1)
			b.acc.addPoint(p2)
		}
	}

	bestCost := math.Inf(1)
	bestAxis := axisX
	bestSplit := -1
	for a := axisX; a <= axisZ; a++ {
		// Prefix/suffix accumulation over the 16 buckets gives the cost of
		// every one of the 15 internal split positions in one pass.
		var leftCount [numBuckets]int
		var leftAABB [numBuckets]AABB
		accL := newAABBAccum()
		runningCount := 0
		for i := 0; i < numBuckets; i++ {
			runningCount += buckets[a][i].count
			if buckets[a][i].acc.has {
				accL.min = accL.min.Min(buckets[a][i].acc.min)
				accL.max = accL.max.Max(buckets[a][i].acc.max)
				accL.has = true
			}
			leftCount[i] = runningCount
			leftAABB[i] = accL.toAABB()
		}

		var rightCount [numBuckets]int
		var rightAABB [numBuckets]AABB
		accR := newAABBAccum()
		runningCount = 0
		for i := numBuckets - 1; i >= 0; i-- {
			runningCount += buckets[a][i].count
			if buckets[a][i].acc.has {
				accR.min = accR.min.Min(buckets[a][i].acc.min)
				accR.max = accR.max.Max(buckets[a][i].acc.max)
				accR.has = true
			}
			rightCount[i] = runningCount
			rightAABB[i] = accR.toAABB()
		}

		for i := 0; i < numBuckets-1; i++ {
			lCount, rCount := leftCount[i], rightCount[i+1]
			if lCount == 0 || rCount == 0 {
				continue
			}
			cost := float64(lCount)*leftAABB[i].SurfaceArea() + float64(rCount)*rightAABB[i+1].SurfaceArea()
			if cost < bestCost {
				bestCost = cost
				bestAxis = a
				bestSplit = i
			}
		}
	}

	if bestSplit < 0 {
		return axisX, 0, false
	}

	lo, hi := axisValue(cmin, bestAxis), axisValue(cmax, bestAxis)
	plane := lo + (hi-lo)/float64(numBuckets)*float64(bestSplit+1)
	return bestAxis, plane, true
}

func unionAABB(a, b AABB) AABB {
	acc := newAABBAccum()
	acc.addPoint(a.Min())
	acc.addPoint(a.Max())
	acc.addPoint(b.Min())
	acc.addPoint(b.Max())
	return acc.toAABB()
}
