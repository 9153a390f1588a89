// Package bakeerr holds the sentinel error values for the bake pipeline's
// error taxonomy (spec.md §7). EmptyBVHSplit and RayMiss are deliberately
// absent here: spec.md marks both "not an error" — they're represented by
// the leaf-collapse code path in pkg/bvh and the mapping.TriangleNone
// sentinel respectively. BakeCancelled has no value either; it corresponds
// to the orchestrator simply ceasing to call Runner.Tick.
package bakeerr

import "errors"

var (
	// ErrMissingMesh is raised when a loader cannot produce a mesh from the
	// given path.
	ErrMissingMesh = errors.New("bakeerr: missing mesh")

	// ErrInvalidMeshTopology is raised by the UV rasterizer when a
	// bakeable triangle references a missing texcoord or normal.
	ErrInvalidMeshTopology = errors.New("bakeerr: bakeable triangle missing texcoord/normal")

	// ErrUnsupportedImageExt is raised by the image writer for any
	// extension other than .png, .tga, or .exr.
	ErrUnsupportedImageExt = errors.New("bakeerr: unsupported image extension")
)
