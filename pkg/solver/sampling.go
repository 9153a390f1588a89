package solver

import (
	"math"
	"math/rand"

	"github.com/texelbake/texelbake/pkg/math3d"
)

// samplePermCount is the number of independent hemisphere-sample
// permutations precomputed per pool, carried verbatim from
// original_source/Fornos/solver_ao.cpp's k_samplePermCount (64*64).
const samplePermCount = 64 * 64

// SamplePool is a precomputed bank of cosine-weighted hemisphere directions:
// samplePermCount independent permutations of S samples each, generated by
// a Hammersley sequence with a per-permutation random offset. Ported
// formula-for-formula from original_source/Src/math.h's
// computeSamplesImportanceCosDir.
type SamplePool struct {
	Samples []math3d.Vec3
	S       int
	P       int
}

// NewSamplePool builds a pool of s samples per permutation. The permutation
// seed is derived deterministically from its index so repeated bakes of the
// same job are reproducible.
func NewSamplePool(s int) *SamplePool {
	pool := &SamplePool{S: s, P: samplePermCount, Samples: make([]math3d.Vec3, s*samplePermCount)}
	for j := 0; j < samplePermCount; j++ {
		rng := rand.New(rand.NewSource(int64(j) + 1))
		rx := rng.Uint32()
		ry := rng.Uint32()
		for i := 0; i < s; i++ {
			ux := float64(i)/float64(s) + float64(rx&0xffff)/65536.0
			ux -= math.Floor(ux)
			uy := float64(bitReverse32(uint32(i))^ry) / 4294967296.0

			r := math.Sqrt(ux)
			phi := 2 * math.Pi * uy
			pool.Samples[i+j*s] = math3d.V3(r*math.Cos(phi), r*math.Sin(phi), math.Sqrt(1-ux))
		}
	}
	return pool
}

// Sample returns hemisphere sample k of permutation j (canonical space,
// +Z-up hemisphere).
func (p *SamplePool) Sample(j, k int) math3d.Vec3 {
	return p.Samples[k+j*p.S]
}

// Permutation deterministically selects the permutation a texel samples
// from, by its linear index mod P, matching spec.md §4.5.
func (p *SamplePool) Permutation(texelLinearIndex int) int {
	return texelLinearIndex % p.P
}

func bitReverse32(x uint32) uint32 {
	x = (x << 16) | (x >> 16)
	x = ((x & 0x00ff00ff) << 8) | ((x & 0xff00ff00) >> 8)
	x = ((x & 0x0f0f0f0f) << 4) | ((x & 0xf0f0f0f0) >> 4)
	x = ((x & 0x33333333) << 2) | ((x & 0xcccccccc) >> 2)
	x = ((x & 0x55555555) << 1) | ((x & 0xaaaaaaaa) >> 1)
	return x
}

// OrthonormalBasis returns an arbitrary orthonormal (tx, ty) pair with
// tz == n, used to build each texel's tangent frame for hemisphere sampling.
func OrthonormalBasis(n math3d.Vec3) (tx, ty math3d.Vec3) {
	up := math3d.V3(0, 0, 1)
	if math.Abs(n.Z) > 0.999 {
		up = math3d.V3(1, 0, 0)
	}
	tx = up.Cross(n).Normalize()
	ty = n.Cross(tx)
	return tx, ty
}

// ToWorld transforms a canonical hemisphere sample (s.Z is the +Z-up
// component) into world space given an explicit tangent basis (tx, ty, n).
// Thickness sampling passes n negated to invert the hemisphere while
// reusing the same (tx, ty) computed from the true surface normal.
func ToWorld(s math3d.Vec3, tx, ty, n math3d.Vec3) math3d.Vec3 {
	return tx.Scale(s.X).Add(ty.Scale(s.Y)).Add(n.Scale(s.Z))
}
