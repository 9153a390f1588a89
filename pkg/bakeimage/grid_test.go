package bakeimage

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/texelbake/texelbake/pkg/bakeerr"
	"github.com/texelbake/texelbake/pkg/math3d"
)

func TestScatterScalarFlipsYAndReplicatesChannels(t *testing.T) {
	// width=2 height=2, flat index 0 is (x=0,y=0); after the Y-flip it
	// belongs at row (height-1), i.e. flat index 2.
	g := ScatterScalar(2, 2, []int{0}, []float64{0.75})

	if g.Valid[2] != true {
		t.Fatalf("expected flipped index 2 to be valid")
	}
	want := math3d.V3(0.75, 0.75, 0.75)
	if g.Pixels[2] != want {
		t.Errorf("Pixels[2] = %+v, want %+v", g.Pixels[2], want)
	}
	if g.Valid[0] {
		t.Errorf("unscattered index 0 should remain invalid")
	}
}

func TestScatterVectorFlipsY(t *testing.T) {
	v := math3d.V3(0.1, 0.2, 0.3)
	g := ScatterVector(3, 2, []int{4}, []math3d.Vec3{v})
	// flat 4 = (x=1,y=1) in a width-3 grid; flipped y = height-1-1 = 0.
	wantIdx := 0*3 + 1
	if !g.Valid[wantIdx] {
		t.Fatalf("expected flipped index %d to be valid", wantIdx)
	}
	if g.Pixels[wantIdx] != v {
		t.Errorf("Pixels[%d] = %+v, want %+v", wantIdx, g.Pixels[wantIdx], v)
	}
}

func TestNormalizeRangeRescales(t *testing.T) {
	norm, min, max := NormalizeRange([]float64{2, 4, 6})
	if min != 2 || max != 6 {
		t.Fatalf("min/max = %v/%v, want 2/6", min, max)
	}
	want := []float64{0, 0.5, 1}
	for i := range want {
		if norm[i] != want[i] {
			t.Errorf("norm[%d] = %v, want %v", i, norm[i], want[i])
		}
	}
}

func TestNormalizeRangeUniformIsAllZero(t *testing.T) {
	// A cube baked onto itself produces a uniform height result; min==max
	// must map to all-zero rather than divide by zero (spec.md §8).
	norm, min, max := NormalizeRange([]float64{3, 3, 3})
	if min != 3 || max != 3 {
		t.Fatalf("min/max = %v/%v, want 3/3", min, max)
	}
	for i, v := range norm {
		if v != 0 {
			t.Errorf("norm[%d] = %v, want 0", i, v)
		}
	}
}

func TestNormalizeRangeEmpty(t *testing.T) {
	norm, min, max := NormalizeRange(nil)
	if norm != nil || min != 0 || max != 0 {
		t.Fatalf("NormalizeRange(nil) = %v, %v, %v, want nil, 0, 0", norm, min, max)
	}
}

func TestWriteDispatchesByExtension(t *testing.T) {
	dir := t.TempDir()
	g := ScatterScalar(2, 2, []int{0, 1, 2, 3}, []float64{0.1, 0.2, 0.3, 0.4})

	for _, ext := range []string{".png", ".tga", ".exr"} {
		path := filepath.Join(dir, "out"+ext)
		if err := Write(path, g, true, false); err != nil {
			t.Fatalf("Write(%s) = %v", ext, err)
		}
		if info, err := os.Stat(path); err != nil || info.Size() == 0 {
			t.Errorf("Write(%s) produced no file", ext)
		}
	}
}

func TestWriteRejectsUnsupportedExtension(t *testing.T) {
	g := NewGrid(1, 1)
	err := Write(filepath.Join(t.TempDir(), "out.bmp"), g, true, false)
	if !errors.Is(err, bakeerr.ErrUnsupportedImageExt) {
		t.Fatalf("Write(.bmp) error = %v, want wrapping ErrUnsupportedImageExt", err)
	}
}

func TestRGB8DirectionMapping(t *testing.T) {
	r, gCh, b := rgb8(math3d.V3(-1, 0, 1), false, true)
	if r != 0 || gCh != 127 || b != 255 {
		t.Errorf("rgb8 direction mapping = (%d,%d,%d), want (0,127,255)", r, gCh, b)
	}
}
