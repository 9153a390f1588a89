package loader

import "testing"

func TestLoadGLBInvalidPath(t *testing.T) {
	_, err := LoadGLB("/nonexistent/path.glb")
	if err == nil {
		t.Error("expected error for nonexistent file")
	}
}

func TestGLTFLoaderDefaults(t *testing.T) {
	l := NewGLTF()
	if !l.CalculateNormals {
		t.Error("CalculateNormals should default to true")
	}
	if !l.SmoothNormals {
		t.Error("SmoothNormals should default to true")
	}
}
