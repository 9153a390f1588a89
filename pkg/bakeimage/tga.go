package bakeimage

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"github.com/ftrvxmtrx/tga"
)

// WriteTGA encodes g as a 24-bit RGB Targa file, top row first. Grounded on
// github.com/ftrvxmtrx/tga, named in the pack's retrieval manifest
// (other_examples/manifests/drsaluml-mu-bmd-to-webp/go.mod) for exactly
// this 24-bit RGB use case.
func WriteTGA(path string, g *Grid, scalar, vectorIsDirection bool) error {
	img := image.NewNRGBA(image.Rect(0, 0, g.Width, g.Height))
	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			r, gg, b := rgb8(g.Pixels[idx], scalar, vectorIsDirection)
			img.Set(x, y, color.NRGBA{R: r, G: gg, B: b, A: 255})
		}
	}

	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("bakeimage: create %s: %w", path, err)
	}
	defer f.Close()

	if err := tga.Encode(f, img); err != nil {
		return fmt.Errorf("bakeimage: encode %s: %w", path, err)
	}
	return nil
}
