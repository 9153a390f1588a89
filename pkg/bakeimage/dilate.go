package bakeimage

// neighborOffsets are the eight 8-neighbor pixel offsets, ring order
// doesn't matter since every candidate at a given distance is tested.
var neighborOffsets = [8][2]int{
	{-1, -1}, {0, -1}, {1, -1},
	{-1, 0}, {1, 0},
	{-1, 1}, {0, 1}, {1, 1},
}

// DilateRGB performs outward edge dilation: for every invalid pixel, search
// a ring of increasing integer distance d = 1..dilation over the eight
// 8-neighbor offsets scaled by d; at each candidate center, accept only if
// all eight of *its* neighbors are themselves valid (this keeps a dilation
// fringe from being copied outward again), copy its color, and stop. A
// pixel with no acceptable source within dilation is left unchanged.
// Ported verbatim (algorithm) from original_source/Src/image.cpp's
// dilateRGB.
func DilateRGB(g *Grid, dilation int) {
	if dilation <= 0 {
		return
	}

	src := make([]bool, len(g.Valid))
	copy(src, g.Valid)

	for y := 0; y < g.Height; y++ {
		for x := 0; x < g.Width; x++ {
			idx := y*g.Width + x
			if src[idx] {
				continue
			}

			found := false
			for d := 1; d <= dilation && !found; d++ {
				for _, off := range neighborOffsets {
					cx, cy := x+off[0]*d, y+off[1]*d
					if cx < 0 || cx >= g.Width || cy < 0 || cy >= g.Height {
						continue
					}
					if !src[cy*g.Width+cx] || !allNeighborsValid(src, g.Width, g.Height, cx, cy) {
						continue
					}
					g.Pixels[idx] = g.Pixels[cy*g.Width+cx]
					g.Valid[idx] = true
					found = true
					break
				}
			}
		}
	}
}

func allNeighborsValid(src []bool, width, height, x, y int) bool {
	for _, off := range neighborOffsets {
		nx, ny := x+off[0], y+off[1]
		if nx < 0 || nx >= width || ny < 0 || ny >= height {
			return false
		}
		if !src[ny*width+nx] {
			return false
		}
	}
	return true
}
