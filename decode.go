package tilemap

// DecodePixel reconstructs the color of one covered pixel from its
// interpolated tile-local UV and the owning instance. It is the complete
// per-pixel stage: UV to tile coordinates (with the vertical flip, since
// tile scanlines are stored top to bottom while v grows bottom to top),
// bitplane decode, and palette resolution.
//
// The second return value is false when the decoded index is 0: the pixel
// contributes nothing and must be excluded from the framebuffer rather
// than drawn as palette entry 0.
//
// DecodePixel is a pure function of its inputs and safe to call from any
// number of goroutines as long as gfx and pal are not mutated concurrently.
func DecodePixel(gfx GraphicsMemory, pal Palette, inst TileInstance, u, v float64) (RGBA, bool) {
	px := tileCoord(u)
	py := tileCoord(1 - v)

	index := gfx.PixelIndex(inst.ID, px, py)
	if index == 0 {
		return Transparent, false
	}
	return pal.Resolve(index, inst.Pal), true
}

// tileCoord converts a unit coordinate to a pixel coordinate in [0, 8).
// The far edge (exactly 1.0) folds onto the last pixel so corner-touching
// samples stay inside the tile.
func tileCoord(c float64) int {
	i := int(c * TileSize)
	if i < 0 {
		return 0
	}
	if i > TileSize-1 {
		return TileSize - 1
	}
	return i
}
