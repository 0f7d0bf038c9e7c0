package tilemap

// TileInstance describes one tile drawn in a frame: a grid position in
// tile-pixel units, a graphics memory tile id, and a palette bank.
//
// Instances are supplied fresh each frame and are not retained by the
// renderers. Draw order is painter's order: when instances overlap, the
// last one drawn wins.
type TileInstance struct {
	// X and Y position the tile on the grid, in tile pixels. Y grows
	// downward: the placement stage subtracts it.
	X, Y int

	// ID indexes graphics memory; the tile's records start at ID*2.
	ID uint32

	// Pal selects the 16-color palette bank.
	Pal uint8

	// Flags is reserved. No decode stage consumes it; the bits travel
	// through the instance record untouched.
	Flags uint16
}

// Pack encodes the instance as the 4-word record bound to the instance
// vertex buffer: x, y, id, then pal in the low byte of the fourth word
// with the reserved flags in its high half.
func (t TileInstance) Pack() [4]uint32 {
	return [4]uint32{
		uint32(int32(t.X)),
		uint32(int32(t.Y)),
		t.ID,
		uint32(t.Pal) | uint32(t.Flags)<<16,
	}
}

// PalFlags returns the combined palette/flags word carried per tile.
// Only the low 8 bits participate in palette resolution.
func (t TileInstance) PalFlags() uint32 {
	return uint32(t.Pal) | uint32(t.Flags)<<16
}

// LayoutSheet arranges the tiles of a raw graphics sheet for browsing.
// Tiles are grouped four at a time into 2x2 quads (16x16 pixels), eight
// quads per row, which is how sheet files order their tiles. byteLen is
// the sheet's byte length, firstTile the id of its first tile in graphics
// memory, and pal the bank every instance gets.
func LayoutSheet(byteLen int, firstTile uint32, pal uint8) []TileInstance {
	const (
		bytesPerQuad = 4 * TileBytes
		quadsPerRow  = 8
		quadPixels   = 2 * TileSize
	)

	quads := byteLen / bytesPerQuad
	instances := make([]TileInstance, 0, quads*4)
	for q := 0; q < quads; q++ {
		left := q % quadsPerRow * quadPixels
		top := q / quadsPerRow * quadPixels
		id := firstTile + uint32(q)*4

		instances = append(instances,
			TileInstance{X: left, Y: top, ID: id, Pal: pal},
			TileInstance{X: left + TileSize, Y: top, ID: id + 1, Pal: pal},
			TileInstance{X: left, Y: top + TileSize, ID: id + 2, Pal: pal},
			TileInstance{X: left + TileSize, Y: top + TileSize, ID: id + 3, Pal: pal},
		)
	}
	return instances
}
