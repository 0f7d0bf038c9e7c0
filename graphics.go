package tilemap

import (
	"encoding/binary"
	"fmt"
)

const (
	// TileSize is the width and height of a tile in pixels.
	TileSize = 8

	// PixelScale converts tile-grid units to device units. Two device
	// units cover one framebuffer pixel when Uniforms.Resolution matches
	// the target size, so the effective magnification is 2x.
	PixelScale = 4

	// RecordWords is the number of 32-bit words in one graphics record.
	// A tile occupies two consecutive records, one per bitplane pair.
	RecordWords = 4

	// WordsPerTile is the number of 32-bit words holding one 8x8 tile.
	WordsPerTile = 2 * RecordWords

	// TileBytes is the byte size of one encoded tile (4 bits per pixel).
	TileBytes = WordsPerTile * 4
)

// GraphicsMemory is a flat buffer of packed tile graphics.
//
// Every tile is 8 words: words 0-3 hold bitplanes 0 and 1, words 4-7 hold
// bitplanes 2 and 3. Each word packs two scanlines, one per 16-bit half;
// within a half, the low byte is the first bitplane of the pair and the
// high byte the second, with bit 7 being the leftmost pixel.
//
// GraphicsMemory is read-only during a draw. The renderer never mutates it
// and callers must not write to it while a render is in flight.
type GraphicsMemory []uint32

// GraphicsFromBytes interprets raw sheet bytes as graphics memory.
// Words are little-endian. The byte length must be a multiple of TileBytes.
func GraphicsFromBytes(b []byte) (GraphicsMemory, error) {
	if len(b)%TileBytes != 0 {
		return nil, fmt.Errorf("tilemap: graphics data is %d bytes, not a multiple of %d", len(b), TileBytes)
	}
	g := make(GraphicsMemory, len(b)/4)
	for i := range g {
		g[i] = binary.LittleEndian.Uint32(b[i*4:])
	}
	return g, nil
}

// Bytes returns the little-endian byte image of the graphics memory,
// the inverse of GraphicsFromBytes.
func (g GraphicsMemory) Bytes() []byte {
	b := make([]byte, len(g)*4)
	for i, w := range g {
		binary.LittleEndian.PutUint32(b[i*4:], w)
	}
	return b
}

// TileCount returns the number of whole tiles stored.
func (g GraphicsMemory) TileCount() int {
	return len(g) / WordsPerTile
}

// PixelIndex decodes the 4-bit color index of pixel (px, py) inside the
// given tile. px counts columns left to right, py counts scanlines top to
// bottom, both in [0, 8).
//
// The two records of the tile start at tileID*8. Word py/2 of each record
// covers the pixel's scanline pair; the (py&1) half of that word is the
// scanline itself. One bit is taken per bitplane, most significant bit
// leftmost, and the four bits combine positionally into the index.
//
// Decoding is a pure function of the tile record and (px, py). A tileID
// beyond TileCount or coordinates outside the tile are a caller contract
// violation; Validate reports bad ids ahead of decoding.
func (g GraphicsMemory) PixelIndex(tileID uint32, px, py int) uint8 {
	rec := int(tileID) * WordsPerTile
	lpart1 := g[rec+py/2]
	lpart2 := g[rec+RecordWords+py/2]

	shift := uint(py&1) * 16
	line1 := uint16(lpart1 >> shift)
	line2 := uint16(lpart2 >> shift)

	col := uint(7 - px) // bit 7 is the leftmost pixel
	bit0 := (line1 >> col) & 1
	bit1 := (line1 >> (col + 8)) & 1
	bit2 := (line2 >> col) & 1
	bit3 := (line2 >> (col + 8)) & 1

	return uint8(bit0 | bit1<<1 | bit2<<2 | bit3<<3)
}

// Validate reports whether tileID refers to a whole tile inside the
// memory. The render paths skip this check on the per-pixel hot path, so
// callers assembling frames from untrusted data run it up front instead.
func (g GraphicsMemory) Validate(tileID uint32) error {
	if n := g.TileCount(); int(tileID) >= n {
		return fmt.Errorf("tilemap: tile id %d out of range, sheet holds %d tiles", tileID, n)
	}
	return nil
}

// EncodeTile packs 64 color indices (row-major, top to bottom) into the
// 8-word tile record format, the exact inverse of PixelIndex. Index values
// above 15 are masked to their low 4 bits.
func EncodeTile(pixels [TileSize * TileSize]uint8) [WordsPerTile]uint32 {
	var words [WordsPerTile]uint32
	for py := 0; py < TileSize; py++ {
		var line1, line2 uint32
		for px := 0; px < TileSize; px++ {
			idx := uint32(pixels[py*TileSize+px] & 0x0f)
			col := uint(7 - px)
			line1 |= (idx & 1) << col
			line1 |= ((idx >> 1) & 1) << (col + 8)
			line2 |= ((idx >> 2) & 1) << col
			line2 |= ((idx >> 3) & 1) << (col + 8)
		}
		shift := uint(py&1) * 16
		words[py/2] |= line1 << shift
		words[RecordWords+py/2] |= line2 << shift
	}
	return words
}

// AppendTile appends one encoded tile record and returns the extended
// memory along with the new tile's id.
func (g GraphicsMemory) AppendTile(words [WordsPerTile]uint32) (GraphicsMemory, uint32) {
	id := uint32(g.TileCount())
	return append(g, words[:]...), id
}
