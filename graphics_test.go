package tilemap

import (
	"bytes"
	"testing"
)

func TestGraphicsFromBytes(t *testing.T) {
	tests := []struct {
		name    string
		size    int
		wantErr bool
	}{
		{"empty", 0, false},
		{"one tile", TileBytes, false},
		{"many tiles", 16 * TileBytes, false},
		{"truncated tile", TileBytes - 1, true},
		{"half tile", TileBytes / 2, true},
		{"single byte", 1, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g, err := GraphicsFromBytes(make([]byte, tt.size))
			if (err != nil) != tt.wantErr {
				t.Fatalf("GraphicsFromBytes(%d bytes) error = %v, wantErr %v", tt.size, err, tt.wantErr)
			}
			if err == nil && g.TileCount() != tt.size/TileBytes {
				t.Errorf("TileCount() = %d, want %d", g.TileCount(), tt.size/TileBytes)
			}
		})
	}
}

func TestGraphicsFromBytesLittleEndian(t *testing.T) {
	b := make([]byte, TileBytes)
	b[0] = 0x78
	b[1] = 0x56
	b[2] = 0x34
	b[3] = 0x12

	g, err := GraphicsFromBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if g[0] != 0x12345678 {
		t.Errorf("word 0 = %#08x, want 0x12345678", g[0])
	}
}

func TestGraphicsBytesRoundTrip(t *testing.T) {
	b := make([]byte, 2*TileBytes)
	for i := range b {
		b[i] = byte(i * 7)
	}
	g, err := GraphicsFromBytes(b)
	if err != nil {
		t.Fatal(err)
	}
	if got := g.Bytes(); !bytes.Equal(got, b) {
		t.Error("Bytes() does not round-trip GraphicsFromBytes")
	}
}

// tileFromRows builds one tile from 8 rows of 8 color indices.
func tileFromRows(rows [8][8]uint8) GraphicsMemory {
	var pixels [TileSize * TileSize]uint8
	for y, row := range rows {
		copy(pixels[y*TileSize:], row[:])
	}
	words := EncodeTile(pixels)
	return GraphicsMemory(words[:])
}

func TestPixelIndexSingleBit(t *testing.T) {
	// Word 0, low 16 bits cover scanline 0. The low byte is bitplane 0
	// with bit 7 leftmost, so 0x80 lights only the top-left pixel.
	g := make(GraphicsMemory, WordsPerTile)
	g[0] = 0x80

	for py := 0; py < TileSize; py++ {
		for px := 0; px < TileSize; px++ {
			want := uint8(0)
			if px == 0 && py == 0 {
				want = 1
			}
			if got := g.PixelIndex(0, px, py); got != want {
				t.Errorf("PixelIndex(0, %d, %d) = %d, want %d", px, py, got, want)
			}
		}
	}
}

func TestPixelIndexBitplaneWeights(t *testing.T) {
	// Light the same pixel (px=3, py=0) in each bitplane in turn and
	// check the positional weight it contributes.
	bit := uint32(1) << (7 - 3)
	tests := []struct {
		name string
		word int
		mask uint32
		want uint8
	}{
		{"bitplane 0", 0, bit, 1},
		{"bitplane 1", 0, bit << 8, 2},
		{"bitplane 2", RecordWords, bit, 4},
		{"bitplane 3", RecordWords, bit << 8, 8},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			g := make(GraphicsMemory, WordsPerTile)
			g[tt.word] = tt.mask
			if got := g.PixelIndex(0, 3, 0); got != tt.want {
				t.Errorf("PixelIndex = %d, want %d", got, tt.want)
			}
		})
	}
}

func TestPixelIndexScanlinePacking(t *testing.T) {
	// Each word packs two scanlines: low half first, high half second.
	// 0x00FF0000 in word 0 fills bitplane 0 of scanline 1, not 0.
	g := make(GraphicsMemory, WordsPerTile)
	g[0] = 0x00FF0000

	for px := 0; px < TileSize; px++ {
		if got := g.PixelIndex(0, px, 0); got != 0 {
			t.Errorf("scanline 0 px %d = %d, want 0", px, got)
		}
		if got := g.PixelIndex(0, px, 1); got != 1 {
			t.Errorf("scanline 1 px %d = %d, want 1", px, got)
		}
	}
}

func TestPixelIndexSecondTile(t *testing.T) {
	g := make(GraphicsMemory, 2*WordsPerTile)
	g[WordsPerTile] = 0x80 // top-left of tile 1

	if got := g.PixelIndex(0, 0, 0); got != 0 {
		t.Errorf("tile 0 decode = %d, want 0", got)
	}
	if got := g.PixelIndex(1, 0, 0); got != 1 {
		t.Errorf("tile 1 decode = %d, want 1", got)
	}
}

func TestPixelIndexDeterministic(t *testing.T) {
	g := tileFromRows([8][8]uint8{
		{1, 2, 3, 4, 5, 6, 7, 8},
		{9, 10, 11, 12, 13, 14, 15, 0},
	})
	for i := 0; i < 3; i++ {
		if got := g.PixelIndex(0, 5, 1); got != 14 {
			t.Fatalf("decode run %d = %d, want 14", i, got)
		}
	}
}

func TestEncodeTileRoundTrip(t *testing.T) {
	var pixels [TileSize * TileSize]uint8
	for i := range pixels {
		pixels[i] = uint8((i*3 + i/8) % 16)
	}

	words := EncodeTile(pixels)
	g := GraphicsMemory(words[:])
	for py := 0; py < TileSize; py++ {
		for px := 0; px < TileSize; px++ {
			want := pixels[py*TileSize+px]
			if got := g.PixelIndex(0, px, py); got != want {
				t.Errorf("PixelIndex(0, %d, %d) = %d, want %d", px, py, got, want)
			}
		}
	}
}

func TestEncodeTileMasksHighBits(t *testing.T) {
	var pixels [TileSize * TileSize]uint8
	pixels[0] = 0xf7 // low nibble 7

	words := EncodeTile(pixels)
	g := GraphicsMemory(words[:])
	if got := g.PixelIndex(0, 0, 0); got != 7 {
		t.Errorf("PixelIndex = %d, want 7", got)
	}
}

func TestAppendTile(t *testing.T) {
	var g GraphicsMemory

	var pixels [TileSize * TileSize]uint8
	pixels[0] = 5
	g, id := g.AppendTile(EncodeTile(pixels))
	if id != 0 {
		t.Errorf("first AppendTile id = %d, want 0", id)
	}

	pixels[0] = 9
	g, id = g.AppendTile(EncodeTile(pixels))
	if id != 1 {
		t.Errorf("second AppendTile id = %d, want 1", id)
	}

	if got := g.PixelIndex(0, 0, 0); got != 5 {
		t.Errorf("tile 0 decode = %d, want 5", got)
	}
	if got := g.PixelIndex(1, 0, 0); got != 9 {
		t.Errorf("tile 1 decode = %d, want 9", got)
	}
}

func TestGraphicsValidate(t *testing.T) {
	g := make(GraphicsMemory, 2*WordsPerTile)

	tests := []struct {
		name   string
		tileID uint32
		wantOK bool
	}{
		{"first tile", 0, true},
		{"last tile", 1, true},
		{"one past the end", 2, false},
		{"far out of range", 1 << 20, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := g.Validate(tt.tileID)
			if (err == nil) != tt.wantOK {
				t.Errorf("Validate(%d) = %v, want ok=%v", tt.tileID, err, tt.wantOK)
			}
		})
	}

	if err := GraphicsMemory(nil).Validate(0); err == nil {
		t.Error("Validate on empty memory accepted tile 0")
	}
}
