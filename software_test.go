package tilemap

import "testing"

// solidTile returns one tile filled with a single color index.
func solidTile(index uint8) GraphicsMemory {
	var pixels [TileSize * TileSize]uint8
	for i := range pixels {
		pixels[i] = index
	}
	words := EncodeTile(pixels)
	return GraphicsMemory(words[:])
}

func TestSoftwareRenderNilFrame(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	if err := r.Render(NewFramebuffer(8, 8), nil); err != ErrNoFrame {
		t.Errorf("Render(nil) = %v, want ErrNoFrame", err)
	}
}

func TestSoftwareRenderMissingBuffers(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	fb := NewFramebuffer(8, 8)
	pal := make(Palette, BankSize)

	if err := r.Render(fb, &Frame{Palette: pal}); err != ErrNoFrame {
		t.Errorf("Render without graphics = %v, want ErrNoFrame", err)
	}
	if err := r.Render(fb, &Frame{Graphics: solidTile(1)}); err != ErrNoFrame {
		t.Errorf("Render without palette = %v, want ErrNoFrame", err)
	}
}

func TestSoftwareRenderClearsPreviousContents(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	fb := NewFramebuffer(8, 8)
	fb.Clear(RGB(1, 0, 0))

	// A frame with no instances still replaces the framebuffer with
	// transparent black, like a cleared render pass target.
	err := r.Render(fb, &Frame{
		Graphics: solidTile(1),
		Palette:  make(Palette, BankSize),
	})
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 8; y++ {
		for x := 0; x < 8; x++ {
			if got := fb.GetPixel(x, y); got != Transparent {
				t.Fatalf("pixel (%d,%d) = %v, want transparent", x, y, got)
			}
		}
	}
}

func TestSoftwareRenderSolidTile(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, BankSize)
	pal[5] = RGB(1, 0, 0)

	// One tile on a 16x16 target at the default resolution covers the
	// whole framebuffer at 2x magnification.
	fb := NewFramebuffer(16, 16)
	err := r.Render(fb, &Frame{
		Graphics:  solidTile(5),
		Palette:   pal,
		Instances: []TileInstance{{}},
	})
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := fb.GetPixel(x, y); got != RGB(1, 0, 0) {
				t.Fatalf("pixel (%d,%d) = %v, want red", x, y, got)
			}
		}
	}
}

func TestSoftwareRenderEmptyTileTransparent(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, BankSize)
	pal[0] = RGB(1, 0, 1) // entry 0 must never be drawn

	fb := NewFramebuffer(16, 16)
	err := r.Render(fb, &Frame{
		Graphics:  solidTile(0),
		Palette:   pal,
		Instances: []TileInstance{{}},
	})
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := fb.GetPixel(x, y); got != Transparent {
				t.Fatalf("pixel (%d,%d) = %v, want untouched", x, y, got)
			}
		}
	}
}

func TestSoftwareRenderPixelPattern(t *testing.T) {
	r := NewSoftwareRendererWithWorkers(2)
	defer r.Close()

	var pixels [TileSize * TileSize]uint8
	for i := range pixels {
		pixels[i] = uint8(i%15) + 1
	}
	words := EncodeTile(pixels)

	pal := make(Palette, BankSize)
	for i := 1; i < BankSize; i++ {
		pal[i] = RGBA{R: float64(i) / 15, A: 1}
	}

	fb := NewFramebuffer(16, 16)
	err := r.Render(fb, &Frame{
		Graphics:  GraphicsMemory(words[:]),
		Palette:   pal,
		Instances: []TileInstance{{}},
	})
	if err != nil {
		t.Fatal(err)
	}

	// Each tile pixel covers a 2x2 block of framebuffer pixels.
	for py := 0; py < TileSize; py++ {
		for px := 0; px < TileSize; px++ {
			want := pal[pixels[py*TileSize+px]].NRGBA()
			for dy := 0; dy < 2; dy++ {
				for dx := 0; dx < 2; dx++ {
					got := fb.GetPixel(px*2+dx, py*2+dy).NRGBA()
					if got != want {
						t.Errorf("fb (%d,%d) = %v, want %v", px*2+dx, py*2+dy, got, want)
					}
				}
			}
		}
	}
}

func TestSoftwareRenderPaintersOrder(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	var g GraphicsMemory
	g = append(g, solidTile(1)...)
	g = append(g, solidTile(2)...)

	pal := make(Palette, BankSize)
	pal[1] = RGB(1, 0, 0)
	pal[2] = RGB(0, 0, 1)

	fb := NewFramebuffer(16, 16)
	err := r.Render(fb, &Frame{
		Graphics: g,
		Palette:  pal,
		Instances: []TileInstance{
			{ID: 0},
			{ID: 1}, // same cell, drawn last
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := fb.GetPixel(8, 8); got != RGB(0, 0, 1) {
		t.Errorf("overlapped pixel = %v, want the later instance's blue", got)
	}
}

func TestSoftwareRenderTransparentOverlayKeepsUnder(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	var g GraphicsMemory
	g = append(g, solidTile(1)...)
	g = append(g, solidTile(0)...) // fully transparent tile

	pal := make(Palette, BankSize)
	pal[1] = RGB(1, 0, 0)

	fb := NewFramebuffer(16, 16)
	err := r.Render(fb, &Frame{
		Graphics: g,
		Palette:  pal,
		Instances: []TileInstance{
			{ID: 0},
			{ID: 1},
		},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := fb.GetPixel(8, 8); got != RGB(1, 0, 0) {
		t.Errorf("pixel under transparent overlay = %v, want red", got)
	}
}

func TestSoftwareRenderPlacement(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, BankSize)
	pal[3] = RGB(0, 1, 0)

	// A 32x32 target with one tile at grid (8, 8): the tile lands on
	// screen pixels [16,32) x [16,32).
	fb := NewFramebuffer(32, 32)
	err := r.Render(fb, &Frame{
		Graphics:  solidTile(3),
		Palette:   pal,
		Instances: []TileInstance{{X: 8, Y: 8}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := fb.GetPixel(15, 15); got != Transparent {
		t.Errorf("outside pixel = %v, want untouched", got)
	}
	if got := fb.GetPixel(16, 16); got != RGB(0, 1, 0) {
		t.Errorf("inside pixel = %v, want green", got)
	}
	if got := fb.GetPixel(31, 31); got != RGB(0, 1, 0) {
		t.Errorf("far corner pixel = %v, want green", got)
	}
}

func TestSoftwareRenderOffscreenInstance(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, BankSize)
	pal[1] = RGB(1, 1, 1)

	fb := NewFramebuffer(16, 16)
	err := r.Render(fb, &Frame{
		Graphics:  solidTile(1),
		Palette:   pal,
		Instances: []TileInstance{{X: 1000, Y: 1000}},
	})
	if err != nil {
		t.Fatal(err)
	}

	for y := 0; y < 16; y++ {
		for x := 0; x < 16; x++ {
			if got := fb.GetPixel(x, y); got != Transparent {
				t.Fatalf("pixel (%d,%d) = %v, want untouched", x, y, got)
			}
		}
	}
}

func TestSoftwareRenderExplicitResolution(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, BankSize)
	pal[1] = RGB(1, 0, 0)

	// Resolution half the framebuffer: device units cover twice the
	// pixels, so one tile spans 32 screen pixels instead of 16.
	fb := NewFramebuffer(64, 64)
	err := r.Render(fb, &Frame{
		Graphics:  solidTile(1),
		Palette:   pal,
		Instances: []TileInstance{{}},
		Uniforms:  Uniforms{Resolution: Vec2{X: 32, Y: 32}},
	})
	if err != nil {
		t.Fatal(err)
	}

	if got := fb.GetPixel(31, 31); got != RGB(1, 0, 0) {
		t.Errorf("pixel (31,31) = %v, want red", got)
	}
	if got := fb.GetPixel(33, 33); got != Transparent {
		t.Errorf("pixel (33,33) = %v, want untouched", got)
	}
}

func TestRenderPaletteGrid(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, 256)
	for i := range pal {
		pal[i] = RGBA{R: float64(i%16) / 15, G: float64(i/16) / 15, A: 1}
	}

	// 2x2 pixels per cell.
	fb := NewFramebuffer(32, 32)
	r.RenderPalette(fb, pal)

	for y := 0; y < 32; y++ {
		for x := 0; x < 32; x++ {
			want := pal[x/2+y/2*16].NRGBA()
			if got := fb.GetPixel(x, y).NRGBA(); got != want {
				t.Fatalf("pixel (%d,%d) = %v, want %v", x, y, got, want)
			}
		}
	}
}

func TestRenderPaletteIncludesEntryZero(t *testing.T) {
	r := NewSoftwareRenderer()
	defer r.Close()

	pal := make(Palette, 256)
	pal[0] = RGB(1, 0, 1)

	fb := NewFramebuffer(16, 16)
	r.RenderPalette(fb, pal)

	// The preview shows entry 0 directly, unlike the tile path.
	if got := fb.GetPixel(0, 0); got != RGB(1, 0, 1) {
		t.Errorf("cell (0,0) = %v, want entry 0's color", got)
	}
}
