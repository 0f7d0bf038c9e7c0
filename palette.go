package tilemap

import (
	"fmt"
	"image"
	"math"
)

// BankSize is the number of colors in one palette bank.
const BankSize = 16

// Palette is a flat sequence of RGBA colors organized in banks of 16.
// Index 0 of every bank is conventionally unused: tiles referencing color
// index 0 render as transparent, so the entry itself is never sampled by
// the tile decode path (the preview path does sample it).
//
// A Palette is read-only to the renderers.
type Palette []RGBA

// PaletteFromColors copies colors into a Palette, padding the final bank
// with transparent entries so that len is always a multiple of BankSize.
func PaletteFromColors(colors []RGBA) Palette {
	n := len(colors)
	banks := (n + BankSize - 1) / BankSize
	if banks == 0 {
		banks = 1
	}
	p := make(Palette, banks*BankSize)
	copy(p, colors)
	return p
}

// PaletteFromImage builds a Palette from a palette strip image, reading
// pixels row-major. A 2.2 gamma is applied to each component, matching the
// palette asset convention of the original graphics data.
func PaletteFromImage(img image.Image) Palette {
	bounds := img.Bounds()
	colors := make([]RGBA, 0, bounds.Dx()*bounds.Dy())
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			c := FromColor(img.At(x, y))
			colors = append(colors, RGBA{
				R: math.Pow(c.R, 2.2),
				G: math.Pow(c.G, 2.2),
				B: math.Pow(c.B, 2.2),
				A: math.Pow(c.A, 2.2),
			})
		}
	}
	return PaletteFromColors(colors)
}

// Banks returns the number of complete 16-color banks.
func (p Palette) Banks() int {
	return len(p) / BankSize
}

// Bank returns the 16 colors of bank n. The slice aliases the palette.
func (p Palette) Bank(n int) []RGBA {
	return p[n*BankSize : (n+1)*BankSize]
}

// Resolve looks up the final color for a decoded index in the given bank.
// index must be in [1, 15]; index+bank*16 beyond the palette length is a
// caller contract violation and is not bounds-checked here. Validate
// reports offending pairs ahead of a draw.
func (p Palette) Resolve(index uint8, bank uint8) RGBA {
	return p[int(index)+int(bank)*BankSize]
}

// Validate reports whether entry index of the given bank exists. Resolve
// skips this check; run Validate when bank numbers come from untrusted
// frame data.
func (p Palette) Validate(index, bank uint8) error {
	if index >= BankSize {
		return fmt.Errorf("tilemap: color index %d out of range", index)
	}
	if off := int(index) + int(bank)*BankSize; off >= len(p) {
		return fmt.Errorf("tilemap: bank %d entry %d beyond palette of %d colors", bank, index, len(p))
	}
	return nil
}

// Sample maps a point of the unit square onto a 16x16 grid of palette
// entries: column floor(u*16), row floor((1-v)*16). It underlies the flat
// palette preview swatch and never reports transparency. Coordinates on
// the far edges stay inside the grid; grid cells past the end of a short
// palette read as transparent black.
func (p Palette) Sample(u, v float64) RGBA {
	col := clampCell(int(u * BankSize))
	row := clampCell(int((1 - v) * BankSize))
	i := col + row*BankSize
	if i >= len(p) {
		return Transparent
	}
	return p[i]
}

func clampCell(i int) int {
	if i < 0 {
		return 0
	}
	if i > BankSize-1 {
		return BankSize - 1
	}
	return i
}
