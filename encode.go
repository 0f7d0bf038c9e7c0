package tilemap

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"

	"github.com/ericpauley/go-quantize/quantize"
)

// importColors is the number of real colors an imported image may use:
// one bank minus the transparent entry.
const importColors = BankSize - 1

// ImportImage converts an image into graphics memory, a single-bank
// palette, and instances laying the tiles back out at their source
// positions. The image dimensions must be multiples of the tile size.
//
// Paletted images with at most 15 colors are taken as-is; anything else is
// quantized down with a median cut quantizer first. Color index 0 is
// reserved for transparency: fully transparent source pixels map to it and
// every opaque color shifts up by one.
func ImportImage(img image.Image) (GraphicsMemory, Palette, []TileInstance, error) {
	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w%TileSize != 0 || h%TileSize != 0 {
		return nil, nil, nil, fmt.Errorf("tilemap: image is %dx%d, not a multiple of %d", w, h, TileSize)
	}

	pm := palettedImage(img)

	colors := make([]RGBA, BankSize)
	for i, c := range pm.Palette {
		if i >= importColors {
			break
		}
		colors[i+1] = FromColor(c)
	}
	pal := PaletteFromColors(colors)

	var gfx GraphicsMemory
	instances := make([]TileInstance, 0, (w/TileSize)*(h/TileSize))

	for ty := 0; ty < h/TileSize; ty++ {
		for tx := 0; tx < w/TileSize; tx++ {
			var pixels [TileSize * TileSize]uint8
			empty := true
			for y := 0; y < TileSize; y++ {
				for x := 0; x < TileSize; x++ {
					sx := bounds.Min.X + tx*TileSize + x
					sy := bounds.Min.Y + ty*TileSize + y
					if _, _, _, a := pm.At(sx, sy).RGBA(); a == 0 {
						continue // index 0, transparent
					}
					pixels[y*TileSize+x] = pm.ColorIndexAt(sx, sy)&0x0f + 1
					empty = false
				}
			}
			if empty {
				continue
			}

			var id uint32
			gfx, id = gfx.AppendTile(EncodeTile(pixels))
			instances = append(instances, TileInstance{
				X:  tx * TileSize,
				Y:  ty * TileSize,
				ID: id,
			})
		}
	}

	return gfx, pal, instances, nil
}

// palettedImage reduces img to at most 15 colors.
func palettedImage(img image.Image) *image.Paletted {
	if pm, ok := img.(*image.Paletted); ok && len(pm.Palette) <= importColors {
		return pm
	}

	q := quantize.MedianCutQuantizer{}
	p := q.Quantize(make(color.Palette, 0, importColors), img)

	pm := image.NewPaletted(img.Bounds(), p)
	draw.Draw(pm, img.Bounds(), img, img.Bounds().Min, draw.Src)
	return pm
}
