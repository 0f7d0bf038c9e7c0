// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Command tilemapview is an interactive graphics sheet viewer. It renders
// a sheet with the software renderer and displays it in a window.
//
// Keys:
//
//	left/right  cycle the palette bank
//	p           toggle the palette preview grid
//	escape      quit
package main

import (
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"log"
	"log/slog"
	"os"

	"github.com/hajimehoshi/ebiten/v2"
	"github.com/hajimehoshi/ebiten/v2/inpututil"
	"github.com/urfave/cli/v2"

	"github.com/gogpu/tilemap"
)

func main() {
	app := cli.NewApp()

	app.Name = "tilemapview"
	app.Usage = "interactive tile graphics viewer"
	app.ArgsUsage = "GRAPHICS PALETTE"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
		&cli.IntFlag{
			Name:  "first-tile",
			Usage: "tile id of the sheet's first tile",
		},
	}

	app.Action = func(c *cli.Context) error {
		if c.NArg() < 2 {
			cli.ShowAppHelpAndExit(c, 1)
		}
		if c.Bool("verbose") {
			tilemap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}

		raw, err := os.ReadFile(c.Args().Get(0))
		if err != nil {
			return cli.Exit(err, 1)
		}
		gfx, err := tilemap.GraphicsFromBytes(raw)
		if err != nil {
			return cli.Exit(err, 1)
		}

		pf, err := os.Open(c.Args().Get(1))
		if err != nil {
			return cli.Exit(err, 1)
		}
		palImg, _, err := image.Decode(pf)
		pf.Close()
		if err != nil {
			return cli.Exit(err, 1)
		}
		pal := tilemap.PaletteFromImage(palImg)

		instances := tilemap.LayoutSheet(len(raw), uint32(c.Int("first-tile")), 0)
		if len(instances) == 0 {
			return cli.Exit(fmt.Errorf("sheet too small: %d bytes", len(raw)), 1)
		}
		frame := tilemap.Frame{Graphics: gfx, Palette: pal, Instances: instances}
		if err := frame.Validate(); err != nil {
			return cli.Exit(err, 1)
		}

		if err := runViewer(gfx, pal, instances); err != nil {
			return cli.Exit(err, 1)
		}
		return nil
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

// errQuit unwinds ebiten.RunGame on escape.
var errQuit = errors.New("quit")

func runViewer(gfx tilemap.GraphicsMemory, pal tilemap.Palette, instances []tilemap.TileInstance) error {
	w, h := viewExtent(instances)

	v := &viewer{
		renderer:  tilemap.NewSoftwareRenderer(),
		gfx:       gfx,
		pal:       pal,
		instances: instances,
		fb:        tilemap.NewFramebuffer(w, h),
		dirty:     true,
	}
	defer v.renderer.Close()

	ebiten.SetWindowTitle("tilemapview")
	ebiten.SetWindowSize(w*2, h*2)
	ebiten.SetTPS(60)
	if err := ebiten.RunGame(v); err != nil && !errors.Is(err, errQuit) {
		return err
	}
	return nil
}

type viewer struct {
	renderer  *tilemap.SoftwareRenderer
	gfx       tilemap.GraphicsMemory
	pal       tilemap.Palette
	instances []tilemap.TileInstance

	fb      *tilemap.Framebuffer
	fbImg   *ebiten.Image
	bank    int
	preview bool
	dirty   bool
}

func (v *viewer) Update() error {
	if inpututil.IsKeyJustPressed(ebiten.KeyEscape) {
		return errQuit
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyP) {
		v.preview = !v.preview
		v.dirty = true
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyRight) {
		v.setBank(v.bank + 1)
	}
	if inpututil.IsKeyJustPressed(ebiten.KeyLeft) {
		v.setBank(v.bank - 1)
	}
	return nil
}

func (v *viewer) setBank(n int) {
	banks := v.pal.Banks()
	if banks == 0 {
		return
	}
	v.bank = ((n % banks) + banks) % banks
	for i := range v.instances {
		v.instances[i].Pal = uint8(v.bank)
	}
	v.dirty = true
	tilemap.Logger().Debug("palette bank changed", "bank", v.bank)
}

func (v *viewer) Draw(screen *ebiten.Image) {
	if v.dirty {
		if v.preview {
			v.renderer.RenderPalette(v.fb, v.pal)
		} else {
			frame := &tilemap.Frame{
				Graphics:  v.gfx,
				Palette:   v.pal,
				Instances: v.instances,
			}
			if err := v.renderer.Render(v.fb, frame); err != nil {
				tilemap.Logger().Error("render failed", "error", err)
			}
		}
		if v.fbImg == nil {
			v.fbImg = ebiten.NewImage(v.fb.Width(), v.fb.Height())
		}
		v.fbImg.WritePixels(v.fb.Premultiplied())
		v.dirty = false
	}
	screen.DrawImage(v.fbImg, nil)
}

func (v *viewer) Layout(outsideWidth, outsideHeight int) (int, int) {
	return v.fb.Width(), v.fb.Height()
}

// viewExtent returns the framebuffer size covering every instance. Grid
// units map to screen pixels at 2x.
func viewExtent(instances []tilemap.TileInstance) (int, int) {
	var maxX, maxY int
	for _, inst := range instances {
		if inst.X > maxX {
			maxX = inst.X
		}
		if inst.Y > maxY {
			maxY = inst.Y
		}
	}
	return (maxX + tilemap.TileSize) * 2, (maxY + tilemap.TileSize) * 2
}
