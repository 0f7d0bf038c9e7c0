// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package main

import (
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"log"
	"log/slog"
	"os"

	"github.com/urfave/cli/v2"
	xdraw "golang.org/x/image/draw"

	"github.com/gogpu/tilemap"
	"github.com/gogpu/tilemap/gpu"
)

func init() {
	cli.VersionFlag = &cli.BoolFlag{
		Name:    "version",
		Aliases: []string{"V"},
		Usage:   "print the version",
	}
}

func main() {
	app := cli.NewApp()

	app.Name = "tilemap"
	app.Usage = "tile graphics rendering utility"
	app.Version = "1.0.0"

	app.Flags = []cli.Flag{
		&cli.BoolFlag{
			Name:    "verbose",
			Aliases: []string{"v"},
			Usage:   "increase verbosity",
		},
	}
	app.Before = func(c *cli.Context) error {
		if c.Bool("verbose") {
			tilemap.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
				Level: slog.LevelDebug,
			})))
		}
		return nil
	}

	app.Commands = []*cli.Command{
		{
			Name:      "render",
			Usage:     "Render a graphics sheet to a PNG",
			ArgsUsage: "GRAPHICS PALETTE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "pal",
					Usage: "palette bank for every tile",
				},
				&cli.IntFlag{
					Name:  "first-tile",
					Usage: "tile id of the sheet's first tile",
				},
				&cli.IntFlag{
					Name:  "scale",
					Value: 1,
					Usage: "integer upscale factor for the output image",
				},
				&cli.BoolFlag{
					Name:  "gpu",
					Usage: "render on the GPU instead of the CPU",
				},
			},
			Action: renderSheet,
		},
		{
			Name:      "palette",
			Usage:     "Render a palette preview grid to a PNG",
			ArgsUsage: "PALETTE OUTPUT",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "cell",
					Value: 16,
					Usage: "size of each palette cell in pixels",
				},
			},
			Action: renderPalette,
		},
		{
			Name:      "convert",
			Usage:     "Convert an image to tile graphics",
			ArgsUsage: "IMAGE OUTPUT",
			Flags: []cli.Flag{
				&cli.StringFlag{
					Name:  "palette",
					Usage: "also write the extracted palette to this PNG",
				},
			},
			Action: convertImage,
		},
	}

	if err := app.Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func renderSheet(c *cli.Context) error {
	if c.NArg() < 3 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	raw, err := os.ReadFile(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}
	gfx, err := tilemap.GraphicsFromBytes(raw)
	if err != nil {
		return cli.Exit(err, 1)
	}

	palImg, err := loadImage(c.Args().Get(1))
	if err != nil {
		return cli.Exit(err, 1)
	}
	pal := tilemap.PaletteFromImage(palImg)

	instances := tilemap.LayoutSheet(len(raw), uint32(c.Int("first-tile")), uint8(c.Int("pal")))
	if len(instances) == 0 {
		return cli.Exit(fmt.Errorf("sheet too small: %d bytes", len(raw)), 1)
	}

	w, h := sheetExtent(instances)
	fb := tilemap.NewFramebuffer(w, h)
	frame := &tilemap.Frame{
		Graphics:  gfx,
		Palette:   pal,
		Instances: instances,
	}
	// --first-tile and --pal can point past the loaded assets.
	if err := frame.Validate(); err != nil {
		return cli.Exit(err, 1)
	}

	if c.Bool("gpu") {
		r, err := gpu.NewStandalone()
		if err != nil {
			return cli.Exit(err, 1)
		}
		defer r.Destroy()
		if err := r.Render(fb, frame); err != nil {
			return cli.Exit(err, 1)
		}
	} else {
		r := tilemap.NewSoftwareRenderer()
		defer r.Close()
		if err := r.Render(fb, frame); err != nil {
			return cli.Exit(err, 1)
		}
	}

	if err := writeScaled(c.Args().Get(2), fb.Image(), c.Int("scale")); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func renderPalette(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	palImg, err := loadImage(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}
	pal := tilemap.PaletteFromImage(palImg)

	cell := c.Int("cell")
	if cell < 1 {
		cell = 1
	}
	fb := tilemap.NewFramebuffer(16*cell, 16*cell)

	r := tilemap.NewSoftwareRenderer()
	defer r.Close()
	r.RenderPalette(fb, pal)

	if err := fb.SavePNG(c.Args().Get(1)); err != nil {
		return cli.Exit(err, 1)
	}
	return nil
}

func convertImage(c *cli.Context) error {
	if c.NArg() < 2 {
		cli.ShowCommandHelpAndExit(c, c.Command.FullName(), 1)
	}

	img, err := loadImage(c.Args().Get(0))
	if err != nil {
		return cli.Exit(err, 1)
	}

	gfx, pal, _, err := tilemap.ImportImage(img)
	if err != nil {
		return cli.Exit(err, 1)
	}

	if err := os.WriteFile(c.Args().Get(1), gfx.Bytes(), 0o644); err != nil {
		return cli.Exit(err, 1)
	}

	if out := c.String("palette"); out != "" {
		if err := writePNG(out, paletteImage(pal)); err != nil {
			return cli.Exit(err, 1)
		}
	}
	return nil
}

// sheetExtent returns the framebuffer size covering every instance. Grid
// units map to screen pixels at 2x.
func sheetExtent(instances []tilemap.TileInstance) (int, int) {
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

// paletteImage renders a palette as a 16-wide strip, one row per bank.
func paletteImage(pal tilemap.Palette) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, tilemap.BankSize, pal.Banks()))
	for i, c := range pal {
		img.SetNRGBA(i%tilemap.BankSize, i/tilemap.BankSize, c.NRGBA())
	}
	return img
}

func loadImage(path string) (image.Image, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	img, _, err := image.Decode(f)
	return img, err
}

func writeScaled(path string, img *image.RGBA, scale int) error {
	if scale <= 1 {
		return writePNG(path, img)
	}
	b := img.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx()*scale, b.Dy()*scale))
	xdraw.NearestNeighbor.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return writePNG(path, dst)
}

func writePNG(path string, img image.Image) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
