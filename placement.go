package tilemap

// Vec2 is a two-component float32 vector in device or screen space.
type Vec2 struct {
	X, Y float32
}

// Uniforms are the per-draw screen mapping constants. They are recomputed
// by the embedding layer on resize and read-only during a draw.
type Uniforms struct {
	// Resolution is the target size the device mapping is computed
	// against. Required; the zero value makes renderers fall back to the
	// framebuffer size.
	Resolution Vec2

	// Origin pans the whole tile block, in device units applied after
	// scaling. Optional; zero means no pan.
	Origin Vec2

	// Scale is an extra zoom factor on top of PixelScale. Optional; zero
	// is treated as 1.
	Scale float32
}

// EffectiveScale returns Scale with the zero value defaulted to 1.
func (u Uniforms) EffectiveScale() float32 {
	if u.Scale == 0 {
		return 1
	}
	return u.Scale
}

// Vertex is one placed quad corner: a normalized device position plus the
// interpolated tile-local UV. The instance payload is deliberately not part
// of the vertex; tile id and palette bank are indices, so they are carried
// flat per instance, never interpolated.
type Vertex struct {
	Pos Vec2 // normalized device coordinates
	UV  Vec2 // [0,1]^2, u right, v up
}

// QuadCorner returns the UV of quad corner i in [0, 4), using the 2-bit
// trick: x = (i<<1)&2, y = i&2, halved. The corners come out in triangle
// strip order (0,0), (1,0), (0,1), (1,1).
func QuadCorner(i int) Vec2 {
	return Vec2{
		X: float32((i<<1)&2) / 2,
		Y: float32(i&2) / 2,
	}
}

// PlaceQuad maps a tile instance's unit quad into normalized device
// coordinates. Per corner: the UV is scaled to the 8-pixel tile, translated
// by the grid position (y negated, then shifted up one tile so the origin
// sits at the tile's top edge), magnified by PixelScale and the uniform
// scale, panned by the origin, and finally recentered against the
// resolution (x subtracts it, y adds it), which lands ndc (-1, 1) on the
// target's top-left corner.
//
// Instances fully outside the visible range still produce a quad; clipping
// is the rasterizer's job, not the placement stage's.
func PlaceQuad(inst TileInstance, u Uniforms) [4]Vertex {
	scale := PixelScale * u.EffectiveScale()

	var out [4]Vertex
	for i := 0; i < 4; i++ {
		uv := QuadCorner(i)

		x := (uv.X*TileSize+float32(inst.X))*scale + u.Origin.X
		y := (uv.Y*TileSize-float32(inst.Y)-TileSize)*scale + u.Origin.Y

		out[i] = Vertex{
			Pos: Vec2{
				X: (x - u.Resolution.X) / u.Resolution.X,
				Y: (y + u.Resolution.Y) / u.Resolution.Y,
			},
			UV: uv,
		}
	}
	return out
}
