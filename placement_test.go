package tilemap

import (
	"math"
	"testing"
)

func TestQuadCorner(t *testing.T) {
	want := [4]Vec2{{0, 0}, {1, 0}, {0, 1}, {1, 1}}
	for i, w := range want {
		if got := QuadCorner(i); got != w {
			t.Errorf("QuadCorner(%d) = %v, want %v", i, got, w)
		}
	}
}

func TestEffectiveScale(t *testing.T) {
	if got := (Uniforms{}).EffectiveScale(); got != 1 {
		t.Errorf("zero scale = %v, want 1", got)
	}
	if got := (Uniforms{Scale: 2.5}).EffectiveScale(); got != 2.5 {
		t.Errorf("explicit scale = %v, want 2.5", got)
	}
}

func approxEq(a, b float32) bool {
	return math.Abs(float64(a-b)) < 1e-5
}

func TestPlaceQuadOrigin(t *testing.T) {
	u := Uniforms{Resolution: Vec2{X: 64, Y: 64}}
	quad := PlaceQuad(TileInstance{}, u)

	// Tile (0,0) spans device x [0,32], y [-32,0]. Against a 64-unit
	// resolution that is ndc x [-1,-0.5], y [0.5,1]: the top-left
	// corner of the target, one quarter of it each way.
	wantPos := [4]Vec2{
		{-1, 0.5},   // uv (0,0), bottom left
		{-0.5, 0.5}, // uv (1,0), bottom right
		{-1, 1},     // uv (0,1), top left
		{-0.5, 1},   // uv (1,1), top right
	}
	for i := range quad {
		if !approxEq(quad[i].Pos.X, wantPos[i].X) || !approxEq(quad[i].Pos.Y, wantPos[i].Y) {
			t.Errorf("corner %d pos = %v, want %v", i, quad[i].Pos, wantPos[i])
		}
		if quad[i].UV != QuadCorner(i) {
			t.Errorf("corner %d uv = %v, want %v", i, quad[i].UV, QuadCorner(i))
		}
	}
}

func TestPlaceQuadGridStep(t *testing.T) {
	u := Uniforms{Resolution: Vec2{X: 128, Y: 128}}

	at := func(inst TileInstance) [4]Vertex { return PlaceQuad(inst, u) }
	base := at(TileInstance{})
	right := at(TileInstance{X: TileSize})
	down := at(TileInstance{Y: TileSize})

	// One tile step is 8 grid units = 32 device units = 32/128 in ndc
	// half-extent terms, i.e. 0.25 per axis. X steps right, Y steps down.
	for i := range base {
		if !approxEq(right[i].Pos.X, base[i].Pos.X+0.25) {
			t.Errorf("corner %d x step = %v, want +0.25", i, right[i].Pos.X-base[i].Pos.X)
		}
		if !approxEq(right[i].Pos.Y, base[i].Pos.Y) {
			t.Errorf("corner %d y moved on x step", i)
		}
		if !approxEq(down[i].Pos.Y, base[i].Pos.Y-0.25) {
			t.Errorf("corner %d y step = %v, want -0.25", i, down[i].Pos.Y-base[i].Pos.Y)
		}
	}
}

func TestPlaceQuadOriginPan(t *testing.T) {
	res := Vec2{X: 100, Y: 100}
	base := PlaceQuad(TileInstance{}, Uniforms{Resolution: res})
	panned := PlaceQuad(TileInstance{}, Uniforms{Resolution: res, Origin: Vec2{X: 10, Y: -20}})

	for i := range base {
		if !approxEq(panned[i].Pos.X, base[i].Pos.X+10.0/100) {
			t.Errorf("corner %d x pan = %v, want +0.1", i, panned[i].Pos.X-base[i].Pos.X)
		}
		if !approxEq(panned[i].Pos.Y, base[i].Pos.Y-20.0/100) {
			t.Errorf("corner %d y pan = %v, want -0.2", i, panned[i].Pos.Y-base[i].Pos.Y)
		}
	}
}

func TestPlaceQuadScale(t *testing.T) {
	res := Vec2{X: 128, Y: 128}
	scaled := PlaceQuad(TileInstance{}, Uniforms{Resolution: res, Scale: 2})

	// Doubled scale doubles the device extent: x spans [0,64] which is
	// ndc [-1, -0.5] against 128.
	if !approxEq(scaled[1].Pos.X, -0.5) {
		t.Errorf("scaled right edge x = %v, want -0.5", scaled[1].Pos.X)
	}
	if !approxEq(scaled[0].Pos.Y, 0.5) {
		t.Errorf("scaled bottom edge y = %v, want 0.5", scaled[0].Pos.Y)
	}
}

func TestPlaceQuadOffscreenStillPlaced(t *testing.T) {
	u := Uniforms{Resolution: Vec2{X: 64, Y: 64}}
	quad := PlaceQuad(TileInstance{X: -1000, Y: -1000}, u)

	// No clamping happens at the placement stage.
	if quad[0].Pos.X >= -1 {
		t.Errorf("offscreen quad x = %v, expected left of ndc range", quad[0].Pos.X)
	}
}

func TestPlaceQuadNegativeGrid(t *testing.T) {
	u := Uniforms{Resolution: Vec2{X: 64, Y: 64}}
	base := PlaceQuad(TileInstance{}, u)
	left := PlaceQuad(TileInstance{X: -TileSize}, u)

	for i := range base {
		if !approxEq(left[i].Pos.X, base[i].Pos.X-0.5) {
			t.Errorf("corner %d negative x step = %v, want -0.5", i, left[i].Pos.X-base[i].Pos.X)
		}
	}
}
