package parallel

// Band is a half-open range of framebuffer rows [Y0, Y1).
type Band struct {
	Y0, Y1 int
}

// Bands partitions height rows into at most count contiguous bands of
// near-equal size. It never returns an empty band: fewer bands come back
// when height is small, and at least one band covers any positive height.
func Bands(height, count int) []Band {
	if height <= 0 {
		return nil
	}
	if count < 1 {
		count = 1
	}
	if count > height {
		count = height
	}

	bands := make([]Band, 0, count)
	step := height / count
	extra := height % count

	y := 0
	for i := 0; i < count; i++ {
		size := step
		if i < extra {
			size++
		}
		bands = append(bands, Band{Y0: y, Y1: y + size})
		y += size
	}
	return bands
}
