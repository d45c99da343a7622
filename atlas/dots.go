package atlas

import (
	"image"
	"math"

	"github.com/gogpu/gg"
)

// Dot radius range across atlas columns, in pixels.
const (
	minDotRadius  = 0.5
	dotRadiusSpan = 3.0
)

// DotRadius returns the dot radius of column col in a columns-wide atlas.
func DotRadius(col, columns int) float64 {
	if columns < 2 {
		return minDotRadius
	}
	d := float64(col) / float64(columns-1)
	return minDotRadius + d*dotRadiusSpan
}

// DotAtlas renders a tile-high strip of columns square cells. Each cell
// holds one white dot on a transparent background; the dot grows with the
// column index. Dots are hard-edged so nearest sampling sees a clean mask.
func DotAtlas(tile, columns int) image.Image {
	tile = max(tile, 1)
	columns = max(columns, 1)

	pm := gg.NewPixmap(tile*columns, tile)
	half := float64(tile) / 2
	for col := 0; col < columns; col++ {
		r := DotRadius(col, columns)
		for y := 0; y < tile; y++ {
			for x := 0; x < tile; x++ {
				cx := float64(x) - half
				cy := float64(y) - half
				c := gg.Transparent
				if math.Sqrt(cx*cx+cy*cy) < r {
					c = gg.White
				}
				pm.SetPixel(col*tile+x, y, c)
			}
		}
	}
	return pm.ToImage()
}
