package atlas

import (
	"fmt"
	"image"

	"github.com/gogpu/gg"
	css "github.com/mazznoer/csscolorparser"
)

// Circle is a filled disc in unit coordinates of the placeholder.
type Circle struct {
	X      float64 `yaml:"x"`
	Y      float64 `yaml:"y"`
	Radius float64 `yaml:"radius"`
	Color  string  `yaml:"color"`
}

// PlaceholderSpec describes the fallback source image.
type PlaceholderSpec struct {
	Size     int      `yaml:"size"`
	Gradient []string `yaml:"gradient"`
	Circles  []Circle `yaml:"circles"`
}

// DefaultPlaceholder is a dark diagonal gradient with two accent discs.
func DefaultPlaceholder() PlaceholderSpec {
	return PlaceholderSpec{
		Size:     256,
		Gradient: []string{"#1a1a2e", "#16213e", "#0f3460"},
		Circles: []Circle{
			{X: 0.3, Y: 0.4, Radius: 0.15, Color: "#e94560"},
			{X: 0.7, Y: 0.6, Radius: 0.2, Color: "#533483"},
		},
	}
}

// ParseColor converts a CSS color string to a gg color.
func ParseColor(s string) (gg.RGBA, error) {
	c, err := css.Parse(s)
	if err != nil {
		return gg.RGBA{}, fmt.Errorf("atlas: color %q: %w", s, err)
	}
	return gg.RGBA2(c.R, c.G, c.B, c.A), nil
}

// Validate checks the size and every color string.
func (p PlaceholderSpec) Validate() error {
	if p.Size <= 0 {
		return fmt.Errorf("atlas: placeholder size must be positive, got %d", p.Size)
	}
	for _, s := range p.Gradient {
		if _, err := ParseColor(s); err != nil {
			return err
		}
	}
	for _, c := range p.Circles {
		if _, err := ParseColor(c.Color); err != nil {
			return err
		}
	}
	return nil
}

// Placeholder renders p: a top-left to bottom-right gradient through the
// listed stops, then each circle on top.
func Placeholder(p PlaceholderSpec) (image.Image, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}
	stops := make([]gg.RGBA, len(p.Gradient))
	for i, s := range p.Gradient {
		stops[i], _ = ParseColor(s)
	}

	pm := gg.NewPixmap(p.Size, p.Size)
	span := float64(2 * max(p.Size-1, 1))
	for y := 0; y < p.Size; y++ {
		for x := 0; x < p.Size; x++ {
			pm.SetPixel(x, y, gradientAt(stops, float64(x+y)/span))
		}
	}

	dc := gg.NewContext(p.Size, p.Size, gg.WithPixmap(pm))
	defer dc.Close()

	size := float64(p.Size)
	for _, c := range p.Circles {
		col, _ := ParseColor(c.Color)
		dc.SetFillBrush(gg.Solid(col))
		dc.DrawCircle(c.X*size, c.Y*size, c.Radius*size)
		if err := dc.Fill(); err != nil {
			return nil, fmt.Errorf("atlas: placeholder circle: %w", err)
		}
	}
	return dc.Image(), nil
}

// gradientAt interpolates evenly spaced stops at t in [0,1].
func gradientAt(stops []gg.RGBA, t float64) gg.RGBA {
	switch len(stops) {
	case 0:
		return gg.Black
	case 1:
		return stops[0]
	}
	pos := min(max(t, 0), 1) * float64(len(stops)-1)
	i := min(int(pos), len(stops)-2)
	return stops[i].Lerp(stops[i+1], pos-float64(i))
}
