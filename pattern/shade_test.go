package pattern

import (
	"math"
	"testing"

	"github.com/pthm-cable/dotfield/gpu"
)

func near(a, b float32) bool { return math.Abs(float64(a-b)) < 1e-5 }

func TestGradeIdentity(t *testing.T) {
	in := RGB{0.2, 0.5, 0.8}
	got := Grade(in, Grading{Contrast: 1, Saturation: 1})
	for i := range in {
		if !near(got[i], in[i]) {
			t.Errorf("channel %d = %v, want %v", i, got[i], in[i])
		}
	}
}

func TestGradeStages(t *testing.T) {
	tests := []struct {
		name string
		g    Grading
		in   RGB
		want RGB
	}{
		{"exposure doubles and clamps", Grading{Exposure: 1, Contrast: 1, Saturation: 1}, RGB{0.2, 0.4, 0.7}, RGB{0.4, 0.8, 1}},
		{"brightness offsets", Grading{Brightness: 0.1, Contrast: 1, Saturation: 1}, RGB{0.2, 0.4, 0.95}, RGB{0.3, 0.5, 1}},
		{"zero contrast is mid gray", Grading{Contrast: 0, Saturation: 1}, RGB{0.1, 0.9, 0.3}, RGB{0.5, 0.5, 0.5}},
		{"zero saturation is luminance", Grading{Contrast: 1, Saturation: 0}, RGB{1, 0, 0}, RGB{0.299, 0.299, 0.299}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Grade(tt.in, tt.g)
			for i := range got {
				if !near(got[i], tt.want[i]) {
					t.Errorf("Grade = %v, want %v", got, tt.want)
					break
				}
			}
		})
	}
}

func TestPrimaryIndex(t *testing.T) {
	tests := []struct {
		scaled float32
		want   int
	}{
		{-1, 0}, {0.2, 0}, {0.5, 1}, {1.25, 2}, {2.6, 3}, {3.4, 3}, {3.5, 4}, {4.99, 4}, {5, 5}, {9, 5},
	}
	for _, tt := range tests {
		if got := PrimaryIndex(tt.scaled); got != tt.want {
			t.Errorf("PrimaryIndex(%v) = %d, want %d", tt.scaled, got, tt.want)
		}
	}
}

func TestSecondaryIndex(t *testing.T) {
	tests := []struct {
		lum  float32
		want int
	}{
		{0, 0}, {0.1, 1}, {0.29, 1}, {0.3, 2}, {0.5, 3}, {0.75, 4}, {0.9, 5}, {1, 5},
	}
	for _, tt := range tests {
		if got := SecondaryIndex(tt.lum); got != tt.want {
			t.Errorf("SecondaryIndex(%v) = %d, want %d", tt.lum, got, tt.want)
		}
	}
}

func TestColumns(t *testing.T) {
	if got := PrimaryColumn(0, 6); got != 5 {
		t.Errorf("PrimaryColumn(0, 6) = %d, want 5", got)
	}
	if got := PrimaryColumn(5, 6); got != 0 {
		t.Errorf("PrimaryColumn(5, 6) = %d, want 0", got)
	}
	if got := PrimaryColumn(2, 1); got != 0 {
		t.Errorf("PrimaryColumn(2, 1) = %d, want 0", got)
	}
	if got := SecondaryColumn(5, 3); got != 2 {
		t.Errorf("SecondaryColumn(5, 3) = %d, want 2", got)
	}
}

func TestContainUV(t *testing.T) {
	container := gpu.Vec2{200, 100}
	image := gpu.Vec2{50, 50}

	if got := ContainUV(gpu.Vec2{0.5, 0.5}, container, image, 1); !near(got[0], 0.5) || !near(got[1], 0.5) {
		t.Errorf("centre maps to %v", got)
	}
	// The square image is letterboxed to the middle half of the width.
	if got := ContainUV(gpu.Vec2{0.25, 0}, container, image, 1); !near(got[0], 0) || !near(got[1], 0) {
		t.Errorf("left edge maps to %v", got)
	}
	if got := ContainUV(gpu.Vec2{0.1, 0.5}, container, image, 1); got[0] >= 0 {
		t.Errorf("margin maps inside the image: %v", got)
	}
	// Halving the scale doubles the distance from the centre.
	got := ContainUV(gpu.Vec2{0.625, 0.5}, container, image, 0.5)
	if !near(got[0], 1) {
		t.Errorf("scaled mapping = %v, want u=1", got)
	}
}

func TestTransition(t *testing.T) {
	if Transition(0.04, 0.05, 0.1, false) != 0 || Transition(0.06, 0.05, 0.1, false) != 1 {
		t.Error("step transition wrong")
	}
	if got := Transition(0.1, 0.05, 0.1, true); !near(got, 0.5) {
		t.Errorf("smooth transition midpoint = %v, want 0.5", got)
	}
	if Transition(0.2, 0.05, 0.1, true) != 1 {
		t.Error("smooth transition not saturated above the band")
	}
}

func TestAtlasUV(t *testing.T) {
	got := AtlasUV(3, 6, gpu.Vec2{0.5, 0.5}, 0)
	if col := int(got[0] * 6); col != 3 {
		t.Errorf("u %v falls in column %d, want 3", got[0], col)
	}
	// The margin keeps lookups inside the column.
	lo := AtlasUV(2, 4, gpu.Vec2{0, 0}, altAtlasMargin)
	hi := AtlasUV(2, 4, gpu.Vec2{1, 1}, altAtlasMargin)
	if lo[0] <= 0.5 || hi[0] >= 0.75 {
		t.Errorf("column 2 spans [%v, %v], want inside (0.5, 0.75)", lo[0], hi[0])
	}
}

func solid(c [4]float32) Sampler {
	return func(gpu.Vec2) [4]float32 { return c }
}

func shadeParams() gpu.CompositeParams {
	return gpu.CompositeParams{
		Resolution:        gpu.Vec2{16, 16},
		ImageDimensions:   gpu.Vec2{16, 16},
		TileSize:          8,
		PatternColumns:    6,
		AltPatternColumns: 6,
		Contrast:          1,
		Saturation:        1,
		ImageScale:        1,
		FadeThreshold:     0.05,
		FadeWidth:         0.1,
		AltPatternOpacity: 1,
		UseAtlasColors:    true,
	}
}

func TestShadePixelPrimary(t *testing.T) {
	p := shadeParams()
	var col int
	atlas := func(uv gpu.Vec2) [4]float32 {
		col = int(uv[0] * float32(p.PatternColumns))
		return [4]float32{1, 1, 1, 1}
	}
	gray := solid([4]float32{0.5, 0.5, 0.5, 1})

	c := ShadePixel(gpu.Vec2{4.5, 4.5}, &p, gray, solid([4]float32{}), atlas, solid([4]float32{}))
	// Luminance 0.5 inverts to 0.35, tier 2, column 3, gray 0.91.
	if col != 3 {
		t.Errorf("atlas column = %d, want 3", col)
	}
	for i := range c {
		if !near(c[i], 0.91) {
			t.Fatalf("color = %v, want 0.91 gray", c)
		}
	}
}

func TestShadePixelEmptyTile(t *testing.T) {
	p := shadeParams()
	black := solid([4]float32{0, 0, 0, 1})
	c := ShadePixel(gpu.Vec2{4.5, 4.5}, &p, black, solid([4]float32{1, 1, 1, 1}), solid([4]float32{1, 1, 1, 1}), solid([4]float32{0, 0, 0, 1}))
	if c != Background(false) {
		t.Errorf("dark tile = %v, want background", c)
	}

	p.DarkMode = true
	c = ShadePixel(gpu.Vec2{4.5, 4.5}, &p, black, solid([4]float32{}), solid([4]float32{}), solid([4]float32{}))
	if c != Background(true) {
		t.Errorf("dark mode tile = %v, want black", c)
	}
}

func TestShadePixelOutsideImage(t *testing.T) {
	p := shadeParams()
	p.Resolution = gpu.Vec2{64, 16}
	gray := solid([4]float32{0.5, 0.5, 0.5, 1})
	c := ShadePixel(gpu.Vec2{2, 8}, &p, gray, solid([4]float32{}), solid([4]float32{1, 1, 1, 1}), solid([4]float32{}))
	if c != Background(false) {
		t.Errorf("letterbox pixel = %v, want background", c)
	}
}

func TestShadePixelPainted(t *testing.T) {
	p := shadeParams()
	gray := solid([4]float32{0.5, 0.5, 0.5, 1})
	paint := solid([4]float32{1, 1, 1, 1})
	alt := solid([4]float32{0.2, 0.4, 0.6, 1})

	c := ShadePixel(gpu.Vec2{4.5, 4.5}, &p, gray, paint, solid([4]float32{1, 1, 1, 1}), alt)
	want := RGB{0.2, 0.4, 0.6}
	for i := range c {
		if !near(c[i], want[i]) {
			t.Fatalf("painted color = %v, want %v", c, want)
		}
	}

	// Without atlas colors the image color shows through the alt mask.
	p.UseAtlasColors = false
	c = ShadePixel(gpu.Vec2{4.5, 4.5}, &p, gray, paint, solid([4]float32{1, 1, 1, 1}), alt)
	for i := range c {
		if !near(c[i], 0.5) {
			t.Fatalf("image-colored paint = %v, want 0.5 gray", c)
		}
	}
}

func TestShadePixelBottomFade(t *testing.T) {
	p := shadeParams()
	p.BottomFade = true
	gray := solid([4]float32{0.5, 0.5, 0.5, 1})
	c := ShadePixel(gpu.Vec2{4.5, 4}, &p, gray, solid([4]float32{}), solid([4]float32{1, 1, 1, 1}), solid([4]float32{}))
	if c[0] <= 0.91 || c[0] >= 1 {
		t.Errorf("faded color = %v, want between 0.91 and 1", c[0])
	}
}
