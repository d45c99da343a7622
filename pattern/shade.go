package pattern

import (
	"math"

	"github.com/pthm-cable/dotfield/gpu"
)

// Wobble animation constants.
const (
	WobbleSpeed     = 0.5
	WobbleFrequency = 0.008
	WobbleAmplitude = 0.1
)

const (
	// emptyThreshold is the graded color magnitude below which a tile is
	// treated as background.
	emptyThreshold = 0.04
	// invertOffset flips luminance so darker areas pick denser dots.
	invertOffset = 0.85
	// altAtlasMargin insets alternate atlas lookups by half a texel of a
	// 512 px wide atlas to avoid bleeding between columns.
	altAtlasMargin = 0.5 / 512.0
	// alphaCutoff is the atlas alpha treated as "no dot".
	alphaCutoff = 0.001
	// bottomFadeStart is the vertical UV where the bottom fade ends.
	bottomFadeStart = 0.3
)

// RGB is a linear color with components in [0,1].
type RGB [3]float32

// Sampler returns the RGBA value of a texture at uv.
type Sampler func(uv gpu.Vec2) [4]float32

// Grading holds the image adjustment parameters.
type Grading struct {
	Exposure   float32
	Brightness float32
	Contrast   float32
	Saturation float32
}

func clamp01(x float32) float32 {
	if x < 0 {
		return 0
	}
	if x > 1 {
		return 1
	}
	return x
}

func mix(a, b, t float32) float32 { return a + (b-a)*t }

func mixRGB(a, b RGB, t float32) RGB {
	return RGB{mix(a[0], b[0], t), mix(a[1], b[1], t), mix(a[2], b[2], t)}
}

func (c RGB) length() float32 {
	return float32(math.Sqrt(float64(c[0]*c[0] + c[1]*c[1] + c[2]*c[2])))
}

// Luminance uses the Rec. 601 weights.
func Luminance(c RGB) float32 {
	return 0.299*c[0] + 0.587*c[1] + 0.114*c[2]
}

// Grade applies exposure, brightness, contrast and saturation in that order,
// clamping every channel after each stage.
func Grade(c RGB, g Grading) RGB {
	gain := float32(math.Pow(2, float64(g.Exposure)))
	for i := range c {
		c[i] = clamp01(c[i] * gain)
	}
	for i := range c {
		c[i] = clamp01(c[i] + g.Brightness)
	}
	for i := range c {
		c[i] = clamp01((c[i]-0.5)*g.Contrast + 0.5)
	}
	lum := Luminance(c)
	for i := range c {
		c[i] = clamp01(mix(lum, c[i], g.Saturation))
	}
	return c
}

// ContainUV maps a surface UV into image UV so the whole image is visible,
// centred, and scaled by imageScale.
func ContainUV(uv, container, image gpu.Vec2, imageScale float32) gpu.Vec2 {
	cmax := max(container[0], container[1])
	imax := max(image[0], image[1])
	ca := gpu.Vec2{container[0] / cmax, container[1] / cmax}
	ia := gpu.Vec2{image[0] / imax, image[1] / imax}
	fit := min(ca[0]/ia[0], ca[1]/ia[1]) * imageScale
	size := gpu.Vec2{ia[0] * fit, ia[1] * fit}
	off := gpu.Vec2{(ca[0] - size[0]) * 0.5, (ca[1] - size[1]) * 0.5}
	return gpu.Vec2{
		(uv[0]*ca[0] - off[0]) / size[0],
		(uv[1]*ca[1] - off[1]) / size[1],
	}
}

func inUnitSquare(uv gpu.Vec2) bool {
	return uv[0] >= 0 && uv[0] <= 1 && uv[1] >= 0 && uv[1] <= 1
}

// PrimaryIndex buckets scaled inverted luminance (0..5) into a dot tier.
func PrimaryIndex(scaled float32) int {
	var idx int
	switch {
	case scaled < 0.5:
		idx = 0
	case scaled < 3.5:
		idx = int(math.Floor(float64(scaled*0.8))) + 1
	case scaled < 5.0:
		idx = 4
	default:
		idx = 5
	}
	return min(max(idx, 0), 5)
}

// SecondaryIndex buckets luminance into a tier of the alternate atlas.
func SecondaryIndex(lum float32) int {
	switch {
	case lum < 0.1:
		return 0
	case lum < 0.3:
		return 1
	case lum < 0.5:
		return 2
	case lum < 0.7:
		return 3
	case lum < 0.9:
		return 4
	default:
		return 5
	}
}

// PrimaryColumn maps a primary tier to an atlas column. Columns run from
// densest to sparsest, so the order is reversed.
func PrimaryColumn(idx, columns int) int {
	return min(max(columns-1-idx, 0), columns-1)
}

// SecondaryColumn maps a secondary tier to an alternate atlas column.
func SecondaryColumn(idx, columns int) int {
	return min(idx, columns-1)
}

// AtlasUV returns the atlas coordinate of uv inside column col.
func AtlasUV(col, columns int, uv gpu.Vec2, margin float32) gpu.Vec2 {
	// The margin only offsets u; v is scaled but not shifted.
	u := uv[0]*(1-2*margin) + margin
	v := uv[1] * (1 - 2*margin)
	n := float32(columns)
	return gpu.Vec2{u/n + float32(col)/n, v}
}

// Wobble is the animated luminance offset for a tile column.
func Wobble(elapsed, tileX float32) float32 {
	return WobbleAmplitude * float32(math.Sin(float64(elapsed*WobbleSpeed+tileX*WobbleFrequency)))
}

// Smoothstep is the GLSL smoothstep.
func Smoothstep(edge0, edge1, x float32) float32 {
	t := clamp01((x - edge0) / (edge1 - edge0))
	return t * t * (3 - 2*t)
}

// Transition returns the blend factor between the primary and alternate
// patterns for a given paint strength.
func Transition(paint, threshold, width float32, smooth bool) float32 {
	if smooth {
		return Smoothstep(threshold, threshold+width, paint)
	}
	if paint > threshold {
		return 1
	}
	return 0
}

// Background returns the solid background color.
func Background(dark bool) RGB {
	if dark {
		return RGB{0, 0, 0}
	}
	return RGB{1, 1, 1}
}

// GrayLevel returns the fill gray of a primary tier. Tiers 0 and 1 share a
// level.
func GrayLevel(idx int, dark bool) float32 {
	if dark {
		return 0.33
	}
	switch {
	case idx <= 1:
		return 0.85
	case idx == 2:
		return 0.91
	case idx == 3:
		return 0.925
	case idx == 4:
		return 0.98
	default:
		return 0.99
	}
}

func primaryColor(idx int, alpha float32, dark bool) RGB {
	if alpha < alphaCutoff {
		return Background(dark)
	}
	g := GrayLevel(idx, dark)
	return RGB{g, g, g}
}

func secondaryColor(sample [4]float32, original RGB, p *gpu.CompositeParams) RGB {
	bg := Background(p.DarkMode)
	alpha := sample[3]
	if alpha < alphaCutoff {
		return bg
	}
	if p.UseAtlasColors {
		return mixRGB(bg, RGB{sample[0], sample[1], sample[2]}, alpha)
	}
	blended := mixRGB(bg, original, alpha)
	return mixRGB(bg, blended, p.AltPatternOpacity)
}

func glmod(x, y float32) float32 {
	return x - y*float32(math.Floor(float64(x/y)))
}

// ShadePixel evaluates the compositing pass for the pixel at fragment
// coordinate frag (pixel centre, origin bottom-left).
func ShadePixel(frag gpu.Vec2, p *gpu.CompositeParams, image, deform, atlas, altAtlas Sampler) RGB {
	ts := p.TileSize
	bg := Background(p.DarkMode)

	tileX := float32(math.Floor(float64(frag[0] / ts)))
	tileY := float32(math.Floor(float64(frag[1] / ts)))
	center := gpu.Vec2{
		(tileX*ts + ts*0.5) / p.Resolution[0],
		(tileY*ts + ts*0.5) / p.Resolution[1],
	}
	mapped := ContainUV(center, p.Resolution, p.ImageDimensions, p.ImageScale)
	if !inUnitSquare(mapped) {
		return bg
	}

	src := image(mapped)
	original := Grade(RGB{src[0], src[1], src[2]}, Grading{
		Exposure:   p.Exposure,
		Brightness: p.Brightness,
		Contrast:   p.Contrast,
		Saturation: p.Saturation,
	})
	if original.length() < emptyThreshold {
		return bg
	}

	d := deform(mapped)
	paint := (d[0] + d[1] + d[2]) / 3

	lum := Luminance(original)
	inverted := invertOffset - clamp01(lum+Wobble(p.Time, tileX))

	primary := PrimaryIndex(inverted * 5)
	secondary := SecondaryIndex(lum)

	inTile := gpu.Vec2{glmod(frag[0], ts) / ts, glmod(frag[1], ts) / ts}
	regular := atlas(AtlasUV(PrimaryColumn(primary, p.PatternColumns), p.PatternColumns, inTile, 0))
	alt := altAtlas(AtlasUV(SecondaryColumn(secondary, p.AltPatternColumns), p.AltPatternColumns, inTile, altAtlasMargin))

	c := mixRGB(
		primaryColor(primary, regular[3], p.DarkMode),
		secondaryColor(alt, original, p),
		Transition(paint, p.FadeThreshold, p.FadeWidth, p.FadeTransition),
	)

	if p.BottomFade {
		f := Smoothstep(0, bottomFadeStart, frag[1]/p.Resolution[1])
		f = f * f * (3 - 2*f)
		c = mixRGB(bg, c, f)
	}
	return c
}
