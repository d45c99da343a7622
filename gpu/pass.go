package gpu

import "fmt"

// PassKind enumerates every full-screen pass a device can compile.
type PassKind uint8

const (
	PassClear PassKind = iota
	PassSplat
	PassAdvect
	PassDivergence
	PassCurl
	PassVorticity
	PassPressure
	PassGradientSubtract
	PassComposite

	NumPasses
)

var passNames = [NumPasses]string{
	PassClear:            "clear",
	PassSplat:            "splat",
	PassAdvect:           "advect",
	PassDivergence:       "divergence",
	PassCurl:             "curl",
	PassVorticity:        "vorticity",
	PassPressure:         "pressure",
	PassGradientSubtract: "gradient_subtract",
	PassComposite:        "composite",
}

func (k PassKind) String() string {
	if k < NumPasses {
		return passNames[k]
	}
	return fmt.Sprintf("pass(%d)", uint8(k))
}

// ParsePassKind maps a pass name back to its kind.
func ParsePassKind(name string) (PassKind, error) {
	for k, n := range passNames {
		if n == name {
			return PassKind(k), nil
		}
	}
	return 0, fmt.Errorf("gpu: unknown pass %q", name)
}

// Vec2 is a two-component uniform value.
type Vec2 [2]float32

// Vec3 is a three-component uniform value.
type Vec3 [3]float32

// Params carries the uniform values of one Draw. Each pass kind has its own
// concrete params type.
type Params interface {
	Kind() PassKind
	// Inputs lists the textures the pass samples.
	Inputs() []Texture
}

// ClearParams scales Source by Value.
type ClearParams struct {
	Source Texture
	Value  float32
}

func (ClearParams) Kind() PassKind      { return PassClear }
func (p ClearParams) Inputs() []Texture { return []Texture{p.Source} }

// SplatParams adds a Gaussian blob of Color centred at Point to Target.
type SplatParams struct {
	Target      Texture
	AspectRatio float32
	Point       Vec2
	Color       Vec3
	Radius      float32
}

func (SplatParams) Kind() PassKind      { return PassSplat }
func (p SplatParams) Inputs() []Texture { return []Texture{p.Target} }

// AdvectParams moves Source along Velocity with a backward trace.
type AdvectParams struct {
	Velocity    Texture
	Source      Texture
	TexelSize   Vec2
	DT          float32
	Dissipation float32
}

func (AdvectParams) Kind() PassKind      { return PassAdvect }
func (p AdvectParams) Inputs() []Texture { return []Texture{p.Velocity, p.Source} }

// DivergenceParams computes the divergence of Velocity.
type DivergenceParams struct {
	Velocity  Texture
	TexelSize Vec2
}

func (DivergenceParams) Kind() PassKind      { return PassDivergence }
func (p DivergenceParams) Inputs() []Texture { return []Texture{p.Velocity} }

// CurlParams computes the scalar curl of Velocity.
type CurlParams struct {
	Velocity  Texture
	TexelSize Vec2
}

func (CurlParams) Kind() PassKind      { return PassCurl }
func (p CurlParams) Inputs() []Texture { return []Texture{p.Velocity} }

// VorticityParams applies vorticity confinement to Velocity.
type VorticityParams struct {
	Velocity  Texture
	Curl      Texture
	TexelSize Vec2
	Strength  float32
	DT        float32
}

func (VorticityParams) Kind() PassKind      { return PassVorticity }
func (p VorticityParams) Inputs() []Texture { return []Texture{p.Velocity, p.Curl} }

// PressureParams runs one Jacobi iteration.
type PressureParams struct {
	Pressure   Texture
	Divergence Texture
	TexelSize  Vec2
}

func (PressureParams) Kind() PassKind      { return PassPressure }
func (p PressureParams) Inputs() []Texture { return []Texture{p.Pressure, p.Divergence} }

// GradientSubtractParams projects Velocity onto its divergence-free part.
type GradientSubtractParams struct {
	Pressure  Texture
	Velocity  Texture
	TexelSize Vec2
}

func (GradientSubtractParams) Kind() PassKind { return PassGradientSubtract }
func (p GradientSubtractParams) Inputs() []Texture {
	return []Texture{p.Pressure, p.Velocity}
}

// CompositeParams drives the dot-pattern compositing pass.
type CompositeParams struct {
	Image           Texture
	Deform          Texture
	PatternAtlas    Texture
	AltPatternAtlas Texture

	Resolution      Vec2
	ImageDimensions Vec2

	TileSize          float32
	PatternColumns    int
	AltPatternColumns int
	Time              float32

	Saturation float32
	Brightness float32
	Contrast   float32
	Exposure   float32

	ImageScale        float32
	FadeThreshold     float32
	FadeWidth         float32
	AltPatternOpacity float32

	DarkMode       bool
	BottomFade     bool
	FadeTransition bool
	UseAtlasColors bool
}

func (CompositeParams) Kind() PassKind { return PassComposite }
func (p CompositeParams) Inputs() []Texture {
	return []Texture{p.Image, p.Deform, p.PatternAtlas, p.AltPatternAtlas}
}
