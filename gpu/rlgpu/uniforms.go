package rlgpu

import (
	"fmt"

	"github.com/pthm-cable/dotfield/gpu"
)

// uniforms holds the resolved uniform locations of one pass and uploads
// that pass's params. size is the pixel size of the draw target.
type uniforms interface {
	bind(b binder, params gpu.Params, size gpu.Vec2) error
}

// locator resolves uniform names once at compile time. The first missing
// name is kept in err.
type locator struct {
	lookup func(name string) int32
	names  []string
	err    error
}

func (l *locator) loc(name string) int32 {
	l.names = append(l.names, name)
	v := l.lookup(name)
	if v < 0 && l.err == nil {
		l.err = fmt.Errorf("uniform %q not found: %w", name, gpu.ErrCompile)
	}
	return v
}

// resolveUniforms builds the location set of kind using lookup. The
// returned names are every uniform the set asked for, in order.
func resolveUniforms(kind gpu.PassKind, lookup func(string) int32) (uniforms, []string, error) {
	l := &locator{lookup: lookup}
	var u uniforms
	switch kind {
	case gpu.PassClear:
		u = &clearUniforms{
			targetSize: l.loc("targetSize"),
			texture:    l.loc("uTexture"),
			value:      l.loc("value"),
		}
	case gpu.PassSplat:
		u = &splatUniforms{
			targetSize:  l.loc("targetSize"),
			target:      l.loc("uTarget"),
			aspectRatio: l.loc("aspectRatio"),
			color:       l.loc("color"),
			point:       l.loc("point"),
			radius:      l.loc("radius"),
		}
	case gpu.PassAdvect:
		u = &advectUniforms{
			stencil:     l.stencil("uVelocity"),
			source:      l.loc("uSource"),
			dt:          l.loc("dt"),
			dissipation: l.loc("dissipation"),
		}
	case gpu.PassDivergence, gpu.PassCurl:
		u = &velocityUniforms{stencil: l.stencil("uVelocity")}
	case gpu.PassVorticity:
		u = &vorticityUniforms{
			stencil:  l.stencil("uVelocity"),
			curl:     l.loc("uCurl"),
			strength: l.loc("curl"),
			dt:       l.loc("dt"),
		}
	case gpu.PassPressure:
		u = &pressureUniforms{
			stencil:    l.stencil("uPressure"),
			divergence: l.loc("uDivergence"),
		}
	case gpu.PassGradientSubtract:
		u = &gradientUniforms{
			stencil:  l.stencil("uPressure"),
			velocity: l.loc("uVelocity"),
		}
	case gpu.PassComposite:
		u = &compositeUniforms{
			image:             l.loc("uImage"),
			deform:            l.loc("uDeform"),
			patternAtlas:      l.loc("uPatternAtlas"),
			altPatternAtlas:   l.loc("uAltPatternAtlas"),
			resolution:        l.loc("resolution"),
			imageDimensions:   l.loc("imageDimensions"),
			tileSize:          l.loc("tileSize"),
			patternColumns:    l.loc("patternColumns"),
			altPatternColumns: l.loc("altPatternColumns"),
			time:              l.loc("time"),
			saturation:        l.loc("saturation"),
			brightness:        l.loc("brightness"),
			contrast:          l.loc("contrast"),
			exposure:          l.loc("exposure"),
			imageScale:        l.loc("imageScale"),
			fadeThreshold:     l.loc("fadeThreshold"),
			fadeWidth:         l.loc("fadeWidth"),
			altPatternOpacity: l.loc("altPatternOpacity"),
			darkMode:          l.loc("darkMode"),
			bottomFade:        l.loc("bottomFade"),
			fadeTransition:    l.loc("fadeTransition"),
			useAtlasColors:    l.loc("useAtlasColors"),
		}
	default:
		return nil, nil, fmt.Errorf("rlgpu: %s: %w", kind, gpu.ErrCompile)
	}
	if l.err != nil {
		return nil, l.names, fmt.Errorf("rlgpu: %s: %w", kind, l.err)
	}
	return u, l.names, nil
}

// stencil is the location set shared by the grid passes: target size,
// texel size and the primary input sampler.
type stencil struct {
	targetSize int32
	texelSize  int32
	input      int32
}

func (l *locator) stencil(input string) stencil {
	return stencil{
		targetSize: l.loc("targetSize"),
		texelSize:  l.loc("texelSize"),
		input:      l.loc(input),
	}
}

func (s stencil) bind(b binder, size, texel gpu.Vec2, tex gpu.Texture) error {
	b.vec2(s.targetSize, size)
	b.vec2(s.texelSize, texel)
	return b.texture(s.input, tex)
}

func mismatch(params gpu.Params) error {
	return fmt.Errorf("rlgpu: params %T: %w", params, gpu.ErrKindMismatch)
}

type clearUniforms struct {
	targetSize, texture, value int32
}

func (u *clearUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	p, ok := params.(gpu.ClearParams)
	if !ok {
		return mismatch(params)
	}
	b.vec2(u.targetSize, size)
	b.float(u.value, p.Value)
	return b.texture(u.texture, p.Source)
}

type splatUniforms struct {
	targetSize, target, aspectRatio, color, point, radius int32
}

func (u *splatUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	p, ok := params.(gpu.SplatParams)
	if !ok {
		return mismatch(params)
	}
	b.vec2(u.targetSize, size)
	b.float(u.aspectRatio, p.AspectRatio)
	b.vec2(u.point, p.Point)
	b.vec3(u.color, p.Color)
	b.float(u.radius, p.Radius)
	return b.texture(u.target, p.Target)
}

type advectUniforms struct {
	stencil
	source, dt, dissipation int32
}

func (u *advectUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	p, ok := params.(gpu.AdvectParams)
	if !ok {
		return mismatch(params)
	}
	b.float(u.dt, p.DT)
	b.float(u.dissipation, p.Dissipation)
	if err := u.stencil.bind(b, size, p.TexelSize, p.Velocity); err != nil {
		return err
	}
	return b.texture(u.source, p.Source)
}

// velocityUniforms serves the divergence and curl passes.
type velocityUniforms struct {
	stencil
}

func (u *velocityUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	switch p := params.(type) {
	case gpu.DivergenceParams:
		return u.stencil.bind(b, size, p.TexelSize, p.Velocity)
	case gpu.CurlParams:
		return u.stencil.bind(b, size, p.TexelSize, p.Velocity)
	default:
		return mismatch(params)
	}
}

type vorticityUniforms struct {
	stencil
	curl, strength, dt int32
}

func (u *vorticityUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	p, ok := params.(gpu.VorticityParams)
	if !ok {
		return mismatch(params)
	}
	b.float(u.strength, p.Strength)
	b.float(u.dt, p.DT)
	if err := u.stencil.bind(b, size, p.TexelSize, p.Velocity); err != nil {
		return err
	}
	return b.texture(u.curl, p.Curl)
}

type pressureUniforms struct {
	stencil
	divergence int32
}

func (u *pressureUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	p, ok := params.(gpu.PressureParams)
	if !ok {
		return mismatch(params)
	}
	if err := u.stencil.bind(b, size, p.TexelSize, p.Pressure); err != nil {
		return err
	}
	return b.texture(u.divergence, p.Divergence)
}

type gradientUniforms struct {
	stencil
	velocity int32
}

func (u *gradientUniforms) bind(b binder, params gpu.Params, size gpu.Vec2) error {
	p, ok := params.(gpu.GradientSubtractParams)
	if !ok {
		return mismatch(params)
	}
	if err := u.stencil.bind(b, size, p.TexelSize, p.Pressure); err != nil {
		return err
	}
	return b.texture(u.velocity, p.Velocity)
}

// compositeUniforms has no target size; the shader takes the surface
// size through resolution.
type compositeUniforms struct {
	image, deform, patternAtlas, altPatternAtlas int32

	resolution, imageDimensions int32

	tileSize, patternColumns, altPatternColumns, time int32

	saturation, brightness, contrast, exposure int32

	imageScale, fadeThreshold, fadeWidth, altPatternOpacity int32

	darkMode, bottomFade, fadeTransition, useAtlasColors int32
}

func (u *compositeUniforms) bind(b binder, params gpu.Params, _ gpu.Vec2) error {
	p, ok := params.(gpu.CompositeParams)
	if !ok {
		return mismatch(params)
	}
	b.vec2(u.resolution, p.Resolution)
	b.vec2(u.imageDimensions, p.ImageDimensions)
	b.float(u.tileSize, p.TileSize)
	b.float(u.patternColumns, float32(p.PatternColumns))
	b.float(u.altPatternColumns, float32(p.AltPatternColumns))
	b.float(u.time, p.Time)
	b.float(u.saturation, p.Saturation)
	b.float(u.brightness, p.Brightness)
	b.float(u.contrast, p.Contrast)
	b.float(u.exposure, p.Exposure)
	b.float(u.imageScale, p.ImageScale)
	b.float(u.fadeThreshold, p.FadeThreshold)
	b.float(u.fadeWidth, p.FadeWidth)
	b.float(u.altPatternOpacity, p.AltPatternOpacity)
	b.flag(u.darkMode, p.DarkMode)
	b.flag(u.bottomFade, p.BottomFade)
	b.flag(u.fadeTransition, p.FadeTransition)
	b.flag(u.useAtlasColors, p.UseAtlasColors)

	for _, s := range []struct {
		loc int32
		tex gpu.Texture
	}{
		{u.image, p.Image},
		{u.deform, p.Deform},
		{u.patternAtlas, p.PatternAtlas},
		{u.altPatternAtlas, p.AltPatternAtlas},
	} {
		if err := b.texture(s.loc, s.tex); err != nil {
			return err
		}
	}
	return nil
}
