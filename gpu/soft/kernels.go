package soft

import (
	"fmt"
	"math"

	"github.com/pthm-cable/dotfield/gpu"
	"github.com/pthm-cable/dotfield/pattern"
)

// kernel binds params to the Go implementation of their pass.
func (d *Device) kernel(params gpu.Params) (shadeFunc, error) {
	switch p := params.(type) {
	case gpu.ClearParams:
		return d.clearKernel(p)
	case gpu.SplatParams:
		return d.splatKernel(p)
	case gpu.AdvectParams:
		return d.advectKernel(p)
	case gpu.DivergenceParams:
		return d.divergenceKernel(p)
	case gpu.CurlParams:
		return d.curlKernel(p)
	case gpu.VorticityParams:
		return d.vorticityKernel(p)
	case gpu.PressureParams:
		return d.pressureKernel(p)
	case gpu.GradientSubtractParams:
		return d.gradientSubtractKernel(p)
	case gpu.CompositeParams:
		return d.compositeKernel(p)
	default:
		return nil, fmt.Errorf("soft: params %T: %w", params, gpu.ErrKindMismatch)
	}
}

// neighbors returns the left, right, top and bottom sample positions.
func neighbors(uv, texel gpu.Vec2) (l, r, t, b gpu.Vec2) {
	l = gpu.Vec2{uv[0] - texel[0], uv[1]}
	r = gpu.Vec2{uv[0] + texel[0], uv[1]}
	t = gpu.Vec2{uv[0], uv[1] + texel[1]}
	b = gpu.Vec2{uv[0], uv[1] - texel[1]}
	return
}

func (d *Device) clearKernel(p gpu.ClearParams) (shadeFunc, error) {
	src, err := d.own(p.Source)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		c := src.sample(uv)
		return [4]float32{p.Value * c[0], p.Value * c[1], p.Value * c[2], p.Value * c[3]}
	}, nil
}

func (d *Device) splatKernel(p gpu.SplatParams) (shadeFunc, error) {
	target, err := d.own(p.Target)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		dx := (uv[0] - p.Point[0]) * p.AspectRatio
		dy := uv[1] - p.Point[1]
		falloff := float32(math.Exp(float64(-(dx*dx + dy*dy) / p.Radius)))
		base := target.sample(uv)
		return [4]float32{
			base[0] + falloff*p.Color[0],
			base[1] + falloff*p.Color[1],
			base[2] + falloff*p.Color[2],
			1,
		}
	}, nil
}

func (d *Device) advectKernel(p gpu.AdvectParams) (shadeFunc, error) {
	vel, err := d.own(p.Velocity)
	if err != nil {
		return nil, err
	}
	src, err := d.own(p.Source)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		v := vel.sample(uv)
		coord := gpu.Vec2{
			uv[0] - p.DT*v[0]*p.TexelSize[0],
			uv[1] - p.DT*v[1]*p.TexelSize[1],
		}
		c := src.sample(coord)
		return [4]float32{p.Dissipation * c[0], p.Dissipation * c[1], p.Dissipation * c[2], 1}
	}, nil
}

func (d *Device) divergenceKernel(p gpu.DivergenceParams) (shadeFunc, error) {
	vel, err := d.own(p.Velocity)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		vl, vr, vt, vb := neighbors(uv, p.TexelSize)
		c := vel.sample(uv)
		l := vel.sample(vl)[0]
		r := vel.sample(vr)[0]
		t := vel.sample(vt)[1]
		b := vel.sample(vb)[1]

		// Solid walls: mirror the centre velocity across the boundary.
		if vl[0] < 0 {
			l = -c[0]
		}
		if vr[0] > 1 {
			r = -c[0]
		}
		if vt[1] > 1 {
			t = -c[1]
		}
		if vb[1] < 0 {
			b = -c[1]
		}
		return [4]float32{0.5 * (r - l + t - b), 0, 0, 1}
	}, nil
}

func (d *Device) curlKernel(p gpu.CurlParams) (shadeFunc, error) {
	vel, err := d.own(p.Velocity)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		vl, vr, vt, vb := neighbors(uv, p.TexelSize)
		l := vel.sample(vl)[1]
		r := vel.sample(vr)[1]
		t := vel.sample(vt)[0]
		b := vel.sample(vb)[0]
		return [4]float32{0.5 * (r - l - t + b), 0, 0, 1}
	}, nil
}

func (d *Device) vorticityKernel(p gpu.VorticityParams) (shadeFunc, error) {
	vel, err := d.own(p.Velocity)
	if err != nil {
		return nil, err
	}
	curl, err := d.own(p.Curl)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		vl, vr, vt, vb := neighbors(uv, p.TexelSize)
		l := curl.sample(vl)[0]
		r := curl.sample(vr)[0]
		t := curl.sample(vt)[0]
		b := curl.sample(vb)[0]
		c := curl.sample(uv)[0]

		fx := 0.5 * (abs(t) - abs(b))
		fy := 0.5 * (abs(r) - abs(l))
		n := float32(math.Sqrt(float64(fx*fx+fy*fy))) + 0.0001
		fx = fx / n * p.Strength * c
		fy = -fy / n * p.Strength * c

		v := vel.sample(uv)
		return [4]float32{v[0] + fx*p.DT, v[1] + fy*p.DT, 0, 1}
	}, nil
}

func (d *Device) pressureKernel(p gpu.PressureParams) (shadeFunc, error) {
	pres, err := d.own(p.Pressure)
	if err != nil {
		return nil, err
	}
	div, err := d.own(p.Divergence)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		vl, vr, vt, vb := neighbors(uv, p.TexelSize)
		c := pres.sample(uv)[0]
		l := pres.sample(vl)[0]
		r := pres.sample(vr)[0]
		t := pres.sample(vt)[0]
		b := pres.sample(vb)[0]

		if vl[0] < 0 {
			l = -c
		}
		if vr[0] > 1 {
			r = -c
		}
		if vt[1] > 1 {
			t = -c
		}
		if vb[1] < 0 {
			b = -c
		}
		return [4]float32{(l + r + t + b - div.sample(uv)[0]) * 0.25, 0, 0, 1}
	}, nil
}

func (d *Device) gradientSubtractKernel(p gpu.GradientSubtractParams) (shadeFunc, error) {
	pres, err := d.own(p.Pressure)
	if err != nil {
		return nil, err
	}
	vel, err := d.own(p.Velocity)
	if err != nil {
		return nil, err
	}
	return func(uv, _ gpu.Vec2) [4]float32 {
		vl, vr, vt, vb := neighbors(uv, p.TexelSize)
		l := pres.sample(vl)[0]
		r := pres.sample(vr)[0]
		t := pres.sample(vt)[0]
		b := pres.sample(vb)[0]
		v := vel.sample(uv)
		return [4]float32{v[0] - (r - l), v[1] - (t - b), 0, 1}
	}, nil
}

func (d *Device) compositeKernel(p gpu.CompositeParams) (shadeFunc, error) {
	img, err := d.own(p.Image)
	if err != nil {
		return nil, fmt.Errorf("composite image: %w", err)
	}
	deform, err := d.own(p.Deform)
	if err != nil {
		return nil, fmt.Errorf("composite deform: %w", err)
	}
	atlas, err := d.own(p.PatternAtlas)
	if err != nil {
		return nil, fmt.Errorf("composite atlas: %w", err)
	}
	alt, err := d.own(p.AltPatternAtlas)
	if err != nil {
		return nil, fmt.Errorf("composite alt atlas: %w", err)
	}
	return func(_, frag gpu.Vec2) [4]float32 {
		c := pattern.ShadePixel(frag, &p, img.sample, deform.sample, atlas.sample, alt.sample)
		return [4]float32{c[0], c[1], c[2], 1}
	}, nil
}

func abs(x float32) float32 {
	if x < 0 {
		return -x
	}
	return x
}
