package soft

import (
	"fmt"
	"math"

	"github.com/pthm-cable/dotfield/gpu"
)

// texture stores texels as float32, Channels values per texel, row 0 at the
// bottom (v = 0).
type texture struct {
	dev      *Device
	w, h     int
	format   gpu.Format
	filter   gpu.Filter
	wrap     gpu.Wrap
	data     []float32
	released bool
}

func newTexture(dev *Device, w, h int, format gpu.Format, filter gpu.Filter, wrap gpu.Wrap) *texture {
	return &texture{
		dev:    dev,
		w:      w,
		h:      h,
		format: format,
		filter: filter,
		wrap:   wrap,
		data:   make([]float32, w*h*format.Channels),
	}
}

func (t *texture) Width() int         { return t.w }
func (t *texture) Height() int        { return t.h }
func (t *texture) Format() gpu.Format { return t.format }

func (t *texture) Unload() {
	t.released = true
	t.data = nil
}

func (t *texture) index(i, n int) int {
	if t.wrap == gpu.WrapRepeat {
		return ((i % n) + n) % n
	}
	return min(max(i, 0), n-1)
}

// fetch returns the texel at integer coordinates after wrapping. Missing
// channels read as 0 and a missing alpha reads as 1.
func (t *texture) fetch(x, y int) [4]float32 {
	x = t.index(x, t.w)
	y = t.index(y, t.h)
	ch := t.format.Channels
	off := (y*t.w + x) * ch
	out := [4]float32{0, 0, 0, 1}
	copy(out[:ch], t.data[off:off+ch])
	return out
}

// sample follows GL texel-centre conventions.
func (t *texture) sample(uv gpu.Vec2) [4]float32 {
	if t.filter == gpu.FilterNearest {
		x := int(math.Floor(float64(uv[0] * float32(t.w))))
		y := int(math.Floor(float64(uv[1] * float32(t.h))))
		return t.fetch(x, y)
	}

	fx := uv[0]*float32(t.w) - 0.5
	fy := uv[1]*float32(t.h) - 0.5
	x0 := int(math.Floor(float64(fx)))
	y0 := int(math.Floor(float64(fy)))
	ax := fx - float32(x0)
	ay := fy - float32(y0)

	c00 := t.fetch(x0, y0)
	c10 := t.fetch(x0+1, y0)
	c01 := t.fetch(x0, y0+1)
	c11 := t.fetch(x0+1, y0+1)

	var out [4]float32
	for i := range out {
		a := c00[i] + (c10[i]-c00[i])*ax
		b := c01[i] + (c11[i]-c01[i])*ax
		out[i] = a + (b-a)*ay
	}
	return out
}

// store writes v at (x, y), applying the storage precision.
func (t *texture) store(x, y int, v [4]float32) {
	ch := t.format.Channels
	off := (y*t.w + x) * ch
	for i := 0; i < ch; i++ {
		t.data[off+i] = quantize(v[i], t.format.Precision)
	}
}

func quantize(v float32, p gpu.Precision) float32 {
	if p != gpu.PrecisionByte {
		return v
	}
	if v <= 0 {
		return 0
	}
	if v >= 1 {
		return 1
	}
	return float32(math.Round(float64(v*255))) / 255
}

type framebuffer struct {
	tex *texture
}

func (f *framebuffer) Texture() gpu.Texture { return f.tex }

func (f *framebuffer) Unload() { f.tex.Unload() }

// own resolves a gpu.Texture to one of dev's textures.
func (d *Device) own(t gpu.Texture) (*texture, error) {
	st, ok := t.(*texture)
	if !ok || st.dev != d {
		return nil, fmt.Errorf("soft: texture %T: %w", t, gpu.ErrForeignResource)
	}
	if st.released {
		return nil, fmt.Errorf("soft: texture: %w", gpu.ErrReleased)
	}
	return st, nil
}
