// Package soft is a CPU implementation of gpu.Device. It runs every pass as
// a Go kernel with the same texel conventions as the GLSL programs, which
// makes it usable for headless rendering and deterministic tests.
package soft

import (
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"runtime"

	"github.com/pthm-cable/dotfield/gpu"
)

// Device is a software gpu.Device.
type Device struct {
	surface     *texture
	workers     int
	unsupported map[gpu.Precision]bool
	logger      *slog.Logger

	draws uint64
}

var _ gpu.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithWorkers sets how many goroutines split one pass by rows. Values below
// 1 run passes on the calling goroutine.
func WithWorkers(n int) Option {
	return func(d *Device) { d.workers = n }
}

// WithUnsupported makes the device reject framebuffers of the given
// precisions, emulating hardware without float render targets.
func WithUnsupported(ps ...gpu.Precision) Option {
	return func(d *Device) {
		for _, p := range ps {
			d.unsupported[p] = true
		}
	}
}

// WithLogger sets the device logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// New creates a device with a width×height display surface.
func New(width, height int, opts ...Option) *Device {
	d := &Device{
		workers:     runtime.GOMAXPROCS(0),
		unsupported: make(map[gpu.Precision]bool),
		logger:      slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	d.surface = newTexture(d, width, height, gpu.FormatRGBA8, gpu.FilterNearest, gpu.WrapClamp)
	return d
}

// NewFramebuffer allocates a zero-filled render target.
func (d *Device) NewFramebuffer(width, height int, format gpu.Format, filter gpu.Filter) (gpu.Framebuffer, error) {
	if !format.Valid() || d.unsupported[format.Precision] {
		return nil, fmt.Errorf("soft: framebuffer %dx%d %s: %w", width, height, format, gpu.ErrUnsupportedFormat)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("soft: framebuffer size %dx%d", width, height)
	}
	return &framebuffer{tex: newTexture(d, width, height, format, filter, gpu.WrapClamp)}, nil
}

// NewTexture uploads img as an 8-bit RGBA texture.
func (d *Device) NewTexture(img image.Image, opts gpu.TextureOptions) (gpu.ImageTexture, error) {
	if img == nil {
		return nil, fmt.Errorf("soft: nil image")
	}
	b := img.Bounds()
	if b.Empty() {
		return nil, fmt.Errorf("soft: empty image %v", b)
	}

	rgba := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, b.Min, draw.Src)

	t := newTexture(d, b.Dx(), b.Dy(), gpu.FormatRGBA8, opts.Filter, opts.Wrap)
	for y := 0; y < t.h; y++ {
		row := y
		if opts.FlipY {
			row = t.h - 1 - y
		}
		for x := 0; x < t.w; x++ {
			c := rgba.NRGBAAt(x, row)
			t.store(x, y, [4]float32{
				float32(c.R) / 255,
				float32(c.G) / 255,
				float32(c.B) / 255,
				float32(c.A) / 255,
			})
		}
	}
	return t, nil
}

// Compile returns the kernel program for kind.
func (d *Device) Compile(kind gpu.PassKind) (gpu.Program, error) {
	if kind >= gpu.NumPasses {
		return nil, fmt.Errorf("soft: %s: %w", kind, gpu.ErrCompile)
	}
	return &program{dev: d, kind: kind}, nil
}

// Draw executes prog over dst, or over the surface when dst is nil.
func (d *Device) Draw(prog gpu.Program, params gpu.Params, dst gpu.Framebuffer) error {
	if err := gpu.CheckDraw(prog, params, dst); err != nil {
		return err
	}
	p, ok := prog.(*program)
	if !ok || p.dev != d {
		return fmt.Errorf("soft: program %T: %w", prog, gpu.ErrForeignResource)
	}
	if p.released {
		return fmt.Errorf("soft: %s program: %w", p.kind, gpu.ErrReleased)
	}

	target := d.surface
	if dst != nil {
		t, err := d.own(dst.Texture())
		if err != nil {
			return err
		}
		target = t
	}

	shade, err := d.kernel(params)
	if err != nil {
		return err
	}
	d.run(target, shade)
	d.draws++
	return nil
}

// ReadPixels copies a texture's contents.
func (d *Device) ReadPixels(tex gpu.Texture) ([]float32, error) {
	t, err := d.own(tex)
	if err != nil {
		return nil, err
	}
	out := make([]float32, len(t.data))
	copy(out, t.data)
	return out, nil
}

// SurfaceSize reports the surface dimensions.
func (d *Device) SurfaceSize() (int, int) { return d.surface.w, d.surface.h }

// Resize reallocates the surface. Framebuffers are not affected.
func (d *Device) Resize(width, height int) {
	if width == d.surface.w && height == d.surface.h {
		return
	}
	d.surface = newTexture(d, width, height, gpu.FormatRGBA8, gpu.FilterNearest, gpu.WrapClamp)
	d.logger.Debug("soft surface resized", "width", width, "height", height)
}

// Surface returns the display surface as a texture.
func (d *Device) Surface() gpu.Texture { return d.surface }

// Draws returns how many passes have executed.
func (d *Device) Draws() uint64 { return d.draws }

// Snapshot returns the surface as an image with the top row first.
func (d *Device) Snapshot() *image.RGBA {
	s := d.surface
	img := image.NewRGBA(image.Rect(0, 0, s.w, s.h))
	for y := 0; y < s.h; y++ {
		for x := 0; x < s.w; x++ {
			c := s.fetch(x, y)
			img.SetRGBA(x, s.h-1-y, color.RGBA{
				R: to8(c[0]),
				G: to8(c[1]),
				B: to8(c[2]),
				A: 255,
			})
		}
	}
	return img
}

func to8(v float32) uint8 {
	return uint8(quantize(v, gpu.PrecisionByte)*255 + 0.5)
}

type program struct {
	dev      *Device
	kind     gpu.PassKind
	released bool
}

func (p *program) Kind() gpu.PassKind { return p.kind }
func (p *program) Unload()            { p.released = true }
