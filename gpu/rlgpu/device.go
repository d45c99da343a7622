// Package rlgpu implements gpu.Device on raylib's OpenGL context. Every
// pass is a GLSL 330 fragment shader drawn over a full-target rectangle.
//
// Raylib is single-threaded: the window must be open before New, and every
// method must be called from the goroutine that owns it.
package rlgpu

import (
	"errors"
	"fmt"
	"image"
	"log/slog"
	"unsafe"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/gpu"
)

// GL blend constants for a replace-only blend.
const (
	glZero    = 0
	glOne     = 1
	glFuncAdd = 0x8006
)

// ErrNoWindow is returned by New before the raylib window is open.
var ErrNoWindow = errors.New("rlgpu: raylib window not initialized")

// Device is a raylib-backed gpu.Device.
type Device struct {
	width, height int
	logger        *slog.Logger
	draws         uint64
}

var _ gpu.Device = (*Device)(nil)

// Option configures a Device.
type Option func(*Device)

// WithLogger sets the device logger.
func WithLogger(l *slog.Logger) Option {
	return func(d *Device) { d.logger = l }
}

// New creates a device drawing to the current window's render surface.
func New(opts ...Option) (*Device, error) {
	if !rl.IsWindowReady() {
		return nil, ErrNoWindow
	}
	d := &Device{
		width:  rl.GetRenderWidth(),
		height: rl.GetRenderHeight(),
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// NewFramebuffer allocates a zero-filled float or byte render target.
// Drivers that cannot render to the format report ErrUnsupportedFormat.
func (d *Device) NewFramebuffer(width, height int, format gpu.Format, filter gpu.Filter) (gpu.Framebuffer, error) {
	if !format.Valid() {
		return nil, fmt.Errorf("rlgpu: framebuffer %s: %w", format, gpu.ErrUnsupportedFormat)
	}
	if width <= 0 || height <= 0 {
		return nil, fmt.Errorf("rlgpu: framebuffer size %dx%d", width, height)
	}

	img := rl.GenImageColor(width, height, rl.Blank)
	rl.ImageFormat(img, pixelFormat(format.Precision))
	tex := rl.LoadTextureFromImage(img)
	rl.UnloadImage(img)
	if tex.ID == 0 {
		return nil, fmt.Errorf("rlgpu: texture %dx%d %s: %w", width, height, format, gpu.ErrUnsupportedFormat)
	}
	rl.SetTextureFilter(tex, textureFilter(filter))
	rl.SetTextureWrap(tex, rl.WrapClamp)

	fbo := rl.LoadFramebuffer()
	rl.FramebufferAttach(fbo, tex.ID, rl.AttachmentColorChannel0, rl.AttachmentTexture2d, 0)
	if !rl.FramebufferComplete(fbo) {
		rl.UnloadFramebuffer(fbo)
		rl.UnloadTexture(tex)
		return nil, fmt.Errorf("rlgpu: framebuffer %dx%d %s incomplete: %w", width, height, format, gpu.ErrUnsupportedFormat)
	}

	t := &texture{dev: d, tex: tex, format: format}
	return &framebuffer{
		tex:    t,
		target: rl.RenderTexture2D{ID: fbo, Texture: tex},
	}, nil
}

// NewTexture uploads img as an RGBA8 texture.
func (d *Device) NewTexture(img image.Image, opts gpu.TextureOptions) (gpu.ImageTexture, error) {
	if img == nil {
		return nil, fmt.Errorf("rlgpu: nil image")
	}
	if img.Bounds().Empty() {
		return nil, fmt.Errorf("rlgpu: empty image %v", img.Bounds())
	}

	rimg := rl.NewImageFromImage(img)
	defer rl.UnloadImage(rimg)
	rl.ImageFormat(rimg, rl.UncompressedR8g8b8a8)
	if opts.FlipY {
		rl.ImageFlipVertical(rimg)
	}
	tex := rl.LoadTextureFromImage(rimg)
	if tex.ID == 0 {
		return nil, fmt.Errorf("rlgpu: upload %v image failed", img.Bounds())
	}
	rl.SetTextureFilter(tex, textureFilter(opts.Filter))
	rl.SetTextureWrap(tex, textureWrap(opts.Wrap))
	return &texture{dev: d, tex: tex, format: gpu.FormatRGBA8}, nil
}

// Compile builds the shader for kind and resolves its uniforms.
func (d *Device) Compile(kind gpu.PassKind) (gpu.Program, error) {
	src, err := fragmentSource(kind)
	if err != nil {
		return nil, err
	}
	shader := rl.LoadShaderFromMemory("", src)

	u, names, err := resolveUniforms(kind, func(name string) int32 {
		return rl.GetShaderLocation(shader, name)
	})
	if err != nil {
		rl.UnloadShader(shader)
		return nil, err
	}
	p := &program{dev: d, kind: kind, shader: shader, uniforms: u}
	d.logger.Debug("shader compiled", "pass", kind.String(), "uniforms", len(names))
	return p, nil
}

// Draw runs prog over dst, or over the window surface when dst is nil.
// Surface draws must happen between rl.BeginDrawing and rl.EndDrawing.
func (d *Device) Draw(prog gpu.Program, params gpu.Params, dst gpu.Framebuffer) error {
	if err := gpu.CheckDraw(prog, params, dst); err != nil {
		return err
	}
	p, ok := prog.(*program)
	if !ok || p.dev != d {
		return fmt.Errorf("rlgpu: program %T: %w", prog, gpu.ErrForeignResource)
	}
	if p.released {
		return fmt.Errorf("rlgpu: %s program: %w", p.kind, gpu.ErrReleased)
	}

	w, h := d.width, d.height
	var fb *framebuffer
	if dst != nil {
		f, ok := dst.(*framebuffer)
		if !ok || f.tex.dev != d {
			return fmt.Errorf("rlgpu: framebuffer %T: %w", dst, gpu.ErrForeignResource)
		}
		if f.tex.released {
			return fmt.Errorf("rlgpu: framebuffer: %w", gpu.ErrReleased)
		}
		fb = f
		w, h = f.tex.Width(), f.tex.Height()
	}

	if fb != nil {
		rl.BeginTextureMode(fb.target)
	}
	rl.SetBlendFactors(glOne, glZero, glFuncAdd)
	rl.BeginBlendMode(rl.BlendCustom)
	rl.BeginShaderMode(p.shader)

	b := binder{prog: p}
	err := b.bind(params, gpu.Vec2{float32(w), float32(h)})
	if err == nil {
		rl.DrawRectangle(0, 0, int32(w), int32(h), rl.White)
	}

	rl.EndShaderMode()
	rl.EndBlendMode()
	if fb != nil {
		rl.EndTextureMode()
	}
	if err != nil {
		return err
	}
	d.draws++
	return nil
}

// ReadPixels reads a texture back as float32 RGBA converted to the
// texture's channel count, rows bottom-up.
func (d *Device) ReadPixels(tex gpu.Texture) ([]float32, error) {
	t, err := d.own(tex)
	if err != nil {
		return nil, err
	}
	img := rl.LoadImageFromTexture(t.tex)
	defer rl.UnloadImage(img)
	rl.ImageFormat(img, rl.UncompressedR32g32b32a32)

	n := int(img.Width) * int(img.Height)
	rgba := unsafe.Slice((*float32)(img.Data), n*4)
	ch := t.format.Channels
	out := make([]float32, n*ch)
	for i := 0; i < n; i++ {
		copy(out[i*ch:(i+1)*ch], rgba[i*4:i*4+ch])
	}
	return out, nil
}

// SurfaceSize reports the window render size.
func (d *Device) SurfaceSize() (int, int) { return d.width, d.height }

// Resize records a new surface size. Framebuffers are not affected.
func (d *Device) Resize(width, height int) {
	if width == d.width && height == d.height {
		return
	}
	d.width, d.height = width, height
	d.logger.Debug("surface resized", "width", width, "height", height)
}

// Draws returns how many passes have executed.
func (d *Device) Draws() uint64 { return d.draws }

// own resolves a texture created by this device.
func (d *Device) own(tex gpu.Texture) (*texture, error) {
	t, ok := tex.(*texture)
	if !ok || t.dev != d {
		return nil, fmt.Errorf("rlgpu: texture %T: %w", tex, gpu.ErrForeignResource)
	}
	if t.released {
		return nil, fmt.Errorf("rlgpu: texture: %w", gpu.ErrReleased)
	}
	return t, nil
}
