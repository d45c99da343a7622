// Package gpu defines the device contract shared by the fluid solver and the
// pattern compositor: textures, framebuffers, per-pass programs and the
// buffer fields built from them.
//
// A Device is passed explicitly to every constructor. Nothing in this
// package or its users keeps an ambient rendering context, so several
// solvers and compositors can live side by side on one device or on
// separate devices.
package gpu

import (
	"errors"
	"fmt"
	"image"
)

// Sentinel errors returned by devices and fields.
var (
	ErrUnsupportedFormat = errors.New("gpu: unsupported texture format")
	ErrFeedbackLoop      = errors.New("gpu: pass reads and writes the same texture")
	ErrKindMismatch      = errors.New("gpu: params do not match program kind")
	ErrCompile           = errors.New("gpu: program compilation failed")
	ErrReleased          = errors.New("gpu: resource already released")
	ErrForeignResource   = errors.New("gpu: resource belongs to another device")
)

// Precision is the per-channel storage precision of a texture.
type Precision uint8

const (
	PrecisionHalf  Precision = iota // 16-bit float
	PrecisionFloat                  // 32-bit float
	PrecisionByte                   // 8-bit unsigned normalized
)

func (p Precision) String() string {
	switch p {
	case PrecisionHalf:
		return "half"
	case PrecisionFloat:
		return "float"
	case PrecisionByte:
		return "byte"
	default:
		return fmt.Sprintf("precision(%d)", uint8(p))
	}
}

// Format describes a texture's channel count and precision.
type Format struct {
	Channels  int
	Precision Precision
}

// Common formats.
var (
	FormatR16F    = Format{Channels: 1, Precision: PrecisionHalf}
	FormatRG16F   = Format{Channels: 2, Precision: PrecisionHalf}
	FormatRGBA16F = Format{Channels: 4, Precision: PrecisionHalf}
	FormatRGBA8   = Format{Channels: 4, Precision: PrecisionByte}
)

// WithPrecision returns f with its precision replaced.
func (f Format) WithPrecision(p Precision) Format {
	f.Precision = p
	return f
}

func (f Format) String() string {
	return fmt.Sprintf("%dx%s", f.Channels, f.Precision)
}

// Valid reports whether the channel count is one a device can allocate.
func (f Format) Valid() bool {
	return f.Channels >= 1 && f.Channels <= 4 && f.Precision <= PrecisionByte
}

// Filter is the texture sampling filter.
type Filter uint8

const (
	FilterNearest Filter = iota
	FilterLinear
)

// Wrap is the texture addressing mode outside [0,1].
type Wrap uint8

const (
	WrapClamp Wrap = iota
	WrapRepeat
)

// Texture is a device-resident 2-D image.
type Texture interface {
	Width() int
	Height() int
	Format() Format
}

// Framebuffer is a render target with a single color attachment.
type Framebuffer interface {
	Texture() Texture
	Unload()
}

// Program is a compiled pipeline program for one pass kind. Its uniform
// inputs are resolved when it is compiled.
type Program interface {
	Kind() PassKind
	Unload()
}

// ImageTexture is a texture uploaded from host image data.
type ImageTexture interface {
	Texture
	Unload()
}

// TextureOptions control how host images are uploaded.
type TextureOptions struct {
	Filter Filter
	Wrap   Wrap
	// FlipY uploads the image bottom row first so that v=0 addresses the
	// bottom of the picture, matching framebuffer coordinates.
	FlipY bool
}

// Device allocates resources and executes full-screen passes in
// submission order. Each Draw observes the outputs of all earlier Draws.
type Device interface {
	// NewFramebuffer allocates a zero-initialized render target.
	// Unsupported formats return an error wrapping ErrUnsupportedFormat.
	NewFramebuffer(width, height int, format Format, filter Filter) (Framebuffer, error)

	// NewTexture uploads img as an 8-bit RGBA texture.
	NewTexture(img image.Image, opts TextureOptions) (ImageTexture, error)

	// Compile builds the program for kind.
	Compile(kind PassKind) (Program, error)

	// Draw runs prog over every texel of dst, or over the display surface
	// when dst is nil. params must match prog's kind and must not sample
	// dst's texture.
	Draw(prog Program, params Params, dst Framebuffer) error

	// ReadPixels returns the texture contents as float32 values, rows
	// bottom-up, Channels values per texel.
	ReadPixels(tex Texture) ([]float32, error)

	// SurfaceSize reports the display surface size in pixels.
	SurfaceSize() (width, height int)

	// Resize changes the display surface size. Framebuffers are untouched.
	Resize(width, height int)
}

// CheckDraw validates the common Draw preconditions: matching kinds and
// no input aliasing the destination.
func CheckDraw(prog Program, params Params, dst Framebuffer) error {
	if prog == nil || params == nil {
		return fmt.Errorf("gpu: nil program or params: %w", ErrKindMismatch)
	}
	if prog.Kind() != params.Kind() {
		return fmt.Errorf("gpu: program %s given %s params: %w", prog.Kind(), params.Kind(), ErrKindMismatch)
	}
	if dst == nil {
		return nil
	}
	out := dst.Texture()
	for _, in := range params.Inputs() {
		if in != nil && in == out {
			return fmt.Errorf("gpu: %s pass: %w", prog.Kind(), ErrFeedbackLoop)
		}
	}
	return nil
}

// TexelSize returns the UV size of one texel of t.
func TexelSize(t Texture) Vec2 {
	return Vec2{1 / float32(t.Width()), 1 / float32(t.Height())}
}
