package rlgpu

import (
	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/gpu"
)

// texture wraps a raylib texture. Fields of every channel count are stored
// as RGBA because raylib has no two-channel pixel formats; format records
// what the caller asked for.
type texture struct {
	dev      *Device
	tex      rl.Texture2D
	format   gpu.Format
	released bool
}

func (t *texture) Width() int         { return int(t.tex.Width) }
func (t *texture) Height() int        { return int(t.tex.Height) }
func (t *texture) Format() gpu.Format { return t.format }

func (t *texture) Unload() {
	if t.released {
		return
	}
	rl.UnloadTexture(t.tex)
	t.released = true
}

type framebuffer struct {
	tex    *texture
	target rl.RenderTexture2D
}

func (f *framebuffer) Texture() gpu.Texture { return f.tex }

func (f *framebuffer) Unload() {
	if f.tex.released {
		return
	}
	rl.UnloadFramebuffer(f.target.ID)
	f.tex.Unload()
}

// pixelFormat maps a precision to the raylib RGBA storage format.
func pixelFormat(p gpu.Precision) rl.PixelFormat {
	switch p {
	case gpu.PrecisionHalf:
		return rl.UncompressedR16g16b16a16
	case gpu.PrecisionFloat:
		return rl.UncompressedR32g32b32a32
	default:
		return rl.UncompressedR8g8b8a8
	}
}

func textureFilter(f gpu.Filter) rl.TextureFilterMode {
	if f == gpu.FilterLinear {
		return rl.FilterBilinear
	}
	return rl.FilterPoint
}

func textureWrap(w gpu.Wrap) rl.TextureWrapMode {
	if w == gpu.WrapRepeat {
		return rl.WrapRepeat
	}
	return rl.WrapClamp
}
