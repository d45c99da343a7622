package rlgpu

import (
	"fmt"

	rl "github.com/gen2brain/raylib-go/raylib"

	"github.com/pthm-cable/dotfield/gpu"
)

type program struct {
	dev      *Device
	kind     gpu.PassKind
	shader   rl.Shader
	uniforms uniforms
	released bool
}

func (p *program) Kind() gpu.PassKind { return p.kind }

func (p *program) Unload() {
	if p.released {
		return
	}
	rl.UnloadShader(p.shader)
	p.released = true
}

// binder sets uniforms on the active shader. It must be used between
// BeginShaderMode and the draw call so sampler bindings survive the batch
// flush.
type binder struct {
	prog *program
}

func (b binder) float(loc int32, v float32) {
	rl.SetShaderValue(b.prog.shader, loc, []float32{v}, rl.ShaderUniformFloat)
}

func (b binder) flag(loc int32, v bool) {
	if v {
		b.float(loc, 1)
		return
	}
	b.float(loc, 0)
}

func (b binder) vec2(loc int32, v gpu.Vec2) {
	rl.SetShaderValue(b.prog.shader, loc, v[:], rl.ShaderUniformVec2)
}

func (b binder) vec3(loc int32, v gpu.Vec3) {
	rl.SetShaderValue(b.prog.shader, loc, v[:], rl.ShaderUniformVec3)
}

func (b binder) texture(loc int32, tex gpu.Texture) error {
	t, err := b.prog.dev.own(tex)
	if err != nil {
		return fmt.Errorf("%s sampler: %w", b.prog.kind, err)
	}
	rl.SetShaderValueTexture(b.prog.shader, loc, t.tex)
	return nil
}

// bind uploads params for a draw onto a target of size pixels.
func (b binder) bind(params gpu.Params, size gpu.Vec2) error {
	return b.prog.uniforms.bind(b, params, size)
}
