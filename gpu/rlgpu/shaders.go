package rlgpu

import (
	"embed"
	"fmt"

	"github.com/pthm-cable/dotfield/gpu"
)

//go:embed shaders/*.fs
var shaderFS embed.FS

// fragmentSource returns the GLSL fragment shader of kind.
func fragmentSource(kind gpu.PassKind) (string, error) {
	if kind >= gpu.NumPasses {
		return "", fmt.Errorf("rlgpu: %s: %w", kind, gpu.ErrCompile)
	}
	src, err := shaderFS.ReadFile("shaders/" + kind.String() + ".fs")
	if err != nil {
		return "", fmt.Errorf("rlgpu: %s source: %w", kind, err)
	}
	return string(src), nil
}
