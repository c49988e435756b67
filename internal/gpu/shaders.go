//go:build !nogpu

package gpu

import (
	_ "embed"
	"fmt"

	"github.com/gogpu/naga"
	"github.com/gogpu/wgpu/hal"
)

// Embedded WGSL shader sources.

//go:embed shaders/flat_color.wgsl
var flatShaderSource string

//go:embed shaders/textured_alpha.wgsl
var texturedShaderSource string

// ShaderKind selects one of the two overlay shader programs.
type ShaderKind uint8

const (
	// ShaderFlat fills with the batch color. Uniforms: color.
	ShaderFlat ShaderKind = iota

	// ShaderTextured samples texture unit 0 and replaces alpha with the
	// batch color alpha. Uniforms: model-view, projection, color.
	ShaderTextured
)

// String returns the shader name used in labels and logs.
func (k ShaderKind) String() string {
	switch k {
	case ShaderFlat:
		return "flat_color"
	case ShaderTextured:
		return "textured_alpha"
	default:
		return fmt.Sprintf("ShaderKind(%d)", k)
	}
}

// ShaderSource returns the WGSL source for the given shader.
func ShaderSource(k ShaderKind) string {
	if k == ShaderTextured {
		return texturedShaderSource
	}
	return flatShaderSource
}

// compileSPIRV compiles WGSL source to SPIR-V words.
func compileSPIRV(wgsl string) ([]uint32, error) {
	spirvBytes, err := naga.Compile(wgsl)
	if err != nil {
		return nil, fmt.Errorf("compile shader: %w", err)
	}

	// SPIR-V is little-endian 32-bit words.
	words := make([]uint32, len(spirvBytes)/4)
	for i := range words {
		words[i] = uint32(spirvBytes[i*4]) |
			uint32(spirvBytes[i*4+1])<<8 |
			uint32(spirvBytes[i*4+2])<<16 |
			uint32(spirvBytes[i*4+3])<<24
	}
	return words, nil
}

// shaderModuleSource returns the module source for k, pre-compiled to
// SPIR-V when spirv is set.
func shaderModuleSource(k ShaderKind, spirv bool) (hal.ShaderSource, error) {
	src := ShaderSource(k)
	if src == "" {
		return hal.ShaderSource{}, fmt.Errorf("%s shader source is empty", k)
	}
	if !spirv {
		return hal.ShaderSource{WGSL: src}, nil
	}
	words, err := compileSPIRV(src)
	if err != nil {
		return hal.ShaderSource{}, fmt.Errorf("%s: %w", k, err)
	}
	return hal.ShaderSource{SPIRV: words}, nil
}
