//go:build !nogpu

package gpu

import (
	"strings"
	"testing"

	"github.com/gogpu/naga"
)

func TestShaderSourcesCompile(t *testing.T) {
	for _, k := range []ShaderKind{ShaderFlat, ShaderTextured} {
		t.Run(k.String(), func(t *testing.T) {
			src := ShaderSource(k)
			if src == "" {
				t.Fatal("shader source is empty")
			}
			spirv, err := naga.Compile(src)
			if err != nil {
				t.Fatalf("naga.Compile: %v", err)
			}
			if len(spirv) == 0 || len(spirv)%4 != 0 {
				t.Errorf("SPIR-V length = %d, want non-zero multiple of 4", len(spirv))
			}
		})
	}
}

func TestCompileSPIRVMagic(t *testing.T) {
	words, err := compileSPIRV(ShaderSource(ShaderFlat))
	if err != nil {
		t.Fatal(err)
	}
	const spirvMagic = 0x07230203
	if len(words) == 0 || words[0] != spirvMagic {
		t.Errorf("first word = %#x, want SPIR-V magic %#x", words[0], spirvMagic)
	}
}

func TestTexturedShaderReplacesAlpha(t *testing.T) {
	src := ShaderSource(ShaderTextured)
	for _, want := range []string{
		"uniforms.projection * uniforms.model_view",
		"vec4<f32>(texel.rgb, uniforms.color.a)",
	} {
		if !strings.Contains(src, want) {
			t.Errorf("textured shader missing %q", want)
		}
	}
	if strings.Contains(ShaderSource(ShaderFlat), "model_view") {
		t.Error("flat shader should not use the model-view matrix")
	}
}

func TestShaderKindString(t *testing.T) {
	if ShaderFlat.String() != "flat_color" || ShaderTextured.String() != "textured_alpha" {
		t.Errorf("names = %q, %q", ShaderFlat, ShaderTextured)
	}
	if ShaderKind(9).String() != "ShaderKind(9)" {
		t.Errorf("ShaderKind(9).String() = %q", ShaderKind(9).String())
	}
}

func TestBindLayoutEntries(t *testing.T) {
	if n := len(bindLayoutEntries(ShaderFlat)); n != 1 {
		t.Errorf("flat bind entries = %d, want 1", n)
	}
	entries := bindLayoutEntries(ShaderTextured)
	if len(entries) != 3 {
		t.Fatalf("textured bind entries = %d, want 3", len(entries))
	}
	if entries[1].Texture == nil || entries[2].Sampler == nil {
		t.Error("textured layout missing texture or sampler binding")
	}
}
