// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package fbstack

// Shader is a handle to an externally owned shader program, carrying the
// dynamic sampler-binding table that connects target attachments to
// sampler uniforms. fbstack does not compile or own shader code; the
// embedding renderer resolves recorded bindings when it issues draws.
type Shader struct {
	name     string
	samplers map[string]Texture
}

// NewShader creates a shader handle with an empty binding table.
func NewShader(name string) *Shader {
	return &Shader{
		name:     name,
		samplers: make(map[string]Texture),
	}
}

// Name returns the shader's debug name.
func (sh *Shader) Name() string { return sh.name }

// SamplerBinding returns the texture recorded for a sampler uniform.
func (sh *Shader) SamplerBinding(uniform string) (Texture, bool) {
	tex, ok := sh.samplers[uniform]
	return tex, ok
}

// SamplerBindings returns a copy of the full binding table.
func (sh *Shader) SamplerBindings() map[string]Texture {
	out := make(map[string]Texture, len(sh.samplers))
	for k, v := range sh.samplers {
		out[k] = v
	}
	return out
}

// setSampler records a uniform-to-texture binding. Called by
// Target.BindTextures; a later binding for the same uniform replaces the
// earlier one.
func (sh *Shader) setSampler(uniform string, tex Texture) {
	sh.samplers[uniform] = tex
}
