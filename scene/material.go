package scene

import (
	"backdrop-engine/core"
	"backdrop-engine/shader"
)

// Side selects which triangle faces are rasterized.
type Side int

const (
	FrontSide Side = iota
	BackSide
	DoubleSide
)

// Material describes surface appearance properties for a mesh.
//
// A material with a Program is a shader material: the backend runs the
// program with Uniforms and ignores the standard fields. Otherwise it is a
// metallic/roughness standard material lit by the environment map.
type Material struct {
	Name string

	Color     core.Color // base color (multiplied with Map if set)
	Map       *Texture
	Metalness float32 // 0 = dielectric, 1 = fully metallic
	Roughness float32 // 0 = mirror, 1 = fully rough
	Emissive  core.Color

	// EnvMap overrides Scene.Environment for reflections.
	EnvMap          *Texture
	EnvMapIntensity float32

	Unlit bool // output raw color/texture, no environment term

	Side       Side
	DepthTest  bool
	DepthWrite bool

	Program  *shader.Program
	Uniforms shader.Uniforms
}

var defaultMaterial = DefaultMaterial()

// DefaultMaterial returns a plain white rough dielectric.
func DefaultMaterial() *Material {
	return &Material{
		Name:            "Default",
		Color:           core.ColorWhite,
		Roughness:       1,
		EnvMapIntensity: 1,
		DepthTest:       true,
		DepthWrite:      true,
	}
}

// NewStandardMaterial creates a material with the given color, metalness and roughness.
func NewStandardMaterial(name string, color core.Color, metalness, roughness float32) *Material {
	m := DefaultMaterial()
	m.Name = name
	m.Color = color
	m.Metalness = metalness
	m.Roughness = roughness
	return m
}

// NewShaderMaterial binds a program and its uniform set.
func NewShaderMaterial(name string, program *shader.Program, uniforms shader.Uniforms) *Material {
	if uniforms == nil {
		uniforms = shader.Uniforms{}
	}
	return &Material{
		Name:       name,
		Color:      core.ColorWhite,
		Program:    program,
		Uniforms:   uniforms,
		DepthTest:  true,
		DepthWrite: true,
	}
}

func (m *Material) IsShader() bool {
	return m.Program != nil
}
