// Package shaders holds the GLSL sources of every program the library
// builds, together with the inputs each stage declares.
package shaders

import (
	"github.com/go-gl/mathgl/mgl32"

	"sciviz/render"
)

// ── Shared declarations ──────────────────────────────────────────────────────

var transformUniforms = []render.ShaderSpecUniform{
	{Name: "u_modelView", Type: render.TypeMatrix44Float},
	{Name: "u_projMatrix", Type: render.TypeMatrix44Float},
}

func uniforms(groups ...[]render.ShaderSpecUniform) []render.ShaderSpecUniform {
	var out []render.ShaderSpecUniform
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

func attributes(groups ...[]render.ShaderSpecAttribute) []render.ShaderSpecAttribute {
	var out []render.ShaderSpecAttribute
	for _, g := range groups {
		out = append(out, g...)
	}
	return out
}

// matcap lighting: view-space normal indexes a 2D matcap texture
const matcapGLSL = `
vec3 lightSurfaceMat(vec3 normal, vec3 color, sampler2D t_matcap) {
    vec2 uv = normalize(normal).xy * 0.49 + 0.5;
    vec3 shade = texture(t_matcap, uv).rgb;
    return shade * color;
}
`

// barycentric edge blend; width is in screen-space derivative units
const edgeGLSL = `
float edgeFactor(vec3 bary, float width) {
    if (width <= 0.0) return 0.0;
    vec3 d = fwidth(bary);
    vec3 a = smoothstep(vec3(0.0), d * width, bary);
    return 1.0 - min(min(a.x, a.y), a.z);
}
`

// ── Surface mesh ─────────────────────────────────────────────────────────────

const meshVertSrc = `
#version 410 core
in vec3 a_position;
in vec3 a_normal;
in vec3 a_barycoord;

uniform mat4 u_modelView;
uniform mat4 u_projMatrix;

out vec3 v_normal;
out vec3 v_barycoord;

void main() {
    gl_Position = u_projMatrix * u_modelView * vec4(a_position, 1.0);
    v_normal    = mat3(u_modelView) * a_normal;
    v_barycoord = a_barycoord;
}
` + "\x00"

const meshFragSrc = `
#version 410 core
in vec3 v_normal;
in vec3 v_barycoord;

uniform vec3  u_baseColor;
uniform vec3  u_edgeColor;
uniform float u_edgeWidth;
uniform sampler2D t_matcap;

out vec4 outColor;
` + matcapGLSL + edgeGLSL + `
void main() {
    vec3 color = mix(u_baseColor, u_edgeColor, edgeFactor(v_barycoord, u_edgeWidth));
    outColor = vec4(lightSurfaceMat(v_normal, color, t_matcap), 1.0);
}
` + "\x00"

var meshAttributes = []render.ShaderSpecAttribute{
	{Name: "a_position", Type: render.TypeVector3Float},
	{Name: "a_normal", Type: render.TypeVector3Float},
	{Name: "a_barycoord", Type: render.TypeVector3Float},
}

var edgeUniforms = []render.ShaderSpecUniform{
	{Name: "u_edgeColor", Type: render.TypeVector3Float},
	{Name: "u_edgeWidth", Type: render.TypeFloat},
}

var matcapTexture = render.ShaderSpecTexture{Name: "t_matcap", Dim: 2}

// MeshSurface shades a triangle soup with one base color.
func MeshSurface() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:      render.StageVertex,
			Uniforms:   uniforms(transformUniforms),
			Attributes: attributes(meshAttributes),
			Src:        meshVertSrc,
		},
		{
			Stage: render.StageFragment,
			Uniforms: uniforms(edgeUniforms, []render.ShaderSpecUniform{
				{Name: "u_baseColor", Type: render.TypeVector3Float},
			}),
			Textures: []render.ShaderSpecTexture{matcapTexture},
			Src:      meshFragSrc,
		},
	}
}

const meshColorVertSrc = `
#version 410 core
in vec3 a_position;
in vec3 a_normal;
in vec3 a_barycoord;
in vec3 a_color;

uniform mat4 u_modelView;
uniform mat4 u_projMatrix;

out vec3 v_normal;
out vec3 v_barycoord;
out vec3 v_color;

void main() {
    gl_Position = u_projMatrix * u_modelView * vec4(a_position, 1.0);
    v_normal    = mat3(u_modelView) * a_normal;
    v_barycoord = a_barycoord;
    v_color     = a_color;
}
` + "\x00"

const meshColorFragSrc = `
#version 410 core
in vec3 v_normal;
in vec3 v_barycoord;
in vec3 v_color;

uniform vec3  u_edgeColor;
uniform float u_edgeWidth;
uniform sampler2D t_matcap;

out vec4 outColor;
` + matcapGLSL + edgeGLSL + `
void main() {
    vec3 color = mix(v_color, u_edgeColor, edgeFactor(v_barycoord, u_edgeWidth));
    outColor = vec4(lightSurfaceMat(v_normal, color, t_matcap), 1.0);
}
` + "\x00"

// MeshColor shades a triangle soup with a per-corner color.
func MeshColor() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:    render.StageVertex,
			Uniforms: uniforms(transformUniforms),
			Attributes: attributes(meshAttributes, []render.ShaderSpecAttribute{
				{Name: "a_color", Type: render.TypeVector3Float},
			}),
			Src: meshColorVertSrc,
		},
		{
			Stage:    render.StageFragment,
			Uniforms: uniforms(edgeUniforms),
			Textures: []render.ShaderSpecTexture{matcapTexture},
			Src:      meshColorFragSrc,
		},
	}
}

const meshScalarVertSrc = `
#version 410 core
in vec3  a_position;
in vec3  a_normal;
in vec3  a_barycoord;
in float a_value;

uniform mat4 u_modelView;
uniform mat4 u_projMatrix;

out vec3  v_normal;
out vec3  v_barycoord;
out float v_value;

void main() {
    gl_Position = u_projMatrix * u_modelView * vec4(a_position, 1.0);
    v_normal    = mat3(u_modelView) * a_normal;
    v_barycoord = a_barycoord;
    v_value     = a_value;
}
` + "\x00"

const meshScalarFragSrc = `
#version 410 core
in vec3  v_normal;
in vec3  v_barycoord;
in float v_value;

uniform float u_rangeLow;
uniform float u_rangeHigh;
uniform vec3  u_edgeColor;
uniform float u_edgeWidth;
uniform sampler1D t_colormap;
uniform sampler2D t_matcap;

out vec4 outColor;
` + matcapGLSL + edgeGLSL + `
void main() {
    float t = clamp((v_value - u_rangeLow) / max(u_rangeHigh - u_rangeLow, 1e-12), 0.0, 1.0);
    vec3 color = texture(t_colormap, t).rgb;
    color = mix(color, u_edgeColor, edgeFactor(v_barycoord, u_edgeWidth));
    outColor = vec4(lightSurfaceMat(v_normal, color, t_matcap), 1.0);
}
` + "\x00"

var rangeUniforms = []render.ShaderSpecUniform{
	{Name: "u_rangeLow", Type: render.TypeFloat},
	{Name: "u_rangeHigh", Type: render.TypeFloat},
}

var colormapTexture = render.ShaderSpecTexture{Name: "t_colormap", Dim: 1}

// MeshScalar shades a triangle soup by a per-corner scalar through a
// colormap.
func MeshScalar() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:    render.StageVertex,
			Uniforms: uniforms(transformUniforms),
			Attributes: attributes(meshAttributes, []render.ShaderSpecAttribute{
				{Name: "a_value", Type: render.TypeFloat},
			}),
			Src: meshScalarVertSrc,
		},
		{
			Stage:    render.StageFragment,
			Uniforms: uniforms(rangeUniforms, edgeUniforms),
			Textures: []render.ShaderSpecTexture{colormapTexture, matcapTexture},
			Src:      meshScalarFragSrc,
		},
	}
}

// ── Point cloud ──────────────────────────────────────────────────────────────

// points are drawn as screen-aligned sphere impostors
const pointVertSrc = `
#version 410 core
in vec3 a_position;

uniform mat4  u_modelView;
uniform mat4  u_projMatrix;
uniform float u_pointRadius;
uniform float u_viewportHeight;

void main() {
    vec4 viewPos = u_modelView * vec4(a_position, 1.0);
    gl_Position  = u_projMatrix * viewPos;
    gl_PointSize = max(1.0, u_viewportHeight * u_projMatrix[1][1] * u_pointRadius / -viewPos.z);
}
` + "\x00"

const sphereImpostorGLSL = `
vec3 sphereNormal() {
    vec2 c = gl_PointCoord * 2.0 - 1.0;
    float r2 = dot(c, c);
    if (r2 > 1.0) discard;
    return vec3(c.x, -c.y, sqrt(1.0 - r2));
}
`

const pointFragSrc = `
#version 410 core
uniform vec3 u_baseColor;
uniform sampler2D t_matcap;

out vec4 outColor;
` + matcapGLSL + sphereImpostorGLSL + `
void main() {
    vec3 n = sphereNormal();
    outColor = vec4(lightSurfaceMat(n, u_baseColor, t_matcap), 1.0);
}
` + "\x00"

var pointUniforms = []render.ShaderSpecUniform{
	{Name: "u_pointRadius", Type: render.TypeFloat},
	{Name: "u_viewportHeight", Type: render.TypeFloat},
}

var pointAttributes = []render.ShaderSpecAttribute{
	{Name: "a_position", Type: render.TypeVector3Float},
}

// PointSphere draws points as shaded spheres of one color.
func PointSphere() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:      render.StageVertex,
			Uniforms:   uniforms(transformUniforms, pointUniforms),
			Attributes: attributes(pointAttributes),
			Src:        pointVertSrc,
		},
		{
			Stage:    render.StageFragment,
			Uniforms: []render.ShaderSpecUniform{{Name: "u_baseColor", Type: render.TypeVector3Float}},
			Textures: []render.ShaderSpecTexture{matcapTexture},
			Src:      pointFragSrc,
		},
	}
}

const pointScalarVertSrc = `
#version 410 core
in vec3  a_position;
in float a_value;

uniform mat4  u_modelView;
uniform mat4  u_projMatrix;
uniform float u_pointRadius;
uniform float u_viewportHeight;

out float v_value;

void main() {
    vec4 viewPos = u_modelView * vec4(a_position, 1.0);
    gl_Position  = u_projMatrix * viewPos;
    gl_PointSize = max(1.0, u_viewportHeight * u_projMatrix[1][1] * u_pointRadius / -viewPos.z);
    v_value      = a_value;
}
` + "\x00"

const pointScalarFragSrc = `
#version 410 core
in float v_value;

uniform float u_rangeLow;
uniform float u_rangeHigh;
uniform sampler1D t_colormap;
uniform sampler2D t_matcap;

out vec4 outColor;
` + matcapGLSL + sphereImpostorGLSL + `
void main() {
    vec3 n = sphereNormal();
    float t = clamp((v_value - u_rangeLow) / max(u_rangeHigh - u_rangeLow, 1e-12), 0.0, 1.0);
    outColor = vec4(lightSurfaceMat(n, texture(t_colormap, t).rgb, t_matcap), 1.0);
}
` + "\x00"

// PointScalar draws spheres colored by a per-point scalar.
func PointScalar() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:    render.StageVertex,
			Uniforms: uniforms(transformUniforms, pointUniforms),
			Attributes: attributes(pointAttributes, []render.ShaderSpecAttribute{
				{Name: "a_value", Type: render.TypeFloat},
			}),
			Src: pointScalarVertSrc,
		},
		{
			Stage:    render.StageFragment,
			Uniforms: uniforms(rangeUniforms),
			Textures: []render.ShaderSpecTexture{colormapTexture, matcapTexture},
			Src:      pointScalarFragSrc,
		},
	}
}

// ── Picking ──────────────────────────────────────────────────────────────────

const pickMeshVertSrc = `
#version 410 core
in vec3 a_position;
in vec3 a_pickColor;

uniform mat4 u_modelView;
uniform mat4 u_projMatrix;

flat out vec3 v_pickColor;

void main() {
    gl_Position = u_projMatrix * u_modelView * vec4(a_position, 1.0);
    v_pickColor = a_pickColor;
}
` + "\x00"

const pickFragSrc = `
#version 410 core
flat in vec3 v_pickColor;
out vec4 outColor;

void main() {
    outColor = vec4(v_pickColor, 1.0);
}
` + "\x00"

var pickAttributes = []render.ShaderSpecAttribute{
	{Name: "a_position", Type: render.TypeVector3Float},
	{Name: "a_pickColor", Type: render.TypeVector3Float},
}

// PickMesh writes each face's encoded pick index.
func PickMesh() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:      render.StageVertex,
			Uniforms:   uniforms(transformUniforms),
			Attributes: attributes(pickAttributes),
			Src:        pickMeshVertSrc,
		},
		{Stage: render.StageFragment, Src: pickFragSrc},
	}
}

const pickPointVertSrc = `
#version 410 core
in vec3 a_position;
in vec3 a_pickColor;

uniform mat4  u_modelView;
uniform mat4  u_projMatrix;
uniform float u_pointRadius;
uniform float u_viewportHeight;

flat out vec3 v_pickColor;

void main() {
    vec4 viewPos = u_modelView * vec4(a_position, 1.0);
    gl_Position  = u_projMatrix * viewPos;
    gl_PointSize = max(1.0, u_viewportHeight * u_projMatrix[1][1] * u_pointRadius / -viewPos.z);
    v_pickColor  = a_pickColor;
}
` + "\x00"

const pickPointFragSrc = `
#version 410 core
flat in vec3 v_pickColor;
out vec4 outColor;

void main() {
    vec2 c = gl_PointCoord * 2.0 - 1.0;
    if (dot(c, c) > 1.0) discard;
    outColor = vec4(v_pickColor, 1.0);
}
` + "\x00"

// PickPoints writes each point's encoded pick index.
func PickPoints() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:      render.StageVertex,
			Uniforms:   uniforms(transformUniforms, pointUniforms),
			Attributes: attributes(pickAttributes),
			Src:        pickPointVertSrc,
		},
		{Stage: render.StageFragment, Src: pickPointFragSrc},
	}
}

// ── Screen quad ──────────────────────────────────────────────────────────────

const quadVertSrc = `
#version 410 core
in vec2 a_position;
out vec2 v_uv;

void main() {
    v_uv = a_position * 0.5 + 0.5;
    gl_Position = vec4(a_position, 0.0, 1.0);
}
` + "\x00"

const quadFragSrc = `
#version 410 core
in vec2 v_uv;

uniform float u_exposure;
uniform sampler2D t_image;

out vec4 outColor;

void main() {
    vec4 c = texture(t_image, v_uv);
    outColor = vec4(c.rgb * u_exposure, c.a);
}
` + "\x00"

// TexturedQuad copies a 2D texture onto the bound target. Draw it with
// QuadVertices.
func TexturedQuad() []render.ShaderStageSpecification {
	return []render.ShaderStageSpecification{
		{
			Stage:      render.StageVertex,
			Attributes: []render.ShaderSpecAttribute{{Name: "a_position", Type: render.TypeVector2Float}},
			Src:        quadVertSrc,
		},
		{
			Stage:    render.StageFragment,
			Uniforms: []render.ShaderSpecUniform{{Name: "u_exposure", Type: render.TypeFloat}},
			Textures: []render.ShaderSpecTexture{{Name: "t_image", Dim: 2}},
			Src:      quadFragSrc,
		},
	}
}

// QuadVertices covers clip space with two triangles.
func QuadVertices() []mgl32.Vec2 {
	return []mgl32.Vec2{
		{-1, -1}, {1, -1}, {1, 1},
		{-1, -1}, {1, 1}, {-1, 1},
	}
}
