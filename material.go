package avmat

import "github.com/flywave/go3d/vec3"

// Image is a texture image identified by its file path.
type Image struct {
	Name     string    `json:"name"`
	Path     string    `json:"path"`
	MimeType string    `json:"mimeType,omitempty"`
	Data     []byte    `json:"-"`
	Size     [2]uint64 `json:"size"`
	Format   string    `json:"format,omitempty"`
}

// Embedded reports whether the image bytes live inside the scene file.
func (img *Image) Embedded() bool {
	return len(img.Data) > 0
}

type Texture struct {
	Name  string `json:"name"`
	Image *Image `json:"image,omitempty"`
}

// TextureSlot binds a texture to a material. A slot with Enabled unset is
// kept in the material but ignored when shading.
type TextureSlot struct {
	Texture            *Texture  `json:"texture,omitempty"`
	Enabled            bool      `json:"enabled"`
	UseMapAlpha        bool      `json:"useMapAlpha"`
	UseMapColorDiffuse bool      `json:"useMapColorDiffuse"`
	BlendType          BlendType `json:"blendType"`
}

// ImagePath returns the path of the bound image, or "" when the slot
// does not resolve to an image.
func (ts *TextureSlot) ImagePath() string {
	if ts == nil || ts.Texture == nil || ts.Texture.Image == nil {
		return ""
	}
	return ts.Texture.Image.Path
}

type Material struct {
	Name               string             `json:"name"`
	Alpha              float32            `json:"alpha"`
	DiffuseColor       vec3.T             `json:"diffuseColor"`
	SpecularColor      vec3.T             `json:"specularColor"`
	EmissiveColor      vec3.T             `json:"emissiveColor"`
	Metallic           float32            `json:"metallic"`
	Roughness          float32            `json:"roughness"`
	DoubleSided        bool               `json:"doubleSided"`
	TransparencyMethod TransparencyMethod `json:"transparencyMethod"`
	TextureSlots       []*TextureSlot     `json:"textureSlots,omitempty"`
}

// NewMaterial returns a material with default shading values. The name is
// not checked for uniqueness, use Scene.AddMaterial for that.
func NewMaterial(name string) *Material {
	return &Material{
		Name:               name,
		Alpha:              1,
		DiffuseColor:       vec3.T{0.8, 0.8, 0.8},
		SpecularColor:      vec3.T{1, 1, 1},
		Roughness:          1,
		TransparencyMethod: TRANSPARENCY_MASK,
	}
}

// Blended reports whether the material renders with alpha blending.
func (m *Material) Blended() bool {
	return m.TransparencyMethod == TRANSPARENCY_Z || m.TransparencyMethod == TRANSPARENCY_RAYTRACE
}

// HasTexture reports whether any enabled slot resolves to an image.
func (m *Material) HasTexture() bool {
	for _, ts := range m.TextureSlots {
		if ts != nil && ts.Enabled && ts.ImagePath() != "" {
			return true
		}
	}
	return false
}

// GetTexture returns the texture of the first non-empty slot.
func (m *Material) GetTexture() *Texture {
	for _, ts := range m.TextureSlots {
		if ts != nil && ts.Texture != nil {
			return ts.Texture
		}
	}
	return nil
}

// AddTexture appends an enabled slot bound to a texture showing img.
func (m *Material) AddTexture(img *Image) *TextureSlot {
	ts := &TextureSlot{
		Enabled:            true,
		UseMapColorDiffuse: true,
		BlendType:          BLEND_MIX,
	}
	if img != nil {
		ts.Texture = &Texture{Name: img.Name, Image: img}
	}
	m.TextureSlots = append(m.TextureSlots, ts)
	return ts
}
