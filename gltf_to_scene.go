package avmat

import (
	"crypto/sha256"
	"encoding/base64"
	"fmt"
	"net/url"
	"path/filepath"
	"strings"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/specular"
	"github.com/qmuntal/gltf/modeler"
)

// extrasKey holds material state glTF has no field for.
const extrasKey = "avmat"

// glTF texture roles in texture slot order.
const (
	TEXTURE_ROLE_BASE_COLOR = iota
	TEXTURE_ROLE_NORMAL
	TEXTURE_ROLE_EMISSIVE
	TEXTURE_ROLE_OCCLUSION
	TEXTURE_ROLE_METALLIC_ROUGHNESS
	TEXTURE_ROLE_COUNT
)

// LoadScene reads a .gltf or .glb file into a new scene.
func LoadScene(path string) (*Scene, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return nil, err
	}
	return SceneFromGltf(doc, strings.TrimSuffix(filepath.Base(path), filepath.Ext(path)))
}

// SceneFromGltf maps a decoded glTF document onto a new scene.
func SceneFromGltf(doc *gltf.Document, name string) (*Scene, error) {
	g := &GltfToScene{
		doc:       doc,
		scene:     NewScene(name),
		materials: make(map[uint32]*Material),
		images:    make(map[uint32]*Image),
	}
	if err := g.convert(); err != nil {
		return nil, err
	}
	return g.scene, nil
}

type GltfToScene struct {
	doc             *gltf.Document
	scene           *Scene
	materials       map[uint32]*Material
	images          map[uint32]*Image
	defaultMaterial *Material
}

func (g *GltfToScene) convert() error {
	joints := make(map[uint32]bool)
	for i, skin := range g.doc.Skins {
		for _, j := range skin.Joints {
			joints[j] = true
		}
		name := skin.Name
		if name == "" {
			name = DefaultArmatureName
			if i > 0 {
				name = fmt.Sprintf("%s_%d", DefaultArmatureName, i)
			}
		}
		g.scene.AddObject(&Object{
			Name:     name,
			Type:     OBJECT_TYPE_ARMATURE,
			Rotation: [4]float32{0, 0, 0, 1},
			Scale:    [3]float32{1, 1, 1},
		})
	}

	for i, nd := range g.doc.Nodes {
		name := nd.Name
		if name == "" {
			name = fmt.Sprintf("Node_%d", i)
		}
		obj := &Object{
			Name:        name,
			Type:        OBJECT_TYPE_EMPTY,
			Translation: nd.Translation,
			Rotation:    nd.Rotation,
			Scale:       nd.Scale,
		}
		if nd.Mesh != nil {
			md, err := g.transMesh(*nd.Mesh)
			if err != nil {
				return fmt.Errorf("node %q: %w", name, err)
			}
			obj.Type = OBJECT_TYPE_MESH
			obj.Data = md
		} else if joints[uint32(i)] {
			continue
		}
		g.scene.AddObject(obj)
	}
	return nil
}

// accessor returns accessor idx, or ErrInvalidIndex for a dangling index.
func (g *GltfToScene) accessor(idx uint32) (*gltf.Accessor, error) {
	if int(idx) >= len(g.doc.Accessors) {
		return nil, fmt.Errorf("accessor %d of %d: %w", idx, len(g.doc.Accessors), ErrInvalidIndex)
	}
	return g.doc.Accessors[idx], nil
}

func (g *GltfToScene) transMesh(id uint32) (*MeshData, error) {
	if int(id) >= len(g.doc.Meshes) {
		return nil, fmt.Errorf("mesh %d of %d: %w", id, len(g.doc.Meshes), ErrInvalidIndex)
	}
	mh := g.doc.Meshes[id]
	md := &MeshData{}
	offsets := make(map[uint32]uint32)
	counts := make(map[uint32]uint32)
	slots := make(map[*Material]int)
	hasNormals, hasTexCoords := false, false

	for pi, ps := range mh.Primitives {
		if ps.Mode != gltf.PrimitiveTriangles {
			return nil, fmt.Errorf("mesh %d primitive %d mode %d: %w", id, pi, ps.Mode, ErrUnsupportedPrimitive)
		}
		posIdx, ok := ps.Attributes["POSITION"]
		if !ok {
			return nil, fmt.Errorf("mesh %d primitive %d has no positions: %w", id, pi, ErrUnsupportedPrimitive)
		}

		posAcr, err := g.accessor(posIdx)
		if err != nil {
			return nil, fmt.Errorf("mesh %d primitive %d: %w", id, pi, err)
		}

		offset, seen := offsets[posIdx]
		if !seen {
			offset = uint32(len(md.Vertices))
			offsets[posIdx] = offset
			positions, err := modeler.ReadPosition(g.doc, posAcr, nil)
			if err != nil {
				return nil, err
			}
			counts[posIdx] = uint32(len(positions))
			for _, p := range positions {
				md.Vertices = append(md.Vertices, vec3.T(p))
			}

			if idx, ok := ps.Attributes["NORMAL"]; ok {
				acr, err := g.accessor(idx)
				if err != nil {
					return nil, fmt.Errorf("mesh %d primitive %d normals: %w", id, pi, err)
				}
				normals, err := modeler.ReadNormal(g.doc, acr, nil)
				if err != nil {
					return nil, err
				}
				if len(normals) != len(positions) {
					return nil, fmt.Errorf("mesh %d primitive %d has %d normals for %d positions: %w", id, pi, len(normals), len(positions), ErrUnsupportedPrimitive)
				}
				for _, n := range normals {
					md.Normals = append(md.Normals, vec3.T(n))
				}
				hasNormals = true
			} else {
				md.Normals = append(md.Normals, make([]vec3.T, len(positions))...)
			}

			if idx, ok := ps.Attributes["TEXCOORD_0"]; ok {
				acr, err := g.accessor(idx)
				if err != nil {
					return nil, fmt.Errorf("mesh %d primitive %d uvs: %w", id, pi, err)
				}
				uvs, err := modeler.ReadTextureCoord(g.doc, acr, nil)
				if err != nil {
					return nil, err
				}
				if len(uvs) != len(positions) {
					return nil, fmt.Errorf("mesh %d primitive %d has %d uvs for %d positions: %w", id, pi, len(uvs), len(positions), ErrUnsupportedPrimitive)
				}
				for _, uv := range uvs {
					md.TexCoords = append(md.TexCoords, vec2.T(uv))
				}
				hasTexCoords = true
			} else {
				md.TexCoords = append(md.TexCoords, make([]vec2.T, len(positions))...)
			}
		}

		mtl, err := g.material(ps.Material)
		if err != nil {
			return nil, err
		}
		slot, ok := slots[mtl]
		if !ok {
			slot = md.AppendSlot(mtl)
			slots[mtl] = slot
		}

		var indices []uint32
		if ps.Indices != nil {
			acr, err := g.accessor(*ps.Indices)
			if err != nil {
				return nil, fmt.Errorf("mesh %d primitive %d indices: %w", id, pi, err)
			}
			indices, err = modeler.ReadIndices(g.doc, acr, nil)
			if err != nil {
				return nil, err
			}
		} else {
			indices = make([]uint32, counts[posIdx])
			for i := range indices {
				indices[i] = uint32(i)
			}
		}
		for _, v := range indices {
			if v >= counts[posIdx] {
				return nil, fmt.Errorf("mesh %d primitive %d index %d of %d vertices: %w", id, pi, v, counts[posIdx], ErrInvalidIndex)
			}
		}
		for i := 0; i+2 < len(indices); i += 3 {
			md.Faces = append(md.Faces, &Face{
				Vertex:        [3]uint32{offset + indices[i], offset + indices[i+1], offset + indices[i+2]},
				MaterialIndex: slot,
			})
		}
	}

	if !hasNormals {
		md.Normals = nil
	}
	if !hasTexCoords {
		md.TexCoords = nil
	}
	return md, nil
}

func (g *GltfToScene) material(id *uint32) (*Material, error) {
	if id == nil {
		if g.defaultMaterial == nil {
			g.defaultMaterial = g.scene.AddMaterial(NewMaterial(DefaultMaterialName))
		}
		return g.defaultMaterial, nil
	}
	if m, ok := g.materials[*id]; ok {
		return m, nil
	}
	m, err := g.transMaterial(*id)
	if err != nil {
		return nil, err
	}
	g.materials[*id] = g.scene.AddMaterial(m)
	return m, nil
}

func (g *GltfToScene) transMaterial(id uint32) (*Material, error) {
	if int(id) >= len(g.doc.Materials) {
		return nil, fmt.Errorf("material %d of %d: %w", id, len(g.doc.Materials), ErrInvalidIndex)
	}
	mt := g.doc.Materials[id]
	name := mt.Name
	if name == "" {
		name = fmt.Sprintf("Material_%d", id)
	}
	mtl := NewMaterial(name)
	mtl.DoubleSided = mt.DoubleSided
	mtl.EmissiveColor = vec3.T(mt.EmissiveFactor)
	mtl.DiffuseColor = vec3.T{1, 1, 1}
	mtl.Metallic = 1
	if mt.AlphaMode == gltf.AlphaBlend {
		mtl.TransparencyMethod = TRANSPARENCY_Z
	}

	roles := make([]*gltf.TextureInfo, TEXTURE_ROLE_COUNT)
	if pbr := mt.PBRMetallicRoughness; pbr != nil {
		if pbr.BaseColorFactor != nil {
			c := *pbr.BaseColorFactor
			mtl.DiffuseColor = vec3.T{c[0], c[1], c[2]}
			mtl.Alpha = c[3]
		}
		if pbr.MetallicFactor != nil {
			mtl.Metallic = *pbr.MetallicFactor
		}
		if pbr.RoughnessFactor != nil {
			mtl.Roughness = *pbr.RoughnessFactor
		}
		roles[TEXTURE_ROLE_BASE_COLOR] = pbr.BaseColorTexture
		roles[TEXTURE_ROLE_METALLIC_ROUGHNESS] = pbr.MetallicRoughnessTexture
	}
	if mt.NormalTexture != nil && mt.NormalTexture.Index != nil {
		roles[TEXTURE_ROLE_NORMAL] = &gltf.TextureInfo{Index: *mt.NormalTexture.Index}
	}
	if mt.OcclusionTexture != nil && mt.OcclusionTexture.Index != nil {
		roles[TEXTURE_ROLE_OCCLUSION] = &gltf.TextureInfo{Index: *mt.OcclusionTexture.Index}
	}
	roles[TEXTURE_ROLE_EMISSIVE] = mt.EmissiveTexture

	if ext, ok := mt.Extensions[specular.ExtensionName].(*specular.PBRSpecularGlossiness); ok {
		if ext.SpecularFactor != nil {
			mtl.SpecularColor = vec3.T(*ext.SpecularFactor)
		}
		if ext.DiffuseFactor != nil && (mt.PBRMetallicRoughness == nil || mt.PBRMetallicRoughness.BaseColorFactor == nil) {
			c := *ext.DiffuseFactor
			mtl.DiffuseColor = vec3.T{c[0], c[1], c[2]}
			mtl.Alpha = c[3]
		}
	}

	last := -1
	for i, info := range roles {
		if info != nil {
			last = i
		}
	}
	for i := 0; i <= last; i++ {
		if roles[i] == nil {
			mtl.TextureSlots = append(mtl.TextureSlots, nil)
			continue
		}
		img, err := g.image(roles[i].Index)
		if err != nil {
			return nil, err
		}
		mtl.AddTexture(img)
	}

	if err := g.applyExtras(mtl, mt.Extras); err != nil {
		return nil, fmt.Errorf("material %q: %w", name, err)
	}
	return mtl, nil
}

// applyExtras restores the material state written by fillMaterials.
func (g *GltfToScene) applyExtras(mtl *Material, extras interface{}) error {
	root, ok := extras.(map[string]interface{})
	if !ok {
		return nil
	}
	ext, ok := root[extrasKey].(map[string]interface{})
	if !ok {
		return nil
	}
	if tm, ok := ext["transparencyMethod"].(string); ok && tm != "" {
		mtl.TransparencyMethod = TransparencyMethod(tm)
	}
	if c, ok := floats(ext["specularColor"]); ok && len(c) == 3 {
		mtl.SpecularColor = vec3.T{c[0], c[1], c[2]}
	}
	slots, _ := ext["textureSlots"].([]interface{})
	for i, raw := range slots {
		st, ok := raw.(map[string]interface{})
		if !ok {
			continue
		}
		for len(mtl.TextureSlots) <= i {
			mtl.TextureSlots = append(mtl.TextureSlots, nil)
		}
		ts := mtl.TextureSlots[i]
		if ts == nil {
			ts = &TextureSlot{BlendType: BLEND_MIX}
			mtl.TextureSlots[i] = ts
		}
		if idx, ok := number(st["texture"]); ok && ts.Texture == nil {
			img, err := g.image(uint32(idx))
			if err != nil {
				return err
			}
			if img != nil {
				ts.Texture = &Texture{Name: img.Name, Image: img}
			}
		}
		if v, ok := st["enabled"].(bool); ok {
			ts.Enabled = v
		}
		if v, ok := st["useMapAlpha"].(bool); ok {
			ts.UseMapAlpha = v
		}
		if v, ok := st["useMapColorDiffuse"].(bool); ok {
			ts.UseMapColorDiffuse = v
		}
		if v, ok := st["blendType"].(string); ok && v != "" {
			ts.BlendType = BlendType(v)
		}
	}
	return nil
}

func number(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case uint32:
		return float64(n), true
	case int:
		return float64(n), true
	}
	return 0, false
}

func floats(v interface{}) ([]float32, bool) {
	switch vs := v.(type) {
	case []float32:
		return vs, true
	case []interface{}:
		out := make([]float32, 0, len(vs))
		for _, x := range vs {
			f, ok := number(x)
			if !ok {
				return nil, false
			}
			out = append(out, float32(f))
		}
		return out, true
	}
	return nil, false
}

// image resolves a glTF texture index to a scene image. Images shared by
// several textures map to one *Image.
func (g *GltfToScene) image(texIdx uint32) (*Image, error) {
	if int(texIdx) >= len(g.doc.Textures) {
		return nil, fmt.Errorf("texture %d of %d: %w", texIdx, len(g.doc.Textures), ErrInvalidIndex)
	}
	tex := g.doc.Textures[texIdx]
	if tex.Source == nil {
		return nil, nil
	}
	src := *tex.Source
	if img, ok := g.images[src]; ok {
		return img, nil
	}
	if int(src) >= len(g.doc.Images) {
		return nil, fmt.Errorf("image %d of %d: %w", src, len(g.doc.Images), ErrInvalidIndex)
	}
	gi := g.doc.Images[src]
	img := &Image{Name: gi.Name, MimeType: gi.MimeType}

	switch {
	case gi.BufferView != nil:
		data, err := g.bufferViewData(*gi.BufferView)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", src, err)
		}
		img.Data = data
	case strings.HasPrefix(gi.URI, "data:"):
		data, mime, err := decodeDataURI(gi.URI)
		if err != nil {
			return nil, fmt.Errorf("image %d: %w", src, err)
		}
		img.Data = data
		if img.MimeType == "" {
			img.MimeType = mime
		}
	default:
		path, err := url.PathUnescape(gi.URI)
		if err != nil {
			path = gi.URI
		}
		img.Path = path
		if img.Name == "" {
			img.Name = filepath.Base(path)
		}
	}
	if img.Embedded() {
		img.Path = embeddedPath(img.Data)
		if img.Name == "" {
			img.Name = fmt.Sprintf("Image_%d", src)
		}
	}
	g.images[src] = img
	return img, nil
}

// bufferViewData copies the bytes of buffer view idx.
func (g *GltfToScene) bufferViewData(idx uint32) ([]byte, error) {
	if int(idx) >= len(g.doc.BufferViews) {
		return nil, fmt.Errorf("buffer view %d of %d: %w", idx, len(g.doc.BufferViews), ErrInvalidIndex)
	}
	view := g.doc.BufferViews[idx]
	if int(view.Buffer) >= len(g.doc.Buffers) {
		return nil, fmt.Errorf("buffer %d of %d: %w", view.Buffer, len(g.doc.Buffers), ErrInvalidIndex)
	}
	data := g.doc.Buffers[view.Buffer].Data
	end := uint64(view.ByteOffset) + uint64(view.ByteLength)
	if end > uint64(len(data)) {
		return nil, fmt.Errorf("buffer view %d ends at %d past %d bytes: %w", idx, end, len(data), ErrInvalidIndex)
	}
	return append([]byte(nil), data[view.ByteOffset:end]...), nil
}

// embeddedPath names embedded image bytes by content, so identical images
// embedded twice still fingerprint the same.
func embeddedPath(data []byte) string {
	sum := sha256.Sum256(data)
	return fmt.Sprintf("embedded:%x", sum[:8])
}

func decodeDataURI(uri string) ([]byte, string, error) {
	comma := strings.IndexByte(uri, ',')
	if comma < 0 {
		return nil, "", fmt.Errorf("malformed data uri")
	}
	meta := strings.TrimPrefix(uri[:comma], "data:")
	mime := strings.TrimSuffix(meta, ";base64")
	if !strings.HasSuffix(meta, ";base64") {
		data, err := url.PathUnescape(uri[comma+1:])
		return []byte(data), mime, err
	}
	data, err := base64.StdEncoding.DecodeString(uri[comma+1:])
	return data, mime, err
}
