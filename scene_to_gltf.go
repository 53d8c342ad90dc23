package avmat

import (
	"bytes"
	"encoding/base64"
	"encoding/binary"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/flywave/go3d/vec3"

	"github.com/qmuntal/gltf"
	"github.com/qmuntal/gltf/ext/specular"
)

const (
	// GLTFVersion is the glTF version written.
	GLTFVersion = "2.0"

	// PaddingChar pads binary chunks.
	PaddingChar = 0x20
)

// CreateDoc returns an empty document with one scene and one buffer.
func CreateDoc() *gltf.Document {
	doc := &gltf.Document{
		Asset: gltf.Asset{
			Version:   GLTFVersion,
			Generator: "go-avmat",
		},
		Scenes:  []*gltf.Scene{{}},
		Buffers: []*gltf.Buffer{{}},
	}

	sceneIndex := uint32(0)
	doc.Scene = &sceneIndex

	return doc
}

type bufferWriter struct {
	writer io.Writer
	size   int
}

func (w *bufferWriter) Write(p []byte) (int, error) {
	n := len(p)
	w.writer.Write(p)
	w.size += n
	return n, nil
}

func (w *bufferWriter) Bytes() []byte {
	return w.writer.(*bytes.Buffer).Bytes()
}

func (w *bufferWriter) Size() int {
	return w.size
}

func newBufferWriter() *bufferWriter {
	return &bufferWriter{
		writer: bytes.NewBuffer(nil),
		size:   0,
	}
}

func calcPadding(offset, unit int) int {
	padding := offset % unit
	if padding != 0 {
		padding = unit - padding
	}
	return padding
}

// GetGltfBinary encodes doc as GLB padded to a multiple of paddingUnit.
func GetGltfBinary(doc *gltf.Document, paddingUnit int) ([]byte, error) {
	writer := newBufferWriter()

	encoder := gltf.NewEncoder(writer)
	encoder.AsBinary = true

	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}

	padding := calcPadding(writer.Size(), paddingUnit)
	if padding == 0 {
		return writer.Bytes(), nil
	}

	pad := bytes.Repeat([]byte{PaddingChar}, padding)
	writer.Write(pad)

	return writer.Bytes(), nil
}

// GetGltfJSON encodes doc as .gltf JSON with the buffer embedded as a data URI.
func GetGltfJSON(doc *gltf.Document) ([]byte, error) {
	for _, b := range doc.Buffers {
		if b.URI == "" && len(b.Data) > 0 {
			b.URI = "data:application/octet-stream;base64," + base64.StdEncoding.EncodeToString(b.Data)
		}
	}
	writer := newBufferWriter()
	encoder := gltf.NewEncoder(writer)
	encoder.AsBinary = false
	if err := encoder.Encode(doc); err != nil {
		return nil, err
	}
	return writer.Bytes(), nil
}

// SaveScene writes s to path, as GLB when the extension is .glb.
func SaveScene(s *Scene, path string) error {
	doc, err := SceneToGltf(s)
	if err != nil {
		return err
	}
	var data []byte
	if strings.EqualFold(filepath.Ext(path), ".glb") {
		data, err = GetGltfBinary(doc, 4)
	} else {
		data, err = GetGltfJSON(doc)
	}
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// SceneToGltf builds a document holding every object of s.
func SceneToGltf(s *Scene) (*gltf.Document, error) {
	doc := CreateDoc()
	ctx := &buildContext{
		materials: make(map[*Material]uint32),
		textures:  make(map[*Image]uint32),
	}

	for _, obj := range s.Objects {
		rotation, scale := obj.Rotation, obj.Scale
		if rotation == [4]float32{} {
			rotation = [4]float32{0, 0, 0, 1}
		}
		if scale == [3]float32{} {
			scale = [3]float32{1, 1, 1}
		}
		node := &gltf.Node{
			Name:        obj.Name,
			Translation: obj.Translation,
			Rotation:    rotation,
			Scale:       scale,
		}
		if obj.IsMesh() && len(obj.Data.Faces) > 0 {
			if err := fillMaterials(ctx, doc, obj.Data); err != nil {
				return nil, err
			}
			doc.BufferViews = buildMeshBufferViews(ctx, doc.Buffers[0], doc.BufferViews, obj.Data)
			mesh, accessors := buildMeshPrimitives(ctx, doc.Accessors, obj.Data)
			mesh.Name = obj.Name
			meshIndex := uint32(len(doc.Meshes))
			doc.Meshes = append(doc.Meshes, mesh)
			doc.Accessors = accessors
			node.Mesh = &meshIndex
		}
		nodeIndex := uint32(len(doc.Nodes))
		doc.Nodes = append(doc.Nodes, node)
		doc.Scenes[0].Nodes = append(doc.Scenes[0].Nodes, nodeIndex)
		if obj.Type == OBJECT_TYPE_ARMATURE {
			// the armature node doubles as the skin's only joint
			doc.Skins = append(doc.Skins, &gltf.Skin{Name: obj.Name, Joints: []uint32{nodeIndex}})
		}
	}
	return doc, nil
}

type buildContext struct {
	materials map[*Material]uint32
	textures  map[*Image]uint32

	// slot faces grouped by slot index, in slot order
	groups [][]*Face
	slots  []int

	bvIndex uint32
	bvPos   uint32
	bvTex   uint32
	bvNorm  uint32
}

// groupFaces splits the faces of md by slot, skipping slots without faces.
func (ctx *buildContext) groupFaces(md *MeshData) {
	byslot := make([][]*Face, len(md.Slots))
	for _, f := range md.Faces {
		if f.MaterialIndex >= 0 && f.MaterialIndex < len(byslot) {
			byslot[f.MaterialIndex] = append(byslot[f.MaterialIndex], f)
		}
	}
	ctx.groups = ctx.groups[:0]
	ctx.slots = ctx.slots[:0]
	for i, fs := range byslot {
		if len(fs) == 0 {
			continue
		}
		ctx.groups = append(ctx.groups, fs)
		ctx.slots = append(ctx.slots, i)
	}
}

func buildMeshBufferViews(ctx *buildContext, buffer *gltf.Buffer, bufferViews []*gltf.BufferView, md *MeshData) []*gltf.BufferView {
	ctx.groupFaces(md)
	buf := bytes.NewBuffer(nil)

	ctx.bvIndex = uint32(len(bufferViews))

	indicesView := &gltf.BufferView{
		ByteOffset: buffer.ByteLength,
		Buffer:     0,
		Target:     gltf.TargetElementArrayBuffer,
	}
	for _, group := range ctx.groups {
		for _, face := range group {
			binary.Write(buf, binary.LittleEndian, face.Vertex)
		}
	}
	indicesView.ByteLength = uint32(buf.Len())
	bufferViews = append(bufferViews, indicesView)

	positionsView := &gltf.BufferView{
		ByteOffset: uint32(buf.Len()) + buffer.ByteLength,
		Buffer:     0,
		Target:     gltf.TargetArrayBuffer,
	}
	binary.Write(buf, binary.LittleEndian, md.Vertices)
	positionsView.ByteLength = uint32(buf.Len()) - positionsView.ByteOffset + buffer.ByteLength
	ctx.bvPos = uint32(len(bufferViews))
	bufferViews = append(bufferViews, positionsView)

	if len(md.TexCoords) > 0 {
		texCoordsView := &gltf.BufferView{
			ByteOffset: uint32(buf.Len()) + buffer.ByteLength,
			Buffer:     0,
			Target:     gltf.TargetArrayBuffer,
		}
		binary.Write(buf, binary.LittleEndian, md.TexCoords)
		texCoordsView.ByteLength = uint32(buf.Len()) - texCoordsView.ByteOffset + buffer.ByteLength
		ctx.bvTex = uint32(len(bufferViews))
		bufferViews = append(bufferViews, texCoordsView)
	}

	if len(md.Normals) > 0 {
		normalsView := &gltf.BufferView{
			ByteOffset: uint32(buf.Len()) + buffer.ByteLength,
			Buffer:     0,
			Target:     gltf.TargetArrayBuffer,
		}
		binary.Write(buf, binary.LittleEndian, md.Normals)
		normalsView.ByteLength = uint32(buf.Len()) - normalsView.ByteOffset + buffer.ByteLength
		ctx.bvNorm = uint32(len(bufferViews))
		bufferViews = append(bufferViews, normalsView)
	}

	buffer.ByteLength += uint32(buf.Len())
	buffer.Data = append(buffer.Data, buf.Bytes()...)

	return bufferViews
}

func buildMeshPrimitives(ctx *buildContext, accessors []*gltf.Accessor, md *MeshData) (*gltf.Mesh, []*gltf.Accessor) {
	mesh := &gltf.Mesh{}

	accessorOffset := uint32(len(accessors))
	positionAccessorIndex := uint32(len(ctx.groups)) + accessorOffset

	var startOffset uint32 = 0

	for i, group := range ctx.groups {
		materialID := ctx.materials[md.Slots[ctx.slots[i]].Material]

		attributeIndex := positionAccessorIndex
		attributes := gltf.Attribute{"POSITION": attributeIndex}

		if len(md.TexCoords) > 0 {
			attributeIndex++
			attributes["TEXCOORD_0"] = attributeIndex
		}

		if len(md.Normals) > 0 {
			attributeIndex++
			attributes["NORMAL"] = attributeIndex
		}

		primitive := &gltf.Primitive{
			Material:   uint32Ptr(materialID),
			Indices:    uint32Ptr(uint32(i) + accessorOffset),
			Mode:       gltf.PrimitiveTriangles,
			Attributes: attributes,
		}
		mesh.Primitives = append(mesh.Primitives, primitive)

		indexAccessor := &gltf.Accessor{
			ComponentType: gltf.ComponentUint,
			Type:          gltf.AccessorScalar,
			ByteOffset:    startOffset * 12,
			Count:         uint32(len(group)) * 3,
			BufferView:    uint32Ptr(ctx.bvIndex),
		}
		accessors = append(accessors, indexAccessor)
		startOffset += uint32(len(group))
	}

	bounds := md.GetBoundbox()
	positionAccessor := &gltf.Accessor{
		ComponentType: gltf.ComponentFloat,
		Type:          gltf.AccessorVec3,
		Count:         uint32(len(md.Vertices)),
		BufferView:    uint32Ptr(ctx.bvPos),
		Min:           []float32{float32(bounds[0]), float32(bounds[1]), float32(bounds[2])},
		Max:           []float32{float32(bounds[3]), float32(bounds[4]), float32(bounds[5])},
	}
	accessors = append(accessors, positionAccessor)

	if len(md.TexCoords) > 0 {
		texCoordAccessor := &gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec2,
			Count:         uint32(len(md.TexCoords)),
			BufferView:    uint32Ptr(ctx.bvTex),
		}
		accessors = append(accessors, texCoordAccessor)
	}

	if len(md.Normals) > 0 {
		normalAccessor := &gltf.Accessor{
			ComponentType: gltf.ComponentFloat,
			Type:          gltf.AccessorVec3,
			Count:         uint32(len(md.Normals)),
			BufferView:    uint32Ptr(ctx.bvNorm),
		}
		accessors = append(accessors, normalAccessor)
	}

	return mesh, accessors
}

// buildTexture adds a texture for img. Embedded bytes go into the buffer,
// file images are referenced by URI.
func buildTexture(doc *gltf.Document, buffer *gltf.Buffer, img *Image) *gltf.Texture {
	imageIndex := uint32(len(doc.Images))
	gltfImage := &gltf.Image{Name: img.Name, MimeType: img.MimeType}

	if img.Embedded() {
		bufferViewIndex := uint32(len(doc.BufferViews))
		bufferView := &gltf.BufferView{
			ByteOffset: buffer.ByteLength,
			ByteLength: uint32(len(img.Data)),
			Buffer:     0,
		}
		buffer.Data = append(buffer.Data, img.Data...)
		buffer.ByteLength += uint32(len(img.Data))
		if pad := calcPadding(int(buffer.ByteLength), 4); pad > 0 {
			buffer.Data = append(buffer.Data, make([]byte, pad)...)
			buffer.ByteLength += uint32(pad)
		}
		doc.BufferViews = append(doc.BufferViews, bufferView)
		gltfImage.BufferView = &bufferViewIndex
		if gltfImage.MimeType == "" {
			gltfImage.MimeType = "image/png"
		}
	} else {
		gltfImage.URI = filepath.ToSlash(img.Path)
		gltfImage.MimeType = ""
	}
	doc.Images = append(doc.Images, gltfImage)

	return &gltf.Texture{Source: &imageIndex}
}

func textureIndex(ctx *buildContext, doc *gltf.Document, img *Image) uint32 {
	if index, ok := ctx.textures[img]; ok {
		return index
	}
	index := uint32(len(doc.Textures))
	doc.Textures = append(doc.Textures, buildTexture(doc, doc.Buffers[0], img))
	ctx.textures[img] = index
	return index
}

// fillMaterials adds the materials of md's slots that are not in doc yet.
func fillMaterials(ctx *buildContext, doc *gltf.Document, md *MeshData) error {
	useExtension := false

	for _, slot := range md.Slots {
		mtl := slot.Material
		if mtl == nil {
			continue
		}
		if _, ok := ctx.materials[mtl]; ok {
			continue
		}

		gltfMaterial := &gltf.Material{
			Name:        mtl.Name,
			DoubleSided: mtl.DoubleSided,
			AlphaMode:   gltf.AlphaOpaque,
			PBRMetallicRoughness: &gltf.PBRMetallicRoughness{
				BaseColorFactor: &[4]float32{mtl.DiffuseColor[0], mtl.DiffuseColor[1], mtl.DiffuseColor[2], mtl.Alpha},
			},
			EmissiveFactor: [3]float32(mtl.EmissiveColor),
			Extensions:     make(map[string]interface{}),
		}
		if mtl.Blended() {
			gltfMaterial.AlphaMode = gltf.AlphaBlend
		}
		metallic := mtl.Metallic
		roughness := mtl.Roughness
		gltfMaterial.PBRMetallicRoughness.MetallicFactor = &metallic
		gltfMaterial.PBRMetallicRoughness.RoughnessFactor = &roughness

		if mtl.SpecularColor != (vec3.T{1, 1, 1}) {
			gltfMaterial.Extensions[specular.ExtensionName] = &specular.PBRSpecularGlossiness{
				DiffuseFactor:  &[4]float32{mtl.DiffuseColor[0], mtl.DiffuseColor[1], mtl.DiffuseColor[2], mtl.Alpha},
				SpecularFactor: &[3]float32{mtl.SpecularColor[0], mtl.SpecularColor[1], mtl.SpecularColor[2]},
			}
			useExtension = true
		}

		slots := make([]interface{}, len(mtl.TextureSlots))
		for i, ts := range mtl.TextureSlots {
			if ts == nil {
				continue
			}
			st := map[string]interface{}{
				"enabled":            ts.Enabled,
				"useMapAlpha":        ts.UseMapAlpha,
				"useMapColorDiffuse": ts.UseMapColorDiffuse,
				"blendType":          string(ts.BlendType),
			}
			slots[i] = st
			if ts.Texture == nil || ts.Texture.Image == nil {
				continue
			}
			index := textureIndex(ctx, doc, ts.Texture.Image)
			switch i {
			case TEXTURE_ROLE_BASE_COLOR:
				gltfMaterial.PBRMetallicRoughness.BaseColorTexture = &gltf.TextureInfo{Index: index}
			case TEXTURE_ROLE_NORMAL:
				gltfMaterial.NormalTexture = &gltf.NormalTexture{Index: uint32Ptr(index)}
			case TEXTURE_ROLE_EMISSIVE:
				gltfMaterial.EmissiveTexture = &gltf.TextureInfo{Index: index}
			case TEXTURE_ROLE_OCCLUSION:
				gltfMaterial.OcclusionTexture = &gltf.OcclusionTexture{Index: uint32Ptr(index)}
			case TEXTURE_ROLE_METALLIC_ROUGHNESS:
				gltfMaterial.PBRMetallicRoughness.MetallicRoughnessTexture = &gltf.TextureInfo{Index: index}
			default:
				st["texture"] = index
			}
		}
		gltfMaterial.Extras = map[string]interface{}{
			extrasKey: map[string]interface{}{
				"transparencyMethod": string(mtl.TransparencyMethod),
				"specularColor":      []float32{mtl.SpecularColor[0], mtl.SpecularColor[1], mtl.SpecularColor[2]},
				"textureSlots":       slots,
			},
		}

		ctx.materials[mtl] = uint32(len(doc.Materials))
		doc.Materials = append(doc.Materials, gltfMaterial)
	}

	if useExtension {
		for _, ext := range doc.ExtensionsUsed {
			if ext == specular.ExtensionName {
				return nil
			}
		}
		doc.ExtensionsUsed = append(doc.ExtensionsUsed, specular.ExtensionName)
	}

	return nil
}

func uint32Ptr(v uint32) *uint32 {
	return &v
}
