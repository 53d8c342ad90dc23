package avmat

import (
	"fmt"
	"math"

	dvec3 "github.com/flywave/go3d/float64/vec3"

	"github.com/flywave/go3d/vec2"
	"github.com/flywave/go3d/vec3"
)

// Face is a triangle that references one material slot of its mesh by index.
type Face struct {
	Vertex        [3]uint32 `json:"vertex"`
	MaterialIndex int       `json:"materialIndex"`
}

// MaterialSlot is a mesh-local binding to one material. Its display name is
// the material's name.
type MaterialSlot struct {
	Material *Material `json:"material"`
}

func (s *MaterialSlot) Name() string {
	if s == nil || s.Material == nil {
		return ""
	}
	return s.Material.Name
}

type MeshData struct {
	Vertices  []vec3.T        `json:"vertices"`
	Normals   []vec3.T        `json:"normals,omitempty"`
	TexCoords []vec2.T        `json:"texCoords,omitempty"`
	Slots     []*MaterialSlot `json:"slots,omitempty"`
	Faces     []*Face         `json:"faces,omitempty"`
}

func (md *MeshData) SlotCount() int {
	return len(md.Slots)
}

// SlotNames returns the slot display names in slot order.
func (md *MeshData) SlotNames() []string {
	names := make([]string, len(md.Slots))
	for i, s := range md.Slots {
		names[i] = s.Name()
	}
	return names
}

// AppendSlot adds a slot for m and returns its index.
func (md *MeshData) AppendSlot(m *Material) int {
	md.Slots = append(md.Slots, &MaterialSlot{Material: m})
	return len(md.Slots) - 1
}

// RemoveSlot deletes slot i. Faces on later slots shift down by one and faces
// on the removed slot fall back to the previous slot.
func (md *MeshData) RemoveSlot(i int) error {
	if i < 0 || i >= len(md.Slots) {
		return fmt.Errorf("remove slot %d of %d: %w", i, len(md.Slots), ErrInvalidSlot)
	}
	md.Slots = append(md.Slots[:i], md.Slots[i+1:]...)
	for _, f := range md.Faces {
		if f.MaterialIndex > i || (f.MaterialIndex == i && i > 0) {
			f.MaterialIndex--
		}
	}
	return nil
}

// ClearSlots removes every slot, last first.
func (md *MeshData) ClearSlots() {
	for len(md.Slots) > 0 {
		md.RemoveSlot(len(md.Slots) - 1)
	}
}

// FaceCount returns the number of faces per slot index.
func (md *MeshData) FaceCount() []int {
	counts := make([]int, len(md.Slots))
	for _, f := range md.Faces {
		if f.MaterialIndex >= 0 && f.MaterialIndex < len(counts) {
			counts[f.MaterialIndex]++
		}
	}
	return counts
}

func (md *MeshData) GetBoundbox() *[6]float64 {
	minX := math.MaxFloat64
	minY := math.MaxFloat64
	minZ := math.MaxFloat64
	maxX := -math.MaxFloat64
	maxY := -math.MaxFloat64
	maxZ := -math.MaxFloat64
	for i := range md.Vertices {
		minX = math.Min(minX, float64(md.Vertices[i][0]))
		minY = math.Min(minY, float64(md.Vertices[i][1]))
		minZ = math.Min(minZ, float64(md.Vertices[i][2]))

		maxX = math.Max(maxX, float64(md.Vertices[i][0]))
		maxY = math.Max(maxY, float64(md.Vertices[i][1]))
		maxZ = math.Max(maxZ, float64(md.Vertices[i][2]))
	}
	return &[6]float64{minX, minY, minZ, maxX, maxY, maxZ}
}

type Object struct {
	Name        string     `json:"name"`
	Type        ObjectType `json:"type"`
	Data        *MeshData  `json:"data,omitempty"`
	Translation [3]float32 `json:"translation"`
	Rotation    [4]float32 `json:"rotation"`
	Scale       [3]float32 `json:"scale"`
}

// NewMeshObject returns a mesh object with identity transform and empty data.
func NewMeshObject(name string) *Object {
	return &Object{
		Name:     name,
		Type:     OBJECT_TYPE_MESH,
		Data:     &MeshData{},
		Rotation: [4]float32{0, 0, 0, 1},
		Scale:    [3]float32{1, 1, 1},
	}
}

func (o *Object) IsMesh() bool {
	return o.Type == OBJECT_TYPE_MESH && o.Data != nil
}

// MaterialSlots returns the slots of a mesh object, nil for other types.
func (o *Object) MaterialSlots() []*MaterialSlot {
	if !o.IsMesh() {
		return nil
	}
	return o.Data.Slots
}

// ComputeBBox joins the bounds of every mesh with vertices.
func (s *Scene) ComputeBBox() dvec3.Box {
	meshes := s.Meshes()
	bbox := dvec3.MinBox
	found := false
	for _, o := range meshes {
		if len(o.Data.Vertices) == 0 {
			continue
		}
		bx := o.Data.GetBoundbox()
		min := dvec3.T{bx[0], bx[1], bx[2]}
		max := dvec3.T{bx[3], bx[4], bx[5]}
		bbx := dvec3.Box{Min: min, Max: max}
		bbox.Join(&bbx)
		found = true
	}
	if !found {
		return dvec3.Box{}
	}
	return bbox
}
