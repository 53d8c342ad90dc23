package avmat

import (
	"fmt"
	"regexp"
)

var numericSuffix = regexp.MustCompile(`\.[0-9]{3,}$`)

// Scene is the in-memory scene graph the operators work on. It owns the
// material registry, the object list, the current mode and object selection.
type Scene struct {
	Name      string
	Objects   []*Object
	Materials []*Material

	mode     Mode
	active   *Object
	selected map[*Object]bool
	edit     *EditMesh
}

func NewScene(name string) *Scene {
	return &Scene{Name: name, selected: make(map[*Object]bool)}
}

// uniqueName returns name, or the first free "base.NNN" variant of it.
func uniqueName(name string, taken func(string) bool) string {
	if !taken(name) {
		return name
	}
	base := numericSuffix.ReplaceAllString(name, "")
	for i := 1; ; i++ {
		candidate := fmt.Sprintf("%s.%03d", base, i)
		if !taken(candidate) {
			return candidate
		}
	}
}

// AddObject appends o, renaming it if an object of that name exists.
func (s *Scene) AddObject(o *Object) *Object {
	o.Name = uniqueName(o.Name, func(n string) bool { return s.Object(n) != nil })
	s.Objects = append(s.Objects, o)
	return o
}

func (s *Scene) Object(name string) *Object {
	for _, o := range s.Objects {
		if o.Name == name {
			return o
		}
	}
	return nil
}

// AddMaterial registers m, renaming it if a material of that name exists.
func (s *Scene) AddMaterial(m *Material) *Material {
	m.Name = uniqueName(m.Name, func(n string) bool { return s.Material(n) != nil })
	s.Materials = append(s.Materials, m)
	return m
}

func (s *Scene) Material(name string) *Material {
	for _, m := range s.Materials {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// RenameMaterial renames m to name, or to a free variant of it when another
// material holds the name. The final name is returned.
func (s *Scene) RenameMaterial(m *Material, name string) string {
	m.Name = uniqueName(name, func(n string) bool {
		other := s.Material(n)
		return other != nil && other != m
	})
	return m.Name
}

// MaterialUsers counts the slots across all objects showing m.
func (s *Scene) MaterialUsers(m *Material) int {
	users := 0
	for _, o := range s.Objects {
		for _, slot := range o.MaterialSlots() {
			if slot.Material == m {
				users++
			}
		}
	}
	return users
}

// PurgeOrphanMaterials drops materials no slot refers to and returns how
// many were dropped.
func (s *Scene) PurgeOrphanMaterials() int {
	kept := s.Materials[:0]
	purged := 0
	for _, m := range s.Materials {
		if s.MaterialUsers(m) == 0 {
			purged++
			continue
		}
		kept = append(kept, m)
	}
	for i := len(kept); i < len(s.Materials); i++ {
		s.Materials[i] = nil
	}
	s.Materials = kept
	return purged
}

// Meshes returns the mesh objects in scene order.
func (s *Scene) Meshes() []*Object {
	var meshes []*Object
	for _, o := range s.Objects {
		if o.IsMesh() {
			meshes = append(meshes, o)
		}
	}
	return meshes
}

// Armature returns the first armature object, or nil.
func (s *Scene) Armature() *Object {
	for _, o := range s.Objects {
		if o.Type == OBJECT_TYPE_ARMATURE {
			return o
		}
	}
	return nil
}

func (s *Scene) Mode() Mode {
	return s.mode
}

func (s *Scene) Active() *Object {
	return s.active
}

// SetActive makes o the active object. Only allowed in object mode.
func (s *Scene) SetActive(o *Object) error {
	if s.mode != MODE_OBJECT {
		return fmt.Errorf("set active %q: %w", o.Name, ErrWrongMode)
	}
	s.active = o
	return nil
}

// Select adds o to the selection and makes it active.
func (s *Scene) Select(o *Object) error {
	if err := s.SetActive(o); err != nil {
		return err
	}
	if s.selected == nil {
		s.selected = make(map[*Object]bool)
	}
	s.selected[o] = true
	return nil
}

// DeselectAll clears object selection; the active object is kept.
func (s *Scene) DeselectAll() {
	s.selected = make(map[*Object]bool)
}

func (s *Scene) IsSelected(o *Object) bool {
	return s.selected[o]
}

// Selected returns the selected objects in scene order.
func (s *Scene) Selected() []*Object {
	var out []*Object
	for _, o := range s.Objects {
		if s.selected[o] {
			out = append(out, o)
		}
	}
	return out
}

// SwitchMode enters or leaves edit mode on the active object. Switching to
// the current mode is a no-op.
func (s *Scene) SwitchMode(mode Mode) (*EditMesh, error) {
	if mode == s.mode {
		return s.edit, nil
	}
	if mode == MODE_OBJECT {
		s.edit = nil
		s.mode = MODE_OBJECT
		return nil, nil
	}
	if s.active == nil || !s.active.IsMesh() {
		return nil, fmt.Errorf("enter edit mode: %w", ErrNotMesh)
	}
	s.edit = newEditMesh(s.active)
	s.mode = MODE_EDIT
	return s.edit, nil
}

// SetDefaultStage returns the scene to object mode with nothing selected and
// the armature, if any, active.
func (s *Scene) SetDefaultStage() error {
	if _, err := s.SwitchMode(MODE_OBJECT); err != nil {
		return err
	}
	s.DeselectAll()
	s.active = nil
	if arm := s.Armature(); arm != nil {
		return s.Select(arm)
	}
	return nil
}
