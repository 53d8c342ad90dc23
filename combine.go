package avmat

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// duplicateSuffixes are stripped from retained material names, longest first.
var duplicateSuffixes = []string{". 001", " .001", ".001"}

// CombineMaterials merges material slots whose materials render the same,
// reducing draw calls without changing how the avatar looks.
type CombineMaterials struct{}

func (CombineMaterials) Name() string {
	return "combine"
}

func (CombineMaterials) Desc() string {
	return "Combines similar materials into one, reducing draw calls."
}

func (CombineMaterials) Poll(s *Scene) bool {
	return hasArmatureAndMeshes(s)
}

func (CombineMaterials) Execute(env *Env) (*Report, error) {
	s := env.Scene
	log := env.logger()

	if err := s.SetDefaultStage(); err != nil {
		return nil, err
	}
	groups := BuildGroups(s)
	log.Debug("fingerprinted material slots",
		zap.Int("groups", groups.Len()),
		zap.Int("mergeable", len(groups.Mergeable())))

	if _, err := s.SwitchMode(MODE_OBJECT); err != nil {
		return nil, err
	}

	merged := 0
	for _, obj := range s.Meshes() {
		s.DeselectAll()
		if err := s.Select(obj); err != nil {
			return nil, err
		}
		for _, g := range groups.Mergeable() {
			n, err := mergeGroup(s, obj, g)
			if err != nil {
				return nil, err
			}
			merged += n
		}

		if _, err := s.SwitchMode(MODE_OBJECT); err != nil {
			return nil, err
		}
		s.DeselectAll()
		if err := s.Select(obj); err != nil {
			return nil, err
		}

		removed, err := CompactSlots(obj)
		if err != nil {
			return nil, err
		}
		renamed := CleanMaterialNames(s, obj)
		log.Debug("cleaned material slots",
			zap.String("object", obj.Name),
			zap.Int("removed", removed),
			zap.Int("renamed", renamed),
			zap.Int("slots", obj.Data.SlotCount()))
	}

	if merged == 0 {
		return infoReport(0, "No materials combined."), nil
	}
	return infoReport(merged, "Combined %d materials!", merged), nil
}

// mergeGroup reassigns the faces of every slot of obj that belongs to g to
// the last such slot. It returns the number of slots merged, zero when obj
// holds fewer than two of them.
func mergeGroup(s *Scene, obj *Object, g *Group) (int, error) {
	var present []int
	for i, slot := range obj.Data.Slots {
		if g.Has(slot.Material) {
			present = append(present, i)
		}
	}
	if len(present) < 2 {
		return 0, nil
	}

	edit, err := s.SwitchMode(MODE_EDIT)
	if err != nil {
		return 0, err
	}
	edit.DeselectAll()
	for _, idx := range present {
		if err := edit.SetActiveSlot(idx); err != nil {
			return 0, err
		}
		edit.SelectSlot()
	}
	if _, err := edit.AssignSlot(); err != nil {
		return 0, err
	}
	edit.DeselectAll()
	return len(present), nil
}

// CompactSlots rebuilds the slot list of obj so it only holds materials that
// faces use, in first-use order, and remaps every face. It returns the number
// of slots dropped.
func CompactSlots(obj *Object) (int, error) {
	if !obj.IsMesh() {
		return 0, fmt.Errorf("compact %q: %w", obj.Name, ErrNotMesh)
	}
	md := obj.Data
	names := md.SlotNames()
	before := len(names)

	// capture by name before the slot list changes
	materials := make(map[string]*Material, len(md.Slots))
	for _, slot := range md.Slots {
		if _, ok := materials[slot.Name()]; !ok {
			materials[slot.Name()] = slot.Material
		}
	}
	var used []string
	seen := make(map[string]bool)
	faceMats := make([]string, len(md.Faces))
	for i, f := range md.Faces {
		if f.MaterialIndex < 0 || f.MaterialIndex >= len(names) {
			return 0, fmt.Errorf("%s: face %d uses slot %d of %d: %w", obj.Name, i, f.MaterialIndex, len(names), ErrInvalidSlot)
		}
		name := names[f.MaterialIndex]
		faceMats[i] = name
		if !seen[name] {
			seen[name] = true
			used = append(used, name)
		}
	}

	md.ClearSlots()
	index := make(map[string]int, len(used))
	for _, name := range used {
		index[name] = md.AppendSlot(materials[name])
	}
	for i, f := range md.Faces {
		f.MaterialIndex = index[faceMats[i]]
	}
	return before - len(used), nil
}

// CleanMaterialNames strips a ".001" style duplicate suffix from the
// materials on obj's slots. Unused materials are purged first so the plain
// name is free. It returns the number of materials renamed.
func CleanMaterialNames(s *Scene, obj *Object) int {
	purged := false
	renamed := 0
	for _, slot := range obj.MaterialSlots() {
		if slot.Material == nil {
			continue
		}
		name := slot.Material.Name
		for _, suffix := range duplicateSuffixes {
			if !strings.HasSuffix(name, suffix) {
				continue
			}
			if !purged {
				s.PurgeOrphanMaterials()
				purged = true
			}
			if s.RenameMaterial(slot.Material, strings.TrimSuffix(name, suffix)) != name {
				renamed++
			}
			break
		}
	}
	return renamed
}
