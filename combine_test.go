package avmat

import (
	"fmt"
	"testing"
)

func runCombine(t *testing.T, s *Scene) *Report {
	t.Helper()
	rep, err := Run(CombineMaterials{}, &Env{Scene: s})
	if err != nil {
		t.Fatalf("combine: %v", err)
	}
	return rep
}

func TestCombineMergesEqualMaterials(t *testing.T) {
	s := newAvatarScene()
	a := addMaterial(s, "A", red)
	b := addMaterial(s, "B", red)
	c := addMaterial(s, "C", blue, "tex.png")
	body := addMesh(s, "Body", []*Material{a, b, c}, 0, 1, 1, 2)

	rep := runCombine(t, s)
	if rep.Message != "Combined 2 materials!" || rep.Count != 2 {
		t.Errorf("report = %+v", rep)
	}
	if rep.Level != REPORT_INFO {
		t.Errorf("level = %s, want INFO", rep.Level)
	}
	if got := body.Data.SlotNames(); !equalStrings(got, []string{"B", "C"}) {
		t.Errorf("slots = %v, want [B C]", got)
	}
	if got := faceMaterials(body); !equalStrings(got, []string{"B", "B", "B", "C"}) {
		t.Errorf("faces = %v", got)
	}
	if s.Mode() != MODE_OBJECT {
		t.Errorf("mode after run = %v", s.Mode())
	}
}

func TestCombineAllUnique(t *testing.T) {
	s := newAvatarScene()
	a := addMaterial(s, "A", red)
	b := addMaterial(s, "B", blue)
	c := addMaterial(s, "C", blue, "tex.png")
	body := addMesh(s, "Body", []*Material{a, b, c}, 0, 1, 2)

	rep := runCombine(t, s)
	if rep.Message != "No materials combined." || rep.Count != 0 {
		t.Errorf("report = %+v", rep)
	}
	if got := body.Data.SlotNames(); !equalStrings(got, []string{"A", "B", "C"}) {
		t.Errorf("slots = %v", got)
	}
}

func TestCombineIsIdempotent(t *testing.T) {
	s := newAvatarScene()
	a := addMaterial(s, "A", red)
	b := addMaterial(s, "B", red)
	c := addMaterial(s, "C", red)
	d := addMaterial(s, "D", blue, "tex.png")
	e := addMaterial(s, "E", blue, "tex.png")
	addMesh(s, "Body", []*Material{a, b, d, c, e}, 0, 1, 2, 3, 4, 4)
	addMesh(s, "Head", []*Material{e, a}, 1, 0)

	first := runCombine(t, s)
	if first.Count != 5 {
		t.Errorf("first run merged %d, want 5", first.Count)
	}
	second := runCombine(t, s)
	if second.Message != "No materials combined." {
		t.Errorf("second run = %q", second.Message)
	}
}

func TestCombineRestoresPlainName(t *testing.T) {
	s := newAvatarScene()
	skin := addMaterial(s, "Skin", red, "skin.png")
	dup := addMaterial(s, "Skin", red, "skin.png")
	eye := addMaterial(s, "Eye", blue, "eye.png")
	body := addMesh(s, "Body", []*Material{skin, dup, eye}, 0, 1, 2)

	if dup.Name != "Skin.001" {
		t.Fatalf("fixture name = %q", dup.Name)
	}
	runCombine(t, s)

	if got := body.Data.SlotNames(); !equalStrings(got, []string{"Skin", "Eye"}) {
		t.Errorf("slots = %v, want [Skin Eye]", got)
	}
	if body.Data.Slots[0].Material != dup {
		t.Error("the retained slot should hold the renamed duplicate")
	}
	if s.Material("Skin") != dup {
		t.Error("orphaned original should be purged")
	}
}

func TestCombineRenameDoesNotCrossGroups(t *testing.T) {
	s := newAvatarScene()
	skin := addMaterial(s, "Skin", red)
	dup := addMaterial(s, "Skin", blue)
	foo := addMaterial(s, "Foo", red)
	body := addMesh(s, "Body", []*Material{skin, dup}, 1, 1)
	head := addMesh(s, "Head", []*Material{dup, foo}, 0, 1)

	rep := runCombine(t, s)
	if rep.Message != "No materials combined." {
		t.Errorf("report = %+v", rep)
	}
	if dup.Name != "Skin" {
		t.Errorf("duplicate name = %q, want Skin", dup.Name)
	}
	if got := body.Data.SlotNames(); !equalStrings(got, []string{"Skin"}) {
		t.Errorf("body slots = %v", got)
	}
	if got := head.Data.SlotNames(); !equalStrings(got, []string{"Skin", "Foo"}) {
		t.Errorf("head slots = %v", got)
	}
	md := head.Data
	if md.Slots[md.Faces[0].MaterialIndex].Material != dup || md.Slots[md.Faces[1].MaterialIndex].Material != foo {
		t.Error("head faces should keep their own materials")
	}
}

func TestCombineKeepsFaceAppearance(t *testing.T) {
	s := newAvatarScene()
	var mats []*Material
	for i := 0; i < 6; i++ {
		color := red
		if i%2 == 1 {
			color = blue
		}
		mats = append(mats, addMaterial(s, fmt.Sprintf("M%d", i), color))
	}
	body := addMesh(s, "Body", mats, 5, 0, 3, 1, 2, 4, 0, 5)
	head := addMesh(s, "Head", []*Material{mats[1], mats[2]}, 0, 1, 1)

	before := map[*Object][]string{}
	for _, obj := range []*Object{body, head} {
		for _, f := range obj.Data.Faces {
			before[obj] = append(before[obj], Fingerprint(obj.Data.Slots[f.MaterialIndex].Material))
		}
	}

	runCombine(t, s)

	for _, obj := range []*Object{body, head} {
		md := obj.Data
		counts := md.FaceCount()
		seen := map[string]bool{}
		for i, slot := range md.Slots {
			if counts[i] == 0 {
				t.Errorf("%s slot %d is unused", obj.Name, i)
			}
			key := Fingerprint(slot.Material)
			if seen[key] {
				t.Errorf("%s holds two slots with fingerprint %q", obj.Name, key)
			}
			seen[key] = true
		}
		for i, f := range md.Faces {
			if f.MaterialIndex < 0 || f.MaterialIndex >= md.SlotCount() {
				t.Fatalf("%s face %d index %d out of range", obj.Name, i, f.MaterialIndex)
			}
			if got := Fingerprint(md.Slots[f.MaterialIndex].Material); got != before[obj][i] {
				t.Errorf("%s face %d changed appearance", obj.Name, i)
			}
		}
	}
	if body.Data.SlotCount() != 2 || head.Data.SlotCount() != 2 {
		t.Errorf("slot counts = %d, %d, want 2, 2", body.Data.SlotCount(), head.Data.SlotCount())
	}
}

func TestCompactSlots(t *testing.T) {
	s := NewScene("test")
	a := addMaterial(s, "A", red)
	b := addMaterial(s, "B", red)
	c := addMaterial(s, "C", blue)
	d := addMaterial(s, "D", blue)
	obj := addMesh(s, "Body", []*Material{a, b, c, d}, 2, 0, 2, 3)

	before := faceMaterials(obj)
	removed, err := CompactSlots(obj)
	if err != nil {
		t.Fatal(err)
	}
	if removed != 1 {
		t.Errorf("removed %d slots, want 1", removed)
	}
	if got := obj.Data.SlotNames(); !equalStrings(got, []string{"C", "A", "D"}) {
		t.Errorf("slots = %v, want first-use order [C A D]", got)
	}
	if got := faceMaterials(obj); !equalStrings(got, before) {
		t.Errorf("faces = %v, want %v", got, before)
	}

	if _, err := CompactSlots(&Object{Name: "Rig", Type: OBJECT_TYPE_ARMATURE}); err == nil {
		t.Error("compacting a non-mesh should fail")
	}
	obj.Data.Faces[0].MaterialIndex = 9
	if _, err := CompactSlots(obj); err == nil {
		t.Error("out of range face index should fail")
	}
}

func TestCleanMaterialNames(t *testing.T) {
	tests := []struct {
		name    string
		want    string
		renamed int
	}{
		{"Hair.001", "Hair", 1},
		{"Hair. 001", "Hair", 1},
		{"Hair .001", "Hair", 1},
		{"Hair.002", "Hair.002", 0},
		{"Hair", "Hair", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newAvatarScene()
			m := addMaterial(s, tt.name, red)
			obj := addMesh(s, "Body", []*Material{m}, 0)

			if n := CleanMaterialNames(s, obj); n != tt.renamed {
				t.Errorf("renamed %d, want %d", n, tt.renamed)
			}
			if m.Name != tt.want {
				t.Errorf("name = %q, want %q", m.Name, tt.want)
			}
		})
	}
}

func TestCleanMaterialNamesKeepsUsedOriginal(t *testing.T) {
	s := newAvatarScene()
	skin := addMaterial(s, "Skin", red)
	dup := addMaterial(s, "Skin", blue)
	body := addMesh(s, "Body", []*Material{dup}, 0)
	addMesh(s, "Head", []*Material{skin}, 0)

	if n := CleanMaterialNames(s, body); n != 0 {
		t.Errorf("renamed %d, want 0", n)
	}
	if dup.Name != "Skin.001" || skin.Name != "Skin" {
		t.Errorf("names = %q, %q", skin.Name, dup.Name)
	}
}
