package avmat

import "testing"

// newLayeredScene returns a scene whose only mesh material carries three
// enabled texture slots and a nil one.
func newLayeredScene() (*Scene, *Material) {
	s := newAvatarScene()
	m := addMaterial(s, "Body", red, "diffuse.png", "normal.png", "emission.png")
	m.TextureSlots = append(m.TextureSlots, nil)
	plain := addMaterial(s, "Plain", blue)
	addMesh(s, "Body", []*Material{m, plain}, 0, 1)
	return s, m
}

func TestOneTexPerMat(t *testing.T) {
	s, m := newLayeredScene()

	rep, err := Run(OneTexPerMat{}, &Env{Scene: s})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Message != "All materials have one texture now." || rep.Count != 2 {
		t.Errorf("report = %+v", rep)
	}
	if !m.TextureSlots[0].Enabled {
		t.Error("first texture slot should stay enabled")
	}
	for i := 1; i < 3; i++ {
		ts := m.TextureSlots[i]
		if ts.Enabled {
			t.Errorf("slot %d still enabled", i)
		}
		if ts.Texture == nil {
			t.Errorf("slot %d lost its texture", i)
		}
	}

	again, _ := Run(OneTexPerMat{}, &Env{Scene: s})
	if again.Count != 0 {
		t.Errorf("second run changed %d slots", again.Count)
	}
}

func TestOneTexPerMatOnly(t *testing.T) {
	s, m := newLayeredScene()

	rep, err := Run(OneTexPerMatOnly{}, &Env{Scene: s})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Count != 2 {
		t.Errorf("cleared %d textures, want 2", rep.Count)
	}
	if m.TextureSlots[0].ImagePath() != "diffuse.png" {
		t.Error("first texture should be kept")
	}
	for i := 1; i < 3; i++ {
		if m.TextureSlots[i].Texture != nil {
			t.Errorf("slot %d still has a texture", i)
		}
	}
	if !m.HasTexture() {
		t.Error("material should still have its first texture")
	}
}

func TestStandardizeTextures(t *testing.T) {
	s, m := newLayeredScene()
	m.Alpha = 0.3
	m.TextureSlots[1].BlendType = BLEND_ADD

	rep, err := Run(StandardizeTextures{}, &Env{Scene: s})
	if err != nil {
		t.Fatal(err)
	}
	if rep.Message != "All textures are now standardized." || rep.Count != 2 {
		t.Errorf("report = %+v", rep)
	}
	for _, mat := range s.Materials {
		if mat.TransparencyMethod != TRANSPARENCY_Z {
			t.Errorf("%s transparency = %s", mat.Name, mat.TransparencyMethod)
		}
		if mat.Alpha != 1 {
			t.Errorf("%s alpha = %v", mat.Name, mat.Alpha)
		}
		for i, ts := range mat.TextureSlots {
			if ts == nil {
				continue
			}
			if !ts.UseMapAlpha || !ts.UseMapColorDiffuse || ts.BlendType != BLEND_MULTIPLY {
				t.Errorf("%s slot %d = %+v", mat.Name, i, ts)
			}
		}
	}
}

func TestMaterialTextureHelpers(t *testing.T) {
	m := NewMaterial("M")
	if m.HasTexture() || m.GetTexture() != nil {
		t.Error("new material should have no texture")
	}
	ts := m.AddTexture(nil)
	if ts.ImagePath() != "" || m.HasTexture() {
		t.Error("slot without image should not count as a texture")
	}
	img := &Image{Name: "skin.png", Path: "tex/skin.png"}
	m.AddTexture(img).Enabled = false
	if m.HasTexture() {
		t.Error("disabled slot should not count as a texture")
	}
	if tex := m.GetTexture(); tex == nil || tex.Image != img {
		t.Error("GetTexture should return the first bound texture")
	}
	var nilSlot *TextureSlot
	if nilSlot.ImagePath() != "" {
		t.Error("nil slot should have no path")
	}
}
