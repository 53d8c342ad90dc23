package avmat

// OneTexPerMat disables every texture slot after the first; the target
// platform only samples one texture per material.
type OneTexPerMat struct{}

func (OneTexPerMat) Name() string {
	return "one-tex"
}

func (OneTexPerMat) Desc() string {
	return "Have all material slots ignore extra texture slots."
}

func (OneTexPerMat) Poll(s *Scene) bool {
	return hasArmatureAndMeshes(s)
}

func (OneTexPerMat) Execute(env *Env) (*Report, error) {
	if err := env.Scene.SetDefaultStage(); err != nil {
		return nil, err
	}
	n := forExtraTextureSlots(env.Scene, func(ts *TextureSlot) bool {
		if !ts.Enabled {
			return false
		}
		ts.Enabled = false
		return true
	})
	return infoReport(n, "All materials have one texture now."), nil
}

// OneTexPerMatOnly clears the texture of every slot after the first instead
// of disabling it.
type OneTexPerMatOnly struct{}

func (OneTexPerMatOnly) Name() string {
	return "one-tex-only"
}

func (OneTexPerMatOnly) Desc() string {
	return "Removes extra textures from every material instead of disabling them."
}

func (OneTexPerMatOnly) Poll(s *Scene) bool {
	return hasArmatureAndMeshes(s)
}

func (OneTexPerMatOnly) Execute(env *Env) (*Report, error) {
	if err := env.Scene.SetDefaultStage(); err != nil {
		return nil, err
	}
	n := forExtraTextureSlots(env.Scene, func(ts *TextureSlot) bool {
		if ts.Texture == nil {
			return false
		}
		ts.Texture = nil
		return true
	})
	return infoReport(n, "All materials have one texture now."), nil
}

// forExtraTextureSlots calls fn for every non-empty texture slot past the
// first on every mesh material and counts the calls that changed something.
func forExtraTextureSlots(s *Scene, fn func(ts *TextureSlot) bool) int {
	changed := 0
	for _, obj := range s.Meshes() {
		for _, slot := range obj.Data.Slots {
			if slot.Material == nil {
				continue
			}
			for i, ts := range slot.Material.TextureSlots {
				if i > 0 && ts != nil && fn(ts) {
					changed++
				}
			}
		}
	}
	return changed
}

// StandardizeTextures enables colour and alpha on every texture, sets the
// blend type to multiply and switches materials to Z transparency.
type StandardizeTextures struct{}

func (StandardizeTextures) Name() string {
	return "standardize"
}

func (StandardizeTextures) Desc() string {
	return "Enables color and alpha on every texture, sets the blend method to multiply and the transparency to Z transparency."
}

func (StandardizeTextures) Poll(s *Scene) bool {
	return hasArmatureAndMeshes(s)
}

func (StandardizeTextures) Execute(env *Env) (*Report, error) {
	if err := env.Scene.SetDefaultStage(); err != nil {
		return nil, err
	}
	n := 0
	for _, obj := range env.Scene.Meshes() {
		for _, slot := range obj.Data.Slots {
			m := slot.Material
			if m == nil {
				continue
			}
			m.TransparencyMethod = TRANSPARENCY_Z
			m.Alpha = 1
			for _, ts := range m.TextureSlots {
				if ts == nil {
					continue
				}
				ts.UseMapAlpha = true
				ts.UseMapColorDiffuse = true
				ts.BlendType = BLEND_MULTIPLY
			}
			n++
		}
	}
	return infoReport(n, "All textures are now standardized."), nil
}
