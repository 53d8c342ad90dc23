package avmat

type ObjectType int

const (
	OBJECT_TYPE_EMPTY    ObjectType = 0
	OBJECT_TYPE_MESH     ObjectType = 1
	OBJECT_TYPE_ARMATURE ObjectType = 2
)

func (t ObjectType) String() string {
	switch t {
	case OBJECT_TYPE_MESH:
		return "MESH"
	case OBJECT_TYPE_ARMATURE:
		return "ARMATURE"
	default:
		return "EMPTY"
	}
}

type Mode int

const (
	MODE_OBJECT Mode = 0
	MODE_EDIT   Mode = 1
)

func (m Mode) String() string {
	if m == MODE_EDIT {
		return "EDIT"
	}
	return "OBJECT"
}

type TransparencyMethod string

const (
	TRANSPARENCY_MASK     TransparencyMethod = "MASK"
	TRANSPARENCY_Z        TransparencyMethod = "Z_TRANSPARENCY"
	TRANSPARENCY_RAYTRACE TransparencyMethod = "RAYTRACE"
)

type BlendType string

const (
	BLEND_MIX      BlendType = "MIX"
	BLEND_MULTIPLY BlendType = "MULTIPLY"
	BLEND_ADD      BlendType = "ADD"
	BLEND_SUBTRACT BlendType = "SUBTRACT"
	BLEND_SCREEN   BlendType = "SCREEN"
)

type ReportLevel string

const (
	REPORT_INFO ReportLevel = "INFO"
)

// DefaultMaterialName names the material given to faces that reference none.
const DefaultMaterialName = "Material"

// DefaultArmatureName names the armature object created for glTF skins without a name.
const DefaultArmatureName = "Armature"
