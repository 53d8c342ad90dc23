package avmat

import "errors"

var (
	// ErrNotRunnable indicates an operator's availability check failed.
	ErrNotRunnable = errors.New("operator not runnable")

	// ErrInvalidSlot indicates a material slot index out of range.
	ErrInvalidSlot = errors.New("invalid material slot")

	// ErrNotMesh indicates a mesh-only primitive was called on another object type.
	ErrNotMesh = errors.New("object is not a mesh")

	// ErrWrongMode indicates a primitive was called in the wrong object/edit mode.
	ErrWrongMode = errors.New("wrong mode")

	// ErrInvalidIndex indicates a glTF index that points past the end of its array.
	ErrInvalidIndex = errors.New("glTF index out of range")

	// ErrUnsupportedPrimitive indicates a glTF primitive that is not a triangle list.
	ErrUnsupportedPrimitive = errors.New("unsupported primitive")
)
