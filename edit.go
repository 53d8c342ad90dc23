package avmat

import "fmt"

// EditMesh is the edit-mode view of one mesh object. It owns the face
// selection and the active slot index that slot assignment works on.
type EditMesh struct {
	obj        *Object
	selected   []bool
	activeSlot int
}

func newEditMesh(obj *Object) *EditMesh {
	return &EditMesh{obj: obj, selected: make([]bool, len(obj.Data.Faces))}
}

func (e *EditMesh) ActiveSlot() int {
	return e.activeSlot
}

// SetActiveSlot changes the slot that AssignSlot writes.
func (e *EditMesh) SetActiveSlot(index int) error {
	if index < 0 || index >= len(e.obj.Data.Slots) {
		return fmt.Errorf("%s: active slot %d: %w", e.obj.Name, index, ErrInvalidSlot)
	}
	e.activeSlot = index
	return nil
}

// DeselectAll clears the face selection.
func (e *EditMesh) DeselectAll() {
	for i := range e.selected {
		e.selected[i] = false
	}
}

// SelectSlot adds the faces on the active slot to the selection and returns
// how many faces it added.
func (e *EditMesh) SelectSlot() int {
	n := 0
	for i, f := range e.obj.Data.Faces {
		if f.MaterialIndex == e.activeSlot && !e.selected[i] {
			e.selected[i] = true
			n++
		}
	}
	return n
}

// SelectedCount returns the number of selected faces.
func (e *EditMesh) SelectedCount() int {
	n := 0
	for _, sel := range e.selected {
		if sel {
			n++
		}
	}
	return n
}

// AssignSlot moves every selected face to the active slot and returns how
// many faces changed slot.
func (e *EditMesh) AssignSlot() (int, error) {
	if e.activeSlot < 0 || e.activeSlot >= len(e.obj.Data.Slots) {
		return 0, fmt.Errorf("%s: assign slot %d: %w", e.obj.Name, e.activeSlot, ErrInvalidSlot)
	}
	n := 0
	for i, f := range e.obj.Data.Faces {
		if e.selected[i] && f.MaterialIndex != e.activeSlot {
			f.MaterialIndex = e.activeSlot
			n++
		}
	}
	return n, nil
}
