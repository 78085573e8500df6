package domain

import (
	"errors"

	"github.com/google/uuid"
)

var (
	ErrInvalidTransition = errors.New("Invalid editor transition")
	ErrInvalidClass      = errors.New("Invalid asset class")
	ErrClassImmutable    = errors.New("Asset class cannot be changed after creation")
)

// EditorPhase is the phase of an asset save flow.
type EditorPhase int

const (
	EditorClosed EditorPhase = iota
	EditorPickingCategory
	EditorEditing
	EditorSaving
)

func (p EditorPhase) String() string {
	switch p {
	case EditorPickingCategory:
		return "picking_category"
	case EditorEditing:
		return "editing"
	case EditorSaving:
		return "saving"
	}
	return "closed"
}

// Editor drives one save of an asset:
//
//	closed -> picking_category (new only) -> editing(class) -> saving -> closed
//
// A failed save returns to editing with the class still locked.
type Editor struct {
	phase   EditorPhase
	class   AssetClass
	assetID uuid.UUID
}

// NewAssetEditor starts a flow for an asset that does not exist yet.
func NewAssetEditor() *Editor {
	return &Editor{phase: EditorPickingCategory}
}

// EditAssetEditor starts a flow for an existing asset; the category pick is skipped.
func EditAssetEditor(a *Asset) *Editor {
	return &Editor{phase: EditorEditing, class: a.AssetClass, assetID: a.ID}
}

func (e *Editor) Phase() EditorPhase { return e.phase }
func (e *Editor) Class() AssetClass { return e.class }
func (e *Editor) IsNew() bool { return e.assetID == uuid.Nil }
func (e *Editor) AssetID() uuid.UUID { return e.assetID }

// PickCategory locks the class for the rest of the flow.
func (e *Editor) PickCategory(c AssetClass) error {
	if e.phase != EditorPickingCategory {
		return ErrInvalidTransition
	}
	if !c.Valid() {
		return ErrInvalidClass
	}
	e.class = c
	e.phase = EditorEditing
	return nil
}

// RequireClass rejects a class that differs from the locked one. Empty means "unchanged".
func (e *Editor) RequireClass(c AssetClass) error {
	if c == "" || c == e.class {
		return nil
	}
	if e.phase == EditorPickingCategory {
		return ErrInvalidTransition
	}
	return ErrClassImmutable
}

// BeginSave moves editing -> saving.
func (e *Editor) BeginSave() error {
	if e.phase != EditorEditing {
		return ErrInvalidTransition
	}
	e.phase = EditorSaving
	return nil
}

// FinishSave closes the flow on success or returns to editing on failure.
func (e *Editor) FinishSave(id uuid.UUID, err error) {
	if e.phase != EditorSaving {
		return
	}
	if err != nil {
		e.phase = EditorEditing
		return
	}
	e.assetID = id
	e.phase = EditorClosed
}
