package dnd

import (
	"fmt"
	"strings"

	"github.com/evanschultz/kanflow/internal/domain"
)

// ListPositioner is the board surface used for free list positioning. *domain.Board satisfies it.
type ListPositioner interface {
	List(listID string) (domain.List, bool)
	UpdateListPosition(listID string, position domain.Position) (domain.List, error)
}

// ListDrag tracks one pointer-driven list drag. It carries no ordering semantics.
type ListDrag struct {
	listID    string
	offset    domain.Position
	footprint domain.Size
}

// NewListDrag returns an idle list drag using the default list footprint.
func NewListDrag() *ListDrag {
	return &ListDrag{footprint: domain.ListFootprint}
}

// Active returns the list being dragged.
func (d *ListDrag) Active() (string, bool) {
	return d.listID, d.listID != ""
}

// Begin grabs a list at pointer, remembering where inside the list it was grabbed.
func (d *ListDrag) Begin(board ListPositioner, listID string, pointer domain.Position) error {
	listID = strings.TrimSpace(listID)
	list, ok := board.List(listID)
	if !ok {
		return fmt.Errorf("begin list drag %q: %w", listID, domain.ErrNotFound)
	}
	d.listID = list.ID
	d.offset = domain.Position{
		X: pointer.X - list.Position.X,
		Y: pointer.Y - list.Position.Y,
	}
	return nil
}

// Move repositions the grabbed list under pointer, clamped to the viewport.
// It reports false when no drag is active or the list disappeared mid-drag.
func (d *ListDrag) Move(board ListPositioner, pointer domain.Position, viewport domain.Size) (domain.Position, bool) {
	if d.listID == "" {
		return domain.Position{}, false
	}
	next := domain.ClampPosition(domain.Position{
		X: pointer.X - d.offset.X,
		Y: pointer.Y - d.offset.Y,
	}, viewport, d.footprint)
	if _, err := board.UpdateListPosition(d.listID, next); err != nil {
		d.End()
		return domain.Position{}, false
	}
	return next, true
}

// End releases the grabbed list.
func (d *ListDrag) End() {
	d.listID = ""
	d.offset = domain.Position{}
}
