// Package dnd translates drag gestures into board mutations.
package dnd

import (
	"strings"

	"github.com/evanschultz/kanflow/internal/domain"
)

// Board is the board surface the reconciler reads and mutates. *domain.Board satisfies it.
type Board interface {
	Card(cardID string) (domain.Card, bool)
	HasList(listID string) bool
	CardOwner(cardID string) (listID string, index int, ok bool)
	CardCount(listID string) int
	MoveCard(source, destination domain.CardSlot, cardID string) error
}

// Phase is the reconciler's gesture state.
type Phase string

// PhaseIdle and PhaseDragging are the two gesture states.
const (
	PhaseIdle     Phase = "idle"
	PhaseDragging Phase = "dragging"
)

// DragEvent carries the dragged item id and the hovered target id.
// An empty Over means the pointer is not above any drop target.
type DragEvent struct {
	Active string
	Over   string
}

// SkipReason explains why a gesture event issued no move.
type SkipReason string

// SkipReason values reported by DragOver and DragEnd.
const (
	SkipNone                SkipReason = ""
	SkipNoActive            SkipReason = "no_active"
	SkipNoTarget            SkipReason = "no_target"
	SkipSourceNotFound      SkipReason = "source_not_found"
	SkipDestinationNotFound SkipReason = "destination_not_found"
	SkipSameList            SkipReason = "same_list"
	SkipSamePosition        SkipReason = "same_position"
	SkipRejected            SkipReason = "rejected"
)

// Move describes one issued card move.
type Move struct {
	CardID      string
	Source      domain.CardSlot
	Destination domain.CardSlot
}

// Outcome reports what one gesture event did.
type Outcome struct {
	Moved  bool
	Move   Move
	Reason SkipReason
	Err    error
}

// Reconciler is the Idle -> Dragging -> Idle state machine for card drags.
// It keeps only the active id; the board is passed on every call.
type Reconciler struct {
	phase    Phase
	activeID string
}

// NewReconciler returns an idle reconciler.
func NewReconciler() *Reconciler {
	return &Reconciler{phase: PhaseIdle}
}

// Phase returns the current gesture state.
func (r *Reconciler) Phase() Phase {
	return r.phase
}

// ActiveID returns the id being dragged, or "" when idle.
func (r *Reconciler) ActiveID() string {
	return r.activeID
}

// Preview returns the card rendered under the pointer while dragging.
func (r *Reconciler) Preview(board Board) (domain.Card, bool) {
	if r.activeID == "" {
		return domain.Card{}, false
	}
	return board.Card(r.activeID)
}

// DragStart enters the dragging state for activeID.
func (r *Reconciler) DragStart(activeID string) {
	activeID = strings.TrimSpace(activeID)
	if activeID == "" {
		return
	}
	r.phase = PhaseDragging
	r.activeID = activeID
}

// DragOver moves the active card into a hovered list while the pointer is still down.
// Hovering inside the source list never reorders; that waits for DragEnd.
func (r *Reconciler) DragOver(board Board, ev DragEvent) Outcome {
	ev = normalizeEvent(ev)
	if ev.Active == "" {
		return skip(SkipNoActive)
	}
	if ev.Over == "" {
		return skip(SkipNoTarget)
	}
	sourceListID, sourceIndex, ok := board.CardOwner(ev.Active)
	if !ok {
		return skip(SkipSourceNotFound)
	}

	var (
		destinationListID string
		destinationIndex  int
	)
	if board.HasList(ev.Over) {
		destinationListID = ev.Over
		destinationIndex = board.CardCount(ev.Over)
	} else {
		destinationListID, destinationIndex, ok = board.CardOwner(ev.Over)
		if !ok {
			return skip(SkipDestinationNotFound)
		}
	}
	if sourceListID == destinationListID {
		return skip(SkipSameList)
	}

	return apply(board, Move{
		CardID:      ev.Active,
		Source:      domain.CardSlot{ListID: sourceListID, Index: sourceIndex},
		Destination: domain.CardSlot{ListID: destinationListID, Index: destinationIndex},
	})
}

// DragEnd finishes the gesture and commits the drop, if any.
//
// Dropping on a list appends. Dropping on a card takes that card's index within
// the same list, and the slot after it in another list.
func (r *Reconciler) DragEnd(board Board, ev DragEvent) Outcome {
	r.phase = PhaseIdle
	r.activeID = ""

	ev = normalizeEvent(ev)
	if ev.Over == "" {
		return skip(SkipNoTarget)
	}
	if ev.Active == "" {
		return skip(SkipNoActive)
	}
	sourceListID, sourceIndex, ok := board.CardOwner(ev.Active)
	if !ok {
		return skip(SkipSourceNotFound)
	}

	var (
		destinationListID string
		destinationIndex  int
	)
	switch {
	case board.HasList(ev.Over):
		destinationListID = ev.Over
		destinationIndex = board.CardCount(ev.Over)
	default:
		overListID, overIndex, found := board.CardOwner(ev.Over)
		if !found {
			return skip(SkipDestinationNotFound)
		}
		destinationListID = overListID
		destinationIndex = overIndex
		if overListID != sourceListID {
			destinationIndex = overIndex + 1
		}
	}
	if sourceListID == destinationListID && sourceIndex == destinationIndex {
		return skip(SkipSamePosition)
	}

	return apply(board, Move{
		CardID:      ev.Active,
		Source:      domain.CardSlot{ListID: sourceListID, Index: sourceIndex},
		Destination: domain.CardSlot{ListID: destinationListID, Index: destinationIndex},
	})
}

// apply issues one move and reports the result.
func apply(board Board, move Move) Outcome {
	if err := board.MoveCard(move.Source, move.Destination, move.CardID); err != nil {
		return Outcome{Move: move, Reason: SkipRejected, Err: err}
	}
	return Outcome{Moved: true, Move: move}
}

func skip(reason SkipReason) Outcome {
	return Outcome{Reason: reason}
}

func normalizeEvent(ev DragEvent) DragEvent {
	return DragEvent{
		Active: strings.TrimSpace(ev.Active),
		Over:   strings.TrimSpace(ev.Over),
	}
}
