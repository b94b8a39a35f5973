// Package common provides transport-agnostic server contracts used by HTTP and MCP adapters.
package common

import (
	"context"
	"errors"

	"github.com/evanschultz/kanflow/internal/app"
)

// ErrInvalidRequest reports malformed transport input.
var ErrInvalidRequest = errors.New("invalid request")

// ErrNotFound reports missing transport-visible resources.
var ErrNotFound = errors.New("not found")

// ErrInvalidMove reports move slots that do not describe the referenced item.
var ErrInvalidMove = errors.New("invalid move")

// Board, List, Card, and the drag views are the app read models served as-is.
type (
	Board          = app.BoardView
	List           = app.ListView
	Card           = app.CardView
	DragState      = app.DragStateView
	DragResult     = app.DragResult
	ListDragResult = app.ListDragResult
)

// AddListRequest captures input for new lists.
type AddListRequest struct {
	Title string `json:"title"`
}

// EditListTitleRequest captures input for renaming one list.
type EditListTitleRequest struct {
	ListID string `json:"list_id,omitempty"`
	Title  string `json:"title"`
}

// DeleteListRequest identifies one list to delete.
type DeleteListRequest struct {
	ListID string `json:"list_id"`
}

// UpdateListPositionRequest captures a verbatim list position. Both coordinates are required.
type UpdateListPositionRequest struct {
	ListID string   `json:"list_id,omitempty"`
	X      *float64 `json:"x"`
	Y      *float64 `json:"y"`
}

// MoveListRequest captures one list reorder. Both indexes are required.
type MoveListRequest struct {
	ListID           string `json:"list_id"`
	SourceIndex      *int   `json:"source_index"`
	DestinationIndex *int   `json:"destination_index"`
}

// AddCardRequest captures input for new cards.
type AddCardRequest struct {
	ListID  string `json:"list_id,omitempty"`
	Content string `json:"content"`
}

// EditCardRequest captures input for editing one card.
type EditCardRequest struct {
	CardID  string `json:"card_id,omitempty"`
	Content string `json:"content"`
}

// ToggleCardRequest identifies one card to toggle.
type ToggleCardRequest struct {
	CardID string `json:"card_id"`
}

// MoveCardRequest captures one explicit card move between slots. Both indexes are required.
type MoveCardRequest struct {
	CardID            string `json:"card_id"`
	SourceListID      string `json:"source_list_id"`
	SourceIndex       *int   `json:"source_index"`
	DestinationListID string `json:"destination_list_id"`
	DestinationIndex  *int   `json:"destination_index"`
}

// DragRequest carries one card-drag event. An empty over_id means no drop target.
type DragRequest struct {
	ActiveID string `json:"active_id"`
	OverID   string `json:"over_id,omitempty"`
}

// ListDragStartRequest grabs one list at a pointer position.
type ListDragStartRequest struct {
	ListID string  `json:"list_id"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
}

// ListDragMoveRequest moves the grabbed list. A zero viewport uses the server default.
type ListDragMoveRequest struct {
	X              float64 `json:"x"`
	Y              float64 `json:"y"`
	ViewportWidth  float64 `json:"viewport_width,omitempty"`
	ViewportHeight float64 `json:"viewport_height,omitempty"`
}

// BoardService captures board reads and mutations exposed by transports.
type BoardService interface {
	GetBoard(context.Context) (Board, error)
	AddList(context.Context, AddListRequest) (List, error)
	EditListTitle(context.Context, EditListTitleRequest) (List, error)
	DeleteList(context.Context, DeleteListRequest) error
	UpdateListPosition(context.Context, UpdateListPositionRequest) (List, error)
	MoveList(context.Context, MoveListRequest) (Board, error)
	AddCard(context.Context, AddCardRequest) (Card, error)
	EditCard(context.Context, EditCardRequest) (Card, error)
	ToggleCard(context.Context, ToggleCardRequest) (Card, error)
	MoveCard(context.Context, MoveCardRequest) (Board, error)
}

// DragService captures drag gestures exposed by transports.
type DragService interface {
	DragStart(context.Context, DragRequest) (DragState, error)
	DragOver(context.Context, DragRequest) (DragResult, error)
	DragEnd(context.Context, DragRequest) (DragResult, error)
	DragState(context.Context) (DragState, error)
	StartListDrag(context.Context, ListDragStartRequest) (DragState, error)
	MoveListDrag(context.Context, ListDragMoveRequest) (ListDragResult, error)
	EndListDrag(context.Context) (DragState, error)
}
