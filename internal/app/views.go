package app

import (
	"github.com/evanschultz/kanflow/internal/dnd"
	"github.com/evanschultz/kanflow/internal/domain"
)

// CardView is the rendered form of one card.
type CardView struct {
	ID        string `json:"id"`
	Content   string `json:"content"`
	Completed bool   `json:"completed"`
}

// PositionView is a list's top-left corner in board coordinates.
type PositionView struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// ListView is one list with its cards in display order.
type ListView struct {
	ID       string       `json:"id"`
	Title    string       `json:"title"`
	Position PositionView `json:"position"`
	Cards    []CardView   `json:"cards"`
}

// BoardView is a detached snapshot of the whole board in list display order.
type BoardView struct {
	Lists     []ListView `json:"lists"`
	ListCount int        `json:"list_count"`
	CardCount int        `json:"card_count"`
}

// SlotView addresses one index inside one list.
type SlotView struct {
	ListID string `json:"list_id"`
	Index  int    `json:"index"`
}

// DragResult reports what one drag event did to the board.
type DragResult struct {
	Moved       bool      `json:"moved"`
	Reason      string    `json:"reason,omitempty"`
	CardID      string    `json:"card_id,omitempty"`
	Source      *SlotView `json:"source,omitempty"`
	Destination *SlotView `json:"destination,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// DragStateView describes in-flight drags.
type DragStateView struct {
	Phase      string    `json:"phase"`
	ActiveID   string    `json:"active_id,omitempty"`
	Preview    *CardView `json:"preview,omitempty"`
	ListDragID string    `json:"list_drag_id,omitempty"`
}

// ListDragResult reports one pointer move of a dragged list.
type ListDragResult struct {
	ListID   string       `json:"list_id,omitempty"`
	Moved    bool         `json:"moved"`
	Position PositionView `json:"position"`
}

func cardView(card domain.Card) CardView {
	return CardView{ID: card.ID, Content: card.Content, Completed: card.Completed}
}

func positionView(pos domain.Position) PositionView {
	return PositionView{X: pos.X, Y: pos.Y}
}

func listView(board *domain.Board, list domain.List) ListView {
	out := ListView{
		ID:       list.ID,
		Title:    list.Title,
		Position: positionView(list.Position),
		Cards:    make([]CardView, 0, len(list.CardIDs)),
	}
	for _, cardID := range list.CardIDs {
		if card, ok := board.Card(cardID); ok {
			out.Cards = append(out.Cards, cardView(card))
		}
	}
	return out
}

func boardView(board *domain.Board) BoardView {
	lists := board.Lists()
	out := BoardView{
		Lists:     make([]ListView, 0, len(lists)),
		ListCount: len(lists),
	}
	for _, list := range lists {
		view := listView(board, list)
		out.CardCount += len(view.Cards)
		out.Lists = append(out.Lists, view)
	}
	return out
}

func dragResult(out dnd.Outcome) DragResult {
	result := DragResult{
		Moved:  out.Moved,
		Reason: string(out.Reason),
		CardID: out.Move.CardID,
	}
	if out.Move.CardID != "" {
		result.Source = &SlotView{ListID: out.Move.Source.ListID, Index: out.Move.Source.Index}
		result.Destination = &SlotView{ListID: out.Move.Destination.ListID, Index: out.Move.Destination.Index}
	}
	if out.Err != nil {
		result.Error = out.Err.Error()
	}
	return result
}
