package common

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/evanschultz/kanflow/internal/app"
	"github.com/evanschultz/kanflow/internal/domain"
)

// AppServiceAdapter maps transport contracts onto app.Service board and drag APIs.
type AppServiceAdapter struct {
	service *app.Service
}

// NewAppServiceAdapter builds one common adapter over an app.Service instance.
func NewAppServiceAdapter(service *app.Service) *AppServiceAdapter {
	return &AppServiceAdapter{service: service}
}

// GetBoard returns the whole board in list order.
func (a *AppServiceAdapter) GetBoard(ctx context.Context) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	board, err := a.service.Board(ctx)
	if err != nil {
		return Board{}, mapAppError("get board", err)
	}
	return board, nil
}

// AddList creates one list.
func (a *AppServiceAdapter) AddList(ctx context.Context, in AddListRequest) (List, error) {
	if err := a.ready(); err != nil {
		return List{}, err
	}
	list, err := a.service.AddList(ctx, in.Title)
	if err != nil {
		return List{}, mapAppError("add list", err)
	}
	return list, nil
}

// EditListTitle renames one list.
func (a *AppServiceAdapter) EditListTitle(ctx context.Context, in EditListTitleRequest) (List, error) {
	if err := a.ready(); err != nil {
		return List{}, err
	}
	listID, err := requireField("list_id", in.ListID)
	if err != nil {
		return List{}, err
	}
	list, err := a.service.EditListTitle(ctx, listID, in.Title)
	if err != nil {
		return List{}, mapAppError("edit list title", err)
	}
	return list, nil
}

// DeleteList deletes one list and its cards.
func (a *AppServiceAdapter) DeleteList(ctx context.Context, in DeleteListRequest) error {
	if err := a.ready(); err != nil {
		return err
	}
	listID, err := requireField("list_id", in.ListID)
	if err != nil {
		return err
	}
	return mapAppError("delete list", a.service.DeleteList(ctx, listID))
}

// UpdateListPosition overwrites one list position.
func (a *AppServiceAdapter) UpdateListPosition(ctx context.Context, in UpdateListPositionRequest) (List, error) {
	if err := a.ready(); err != nil {
		return List{}, err
	}
	listID, err := requireField("list_id", in.ListID)
	if err != nil {
		return List{}, err
	}
	if in.X == nil || in.Y == nil {
		return List{}, fmt.Errorf("x and y are required: %w", ErrInvalidRequest)
	}
	list, err := a.service.UpdateListPosition(ctx, listID, domain.Position{X: *in.X, Y: *in.Y})
	if err != nil {
		return List{}, mapAppError("update list position", err)
	}
	return list, nil
}

// MoveList reorders lists and returns the resulting board.
func (a *AppServiceAdapter) MoveList(ctx context.Context, in MoveListRequest) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	listID, err := requireField("list_id", in.ListID)
	if err != nil {
		return Board{}, err
	}
	source, err := requireIndex("source_index", in.SourceIndex)
	if err != nil {
		return Board{}, err
	}
	destination, err := requireIndex("destination_index", in.DestinationIndex)
	if err != nil {
		return Board{}, err
	}
	board, err := a.service.MoveList(ctx, app.MoveListInput{
		ListID:           listID,
		SourceIndex:      source,
		DestinationIndex: destination,
	})
	if err != nil {
		return Board{}, mapAppError("move list", err)
	}
	return board, nil
}

// AddCard creates one card at the end of a list.
func (a *AppServiceAdapter) AddCard(ctx context.Context, in AddCardRequest) (Card, error) {
	if err := a.ready(); err != nil {
		return Card{}, err
	}
	listID, err := requireField("list_id", in.ListID)
	if err != nil {
		return Card{}, err
	}
	card, err := a.service.AddCard(ctx, listID, in.Content)
	if err != nil {
		return Card{}, mapAppError("add card", err)
	}
	return card, nil
}

// EditCard replaces one card's content.
func (a *AppServiceAdapter) EditCard(ctx context.Context, in EditCardRequest) (Card, error) {
	if err := a.ready(); err != nil {
		return Card{}, err
	}
	cardID, err := requireField("card_id", in.CardID)
	if err != nil {
		return Card{}, err
	}
	card, err := a.service.EditCard(ctx, cardID, in.Content)
	if err != nil {
		return Card{}, mapAppError("edit card", err)
	}
	return card, nil
}

// ToggleCard flips one card's completion flag.
func (a *AppServiceAdapter) ToggleCard(ctx context.Context, in ToggleCardRequest) (Card, error) {
	if err := a.ready(); err != nil {
		return Card{}, err
	}
	cardID, err := requireField("card_id", in.CardID)
	if err != nil {
		return Card{}, err
	}
	card, err := a.service.ToggleCardComplete(ctx, cardID)
	if err != nil {
		return Card{}, mapAppError("toggle card", err)
	}
	return card, nil
}

// MoveCard moves one card between explicit slots and returns the resulting board.
func (a *AppServiceAdapter) MoveCard(ctx context.Context, in MoveCardRequest) (Board, error) {
	if err := a.ready(); err != nil {
		return Board{}, err
	}
	cardID, err := requireField("card_id", in.CardID)
	if err != nil {
		return Board{}, err
	}
	sourceListID, err := requireField("source_list_id", in.SourceListID)
	if err != nil {
		return Board{}, err
	}
	destinationListID, err := requireField("destination_list_id", in.DestinationListID)
	if err != nil {
		return Board{}, err
	}
	source, err := requireIndex("source_index", in.SourceIndex)
	if err != nil {
		return Board{}, err
	}
	destination, err := requireIndex("destination_index", in.DestinationIndex)
	if err != nil {
		return Board{}, err
	}
	board, err := a.service.MoveCard(ctx, app.MoveCardInput{
		CardID:            cardID,
		SourceListID:      sourceListID,
		SourceIndex:       source,
		DestinationListID: destinationListID,
		DestinationIndex:  destination,
	})
	if err != nil {
		return Board{}, mapAppError("move card", err)
	}
	return board, nil
}

// DragStart begins one card drag.
func (a *AppServiceAdapter) DragStart(ctx context.Context, in DragRequest) (DragState, error) {
	if err := a.ready(); err != nil {
		return DragState{}, err
	}
	activeID, err := requireField("active_id", in.ActiveID)
	if err != nil {
		return DragState{}, err
	}
	state, err := a.service.DragStart(ctx, activeID)
	if err != nil {
		return DragState{}, mapAppError("drag start", err)
	}
	return state, nil
}

// DragOver reports one hover event.
func (a *AppServiceAdapter) DragOver(ctx context.Context, in DragRequest) (DragResult, error) {
	if err := a.ready(); err != nil {
		return DragResult{}, err
	}
	result, err := a.service.DragOver(ctx, in.ActiveID, in.OverID)
	if err != nil {
		return DragResult{}, mapAppError("drag over", err)
	}
	return result, nil
}

// DragEnd reports one drop event.
func (a *AppServiceAdapter) DragEnd(ctx context.Context, in DragRequest) (DragResult, error) {
	if err := a.ready(); err != nil {
		return DragResult{}, err
	}
	result, err := a.service.DragEnd(ctx, in.ActiveID, in.OverID)
	if err != nil {
		return DragResult{}, mapAppError("drag end", err)
	}
	return result, nil
}

// DragState returns the in-flight drag state.
func (a *AppServiceAdapter) DragState(ctx context.Context) (DragState, error) {
	if err := a.ready(); err != nil {
		return DragState{}, err
	}
	state, err := a.service.DragState(ctx)
	if err != nil {
		return DragState{}, mapAppError("drag state", err)
	}
	return state, nil
}

// StartListDrag grabs one list.
func (a *AppServiceAdapter) StartListDrag(ctx context.Context, in ListDragStartRequest) (DragState, error) {
	if err := a.ready(); err != nil {
		return DragState{}, err
	}
	listID, err := requireField("list_id", in.ListID)
	if err != nil {
		return DragState{}, err
	}
	state, err := a.service.BeginListDrag(ctx, listID, domain.Position{X: in.X, Y: in.Y})
	if err != nil {
		return DragState{}, mapAppError("start list drag", err)
	}
	return state, nil
}

// MoveListDrag moves the grabbed list.
func (a *AppServiceAdapter) MoveListDrag(ctx context.Context, in ListDragMoveRequest) (ListDragResult, error) {
	if err := a.ready(); err != nil {
		return ListDragResult{}, err
	}
	result, err := a.service.DragListTo(ctx,
		domain.Position{X: in.X, Y: in.Y},
		domain.Size{Width: in.ViewportWidth, Height: in.ViewportHeight},
	)
	if err != nil {
		return ListDragResult{}, mapAppError("move list drag", err)
	}
	return result, nil
}

// EndListDrag releases the grabbed list.
func (a *AppServiceAdapter) EndListDrag(ctx context.Context) (DragState, error) {
	if err := a.ready(); err != nil {
		return DragState{}, err
	}
	state, err := a.service.EndListDrag(ctx)
	if err != nil {
		return DragState{}, mapAppError("end list drag", err)
	}
	return state, nil
}

// ready reports whether the adapter has a backing service.
func (a *AppServiceAdapter) ready() error {
	if a == nil || a.service == nil {
		return errors.New("app service adapter is not configured")
	}
	return nil
}

// requireField trims one required identifier.
func requireField(name, value string) (string, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return "", fmt.Errorf("%s is required: %w", name, ErrInvalidRequest)
	}
	return value, nil
}

// requireIndex unwraps one required slot index.
func requireIndex(name string, value *int) (int, error) {
	if value == nil {
		return 0, fmt.Errorf("%s is required: %w", name, ErrInvalidRequest)
	}
	return *value, nil
}

// mapAppError maps app/domain errors onto transport-facing error categories.
func mapAppError(operation string, err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, app.ErrNotFound):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrNotFound, err))
	case errors.Is(err, app.ErrInvalidMove):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidMove, err))
	case errors.Is(err, app.ErrInvalidInput), errors.Is(err, domain.ErrInvalidID):
		return fmt.Errorf("%s: %w", operation, errors.Join(ErrInvalidRequest, err))
	default:
		return fmt.Errorf("%s: %w", operation, err)
	}
}
