// Package app serializes board access and applies the user-action rules
// that sit above the raw board store.
package app

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"

	charmLog "github.com/charmbracelet/log"
	"github.com/evanschultz/kanflow/internal/dnd"
	"github.com/evanschultz/kanflow/internal/domain"
)

// DefaultViewport is the drag area used when no viewport is configured.
var DefaultViewport = domain.Size{Width: 1280, Height: 800}

// Logger is the logging surface the service writes to. *charmLog.Logger satisfies it.
type Logger interface {
	Debug(msg any, keyvals ...any)
	Info(msg any, keyvals ...any)
	Warn(msg any, keyvals ...any)
}

// ServiceConfig holds configuration for service.
type ServiceConfig struct {
	Viewport domain.Size
	Logger   Logger
}

// Service owns one board and the drag state machines operating on it.
// All methods are safe for concurrent use; mutations are applied one at a time.
type Service struct {
	mu       sync.Mutex
	board    *domain.Board
	cards    *dnd.Reconciler
	lists    *dnd.ListDrag
	viewport domain.Size
	log      Logger
}

// NewService constructs a service around board. A nil board starts empty.
func NewService(board *domain.Board, cfg ServiceConfig) *Service {
	if board == nil {
		board = domain.NewBoard(nil)
	}
	if requireFiniteSize(cfg.Viewport) != nil || cfg.Viewport.Width <= 0 || cfg.Viewport.Height <= 0 {
		cfg.Viewport = DefaultViewport
	}
	if cfg.Logger == nil {
		cfg.Logger = charmLog.Default()
	}
	return &Service{
		board:    board,
		cards:    dnd.NewReconciler(),
		lists:    dnd.NewListDrag(),
		viewport: cfg.Viewport,
		log:      cfg.Logger,
	}
}

// Board returns a detached snapshot of the board.
func (s *Service) Board(ctx context.Context) (BoardView, error) {
	if err := ctx.Err(); err != nil {
		return BoardView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return boardView(s.board), nil
}

// AddList creates a list with a trimmed title. Empty titles are allowed.
func (s *Service) AddList(ctx context.Context, title string) (ListView, error) {
	if err := ctx.Err(); err != nil {
		return ListView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.board.AddList(title)
	if err != nil {
		return ListView{}, err
	}
	s.log.Debug("list added", "list_id", list.ID, "x", list.Position.X, "y", list.Position.Y)
	return listView(s.board, list), nil
}

// EditListTitle renames a list. Blank or unchanged titles leave the list untouched.
func (s *Service) EditListTitle(ctx context.Context, listID, title string) (ListView, error) {
	if err := ctx.Err(); err != nil {
		return ListView{}, err
	}
	listID, err := requireID("list id", listID)
	if err != nil {
		return ListView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, ok := s.board.List(listID)
	if !ok {
		return ListView{}, fmt.Errorf("edit list %q: %w", listID, ErrNotFound)
	}
	title = strings.TrimSpace(title)
	if title == "" || title == list.Title {
		s.log.Debug("list edit ignored", "list_id", listID)
		return listView(s.board, list), nil
	}
	list, err = s.board.EditListTitle(listID, title)
	if err != nil {
		return ListView{}, err
	}
	s.log.Debug("list renamed", "list_id", listID)
	return listView(s.board, list), nil
}

// DeleteList removes a list and every card it owns.
func (s *Service) DeleteList(ctx context.Context, listID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	listID, err := requireID("list id", listID)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	cards := s.board.CardCount(listID)
	if err := s.board.DeleteList(listID); err != nil {
		return err
	}
	if active, ok := s.lists.Active(); ok && active == listID {
		s.lists.End()
	}
	s.log.Debug("list deleted", "list_id", listID, "cards", cards)
	return nil
}

// UpdateListPosition stores a list position verbatim.
func (s *Service) UpdateListPosition(ctx context.Context, listID string, position domain.Position) (ListView, error) {
	if err := ctx.Err(); err != nil {
		return ListView{}, err
	}
	listID, err := requireID("list id", listID)
	if err != nil {
		return ListView{}, err
	}
	if err := requireFinite(position); err != nil {
		return ListView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	list, err := s.board.UpdateListPosition(listID, position)
	if err != nil {
		return ListView{}, err
	}
	return listView(s.board, list), nil
}

// MoveListInput holds input values for move list operations.
type MoveListInput struct {
	ListID           string
	SourceIndex      int
	DestinationIndex int
}

// MoveList reorders the board's list sequence and returns the resulting board.
func (s *Service) MoveList(ctx context.Context, in MoveListInput) (BoardView, error) {
	if err := ctx.Err(); err != nil {
		return BoardView{}, err
	}
	listID, err := requireID("list id", in.ListID)
	if err != nil {
		return BoardView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.board.MoveList(domain.ListSlot{Index: in.SourceIndex}, domain.ListSlot{Index: in.DestinationIndex}, listID)
	if err != nil {
		return BoardView{}, err
	}
	s.log.Debug("list moved", "list_id", listID, "from", in.SourceIndex, "to", in.DestinationIndex)
	return boardView(s.board), nil
}

// AddCard appends a card with trimmed content to a list. Empty content is allowed.
func (s *Service) AddCard(ctx context.Context, listID, content string) (CardView, error) {
	if err := ctx.Err(); err != nil {
		return CardView{}, err
	}
	listID, err := requireID("list id", listID)
	if err != nil {
		return CardView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.board.AddCard(listID, content)
	if err != nil {
		return CardView{}, err
	}
	s.log.Debug("card added", "card_id", card.ID, "list_id", listID)
	return cardView(card), nil
}

// EditCard replaces card content. Blank or unchanged content leaves the card untouched.
func (s *Service) EditCard(ctx context.Context, cardID, content string) (CardView, error) {
	if err := ctx.Err(); err != nil {
		return CardView{}, err
	}
	cardID, err := requireID("card id", cardID)
	if err != nil {
		return CardView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	card, ok := s.board.Card(cardID)
	if !ok {
		return CardView{}, fmt.Errorf("edit card %q: %w", cardID, ErrNotFound)
	}
	content = strings.TrimSpace(content)
	if content == "" || content == card.Content {
		s.log.Debug("card edit ignored", "card_id", cardID)
		return cardView(card), nil
	}
	card, err = s.board.EditCard(cardID, content)
	if err != nil {
		return CardView{}, err
	}
	s.log.Debug("card edited", "card_id", cardID)
	return cardView(card), nil
}

// ToggleCardComplete flips a card's completion flag.
func (s *Service) ToggleCardComplete(ctx context.Context, cardID string) (CardView, error) {
	if err := ctx.Err(); err != nil {
		return CardView{}, err
	}
	cardID, err := requireID("card id", cardID)
	if err != nil {
		return CardView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	card, err := s.board.ToggleCardComplete(cardID)
	if err != nil {
		return CardView{}, err
	}
	s.log.Debug("card toggled", "card_id", cardID, "completed", card.Completed)
	return cardView(card), nil
}

// MoveCardInput holds input values for move card operations.
type MoveCardInput struct {
	CardID            string
	SourceListID      string
	SourceIndex       int
	DestinationListID string
	DestinationIndex  int
}

// MoveCard moves a card between explicit slots and returns the resulting board.
func (s *Service) MoveCard(ctx context.Context, in MoveCardInput) (BoardView, error) {
	if err := ctx.Err(); err != nil {
		return BoardView{}, err
	}
	cardID, err := requireID("card id", in.CardID)
	if err != nil {
		return BoardView{}, err
	}
	sourceListID, err := requireID("source list id", in.SourceListID)
	if err != nil {
		return BoardView{}, err
	}
	destinationListID, err := requireID("destination list id", in.DestinationListID)
	if err != nil {
		return BoardView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	err = s.board.MoveCard(
		domain.CardSlot{ListID: sourceListID, Index: in.SourceIndex},
		domain.CardSlot{ListID: destinationListID, Index: in.DestinationIndex},
		cardID,
	)
	if err != nil {
		return BoardView{}, err
	}
	s.log.Debug("card moved", "card_id", cardID, "from", sourceListID, "to", destinationListID, "index", in.DestinationIndex)
	return boardView(s.board), nil
}

// DragStart begins a card drag.
func (s *Service) DragStart(ctx context.Context, activeID string) (DragStateView, error) {
	if err := ctx.Err(); err != nil {
		return DragStateView{}, err
	}
	activeID, err := requireID("active id", activeID)
	if err != nil {
		return DragStateView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.cards.DragStart(activeID)
	return s.dragState(), nil
}

// DragOver applies live cross-list moves while a card hovers over a target.
func (s *Service) DragOver(ctx context.Context, activeID, overID string) (DragResult, error) {
	if err := ctx.Err(); err != nil {
		return DragResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.cards.DragOver(s.board, dnd.DragEvent{Active: activeID, Over: overID})
	s.logOutcome("drag over", out)
	return dragResult(out), nil
}

// DragEnd finishes a card drag and commits the drop.
func (s *Service) DragEnd(ctx context.Context, activeID, overID string) (DragResult, error) {
	if err := ctx.Err(); err != nil {
		return DragResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	out := s.cards.DragEnd(s.board, dnd.DragEvent{Active: activeID, Over: overID})
	s.logOutcome("drag end", out)
	return dragResult(out), nil
}

// DragState returns the in-flight drag state and the card preview.
func (s *Service) DragState(ctx context.Context) (DragStateView, error) {
	if err := ctx.Err(); err != nil {
		return DragStateView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dragState(), nil
}

// BeginListDrag grabs a list at pointer.
func (s *Service) BeginListDrag(ctx context.Context, listID string, pointer domain.Position) (DragStateView, error) {
	if err := ctx.Err(); err != nil {
		return DragStateView{}, err
	}
	listID, err := requireID("list id", listID)
	if err != nil {
		return DragStateView{}, err
	}
	if err := requireFinite(pointer); err != nil {
		return DragStateView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.lists.Begin(s.board, listID, pointer); err != nil {
		return DragStateView{}, err
	}
	return s.dragState(), nil
}

// DragListTo moves the grabbed list under pointer, clamped to viewport.
// A zero viewport uses the configured one.
func (s *Service) DragListTo(ctx context.Context, pointer domain.Position, viewport domain.Size) (ListDragResult, error) {
	if err := ctx.Err(); err != nil {
		return ListDragResult{}, err
	}
	if err := requireFinite(pointer); err != nil {
		return ListDragResult{}, err
	}
	if err := requireFiniteSize(viewport); err != nil {
		return ListDragResult{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if viewport.Width <= 0 || viewport.Height <= 0 {
		viewport = s.viewport
	}
	listID, _ := s.lists.Active()
	position, moved := s.lists.Move(s.board, pointer, viewport)
	if !moved {
		return ListDragResult{ListID: listID}, nil
	}
	return ListDragResult{ListID: listID, Moved: true, Position: positionView(position)}, nil
}

// EndListDrag releases the grabbed list.
func (s *Service) EndListDrag(ctx context.Context) (DragStateView, error) {
	if err := ctx.Err(); err != nil {
		return DragStateView{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	s.lists.End()
	return s.dragState(), nil
}

// dragState builds the drag view. Callers hold s.mu.
func (s *Service) dragState() DragStateView {
	out := DragStateView{
		Phase:    string(s.cards.Phase()),
		ActiveID: s.cards.ActiveID(),
	}
	if card, ok := s.cards.Preview(s.board); ok {
		view := cardView(card)
		out.Preview = &view
	}
	if listID, ok := s.lists.Active(); ok {
		out.ListDragID = listID
	}
	return out
}

// logOutcome records one reconciler result.
func (s *Service) logOutcome(event string, out dnd.Outcome) {
	switch {
	case out.Moved:
		s.log.Debug(event+": card moved",
			"card_id", out.Move.CardID,
			"from", out.Move.Source.ListID,
			"from_index", out.Move.Source.Index,
			"to", out.Move.Destination.ListID,
			"to_index", out.Move.Destination.Index,
		)
	case out.Err != nil:
		s.log.Warn(event+": move rejected", "card_id", out.Move.CardID, "err", out.Err)
	default:
		s.log.Debug(event+": skipped", "reason", string(out.Reason))
	}
}

// requireID trims an id and rejects blanks.
func requireID(field, id string) (string, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return "", fmt.Errorf("%w: %s is required", ErrInvalidInput, field)
	}
	return id, nil
}

// requireFinite rejects NaN and infinite coordinates.
func requireFinite(pos domain.Position) error {
	for _, v := range []float64{pos.X, pos.Y} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: position must be finite", ErrInvalidInput)
		}
	}
	return nil
}

func requireFiniteSize(size domain.Size) error {
	for _, v := range []float64{size.Width, size.Height} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%w: viewport must be finite", ErrInvalidInput)
		}
	}
	return nil
}
