package domain

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"
)

// maxIDAttempts bounds retries when a generator returns a colliding or blank id.
const maxIDAttempts = 8

// IDGenerator returns unique identifier suffixes for new entities.
type IDGenerator func() string

// SequentialIDs returns a monotonic generator yielding "1", "2", ...
func SequentialIDs() IDGenerator {
	var next uint64
	return func() string {
		next++
		return strconv.FormatUint(next, 10)
	}
}

// CardSlot addresses one index inside one list's card sequence.
type CardSlot struct {
	ListID string
	Index  int
}

// ListSlot addresses one index inside the board's list order.
type ListSlot struct {
	Index int
}

// BoardState is a detached copy of every list (in display order) and card.
type BoardState struct {
	Lists []List
	Cards []Card
}

// Board is the normalized store of lists, cards, and list display order.
//
// A Board is not safe for concurrent use; callers serialize access. Every
// mutation either applies completely or returns an error and leaves the board unchanged.
type Board struct {
	cards     map[string]Card
	lists     map[string]*List
	listOrder []string
	owners    map[string]string
	retired   map[string]struct{}
	newID     IDGenerator
}

// NewBoard constructs an empty board. A nil generator falls back to SequentialIDs.
func NewBoard(newID IDGenerator) *Board {
	if newID == nil {
		newID = SequentialIDs()
	}
	return &Board{
		cards:     map[string]Card{},
		lists:     map[string]*List{},
		listOrder: []string{},
		owners:    map[string]string{},
		retired:   map[string]struct{}{},
		newID:     newID,
	}
}

// RestoreBoard builds a board from explicit state and validates every invariant.
// Ids in state are kept verbatim; later creations use newID.
func RestoreBoard(state BoardState, newID IDGenerator) (*Board, error) {
	b := NewBoard(newID)
	for _, raw := range state.Cards {
		card, err := NewCard(raw.ID, raw.Content)
		if err != nil {
			return nil, fmt.Errorf("%w: card: %w", ErrInvalidBoard, err)
		}
		if _, ok := b.cards[card.ID]; ok {
			return nil, fmt.Errorf("%w: duplicate card id %q", ErrInvalidBoard, card.ID)
		}
		card.Completed = raw.Completed
		b.cards[card.ID] = card
	}
	for _, raw := range state.Lists {
		list, err := NewList(raw.ID, raw.Title, raw.Position)
		if err != nil {
			return nil, fmt.Errorf("%w: list: %w", ErrInvalidBoard, err)
		}
		if b.idInUse(list.ID) {
			return nil, fmt.Errorf("%w: duplicate list id %q", ErrInvalidBoard, list.ID)
		}
		for _, cardID := range raw.CardIDs {
			if _, ok := b.cards[cardID]; !ok {
				return nil, fmt.Errorf("%w: list %q references unknown card %q", ErrInvalidBoard, list.ID, cardID)
			}
			if owner, ok := b.owners[cardID]; ok {
				return nil, fmt.Errorf("%w: card %q owned by both %q and %q", ErrInvalidBoard, cardID, owner, list.ID)
			}
			b.owners[cardID] = list.ID
			list.CardIDs = append(list.CardIDs, cardID)
		}
		b.lists[list.ID] = &list
		b.listOrder = append(b.listOrder, list.ID)
	}
	if err := b.Validate(); err != nil {
		return nil, err
	}
	return b, nil
}

// AddCard creates a card with trimmed content and appends it to the list.
// A missing list is rejected and no card is created.
func (b *Board) AddCard(listID, content string) (Card, error) {
	list, ok := b.lists[listID]
	if !ok {
		return Card{}, fmt.Errorf("add card to list %q: %w", listID, ErrNotFound)
	}
	id, err := b.issueID(CardIDPrefix)
	if err != nil {
		return Card{}, err
	}
	card, err := NewCard(id, content)
	if err != nil {
		return Card{}, err
	}
	b.cards[id] = card
	list.CardIDs = append(list.CardIDs, id)
	b.owners[id] = list.ID
	return card, nil
}

// EditCard replaces a card's content with its trimmed form.
func (b *Board) EditCard(cardID, content string) (Card, error) {
	card, ok := b.cards[cardID]
	if !ok {
		return Card{}, fmt.Errorf("edit card %q: %w", cardID, ErrNotFound)
	}
	card.SetContent(content)
	b.cards[cardID] = card
	return card, nil
}

// ToggleCardComplete flips a card's completion flag.
func (b *Board) ToggleCardComplete(cardID string) (Card, error) {
	card, ok := b.cards[cardID]
	if !ok {
		return Card{}, fmt.Errorf("toggle card %q: %w", cardID, ErrNotFound)
	}
	card.Toggle()
	b.cards[cardID] = card
	return card, nil
}

// AddList creates an empty list placed to the right of the existing ones.
func (b *Board) AddList(title string) (List, error) {
	id, err := b.issueID(ListIDPrefix)
	if err != nil {
		return List{}, err
	}
	list, err := NewList(id, title, NextListPosition(len(b.lists)))
	if err != nil {
		return List{}, err
	}
	b.lists[id] = &list
	b.listOrder = append(b.listOrder, id)
	return list.clone(), nil
}

// EditListTitle replaces a list's title with its trimmed form.
func (b *Board) EditListTitle(listID, title string) (List, error) {
	list, ok := b.lists[listID]
	if !ok {
		return List{}, fmt.Errorf("edit list %q: %w", listID, ErrNotFound)
	}
	list.Rename(title)
	return list.clone(), nil
}

// DeleteList removes a list, its entry in the list order, and every card it owns.
func (b *Board) DeleteList(listID string) error {
	list, ok := b.lists[listID]
	if !ok {
		return fmt.Errorf("delete list %q: %w", listID, ErrNotFound)
	}
	for _, cardID := range list.CardIDs {
		delete(b.cards, cardID)
		delete(b.owners, cardID)
		b.retired[cardID] = struct{}{}
	}
	delete(b.lists, listID)
	b.listOrder = slices.DeleteFunc(b.listOrder, func(id string) bool { return id == listID })
	b.retired[listID] = struct{}{}
	return nil
}

// UpdateListPosition overwrites a list's position verbatim.
func (b *Board) UpdateListPosition(listID string, position Position) (List, error) {
	list, ok := b.lists[listID]
	if !ok {
		return List{}, fmt.Errorf("position list %q: %w", listID, ErrNotFound)
	}
	list.Position = position
	return list.clone(), nil
}

// MoveCard removes the card at source and inserts it at destination.
//
// The destination index is applied after the removal, so within one list every
// index past the source shifts down by one. Destination indices past the end append.
func (b *Board) MoveCard(source, destination CardSlot, cardID string) error {
	src, ok := b.lists[source.ListID]
	if !ok {
		return fmt.Errorf("move card %q from list %q: %w", cardID, source.ListID, ErrNotFound)
	}
	dst, ok := b.lists[destination.ListID]
	if !ok {
		return fmt.Errorf("move card %q to list %q: %w", cardID, destination.ListID, ErrNotFound)
	}
	if _, ok := b.cards[cardID]; !ok {
		return fmt.Errorf("move card %q: %w", cardID, ErrNotFound)
	}
	if source.Index < 0 || source.Index >= len(src.CardIDs) || src.CardIDs[source.Index] != cardID {
		return fmt.Errorf("move card %q: source index %d does not hold it: %w", cardID, source.Index, ErrInvalidMove)
	}
	if destination.Index < 0 {
		return fmt.Errorf("move card %q: destination index %d: %w", cardID, destination.Index, ErrInvalidMove)
	}

	src.CardIDs = removeAt(src.CardIDs, source.Index)
	dst.CardIDs = insertAt(dst.CardIDs, destination.Index, cardID)
	b.owners[cardID] = dst.ID
	return nil
}

// MoveList removes the list at source and inserts it at destination in the list order.
func (b *Board) MoveList(source, destination ListSlot, listID string) error {
	if _, ok := b.lists[listID]; !ok {
		return fmt.Errorf("move list %q: %w", listID, ErrNotFound)
	}
	if source.Index < 0 || source.Index >= len(b.listOrder) || b.listOrder[source.Index] != listID {
		return fmt.Errorf("move list %q: source index %d does not hold it: %w", listID, source.Index, ErrInvalidMove)
	}
	if destination.Index < 0 {
		return fmt.Errorf("move list %q: destination index %d: %w", listID, destination.Index, ErrInvalidMove)
	}
	b.listOrder = removeAt(b.listOrder, source.Index)
	b.listOrder = insertAt(b.listOrder, destination.Index, listID)
	return nil
}

// Card returns one card by id.
func (b *Board) Card(cardID string) (Card, bool) {
	card, ok := b.cards[cardID]
	return card, ok
}

// List returns a detached copy of one list.
func (b *Board) List(listID string) (List, bool) {
	list, ok := b.lists[listID]
	if !ok {
		return List{}, false
	}
	return list.clone(), true
}

// Lists returns detached copies of every list in display order.
func (b *Board) Lists() []List {
	out := make([]List, 0, len(b.listOrder))
	for _, id := range b.listOrder {
		out = append(out, b.lists[id].clone())
	}
	return out
}

// ListOrder returns a copy of the list display order.
func (b *Board) ListOrder() []string {
	return slices.Clone(b.listOrder)
}

// HasList reports whether id names a list.
func (b *Board) HasList(listID string) bool {
	_, ok := b.lists[listID]
	return ok
}

// HasCard reports whether id names a card.
func (b *Board) HasCard(cardID string) bool {
	_, ok := b.cards[cardID]
	return ok
}

// CardOwner returns the list owning a card and the card's index within it.
func (b *Board) CardOwner(cardID string) (string, int, bool) {
	listID, ok := b.owners[cardID]
	if !ok {
		return "", -1, false
	}
	index := b.lists[listID].IndexOf(cardID)
	if index < 0 {
		return "", -1, false
	}
	return listID, index, true
}

// CardCount returns the number of cards in one list, zero when missing.
func (b *Board) CardCount(listID string) int {
	list, ok := b.lists[listID]
	if !ok {
		return 0
	}
	return len(list.CardIDs)
}

// ListCount returns the number of lists.
func (b *Board) ListCount() int {
	return len(b.lists)
}

// State returns a detached copy of the whole board.
// Cards follow list display order, then card order within each list.
func (b *Board) State() BoardState {
	state := BoardState{
		Lists: b.Lists(),
		Cards: make([]Card, 0, len(b.cards)),
	}
	for _, list := range state.Lists {
		for _, cardID := range list.CardIDs {
			state.Cards = append(state.Cards, b.cards[cardID])
		}
	}
	return state
}

// Clone returns a deep copy sharing no storage with b. The clone keeps b's
// retired ids and id generator.
func (b *Board) Clone() *Board {
	out := &Board{
		cards:     maps.Clone(b.cards),
		lists:     make(map[string]*List, len(b.lists)),
		listOrder: slices.Clone(b.listOrder),
		owners:    maps.Clone(b.owners),
		retired:   maps.Clone(b.retired),
		newID:     b.newID,
	}
	for id, list := range b.lists {
		copied := list.clone()
		out.lists[id] = &copied
	}
	return out
}

// Validate checks every board invariant.
func (b *Board) Validate() error {
	if len(b.listOrder) != len(b.lists) {
		return fmt.Errorf("%w: list order holds %d ids for %d lists", ErrInvalidBoard, len(b.listOrder), len(b.lists))
	}
	seenList := make(map[string]struct{}, len(b.listOrder))
	owned := make(map[string]string, len(b.cards))
	for _, listID := range b.listOrder {
		list, ok := b.lists[listID]
		if !ok {
			return fmt.Errorf("%w: list order references unknown list %q", ErrInvalidBoard, listID)
		}
		if _, dup := seenList[listID]; dup {
			return fmt.Errorf("%w: list %q appears twice in list order", ErrInvalidBoard, listID)
		}
		seenList[listID] = struct{}{}
		for _, cardID := range list.CardIDs {
			if _, ok := b.cards[cardID]; !ok {
				return fmt.Errorf("%w: list %q references unknown card %q", ErrInvalidBoard, listID, cardID)
			}
			if other, dup := owned[cardID]; dup {
				return fmt.Errorf("%w: card %q owned by both %q and %q", ErrInvalidBoard, cardID, other, listID)
			}
			owned[cardID] = listID
		}
	}
	if len(owned) != len(b.cards) {
		return fmt.Errorf("%w: %d of %d cards have no owning list", ErrInvalidBoard, len(b.cards)-len(owned), len(b.cards))
	}
	for cardID, listID := range owned {
		if b.owners[cardID] != listID {
			return fmt.Errorf("%w: owner index maps card %q to %q, want %q", ErrInvalidBoard, cardID, b.owners[cardID], listID)
		}
	}
	if len(b.owners) != len(owned) {
		return fmt.Errorf("%w: owner index holds stale entries", ErrInvalidBoard)
	}
	return nil
}

// issueID returns a fresh prefixed id that was never used on this board.
func (b *Board) issueID(prefix string) (string, error) {
	for range maxIDAttempts {
		suffix := strings.TrimSpace(b.newID())
		if suffix == "" {
			continue
		}
		id := prefix + suffix
		if b.idInUse(id) {
			continue
		}
		return id, nil
	}
	return "", fmt.Errorf("generate %sid: %w", prefix, ErrInvalidID)
}

// idInUse reports whether id is live or was retired by a deletion.
func (b *Board) idInUse(id string) bool {
	if _, ok := b.cards[id]; ok {
		return true
	}
	if _, ok := b.lists[id]; ok {
		return true
	}
	_, ok := b.retired[id]
	return ok
}
