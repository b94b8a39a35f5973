package domain

import (
	"errors"
	"math/rand/v2"
	"slices"
	"testing"
)

// newTwoListBoard builds L1 [A, B] and L2 [] for move scenarios.
func newTwoListBoard(t *testing.T) *Board {
	t.Helper()
	b, err := RestoreBoard(BoardState{
		Lists: []List{
			{ID: "L1", Title: "To Do", CardIDs: []string{"A", "B"}, Position: Position{X: 50, Y: 100}},
			{ID: "L2", Title: "Done", Position: Position{X: 370, Y: 100}},
		},
		Cards: []Card{
			{ID: "A", Content: "alpha"},
			{ID: "B", Content: "beta", Completed: true},
		},
	}, SequentialIDs())
	if err != nil {
		t.Fatalf("RestoreBoard() error = %v", err)
	}
	return b
}

// cardIDs returns a list's card ids or fails the test.
func cardIDs(t *testing.T, b *Board, listID string) []string {
	t.Helper()
	l, ok := b.List(listID)
	if !ok {
		t.Fatalf("list %q missing", listID)
	}
	return l.CardIDs
}

func TestAddCardAppendsToList(t *testing.T) {
	b := NewBoard(SequentialIDs())
	l, err := b.AddList("Backlog")
	if err != nil {
		t.Fatalf("AddList() error = %v", err)
	}
	c, err := b.AddCard(l.ID, "  write tests ")
	if err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}
	if c.Content != "write tests" || c.Completed {
		t.Fatalf("unexpected card %+v", c)
	}
	if got := cardIDs(t, b, l.ID); !slices.Equal(got, []string{c.ID}) {
		t.Fatalf("card ids = %v, want [%s]", got, c.ID)
	}
	owner, index, ok := b.CardOwner(c.ID)
	if !ok || owner != l.ID || index != 0 {
		t.Fatalf("CardOwner() = (%q, %d, %t)", owner, index, ok)
	}
}

func TestAddCardAllowsEmptyContent(t *testing.T) {
	b := newTwoListBoard(t)
	c, err := b.AddCard("L2", "   ")
	if err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}
	if c.Content != "" {
		t.Fatalf("expected empty content, got %q", c.Content)
	}
}

func TestAddCardRejectsMissingList(t *testing.T) {
	b := newTwoListBoard(t)
	before := len(b.State().Cards)
	if _, err := b.AddCard("nope", "orphan"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if got := len(b.State().Cards); got != before {
		t.Fatalf("card count = %d, want %d (no orphan)", got, before)
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
}

func TestEditCardAppliesTrimmedValue(t *testing.T) {
	b := newTwoListBoard(t)
	c, err := b.EditCard("A", "  renamed  ")
	if err != nil {
		t.Fatalf("EditCard() error = %v", err)
	}
	if c.Content != "renamed" {
		t.Fatalf("unexpected content %q", c.Content)
	}
	// The store itself is unguarded: blank edits are written.
	c, err = b.EditCard("A", "   ")
	if err != nil {
		t.Fatalf("EditCard() error = %v", err)
	}
	if c.Content != "" {
		t.Fatalf("expected store to write empty content, got %q", c.Content)
	}
	if _, err := b.EditCard("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestToggleCardCompleteTwiceRestores(t *testing.T) {
	b := newTwoListBoard(t)
	if _, err := b.ToggleCardComplete("A"); err != nil {
		t.Fatalf("ToggleCardComplete() error = %v", err)
	}
	c, _ := b.Card("A")
	if !c.Completed {
		t.Fatal("expected completed after toggle")
	}
	if _, err := b.ToggleCardComplete("A"); err != nil {
		t.Fatalf("ToggleCardComplete() error = %v", err)
	}
	c, _ = b.Card("A")
	if c.Completed {
		t.Fatal("expected original flag after two toggles")
	}
	if _, err := b.ToggleCardComplete("missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAddListPositions(t *testing.T) {
	b := NewBoard(SequentialIDs())
	first, err := b.AddList("one")
	if err != nil {
		t.Fatalf("AddList() error = %v", err)
	}
	if first.Position != (Position{X: 50, Y: 100}) {
		t.Fatalf("first position = %+v", first.Position)
	}
	if _, err := b.AddList("two"); err != nil {
		t.Fatalf("AddList() error = %v", err)
	}
	backlog, err := b.AddList("  Backlog ")
	if err != nil {
		t.Fatalf("AddList() error = %v", err)
	}
	if backlog.Position != (Position{X: 690, Y: 100}) {
		t.Fatalf("third position = %+v, want (690, 100)", backlog.Position)
	}
	if backlog.Title != "Backlog" {
		t.Fatalf("unexpected title %q", backlog.Title)
	}
	order := b.ListOrder()
	if len(order) != 3 || order[2] != backlog.ID {
		t.Fatalf("list order = %v", order)
	}
}

func TestEditListTitle(t *testing.T) {
	b := newTwoListBoard(t)
	l, err := b.EditListTitle("L1", "  Doing ")
	if err != nil {
		t.Fatalf("EditListTitle() error = %v", err)
	}
	if l.Title != "Doing" {
		t.Fatalf("unexpected title %q", l.Title)
	}
	if _, err := b.EditListTitle("missing", "x"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestDeleteListCascades(t *testing.T) {
	b := newTwoListBoard(t)
	keep, err := b.AddCard("L2", "survivor")
	if err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}
	if err := b.DeleteList("L1"); err != nil {
		t.Fatalf("DeleteList() error = %v", err)
	}
	for _, id := range []string{"A", "B"} {
		if b.HasCard(id) {
			t.Fatalf("expected card %q deleted", id)
		}
		if _, _, ok := b.CardOwner(id); ok {
			t.Fatalf("expected owner entry for %q removed", id)
		}
	}
	if b.HasList("L1") {
		t.Fatal("expected list L1 deleted")
	}
	if slices.Contains(b.ListOrder(), "L1") {
		t.Fatalf("list order still holds L1: %v", b.ListOrder())
	}
	if !b.HasCard(keep.ID) {
		t.Fatal("expected card in other list untouched")
	}
	if err := b.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if err := b.DeleteList("L1"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func TestDeletedIDsAreNeverReused(t *testing.T) {
	// A generator that keeps replaying the same suffix.
	replay := func() string { return "same" }
	b := NewBoard(replay)
	l, err := b.AddList("first")
	if err != nil {
		t.Fatalf("AddList() error = %v", err)
	}
	if err := b.DeleteList(l.ID); err != nil {
		t.Fatalf("DeleteList() error = %v", err)
	}
	if _, err := b.AddList("second"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for retired id, got %v", err)
	}
}

func TestUpdateListPositionIsVerbatim(t *testing.T) {
	b := newTwoListBoard(t)
	l, err := b.UpdateListPosition("L1", Position{X: -25, Y: 9000})
	if err != nil {
		t.Fatalf("UpdateListPosition() error = %v", err)
	}
	if l.Position != (Position{X: -25, Y: 9000}) {
		t.Fatalf("position = %+v", l.Position)
	}
	if _, err := b.UpdateListPosition("missing", Position{}); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMoveCardAcrossLists(t *testing.T) {
	b := newTwoListBoard(t)
	if err := b.MoveCard(CardSlot{ListID: "L1", Index: 0}, CardSlot{ListID: "L2", Index: 0}, "A"); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"B"}) {
		t.Fatalf("L1 = %v, want [B]", got)
	}
	if got := cardIDs(t, b, "L2"); !slices.Equal(got, []string{"A"}) {
		t.Fatalf("L2 = %v, want [A]", got)
	}
	owner, _, _ := b.CardOwner("A")
	if owner != "L2" {
		t.Fatalf("owner = %q, want L2", owner)
	}
}

func TestMoveCardWithinListShiftsAfterRemoval(t *testing.T) {
	b := newTwoListBoard(t)
	c, err := b.AddCard("L1", "gamma")
	if err != nil {
		t.Fatalf("AddCard() error = %v", err)
	}
	// [A, B, C]: moving A to index 2 lands after C because B and C shift down first.
	if err := b.MoveCard(CardSlot{ListID: "L1", Index: 0}, CardSlot{ListID: "L1", Index: 2}, "A"); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"B", c.ID, "A"}) {
		t.Fatalf("L1 = %v", got)
	}
	if err := b.MoveCard(CardSlot{ListID: "L1", Index: 2}, CardSlot{ListID: "L1", Index: 0}, "A"); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"A", "B", c.ID}) {
		t.Fatalf("L1 = %v", got)
	}
}

func TestMoveCardPastEndAppends(t *testing.T) {
	b := newTwoListBoard(t)
	if err := b.MoveCard(CardSlot{ListID: "L1", Index: 0}, CardSlot{ListID: "L1", Index: 2}, "A"); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"B", "A"}) {
		t.Fatalf("L1 = %v, want [B A]", got)
	}
}

func TestMoveCardRejections(t *testing.T) {
	cases := []struct {
		name    string
		src     CardSlot
		dst     CardSlot
		cardID  string
		wantErr error
	}{
		{name: "missing source list", src: CardSlot{ListID: "X", Index: 0}, dst: CardSlot{ListID: "L2"}, cardID: "A", wantErr: ErrNotFound},
		{name: "missing destination list", src: CardSlot{ListID: "L1", Index: 0}, dst: CardSlot{ListID: "X"}, cardID: "A", wantErr: ErrNotFound},
		{name: "missing card", src: CardSlot{ListID: "L1", Index: 0}, dst: CardSlot{ListID: "L2"}, cardID: "Z", wantErr: ErrNotFound},
		{name: "index holds other card", src: CardSlot{ListID: "L1", Index: 1}, dst: CardSlot{ListID: "L2"}, cardID: "A", wantErr: ErrInvalidMove},
		{name: "source out of range", src: CardSlot{ListID: "L1", Index: 7}, dst: CardSlot{ListID: "L2"}, cardID: "A", wantErr: ErrInvalidMove},
		{name: "negative source", src: CardSlot{ListID: "L1", Index: -1}, dst: CardSlot{ListID: "L2"}, cardID: "B", wantErr: ErrInvalidMove},
		{name: "negative destination", src: CardSlot{ListID: "L1", Index: 0}, dst: CardSlot{ListID: "L2", Index: -1}, cardID: "A", wantErr: ErrInvalidMove},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			b := newTwoListBoard(t)
			err := b.MoveCard(tc.src, tc.dst, tc.cardID)
			if !errors.Is(err, tc.wantErr) {
				t.Fatalf("MoveCard() error = %v, want %v", err, tc.wantErr)
			}
			if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"A", "B"}) {
				t.Fatalf("L1 changed on rejected move: %v", got)
			}
			if got := cardIDs(t, b, "L2"); len(got) != 0 {
				t.Fatalf("L2 changed on rejected move: %v", got)
			}
		})
	}
}

func TestMoveList(t *testing.T) {
	b := NewBoard(SequentialIDs())
	var ids []string
	for _, title := range []string{"a", "b", "c"} {
		l, err := b.AddList(title)
		if err != nil {
			t.Fatalf("AddList() error = %v", err)
		}
		ids = append(ids, l.ID)
	}
	if err := b.MoveList(ListSlot{Index: 0}, ListSlot{Index: 2}, ids[0]); err != nil {
		t.Fatalf("MoveList() error = %v", err)
	}
	if got := b.ListOrder(); !slices.Equal(got, []string{ids[1], ids[2], ids[0]}) {
		t.Fatalf("list order = %v", got)
	}
	if err := b.MoveList(ListSlot{Index: 0}, ListSlot{Index: 1}, ids[0]); !errors.Is(err, ErrInvalidMove) {
		t.Fatalf("expected ErrInvalidMove, got %v", err)
	}
	if err := b.MoveList(ListSlot{Index: 0}, ListSlot{Index: 1}, "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestAccessorsReturnDetachedCopies(t *testing.T) {
	b := newTwoListBoard(t)
	l, _ := b.List("L1")
	l.CardIDs[0] = "tampered"
	order := b.ListOrder()
	order[0] = "tampered"
	state := b.State()
	state.Lists[0].CardIDs[1] = "tampered"

	if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("L1 aliased by accessor: %v", got)
	}
	if got := b.ListOrder(); got[0] != "L1" {
		t.Fatalf("list order aliased by accessor: %v", got)
	}
}

func TestCloneIsIndependent(t *testing.T) {
	b := newTwoListBoard(t)
	c := b.Clone()
	if err := c.MoveCard(CardSlot{ListID: "L1", Index: 0}, CardSlot{ListID: "L2", Index: 0}, "A"); err != nil {
		t.Fatalf("MoveCard() error = %v", err)
	}
	if _, err := c.EditCard("B", "changed"); err != nil {
		t.Fatalf("EditCard() error = %v", err)
	}
	if got := cardIDs(t, b, "L1"); !slices.Equal(got, []string{"A", "B"}) {
		t.Fatalf("original L1 changed through clone: %v", got)
	}
	if card, _ := b.Card("B"); card.Content != "beta" {
		t.Fatalf("original card changed through clone: %q", card.Content)
	}
	if owner, _, _ := b.CardOwner("A"); owner != "L1" {
		t.Fatalf("original owner index changed through clone: %q", owner)
	}
	if err := c.Validate(); err != nil {
		t.Fatalf("clone Validate() error = %v", err)
	}
}

func TestRestoreBoardRejectsBrokenState(t *testing.T) {
	cases := []struct {
		name  string
		state BoardState
	}{
		{
			name: "unknown card reference",
			state: BoardState{
				Lists: []List{{ID: "L1", CardIDs: []string{"A"}}},
			},
		},
		{
			name: "shared ownership",
			state: BoardState{
				Lists: []List{{ID: "L1", CardIDs: []string{"A"}}, {ID: "L2", CardIDs: []string{"A"}}},
				Cards: []Card{{ID: "A"}},
			},
		},
		{
			name: "orphan card",
			state: BoardState{
				Lists: []List{{ID: "L1"}},
				Cards: []Card{{ID: "A"}},
			},
		},
		{
			name: "duplicate list",
			state: BoardState{
				Lists: []List{{ID: "L1"}, {ID: "L1"}},
			},
		},
		{
			name: "blank card id",
			state: BoardState{
				Cards: []Card{{ID: " "}},
			},
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := RestoreBoard(tc.state, nil); !errors.Is(err, ErrInvalidBoard) {
				t.Fatalf("expected ErrInvalidBoard, got %v", err)
			}
		})
	}
}

// TestRandomOperationsPreserveInvariants drives a long random sequence of
// mutations and checks integrity, ownership, uniqueness, and move conservation.
func TestRandomOperationsPreserveInvariants(t *testing.T) {
	rng := rand.New(rand.NewPCG(7, 11))
	b := NewBoard(SequentialIDs())
	issued := map[string]struct{}{}
	record := func(id string) {
		if _, dup := issued[id]; dup {
			t.Fatalf("id %q issued twice", id)
		}
		issued[id] = struct{}{}
	}

	for step := range 2000 {
		lists := b.Lists()
		switch op := rng.IntN(8); {
		case op == 0 || len(lists) == 0:
			l, err := b.AddList("list")
			if err != nil {
				t.Fatalf("step %d AddList() error = %v", step, err)
			}
			record(l.ID)
		case op <= 2:
			l := lists[rng.IntN(len(lists))]
			c, err := b.AddCard(l.ID, "card")
			if err != nil {
				t.Fatalf("step %d AddCard() error = %v", step, err)
			}
			record(c.ID)
		case op <= 5:
			src := lists[rng.IntN(len(lists))]
			if len(src.CardIDs) == 0 {
				continue
			}
			dst := lists[rng.IntN(len(lists))]
			before := len(b.State().Cards)
			idx := rng.IntN(len(src.CardIDs))
			cardID := src.CardIDs[idx]
			err := b.MoveCard(CardSlot{ListID: src.ID, Index: idx}, CardSlot{ListID: dst.ID, Index: rng.IntN(len(dst.CardIDs) + 2)}, cardID)
			if err != nil {
				t.Fatalf("step %d MoveCard() error = %v", step, err)
			}
			if after := len(b.State().Cards); after != before {
				t.Fatalf("step %d move changed card count %d -> %d", step, before, after)
			}
		case op == 6:
			from := rng.IntN(len(lists))
			if err := b.MoveList(ListSlot{Index: from}, ListSlot{Index: rng.IntN(len(lists))}, lists[from].ID); err != nil {
				t.Fatalf("step %d MoveList() error = %v", step, err)
			}
		default:
			if rng.IntN(4) != 0 {
				continue
			}
			if err := b.DeleteList(lists[rng.IntN(len(lists))].ID); err != nil {
				t.Fatalf("step %d DeleteList() error = %v", step, err)
			}
		}
		if err := b.Validate(); err != nil {
			t.Fatalf("step %d Validate() error = %v", step, err)
		}
	}
}
