package domain

import (
	"slices"
	"strings"
)

// ListIDPrefix prefixes every generated list id.
const ListIDPrefix = "list-"

// List represents an ordered column of card ids placed at a free-form position.
type List struct {
	ID       string
	Title    string
	CardIDs  []string
	Position Position
}

// NewList constructs an empty list with a trimmed title. Empty titles are allowed.
func NewList(id, title string, position Position) (List, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return List{}, ErrInvalidID
	}
	return List{
		ID:       id,
		Title:    strings.TrimSpace(title),
		CardIDs:  []string{},
		Position: position,
	}, nil
}

// Rename replaces the title with its trimmed form.
func (l *List) Rename(title string) {
	l.Title = strings.TrimSpace(title)
}

// IndexOf returns the position of one card id, or -1.
func (l List) IndexOf(cardID string) int {
	return slices.Index(l.CardIDs, cardID)
}

// clone returns a copy that shares no backing array with l.
func (l List) clone() List {
	l.CardIDs = slices.Clone(l.CardIDs)
	if l.CardIDs == nil {
		l.CardIDs = []string{}
	}
	return l
}

// removeAt deletes the element at index.
func removeAt(ids []string, index int) []string {
	return slices.Delete(ids, index, index+1)
}

// insertAt inserts id at index, appending when index is past the end.
func insertAt(ids []string, index int, id string) []string {
	if index > len(ids) {
		index = len(ids)
	}
	return slices.Insert(ids, index, id)
}
