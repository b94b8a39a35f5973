package domain

import "strings"

// CardIDPrefix prefixes every generated card id.
const CardIDPrefix = "card-"

// Card represents one task unit owned by at most one list.
type Card struct {
	ID        string
	Content   string
	Completed bool
}

// NewCard constructs a card with trimmed content. Empty content is allowed.
func NewCard(id, content string) (Card, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return Card{}, ErrInvalidID
	}
	return Card{
		ID:      id,
		Content: strings.TrimSpace(content),
	}, nil
}

// SetContent replaces the content with its trimmed form.
func (c *Card) SetContent(content string) {
	c.Content = strings.TrimSpace(content)
}

// Toggle flips the completion flag.
func (c *Card) Toggle() {
	c.Completed = !c.Completed
}
