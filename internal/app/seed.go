package app

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/evanschultz/kanflow/internal/domain"
	"gopkg.in/yaml.v3"
)

// SeedDefault and SeedEmpty name the built-in seeds. Any other value is a file path.
const (
	SeedDefault = "default"
	SeedEmpty   = "empty"
)

// maxSeedIDAttempts bounds generator retries while filling missing seed ids.
const maxSeedIDAttempts = 8

//go:embed seeds/default.yaml
var defaultSeed []byte

// Seed is the YAML document describing a board's initial state.
type Seed struct {
	Lists []SeedList `yaml:"lists"`
}

// SeedList is one list in a seed. A missing position places the list in the default row.
type SeedList struct {
	ID       string        `yaml:"id"`
	Title    string        `yaml:"title"`
	Position *SeedPosition `yaml:"position"`
	Cards    []SeedCard    `yaml:"cards"`
}

// SeedPosition is a list position in a seed.
type SeedPosition struct {
	X float64 `yaml:"x"`
	Y float64 `yaml:"y"`
}

// SeedCard is one card in a seed.
type SeedCard struct {
	ID        string `yaml:"id"`
	Content   string `yaml:"content"`
	Completed bool   `yaml:"completed"`
}

// LoadSeed resolves a seed name or path and builds a validated board from it.
// An empty name loads the default seed.
func LoadSeed(name string, newID domain.IDGenerator) (*domain.Board, error) {
	name = strings.TrimSpace(name)
	switch name {
	case "", SeedDefault:
		return parseAndBuild(defaultSeed, newID)
	case SeedEmpty:
		return domain.NewBoard(newID), nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("read seed %q: %w", name, err)
	}
	board, err := parseAndBuild(data, newID)
	if err != nil {
		return nil, fmt.Errorf("seed %q: %w", name, err)
	}
	return board, nil
}

// ParseSeed decodes a YAML seed. Unknown keys are rejected; an empty document is an empty board.
func ParseSeed(data []byte) (Seed, error) {
	var seed Seed
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&seed); err != nil {
		if errors.Is(err, io.EOF) {
			return Seed{}, nil
		}
		return Seed{}, fmt.Errorf("%w: decode yaml: %w", ErrInvalidSeed, err)
	}
	return seed, nil
}

// BuildBoard turns a seed into a board, filling missing ids from newID.
func BuildBoard(seed Seed, newID domain.IDGenerator) (*domain.Board, error) {
	if newID == nil {
		newID = domain.SequentialIDs()
	}
	used := map[string]struct{}{}
	for _, list := range seed.Lists {
		if id := strings.TrimSpace(list.ID); id != "" {
			used[id] = struct{}{}
		}
		for _, card := range list.Cards {
			if id := strings.TrimSpace(card.ID); id != "" {
				used[id] = struct{}{}
			}
		}
	}
	fill := func(id, prefix string) (string, error) {
		if id = strings.TrimSpace(id); id != "" {
			return id, nil
		}
		for range maxSeedIDAttempts {
			suffix := strings.TrimSpace(newID())
			if suffix == "" {
				continue
			}
			candidate := prefix + suffix
			if _, taken := used[candidate]; taken {
				continue
			}
			used[candidate] = struct{}{}
			return candidate, nil
		}
		return "", fmt.Errorf("%w: generate %sid: %w", ErrInvalidSeed, prefix, domain.ErrInvalidID)
	}

	var state domain.BoardState
	for i, raw := range seed.Lists {
		listID, err := fill(raw.ID, domain.ListIDPrefix)
		if err != nil {
			return nil, err
		}
		position := domain.NextListPosition(i)
		if raw.Position != nil {
			position = domain.Position{X: raw.Position.X, Y: raw.Position.Y}
		}
		list := domain.List{ID: listID, Title: raw.Title, Position: position, CardIDs: make([]string, 0, len(raw.Cards))}
		for _, rawCard := range raw.Cards {
			cardID, err := fill(rawCard.ID, domain.CardIDPrefix)
			if err != nil {
				return nil, err
			}
			list.CardIDs = append(list.CardIDs, cardID)
			state.Cards = append(state.Cards, domain.Card{ID: cardID, Content: rawCard.Content, Completed: rawCard.Completed})
		}
		state.Lists = append(state.Lists, list)
	}

	board, err := domain.RestoreBoard(state, newID)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidSeed, err)
	}
	return board, nil
}

func parseAndBuild(data []byte, newID domain.IDGenerator) (*domain.Board, error) {
	seed, err := ParseSeed(data)
	if err != nil {
		return nil, err
	}
	return BuildBoard(seed, newID)
}
