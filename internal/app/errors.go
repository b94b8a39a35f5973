package app

import (
	"errors"

	"github.com/evanschultz/kanflow/internal/domain"
)

// ErrNotFound and related errors describe validation and runtime failures.
// ErrNotFound and ErrInvalidMove are the domain sentinels, so errors.Is matches either layer.
var (
	ErrNotFound     = domain.ErrNotFound
	ErrInvalidMove  = domain.ErrInvalidMove
	ErrInvalidInput = errors.New("invalid input")
	ErrInvalidSeed  = errors.New("invalid seed")
)
