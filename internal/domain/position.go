package domain

// Layout constants for newly created lists.
const (
	listOriginX = 50
	listOriginY = 100
	listSpacing = 320
)

// ListFootprint is the rendered size of one list used for viewport clamping.
var ListFootprint = Size{Width: 300, Height: 200}

// Position is a pixel coordinate on the board canvas.
type Position struct {
	X float64
	Y float64
}

// Size is a width/height pair in pixels.
type Size struct {
	Width  float64
	Height float64
}

// NextListPosition returns the initial position for a list added to a board holding existing lists.
func NextListPosition(existing int) Position {
	if existing <= 0 {
		return Position{X: listOriginX, Y: listOriginY}
	}
	return Position{X: listOriginX + float64(existing*listSpacing), Y: listOriginY}
}

// ClampPosition keeps a list with the given footprint inside the viewport.
// Coordinates never go below zero, even when the viewport is smaller than the footprint.
func ClampPosition(pos Position, viewport, footprint Size) Position {
	maxX := viewport.Width - footprint.Width
	maxY := viewport.Height - footprint.Height
	return Position{
		X: max(0, min(pos.X, maxX)),
		Y: max(0, min(pos.Y, maxY)),
	}
}
