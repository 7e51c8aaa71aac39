// Package layout maps subtitle slots to on-screen anchors.
//
// Comment overlays are placed on a fixed COLS×ROWS grid; each anchor sits a
// quarter cell in from the cell's top-left corner. Indices past the grid
// capacity wrap around and reuse earlier cells. All functions are pure.
package layout

import "strings"

const (
	Cols = 4
	Rows = 5
)

// Capacity is the number of distinct grid cells.
const Capacity = Cols * Rows

// Slot is an overlay anchor in canvas pixels.
type Slot struct {
	Index int
	X     int
	Y     int
}

// Anchor returns the grid anchor for slot i on a w×h canvas. The second
// argument is the pass size; placement ignores it and wraps i modulo
// Capacity instead.
func Anchor(i, _, w, h int) Slot {
	cell := i % Capacity
	if cell < 0 {
		cell += Capacity
	}
	col := cell % Cols
	row := (cell / Cols) % Rows
	cellW := w / Cols
	cellH := h / Rows
	return Slot{
		Index: i,
		X:     col*cellW + cellW/4,
		Y:     row*cellH + cellH/4,
	}
}

// TitleAnchor returns the canvas center.
func TitleAnchor(w, h int) Slot {
	return Slot{X: w / 2, Y: h / 2}
}

// Slots computes anchors for indices 0..m-1.
func Slots(m, w, h int) []Slot {
	if m <= 0 {
		return nil
	}
	slots := make([]Slot, m)
	for i := range slots {
		slots[i] = Anchor(i, m, w, h)
	}
	return slots
}

// Named positions for single-clip overlays.
const (
	PositionTop    = "top"
	PositionCenter = "center"
	PositionBottom = "bottom"
)

// Position resolves a named position to the top-left corner of an overlay
// of overlayW×overlayH, horizontally centered. Unknown names center the
// overlay vertically.
func Position(name string, margin, w, h, overlayW, overlayH int) Slot {
	x := (w - overlayW) / 2
	var y int
	switch strings.ToLower(strings.TrimSpace(name)) {
	case PositionTop:
		y = margin
	case PositionBottom:
		y = h - margin - overlayH
	default:
		y = (h - overlayH) / 2
	}
	return Slot{X: x, Y: y}
}
