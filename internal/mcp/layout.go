package mcpserver

import (
	"math"

	"invitopia/internal/domain"
)

const (
	GridSize = 10.0
	Padding  = 20.0 // gap kept around existing elements
)

// LayoutEngine places elements on a template canvas so that elements
// created without coordinates don't overlap existing ones.
type LayoutEngine struct {
	gridSize float64
	padding  float64
}

func NewLayoutEngine() *LayoutEngine {
	return &LayoutEngine{
		gridSize: GridSize,
		padding:  Padding,
	}
}

// snap rounds v to the nearest grid point.
func (le *LayoutEngine) snap(v float64) float64 {
	return math.Round(v/le.gridSize) * le.gridSize
}

// rect is a simple axis-aligned bounding box.
type rect struct {
	x, y, w, h float64
}

func (a rect) intersects(b rect) bool {
	return a.x < b.x+b.w && a.x+a.w > b.x &&
		a.y < b.y+b.h && a.y+a.h > b.y
}

func elementRect(e domain.Element) rect {
	return rect{e.Position.X, e.Position.Y, e.Size.Width, e.Size.Height}
}

// NextPosition finds the first free grid position inside canvas for an
// element of the given size, scanning rows top to bottom. Hidden elements
// and elements covering the whole canvas (backgrounds) are ignored. When
// nothing fits the element goes below the lowest element.
func (le *LayoutEngine) NextPosition(existing []domain.Element, size domain.Size, canvas domain.Metadata) domain.Position {
	occupied := make([]rect, 0, len(existing))
	for _, e := range existing {
		if !e.Visible || (e.Size.Width >= canvas.Width && e.Size.Height >= canvas.Height) {
			continue
		}
		occupied = append(occupied, elementRect(e))
	}

	candidate := rect{w: size.Width, h: size.Height}
	for y := 0.0; y+size.Height <= canvas.Height; y += le.gridSize {
		for x := 0.0; x+size.Width <= canvas.Width; x += le.gridSize {
			candidate.x = le.snap(x)
			candidate.y = le.snap(y)

			overlaps := false
			for _, occ := range occupied {
				padded := rect{
					x: occ.x - le.padding,
					y: occ.y - le.padding,
					w: occ.w + le.padding*2,
					h: occ.h + le.padding*2,
				}
				if candidate.intersects(padded) {
					overlaps = true
					break
				}
			}
			if !overlaps {
				return domain.Position{X: candidate.x, Y: candidate.y}
			}
		}
	}

	// Fallback: below everything
	maxY := 0.0
	for _, occ := range occupied {
		if occ.y+occ.h > maxY {
			maxY = occ.y + occ.h
		}
	}
	return domain.Position{X: 0, Y: le.snap(maxY + le.padding)}
}

// ArrangeGroup lays elements out in rows starting at start, wrapping at
// the canvas width. It returns repositioned copies in the input order.
func (le *LayoutEngine) ArrangeGroup(elements []domain.Element, start domain.Position, canvas domain.Metadata) []domain.Element {
	out := domain.CloneElements(elements)
	x := le.snap(start.X)
	y := le.snap(start.Y)
	rowHeight := 0.0

	for i := range out {
		w := out[i].Size.Width
		if x > le.snap(start.X) && x+w > canvas.Width {
			x = le.snap(start.X)
			y += le.snap(rowHeight + le.padding)
			rowHeight = 0
		}

		out[i].Position = domain.Position{X: x, Y: y}
		if out[i].Size.Height > rowHeight {
			rowHeight = out[i].Size.Height
		}
		x += le.snap(w + le.padding)
	}
	return out
}
