package mcpserver

import (
	"testing"

	"invitopia/internal/domain"
)

var canvas = domain.DefaultMetadata // 500 x 700

func el(id string, x, y, w, h float64) domain.Element {
	return domain.Element{
		ID: id, Kind: domain.ElementShape, Visible: true,
		Position: domain.Position{X: x, Y: y}, Size: domain.Size{Width: w, Height: h},
		Shape: &domain.ShapeContent{Kind: domain.ShapeRect},
	}
}

func TestNextPosition_EmptyCanvas(t *testing.T) {
	le := NewLayoutEngine()
	p := le.NextPosition(nil, domain.Size{Width: 240, Height: 48}, canvas)
	if p.X != 0 || p.Y != 0 {
		t.Errorf("expected (0, 0) for empty canvas, got (%.0f, %.0f)", p.X, p.Y)
	}
}

func TestNextPosition_AvoidsExistingElements(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Element{
		el("a", 0, 0, 240, 48),
		el("b", 260, 0, 200, 200),
	}
	size := domain.Size{Width: 200, Height: 100}
	p := le.NextPosition(existing, size, canvas)

	r := rect{p.X, p.Y, size.Width, size.Height}
	for _, e := range existing {
		o := elementRect(e)
		padded := rect{o.x - Padding, o.y - Padding, o.w + Padding*2, o.h + Padding*2}
		if r.intersects(padded) {
			t.Errorf("position (%.0f, %.0f) overlaps %s", p.X, p.Y, e.ID)
		}
	}
	if p.X+size.Width > canvas.Width || p.Y+size.Height > canvas.Height {
		t.Errorf("position (%.0f, %.0f) leaves the canvas", p.X, p.Y)
	}
}

func TestNextPosition_IgnoresBackgroundAndHidden(t *testing.T) {
	le := NewLayoutEngine()
	hidden := el("hidden", 0, 0, 100, 100)
	hidden.Visible = false
	existing := []domain.Element{
		el("bg", 0, 0, 500, 700),
		hidden,
	}
	p := le.NextPosition(existing, domain.Size{Width: 100, Height: 100}, canvas)
	if p.X != 0 || p.Y != 0 {
		t.Errorf("expected (0, 0), got (%.0f, %.0f)", p.X, p.Y)
	}
}

func TestNextPosition_FallsBelowWhenFull(t *testing.T) {
	le := NewLayoutEngine()
	existing := []domain.Element{el("big", 0, 0, 490, 690)}
	p := le.NextPosition(existing, domain.Size{Width: 100, Height: 100}, canvas)
	if p.Y < 690 {
		t.Errorf("expected fallback below the element, got (%.0f, %.0f)", p.X, p.Y)
	}
}

func TestArrangeGroup(t *testing.T) {
	le := NewLayoutEngine()
	elements := []domain.Element{
		el("1", 300, 300, 200, 100),
		el("2", 0, 0, 200, 100),
		el("3", 10, 10, 200, 100),
	}

	arranged := le.ArrangeGroup(elements, domain.Position{}, canvas)
	if len(arranged) != 3 {
		t.Fatalf("expected 3 elements, got %d", len(arranged))
	}
	if elements[0].Position.X != 300 {
		t.Error("input slice was modified")
	}

	for i := 0; i < len(arranged); i++ {
		if arranged[i].Position.X+arranged[i].Size.Width > canvas.Width {
			t.Errorf("element %s overflows the canvas", arranged[i].ID)
		}
		for j := i + 1; j < len(arranged); j++ {
			if elementRect(arranged[i]).intersects(elementRect(arranged[j])) {
				t.Errorf("elements %d and %d overlap", i, j)
			}
		}
	}
	if arranged[2].Position.Y == 0 {
		t.Error("third element should wrap to a second row")
	}
}

func TestSnap(t *testing.T) {
	le := NewLayoutEngine()
	tests := []struct {
		input, want float64
	}{
		{0, 0},
		{4, 0},
		{5, 10},
		{10, 10},
		{26, 30},
	}
	for _, tt := range tests {
		got := le.snap(tt.input)
		if got != tt.want {
			t.Errorf("snap(%.0f) = %.0f, want %.0f", tt.input, got, tt.want)
		}
	}
}
