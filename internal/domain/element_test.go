package domain_test

import (
	"errors"
	"testing"

	"invitopia/internal/domain"
)

func TestNewElement_DefaultPayloads(t *testing.T) {
	tests := []struct {
		kind  domain.ElementKind
		check func(domain.Element) bool
	}{
		{domain.ElementText, func(e domain.Element) bool { return e.Text != nil && e.Text.FontSize > 0 }},
		{domain.ElementImage, func(e domain.Element) bool { return e.Image != nil }},
		{domain.ElementShape, func(e domain.Element) bool { return e.Shape != nil && e.Shape.Kind == domain.ShapeRect }},
	}
	for _, tt := range tests {
		e, err := domain.NewElement("id", tt.kind, domain.Position{X: 1, Y: 2})
		if err != nil {
			t.Fatalf("%s: %v", tt.kind, err)
		}
		if !tt.check(e) || !e.Visible || e.Locked {
			t.Errorf("%s: unexpected element %+v", tt.kind, e)
		}
		if err := e.Validate(); err != nil {
			t.Errorf("%s: default element invalid: %v", tt.kind, err)
		}
	}

	if _, err := domain.NewElement("id", "video", domain.Position{}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for unknown kind, got %v", err)
	}
}

func TestElement_ValidateRejectsMismatchedPayload(t *testing.T) {
	e := domain.Element{ID: "x", Kind: domain.ElementText, Image: &domain.ImageContent{}}
	if err := e.Validate(); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestValidateElements_RejectsDuplicateIDs(t *testing.T) {
	a, _ := domain.NewElement("dup", domain.ElementText, domain.Position{})
	b, _ := domain.NewElement("dup", domain.ElementShape, domain.Position{X: 40})
	c, _ := domain.NewElement("other", domain.ElementShape, domain.Position{})

	if err := domain.ValidateElements([]domain.Element{a, c}); err != nil {
		t.Fatalf("unique ids rejected: %v", err)
	}
	if err := domain.ValidateElements([]domain.Element{a, c, b}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument for duplicate id, got %v", err)
	}
}

func TestElementPatch_ApplyDoesNotMutateInput(t *testing.T) {
	e, _ := domain.NewElement("x", domain.ElementText, domain.Position{})
	content := "RSVP by June 1"
	out, err := domain.ElementPatch{Content: &content}.Apply(e)
	if err != nil {
		t.Fatalf("apply: %v", err)
	}
	if e.Text.Content == content {
		t.Fatal("Apply modified its input")
	}
	if out.Text.Content != content {
		t.Errorf("expected %q, got %q", content, out.Text.Content)
	}
}

func TestElementPatch_RejectsInvalidFontSize(t *testing.T) {
	e, _ := domain.NewElement("x", domain.ElementText, domain.Position{})
	size := -4.0
	if _, err := (domain.ElementPatch{FontSize: &size}).Apply(e); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
}

func TestPaintOrder_StableOnTies(t *testing.T) {
	elements := []domain.Element{
		{ID: "a", ZIndex: 2},
		{ID: "b", ZIndex: 1},
		{ID: "c", ZIndex: 2},
		{ID: "d", ZIndex: 1},
	}
	got := domain.PaintOrder(elements)
	want := []string{"b", "d", "a", "c"}
	for i, e := range got {
		if e.ID != want[i] {
			t.Fatalf("position %d: want %s, got %s", i, want[i], e.ID)
		}
	}
	if elements[0].ID != "a" {
		t.Error("PaintOrder reordered its input")
	}
}
