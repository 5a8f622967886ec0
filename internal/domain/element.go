package domain

import (
	"fmt"
	"math"
	"sort"
)

type ElementKind string

const (
	ElementText  ElementKind = "text"
	ElementImage ElementKind = "image"
	ElementShape ElementKind = "shape"
)

// Valid reports whether k is one of the known element kinds.
func (k ElementKind) Valid() bool {
	switch k {
	case ElementText, ElementImage, ElementShape:
		return true
	}
	return false
}

type ShapeKind string

const (
	ShapeRect    ShapeKind = "rect"
	ShapeEllipse ShapeKind = "ellipse"
	ShapeLine    ShapeKind = "line"
)

func (k ShapeKind) Valid() bool {
	switch k {
	case ShapeRect, ShapeEllipse, ShapeLine:
		return true
	}
	return false
}

type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type TextContent struct {
	Content    string  `json:"content"`
	FontFamily string  `json:"fontFamily"`
	FontSize   float64 `json:"fontSize"`
	Color      string  `json:"color"`
}

type ImageContent struct {
	Src string `json:"src"`
}

type ShapeContent struct {
	Kind            ShapeKind `json:"kind"`
	BackgroundColor string    `json:"backgroundColor"`
}

// Element is one visual object on a template canvas.
// Exactly one of Text, Image or Shape is set and it must match Kind.
type Element struct {
	ID       string        `json:"id"`
	Kind     ElementKind   `json:"kind"`
	Position Position      `json:"position"`
	Size     Size          `json:"size"`
	ZIndex   int           `json:"zIndex"`
	Locked   bool          `json:"locked"`
	Visible  bool          `json:"visible"`
	Text     *TextContent  `json:"text,omitempty"`
	Image    *ImageContent `json:"image,omitempty"`
	Shape    *ShapeContent `json:"shape,omitempty"`
}

// Defaults applied to freshly created elements.
const (
	DefaultFontFamily = "Inter"
	DefaultFontSize   = 24.0
	DefaultTextColor  = "#111111"
	DefaultShapeColor = "#E5E7EB"
)

var defaultSizes = map[ElementKind]Size{
	ElementText:  {Width: 240, Height: 48},
	ElementImage: {Width: 200, Height: 200},
	ElementShape: {Width: 120, Height: 120},
}

// DefaultSize returns the initial size for a new element of the given kind.
func DefaultSize(kind ElementKind) Size {
	return defaultSizes[kind]
}

// NewElement builds a visible, unlocked element with the default payload for kind.
func NewElement(id string, kind ElementKind, pos Position) (Element, error) {
	e := Element{
		ID:       id,
		Kind:     kind,
		Position: pos,
		Size:     DefaultSize(kind),
		Visible:  true,
	}
	switch kind {
	case ElementText:
		e.Text = &TextContent{
			Content:    "Text",
			FontFamily: DefaultFontFamily,
			FontSize:   DefaultFontSize,
			Color:      DefaultTextColor,
		}
	case ElementImage:
		e.Image = &ImageContent{}
	case ElementShape:
		e.Shape = &ShapeContent{Kind: ShapeRect, BackgroundColor: DefaultShapeColor}
	default:
		return Element{}, fmt.Errorf("element kind %q: %w", kind, ErrInvalidArgument)
	}
	return e, nil
}

// Clone returns a deep copy of e.
func (e Element) Clone() Element {
	c := e
	if e.Text != nil {
		t := *e.Text
		c.Text = &t
	}
	if e.Image != nil {
		i := *e.Image
		c.Image = &i
	}
	if e.Shape != nil {
		s := *e.Shape
		c.Shape = &s
	}
	return c
}

// Validate checks that the payload matches the kind and attributes are sane.
func (e Element) Validate() error {
	if e.ID == "" {
		return fmt.Errorf("element id is empty: %w", ErrInvalidArgument)
	}
	if !finite(e.Position.X) || !finite(e.Position.Y) {
		return fmt.Errorf("element %s position: %w", e.ID, ErrInvalidArgument)
	}
	if e.Size.Width < 0 || e.Size.Height < 0 || !finite(e.Size.Width) || !finite(e.Size.Height) {
		return fmt.Errorf("element %s size: %w", e.ID, ErrInvalidArgument)
	}

	set := 0
	if e.Text != nil {
		set++
	}
	if e.Image != nil {
		set++
	}
	if e.Shape != nil {
		set++
	}
	if set != 1 {
		return fmt.Errorf("element %s must carry exactly one payload: %w", e.ID, ErrInvalidArgument)
	}

	switch e.Kind {
	case ElementText:
		if e.Text == nil {
			return fmt.Errorf("text element %s has no text payload: %w", e.ID, ErrInvalidArgument)
		}
		if e.Text.FontSize <= 0 || !finite(e.Text.FontSize) {
			return fmt.Errorf("text element %s font size: %w", e.ID, ErrInvalidArgument)
		}
	case ElementImage:
		if e.Image == nil {
			return fmt.Errorf("image element %s has no image payload: %w", e.ID, ErrInvalidArgument)
		}
	case ElementShape:
		if e.Shape == nil {
			return fmt.Errorf("shape element %s has no shape payload: %w", e.ID, ErrInvalidArgument)
		}
		if !e.Shape.Kind.Valid() {
			return fmt.Errorf("shape element %s kind %q: %w", e.ID, e.Shape.Kind, ErrInvalidArgument)
		}
	default:
		return fmt.Errorf("element %s kind %q: %w", e.ID, e.Kind, ErrInvalidArgument)
	}
	return nil
}

// ValidateElements checks every element and rejects ids that appear twice.
func ValidateElements(elements []Element) error {
	seen := make(map[string]bool, len(elements))
	for _, e := range elements {
		if err := e.Validate(); err != nil {
			return err
		}
		if seen[e.ID] {
			return fmt.Errorf("duplicate element id %s: %w", e.ID, ErrInvalidArgument)
		}
		seen[e.ID] = true
	}
	return nil
}

// Equal reports whether a and b carry the same attributes and payload.
func Equal(a, b Element) bool {
	if a.ID != b.ID || a.Kind != b.Kind || a.Position != b.Position || a.Size != b.Size ||
		a.ZIndex != b.ZIndex || a.Locked != b.Locked || a.Visible != b.Visible {
		return false
	}
	return eqPtr(a.Text, b.Text) && eqPtr(a.Image, b.Image) && eqPtr(a.Shape, b.Shape)
}

func eqPtr[T comparable](a, b *T) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// ElementPatch is a partial update. Nil fields are left untouched.
// Variant fields must match the element's kind.
type ElementPatch struct {
	Position *Position `json:"position,omitempty"`
	Size     *Size     `json:"size,omitempty"`
	ZIndex   *int      `json:"zIndex,omitempty"`
	Locked   *bool     `json:"locked,omitempty"`
	Visible  *bool     `json:"visible,omitempty"`

	Content    *string  `json:"content,omitempty"`
	FontFamily *string  `json:"fontFamily,omitempty"`
	FontSize   *float64 `json:"fontSize,omitempty"`
	Color      *string  `json:"color,omitempty"`

	Src *string `json:"src,omitempty"`

	ShapeKind       *ShapeKind `json:"shapeKind,omitempty"`
	BackgroundColor *string    `json:"backgroundColor,omitempty"`
}

// Empty reports whether the patch sets nothing.
func (p ElementPatch) Empty() bool {
	return p == ElementPatch{}
}

// Apply returns a copy of e with p applied. e itself is never modified.
func (p ElementPatch) Apply(e Element) (Element, error) {
	out := e.Clone()
	if p.Position != nil {
		out.Position = *p.Position
	}
	if p.Size != nil {
		out.Size = *p.Size
	}
	if p.ZIndex != nil {
		out.ZIndex = *p.ZIndex
	}
	if p.Locked != nil {
		out.Locked = *p.Locked
	}
	if p.Visible != nil {
		out.Visible = *p.Visible
	}

	hasText := p.Content != nil || p.FontFamily != nil || p.FontSize != nil || p.Color != nil
	if hasText {
		if out.Kind != ElementText || out.Text == nil {
			return e, fmt.Errorf("text attributes on %s element %s: %w", out.Kind, out.ID, ErrInvalidArgument)
		}
		if p.Content != nil {
			out.Text.Content = *p.Content
		}
		if p.FontFamily != nil {
			out.Text.FontFamily = *p.FontFamily
		}
		if p.FontSize != nil {
			out.Text.FontSize = *p.FontSize
		}
		if p.Color != nil {
			out.Text.Color = *p.Color
		}
	}

	if p.Src != nil {
		if out.Kind != ElementImage || out.Image == nil {
			return e, fmt.Errorf("image src on %s element %s: %w", out.Kind, out.ID, ErrInvalidArgument)
		}
		out.Image.Src = *p.Src
	}

	if p.ShapeKind != nil || p.BackgroundColor != nil {
		if out.Kind != ElementShape || out.Shape == nil {
			return e, fmt.Errorf("shape attributes on %s element %s: %w", out.Kind, out.ID, ErrInvalidArgument)
		}
		if p.ShapeKind != nil {
			out.Shape.Kind = *p.ShapeKind
		}
		if p.BackgroundColor != nil {
			out.Shape.BackgroundColor = *p.BackgroundColor
		}
	}

	if err := out.Validate(); err != nil {
		return e, err
	}
	return out, nil
}

// PaintOrder returns a copy of elements sorted by ZIndex.
// Ties keep their relative insertion order.
func PaintOrder(elements []Element) []Element {
	out := CloneElements(elements)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].ZIndex < out[j].ZIndex
	})
	return out
}

// CloneElements deep-copies a slice of elements. A nil slice stays nil.
func CloneElements(elements []Element) []Element {
	if elements == nil {
		return nil
	}
	out := make([]Element, len(elements))
	for i, e := range elements {
		out[i] = e.Clone()
	}
	return out
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
