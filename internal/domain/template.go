package domain

import (
	"context"
	"time"
)

// Metadata holds template-level design attributes.
type Metadata struct {
	Color  string  `json:"color"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// DefaultMetadata is a portrait 5x7 invitation card at 100 dpi.
var DefaultMetadata = Metadata{Color: "#FFFFFF", Width: 500, Height: 700}

// Template is one invitation design: metadata plus its ordered elements.
type Template struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Metadata  Metadata  `json:"metadata"`
	Elements  []Element `json:"elements"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Clone returns a deep copy of t.
func (t Template) Clone() Template {
	c := t
	c.Elements = CloneElements(t.Elements)
	return c
}

// TemplateSummary is the list view of a template, without elements.
type TemplateSummary struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	ElementCount int       `json:"elementCount"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// TemplateStore persists templates. Get and Delete return ErrNotFound
// (wrapped) for unknown ids.
type TemplateStore interface {
	CreateTemplate(ctx context.Context, t *Template) error
	GetTemplate(ctx context.Context, id string) (*Template, error)
	ListTemplates(ctx context.Context) ([]TemplateSummary, error)
	// SaveTemplate replaces name, metadata and the full element list.
	SaveTemplate(ctx context.Context, t *Template) error
	DeleteTemplate(ctx context.Context, id string) error
	Close() error
}
