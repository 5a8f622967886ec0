package domain

import (
	"context"
	"time"
)

// Version is one persisted entry of a template's edit log.
// Elements is the element list after the labeled action was applied.
type Version struct {
	ID         string    `json:"id"`
	TemplateID string    `json:"templateId"`
	ParentID   string    `json:"parentId,omitempty"`
	Label      string    `json:"label"`
	Elements   []Element `json:"elements"`
	CreatedAt  time.Time `json:"createdAt"`
}

// VersionStore persists the edit log. Implementations prune old entries.
type VersionStore interface {
	AppendVersion(ctx context.Context, v *Version) error
	ListVersions(ctx context.Context, templateID string) ([]Version, error)
	GetVersion(ctx context.Context, id string) (*Version, error)
	ClearVersions(ctx context.Context, templateID string) error
}
