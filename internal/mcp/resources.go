package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/domain"
)

const (
	templatesURI      = "invitopia://templates"
	templateURIPrefix = "invitopia://template/"
)

func (s *Server) registerResources() {
	// ── invitopia://templates ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		templatesURI,
		"All Templates",
		mcp.WithMIMEType("application/json"),
	), s.handleTemplatesResource)

	// ── invitopia://template/{templateId} ──────────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			templateURIPrefix+"{templateId}",
			"Template with elements",
		),
		s.handleTemplateResource,
	)
}

func (s *Server) handleTemplatesResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, err
	}
	if list == nil {
		list = []domain.TemplateSummary{}
	}
	data, _ := json.MarshalIndent(list, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      templatesURI,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

func (s *Server) handleTemplateResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	id := templateIDFromURI(uri)
	if id == "" {
		return nil, fmt.Errorf("could not extract templateId from URI: %s", uri)
	}

	t, err := s.templates.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	data, _ := json.MarshalIndent(t, "", "  ")
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// templateIDFromURI extracts the id from "invitopia://template/{id}".
func templateIDFromURI(uri string) string {
	id, ok := strings.CutPrefix(uri, templateURIPrefix)
	if !ok {
		return ""
	}
	if i := strings.IndexAny(id, "/?#"); i != -1 {
		id = id[:i]
	}
	return id
}
