package mcpserver

import (
	"context"
	"fmt"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/domain"
	"invitopia/internal/service"
)

func (s *Server) registerTemplateTools() {
	// ── list_templates ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_templates",
		mcp.WithDescription("List all invitation templates"),
	), s.handleListTemplates)

	// ── create_template ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("create_template",
		mcp.WithDescription("Create a new template and make it the active template"),
		mcp.WithString("name", mcp.Description("Template name"), mcp.Required()),
		mcp.WithString("color", mcp.Description("Canvas background color (default #FFFFFF)")),
		mcp.WithNumber("width", mcp.Description("Canvas width (default 500)")),
		mcp.WithNumber("height", mcp.Description("Canvas height (default 700)")),
	), s.handleCreateTemplate)

	// ── open_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("open_template",
		mcp.WithDescription("Open a template for editing and make it active. Editing tools default to the active template."),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
	), s.handleOpenTemplate)

	// ── get_template ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("get_template",
		mcp.WithDescription("Get the editor state of a template: elements, selection, zoom, mode and history"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleGetTemplate)

	// ── save_template ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("save_template",
		mcp.WithDescription("Write unsaved edits of a template to storage"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSaveTemplate)

	// ── rename_template ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("rename_template",
		mcp.WithDescription("Rename a template"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithString("name", mcp.Description("New name"), mcp.Required()),
	), s.handleRenameTemplate)

	// ── delete_template (destructive) ──────────────────
	s.mcp.AddTool(mcp.NewTool("delete_template",
		mcp.WithDescription("🛑 DESTRUCTIVE: Delete a template and its version log"),
		mcp.WithString("templateId", mcp.Description("Template ID"), mcp.Required()),
		mcp.WithToolAnnotation(mcp.ToolAnnotation{DestructiveHint: boolPtr(true)}),
	), s.handleDeleteTemplate)

	// ── list_versions ──────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("list_versions",
		mcp.WithDescription("List the saved version log of a template, oldest first"),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleListVersions)

	// ── restore_version ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("restore_version",
		mcp.WithDescription("Replace the template's elements with a logged version. The restore can be undone."),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithString("versionId", mcp.Description("Version ID from list_versions"), mcp.Required()),
	), s.handleRestoreVersion)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleListTemplates(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	list, err := s.templates.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list templates: %w", err)
	}
	if list == nil {
		list = []domain.TemplateSummary{}
	}
	return jsonResult(list)
}

func (s *Server) handleCreateTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	color, _ := getString(args, "color")
	t, err := s.templates.Create(ctx, service.CreateTemplateInput{
		Name: name,
		Metadata: domain.Metadata{
			Color:  color,
			Width:  getFloat(args, "width", 0),
			Height: getFloat(args, "height", 0),
		},
	})
	if err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}

	sess, err := s.templates.Open(ctx, t.ID)
	if err != nil {
		return nil, err
	}
	s.setActive(t.ID)
	return s.stateResult(sess)
}

func (s *Server) handleOpenTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	sess, err := s.templates.Open(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("open template: %w", err)
	}
	s.setActive(id)
	return s.stateResult(sess)
}

func (s *Server) handleGetTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	return s.stateResult(sess)
}

func (s *Server) handleSaveTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveTemplateID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	if err := s.templates.Save(ctx, id); err != nil {
		return nil, err
	}
	return textResult(fmt.Sprintf("Template %s saved", id)), nil
}

func (s *Server) handleRenameTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := s.resolveTemplateID(args)
	if err != nil {
		return nil, err
	}
	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}
	if err := s.templates.Rename(ctx, id, name); err != nil {
		return nil, fmt.Errorf("rename template: %w", err)
	}
	return textResult(fmt.Sprintf("Template %s renamed to %q", id, name)), nil
}

func (s *Server) handleDeleteTemplate(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := requireString(req.GetArguments(), "templateId")
	if err != nil {
		return nil, err
	}
	if err := s.templates.Delete(ctx, id); err != nil {
		return nil, fmt.Errorf("delete template: %w", err)
	}
	s.mu.Lock()
	if s.activeTemplate == id {
		s.activeTemplate = ""
	}
	s.mu.Unlock()
	return textResult(fmt.Sprintf("Template %s deleted", id)), nil
}

// versionSummary leaves out the element snapshot.
type versionSummary struct {
	ID           string `json:"id"`
	ParentID     string `json:"parentId,omitempty"`
	Label        string `json:"label"`
	ElementCount int    `json:"elementCount"`
	CreatedAt    string `json:"createdAt"`
}

func (s *Server) handleListVersions(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id, err := s.resolveTemplateID(req.GetArguments())
	if err != nil {
		return nil, err
	}
	versions, err := s.templates.Versions(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list versions: %w", err)
	}
	out := make([]versionSummary, len(versions))
	for i, v := range versions {
		out[i] = versionSummary{
			ID:           v.ID,
			ParentID:     v.ParentID,
			Label:        v.Label,
			ElementCount: len(v.Elements),
			CreatedAt:    v.CreatedAt.Format(time.RFC3339),
		}
	}
	return jsonResult(out)
}

func (s *Server) handleRestoreVersion(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := s.resolveTemplateID(args)
	if err != nil {
		return nil, err
	}
	versionID, err := requireString(args, "versionId")
	if err != nil {
		return nil, err
	}
	if err := s.templates.RestoreVersion(ctx, id, versionID); err != nil {
		return nil, fmt.Errorf("restore version: %w", err)
	}
	sess, err := s.templates.Open(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.stateResult(sess)
}
