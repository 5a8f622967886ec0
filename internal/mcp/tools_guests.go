package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/guests"
)

func (s *Server) registerGuestTools() {
	if s.guests == nil {
		return
	}

	s.mcp.AddTool(mcp.NewTool("list_guest_sources",
		mcp.WithDescription("List the guest list source types with their configuration fields"),
	), s.handleListGuestSources)

	s.mcp.AddTool(mcp.NewTool("preview_guests",
		mcp.WithDescription("Preview the first rows and columns of a guest list without creating anything"),
		mcp.WithString("sourceType", mcp.Description("Source type (see list_guest_sources)"), mcp.Required()),
		mcp.WithString("sourceConfigJSON", mcp.Description("Source configuration as a JSON object"), mcp.Required()),
		mcp.WithNumber("rows", mcp.Description("Rows to return (default 10)")),
	), s.handlePreviewGuests)

	s.mcp.AddTool(mcp.NewTool("merge_guests",
		mcp.WithDescription(`Create one personalized copy of a template per guest. Text content and image sources may hold {{field}} placeholders, filled from each guest row; {{template}} and {{n}} are always available.`),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithString("sourceType", mcp.Description("Source type (see list_guest_sources)"), mcp.Required()),
		mcp.WithString("sourceConfigJSON", mcp.Description("Source configuration as a JSON object"), mcp.Required()),
		mcp.WithString("transformsJSON", mcp.Description(`Optional JSON array of {type, config} applied in order:
- filter: {field, op (eq|neq|gt|lt|contains|present), value}
- rename: {mapping: {oldName: newName}}
- compute: {columns: {name: "{first} {last}"}}
- sort: {field, direction (asc|desc)}
- limit: {count}`)),
		mcp.WithString("dedupeKey", mcp.Description("Field whose repeated values are skipped")),
		mcp.WithString("namePattern", mcp.Description("Name of each copy, default \"{{template}} #{{n}}\"")),
		mcp.WithBoolean("dryRun", mcp.Description("Only report the names that would be created")),
	), s.handleMergeGuests)
}

func (s *Server) handleListGuestSources(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return jsonResult(guests.ListSources())
}

func (s *Server) handlePreviewGuests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sourceType, err := requireString(args, "sourceType")
	if err != nil {
		return nil, err
	}
	cfg, err := sourceConfigArg(args)
	if err != nil {
		return nil, err
	}
	rows := int(getFloat(args, "rows", 10))
	if rows <= 0 {
		rows = 10
	}

	records, schema, err := s.guests.Preview(ctx, sourceType, cfg, rows)
	if err != nil {
		return nil, fmt.Errorf("preview guests: %w", err)
	}
	return jsonResult(map[string]any{
		"fields":  schema.Fields,
		"records": records,
	})
}

func (s *Server) handleMergeGuests(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	templateID, err := s.resolveTemplateID(args)
	if err != nil {
		return nil, err
	}
	sourceType, err := requireString(args, "sourceType")
	if err != nil {
		return nil, err
	}
	cfg, err := sourceConfigArg(args)
	if err != nil {
		return nil, err
	}

	var transforms []guests.TransformConfig
	if raw := rawJSONArg(args, "transformsJSON"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &transforms); err != nil {
			return nil, fmt.Errorf("parse transforms: %w", err)
		}
	}
	dedupeKey, _ := getString(args, "dedupeKey")
	namePattern, _ := getString(args, "namePattern")

	res, err := s.guests.Run(ctx, guests.MergeJob{
		TemplateID:  templateID,
		SourceType:  sourceType,
		SourceCfg:   cfg,
		Transforms:  transforms,
		DedupeKey:   dedupeKey,
		NamePattern: namePattern,
		DryRun:      req.GetBool("dryRun", false),
	})
	if err != nil {
		return nil, fmt.Errorf("merge guests: %w", err)
	}
	return jsonResult(res)
}

// sourceConfigArg accepts sourceConfigJSON as a JSON string or an object.
func sourceConfigArg(args map[string]any) (guests.SourceConfig, error) {
	raw := rawJSONArg(args, "sourceConfigJSON")
	if raw == "" {
		return nil, fmt.Errorf("sourceConfigJSON is required")
	}
	var cfg guests.SourceConfig
	if err := json.Unmarshal([]byte(raw), &cfg); err != nil {
		return nil, fmt.Errorf("parse sourceConfig: %w", err)
	}
	return cfg, nil
}

// rawJSONArg returns a JSON argument that may arrive as a string or as a
// decoded value.
func rawJSONArg(args map[string]any, key string) string {
	switch v := args[key].(type) {
	case string:
		return v
	case nil:
		return ""
	default:
		b, _ := json.Marshal(v)
		return string(b)
	}
}
