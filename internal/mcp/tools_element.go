package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/domain"
)

func (s *Server) registerElementTools() {
	// ── add_element ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("add_element",
		mcp.WithDescription("Add an element to the template. Position is auto-calculated if not provided. The new element becomes the selection."),
		mcp.WithString("kind",
			mcp.Description("Element kind: text, image, shape"),
			mcp.Required(),
			mcp.Enum("text", "image", "shape"),
		),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithNumber("x", mcp.Description("X position (optional, auto-layout if omitted)")),
		mcp.WithNumber("y", mcp.Description("Y position (optional, auto-layout if omitted)")),
		mcp.WithNumber("width", mcp.Description("Width (optional, per-kind default)")),
		mcp.WithNumber("height", mcp.Description("Height (optional, per-kind default)")),
		mcp.WithString("content", mcp.Description("Text content (text elements)")),
		mcp.WithString("fontFamily", mcp.Description("Font family (text elements)")),
		mcp.WithNumber("fontSize", mcp.Description("Font size in px (text elements)")),
		mcp.WithString("color", mcp.Description("Text color (text elements)")),
		mcp.WithString("src", mcp.Description("Image URL (image elements)")),
		mcp.WithString("shapeKind", mcp.Description("rect, ellipse or line (shape elements)")),
		mcp.WithString("backgroundColor", mcp.Description("Fill color (shape elements)")),
	), s.handleAddElement)

	// ── update_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("update_element",
		mcp.WithDescription("Change attributes of an element. Only the given fields change; the update is one undo step."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithNumber("x", mcp.Description("X position")),
		mcp.WithNumber("y", mcp.Description("Y position")),
		mcp.WithNumber("width", mcp.Description("Width")),
		mcp.WithNumber("height", mcp.Description("Height")),
		mcp.WithNumber("zIndex", mcp.Description("Stacking order")),
		mcp.WithBoolean("locked", mcp.Description("Lock against edits on the canvas")),
		mcp.WithBoolean("visible", mcp.Description("Show or hide")),
		mcp.WithString("content", mcp.Description("Text content (text elements)")),
		mcp.WithString("fontFamily", mcp.Description("Font family (text elements)")),
		mcp.WithNumber("fontSize", mcp.Description("Font size in px (text elements)")),
		mcp.WithString("color", mcp.Description("Text color (text elements)")),
		mcp.WithString("src", mcp.Description("Image URL (image elements)")),
		mcp.WithString("shapeKind", mcp.Description("rect, ellipse or line (shape elements)")),
		mcp.WithString("backgroundColor", mcp.Description("Fill color (shape elements)")),
	), s.handleUpdateElement)

	// ── remove_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("remove_element",
		mcp.WithDescription("Remove an element. Can be undone."),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleRemoveElement)

	// ── duplicate_element ──────────────────────────────
	s.mcp.AddTool(mcp.NewTool("duplicate_element",
		mcp.WithDescription("Copy an element on top of all others, slightly offset"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleDuplicateElement)

	// ── select_element ─────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("select_element",
		mcp.WithDescription("Select an element, or clear the selection when elementId is empty"),
		mcp.WithString("elementId", mcp.Description("Element ID (empty clears the selection)")),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleSelectElement)

	// ── reorder_element ────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("reorder_element",
		mcp.WithDescription("Bring an element to the front or send it to the back"),
		mcp.WithString("elementId", mcp.Description("Element ID"), mcp.Required()),
		mcp.WithString("direction",
			mcp.Description("front or back"),
			mcp.Required(),
			mcp.Enum("front", "back"),
		),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
	), s.handleReorderElement)

	// ── arrange_elements ───────────────────────────────
	s.mcp.AddTool(mcp.NewTool("arrange_elements",
		mcp.WithDescription("Lay elements out in rows on the canvas as a single undo step. Defaults to all elements except locked ones."),
		mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)")),
		mcp.WithArray("elementIds", mcp.Description("Element IDs to arrange, in order"), mcp.WithStringItems()),
		mcp.WithNumber("startX", mcp.Description("Starting X position (default 0)")),
		mcp.WithNumber("startY", mcp.Description("Starting Y position (default 0)")),
	), s.handleArrangeElements)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleAddElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	kindStr, err := requireString(args, "kind")
	if err != nil {
		return nil, err
	}
	kind := domain.ElementKind(kindStr)
	if !kind.Valid() {
		return nil, fmt.Errorf("unknown element kind %q", kindStr)
	}

	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}

	init := patchFromArgs(args, domain.Element{Size: domain.DefaultSize(kind)})
	init.Position = nil
	init.ZIndex = nil // new elements always go on top
	size := domain.DefaultSize(kind)
	if init.Size != nil {
		size = *init.Size
	}

	// Auto-layout if position not provided
	var pos domain.Position
	x, hasX := args["x"].(float64)
	y, hasY := args["y"].(float64)
	if hasX && hasY {
		pos = domain.Position{X: x, Y: y}
	} else {
		pos = s.layout.NextPosition(sess.Elements(), size, sess.Template().Metadata)
		if hasX {
			pos.X = x
		}
		if hasY {
			pos.Y = y
		}
	}

	var patches []domain.ElementPatch
	if !init.Empty() {
		patches = append(patches, init)
	}
	el, err := sess.AddElement(kind, pos, patches...)
	if err != nil {
		return nil, fmt.Errorf("add element: %w", err)
	}
	if err := sess.Select(el.ID); err != nil {
		return nil, err
	}
	return jsonResult(el)
}

func (s *Server) handleUpdateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	cur, ok := sess.Element(id)
	if !ok {
		return nil, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	patch := patchFromArgs(args, cur)
	if patch.Empty() {
		return nil, fmt.Errorf("nothing to update")
	}
	el, err := sess.UpdateElement(id, patch)
	if err != nil {
		return nil, fmt.Errorf("update element: %w", err)
	}
	return jsonResult(el)
}

func (s *Server) handleRemoveElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	if err := sess.RemoveElement(id); err != nil {
		return nil, fmt.Errorf("remove element: %w", err)
	}
	return textResult(fmt.Sprintf("Element %s removed", id)), nil
}

func (s *Server) handleDuplicateElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	el, err := sess.DuplicateElement(id)
	if err != nil {
		return nil, fmt.Errorf("duplicate element: %w", err)
	}
	return jsonResult(el)
}

func (s *Server) handleSelectElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	id, _ := getString(args, "elementId")
	if err := sess.Select(id); err != nil {
		return nil, fmt.Errorf("select element: %w", err)
	}
	if id == "" {
		return textResult("Selection cleared"), nil
	}
	return textResult(fmt.Sprintf("Element %s selected", id)), nil
}

func (s *Server) handleReorderElement(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	id, err := requireString(args, "elementId")
	if err != nil {
		return nil, err
	}
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	switch dir, _ := getString(args, "direction"); dir {
	case "front":
		err = sess.BringToFront(id)
	case "back":
		err = sess.SendToBack(id)
	default:
		return nil, fmt.Errorf("direction must be front or back, got %q", dir)
	}
	if err != nil {
		return nil, fmt.Errorf("reorder element: %w", err)
	}
	return jsonResult(sess.PaintOrder())
}

func (s *Server) handleArrangeElements(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}

	all := sess.Elements()
	var ids []string
	if raw, ok := args["elementIds"].([]any); ok {
		for _, v := range raw {
			if id, ok := v.(string); ok && id != "" {
				ids = append(ids, id)
			}
		}
	}

	var group []domain.Element
	if len(ids) == 0 {
		for _, e := range all {
			if !e.Locked {
				group = append(group, e)
			}
		}
	} else {
		for _, id := range ids {
			e, ok := sess.Element(id)
			if !ok {
				return nil, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
			}
			group = append(group, e)
		}
	}
	if len(group) == 0 {
		return textResult("No elements to arrange"), nil
	}

	start := domain.Position{X: getFloat(args, "startX", 0), Y: getFloat(args, "startY", 0)}
	arranged := s.layout.ArrangeGroup(group, start, sess.Template().Metadata)
	moved := make(map[string]domain.Position, len(arranged))
	for _, e := range arranged {
		moved[e.ID] = e.Position
	}
	for i := range all {
		if p, ok := moved[all[i].ID]; ok {
			all[i].Position = p
		}
	}

	if err := sess.ReplaceElements("arrange elements", all); err != nil {
		return nil, fmt.Errorf("arrange elements: %w", err)
	}
	return jsonResult(arranged)
}
