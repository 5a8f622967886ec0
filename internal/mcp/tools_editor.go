package mcpserver

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/editor"
)

func (s *Server) registerEditorTools() {
	templateArg := mcp.WithString("templateId", mcp.Description("Template ID (optional, defaults to active template)"))

	// ── undo / redo ────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("undo",
		mcp.WithDescription("Undo the last change to the template's elements"),
		templateArg,
	), s.handleUndo)

	s.mcp.AddTool(mcp.NewTool("redo",
		mcp.WithDescription("Redo the last undone change"),
		templateArg,
	), s.handleRedo)

	// ── history ────────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("history",
		mcp.WithDescription("List the undo history. Steps with applied=false are undone and can be redone."),
		templateArg,
	), s.handleHistory)

	// ── jump_history ───────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("jump_history",
		mcp.WithDescription("Move through history in one step so that exactly `cursor` steps are applied (0 = initial state)"),
		templateArg,
		mcp.WithNumber("cursor", mcp.Description("Number of applied steps"), mcp.Required()),
	), s.handleJumpHistory)

	// ── set_zoom ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_zoom",
		mcp.WithDescription(fmt.Sprintf("Set the canvas zoom factor; clamped to [%.1f, %.0f]", editor.MinZoom, editor.MaxZoom)),
		templateArg,
		mcp.WithNumber("zoom", mcp.Description("Zoom factor, 1 = 100%"), mcp.Required()),
	), s.handleSetZoom)

	// ── set_mode ───────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("set_mode",
		mcp.WithDescription("Switch the active canvas tool"),
		templateArg,
		mcp.WithString("mode",
			mcp.Description("select, text, image, shape or pan"),
			mcp.Required(),
			mcp.Enum(string(editor.ModeSelect), string(editor.ModeText), string(editor.ModeImage),
				string(editor.ModeShape), string(editor.ModePan)),
		),
	), s.handleSetMode)

	// ── press_key ──────────────────────────────────────
	s.mcp.AddTool(mcp.NewTool("press_key",
		mcp.WithDescription("Send a keyboard shortcut to the editor, e.g. key=z ctrl=true for undo. Keys typed into a text field (target=input) are ignored."),
		templateArg,
		mcp.WithString("key", mcp.Description("Key name, e.g. z, Delete, Escape, ]"), mcp.Required()),
		mcp.WithBoolean("ctrl", mcp.Description("Control held")),
		mcp.WithBoolean("meta", mcp.Description("Command/Meta held")),
		mcp.WithBoolean("shift", mcp.Description("Shift held")),
		mcp.WithBoolean("alt", mcp.Description("Alt held")),
		mcp.WithString("target", mcp.Description("Focused element: canvas (default), input, textarea, contenteditable")),
	), s.handlePressKey)
}

// ── Handlers ───────────────────────────────────────────────

func (s *Server) handleUndo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Undo() {
		return textResult("Nothing to undo"), nil
	}
	return s.stateResult(sess)
}

func (s *Server) handleRedo(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	if !sess.Redo() {
		return textResult("Nothing to redo"), nil
	}
	return s.stateResult(sess)
}

func (s *Server) handleHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	sess, err := s.session(ctx, req.GetArguments())
	if err != nil {
		return nil, err
	}
	steps := sess.History()
	if steps == nil {
		steps = []editor.Step{}
	}
	return jsonResult(steps)
}

func (s *Server) handleJumpHistory(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	cursor, ok := args["cursor"].(float64)
	if !ok {
		return nil, fmt.Errorf("cursor is required")
	}
	if err := sess.JumpTo(int(cursor)); err != nil {
		return nil, fmt.Errorf("jump history: %w", err)
	}
	return s.stateResult(sess)
}

func (s *Server) handleSetZoom(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	z, ok := args["zoom"].(float64)
	if !ok {
		return nil, fmt.Errorf("zoom is required")
	}
	applied, err := sess.SetZoom(z)
	if err != nil {
		return nil, fmt.Errorf("set zoom: %w", err)
	}
	return textResult(fmt.Sprintf("Zoom set to %.2f", applied)), nil
}

func (s *Server) handleSetMode(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	mode, err := requireString(args, "mode")
	if err != nil {
		return nil, err
	}
	if err := sess.SetMode(editor.Mode(mode)); err != nil {
		return nil, fmt.Errorf("set mode: %w", err)
	}
	return textResult(fmt.Sprintf("Mode set to %s", mode)), nil
}

// keyResult reports which action a shortcut ran and the resulting state.
type keyResult struct {
	Action editor.Action `json:"action"`
	sessionView
}

func (s *Server) handlePressKey(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	sess, err := s.session(ctx, args)
	if err != nil {
		return nil, err
	}
	key, err := requireString(args, "key")
	if err != nil {
		return nil, err
	}
	ev := editor.KeyEvent{
		Key:    key,
		Ctrl:   req.GetBool("ctrl", false),
		Meta:   req.GetBool("meta", false),
		Shift:  req.GetBool("shift", false),
		Alt:    req.GetBool("alt", false),
		Target: req.GetString("target", ""),
	}
	action := editor.Dispatch(sess, ev)
	return jsonResult(keyResult{
		Action:      action,
		sessionView: sessionView{State: sess.State(), Dirty: s.templates.Dirty(sess.ID())},
	})
}
