package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/mark3labs/mcp-go/mcp"

	"invitopia/internal/assets"
	"invitopia/internal/domain"
	"invitopia/internal/editor"
	"invitopia/internal/guests"
	"invitopia/internal/service"
	"invitopia/internal/storage"
)

type stubImages struct{}

func (stubImages) SelectImage(_ context.Context, query string) (string, error) {
	if query == "balloons" {
		return "https://cdn.example.com/balloons.png", nil
	}
	return "", domain.ErrNotFound
}

func (stubImages) List() []assets.Image {
	return []assets.Image{{Name: "balloons.png", URL: "https://cdn.example.com/balloons.png"}}
}

func newTestServer(t *testing.T) *Server {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "invitopia.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	svc := service.NewTemplateService(storage.NewTemplateStore(db), storage.NewVersionStore(db, 40), &service.MockEmitter{})
	return New(Deps{Templates: svc, Images: stubImages{}, Guests: guests.NewEngine(svc)})
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

func call(t *testing.T, h handler, args map[string]any) string {
	t.Helper()
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	if err != nil {
		t.Fatalf("tool error: %v", err)
	}
	return res.Content[0].(mcp.TextContent).Text
}

func callErr(h handler, args map[string]any) error {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	_, err := h(context.Background(), req)
	return err
}

func decode[T any](t *testing.T, text string) T {
	t.Helper()
	var v T
	if err := json.Unmarshal([]byte(text), &v); err != nil {
		t.Fatalf("decode %q: %v", text, err)
	}
	return v
}

func createTemplate(t *testing.T, s *Server) sessionView {
	t.Helper()
	return decode[sessionView](t, call(t, s.handleCreateTemplate, map[string]any{"name": "Ava's 7th"}))
}

func TestCreateTemplate_BecomesActive(t *testing.T) {
	s := newTestServer(t)
	view := createTemplate(t, s)

	if view.Template.ID == "" || s.active() != view.Template.ID {
		t.Fatalf("expected created template to be active, got %q", s.active())
	}
	if view.Template.Metadata != domain.DefaultMetadata {
		t.Errorf("expected default metadata, got %+v", view.Template.Metadata)
	}

	list := decode[[]domain.TemplateSummary](t, call(t, s.handleListTemplates, nil))
	if len(list) != 1 || list[0].Name != "Ava's 7th" {
		t.Errorf("unexpected list %+v", list)
	}
}

func TestEditingToolsRequireTemplate(t *testing.T) {
	s := newTestServer(t)
	if err := callErr(s.handleAddElement, map[string]any{"kind": "text"}); err == nil {
		t.Fatal("expected error without an active template")
	}
}

func TestAddElement_AutoLayoutAndSelection(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)

	first := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{
		"kind": "text", "content": "You're invited!", "fontSize": 36.0,
	}))
	if first.Position != (domain.Position{}) {
		t.Errorf("first element should be placed at the origin, got %+v", first.Position)
	}
	if first.Text == nil || first.Text.Content != "You're invited!" || first.Text.FontSize != 36 {
		t.Errorf("text payload not applied: %+v", first.Text)
	}

	second := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "shape"}))
	if second.Position == first.Position {
		t.Error("second element should not be stacked on the first")
	}
	if second.ZIndex <= first.ZIndex {
		t.Errorf("expected zIndex above %d, got %d", first.ZIndex, second.ZIndex)
	}

	view := decode[sessionView](t, call(t, s.handleGetTemplate, nil))
	if view.SelectedID != second.ID {
		t.Errorf("expected new element selected, got %q", view.SelectedID)
	}
	if !view.Dirty || !view.CanUndo {
		t.Errorf("expected dirty and undoable state, got %+v", view)
	}

	if err := callErr(s.handleAddElement, map[string]any{"kind": "video"}); err == nil {
		t.Error("expected error for unknown kind")
	}
}

func TestAddElement_IgnoresZIndexArgument(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)

	first := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "shape"}))
	second := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "text", "zIndex": -5.0}))
	if second.ZIndex != first.ZIndex+1 {
		t.Errorf("expected zIndex %d, got %d", first.ZIndex+1, second.ZIndex)
	}
}

func TestUpdateUndoRedo(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)

	el := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "shape", "x": 10.0, "y": 20.0}))
	updated := decode[domain.Element](t, call(t, s.handleUpdateElement, map[string]any{
		"elementId": el.ID, "x": 100.0, "backgroundColor": "#FF00AA",
	}))
	if updated.Position != (domain.Position{X: 100, Y: 20}) {
		t.Errorf("expected y kept, got %+v", updated.Position)
	}
	if updated.Shape.BackgroundColor != "#FF00AA" {
		t.Errorf("color not applied: %+v", updated.Shape)
	}

	view := decode[sessionView](t, call(t, s.handleUndo, nil))
	got := view.Template.Elements[0]
	if got.Position != (domain.Position{X: 10, Y: 20}) {
		t.Errorf("undo should restore position, got %+v", got.Position)
	}
	if !view.CanRedo {
		t.Error("expected redo available")
	}

	view = decode[sessionView](t, call(t, s.handleRedo, nil))
	if view.Template.Elements[0].Position.X != 100 {
		t.Error("redo should reapply the update")
	}

	steps := decode[[]editor.Step](t, call(t, s.handleHistory, nil))
	if len(steps) != 2 {
		t.Fatalf("expected 2 steps, got %d", len(steps))
	}

	view = decode[sessionView](t, call(t, s.handleJumpHistory, map[string]any{"cursor": 0.0}))
	if len(view.Template.Elements) != 0 {
		t.Errorf("jump to 0 should restore the empty template, got %d elements", len(view.Template.Elements))
	}
	if err := callErr(s.handleJumpHistory, map[string]any{"cursor": 9.0}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument, got %v", err)
	}

	if err := callErr(s.handleUpdateElement, map[string]any{"elementId": "missing", "x": 1.0}); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestPressKey(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)
	el := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "text"}))

	res := decode[keyResult](t, call(t, s.handlePressKey, map[string]any{"key": "Delete"}))
	if res.Action != editor.ActionDelete || len(res.Template.Elements) != 0 {
		t.Fatalf("expected delete to remove %s, got %+v", el.ID, res)
	}

	res = decode[keyResult](t, call(t, s.handlePressKey, map[string]any{"key": "z", "ctrl": true, "target": "input"}))
	if res.Action != editor.ActionNone {
		t.Errorf("shortcut inside a text field should be ignored, got %q", res.Action)
	}

	res = decode[keyResult](t, call(t, s.handlePressKey, map[string]any{"key": "z", "meta": true}))
	if res.Action != editor.ActionUndo || len(res.Template.Elements) != 1 {
		t.Errorf("expected undo to restore the element, got %+v", res)
	}
}

func TestZoomAndMode(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)

	if got := call(t, s.handleSetZoom, map[string]any{"zoom": 12.0}); got != "Zoom set to 5.00" {
		t.Errorf("expected clamped zoom, got %q", got)
	}
	call(t, s.handleSetMode, map[string]any{"mode": "pan"})
	view := decode[sessionView](t, call(t, s.handleGetTemplate, nil))
	if view.Mode != editor.ModePan || view.Zoom != 5 {
		t.Errorf("unexpected state %+v", view)
	}
	if err := callErr(s.handleSetMode, map[string]any{"mode": "lasso"}); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestSetImageAndFont(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)

	img := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "image"}))
	img = decode[domain.Element](t, call(t, s.handleSetImage, map[string]any{"elementId": img.ID, "query": "balloons"}))
	if img.Image.Src != "https://cdn.example.com/balloons.png" {
		t.Errorf("unexpected src %q", img.Image.Src)
	}

	txt := decode[domain.Element](t, call(t, s.handleAddElement, map[string]any{"kind": "text"}))
	txt = decode[domain.Element](t, call(t, s.handleSetFont, map[string]any{"elementId": txt.ID, "font": "pacifico"}))
	if txt.Text.FontFamily != "Pacifico" {
		t.Errorf("unexpected font %q", txt.Text.FontFamily)
	}

	if err := callErr(s.handleSetFont, map[string]any{"elementId": img.ID, "font": "Pacifico"}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("font on an image should fail with ErrInvalidArgument, got %v", err)
	}
}

func TestSaveAndVersions(t *testing.T) {
	s := newTestServer(t)
	view := createTemplate(t, s)
	id := view.Template.ID

	call(t, s.handleAddElement, map[string]any{"kind": "text"})
	call(t, s.handleAddElement, map[string]any{"kind": "shape"})
	call(t, s.handleSaveTemplate, nil)

	versions := decode[[]versionSummary](t, call(t, s.handleListVersions, nil))
	if len(versions) != 2 {
		t.Fatalf("expected 2 versions, got %d", len(versions))
	}
	view = decode[sessionView](t, call(t, s.handleRestoreVersion, map[string]any{"versionId": versions[0].ID}))
	if len(view.Template.Elements) != 1 || !view.Dirty {
		t.Errorf("restore should leave one unsaved element, got %+v", view)
	}

	call(t, s.handleDeleteTemplate, map[string]any{"templateId": id})
	if s.active() != "" {
		t.Error("deleting the active template should clear it")
	}
}

func TestArrangeElements(t *testing.T) {
	s := newTestServer(t)
	createTemplate(t, s)
	for i := 0; i < 3; i++ {
		call(t, s.handleAddElement, map[string]any{"kind": "shape", "x": 0.0, "y": 0.0})
	}

	arranged := decode[[]domain.Element](t, call(t, s.handleArrangeElements, nil))
	if len(arranged) != 3 {
		t.Fatalf("expected 3 arranged elements, got %d", len(arranged))
	}
	if arranged[0].Position == arranged[1].Position {
		t.Error("elements should be spread out")
	}
	steps := decode[[]editor.Step](t, call(t, s.handleHistory, nil))
	if steps[len(steps)-1].Label != "arrange elements" {
		t.Errorf("expected arrange to be one history step, got %+v", steps)
	}
}

func TestTemplateIDFromURI(t *testing.T) {
	tests := map[string]string{
		"invitopia://template/abc-123":       "abc-123",
		"invitopia://template/abc-123/extra": "abc-123",
		"invitopia://templates":              "",
		"notes://template/abc":               "",
	}
	for uri, want := range tests {
		if got := templateIDFromURI(uri); got != want {
			t.Errorf("templateIDFromURI(%q) = %q, want %q", uri, got, want)
		}
	}
}

func TestMergeGuests(t *testing.T) {
	s := newTestServer(t)
	view := createTemplate(t, s)
	call(t, s.handleAddElement, map[string]any{"kind": "text", "content": "Dear {{name}}"})

	csvPath := filepath.Join(t.TempDir(), "guests.csv")
	if err := os.WriteFile(csvPath, []byte("name,rsvp\nAva,yes\nBen,no\nCleo,yes\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	args := map[string]any{
		"sourceType":       "csv_file",
		"sourceConfigJSON": map[string]any{"filePath": csvPath},
		"transformsJSON":   `[{"type":"filter","config":{"field":"rsvp","op":"eq","value":"yes"}}]`,
		"namePattern":      "{{name}}'s invite",
		"dryRun":           true,
	}

	dry := decode[guests.MergeResult](t, call(t, s.handleMergeGuests, args))
	if len(dry.Names) != 2 || len(dry.Created) != 0 {
		t.Fatalf("unexpected dry run %+v", dry)
	}

	args["dryRun"] = false
	res := decode[guests.MergeResult](t, call(t, s.handleMergeGuests, args))
	if len(res.Created) != 2 || res.Created[1].Name != "Cleo's invite" {
		t.Fatalf("unexpected merge %+v", res)
	}

	copyView := decode[sessionView](t, call(t, s.handleGetTemplate, map[string]any{"templateId": res.Created[0].ID}))
	if got := copyView.Template.Elements[0].Text.Content; got != "Dear Ava" {
		t.Errorf("merged content = %q", got)
	}
	if s.active() != view.Template.ID {
		t.Error("merge should not change the active template")
	}

	preview := call(t, s.handlePreviewGuests, map[string]any{"sourceType": "csv_file", "sourceConfigJSON": `{"filePath": "` + csvPath + `"}`, "rows": 1.0})
	var p struct {
		Records []guests.Record `json:"records"`
	}
	if err := json.Unmarshal([]byte(preview), &p); err != nil || len(p.Records) != 1 {
		t.Errorf("preview = %s (%v)", preview, err)
	}
}
