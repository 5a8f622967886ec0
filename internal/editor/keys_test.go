package editor_test

import (
	"testing"

	"invitopia/internal/domain"
	"invitopia/internal/editor"
)

func TestDispatch_IgnoredInTextInputs(t *testing.T) {
	for _, target := range []string{"input", "TEXTAREA", "contenteditable", " select "} {
		s := newSession(t)
		_, _ = s.AddElement(domain.ElementText, domain.Position{})

		got := editor.Dispatch(s, editor.KeyEvent{Key: "z", Ctrl: true, Target: target})
		if got != editor.ActionNone {
			t.Errorf("target %q: expected no action, got %q", target, got)
		}
		if len(s.Elements()) != 1 {
			t.Errorf("target %q: undo fired inside a text field", target)
		}
	}
}

func TestDispatch_UndoRedo(t *testing.T) {
	s := newSession(t)
	_, _ = s.AddElement(domain.ElementShape, domain.Position{})

	if got := editor.Dispatch(s, editor.KeyEvent{Key: "z", Meta: true, Target: "canvas"}); got != editor.ActionUndo {
		t.Fatalf("expected undo, got %q", got)
	}
	if len(s.Elements()) != 0 {
		t.Fatal("expected element removed by undo")
	}
	if got := editor.Dispatch(s, editor.KeyEvent{Key: "Z", Ctrl: true, Shift: true}); got != editor.ActionRedo {
		t.Fatalf("expected redo, got %q", got)
	}
	if len(s.Elements()) != 1 {
		t.Fatal("expected element back after redo")
	}
	editor.Dispatch(s, editor.KeyEvent{Key: "z", Ctrl: true})
	if got := editor.Dispatch(s, editor.KeyEvent{Key: "y", Ctrl: true}); got != editor.ActionRedo {
		t.Fatalf("expected ctrl+y to redo, got %q", got)
	}
}

func TestDispatch_DeleteAndDuplicateSelected(t *testing.T) {
	s := newSession(t)
	e, _ := s.AddElement(domain.ElementText, domain.Position{})
	_ = s.Select(e.ID)

	if got := editor.Dispatch(s, editor.KeyEvent{Key: "d", Ctrl: true}); got != editor.ActionDuplicate {
		t.Fatalf("expected duplicate, got %q", got)
	}
	if len(s.Elements()) != 2 {
		t.Fatalf("expected 2 elements, got %d", len(s.Elements()))
	}
	dupID := s.SelectedID()
	if dupID == "" || dupID == e.ID {
		t.Fatalf("expected the duplicate to be selected, got %q", dupID)
	}

	if got := editor.Dispatch(s, editor.KeyEvent{Key: "Delete"}); got != editor.ActionDelete {
		t.Fatalf("expected delete, got %q", got)
	}
	if _, ok := s.Element(dupID); ok {
		t.Error("expected selected duplicate to be removed")
	}
	if s.SelectedID() != "" {
		t.Error("expected selection cleared")
	}
}

func TestDispatch_ToolKeys(t *testing.T) {
	s := newSession(t)
	tests := map[string]editor.Mode{
		"t": editor.ModeText,
		"i": editor.ModeImage,
		"s": editor.ModeShape,
		"h": editor.ModePan,
		"v": editor.ModeSelect,
	}
	for key, want := range tests {
		if got := editor.Dispatch(s, editor.KeyEvent{Key: key}); got != editor.ActionTool {
			t.Errorf("key %q: expected tool action, got %q", key, got)
		}
		if s.Mode() != want {
			t.Errorf("key %q: expected mode %q, got %q", key, want, s.Mode())
		}
	}

	if got := editor.Dispatch(s, editor.KeyEvent{Key: "s", Ctrl: true}); got != editor.ActionNone {
		t.Errorf("ctrl+s should not be handled, got %q", got)
	}
}
