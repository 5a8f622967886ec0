package editor_test

import (
	"testing"

	"github.com/google/go-cmp/cmp"

	"invitopia/internal/domain"
	"invitopia/internal/editor"
)

func snap(ids ...string) editor.Snapshot {
	s := editor.Snapshot{}
	for i, id := range ids {
		s = append(s, domain.Element{ID: id, Kind: domain.ElementShape, ZIndex: i + 1,
			Shape: &domain.ShapeContent{Kind: domain.ShapeRect}})
	}
	return s
}

func TestHistory_UndoRedoStacks(t *testing.T) {
	h := editor.NewHistory()
	s0, s1, s2 := snap(), snap("a"), snap("a", "b")

	h.Record("add a", s0)
	h.Record("add b", s1)
	if h.Cursor() != 2 || h.Len() != 2 {
		t.Fatalf("cursor=%d len=%d", h.Cursor(), h.Len())
	}

	got, ok := h.Undo(s2)
	if !ok {
		t.Fatal("expected undo")
	}
	if diff := cmp.Diff(s1, got); diff != "" {
		t.Errorf("undo (-want +got):\n%s", diff)
	}

	got, ok = h.Redo(s1)
	if !ok {
		t.Fatal("expected redo")
	}
	if diff := cmp.Diff(s2, got); diff != "" {
		t.Errorf("redo (-want +got):\n%s", diff)
	}
	if h.CanRedo() {
		t.Error("future should be empty after redoing everything")
	}
}

func TestHistory_RecordClearsFuture(t *testing.T) {
	h := editor.NewHistory()
	h.Record("add a", snap())
	h.Undo(snap("a"))
	if !h.CanRedo() {
		t.Fatal("expected redo available")
	}
	h.Record("add c", snap())
	if h.CanRedo() {
		t.Fatal("expected future cleared")
	}
	if _, ok := h.Redo(snap("c")); ok {
		t.Fatal("redo should be a no-op")
	}
}

func TestHistory_SnapshotsAreIsolated(t *testing.T) {
	h := editor.NewHistory()
	before := snap("a")
	h.Record("edit", before)
	before[0].ID = "mutated"

	got, _ := h.Undo(snap("a", "b"))
	if got[0].ID != "a" {
		t.Fatalf("history shared memory with caller: %q", got[0].ID)
	}
}

func TestHistory_JumpTo(t *testing.T) {
	h := editor.NewHistory()
	h.Record("1", snap())
	h.Record("2", snap("a"))
	h.Record("3", snap("a", "b"))
	current := snap("a", "b", "c")

	got, ok := h.JumpTo(current, 0)
	if !ok || len(got) != 0 {
		t.Fatalf("jump to 0: ok=%v got=%v", ok, got)
	}
	got, ok = h.JumpTo(got, 2)
	if !ok {
		t.Fatal("jump forward failed")
	}
	if diff := cmp.Diff(snap("a", "b"), got); diff != "" {
		t.Errorf("jump to 2 (-want +got):\n%s", diff)
	}
	if _, ok := h.JumpTo(got, 2); ok {
		t.Error("jump to current cursor should be a no-op")
	}
	if _, ok := h.JumpTo(got, 4); ok {
		t.Error("jump past the end should fail")
	}
}
