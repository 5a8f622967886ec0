package service_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"invitopia/internal/domain"
	"invitopia/internal/editor"
	"invitopia/internal/service"
	"invitopia/internal/storage"
)

type fixture struct {
	svc      *service.TemplateService
	store    *storage.TemplateStore
	emitter  *service.MockEmitter
	template *domain.Template
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db, err := storage.New(filepath.Join(t.TempDir(), "invitopia.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	store := storage.NewTemplateStore(db)
	emitter := &service.MockEmitter{}
	svc := service.NewTemplateService(store, storage.NewVersionStore(db, 40), emitter)

	tpl, err := svc.Create(context.Background(), service.CreateTemplateInput{Name: "Ava's 7th"})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return &fixture{svc: svc, store: store, emitter: emitter, template: tpl}
}

func TestTemplateService_CreateDefaults(t *testing.T) {
	f := newFixture(t)
	if f.template.Metadata != domain.DefaultMetadata {
		t.Errorf("expected default metadata, got %+v", f.template.Metadata)
	}
	if _, err := f.svc.Create(context.Background(), service.CreateTemplateInput{Name: "  "}); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for blank name, got %v", err)
	}
}

func TestTemplateService_CreateRejectsDuplicateElementIDs(t *testing.T) {
	f := newFixture(t)
	e, _ := domain.NewElement("dup", domain.ElementText, domain.Position{})
	_, err := f.svc.Create(context.Background(), service.CreateTemplateInput{
		Name:     "Twins",
		Elements: []domain.Element{e, e},
	})
	if !errors.Is(err, domain.ErrInvalidArgument) {
		t.Fatalf("expected ErrInvalidArgument, got %v", err)
	}
	list, _ := f.svc.List(context.Background())
	if len(list) != 1 {
		t.Errorf("expected only the fixture template stored, got %d", len(list))
	}
}

func TestTemplateService_OpenReturnsSameSession(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a, err := f.svc.Open(ctx, f.template.ID)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	b, err := f.svc.Open(ctx, f.template.ID)
	if err != nil {
		t.Fatalf("open again: %v", err)
	}
	if a != b {
		t.Error("expected the same session for repeated Open")
	}
	if _, err := f.svc.Open(ctx, "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestTemplateService_EditsStayInMemoryUntilSave(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.template.ID

	sess, err := f.svc.Open(ctx, id)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	if _, err := sess.AddElement(domain.ElementText, domain.Position{X: 20, Y: 30}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !f.svc.Dirty(id) || f.svc.Pending() != 1 {
		t.Fatalf("expected template dirty, pending=%d", f.svc.Pending())
	}

	stored, err := f.store.GetTemplate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(stored.Elements) != 0 {
		t.Errorf("store should not see unsaved edits, got %d elements", len(stored.Elements))
	}
	live, err := f.svc.Get(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if len(live.Elements) != 1 {
		t.Errorf("Get should return the live session, got %d elements", len(live.Elements))
	}

	if err := f.svc.Save(ctx, id); err != nil {
		t.Fatalf("save: %v", err)
	}
	if f.svc.Dirty(id) {
		t.Error("expected clean after save")
	}
	stored, err = f.store.GetTemplate(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	if diff := cmp.Diff(sess.Elements(), stored.Elements); diff != "" {
		t.Errorf("stored elements (-session +stored):\n%s", diff)
	}
	if len(f.emitter.Named(service.EventTemplateSaved)) != 1 {
		t.Error("expected one saved event")
	}
}

func TestTemplateService_VersionLogFollowsRecordedSteps(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.template.ID

	sess, _ := f.svc.Open(ctx, id)
	el, _ := sess.AddElement(domain.ElementShape, domain.Position{})
	red := "#FF0000"
	if _, err := sess.UpdateElement(el.ID, domain.ElementPatch{BackgroundColor: &red}); err != nil {
		t.Fatal(err)
	}
	sess.Undo()

	vs, err := f.svc.Versions(ctx, id)
	if err != nil {
		t.Fatal(err)
	}
	var labels []string
	for _, v := range vs {
		labels = append(labels, v.Label)
	}
	// undo is time travel and is not logged
	if diff := cmp.Diff([]string{"add shape", "update element"}, labels); diff != "" {
		t.Errorf("version labels (-want +got):\n%s", diff)
	}
	if vs[1].ParentID != vs[0].ID {
		t.Errorf("expected chained versions, parent=%q", vs[1].ParentID)
	}

	changes := f.emitter.Named(service.EventTemplateChanged)
	if len(changes) != 3 {
		t.Fatalf("expected 3 change events, got %d", len(changes))
	}
	if c := changes[2].Data.(editor.Change); !c.Travel {
		t.Error("expected the undo change to be marked as travel")
	}
}

func TestTemplateService_RestoreVersionIsUndoable(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.template.ID

	sess, _ := f.svc.Open(ctx, id)
	first, _ := sess.AddElement(domain.ElementText, domain.Position{})
	if _, err := sess.AddElement(domain.ElementImage, domain.Position{X: 50}); err != nil {
		t.Fatal(err)
	}

	vs, _ := f.svc.Versions(ctx, id)
	if err := f.svc.RestoreVersion(ctx, id, vs[0].ID); err != nil {
		t.Fatalf("restore: %v", err)
	}
	if got := sess.Elements(); len(got) != 1 || got[0].ID != first.ID {
		t.Errorf("expected only the first element after restore, got %+v", got)
	}

	if !sess.Undo() {
		t.Fatal("expected restore to be undoable")
	}
	if n := len(sess.Elements()); n != 2 {
		t.Errorf("expected 2 elements after undoing restore, got %d", n)
	}

	if err := f.svc.RestoreVersion(ctx, "other", vs[0].ID); !errors.Is(err, domain.ErrInvalidArgument) {
		t.Errorf("expected ErrInvalidArgument for foreign version, got %v", err)
	}
}

func TestTemplateService_RenameAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.template.ID

	if err := f.svc.Rename(ctx, id, "Ava turns 7"); err != nil {
		t.Fatalf("rename closed: %v", err)
	}
	sess, _ := f.svc.Open(ctx, id)
	if sess.Template().Name != "Ava turns 7" {
		t.Errorf("session should load renamed template, got %q", sess.Template().Name)
	}
	if err := f.svc.Rename(ctx, id, "Ava's party"); err != nil {
		t.Fatalf("rename open: %v", err)
	}
	stored, _ := f.store.GetTemplate(ctx, id)
	if stored.Name != "Ava's party" {
		t.Errorf("rename of open template not persisted, got %q", stored.Name)
	}

	if err := f.svc.Delete(ctx, id); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := f.svc.Session(id); ok {
		t.Error("expected session dropped on delete")
	}
	if _, err := f.svc.Get(ctx, id); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestTemplateService_CloseSavesPending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	id := f.template.ID

	sess, _ := f.svc.Open(ctx, id)
	sess.AddElement(domain.ElementText, domain.Position{})
	if err := f.svc.CloseAll(ctx); err != nil {
		t.Fatalf("close all: %v", err)
	}
	if len(f.svc.OpenIDs()) != 0 {
		t.Error("expected no open sessions")
	}
	stored, _ := f.store.GetTemplate(ctx, id)
	if len(stored.Elements) != 1 {
		t.Errorf("expected close to save, got %d elements", len(stored.Elements))
	}
}

// ─────────────────────────────────────────────────────────────
// Autosaver
// ─────────────────────────────────────────────────────────────

func TestAutosaver_Flush(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	second, err := f.svc.Create(ctx, service.CreateTemplateInput{Name: "Gala"})
	if err != nil {
		t.Fatal(err)
	}
	for _, id := range []string{f.template.ID, second.ID} {
		sess, _ := f.svc.Open(ctx, id)
		sess.AddElement(domain.ElementShape, domain.Position{})
	}

	a := service.NewAutosaver(f.svc, "@every 1h")
	if a.Pending() != 2 {
		t.Fatalf("expected 2 pending, got %d", a.Pending())
	}
	n, err := a.Flush(ctx)
	if err != nil {
		t.Fatalf("flush: %v", err)
	}
	if n != 2 || a.Pending() != 0 {
		t.Errorf("flush saved %d, pending %d", n, a.Pending())
	}

	n, err = a.Flush(ctx)
	if err != nil || n != 0 {
		t.Errorf("second flush should be a no-op, got %d, %v", n, err)
	}
}

func TestAutosaver_KeepsSavingAfterStartContextEnds(t *testing.T) {
	f := newFixture(t)
	ctx, cancel := context.WithCancel(context.Background())

	a := service.NewAutosaver(f.svc, "@every 1s")
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = a.Stop(context.Background()) })
	cancel()

	sess, _ := f.svc.Open(context.Background(), f.template.ID)
	sess.AddElement(domain.ElementText, domain.Position{})

	deadline := time.Now().Add(5 * time.Second)
	for a.Pending() != 0 {
		if time.Now().After(deadline) {
			t.Fatal("scheduled flush did not run after the start context was cancelled")
		}
		time.Sleep(50 * time.Millisecond)
	}
	if n := len(f.emitter.Named(service.EventAutosaveFailed)); n != 0 {
		t.Errorf("expected no failed autosaves, got %d", n)
	}
}

func TestAutosaver_InvalidSchedule(t *testing.T) {
	f := newFixture(t)
	a := service.NewAutosaver(f.svc, "not a schedule")
	if err := a.Start(context.Background()); err == nil {
		t.Fatal("expected schedule error")
	}
}

func TestAutosaver_StopFlushes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	a := service.NewAutosaver(f.svc, "@every 1h")
	if err := a.Start(ctx); err != nil {
		t.Fatal(err)
	}
	sess, _ := f.svc.Open(ctx, f.template.ID)
	sess.AddElement(domain.ElementText, domain.Position{})

	if err := a.Stop(ctx); err != nil {
		t.Fatalf("stop: %v", err)
	}
	if a.Pending() != 0 {
		t.Errorf("expected stop to flush, pending %d", a.Pending())
	}
}
