package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"invitopia/internal/domain"
	"invitopia/internal/editor"
)

// ─────────────────────────────────────────────────────────────
// Template Service: persistence and live editing sessions
// ─────────────────────────────────────────────────────────────

// TemplateService owns the open editing sessions. Each template has at
// most one session; edits are kept in memory until Save or the autosaver
// writes them back to the store.
type TemplateService struct {
	store    domain.TemplateStore
	versions domain.VersionStore // nil disables the version log
	emitter  EventEmitter
	log      *slog.Logger

	mu       sync.Mutex
	sessions map[string]*editor.Session
	dirty    map[string]uint64 // template id -> revision of unsaved edits
	rev      uint64
	lastVer  map[string]string // template id -> newest version id
}

// NewTemplateService creates a TemplateService. versions may be nil.
func NewTemplateService(store domain.TemplateStore, versions domain.VersionStore, emitter EventEmitter) *TemplateService {
	if emitter == nil {
		emitter = LogEmitter{}
	}
	return &TemplateService{
		store:    store,
		versions: versions,
		emitter:  emitter,
		log:      slog.Default().With("component", "templates"),
		sessions: make(map[string]*editor.Session),
		dirty:    make(map[string]uint64),
		lastVer:  make(map[string]string),
	}
}

// CreateTemplateInput describes a new template. Zero metadata fields take
// the defaults.
type CreateTemplateInput struct {
	Name     string
	Metadata domain.Metadata
	Elements []domain.Element
}

// Create stores a new template.
func (s *TemplateService) Create(ctx context.Context, in CreateTemplateInput) (*domain.Template, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, fmt.Errorf("template name is required: %w", domain.ErrInvalidArgument)
	}
	meta := in.Metadata
	if meta.Color == "" {
		meta.Color = domain.DefaultMetadata.Color
	}
	if meta.Width <= 0 {
		meta.Width = domain.DefaultMetadata.Width
	}
	if meta.Height <= 0 {
		meta.Height = domain.DefaultMetadata.Height
	}
	if err := domain.ValidateElements(in.Elements); err != nil {
		return nil, err
	}

	t := &domain.Template{Name: name, Metadata: meta, Elements: domain.CloneElements(in.Elements)}
	if err := s.store.CreateTemplate(ctx, t); err != nil {
		return nil, fmt.Errorf("create template: %w", err)
	}
	s.log.Info("template created", "id", t.ID, "name", t.Name)
	return t, nil
}

// List returns summaries of all stored templates.
func (s *TemplateService) List(ctx context.Context) ([]domain.TemplateSummary, error) {
	return s.store.ListTemplates(ctx)
}

// Get returns the current template: the live session state when the
// template is open, otherwise the stored copy.
func (s *TemplateService) Get(ctx context.Context, id string) (*domain.Template, error) {
	if sess, ok := s.Session(id); ok {
		t := sess.Template()
		return &t, nil
	}
	return s.store.GetTemplate(ctx, id)
}

// Session returns the open session for id.
func (s *TemplateService) Session(id string) (*editor.Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

// OpenIDs lists the templates with an open session.
func (s *TemplateService) OpenIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.sessions))
	for id := range s.sessions {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Open returns the editing session for id, loading it from the store when
// it is not open yet.
func (s *TemplateService) Open(ctx context.Context, id string) (*editor.Session, error) {
	if sess, ok := s.Session(id); ok {
		return sess, nil
	}

	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := domain.ValidateElements(t.Elements); err != nil {
		return nil, fmt.Errorf("open template %s: %w", id, err)
	}

	var last string
	if s.versions != nil {
		vs, err := s.versions.ListVersions(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("load versions: %w", err)
		}
		if len(vs) > 0 {
			last = vs[len(vs)-1].ID
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if sess, ok := s.sessions[id]; ok {
		return sess, nil
	}
	sess := editor.NewSession(*t)
	sess.OnChange(s.onChange)
	s.sessions[id] = sess
	s.lastVer[id] = last
	s.log.Debug("session opened", "id", id, "elements", len(t.Elements))
	return sess, nil
}

// onChange marks the template dirty, appends recorded steps to the
// version log and forwards the change to the emitter.
func (s *TemplateService) onChange(c editor.Change) {
	ctx := context.Background()
	if c.Kind == editor.ChangeElements {
		s.mu.Lock()
		s.rev++
		s.dirty[c.TemplateID] = s.rev
		parent := s.lastVer[c.TemplateID]
		s.mu.Unlock()

		if !c.Travel && s.versions != nil {
			v := &domain.Version{
				TemplateID: c.TemplateID,
				ParentID:   parent,
				Label:      c.Label,
				Elements:   c.Elements,
			}
			if err := s.versions.AppendVersion(ctx, v); err != nil {
				s.log.Warn("append version", "template", c.TemplateID, "err", err)
			} else {
				s.mu.Lock()
				s.lastVer[c.TemplateID] = v.ID
				s.mu.Unlock()
			}
		}
	}
	s.emitter.Emit(ctx, EventTemplateChanged, c)
}

// Dirty reports whether id has unsaved edits.
func (s *TemplateService) Dirty(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.dirty[id]
	return ok
}

// DirtyIDs lists the templates with unsaved edits.
func (s *TemplateService) DirtyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]string, 0, len(s.dirty))
	for id := range s.dirty {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Pending is the number of templates waiting to be written.
func (s *TemplateService) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.dirty)
}

// Save writes the open session for id to the store. Saving a template
// that is not open, or has no edits, is a no-op.
func (s *TemplateService) Save(ctx context.Context, id string) error {
	s.mu.Lock()
	sess, ok := s.sessions[id]
	rev, dirty := s.dirty[id]
	s.mu.Unlock()
	if !ok || !dirty {
		return nil
	}

	t := sess.Template()
	if err := s.store.SaveTemplate(ctx, &t); err != nil {
		return fmt.Errorf("save template %s: %w", id, err)
	}

	s.mu.Lock()
	// Edits made while saving keep the template dirty.
	if s.dirty[id] == rev {
		delete(s.dirty, id)
	}
	s.mu.Unlock()

	s.log.Info("template saved", "id", id, "elements", len(t.Elements))
	s.emitter.Emit(ctx, EventTemplateSaved, domain.TemplateSummary{
		ID: t.ID, Name: t.Name, ElementCount: len(t.Elements), UpdatedAt: t.UpdatedAt,
	})
	return nil
}

// Close saves pending edits and drops the session.
func (s *TemplateService) Close(ctx context.Context, id string) error {
	if err := s.Save(ctx, id); err != nil {
		return err
	}
	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.lastVer, id)
	s.mu.Unlock()
	return nil
}

// CloseAll saves and closes every open session.
func (s *TemplateService) CloseAll(ctx context.Context) error {
	var errs []error
	for _, id := range s.OpenIDs() {
		if err := s.Close(ctx, id); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Rename changes a template name and persists it.
func (s *TemplateService) Rename(ctx context.Context, id, name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("template name is required: %w", domain.ErrInvalidArgument)
	}
	if sess, ok := s.Session(id); ok {
		sess.Rename(name)
		s.mu.Lock()
		s.rev++
		s.dirty[id] = s.rev
		s.mu.Unlock()
		return s.Save(ctx, id)
	}

	t, err := s.store.GetTemplate(ctx, id)
	if err != nil {
		return err
	}
	t.Name = name
	return s.store.SaveTemplate(ctx, t)
}

// Delete removes a template, its open session and its version log.
func (s *TemplateService) Delete(ctx context.Context, id string) error {
	if err := s.store.DeleteTemplate(ctx, id); err != nil {
		return err
	}
	if s.versions != nil {
		if err := s.versions.ClearVersions(ctx, id); err != nil {
			s.log.Warn("clear versions", "template", id, "err", err)
		}
	}

	s.mu.Lock()
	delete(s.sessions, id)
	delete(s.dirty, id)
	delete(s.lastVer, id)
	s.mu.Unlock()

	s.log.Info("template deleted", "id", id)
	s.emitter.Emit(ctx, EventTemplateDeleted, id)
	return nil
}

// Versions returns the persisted version log of id, oldest first.
func (s *TemplateService) Versions(ctx context.Context, id string) ([]domain.Version, error) {
	if s.versions == nil {
		return nil, nil
	}
	return s.versions.ListVersions(ctx, id)
}

// RestoreVersion replaces the elements of the open template with a
// stored version. The restore is itself an undoable step.
func (s *TemplateService) RestoreVersion(ctx context.Context, id, versionID string) error {
	if s.versions == nil {
		return fmt.Errorf("version log disabled: %w", domain.ErrNotFound)
	}
	v, err := s.versions.GetVersion(ctx, versionID)
	if err != nil {
		return err
	}
	if v.TemplateID != id {
		return fmt.Errorf("version %s belongs to template %s: %w", versionID, v.TemplateID, domain.ErrInvalidArgument)
	}
	sess, err := s.Open(ctx, id)
	if err != nil {
		return err
	}
	return sess.ReplaceElements("restore "+v.Label, v.Elements)
}
