package editor

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sync"

	"invitopia/internal/domain"
)

// Mode is the active canvas tool.
type Mode string

const (
	ModeSelect Mode = "select"
	ModeText   Mode = "text"
	ModeImage  Mode = "image"
	ModeShape  Mode = "shape"
	ModePan    Mode = "pan"
)

func (m Mode) Valid() bool {
	switch m {
	case ModeSelect, ModeText, ModeImage, ModeShape, ModePan:
		return true
	}
	return false
}

// Zoom bounds. Finite positive factors outside the range are clamped.
const (
	MinZoom     = 0.1
	MaxZoom     = 5.0
	DefaultZoom = 1.0
)

// ChangeKind classifies a Change notification.
type ChangeKind string

const (
	ChangeElements  ChangeKind = "elements"
	ChangeSelection ChangeKind = "selection"
	ChangeMode      ChangeKind = "mode"
	ChangeZoom      ChangeKind = "zoom"
)

// Change is delivered to observers after a session state change.
// Elements is set for ChangeElements and holds the state after the change.
type Change struct {
	TemplateID string
	Kind       ChangeKind
	Label      string
	Travel     bool // undo, redo or jump
	Elements   []domain.Element
}

// ImageSelector resolves a user's image choice to a URL.
type ImageSelector interface {
	SelectImage(ctx context.Context, query string) (string, error)
}

// FontSelector resolves a user's font choice to a font-family name.
type FontSelector interface {
	SelectFont(ctx context.Context, query string) (string, error)
}

// State is a read-only view of the session for rendering.
type State struct {
	Template   domain.Template `json:"template"`
	SelectedID string          `json:"selectedId"`
	Mode       Mode            `json:"mode"`
	Zoom       float64         `json:"zoom"`
	CanUndo    bool            `json:"canUndo"`
	CanRedo    bool            `json:"canRedo"`
	History    []Step          `json:"history"`
}

// Session is the editing state of one template. All methods are safe for
// concurrent use; observers run after the session lock is released.
type Session struct {
	mu sync.Mutex

	template domain.Template // metadata only; elements live in store
	store    *ElementStore
	history  *History
	selected string
	mode     Mode
	zoom     float64

	observers []func(Change)
}

type Option func(*sessionConfig)

type sessionConfig struct {
	newID IDFunc
}

// WithIDFunc overrides element id generation.
func WithIDFunc(f IDFunc) Option {
	return func(c *sessionConfig) { c.newID = f }
}

// NewSession opens t for editing. t is copied.
func NewSession(t domain.Template, opts ...Option) *Session {
	cfg := sessionConfig{newID: NewID}
	for _, o := range opts {
		o(&cfg)
	}
	meta := t.Clone()
	elements := meta.Elements
	meta.Elements = nil
	return &Session{
		template: meta,
		store:    NewElementStore(cfg.newID, elements),
		history:  NewHistory(),
		mode:     ModeSelect,
		zoom:     DefaultZoom,
	}
}

// OnChange registers an observer for state changes.
func (s *Session) OnChange(fn func(Change)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.observers = append(s.observers, fn)
}

func (s *Session) notify(c Change) {
	s.mu.Lock()
	obs := append([]func(Change){}, s.observers...)
	s.mu.Unlock()
	for _, fn := range obs {
		fn(c)
	}
}

func (s *Session) elementsChanged(label string) Change {
	return Change{
		TemplateID: s.template.ID,
		Kind:       ChangeElements,
		Label:      label,
		Elements:   s.store.List(),
	}
}

// mutate records history and notifies observers when op reports a change.
// op runs under the session lock.
func (s *Session) mutate(label string, op func() (bool, error)) error {
	return s.apply(label, false, op)
}

// edit is mutate for the add, update, remove and duplicate commands: each
// call records exactly one history step, also when it changed nothing or
// targeted an unknown id, so N edits are always undone by N undos.
// Rejected arguments record nothing.
func (s *Session) edit(label string, op func() (bool, error)) error {
	return s.apply(label, true, op)
}

func (s *Session) apply(label string, always bool, op func() (bool, error)) error {
	s.mu.Lock()
	before := s.store.Snapshot()
	changed, err := op()
	if err != nil || !changed {
		if always && (err == nil || errors.Is(err, domain.ErrNotFound)) {
			s.history.Record(label, before)
		}
		s.mu.Unlock()
		return err
	}
	s.history.Record(label, before)
	s.fixSelectionLocked()
	c := s.elementsChanged(label)
	s.mu.Unlock()
	s.notify(c)
	return nil
}

// fixSelectionLocked drops a selection that no longer points at an element.
func (s *Session) fixSelectionLocked() {
	if s.selected == "" {
		return
	}
	if _, ok := s.store.Get(s.selected); !ok {
		s.selected = ""
	}
}

// ID returns the template id.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.template.ID
}

// AddElement places a new element and records one history step.
// init patches are applied to the new element inside the same step.
func (s *Session) AddElement(kind domain.ElementKind, pos domain.Position, init ...domain.ElementPatch) (domain.Element, error) {
	var added domain.Element
	err := s.edit("add "+string(kind), func() (bool, error) {
		e, err := s.store.Add(kind, pos, init...)
		if err != nil {
			return false, err
		}
		added = e
		return true, nil
	})
	return added, err
}

// UpdateElement applies patch to the element with id. Unknown ids and
// patches without effect leave the elements untouched but still record a
// history step.
func (s *Session) UpdateElement(id string, patch domain.ElementPatch) (domain.Element, error) {
	var updated domain.Element
	err := s.edit("update element", func() (bool, error) {
		e, changed, err := s.store.Update(id, patch)
		updated = e
		return changed, err
	})
	return updated, err
}

// RemoveElement deletes the element and clears the selection if it pointed there.
func (s *Session) RemoveElement(id string) error {
	return s.edit("remove element", func() (bool, error) {
		if err := s.store.Remove(id); err != nil {
			return false, err
		}
		return true, nil
	})
}

func (s *Session) DuplicateElement(id string) (domain.Element, error) {
	var dup domain.Element
	err := s.edit("duplicate element", func() (bool, error) {
		e, err := s.store.Duplicate(id)
		if err != nil {
			return false, err
		}
		dup = e
		return true, nil
	})
	return dup, err
}

func (s *Session) BringToFront(id string) error {
	return s.mutate("bring to front", func() (bool, error) {
		return s.store.BringToFront(id)
	})
}

func (s *Session) SendToBack(id string) error {
	return s.mutate("send to back", func() (bool, error) {
		return s.store.SendToBack(id)
	})
}

// ReplaceElements swaps the whole element list as one undoable step.
func (s *Session) ReplaceElements(label string, elements []domain.Element) error {
	if err := domain.ValidateElements(elements); err != nil {
		return err
	}
	return s.mutate(label, func() (bool, error) {
		s.store.Restore(Snapshot(elements))
		return true, nil
	})
}

// SetImage asks sel for an image and assigns its URL to the image element id.
func (s *Session) SetImage(ctx context.Context, id string, sel ImageSelector, query string) (domain.Element, error) {
	url, err := sel.SelectImage(ctx, query)
	if err != nil {
		return domain.Element{}, fmt.Errorf("select image: %w", err)
	}
	return s.UpdateElement(id, domain.ElementPatch{Src: &url})
}

// SetFont asks sel for a font family and assigns it to the text element id.
func (s *Session) SetFont(ctx context.Context, id string, sel FontSelector, query string) (domain.Element, error) {
	family, err := sel.SelectFont(ctx, query)
	if err != nil {
		return domain.Element{}, fmt.Errorf("select font: %w", err)
	}
	return s.UpdateElement(id, domain.ElementPatch{FontFamily: &family})
}

// Undo restores the state before the last action. It reports false when
// there is nothing to undo.
func (s *Session) Undo() bool {
	return s.travel("undo", func(cur Snapshot) (Snapshot, bool) { return s.history.Undo(cur) })
}

// Redo reapplies the last undone action.
func (s *Session) Redo() bool {
	return s.travel("redo", func(cur Snapshot) (Snapshot, bool) { return s.history.Redo(cur) })
}

// JumpTo moves the history cursor so that exactly cursor actions are applied.
// The move happens in one step; observers see only the final state.
func (s *Session) JumpTo(cursor int) error {
	s.mu.Lock()
	total := s.history.Len()
	s.mu.Unlock()
	if cursor < 0 || cursor > total {
		return fmt.Errorf("history cursor %d outside [0, %d]: %w", cursor, total, domain.ErrInvalidArgument)
	}
	s.travel("jump", func(cur Snapshot) (Snapshot, bool) { return s.history.JumpTo(cur, cursor) })
	return nil
}

func (s *Session) travel(label string, step func(Snapshot) (Snapshot, bool)) bool {
	s.mu.Lock()
	next, ok := step(s.store.Snapshot())
	if !ok {
		s.mu.Unlock()
		return false
	}
	s.store.Restore(next)
	s.fixSelectionLocked()
	c := s.elementsChanged(label)
	c.Travel = true
	s.mu.Unlock()
	s.notify(c)
	return true
}

// Select sets the selected element. An empty id clears the selection.
func (s *Session) Select(id string) error {
	s.mu.Lock()
	if id != "" {
		if _, ok := s.store.Get(id); !ok {
			s.mu.Unlock()
			return fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
		}
	}
	if s.selected == id {
		s.mu.Unlock()
		return nil
	}
	s.selected = id
	c := Change{TemplateID: s.template.ID, Kind: ChangeSelection, Label: "select"}
	s.mu.Unlock()
	s.notify(c)
	return nil
}

func (s *Session) SetMode(m Mode) error {
	if !m.Valid() {
		return fmt.Errorf("mode %q: %w", m, domain.ErrInvalidArgument)
	}
	s.mu.Lock()
	if s.mode == m {
		s.mu.Unlock()
		return nil
	}
	s.mode = m
	c := Change{TemplateID: s.template.ID, Kind: ChangeMode, Label: string(m)}
	s.mu.Unlock()
	s.notify(c)
	return nil
}

// SetZoom clamps factor into [MinZoom, MaxZoom] and returns the applied zoom.
// Non-finite or non-positive factors are rejected.
func (s *Session) SetZoom(factor float64) (float64, error) {
	if math.IsNaN(factor) || math.IsInf(factor, 0) || factor <= 0 {
		return s.Zoom(), fmt.Errorf("zoom %v: %w", factor, domain.ErrInvalidArgument)
	}
	factor = math.Max(MinZoom, math.Min(MaxZoom, factor))
	s.mu.Lock()
	if s.zoom == factor {
		s.mu.Unlock()
		return factor, nil
	}
	s.zoom = factor
	c := Change{TemplateID: s.template.ID, Kind: ChangeZoom}
	s.mu.Unlock()
	s.notify(c)
	return factor, nil
}

func (s *Session) SelectedID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.selected
}

func (s *Session) Mode() Mode {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.mode
}

func (s *Session) Zoom() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.zoom
}

func (s *Session) CanUndo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanUndo()
}

func (s *Session) CanRedo() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.CanRedo()
}

// History lists the actions for a history panel.
func (s *Session) History() []Step {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.history.Steps()
}

// Element returns a copy of the element with id.
func (s *Session) Element(id string) (domain.Element, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.Get(id)
}

// Elements returns copies of all elements in insertion order.
func (s *Session) Elements() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.List()
}

// PaintOrder returns copies of all elements sorted back to front.
func (s *Session) PaintOrder() []domain.Element {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.store.PaintOrder()
}

// Template returns a deep copy of the template for saving or export.
func (s *Session) Template() domain.Template {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.templateLocked()
}

func (s *Session) templateLocked() domain.Template {
	t := s.template.Clone()
	t.Elements = s.store.List()
	return t
}

// Rename changes the template name. It is not part of undo history.
func (s *Session) Rename(name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.template.Name = name
}

// State returns everything a renderer needs.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return State{
		Template:   s.templateLocked(),
		SelectedID: s.selected,
		Mode:       s.mode,
		Zoom:       s.zoom,
		CanUndo:    s.history.CanUndo(),
		CanRedo:    s.history.CanRedo(),
		History:    s.history.Steps(),
	}
}
