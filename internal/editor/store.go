package editor

import (
	"fmt"

	"github.com/google/uuid"

	"invitopia/internal/domain"
)

// DuplicateOffset is how far a duplicate is shifted from its source on both axes.
const DuplicateOffset = 10.0

// IDFunc generates element ids.
type IDFunc func() string

// NewID returns a random UUID string.
func NewID() string {
	return uuid.New().String()
}

// Snapshot is an immutable copy of the element list at one point in time.
type Snapshot []domain.Element

// ElementStore holds the ordered elements of one template.
// Slice order is insertion order; paint order is derived from ZIndex.
type ElementStore struct {
	elements []domain.Element
	newID    IDFunc
}

// NewElementStore creates a store seeded with a copy of elements. An element
// whose id was already seen is dropped so ids stay unique.
func NewElementStore(newID IDFunc, elements []domain.Element) *ElementStore {
	if newID == nil {
		newID = NewID
	}
	seen := make(map[string]bool, len(elements))
	kept := make([]domain.Element, 0, len(elements))
	for _, e := range elements {
		if seen[e.ID] {
			continue
		}
		seen[e.ID] = true
		kept = append(kept, e.Clone())
	}
	return &ElementStore{elements: kept, newID: newID}
}

func (s *ElementStore) Len() int {
	return len(s.elements)
}

func (s *ElementStore) index(id string) int {
	for i := range s.elements {
		if s.elements[i].ID == id {
			return i
		}
	}
	return -1
}

// Get returns a copy of the element with the given id.
func (s *ElementStore) Get(id string) (domain.Element, bool) {
	i := s.index(id)
	if i < 0 {
		return domain.Element{}, false
	}
	return s.elements[i].Clone(), true
}

// List returns copies of all elements in insertion order.
func (s *ElementStore) List() []domain.Element {
	return domain.CloneElements(s.elements)
}

// PaintOrder returns copies of all elements sorted back to front.
func (s *ElementStore) PaintOrder() []domain.Element {
	return domain.PaintOrder(s.elements)
}

// MaxZ returns the highest ZIndex, or 0 when the store is empty.
func (s *ElementStore) MaxZ() int {
	maxZ := 0
	for i, e := range s.elements {
		if i == 0 || e.ZIndex > maxZ {
			maxZ = e.ZIndex
		}
	}
	return maxZ
}

// MinZ returns the lowest ZIndex, or 0 when the store is empty.
func (s *ElementStore) MinZ() int {
	minZ := 0
	for i, e := range s.elements {
		if i == 0 || e.ZIndex < minZ {
			minZ = e.ZIndex
		}
	}
	return minZ
}

// Add appends a new element of kind at pos with ZIndex above every other element.
// Optional patches are applied before the element is stored.
func (s *ElementStore) Add(kind domain.ElementKind, pos domain.Position, init ...domain.ElementPatch) (domain.Element, error) {
	e, err := domain.NewElement(s.newID(), kind, pos)
	if err != nil {
		return domain.Element{}, err
	}
	e.ZIndex = s.MaxZ() + 1
	for _, p := range init {
		if e, err = p.Apply(e); err != nil {
			return domain.Element{}, err
		}
	}
	if err := e.Validate(); err != nil {
		return domain.Element{}, err
	}
	s.elements = append(s.elements, e)
	return e.Clone(), nil
}

// Update applies patch to the element with id. changed is false when the
// patch leaves the element identical.
func (s *ElementStore) Update(id string, patch domain.ElementPatch) (updated domain.Element, changed bool, err error) {
	i := s.index(id)
	if i < 0 {
		return domain.Element{}, false, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	next, err := patch.Apply(s.elements[i])
	if err != nil {
		return s.elements[i].Clone(), false, err
	}
	if domain.Equal(next, s.elements[i]) {
		return next, false, nil
	}
	s.elements[i] = next
	return next.Clone(), true, nil
}

func (s *ElementStore) Remove(id string) error {
	i := s.index(id)
	if i < 0 {
		return fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	s.elements = append(s.elements[:i], s.elements[i+1:]...)
	return nil
}

// Duplicate clones the element with id under a fresh id, on top of the stack,
// shifted by DuplicateOffset.
func (s *ElementStore) Duplicate(id string) (domain.Element, error) {
	i := s.index(id)
	if i < 0 {
		return domain.Element{}, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	dup := s.elements[i].Clone()
	dup.ID = s.newID()
	dup.ZIndex = s.MaxZ() + 1
	dup.Position.X += DuplicateOffset
	dup.Position.Y += DuplicateOffset
	s.elements = append(s.elements, dup)
	return dup.Clone(), nil
}

// BringToFront moves the element above all others. It reports false when
// the element is already the only topmost one.
func (s *ElementStore) BringToFront(id string) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	z := s.elements[i].ZIndex
	for j, e := range s.elements {
		if j != i && e.ZIndex >= z {
			s.elements[i].ZIndex = s.MaxZ() + 1
			return true, nil
		}
	}
	return false, nil
}

// SendToBack moves the element below all others. It reports false when
// the element is already the only bottommost one.
func (s *ElementStore) SendToBack(id string) (bool, error) {
	i := s.index(id)
	if i < 0 {
		return false, fmt.Errorf("element %s: %w", id, domain.ErrNotFound)
	}
	z := s.elements[i].ZIndex
	for j, e := range s.elements {
		if j != i && e.ZIndex <= z {
			s.elements[i].ZIndex = s.MinZ() - 1
			return true, nil
		}
	}
	return false, nil
}

// Snapshot captures the current element list.
func (s *ElementStore) Snapshot() Snapshot {
	return Snapshot(domain.CloneElements(s.elements))
}

// Restore replaces the element list with a copy of snap.
func (s *ElementStore) Restore(snap Snapshot) {
	s.elements = domain.CloneElements(snap)
}
