package editor

import "invitopia/internal/domain"

// Entry is a snapshot on one of the history stacks. Label names the action
// that leads forward from the snapshot.
type Entry struct {
	Label    string
	Elements Snapshot
}

// Step describes one action in the history panel.
type Step struct {
	Index   int    `json:"index"`
	Label   string `json:"label"`
	Applied bool   `json:"applied"`
}

// History is an undo/redo manager over two unbounded stacks.
type History struct {
	past   []Entry
	future []Entry
}

func NewHistory() *History {
	return &History{}
}

// Record pushes the state captured before a mutation and drops the redo stack.
func (h *History) Record(label string, before Snapshot) {
	h.past = append(h.past, Entry{Label: label, Elements: cloneSnapshot(before)})
	h.future = nil
}

// Undo pops the last past entry and pushes current onto the future stack.
// It returns the state to restore, or false when there is nothing to undo.
func (h *History) Undo(current Snapshot) (Snapshot, bool) {
	if len(h.past) == 0 {
		return nil, false
	}
	top := h.past[len(h.past)-1]
	h.past = h.past[:len(h.past)-1]
	h.future = append(h.future, Entry{Label: top.Label, Elements: cloneSnapshot(current)})
	return cloneSnapshot(top.Elements), true
}

// Redo pops the last future entry and pushes current onto the past stack.
func (h *History) Redo(current Snapshot) (Snapshot, bool) {
	if len(h.future) == 0 {
		return nil, false
	}
	top := h.future[len(h.future)-1]
	h.future = h.future[:len(h.future)-1]
	h.past = append(h.past, Entry{Label: top.Label, Elements: cloneSnapshot(current)})
	return cloneSnapshot(top.Elements), true
}

// JumpTo undoes or redoes until exactly cursor actions are applied.
// It returns the state to restore, or false when cursor is already current
// or out of range.
func (h *History) JumpTo(current Snapshot, cursor int) (Snapshot, bool) {
	if cursor < 0 || cursor > h.Len() || cursor == h.Cursor() {
		return nil, false
	}
	state := current
	for h.Cursor() > cursor {
		state, _ = h.Undo(state)
	}
	for h.Cursor() < cursor {
		state, _ = h.Redo(state)
	}
	return state, true
}

func (h *History) CanUndo() bool { return len(h.past) > 0 }
func (h *History) CanRedo() bool { return len(h.future) > 0 }

// Cursor is the number of applied actions.
func (h *History) Cursor() int { return len(h.past) }

// Len is the total number of actions, applied and undone.
func (h *History) Len() int { return len(h.past) + len(h.future) }

// Steps lists applied actions oldest first, then undone actions in redo order.
func (h *History) Steps() []Step {
	steps := make([]Step, 0, h.Len())
	for i, e := range h.past {
		steps = append(steps, Step{Index: i + 1, Label: e.Label, Applied: true})
	}
	for i := len(h.future) - 1; i >= 0; i-- {
		steps = append(steps, Step{Index: len(steps) + 1, Label: h.future[i].Label})
	}
	return steps
}

// Clear drops both stacks.
func (h *History) Clear() {
	h.past = nil
	h.future = nil
}

func cloneSnapshot(s Snapshot) Snapshot {
	return Snapshot(domain.CloneElements(s))
}
