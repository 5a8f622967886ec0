package editor

import "strings"

// KeyEvent is a keyboard event from the host page. Target is the tag or
// role of the focused element ("input", "textarea", "contenteditable", ...).
type KeyEvent struct {
	Key    string `json:"key"`
	Ctrl   bool   `json:"ctrl"`
	Meta   bool   `json:"meta"`
	Shift  bool   `json:"shift"`
	Alt    bool   `json:"alt"`
	Target string `json:"target"`
}

// Action names the editor command a shortcut triggered.
type Action string

const (
	ActionNone      Action = ""
	ActionUndo      Action = "undo"
	ActionRedo      Action = "redo"
	ActionDelete    Action = "delete"
	ActionDuplicate Action = "duplicate"
	ActionFront     Action = "bring-to-front"
	ActionBack      Action = "send-to-back"
	ActionDeselect  Action = "deselect"
	ActionTool      Action = "tool"
)

var textTargets = map[string]bool{
	"input":           true,
	"textarea":        true,
	"select":          true,
	"contenteditable": true,
}

// InTextInput reports whether the event was typed into a text field.
func (e KeyEvent) InTextInput() bool {
	return textTargets[strings.ToLower(strings.TrimSpace(e.Target))]
}

var toolKeys = map[string]Mode{
	"v": ModeSelect,
	"t": ModeText,
	"i": ModeImage,
	"s": ModeShape,
	"h": ModePan,
}

// Dispatch runs the command bound to ev against s. Events typed into a text
// field are never handled. It returns the action that ran, or ActionNone.
func Dispatch(s *Session, ev KeyEvent) Action {
	if ev.InTextInput() || ev.Alt {
		return ActionNone
	}
	key := strings.ToLower(ev.Key)
	mod := ev.Ctrl || ev.Meta

	switch {
	case mod && key == "z" && ev.Shift, mod && key == "y":
		s.Redo()
		return ActionRedo
	case mod && key == "z":
		s.Undo()
		return ActionUndo
	case mod && key == "d":
		if id := s.SelectedID(); id != "" {
			if dup, err := s.DuplicateElement(id); err == nil {
				_ = s.Select(dup.ID)
			}
		}
		return ActionDuplicate
	case mod:
		return ActionNone
	}

	switch key {
	case "delete", "backspace":
		if id := s.SelectedID(); id != "" {
			_ = s.RemoveElement(id)
		}
		return ActionDelete
	case "escape":
		_ = s.Select("")
		return ActionDeselect
	case "]":
		if id := s.SelectedID(); id != "" {
			_ = s.BringToFront(id)
		}
		return ActionFront
	case "[":
		if id := s.SelectedID(); id != "" {
			_ = s.SendToBack(id)
		}
		return ActionBack
	}

	if mode, ok := toolKeys[key]; ok && !ev.Shift {
		_ = s.SetMode(mode)
		return ActionTool
	}
	return ActionNone
}
