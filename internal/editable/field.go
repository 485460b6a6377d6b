// Package editable is the in-place editing primitive: a value that renders
// static for visitors and as a control for the owner, and emits a commit
// when the control loses focus.
package editable

import "sync"

// View is what a renderer needs to draw one field.
type View struct {
	Name        string `json:"name"`
	Value       string `json:"value"`
	Interactive bool   `json:"interactive"`
	Multiline   bool   `json:"multiline,omitempty"`
	Focused     bool   `json:"focused,omitempty"`
}

// CommitFunc receives a committed value and reports the outcome of saving
// it on the returned channel. A rejected value is expected to be resynced
// into the field before the error is delivered.
type CommitFunc func(value string) <-chan error

// Field holds the external value and the transient edit buffer of one
// editable control. It does no I/O; commits go to onCommit.
type Field struct {
	Name      string
	Multiline bool

	mu       sync.Mutex
	value    string
	buffer   string
	focused  bool
	editMode bool
	onCommit CommitFunc
}

func New(name, value string, multiline bool, onCommit CommitFunc) *Field {
	return &Field{Name: name, Multiline: multiline, value: value, buffer: value, onCommit: onCommit}
}

// Value is the last value supplied from outside (or committed).
func (f *Field) Value() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// Buffer is the control's current text.
func (f *Field) Buffer() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.buffer
}

func (f *Field) Focused() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.focused
}

// SetEditMode switches variants. Leaving edit mode drops focus without
// committing.
func (f *Field) SetEditMode(on bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.editMode = on
	if !on {
		f.focused = false
		f.buffer = f.value
	}
}

// Focus starts an edit. It reports false in view mode.
func (f *Field) Focus() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.editMode {
		return false
	}
	if !f.focused {
		f.focused = true
		f.buffer = f.value
	}
	return true
}

// Input replaces the buffer. Nothing is committed.
func (f *Field) Input(text string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.focused {
		f.buffer = text
	}
}

// Blur ends the edit and commits the buffer verbatim. The channel carries
// the save outcome. Blur without focus commits nothing.
func (f *Field) Blur() (string, <-chan error, bool) {
	f.mu.Lock()
	if !f.focused {
		f.mu.Unlock()
		return "", nil, false
	}
	f.focused = false
	v := f.buffer
	f.value = v
	fn := f.onCommit
	f.mu.Unlock()

	return v, commit(fn, v), true
}

// Commit is the explicit commit signal used by list-style controls that
// have no focus cycle.
func (f *Field) Commit(value string) (<-chan error, bool) {
	f.mu.Lock()
	if !f.editMode {
		f.mu.Unlock()
		return nil, false
	}
	f.focused = false
	f.value = value
	f.buffer = value
	fn := f.onCommit
	f.mu.Unlock()

	return commit(fn, value), true
}

func commit(fn CommitFunc, v string) <-chan error {
	if fn != nil {
		if done := fn(v); done != nil {
			return done
		}
	}
	done := make(chan error)
	close(done)
	return done
}

// Resync applies an externally changed value. An in-progress edit keeps
// its buffer.
func (f *Field) Resync(value string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.value = value
	if !f.focused {
		f.buffer = value
	}
}

func (f *Field) Render() View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.render(f.editMode)
}

// RenderAs renders the variant for editMode without switching the field.
// Used when one field is shown to several viewers at once.
func (f *Field) RenderAs(editMode bool) View {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.render(editMode)
}

func (f *Field) render(editMode bool) View {
	v := View{Name: f.Name, Multiline: f.Multiline, Interactive: editMode}
	if editMode && f.editMode {
		v.Value = f.buffer
		v.Focused = f.focused
	} else {
		v.Value = f.value
	}
	return v
}
