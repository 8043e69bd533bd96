package tui

import "fmt"

// WidgetState is the lifecycle state of an interactive widget.
type WidgetState int

const (
	// StateInactive means the widget is closed.
	StateInactive WidgetState = iota
	// StateActive means the widget is open and editable.
	StateActive
	// StateSubmitting means a mutation is in flight.
	StateSubmitting
	// StateError means the data the widget needs failed to load. The widget
	// stays usable and shows a banner until the next edit or retry.
	StateError
)

// String returns the state name.
func (s WidgetState) String() string {
	switch s {
	case StateInactive:
		return "inactive"
	case StateActive:
		return "active"
	case StateSubmitting:
		return "submitting"
	case StateError:
		return "error"
	default:
		return fmt.Sprintf("state(%d)", int(s))
	}
}

// submitMachine tracks a widget's submit cycle. prior holds the value the
// widget had when it was submitted so a failure can put it back.
type submitMachine[T any] struct {
	state   WidgetState
	prior   T
	message string
}

func (m *submitMachine[T]) State() WidgetState { return m.state }

// Message is the inline error or banner text, if any.
func (m *submitMachine[T]) Message() string { return m.message }

func (m *submitMachine[T]) Busy() bool { return m.state == StateSubmitting }

// Activate opens the widget. It is a no-op unless the widget is inactive.
func (m *submitMachine[T]) Activate() bool {
	if m.state != StateInactive {
		return false
	}
	m.state = StateActive
	m.message = ""
	return true
}

// Submit records prior and enters Submitting. A second submit while one is
// in flight is rejected.
func (m *submitMachine[T]) Submit(prior T) bool {
	if m.state != StateActive && m.state != StateError {
		return false
	}
	m.state = StateSubmitting
	m.prior = prior
	m.message = ""
	return true
}

// Succeed closes the widget after a successful mutation.
func (m *submitMachine[T]) Succeed() bool {
	if m.state != StateSubmitting {
		return false
	}
	var zero T
	m.state = StateInactive
	m.prior = zero
	m.message = ""
	return true
}

// Fail returns the widget to Active and hands back the value to restore.
func (m *submitMachine[T]) Fail(err error) (T, bool) {
	if m.state != StateSubmitting {
		var zero T
		return zero, false
	}
	m.state = StateActive
	m.message = err.Error()
	return m.prior, true
}

// Reject shows msg without leaving Active, for input refused before any
// request is made.
func (m *submitMachine[T]) Reject(msg string) {
	if m.state == StateActive || m.state == StateError {
		m.message = msg
	}
}

// FetchFailed enters Error with a banner. Submits are still accepted.
func (m *submitMachine[T]) FetchFailed(err error) {
	if m.state == StateInactive {
		return
	}
	m.state = StateError
	m.message = err.Error()
}

// Edited clears the inline message. Error goes back to Active.
func (m *submitMachine[T]) Edited() {
	if m.state == StateSubmitting {
		return
	}
	if m.state == StateError {
		m.state = StateActive
	}
	m.message = ""
}

// Deactivate closes the widget whatever its state.
func (m *submitMachine[T]) Deactivate() {
	var zero T
	m.state = StateInactive
	m.prior = zero
	m.message = ""
}

// Widget is an interactive region: it paints, handles keys and tracks
// whether it needs repainting.
type Widget interface {
	Painter
	KeyHandler
	IsDirty() bool
	base() *widgetBase
}

// widgetBase carries the dirty and focused flags every widget shares.
type widgetBase struct {
	dirty   bool
	focused bool
}

func (b *widgetBase) base() *widgetBase { return b }

// IsDirty reports whether the widget changed since it was last synced.
func (b *widgetBase) IsDirty() bool { return b.dirty }

// Focused reports whether the widget holds focus.
func (b *widgetBase) Focused() bool { return b.focused }

func (b *widgetBase) markDirty() { b.dirty = true }

func (b *widgetBase) setFocused(f bool) {
	if b.focused != f {
		b.focused = f
		b.dirty = true
	}
}
