package tui

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/gdamore/tcell/v2"

	"github.com/roeyazroel/issuedash/internal/githubapi"
)

const maxIssueDigits = 9

// NumberNav is the "#" overlay that jumps to an issue by number.
type NumberNav struct {
	widgetBase
	styles  Styles
	spin    *spinner
	machine submitMachine[string]
	digits  []rune

	onSubmit func(number int)
	onClose  func()
}

// NewNumberNav returns a closed overlay.
func NewNumberNav(st Styles, spin *spinner) *NumberNav {
	return &NumberNav{styles: st, spin: spin}
}

// Open activates the overlay with no digits.
func (n *NumberNav) Open() {
	n.digits = n.digits[:0]
	n.machine.Deactivate()
	n.machine.Activate()
	n.markDirty()
}

// Close deactivates the overlay.
func (n *NumberNav) Close() {
	n.machine.Deactivate()
	n.markDirty()
}

func (n *NumberNav) spinning() bool { return n.machine.Busy() }

// State returns the overlay state.
func (n *NumberNav) State() WidgetState { return n.machine.State() }

// Message returns the inline error.
func (n *NumberNav) Message() string { return n.machine.Message() }

// Input returns the digits typed so far.
func (n *NumberNav) Input() string { return string(n.digits) }

// Succeeded closes the overlay once the issue loaded.
func (n *NumberNav) Succeeded() {
	n.machine.Succeed()
	n.markDirty()
}

// Failed keeps the typed number and reports why it could not be opened.
func (n *NumberNav) Failed(number int, err error) {
	msg := fmt.Errorf("failed to load issue #%d: %w", number, err)
	if errors.Is(err, githubapi.ErrNotFound) {
		msg = fmt.Errorf("issue #%d not found", number)
	}
	prior, ok := n.machine.Fail(msg)
	if !ok {
		return
	}
	n.digits = []rune(prior)
	n.markDirty()
}

// HandleKey implements KeyHandler.
func (n *NumberNav) HandleKey(ev *tcell.EventKey) bool {
	if n.machine.Busy() {
		if ev.Key() == tcell.KeyEscape && n.onClose != nil {
			n.onClose()
		}
		return true
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		if n.onClose != nil {
			n.onClose()
		}
	case tcell.KeyBackspace, tcell.KeyBackspace2:
		if len(n.digits) > 0 {
			n.digits = n.digits[:len(n.digits)-1]
			n.machine.Edited()
			n.markDirty()
		}
	case tcell.KeyEnter:
		num, err := strconv.Atoi(string(n.digits))
		if err != nil || num <= 0 {
			n.machine.Reject("Type an issue number.")
			n.markDirty()
			return true
		}
		if n.machine.Submit(string(n.digits)) {
			n.markDirty()
			if n.onSubmit != nil {
				n.onSubmit(num)
			}
		}
	case tcell.KeyRune:
		r := ev.Rune()
		if r >= '0' && r <= '9' && len(n.digits) < maxIssueDigits {
			if r == '0' && len(n.digits) == 0 {
				return true
			}
			n.digits = append(n.digits, r)
			n.machine.Edited()
			n.markDirty()
		}
	}
	return true
}

// Draw implements Painter.
func (n *NumberNav) Draw(c *Canvas) {
	inner := drawBox(c, "Go to issue", n.styles, n.focused)
	w, h := inner.Width(), inner.Height()
	if h < 1 {
		return
	}
	x := inner.Print(0, 0, "#", n.styles.Key)
	x = inner.Print(x, 0, string(n.digits), n.styles.Text)
	if !n.machine.Busy() {
		inner.ShowCursor(x, 0)
	}
	if h < 2 {
		return
	}
	switch {
	case n.machine.Busy():
		inner.Print(0, 1, n.spin.Frame()+" Loading…", n.styles.Warning)
	case n.machine.Message() != "":
		inner.Print(0, 1, truncate(n.machine.Message(), w), n.styles.Error)
	default:
		drawHints(inner.Sub(Rect{Y: 1, W: w, H: 1}), 0, []hint{{"Enter", "open"}, {"Esc", "cancel"}}, n.styles)
	}
}
