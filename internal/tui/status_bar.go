package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// StatusBar is the bottom row: who is logged in, the repository, the issue
// count, the last message and the hints for the focused pane.
type StatusBar struct {
	widgetBase
	styles Styles
	spin   *spinner

	login   string
	repo    string
	count   int
	message string
	isError bool
	hints   []hint
	busy    bool
}

// NewStatusBar returns a status bar for repo.
func NewStatusBar(st Styles, spin *spinner, repo string) *StatusBar {
	return &StatusBar{styles: st, spin: spin, repo: repo, widgetBase: widgetBase{dirty: true}}
}

// SetLogin records the viewer's login.
func (s *StatusBar) SetLogin(login string) {
	s.login = login
	s.markDirty()
}

// SetCount records the number of listed issues.
func (s *StatusBar) SetCount(n int) {
	if s.count != n {
		s.count = n
		s.markDirty()
	}
}

// SetMessage shows an informational message.
func (s *StatusBar) SetMessage(msg string) {
	s.message, s.isError = msg, false
	s.markDirty()
}

// SetError shows err in the error colour.
func (s *StatusBar) SetError(err error) {
	s.message, s.isError = "Error: "+err.Error(), true
	s.markDirty()
}

// Message returns the current message.
func (s *StatusBar) Message() string { return s.message }

func (s *StatusBar) spinning() bool { return s.busy }

// SetBusy toggles the spinner.
func (s *StatusBar) SetBusy(busy bool) {
	if s.busy != busy {
		s.busy = busy
		s.markDirty()
	}
}

func (s *StatusBar) setHints(h []hint) {
	if fmt.Sprint(h) != fmt.Sprint(s.hints) {
		s.hints = h
		s.markDirty()
	}
}

// Draw implements Painter.
func (s *StatusBar) Draw(c *Canvas) {
	c.Fill(' ', s.styles.Bar)
	w := c.Width()
	x := 0
	if s.busy {
		x = c.Print(x, 0, s.spin.Frame()+" ", s.styles.Warning.Background(barBackground(s.styles)))
	}
	if s.login != "" {
		x = c.Print(x, 0, "Logged in as "+s.login, s.styles.Bar.Bold(true))
		x = c.Print(x, 0, " │ ", s.styles.Bar)
	}
	x = c.Print(x, 0, s.repo, s.styles.Bar)
	x = c.Print(x, 0, fmt.Sprintf(" │ %d issues", s.count), s.styles.Bar)
	if s.message != "" {
		st := s.styles.Bar
		if s.isError {
			st = s.styles.Error.Background(barBackground(s.styles))
		}
		x = c.Print(x, 0, " │ ", s.styles.Bar)
		x = c.Print(x, 0, truncate(s.message, w-x), st)
	}

	hintWidth := 0
	for i, h := range s.hints {
		if i > 0 {
			hintWidth += 2
		}
		hintWidth += runewidth.StringWidth(h.key) + 1 + runewidth.StringWidth(h.label)
	}
	if start := w - hintWidth; start > x+1 {
		drawHints(c.Sub(Rect{X: start, W: hintWidth, H: 1}), 0, s.hints, s.styles)
	}
}

func barBackground(st Styles) tcell.Color {
	_, bg, _ := st.Bar.Decompose()
	return bg
}

// HandleKey implements KeyHandler. The status bar takes no input.
func (s *StatusBar) HandleKey(*tcell.EventKey) bool { return false }
