package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/roeyazroel/issuedash/internal/githubapi"
)

// IssueList is the left pane listing search results.
type IssueList struct {
	widgetBase
	styles Styles
	spin   *spinner

	issues   []githubapi.Issue
	selected int
	offset   int
	height   int

	busy   bool
	banner string

	onOpen  func(githubapi.Issue)
	onRetry func()
}

// NewIssueList returns an empty list.
func NewIssueList(st Styles, spin *spinner) *IssueList {
	return &IssueList{styles: st, spin: spin, widgetBase: widgetBase{dirty: true}}
}

// SetIssues replaces the list, keeping the selection on the same issue
// number when it is still present.
func (l *IssueList) SetIssues(issues []githubapi.Issue) {
	keep := 0
	if cur, ok := l.Selected(); ok {
		for i, is := range issues {
			if is.Number == cur.Number {
				keep = i
				break
			}
		}
	}
	l.issues = issues
	l.selected = keep
	l.offset = 0
	l.busy = false
	l.banner = ""
	l.markDirty()
}

// UpdateIssue replaces the row for issue.Number, if listed.
func (l *IssueList) UpdateIssue(issue githubapi.Issue) {
	for i := range l.issues {
		if l.issues[i].Number == issue.Number {
			l.issues[i] = issue
			l.markDirty()
			return
		}
	}
}

func (l *IssueList) spinning() bool { return l.busy }

// SetBusy toggles the loading indicator.
func (l *IssueList) SetBusy(busy bool) {
	if l.busy != busy {
		l.busy = busy
		l.markDirty()
	}
}

// SetError shows a FetchFailed banner. The old rows stay visible.
func (l *IssueList) SetError(msg string) {
	l.busy = false
	l.banner = msg
	l.markDirty()
}

// Busy reports whether a load is in flight.
func (l *IssueList) Busy() bool { return l.busy }

// Banner returns the current error banner.
func (l *IssueList) Banner() string { return l.banner }

// Issues returns the listed issues.
func (l *IssueList) Issues() []githubapi.Issue { return l.issues }

// Selected returns the highlighted issue.
func (l *IssueList) Selected() (githubapi.Issue, bool) {
	if l.selected < 0 || l.selected >= len(l.issues) {
		return githubapi.Issue{}, false
	}
	return l.issues[l.selected], true
}

// SelectedIndex returns the highlighted row.
func (l *IssueList) SelectedIndex() int { return l.selected }

// Select highlights the issue with the given number.
func (l *IssueList) Select(number int) bool {
	for i, is := range l.issues {
		if is.Number == number {
			l.selected = i
			l.markDirty()
			return true
		}
	}
	return false
}

func (l *IssueList) move(delta int) {
	if len(l.issues) == 0 {
		return
	}
	next := min(max(l.selected+delta, 0), len(l.issues)-1)
	if next != l.selected {
		l.selected = next
		l.markDirty()
	}
}

// HandleKey implements KeyHandler.
func (l *IssueList) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyDown:
		l.move(1)
		return true
	case tcell.KeyUp:
		l.move(-1)
		return true
	case tcell.KeyPgDn:
		l.move(max(l.height-1, 1))
		return true
	case tcell.KeyPgUp:
		l.move(-max(l.height-1, 1))
		return true
	case tcell.KeyHome:
		l.move(-len(l.issues))
		return true
	case tcell.KeyEnd:
		l.move(len(l.issues))
		return true
	case tcell.KeyEnter:
		if is, ok := l.Selected(); ok && l.onOpen != nil {
			l.onOpen(is)
		}
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			l.move(1)
			return true
		case 'k':
			l.move(-1)
			return true
		case 'g':
			l.move(-len(l.issues))
			return true
		case 'G':
			l.move(len(l.issues))
			return true
		}
	}
	return false
}

// Draw implements Painter.
func (l *IssueList) Draw(c *Canvas) {
	title := fmt.Sprintf("Issues (%d)", len(l.issues))
	if l.busy {
		title += " " + l.spin.Frame()
	}
	inner := drawBox(c, title, l.styles, l.focused)
	w, h := inner.Width(), inner.Height()
	row := 0
	if l.banner != "" && h > 0 {
		inner.Print(0, row, truncate("⚠ "+l.banner+" (r to retry)", w), l.styles.Error)
		row++
	}
	l.height = h - row
	if len(l.issues) == 0 {
		msg := "No issues"
		if l.busy {
			msg = "Loading issues…"
		}
		inner.Print(0, row, truncate(msg, w), l.styles.Muted)
		return
	}

	if l.selected < l.offset {
		l.offset = l.selected
	}
	if l.height > 0 && l.selected >= l.offset+l.height {
		l.offset = l.selected - l.height + 1
	}
	for i := l.offset; i < len(l.issues) && row < h; i++ {
		l.drawRow(inner.Sub(Rect{Y: row, W: w, H: 1}), l.issues[i], i == l.selected)
		row++
	}
}

func (l *IssueList) drawRow(c *Canvas, is githubapi.Issue, selected bool) {
	base := l.styles.Text
	if selected {
		base = l.styles.Selected
		c.FillRow(0, base)
	}
	state, glyph := l.styles.Open, "●"
	if !is.IsOpen() {
		state, glyph = l.styles.Closed, "✓"
	}
	if selected {
		state = state.Background(tcell.NewHexColor(0x264f78))
	}
	x := c.Print(0, 0, glyph+" ", state)
	x = c.Print(x, 0, fmt.Sprintf("#%-5d", is.Number), base.Bold(true))
	c.Print(x, 0, truncate(is.Title, c.Width()-x), base)
}
