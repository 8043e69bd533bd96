package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
)

// SearchState filters results by issue state.
type SearchState int

const (
	SearchOpen SearchState = iota
	SearchClosed
	SearchAll
)

func (s SearchState) String() string {
	switch s {
	case SearchOpen:
		return "Open"
	case SearchClosed:
		return "Closed"
	default:
		return "All"
	}
}

type searchField int

const (
	fieldText searchField = iota
	fieldLabels
	fieldState
	searchFieldCount
)

// SearchBar edits the issue search: free text, a ';' separated label list
// and a state filter.
type SearchBar struct {
	widgetBase
	styles  Styles
	spin    *spinner
	text    *tview.InputField
	labels  *tview.InputField
	textSf  *surface
	labelSf *surface
	machine submitMachine[string]

	state SearchState
	field searchField
	repo  string
	last  string

	onSearch func(query string)
	onClose  func()
}

func newSearchInput(label, placeholder string, st Styles) *tview.InputField {
	in := tview.NewInputField()
	in.SetLabel(label)
	in.SetLabelStyle(st.Muted)
	in.SetFieldStyle(st.Text)
	in.SetPlaceholder(placeholder)
	in.SetPlaceholderStyle(st.Muted)
	in.SetBackgroundColor(tcell.ColorDefault)
	in.Focus(noFocus)
	return in
}

// NewSearchBar returns a closed search bar for repo ("owner/name").
func NewSearchBar(st Styles, spin *spinner, repo string) *SearchBar {
	b := &SearchBar{
		styles:  st,
		spin:    spin,
		text:    newSearchInput("Search: ", "words in title or body", st),
		labels:  newSearchInput("Labels: ", "bug;help wanted", st),
		textSf:  newSurface(),
		labelSf: newSurface(),
		repo:    repo,
	}
	b.last = b.Query()
	return b
}

// Open activates the bar with the previous search filled in.
func (b *SearchBar) Open() {
	b.field = fieldText
	b.machine.Deactivate()
	b.machine.Activate()
	b.markDirty()
}

// Close deactivates the bar.
func (b *SearchBar) Close() {
	b.machine.Deactivate()
	b.markDirty()
}

func (b *SearchBar) spinning() bool { return b.machine.Busy() }

// State returns the bar state.
func (b *SearchBar) State() WidgetState { return b.machine.State() }

// Message returns the inline error.
func (b *SearchBar) Message() string { return b.machine.Message() }

// Filter returns the state filter.
func (b *SearchBar) Filter() SearchState { return b.state }

// SetText sets the free-text field.
func (b *SearchBar) SetText(s string) { b.text.SetText(s) }

// SetLabels sets the label list field.
func (b *SearchBar) SetLabels(s string) { b.labels.SetText(s) }

// SetFilter sets the state filter.
func (b *SearchBar) SetFilter(s SearchState) { b.state = s }

// LastQuery returns the query of the last accepted search, or the default
// query before any search.
func (b *SearchBar) LastQuery() string { return b.last }

// Query builds the GitHub search query from the fields.
func (b *SearchBar) Query() string {
	var terms []string
	if t := strings.TrimSpace(b.text.GetText()); t != "" {
		terms = append(terms, t)
	}
	for _, l := range strings.Split(b.labels.GetText(), ";") {
		l = strings.TrimSpace(l)
		if l == "" {
			continue
		}
		if strings.ContainsAny(l, " \t") {
			l = `"` + l + `"`
		}
		terms = append(terms, "label:"+l)
	}
	switch b.state {
	case SearchOpen:
		terms = append(terms, "is:open")
	case SearchClosed:
		terms = append(terms, "is:closed")
	}
	terms = append(terms, "repo:"+b.repo, "is:issue")
	return strings.Join(terms, " ")
}

// Succeeded closes the bar once results arrived.
func (b *SearchBar) Succeeded() {
	if b.machine.Succeed() {
		b.last = b.Query()
	}
	b.markDirty()
}

// Failed keeps the bar open with err.
func (b *SearchBar) Failed(err error) {
	if _, ok := b.machine.Fail(fmt.Errorf("search failed: %w", err)); ok {
		b.markDirty()
	}
}

func (b *SearchBar) input() *tview.InputField {
	if b.field == fieldLabels {
		return b.labels
	}
	return b.text
}

// HandleKey implements KeyHandler.
func (b *SearchBar) HandleKey(ev *tcell.EventKey) bool {
	if b.machine.Busy() {
		return true
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		if b.onClose != nil {
			b.onClose()
		}
		return true
	case tcell.KeyTab, tcell.KeyDown:
		b.field = (b.field + 1) % searchFieldCount
		b.markDirty()
		return true
	case tcell.KeyBacktab, tcell.KeyUp:
		b.field = (b.field + searchFieldCount - 1) % searchFieldCount
		b.markDirty()
		return true
	case tcell.KeyEnter:
		q := b.Query()
		if b.machine.Submit(q) {
			b.markDirty()
			if b.onSearch != nil {
				b.onSearch(q)
			}
		}
		return true
	}
	if b.field == fieldState {
		switch {
		case ev.Key() == tcell.KeyLeft, ev.Key() == tcell.KeyRune && ev.Rune() == 'h':
			b.state = (b.state + 2) % 3
		case ev.Key() == tcell.KeyRight, ev.Key() == tcell.KeyRune && ev.Rune() == 'l',
			ev.Key() == tcell.KeyRune && ev.Rune() == ' ':
			b.state = (b.state + 1) % 3
		default:
			return true
		}
		b.machine.Edited()
		b.markDirty()
		return true
	}
	if handler := b.input().InputHandler(); handler != nil {
		handler(ev, noFocus)
	}
	b.machine.Edited()
	b.markDirty()
	return true
}

// Draw implements Painter.
func (b *SearchBar) Draw(c *Canvas) {
	inner := drawBox(c, "Search "+b.repo, b.styles, b.focused)
	w, h := inner.Width(), inner.Height()
	if h < 5 {
		return
	}
	b.drawInput(inner.Sub(Rect{W: w, H: 1}), fieldText, b.text, b.textSf, "Search: ")
	b.drawInput(inner.Sub(Rect{Y: 1, W: w, H: 1}), fieldLabels, b.labels, b.labelSf, "Labels: ")

	x := inner.Print(0, 2, "State:  ", b.styles.Muted)
	for _, s := range []SearchState{SearchOpen, SearchClosed, SearchAll} {
		st := b.styles.Text
		if s == b.state {
			st = b.styles.Accent.Bold(true)
			if b.field == fieldState {
				st = b.styles.Selected
			}
		}
		x = inner.Print(x, 2, " "+s.String()+" ", st)
	}

	status := inner.Sub(Rect{Y: h - 2, W: w, H: 1})
	switch {
	case b.machine.Busy():
		status.Print(0, 0, b.spin.Frame()+" Searching…", b.styles.Warning)
	case b.machine.Message() != "":
		status.Print(0, 0, truncate(b.machine.Message(), w), b.styles.Error)
	default:
		status.Print(0, 0, truncate(b.Query(), w), b.styles.Muted)
	}
	drawHints(inner.Sub(Rect{Y: h - 1, W: w, H: 1}), 0,
		[]hint{{"Tab", "field"}, {"←/→", "state"}, {"Enter", "search"}, {"Esc", "cancel"}}, b.styles)
}

// drawInput draws the focused field through its tview input and the others
// as plain text, so only one cursor is shown.
func (b *SearchBar) drawInput(c *Canvas, f searchField, in *tview.InputField, sf *surface, label string) {
	if b.field == f {
		sf.draw(in, c)
		return
	}
	x := c.Print(0, 0, label, b.styles.Muted)
	c.Print(x, 0, truncate(in.GetText(), c.Width()-x), b.styles.Text)
}
