package tui

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"
	"github.com/sahilm/fuzzy"

	"github.com/roeyazroel/issuedash/internal/githubapi"
)

// labelSource adapts a label slice to fuzzy.Source.
type labelSource []githubapi.Label

func (s labelSource) String(i int) string { return s[i].Name }
func (s labelSource) Len() int            { return len(s) }

// LabelPicker edits the label set of an issue. The filter is a
// case-insensitive regular expression; input that does not compile is
// matched fuzzily instead.
type LabelPicker struct {
	widgetBase
	styles  Styles
	spin    *spinner
	filter  *tview.InputField
	surface *surface
	machine submitMachine[map[string]bool]

	issueID string
	number  int
	labels  []githubapi.Label
	checked map[string]bool
	loading bool

	matches  []int
	fuzzy    bool
	selected int
	offset   int

	onSubmit func(issueID string, number int, labelIDs []string)
	onCreate func(name string)
	onClose  func()
}

// NewLabelPicker returns a closed picker.
func NewLabelPicker(st Styles, spin *spinner) *LabelPicker {
	filter := tview.NewInputField()
	filter.SetLabel("Filter: ")
	filter.SetLabelStyle(st.Muted)
	filter.SetFieldStyle(st.Text)
	filter.SetPlaceholder("regex or fuzzy text")
	filter.SetPlaceholderStyle(st.Muted)
	filter.SetBackgroundColor(tcell.ColorDefault)
	filter.Focus(noFocus)
	return &LabelPicker{
		styles:  st,
		spin:    spin,
		filter:  filter,
		surface: newSurface(),
		checked: make(map[string]bool),
	}
}

// Open activates the picker for an issue with its current labels checked.
func (p *LabelPicker) Open(issue githubapi.Issue) {
	p.issueID = issue.ID
	p.number = issue.Number
	p.checked = make(map[string]bool, len(issue.Labels))
	for _, l := range issue.Labels {
		p.checked[l.ID] = true
	}
	p.filter.SetText("")
	p.selected, p.offset = 0, 0
	p.loading = len(p.labels) == 0
	p.machine.Deactivate()
	p.machine.Activate()
	p.refilter()
	p.markDirty()
}

// Close deactivates the picker.
func (p *LabelPicker) Close() {
	p.machine.Deactivate()
	p.markDirty()
}

// SetLabels supplies the repository's labels.
func (p *LabelPicker) SetLabels(labels []githubapi.Label) {
	p.labels = append([]githubapi.Label(nil), labels...)
	sort.SliceStable(p.labels, func(i, j int) bool {
		return strings.ToLower(p.labels[i].Name) < strings.ToLower(p.labels[j].Name)
	})
	p.loading = false
	p.refilter()
	p.markDirty()
}

// LoadFailed shows a FetchFailed banner. The picker stays usable with
// whatever labels it already has.
func (p *LabelPicker) LoadFailed(err error) {
	p.loading = false
	p.machine.FetchFailed(fmt.Errorf("could not load labels: %w", err))
	p.markDirty()
}

// AddLabel inserts a newly created label and checks it.
func (p *LabelPicker) AddLabel(l githubapi.Label) {
	p.SetLabels(append(p.labels, l))
	p.checked[l.ID] = true
	p.filter.SetText("")
	p.refilter()
	for i, idx := range p.matches {
		if p.labels[idx].ID == l.ID {
			p.selected = i
		}
	}
	p.markDirty()
}

func (p *LabelPicker) spinning() bool { return p.loading || p.machine.Busy() }

// State returns the picker state.
func (p *LabelPicker) State() WidgetState { return p.machine.State() }

// Message returns the inline error or banner.
func (p *LabelPicker) Message() string { return p.machine.Message() }

// Matches returns the names of the labels that pass the filter, in order.
func (p *LabelPicker) Matches() []string {
	out := make([]string, len(p.matches))
	for i, idx := range p.matches {
		out[i] = p.labels[idx].Name
	}
	return out
}

// Fuzzy reports whether the filter fell back to fuzzy matching.
func (p *LabelPicker) Fuzzy() bool { return p.fuzzy }

// CheckedIDs returns the checked label IDs in display order.
func (p *LabelPicker) CheckedIDs() []string {
	var ids []string
	for _, l := range p.labels {
		if p.checked[l.ID] {
			ids = append(ids, l.ID)
		}
	}
	return ids
}

// Succeeded closes the picker after the labels were saved.
func (p *LabelPicker) Succeeded() {
	p.machine.Succeed()
	p.markDirty()
}

// Failed restores the selection that was submitted and shows err.
func (p *LabelPicker) Failed(err error) {
	prior, ok := p.machine.Fail(fmt.Errorf("failed to set labels: %w", err))
	if !ok {
		return
	}
	p.checked = prior
	p.markDirty()
}

func (p *LabelPicker) refilter() {
	pattern := strings.TrimSpace(p.filter.GetText())
	p.matches = p.matches[:0]
	p.fuzzy = false
	switch re, err := regexp.Compile("(?i)" + pattern); {
	case pattern == "":
		for i := range p.labels {
			p.matches = append(p.matches, i)
		}
	case err == nil:
		for i, l := range p.labels {
			if re.MatchString(l.Name) {
				p.matches = append(p.matches, i)
			}
		}
	default:
		p.fuzzy = true
		for _, m := range fuzzy.FindFrom(pattern, labelSource(p.labels)) {
			p.matches = append(p.matches, m.Index)
		}
	}
	if p.selected >= len(p.matches) {
		p.selected = max(len(p.matches)-1, 0)
	}
}

func (p *LabelPicker) move(delta int) {
	if len(p.matches) == 0 {
		return
	}
	p.selected = min(max(p.selected+delta, 0), len(p.matches)-1)
	p.markDirty()
}

func (p *LabelPicker) toggle() {
	if p.selected >= len(p.matches) {
		return
	}
	id := p.labels[p.matches[p.selected]].ID
	if p.checked[id] {
		delete(p.checked, id)
	} else {
		p.checked[id] = true
	}
	p.machine.Edited()
	p.markDirty()
}

func (p *LabelPicker) submit() {
	prior := make(map[string]bool, len(p.checked))
	for id := range p.checked {
		prior[id] = true
	}
	if !p.machine.Submit(prior) {
		return
	}
	p.markDirty()
	if p.onSubmit != nil {
		p.onSubmit(p.issueID, p.number, p.CheckedIDs())
	}
}

// HandleKey implements KeyHandler.
func (p *LabelPicker) HandleKey(ev *tcell.EventKey) bool {
	if p.machine.Busy() {
		return true
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		if p.onClose != nil {
			p.onClose()
		}
		return true
	case tcell.KeyUp, tcell.KeyCtrlP:
		p.move(-1)
		return true
	case tcell.KeyDown, tcell.KeyCtrlN:
		p.move(1)
		return true
	case tcell.KeyEnter:
		p.submit()
		return true
	case tcell.KeyCtrlA:
		name := strings.TrimSpace(p.filter.GetText())
		if name == "" {
			p.machine.Reject("Type the new label's name in the filter first.")
			p.markDirty()
			return true
		}
		if p.onCreate != nil {
			p.onCreate(name)
		}
		return true
	case tcell.KeyRune:
		if ev.Rune() == ' ' {
			p.toggle()
			return true
		}
	}
	if handler := p.filter.InputHandler(); handler != nil {
		handler(ev, noFocus)
	}
	p.refilter()
	p.machine.Edited()
	p.markDirty()
	return true
}

// Draw implements Painter.
func (p *LabelPicker) Draw(c *Canvas) {
	title := fmt.Sprintf("Labels for #%d", p.number)
	if p.loading {
		title += " " + p.spin.Frame()
	}
	inner := drawBox(c, title, p.styles, p.focused)
	w, h := inner.Width(), inner.Height()
	if h < 4 {
		return
	}
	p.surface.draw(p.filter, inner.Sub(Rect{W: w, H: 1}))
	if p.fuzzy {
		tag := "fuzzy"
		inner.Print(w-len(tag), 0, tag, p.styles.Warning)
	}

	list := inner.Sub(Rect{Y: 1, W: w, H: h - 3})
	rows := list.Height()
	switch {
	case p.loading && len(p.labels) == 0:
		list.Print(0, 0, "Loading labels…", p.styles.Muted)
	case len(p.matches) == 0:
		list.Print(0, 0, "No matching labels. Ctrl+A creates one.", p.styles.Muted)
	}
	if p.selected < p.offset {
		p.offset = p.selected
	}
	if rows > 0 && p.selected >= p.offset+rows {
		p.offset = p.selected - rows + 1
	}
	for i := 0; i < rows && p.offset+i < len(p.matches); i++ {
		l := p.labels[p.matches[p.offset+i]]
		base := p.styles.Text
		if p.offset+i == p.selected {
			base = p.styles.Selected
			list.FillRow(i, base)
		}
		box := "[ ] "
		if p.checked[l.ID] {
			box = "[x] "
		}
		x := list.Print(0, i, box, base)
		x = list.Print(x, i, "●", dotStyle(l.Color))
		x = list.Print(x, i, " ", base)
		list.Print(x, i, truncate(l.Name, w-x), base)
	}

	status := inner.Sub(Rect{Y: h - 2, W: w, H: 1})
	switch {
	case p.machine.Busy():
		status.Print(0, 0, p.spin.Frame()+" Saving labels…", p.styles.Warning)
	case p.machine.Message() != "":
		status.Print(0, 0, truncate(p.machine.Message(), w), p.styles.Error)
	}
	drawHints(inner.Sub(Rect{Y: h - 1, W: w, H: 1}), 0,
		[]hint{{"Space", "toggle"}, {"Enter", "save"}, {"Ctrl+A", "new"}, {"Esc", "cancel"}}, p.styles)
}
