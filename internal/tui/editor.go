package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/roeyazroel/issuedash/internal/markdown"
)

// CommentEditor is the overlay for writing a comment. The text model is a
// tview TextArea; drafts are kept per issue until posted.
type CommentEditor struct {
	widgetBase
	styles  Styles
	spin    *spinner
	cache   *markdown.Cache
	area    *tview.TextArea
	surface *surface
	machine submitMachine[string]

	number  int
	issueID string
	drafts  map[int]string

	preview        bool
	previewEnabled bool

	onSubmit func(issueID string, number int, body string)
	onClose  func()
}

// NewCommentEditor returns a closed editor.
func NewCommentEditor(st Styles, spin *spinner, cache *markdown.Cache, previewEnabled bool) *CommentEditor {
	area := tview.NewTextArea()
	area.SetBorder(false)
	area.SetBackgroundColor(tcell.ColorDefault)
	area.SetTextStyle(st.Text)
	area.SetPlaceholder("Write a comment (markdown)…")
	area.SetPlaceholderStyle(st.Muted)
	area.SetWrap(true)
	area.Focus(noFocus)
	return &CommentEditor{
		styles:         st,
		spin:           spin,
		cache:          cache,
		area:           area,
		surface:        newSurface(),
		drafts:         make(map[int]string),
		previewEnabled: previewEnabled,
	}
}

// Open activates the editor for an issue, restoring any saved draft.
func (e *CommentEditor) Open(issueID string, number int) {
	if e.number != number {
		if e.number != 0 {
			e.drafts[e.number] = e.area.GetText()
		}
		e.area.SetText(e.drafts[number], true)
	}
	e.number = number
	e.issueID = issueID
	e.preview = false
	e.machine.Activate()
	e.markDirty()
}

// Close leaves the editor. The draft is kept.
func (e *CommentEditor) Close() {
	if e.machine.Busy() {
		return
	}
	e.drafts[e.number] = e.area.GetText()
	e.machine.Deactivate()
	e.markDirty()
}

func (e *CommentEditor) spinning() bool { return e.machine.Busy() }

// State returns the editor state.
func (e *CommentEditor) State() WidgetState { return e.machine.State() }

// Message returns the inline error, if any.
func (e *CommentEditor) Message() string { return e.machine.Message() }

// Draft returns the current text.
func (e *CommentEditor) Draft() string { return e.area.GetText() }

// Number returns the issue the editor is bound to.
func (e *CommentEditor) Number() int { return e.number }

// Succeeded clears the draft after the comment was posted.
func (e *CommentEditor) Succeeded() {
	if !e.machine.Succeed() {
		return
	}
	e.area.SetText("", false)
	delete(e.drafts, e.number)
	e.preview = false
	e.markDirty()
}

// Failed puts the submitted draft back and shows err.
func (e *CommentEditor) Failed(err error) {
	prior, ok := e.machine.Fail(fmt.Errorf("failed to post comment: %w", err))
	if !ok {
		return
	}
	e.area.SetText(prior, true)
	e.markDirty()
}

func (e *CommentEditor) submit() {
	body := e.area.GetText()
	if strings.TrimSpace(body) == "" {
		e.machine.Reject("Comment cannot be empty.")
		e.markDirty()
		return
	}
	if !e.machine.Submit(body) {
		return
	}
	e.markDirty()
	if e.onSubmit != nil {
		e.onSubmit(e.issueID, e.number, body)
	}
}

// HandleKey implements KeyHandler. The editor captures input, so every key
// lands here and unbound keys go to the text area.
func (e *CommentEditor) HandleKey(ev *tcell.EventKey) bool {
	if e.machine.Busy() {
		return true
	}
	switch {
	case ev.Key() == tcell.KeyEscape:
		if e.preview {
			e.preview = false
			e.markDirty()
			return true
		}
		if e.onClose != nil {
			e.onClose()
		}
		return true
	case ev.Key() == tcell.KeyCtrlS,
		ev.Key() == tcell.KeyEnter && ev.Modifiers()&tcell.ModCtrl != 0:
		e.submit()
		return true
	case ev.Key() == tcell.KeyCtrlP:
		if e.previewEnabled {
			e.preview = !e.preview
			e.markDirty()
		}
		return true
	}
	if e.preview {
		e.preview = false
	}
	if handler := e.area.InputHandler(); handler != nil {
		handler(ev, noFocus)
	}
	e.machine.Edited()
	e.markDirty()
	return true
}

// Draw implements Painter.
func (e *CommentEditor) Draw(c *Canvas) {
	title := fmt.Sprintf("Comment on #%d", e.number)
	if e.preview {
		title += " (preview)"
	}
	inner := drawBox(c, title, e.styles, true)
	w, h := inner.Width(), inner.Height()
	if h < 3 {
		return
	}

	body := inner.Sub(Rect{W: w, H: h - 2})
	if e.preview {
		src := e.area.GetText()
		if strings.TrimSpace(src) == "" {
			body.Print(0, 0, "Nothing to preview.", e.styles.Muted)
		}
		for i, l := range e.cache.Lines(src, w) {
			if i >= body.Height() {
				break
			}
			body.PrintSpans(0, i, l.Spans)
		}
	} else {
		e.surface.draw(e.area, body)
	}

	status := inner.Sub(Rect{Y: h - 2, W: w, H: 1})
	switch {
	case e.machine.Busy():
		status.Print(0, 0, e.spin.Frame()+" Posting comment…", e.styles.Warning)
	case e.machine.Message() != "":
		status.Print(0, 0, truncate(e.machine.Message(), w), e.styles.Error)
	}

	hints := []hint{{"Ctrl+S", "post"}, {"Esc", "close"}}
	if e.previewEnabled {
		hints = []hint{{"Ctrl+S", "post"}, {"Ctrl+P", "preview"}, {"Esc", "close"}}
	}
	drawHints(inner.Sub(Rect{Y: h - 1, W: w, H: 1}), 0, hints, e.styles)
}
