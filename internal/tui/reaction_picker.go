package tui

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/roeyazroel/issuedash/internal/githubapi"
)

// ReactionPicker toggles the viewer's reaction on an issue or comment.
// Counts update optimistically and are put back if the mutation fails.
type ReactionPicker struct {
	widgetBase
	styles  Styles
	spin    *spinner
	machine submitMachine[githubapi.Reactions]

	subjectID string
	label     string
	reactions githubapi.Reactions
	index     int

	onToggle func(subjectID string, kind githubapi.ReactionKind, add bool)
	onClose  func()
}

// NewReactionPicker returns a closed picker.
func NewReactionPicker(st Styles, spin *spinner) *ReactionPicker {
	return &ReactionPicker{styles: st, spin: spin}
}

// Open activates the picker for subjectID.
func (p *ReactionPicker) Open(subjectID, label string, current githubapi.Reactions) {
	p.subjectID = subjectID
	p.label = label
	p.reactions = copyReactions(current)
	p.machine.Deactivate()
	p.machine.Activate()
	p.markDirty()
}

// Close deactivates the picker.
func (p *ReactionPicker) Close() {
	p.machine.Deactivate()
	p.markDirty()
}

func (p *ReactionPicker) spinning() bool { return p.machine.Busy() }

// State returns the picker state.
func (p *ReactionPicker) State() WidgetState { return p.machine.State() }

// Message returns the inline error.
func (p *ReactionPicker) Message() string { return p.machine.Message() }

// Selected returns the highlighted reaction.
func (p *ReactionPicker) Selected() githubapi.ReactionKind { return githubapi.ReactionKinds[p.index] }

// Reactions returns the counts as currently displayed.
func (p *ReactionPicker) Reactions() githubapi.Reactions { return p.reactions }

// Succeeded closes the picker.
func (p *ReactionPicker) Succeeded() {
	p.machine.Succeed()
	p.markDirty()
}

// Failed puts the counts back and shows err.
func (p *ReactionPicker) Failed(err error) {
	prior, ok := p.machine.Fail(fmt.Errorf("failed to update reaction: %w", err))
	if !ok {
		return
	}
	p.reactions = prior
	p.markDirty()
}

func copyReactions(r githubapi.Reactions) githubapi.Reactions {
	out := make(githubapi.Reactions, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func (p *ReactionPicker) toggle() {
	kind := p.Selected()
	cur := p.reactions[kind]
	add := !cur.ViewerReacted
	if !p.machine.Submit(copyReactions(p.reactions)) {
		return
	}
	if add {
		cur.Count++
	} else {
		cur.Count = max(cur.Count-1, 0)
	}
	cur.ViewerReacted = add
	if cur.Count == 0 && !add {
		delete(p.reactions, kind)
	} else {
		p.reactions[kind] = cur
	}
	p.markDirty()
	if p.onToggle != nil {
		p.onToggle(p.subjectID, kind, add)
	}
}

// HandleKey implements KeyHandler.
func (p *ReactionPicker) HandleKey(ev *tcell.EventKey) bool {
	if p.machine.Busy() {
		return true
	}
	n := len(githubapi.ReactionKinds)
	switch ev.Key() {
	case tcell.KeyEscape:
		if p.onClose != nil {
			p.onClose()
		}
	case tcell.KeyLeft:
		p.index = (p.index + n - 1) % n
		p.markDirty()
	case tcell.KeyRight:
		p.index = (p.index + 1) % n
		p.markDirty()
	case tcell.KeyEnter:
		p.toggle()
	case tcell.KeyRune:
		switch r := ev.Rune(); {
		case r == 'h':
			p.index = (p.index + n - 1) % n
			p.markDirty()
		case r == 'l':
			p.index = (p.index + 1) % n
			p.markDirty()
		case r >= '1' && r <= '8':
			p.index = int(r - '1')
			p.toggle()
		}
	}
	return true
}

// Draw implements Painter.
func (p *ReactionPicker) Draw(c *Canvas) {
	inner := drawBox(c, "React to "+p.label, p.styles, p.focused)
	w, h := inner.Width(), inner.Height()
	if h < 3 {
		return
	}
	x := 0
	for i, kind := range githubapi.ReactionKinds {
		rx := p.reactions[kind]
		st := p.styles.Text
		if rx.ViewerReacted {
			st = p.styles.Accent
		}
		if i == p.index {
			st = p.styles.Selected
		}
		cell := fmt.Sprintf("%d %s %d", i+1, kind.Emoji(), rx.Count)
		x = inner.Print(x, 0, cell, st)
		x = inner.Print(x, 0, "  ", p.styles.Text)
	}
	status := inner.Sub(Rect{Y: h - 2, W: w, H: 1})
	switch {
	case p.machine.Busy():
		status.Print(0, 0, p.spin.Frame()+" Saving…", p.styles.Warning)
	case p.machine.Message() != "":
		status.Print(0, 0, truncate(p.machine.Message(), w), p.styles.Error)
	}
	drawHints(inner.Sub(Rect{Y: h - 1, W: w, H: 1}), 0,
		[]hint{{"←/→", "choose"}, {"1-8", "react"}, {"Enter", "toggle"}, {"Esc", "close"}}, p.styles)
}
