package tui

import (
	"github.com/gdamore/tcell/v2"
)

// HelpOverlay lists the command table.
type HelpOverlay struct {
	widgetBase
	styles   Styles
	commands []Command
	scroll   int
	height   int

	onClose func()
}

// NewHelpOverlay returns a help overlay for commands.
func NewHelpOverlay(st Styles, commands []Command) *HelpOverlay {
	return &HelpOverlay{styles: st, commands: commands}
}

// Open resets the scroll position.
func (h *HelpOverlay) Open() {
	h.scroll = 0
	h.markDirty()
}

// Close is called when the overlay is dismissed.
func (h *HelpOverlay) Close() { h.markDirty() }

func (h *HelpOverlay) scrollBy(delta int) {
	limit := max(len(h.commands)-h.height, 0)
	next := min(max(h.scroll+delta, 0), limit)
	if next != h.scroll {
		h.scroll = next
		h.markDirty()
	}
}

// HandleKey implements KeyHandler.
func (h *HelpOverlay) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyEscape:
		if h.onClose != nil {
			h.onClose()
		}
	case tcell.KeyDown:
		h.scrollBy(1)
	case tcell.KeyUp:
		h.scrollBy(-1)
	case tcell.KeyRune:
		switch ev.Rune() {
		case '?', 'q':
			if h.onClose != nil {
				h.onClose()
			}
		case 'j':
			h.scrollBy(1)
		case 'k':
			h.scrollBy(-1)
		}
	}
	return true
}

// Draw implements Painter.
func (h *HelpOverlay) Draw(c *Canvas) {
	inner := drawBox(c, "Keys", h.styles, h.focused)
	w := inner.Width()
	h.height = max(inner.Height()-1, 0)
	for i := 0; i < h.height && h.scroll+i < len(h.commands); i++ {
		cmd := h.commands[h.scroll+i]
		inner.Print(0, i, cmd.Shortcut(), h.styles.Key)
		inner.Print(10, i, truncate(cmd.Title, w-10), h.styles.Text)
	}
	drawHints(inner.Sub(Rect{Y: inner.Height() - 1, W: w, H: 1}), 0,
		[]hint{{"j/k", "scroll"}, {"Esc", "close"}}, h.styles)
}
