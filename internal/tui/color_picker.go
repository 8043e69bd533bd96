package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

type hue struct {
	name   string
	key    rune
	shades [5]string
}

// hues is GitHub's label palette: eight hues, five shades each, light to dark.
var hues = [8]hue{
	{"Red", 'R', [5]string{"ffebe9", "ffcecb", "ffaba8", "ff8182", "fa4549"}},
	{"Orange", 'O', [5]string{"fff8c5", "ffec99", "f7c843", "e16f24", "bc4c00"}},
	{"Yellow", 'Y', [5]string{"fff8c5", "fae17d", "eac54f", "d4a72c", "bf8700"}},
	{"Green", 'G', [5]string{"dafbe1", "aceebb", "6fdd8b", "4ac26b", "2da44e"}},
	{"Teal", 'T', [5]string{"d2f4ea", "96e9da", "4ac9b0", "1ea7a1", "0a7f7f"}},
	{"Blue", 'B', [5]string{"ddf4ff", "b6e3ff", "80ccff", "54aeff", "0969da"}},
	{"Purple", 'P', [5]string{"fbefff", "ecd8ff", "d8b9ff", "c297ff", "a475f9"}},
	{"Gray", 'K', [5]string{"f6f8fa", "eaeef2", "d0d7de", "8c959f", "57606a"}},
}

const (
	defaultHueRow   = 7
	defaultShadeCol = 2
)

// ColorPicker chooses the colour of a new label.
type ColorPicker struct {
	widgetBase
	styles  Styles
	spin    *spinner
	machine submitMachine[string]

	row, col int
	name     string

	onSubmit func(name, hex string)
	onClose  func()
}

// NewColorPicker returns a closed picker on the default swatch.
func NewColorPicker(st Styles, spin *spinner) *ColorPicker {
	return &ColorPicker{styles: st, spin: spin, row: defaultHueRow, col: defaultShadeCol}
}

// WithInitialHex moves the selection to hex when it is in the palette.
// Leading '#' and case are ignored.
func (p *ColorPicker) WithInitialHex(hex string) *ColorPicker {
	p.row, p.col = defaultHueRow, defaultShadeCol
	want := strings.ToLower(strings.TrimPrefix(strings.TrimSpace(hex), "#"))
	for r, h := range hues {
		for c, shade := range h.shades {
			if shade == want {
				p.row, p.col = r, c
				return p
			}
		}
	}
	return p
}

// Open activates the picker for a label called name.
func (p *ColorPicker) Open(name string) {
	p.name = name
	p.machine.Deactivate()
	p.machine.Activate()
	p.markDirty()
}

// Close deactivates the picker.
func (p *ColorPicker) Close() {
	p.machine.Deactivate()
	p.markDirty()
}

// Selected returns the highlighted hex colour without '#'.
func (p *ColorPicker) Selected() string { return hues[p.row].shades[p.col] }

// Position returns the highlighted hue row and shade column.
func (p *ColorPicker) Position() (row, col int) { return p.row, p.col }

func (p *ColorPicker) spinning() bool { return p.machine.Busy() }

// State returns the picker state.
func (p *ColorPicker) State() WidgetState { return p.machine.State() }

// Message returns the inline error.
func (p *ColorPicker) Message() string { return p.machine.Message() }

// Name returns the label name being created.
func (p *ColorPicker) Name() string { return p.name }

// Succeeded closes the picker after the label was created.
func (p *ColorPicker) Succeeded() {
	p.machine.Succeed()
	p.markDirty()
}

// Failed restores the submitted colour and shows err.
func (p *ColorPicker) Failed(err error) {
	prior, ok := p.machine.Fail(fmt.Errorf("failed to create label: %w", err))
	if !ok {
		return
	}
	p.WithInitialHex(prior)
	p.markDirty()
}

func (p *ColorPicker) moveTo(row, col int) {
	row = min(max(row, 0), len(hues)-1)
	col = min(max(col, 0), len(hues[0].shades)-1)
	if row != p.row || col != p.col {
		p.row, p.col = row, col
		p.machine.Edited()
		p.markDirty()
	}
}

// HandleKey implements KeyHandler.
func (p *ColorPicker) HandleKey(ev *tcell.EventKey) bool {
	if p.machine.Busy() {
		return true
	}
	switch ev.Key() {
	case tcell.KeyEscape:
		if p.onClose != nil {
			p.onClose()
		}
	case tcell.KeyUp:
		p.moveTo(p.row-1, p.col)
	case tcell.KeyDown:
		p.moveTo(p.row+1, p.col)
	case tcell.KeyLeft:
		p.moveTo(p.row, p.col-1)
	case tcell.KeyRight:
		p.moveTo(p.row, p.col+1)
	case tcell.KeyEnter:
		hex := p.Selected()
		if p.machine.Submit(hex) {
			p.markDirty()
			if p.onSubmit != nil {
				p.onSubmit(p.name, hex)
			}
		}
	case tcell.KeyRune:
		switch r := ev.Rune(); r {
		case 'k':
			p.moveTo(p.row-1, p.col)
		case 'j':
			p.moveTo(p.row+1, p.col)
		case 'h':
			p.moveTo(p.row, p.col-1)
		case 'l':
			p.moveTo(p.row, p.col+1)
		default:
			for i, h := range hues {
				if h.key == r {
					p.moveTo(i, p.col)
				}
			}
		}
	}
	return true
}

// Draw implements Painter.
func (p *ColorPicker) Draw(c *Canvas) {
	inner := drawBox(c, fmt.Sprintf("Colour for %q", p.name), p.styles, p.focused)
	w, h := inner.Width(), inner.Height()
	for r, hu := range hues {
		if r >= h-2 {
			break
		}
		x := inner.Print(0, r, string(hu.key)+" ", p.styles.Key)
		x = inner.Print(x, r, fmt.Sprintf("%-7s", hu.name), p.styles.Muted)
		for col, shade := range hu.shades {
			cell := "    "
			if r == p.row && col == p.col {
				cell = " <> "
			}
			x = inner.Print(x, r, " ", p.styles.Text)
			x = inner.Print(x, r, cell, swatchStyle(shade))
		}
	}

	info := inner.Sub(Rect{Y: h - 2, W: w, H: 1})
	switch sel := p.Selected(); {
	case p.machine.Busy():
		info.Print(0, 0, p.spin.Frame()+" Creating label…", p.styles.Warning)
	case p.machine.Message() != "":
		info.Print(0, 0, truncate(p.machine.Message(), w), p.styles.Error)
	default:
		x := info.Print(0, 0, " "+p.name+" ", swatchStyle(sel))
		info.Print(x, 0, " #"+sel, p.styles.Text)
	}
	drawHints(inner.Sub(Rect{Y: h - 1, W: w, H: 1}), 0,
		[]hint{{"←↑↓→", "move"}, {"ROYGTBPK", "hue"}, {"Enter", "create"}, {"Esc", "back"}}, p.styles)
}
