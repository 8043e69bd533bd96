package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
	"github.com/mattn/go-runewidth"
)

// Styles is the palette shared by every widget.
type Styles struct {
	Text     tcell.Style
	Muted    tcell.Style
	Title    tcell.Style
	Border   tcell.Style
	Focused  tcell.Style
	Selected tcell.Style
	Accent   tcell.Style
	Key      tcell.Style
	Error    tcell.Style
	Success  tcell.Style
	Warning  tcell.Style
	Open     tcell.Style
	Closed   tcell.Style
	Bar      tcell.Style
}

// DefaultStyles returns the dark-terminal palette.
func DefaultStyles() Styles {
	base := tcell.StyleDefault
	return Styles{
		Text:     base,
		Muted:    base.Foreground(tcell.ColorGray),
		Title:    base.Bold(true),
		Border:   base.Foreground(tcell.ColorGray),
		Focused:  base.Foreground(tcell.NewHexColor(0x58a6ff)),
		Selected: base.Background(tcell.NewHexColor(0x264f78)).Foreground(tcell.ColorWhite),
		Accent:   base.Foreground(tcell.NewHexColor(0x58a6ff)),
		Key:      base.Foreground(tcell.ColorYellow).Bold(true),
		Error:    base.Foreground(tcell.NewHexColor(0xf85149)),
		Success:  base.Foreground(tcell.NewHexColor(0x3fb950)),
		Warning:  base.Foreground(tcell.NewHexColor(0xd29922)),
		Open:     base.Foreground(tcell.NewHexColor(0x3fb950)),
		Closed:   base.Foreground(tcell.NewHexColor(0xab7df8)),
		Bar:      base.Background(tcell.NewHexColor(0x161b22)),
	}
}

// swatchStyle returns a style with hex as background and black or white
// text, whichever reads better by CIE L*.
func swatchStyle(hex string) tcell.Style {
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return tcell.StyleDefault.Reverse(true)
	}
	r, g, b := c.RGB255()
	bg := tcell.NewRGBColor(int32(r), int32(g), int32(b))
	fg := tcell.ColorWhite
	if l, _, _ := c.Lab(); l > 0.6 {
		fg = tcell.ColorBlack
	}
	return tcell.StyleDefault.Background(bg).Foreground(fg)
}

// dotStyle colours a bullet glyph with hex.
func dotStyle(hex string) tcell.Style {
	c, err := colorful.Hex("#" + hex)
	if err != nil {
		return tcell.StyleDefault
	}
	r, g, b := c.RGB255()
	return tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b)))
}

// drawBox draws a bordered box over the whole canvas and returns the inner
// canvas.
func drawBox(c *Canvas, title string, st Styles, focused bool) *Canvas {
	w, h := c.Width(), c.Height()
	if w < 2 || h < 2 {
		return c.Sub(Rect{})
	}
	border := st.Border
	if focused {
		border = st.Focused
	}
	c.Fill(' ', st.Text)
	for x := 1; x < w-1; x++ {
		c.SetCell(x, 0, '─', border)
		c.SetCell(x, h-1, '─', border)
	}
	for y := 1; y < h-1; y++ {
		c.SetCell(0, y, '│', border)
		c.SetCell(w-1, y, '│', border)
	}
	c.SetCell(0, 0, '╭', border)
	c.SetCell(w-1, 0, '╮', border)
	c.SetCell(0, h-1, '╰', border)
	c.SetCell(w-1, h-1, '╯', border)
	if title != "" {
		c.Print(2, 0, truncate(" "+title+" ", w-4), st.Title)
	}
	return c.Sub(Rect{X: 1, Y: 1, W: w - 2, H: h - 2})
}

// truncate shortens s to at most width cells, ending with an ellipsis when
// it was cut.
func truncate(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return runewidth.Truncate(s, width, "…")
}

// hint is one key binding shown in a footer.
type hint struct {
	key, label string
}

// drawHints prints "key label" pairs on row y.
func drawHints(c *Canvas, y int, hints []hint, st Styles) {
	x := 0
	for i, h := range hints {
		if i > 0 {
			x = c.Print(x, y, "  ", st.Muted)
		}
		x = c.Print(x, y, h.key, st.Key)
		x = c.Print(x, y, " "+h.label, st.Muted)
	}
}

// centered returns a w x h rectangle centred in area, shrunk to fit.
func centered(area Rect, w, h int) Rect {
	w = min(w, area.W)
	h = min(h, area.H)
	return Rect{X: area.X + (area.W-w)/2, Y: area.Y + (area.H-h)/2, W: w, H: h}
}
