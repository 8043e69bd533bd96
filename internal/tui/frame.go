package tui

import (
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/roeyazroel/issuedash/internal/markdown"
)

// Cell is one terminal cell. The cell after a double-width rune has Rune 0.
type Cell struct {
	Rune  rune
	Style tcell.Style
}

var blankCell = Cell{Rune: ' ', Style: tcell.StyleDefault}

// Rect is a screen rectangle.
type Rect struct {
	X, Y, W, H int
}

// Empty reports whether r covers no cells.
func (r Rect) Empty() bool { return r.W <= 0 || r.H <= 0 }

// Intersect returns the overlap of r and o.
func (r Rect) Intersect(o Rect) Rect {
	x0, y0 := max(r.X, o.X), max(r.Y, o.Y)
	x1, y1 := min(r.X+r.W, o.X+o.W), min(r.Y+r.H, o.Y+o.H)
	if x1 <= x0 || y1 <= y0 {
		return Rect{}
	}
	return Rect{X: x0, Y: y0, W: x1 - x0, H: y1 - y0}
}

// Overlaps reports whether r and o share at least one cell.
func (r Rect) Overlaps(o Rect) bool { return !r.Intersect(o).Empty() }

// Frame is a full grid of styled cells plus the cursor position.
type Frame struct {
	Width, Height int

	cells       []Cell
	cursorX     int
	cursorY     int
	cursorOwner NodeID
}

// NewFrame returns a blank frame.
func NewFrame(width, height int) *Frame {
	width, height = max(width, 0), max(height, 0)
	f := &Frame{Width: width, Height: height, cells: make([]Cell, width*height)}
	for i := range f.cells {
		f.cells[i] = blankCell
	}
	return f
}

// Clone returns a deep copy of f.
func (f *Frame) Clone() *Frame {
	c := *f
	c.cells = append([]Cell(nil), f.cells...)
	return &c
}

// Cell returns the cell at x, y. Out-of-range positions read as blank.
func (f *Frame) Cell(x, y int) Cell {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return blankCell
	}
	return f.cells[y*f.Width+x]
}

// Cursor returns the cursor position and whether any region shows it.
func (f *Frame) Cursor() (x, y int, ok bool) {
	return f.cursorX, f.cursorY, f.cursorOwner != ""
}

// Line returns row y as text, without continuation cells.
func (f *Frame) Line(y int) string {
	var b strings.Builder
	for x := 0; x < f.Width; x++ {
		if c := f.Cell(x, y); c.Rune != 0 {
			b.WriteRune(c.Rune)
		}
	}
	return b.String()
}

// String returns every row joined with newlines, right-trimmed.
func (f *Frame) String() string {
	rows := make([]string, f.Height)
	for y := range rows {
		rows[y] = strings.TrimRight(f.Line(y), " ")
	}
	return strings.Join(rows, "\n")
}

func (f *Frame) bounds() Rect { return Rect{W: f.Width, H: f.Height} }

func (f *Frame) set(x, y int, c Cell) {
	if x < 0 || y < 0 || x >= f.Width || y >= f.Height {
		return
	}
	i := y*f.Width + x
	// Never leave half of a wide rune behind.
	if old := f.cells[i]; old.Rune == 0 && x > 0 {
		f.cells[i-1] = Cell{Rune: ' ', Style: f.cells[i-1].Style}
	} else if old.Rune != 0 && runewidth.RuneWidth(old.Rune) == 2 && x+1 < f.Width {
		f.cells[i+1] = Cell{Rune: ' ', Style: old.Style}
	}
	f.cells[i] = c
}

func (f *Frame) clear(r Rect) {
	r = r.Intersect(f.bounds())
	for y := r.Y; y < r.Y+r.H; y++ {
		for x := r.X; x < r.X+r.W; x++ {
			f.set(x, y, blankCell)
		}
	}
}

func (f *Frame) hideCursor(owner NodeID) {
	if f.cursorOwner == owner {
		f.cursorOwner = ""
	}
}

// Canvas is a window onto a Frame, clipped to one region. Coordinates are
// relative to the region's top-left corner.
type Canvas struct {
	frame  *Frame
	bounds Rect
	owner  NodeID
}

// NewCanvas returns a canvas over the whole of f.
func NewCanvas(f *Frame) *Canvas {
	return &Canvas{frame: f, bounds: f.bounds()}
}

// Width returns the canvas width in cells.
func (c *Canvas) Width() int { return c.bounds.W }

// Height returns the canvas height in cells.
func (c *Canvas) Height() int { return c.bounds.H }

// Sub returns a canvas over r, given in c's coordinates and clipped to c.
func (c *Canvas) Sub(r Rect) *Canvas {
	abs := Rect{X: c.bounds.X + r.X, Y: c.bounds.Y + r.Y, W: r.W, H: r.H}.Intersect(c.bounds)
	return &Canvas{frame: c.frame, bounds: abs, owner: c.owner}
}

// SetCell writes one rune. Double-width runes that do not fit are replaced
// by a space.
func (c *Canvas) SetCell(x, y int, r rune, st tcell.Style) int {
	if x < 0 || y < 0 || x >= c.bounds.W || y >= c.bounds.H {
		return 0
	}
	w := runewidth.RuneWidth(r)
	switch {
	case w == 0:
		return 0
	case w == 2 && x+1 >= c.bounds.W:
		c.frame.set(c.bounds.X+x, c.bounds.Y+y, Cell{Rune: ' ', Style: st})
		return 1
	}
	c.frame.set(c.bounds.X+x, c.bounds.Y+y, Cell{Rune: r, Style: st})
	if w == 2 {
		c.frame.set(c.bounds.X+x+1, c.bounds.Y+y, Cell{Rune: 0, Style: st})
	}
	return w
}

// Print writes s at x, y and returns the column after the last cell written.
func (c *Canvas) Print(x, y int, s string, st tcell.Style) int {
	for _, r := range s {
		if x >= c.bounds.W {
			break
		}
		if r == '\t' {
			r = ' '
		}
		x += c.SetCell(x, y, r, st)
	}
	return x
}

// PrintSpans writes styled spans in order starting at x, y.
func (c *Canvas) PrintSpans(x, y int, spans []markdown.Span) int {
	for _, s := range spans {
		x = c.Print(x, y, s.Text, s.Style)
	}
	return x
}

// Fill sets every cell of the canvas to r in st.
func (c *Canvas) Fill(r rune, st tcell.Style) {
	for y := 0; y < c.bounds.H; y++ {
		for x := 0; x < c.bounds.W; x++ {
			c.SetCell(x, y, r, st)
		}
	}
}

// FillRow paints row y with spaces in st.
func (c *Canvas) FillRow(y int, st tcell.Style) {
	for x := 0; x < c.bounds.W; x++ {
		c.SetCell(x, y, ' ', st)
	}
}

// ShowCursor places the terminal cursor at x, y.
func (c *Canvas) ShowCursor(x, y int) {
	if x < 0 || y < 0 || x >= c.bounds.W || y >= c.bounds.H {
		return
	}
	c.frame.cursorX = c.bounds.X + x
	c.frame.cursorY = c.bounds.Y + y
	c.frame.cursorOwner = c.owner
	if c.owner == "" {
		c.frame.cursorOwner = "canvas"
	}
}
