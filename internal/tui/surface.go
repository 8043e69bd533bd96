package tui

import (
	"github.com/gdamore/tcell/v2"
	"github.com/rivo/tview"

	"github.com/roeyazroel/issuedash/internal/logger"
)

// surface draws a tview primitive offscreen and copies the result into a
// Canvas, so tview's text models can live inside scheduler regions.
type surface struct {
	screen tcell.SimulationScreen
	w, h   int
}

func newSurface() *surface {
	s := tcell.NewSimulationScreen("")
	if err := s.Init(); err != nil {
		logger.ErrorWithErr(err, "tui.surface: failed to init offscreen screen")
	}
	return &surface{screen: s}
}

// draw renders p at the size of c and copies cells and cursor into c.
func (s *surface) draw(p tview.Primitive, c *Canvas) {
	w, h := c.Width(), c.Height()
	if w <= 0 || h <= 0 {
		return
	}
	if w != s.w || h != s.h {
		s.screen.SetSize(w, h)
		s.w, s.h = w, h
	}
	s.screen.Clear()
	s.screen.HideCursor()
	p.SetRect(0, 0, w, h)
	p.Draw(s.screen)

	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			r, _, st, width := s.screen.GetContent(x, y)
			if r == 0 {
				r = ' '
			}
			c.SetCell(x, y, r, st)
			if width > 1 {
				x += width - 1
			}
		}
	}
	if cx, cy, visible := s.screen.GetCursor(); visible {
		c.ShowCursor(cx, cy)
	}
}

// noFocus is the setFocus callback handed to tview input handlers. Focus is
// owned by the FocusTree, never by tview.
func noFocus(tview.Primitive) {}
