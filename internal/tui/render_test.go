package tui

import (
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fillPainter fills its canvas with one rune and counts draws.
type fillPainter struct {
	r      rune
	draws  int
	cursor bool
}

func (p *fillPainter) Draw(c *Canvas) {
	p.draws++
	c.Fill(p.r, tcell.StyleDefault)
	if p.cursor {
		c.ShowCursor(0, 0)
	}
}

func newTestScheduler(t *testing.T) (*Scheduler, map[NodeID]*fillPainter) {
	t.Helper()
	s := NewScheduler(20, 6)
	painters := map[NodeID]*fillPainter{
		"left":    {r: 'L'},
		"right":   {r: 'R'},
		"status":  {r: 'S'},
		"overlay": {r: 'O'},
	}
	s.Register("left", Rect{W: 10, H: 5}, painters["left"])
	s.Register("right", Rect{X: 10, W: 10, H: 5}, painters["right"])
	s.Register("status", Rect{Y: 5, W: 20, H: 1}, painters["status"])
	s.Register("overlay", Rect{X: 2, Y: 1, W: 4, H: 2}, painters["overlay"])
	s.SetVisible("overlay", false)
	return s, painters
}

func TestScheduler_FirstRenderIsFull(t *testing.T) {
	s, painters := newTestScheduler(t)
	f := s.Render(0)

	assert.Equal(t, []NodeID{"left", "right", "status"}, s.LastPainted())
	assert.Equal(t, 0, painters["overlay"].draws)
	assert.Equal(t, "LLLLLLLLLLRRRRRRRRRR", f.Line(0))
	assert.Equal(t, "SSSSSSSSSSSSSSSSSSSS", f.Line(5))
	assert.Empty(t, s.Dirty())
}

func TestScheduler_RepaintsOnlyDirtyExclusiveRegions(t *testing.T) {
	s, painters := newTestScheduler(t)
	s.Render(0)

	painters["right"].r = 'r'
	s.MarkDirty("right")
	s.MarkDirty("right")
	f := s.Render(0)

	assert.Equal(t, []NodeID{"right"}, s.LastPainted())
	assert.Equal(t, 1, painters["left"].draws)
	assert.Equal(t, 2, painters["right"].draws)
	assert.Equal(t, 1, painters["status"].draws)
	assert.Equal(t, "LLLLLLLLLLrrrrrrrrrr", f.Line(0))
}

func TestScheduler_EmptyMaskIsNoOp(t *testing.T) {
	s, _ := newTestScheduler(t)
	first := s.Render(0)
	second := s.Render(0)

	assert.Same(t, first, second)
	assert.Empty(t, s.LastPainted())
}

func TestScheduler_UnknownIDsAreIgnored(t *testing.T) {
	s, _ := newTestScheduler(t)
	first := s.Render(0)
	s.MarkDirty("nope")
	assert.Same(t, first, s.Render(0))
}

func TestScheduler_RepaintDoesNotMutatePreviousFrame(t *testing.T) {
	s, painters := newTestScheduler(t)
	first := s.Render(0)
	painters["left"].r = 'x'
	s.MarkDirty("left")
	second := s.Render(0)

	assert.NotSame(t, first, second)
	assert.Equal(t, 'L', first.Cell(0, 0).Rune)
	assert.Equal(t, 'x', second.Cell(0, 0).Rune)
}

func TestScheduler_OverlappingLaterRegionStaysOnTop(t *testing.T) {
	s, painters := newTestScheduler(t)
	s.SetVisible("overlay", true)
	s.Render(0)

	s.MarkDirty("left")
	f := s.Render(0)

	assert.Equal(t, []NodeID{"left", "overlay"}, s.LastPainted())
	assert.Equal(t, 'O', f.Cell(2, 1).Rune)
	assert.Equal(t, 'L', f.Cell(1, 1).Rune)
	assert.Equal(t, 1, painters["right"].draws)
}

func TestScheduler_DirtyOverlayDoesNotRepaintBelow(t *testing.T) {
	s, painters := newTestScheduler(t)
	s.SetVisible("overlay", true)
	s.Render(0)

	s.MarkDirty("overlay")
	s.Render(0)

	assert.Equal(t, []NodeID{"overlay"}, s.LastPainted())
	assert.Equal(t, 1, painters["left"].draws)
}

func TestScheduler_HidingRegionRestoresWhatItCovered(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.SetVisible("overlay", true)
	s.Render(0)

	s.SetVisible("overlay", false)
	f := s.Render(0)

	assert.Equal(t, []NodeID{"left"}, s.LastPainted())
	for y := 1; y < 3; y++ {
		for x := 2; x < 6; x++ {
			assert.Equal(t, 'L', f.Cell(x, y).Rune, "cell %d,%d", x, y)
		}
	}
}

func TestScheduler_MovingRegionClearsOldRect(t *testing.T) {
	s, _ := newTestScheduler(t)
	s.SetVisible("overlay", true)
	s.Render(0)

	s.SetBounds("overlay", Rect{X: 12, Y: 1, W: 4, H: 2})
	f := s.Render(0)

	assert.Equal(t, 'L', f.Cell(2, 1).Rune)
	assert.Equal(t, 'O', f.Cell(12, 1).Rune)
	assert.Equal(t, 'R', f.Cell(11, 1).Rune)
}

func TestScheduler_BudgetDefersRemainingRegions(t *testing.T) {
	s, painters := newTestScheduler(t)
	s.Render(0)

	clock := time.Unix(0, 0)
	s.now = func() time.Time {
		clock = clock.Add(10 * time.Millisecond)
		return clock
	}
	s.MarkDirty("left")
	s.MarkDirty("right")
	s.MarkDirty("status")

	s.Render(5 * time.Millisecond)
	assert.Equal(t, []NodeID{"left"}, s.LastPainted(), "at least one region is always painted")
	assert.Equal(t, []NodeID{"right", "status"}, s.Dirty())

	s.Render(0)
	assert.Equal(t, []NodeID{"right", "status"}, s.LastPainted())
	assert.Empty(t, s.Dirty())
	assert.Equal(t, 2, painters["status"].draws)
}

func TestScheduler_ResizeForcesFullRecompute(t *testing.T) {
	s, painters := newTestScheduler(t)
	s.Render(0)
	s.Resize(30, 8)
	s.SetBounds("right", Rect{X: 10, W: 20, H: 7})
	f := s.Render(0)

	assert.Equal(t, 30, f.Width)
	assert.Equal(t, 8, f.Height)
	assert.Equal(t, []NodeID{"left", "right", "status"}, s.LastPainted())
	assert.Equal(t, 2, painters["left"].draws)
}

func TestScheduler_HiddenRegionDropsItsCursor(t *testing.T) {
	s, painters := newTestScheduler(t)
	painters["overlay"].cursor = true
	s.SetVisible("overlay", true)
	f := s.Render(0)

	x, y, ok := f.Cursor()
	require.True(t, ok)
	assert.Equal(t, 2, x)
	assert.Equal(t, 1, y)

	s.SetVisible("overlay", false)
	f = s.Render(0)
	_, _, ok = f.Cursor()
	assert.False(t, ok)
}

func TestCanvas_WideRunesAndClipping(t *testing.T) {
	f := NewFrame(6, 1)
	c := NewCanvas(f).Sub(Rect{X: 1, W: 4, H: 1})

	end := c.Print(0, 0, "a世bcd", tcell.StyleDefault)
	assert.Equal(t, 4, end)
	assert.Equal(t, ' ', f.Cell(0, 0).Rune)
	assert.Equal(t, 'a', f.Cell(1, 0).Rune)
	assert.Equal(t, '世', f.Cell(2, 0).Rune)
	assert.Equal(t, rune(0), f.Cell(3, 0).Rune)
	assert.Equal(t, 'b', f.Cell(4, 0).Rune)
	assert.Equal(t, ' ', f.Cell(5, 0).Rune, "clipped to the canvas")

	// Overwriting the continuation cell blanks the wide rune's head.
	NewCanvas(f).SetCell(3, 0, 'z', tcell.StyleDefault)
	assert.Equal(t, ' ', f.Cell(2, 0).Rune)
	assert.Equal(t, "a z", f.Line(0)[1:4])
}
