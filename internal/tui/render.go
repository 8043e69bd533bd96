package tui

import (
	"time"

	"github.com/roeyazroel/issuedash/internal/logger"
)

// Painter draws a region's content onto its canvas.
type Painter interface {
	Draw(c *Canvas)
}

type region struct {
	id      NodeID
	bounds  Rect
	painter Painter
	visible bool
	// painted is the rectangle the region last drew into.
	painted Rect
}

// Scheduler composes frames from regions and repaints only the dirty ones.
//
// Regions paint in registration order, so a region registered later is on
// top. Repainting a region also repaints every later visible region that
// overlaps it. Regions are opaque: their rectangle is cleared before Draw.
type Scheduler struct {
	width, height int

	regions []*region
	index   map[NodeID]*region
	dirty   map[NodeID]bool
	vacated []Rect
	// uncursor lists regions whose cursor must go on the next render.
	uncursor []NodeID

	frame       *Frame
	full        bool
	lastPainted []NodeID

	now func() time.Time
}

// NewScheduler returns a scheduler for a width x height viewport.
func NewScheduler(width, height int) *Scheduler {
	return &Scheduler{
		width:  width,
		height: height,
		index:  make(map[NodeID]*region),
		dirty:  make(map[NodeID]bool),
		full:   true,
		now:    time.Now,
	}
}

// Register adds a visible region. Registering an existing ID replaces its
// painter and bounds.
func (s *Scheduler) Register(id NodeID, bounds Rect, p Painter) {
	if reg, ok := s.index[id]; ok {
		reg.painter = p
		s.SetBounds(id, bounds)
		s.MarkDirty(id)
		return
	}
	reg := &region{id: id, bounds: bounds, painter: p, visible: true}
	s.regions = append(s.regions, reg)
	s.index[id] = reg
	s.dirty[id] = true
}

// SetBounds moves or resizes a region.
func (s *Scheduler) SetBounds(id NodeID, bounds Rect) {
	reg, ok := s.index[id]
	if !ok || reg.bounds == bounds {
		return
	}
	reg.bounds = bounds
	s.vacate(reg)
	s.dirty[id] = true
}

// Bounds returns a region's rectangle.
func (s *Scheduler) Bounds(id NodeID) (Rect, bool) {
	reg, ok := s.index[id]
	if !ok {
		return Rect{}, false
	}
	return reg.bounds, true
}

// SetVisible shows or hides a region. Hiding clears its cells on the next
// render and repaints whatever it covered.
func (s *Scheduler) SetVisible(id NodeID, visible bool) {
	reg, ok := s.index[id]
	if !ok || reg.visible == visible {
		return
	}
	reg.visible = visible
	if visible {
		s.dirty[id] = true
		return
	}
	s.vacate(reg)
	delete(s.dirty, id)
}

// Visible reports whether a region is shown.
func (s *Scheduler) Visible(id NodeID) bool {
	reg, ok := s.index[id]
	return ok && reg.visible
}

func (s *Scheduler) vacate(reg *region) {
	if !reg.painted.Empty() {
		s.vacated = append(s.vacated, reg.painted)
		reg.painted = Rect{}
	}
	s.uncursor = append(s.uncursor, reg.id)
}

// MarkDirty queues a region for repaint. Unknown IDs are ignored.
func (s *Scheduler) MarkDirty(id NodeID) {
	if _, ok := s.index[id]; ok {
		s.dirty[id] = true
	}
}

// Resize changes the viewport and forces a full repaint.
func (s *Scheduler) Resize(width, height int) {
	if width == s.width && height == s.height && s.frame != nil {
		return
	}
	s.width, s.height = width, height
	s.full = true
}

// Dirty returns the dirty regions in paint order.
func (s *Scheduler) Dirty() []NodeID {
	var out []NodeID
	for _, reg := range s.regions {
		if s.dirty[reg.id] {
			out = append(out, reg.id)
		}
	}
	return out
}

// LastPainted returns the regions the last Render drew, in paint order.
func (s *Scheduler) LastPainted() []NodeID {
	return append([]NodeID(nil), s.lastPainted...)
}

// Frame returns the last rendered frame, or nil before the first Render.
func (s *Scheduler) Frame() *Frame { return s.frame }

// Render repaints the dirty regions and returns the new frame. With nothing
// dirty it returns the previous frame unchanged. A positive budget bounds
// the time spent; regions left over stay dirty for the next call.
func (s *Scheduler) Render(budget time.Duration) *Frame {
	if s.full || s.frame == nil {
		return s.renderFull()
	}
	if len(s.dirty) == 0 && len(s.vacated) == 0 && len(s.uncursor) == 0 {
		s.lastPainted = nil
		return s.frame
	}

	next := s.frame.Clone()
	for _, id := range s.uncursor {
		next.hideCursor(id)
	}
	s.uncursor = nil
	for _, r := range s.vacated {
		next.clear(r)
		for _, reg := range s.regions {
			if reg.visible && reg.bounds.Overlaps(r) {
				s.dirty[reg.id] = true
			}
		}
	}
	s.vacated = nil

	repaint := make([]bool, len(s.regions))
	for i, reg := range s.regions {
		if !reg.visible {
			continue
		}
		if s.dirty[reg.id] {
			repaint[i] = true
			continue
		}
		for j := 0; j < i; j++ {
			if repaint[j] && s.regions[j].bounds.Overlaps(reg.bounds) {
				repaint[i] = true
				break
			}
		}
	}

	start := s.now()
	s.lastPainted = s.lastPainted[:0]
	for i, reg := range s.regions {
		if !repaint[i] {
			continue
		}
		if budget > 0 && len(s.lastPainted) > 0 && s.now().Sub(start) >= budget {
			logger.Debug("tui.render: frame budget %s spent, deferring %s", budget, reg.id)
			for k := i; k < len(s.regions); k++ {
				if repaint[k] {
					s.dirty[s.regions[k].id] = true
				}
			}
			break
		}
		s.paint(next, reg)
		delete(s.dirty, reg.id)
		s.lastPainted = append(s.lastPainted, reg.id)
	}
	s.frame = next
	return next
}

func (s *Scheduler) renderFull() *Frame {
	next := NewFrame(s.width, s.height)
	s.lastPainted = s.lastPainted[:0]
	for _, reg := range s.regions {
		reg.painted = Rect{}
		if !reg.visible {
			continue
		}
		s.paint(next, reg)
		s.lastPainted = append(s.lastPainted, reg.id)
	}
	s.dirty = make(map[NodeID]bool)
	s.vacated = nil
	s.uncursor = nil
	s.full = false
	s.frame = next
	return next
}

func (s *Scheduler) paint(f *Frame, reg *region) {
	r := reg.bounds.Intersect(f.bounds())
	f.hideCursor(reg.id)
	f.clear(r)
	reg.painted = r
	if r.Empty() || reg.painter == nil {
		return
	}
	reg.painter.Draw(&Canvas{frame: f, bounds: r, owner: reg.id})
}
