package tui

var spinnerFrames = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// spinner is the shared busy indicator. The App advances it on each tick
// while any request is pending.
type spinner struct {
	frame int
}

// Frame returns the current glyph.
func (s *spinner) Frame() string {
	if s == nil {
		return spinnerFrames[0]
	}
	return spinnerFrames[s.frame%len(spinnerFrames)]
}

// Advance moves to the next glyph.
func (s *spinner) Advance() {
	s.frame = (s.frame + 1) % len(spinnerFrames)
}
