package markdown

import "github.com/gdamore/tcell/v2"

// Theme holds the styles used by a Renderer.
type Theme struct {
	Text      tcell.Style
	Heading   tcell.Style
	Code      tcell.Style
	CodeBlock tcell.Style
	Link      tcell.Style
	Quote     tcell.Style
	Rule      tcell.Style
	Bullet    tcell.Style
	Table     tcell.Style
	Literal   tcell.Style
	// Admonitions maps each recognised kind to its accent style.
	Admonitions map[AdmonitionKind]tcell.Style
	// Hyperlinks attaches OSC 8 targets to link spans.
	Hyperlinks bool
}

var admonitionGlyphs = map[AdmonitionKind]string{
	AdmonitionNote:      "ℹ",
	AdmonitionTip:       "★",
	AdmonitionImportant: "‼",
	AdmonitionWarning:   "⚠",
	AdmonitionCaution:   "✖",
}

// Glyph returns the prefix glyph for an admonition kind.
func Glyph(kind AdmonitionKind) string {
	if g, ok := admonitionGlyphs[kind]; ok {
		return g
	}
	return "│"
}

// DefaultTheme returns the dark-terminal theme.
func DefaultTheme() Theme {
	base := tcell.StyleDefault
	return Theme{
		Text:      base,
		Heading:   base.Foreground(tcell.NewHexColor(0x58a6ff)).Bold(true),
		Code:      base.Foreground(tcell.ColorYellow).Bold(true),
		CodeBlock: base.Foreground(tcell.NewHexColor(0xc9d1d9)),
		Link:      base.Foreground(tcell.ColorBlue).Underline(true),
		Quote:     base.Foreground(tcell.ColorGray),
		Rule:      base.Foreground(tcell.ColorGray),
		Bullet:    base.Foreground(tcell.ColorGray),
		Table:     base,
		Literal:   base,
		Admonitions: map[AdmonitionKind]tcell.Style{
			AdmonitionNote:      base.Foreground(tcell.NewHexColor(0x4493f8)),
			AdmonitionTip:       base.Foreground(tcell.NewHexColor(0x3fb950)),
			AdmonitionImportant: base.Foreground(tcell.NewHexColor(0xab7df8)),
			AdmonitionWarning:   base.Foreground(tcell.NewHexColor(0xd29922)),
			AdmonitionCaution:   base.Foreground(tcell.NewHexColor(0xf85149)),
		},
		Hyperlinks: true,
	}
}

func (t Theme) admonition(kind AdmonitionKind) tcell.Style {
	if s, ok := t.Admonitions[kind]; ok {
		return s
	}
	return t.Quote
}

func (t Theme) emphasis(base tcell.Style, e Emphasis) tcell.Style {
	if e&Bold != 0 {
		base = base.Bold(true)
	}
	if e&Italic != 0 {
		base = base.Italic(true)
	}
	if e&Strike != 0 {
		base = base.StrikeThrough(true)
	}
	return base
}

func (t Theme) link(url string) tcell.Style {
	if t.Hyperlinks && url != "" {
		return t.Link.Url(url)
	}
	return t.Link
}
