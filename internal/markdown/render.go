package markdown

import (
	"fmt"
	"strings"
	"unicode"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

// MinWidth is the narrowest width Render lays out at.
const MinWidth = 10

// Span is a run of text sharing one style.
type Span struct {
	Text  string
	Style tcell.Style
}

// Line is one rendered terminal row.
type Line struct {
	Spans []Span
}

// Width returns the display width of the line in cells.
func (l Line) Width() int {
	w := 0
	for _, s := range l.Spans {
		w += runewidth.StringWidth(s.Text)
	}
	return w
}

// String returns the line's text without styles.
func (l Line) String() string {
	var b strings.Builder
	for _, s := range l.Spans {
		b.WriteString(s.Text)
	}
	return b.String()
}

// Plain joins the text of lines with newlines.
func Plain(lines []Line) string {
	parts := make([]string, len(lines))
	for i, l := range lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}

// Renderer lays out Documents. It holds no per-call state, so one Renderer
// may serve any number of documents.
type Renderer struct {
	theme Theme
	hl    Highlighter
}

// NewRenderer returns a Renderer. A nil highlighter renders code unstyled.
func NewRenderer(theme Theme, hl Highlighter) *Renderer {
	if hl == nil {
		hl = PlainHighlighter{}
	}
	return &Renderer{theme: theme, hl: hl}
}

// Render wraps doc at width columns. The same document at the same width
// always yields identical lines.
func (r *Renderer) Render(doc *Document, width int) []Line {
	if doc == nil {
		return nil
	}
	if width < MinWidth {
		width = MinWidth
	}
	lines := r.blocks(doc.Blocks, width, false)
	for len(lines) > 0 && len(lines[len(lines)-1].Spans) == 0 {
		lines = lines[:len(lines)-1]
	}
	return lines
}

func (r *Renderer) blocks(blocks []Block, width int, tight bool) []Line {
	var out []Line
	for i, b := range blocks {
		if i > 0 && !tight {
			out = append(out, Line{})
		}
		out = append(out, r.block(b, width)...)
	}
	return out
}

func (r *Renderer) block(b Block, width int) []Line {
	switch b := b.(type) {
	case Paragraph:
		return r.wrapInlines(b.Inlines, r.theme.Text, width)
	case Heading:
		st := r.theme.Heading
		if b.Level == 1 {
			st = st.Underline(true)
		}
		return r.wrapInlines(b.Inlines, st, width)
	case FencedCode:
		return r.code(b, width)
	case Admonition:
		return r.admonition(b, width)
	case BlockQuote:
		inner := r.blocks(b.Children, nested(width, 2), false)
		return prefixLines(inner, Span{Text: "│ ", Style: r.theme.Quote}, Span{Text: "│ ", Style: r.theme.Quote})
	case List:
		return r.list(b, width)
	case ListItem:
		return r.blocks(b.Children, width, true)
	case ThematicBreak:
		return []Line{{Spans: []Span{{Text: strings.Repeat("─", width), Style: r.theme.Rule}}}}
	case Table:
		return r.table(b, width)
	case Literal:
		return r.literal(b.Source, r.theme.Literal, width)
	}
	return nil
}

func nested(width, indent int) int {
	if width-indent < 1 {
		return 1
	}
	return width - indent
}

func prefixLines(lines []Line, first, rest Span) []Line {
	out := make([]Line, len(lines))
	for i, l := range lines {
		p := rest
		if i == 0 {
			p = first
		}
		spans := make([]Span, 0, len(l.Spans)+1)
		spans = append(spans, p)
		spans = append(spans, l.Spans...)
		out[i] = Line{Spans: spans}
	}
	return out
}

func (r *Renderer) admonition(b Admonition, width int) []Line {
	accent := r.theme.admonition(b.Kind)
	header := Line{Spans: []Span{{Text: Glyph(b.Kind) + " " + b.Kind.Title(), Style: accent.Bold(true)}}}
	inner := r.blocks(b.Children, nested(width, 2), false)
	bar := Span{Text: "┃ ", Style: accent}
	return append([]Line{header}, prefixLines(inner, bar, bar)...)
}

func (r *Renderer) list(l List, width int) []Line {
	markers := make([]string, len(l.Items))
	markerWidth := 0
	for i, item := range l.Items {
		m := "• "
		if l.Ordered {
			m = fmt.Sprintf("%d. ", l.Start+i)
		}
		if item.Task != nil {
			if *item.Task {
				m += "[x] "
			} else {
				m += "[ ] "
			}
		}
		markers[i] = m
		if w := runewidth.StringWidth(m); w > markerWidth {
			markerWidth = w
		}
	}

	var out []Line
	for i, item := range l.Items {
		if i > 0 && !l.Tight {
			out = append(out, Line{})
		}
		inner := r.blocks(item.Children, nested(width, markerWidth), l.Tight)
		if len(inner) == 0 {
			inner = []Line{{}}
		}
		marker := markers[i] + strings.Repeat(" ", markerWidth-runewidth.StringWidth(markers[i]))
		out = append(out, prefixLines(inner,
			Span{Text: marker, Style: r.theme.Bullet},
			Span{Text: strings.Repeat(" ", markerWidth), Style: r.theme.Text})...)
	}
	return out
}

func (r *Renderer) code(b FencedCode, width int) []Line {
	runs := r.hl.Highlight(b.Source, b.Language)
	avail := nested(width, 2)
	w := newWrapper(avail, r.theme.CodeBlock)
	for _, run := range runs {
		st := run.Style
		if st == tcell.StyleDefault {
			st = r.theme.CodeBlock
		}
		for i, part := range strings.Split(expandTabs(run.Text), "\n") {
			if i > 0 {
				w.newline()
			}
			w.chars(part, st)
		}
	}
	indent := Span{Text: "  ", Style: r.theme.CodeBlock}
	return prefixLines(w.finish(), indent, indent)
}

func (r *Renderer) literal(src string, st tcell.Style, width int) []Line {
	w := newWrapper(width, st)
	for i, part := range strings.Split(expandTabs(src), "\n") {
		if i > 0 {
			w.newline()
		}
		w.chars(part, st)
	}
	return w.finish()
}

func expandTabs(s string) string {
	return strings.ReplaceAll(s, "\t", "    ")
}

// piece is a fragment of a word. Atomic pieces are link display texts and
// are only ever split when they cannot fit on an empty line.
type piece struct {
	text   string
	style  tcell.Style
	atomic bool
}

type word struct {
	pieces []piece
	width  int
}

func (w *word) push(p piece) {
	if p.text == "" {
		return
	}
	w.pieces = append(w.pieces, p)
	w.width += runewidth.StringWidth(p.text)
}

func (r *Renderer) wrapInlines(inlines []Inline, base tcell.Style, width int) []Line {
	w := newWrapper(width, base)
	var cur word
	flush := func() {
		if len(cur.pieces) > 0 {
			w.add(cur)
			cur = word{}
		}
	}
	addText := func(s string, st tcell.Style) {
		start := -1
		for i, ch := range s {
			if unicode.IsSpace(ch) {
				if start >= 0 {
					cur.push(piece{text: s[start:i], style: st})
					start = -1
				}
				flush()
				w.space()
				continue
			}
			if start < 0 {
				start = i
			}
		}
		if start >= 0 {
			cur.push(piece{text: s[start:], style: st})
		}
	}

	for _, in := range inlines {
		switch in := in.(type) {
		case Text:
			addText(in.Value, r.theme.emphasis(base, in.Emphasis))
		case Code:
			addText(in.Value, r.theme.Code)
		case Link:
			label := strings.Join(strings.Fields(in.Text), " ")
			if label == "" {
				label = in.URL
			}
			cur.push(piece{text: label, style: r.theme.link(in.URL), atomic: true})
		case Break:
			flush()
			if in.Hard {
				w.newline()
			} else {
				w.space()
			}
		}
	}
	flush()
	return w.finish()
}

// wrapper accumulates spans into lines of at most width cells.
type wrapper struct {
	width        int
	spaceStyle   tcell.Style
	lines        []Line
	cur          []Span
	col          int
	pendingSpace bool
}

func newWrapper(width int, spaceStyle tcell.Style) *wrapper {
	if width < 1 {
		width = 1
	}
	return &wrapper{width: width, spaceStyle: spaceStyle}
}

func (w *wrapper) emit(text string, st tcell.Style) {
	if text == "" {
		return
	}
	w.col += runewidth.StringWidth(text)
	if n := len(w.cur); n > 0 && w.cur[n-1].Style == st {
		w.cur[n-1].Text += text
		return
	}
	w.cur = append(w.cur, Span{Text: text, Style: st})
}

func (w *wrapper) breakLine() {
	w.lines = append(w.lines, Line{Spans: w.cur})
	w.cur = nil
	w.col = 0
	w.pendingSpace = false
}

func (w *wrapper) newline() {
	w.breakLine()
}

func (w *wrapper) space() {
	if w.col > 0 {
		w.pendingSpace = true
	}
}

func (w *wrapper) add(wd word) {
	sp := 0
	if w.pendingSpace && w.col > 0 {
		sp = 1
	}
	w.pendingSpace = false

	if w.col+sp+wd.width <= w.width {
		if sp == 1 {
			w.emit(" ", w.spaceStyle)
		}
		for _, p := range wd.pieces {
			w.emit(p.text, p.style)
		}
		return
	}
	if w.col > 0 {
		w.breakLine()
	}
	if wd.width <= w.width {
		for _, p := range wd.pieces {
			w.emit(p.text, p.style)
		}
		return
	}
	for _, p := range wd.pieces {
		if p.atomic && runewidth.StringWidth(p.text) <= w.width {
			if w.col+runewidth.StringWidth(p.text) > w.width {
				w.breakLine()
			}
			w.emit(p.text, p.style)
			continue
		}
		w.chars(p.text, p.style)
	}
}

// chars emits text rune by rune, breaking when a rune would overflow.
func (w *wrapper) chars(text string, st tcell.Style) {
	var b strings.Builder
	bw := 0
	for _, ch := range text {
		rw := runewidth.RuneWidth(ch)
		if w.col+bw+rw > w.width && w.col+bw > 0 {
			w.emit(b.String(), st)
			b.Reset()
			bw = 0
			w.breakLine()
		}
		b.WriteRune(ch)
		bw += rw
	}
	w.emit(b.String(), st)
}

func (w *wrapper) finish() []Line {
	if len(w.cur) > 0 || len(w.lines) == 0 {
		w.breakLine()
	}
	return w.lines
}
