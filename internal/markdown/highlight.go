package markdown

import (
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"
)

// Run is a highlighted run of source text.
type Run struct {
	Text  string
	Style tcell.Style
}

// Highlighter styles source code for a declared language. Unknown languages
// must come back as a single unstyled run.
type Highlighter interface {
	Highlight(source, language string) []Run
}

// PlainHighlighter never styles anything.
type PlainHighlighter struct{}

// Highlight returns source as one unstyled run.
func (PlainHighlighter) Highlight(source, _ string) []Run {
	return []Run{{Text: source, Style: tcell.StyleDefault}}
}

// ChromaHighlighter highlights with chroma lexers and a chroma style.
type ChromaHighlighter struct {
	style *chroma.Style
}

// NewChromaHighlighter returns a highlighter using the named chroma style.
// Unknown style names fall back to chroma's default.
func NewChromaHighlighter(styleName string) *ChromaHighlighter {
	return &ChromaHighlighter{style: styles.Get(styleName)}
}

// Highlight tokenises source with the lexer registered for language.
func (h *ChromaHighlighter) Highlight(source, language string) []Run {
	language = strings.TrimSpace(language)
	if language == "" {
		return PlainHighlighter{}.Highlight(source, "")
	}
	lexer := lexers.Get(language)
	if lexer == nil {
		return PlainHighlighter{}.Highlight(source, "")
	}
	lexer = chroma.Coalesce(lexer)

	iterator, err := lexer.Tokenise(nil, source)
	if err != nil {
		return PlainHighlighter{}.Highlight(source, "")
	}

	var runs []Run
	for token := iterator(); token != chroma.EOF; token = iterator() {
		runs = appendRun(runs, token.Value, h.styleFor(token.Type))
	}
	if len(runs) == 0 {
		return PlainHighlighter{}.Highlight(source, "")
	}
	return runs
}

func (h *ChromaHighlighter) styleFor(tt chroma.TokenType) tcell.Style {
	entry := h.style.Get(tt)
	st := tcell.StyleDefault
	if entry.Colour.IsSet() {
		st = st.Foreground(tcell.NewRGBColor(
			int32(entry.Colour.Red()),
			int32(entry.Colour.Green()),
			int32(entry.Colour.Blue()),
		))
	}
	if entry.Bold == chroma.Yes {
		st = st.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		st = st.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		st = st.Underline(true)
	}
	return st
}

func appendRun(runs []Run, text string, style tcell.Style) []Run {
	if text == "" {
		return runs
	}
	if n := len(runs); n > 0 && runs[n-1].Style == style {
		runs[n-1].Text += text
		return runs
	}
	return append(runs, Run{Text: text, Style: style})
}
