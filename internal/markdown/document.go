// Package markdown turns issue and comment bodies into styled terminal lines.
//
// Parse produces an immutable Document; a Renderer lays a Document out at a
// given width. Both are deterministic, so rendered output can be cached by
// source text and width.
package markdown

import "strings"

// Document is a parsed markdown source. It is never mutated after Parse
// returns and may be shared freely.
type Document struct {
	Blocks []Block
	// Degraded is set when part of the source could not be parsed and was
	// kept as literal text.
	Degraded bool
}

// Block is a block-level node.
type Block interface{ block() }

// Inline is an inline node inside a paragraph or heading.
type Inline interface{ inline() }

// Paragraph is a run of inline content.
type Paragraph struct{ Inlines []Inline }

// Heading is an ATX or setext heading.
type Heading struct {
	Level   int
	Inlines []Inline
}

// FencedCode is a fenced or indented code block.
type FencedCode struct {
	Language string
	Source   string
}

// AdmonitionKind is the tag of a GitHub-style alert block.
type AdmonitionKind string

// Recognised admonition kinds.
const (
	AdmonitionNote      AdmonitionKind = "note"
	AdmonitionTip       AdmonitionKind = "tip"
	AdmonitionImportant AdmonitionKind = "important"
	AdmonitionWarning   AdmonitionKind = "warning"
	AdmonitionCaution   AdmonitionKind = "caution"
)

// Title returns the display title of the kind.
func (k AdmonitionKind) Title() string {
	if k == "" {
		return ""
	}
	return strings.ToUpper(string(k[:1])) + string(k[1:])
}

func parseAdmonitionKind(s string) (AdmonitionKind, bool) {
	switch k := AdmonitionKind(strings.ToLower(s)); k {
	case AdmonitionNote, AdmonitionTip, AdmonitionImportant, AdmonitionWarning, AdmonitionCaution:
		return k, true
	}
	return "", false
}

// Admonition is a block quote carrying a kind tag, e.g. "> [!NOTE]".
type Admonition struct {
	Kind     AdmonitionKind
	Children []Block
}

// BlockQuote is a plain block quote.
type BlockQuote struct{ Children []Block }

// List is an ordered or bullet list.
type List struct {
	Ordered bool
	Start   int
	Tight   bool
	Items   []ListItem
}

// ListItem is one list entry. Task is non-nil for task list items.
type ListItem struct {
	Task     *bool
	Children []Block
}

// ThematicBreak is a horizontal rule.
type ThematicBreak struct{}

// Table is a GFM table with plain-text cells.
type Table struct {
	Header []string
	Rows   [][]string
}

// Literal is source kept verbatim, either raw HTML or a span the parser
// could not make sense of.
type Literal struct{ Source string }

func (Paragraph) block()     {}
func (Heading) block()       {}
func (FencedCode) block()    {}
func (Admonition) block()    {}
func (BlockQuote) block()    {}
func (List) block()          {}
func (ListItem) block()      {}
func (ThematicBreak) block() {}
func (Table) block()         {}
func (Literal) block()       {}

// Emphasis is a set of inline text attributes.
type Emphasis uint8

// Emphasis flags.
const (
	Bold Emphasis = 1 << iota
	Italic
	Strike
)

// Text is plain or emphasized text.
type Text struct {
	Value    string
	Emphasis Emphasis
}

// Code is an inline code span.
type Code struct{ Value string }

// Link is a hyperlink. Text is the flattened display text.
type Link struct {
	URL  string
	Text string
}

// Break is a line break inside a paragraph. Soft breaks render as a space.
type Break struct{ Hard bool }

func (Text) inline()  {}
func (Code) inline()  {}
func (Link) inline()  {}
func (Break) inline() {}
