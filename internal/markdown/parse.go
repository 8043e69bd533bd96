package markdown

import (
	"regexp"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/roeyazroel/issuedash/internal/logger"
)

var (
	parserOnce sync.Once
	gm         goldmark.Markdown
)

func engine() goldmark.Markdown {
	parserOnce.Do(func() {
		gm = goldmark.New(goldmark.WithExtensions(extension.GFM))
	})
	return gm
}

// Parse converts raw markdown into a Document. It never fails: an unclosed
// code fence and everything after it is kept as a Literal block, and raw
// HTML is kept as literal text.
func Parse(raw string) (doc *Document) {
	src := strings.ReplaceAll(raw, "\r\n", "\n")

	defer func() {
		if r := recover(); r != nil {
			logger.Error("markdown: parser panic, rendering literally: %v", r)
			doc = &Document{Blocks: []Block{Literal{Source: src}}, Degraded: true}
		}
	}()

	head, tail, unclosed := splitUnclosedFence(src)
	doc = &Document{}
	if strings.TrimSpace(head) != "" {
		c := converter{src: []byte(head)}
		root := engine().Parser().Parse(text.NewReader(c.src))
		doc.Blocks = c.blocks(root)
	}
	if unclosed {
		doc.Blocks = append(doc.Blocks, Literal{Source: strings.TrimRight(tail, "\n")})
		doc.Degraded = true
	}
	return doc
}

// splitUnclosedFence finds a top-level code fence that is never closed and
// splits src at its opening line.
func splitUnclosedFence(src string) (head, tail string, unclosed bool) {
	var (
		open     bool
		fenceCh  byte
		fenceLen int
		openAt   int
	)
	offset := 0
	for _, line := range strings.SplitAfter(src, "\n") {
		trimmed := strings.TrimRight(line, "\n")
		indent := len(trimmed) - len(strings.TrimLeft(trimmed, " "))
		body := strings.TrimLeft(trimmed, " ")
		if indent <= 3 && len(body) >= 3 && (body[0] == '`' || body[0] == '~') {
			ch := body[0]
			n := 0
			for n < len(body) && body[n] == ch {
				n++
			}
			rest := body[n:]
			switch {
			case !open && n >= 3 && !(ch == '`' && strings.Contains(rest, "`")):
				open, fenceCh, fenceLen, openAt = true, ch, n, offset
			case open && ch == fenceCh && n >= fenceLen && strings.TrimSpace(rest) == "":
				open = false
			}
		}
		offset += len(line)
	}
	if !open {
		return src, "", false
	}
	return src[:openAt], src[openAt:], true
}

var admonitionMarker = regexp.MustCompile(`^\[!([A-Za-z]+)\]$`)

type converter struct {
	src []byte
}

func (c *converter) blocks(parent ast.Node) []Block {
	var out []Block
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		if b := c.block(n); b != nil {
			out = append(out, b)
		} else if n.Type() == ast.TypeBlock && n.HasChildren() {
			out = append(out, c.blocks(n)...)
		}
	}
	return out
}

func (c *converter) block(n ast.Node) Block {
	switch n := n.(type) {
	case *ast.Paragraph:
		return Paragraph{Inlines: c.inlines(n, 0)}
	case *ast.TextBlock:
		return Paragraph{Inlines: c.inlines(n, 0)}
	case *ast.Heading:
		return Heading{Level: n.Level, Inlines: c.inlines(n, 0)}
	case *ast.FencedCodeBlock:
		return FencedCode{Language: string(n.Language(c.src)), Source: c.lines(n)}
	case *ast.CodeBlock:
		return FencedCode{Source: c.lines(n)}
	case *ast.Blockquote:
		return c.quote(n)
	case *ast.List:
		return c.list(n)
	case *ast.ThematicBreak:
		return ThematicBreak{}
	case *ast.HTMLBlock:
		src := c.lines(n)
		if n.HasClosure() {
			src += string(n.ClosureLine.Value(c.src))
		}
		return Literal{Source: strings.TrimRight(src, "\n")}
	case *extast.Table:
		return c.table(n)
	default:
		return nil
	}
}

func (c *converter) lines(n ast.Node) string {
	var b strings.Builder
	lines := n.Lines()
	for i := 0; i < lines.Len(); i++ {
		seg := lines.At(i)
		b.Write(seg.Value(c.src))
	}
	return strings.TrimRight(b.String(), "\n")
}

// quote turns a block quote into an Admonition when its first source line
// is a recognised "[!KIND]" marker.
func (c *converter) quote(n *ast.Blockquote) Block {
	children := c.blocks(n)
	kind, ok := c.admonitionKind(n)
	if !ok {
		return BlockQuote{Children: children}
	}
	body := make([]Block, 0, len(children))
	if first, isPara := children[0].(Paragraph); isPara {
		if rest := dropFirstLine(first.Inlines); len(rest) > 0 {
			body = append(body, Paragraph{Inlines: rest})
		}
	}
	body = append(body, children[1:]...)
	return Admonition{Kind: kind, Children: body}
}

func (c *converter) admonitionKind(n *ast.Blockquote) (AdmonitionKind, bool) {
	p, ok := n.FirstChild().(*ast.Paragraph)
	if !ok || p.Lines().Len() == 0 {
		return "", false
	}
	first := p.Lines().At(0)
	m := admonitionMarker.FindStringSubmatch(strings.TrimSpace(string(first.Value(c.src))))
	if m == nil {
		return "", false
	}
	return parseAdmonitionKind(m[1])
}

func dropFirstLine(inlines []Inline) []Inline {
	for i, in := range inlines {
		if _, ok := in.(Break); ok {
			return inlines[i+1:]
		}
	}
	return nil
}

func (c *converter) list(n *ast.List) Block {
	l := List{Ordered: n.IsOrdered(), Start: n.Start, Tight: n.IsTight}
	for item := n.FirstChild(); item != nil; item = item.NextSibling() {
		li := ListItem{Task: taskState(item)}
		li.Children = c.blocks(item)
		l.Items = append(l.Items, li)
	}
	return l
}

func taskState(item ast.Node) *bool {
	first := item.FirstChild()
	if first == nil {
		return nil
	}
	box, ok := first.FirstChild().(*extast.TaskCheckBox)
	if !ok {
		return nil
	}
	checked := box.IsChecked
	return &checked
}

func (c *converter) table(n *extast.Table) Block {
	var t Table
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			cells = append(cells, strings.TrimSpace(c.plain(cell)))
		}
		if _, ok := row.(*extast.TableHeader); ok {
			t.Header = cells
			continue
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

func (c *converter) inlines(parent ast.Node, emph Emphasis) []Inline {
	var out []Inline
	for n := parent.FirstChild(); n != nil; n = n.NextSibling() {
		switch n := n.(type) {
		case *ast.Text:
			out = appendText(out, string(n.Segment.Value(c.src)), emph)
			switch {
			case n.HardLineBreak():
				out = append(out, Break{Hard: true})
			case n.SoftLineBreak():
				out = append(out, Break{})
			}
		case *ast.String:
			out = appendText(out, string(n.Value), emph)
		case *ast.Emphasis:
			e := Italic
			if n.Level >= 2 {
				e = Bold
			}
			out = append(out, c.inlines(n, emph|e)...)
		case *extast.Strikethrough:
			out = append(out, c.inlines(n, emph|Strike)...)
		case *ast.CodeSpan:
			out = append(out, Code{Value: c.plain(n)})
		case *ast.Link:
			out = append(out, Link{URL: string(n.Destination), Text: c.plain(n)})
		case *ast.AutoLink:
			out = append(out, Link{URL: string(n.URL(c.src)), Text: string(n.Label(c.src))})
		case *ast.Image:
			alt := c.plain(n)
			if alt == "" {
				alt = "image"
			}
			out = append(out, Link{URL: string(n.Destination), Text: alt})
		case *ast.RawHTML:
			var b strings.Builder
			for i := 0; i < n.Segments.Len(); i++ {
				seg := n.Segments.At(i)
				b.Write(seg.Value(c.src))
			}
			out = appendText(out, b.String(), emph)
		case *extast.TaskCheckBox:
		default:
			out = append(out, c.inlines(n, emph)...)
		}
	}
	for len(out) > 0 {
		if _, ok := out[len(out)-1].(Break); !ok {
			break
		}
		out = out[:len(out)-1]
	}
	return out
}

// appendText merges adjacent text with the same emphasis.
func appendText(out []Inline, s string, emph Emphasis) []Inline {
	if s == "" {
		return out
	}
	if n := len(out); n > 0 {
		if prev, ok := out[n-1].(Text); ok && prev.Emphasis == emph {
			out[n-1] = Text{Value: prev.Value + s, Emphasis: emph}
			return out
		}
	}
	return append(out, Text{Value: s, Emphasis: emph})
}

// plain flattens the text under n.
func (c *converter) plain(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(node ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch node := node.(type) {
		case *ast.Text:
			b.Write(node.Segment.Value(c.src))
			if node.SoftLineBreak() || node.HardLineBreak() {
				b.WriteByte(' ')
			}
		case *ast.String:
			b.Write(node.Value)
		case *ast.AutoLink:
			b.Write(node.Label(c.src))
			return ast.WalkSkipChildren, nil
		}
		return ast.WalkContinue, nil
	})
	return strings.TrimSpace(b.String())
}
