package markdown

import (
	"strings"

	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/x/ansi"
)

// markdown rebuilds GFM source for the table. Pipes inside cells are
// escaped so the layout engine sees the same grid.
func (t Table) markdown() string {
	cols := len(t.Header)
	for _, row := range t.Rows {
		if len(row) > cols {
			cols = len(row)
		}
	}
	if cols == 0 {
		return ""
	}
	row := func(cells []string) string {
		parts := make([]string, cols)
		for i := range parts {
			if i < len(cells) {
				parts[i] = strings.ReplaceAll(cells[i], "|", `\|`)
			}
		}
		return "| " + strings.Join(parts, " | ") + " |"
	}
	var b strings.Builder
	b.WriteString(row(t.Header))
	b.WriteByte('\n')
	b.WriteString("|" + strings.Repeat(" --- |", cols))
	for _, r := range t.Rows {
		b.WriteByte('\n')
		b.WriteString(row(r))
	}
	b.WriteByte('\n')
	return b.String()
}

// table lays the grid out with glamour's plain-text style, then strips any
// escape sequences and the document margin so the result is pure cells.
func (r *Renderer) table(t Table, width int) []Line {
	src := t.markdown()
	if src == "" {
		return nil
	}
	rendered, err := layoutTable(src, width)
	if err != nil {
		return r.literal(fallbackTable(t), r.theme.Table, width)
	}

	raw := strings.Split(ansi.Strip(rendered), "\n")
	for len(raw) > 0 && strings.TrimSpace(raw[0]) == "" {
		raw = raw[1:]
	}
	for len(raw) > 0 && strings.TrimSpace(raw[len(raw)-1]) == "" {
		raw = raw[:len(raw)-1]
	}
	raw = dedent(raw)

	w := newWrapper(width, r.theme.Table)
	for i, l := range raw {
		if i > 0 {
			w.newline()
		}
		w.chars(strings.TrimRight(l, " "), r.theme.Table)
	}
	return w.finish()
}

func layoutTable(src string, width int) (string, error) {
	tr, err := glamour.NewTermRenderer(
		glamour.WithStandardStyle("notty"),
		glamour.WithWordWrap(width),
	)
	if err != nil {
		return "", err
	}
	return tr.Render(src)
}

func fallbackTable(t Table) string {
	lines := []string{strings.Join(t.Header, " | ")}
	for _, row := range t.Rows {
		lines = append(lines, strings.Join(row, " | "))
	}
	return strings.Join(lines, "\n")
}

func dedent(lines []string) []string {
	indent := -1
	for _, l := range lines {
		if strings.TrimSpace(l) == "" {
			continue
		}
		n := len(l) - len(strings.TrimLeft(l, " "))
		if indent < 0 || n < indent {
			indent = n
		}
	}
	if indent <= 0 {
		return lines
	}
	out := make([]string, len(lines))
	for i, l := range lines {
		if len(l) >= indent {
			out[i] = l[indent:]
		}
	}
	return out
}
