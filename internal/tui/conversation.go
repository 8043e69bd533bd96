package tui

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"

	"github.com/roeyazroel/issuedash/internal/githubapi"
	"github.com/roeyazroel/issuedash/internal/markdown"
)

// reactionStatus tracks the lazily loaded reaction overlay.
type reactionStatus int

const (
	reactionsNone reactionStatus = iota
	reactionsLoading
	reactionsLoaded
	reactionsFailed
)

// Conversation shows one issue: header, labels, body and comments. Bodies
// render through the markdown cache. Reaction counts arrive separately and
// are drawn as an extra line once they are known.
type Conversation struct {
	widgetBase
	styles Styles
	spin   *spinner
	cache  *markdown.Cache

	number   int
	issue    *githubapi.Issue
	comments []githubapi.Comment

	reactions      githubapi.ReactionSummary
	reactionStatus reactionStatus

	busy   bool
	banner string

	scroll   int
	selected int // -1 is the issue body
	follow   bool

	// Layout from the last Draw.
	lineCount int
	height    int
	anchors   []int

	onBack func()
}

// NewConversation returns an empty conversation pane.
func NewConversation(st Styles, spin *spinner, cache *markdown.Cache) *Conversation {
	return &Conversation{styles: st, spin: spin, cache: cache, selected: -1, widgetBase: widgetBase{dirty: true}}
}

// Loading shows the busy indicator for issue number. The previous issue
// stays on screen while the same number reloads.
func (v *Conversation) Loading(number int) {
	if number != v.number {
		v.issue = nil
		v.comments = nil
		v.reactionStatus = reactionsNone
		v.scroll = 0
		v.selected = -1
	}
	v.number = number
	v.busy = true
	v.banner = ""
	v.markDirty()
}

// SetIssue shows a freshly fetched issue and its comments.
func (v *Conversation) SetIssue(issue githubapi.Issue, comments []githubapi.Comment) {
	same := v.issue != nil && v.issue.Number == issue.Number
	v.number = issue.Number
	v.issue = &issue
	v.comments = comments
	v.busy = false
	v.banner = ""
	if !same {
		v.scroll = 0
		v.selected = -1
		v.reactionStatus = reactionsNone
	}
	if v.selected >= len(comments) {
		v.selected = len(comments) - 1
	}
	v.markDirty()
}

// SetError shows a FetchFailed banner above whatever is loaded.
func (v *Conversation) SetError(msg string) {
	v.busy = false
	v.banner = msg
	v.markDirty()
}

// ReactionsLoading marks the overlay as pending.
func (v *Conversation) ReactionsLoading() {
	v.reactionStatus = reactionsLoading
	v.markDirty()
}

// SetReactions fills in the overlay.
func (v *Conversation) SetReactions(summary githubapi.ReactionSummary) {
	v.reactions = summary
	v.reactionStatus = reactionsLoaded
	v.markDirty()
}

// ReactionsFailed replaces the overlay with a short notice.
func (v *Conversation) ReactionsFailed() {
	v.reactionStatus = reactionsFailed
	v.markDirty()
}

func (v *Conversation) spinning() bool {
	return v.busy || v.reactionStatus == reactionsLoading
}

// Number is the issue number being shown or loaded, 0 for none.
func (v *Conversation) Number() int { return v.number }

// Issue returns the loaded issue.
func (v *Conversation) Issue() (githubapi.Issue, bool) {
	if v.issue == nil {
		return githubapi.Issue{}, false
	}
	return *v.issue, true
}

// Busy reports whether the issue is loading.
func (v *Conversation) Busy() bool { return v.busy }

// Banner returns the current error banner.
func (v *Conversation) Banner() string { return v.banner }

// SelectedComment returns the index of the selected comment, -1 for the body.
func (v *Conversation) SelectedComment() int { return v.selected }

// ReactionTarget returns the subject a reaction applies to: the selected
// comment, or the issue itself.
func (v *Conversation) ReactionTarget() (subjectID, label string, current githubapi.Reactions, ok bool) {
	if v.issue == nil {
		return "", "", nil, false
	}
	if v.selected >= 0 && v.selected < len(v.comments) {
		c := v.comments[v.selected]
		return c.ID, fmt.Sprintf("comment by %s", c.Author), v.reactions.Comments[c.ID], true
	}
	return v.issue.ID, fmt.Sprintf("issue #%d", v.issue.Number), v.reactions.Issue, true
}

func (v *Conversation) scrollBy(delta int) {
	limit := max(v.lineCount-v.height, 0)
	next := min(max(v.scroll+delta, 0), limit)
	if next != v.scroll {
		v.scroll = next
		v.markDirty()
	}
}

func (v *Conversation) selectComment(delta int) {
	if len(v.comments) == 0 {
		return
	}
	next := min(max(v.selected+delta, -1), len(v.comments)-1)
	if next != v.selected {
		v.selected = next
		v.follow = true
		v.markDirty()
	}
}

// HandleKey implements KeyHandler.
func (v *Conversation) HandleKey(ev *tcell.EventKey) bool {
	switch ev.Key() {
	case tcell.KeyDown:
		v.scrollBy(1)
		return true
	case tcell.KeyUp:
		v.scrollBy(-1)
		return true
	case tcell.KeyPgDn:
		v.scrollBy(max(v.height-1, 1))
		return true
	case tcell.KeyPgUp:
		v.scrollBy(-max(v.height-1, 1))
		return true
	case tcell.KeyEscape:
		if v.onBack != nil {
			v.onBack()
		}
		return true
	case tcell.KeyRune:
		switch ev.Rune() {
		case 'j':
			v.scrollBy(1)
			return true
		case 'k':
			v.scrollBy(-1)
			return true
		case ' ':
			v.scrollBy(max(v.height-1, 1))
			return true
		case 'g':
			v.scrollBy(-v.lineCount)
			return true
		case 'G':
			v.scrollBy(v.lineCount)
			return true
		case 'n':
			v.selectComment(1)
			return true
		case 'p':
			v.selectComment(-1)
			return true
		}
	}
	return false
}

// Draw implements Painter.
func (v *Conversation) Draw(c *Canvas) {
	title := "Conversation"
	if v.number > 0 {
		title = fmt.Sprintf("#%d", v.number)
	}
	if v.busy {
		title += " " + v.spin.Frame()
	}
	inner := drawBox(c, title, v.styles, v.focused)
	w, h := inner.Width(), inner.Height()
	row := 0
	if v.banner != "" && h > 0 {
		inner.Print(0, 0, truncate("⚠ "+v.banner+" (r to retry)", w), v.styles.Error)
		row++
	}
	if v.issue == nil {
		msg := "Select an issue and press Enter."
		if v.busy {
			msg = fmt.Sprintf("Loading issue #%d…", v.number)
		}
		inner.Print(0, row, truncate(msg, w), v.styles.Muted)
		v.lineCount, v.height = 0, 0
		return
	}

	lines, anchors := v.layout(w)
	v.lineCount, v.height, v.anchors = len(lines), h-row, anchors

	if v.follow {
		v.follow = false
		target := 0
		if v.selected >= 0 && v.selected < len(anchors) {
			target = anchors[v.selected]
		}
		if target < v.scroll || target >= v.scroll+v.height {
			v.scroll = target
		}
	}
	v.scroll = min(v.scroll, max(len(lines)-v.height, 0))

	for i := v.scroll; i < len(lines) && row < h; i++ {
		inner.PrintSpans(0, row, lines[i].Spans)
		row++
	}
}

func (v *Conversation) span(text string, st tcell.Style) markdown.Span {
	return markdown.Span{Text: text, Style: st}
}

func (v *Conversation) line(spans ...markdown.Span) markdown.Line {
	return markdown.Line{Spans: spans}
}

// layout builds every line of the conversation at width and returns the
// first line index of each comment.
func (v *Conversation) layout(width int) ([]markdown.Line, []int) {
	st := v.styles
	is := v.issue
	var out []markdown.Line

	out = append(out, v.line(v.span(truncate(is.Title, width), st.Title)))

	state, stateText := st.Open, "● Open"
	if !is.IsOpen() {
		state, stateText = st.Closed, "✓ Closed"
	}
	meta := fmt.Sprintf(" %s opened %s · %d comments", is.Author, is.CreatedAt.Format("2006-01-02"), is.CommentCount)
	out = append(out, v.line(v.span(stateText, state), v.span(truncate(meta, width-runewidth.StringWidth(stateText)), st.Muted)))

	if len(is.Labels) > 0 {
		var spans []markdown.Span
		for i, lbl := range is.Labels {
			if i > 0 {
				spans = append(spans, v.span(" ", st.Text))
			}
			spans = append(spans, v.span(" "+lbl.Name+" ", swatchStyle(lbl.Color)))
		}
		out = append(out, v.line(spans...))
	}
	if len(is.Assignees) > 0 {
		logins := make([]string, len(is.Assignees))
		for i, u := range is.Assignees {
			logins[i] = "@" + u.Login
		}
		out = append(out, v.line(v.span("Assignees: ", st.Muted), v.span(strings.Join(logins, ", "), st.Accent)))
	}
	out = append(out, markdown.Line{})

	bodyWidth := max(width-2, markdown.MinWidth)
	marker := st.Muted
	if v.selected == -1 {
		marker = st.Accent
	}
	if strings.TrimSpace(is.Body) == "" {
		out = append(out, v.line(v.span("▎ ", marker), v.span("No description provided.", st.Muted)))
	} else {
		for _, l := range v.cache.Lines(is.Body, bodyWidth) {
			out = append(out, v.line(append([]markdown.Span{v.span("▎ ", marker)}, l.Spans...)...))
		}
	}
	out = append(out, v.reactionLine(v.reactions.Issue, true))

	anchors := make([]int, len(v.comments))
	for i, cm := range v.comments {
		out = append(out, markdown.Line{})
		anchors[i] = len(out)
		head := st.Muted
		marker := st.Muted
		if i == v.selected {
			head = st.Accent.Bold(true)
			marker = st.Accent
		}
		header := fmt.Sprintf("── %s · %s ", cm.Author, cm.CreatedAt.Format("2006-01-02 15:04"))
		out = append(out, v.line(v.span(truncate(header, width), head)))
		for _, l := range v.cache.Lines(cm.Body, bodyWidth) {
			out = append(out, v.line(append([]markdown.Span{v.span("▎ ", marker)}, l.Spans...)...))
		}
		if line := v.reactionLine(v.reactions.Comments[cm.ID], false); len(line.Spans) > 0 {
			out = append(out, line)
		}
	}
	return out, anchors
}

// reactionLine renders the reaction overlay for one subject. The issue
// line also reports loading and failure; comment lines only appear once
// there is something to show.
func (v *Conversation) reactionLine(r githubapi.Reactions, issue bool) markdown.Line {
	st := v.styles
	switch v.reactionStatus {
	case reactionsLoading:
		if issue {
			return v.line(v.span("  "+v.spin.Frame()+" reactions", st.Muted))
		}
		return markdown.Line{}
	case reactionsFailed:
		if issue {
			return v.line(v.span("  reactions unavailable", st.Muted))
		}
		return markdown.Line{}
	case reactionsNone:
		return markdown.Line{}
	}
	if r.Total() == 0 {
		return markdown.Line{}
	}
	spans := []markdown.Span{v.span("  ", st.Text)}
	for _, kind := range githubapi.ReactionKinds {
		rx, ok := r[kind]
		if !ok || rx.Count == 0 {
			continue
		}
		style := st.Muted
		if rx.ViewerReacted {
			style = st.Accent
		}
		spans = append(spans, v.span(fmt.Sprintf("%s %d  ", kind.Emoji(), rx.Count), style))
	}
	return v.line(spans...)
}
