package tui

import (
	"errors"
	"fmt"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roeyazroel/issuedash/internal/githubapi"
	"github.com/roeyazroel/issuedash/internal/markdown"
)

func typeText(h KeyHandler, s string) {
	for _, r := range s {
		h.HandleKey(runeKey(r))
	}
}

// drawOnce paints p into a scratch frame so tview text models know their
// size before keys are sent.
func drawOnce(p Painter, w, h int) *Frame {
	f := NewFrame(w, h)
	p.Draw(NewCanvas(f))
	return f
}

func testLabels() []githubapi.Label {
	return []githubapi.Label{
		{ID: "L4", Name: "help wanted", Color: "008672"},
		{ID: "L1", Name: "bug", Color: "d73a4a"},
		{ID: "L3", Name: "enhancement", Color: "a2eeef"},
		{ID: "L2", Name: "documentation", Color: "0075ca"},
		{ID: "L5", Name: "lang: c++", Color: "f1e05a"},
	}
}

func newOpenLabelPicker(t *testing.T) *LabelPicker {
	t.Helper()
	p := NewLabelPicker(DefaultStyles(), &spinner{})
	p.SetLabels(testLabels())
	p.Open(githubapi.Issue{ID: "I_7", Number: 7, Labels: []githubapi.Label{{ID: "L1", Name: "bug"}}})
	drawOnce(p, 56, 16)
	require.Equal(t, StateActive, p.State())
	return p
}

func TestLabelPicker_SortsAndChecksCurrentLabels(t *testing.T) {
	p := newOpenLabelPicker(t)
	assert.Equal(t, []string{"bug", "documentation", "enhancement", "help wanted", "lang: c++"}, p.Matches())
	assert.Equal(t, []string{"L1"}, p.CheckedIDs())
}

func TestLabelPicker_RegexFilter(t *testing.T) {
	p := newOpenLabelPicker(t)
	typeText(p, "^(bug|help)")

	assert.False(t, p.Fuzzy())
	assert.Equal(t, []string{"bug", "help wanted"}, p.Matches())
}

func TestLabelPicker_RegexIsCaseInsensitive(t *testing.T) {
	p := newOpenLabelPicker(t)
	typeText(p, "DOC")
	assert.Equal(t, []string{"documentation"}, p.Matches())
}

func TestLabelPicker_InvalidRegexFallsBackToFuzzy(t *testing.T) {
	p := newOpenLabelPicker(t)
	typeText(p, "c++")

	assert.True(t, p.Fuzzy())
	assert.Equal(t, []string{"lang: c++"}, p.Matches())
}

func TestLabelPicker_ToggleAndSubmit(t *testing.T) {
	p := newOpenLabelPicker(t)
	var gotIssue string
	var gotNumber int
	var gotIDs []string
	p.onSubmit = func(issueID string, number int, ids []string) {
		gotIssue, gotNumber, gotIDs = issueID, number, ids
	}

	p.HandleKey(runeKey(' '))
	p.HandleKey(specialKey(tcell.KeyDown))
	p.HandleKey(runeKey(' '))
	assert.Equal(t, []string{"L2"}, p.CheckedIDs())

	p.HandleKey(specialKey(tcell.KeyEnter))
	assert.Equal(t, StateSubmitting, p.State())
	assert.Equal(t, "I_7", gotIssue)
	assert.Equal(t, 7, gotNumber)
	assert.Equal(t, []string{"L2"}, gotIDs)

	// Keys are swallowed while saving.
	p.HandleKey(runeKey(' '))
	assert.Equal(t, []string{"L2"}, p.CheckedIDs())

	p.Succeeded()
	assert.Equal(t, StateInactive, p.State())
}

func TestLabelPicker_FailedRestoresSubmittedSelection(t *testing.T) {
	p := newOpenLabelPicker(t)
	p.HandleKey(specialKey(tcell.KeyDown))
	p.HandleKey(runeKey(' '))
	p.HandleKey(specialKey(tcell.KeyEnter))
	require.Equal(t, StateSubmitting, p.State())

	p.Failed(errors.New("forbidden"))
	assert.Equal(t, StateActive, p.State())
	assert.Equal(t, "failed to set labels: forbidden", p.Message())
	assert.Equal(t, []string{"L1", "L2"}, p.CheckedIDs())
}

func TestLabelPicker_CreateNeedsName(t *testing.T) {
	p := newOpenLabelPicker(t)
	var created []string
	p.onCreate = func(name string) { created = append(created, name) }

	p.HandleKey(specialKey(tcell.KeyCtrlA))
	assert.Empty(t, created)
	assert.Equal(t, "Type the new label's name in the filter first.", p.Message())

	typeText(p, "triage")
	assert.Empty(t, p.Message(), "editing clears the message")
	p.HandleKey(specialKey(tcell.KeyCtrlA))
	assert.Equal(t, []string{"triage"}, created)
}

func TestLabelPicker_AddLabelChecksIt(t *testing.T) {
	p := newOpenLabelPicker(t)
	typeText(p, "triage")
	p.AddLabel(githubapi.Label{ID: "L9", Name: "triage", Color: "ededed"})

	assert.Len(t, p.Matches(), 6, "filter is cleared")
	assert.Equal(t, []string{"L1", "L9"}, p.CheckedIDs())
}

func TestLabelPicker_LoadFailedKeepsPickerUsable(t *testing.T) {
	p := NewLabelPicker(DefaultStyles(), &spinner{})
	p.Open(githubapi.Issue{ID: "I_1", Number: 1})
	assert.True(t, p.spinning())

	p.LoadFailed(errors.New("timeout"))
	assert.False(t, p.spinning())
	assert.Equal(t, StateError, p.State())
	assert.Equal(t, "could not load labels: timeout", p.Message())

	p.HandleKey(specialKey(tcell.KeyEnter))
	assert.Equal(t, StateSubmitting, p.State())
}

func TestColorPicker_DefaultsAndBounds(t *testing.T) {
	p := NewColorPicker(DefaultStyles(), &spinner{})
	p.Open("triage")
	row, col := p.Position()
	assert.Equal(t, defaultHueRow, row)
	assert.Equal(t, defaultShadeCol, col)
	assert.Equal(t, "d0d7de", p.Selected())

	for i := 0; i < 10; i++ {
		p.HandleKey(specialKey(tcell.KeyUp))
		p.HandleKey(specialKey(tcell.KeyLeft))
	}
	row, col = p.Position()
	assert.Equal(t, 0, row)
	assert.Equal(t, 0, col)

	for i := 0; i < 10; i++ {
		p.HandleKey(runeKey('j'))
		p.HandleKey(runeKey('l'))
	}
	row, col = p.Position()
	assert.Equal(t, len(hues)-1, row)
	assert.Equal(t, 4, col)
}

func TestColorPicker_HueKeysKeepShade(t *testing.T) {
	p := NewColorPicker(DefaultStyles(), &spinner{})
	p.Open("triage")
	p.HandleKey(runeKey('B'))
	row, col := p.Position()
	assert.Equal(t, 5, row)
	assert.Equal(t, defaultShadeCol, col)
	assert.Equal(t, "80ccff", p.Selected())

	p.HandleKey(runeKey('b'))
	row, _ = p.Position()
	assert.Equal(t, 5, row, "hue keys are uppercase")
}

func TestColorPicker_WithInitialHex(t *testing.T) {
	tests := []struct {
		hex      string
		row, col int
	}{
		{"#0969DA", 5, 4},
		{"fa4549", 0, 4},
		{"  #2DA44E ", 3, 4},
		{"123456", defaultHueRow, defaultShadeCol},
		{"", defaultHueRow, defaultShadeCol},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.hex, func(t *testing.T) {
			p := NewColorPicker(DefaultStyles(), &spinner{}).WithInitialHex("ffebe9").WithInitialHex(tt.hex)
			row, col := p.Position()
			assert.Equal(t, tt.row, row)
			assert.Equal(t, tt.col, col)
		})
	}
}

func TestColorPicker_SubmitAndFailure(t *testing.T) {
	p := NewColorPicker(DefaultStyles(), &spinner{})
	var name, hex string
	p.onSubmit = func(n, h string) { name, hex = n, h }
	p.Open("triage")
	p.HandleKey(runeKey('G'))
	p.HandleKey(specialKey(tcell.KeyEnter))

	assert.Equal(t, "triage", name)
	assert.Equal(t, "6fdd8b", hex)
	assert.True(t, p.spinning())

	p.HandleKey(runeKey('R'))
	assert.Equal(t, "6fdd8b", p.Selected(), "moves are ignored while busy")

	p.Failed(errors.New("already exists"))
	assert.Equal(t, StateActive, p.State())
	assert.Equal(t, "failed to create label: already exists", p.Message())
	assert.Equal(t, "6fdd8b", p.Selected())

	p.HandleKey(runeKey('h'))
	assert.Empty(t, p.Message())
}

func TestColorPicker_DrawMarksSelection(t *testing.T) {
	p := NewColorPicker(DefaultStyles(), &spinner{})
	p.Open("bug")
	f := drawOnce(p, 52, 12)
	assert.Contains(t, f.Line(8), "<>", "gray row holds the default selection")
	assert.Contains(t, f.Line(9), "#d0d7de")
}

func newTestSearchBar() *SearchBar {
	return NewSearchBar(DefaultStyles(), &spinner{}, "o/r")
}

func TestSearchBar_Query(t *testing.T) {
	tests := []struct {
		name   string
		text   string
		labels string
		state  SearchState
		want   string
	}{
		{"default", "", "", SearchOpen, "is:open repo:o/r is:issue"},
		{"everything", " crash ", "bug; help wanted;", SearchClosed, `crash label:bug label:"help wanted" is:closed repo:o/r is:issue`},
		{"all states", "", "", SearchAll, "repo:o/r is:issue"},
		{"blank labels", "panic", " ; ", SearchOpen, "panic is:open repo:o/r is:issue"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			b := newTestSearchBar()
			b.SetText(tt.text)
			b.SetLabels(tt.labels)
			b.SetFilter(tt.state)
			assert.Equal(t, tt.want, b.Query())
		})
	}
}

func TestSearchBar_StateFieldCycles(t *testing.T) {
	b := newTestSearchBar()
	b.Open()
	b.HandleKey(specialKey(tcell.KeyTab))
	b.HandleKey(specialKey(tcell.KeyTab))

	b.HandleKey(specialKey(tcell.KeyRight))
	assert.Equal(t, SearchClosed, b.Filter())
	b.HandleKey(runeKey('l'))
	assert.Equal(t, SearchAll, b.Filter())
	b.HandleKey(runeKey(' '))
	assert.Equal(t, SearchOpen, b.Filter())
	b.HandleKey(runeKey('h'))
	assert.Equal(t, SearchAll, b.Filter())
	b.HandleKey(runeKey('z'))
	assert.Equal(t, SearchAll, b.Filter())
}

func TestSearchBar_SubmitAndSucceed(t *testing.T) {
	b := newTestSearchBar()
	assert.Equal(t, "is:open repo:o/r is:issue", b.LastQuery())

	var got string
	b.onSearch = func(q string) { got = q }
	b.Open()
	drawOnce(b, 72, 8)
	typeText(b, "flaky")
	b.HandleKey(specialKey(tcell.KeyEnter))

	assert.Equal(t, "flaky is:open repo:o/r is:issue", got)
	assert.Equal(t, StateSubmitting, b.State())
	b.HandleKey(specialKey(tcell.KeyEnter))
	assert.Equal(t, StateSubmitting, b.State())

	b.Succeeded()
	assert.Equal(t, StateInactive, b.State())
	assert.Equal(t, got, b.LastQuery())
}

func TestSearchBar_FailedKeepsFields(t *testing.T) {
	b := newTestSearchBar()
	b.Open()
	b.SetText("crash")
	b.HandleKey(specialKey(tcell.KeyEnter))
	b.Failed(errors.New("rate limited"))

	assert.Equal(t, StateActive, b.State())
	assert.Equal(t, "search failed: rate limited", b.Message())
	assert.Equal(t, "crash is:open repo:o/r is:issue", b.Query())
	assert.Equal(t, "is:open repo:o/r is:issue", b.LastQuery())
}

func TestNumberNav_DigitsOnly(t *testing.T) {
	n := NewNumberNav(DefaultStyles(), &spinner{})
	n.Open()
	typeText(n, "0a4-2")
	assert.Equal(t, "42", n.Input(), "leading zero and non-digits are ignored")

	n.HandleKey(specialKey(tcell.KeyBackspace2))
	assert.Equal(t, "4", n.Input())

	n.Open()
	typeText(n, "12345678901")
	assert.Equal(t, "123456789", n.Input())
}

func TestNumberNav_EmptyIsRejected(t *testing.T) {
	n := NewNumberNav(DefaultStyles(), &spinner{})
	called := false
	n.onSubmit = func(int) { called = true }
	n.Open()
	n.HandleKey(specialKey(tcell.KeyEnter))

	assert.False(t, called)
	assert.Equal(t, StateActive, n.State())
	assert.Equal(t, "Type an issue number.", n.Message())
}

func TestNumberNav_Failed(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{"not found", fmt.Errorf("fetch issue: %w", githubapi.ErrNotFound), "issue #42 not found"},
		{"other", errors.New("boom"), "failed to load issue #42: boom"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			n := NewNumberNav(DefaultStyles(), &spinner{})
			var got int
			n.onSubmit = func(num int) { got = num }
			n.Open()
			typeText(n, "42")
			n.HandleKey(specialKey(tcell.KeyEnter))
			require.Equal(t, 42, got)
			require.Equal(t, StateSubmitting, n.State())

			n.Failed(42, tt.err)
			assert.Equal(t, StateActive, n.State())
			assert.Equal(t, tt.want, n.Message())
			assert.Equal(t, "42", n.Input())
		})
	}
}

func TestNumberNav_EscapeWhileBusy(t *testing.T) {
	n := NewNumberNav(DefaultStyles(), &spinner{})
	closed := false
	n.onClose = func() { closed = true }
	n.Open()
	typeText(n, "9")
	n.HandleKey(specialKey(tcell.KeyEnter))
	typeText(n, "9")

	assert.Equal(t, "9", n.Input())
	n.HandleKey(specialKey(tcell.KeyEscape))
	assert.True(t, closed)
}

func newTestEditor(t *testing.T) *CommentEditor {
	t.Helper()
	cache := markdown.NewCache(markdown.NewRenderer(markdown.DefaultTheme(), markdown.PlainHighlighter{}), 8)
	e := NewCommentEditor(DefaultStyles(), &spinner{}, cache, true)
	e.Open("I_1", 1)
	drawOnce(e, 60, 12)
	return e
}

func TestCommentEditor_EmptyIsRejected(t *testing.T) {
	e := newTestEditor(t)
	called := false
	e.onSubmit = func(string, int, string) { called = true }

	typeText(e, "   ")
	e.HandleKey(specialKey(tcell.KeyCtrlS))
	assert.False(t, called)
	assert.Equal(t, StateActive, e.State())
	assert.Equal(t, "Comment cannot be empty.", e.Message())
}

func TestCommentEditor_FailedKeepsDraft(t *testing.T) {
	e := newTestEditor(t)
	var body string
	e.onSubmit = func(_ string, _ int, b string) { body = b }

	typeText(e, "LGTM")
	e.HandleKey(specialKey(tcell.KeyCtrlS))
	assert.Equal(t, "LGTM", body)
	assert.Equal(t, StateSubmitting, e.State())

	typeText(e, "!!")
	assert.Equal(t, "LGTM", e.Draft(), "typing is ignored while posting")

	e.Failed(errors.New("502"))
	assert.Equal(t, StateActive, e.State())
	assert.Equal(t, "failed to post comment: 502", e.Message())
	assert.Equal(t, "LGTM", e.Draft())
}

func TestCommentEditor_SucceededClearsDraft(t *testing.T) {
	e := newTestEditor(t)
	typeText(e, "done")
	e.HandleKey(specialKey(tcell.KeyCtrlS))
	e.Succeeded()

	assert.Equal(t, StateInactive, e.State())
	assert.Empty(t, e.Draft())
	e.Open("I_1", 1)
	assert.Empty(t, e.Draft())
}

func TestCommentEditor_PreviewToggle(t *testing.T) {
	e := newTestEditor(t)
	closed := false
	e.onClose = func() { closed = true }
	typeText(e, "**bold**")

	e.HandleKey(specialKey(tcell.KeyCtrlP))
	f := drawOnce(e, 60, 12)
	assert.Contains(t, f.Line(0), "(preview)")
	assert.Contains(t, f.Line(1), "bold")
	assert.NotContains(t, f.Line(1), "**")

	e.HandleKey(specialKey(tcell.KeyEscape))
	assert.False(t, closed, "escape leaves preview first")
	e.HandleKey(specialKey(tcell.KeyEscape))
	assert.True(t, closed)
}

func TestCommentEditor_DraftsPerIssue(t *testing.T) {
	e := newTestEditor(t)
	typeText(e, "first")
	e.Close()

	e.Open("I_2", 2)
	assert.Empty(t, e.Draft())
	typeText(e, "second")
	e.Close()

	e.Open("I_1", 1)
	assert.Equal(t, "first", e.Draft())
	e.Open("I_2", 2)
	assert.Equal(t, "second", e.Draft())
}

func TestReactionPicker_OptimisticToggle(t *testing.T) {
	p := NewReactionPicker(DefaultStyles(), &spinner{})
	type call struct {
		subject string
		kind    githubapi.ReactionKind
		add     bool
	}
	var calls []call
	p.onToggle = func(s string, k githubapi.ReactionKind, add bool) { calls = append(calls, call{s, k, add}) }

	current := githubapi.Reactions{
		githubapi.ReactionThumbsUp: {Count: 2},
		githubapi.ReactionHeart:    {Count: 1, ViewerReacted: true},
	}
	p.Open("I_1", "#1", current)

	p.HandleKey(runeKey('1'))
	assert.Equal(t, githubapi.Reaction{Count: 3, ViewerReacted: true}, p.Reactions()[githubapi.ReactionThumbsUp])
	assert.Equal(t, 2, current[githubapi.ReactionThumbsUp].Count, "the caller's map is not touched")
	require.Len(t, calls, 1)
	assert.Equal(t, call{"I_1", githubapi.ReactionThumbsUp, true}, calls[0])

	p.Succeeded()
	p.Open("I_1", "#1", current)
	p.HandleKey(runeKey('6'))
	assert.Equal(t, githubapi.ReactionHeart, p.Selected())
	_, ok := p.Reactions()[githubapi.ReactionHeart]
	assert.False(t, ok, "a reaction dropping to zero is removed")
	assert.Equal(t, call{"I_1", githubapi.ReactionHeart, false}, calls[1])
}

func TestReactionPicker_FailedRestoresCounts(t *testing.T) {
	p := NewReactionPicker(DefaultStyles(), &spinner{})
	p.Open("C_1", "comment", githubapi.Reactions{githubapi.ReactionRocket: {Count: 4}})

	p.HandleKey(specialKey(tcell.KeyLeft))
	assert.Equal(t, githubapi.ReactionEyes, p.Selected(), "left wraps")
	p.HandleKey(runeKey('h'))
	assert.Equal(t, githubapi.ReactionRocket, p.Selected())
	p.HandleKey(specialKey(tcell.KeyEnter))
	assert.Equal(t, 5, p.Reactions()[githubapi.ReactionRocket].Count)

	p.HandleKey(specialKey(tcell.KeyEnter))
	assert.Equal(t, 5, p.Reactions()[githubapi.ReactionRocket].Count, "second toggle ignored while saving")

	p.Failed(errors.New("abuse detected"))
	assert.Equal(t, githubapi.Reaction{Count: 4}, p.Reactions()[githubapi.ReactionRocket])
	assert.Equal(t, "failed to update reaction: abuse detected", p.Message())
	assert.Equal(t, StateActive, p.State())
}
