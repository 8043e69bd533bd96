package tui

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync/atomic"
	"time"

	"github.com/atotto/clipboard"
	"github.com/gdamore/tcell/v2"

	"github.com/roeyazroel/issuedash/internal/config"
	"github.com/roeyazroel/issuedash/internal/fetch"
	"github.com/roeyazroel/issuedash/internal/githubapi"
	"github.com/roeyazroel/issuedash/internal/logger"
	"github.com/roeyazroel/issuedash/internal/markdown"
)

// Focus nodes and render regions. Regions are registered in this order,
// which is also paint order.
const (
	nodeApp          NodeID = "app"
	nodeIssues       NodeID = "issues"
	nodeConversation NodeID = "conversation"
	nodeStatus       NodeID = "status"
	nodeSearch       NodeID = "search"
	nodeNumberNav    NodeID = "numnav"
	nodeHelp         NodeID = "help"
	nodeEditor       NodeID = "editor"
	nodeLabels       NodeID = "labels"
	nodeColors       NodeID = "colors"
	nodeReactions    NodeID = "reactions"
)

const (
	targetViewer = fetch.Target("viewer")
	targetIssues = fetch.Target("issues")
	targetLabels = fetch.Target("labels")
)

const (
	frameBudget  = 12 * time.Millisecond
	spinInterval = 100 * time.Millisecond
)

var errNoIssue = errors.New("no issue selected")

// Interrupt payloads.
type (
	spinTick  struct{}
	quitEvent struct{}
)

// issuePayload is the result of the issue:N fetch.
type issuePayload struct {
	issue    githubapi.Issue
	comments []githubapi.Comment
}

type mountedWidget struct {
	id     NodeID
	widget Widget
}

// Option customises an App.
type Option func(*App)

// WithScreen makes the App draw on s instead of the terminal.
func WithScreen(s tcell.Screen) Option {
	return func(a *App) { a.screen = s }
}

// WithClipboard replaces the system clipboard writer.
func WithClipboard(write func(string) error) Option {
	return func(a *App) { a.clipboard = write }
}

// WithBrowser replaces the URL opener.
func WithBrowser(open func(string) error) Option {
	return func(a *App) { a.browser = open }
}

// App owns the event loop. Every field is touched only from the loop
// goroutine; background work goes through the fetch coordinator.
type App struct {
	screen  tcell.Screen
	tracker Tracker
	config  config.Config
	styles  Styles
	spin    *spinner
	cache   *markdown.Cache

	focus    *FocusTree
	sched    *Scheduler
	fetch    *fetch.Coordinator
	commands []Command

	issues       *IssueList
	conversation *Conversation
	status       *StatusBar
	search       *SearchBar
	numnav       *NumberNav
	help         *HelpOverlay
	editor       *CommentEditor
	labels       *LabelPicker
	colors       *ColorPicker
	reactions    *ReactionPicker
	widgets      []mountedWidget

	viewer   githubapi.User
	viewing  int
	jumping  int
	query    string
	returnTo NodeID

	shown *Frame
	busy  atomic.Bool
	quit  bool

	clipboard func(string) error
	browser   func(string) error
}

// NewApp creates the application for tracker.
func NewApp(tracker Tracker, cfg config.Config, opts ...Option) *App {
	st := DefaultStyles()
	theme := markdown.DefaultTheme()
	theme.Hyperlinks = cfg.Features.Hyperlinks
	renderer := markdown.NewRenderer(theme, markdown.NewChromaHighlighter(cfg.Theme))

	a := &App{
		tracker:   tracker,
		config:    cfg,
		styles:    st,
		spin:      &spinner{},
		cache:     markdown.NewCache(renderer, cfg.CacheSize),
		fetch:     fetch.New(fetch.Options{Timeout: cfg.Timeout, Buffer: 64}),
		sched:     NewScheduler(cfg.Width, cfg.Height),
		commands:  DefaultCommands(),
		returnTo:  nodeIssues,
		clipboard: clipboard.WriteAll,
		browser:   openURL,
	}
	for _, opt := range opts {
		opt(a)
	}
	a.focus = NewFocusTree(nodeApp, a, a.sched)

	a.buildWidgets()
	a.buildLayout()
	a.query = a.search.LastQuery()
	return a
}

func (a *App) buildWidgets() {
	st, spin := a.styles, a.spin

	a.issues = NewIssueList(st, spin)
	a.issues.onOpen = func(issue githubapi.Issue) {
		a.openIssue(issue.Number)
		a.setActive(nodeConversation)
	}
	a.issues.onRetry = a.refresh

	a.conversation = NewConversation(st, spin, a.cache)
	a.conversation.onBack = func() { a.setActive(nodeIssues) }

	a.status = NewStatusBar(st, spin, a.config.RepoSlug())

	a.search = NewSearchBar(st, spin, a.config.RepoSlug())
	a.search.onSearch = a.searchIssues
	a.search.onClose = func() { a.closeOverlay(nodeSearch) }

	a.numnav = NewNumberNav(st, spin)
	a.numnav.onSubmit = a.gotoIssue
	a.numnav.onClose = func() { a.closeOverlay(nodeNumberNav) }

	a.help = NewHelpOverlay(st, a.commands)
	a.help.onClose = func() { a.closeOverlay(nodeHelp) }

	a.editor = NewCommentEditor(st, spin, a.cache, a.config.Features.Preview)
	a.editor.onSubmit = a.postComment
	a.editor.onClose = func() { a.closeOverlay(nodeEditor) }

	a.labels = NewLabelPicker(st, spin)
	a.labels.onSubmit = a.setLabels
	a.labels.onCreate = func(name string) {
		a.colors.WithInitialHex("")
		a.colors.Open(name)
		a.openOverlay(nodeColors)
	}
	a.labels.onClose = func() { a.closeOverlay(nodeLabels) }

	a.colors = NewColorPicker(st, spin)
	a.colors.onSubmit = a.createLabel
	a.colors.onClose = func() { a.closeOverlay(nodeColors) }

	a.reactions = NewReactionPicker(st, spin)
	a.reactions.onToggle = a.toggleReaction
	a.reactions.onClose = func() { a.closeOverlay(nodeReactions) }

	a.widgets = []mountedWidget{
		{nodeIssues, a.issues},
		{nodeConversation, a.conversation},
		{nodeStatus, a.status},
		{nodeSearch, a.search},
		{nodeNumberNav, a.numnav},
		{nodeHelp, a.help},
		{nodeEditor, a.editor},
		{nodeLabels, a.labels},
		{nodeColors, a.colors},
		{nodeReactions, a.reactions},
	}
}

// buildLayout registers focus nodes and regions. Overlays start hidden.
func (a *App) buildLayout() {
	parents := map[NodeID]NodeID{nodeColors: nodeLabels}
	for _, m := range a.widgets {
		a.sched.Register(m.id, Rect{}, m.widget)
		if m.id == nodeStatus {
			continue
		}
		parent, ok := parents[m.id]
		if !ok {
			parent = nodeApp
		}
		if err := a.focus.Add(m.id, parent, m.widget); err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to add focus node id=%s", m.id)
		}
		if isOverlay(m.id) {
			_ = a.focus.SetVisible(m.id, false)
			a.sched.SetVisible(m.id, false)
		}
	}
	a.setActive(nodeIssues)
	a.layout(a.config.Width, a.config.Height)
}

func isOverlay(id NodeID) bool {
	switch id {
	case nodeIssues, nodeConversation, nodeStatus:
		return false
	}
	return true
}

// layout places every region for a w x h viewport.
func (a *App) layout(w, h int) {
	body := Rect{W: w, H: max(h-1, 0)}
	left := min(max(30, w*2/5), w)

	a.sched.SetBounds(nodeIssues, Rect{W: left, H: body.H})
	a.sched.SetBounds(nodeConversation, Rect{X: left, W: w - left, H: body.H})
	a.sched.SetBounds(nodeStatus, Rect{Y: body.H, W: w, H: min(h, 1)})
	a.sched.SetBounds(nodeSearch, centered(body, 72, 8))
	a.sched.SetBounds(nodeNumberNav, centered(body, 36, 4))
	a.sched.SetBounds(nodeHelp, centered(body, 50, len(a.commands)+3))
	a.sched.SetBounds(nodeEditor, centered(body, max(w*3/4, 40), max(h*2/3, 10)))
	a.sched.SetBounds(nodeLabels, centered(body, 56, max(h*2/3, 10)))
	a.sched.SetBounds(nodeColors, centered(body, 52, 12))
	a.sched.SetBounds(nodeReactions, centered(body, 80, 5))
}

func (a *App) resize(w, h int) {
	logger.Debug("tui.app: resize width=%d height=%d", w, h)
	a.sched.Resize(w, h)
	a.layout(w, h)
	a.shown = nil
}

// Run starts the application and blocks until it exits or ctx is done.
func (a *App) Run(ctx context.Context) error {
	if err := a.init(); err != nil {
		return err
	}
	defer a.screen.Fini()
	defer a.fetch.Close()

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	go a.tick(ctx)
	go func() {
		<-ctx.Done()
		_ = a.screen.PostEvent(tcell.NewEventInterrupt(quitEvent{}))
	}()

	for !a.quit && ctx.Err() == nil {
		ev := a.screen.PollEvent()
		if ev == nil {
			break
		}
		a.step(ev)
	}
	logger.Info("tui.app: event loop stopped")
	return nil
}

// init prepares the screen, starts the initial fetches and draws the first
// frame.
func (a *App) init() error {
	if a.screen == nil {
		s, err := tcell.NewScreen()
		if err != nil {
			return fmt.Errorf("create screen: %w", err)
		}
		a.screen = s
	}
	if err := a.screen.Init(); err != nil {
		return fmt.Errorf("init screen: %w", err)
	}
	a.fetch.SetWake(a.wake)
	w, h := a.screen.Size()
	a.resize(w, h)
	a.loadInitialData()
	a.step(nil)
	return nil
}

// wake nudges the event loop. It is safe from any goroutine.
func (a *App) wake() {
	_ = a.screen.PostEvent(tcell.NewEventInterrupt(nil))
}

// tick advances the spinner while anything is pending.
func (a *App) tick(ctx context.Context) {
	t := time.NewTicker(spinInterval)
	defer t.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-t.C:
			if a.busy.Load() {
				_ = a.screen.PostEvent(tcell.NewEventInterrupt(spinTick{}))
			}
		}
	}
}

// step runs one loop iteration for ev, which may be nil.
func (a *App) step(ev tcell.Event) {
	if ev != nil {
		a.safely("event", func() { a.handleEvent(ev) })
	}
	a.drainResults()
	a.syncDirty()
	a.draw()
}

func (a *App) handleEvent(ev tcell.Event) {
	switch ev := ev.(type) {
	case *tcell.EventResize:
		a.resize(ev.Size())
	case *tcell.EventKey:
		id, ok := a.focus.Dispatch(ev)
		logger.Debug("tui.app: key=%s node=%s handled=%t", ev.Name(), id, ok)
	case *tcell.EventInterrupt:
		switch ev.Data().(type) {
		case spinTick:
			a.spin.Advance()
			for _, m := range a.widgets {
				if s, ok := m.widget.(interface{ spinning() bool }); ok && s.spinning() {
					m.widget.base().markDirty()
				}
			}
		case quitEvent:
			a.quit = true
		}
	}
}

func (a *App) drainResults() {
	for _, res := range a.fetch.PollResults() {
		logger.Debug("tui.app: apply target=%s gen=%d task=%s", res.Target, res.Generation, res.TaskID)
		a.safely(string(res.Target), res.Apply)
	}
}

// syncDirty moves focus and dirtiness from the widgets into the scheduler.
func (a *App) syncDirty() {
	active := a.focus.Active()
	pending := a.fetch.AnyPending()
	a.busy.Store(pending)
	a.status.SetBusy(pending)
	a.status.SetCount(len(a.issues.Issues()))
	a.status.setHints(a.hintsFor(active))
	for _, m := range a.widgets {
		b := m.widget.base()
		b.setFocused(m.id == active)
		if b.dirty {
			a.sched.MarkDirty(m.id)
			b.dirty = false
		}
	}
}

func (a *App) draw() {
	frame := a.sched.Render(frameBudget)
	if len(a.sched.Dirty()) > 0 {
		a.wake()
	}
	if frame == a.shown {
		return
	}
	a.present(frame)
}

// present writes the cells that differ from the last shown frame.
func (a *App) present(f *Frame) {
	prev := a.shown
	full := prev == nil || prev.Width != f.Width || prev.Height != f.Height
	if full {
		a.screen.Clear()
	}
	for y := 0; y < f.Height; y++ {
		for x := 0; x < f.Width; x++ {
			c := f.Cell(x, y)
			if !full && prev.Cell(x, y) == c {
				continue
			}
			if c.Rune == 0 {
				continue
			}
			a.screen.SetContent(x, y, c.Rune, nil, c.Style)
		}
	}
	if x, y, ok := f.Cursor(); ok {
		a.screen.ShowCursor(x, y)
	} else {
		a.screen.HideCursor()
	}
	a.screen.Show()
	a.shown = f
}

// safely runs fn and turns a panic into a log entry and a status message.
func (a *App) safely(what string, fn func()) {
	defer func() {
		if r := recover(); r != nil {
			logger.Error("tui.app: panic in %s: %v\n%s", what, r, debug.Stack())
			a.updateStatusBarWithError(fmt.Errorf("internal error in %s: %v", what, r))
		}
	}()
	fn()
}

// InterceptKey runs global commands before the focused widget sees the key.
func (a *App) InterceptKey(ev *tcell.EventKey) bool {
	for i := range a.commands {
		if cmd := &a.commands[i]; cmd.Matches(ev) {
			logger.Debug("tui.app: command=%s key=%s", cmd.ID, ev.Name())
			cmd.Run(a)
			return true
		}
	}
	return false
}

// HandleKey handles keys when the root itself is focused. Keys bubbling up
// from a child were already offered to InterceptKey.
func (a *App) HandleKey(ev *tcell.EventKey) bool {
	if a.focus.Active() != nodeApp {
		return false
	}
	return a.InterceptKey(ev)
}

func (a *App) hintsFor(id NodeID) []hint {
	switch id {
	case nodeIssues:
		return []hint{{"j/k", "move"}, {"Enter", "open"}, {"/", "search"}, {"#", "go to"}, {"?", "help"}, {"q", "quit"}}
	case nodeConversation:
		return []hint{{"j/k", "scroll"}, {"n/p", "comment"}, {"c", "reply"}, {"l", "labels"}, {"+", "react"}, {"Esc", "back"}}
	}
	return nil
}

func (a *App) setActive(id NodeID) {
	if err := a.focus.SetActive(id); err != nil {
		logger.Warning("tui.app: cannot focus node=%s error=%v", id, err)
	}
}

func (a *App) widget(id NodeID) Widget {
	for _, m := range a.widgets {
		if m.id == id {
			return m.widget
		}
	}
	return nil
}

// openOverlay shows id above the panes and gives it every key.
func (a *App) openOverlay(id NodeID) {
	if a.focus.Parent(id) == nodeApp && !a.focus.IsCaptured() {
		a.returnTo = a.focus.Active()
	}
	if err := a.focus.SetVisible(id, true); err != nil {
		logger.ErrorWithErr(err, "tui.app: failed to show overlay id=%s", id)
		return
	}
	a.sched.SetVisible(id, true)
	_ = a.focus.Capture(id)
	a.setActive(id)
	a.widget(id).base().markDirty()
	logger.Debug("tui.app: overlay opened id=%s return=%s", id, a.returnTo)
}

// closeOverlay hides id and returns focus to where it was opened from.
func (a *App) closeOverlay(id NodeID) {
	if w, ok := a.widget(id).(interface{ Close() }); ok {
		w.Close()
	}
	_ = a.focus.Release(id)
	_ = a.focus.SetVisible(id, false)
	a.sched.SetVisible(id, false)
	if id == nodeColors {
		a.setActive(nodeLabels)
	} else if a.focus.Active() == nodeApp {
		if err := a.focus.SetActive(a.returnTo); err != nil {
			a.setActive(nodeIssues)
		}
	}
	logger.Debug("tui.app: overlay closed id=%s", id)
}

// updateStatusBarWithError shows err in the status bar.
func (a *App) updateStatusBarWithError(err error) {
	a.status.SetError(cause(err))
}

// cause strips the fetch wrapper for display.
func cause(err error) error {
	var ff *fetch.FetchFailedError
	if errors.As(err, &ff) {
		return ff.Cause
	}
	return err
}

// targetIssue is the issue commands act on: the list selection when the
// list is focused, otherwise the open conversation.
func (a *App) targetIssue() (githubapi.Issue, error) {
	if a.focus.Active() != nodeIssues {
		if issue, ok := a.conversation.Issue(); ok {
			return issue, nil
		}
	}
	if issue, ok := a.issues.Selected(); ok {
		return issue, nil
	}
	if issue, ok := a.conversation.Issue(); ok {
		return issue, nil
	}
	return githubapi.Issue{}, errNoIssue
}

// loadInitialData fetches the viewer and the first page of issues.
func (a *App) loadInitialData() {
	a.fetch.Request(targetViewer, func(ctx context.Context) (any, error) {
		return a.tracker.Viewer(ctx)
	}, func(payload any, err error) {
		if err != nil {
			logger.Warning("tui.app: failed to load current user error=%v", err)
			return
		}
		a.viewer = payload.(githubapi.User)
		a.status.SetLogin(a.viewer.Login)
		logger.Debug("tui.app: current user loaded user=%s", a.viewer.Login)
	})
	a.refreshIssues(a.query)
}

// refresh reloads the list and the open conversation.
func (a *App) refresh() {
	a.refreshIssues(a.query)
	if a.viewing != 0 {
		a.openIssue(a.viewing)
	}
}

// refreshIssues loads the list for query.
func (a *App) refreshIssues(query string) {
	a.issues.SetBusy(true)
	first := a.config.PageSize
	a.fetch.Request(targetIssues, func(ctx context.Context) (any, error) {
		return a.tracker.ListIssues(ctx, query, first)
	}, func(payload any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to load issues query=%q", query)
			a.issues.SetError(cause(err).Error())
			a.search.Failed(cause(err))
			return
		}
		issues := payload.([]githubapi.Issue)
		a.query = query
		a.issues.SetIssues(issues)
		if a.search.State() == StateSubmitting {
			a.search.Succeeded()
			a.closeOverlay(nodeSearch)
		}
		logger.Info("tui.app: loaded issues count=%d query=%q", len(issues), query)
	})
}

func (a *App) searchIssues(query string) {
	logger.Debug("tui.app: search query=%q", query)
	a.refreshIssues(query)
}

func (a *App) issueJob(number int) fetch.Job {
	return func(ctx context.Context) (any, error) {
		var p issuePayload
		err := fetch.Group(ctx,
			func(ctx context.Context) (err error) {
				p.issue, err = a.tracker.FetchIssue(ctx, number)
				return err
			},
			func(ctx context.Context) (err error) {
				p.comments, err = a.tracker.FetchComments(ctx, number)
				return err
			},
		)
		return p, err
	}
}

// openIssue loads issue number into the conversation pane.
func (a *App) openIssue(number int) {
	a.viewing = number
	a.conversation.Loading(number)
	a.fetch.Request(fetch.Targetf("issue:%d", number), a.issueJob(number), func(payload any, err error) {
		if a.viewing != number {
			logger.Debug("tui.app: dropping issue=%d, now viewing=%d", number, a.viewing)
			return
		}
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to load issue=%d", number)
			a.conversation.SetError(cause(err).Error())
			return
		}
		a.applyIssue(payload.(issuePayload))
	})
}

// gotoIssue is NumberNav's submit: the overlay stays up until the issue
// loads or fails. A jump closed with Esc only refreshes what is on screen.
func (a *App) gotoIssue(number int) {
	a.jumping = number
	a.fetch.Request(fetch.Targetf("issue:%d", number), a.issueJob(number), func(payload any, err error) {
		live := a.jumping == number && a.numnav.State() == StateSubmitting
		if live {
			a.jumping = 0
		}
		if err != nil {
			logger.Warning("tui.app: go to issue=%d failed error=%v", number, err)
			if live {
				a.numnav.Failed(number, cause(err))
			}
			if a.viewing == number {
				a.conversation.SetError(cause(err).Error())
			}
			return
		}
		p := payload.(issuePayload)
		if !live {
			logger.Debug("tui.app: go to issue=%d was cancelled", number)
			a.issues.UpdateIssue(p.issue)
			if a.viewing == number {
				a.applyIssue(p)
			}
			return
		}
		a.numnav.Succeeded()
		a.closeOverlay(nodeNumberNav)
		a.viewing = number
		a.applyIssue(p)
		a.issues.Select(number)
		a.setActive(nodeConversation)
	})
}

func (a *App) applyIssue(p issuePayload) {
	a.conversation.SetIssue(p.issue, p.comments)
	a.issues.UpdateIssue(p.issue)
	if a.config.Features.Reactions {
		a.loadReactions(p.issue.Number)
	}
}

// loadReactions fills the conversation's reaction line.
func (a *App) loadReactions(number int) {
	a.conversation.ReactionsLoading()
	a.fetch.Request(fetch.Targetf("reactions:%d", number), func(ctx context.Context) (any, error) {
		return a.tracker.FetchReactions(ctx, number)
	}, func(payload any, err error) {
		if a.viewing != number {
			return
		}
		if err != nil {
			logger.Warning("tui.app: failed to load reactions issue=%d error=%v", number, err)
			a.conversation.ReactionsFailed()
			return
		}
		a.conversation.SetReactions(payload.(githubapi.ReactionSummary))
	})
}

// reconcile re-fetches the list, and number when it is the open
// conversation, after a mutation on number succeeded.
func (a *App) reconcile(number int) {
	a.refreshIssues(a.query)
	if a.viewing == number {
		a.openIssue(number)
	}
}

func (a *App) postComment(issueID string, number int, body string) {
	a.fetch.Request(fetch.Targetf("comment:%d", number), func(ctx context.Context) (any, error) {
		return a.tracker.PostComment(ctx, issueID, body)
	}, func(_ any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to post comment issue=%d", number)
			a.editor.Failed(cause(err))
			return
		}
		logger.Info("tui.app: posted comment issue=%d", number)
		a.editor.Succeeded()
		a.closeOverlay(nodeEditor)
		a.status.SetMessage(fmt.Sprintf("Comment posted on #%d", number))
		a.reconcile(number)
	})
}

func (a *App) showLabels() {
	issue, err := a.targetIssue()
	if err != nil {
		a.updateStatusBarWithError(err)
		return
	}
	a.labels.Open(issue)
	a.openOverlay(nodeLabels)
	a.fetchLabels()
}

// fetchLabels loads the repository labels into the picker.
func (a *App) fetchLabels() {
	a.fetch.Request(targetLabels, func(ctx context.Context) (any, error) {
		return a.tracker.ListLabels(ctx)
	}, func(payload any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to load labels")
			a.labels.LoadFailed(cause(err))
			return
		}
		a.labels.SetLabels(payload.([]githubapi.Label))
	})
}

func (a *App) setLabels(issueID string, number int, labelIDs []string) {
	a.fetch.Request(fetch.Targetf("set-labels:%d", number), func(ctx context.Context) (any, error) {
		return nil, a.tracker.SetLabels(ctx, issueID, labelIDs)
	}, func(_ any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to set labels issue=%d", number)
			a.labels.Failed(cause(err))
			return
		}
		logger.Info("tui.app: set labels issue=%d count=%d", number, len(labelIDs))
		a.labels.Succeeded()
		a.closeOverlay(nodeLabels)
		a.status.SetMessage(fmt.Sprintf("Labels updated on #%d", number))
		a.reconcile(number)
	})
}

func (a *App) createLabel(name, hex string) {
	a.fetch.Request(fetch.Target("create-label"), func(ctx context.Context) (any, error) {
		return a.tracker.CreateLabel(ctx, name, hex)
	}, func(payload any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to create label name=%s", name)
			a.colors.Failed(cause(err))
			return
		}
		label := payload.(githubapi.Label)
		logger.Info("tui.app: created label name=%s color=%s", label.Name, label.Color)
		a.colors.Succeeded()
		a.closeOverlay(nodeColors)
		a.labels.AddLabel(label)
		a.fetchLabels()
	})
}

func (a *App) showReactions() {
	if !a.config.Features.Reactions {
		a.status.SetMessage("Reactions are disabled")
		return
	}
	subjectID, label, current, ok := a.conversation.ReactionTarget()
	if !ok {
		a.updateStatusBarWithError(errNoIssue)
		return
	}
	a.reactions.Open(subjectID, label, current)
	a.openOverlay(nodeReactions)
}

func (a *App) toggleReaction(subjectID string, kind githubapi.ReactionKind, add bool) {
	a.fetch.Request(fetch.Target("react:"+subjectID), func(ctx context.Context) (any, error) {
		if add {
			return nil, a.tracker.AddReaction(ctx, subjectID, kind)
		}
		return nil, a.tracker.RemoveReaction(ctx, subjectID, kind)
	}, func(_ any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to update reaction subject=%s kind=%s", subjectID, kind)
			a.reactions.Failed(cause(err))
			return
		}
		a.reactions.Succeeded()
		a.closeOverlay(nodeReactions)
		if a.viewing != 0 {
			a.loadReactions(a.viewing)
		}
	})
}

func (a *App) toggleState() {
	issue, err := a.targetIssue()
	if err != nil {
		a.updateStatusBarWithError(err)
		return
	}
	closing := issue.IsOpen()
	verb := "Reopening"
	if closing {
		verb = "Closing"
	}
	a.status.SetMessage(fmt.Sprintf("%s #%d…", verb, issue.Number))
	a.fetch.Request(fetch.Targetf("state:%d", issue.Number), func(ctx context.Context) (any, error) {
		if closing {
			return nil, a.tracker.CloseIssue(ctx, issue.ID)
		}
		return nil, a.tracker.ReopenIssue(ctx, issue.ID)
	}, func(_ any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to change state issue=%d", issue.Number)
			a.updateStatusBarWithError(err)
			return
		}
		done := "Reopened"
		if closing {
			done = "Closed"
		}
		logger.Info("tui.app: %s issue=%d", done, issue.Number)
		a.status.SetMessage(fmt.Sprintf("%s #%d", done, issue.Number))
		a.reconcile(issue.Number)
	})
}

func (a *App) toggleAssignMe() {
	issue, err := a.targetIssue()
	if err != nil {
		a.updateStatusBarWithError(err)
		return
	}
	if a.viewer.ID == "" {
		a.updateStatusBarWithError(errors.New("current user not loaded yet"))
		return
	}
	assign := !issue.AssignedTo(a.viewer.ID)
	ids := make([]string, 0, len(issue.Assignees)+1)
	for _, u := range issue.Assignees {
		if u.ID != a.viewer.ID {
			ids = append(ids, u.ID)
		}
	}
	if assign {
		ids = append(ids, a.viewer.ID)
	}
	a.fetch.Request(fetch.Targetf("assignees:%d", issue.Number), func(ctx context.Context) (any, error) {
		return nil, a.tracker.SetAssignees(ctx, issue.ID, ids)
	}, func(_ any, err error) {
		if err != nil {
			logger.ErrorWithErr(err, "tui.app: failed to set assignees issue=%d", issue.Number)
			a.updateStatusBarWithError(err)
			return
		}
		msg := fmt.Sprintf("Unassigned you from #%d", issue.Number)
		if assign {
			msg = fmt.Sprintf("Assigned you to #%d", issue.Number)
		}
		a.status.SetMessage(msg)
		a.reconcile(issue.Number)
	})
}
