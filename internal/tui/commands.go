package tui

import (
	"fmt"
	"os/exec"
	"runtime"

	"github.com/gdamore/tcell/v2"

	"github.com/roeyazroel/issuedash/internal/logger"
)

// FormatShortcut returns a human-readable string for a shortcut rune.
func FormatShortcut(r rune) string {
	if r == 0 {
		return ""
	}
	return string(r)
}

// Command is a global action bound to a key.
type Command struct {
	ID              string
	Title           string
	Keywords        []string
	ShortcutRune    rune      // The rune for the keyboard shortcut (e.g., 'r' for refresh)
	ShortcutKey     tcell.Key // A non-rune key bound in addition to, or instead of, ShortcutRune
	ShortcutDisplay string    // Custom display text for shortcut, overrides ShortcutRune display
	Run             func(a *App)
}

// Shortcut returns the text shown for the command's key.
func (c Command) Shortcut() string {
	if c.ShortcutDisplay != "" {
		return c.ShortcutDisplay
	}
	return FormatShortcut(c.ShortcutRune)
}

// Matches reports whether ev triggers the command.
func (c Command) Matches(ev *tcell.EventKey) bool {
	if ev.Modifiers()&tcell.ModAlt != 0 {
		return false
	}
	if ev.Key() == tcell.KeyRune {
		return c.ShortcutRune != 0 && ev.Rune() == c.ShortcutRune
	}
	return c.ShortcutKey != 0 && ev.Key() == c.ShortcutKey
}

// DefaultCommands returns the global command table.
func DefaultCommands() []Command {
	return []Command{
		{
			ID:              "quit",
			Title:           "Quit",
			Keywords:        []string{"quit", "exit"},
			ShortcutRune:    'q',
			ShortcutKey:     tcell.KeyCtrlC,
			ShortcutDisplay: "q/Ctrl+C",
			Run: func(a *App) {
				logger.Info("tui.commands: quit requested")
				a.quit = true
			},
		},
		{
			ID:           "help",
			Title:        "Show key bindings",
			Keywords:     []string{"help", "keys"},
			ShortcutRune: '?',
			Run: func(a *App) {
				a.help.Open()
				a.openOverlay(nodeHelp)
			},
		},
		{
			ID:           "refresh",
			Title:        "Refresh issues",
			Keywords:     []string{"refresh", "reload"},
			ShortcutRune: 'r',
			Run: func(a *App) {
				a.refresh()
			},
		},
		{
			ID:           "search",
			Title:        "Search issues",
			Keywords:     []string{"search", "find", "filter"},
			ShortcutRune: '/',
			Run: func(a *App) {
				a.search.Open()
				a.openOverlay(nodeSearch)
			},
		},
		{
			ID:           "goto",
			Title:        "Go to issue by number",
			Keywords:     []string{"goto", "number", "jump"},
			ShortcutRune: '#',
			Run: func(a *App) {
				a.numnav.Open()
				a.openOverlay(nodeNumberNav)
			},
		},
		{
			ID:           "comment",
			Title:        "Add comment",
			Keywords:     []string{"add", "comment", "reply"},
			ShortcutRune: 'c',
			Run: func(a *App) {
				issue, err := a.targetIssue()
				if err != nil {
					a.updateStatusBarWithError(err)
					return
				}
				a.editor.Open(issue.ID, issue.Number)
				a.openOverlay(nodeEditor)
			},
		},
		{
			ID:           "labels",
			Title:        "Edit labels",
			Keywords:     []string{"labels", "tag"},
			ShortcutRune: 'l',
			Run: func(a *App) {
				a.showLabels()
			},
		},
		{
			ID:           "react",
			Title:        "React to issue or comment",
			Keywords:     []string{"react", "reaction", "emoji"},
			ShortcutRune: '+',
			Run: func(a *App) {
				a.showReactions()
			},
		},
		{
			ID:           "toggle_state",
			Title:        "Close or reopen issue",
			Keywords:     []string{"close", "reopen", "state"},
			ShortcutRune: 'x',
			Run: func(a *App) {
				a.toggleState()
			},
		},
		{
			ID:           "assign_me",
			Title:        "Assign or unassign me",
			Keywords:     []string{"assign", "me", "assignee"},
			ShortcutRune: 'm',
			Run: func(a *App) {
				a.toggleAssignMe()
			},
		},
		{
			ID:           "open_browser",
			Title:        "Open issue in browser",
			Keywords:     []string{"open", "browser", "web"},
			ShortcutRune: 'o',
			Run: func(a *App) {
				issue, err := a.targetIssue()
				if err != nil {
					a.updateStatusBarWithError(err)
					return
				}
				if err := a.browser(issue.URL); err != nil {
					a.updateStatusBarWithError(err)
				}
			},
		},
		{
			ID:           "copy_url",
			Title:        "Copy issue URL",
			Keywords:     []string{"copy", "url", "yank"},
			ShortcutRune: 'y',
			Run: func(a *App) {
				issue, err := a.targetIssue()
				if err != nil {
					a.updateStatusBarWithError(err)
					return
				}
				if err := a.clipboard(issue.URL); err != nil {
					logger.ErrorWithErr(err, "tui.commands: failed to copy URL issue=%d", issue.Number)
					a.updateStatusBarWithError(fmt.Errorf("copy URL: %w", err))
					return
				}
				logger.Debug("tui.commands: copied URL issue=%d", issue.Number)
				a.status.SetMessage("Copied " + issue.URL)
			},
		},
		{
			ID:              "focus_next",
			Title:           "Next pane",
			Keywords:        []string{"focus", "next", "pane"},
			ShortcutKey:     tcell.KeyTab,
			ShortcutDisplay: "Tab",
			Run: func(a *App) {
				a.focus.FocusNext()
			},
		},
		{
			ID:              "focus_prev",
			Title:           "Previous pane",
			Keywords:        []string{"focus", "previous", "pane"},
			ShortcutKey:     tcell.KeyBacktab,
			ShortcutDisplay: "Shift+Tab",
			Run: func(a *App) {
				a.focus.FocusPrev()
			},
		},
	}
}

// openURL opens a URL in the default browser.
func openURL(url string) error {
	if url == "" {
		return fmt.Errorf("open URL: %w", errNoIssue)
	}
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.Command("open", url)
	case "linux":
		cmd = exec.Command("xdg-open", url)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", url)
	default:
		logger.Warning("tui.commands: unsupported OS for opening URLs os=%s", runtime.GOOS)
		return nil
	}

	if err := cmd.Start(); err != nil {
		logger.ErrorWithErr(err, "tui.commands: failed to open URL url=%s", url)
		return err
	}

	logger.Debug("tui.commands: opened URL in browser url=%s", url)
	return nil
}
