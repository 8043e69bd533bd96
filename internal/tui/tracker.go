package tui

import (
	"context"

	"github.com/roeyazroel/issuedash/internal/githubapi"
)

// Tracker is the issue tracker the App talks to. *githubapi.Client
// implements it; tests pass a fake.
type Tracker interface {
	Viewer(ctx context.Context) (githubapi.User, error)
	ListIssues(ctx context.Context, query string, first int) ([]githubapi.Issue, error)
	FetchIssue(ctx context.Context, number int) (githubapi.Issue, error)
	FetchComments(ctx context.Context, number int) ([]githubapi.Comment, error)
	FetchReactions(ctx context.Context, number int) (githubapi.ReactionSummary, error)
	ListLabels(ctx context.Context) ([]githubapi.Label, error)
	PostComment(ctx context.Context, issueID, body string) (githubapi.Comment, error)
	SetLabels(ctx context.Context, issueID string, labelIDs []string) error
	CreateLabel(ctx context.Context, name, color string) (githubapi.Label, error)
	AddReaction(ctx context.Context, subjectID string, kind githubapi.ReactionKind) error
	RemoveReaction(ctx context.Context, subjectID string, kind githubapi.ReactionKind) error
	SetAssignees(ctx context.Context, issueID string, userIDs []string) error
	CloseIssue(ctx context.Context, issueID string) error
	ReopenIssue(ctx context.Context, issueID string) error
}

var _ Tracker = (*githubapi.Client)(nil)
