package githubapi

import (
	"strings"
	"time"
)

// User is a GitHub account.
type User struct {
	ID    string
	Login string
}

// Label is a repository label. Color is six hex digits without '#'.
type Label struct {
	ID    string
	Name  string
	Color string
}

// ReactionKind is a GitHub ReactionContent value.
type ReactionKind string

// GitHub reaction contents, in the order GitHub displays them.
const (
	ReactionThumbsUp   ReactionKind = "THUMBS_UP"
	ReactionThumbsDown ReactionKind = "THUMBS_DOWN"
	ReactionLaugh      ReactionKind = "LAUGH"
	ReactionHooray     ReactionKind = "HOORAY"
	ReactionConfused   ReactionKind = "CONFUSED"
	ReactionHeart      ReactionKind = "HEART"
	ReactionRocket     ReactionKind = "ROCKET"
	ReactionEyes       ReactionKind = "EYES"
)

// ReactionKinds lists every reaction in display order.
var ReactionKinds = []ReactionKind{
	ReactionThumbsUp, ReactionThumbsDown, ReactionLaugh, ReactionHooray,
	ReactionConfused, ReactionHeart, ReactionRocket, ReactionEyes,
}

var reactionEmoji = map[ReactionKind]string{
	ReactionThumbsUp:   "👍",
	ReactionThumbsDown: "👎",
	ReactionLaugh:      "😄",
	ReactionHooray:     "🎉",
	ReactionConfused:   "😕",
	ReactionHeart:      "❤",
	ReactionRocket:     "🚀",
	ReactionEyes:       "👀",
}

// Emoji returns the display glyph for k.
func (k ReactionKind) Emoji() string {
	if e, ok := reactionEmoji[k]; ok {
		return e
	}
	return strings.ToLower(string(k))
}

// Reaction is the aggregate for one reaction kind on a subject.
type Reaction struct {
	Count         int
	ViewerReacted bool
}

// Reactions maps reaction kinds to their aggregate. Kinds with no
// reactions are absent.
type Reactions map[ReactionKind]Reaction

// Total returns the number of reactions of every kind.
func (r Reactions) Total() int {
	n := 0
	for _, v := range r {
		n += v.Count
	}
	return n
}

// ReactionSummary holds the reactions of an issue and of its comments,
// keyed by comment ID.
type ReactionSummary struct {
	Issue    Reactions
	Comments map[string]Reactions
}

// Comment is an issue comment.
type Comment struct {
	ID              string
	Author          string
	Body            string
	CreatedAt       time.Time
	ViewerCanUpdate bool
	Reactions       Reactions
}

// IssueState is OPEN or CLOSED.
type IssueState string

// Issue states.
const (
	StateOpen   IssueState = "OPEN"
	StateClosed IssueState = "CLOSED"
)

// Issue is a GitHub issue. Comments are only populated by FetchComments.
type Issue struct {
	ID           string
	Number       int
	Title        string
	Body         string
	State        IssueState
	Author       string
	URL          string
	CreatedAt    time.Time
	UpdatedAt    time.Time
	Labels       []Label
	Assignees    []User
	CommentCount int
	Comments     []Comment
	Reactions    Reactions
}

// IsOpen reports whether the issue is open.
func (i Issue) IsOpen() bool {
	return i.State == StateOpen
}

// HasLabel reports whether the issue carries a label with the given ID.
func (i Issue) HasLabel(id string) bool {
	for _, l := range i.Labels {
		if l.ID == id {
			return true
		}
	}
	return false
}

// AssignedTo reports whether userID is among the assignees.
func (i Issue) AssignedTo(userID string) bool {
	for _, u := range i.Assignees {
		if u.ID == userID {
			return true
		}
	}
	return false
}
