// Package githubapi is a small GitHub GraphQL client covering the issue
// operations the dashboard needs.
package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shurcooL/graphql"
	"golang.org/x/time/rate"

	"github.com/roeyazroel/issuedash/internal/logger"
)

// DefaultEndpoint is GitHub's GraphQL endpoint.
const DefaultEndpoint = "https://api.github.com/graphql"

// ErrNotFound is returned when the requested issue does not exist.
var ErrNotFound = errors.New("not found")

// parseTime safely parses an RFC3339 time string, returning zero time on error.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// The Go type names of the input maps below must match the GraphQL input
// type names exactly; the graphql package derives variable types from them.

// AddCommentInput is GitHub's AddCommentInput.
type AddCommentInput map[string]interface{}

// UpdateIssueInput is GitHub's UpdateIssueInput.
type UpdateIssueInput map[string]interface{}

// CloseIssueInput is GitHub's CloseIssueInput.
type CloseIssueInput map[string]interface{}

// ReopenIssueInput is GitHub's ReopenIssueInput.
type ReopenIssueInput map[string]interface{}

// AddReactionInput is GitHub's AddReactionInput.
type AddReactionInput map[string]interface{}

// RemoveReactionInput is GitHub's RemoveReactionInput.
type RemoveReactionInput map[string]interface{}

// CreateLabelInput is GitHub's CreateLabelInput.
type CreateLabelInput map[string]interface{}

func marshalInput(m map[string]interface{}) ([]byte, error) { return json.Marshal(m) }

// MarshalJSON implements json.Marshaler.
func (i AddCommentInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// MarshalJSON implements json.Marshaler.
func (i UpdateIssueInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// MarshalJSON implements json.Marshaler.
func (i CloseIssueInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// MarshalJSON implements json.Marshaler.
func (i ReopenIssueInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// MarshalJSON implements json.Marshaler.
func (i AddReactionInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// MarshalJSON implements json.Marshaler.
func (i RemoveReactionInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// MarshalJSON implements json.Marshaler.
func (i CreateLabelInput) MarshalJSON() ([]byte, error) { return marshalInput(i) }

// ClientConfig contains configuration for creating a new GitHub API client.
type ClientConfig struct {
	// Token is a GitHub personal access token.
	Token string
	// Owner and Repo select the repository every call operates on.
	Owner string
	Repo  string
	// Endpoint is the GraphQL API endpoint (defaults to api.github.com).
	Endpoint string
	// HTTPClient is an optional custom HTTP client (useful for testing).
	HTTPClient *http.Client
	// Timeout is the HTTP request timeout (defaults to 30s).
	Timeout time.Duration
	// RateLimit caps requests per second. Zero disables limiting.
	RateLimit float64
}

// Client is a client for the GitHub GraphQL API scoped to one repository.
type Client struct {
	httpClient *http.Client
	endpoint   string
	token      string
	owner      string
	repo       string
	client     *graphql.Client

	repoMu sync.Mutex
	repoID string
}

// NewClient creates a new GitHub API client with the provided configuration.
func NewClient(cfg ClientConfig) *Client {
	endpoint := cfg.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}

	timeout := cfg.Timeout
	if timeout == 0 {
		timeout = 30 * time.Second
	}

	var limiter *rate.Limiter
	if cfg.RateLimit > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimit), int(cfg.RateLimit)+1)
	}

	var httpClient *http.Client
	if cfg.HTTPClient != nil {
		// Use provided HTTP client but wrap its transport with auth
		httpClient = cfg.HTTPClient
		if httpClient.Transport == nil {
			httpClient.Transport = http.DefaultTransport
		}
		httpClient.Transport = &authTransport{
			Token:   cfg.Token,
			Base:    httpClient.Transport,
			Limiter: limiter,
		}
	} else {
		httpClient = &http.Client{
			Timeout: timeout,
			Transport: &authTransport{
				Token:   cfg.Token,
				Base:    http.DefaultTransport,
				Limiter: limiter,
			},
		}
	}

	return &Client{
		httpClient: httpClient,
		endpoint:   endpoint,
		token:      cfg.Token,
		owner:      cfg.Owner,
		repo:       cfg.Repo,
		client:     graphql.NewClient(endpoint, httpClient),
	}
}

// authTransport adds the Authorization header to requests and waits on the
// rate limiter before each round trip.
type authTransport struct {
	Token   string
	Base    http.RoundTripper
	Limiter *rate.Limiter
}

// RoundTrip implements http.RoundTripper.
func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	if t.Limiter != nil {
		if err := t.Limiter.Wait(req.Context()); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}
	req = req.Clone(req.Context())
	req.Header.Set("Authorization", "bearer "+t.Token)
	if t.Base == nil {
		return http.DefaultTransport.RoundTrip(req)
	}
	return t.Base.RoundTrip(req)
}

// Endpoint returns the GraphQL endpoint being used.
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Repo returns "owner/name".
func (c *Client) Repo() string {
	return c.owner + "/" + c.repo
}

func (c *Client) repoVars() map[string]interface{} {
	return map[string]interface{}{
		"owner": graphql.String(c.owner),
		"name":  graphql.String(c.repo),
	}
}

type userNode struct {
	ID    graphql.String
	Login graphql.String
}

type labelNode struct {
	ID    graphql.String
	Name  graphql.String
	Color graphql.String
}

type reactionGroupNode struct {
	Content          graphql.String
	ViewerHasReacted graphql.Boolean
	Reactors         struct {
		TotalCount graphql.Int
	}
}

type issueNode struct {
	ID        graphql.String
	Number    graphql.Int
	Title     graphql.String
	Body      graphql.String
	State     graphql.String
	URL       graphql.String
	CreatedAt graphql.String
	UpdatedAt graphql.String
	Author    *struct {
		Login graphql.String
	}
	Labels struct {
		Nodes []labelNode
	} `graphql:"labels(first: 50)"`
	Assignees struct {
		Nodes []userNode
	} `graphql:"assignees(first: 20)"`
	Comments struct {
		TotalCount graphql.Int
	}
}

type commentNode struct {
	ID              graphql.String
	Body            graphql.String
	CreatedAt       graphql.String
	ViewerCanUpdate graphql.Boolean
	Author          *struct {
		Login graphql.String
	}
}

func (n issueNode) issue() Issue {
	issue := Issue{
		ID:           string(n.ID),
		Number:       int(n.Number),
		Title:        string(n.Title),
		Body:         string(n.Body),
		State:        IssueState(n.State),
		URL:          string(n.URL),
		CreatedAt:    parseTime(string(n.CreatedAt)),
		UpdatedAt:    parseTime(string(n.UpdatedAt)),
		CommentCount: int(n.Comments.TotalCount),
	}
	if n.Author != nil {
		issue.Author = string(n.Author.Login)
	}
	issue.Labels = make([]Label, 0, len(n.Labels.Nodes))
	for _, l := range n.Labels.Nodes {
		issue.Labels = append(issue.Labels, l.label())
	}
	issue.Assignees = make([]User, 0, len(n.Assignees.Nodes))
	for _, u := range n.Assignees.Nodes {
		issue.Assignees = append(issue.Assignees, User{ID: string(u.ID), Login: string(u.Login)})
	}
	return issue
}

func (n labelNode) label() Label {
	return Label{ID: string(n.ID), Name: string(n.Name), Color: strings.ToLower(string(n.Color))}
}

func (n commentNode) comment() Comment {
	c := Comment{
		ID:              string(n.ID),
		Body:            string(n.Body),
		CreatedAt:       parseTime(string(n.CreatedAt)),
		ViewerCanUpdate: bool(n.ViewerCanUpdate),
	}
	if n.Author != nil {
		c.Author = string(n.Author.Login)
	} else {
		c.Author = "ghost"
	}
	return c
}

func reactions(groups []reactionGroupNode) Reactions {
	out := make(Reactions)
	for _, g := range groups {
		count := int(g.Reactors.TotalCount)
		if count == 0 && !bool(g.ViewerHasReacted) {
			continue
		}
		out[ReactionKind(g.Content)] = Reaction{Count: count, ViewerReacted: bool(g.ViewerHasReacted)}
	}
	return out
}

// notFound maps GitHub's "Could not resolve" errors to ErrNotFound.
func notFound(err error) error {
	if err != nil && strings.Contains(err.Error(), "Could not resolve") {
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	}
	return err
}

// Viewer fetches the authenticated user.
func (c *Client) Viewer(ctx context.Context) (User, error) {
	var query struct {
		Viewer userNode
	}
	if err := c.client.Query(ctx, &query, nil); err != nil {
		logger.ErrorWithErr(err, "API: Viewer failed")
		return User{}, fmt.Errorf("viewer: %w", err)
	}
	return User{ID: string(query.Viewer.ID), Login: string(query.Viewer.Login)}, nil
}

// ListIssues runs an issue search. An empty query lists open issues of the
// configured repository.
func (c *Client) ListIssues(ctx context.Context, query string, first int) ([]Issue, error) {
	if strings.TrimSpace(query) == "" {
		query = fmt.Sprintf("repo:%s is:issue is:open", c.Repo())
	}
	if first <= 0 || first > 100 {
		first = 50
	}
	var q struct {
		Search struct {
			Nodes []struct {
				Issue issueNode `graphql:"... on Issue"`
			}
		} `graphql:"search(query: $query, type: ISSUE, first: $first)"`
	}
	variables := map[string]interface{}{
		"query": graphql.String(query),
		"first": graphql.Int(first),
	}
	if err := c.client.Query(ctx, &q, variables); err != nil {
		logger.ErrorWithErr(err, "API: ListIssues failed query=%q", query)
		return nil, fmt.Errorf("list issues: %w", err)
	}

	issues := make([]Issue, 0, len(q.Search.Nodes))
	for _, n := range q.Search.Nodes {
		if n.Issue.Number == 0 {
			continue
		}
		issues = append(issues, n.Issue.issue())
	}
	logger.Debug("API: ListIssues returned %d issues", len(issues))
	return issues, nil
}

// FetchIssue fetches one issue by number, without comments.
func (c *Client) FetchIssue(ctx context.Context, number int) (Issue, error) {
	var q struct {
		Repository struct {
			Issue *issueNode `graphql:"issue(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := c.repoVars()
	variables["number"] = graphql.Int(number)

	if err := c.client.Query(ctx, &q, variables); err != nil {
		logger.ErrorWithErr(err, "API: FetchIssue failed for #%d", number)
		return Issue{}, fmt.Errorf("fetch issue #%d: %w", number, notFound(err))
	}
	if q.Repository.Issue == nil {
		return Issue{}, fmt.Errorf("fetch issue #%d: %w", number, ErrNotFound)
	}
	return q.Repository.Issue.issue(), nil
}

// FetchComments fetches the first page of comments on an issue.
func (c *Client) FetchComments(ctx context.Context, number int) ([]Comment, error) {
	var q struct {
		Repository struct {
			Issue *struct {
				Comments struct {
					Nodes []commentNode
				} `graphql:"comments(first: 100)"`
			} `graphql:"issue(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := c.repoVars()
	variables["number"] = graphql.Int(number)

	if err := c.client.Query(ctx, &q, variables); err != nil {
		logger.ErrorWithErr(err, "API: FetchComments failed for #%d", number)
		return nil, fmt.Errorf("fetch comments #%d: %w", number, notFound(err))
	}
	if q.Repository.Issue == nil {
		return nil, fmt.Errorf("fetch comments #%d: %w", number, ErrNotFound)
	}
	comments := make([]Comment, 0, len(q.Repository.Issue.Comments.Nodes))
	for _, n := range q.Repository.Issue.Comments.Nodes {
		comments = append(comments, n.comment())
	}
	return comments, nil
}

// FetchReactions fetches reaction aggregates for an issue and its comments.
func (c *Client) FetchReactions(ctx context.Context, number int) (ReactionSummary, error) {
	var q struct {
		Repository struct {
			Issue *struct {
				ReactionGroups []reactionGroupNode
				Comments       struct {
					Nodes []struct {
						ID             graphql.String
						ReactionGroups []reactionGroupNode
					}
				} `graphql:"comments(first: 100)"`
			} `graphql:"issue(number: $number)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	variables := c.repoVars()
	variables["number"] = graphql.Int(number)

	if err := c.client.Query(ctx, &q, variables); err != nil {
		logger.ErrorWithErr(err, "API: FetchReactions failed for #%d", number)
		return ReactionSummary{}, fmt.Errorf("fetch reactions #%d: %w", number, notFound(err))
	}
	if q.Repository.Issue == nil {
		return ReactionSummary{}, fmt.Errorf("fetch reactions #%d: %w", number, ErrNotFound)
	}
	summary := ReactionSummary{
		Issue:    reactions(q.Repository.Issue.ReactionGroups),
		Comments: make(map[string]Reactions, len(q.Repository.Issue.Comments.Nodes)),
	}
	for _, n := range q.Repository.Issue.Comments.Nodes {
		summary.Comments[string(n.ID)] = reactions(n.ReactionGroups)
	}
	return summary, nil
}

// ListLabels fetches the repository's labels sorted by name.
func (c *Client) ListLabels(ctx context.Context) ([]Label, error) {
	var q struct {
		Repository struct {
			ID     graphql.String
			Labels struct {
				Nodes []labelNode
			} `graphql:"labels(first: 100)"`
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	if err := c.client.Query(ctx, &q, c.repoVars()); err != nil {
		logger.ErrorWithErr(err, "API: ListLabels failed")
		return nil, fmt.Errorf("list labels: %w", err)
	}
	labels := make([]Label, 0, len(q.Repository.Labels.Nodes))
	for _, n := range q.Repository.Labels.Nodes {
		labels = append(labels, n.label())
	}
	sort.Slice(labels, func(i, j int) bool {
		return strings.ToLower(labels[i].Name) < strings.ToLower(labels[j].Name)
	})
	return labels, nil
}

// repositoryID resolves and memoises the repository node ID.
func (c *Client) repositoryID(ctx context.Context) (string, error) {
	c.repoMu.Lock()
	defer c.repoMu.Unlock()
	if c.repoID != "" {
		return c.repoID, nil
	}
	var q struct {
		Repository struct {
			ID graphql.String
		} `graphql:"repository(owner: $owner, name: $name)"`
	}
	if err := c.client.Query(ctx, &q, c.repoVars()); err != nil {
		return "", fmt.Errorf("resolve repository %s: %w", c.Repo(), err)
	}
	c.repoID = string(q.Repository.ID)
	return c.repoID, nil
}

// PostComment adds a comment to an issue.
func (c *Client) PostComment(ctx context.Context, issueID, body string) (Comment, error) {
	var mutation struct {
		AddComment struct {
			CommentEdge struct {
				Node commentNode
			}
		} `graphql:"addComment(input: $input)"`
	}
	variables := map[string]interface{}{
		"input": AddCommentInput{
			"subjectId": graphql.ID(issueID),
			"body":      graphql.String(body),
		},
	}
	if err := c.client.Mutate(ctx, &mutation, variables); err != nil {
		logger.ErrorWithErr(err, "API: PostComment failed for issue %s", issueID)
		return Comment{}, fmt.Errorf("post comment: %w", err)
	}
	return mutation.AddComment.CommentEdge.Node.comment(), nil
}

func (c *Client) updateIssue(ctx context.Context, op string, input UpdateIssueInput) error {
	var mutation struct {
		UpdateIssue struct {
			Issue struct {
				ID graphql.String
			}
		} `graphql:"updateIssue(input: $input)"`
	}
	if err := c.client.Mutate(ctx, &mutation, map[string]interface{}{"input": input}); err != nil {
		logger.ErrorWithErr(err, "API: %s failed for issue %v", op, input["id"])
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

func toIDs(ids []string) []graphql.ID {
	out := make([]graphql.ID, len(ids))
	for i, id := range ids {
		out[i] = graphql.ID(id)
	}
	return out
}

// SetLabels replaces the labels on an issue.
func (c *Client) SetLabels(ctx context.Context, issueID string, labelIDs []string) error {
	return c.updateIssue(ctx, "set labels", UpdateIssueInput{
		"id":       graphql.ID(issueID),
		"labelIds": toIDs(labelIDs),
	})
}

// SetAssignees replaces the assignees on an issue.
func (c *Client) SetAssignees(ctx context.Context, issueID string, userIDs []string) error {
	return c.updateIssue(ctx, "set assignees", UpdateIssueInput{
		"id":          graphql.ID(issueID),
		"assigneeIds": toIDs(userIDs),
	})
}

// CloseIssue closes an issue.
func (c *Client) CloseIssue(ctx context.Context, issueID string) error {
	var mutation struct {
		CloseIssue struct {
			Issue struct {
				State graphql.String
			}
		} `graphql:"closeIssue(input: $input)"`
	}
	variables := map[string]interface{}{"input": CloseIssueInput{"issueId": graphql.ID(issueID)}}
	if err := c.client.Mutate(ctx, &mutation, variables); err != nil {
		logger.ErrorWithErr(err, "API: CloseIssue failed for issue %s", issueID)
		return fmt.Errorf("close issue: %w", err)
	}
	return nil
}

// ReopenIssue reopens a closed issue.
func (c *Client) ReopenIssue(ctx context.Context, issueID string) error {
	var mutation struct {
		ReopenIssue struct {
			Issue struct {
				State graphql.String
			}
		} `graphql:"reopenIssue(input: $input)"`
	}
	variables := map[string]interface{}{"input": ReopenIssueInput{"issueId": graphql.ID(issueID)}}
	if err := c.client.Mutate(ctx, &mutation, variables); err != nil {
		logger.ErrorWithErr(err, "API: ReopenIssue failed for issue %s", issueID)
		return fmt.Errorf("reopen issue: %w", err)
	}
	return nil
}

// AddReaction reacts to an issue or comment.
func (c *Client) AddReaction(ctx context.Context, subjectID string, kind ReactionKind) error {
	var mutation struct {
		AddReaction struct {
			Reaction struct {
				Content graphql.String
			}
		} `graphql:"addReaction(input: $input)"`
	}
	variables := map[string]interface{}{"input": AddReactionInput{
		"subjectId": graphql.ID(subjectID),
		"content":   string(kind),
	}}
	if err := c.client.Mutate(ctx, &mutation, variables); err != nil {
		logger.ErrorWithErr(err, "API: AddReaction %s failed for %s", kind, subjectID)
		return fmt.Errorf("add reaction: %w", err)
	}
	return nil
}

// RemoveReaction withdraws the viewer's reaction.
func (c *Client) RemoveReaction(ctx context.Context, subjectID string, kind ReactionKind) error {
	var mutation struct {
		RemoveReaction struct {
			Reaction struct {
				Content graphql.String
			}
		} `graphql:"removeReaction(input: $input)"`
	}
	variables := map[string]interface{}{"input": RemoveReactionInput{
		"subjectId": graphql.ID(subjectID),
		"content":   string(kind),
	}}
	if err := c.client.Mutate(ctx, &mutation, variables); err != nil {
		logger.ErrorWithErr(err, "API: RemoveReaction %s failed for %s", kind, subjectID)
		return fmt.Errorf("remove reaction: %w", err)
	}
	return nil
}

// CreateLabel creates a repository label. color is six hex digits.
func (c *Client) CreateLabel(ctx context.Context, name, color string) (Label, error) {
	repoID, err := c.repositoryID(ctx)
	if err != nil {
		return Label{}, fmt.Errorf("create label: %w", err)
	}
	var mutation struct {
		CreateLabel struct {
			Label labelNode
		} `graphql:"createLabel(input: $input)"`
	}
	variables := map[string]interface{}{"input": CreateLabelInput{
		"repositoryId": graphql.ID(repoID),
		"name":         graphql.String(name),
		"color":        graphql.String(strings.TrimPrefix(strings.ToLower(color), "#")),
	}}
	if err := c.client.Mutate(ctx, &mutation, variables); err != nil {
		logger.ErrorWithErr(err, "API: CreateLabel failed name=%q", name)
		return Label{}, fmt.Errorf("create label: %w", err)
	}
	return mutation.CreateLabel.Label.label(), nil
}
