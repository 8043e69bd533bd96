package githubapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
)

type gqlRequest struct {
	Query     string                 `json:"query"`
	Variables map[string]interface{} `json:"variables"`
}

// testServer records every GraphQL request and answers with respond.
type testServer struct {
	mu       sync.Mutex
	requests []gqlRequest
	auth     []string
}

func newTestClient(t *testing.T, respond func(req gqlRequest) string) (*Client, *testServer) {
	t.Helper()
	ts := &testServer{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req gqlRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Errorf("decode request: %v", err)
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		ts.mu.Lock()
		ts.requests = append(ts.requests, req)
		ts.auth = append(ts.auth, r.Header.Get("Authorization"))
		ts.mu.Unlock()
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(respond(req)))
	}))
	t.Cleanup(srv.Close)

	client := NewClient(ClientConfig{
		Token:    "tok",
		Owner:    "octo",
		Repo:     "widgets",
		Endpoint: srv.URL,
	})
	return client, ts
}

const issueJSON = `{
	"id": "I_1",
	"number": 42,
	"title": "Broken widget",
	"body": "It **broke**.",
	"state": "OPEN",
	"url": "https://github.com/octo/widgets/issues/42",
	"createdAt": "2025-01-02T03:04:05Z",
	"updatedAt": "2025-01-03T03:04:05Z",
	"author": {"login": "alice"},
	"labels": {"nodes": [{"id": "L_1", "name": "bug", "color": "D73A4A"}]},
	"assignees": {"nodes": [{"id": "U_1", "login": "bob"}]},
	"comments": {"totalCount": 3}
}`

func TestNewClient_Defaults(t *testing.T) {
	client := NewClient(ClientConfig{Token: "t", Owner: "o", Repo: "r"})
	if client.Endpoint() != DefaultEndpoint {
		t.Errorf("Endpoint() = %q, want %q", client.Endpoint(), DefaultEndpoint)
	}
	if client.Repo() != "o/r" {
		t.Errorf("Repo() = %q, want %q", client.Repo(), "o/r")
	}
	if client.httpClient == nil || client.client == nil {
		t.Error("NewClient() left clients nil")
	}
}

func TestFetchIssue(t *testing.T) {
	client, ts := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"repository": {"issue": ` + issueJSON + `}}}`
	})

	issue, err := client.FetchIssue(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchIssue() error = %v", err)
	}
	if issue.Number != 42 || issue.Title != "Broken widget" || !issue.IsOpen() {
		t.Errorf("FetchIssue() = %+v", issue)
	}
	if issue.Author != "alice" {
		t.Errorf("Author = %q, want %q", issue.Author, "alice")
	}
	if len(issue.Labels) != 1 || issue.Labels[0].Color != "d73a4a" {
		t.Errorf("Labels = %+v, want one lowercased bug label", issue.Labels)
	}
	if !issue.AssignedTo("U_1") || !issue.HasLabel("L_1") {
		t.Errorf("assignee/label lookup failed: %+v", issue)
	}
	if issue.CommentCount != 3 {
		t.Errorf("CommentCount = %d, want 3", issue.CommentCount)
	}

	req := ts.requests[0]
	if !strings.Contains(req.Query, "issue(number: $number)") {
		t.Errorf("query = %q, want issue(number: $number)", req.Query)
	}
	if req.Variables["owner"] != "octo" || req.Variables["name"] != "widgets" || req.Variables["number"] != float64(42) {
		t.Errorf("variables = %v", req.Variables)
	}
	if ts.auth[0] != "bearer tok" {
		t.Errorf("Authorization = %q, want %q", ts.auth[0], "bearer tok")
	}
}

func TestFetchIssue_NotFound(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"repository": {"issue": null}}}`
	})
	_, err := client.FetchIssue(context.Background(), 9999)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchIssue() error = %v, want ErrNotFound", err)
	}
}

func TestFetchIssue_ResolveErrorIsNotFound(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": null, "errors": [{"message": "Could not resolve to an Issue with the number of 7."}]}`
	})
	_, err := client.FetchIssue(context.Background(), 7)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("FetchIssue() error = %v, want ErrNotFound", err)
	}
}

func TestListIssues_DefaultQuery(t *testing.T) {
	client, ts := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"search": {"nodes": [` + issueJSON + `, {}]}}}`
	})

	issues, err := client.ListIssues(context.Background(), "", 0)
	if err != nil {
		t.Fatalf("ListIssues() error = %v", err)
	}
	if len(issues) != 1 {
		t.Fatalf("ListIssues() returned %d issues, want 1", len(issues))
	}

	req := ts.requests[0]
	if got, want := req.Variables["query"], "repo:octo/widgets is:issue is:open"; got != want {
		t.Errorf("query variable = %v, want %q", got, want)
	}
	if req.Variables["first"] != float64(50) {
		t.Errorf("first = %v, want 50", req.Variables["first"])
	}
	if !strings.Contains(req.Query, "... on Issue") {
		t.Errorf("query = %q, want inline fragment", req.Query)
	}
}

func TestFetchComments(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"repository": {"issue": {"comments": {"nodes": [
			{"id": "C_1", "body": "first", "createdAt": "2025-01-02T03:04:05Z", "viewerCanUpdate": true, "author": {"login": "carol"}},
			{"id": "C_2", "body": "second", "createdAt": "2025-01-02T04:04:05Z", "viewerCanUpdate": false, "author": null}
		]}}}}}`
	})

	comments, err := client.FetchComments(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchComments() error = %v", err)
	}
	if len(comments) != 2 {
		t.Fatalf("FetchComments() returned %d, want 2", len(comments))
	}
	if comments[0].Author != "carol" || !comments[0].ViewerCanUpdate {
		t.Errorf("comments[0] = %+v", comments[0])
	}
	if comments[1].Author != "ghost" {
		t.Errorf("deleted author = %q, want ghost", comments[1].Author)
	}
}

func TestFetchReactions(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"repository": {"issue": {
			"reactionGroups": [
				{"content": "THUMBS_UP", "viewerHasReacted": true, "reactors": {"totalCount": 2}},
				{"content": "EYES", "viewerHasReacted": false, "reactors": {"totalCount": 0}}
			],
			"comments": {"nodes": [
				{"id": "C_1", "reactionGroups": [{"content": "HEART", "viewerHasReacted": false, "reactors": {"totalCount": 1}}]}
			]}
		}}}}`
	})

	summary, err := client.FetchReactions(context.Background(), 42)
	if err != nil {
		t.Fatalf("FetchReactions() error = %v", err)
	}
	if got := summary.Issue[ReactionThumbsUp]; got.Count != 2 || !got.ViewerReacted {
		t.Errorf("issue thumbs up = %+v", got)
	}
	if _, ok := summary.Issue[ReactionEyes]; ok {
		t.Error("zero-count reaction should be omitted")
	}
	if summary.Comments["C_1"].Total() != 1 {
		t.Errorf("comment reactions = %+v", summary.Comments["C_1"])
	}
}

func TestPostComment(t *testing.T) {
	client, ts := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"addComment": {"commentEdge": {"node": {"id": "C_9", "body": "hi", "createdAt": "2025-01-02T03:04:05Z", "viewerCanUpdate": true, "author": {"login": "me"}}}}}}`
	})

	comment, err := client.PostComment(context.Background(), "I_1", "hi")
	if err != nil {
		t.Fatalf("PostComment() error = %v", err)
	}
	if comment.ID != "C_9" || comment.Author != "me" {
		t.Errorf("PostComment() = %+v", comment)
	}

	req := ts.requests[0]
	if !strings.Contains(req.Query, "addComment(input: $input)") || !strings.Contains(req.Query, "AddCommentInput!") {
		t.Errorf("query = %q", req.Query)
	}
	input, _ := req.Variables["input"].(map[string]interface{})
	if input["subjectId"] != "I_1" || input["body"] != "hi" {
		t.Errorf("input = %v", input)
	}
}

func TestPostComment_Error(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": null, "errors": [{"message": "forbidden"}]}`
	})
	if _, err := client.PostComment(context.Background(), "I_1", "hi"); err == nil {
		t.Error("PostComment() error = nil, want error")
	}
}

func TestSetLabelsAndAssignees(t *testing.T) {
	client, ts := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"updateIssue": {"issue": {"id": "I_1"}}}}`
	})

	if err := client.SetLabels(context.Background(), "I_1", []string{"L_1", "L_2"}); err != nil {
		t.Fatalf("SetLabels() error = %v", err)
	}
	if err := client.SetAssignees(context.Background(), "I_1", []string{"U_1"}); err != nil {
		t.Fatalf("SetAssignees() error = %v", err)
	}

	labels, _ := ts.requests[0].Variables["input"].(map[string]interface{})
	if ids, _ := labels["labelIds"].([]interface{}); len(ids) != 2 || ids[1] != "L_2" {
		t.Errorf("labelIds = %v", labels["labelIds"])
	}
	assignees, _ := ts.requests[1].Variables["input"].(map[string]interface{})
	if ids, _ := assignees["assigneeIds"].([]interface{}); len(ids) != 1 || ids[0] != "U_1" {
		t.Errorf("assigneeIds = %v", assignees["assigneeIds"])
	}
	if !strings.Contains(ts.requests[0].Query, "UpdateIssueInput!") {
		t.Errorf("query = %q", ts.requests[0].Query)
	}
}

func TestReactionsAndState(t *testing.T) {
	client, ts := newTestClient(t, func(req gqlRequest) string {
		switch {
		case strings.Contains(req.Query, "addReaction"):
			return `{"data": {"addReaction": {"reaction": {"content": "HEART"}}}}`
		case strings.Contains(req.Query, "removeReaction"):
			return `{"data": {"removeReaction": {"reaction": {"content": "HEART"}}}}`
		case strings.Contains(req.Query, "closeIssue"):
			return `{"data": {"closeIssue": {"issue": {"state": "CLOSED"}}}}`
		default:
			return `{"data": {"reopenIssue": {"issue": {"state": "OPEN"}}}}`
		}
	})
	ctx := context.Background()

	if err := client.AddReaction(ctx, "C_1", ReactionHeart); err != nil {
		t.Fatalf("AddReaction() error = %v", err)
	}
	if err := client.RemoveReaction(ctx, "C_1", ReactionHeart); err != nil {
		t.Fatalf("RemoveReaction() error = %v", err)
	}
	if err := client.CloseIssue(ctx, "I_1"); err != nil {
		t.Fatalf("CloseIssue() error = %v", err)
	}
	if err := client.ReopenIssue(ctx, "I_1"); err != nil {
		t.Fatalf("ReopenIssue() error = %v", err)
	}

	input, _ := ts.requests[0].Variables["input"].(map[string]interface{})
	if input["content"] != "HEART" || input["subjectId"] != "C_1" {
		t.Errorf("reaction input = %v", input)
	}
	closeInput, _ := ts.requests[2].Variables["input"].(map[string]interface{})
	if closeInput["issueId"] != "I_1" {
		t.Errorf("close input = %v", closeInput)
	}
}

func TestCreateLabel_ResolvesRepositoryOnce(t *testing.T) {
	client, ts := newTestClient(t, func(req gqlRequest) string {
		if strings.Contains(req.Query, "createLabel") {
			return `{"data": {"createLabel": {"label": {"id": "L_9", "name": "triage", "color": "0969da"}}}}`
		}
		return `{"data": {"repository": {"id": "R_1"}}}`
	})

	for i := 0; i < 2; i++ {
		label, err := client.CreateLabel(context.Background(), "triage", "#0969DA")
		if err != nil {
			t.Fatalf("CreateLabel() error = %v", err)
		}
		if label.ID != "L_9" {
			t.Errorf("CreateLabel() = %+v", label)
		}
	}

	if len(ts.requests) != 3 {
		t.Fatalf("requests = %d, want 3 (one repository lookup)", len(ts.requests))
	}
	input, _ := ts.requests[1].Variables["input"].(map[string]interface{})
	if input["repositoryId"] != "R_1" || input["color"] != "0969da" {
		t.Errorf("create input = %v", input)
	}
}

func TestListLabels_Sorted(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"repository": {"id": "R_1", "labels": {"nodes": [
			{"id": "L_2", "name": "enhancement", "color": "a2eeef"},
			{"id": "L_1", "name": "Bug", "color": "d73a4a"}
		]}}}}`
	})
	labels, err := client.ListLabels(context.Background())
	if err != nil {
		t.Fatalf("ListLabels() error = %v", err)
	}
	if len(labels) != 2 || labels[0].Name != "Bug" {
		t.Errorf("ListLabels() = %+v, want Bug first", labels)
	}
}

func TestViewer(t *testing.T) {
	client, _ := newTestClient(t, func(req gqlRequest) string {
		return `{"data": {"viewer": {"id": "U_1", "login": "me"}}}`
	})
	user, err := client.Viewer(context.Background())
	if err != nil {
		t.Fatalf("Viewer() error = %v", err)
	}
	if user.Login != "me" || user.ID != "U_1" {
		t.Errorf("Viewer() = %+v", user)
	}
}

func TestReactionKind_Emoji(t *testing.T) {
	if ReactionRocket.Emoji() != "🚀" {
		t.Errorf("Emoji() = %q", ReactionRocket.Emoji())
	}
	if ReactionKind("UNKNOWN").Emoji() != "unknown" {
		t.Errorf("unknown Emoji() = %q", ReactionKind("UNKNOWN").Emoji())
	}
}
