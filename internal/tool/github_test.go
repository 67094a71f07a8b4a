package tool

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/cenkalti/backoff/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testGitHubClient points the client at a local server and removes the
// retry delays so throttling tests run instantly.
func testGitHubClient(t *testing.T, handler http.Handler) *githubClient {
	t.Helper()
	t.Setenv("GITHUB_TOKEN", "test-token")

	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	client := newGitHubClient(srv.URL)
	client.newBackOff = func() backoff.BackOff { return &backoff.ZeroBackOff{} }
	return client
}

func githubToolByID(t *testing.T, client *githubClient, id string) Tool {
	t.Helper()
	for _, tl := range gitHubTools(client) {
		if tl.ID() == id {
			return tl
		}
	}
	t.Fatalf("tool %s not registered", id)
	return nil
}

func TestGitHubTools_IDs(t *testing.T) {
	ids := make(map[string]bool)
	for _, tl := range GitHubTools() {
		ids[tl.ID()] = true
	}
	for _, want := range []string{
		"get_pr_metadata", "get_pr_diff", "get_pr_comments",
		"post_review_comment", "post_general_comment", "reply_to_review_comment",
	} {
		assert.True(t, ids[want], "missing github tool %s", want)
	}
}

func TestGitHubClient_RequiresToken(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "")

	client := newGitHubClient("http://127.0.0.1:0")
	_, err := client.getPRMetadata(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "GITHUB_TOKEN is not set")
}

func TestGitHubClient_GetPRMetadata(t *testing.T) {
	var gotPath, gotAuth, gotAccept string
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		gotAccept = r.Header.Get("Accept")
		json.NewEncoder(w).Encode(map[string]any{
			"title":         "Fix flaky watcher",
			"body":          "Stops the watcher races.",
			"state":         "open",
			"user":          map[string]any{"login": "octocat"},
			"changed_files": 2,
			"additions":     10,
			"deletions":     4,
			"base":          map[string]any{"ref": "main"},
			"head":          map[string]any{"ref": "fix/watcher", "sha": "abc123"},
		})
	}))

	out, err := client.getPRMetadata(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.NoError(t, err)

	assert.Equal(t, "/repos/acme/widgets/pulls/7", gotPath)
	assert.Equal(t, "Bearer test-token", gotAuth)
	assert.Equal(t, "application/vnd.github+json", gotAccept)
	assert.Contains(t, out, "PR #7: Fix flaky watcher")
	assert.Contains(t, out, "Author: octocat")
	assert.Contains(t, out, "Base: main <- Head: fix/watcher")
	assert.Contains(t, out, "Head SHA: abc123")
	assert.Contains(t, out, "Changes: +10/-4 across 2 file(s)")
}

func TestGitHubClient_GetPRDiff(t *testing.T) {
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/pulls/7/files", r.URL.Path)
		json.NewEncoder(w).Encode([]map[string]any{
			{"filename": "watcher.go", "status": "modified", "additions": 8, "deletions": 3, "patch": "@@ -1 +1 @@"},
			{"filename": "watcher_test.go", "status": "added", "additions": 2, "deletions": 1},
		})
	}))

	out, err := client.getPRDiff(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.NoError(t, err)
	assert.Contains(t, out, "PR #7 diff for acme/widgets (2 file(s) changed):")
	assert.Contains(t, out, "--- watcher.go [modified] +8/-3 ---\n@@ -1 +1 @@")
	assert.Contains(t, out, "--- watcher_test.go [added] +2/-1 ---")
}

func TestGitHubClient_GetPRComments(t *testing.T) {
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/repos/acme/widgets/pulls/7/comments":
			json.NewEncoder(w).Encode([]map[string]any{
				{"id": 11, "user": map[string]any{"login": "alice"}, "path": "watcher.go", "line": 42, "body": "Is this goroutine joined?"},
			})
		case "/repos/acme/widgets/issues/7/comments":
			json.NewEncoder(w).Encode([]map[string]any{})
		default:
			http.NotFound(w, r)
		}
	}))

	out, err := client.getPRComments(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.NoError(t, err)
	assert.Contains(t, out, "[Inline Review Comments]")
	assert.Contains(t, out, "id=11 author=alice file=watcher.go line=42")
	assert.Contains(t, out, "[General Comments] None")
}

func TestGitHubClient_PostReviewComment(t *testing.T) {
	var gotPayload map[string]any
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/repos/acme/widgets/pulls/7/comments", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotPayload))
		json.NewEncoder(w).Encode(map[string]any{"html_url": "https://example.com/c/1"})
	}))

	out, err := client.postReviewComment(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7, "commit_sha": "abc123", "path": "watcher.go", "line": 42, "body": "join this goroutine"}`))
	require.NoError(t, err)
	assert.Equal(t, "abc123", gotPayload["commit_id"])
	assert.Equal(t, "watcher.go", gotPayload["path"])
	assert.Equal(t, float64(42), gotPayload["line"])
	assert.Contains(t, out, "Posted inline review comment on watcher.go:42")
	assert.Contains(t, out, "https://example.com/c/1")
}

func TestGitHubClient_PostReviewComment_RejectsNonPositiveLine(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")

	client := newGitHubClient("http://127.0.0.1:0")
	_, err := client.postReviewComment(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7, "commit_sha": "abc123", "path": "watcher.go", "line": 0, "body": "x"}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line must be a positive integer")
}

func TestGitHubClient_ReplyToReviewComment(t *testing.T) {
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/pulls/7/comments/11/replies", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"html_url": "https://example.com/c/2"})
	}))

	out, err := client.replyToReviewComment(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7, "comment_id": 11, "body": "yes, joined in Close"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Replied to comment #11 on PR #7")
}

func TestGitHubTools_PostGeneralCommentThroughToolInterface(t *testing.T) {
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/repos/acme/widgets/issues/7/comments", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{"html_url": "https://example.com/c/3"})
	}))

	tl := githubToolByID(t, client, "post_general_comment")
	out, err := tl.Execute(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7, "body": "LGTM overall"}`))
	require.NoError(t, err)
	assert.Contains(t, out, "Posted general comment on PR #7")
}

func TestGitHubClient_RetriesThrottledResponses(t *testing.T) {
	var attempts int
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		if attempts < 3 {
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{"title": "ok", "user": map[string]any{"login": "octocat"}})
	}))

	out, err := client.getPRMetadata(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.NoError(t, err)
	assert.Equal(t, 3, attempts)
	assert.Contains(t, out, "PR #7: ok")
}

func TestGitHubClient_GivesUpAfterRetryBudget(t *testing.T) {
	var attempts int
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusServiceUnavailable)
	}))

	_, err := client.getPRMetadata(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.Error(t, err)
	assert.Equal(t, githubRetries+1, attempts)
	assert.Contains(t, err.Error(), "503")
}

func TestGitHubClient_DoesNotRetryClientErrors(t *testing.T) {
	var attempts int
	client := testGitHubClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		attempts++
		w.WriteHeader(http.StatusNotFound)
	}))

	_, err := client.getPRMetadata(context.Background(), json.RawMessage(
		`{"repo": "acme/widgets", "number": 7}`))
	require.Error(t, err)
	assert.Equal(t, 1, attempts)
	assert.Contains(t, err.Error(), "404")
}

func TestGitHubClient_ValidatesRepoFormat(t *testing.T) {
	t.Setenv("GITHUB_TOKEN", "test-token")

	client := newGitHubClient("http://127.0.0.1:0")
	_, err := client.getPRDiff(context.Background(), json.RawMessage(
		`{"repo": "widgets", "number": 7}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "owner/repo format")
}
