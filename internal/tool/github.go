package tool

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
)

const githubAPIBase = "https://api.github.com"

// githubRetries is the number of additional attempts after a throttled
// GitHub response (429, 503, 504).
const githubRetries = 2

// prDescriptionLimit keeps long PR bodies from flooding the model's context.
const prDescriptionLimit = 2000

// githubClient talks to the GitHub REST API with token auth and exponential
// backoff on throttling responses.
type githubClient struct {
	base       string
	httpClient *http.Client
	newBackOff func() backoff.BackOff
}

func newGitHubClient(base string) *githubClient {
	return &githubClient{
		base:       base,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		newBackOff: func() backoff.BackOff { return backoff.NewExponentialBackOff() },
	}
}

// get performs an authenticated GET and decodes the JSON response into out.
func (c *githubClient) get(ctx context.Context, path string, out any) error {
	body, err := c.do(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

// post performs an authenticated POST with a JSON payload and decodes the
// response into out.
func (c *githubClient) post(ctx context.Context, path string, payload, out any) error {
	body, err := c.do(ctx, http.MethodPost, path, payload)
	if err != nil {
		return err
	}
	return json.Unmarshal(body, out)
}

func (c *githubClient) do(ctx context.Context, method, path string, payload any) ([]byte, error) {
	token := os.Getenv("GITHUB_TOKEN")
	if token == "" {
		return nil, fmt.Errorf("GITHUB_TOKEN is not set; export a token with pull_requests access")
	}

	var encoded []byte
	if payload != nil {
		var err error
		if encoded, err = json.Marshal(payload); err != nil {
			return nil, fmt.Errorf("failed to encode payload: %w", err)
		}
	}

	var body []byte
	operation := func() error {
		var reader io.Reader
		if encoded != nil {
			reader = bytes.NewReader(encoded)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.base+path, reader)
		if err != nil {
			return backoff.Permanent(err)
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("Accept", "application/vnd.github+json")
		req.Header.Set("X-GitHub-Api-Version", "2022-11-28")
		if encoded != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}
		defer resp.Body.Close()

		data, err := io.ReadAll(resp.Body)
		if err != nil {
			return err
		}

		switch resp.StatusCode {
		case http.StatusTooManyRequests, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
			return fmt.Errorf("github responded %d for %s %s", resp.StatusCode, method, path)
		}
		if resp.StatusCode >= 400 {
			return backoff.Permanent(fmt.Errorf("github responded %d for %s %s: %s",
				resp.StatusCode, method, path, strings.TrimSpace(string(data))))
		}
		body = data
		return nil
	}

	policy := backoff.WithContext(backoff.WithMaxRetries(c.newBackOff(), githubRetries), ctx)
	if err := backoff.Retry(operation, policy); err != nil {
		return nil, err
	}
	return body, nil
}

// prRef identifies one pull request. Every GitHub tool input embeds it.
type prRef struct {
	Repo   string `json:"repo"`
	Number int    `json:"number"`
}

func (r prRef) validate() error {
	if r.Repo == "" || !strings.Contains(r.Repo, "/") {
		return fmt.Errorf("repo must be in owner/repo format")
	}
	if r.Number < 1 {
		return fmt.Errorf("number must be a positive pull request number")
	}
	return nil
}

type githubUser struct {
	Login string `json:"login"`
}

type prMetadata struct {
	Title        string     `json:"title"`
	Body         string     `json:"body"`
	State        string     `json:"state"`
	User         githubUser `json:"user"`
	ChangedFiles int        `json:"changed_files"`
	Additions    int        `json:"additions"`
	Deletions    int        `json:"deletions"`
	Base         struct {
		Ref string `json:"ref"`
	} `json:"base"`
	Head struct {
		Ref string `json:"ref"`
		SHA string `json:"sha"`
	} `json:"head"`
}

type prFile struct {
	Filename  string `json:"filename"`
	Status    string `json:"status"`
	Additions int    `json:"additions"`
	Deletions int    `json:"deletions"`
	Patch     string `json:"patch"`
}

type prComment struct {
	ID           int64      `json:"id"`
	User         githubUser `json:"user"`
	Path         string     `json:"path"`
	Line         int        `json:"line"`
	OriginalLine int        `json:"original_line"`
	Body         string     `json:"body"`
}

type commentResult struct {
	HTMLURL string `json:"html_url"`
}

// GitHubTools returns the pull request review toolset backed by the public
// GitHub API. Authentication comes from GITHUB_TOKEN at call time.
func GitHubTools() []Tool {
	return gitHubTools(newGitHubClient(githubAPIBase))
}

func gitHubTools(client *githubClient) []Tool {
	prParams := json.RawMessage(`{
		"type": "object",
		"properties": {
			"repo": {"type": "string", "description": "Repository in owner/repo format"},
			"number": {"type": "integer", "description": "Pull request number"}
		},
		"required": ["repo", "number"]
	}`)

	return []Tool{
		NewBaseTool("get_pr_metadata",
			"Fetches pull request metadata: title, description, author, base branch, head SHA, and change statistics. Always call this first to get the head SHA before posting inline comments.",
			prParams,
			client.getPRMetadata),
		NewBaseTool("get_pr_diff",
			"Fetches the file diffs for a pull request. Returns filename, status, additions/deletions, and patch content for each changed file.",
			prParams,
			client.getPRDiff),
		NewBaseTool("get_pr_comments",
			"Fetches both inline review comments and top-level general comments for a pull request. Returns comment id, author, body, file, and line number.",
			prParams,
			client.getPRComments),
		NewBaseTool("post_review_comment",
			"Posts an inline code review comment on a specific file and line number. Requires commit_sha; use get_pr_metadata to retrieve the head SHA first.",
			json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo": {"type": "string", "description": "Repository in owner/repo format"},
					"number": {"type": "integer", "description": "Pull request number"},
					"commit_sha": {"type": "string", "description": "SHA of the commit to comment on (head SHA from get_pr_metadata)"},
					"path": {"type": "string", "description": "File path relative to the repository root"},
					"line": {"type": "integer", "description": "Line number in the diff to comment on"},
					"body": {"type": "string", "description": "Markdown content of the review comment"}
				},
				"required": ["repo", "number", "commit_sha", "path", "line", "body"]
			}`),
			client.postReviewComment),
		NewBaseTool("post_general_comment",
			"Posts a top-level comment on a pull request. Use for overall summaries or replies to general comment threads.",
			json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo": {"type": "string", "description": "Repository in owner/repo format"},
					"number": {"type": "integer", "description": "Pull request number"},
					"body": {"type": "string", "description": "Markdown content of the comment"}
				},
				"required": ["repo", "number", "body"]
			}`),
			client.postGeneralComment),
		NewBaseTool("reply_to_review_comment",
			"Replies to an existing inline review comment thread. Use the comment id from get_pr_comments.",
			json.RawMessage(`{
				"type": "object",
				"properties": {
					"repo": {"type": "string", "description": "Repository in owner/repo format"},
					"number": {"type": "integer", "description": "Pull request number"},
					"comment_id": {"type": "integer", "description": "ID of the comment to reply to"},
					"body": {"type": "string", "description": "Markdown content of the reply"}
				},
				"required": ["repo", "number", "comment_id", "body"]
			}`),
			client.replyToReviewComment),
	}
}

func (c *githubClient) getPRMetadata(ctx context.Context, input json.RawMessage) (string, error) {
	var in prRef
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if err := in.validate(); err != nil {
		return "", err
	}

	var pr prMetadata
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d", in.Repo, in.Number), &pr); err != nil {
		return "", fmt.Errorf("failed to fetch metadata for %s#%d: %w", in.Repo, in.Number, err)
	}

	description := pr.Body
	if len(description) > prDescriptionLimit {
		description = description[:prDescriptionLimit]
	}
	return fmt.Sprintf(
		"PR #%d: %s\nAuthor: %s\nState: %s\nBase: %s <- Head: %s\nHead SHA: %s\nChanges: +%d/-%d across %d file(s)\nDescription:\n%s",
		in.Number, pr.Title, pr.User.Login, pr.State, pr.Base.Ref, pr.Head.Ref, pr.Head.SHA,
		pr.Additions, pr.Deletions, pr.ChangedFiles, description), nil
}

func (c *githubClient) getPRDiff(ctx context.Context, input json.RawMessage) (string, error) {
	var in prRef
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if err := in.validate(); err != nil {
		return "", err
	}

	var files []prFile
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d/files", in.Repo, in.Number), &files); err != nil {
		return "", fmt.Errorf("failed to fetch diff for %s#%d: %w", in.Repo, in.Number, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "PR #%d diff for %s (%d file(s) changed):", in.Number, in.Repo, len(files))
	for _, f := range files {
		fmt.Fprintf(&sb, "\n\n--- %s [%s] +%d/-%d ---", f.Filename, f.Status, f.Additions, f.Deletions)
		if f.Patch != "" {
			sb.WriteString("\n" + f.Patch)
		}
	}
	return sb.String(), nil
}

func (c *githubClient) getPRComments(ctx context.Context, input json.RawMessage) (string, error) {
	var in prRef
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if err := in.validate(); err != nil {
		return "", err
	}

	var reviewComments []prComment
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/pulls/%d/comments", in.Repo, in.Number), &reviewComments); err != nil {
		return "", fmt.Errorf("failed to fetch review comments for %s#%d: %w", in.Repo, in.Number, err)
	}
	var issueComments []prComment
	if err := c.get(ctx, fmt.Sprintf("/repos/%s/issues/%d/comments", in.Repo, in.Number), &issueComments); err != nil {
		return "", fmt.Errorf("failed to fetch general comments for %s#%d: %w", in.Repo, in.Number, err)
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Comments for PR #%d in %s:\n", in.Number, in.Repo)

	if len(reviewComments) > 0 {
		sb.WriteString("\n[Inline Review Comments]\n")
		for _, rc := range reviewComments {
			line := rc.Line
			if line == 0 {
				line = rc.OriginalLine
			}
			fmt.Fprintf(&sb, "  id=%d author=%s file=%s line=%d\n  %s\n", rc.ID, rc.User.Login, rc.Path, line, rc.Body)
		}
	} else {
		sb.WriteString("\n[Inline Review Comments] None\n")
	}

	if len(issueComments) > 0 {
		sb.WriteString("\n[General Comments]\n")
		for _, ic := range issueComments {
			fmt.Fprintf(&sb, "  id=%d author=%s\n  %s\n", ic.ID, ic.User.Login, ic.Body)
		}
	} else {
		sb.WriteString("\n[General Comments] None\n")
	}
	return sb.String(), nil
}

func (c *githubClient) postReviewComment(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		prRef
		CommitSHA string `json:"commit_sha"`
		Path      string `json:"path"`
		Line      int    `json:"line"`
		Body      string `json:"body"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if err := in.validate(); err != nil {
		return "", err
	}
	if in.Line < 1 {
		return "", fmt.Errorf("line must be a positive integer, got %d; use get_pr_diff to find the correct line number within the diff", in.Line)
	}

	payload := map[string]any{
		"body":      in.Body,
		"commit_id": in.CommitSHA,
		"path":      in.Path,
		"line":      in.Line,
	}
	var result commentResult
	if err := c.post(ctx, fmt.Sprintf("/repos/%s/pulls/%d/comments", in.Repo, in.Number), payload, &result); err != nil {
		return "", fmt.Errorf("failed to post review comment on %s#%d %s:%d: %w", in.Repo, in.Number, in.Path, in.Line, err)
	}
	return fmt.Sprintf("Posted inline review comment on %s:%d. URL: %s", in.Path, in.Line, result.HTMLURL), nil
}

func (c *githubClient) postGeneralComment(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		prRef
		Body string `json:"body"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if err := in.validate(); err != nil {
		return "", err
	}

	var result commentResult
	if err := c.post(ctx, fmt.Sprintf("/repos/%s/issues/%d/comments", in.Repo, in.Number), map[string]any{"body": in.Body}, &result); err != nil {
		return "", fmt.Errorf("failed to post general comment on %s#%d: %w", in.Repo, in.Number, err)
	}
	return fmt.Sprintf("Posted general comment on PR #%d. URL: %s", in.Number, result.HTMLURL), nil
}

func (c *githubClient) replyToReviewComment(ctx context.Context, input json.RawMessage) (string, error) {
	var in struct {
		prRef
		CommentID int64  `json:"comment_id"`
		Body      string `json:"body"`
	}
	if err := json.Unmarshal(input, &in); err != nil {
		return "", fmt.Errorf("invalid input: %w", err)
	}
	if err := in.validate(); err != nil {
		return "", err
	}
	if in.CommentID < 1 {
		return "", fmt.Errorf("comment_id must be a positive integer; use get_pr_comments to find it")
	}

	var result commentResult
	if err := c.post(ctx, fmt.Sprintf("/repos/%s/pulls/%d/comments/%d/replies", in.Repo, in.Number, in.CommentID), map[string]any{"body": in.Body}, &result); err != nil {
		return "", fmt.Errorf("failed to reply to comment #%d on %s#%d: %w", in.CommentID, in.Repo, in.Number, err)
	}
	return fmt.Sprintf("Replied to comment #%d on PR #%d. URL: %s", in.CommentID, in.Number, result.HTMLURL), nil
}
