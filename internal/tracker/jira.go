package tracker

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	plannererrors "github.com/felixgeelhaar/epicbreaker/internal/errors"
)

// maxResponseSize bounds tracker response bodies.
const maxResponseSize = 8 * 1024 * 1024

// JiraClient implements Client against the Jira Cloud REST API (v3).
type JiraClient struct {
	baseURL    string
	email      string
	apiToken   string
	projectKey string
	client     *http.Client
}

// JiraConfig holds tracker connection settings.
type JiraConfig struct {
	BaseURL    string
	Email      string
	APIToken   string
	ProjectKey string
}

// NewJiraClient creates a Jira-backed tracker client.
func NewJiraClient(config JiraConfig) *JiraClient {
	return &JiraClient{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		email:      config.Email,
		apiToken:   config.APIToken,
		projectKey: config.ProjectKey,
		client:     &http.Client{Timeout: 30 * time.Second},
	}
}

type jiraIssue struct {
	Key    string `json:"key"`
	Fields struct {
		Summary   string `json:"summary"`
		IssueType struct {
			Name string `json:"name"`
		} `json:"issuetype"`
		Parent *struct {
			Key string `json:"key"`
		} `json:"parent"`
		Status struct {
			Name string `json:"name"`
		} `json:"status"`
		Labels []string `json:"labels"`
	} `json:"fields"`
}

func (j *JiraClient) toIssue(raw jiraIssue) Issue {
	issue := Issue{
		Key:     raw.Key,
		Kind:    IssueKind(raw.Fields.IssueType.Name),
		Summary: raw.Fields.Summary,
		Status:  raw.Fields.Status.Name,
		Labels:  raw.Fields.Labels,
	}
	if raw.Fields.Parent != nil {
		issue.ParentKey = raw.Fields.Parent.Key
	}
	return issue
}

// Search implements Client using a JQL query.
func (j *JiraClient) Search(ctx context.Context, query string, max int) ([]Issue, error) {
	payload := map[string]any{
		"jql":        query,
		"maxResults": max,
		"fields":     []string{"summary", "issuetype", "parent", "status", "labels"},
	}

	var result struct {
		Issues []jiraIssue `json:"issues"`
	}
	if err := j.do(ctx, http.MethodPost, "/rest/api/3/search", payload, &result, plannererrors.ErrCodeTrackerSearch); err != nil {
		return nil, err
	}

	issues := make([]Issue, 0, len(result.Issues))
	for _, raw := range result.Issues {
		issues = append(issues, j.toIssue(raw))
	}
	return issues, nil
}

// Get implements Client. A 404 returns (nil, nil).
func (j *JiraClient) Get(ctx context.Context, key string) (*Issue, error) {
	var raw jiraIssue
	err := j.do(ctx, http.MethodGet, "/rest/api/3/issue/"+key, nil, &raw, plannererrors.ErrCodeTrackerSearch)
	if err != nil {
		var plannerErr *plannererrors.PlannerError
		if errors.As(err, &plannerErr) && plannerErr.Code == plannererrors.ErrCodeTrackerIssueMissing {
			return nil, nil
		}
		return nil, err
	}
	issue := j.toIssue(raw)
	return &issue, nil
}

// Create implements Client.
func (j *JiraClient) Create(ctx context.Context, kind IssueKind, fields Fields) (string, error) {
	issueFields := map[string]any{
		"project":     map[string]any{"key": j.projectKey},
		"issuetype":   map[string]any{"name": string(kind)},
		"summary":     fields.Summary,
		"description": EncodeDocument(fields.Description),
	}
	if fields.Priority != "" {
		issueFields["priority"] = map[string]any{"name": fields.Priority}
	}
	if len(fields.Labels) > 0 {
		issueFields["labels"] = fields.Labels
	}

	// Stories parent under the epic; tasks parent under their story.
	parent := fields.ParentKey
	if parent == "" {
		parent = fields.EpicKey
	}
	if parent != "" {
		issueFields["parent"] = map[string]any{"key": parent}
	}

	var result struct {
		Key string `json:"key"`
	}
	if err := j.do(ctx, http.MethodPost, "/rest/api/3/issue", map[string]any{"fields": issueFields}, &result, plannererrors.ErrCodeTrackerCreate); err != nil {
		return "", err
	}
	if result.Key == "" {
		return "", plannererrors.New(plannererrors.ErrCodeTrackerCreate, "tracker returned no issue key")
	}
	return result.Key, nil
}

// Link implements Client.
func (j *JiraClient) Link(ctx context.Context, fromKey, toKey string, linkType LinkType) error {
	payload := map[string]any{
		"type":         map[string]any{"name": string(linkType)},
		"outwardIssue": map[string]any{"key": fromKey},
		"inwardIssue":  map[string]any{"key": toKey},
	}
	return j.do(ctx, http.MethodPost, "/rest/api/3/issueLink", payload, nil, plannererrors.ErrCodeTrackerLink)
}

// do sends one request and decodes the response into out (when non-nil).
// failCode is the error code for generic HTTP failures; auth and not-found
// responses keep their dedicated codes.
func (j *JiraClient) do(ctx context.Context, method, path string, payload, out any, failCode plannererrors.ErrorCode) error {
	var body io.Reader
	if payload != nil {
		encoded, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		body = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, j.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.SetBasicAuth(j.email, j.apiToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := j.client.Do(req)
	if err != nil {
		return plannererrors.NewTrackerUnavailableError(err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return plannererrors.NewTrackerAuthError()
	case resp.StatusCode == http.StatusNotFound:
		return plannererrors.New(plannererrors.ErrCodeTrackerIssueMissing,
			fmt.Sprintf("%s %s: not found", method, path))
	case resp.StatusCode >= 400:
		return plannererrors.New(failCode,
			fmt.Sprintf("%s %s: http %d: %s", method, path, resp.StatusCode, truncate(string(respBody), 500)))
	}

	if out != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
