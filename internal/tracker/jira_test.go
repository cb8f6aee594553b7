package tracker

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	plannererrors "github.com/felixgeelhaar/epicbreaker/internal/errors"
)

func newTestClient(handler http.Handler) (*JiraClient, *httptest.Server) {
	server := httptest.NewServer(handler)
	client := NewJiraClient(JiraConfig{
		BaseURL:    server.URL,
		Email:      "bot@example.com",
		APIToken:   "token",
		ProjectKey: "PROJ",
	})
	return client, server
}

func TestJiraCreate(t *testing.T) {
	var captured map[string]any
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/issue", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		fmt.Fprint(w, `{"key": "PROJ-42"}`)
	}))
	defer server.Close()

	key, err := client.Create(context.Background(), KindTask, Fields{
		Summary:     "[BE] Build login API",
		Description: "# Purpose\nAuthenticate users.\n\n- JWT issuance",
		ParentKey:   "PROJ-10",
		Priority:    "High",
		Labels:      []string{"team-backend"},
	})
	require.NoError(t, err)
	assert.Equal(t, "PROJ-42", key)

	fields := captured["fields"].(map[string]any)
	assert.Equal(t, "[BE] Build login API", fields["summary"])
	assert.Equal(t, "Task", fields["issuetype"].(map[string]any)["name"])
	assert.Equal(t, "PROJ-10", fields["parent"].(map[string]any)["key"])

	// Description must be the rich-text document, not a raw string.
	desc := fields["description"].(map[string]any)
	assert.Equal(t, "doc", desc["type"])
}

func TestJiraCreateHTTPError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["field required"]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := client.Create(context.Background(), KindStory, Fields{Summary: "s"})
	require.Error(t, err)

	var plannerErr *plannererrors.PlannerError
	require.ErrorAs(t, err, &plannerErr)
	assert.Equal(t, plannererrors.ErrCodeTrackerCreate, plannerErr.Code)
}

func TestJiraAuthError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "", http.StatusUnauthorized)
	}))
	defer server.Close()

	_, err := client.Search(context.Background(), "project = PROJ", 10)
	var plannerErr *plannererrors.PlannerError
	require.ErrorAs(t, err, &plannerErr)
	assert.Equal(t, plannererrors.ErrCodeTrackerAuth, plannerErr.Code)
}

func TestJiraGetMissingIssue(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "", http.StatusNotFound)
	}))
	defer server.Close()

	issue, err := client.Get(context.Background(), "PROJ-999")
	require.NoError(t, err)
	assert.Nil(t, issue)
}

func TestJiraSearch(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/search", r.URL.Path)
		fmt.Fprint(w, `{"issues": [
			{"key": "PROJ-1", "fields": {"summary": "Login story", "issuetype": {"name": "Story"}, "status": {"name": "Open"}}},
			{"key": "PROJ-2", "fields": {"summary": "Login task", "issuetype": {"name": "Task"}, "parent": {"key": "PROJ-1"}, "status": {"name": "Open"}}}
		]}`)
	}))
	defer server.Close()

	issues, err := client.Search(context.Background(), `parent = PROJ-0`, 50)
	require.NoError(t, err)
	require.Len(t, issues, 2)
	assert.Equal(t, KindStory, issues[0].Kind)
	assert.Equal(t, "PROJ-1", issues[1].ParentKey)
}

func TestJiraLink(t *testing.T) {
	var captured map[string]any
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/rest/api/3/issueLink", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&captured))
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	err := client.Link(context.Background(), "PROJ-1", "PROJ-2", LinkBlocks)
	require.NoError(t, err)
	assert.Equal(t, "Blocks", captured["type"].(map[string]any)["name"])
	assert.Equal(t, "PROJ-1", captured["outwardIssue"].(map[string]any)["key"])
	assert.Equal(t, "PROJ-2", captured["inwardIssue"].(map[string]any)["key"])
}

func TestJiraUnreachable(t *testing.T) {
	client := NewJiraClient(JiraConfig{BaseURL: "http://127.0.0.1:1"})
	_, err := client.Search(context.Background(), "project = PROJ", 1)

	var plannerErr *plannererrors.PlannerError
	require.ErrorAs(t, err, &plannerErr)
	assert.Equal(t, plannererrors.ErrCodeTrackerUnavailable, plannerErr.Code)
}

func TestJiraSearchHTTPError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["bad jql"]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	_, err := client.Search(context.Background(), "project =", 10)
	var plannerErr *plannererrors.PlannerError
	require.ErrorAs(t, err, &plannerErr)
	assert.Equal(t, plannererrors.ErrCodeTrackerSearch, plannerErr.Code)
}

func TestJiraLinkHTTPError(t *testing.T) {
	client, server := newTestClient(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errorMessages": ["no such link type"]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	err := client.Link(context.Background(), "PROJ-1", "PROJ-2", LinkBlocks)
	var plannerErr *plannererrors.PlannerError
	require.ErrorAs(t, err, &plannerErr)
	assert.Equal(t, plannererrors.ErrCodeTrackerLink, plannerErr.Code)
}
