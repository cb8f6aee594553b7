package tracker

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// FakeClient is an in-memory Client for tests. Failures can be scripted per
// summary (creation) and per endpoint pair (linking).
type FakeClient struct {
	mu sync.Mutex

	// Issues holds pre-seeded and created issues by key.
	Issues map[string]Issue

	// CreatedKeys records creation order.
	CreatedKeys []string

	// Links records every successful Link call as "from->to:type".
	Links []string

	// LinkCalls records every attempted Link call, successful or not.
	LinkCalls []string

	// FailCreateSummaries scripts Create failures by exact summary.
	FailCreateSummaries map[string]bool

	// FailAllLinks scripts Link to always fail.
	FailAllLinks bool

	// SearchResults scripts Search responses keyed by an exact query, with
	// SearchFallback used for any unscripted query.
	SearchResults  map[string][]Issue
	SearchFallback []Issue

	// Unavailable scripts every call to fail with a connection-style error.
	Unavailable bool

	nextID int
}

// NewFakeClient creates an empty fake tracker.
func NewFakeClient() *FakeClient {
	return &FakeClient{
		Issues:              make(map[string]Issue),
		FailCreateSummaries: make(map[string]bool),
		SearchResults:       make(map[string][]Issue),
	}
}

// Seed adds an existing issue to the fake tracker.
func (f *FakeClient) Seed(issue Issue) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.Issues[issue.Key] = issue
}

// Search implements Client.
func (f *FakeClient) Search(_ context.Context, query string, max int) ([]Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return nil, fmt.Errorf("fake tracker: connection refused")
	}

	results, ok := f.SearchResults[query]
	if !ok {
		results = f.SearchFallback
	}
	if max > 0 && len(results) > max {
		results = results[:max]
	}
	return results, nil
}

// Get implements Client.
func (f *FakeClient) Get(_ context.Context, key string) (*Issue, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return nil, fmt.Errorf("fake tracker: connection refused")
	}
	issue, ok := f.Issues[key]
	if !ok {
		return nil, nil
	}
	return &issue, nil
}

// Create implements Client.
func (f *FakeClient) Create(_ context.Context, kind IssueKind, fields Fields) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.Unavailable {
		return "", fmt.Errorf("fake tracker: connection refused")
	}
	if f.FailCreateSummaries[fields.Summary] {
		return "", fmt.Errorf("fake tracker: creation rejected for %q", fields.Summary)
	}

	f.nextID++
	key := fmt.Sprintf("FAKE-%d", f.nextID)
	f.Issues[key] = Issue{
		Key:       key,
		Kind:      kind,
		Summary:   fields.Summary,
		EpicKey:   fields.EpicKey,
		ParentKey: fields.ParentKey,
		Labels:    fields.Labels,
	}
	f.CreatedKeys = append(f.CreatedKeys, key)
	return key, nil
}

// Link implements Client. Linking to a key the fake has never seen fails,
// which mirrors the real tracker rejecting dangling references.
func (f *FakeClient) Link(_ context.Context, fromKey, toKey string, linkType LinkType) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	call := fmt.Sprintf("%s->%s:%s", fromKey, toKey, linkType)
	f.LinkCalls = append(f.LinkCalls, call)

	if f.Unavailable {
		return fmt.Errorf("fake tracker: connection refused")
	}
	if f.FailAllLinks {
		return fmt.Errorf("fake tracker: link rejected")
	}
	if _, ok := f.Issues[fromKey]; !ok {
		return fmt.Errorf("fake tracker: unknown issue %s", fromKey)
	}
	if _, ok := f.Issues[toKey]; !ok {
		return fmt.Errorf("fake tracker: unknown issue %s", toKey)
	}

	f.Links = append(f.Links, call)
	return nil
}

// HasLink reports whether a link between two keys was created.
func (f *FakeClient) HasLink(fromKey, toKey string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	prefix := fromKey + "->" + toKey + ":"
	for _, link := range f.Links {
		if strings.HasPrefix(link, prefix) {
			return true
		}
	}
	return false
}

var _ Client = (*FakeClient)(nil)
