// Package tracker defines the issue-tracker collaborator contract and its
// Jira-style REST implementation. The pipeline treats per-item create/link
// failures as recoverable; only connection-level failures abort a run.
package tracker

import (
	"context"
)

// IssueKind is the tracker-native issue type.
type IssueKind string

const (
	KindEpic  IssueKind = "Epic"
	KindStory IssueKind = "Story"
	KindTask  IssueKind = "Task"
)

// LinkType is the tracker-native relation between two issues.
type LinkType string

const (
	// LinkBlocks marks the "from" issue as blocking the "to" issue.
	LinkBlocks LinkType = "Blocks"
	// LinkSplit marks the "to" issue as split from the "from" issue. Gap
	// queries traverse this relation when collecting existing child tasks;
	// it is read, never written, by the pipeline.
	LinkSplit LinkType = "Split"
)

// Issue is a tracker issue as seen by the pipeline.
type Issue struct {
	Key         string    `json:"key"`
	Kind        IssueKind `json:"kind"`
	Summary     string    `json:"summary"`
	Description string    `json:"description,omitempty"`
	EpicKey     string    `json:"epic_key,omitempty"`
	ParentKey   string    `json:"parent_key,omitempty"`
	Status      string    `json:"status,omitempty"`
	Labels      []string  `json:"labels,omitempty"`
}

// Fields carries the creatable attributes of a new issue.
type Fields struct {
	Summary     string
	Description string
	EpicKey     string
	ParentKey   string
	Priority    string
	Labels      []string
}

// Client is the tracker collaborator contract.
type Client interface {
	// Search runs a tracker query and returns up to max issues.
	Search(ctx context.Context, query string, max int) ([]Issue, error)

	// Get fetches one issue by key. A missing issue returns (nil, nil).
	Get(ctx context.Context, key string) (*Issue, error)

	// Create makes a new issue and returns its key. An empty key with a nil
	// error never occurs; creation failures return an error the caller
	// records per item.
	Create(ctx context.Context, kind IssueKind, fields Fields) (string, error)

	// Link creates a tracker-native link between two existing issues.
	Link(ctx context.Context, fromKey, toKey string, linkType LinkType) error
}
