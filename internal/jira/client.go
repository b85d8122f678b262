package jira

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// Issue is a read-only snapshot of a Jira issue. Snapshots are refreshed
// wholesale from the server; status is never patched locally.
type Issue struct {
	Key      string    `json:"key"`
	Summary  string    `json:"summary"`
	Status   string    `json:"status"`
	Assignee string    `json:"assignee"`
	Updated  time.Time `json:"updated"`
}

// Transition is a workflow action available for an issue in its current
// status. The set is workflow-defined and only valid until the issue moves.
type Transition struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	ToStatus string `json:"to_status"`
}

// Client is the interface for interacting with Jira.
type Client interface {
	SearchMyIssues(ctx context.Context) ([]Issue, error)
	GetIssue(ctx context.Context, key string) (Issue, error)
	AddWorklog(ctx context.Context, key, timeSpent, started string) error
	Transitions(ctx context.Context, key string) ([]Transition, error)
	DoTransition(ctx context.Context, key, transitionID string) error
}

// Config holds the authentication and connection settings for Jira.
type Config struct {
	BaseURL string

	// Personal Access Token, sent as a Bearer header.
	Token string

	MaxResults int
	Timeout    time.Duration
}

// NewClient creates a new Jira client based on the provided configuration.
func NewClient(cfg Config) Client {
	return NewDataCenterClient(cfg)
}

// StatusError is a Jira API failure carrying the upstream (or synthesized)
// HTTP status code so the REST layer can map it through.
type StatusError struct {
	Code    int
	Message string
}

func (e *StatusError) Error() string {
	return e.Message
}

// StatusCode extracts the HTTP status carried by err, or 500 when err is not
// a StatusError.
func StatusCode(err error) int {
	var se *StatusError
	if errors.As(err, &se) {
		return se.Code
	}
	return 500
}

// ExecuteTransitionByName resolves a transition name against the issue's
// currently available transitions (case-insensitive) and executes it. When
// the name is not available the error lists what is, so the user can see why
// a stale selection was rejected.
func ExecuteTransitionByName(ctx context.Context, c Client, key, target string) error {
	transitions, err := c.Transitions(ctx, key)
	if err != nil {
		return err
	}

	var id string
	for _, t := range transitions {
		if strings.EqualFold(t.Name, target) {
			id = t.ID
			break
		}
	}

	if id == "" {
		available := make([]string, 0, len(transitions))
		for _, t := range transitions {
			available = append(available, fmt.Sprintf("%s (-> %s)", t.Name, t.ToStatus))
		}
		return &StatusError{
			Code: 404,
			Message: fmt.Sprintf("no transition %q available for %s. Available transitions: %s",
				target, key, strings.Join(available, ", ")),
		}
	}

	return c.DoTransition(ctx, key, id)
}
