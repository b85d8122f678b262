// Package transitions resolves available workflow transitions for the
// current issue selection and computes the intersection used by bulk mode.
package transitions

import (
	"context"
	"sync"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"worklogd/internal/jira"
)

// Resolver fetches per-issue transitions. Results live only in an in-memory
// session map: executing any transition changes workflow state, so the owner
// must call Reset afterwards rather than reuse prior fetches.
type Resolver struct {
	client jira.Client

	mu      sync.Mutex
	session map[string][]jira.Transition
}

// NewResolver creates a Resolver backed by the given Jira client.
func NewResolver(client jira.Client) *Resolver {
	return &Resolver{
		client:  client,
		session: make(map[string][]jira.Transition),
	}
}

// TransitionsFor returns the transitions currently available for one issue,
// serving from the session map when the selection has already been fetched.
func (r *Resolver) TransitionsFor(ctx context.Context, key string) ([]jira.Transition, error) {
	r.mu.Lock()
	cached, ok := r.session[key]
	r.mu.Unlock()
	if ok {
		return cached, nil
	}

	transitions, err := r.client.Transitions(ctx, key)
	if err != nil {
		return nil, err
	}

	r.mu.Lock()
	r.session[key] = transitions
	r.mu.Unlock()
	return transitions, nil
}

// Common returns the transition names available for every issue in the
// selection, ordered by the first issue's transition order. Transitions are
// fetched concurrently; a fetch failure contributes an empty list for that
// issue, so it empties the intersection instead of aborting the batch.
func (r *Resolver) Common(ctx context.Context, keys []string) []string {
	if len(keys) == 0 {
		return []string{}
	}

	perIssue := make([][]jira.Transition, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			transitions, err := r.TransitionsFor(ctx, key)
			if err != nil {
				log.Warn().Err(err).Str("key", key).Msg("Failed to fetch transitions, treating as none available")
				transitions = nil
			}
			perIssue[i] = transitions
			return nil
		})
	}
	_ = g.Wait()

	common := []string{}
	for _, candidate := range perIssue[0] {
		inAll := true
		for _, others := range perIssue[1:] {
			found := false
			for _, t := range others {
				if t.Name == candidate.Name {
					found = true
					break
				}
			}
			if !found {
				inAll = false
				break
			}
		}
		if inAll {
			common = append(common, candidate.Name)
		}
	}

	return common
}

// Reset drops all session-scoped fetches. Called after any executed
// transition or when the selection changes.
func (r *Resolver) Reset() {
	r.mu.Lock()
	r.session = make(map[string][]jira.Transition)
	r.mu.Unlock()
}
