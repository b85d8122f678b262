// Package worklog implements the work-log submission workflow: duration and
// start-moment parsing plus the bulk/individual fan-out against Jira.
package worklog

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"worklogd/internal/jira"
)

// Request is one independently specified work-log entry.
type Request struct {
	IssueKey    string
	TimeSpent   string
	Start       Moment
	TargetState string
}

// Result is the outcome for a single issue. One Result is produced per
// requested issue, in request order.
type Result struct {
	IssueKey string `json:"issue_key"`
	Success  bool   `json:"success"`
	Message  string `json:"message"`
}

// Orchestrator fans work-log submissions out across issues. Each issue is
// processed independently; a failure never aborts or skips the others.
type Orchestrator struct {
	client     jira.Client
	invalidate func(key string)
	now        func() time.Time
}

// Option configures an Orchestrator.
type Option func(*Orchestrator)

// WithInvalidate registers a hook called after any successful remote
// mutation for an issue, so the issue cache can be marked stale.
func WithInvalidate(fn func(key string)) Option {
	return func(o *Orchestrator) {
		o.invalidate = fn
	}
}

// WithClock overrides the submission-time source.
func WithClock(now func() time.Time) Option {
	return func(o *Orchestrator) {
		o.now = now
	}
}

// NewOrchestrator creates an Orchestrator backed by the given Jira client.
func NewOrchestrator(client jira.Client, opts ...Option) *Orchestrator {
	o := &Orchestrator{
		client: client,
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// SubmitBulk logs the same duration against every issue key, with an
// optional shared start moment and target transition. The start moment is
// resolved once so all entries of the batch carry the same timestamp.
// The returned slice has the same length and order as keys.
func (o *Orchestrator) SubmitBulk(ctx context.Context, keys []string, timeSpent string, start Moment, targetState string) []Result {
	started := start.Or(o.now()).Started()

	results := make([]Result, len(keys))
	g, ctx := errgroup.WithContext(ctx)
	for i, key := range keys {
		i, key := i, key
		g.Go(func() error {
			results[i] = o.submitOne(ctx, Request{
				IssueKey:    key,
				TimeSpent:   timeSpent,
				TargetState: targetState,
			}, started)
			return nil
		})
	}
	// Workers fold failures into their result slot and never return errors,
	// so Wait only synchronizes the fan-out.
	_ = g.Wait()

	return results
}

// SubmitIndividual logs independently specified entries. Validation failures
// for one entry become that entry's failed Result; they never block the
// others. The returned slice has the same length and order as reqs.
func (o *Orchestrator) SubmitIndividual(ctx context.Context, reqs []Request) []Result {
	results := make([]Result, len(reqs))
	started := make([]string, len(reqs))

	// Resolve per-request defaults and validate up front; failed entries
	// keep their slot but are excluded from the fan-out.
	skip := make([]bool, len(reqs))
	for i, req := range reqs {
		if _, err := ValidateTimeSpent(req.TimeSpent); err != nil {
			results[i] = Result{IssueKey: req.IssueKey, Success: false, Message: fmt.Sprintf("Failed: %v", err)}
			skip[i] = true
			continue
		}
		started[i] = req.Start.Or(o.now()).Started()
	}

	g, ctx := errgroup.WithContext(ctx)
	for i, req := range reqs {
		if skip[i] {
			continue
		}
		i, req := i, req
		g.Go(func() error {
			results[i] = o.submitOne(ctx, req, started[i])
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// submitOne runs the per-issue sequence: log work, then execute the optional
// transition. A transition failure after a successful log is reported as an
// overall failure whose message notes that time was logged.
func (o *Orchestrator) submitOne(ctx context.Context, req Request, started string) Result {
	if err := o.client.AddWorklog(ctx, req.IssueKey, req.TimeSpent, started); err != nil {
		log.Error().Err(err).Str("key", req.IssueKey).Msg("Work log failed")
		return Result{
			IssueKey: req.IssueKey,
			Success:  false,
			Message:  fmt.Sprintf("Failed: %v", err),
		}
	}

	message := fmt.Sprintf("Successfully logged %s on %s", req.TimeSpent, req.IssueKey)
	success := true

	if req.TargetState != "" {
		if err := jira.ExecuteTransitionByName(ctx, o.client, req.IssueKey, req.TargetState); err != nil {
			log.Warn().Err(err).Str("key", req.IssueKey).Msg("Transition after work log failed")
			message += fmt.Sprintf(" but transition failed: %v", err)
			success = false
		} else {
			message += fmt.Sprintf(" and transitioned to %q", req.TargetState)
		}
	}

	if o.invalidate != nil {
		o.invalidate(req.IssueKey)
	}

	return Result{IssueKey: req.IssueKey, Success: success, Message: message}
}
