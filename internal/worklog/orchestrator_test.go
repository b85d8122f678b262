package worklog

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"testing"
	"time"

	"worklogd/internal/jira"
)

type loggedWork struct {
	key       string
	timeSpent string
	started   string
}

// fakeClient records worklog calls and fails on demand.
type fakeClient struct {
	mu             sync.Mutex
	failWorklog    map[string]bool
	transitions    map[string][]jira.Transition
	failTransition map[string]bool
	logged         []loggedWork
	transitioned   []string
}

func newFakeClient() *fakeClient {
	return &fakeClient{
		failWorklog:    make(map[string]bool),
		transitions:    make(map[string][]jira.Transition),
		failTransition: make(map[string]bool),
	}
}

func (f *fakeClient) SearchMyIssues(ctx context.Context) ([]jira.Issue, error) {
	return nil, nil
}

func (f *fakeClient) GetIssue(ctx context.Context, key string) (jira.Issue, error) {
	return jira.Issue{Key: key}, nil
}

func (f *fakeClient) AddWorklog(ctx context.Context, key, timeSpent, started string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failWorklog[key] {
		return &jira.StatusError{Code: 502, Message: fmt.Sprintf("Jira API request failed for %s", key)}
	}
	f.logged = append(f.logged, loggedWork{key: key, timeSpent: timeSpent, started: started})
	return nil
}

func (f *fakeClient) Transitions(ctx context.Context, key string) ([]jira.Transition, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failTransition[key] {
		return nil, &jira.StatusError{Code: 502, Message: "transitions unavailable"}
	}
	return f.transitions[key], nil
}

func (f *fakeClient) DoTransition(ctx context.Context, key, transitionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.transitioned = append(f.transitioned, key+":"+transitionID)
	return nil
}

func TestSubmitBulk_OrderedResultsWithPartialFailure(t *testing.T) {
	client := newFakeClient()
	client.failWorklog["A-2"] = true

	o := NewOrchestrator(client)
	results := o.SubmitBulk(context.Background(), []string{"A-1", "A-2", "A-3"}, "1h", Moment{}, "")

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}

	wantKeys := []string{"A-1", "A-2", "A-3"}
	wantSuccess := []bool{true, false, true}
	for i := range results {
		if results[i].IssueKey != wantKeys[i] {
			t.Errorf("results[%d].IssueKey = %q, want %q", i, results[i].IssueKey, wantKeys[i])
		}
		if results[i].Success != wantSuccess[i] {
			t.Errorf("results[%d].Success = %v, want %v", i, results[i].Success, wantSuccess[i])
		}
	}

	if !strings.Contains(results[1].Message, "Failed") {
		t.Errorf("failed result message = %q, want failure text", results[1].Message)
	}
}

func TestSubmitBulk_SharedTimestamp(t *testing.T) {
	client := newFakeClient()
	fixed := time.Date(2026, 8, 26, 10, 0, 0, 0, time.UTC)
	o := NewOrchestrator(client, WithClock(func() time.Time { return fixed }))

	o.SubmitBulk(context.Background(), []string{"A-1", "A-2", "A-3"}, "30m", Moment{}, "")

	if len(client.logged) != 3 {
		t.Fatalf("logged %d worklogs, want 3", len(client.logged))
	}
	want := MomentAt(fixed).Started()
	for _, lw := range client.logged {
		if lw.started != want {
			t.Errorf("worklog for %s started at %q, want shared %q", lw.key, lw.started, want)
		}
	}
}

func TestSubmitBulk_TransitionFailureAfterLog(t *testing.T) {
	client := newFakeClient()
	client.transitions["A-1"] = []jira.Transition{{ID: "11", Name: "In Progress", ToStatus: "In Progress"}}

	o := NewOrchestrator(client)
	results := o.SubmitBulk(context.Background(), []string{"A-1"}, "1h", Moment{}, "Done")

	result := results[0]
	if result.Success {
		t.Error("expected overall failure when the transition is unavailable")
	}
	if !strings.Contains(result.Message, "Successfully logged 1h on A-1") {
		t.Errorf("message %q should note that time was logged", result.Message)
	}
	if !strings.Contains(result.Message, "transition failed") {
		t.Errorf("message %q should note the transition failure", result.Message)
	}
	if len(client.logged) != 1 {
		t.Errorf("worklog should still have been submitted, got %d", len(client.logged))
	}
}

func TestSubmitBulk_TransitionSuccess(t *testing.T) {
	client := newFakeClient()
	client.transitions["A-1"] = []jira.Transition{{ID: "31", Name: "Done", ToStatus: "Done"}}

	o := NewOrchestrator(client)
	results := o.SubmitBulk(context.Background(), []string{"A-1"}, "1h", Moment{}, "Done")

	if !results[0].Success {
		t.Fatalf("expected success, got %q", results[0].Message)
	}
	if !strings.Contains(results[0].Message, "transitioned to \"Done\"") {
		t.Errorf("message = %q, want transition confirmation", results[0].Message)
	}
	if len(client.transitioned) != 1 || client.transitioned[0] != "A-1:31" {
		t.Errorf("transitioned = %v, want [A-1:31]", client.transitioned)
	}
}

func TestSubmitBulk_WorklogFailureSkipsTransition(t *testing.T) {
	client := newFakeClient()
	client.failWorklog["A-1"] = true
	client.transitions["A-1"] = []jira.Transition{{ID: "31", Name: "Done", ToStatus: "Done"}}

	o := NewOrchestrator(client)
	results := o.SubmitBulk(context.Background(), []string{"A-1"}, "1h", Moment{}, "Done")

	if results[0].Success {
		t.Error("expected failure")
	}
	if len(client.transitioned) != 0 {
		t.Errorf("transition must be skipped after a failed log, got %v", client.transitioned)
	}
}

func TestSubmitIndividual_ValidationFailureIsolated(t *testing.T) {
	client := newFakeClient()
	o := NewOrchestrator(client)

	results := o.SubmitIndividual(context.Background(), []Request{
		{IssueKey: "A-1", TimeSpent: "1h"},
		{IssueKey: "A-2", TimeSpent: "0m"}, // zero duration rejected up front
		{IssueKey: "A-3", TimeSpent: "45m"},
	})

	if len(results) != 3 {
		t.Fatalf("got %d results, want 3", len(results))
	}
	if !results[0].Success || results[1].Success || !results[2].Success {
		t.Errorf("success flags = [%v %v %v], want [true false true]",
			results[0].Success, results[1].Success, results[2].Success)
	}
	if len(client.logged) != 2 {
		t.Errorf("logged %d worklogs, want 2", len(client.logged))
	}
}

func TestSubmitIndividual_PerRequestMoments(t *testing.T) {
	client := newFakeClient()
	o := NewOrchestrator(client)

	start, err := ParseMoment("09:00 25-08-2026")
	if err != nil {
		t.Fatal(err)
	}
	o.SubmitIndividual(context.Background(), []Request{
		{IssueKey: "A-1", TimeSpent: "1h", Start: start},
	})

	if len(client.logged) != 1 {
		t.Fatalf("logged %d worklogs, want 1", len(client.logged))
	}
	if !strings.HasPrefix(client.logged[0].started, "2026-08-25T09:00:00.000") {
		t.Errorf("started = %q, want 2026-08-25T09:00 prefix", client.logged[0].started)
	}
}

func TestOrchestrator_InvalidateHook(t *testing.T) {
	client := newFakeClient()
	client.failWorklog["A-2"] = true

	var mu sync.Mutex
	var invalidated []string
	o := NewOrchestrator(client, WithInvalidate(func(key string) {
		mu.Lock()
		invalidated = append(invalidated, key)
		mu.Unlock()
	}))

	o.SubmitBulk(context.Background(), []string{"A-1", "A-2"}, "1h", Moment{}, "")

	if len(invalidated) != 1 || invalidated[0] != "A-1" {
		t.Errorf("invalidated = %v, want [A-1] only", invalidated)
	}
}
