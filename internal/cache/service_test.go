package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"worklogd/internal/jira"
)

type fetchStub struct {
	calls  int
	issues []jira.Issue
	err    error
}

func (f *fetchStub) fetch(ctx context.Context) ([]jira.Issue, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.issues, nil
}

func newTestService(t *testing.T, stub *fetchStub, now *time.Time) *Service {
	t.Helper()
	store, err := NewMemory()
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { store.Close() })

	return NewService(store, stub.fetch, WithClock(func() time.Time { return *now }))
}

func TestService_SecondGetServedFromCache(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{issues: testIssues()}
	s := newTestService(t, stub, &now)

	for i := 0; i < 2; i++ {
		issues, err := s.Get(context.Background(), false)
		if err != nil {
			t.Fatalf("Get #%d returned error: %v", i+1, err)
		}
		if len(issues) != 2 {
			t.Fatalf("Get #%d returned %d issues, want 2", i+1, len(issues))
		}
	}

	if stub.calls != 1 {
		t.Errorf("remote fetches = %d, want at most 1 within the freshness window", stub.calls)
	}
}

func TestService_ForceRefreshAlwaysFetches(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{issues: testIssues()}
	s := newTestService(t, stub, &now)

	if _, err := s.Get(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	if _, err := s.Get(context.Background(), true); err != nil {
		t.Fatal(err)
	}

	if stub.calls != 2 {
		t.Errorf("remote fetches = %d, want 2 (force bypasses a fresh hit)", stub.calls)
	}
}

func TestService_ExpiryTriggersRefetch(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{issues: testIssues()}
	s := newTestService(t, stub, &now)

	if _, err := s.Get(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	// Simulate the freshness window passing.
	now = now.Add(DefaultTTL + time.Minute)
	if _, err := s.Get(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	if stub.calls != 2 {
		t.Errorf("remote fetches = %d, want 2 after expiry", stub.calls)
	}
}

func TestService_MarkStaleForcesRefetch(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{issues: testIssues()}
	s := newTestService(t, stub, &now)

	if _, err := s.Get(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	s.MarkStale("PRJ-1")
	if _, err := s.Get(context.Background(), false); err != nil {
		t.Fatal(err)
	}

	if stub.calls != 2 {
		t.Errorf("remote fetches = %d, want 2 after stale marker", stub.calls)
	}
}

func TestService_FetchErrorPropagates(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{err: errors.New("jira down")}
	s := newTestService(t, stub, &now)

	if _, err := s.Get(context.Background(), false); err == nil {
		t.Error("expected fetch error to propagate")
	}
}

func TestService_Info(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{issues: testIssues()}
	s := newTestService(t, stub, &now)

	info, err := s.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Count != 0 || info.AgeSeconds != nil {
		t.Errorf("empty cache info = %+v, want zero count and nil age", info)
	}

	if _, err := s.Get(context.Background(), false); err != nil {
		t.Fatal(err)
	}
	now = now.Add(30 * time.Second)

	info, err = s.Info()
	if err != nil {
		t.Fatal(err)
	}
	if info.Count != 2 {
		t.Errorf("count = %d, want 2", info.Count)
	}
	if info.AgeSeconds == nil || *info.AgeSeconds < 29 || *info.AgeSeconds > 31 {
		t.Errorf("age = %v, want ~30s", info.AgeSeconds)
	}
}

func TestService_RefresherSwallowsFailures(t *testing.T) {
	now := time.Now()
	stub := &fetchStub{err: errors.New("jira down")}
	s := newTestService(t, stub, &now)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		s.RunRefresher(ctx, 5*time.Millisecond)
		close(done)
	}()

	// Let a few failing ticks happen, then stop; the refresher must neither
	// panic nor exit early on fetch errors.
	time.Sleep(25 * time.Millisecond)
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop on context cancellation")
	}

	if stub.calls == 0 {
		t.Error("refresher never attempted a refresh")
	}
}
