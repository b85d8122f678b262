package cache

import (
	"context"
	"time"

	"github.com/rs/zerolog/log"

	"worklogd/internal/jira"
)

// DefaultTTL is the freshness window: entries older than this are never
// served unless the cache is explicitly bypassed.
const DefaultTTL = 10 * time.Minute

// FetchFunc fetches the issue list from the remote source.
type FetchFunc func(ctx context.Context) ([]jira.Issue, error)

// Service is the issue cache: a SQLite-backed single-slot memo of the user's
// assigned issues with a fixed freshness window. The clock and fetch
// function are injected so expiry and failures are testable without timers.
type Service struct {
	store *Store
	fetch FetchFunc
	ttl   time.Duration
	now   func() time.Time
}

// ServiceOption configures a Service.
type ServiceOption func(*Service)

// WithTTL overrides the freshness window.
func WithTTL(ttl time.Duration) ServiceOption {
	return func(s *Service) {
		s.ttl = ttl
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) ServiceOption {
	return func(s *Service) {
		s.now = now
	}
}

// NewService creates the cache service.
func NewService(store *Store, fetch FetchFunc, opts ...ServiceOption) *Service {
	s := &Service{
		store: store,
		fetch: fetch,
		ttl:   DefaultTTL,
		now:   time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Get returns the assigned-issue list. A fresh cached set is served without
// a remote call unless force is true; a miss, an expired set, a stale-marked
// set, or force triggers a fetch whose result replaces the stored set
// wholesale (last writer wins).
func (s *Service) Get(ctx context.Context, force bool) ([]jira.Issue, error) {
	if !force {
		issues, ok, err := s.store.Load(s.now().Add(-s.ttl))
		if err != nil {
			// A broken cache read degrades to a remote fetch.
			log.Error().Err(err).Msg("Cache read failed")
		} else if ok {
			log.Info().Int("count", len(issues)).Msg("Returning issues from cache")
			return issues, nil
		}
	}

	issues, err := s.fetch(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.store.Replace(issues, s.now()); err != nil {
		log.Error().Err(err).Msg("Failed to store fetched issues in cache")
	}

	return issues, nil
}

// MarkStale poisons the cached set after a mutation of key, forcing the next
// Get to refetch. Store errors are logged, not surfaced: staleness tracking
// must never fail a successful mutation.
func (s *Service) MarkStale(key string) {
	if err := s.store.MarkStale(key); err != nil {
		log.Error().Err(err).Str("key", key).Msg("Failed to mark cache stale")
		return
	}
	log.Info().Str("key", key).Msg("Marked cache stale")
}

// Clear drops all cached issues.
func (s *Service) Clear() error {
	return s.store.Clear()
}

// Info describes the cache state for the info endpoint.
type Info struct {
	Count      int      `json:"count"`
	Oldest     *string  `json:"oldest"`
	Newest     *string  `json:"newest"`
	AgeSeconds *float64 `json:"age_seconds"`
}

// Info reports cache statistics.
func (s *Service) Info() (Info, error) {
	stats, err := s.store.Info()
	if err != nil {
		return Info{}, err
	}

	info := Info{Count: stats.Count}
	if stats.Count > 0 {
		oldest := stats.Oldest.Format(time.RFC3339)
		newest := stats.Newest.Format(time.RFC3339)
		age := s.now().Sub(stats.Newest).Seconds()
		info.Oldest = &oldest
		info.Newest = &newest
		info.AgeSeconds = &age
	}
	return info, nil
}

// RunRefresher forces a silent refresh on every tick of interval until ctx
// is cancelled, so the default view tracks Jira without user action.
// Refresh failures are logged and swallowed; they never reach the user's
// session.
func (s *Service) RunRefresher(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	log.Info().Dur("interval", interval).Msg("Background cache refresher started")
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("Background cache refresher stopped")
			return
		case <-ticker.C:
			if _, err := s.Get(ctx, true); err != nil {
				log.Warn().Err(err).Msg("Background cache refresh failed")
			}
		}
	}
}
