package feeds

import (
	"context"
	"time"
)

// Refresh re-fetches every cached feed and swaps in the fresh result.
// Driven by the gateway's cron schedule so HTTP reads are served warm. A
// feed whose refresh fails keeps its previous cache entry; refresh errors
// are logged, never fatal.
func (s *Service) Refresh(ctx context.Context) {
	start := time.Now()

	if events, err := s.fetchCalendarEvents(ctx); err == nil {
		s.cache.set(cacheKeyCalendar, events)
	} else {
		s.log.Warn("calendar refresh failed", "err", err)
	}
	if live, err := s.fetchLiveEvents(ctx); err == nil {
		s.cache.set(cacheKeyLive, live)
	} else {
		s.log.Warn("live refresh failed", "err", err)
	}
	if media, err := s.fetchMediaFeed(ctx); err == nil {
		s.cache.set(cacheKeyMedia, media)
	} else {
		s.log.Warn("media refresh failed", "err", err)
	}
	if profile, err := s.fetchOrganizerProfile(ctx); err == nil {
		s.cache.set(cacheKeyProfile, profile)
	} else {
		s.log.Warn("profile refresh failed", "err", err)
	}
	if events, err := s.fetchRecentFeed(ctx, 100); err == nil {
		s.cache.set(cacheKeyFeed, events)
	} else {
		s.log.Warn("feed refresh failed", "err", err)
	}

	s.log.Info("feed refresh complete", "elapsed", time.Since(start))
}
