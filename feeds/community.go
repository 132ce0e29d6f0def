package feeds

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/protocol"
)

const cacheKeyFeed = "feed"

// FeedPage is one page of the community feed.
type FeedPage struct {
	Events []*nostr.Event `json:"events"`

	// NextCursor is the `until` value for the following page; nil when
	// pagination has terminated.
	NextCursor *int64 `json:"next_cursor,omitempty"`
}

// CommunityFeedPage fetches one page of community content (text notes and
// picture posts) created at or before the cursor, newest first. The next
// cursor is the oldest returned timestamp minus one, giving monotonically
// decreasing, non-overlapping windows; a page with no events terminates
// pagination.
func (s *Service) CommunityFeedPage(ctx context.Context, cursor int64) (FeedPage, error) {
	kinds := []int{protocol.KindTextNote, protocol.KindPictureNote}
	until := nostr.Timestamp(cursor)
	filters := nostr.Filters{
		{Kinds: kinds, Tags: nostr.TagMap{"t": s.cfg.Hashtags}, Until: &until, Limit: s.cfg.PageLimit},
		{Kinds: kinds, Authors: []string{s.cfg.OrganizerPubKey}, Until: &until, Limit: s.cfg.PageLimit / 2},
	}

	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return FeedPage{}, err
	}

	events := res.Events
	protocol.SortByCreatedAtDesc(events)

	page := FeedPage{Events: events}
	if len(events) > 0 {
		next := int64(events[len(events)-1].CreatedAt) - 1
		page.NextCursor = &next
	}
	return page, nil
}

// Paginator walks the community feed page by page. Relay result sets are
// not deterministic for a fixed `until`, so the paginator suppresses ids
// already seen on any earlier page.
type Paginator struct {
	svc    *Service
	cursor int64
	seen   map[string]struct{}
	done   bool
}

// NewPaginator starts paginating from the given unix-seconds cursor,
// usually "now".
func (s *Service) NewPaginator(from int64) *Paginator {
	return &Paginator{svc: s, cursor: from, seen: make(map[string]struct{})}
}

// Next returns the next page's events, with cross-page duplicates removed.
// The second result is false once pagination has terminated.
func (p *Paginator) Next(ctx context.Context) ([]*nostr.Event, bool, error) {
	if p.done {
		return nil, false, nil
	}

	page, err := p.svc.CommunityFeedPage(ctx, p.cursor)
	if err != nil {
		return nil, false, err
	}
	if page.NextCursor == nil {
		p.done = true
		return nil, false, nil
	}
	p.cursor = *page.NextCursor

	fresh := make([]*nostr.Event, 0, len(page.Events))
	for _, ev := range page.Events {
		if _, dup := p.seen[ev.ID]; dup {
			continue
		}
		p.seen[ev.ID] = struct{}{}
		fresh = append(fresh, ev)
	}
	return fresh, true, nil
}

// RecentFeed assembles up to total recent community events by walking pages
// from now until either the budget is filled or the feed terminates. This
// is the server-side rendering of the original infinite feed.
func (s *Service) RecentFeed(ctx context.Context, total int) ([]*nostr.Event, error) {
	if cached, ok := s.cache.get(cacheKeyFeed); ok {
		events := cached.([]*nostr.Event)
		if len(events) >= total {
			return events[:total], nil
		}
		return events, nil
	}
	events, err := s.fetchRecentFeed(ctx, total)
	if err != nil {
		return nil, err
	}
	s.cache.set(cacheKeyFeed, events)
	return events, nil
}

func (s *Service) fetchRecentFeed(ctx context.Context, total int) ([]*nostr.Event, error) {
	p := s.NewPaginator(int64(nostr.Now()))
	var events []*nostr.Event
	for len(events) < total {
		page, more, err := p.Next(ctx)
		if err != nil {
			return nil, err
		}
		if !more {
			break
		}
		events = append(events, page...)
	}
	if len(events) > total {
		events = events[:total]
	}
	return events, nil
}
