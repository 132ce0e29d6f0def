package feeds

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/protocol"
)

const cacheKeyCalendar = "calendar"

// CalendarEvents returns the validated, deduplicated schedule, sorted by
// start time across both calendar kinds. Two disjunctive filters cover the
// organizer's own events and anything the community tagged.
func (s *Service) CalendarEvents(ctx context.Context) ([]protocol.CalendarEvent, error) {
	if cached, ok := s.cache.get(cacheKeyCalendar); ok {
		return cached.([]protocol.CalendarEvent), nil
	}
	events, err := s.fetchCalendarEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(cacheKeyCalendar, events)
	return events, nil
}

func (s *Service) fetchCalendarEvents(ctx context.Context) ([]protocol.CalendarEvent, error) {
	kinds := []int{protocol.KindDateCalendarEvent, protocol.KindTimeCalendarEvent}
	filters := nostr.Filters{
		{Kinds: kinds, Authors: []string{s.cfg.OrganizerPubKey}, Limit: 50},
		{Kinds: kinds, Tags: nostr.TagMap{"t": s.cfg.Hashtags}, Limit: 50},
	}

	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return nil, err
	}

	valid := res.Events[:0:0]
	for _, ev := range res.Events {
		if protocol.ValidateCalendarEvent(ev) {
			valid = append(valid, ev)
		}
	}

	// Only the newest revision per coordinate matters.
	current := protocol.LatestBy(valid, protocol.CoordinateKey)
	protocol.SortCalendarEvents(current)

	out := make([]protocol.CalendarEvent, 0, len(current))
	for _, ev := range current {
		out = append(out, protocol.ParseCalendarEvent(ev))
	}
	return out, nil
}
