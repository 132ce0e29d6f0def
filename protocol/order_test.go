package protocol

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func addressable(id, pubkey, identifier string, createdAt int64) *nostr.Event {
	return &nostr.Event{
		ID:        id,
		Kind:      KindTimeCalendarEvent,
		PubKey:    pubkey,
		CreatedAt: nostr.Timestamp(createdAt),
		Tags:      nostr.Tags{{"d", identifier}},
	}
}

func TestLatestByKeepsNewestPerKey(t *testing.T) {
	events := []*nostr.Event{
		addressable("a1", "pk", "nv-2025", 100),
		addressable("b1", "pk", "workshop", 50),
		addressable("a2", "pk", "nv-2025", 200),
		addressable("a0", "pk", "nv-2025", 90),
	}

	out := LatestBy(events, CoordinateKey)
	require.Len(t, out, 2)
	require.Equal(t, "a2", out[0].ID)
	require.Equal(t, "b1", out[1].ID)
}

func TestLatestByTieKeepsEarlierSeen(t *testing.T) {
	events := []*nostr.Event{
		addressable("first", "pk", "nv-2025", 100),
		addressable("second", "pk", "nv-2025", 100),
	}
	out := LatestBy(events, CoordinateKey)
	require.Len(t, out, 1)
	require.Equal(t, "first", out[0].ID)
}

func TestLatestByDropsKeylessEvents(t *testing.T) {
	events := []*nostr.Event{
		addressable("a1", "pk", "nv-2025", 100),
		{ID: "no-d", Kind: KindTimeCalendarEvent, PubKey: "pk", CreatedAt: 999},
	}
	out := LatestBy(events, CoordinateKey)
	require.Len(t, out, 1)
	require.Equal(t, "a1", out[0].ID)
}

func TestRSVPKeyGroupsPerUserPerEvent(t *testing.T) {
	rsvp := func(id, pubkey, coord string, createdAt int64) *nostr.Event {
		return &nostr.Event{
			ID:        id,
			Kind:      KindCalendarRSVP,
			PubKey:    pubkey,
			CreatedAt: nostr.Timestamp(createdAt),
			Tags:      nostr.Tags{{"a", coord}, {"status", "accepted"}},
		}
	}

	events := []*nostr.Event{
		rsvp("alice-old", "alice", "31923:org:nv", 100),
		rsvp("bob", "bob", "31923:org:nv", 150),
		rsvp("alice-new", "alice", "31923:org:nv", 200),
		rsvp("alice-other", "alice", "31923:org:workshop", 120),
	}

	out := LatestBy(events, RSVPKey)
	require.Len(t, out, 3)
	require.Equal(t, "alice-new", out[0].ID)
	require.Equal(t, "bob", out[1].ID)
	require.Equal(t, "alice-other", out[2].ID)
}

func TestDeduplicateByIDIdempotent(t *testing.T) {
	events := []*nostr.Event{
		{ID: "x", CreatedAt: 1},
		{ID: "y", CreatedAt: 2},
		{ID: "x", CreatedAt: 1},
		{ID: "z", CreatedAt: 3},
		{ID: "y", CreatedAt: 2},
	}

	once := DeduplicateByID(events)
	require.Len(t, once, 3)
	require.Equal(t, "x", once[0].ID)
	require.Equal(t, "y", once[1].ID)
	require.Equal(t, "z", once[2].ID)

	twice := DeduplicateByID(once)
	require.Equal(t, once, twice)
}

func TestSortCalendarEventsAcrossKinds(t *testing.T) {
	timeBased := func(id, start string) *nostr.Event {
		return &nostr.Event{
			ID:   id,
			Kind: KindTimeCalendarEvent,
			Tags: nostr.Tags{{"d", id}, {"start", start}},
		}
	}
	dateBased := func(id, start string) *nostr.Event {
		return &nostr.Event{
			ID:   id,
			Kind: KindDateCalendarEvent,
			Tags: nostr.Tags{{"d", id}, {"start", start}},
		}
	}

	// 2025-10-17T23:00:00Z sorts before the all-day 2025-10-18, which
	// normalizes to UTC midnight.
	events := []*nostr.Event{
		dateBased("day", "2025-10-18"),
		timeBased("evening", "1760742000"),
	}
	SortCalendarEvents(events)
	require.Equal(t, "evening", events[0].ID)
	require.Equal(t, "day", events[1].ID)
}

func TestSortCalendarEventsUnparseableStartsSortLast(t *testing.T) {
	events := []*nostr.Event{
		{ID: "broken", Kind: KindTimeCalendarEvent, Tags: nostr.Tags{{"d", "broken"}, {"start", "soon"}}},
		{ID: "later", Kind: KindTimeCalendarEvent, Tags: nostr.Tags{{"d", "later"}, {"start", "1760745600"}}},
		{ID: "missing", Kind: KindDateCalendarEvent, Tags: nostr.Tags{{"d", "missing"}}},
		{ID: "earlier", Kind: KindDateCalendarEvent, Tags: nostr.Tags{{"d", "earlier"}, {"start", "2025-10-17"}}},
	}
	SortCalendarEvents(events)

	// Parseable starts in order, then the unparseable ones in input order.
	require.Equal(t, []string{"earlier", "later", "broken", "missing"}, ids(events))
}

func TestStartEpoch(t *testing.T) {
	ts, ok := StartEpoch(&nostr.Event{
		Kind: KindDateCalendarEvent,
		Tags: nostr.Tags{{"start", "2025-10-18"}},
	})
	require.True(t, ok)
	require.Equal(t, int64(1760745600), ts)

	ts, ok = StartEpoch(&nostr.Event{
		Kind: KindTimeCalendarEvent,
		Tags: nostr.Tags{{"start", "1760742000"}},
	})
	require.True(t, ok)
	require.Equal(t, int64(1760742000), ts)

	_, ok = StartEpoch(&nostr.Event{Kind: KindTimeCalendarEvent})
	require.False(t, ok)

	_, ok = StartEpoch(&nostr.Event{
		Kind: KindDateCalendarEvent,
		Tags: nostr.Tags{{"start", "not-a-date"}},
	})
	require.False(t, ok)
}

func TestSortByCreatedAt(t *testing.T) {
	events := []*nostr.Event{
		{ID: "mid", CreatedAt: 200},
		{ID: "old", CreatedAt: 100},
		{ID: "new", CreatedAt: 300},
	}

	SortByCreatedAtDesc(events)
	require.Equal(t, []string{"new", "mid", "old"}, ids(events))

	SortByCreatedAtAsc(events)
	require.Equal(t, []string{"old", "mid", "new"}, ids(events))
}

func ids(events []*nostr.Event) []string {
	out := make([]string, len(events))
	for i, ev := range events {
		out[i] = ev.ID
	}
	return out
}
