package protocol

import (
	"sort"
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// KeyFunc extracts the grouping key of an event for latest-wins reduction.
// The second return value reports whether the event participates at all:
// events without a key are dropped, since a keyless addressable event
// cannot be referenced.
type KeyFunc func(*nostr.Event) (string, bool)

// CoordinateKey groups addressable events by their kind:pubkey:d coordinate.
func CoordinateKey(ev *nostr.Event) (string, bool) {
	rec := DecodeTags(ev.Tags)
	if rec.Identifier == "" {
		return "", false
	}
	return FormatCoordinate(ev.Kind, ev.PubKey, rec.Identifier), true
}

// RSVPKey groups RSVPs by (responder pubkey, referenced coordinate), so the
// reduction yields each user's current response per calendar event.
func RSVPKey(ev *nostr.Event) (string, bool) {
	rec := DecodeTags(ev.Tags)
	if len(rec.Coordinates) == 0 {
		return "", false
	}
	return ev.PubKey + "\x00" + rec.Coordinates[0], true
}

// LatestBy reduces an event sequence to the newest event per key: the
// "latest wins" semantics of addressable events, applied at read time since
// relays offer no such guarantee. Output preserves the input order of each
// key's first appearance. On a created_at tie the earlier-seen event is
// kept, so the fold is deterministic for a fixed input order. Events
// yielding no key are dropped.
func LatestBy(events []*nostr.Event, key KeyFunc) []*nostr.Event {
	out := make([]*nostr.Event, 0, len(events))
	index := make(map[string]int, len(events))

	for _, ev := range events {
		k, ok := key(ev)
		if !ok {
			continue
		}
		at, seen := index[k]
		if !seen {
			index[k] = len(out)
			out = append(out, ev)
			continue
		}
		if ev.CreatedAt > out[at].CreatedAt {
			out[at] = ev
		}
	}

	return out
}

// DeduplicateByID collapses duplicate events, keeping the first-seen copy.
// Two events sharing an id are the same event, so the operation is
// idempotent: applying it twice equals applying it once.
func DeduplicateByID(events []*nostr.Event) []*nostr.Event {
	out := make([]*nostr.Event, 0, len(events))
	seen := make(map[string]struct{}, len(events))
	for _, ev := range events {
		if _, dup := seen[ev.ID]; dup {
			continue
		}
		seen[ev.ID] = struct{}{}
		out = append(out, ev)
	}
	return out
}

// StartEpoch normalizes a calendar event's start to epoch seconds for
// cross-kind comparison: date-based starts are taken as UTC midnight,
// time-based starts as-is. ok is false when the start tag is missing or
// unparseable.
func StartEpoch(ev *nostr.Event) (int64, bool) {
	start := DecodeTags(ev.Tags).Start
	if start == "" {
		return 0, false
	}

	switch ev.Kind {
	case KindDateCalendarEvent:
		t, err := time.Parse("2006-01-02", start)
		if err != nil {
			return 0, false
		}
		return t.UTC().Unix(), true
	case KindTimeCalendarEvent:
		ts, err := strconv.ParseInt(start, 10, 64)
		if err != nil || ts <= 0 {
			return 0, false
		}
		return ts, true
	}
	return 0, false
}

// SortCalendarEvents orders calendar events by start, comparing date-based
// and time-based events on the common epoch-seconds scale. Events whose
// start does not parse sort after every parseable one. The sort is stable
// and defines no secondary key: events with an equal start keep their
// input order.
func SortCalendarEvents(events []*nostr.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		a, aok := StartEpoch(events[i])
		b, bok := StartEpoch(events[j])
		if aok != bok {
			return aok
		}
		if !aok {
			return false
		}
		return a < b
	})
}

// SortByCreatedAtDesc orders events newest first, the display order of the
// community feed. Stable, so same-second events keep relay arrival order.
func SortByCreatedAtDesc(events []*nostr.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt > events[j].CreatedAt
	})
}

// SortByCreatedAtAsc orders events oldest first, the display order of chat.
func SortByCreatedAtAsc(events []*nostr.Event) {
	sort.SliceStable(events, func(i, j int) bool {
		return events[i].CreatedAt < events[j].CreatedAt
	})
}
