package protocol

import (
	"strconv"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// ValidateCalendarEvent reports whether an event satisfies the NIP-52
// calendar-event schema. Both calendar kinds require non-empty `d`, `title`,
// and `start` tags; the interpretation of `start` depends on the kind.
func ValidateCalendarEvent(ev *nostr.Event) bool {
	if ev.Kind != KindDateCalendarEvent && ev.Kind != KindTimeCalendarEvent {
		return false
	}

	rec := DecodeTags(ev.Tags)
	if rec.Identifier == "" || rec.Title == "" || rec.Start == "" {
		return false
	}

	switch ev.Kind {
	case KindDateCalendarEvent:
		return validDateString(rec.Start)
	case KindTimeCalendarEvent:
		return validUnixSeconds(rec.Start)
	}
	return false
}

// ValidateLiveEvent reports whether an event satisfies the NIP-53 live-event
// schema. Only the `d` tag is required; status, stream URLs, and participant
// lists are all optional.
func ValidateLiveEvent(ev *nostr.Event) bool {
	if ev.Kind != KindLiveEvent {
		return false
	}
	return DecodeTags(ev.Tags).Identifier != ""
}

// ValidateRSVP reports whether an event is a well-formed calendar RSVP: it
// must reference a calendar event coordinate via an `a` tag and carry a
// recognized `status` tag.
func ValidateRSVP(ev *nostr.Event) bool {
	if ev.Kind != KindCalendarRSVP {
		return false
	}
	rec := DecodeTags(ev.Tags)
	if len(rec.Coordinates) == 0 {
		return false
	}
	switch RSVPStatus(rec.Status) {
	case RSVPAccepted, RSVPDeclined, RSVPTentative:
		return true
	}
	return false
}

// ValidateChatMessage reports whether an event is a live chat message
// referencing an activity coordinate.
func ValidateChatMessage(ev *nostr.Event) bool {
	if ev.Kind != KindLiveChatMessage {
		return false
	}
	return len(DecodeTags(ev.Tags).Coordinates) > 0
}

// validDateString accepts only real calendar dates in YYYY-MM-DD form.
// time.Parse rejects both malformed strings and impossible dates such as
// "2025-13-45".
func validDateString(s string) bool {
	_, err := time.Parse("2006-01-02", s)
	return err == nil
}

// validUnixSeconds accepts positive integer unix timestamps.
func validUnixSeconds(s string) bool {
	ts, err := strconv.ParseInt(s, 10, 64)
	return err == nil && ts > 0
}
