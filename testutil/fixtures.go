package testutil

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/protocol"
)

// Fixture identities. These are valid 32-byte hex pubkeys but do not
// correspond to any known secret key.
const (
	OrganizerPubKey = "82341f882b6eabcd2ba7f1ef90aad961cf074af15b9ef44a09f9d2a8fbfbe6a2"
	AttendeePubKey  = "79be667ef9dcbbac55a06295ce870b07029bfcdb2dce28d959f2815b16f81798"
)

// EventOption customizes a fixture event.
type EventOption func(*nostr.Event)

// WithPubKey sets the event author.
func WithPubKey(pubkey string) EventOption {
	return func(ev *nostr.Event) { ev.PubKey = pubkey }
}

// WithCreatedAt sets the event timestamp.
func WithCreatedAt(ts int64) EventOption {
	return func(ev *nostr.Event) { ev.CreatedAt = nostr.Timestamp(ts) }
}

// WithContent sets the event content.
func WithContent(content string) EventOption {
	return func(ev *nostr.Event) { ev.Content = content }
}

// WithTag sets a tag, replacing the first existing tag with the same key.
func WithTag(values ...string) EventOption {
	return func(ev *nostr.Event) { setTag(ev, values...) }
}

// WithIdentifier sets the `d` tag.
func WithIdentifier(d string) EventOption { return WithTag("d", d) }

// WithTitle sets the `title` tag.
func WithTitle(title string) EventOption { return WithTag("title", title) }

// WithStart sets the `start` tag.
func WithStart(start string) EventOption { return WithTag("start", start) }

// WithStatus sets the `status` tag.
func WithStatus(status string) EventOption { return WithTag("status", status) }

// WithHashtag appends a `t` tag.
func WithHashtag(tag string) EventOption {
	return func(ev *nostr.Event) {
		ev.Tags = append(ev.Tags, nostr.Tag{"t", tag})
	}
}

func setTag(ev *nostr.Event, values ...string) {
	for i, tag := range ev.Tags {
		if len(tag) > 0 && tag[0] == values[0] {
			ev.Tags[i] = nostr.Tag(values)
			return
		}
	}
	ev.Tags = append(ev.Tags, nostr.Tag(values))
}

func finalize(ev *nostr.Event, opts []EventOption) *nostr.Event {
	for _, opt := range opts {
		opt(ev)
	}
	ev.ID = ev.GetID()
	return ev
}

// NewNote creates a kind-1 text note.
func NewNote(opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindTextNote,
		PubKey:    AttendeePubKey,
		CreatedAt: 1760000000,
		Content:   "hello from the valley",
		Tags:      nostr.Tags{{"t", "nostrvalley"}},
	}
	return finalize(ev, opts)
}

// NewPictureNote creates a kind-20 picture note with an imeta tag.
func NewPictureNote(opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindPictureNote,
		PubKey:    AttendeePubKey,
		CreatedAt: 1760000000,
		Content:   "sunset over the venue",
		Tags: nostr.Tags{
			{"t", "nostrvalley"},
			{"imeta", "url https://img.example/sunset.jpg", "m image/jpeg"},
		},
	}
	return finalize(ev, opts)
}

// NewCalendarEvent creates a valid kind-31923 time-based calendar event.
func NewCalendarEvent(opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindTimeCalendarEvent,
		PubKey:    OrganizerPubKey,
		CreatedAt: 1760000000,
		Content:   "The annual gathering.",
		Tags: nostr.Tags{
			{"d", "nostr-valley-2025"},
			{"title", "Nostr Valley 2025"},
			{"start", "1761955200"},
			{"end", "1761984000"},
			{"location", "Happy Valley, PA"},
		},
	}
	return finalize(ev, opts)
}

// NewDateCalendarEvent creates a valid kind-31922 date-based calendar event.
func NewDateCalendarEvent(opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindDateCalendarEvent,
		PubKey:    OrganizerPubKey,
		CreatedAt: 1760000000,
		Tags: nostr.Tags{
			{"d", "nostr-valley-day"},
			{"title", "Nostr Valley Day"},
			{"start", "2025-11-01"},
		},
	}
	return finalize(ev, opts)
}

// NewRSVP creates a valid kind-31925 RSVP referencing coordinate.
func NewRSVP(coordinate string, opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindCalendarRSVP,
		PubKey:    AttendeePubKey,
		CreatedAt: 1760000000,
		Tags: nostr.Tags{
			{"d", "rsvp-fixture"},
			{"a", coordinate},
			{"status", "accepted"},
		},
	}
	return finalize(ev, opts)
}

// NewLiveEvent creates a valid kind-30311 live activity.
func NewLiveEvent(opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindLiveEvent,
		PubKey:    OrganizerPubKey,
		CreatedAt: 1760000000,
		Tags: nostr.Tags{
			{"d", "main-stage"},
			{"title", "Main Stage"},
			{"status", "live"},
			{"starts", "1761955200"},
			{"streaming", "https://stream.example/main.m3u8"},
		},
	}
	return finalize(ev, opts)
}

// NewChatMessage creates a kind-1311 live chat message for coordinate.
func NewChatMessage(coordinate string, opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindLiveChatMessage,
		PubKey:    AttendeePubKey,
		CreatedAt: 1760000000,
		Content:   "great talk!",
		Tags:      nostr.Tags{{"a", coordinate}},
	}
	return finalize(ev, opts)
}

// NewProfile creates a kind-0 profile metadata event.
func NewProfile(opts ...EventOption) *nostr.Event {
	ev := &nostr.Event{
		Kind:      protocol.KindProfileMetadata,
		PubKey:    OrganizerPubKey,
		CreatedAt: 1760000000,
		Content:   `{"name":"Nostr Valley","about":"Community conference","picture":"https://img.example/nv.png"}`,
	}
	return finalize(ev, opts)
}

// Coordinate returns the addressable coordinate of a fixture event, panicking
// on events without a d tag. Fixtures are static so this cannot fail at test
// runtime for the builders above.
func Coordinate(ev *nostr.Event) string {
	coord, err := protocol.Coordinate(ev)
	if err != nil {
		panic(fmt.Sprintf("testutil: fixture has no coordinate: %v", err))
	}
	return coord
}
