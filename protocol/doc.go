// Package protocol implements the event-schema layer of the Nostr Valley
// gateway: kind taxonomy, tag decoding, validation, parsing, and ordering
// for the event kinds the site consumes.
//
// Nostr events carry their structured metadata in positional string-array
// tags. Rather than re-parsing tag positions throughout the codebase, this
// package decodes tags once at the boundary into a typed TagRecord and
// projects validated events into flat records (CalendarEvent, LiveEvent,
// RSVP, ChatMessage, ProfileMetadata) that the feed and HTTP layers consume.
//
// # Validation
//
// Validators are pure predicates over a single event. An event that fails
// validation is silently dropped by the callers; malformed events are never
// surfaced as user-visible errors. The calendar validator enforces the
// NIP-52 minimum schema: a non-empty `d`, `title`, and `start` tag, with
// `start` formatted as a YYYY-MM-DD date for kind 31922 and as a positive
// unix timestamp for kind 31923.
//
// # Addressable events
//
// Kinds in the 30000-39999 range are addressable: the newest event sharing
// a (kind, pubkey, d-tag) coordinate logically replaces older ones. Relays
// do not enforce this, so LatestBy implements the "latest wins" reduction
// as a pure fold that every consumer of coordinates applies uniformly.
package protocol
