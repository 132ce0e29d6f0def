/*
Package testutil provides test fixtures for the feed aggregation stack.

The generators build nostr events with sensible defaults and accept
option functions for the fields a test cares about:

	ev := testutil.NewCalendarEvent(
	    testutil.WithIdentifier("nv-2025"),
	    testutil.WithStart("1761955200"),
	)

Fixture events carry deterministic ids and pubkeys so tests can assert
on them directly. They are not signed; nothing in the read path checks
signatures, relays do that before storing.
*/
package testutil
