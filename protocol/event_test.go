package protocol

import (
	"testing"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"
)

func TestDecodeTagsFirstOccurrenceWins(t *testing.T) {
	rec := DecodeTags(nostr.Tags{
		{"d", "first"},
		{"d", "second"},
		{"title", "Talks"},
	})
	require.Equal(t, "first", rec.Identifier)
	require.Equal(t, "Talks", rec.Title)
}

func TestDecodeTagsRepeatableTags(t *testing.T) {
	rec := DecodeTags(nostr.Tags{
		{"location", "Main Hall"},
		{"location", "Happy Valley, PA"},
		{"t", "nostrvalley"},
		{"t", "NostrValley"},
		{"a", "31923:pk:one"},
		{"a", "31923:pk:two"},
		{"p", "pubkey1", "wss://relay.example", "speaker"},
	})
	require.Equal(t, []string{"Main Hall", "Happy Valley, PA"}, rec.Locations)
	require.Equal(t, []string{"nostrvalley", "NostrValley"}, rec.Hashtags)
	require.Equal(t, []string{"31923:pk:one", "31923:pk:two"}, rec.Coordinates)
	require.Len(t, rec.Participants, 1)
	require.Equal(t, "pubkey1", rec.Participants[0].PubKey)
	require.Equal(t, "wss://relay.example", rec.Participants[0].Relay)
	require.Equal(t, "speaker", rec.Participants[0].Role)
}

func TestDecodeTagsPreservesUnknown(t *testing.T) {
	rec := DecodeTags(nostr.Tags{
		{"d", "id"},
		{"custom", "value", "extra"},
	})
	require.Len(t, rec.Unknown, 1)
	require.Equal(t, "custom", rec.Unknown[0][0])
}

func TestDecodeTagsTolerantOfShortTags(t *testing.T) {
	rec := DecodeTags(nostr.Tags{
		{},
		{"d"},
		{"start"},
	})
	require.Empty(t, rec.Identifier)
	require.Empty(t, rec.Start)
}

func TestCoordinateRoundTrip(t *testing.T) {
	ev := &nostr.Event{
		Kind:   KindTimeCalendarEvent,
		PubKey: "organizerpk",
		Tags:   nostr.Tags{{"d", "nv-2025"}},
	}

	coord, err := Coordinate(ev)
	require.NoError(t, err)
	require.Equal(t, "31923:organizerpk:nv-2025", coord)

	kind, pubkey, identifier, err := ParseCoordinate(coord)
	require.NoError(t, err)
	require.Equal(t, KindTimeCalendarEvent, kind)
	require.Equal(t, "organizerpk", pubkey)
	require.Equal(t, "nv-2025", identifier)
}

func TestCoordinateRequiresIdentifier(t *testing.T) {
	_, err := Coordinate(&nostr.Event{Kind: KindTimeCalendarEvent, PubKey: "pk"})
	require.Error(t, err)
}

func TestParseCoordinateIdentifierMayContainColons(t *testing.T) {
	kind, pubkey, identifier, err := ParseCoordinate("30311:host:main:stage:two")
	require.NoError(t, err)
	require.Equal(t, KindLiveEvent, kind)
	require.Equal(t, "host", pubkey)
	require.Equal(t, "main:stage:two", identifier)
}

func TestParseCoordinateRejectsMalformed(t *testing.T) {
	for _, s := range []string{"", "31923", "31923:pk", "kind:pk:d", "31923::d"} {
		_, _, _, err := ParseCoordinate(s)
		require.Error(t, err, "coordinate %q", s)
	}
}
