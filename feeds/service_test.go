package feeds

import (
	"context"
	"log/slog"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/derekross/nostrvalley/aggregator"
	"github.com/derekross/nostrvalley/relay"
	"github.com/derekross/nostrvalley/testutil"
)

var testFeedRelays = []string{"wss://relay-a.example", "wss://relay-b.example"}

// setupService wires a Service over mocked relays. The returned mock serves
// every endpoint through its fallback unless a test installs per-relay
// behavior.
func setupService(t *testing.T, signer relay.Signer) (*Service, *relay.MockQuerier, *relay.MockPublisher) {
	t.Helper()

	mock := relay.NewMockQuerier()
	pub := &relay.MockPublisher{}

	agg, err := aggregator.New(mock, testFeedRelays, slog.Default())
	require.NoError(t, err)

	svc, err := NewService(agg, pub, signer, Config{
		OrganizerPubKey: testutil.OrganizerPubKey,
		Hashtags:        []string{"NostrValley", "nostrvalley"},
		QueryTimeout:    time.Second,
		PageLimit:       10,
	}, slog.Default())
	require.NoError(t, err)

	return svc, mock, pub
}

func TestNewServiceValidation(t *testing.T) {
	mock := relay.NewMockQuerier()
	agg, err := aggregator.New(mock, testFeedRelays, slog.Default())
	require.NoError(t, err)

	_, err = NewService(nil, nil, nil, Config{OrganizerPubKey: "pk"}, nil)
	require.Error(t, err)

	_, err = NewService(agg, nil, nil, Config{}, nil)
	require.Error(t, err)
}

func TestCalendarEventsPipeline(t *testing.T) {
	valid := testutil.NewCalendarEvent(testutil.WithStart("1761955200"))
	later := testutil.NewCalendarEvent(
		testutil.WithStart("1761955200"),
		testutil.WithTitle("Nostr Valley 2025 (updated)"),
		testutil.WithCreatedAt(1760001000),
	)
	earlier := testutil.NewDateCalendarEvent(testutil.WithStart("2025-10-01"))
	invalid := testutil.NewCalendarEvent(testutil.WithStart("not-a-start"))

	svc, mock, _ := setupService(t, nil)
	mock.SetFallback(relay.StaticEvents(valid, later, earlier, invalid))

	events, err := svc.CalendarEvents(context.Background())
	require.NoError(t, err)

	// The invalid event is dropped, the two revisions of the same
	// coordinate reduce to the newest, and the remaining two sort by
	// start across kinds.
	require.Len(t, events, 2)
	require.Equal(t, "Nostr Valley Day", events[0].Title)
	require.Equal(t, "Nostr Valley 2025 (updated)", events[1].Title)
}

func TestCalendarEventsCached(t *testing.T) {
	svc, mock, _ := setupService(t, nil)
	mock.SetFallback(relay.StaticEvents(testutil.NewCalendarEvent()))

	_, err := svc.CalendarEvents(context.Background())
	require.NoError(t, err)
	queriedOnce := len(mock.QueriedURLs())

	_, err = svc.CalendarEvents(context.Background())
	require.NoError(t, err)
	require.Len(t, mock.QueriedURLs(), queriedOnce)

	svc.ResetCache()
	_, err = svc.CalendarEvents(context.Background())
	require.NoError(t, err)
	require.Greater(t, len(mock.QueriedURLs()), queriedOnce)
}

// untilFiltered serves events honoring the filters' until bound, the way a
// real relay pages results.
func untilFiltered(events ...*nostr.Event) relay.QueryFunc {
	return func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
		var out []*nostr.Event
		for _, ev := range events {
			for _, f := range filters {
				if f.Until != nil && ev.CreatedAt > *f.Until {
					continue
				}
				out = append(out, ev)
				break
			}
		}
		return out, nil
	}
}

func TestCommunityFeedPageCursor(t *testing.T) {
	notes := []*nostr.Event{
		testutil.NewNote(testutil.WithContent("one"), testutil.WithCreatedAt(1000)),
		testutil.NewNote(testutil.WithContent("two"), testutil.WithCreatedAt(2000)),
		testutil.NewNote(testutil.WithContent("three"), testutil.WithCreatedAt(3000)),
	}

	svc, mock, _ := setupService(t, nil)
	mock.SetFallback(untilFiltered(notes...))

	page, err := svc.CommunityFeedPage(context.Background(), 2500)
	require.NoError(t, err)
	require.Len(t, page.Events, 2)
	require.Equal(t, nostr.Timestamp(2000), page.Events[0].CreatedAt)
	require.Equal(t, nostr.Timestamp(1000), page.Events[1].CreatedAt)
	require.NotNil(t, page.NextCursor)
	require.Equal(t, int64(999), *page.NextCursor)
}

func TestCommunityFeedPageEmptyTerminates(t *testing.T) {
	svc, _, _ := setupService(t, nil)

	page, err := svc.CommunityFeedPage(context.Background(), 1000)
	require.NoError(t, err)
	require.Empty(t, page.Events)
	require.Nil(t, page.NextCursor)
}

func TestPaginatorWalksToTermination(t *testing.T) {
	notes := []*nostr.Event{
		testutil.NewNote(testutil.WithContent("one"), testutil.WithCreatedAt(1000)),
		testutil.NewNote(testutil.WithContent("two"), testutil.WithCreatedAt(2000)),
	}

	svc, mock, _ := setupService(t, nil)
	mock.SetFallback(untilFiltered(notes...))

	p := svc.NewPaginator(5000)

	first, more, err := p.Next(context.Background())
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, first, 2)

	// Next window is below every note, so the page is empty and the
	// paginator terminates.
	second, more, err := p.Next(context.Background())
	require.NoError(t, err)
	require.False(t, more)
	require.Empty(t, second)

	// Terminated paginators stay terminated.
	_, more, err = p.Next(context.Background())
	require.NoError(t, err)
	require.False(t, more)
}

func TestPaginatorSuppressesCrossPageDuplicates(t *testing.T) {
	sticky := testutil.NewNote(testutil.WithContent("sticky"), testutil.WithCreatedAt(1500))
	newer := testutil.NewNote(testutil.WithContent("newer"), testutil.WithCreatedAt(3000))

	svc, mock, _ := setupService(t, nil)
	// A relay that ignores until for the sticky note, returning it on
	// every page.
	mock.SetFallback(func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
		out := []*nostr.Event{sticky}
		for _, f := range filters {
			if f.Until != nil && newer.CreatedAt <= *f.Until {
				out = append(out, newer)
				break
			}
		}
		return out, nil
	})

	p := svc.NewPaginator(5000)

	first, more, err := p.Next(context.Background())
	require.NoError(t, err)
	require.True(t, more)
	require.Len(t, first, 2)

	second, more, err := p.Next(context.Background())
	require.NoError(t, err)
	require.True(t, more)
	require.Empty(t, second, "already-seen events must not repeat")
}

func TestRecentFeedRespectsBudget(t *testing.T) {
	notes := make([]*nostr.Event, 6)
	for i := range notes {
		notes[i] = testutil.NewNote(
			testutil.WithContent("note"),
			testutil.WithCreatedAt(int64(1000+i*100)),
		)
	}

	svc, mock, _ := setupService(t, nil)
	mock.SetFallback(untilFiltered(notes...))

	events, err := svc.RecentFeed(context.Background(), 4)
	require.NoError(t, err)
	require.Len(t, events, 4)
}
