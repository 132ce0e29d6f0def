package httpserver

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/nbd-wtf/go-nostr"
	"github.com/stretchr/testify/require"

	"github.com/derekross/nostrvalley/aggregator"
	"github.com/derekross/nostrvalley/feeds"
	"github.com/derekross/nostrvalley/relay"
	"github.com/derekross/nostrvalley/testutil"
)

const testCoordinate = "31923:" + testutil.OrganizerPubKey + ":nv-2025"

// setupServer builds the full router over mocked relays so handler tests
// exercise middleware and routing, not just the handler functions.
func setupServer(t *testing.T, signer relay.Signer) (http.Handler, *relay.MockQuerier, *relay.MockPublisher) {
	t.Helper()

	mock := relay.NewMockQuerier()
	pub := &relay.MockPublisher{}

	agg, err := aggregator.New(mock, []string{"wss://relay-a.example"}, slog.Default())
	require.NoError(t, err)

	svc, err := feeds.NewService(agg, pub, signer, feeds.Config{
		OrganizerPubKey: testutil.OrganizerPubKey,
		Hashtags:        []string{"nostrvalley"},
		QueryTimeout:    time.Second,
	}, slog.Default())
	require.NoError(t, err)

	srv, err := New(&ServerConfig{
		ListenAddr:               ":0",
		DrainDuration:            time.Millisecond,
		GracefulShutdownDuration: time.Second,
	}, NewFeedHandler(svc, slog.Default()))
	require.NoError(t, err)

	return srv.Handler(), mock, pub
}

func doRequest(t *testing.T, handler http.Handler, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHealthEndpoints(t *testing.T) {
	handler, _, _ := setupServer(t, nil)

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodGet, "/livez", "").Code)
	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodGet, "/readyz", "").Code)

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodGet, "/drain", "").Code)
	require.Equal(t, http.StatusServiceUnavailable, doRequest(t, handler, http.MethodGet, "/readyz", "").Code)

	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodGet, "/undrain", "").Code)
	require.Equal(t, http.StatusOK, doRequest(t, handler, http.MethodGet, "/readyz", "").Code)
}

func TestGetCalendarEvents(t *testing.T) {
	handler, mock, _ := setupServer(t, nil)
	mock.SetFallback(relay.StaticEvents(testutil.NewCalendarEvent()))

	rr := doRequest(t, handler, http.MethodGet, "/api/v1/events", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, "application/json", rr.Header().Get("Content-Type"))

	var body struct {
		Events []struct {
			Title      string `json:"title"`
			Coordinate string `json:"coordinate"`
		} `json:"events"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.Events, 1)
	require.Equal(t, "Nostr Valley 2025", body.Events[0].Title)
}

func TestGetScheduleICS(t *testing.T) {
	handler, mock, _ := setupServer(t, nil)
	mock.SetFallback(relay.StaticEvents(
		testutil.NewCalendarEvent(),
		testutil.NewDateCalendarEvent(),
	))

	rr := doRequest(t, handler, http.MethodGet, "/api/v1/events/ics", "")
	require.Equal(t, http.StatusOK, rr.Code)
	require.Contains(t, rr.Header().Get("Content-Type"), "text/calendar")

	ics := rr.Body.String()
	require.Contains(t, ics, "BEGIN:VCALENDAR")
	require.Contains(t, ics, "SUMMARY:Nostr Valley 2025")
	require.Contains(t, ics, "SUMMARY:Nostr Valley Day")
	require.Contains(t, ics, "END:VCALENDAR")
}

func TestGetRSVPs(t *testing.T) {
	handler, mock, _ := setupServer(t, nil)
	mock.SetFallback(relay.StaticEvents(testutil.NewRSVP(testCoordinate)))

	rr := doRequest(t, handler, http.MethodGet, "/api/v1/rsvps?coordinate="+testCoordinate, "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body struct {
		RSVPs []struct {
			Status string `json:"status"`
			PubKey string `json:"pubkey"`
		} `json:"rsvps"`
	}
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	require.Len(t, body.RSVPs, 1)
	require.Equal(t, "accepted", body.RSVPs[0].Status)
}

func TestGetRSVPsValidation(t *testing.T) {
	handler, _, _ := setupServer(t, nil)

	rr := doRequest(t, handler, http.MethodGet, "/api/v1/rsvps", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, handler, http.MethodGet, "/api/v1/rsvps?coordinate=garbage", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPostRSVP(t *testing.T) {
	signer, err := relay.NewEphemeralSigner()
	require.NoError(t, err)
	handler, _, pub := setupServer(t, signer)

	rr := doRequest(t, handler, http.MethodPost, "/api/v1/rsvp",
		`{"coordinate":"`+testCoordinate+`","status":"accepted"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, pub.Published, 1)
}

func TestPostRSVPErrorMapping(t *testing.T) {
	signer, err := relay.NewEphemeralSigner()
	require.NoError(t, err)

	// Malformed body.
	handler, _, _ := setupServer(t, signer)
	rr := doRequest(t, handler, http.MethodPost, "/api/v1/rsvp", "{")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// Invalid status.
	rr = doRequest(t, handler, http.MethodPost, "/api/v1/rsvp",
		`{"coordinate":"`+testCoordinate+`","status":"maybe"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)

	// No signer configured.
	readOnly, _, _ := setupServer(t, nil)
	rr = doRequest(t, readOnly, http.MethodPost, "/api/v1/rsvp",
		`{"coordinate":"`+testCoordinate+`","status":"accepted"}`)
	require.Equal(t, http.StatusServiceUnavailable, rr.Code)

	// Publish failure at the relays.
	failing, _, pub := setupServer(t, signer)
	pub.Err = http.ErrHandlerTimeout
	rr = doRequest(t, failing, http.MethodPost, "/api/v1/rsvp",
		`{"coordinate":"`+testCoordinate+`","status":"accepted"}`)
	require.Equal(t, http.StatusBadGateway, rr.Code)
}

func TestGetCommunityFeed(t *testing.T) {
	handler, mock, _ := setupServer(t, nil)
	note := testutil.NewNote(testutil.WithCreatedAt(1000))
	mock.SetFallback(func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
		for _, f := range filters {
			if f.Until != nil && note.CreatedAt > *f.Until {
				return nil, nil
			}
		}
		return []*nostr.Event{note}, nil
	})

	rr := doRequest(t, handler, http.MethodGet, "/api/v1/feed?limit=10", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var page feeds.FeedPage
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &page))
	require.Len(t, page.Events, 1)

	rr = doRequest(t, handler, http.MethodGet, "/api/v1/feed?limit=0", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)

	rr = doRequest(t, handler, http.MethodGet, "/api/v1/feed?until=abc", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestGetChatRequiresCoordinate(t *testing.T) {
	handler, _, _ := setupServer(t, nil)
	rr := doRequest(t, handler, http.MethodGet, "/api/v1/chat", "")
	require.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPostChat(t *testing.T) {
	signer, err := relay.NewEphemeralSigner()
	require.NoError(t, err)
	handler, _, pub := setupServer(t, signer)

	rr := doRequest(t, handler, http.MethodPost, "/api/v1/chat",
		`{"coordinate":"30311:`+testutil.OrganizerPubKey+`:main-stage","content":"hi"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, pub.Published, 1)
}

func TestGetProfile(t *testing.T) {
	handler, mock, _ := setupServer(t, nil)
	mock.SetFallback(relay.StaticEvents(testutil.NewProfile()))

	rr := doRequest(t, handler, http.MethodGet, "/api/v1/profile", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var profile feeds.Profile
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &profile))
	require.Equal(t, testutil.OrganizerPubKey, profile.PubKey)
	require.NotNil(t, profile.Metadata)
	require.Equal(t, "Nostr Valley", profile.Metadata.Name)
}

func TestPostDirectMessage(t *testing.T) {
	signer, err := relay.NewEphemeralSigner()
	require.NoError(t, err)
	handler, _, pub := setupServer(t, signer)

	rr := doRequest(t, handler, http.MethodPost, "/api/v1/dm",
		`{"recipient":"`+testutil.OrganizerPubKey+`","message":"hello"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	require.Len(t, pub.Published, 1)

	rr = doRequest(t, handler, http.MethodPost, "/api/v1/dm",
		`{"recipient":"npub1notvalid","message":"hello"}`)
	require.Equal(t, http.StatusBadRequest, rr.Code)
}
