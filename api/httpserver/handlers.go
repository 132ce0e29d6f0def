package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/nbd-wtf/go-nostr/nip19"

	"github.com/derekross/nostrvalley/feeds"
)

// FeedHandler exposes the aggregated feeds over HTTP.
type FeedHandler struct {
	svc *feeds.Service
	log *slog.Logger
}

// NewFeedHandler creates the handler over the feed service.
func NewFeedHandler(svc *feeds.Service, log *slog.Logger) *FeedHandler {
	if log == nil {
		log = slog.Default()
	}
	return &FeedHandler{svc: svc, log: log}
}

// RegisterRoutes registers the feed routes.
func (h *FeedHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Get("/events", h.handleCalendarEvents)
		r.Get("/events/ics", h.handleScheduleICS)
		r.Get("/rsvps", h.handleEventRSVPs)
		r.Post("/rsvp", h.handleCreateRSVP)
		r.Get("/feed", h.handleCommunityFeed)
		r.Get("/media", h.handleMediaFeed)
		r.Get("/live", h.handleLiveEvents)
		r.Get("/chat", h.handleChatMessages)
		r.Post("/chat", h.handlePostChatMessage)
		r.Get("/profile", h.handleProfile)
		r.Post("/dm", h.handleDirectMessage)
	})
}

func (h *FeedHandler) handleCalendarEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.CalendarEvents(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, map[string]any{"events": events})
}

func (h *FeedHandler) handleEventRSVPs(w http.ResponseWriter, r *http.Request) {
	coordinate := r.URL.Query().Get("coordinate")
	if coordinate == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("coordinate query parameter is required"))
		return
	}

	if pubkey := r.URL.Query().Get("pubkey"); pubkey != "" {
		rsvp, err := h.svc.UserEventRSVP(r.Context(), pubkey, coordinate)
		if err != nil {
			h.writeError(w, readStatusFor(err), err)
			return
		}
		h.writeJSON(w, map[string]any{"rsvp": rsvp})
		return
	}

	rsvps, err := h.svc.EventRSVPs(r.Context(), coordinate)
	if err != nil {
		h.writeError(w, readStatusFor(err), err)
		return
	}
	h.writeJSON(w, map[string]any{"rsvps": rsvps})
}

func (h *FeedHandler) handleCreateRSVP(w http.ResponseWriter, r *http.Request) {
	var req feeds.CreateRSVPRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	rsvp, err := h.svc.CreateRSVP(r.Context(), req)
	if err != nil {
		h.writeError(w, writeStatusFor(err), err)
		return
	}
	h.writeJSON(w, map[string]any{"rsvp": rsvp})
}

func (h *FeedHandler) handleCommunityFeed(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	if untilParam := q.Get("until"); untilParam != "" {
		until, err := strconv.ParseInt(untilParam, 10, 64)
		if err != nil {
			h.writeError(w, http.StatusBadRequest, errors.New("until must be a unix timestamp"))
			return
		}
		page, err := h.svc.CommunityFeedPage(r.Context(), until)
		if err != nil {
			h.writeError(w, http.StatusInternalServerError, err)
			return
		}
		h.writeJSON(w, page)
		return
	}

	limit := 100
	if limitParam := q.Get("limit"); limitParam != "" {
		n, err := strconv.Atoi(limitParam)
		if err != nil || n <= 0 || n > 500 {
			h.writeError(w, http.StatusBadRequest, errors.New("limit must be between 1 and 500"))
			return
		}
		limit = n
	}
	events, err := h.svc.RecentFeed(r.Context(), limit)
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, feeds.FeedPage{Events: events})
}

func (h *FeedHandler) handleMediaFeed(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.MediaFeed(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, map[string]any{"events": events})
}

func (h *FeedHandler) handleLiveEvents(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.LiveEvents(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, map[string]any{"events": events})
}

func (h *FeedHandler) handleChatMessages(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	coordinate := q.Get("coordinate")
	if coordinate == "" {
		h.writeError(w, http.StatusBadRequest, errors.New("coordinate query parameter is required"))
		return
	}
	limit := 100
	if limitParam := q.Get("limit"); limitParam != "" {
		if n, err := strconv.Atoi(limitParam); err == nil && n > 0 && n <= 500 {
			limit = n
		}
	}

	messages, err := h.svc.ChatMessages(r.Context(), coordinate, limit)
	if err != nil {
		h.writeError(w, readStatusFor(err), err)
		return
	}
	h.writeJSON(w, map[string]any{"messages": messages})
}

type postChatRequest struct {
	Coordinate string `json:"coordinate"`
	Content    string `json:"content"`
}

func (h *FeedHandler) handlePostChatMessage(w http.ResponseWriter, r *http.Request) {
	var req postChatRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	msg, err := h.svc.PostChatMessage(r.Context(), req.Coordinate, req.Content)
	if err != nil {
		h.writeError(w, writeStatusFor(err), err)
		return
	}
	h.writeJSON(w, map[string]any{"message": msg})
}

func (h *FeedHandler) handleProfile(w http.ResponseWriter, r *http.Request) {
	profile, err := h.svc.OrganizerProfile(r.Context())
	if err != nil {
		h.writeError(w, http.StatusInternalServerError, err)
		return
	}
	h.writeJSON(w, profile)
}

type directMessageRequest struct {
	Recipient string `json:"recipient"` // npub or hex pubkey
	Message   string `json:"message"`
}

func (h *FeedHandler) handleDirectMessage(w http.ResponseWriter, r *http.Request) {
	var req directMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	recipient := req.Recipient
	if strings.HasPrefix(recipient, "npub1") {
		prefix, value, err := nip19.Decode(recipient)
		if err != nil || prefix != "npub" {
			h.writeError(w, http.StatusBadRequest, errors.New("invalid recipient npub"))
			return
		}
		recipient = value.(string)
	}

	if err := h.svc.SendDirectMessage(r.Context(), recipient, req.Message); err != nil {
		h.writeError(w, writeStatusFor(err), err)
		return
	}
	h.writeJSON(w, map[string]any{"status": "sent"})
}

// writeStatusFor maps write-path errors onto response codes: caller
// mistakes answer 400, a missing signer is a deployment condition, and
// everything else is a relay-side failure the client may retry.
func writeStatusFor(err error) int {
	switch {
	case errors.Is(err, feeds.ErrInvalidRequest):
		return http.StatusBadRequest
	case errors.Is(err, feeds.ErrNoSigner):
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

// readStatusFor maps read-path errors: caller mistakes answer 400, the
// rest is internal.
func readStatusFor(err error) int {
	if errors.Is(err, feeds.ErrInvalidRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

func (h *FeedHandler) writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("response encode failed", "err", err)
	}
}

func (h *FeedHandler) writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": err.Error()})
}
