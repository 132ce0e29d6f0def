package feeds

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/metrics"
	"github.com/derekross/nostrvalley/protocol"
)

// EventRSVPs returns each user's current response to the calendar event at
// the coordinate. Older responses from the same user are superseded by the
// latest-wins reduction, newest responses listed first.
func (s *Service) EventRSVPs(ctx context.Context, coordinate string) ([]protocol.RSVP, error) {
	if _, _, _, err := protocol.ParseCoordinate(coordinate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	filters := nostr.Filters{{
		Kinds: []int{protocol.KindCalendarRSVP},
		Tags:  nostr.TagMap{"a": []string{coordinate}},
		Limit: 200,
	}}
	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return nil, err
	}
	return s.reduceRSVPs(res.Events), nil
}

// UserRSVPs returns the user's current response per calendar event.
func (s *Service) UserRSVPs(ctx context.Context, pubkey string) ([]protocol.RSVP, error) {
	if pubkey == "" {
		return nil, fmt.Errorf("%w: empty pubkey", ErrInvalidRequest)
	}

	filters := nostr.Filters{{
		Kinds:   []int{protocol.KindCalendarRSVP},
		Authors: []string{pubkey},
		Limit:   50,
	}}
	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return nil, err
	}
	return s.reduceRSVPs(res.Events), nil
}

// UserEventRSVP returns the user's current response to one calendar event,
// or nil if they have not responded.
func (s *Service) UserEventRSVP(ctx context.Context, pubkey, coordinate string) (*protocol.RSVP, error) {
	if _, _, _, err := protocol.ParseCoordinate(coordinate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	rsvps, err := s.UserRSVPs(ctx, pubkey)
	if err != nil {
		return nil, err
	}
	for i := range rsvps {
		if rsvps[i].Coordinate == coordinate {
			return &rsvps[i], nil
		}
	}
	return nil, nil
}

func (s *Service) reduceRSVPs(events []*nostr.Event) []protocol.RSVP {
	valid := events[:0:0]
	for _, ev := range events {
		if protocol.ValidateRSVP(ev) {
			valid = append(valid, ev)
		}
	}
	current := protocol.LatestBy(valid, protocol.RSVPKey)
	protocol.SortByCreatedAtDesc(current)

	out := make([]protocol.RSVP, 0, len(current))
	for _, ev := range current {
		out = append(out, protocol.ParseRSVP(ev))
	}
	return out
}

// CreateRSVPRequest describes the response to publish.
type CreateRSVPRequest struct {
	// Coordinate is the calendar event's kind:pubkey:d coordinate.
	Coordinate string `json:"coordinate"`

	// EventID optionally pins the specific revision responded to.
	EventID string `json:"event_id,omitempty"`

	Status   protocol.RSVPStatus `json:"status"`
	FreeBusy protocol.FreeBusy   `json:"free_busy,omitempty"`
	Note     string              `json:"note,omitempty"`
}

// CreateRSVP signs and publishes a calendar RSVP. A fresh `d` identifier is
// generated per response; readers reduce to the newest per (user, event),
// so publishing again amends the response. Publish failures are returned.
func (s *Service) CreateRSVP(ctx context.Context, req CreateRSVPRequest) (protocol.RSVP, error) {
	if s.signer == nil {
		return protocol.RSVP{}, ErrNoSigner
	}
	if _, _, _, err := protocol.ParseCoordinate(req.Coordinate); err != nil {
		return protocol.RSVP{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	switch req.Status {
	case protocol.RSVPAccepted, protocol.RSVPDeclined, protocol.RSVPTentative:
	default:
		return protocol.RSVP{}, fmt.Errorf("%w: unknown rsvp status %q", ErrInvalidRequest, req.Status)
	}

	tags := nostr.Tags{
		{"d", "rsvp-" + uuid.NewString()},
		{"a", req.Coordinate},
		{"status", string(req.Status)},
		{"p", s.cfg.OrganizerPubKey},
	}
	if req.EventID != "" {
		tags = append(tags, nostr.Tag{"e", req.EventID})
	}
	// A declined response has no meaningful availability.
	if req.FreeBusy != "" && req.Status != protocol.RSVPDeclined {
		tags = append(tags, nostr.Tag{"fb", string(req.FreeBusy)})
	}

	ev := &nostr.Event{
		Kind:      protocol.KindCalendarRSVP,
		CreatedAt: nostr.Now(),
		Content:   req.Note,
		Tags:      tags,
	}
	if err := s.signer.SignEvent(ev); err != nil {
		return protocol.RSVP{}, fmt.Errorf("sign rsvp: %w", err)
	}
	if err := s.publish(ctx, ev); err != nil {
		metrics.PublishResults.WithLabelValues("error").Inc()
		return protocol.RSVP{}, fmt.Errorf("publish rsvp: %w", err)
	}
	metrics.PublishResults.WithLabelValues("ok").Inc()
	return protocol.ParseRSVP(ev), nil
}
