package protocol

import (
	"encoding/json"
	"strconv"

	"github.com/nbd-wtf/go-nostr"
)

// RSVPStatus is the attendance response carried in an RSVP's `status` tag.
type RSVPStatus string

const (
	RSVPAccepted  RSVPStatus = "accepted"
	RSVPDeclined  RSVPStatus = "declined"
	RSVPTentative RSVPStatus = "tentative"
)

// FreeBusy is the availability marker carried in an RSVP's `fb` tag.
type FreeBusy string

const (
	FreeBusyFree FreeBusy = "free"
	FreeBusyBusy FreeBusy = "busy"
)

// LiveStatus is the lifecycle state of a live event.
type LiveStatus string

const (
	LiveStatusPlanned LiveStatus = "planned"
	LiveStatusLive    LiveStatus = "live"
	LiveStatusEnded   LiveStatus = "ended"
)

// CalendarEvent is the flat projection of a validated kind 31922/31923 event.
type CalendarEvent struct {
	ID           string        `json:"id"`
	Coordinate   string        `json:"coordinate"`
	Identifier   string        `json:"identifier"`
	Kind         int           `json:"kind"`
	PubKey       string        `json:"pubkey"`
	CreatedAt    int64         `json:"created_at"`
	Title        string        `json:"title"`
	Summary      string        `json:"summary,omitempty"`
	Image        string        `json:"image,omitempty"`
	Start        string        `json:"start"`
	End          string        `json:"end,omitempty"`
	Locations    []string      `json:"locations,omitempty"`
	Content      string        `json:"content,omitempty"`
	Participants []Participant `json:"participants,omitempty"`
	Hashtags     []string      `json:"hashtags,omitempty"`
	References   []string      `json:"references,omitempty"`
}

// ParseCalendarEvent projects a calendar event into its flat record. The
// caller is expected to have validated the event first.
func ParseCalendarEvent(ev *nostr.Event) CalendarEvent {
	rec := DecodeTags(ev.Tags)
	return CalendarEvent{
		ID:           ev.ID,
		Coordinate:   FormatCoordinate(ev.Kind, ev.PubKey, rec.Identifier),
		Identifier:   rec.Identifier,
		Kind:         ev.Kind,
		PubKey:       ev.PubKey,
		CreatedAt:    int64(ev.CreatedAt),
		Title:        rec.Title,
		Summary:      rec.Summary,
		Image:        rec.Image,
		Start:        rec.Start,
		End:          rec.End,
		Locations:    rec.Locations,
		Content:      ev.Content,
		Participants: rec.Participants,
		Hashtags:     rec.Hashtags,
		References:   rec.References,
	}
}

// LiveEvent is the flat projection of a kind 30311 stream descriptor.
type LiveEvent struct {
	ID                  string        `json:"id"`
	Coordinate          string        `json:"coordinate"`
	Identifier          string        `json:"identifier"`
	PubKey              string        `json:"pubkey"`
	CreatedAt           int64         `json:"created_at"`
	Title               string        `json:"title,omitempty"`
	Summary             string        `json:"summary,omitempty"`
	Image               string        `json:"image,omitempty"`
	Streaming           string        `json:"streaming,omitempty"`
	Recording           string        `json:"recording,omitempty"`
	Starts              int64         `json:"starts,omitempty"`
	Ends                int64         `json:"ends,omitempty"`
	Status              LiveStatus    `json:"status,omitempty"`
	CurrentParticipants int           `json:"current_participants,omitempty"`
	TotalParticipants   int           `json:"total_participants,omitempty"`
	Participants        []Participant `json:"participants,omitempty"`
	Relays              []string      `json:"relays,omitempty"`
	Hashtags            []string      `json:"hashtags,omitempty"`
}

// StatusRank orders live events for display: running streams first, then
// upcoming, then finished. Unknown or missing statuses sort as ended.
func (e LiveEvent) StatusRank() int {
	switch e.Status {
	case LiveStatusLive:
		return 0
	case LiveStatusPlanned:
		return 1
	default:
		return 2
	}
}

// ParseLiveEvent projects a live event into its flat record.
func ParseLiveEvent(ev *nostr.Event) LiveEvent {
	rec := DecodeTags(ev.Tags)
	return LiveEvent{
		ID:                  ev.ID,
		Coordinate:          FormatCoordinate(ev.Kind, ev.PubKey, rec.Identifier),
		Identifier:          rec.Identifier,
		PubKey:              ev.PubKey,
		CreatedAt:           int64(ev.CreatedAt),
		Title:               rec.Title,
		Summary:             rec.Summary,
		Image:               rec.Image,
		Streaming:           rec.Streaming,
		Recording:           rec.Recording,
		Starts:              parseInt64(rec.Starts),
		Ends:                parseInt64(rec.Ends),
		Status:              LiveStatus(rec.Status),
		CurrentParticipants: int(parseInt64(rec.CurrentParticipants)),
		TotalParticipants:   int(parseInt64(rec.TotalParticipants)),
		Participants:        rec.Participants,
		Relays:              rec.Relays,
		Hashtags:            rec.Hashtags,
	}
}

// RSVP is the flat projection of a kind 31925 RSVP event.
type RSVP struct {
	ID         string     `json:"id"`
	Identifier string     `json:"identifier"`
	PubKey     string     `json:"pubkey"`
	CreatedAt  int64      `json:"created_at"`
	Coordinate string     `json:"coordinate"`
	EventID    string     `json:"event_id,omitempty"`
	Organizer  string     `json:"organizer,omitempty"`
	Status     RSVPStatus `json:"status"`
	FreeBusy   FreeBusy   `json:"free_busy,omitempty"`
	Note       string     `json:"note,omitempty"`
}

// ParseRSVP projects an RSVP event into its flat record.
func ParseRSVP(ev *nostr.Event) RSVP {
	rec := DecodeTags(ev.Tags)
	r := RSVP{
		ID:         ev.ID,
		Identifier: rec.Identifier,
		PubKey:     ev.PubKey,
		CreatedAt:  int64(ev.CreatedAt),
		Status:     RSVPStatus(rec.Status),
		FreeBusy:   FreeBusy(rec.FreeBusy),
		Note:       ev.Content,
	}
	if len(rec.Coordinates) > 0 {
		r.Coordinate = rec.Coordinates[0]
	}
	if len(rec.EventRefs) > 0 {
		r.EventID = rec.EventRefs[0]
	}
	if len(rec.Participants) > 0 {
		r.Organizer = rec.Participants[0].PubKey
	}
	return r
}

// ChatMessage is the flat projection of a kind 1311 live chat message.
type ChatMessage struct {
	ID         string `json:"id"`
	PubKey     string `json:"pubkey"`
	CreatedAt  int64  `json:"created_at"`
	Coordinate string `json:"coordinate"`
	Content    string `json:"content"`
}

// ParseChatMessage projects a chat message into its flat record.
func ParseChatMessage(ev *nostr.Event) ChatMessage {
	rec := DecodeTags(ev.Tags)
	m := ChatMessage{
		ID:        ev.ID,
		PubKey:    ev.PubKey,
		CreatedAt: int64(ev.CreatedAt),
		Content:   ev.Content,
	}
	if len(rec.Coordinates) > 0 {
		m.Coordinate = rec.Coordinates[0]
	}
	return m
}

// ProfileMetadata is the JSON payload of a kind 0 event's content field.
type ProfileMetadata struct {
	Name        string `json:"name,omitempty"`
	DisplayName string `json:"display_name,omitempty"`
	About       string `json:"about,omitempty"`
	Picture     string `json:"picture,omitempty"`
	Banner      string `json:"banner,omitempty"`
	Website     string `json:"website,omitempty"`
	NIP05       string `json:"nip05,omitempty"`
	LUD16       string `json:"lud16,omitempty"`
}

// ParseProfileMetadata decodes a kind 0 event's content. Unknown JSON fields
// are dropped; a malformed payload is an error since the profile is rendered
// directly.
func ParseProfileMetadata(ev *nostr.Event) (ProfileMetadata, error) {
	var meta ProfileMetadata
	if err := json.Unmarshal([]byte(ev.Content), &meta); err != nil {
		return ProfileMetadata{}, err
	}
	return meta, nil
}

func parseInt64(s string) int64 {
	if s == "" {
		return 0
	}
	n, err := strconv.ParseInt(s, 10, 64)
	if err != nil {
		return 0
	}
	return n
}
