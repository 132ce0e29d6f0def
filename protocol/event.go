package protocol

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/nbd-wtf/go-nostr"
)

// Event kinds consumed and published by the gateway.
const (
	KindProfileMetadata   = 0
	KindTextNote          = 1
	KindPictureNote       = 20
	KindSeal              = 13
	KindRumor             = 14
	KindGiftWrap          = 1059
	KindLiveChatMessage   = 1311
	KindLiveEvent         = 30311
	KindDateCalendarEvent = 31922
	KindTimeCalendarEvent = 31923
	KindCalendarRSVP      = 31925
)

// Participant is a `p` tag: a referenced pubkey with optional relay hint,
// role, and proof-of-agreement signature.
type Participant struct {
	PubKey string `json:"pubkey"`
	Relay  string `json:"relay,omitempty"`
	Role   string `json:"role,omitempty"`
	Proof  string `json:"proof,omitempty"`
}

// TagRecord is the typed projection of an event's tag list. Tags whose name
// the gateway recognizes are decoded into fields; everything else is
// preserved opaque in Unknown so nothing is lost for re-serialization.
type TagRecord struct {
	Identifier          string // d
	Title               string
	Summary             string
	Image               string
	Start               string // calendar events: date string or unix seconds
	End                 string
	Starts              string // live events: unix seconds
	Ends                string
	Status              string
	FreeBusy            string // fb
	Streaming           string
	Recording           string
	CurrentParticipants string
	TotalParticipants   string
	Locations           []string      // location, repeatable
	Coordinates         []string      // a
	EventRefs           []string      // e
	References          []string      // r
	Hashtags            []string      // t
	Participants        []Participant // p
	Relays              []string      // relays, multi-valued in one tag
	Imeta               nostr.Tags    // imeta, kept whole
	Unknown             nostr.Tags
}

// DecodeTags decodes an event's raw tags into a TagRecord. For single-valued
// tags the first occurrence wins, matching how relays and clients treat
// duplicated tags.
func DecodeTags(tags nostr.Tags) TagRecord {
	var rec TagRecord

	setFirst := func(dst *string, val string) {
		if *dst == "" {
			*dst = val
		}
	}

	for _, tag := range tags {
		if len(tag) == 0 {
			continue
		}
		value := ""
		if len(tag) > 1 {
			value = tag[1]
		}

		switch tag[0] {
		case "d":
			setFirst(&rec.Identifier, value)
		case "title":
			setFirst(&rec.Title, value)
		case "summary":
			setFirst(&rec.Summary, value)
		case "image":
			setFirst(&rec.Image, value)
		case "start":
			setFirst(&rec.Start, value)
		case "end":
			setFirst(&rec.End, value)
		case "starts":
			setFirst(&rec.Starts, value)
		case "ends":
			setFirst(&rec.Ends, value)
		case "status":
			setFirst(&rec.Status, value)
		case "fb":
			setFirst(&rec.FreeBusy, value)
		case "streaming":
			setFirst(&rec.Streaming, value)
		case "recording":
			setFirst(&rec.Recording, value)
		case "current_participants":
			setFirst(&rec.CurrentParticipants, value)
		case "total_participants":
			setFirst(&rec.TotalParticipants, value)
		case "location":
			if value != "" {
				rec.Locations = append(rec.Locations, value)
			}
		case "a":
			if value != "" {
				rec.Coordinates = append(rec.Coordinates, value)
			}
		case "e":
			if value != "" {
				rec.EventRefs = append(rec.EventRefs, value)
			}
		case "r":
			if value != "" {
				rec.References = append(rec.References, value)
			}
		case "t":
			if value != "" {
				rec.Hashtags = append(rec.Hashtags, value)
			}
		case "p":
			p := Participant{PubKey: value}
			if len(tag) > 2 {
				p.Relay = tag[2]
			}
			if len(tag) > 3 {
				p.Role = tag[3]
			}
			if len(tag) > 4 {
				p.Proof = tag[4]
			}
			if p.PubKey != "" {
				rec.Participants = append(rec.Participants, p)
			}
		case "relays":
			rec.Relays = append(rec.Relays, tag[1:]...)
		case "imeta":
			rec.Imeta = append(rec.Imeta, tag)
		default:
			rec.Unknown = append(rec.Unknown, tag)
		}
	}

	return rec
}

// FormatCoordinate builds the addressable-event coordinate string
// "<kind>:<pubkey>:<d-tag>".
func FormatCoordinate(kind int, pubkey, identifier string) string {
	return strconv.Itoa(kind) + ":" + pubkey + ":" + identifier
}

// Coordinate returns the coordinate of an addressable event. It fails if the
// event has no `d` tag, since the coordinate would not identify anything.
func Coordinate(ev *nostr.Event) (string, error) {
	rec := DecodeTags(ev.Tags)
	if rec.Identifier == "" {
		return "", fmt.Errorf("event %s (kind %d) has no d tag", ev.ID, ev.Kind)
	}
	return FormatCoordinate(ev.Kind, ev.PubKey, rec.Identifier), nil
}

// ParseCoordinate splits a coordinate string into its components. The d-tag
// value may itself contain colons, so only the first two separators split.
func ParseCoordinate(s string) (kind int, pubkey, identifier string, err error) {
	parts := strings.SplitN(s, ":", 3)
	if len(parts) != 3 {
		return 0, "", "", fmt.Errorf("malformed coordinate %q", s)
	}
	kind, err = strconv.Atoi(parts[0])
	if err != nil {
		return 0, "", "", fmt.Errorf("malformed coordinate kind in %q: %w", s, err)
	}
	if parts[1] == "" {
		return 0, "", "", fmt.Errorf("coordinate %q has empty pubkey", s)
	}
	return kind, parts[1], parts[2], nil
}
