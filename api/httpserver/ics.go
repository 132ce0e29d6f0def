package httpserver

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"github.com/derekross/nostrvalley/protocol"
)

const icsProductID = "-//Nostr Valley//Schedule//EN"

// handleScheduleICS serves the calendar schedule as an iCalendar feed so
// attendees can subscribe from their own calendar apps.
func (h *FeedHandler) handleScheduleICS(w http.ResponseWriter, r *http.Request) {
	events, err := h.svc.CalendarEvents(r.Context())
	if err != nil {
		h.writeError(w, readStatusFor(err), err)
		return
	}

	cal := buildScheduleCalendar(events)

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="nostrvalley.ics"`)
	if _, err := w.Write([]byte(cal.Serialize())); err != nil {
		h.log.Error("failed to write ics response", "err", err)
	}
}

func buildScheduleCalendar(events []protocol.CalendarEvent) *ical.Calendar {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId(icsProductID)
	cal.SetName("Nostr Valley")

	for _, ev := range events {
		ve := cal.AddEvent(ev.Coordinate)
		ve.SetDtStampTime(time.Unix(ev.CreatedAt, 0).UTC())
		ve.SetSummary(ev.Title)
		if desc := eventDescription(ev); desc != "" {
			ve.SetDescription(desc)
		}
		if len(ev.Locations) > 0 {
			ve.SetLocation(strings.Join(ev.Locations, "; "))
		}

		switch ev.Kind {
		case protocol.KindDateCalendarEvent:
			start, err := time.Parse("2006-01-02", ev.Start)
			if err != nil {
				continue
			}
			ve.SetAllDayStartAt(start)
			end := start.AddDate(0, 0, 1)
			if ev.End != "" {
				if parsed, perr := time.Parse("2006-01-02", ev.End); perr == nil {
					end = parsed
				}
			}
			ve.SetAllDayEndAt(end)
		case protocol.KindTimeCalendarEvent:
			start, err := strconv.ParseInt(ev.Start, 10, 64)
			if err != nil {
				continue
			}
			ve.SetStartAt(time.Unix(start, 0).UTC())
			if ev.End != "" {
				if end, perr := strconv.ParseInt(ev.End, 10, 64); perr == nil {
					ve.SetEndAt(time.Unix(end, 0).UTC())
				}
			}
		default:
			continue
		}
	}

	return cal
}

func eventDescription(ev protocol.CalendarEvent) string {
	parts := make([]string, 0, 3)
	if ev.Summary != "" {
		parts = append(parts, ev.Summary)
	}
	if ev.Content != "" && ev.Content != ev.Summary {
		parts = append(parts, ev.Content)
	}
	for _, ref := range ev.References {
		parts = append(parts, fmt.Sprintf("More info: %s", ref))
	}
	return strings.Join(parts, "\n\n")
}
