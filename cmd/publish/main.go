// Command publish signs and publishes organizer events to the relay set.
//
// # Commands
//
// event: Publish or update a calendar event.
//
//	publish event --title="Nostr Valley 2025" --start=1761955200 --d=nv-2025
//
// note: Publish a text note tagged for the community feed.
//
//	publish note --content="Doors open at 9am" --hashtag=nostrvalley
//
// rsvp: Publish an RSVP to a calendar event.
//
//	publish rsvp --coordinate=31923:pubkey:nv-2025 --status=accepted
//
// The signing key comes from --key or the NOSTRVALLEY_SECRET_KEY
// environment variable (a .env file is honored).
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/config"
	"github.com/derekross/nostrvalley/protocol"
	"github.com/derekross/nostrvalley/relay"
)

const publishTimeout = 10 * time.Second

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	_ = godotenv.Load()

	cmd := os.Args[1]
	args := os.Args[2:]

	var err error
	switch cmd {
	case "event":
		err = runEvent(args)
	case "note":
		err = runNote(args)
	case "rsvp":
		err = runRSVP(args)
	case "help", "-h", "--help":
		printUsage()
		return
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func printUsage() {
	fmt.Println("Usage: publish <event|note|rsvp> [flags]")
	fmt.Println("Run 'publish <command> --help' for command flags.")
}

func runEvent(args []string) error {
	fs := flag.NewFlagSet("event", flag.ExitOnError)
	var (
		key        = fs.String("key", "", "Signing key (hex, defaults to NOSTRVALLEY_SECRET_KEY)")
		relays     = fs.String("relays", "", "Comma-separated relay URLs (defaults to the standard set)")
		identifier = fs.String("d", "", "Event identifier; republishing the same identifier updates the event")
		title      = fs.String("title", "", "Event title")
		start      = fs.String("start", "", "Start as unix seconds, or YYYY-MM-DD for all-day events")
		end        = fs.String("end", "", "End in the same format as --start")
		summary    = fs.String("summary", "", "Short description")
		content    = fs.String("content", "", "Full description")
		image      = fs.String("image", "", "Image URL")
		location   = fs.String("location", "", "Venue")
		hashtags   = fs.String("hashtags", "nostrvalley", "Comma-separated hashtags")
	)
	fs.Parse(args)

	if *title == "" || *start == "" || *identifier == "" {
		return fmt.Errorf("--d, --title, and --start are required")
	}

	kind := protocol.KindTimeCalendarEvent
	if strings.Contains(*start, "-") {
		kind = protocol.KindDateCalendarEvent
	}

	ev := &nostr.Event{
		Kind:      kind,
		CreatedAt: nostr.Now(),
		Content:   *content,
		Tags: nostr.Tags{
			{"d", *identifier},
			{"title", *title},
			{"start", *start},
		},
	}
	addOptionalTag(ev, "end", *end)
	addOptionalTag(ev, "summary", *summary)
	addOptionalTag(ev, "image", *image)
	addOptionalTag(ev, "location", *location)
	for _, tag := range splitList(*hashtags) {
		ev.Tags = append(ev.Tags, nostr.Tag{"t", tag})
	}

	if !protocol.ValidateCalendarEvent(ev) {
		return fmt.Errorf("calendar event is not well formed, check --start")
	}

	return signAndPublish(*key, *relays, ev)
}

func runNote(args []string) error {
	fs := flag.NewFlagSet("note", flag.ExitOnError)
	var (
		key      = fs.String("key", "", "Signing key (hex, defaults to NOSTRVALLEY_SECRET_KEY)")
		relays   = fs.String("relays", "", "Comma-separated relay URLs (defaults to the standard set)")
		content  = fs.String("content", "", "Note text")
		hashtags = fs.String("hashtags", "nostrvalley", "Comma-separated hashtags")
	)
	fs.Parse(args)

	if *content == "" {
		return fmt.Errorf("--content is required")
	}

	ev := &nostr.Event{
		Kind:      protocol.KindTextNote,
		CreatedAt: nostr.Now(),
		Content:   *content,
	}
	for _, tag := range splitList(*hashtags) {
		ev.Tags = append(ev.Tags, nostr.Tag{"t", tag})
	}

	return signAndPublish(*key, *relays, ev)
}

func runRSVP(args []string) error {
	fs := flag.NewFlagSet("rsvp", flag.ExitOnError)
	var (
		key        = fs.String("key", "", "Signing key (hex, defaults to NOSTRVALLEY_SECRET_KEY)")
		relays     = fs.String("relays", "", "Comma-separated relay URLs (defaults to the standard set)")
		coordinate = fs.String("coordinate", "", "Calendar event coordinate (kind:pubkey:d)")
		status     = fs.String("status", "accepted", "accepted, declined, or tentative")
		note       = fs.String("note", "", "Optional note")
	)
	fs.Parse(args)

	if *coordinate == "" {
		return fmt.Errorf("--coordinate is required")
	}
	if _, _, _, err := protocol.ParseCoordinate(*coordinate); err != nil {
		return fmt.Errorf("invalid coordinate: %w", err)
	}

	ev := &nostr.Event{
		Kind:      protocol.KindCalendarRSVP,
		CreatedAt: nostr.Now(),
		Content:   *note,
		Tags: nostr.Tags{
			{"d", fmt.Sprintf("rsvp-%d", time.Now().UnixNano())},
			{"a", *coordinate},
			{"status", *status},
		},
	}

	if !protocol.ValidateRSVP(ev) {
		return fmt.Errorf("invalid RSVP, check --status")
	}

	return signAndPublish(*key, *relays, ev)
}

func addOptionalTag(ev *nostr.Event, name, value string) {
	if value != "" {
		ev.Tags = append(ev.Tags, nostr.Tag{name, value})
	}
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}

func signAndPublish(key, relayList string, ev *nostr.Event) error {
	if key == "" {
		key = os.Getenv("NOSTRVALLEY_SECRET_KEY")
	}
	if key == "" {
		return fmt.Errorf("no signing key: set --key or NOSTRVALLEY_SECRET_KEY")
	}

	signer, err := relay.NewLocalSigner(key)
	if err != nil {
		return fmt.Errorf("signing key: %w", err)
	}
	if err := signer.SignEvent(ev); err != nil {
		return fmt.Errorf("sign: %w", err)
	}

	urls := splitList(relayList)
	if len(urls) == 0 {
		urls = config.Default().Relays
	}

	log := slog.New(slog.NewTextHandler(os.Stderr, nil))
	pool := relay.NewPool(log, urls)
	defer pool.Close()

	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	if err := pool.Publish(ctx, ev); err != nil {
		return fmt.Errorf("publish: %w", err)
	}

	fmt.Printf("Published %s (kind %d) as %s\n", ev.ID, ev.Kind, ev.PubKey)
	return nil
}
