// Package cmd provides the Nostr Valley CLI commands.
//
// # Commands
//
// gateway: Runs the feed gateway that queries the relay set, reduces
// events into the site's feeds, and serves the JSON API.
//
//	go run ./cmd/gateway --config=gateway.yaml
//	go run ./cmd/gateway --npub=npub1... --listen-addr=:8080
//
// publish: Signs and publishes organizer events (calendar events, notes,
// RSVPs) directly to the relay set.
//
//	go run ./cmd/publish event --d=nv-2025 --title="Nostr Valley 2025" --start=1761955200
//	go run ./cmd/publish note --content="Doors open at 9am"
//	go run ./cmd/publish rsvp --coordinate=31923:pubkey:nv-2025 --status=accepted
//
// # Configuration
//
// The gateway supports a YAML configuration file via the --config flag;
// command-line flags override config file values. Both commands read the
// signing key from NOSTRVALLEY_SECRET_KEY (a local .env file is honored).
package cmd
