// Package feeds assembles the site's data feeds from aggregated relay
// queries: the calendar of scheduled activities, the paginated community
// feed, media posts, live streams with their chat, RSVPs, and the organizer
// profile.
//
// Every feed follows the same pipeline: build the filter set, run it
// through the multi-relay aggregator, drop events that fail validation,
// apply the latest-wins reduction where coordinates are involved, and sort
// deterministically. Read-path failures were already swallowed by the
// aggregator, so feeds only ever see a possibly-empty event set; write
// paths (RSVPs, chat posts, direct messages) return errors to the caller.
//
// Hot feeds are memoized in an in-memory TTL cache; there is deliberately
// no persistent store. A cron-driven refresh keeps the cache warm so HTTP
// reads rarely wait on relays.
package feeds
