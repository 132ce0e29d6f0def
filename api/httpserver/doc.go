// Package httpserver provides the gateway's HTTP surface: a base server
// with health, drain, and metrics endpoints, and the feed handler exposing
// the aggregated Nostr feeds as JSON plus an iCalendar export of the
// schedule.
package httpserver
