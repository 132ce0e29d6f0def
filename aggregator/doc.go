// Package aggregator implements the multi-relay query helper: fan a filter
// query out to a fixed-priority list of relay endpoints in parallel under a
// single shared deadline, collect whatever arrives, and collapse duplicate
// events by id.
//
// Relays are independent, unreliable, and eventually consistent, so the
// helper is built around partial results: a per-relay failure is recorded
// and logged but never propagated, and a query where every relay fails
// returns an empty set rather than an error. Callers cannot distinguish
// "no matching events" from "all relays down" at this layer; staleness is
// tolerable for a meetup site, so availability wins over consistency on the
// read path.
//
// The shared deadline bounds worst-case latency at the configured timeout
// regardless of how many relays are queried. Aggregation is commutative and
// idempotent; results are concatenated in relay priority order before
// deduplication so the surviving copy of a duplicate id is deterministic.
// No result ordering is guaranteed beyond that. Ordering is the feed
// layer's responsibility.
package aggregator
