// Package relay holds the boundary to the Nostr relay network: the Querier
// and Publisher seams the aggregation layer depends on, a connection pool
// backed by go-nostr, and the Signer used by write paths.
//
// The wire protocol, event signing, and NIP-44 encryption are delegated to
// github.com/nbd-wtf/go-nostr; this package only manages connections and
// partial-result collection. A relay query collects events until the relay
// signals end-of-stored-events or the caller's context expires; on expiry
// the events that already arrived are returned rather than discarded.
package relay
