package relay

import (
	"context"

	"github.com/nbd-wtf/go-nostr"
)

// Querier issues a filter query against a single relay endpoint and returns
// whatever events arrived before the context deadline. A deadline expiry is
// not an error at this seam: implementations return the partial set with a
// nil error when anything was collected.
type Querier interface {
	QueryRelay(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error)
}

// Publisher submits a signed event to the relay network. Unlike the read
// path, write failures are returned to the caller so the user can retry.
type Publisher interface {
	Publish(ctx context.Context, ev *nostr.Event) error
}

// Signer produces signed events and NIP-44 ciphertexts on behalf of the
// gateway's identity. Signature algorithms live in go-nostr; consumers of
// this interface never see key material.
type Signer interface {
	// PublicKey returns the hex public key events will be attributed to.
	PublicKey() string

	// SignEvent fills in the event's pubkey, id, and signature in place.
	SignEvent(ev *nostr.Event) error

	// NIP44Encrypt encrypts plaintext to the recipient's public key.
	NIP44Encrypt(recipientPubKey, plaintext string) (string, error)
}
