package relay

import (
	"fmt"

	"github.com/nbd-wtf/go-nostr"
	"github.com/nbd-wtf/go-nostr/nip44"
)

// LocalSigner signs events with an in-process secret key. Key handling and
// signature algorithms are go-nostr's; this type only holds the key.
type LocalSigner struct {
	secretKey string
	publicKey string
}

// NewLocalSigner creates a signer from a hex-encoded secret key.
func NewLocalSigner(secretKey string) (*LocalSigner, error) {
	pub, err := nostr.GetPublicKey(secretKey)
	if err != nil {
		return nil, fmt.Errorf("derive public key: %w", err)
	}
	return &LocalSigner{secretKey: secretKey, publicKey: pub}, nil
}

// NewEphemeralSigner creates a signer with a freshly generated key, used for
// NIP-17 gift wrapping where the outer event must not link to the sender.
func NewEphemeralSigner() (*LocalSigner, error) {
	return NewLocalSigner(nostr.GeneratePrivateKey())
}

// PublicKey returns the signer's hex public key.
func (s *LocalSigner) PublicKey() string { return s.publicKey }

// SignEvent fills in pubkey, id, and signature on the event.
func (s *LocalSigner) SignEvent(ev *nostr.Event) error {
	return ev.Sign(s.secretKey)
}

// NIP44Encrypt encrypts plaintext to the recipient under the NIP-44
// conversation key between this signer and the recipient.
func (s *LocalSigner) NIP44Encrypt(recipientPubKey, plaintext string) (string, error) {
	key, err := nip44.GenerateConversationKey(recipientPubKey, s.secretKey)
	if err != nil {
		return "", fmt.Errorf("conversation key: %w", err)
	}
	ciphertext, err := nip44.Encrypt(plaintext, key)
	if err != nil {
		return "", fmt.Errorf("nip44 encrypt: %w", err)
	}
	return ciphertext, nil
}
