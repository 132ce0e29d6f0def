package feeds

import (
	"context"
	"encoding/json"
	"fmt"
	"math/rand"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/metrics"
	"github.com/derekross/nostrvalley/protocol"
	"github.com/derekross/nostrvalley/relay"
)

// giftWrapTimestampJitter is how far into the past a gift wrap's timestamp
// may be randomized, hiding the real send time (NIP-17).
const giftWrapTimestampJitter = 24 * time.Hour

// SendDirectMessage delivers an encrypted direct message following the
// NIP-17 construction: an unsigned rumor (kind 14) is sealed (kind 13)
// under the sender's NIP-44 key to the recipient, and the seal is gift
// wrapped (kind 1059) under a single-use ephemeral key so relays see no
// link to the sender. Only the gift wrap is published.
func (s *Service) SendDirectMessage(ctx context.Context, recipientPubKey, message string) error {
	if s.signer == nil {
		return ErrNoSigner
	}
	if recipientPubKey == "" || message == "" {
		return fmt.Errorf("%w: recipient and message are required", ErrInvalidRequest)
	}

	// The rumor stays unsigned; its id is still filled in so the recipient
	// can verify integrity after unwrapping.
	rumor := nostr.Event{
		Kind:      protocol.KindRumor,
		CreatedAt: nostr.Now(),
		PubKey:    s.signer.PublicKey(),
		Content:   message,
		Tags:      nostr.Tags{{"p", recipientPubKey}},
	}
	rumor.ID = rumor.GetID()
	rumorJSON, err := json.Marshal(rumor)
	if err != nil {
		return fmt.Errorf("marshal rumor: %w", err)
	}

	sealContent, err := s.signer.NIP44Encrypt(recipientPubKey, string(rumorJSON))
	if err != nil {
		return fmt.Errorf("seal encrypt: %w", err)
	}
	seal := &nostr.Event{
		Kind:      protocol.KindSeal,
		CreatedAt: nostr.Now(),
		Content:   sealContent,
		Tags:      nostr.Tags{},
	}
	if err := s.signer.SignEvent(seal); err != nil {
		return fmt.Errorf("sign seal: %w", err)
	}
	sealJSON, err := json.Marshal(seal)
	if err != nil {
		return fmt.Errorf("marshal seal: %w", err)
	}

	ephemeral, err := relay.NewEphemeralSigner()
	if err != nil {
		return fmt.Errorf("ephemeral key: %w", err)
	}
	wrapContent, err := ephemeral.NIP44Encrypt(recipientPubKey, string(sealJSON))
	if err != nil {
		return fmt.Errorf("gift wrap encrypt: %w", err)
	}
	jitter := time.Duration(rand.Int63n(int64(giftWrapTimestampJitter)))
	wrap := &nostr.Event{
		Kind:      protocol.KindGiftWrap,
		CreatedAt: nostr.Timestamp(time.Now().Add(-jitter).Unix()),
		Content:   wrapContent,
		Tags:      nostr.Tags{{"p", recipientPubKey}},
	}
	if err := ephemeral.SignEvent(wrap); err != nil {
		return fmt.Errorf("sign gift wrap: %w", err)
	}

	if err := s.publish(ctx, wrap); err != nil {
		metrics.PublishResults.WithLabelValues("error").Inc()
		return fmt.Errorf("publish direct message: %w", err)
	}
	metrics.PublishResults.WithLabelValues("ok").Inc()
	return nil
}
