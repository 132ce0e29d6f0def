package feeds

import (
	"context"
	"fmt"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/aggregator"
	"github.com/derekross/nostrvalley/metrics"
	"github.com/derekross/nostrvalley/protocol"
)

// ChatMessages returns the live chat for an activity coordinate, oldest
// first. Chat is never cached; it is the one feed where freshness matters
// more than relay load.
func (s *Service) ChatMessages(ctx context.Context, coordinate string, limit int) ([]protocol.ChatMessage, error) {
	if _, _, _, err := protocol.ParseCoordinate(coordinate); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	if limit <= 0 {
		limit = 100
	}

	filters := nostr.Filters{{
		Kinds: []int{protocol.KindLiveChatMessage},
		Tags:  nostr.TagMap{"a": []string{coordinate}},
		Limit: limit,
	}}
	res, err := s.agg.Query(ctx, filters, aggregator.Options{
		Timeout:   s.cfg.ChatTimeout,
		MaxRelays: s.cfg.MaxRelays,
	})
	if err != nil {
		return nil, err
	}

	valid := res.Events[:0:0]
	for _, ev := range res.Events {
		if protocol.ValidateChatMessage(ev) {
			valid = append(valid, ev)
		}
	}
	protocol.SortByCreatedAtAsc(valid)

	out := make([]protocol.ChatMessage, 0, len(valid))
	for _, ev := range valid {
		out = append(out, protocol.ParseChatMessage(ev))
	}
	return out, nil
}

// PostChatMessage signs and publishes a chat message for the coordinate.
// Write-path errors are returned so the UI can offer a retry.
func (s *Service) PostChatMessage(ctx context.Context, coordinate, content string) (protocol.ChatMessage, error) {
	if s.signer == nil {
		return protocol.ChatMessage{}, ErrNoSigner
	}
	if content == "" {
		return protocol.ChatMessage{}, fmt.Errorf("%w: empty chat message", ErrInvalidRequest)
	}
	if _, _, _, err := protocol.ParseCoordinate(coordinate); err != nil {
		return protocol.ChatMessage{}, fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}

	ev := &nostr.Event{
		Kind:      protocol.KindLiveChatMessage,
		CreatedAt: nostr.Now(),
		Content:   content,
		Tags:      nostr.Tags{{"a", coordinate}},
	}
	if err := s.signer.SignEvent(ev); err != nil {
		return protocol.ChatMessage{}, fmt.Errorf("sign chat message: %w", err)
	}
	if err := s.publish(ctx, ev); err != nil {
		metrics.PublishResults.WithLabelValues("error").Inc()
		return protocol.ChatMessage{}, fmt.Errorf("publish chat message: %w", err)
	}
	metrics.PublishResults.WithLabelValues("ok").Inc()
	return protocol.ParseChatMessage(ev), nil
}
