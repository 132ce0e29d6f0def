package relay

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/nbd-wtf/go-nostr"
)

// Pool is the process-wide relay connection pool. Connections are opened
// lazily on first use, kept for the lifetime of the process, and reopened
// transparently after a failure. The pool is safe for concurrent use.
type Pool struct {
	log  *slog.Logger
	urls []string // publish targets, in configured priority order

	mu    sync.Mutex
	conns map[string]*nostr.Relay
}

// NewPool creates a pool that publishes to the given relay endpoints.
// Queries may target any endpoint, not just the publish set.
func NewPool(log *slog.Logger, urls []string) *Pool {
	return &Pool{
		log:   log,
		urls:  urls,
		conns: make(map[string]*nostr.Relay),
	}
}

// conn returns the live connection for url, dialing if needed.
func (p *Pool) conn(ctx context.Context, url string) (*nostr.Relay, error) {
	p.mu.Lock()
	if r, ok := p.conns[url]; ok {
		p.mu.Unlock()
		return r, nil
	}
	p.mu.Unlock()

	r, err := nostr.RelayConnect(ctx, url)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", url, err)
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	if existing, ok := p.conns[url]; ok {
		// Lost the dial race; keep the existing connection.
		go r.Close()
		return existing, nil
	}
	p.conns[url] = r
	return r, nil
}

// drop discards a connection so the next use redials.
func (p *Pool) drop(url string, r *nostr.Relay) {
	p.mu.Lock()
	if p.conns[url] == r {
		delete(p.conns, url)
	}
	p.mu.Unlock()
	go r.Close()
}

// QueryRelay subscribes with the given filters on one endpoint and collects
// events until the relay signals end-of-stored-events or ctx expires. On
// expiry the events collected so far are returned with a nil error; an
// error is returned only when nothing at all was obtained.
func (p *Pool) QueryRelay(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
	r, err := p.conn(ctx, url)
	if err != nil {
		return nil, err
	}

	sub, err := r.Subscribe(ctx, filters)
	if err != nil {
		p.drop(url, r)
		return nil, fmt.Errorf("subscribe %s: %w", url, err)
	}
	defer sub.Unsub()

	var events []*nostr.Event
	for {
		select {
		case ev, ok := <-sub.Events:
			if !ok {
				return events, nil
			}
			events = append(events, ev)
		case <-sub.EndOfStoredEvents:
			return events, nil
		case <-ctx.Done():
			if len(events) > 0 {
				return events, nil
			}
			return nil, ctx.Err()
		}
	}
}

// Publish submits a signed event to every configured relay. One acceptance
// is a success; if every relay rejects or is unreachable the combined error
// is returned so the caller can surface it.
func (p *Pool) Publish(ctx context.Context, ev *nostr.Event) error {
	if len(p.urls) == 0 {
		return errors.New("no relays configured for publish")
	}

	var (
		errs      []error
		published int
	)
	for _, url := range p.urls {
		r, err := p.conn(ctx, url)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if err := r.Publish(ctx, *ev); err != nil {
			p.log.Warn("publish rejected", "relay", url, "event", ev.ID, "err", err)
			errs = append(errs, fmt.Errorf("publish %s: %w", url, err))
			p.drop(url, r)
			continue
		}
		published++
	}

	if published == 0 {
		return fmt.Errorf("event %s accepted by no relay: %w", ev.ID, errors.Join(errs...))
	}
	p.log.Info("event published", "event", ev.ID, "kind", ev.Kind, "relays", published)
	return nil
}

// Close tears down all open connections. Only used on shutdown; the pool
// has no other lifecycle.
func (p *Pool) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	for url, r := range p.conns {
		r.Close()
		delete(p.conns, url)
	}
}
