package relay

import (
	"context"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"
)

// QueryFunc is a pluggable per-relay query behavior for MockQuerier.
type QueryFunc func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error)

// MockQuerier implements the Querier interface for testing purposes.
// Behavior is customized per endpoint by setting function implementations.
type MockQuerier struct {
	mu        sync.Mutex
	responses map[string]QueryFunc
	fallback  QueryFunc
	queried   []string
}

// NewMockQuerier creates a mock querier whose default behavior returns no
// events.
func NewMockQuerier() *MockQuerier {
	return &MockQuerier{
		responses: make(map[string]QueryFunc),
		fallback: func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
			return nil, nil
		},
	}
}

// SetRelayResponse installs the behavior for a single endpoint.
func (m *MockQuerier) SetRelayResponse(url string, fn QueryFunc) {
	m.mu.Lock()
	m.responses[url] = fn
	m.mu.Unlock()
}

// SetFallback installs the behavior for endpoints with no specific response.
func (m *MockQuerier) SetFallback(fn QueryFunc) {
	m.mu.Lock()
	m.fallback = fn
	m.mu.Unlock()
}

// QueriedURLs returns the endpoints queried so far, in call order.
func (m *MockQuerier) QueriedURLs() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.queried...)
}

// QueryRelay implements the Querier interface.
func (m *MockQuerier) QueryRelay(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
	m.mu.Lock()
	m.queried = append(m.queried, url)
	fn, ok := m.responses[url]
	if !ok {
		fn = m.fallback
	}
	m.mu.Unlock()
	return fn(ctx, url, filters)
}

// StaticEvents returns a QueryFunc that always yields the given events.
func StaticEvents(events ...*nostr.Event) QueryFunc {
	return func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
		return events, nil
	}
}

// FailWith returns a QueryFunc that always fails.
func FailWith(err error) QueryFunc {
	return func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
		return nil, err
	}
}

// DelayedEvents returns a QueryFunc that yields the given events after the
// delay, or the context error if the deadline fires first. This models a
// slow relay for partial-result-on-timeout tests.
func DelayedEvents(delay time.Duration, events ...*nostr.Event) QueryFunc {
	return func(ctx context.Context, url string, filters nostr.Filters) ([]*nostr.Event, error) {
		select {
		case <-time.After(delay):
			return events, nil
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
}

// MockPublisher implements the Publisher interface for testing purposes.
type MockPublisher struct {
	mu        sync.Mutex
	Published []*nostr.Event
	Err       error
}

// Publish records the event, or fails if Err is set.
func (m *MockPublisher) Publish(ctx context.Context, ev *nostr.Event) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return m.Err
	}
	m.Published = append(m.Published, ev)
	return nil
}

// Last returns the most recently published event, or nil.
func (m *MockPublisher) Last() *nostr.Event {
	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.Published) == 0 {
		return nil
	}
	return m.Published[len(m.Published)-1]
}
