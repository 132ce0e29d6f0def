package feeds

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/aggregator"
	"github.com/derekross/nostrvalley/relay"
)

// Config carries the feed layer's tunables. All fields have working
// defaults applied by NewService.
type Config struct {
	// OrganizerPubKey is the hex pubkey of the event organizer account.
	OrganizerPubKey string

	// Hashtags are the community tags queried for feed content, in every
	// case variant the community actually uses.
	Hashtags []string

	// QueryTimeout is the shared fan-out deadline for most feeds.
	QueryTimeout time.Duration

	// ChatTimeout is the fan-out deadline for live chat, which tolerates a
	// longer wait in exchange for completeness.
	ChatTimeout time.Duration

	// MaxRelays caps the fan-out width per query.
	MaxRelays int

	// PageLimit is the community feed page size requested per filter.
	PageLimit int

	// CacheTTL is how long memoized feed results stay fresh.
	CacheTTL time.Duration

	// PublishTimeout bounds a write path's round trip across all relays.
	PublishTimeout time.Duration
}

func (c *Config) applyDefaults() {
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = 1500 * time.Millisecond
	}
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = 5 * time.Second
	}
	if c.MaxRelays <= 0 {
		c.MaxRelays = aggregator.DefaultMaxRelays
	}
	if c.PageLimit <= 0 {
		c.PageLimit = 30
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = 2 * time.Minute
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = 5 * time.Second
	}
}

// Service assembles all feeds over one aggregator and publish path. The
// signer is optional: a nil signer disables the write paths, which then
// fail with ErrNoSigner instead of publishing.
type Service struct {
	agg    *aggregator.MultiQuerier
	pub    relay.Publisher
	signer relay.Signer
	cfg    Config
	log    *slog.Logger
	cache  *Cache
}

// ErrNoSigner is returned by write paths when the gateway runs without a
// configured identity key.
var ErrNoSigner = errors.New("no signer configured")

// ErrInvalidRequest wraps caller mistakes (malformed coordinates, unknown
// statuses) so the HTTP layer can answer 400 instead of 502.
var ErrInvalidRequest = errors.New("invalid request")

// NewService creates the feed service.
func NewService(agg *aggregator.MultiQuerier, pub relay.Publisher, signer relay.Signer, cfg Config, log *slog.Logger) (*Service, error) {
	if agg == nil {
		return nil, errors.New("aggregator cannot be nil")
	}
	if cfg.OrganizerPubKey == "" {
		return nil, errors.New("organizer pubkey is required")
	}
	if log == nil {
		log = slog.Default()
	}
	cfg.applyDefaults()
	return &Service{
		agg:    agg,
		pub:    pub,
		signer: signer,
		cfg:    cfg,
		log:    log,
		cache:  NewCache(cfg.CacheTTL),
	}, nil
}

// queryOptions are the aggregator options used by most feeds.
func (s *Service) queryOptions() aggregator.Options {
	return aggregator.Options{Timeout: s.cfg.QueryTimeout, MaxRelays: s.cfg.MaxRelays}
}

// publish submits a signed event under the configured publish deadline. The
// incoming request context carries no deadline of its own, and a relay that
// accepts the TCP dial but never finishes the handshake would otherwise pin
// the request forever.
func (s *Service) publish(ctx context.Context, ev *nostr.Event) error {
	ctx, cancel := context.WithTimeout(ctx, s.cfg.PublishTimeout)
	defer cancel()
	return s.pub.Publish(ctx, ev)
}

// ResetCache drops all memoized feed results. Called when the relay
// configuration changes, since cached results may come from the old set.
func (s *Service) ResetCache() {
	s.cache.Reset()
}
