// Package config loads and validates the gateway's YAML configuration.
//
// The relay endpoint list lives here rather than in a package-level
// constant so tests and deployments inject their own set; changing it means
// building a new aggregator and resetting the feed cache.
package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/nbd-wtf/go-nostr/nip19"
	"gopkg.in/yaml.v3"
)

// HTTPConfig holds the public API server's settings.
type HTTPConfig struct {
	// ListenAddr is the address the API server listens on.
	ListenAddr string `yaml:"listen_addr" validate:"required"`

	// MetricsAddr is the Prometheus listener; empty disables it.
	MetricsAddr string `yaml:"metrics_addr"`

	// EnablePprof mounts the pprof handlers under /debug.
	EnablePprof bool `yaml:"enable_pprof"`

	// DrainDuration is the wait after marking not-ready before shutdown.
	DrainDuration time.Duration `yaml:"drain_duration"`

	// GracefulShutdownDuration bounds the wait for in-flight requests.
	GracefulShutdownDuration time.Duration `yaml:"graceful_shutdown_duration"`

	ReadTimeout  time.Duration `yaml:"read_timeout"`
	WriteTimeout time.Duration `yaml:"write_timeout"`
}

// Config is the top-level gateway configuration.
type Config struct {
	// Relays is the relay endpoint list in query priority order.
	Relays []string `yaml:"relays" validate:"required,min=1,dive,startswith=wss://|startswith=ws://"`

	// OrganizerNpub is the organizer account in bech32 npub form.
	OrganizerNpub string `yaml:"organizer_npub" validate:"required,startswith=npub1"`

	// Hashtags are the community tags, all case variants included.
	Hashtags []string `yaml:"hashtags" validate:"required,min=1"`

	// QueryTimeout is the shared fan-out deadline for most feeds.
	QueryTimeout time.Duration `yaml:"query_timeout"`

	// ChatTimeout is the fan-out deadline for live chat queries.
	ChatTimeout time.Duration `yaml:"chat_timeout"`

	// PublishTimeout bounds a write path's round trip across all relays.
	PublishTimeout time.Duration `yaml:"publish_timeout"`

	// MaxRelays caps fan-out width per query.
	MaxRelays int `yaml:"max_relays" validate:"omitempty,gt=0"`

	// PageLimit is the community feed page size.
	PageLimit int `yaml:"page_limit" validate:"omitempty,gt=0"`

	// CacheTTL is the feed cache freshness window.
	CacheTTL time.Duration `yaml:"cache_ttl"`

	// RefreshCron is the cron schedule for warming the feed cache.
	RefreshCron string `yaml:"refresh_cron"`

	HTTP HTTPConfig `yaml:"http"`

	// organizer hex pubkey decoded from OrganizerNpub at load time.
	organizerPubKey string
}

// Default returns the configuration used when a field is left unset. The
// relay list matches the major public relays the site has always queried.
func Default() *Config {
	return &Config{
		Relays: []string{
			"wss://relay.nostr.band",
			"wss://ditto.pub/relay",
			"wss://relay.damus.io",
			"wss://relay.primal.net",
			"wss://nos.lol",
			"wss://relay.snort.social",
		},
		Hashtags:       []string{"NostrValley", "nostrvalley"},
		QueryTimeout:   1500 * time.Millisecond,
		ChatTimeout:    5 * time.Second,
		PublishTimeout: 5 * time.Second,
		MaxRelays:      4,
		PageLimit:      30,
		CacheTTL:       2 * time.Minute,
		RefreshCron:    "@every 2m",
		HTTP: HTTPConfig{
			ListenAddr:               ":8080",
			DrainDuration:            5 * time.Second,
			GracefulShutdownDuration: 30 * time.Second,
			ReadTimeout:              10 * time.Second,
			WriteTimeout:             30 * time.Second,
		},
	}
}

// Load reads, normalizes, and validates the configuration at path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes YAML config bytes, applies defaults, and validates.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Finalize(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Finalize normalizes, validates, and decodes the organizer npub. Callers
// that assemble a Config from flags instead of YAML must call it before use.
func (c *Config) Finalize() error {
	c.normalize()

	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	prefix, value, err := nip19.Decode(c.OrganizerNpub)
	if err != nil {
		return fmt.Errorf("decode organizer npub: %w", err)
	}
	if prefix != "npub" {
		return fmt.Errorf("organizer key is %q, expected npub", prefix)
	}
	c.organizerPubKey = value.(string)
	return nil
}

// normalize fills zero-valued fields from the defaults so partial configs
// behave.
func (c *Config) normalize() {
	def := Default()
	if len(c.Relays) == 0 {
		c.Relays = def.Relays
	}
	if len(c.Hashtags) == 0 {
		c.Hashtags = def.Hashtags
	}
	if c.QueryTimeout <= 0 {
		c.QueryTimeout = def.QueryTimeout
	}
	if c.ChatTimeout <= 0 {
		c.ChatTimeout = def.ChatTimeout
	}
	if c.PublishTimeout <= 0 {
		c.PublishTimeout = def.PublishTimeout
	}
	if c.MaxRelays <= 0 {
		c.MaxRelays = def.MaxRelays
	}
	if c.PageLimit <= 0 {
		c.PageLimit = def.PageLimit
	}
	if c.CacheTTL <= 0 {
		c.CacheTTL = def.CacheTTL
	}
	if strings.TrimSpace(c.RefreshCron) == "" {
		c.RefreshCron = def.RefreshCron
	}
	if c.HTTP.ListenAddr == "" {
		c.HTTP.ListenAddr = def.HTTP.ListenAddr
	}
	if c.HTTP.DrainDuration <= 0 {
		c.HTTP.DrainDuration = def.HTTP.DrainDuration
	}
	if c.HTTP.GracefulShutdownDuration <= 0 {
		c.HTTP.GracefulShutdownDuration = def.HTTP.GracefulShutdownDuration
	}
	if c.HTTP.ReadTimeout <= 0 {
		c.HTTP.ReadTimeout = def.HTTP.ReadTimeout
	}
	if c.HTTP.WriteTimeout <= 0 {
		c.HTTP.WriteTimeout = def.HTTP.WriteTimeout
	}
}

// OrganizerPubKey returns the organizer's hex public key.
func (c *Config) OrganizerPubKey() string { return c.organizerPubKey }
