// Command gateway runs the Nostr Valley feed gateway.
//
// The gateway fans queries out to a set of public relays, reduces the
// results into community, calendar, live, and profile feeds, and serves
// them over a JSON API for the website front end.
//
// # Configuration File
//
// Create a YAML file with gateway settings:
//
//	relays:
//	  - "wss://relay.nostr.band"
//	  - "wss://relay.damus.io"
//	organizer_npub: "npub1..."
//	hashtags: ["NostrValley", "nostrvalley"]
//	refresh_cron: "@every 2m"
//	http:
//	  listen_addr: ":8080"
//	  metrics_addr: ":9090"
//
// # Signing Key
//
// Set NOSTRVALLEY_SECRET_KEY (hex) to enable the write endpoints (RSVP,
// chat, direct messages). Without it the gateway serves read feeds only.
//
// # Usage
//
//	go run ./cmd/gateway --config=gateway.yaml
//	go run ./cmd/gateway --npub=npub1... --listen-addr=:8080
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/robfig/cron/v3"

	"github.com/derekross/nostrvalley/aggregator"
	"github.com/derekross/nostrvalley/api/httpserver"
	"github.com/derekross/nostrvalley/config"
	"github.com/derekross/nostrvalley/feeds"
	"github.com/derekross/nostrvalley/relay"
)

func main() {
	var (
		configPath  = flag.String("config", "", "Path to YAML config file")
		listenAddr  = flag.String("listen-addr", "", "HTTP listen address (overrides config)")
		metricsAddr = flag.String("metrics-addr", "", "Prometheus listen address (overrides config)")
		npub        = flag.String("npub", "", "Organizer npub (overrides config)")
		enablePprof = flag.Bool("pprof", false, "Enable pprof debug API")
		logJSON     = flag.Bool("log-json", false, "Log in JSON format")
		logDebug    = flag.Bool("log-debug", false, "Log at debug level")
	)
	flag.Parse()

	// Optional .env for local development; absence is fine.
	_ = godotenv.Load()

	log := newLogger(*logJSON, *logDebug)

	cfg, err := loadConfig(*configPath, *npub, *listenAddr, *metricsAddr)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	var signer relay.Signer
	if sk := os.Getenv("NOSTRVALLEY_SECRET_KEY"); sk != "" {
		local, err := relay.NewLocalSigner(sk)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Signing key error: %v\n", err)
			os.Exit(1)
		}
		signer = local
		log.Info("write endpoints enabled", "pubkey", local.PublicKey())
	} else {
		log.Info("no signing key, write endpoints disabled")
	}

	pool := relay.NewPool(log, cfg.Relays)
	defer pool.Close()

	agg, err := aggregator.New(pool, cfg.Relays, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Aggregator error: %v\n", err)
		os.Exit(1)
	}

	svc, err := feeds.NewService(agg, pool, signer, feeds.Config{
		OrganizerPubKey: cfg.OrganizerPubKey(),
		Hashtags:        cfg.Hashtags,
		QueryTimeout:    cfg.QueryTimeout,
		ChatTimeout:     cfg.ChatTimeout,
		PublishTimeout:  cfg.PublishTimeout,
		MaxRelays:       cfg.MaxRelays,
		PageLimit:       cfg.PageLimit,
		CacheTTL:        cfg.CacheTTL,
	}, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Feed service error: %v\n", err)
		os.Exit(1)
	}

	srv, err := httpserver.New(&httpserver.ServerConfig{
		ListenAddr:               cfg.HTTP.ListenAddr,
		MetricsAddr:              cfg.HTTP.MetricsAddr,
		EnablePprof:              cfg.HTTP.EnablePprof || *enablePprof,
		Log:                      log,
		DrainDuration:            cfg.HTTP.DrainDuration,
		GracefulShutdownDuration: cfg.HTTP.GracefulShutdownDuration,
		ReadTimeout:              cfg.HTTP.ReadTimeout,
		WriteTimeout:             cfg.HTTP.WriteTimeout,
	}, httpserver.NewFeedHandler(svc, log))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Server error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.RefreshCron, func() { svc.Refresh(ctx) }); err != nil {
		fmt.Fprintf(os.Stderr, "Refresh schedule error: %v\n", err)
		os.Exit(1)
	}
	scheduler.Start()

	// Warm the cache before taking traffic.
	go svc.Refresh(ctx)

	srv.RunInBackground()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan

	log.Info("Shutting down gateway")
	cancel()
	<-scheduler.Stop().Done()
	srv.Shutdown()
}

func newLogger(json, debug bool) *slog.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	opts := &slog.HandlerOptions{Level: level}
	if json {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}

func loadConfig(path, npub, listenAddr, metricsAddr string) (*config.Config, error) {
	var cfg *config.Config
	if path != "" {
		loaded, err := config.Load(path)
		if err != nil {
			return nil, err
		}
		cfg = loaded
	} else {
		cfg = config.Default()
	}

	// Command-line flags override config file.
	changed := path == ""
	if npub != "" {
		cfg.OrganizerNpub = npub
		changed = true
	}
	if env := os.Getenv("NOSTRVALLEY_ORGANIZER_NPUB"); cfg.OrganizerNpub == "" && env != "" {
		cfg.OrganizerNpub = env
		changed = true
	}
	if listenAddr != "" {
		cfg.HTTP.ListenAddr = listenAddr
	}
	if metricsAddr != "" {
		cfg.HTTP.MetricsAddr = metricsAddr
	}
	if changed {
		if err := cfg.Finalize(); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}
