package aggregator

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/metrics"
	"github.com/derekross/nostrvalley/protocol"
	"github.com/derekross/nostrvalley/relay"
)

// Defaults applied when an Options field is left zero.
const (
	DefaultTimeout   = 3 * time.Second
	DefaultMaxRelays = 4
)

// Options tunes a single aggregated query. The zero value queries up to
// DefaultMaxRelays endpoints under a DefaultTimeout shared deadline with
// deduplication on.
type Options struct {
	// Timeout is the shared deadline covering all relay queries of this
	// call. Worst-case wall time is bounded by it independent of relay
	// count.
	Timeout time.Duration

	// MaxRelays caps how many endpoints are queried, taken from the front
	// of the configured priority list.
	MaxRelays int

	// KeepDuplicates disables id deduplication of the concatenated result.
	KeepDuplicates bool
}

// RelayFailure records one relay's failure during an aggregated query.
// Failures are diagnostics, not errors: they are logged and surfaced in the
// Result but never abort the other relays.
type RelayFailure struct {
	URL     string
	Err     error
	Elapsed time.Duration
}

// Result is the outcome of an aggregated query.
type Result struct {
	// Events is the aggregated (and by default deduplicated) event set.
	// Empty both when nothing matched and when every relay failed.
	Events []*nostr.Event

	// Failures lists the relays that produced no result and why.
	Failures []RelayFailure
}

// MultiQuerier fans queries out across a fixed-priority relay list. The
// relay list is injected configuration: tests substitute mock endpoints and
// reconfiguration builds a new MultiQuerier rather than mutating shared
// state.
type MultiQuerier struct {
	querier relay.Querier
	urls    []string
	log     *slog.Logger
}

// New creates a MultiQuerier over the given endpoints in priority order.
func New(querier relay.Querier, urls []string, log *slog.Logger) (*MultiQuerier, error) {
	if querier == nil {
		return nil, errors.New("querier cannot be nil")
	}
	if len(urls) == 0 {
		return nil, errors.New("at least one relay endpoint is required")
	}
	if log == nil {
		log = slog.Default()
	}
	return &MultiQuerier{querier: querier, urls: urls, log: log}, nil
}

// Relays returns the configured endpoint list in priority order.
func (q *MultiQuerier) Relays() []string {
	return append([]string(nil), q.urls...)
}

// Query fans the filters out to up to opts.MaxRelays endpoints in parallel
// and returns the aggregate. The only error condition is an invalid call
// (no filters); relay failures degrade to a smaller, possibly empty,
// result.
func (q *MultiQuerier) Query(ctx context.Context, filters nostr.Filters, opts Options) (Result, error) {
	if len(filters) == 0 {
		return Result{}, errors.New("at least one filter is required")
	}

	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	maxRelays := opts.MaxRelays
	if maxRelays <= 0 {
		maxRelays = DefaultMaxRelays
	}
	urls := q.urls
	if len(urls) > maxRelays {
		urls = urls[:maxRelays]
	}

	start := time.Now()
	defer func() { metrics.QueryDuration.Observe(time.Since(start).Seconds()) }()

	// One shared deadline across the whole fan-out.
	qctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	type relayOutcome struct {
		events  []*nostr.Event
		err     error
		elapsed time.Duration
	}
	outcomes := make([]relayOutcome, len(urls))

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(i int, url string) {
			defer wg.Done()
			began := time.Now()
			events, err := q.querier.QueryRelay(qctx, url, filters)
			outcomes[i] = relayOutcome{events: events, err: err, elapsed: time.Since(began)}
		}(i, url)
	}
	wg.Wait()

	// Concatenate in priority order so first-seen dedup is deterministic.
	var res Result
	for i, url := range urls {
		out := outcomes[i]
		if out.err != nil {
			q.log.Warn("relay query failed", "relay", url, "elapsed", out.elapsed, "err", out.err)
			metrics.RelayQueries.WithLabelValues(url, "error").Inc()
			res.Failures = append(res.Failures, RelayFailure{URL: url, Err: out.err, Elapsed: out.elapsed})
			continue
		}
		metrics.RelayQueries.WithLabelValues(url, "ok").Inc()
		metrics.EventsFetched.Add(float64(len(out.events)))
		res.Events = append(res.Events, out.events...)
	}

	if !opts.KeepDuplicates {
		before := len(res.Events)
		res.Events = protocol.DeduplicateByID(res.Events)
		metrics.EventsDeduplicated.Add(float64(before - len(res.Events)))
	}

	q.log.Debug("aggregate query done",
		"relays", len(urls),
		"failures", len(res.Failures),
		"events", len(res.Events),
		"elapsed", time.Since(start))

	return res, nil
}
