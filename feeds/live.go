package feeds

import (
	"context"
	"sort"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/protocol"
)

const cacheKeyLive = "live"

// LiveEvents returns the organizer's live streams: running first, then
// planned, then ended, most recently starting first within each group.
func (s *Service) LiveEvents(ctx context.Context) ([]protocol.LiveEvent, error) {
	if cached, ok := s.cache.get(cacheKeyLive); ok {
		return cached.([]protocol.LiveEvent), nil
	}
	out, err := s.fetchLiveEvents(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(cacheKeyLive, out)
	return out, nil
}

func (s *Service) fetchLiveEvents(ctx context.Context) ([]protocol.LiveEvent, error) {
	filters := nostr.Filters{{
		Kinds:   []int{protocol.KindLiveEvent},
		Authors: []string{s.cfg.OrganizerPubKey},
		Limit:   50,
	}}
	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return nil, err
	}

	valid := res.Events[:0:0]
	for _, ev := range res.Events {
		if protocol.ValidateLiveEvent(ev) {
			valid = append(valid, ev)
		}
	}
	current := protocol.LatestBy(valid, protocol.CoordinateKey)

	out := make([]protocol.LiveEvent, 0, len(current))
	for _, ev := range current {
		out = append(out, protocol.ParseLiveEvent(ev))
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].StatusRank() != out[j].StatusRank() {
			return out[i].StatusRank() < out[j].StatusRank()
		}
		return out[i].Starts > out[j].Starts
	})
	return out, nil
}
