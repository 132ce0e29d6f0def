package feeds

import (
	"context"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/protocol"
)

const cacheKeyProfile = "profile"

// Profile bundles the organizer's metadata with their recent notes.
type Profile struct {
	PubKey   string                    `json:"pubkey"`
	Metadata *protocol.ProfileMetadata `json:"metadata,omitempty"`
	Notes    []*nostr.Event            `json:"notes"`
}

// OrganizerProfile fetches the organizer's kind 0 metadata and latest text
// notes in one aggregated query. A missing or malformed metadata event
// leaves Metadata nil rather than failing the call.
func (s *Service) OrganizerProfile(ctx context.Context) (Profile, error) {
	if cached, ok := s.cache.get(cacheKeyProfile); ok {
		return cached.(Profile), nil
	}
	profile, err := s.fetchOrganizerProfile(ctx)
	if err != nil {
		return Profile{}, err
	}
	s.cache.set(cacheKeyProfile, profile)
	return profile, nil
}

func (s *Service) fetchOrganizerProfile(ctx context.Context) (Profile, error) {
	author := []string{s.cfg.OrganizerPubKey}
	filters := nostr.Filters{
		{Kinds: []int{protocol.KindProfileMetadata}, Authors: author, Limit: 1},
		{Kinds: []int{protocol.KindTextNote}, Authors: author, Limit: 20},
	}
	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return Profile{}, err
	}

	profile := Profile{PubKey: s.cfg.OrganizerPubKey, Notes: []*nostr.Event{}}

	var newestMeta *nostr.Event
	for _, ev := range res.Events {
		switch ev.Kind {
		case protocol.KindProfileMetadata:
			// Kind 0 is replaceable; different relays may hold different
			// revisions, so keep the newest.
			if newestMeta == nil || ev.CreatedAt > newestMeta.CreatedAt {
				newestMeta = ev
			}
		case protocol.KindTextNote:
			profile.Notes = append(profile.Notes, ev)
		}
	}
	protocol.SortByCreatedAtDesc(profile.Notes)

	if newestMeta != nil {
		if meta, err := protocol.ParseProfileMetadata(newestMeta); err == nil {
			profile.Metadata = &meta
		} else {
			s.log.Warn("malformed profile metadata", "event", newestMeta.ID, "err", err)
		}
	}
	return profile, nil
}
