package feeds

import (
	"context"
	"regexp"

	"github.com/nbd-wtf/go-nostr"

	"github.com/derekross/nostrvalley/protocol"
)

const cacheKeyMedia = "media"

// mediaURLPattern matches direct image and video links in note content.
var mediaURLPattern = regexp.MustCompile(`(?i)https?://\S+\.(jpg|jpeg|png|gif|webp|mp4|webm|mov|avi)`)

// MediaFeed returns community posts carrying media: every picture post
// (kind 20), plus text notes with an embedded media URL or an imeta tag.
// Newest first.
func (s *Service) MediaFeed(ctx context.Context) ([]*nostr.Event, error) {
	if cached, ok := s.cache.get(cacheKeyMedia); ok {
		return cached.([]*nostr.Event), nil
	}
	media, err := s.fetchMediaFeed(ctx)
	if err != nil {
		return nil, err
	}
	s.cache.set(cacheKeyMedia, media)
	return media, nil
}

func (s *Service) fetchMediaFeed(ctx context.Context) ([]*nostr.Event, error) {
	filters := nostr.Filters{
		{Kinds: []int{protocol.KindTextNote}, Tags: nostr.TagMap{"t": s.cfg.Hashtags}, Limit: 50},
		{Kinds: []int{protocol.KindPictureNote}, Tags: nostr.TagMap{"t": s.cfg.Hashtags}, Limit: 30},
	}
	res, err := s.agg.Query(ctx, filters, s.queryOptions())
	if err != nil {
		return nil, err
	}

	media := res.Events[:0:0]
	for _, ev := range res.Events {
		if hasMedia(ev) {
			media = append(media, ev)
		}
	}
	protocol.SortByCreatedAtDesc(media)
	return media, nil
}

func hasMedia(ev *nostr.Event) bool {
	if ev.Kind == protocol.KindPictureNote {
		return true
	}
	if mediaURLPattern.MatchString(ev.Content) {
		return true
	}
	return len(protocol.DecodeTags(ev.Tags).Imeta) > 0
}
