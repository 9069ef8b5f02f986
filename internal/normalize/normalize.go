// Package normalize merges adapter output into the canonical channel schema.
package normalize

import (
	"casterd/internal/config"
	"casterd/internal/models"
	"casterd/internal/source"
)

// maxChannelTags caps the channel-level tag union.
const maxChannelTags = 10

// Normalizer applies the field-by-field fallback rules using the configured
// defaults.
type Normalizer struct {
	cfg config.Config
}

func New(cfg config.Config) *Normalizer {
	return &Normalizer{cfg: cfg}
}

// ChannelID builds the namespaced channel id for a source type. YouTube ids
// use the dash convention (youtube-<playlistId>), the API sources use the
// underscore one (podbbang_<id>, spotify_<id>).
func ChannelID(sourceType, nativeID string) string {
	switch sourceType {
	case models.TypePodbbang:
		return "podbbang_" + nativeID
	case models.TypeSpotify:
		return "spotify_" + nativeID
	default:
		return "youtube-" + nativeID
	}
}

// VideoChannelID builds the id for a single-video channel. This is a
// namespace family of its own, distinct from youtube-<playlistId>.
func VideoChannelID(videoID string) string {
	return "youtube-video-" + videoID
}

// Channel assembles the canonical record from adapter output. Episodes are
// stored as given; ordering is the caller's concern.
func (n *Normalizer) Channel(sourceType string, info source.ChannelInfo, episodes []models.Episode) *models.Channel {
	ch := &models.Channel{
		ID:          ChannelID(sourceType, info.NativeID),
		Title:       info.Title,
		URL:         info.URL,
		Description: info.Description,
		Summary:     info.Summary,
		Thumbnail:   info.Thumbnail,
		Author:      info.Author,
		Copyright:   info.Copyright,
		Language:    info.Language,
		Type:        sourceType,
		Category:    info.Category,
		ContentType: info.ContentType,
		Tags:        channelTags(episodes),
		Videos:      episodes,
	}
	if ch.Language == "" {
		ch.Language = n.cfg.DefaultLanguage
	}
	// publisher and host both default to the author when not independently
	// supplied; no guessing beyond that.
	if ch.Author != "" {
		author := ch.Author
		ch.Publisher = &author
		ch.Host = &author
	}
	ownerName := info.OwnerName
	if ownerName == "" {
		ownerName = info.Author
	}
	if ownerName != "" || info.OwnerEmail != "" {
		ch.Owner = &models.Owner{Name: ownerName, Email: info.OwnerEmail}
	}
	return ch
}

// channelTags is the union of all episode tags, capped at the first ten
// distinct values in first-seen order.
func channelTags(episodes []models.Episode) []string {
	seen := make(map[string]struct{})
	tags := []string{}
	for _, ep := range episodes {
		for _, tag := range ep.Tags {
			if _, ok := seen[tag]; ok {
				continue
			}
			seen[tag] = struct{}{}
			tags = append(tags, tag)
			if len(tags) == maxChannelTags {
				return tags
			}
		}
	}
	return tags
}
