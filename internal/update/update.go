// Package update computes a channel's next episode list from a fresh fetch.
//
// Two policies exist on purpose: YouTube refreshes merge incrementally while
// Podbbang and Spotify refreshes replace the list wholesale with the complete
// fetched set. The asymmetry mirrors the sources' fetch shapes and is kept as
// an explicit per-source dispatch rather than unified.
package update

import "casterd/internal/models"

// Policy selects how fresh episodes are combined with the stored list.
type Policy int

const (
	// PolicyMerge prepends episodes whose ids are not yet stored.
	PolicyMerge Policy = iota
	// PolicyReplace swaps in the freshly fetched complete set.
	PolicyReplace
)

// PolicyFor returns the refresh policy for a channel type.
func PolicyFor(channelType string) Policy {
	switch channelType {
	case models.TypePodbbang, models.TypeSpotify:
		return PolicyReplace
	default:
		return PolicyMerge
	}
}

// Merge deduplicates fresh against existing by episode id and prepends the
// novel episodes, preserving newest-first order on both sides. When nothing
// is new the existing slice is returned untouched so callers can skip the
// write entirely.
func Merge(existing, fresh []models.Episode) ([]models.Episode, int) {
	seen := make(map[string]struct{}, len(existing))
	for _, ep := range existing {
		seen[ep.ID] = struct{}{}
	}

	var novel []models.Episode
	for _, ep := range fresh {
		if _, ok := seen[ep.ID]; ok {
			continue
		}
		novel = append(novel, ep)
	}
	if len(novel) == 0 {
		return existing, 0
	}
	return append(novel, existing...), len(novel)
}

// Apply runs the policy. changed is false only for a merge that found nothing
// new; callers must then leave the stored list and lastUpdate untouched.
func Apply(p Policy, existing, fresh []models.Episode) (episodes []models.Episode, newCount int, changed bool) {
	if p == PolicyReplace {
		return fresh, len(fresh), true
	}
	merged, n := Merge(existing, fresh)
	return merged, n, n > 0
}
