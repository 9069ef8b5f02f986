// Package source holds the shape shared by all upstream adapters: every
// adapter resolves a source-native reference and returns a ChannelInfo plus
// the fetched episode list, already mapped field by field with explicit
// fallbacks.
package source

// ChannelInfo is one upstream channel's metadata before normalization.
// Optional fields stay zero when the source has no signal; the normalizer
// owns the fallback chains.
type ChannelInfo struct {
	NativeID    string
	Title       string
	Description string
	Summary     string
	URL         string
	Thumbnail   string
	Author      string
	Copyright   string
	OwnerName   string
	OwnerEmail  string
	Language    string
	Category    *string
	ContentType *string
}
