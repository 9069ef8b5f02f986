package models

import "time"

// Episode is one playable unit within a channel. The ID is the source-native
// id (YouTube video id, Podbbang numeric id as string, Spotify episode id)
// and is unique within the channel.
type Episode struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	URL         string     `json:"url"`
	AudioPath   string     `json:"audioPath,omitempty"`
	AudioSize   int64      `json:"audioSize,omitempty"`
	Thumbnail   string     `json:"thumbnail,omitempty"`
	PublishedAt *time.Time `json:"publishedAt,omitempty"`
	UploadDate  *time.Time `json:"uploadDate,omitempty"`
	Duration    int        `json:"duration,omitempty"`
	Tags        []string   `json:"tags,omitempty"`
	ContentType *string    `json:"contentType,omitempty"`
}

// PubDate returns the episode's canonical timestamp for feed ordering,
// falling back to now when the source supplied neither field.
func (e *Episode) PubDate(now time.Time) time.Time {
	if e.PublishedAt != nil {
		return *e.PublishedAt
	}
	if e.UploadDate != nil {
		return *e.UploadDate
	}
	return now
}
