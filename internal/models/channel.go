package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"
)

// Channel type tags. The tag records which upstream a channel came from and
// selects the refresh policy applied on update.
const (
	TypeYouTube  = "youtube"
	TypePlaylist = "playlist"
	TypeChannel  = "channel"
	TypePodbbang = "podbbang"
	TypeSpotify  = "spotify"
)

// Channel is the normalized representation of one externally hosted
// show/feed/playlist. The ID is namespaced by source and never changes after
// creation.
type Channel struct {
	ID             string         `json:"id" db:"id"`
	Title          string         `json:"title" db:"title"`
	URL            string         `json:"url" db:"url"`
	Description    string         `json:"description,omitempty" db:"description"`
	Summary        string         `json:"summary,omitempty" db:"summary"`
	Thumbnail      string         `json:"thumbnail,omitempty" db:"thumbnail"`
	Author         string         `json:"author,omitempty" db:"author"`
	Copyright      string         `json:"copyright,omitempty" db:"copyright"`
	Owner          *Owner         `json:"owner,omitempty" db:"owner"`
	Language       string         `json:"language" db:"language"`
	Type           string         `json:"type" db:"type"`
	Category       *string        `json:"category" db:"category"`
	ContentType    *string        `json:"contentType" db:"content_type"`
	Publisher      *string        `json:"publisher" db:"publisher"`
	Host           *string        `json:"host" db:"host"`
	Tags           pq.StringArray `json:"tags" db:"tags"`
	ExternalRSSURL string         `json:"externalRssUrl,omitempty" db:"external_rss_url"`
	AddedAt        time.Time      `json:"addedAt" db:"added_at"`
	LastUpdate     *time.Time     `json:"lastUpdate" db:"last_update"`
	Videos         EpisodeList    `json:"videos" db:"videos"`
}

// IsPointer reports whether the channel is a pointer record whose real feed
// lives on a third-party host. Pointer channels carry no episodes.
func (c *Channel) IsPointer() bool {
	return c.ExternalRSSURL != ""
}

// Owner is the feed owner contact, stored as a jsonb document.
type Owner struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

func (o Owner) Value() (driver.Value, error) {
	return json.Marshal(o)
}

func (o *Owner) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		return nil
	case []byte:
		return json.Unmarshal(v, o)
	case string:
		return json.Unmarshal([]byte(v), o)
	default:
		return fmt.Errorf("cannot scan %T into Owner", src)
	}
}

// EpisodeList is a channel's episode sequence, persisted as one jsonb
// document per channel row. Order is newest-first and is owned by the
// updater, not the store.
type EpisodeList []Episode

func (l EpisodeList) Value() (driver.Value, error) {
	if l == nil {
		l = EpisodeList{}
	}
	return json.Marshal(l)
}

func (l *EpisodeList) Scan(src interface{}) error {
	switch v := src.(type) {
	case nil:
		*l = EpisodeList{}
		return nil
	case []byte:
		return json.Unmarshal(v, l)
	case string:
		return json.Unmarshal([]byte(v), l)
	default:
		return fmt.Errorf("cannot scan %T into EpisodeList", src)
	}
}
