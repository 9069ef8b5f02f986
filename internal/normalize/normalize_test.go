package normalize

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casterd/internal/config"
	"casterd/internal/models"
	"casterd/internal/source"
)

func TestChannelID(t *testing.T) {
	assert.Equal(t, "podbbang_12345", ChannelID(models.TypePodbbang, "12345"))
	assert.Equal(t, "spotify_4rOoJ6Egrf8K2IrywzwOMk", ChannelID(models.TypeSpotify, "4rOoJ6Egrf8K2IrywzwOMk"))
	assert.Equal(t, "youtube-PLx0sYbCqOb8Q", ChannelID(models.TypePlaylist, "PLx0sYbCqOb8Q"))
	assert.Equal(t, "youtube-video-dQw4w9WgXcQ", VideoChannelID("dQw4w9WgXcQ"))
}

func TestChannel_AppliesDefaultsAndFallbacks(t *testing.T) {
	n := New(config.Defaults())

	ch := n.Channel(models.TypePodbbang, source.ChannelInfo{
		NativeID: "123",
		Title:    "My Show",
		Author:   "Alice",
	}, nil)

	assert.Equal(t, "podbbang_123", ch.ID)
	assert.Equal(t, "ko", ch.Language)
	require.NotNil(t, ch.Publisher)
	assert.Equal(t, "Alice", *ch.Publisher)
	require.NotNil(t, ch.Host)
	assert.Equal(t, "Alice", *ch.Host)
	require.NotNil(t, ch.Owner)
	assert.Equal(t, "Alice", ch.Owner.Name)
}

func TestChannel_ExplicitLanguageAndOwnerWin(t *testing.T) {
	n := New(config.Defaults())

	ch := n.Channel(models.TypeSpotify, source.ChannelInfo{
		NativeID:  "abc",
		Title:     "Show",
		Author:    "Alice",
		OwnerName: "Bob",
		Language:  "en",
	}, nil)

	assert.Equal(t, "en", ch.Language)
	require.NotNil(t, ch.Owner)
	assert.Equal(t, "Bob", ch.Owner.Name)
}

func TestChannel_NoAuthorLeavesPublisherNil(t *testing.T) {
	n := New(config.Defaults())

	ch := n.Channel(models.TypeChannel, source.ChannelInfo{NativeID: "UC1", Title: "Videos"}, nil)

	assert.Nil(t, ch.Publisher)
	assert.Nil(t, ch.Host)
	assert.Nil(t, ch.Owner)
}

func TestChannelTags_UnionCappedAtTen(t *testing.T) {
	episodes := []models.Episode{
		{ID: "a", Tags: []string{"t1", "t2", "t3"}},
		{ID: "b", Tags: []string{"t2", "t4"}},
	}
	for i := 0; i < 10; i++ {
		episodes = append(episodes, models.Episode{
			ID:   fmt.Sprintf("c%d", i),
			Tags: []string{fmt.Sprintf("extra%d", i)},
		})
	}

	n := New(config.Defaults())
	ch := n.Channel(models.TypePlaylist, source.ChannelInfo{NativeID: "pl"}, episodes)

	require.Len(t, ch.Tags, 10)
	assert.Equal(t, "t1", ch.Tags[0])
	assert.Equal(t, "t4", ch.Tags[3])
	// duplicates collapse; later episodes fill the remaining slots in order
	assert.Equal(t, "extra5", ch.Tags[9])
}
