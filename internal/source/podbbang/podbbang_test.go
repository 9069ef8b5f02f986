package podbbang

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"casterd/internal/apperr"
)

// newPagedServer serves totalCount episodes in pages of 20, recording the
// offsets requested. The offset query parameter carries the page index.
func newPagedServer(t *testing.T, totalCount int, offsets *[]string) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels/123/episodes":
			offset := r.URL.Query().Get("offset")
			*offsets = append(*offsets, offset)
			page, err := strconv.Atoi(offset)
			assert.NoError(t, err)

			start := page * pageSize
			count := totalCount - start
			if count > pageSize {
				count = pageSize
			}
			if count < 0 {
				count = 0
			}
			episodes := make([]map[string]interface{}, 0, count)
			for i := 0; i < count; i++ {
				episodes = append(episodes, map[string]interface{}{
					"id":           start + i + 1,
					"title":        fmt.Sprintf("Episode %d", start+i+1),
					"media":        map[string]string{"url": "https://cdn.example.com/audio.mp3"},
					"published_at": "2024-01-02 15:04:05",
					"duration":     1200,
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data":    episodes,
				"summary": map[string]int{"totalCount": totalCount},
			})
		case "/channels/123":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"title":       "My Podbbang Show",
				"description": "A show",
				"image":       "https://img.example.com/cover.jpg",
				"mc":          "Alice",
				"contacts":    map[string]string{"email": "alice@example.com"},
			})
		default:
			http.NotFound(w, r)
		}
	}))
}

func TestFetchChannel_PaginatesByPageIndex(t *testing.T) {
	var offsets []string
	srv := newPagedServer(t, 45, &offsets)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	info, episodes, err := c.FetchChannel(context.Background(), "123")
	require.NoError(t, err)

	// 45 episodes at 20 per page means pages 0, 1 and 2
	assert.Equal(t, []string{"0", "1", "2"}, offsets)
	assert.Len(t, episodes, 45)

	assert.Equal(t, "123", info.NativeID)
	assert.Equal(t, "My Podbbang Show", info.Title)
	assert.Equal(t, "https://www.podbbang.com/channels/123", info.URL)
	assert.Equal(t, "Alice", info.Author)
	assert.Equal(t, "alice@example.com", info.OwnerEmail)

	first := episodes[0]
	assert.Equal(t, "1", first.ID)
	assert.Equal(t, "https://www.podbbang.com/channels/123/episodes/1", first.URL)
	assert.Equal(t, "https://cdn.example.com/audio.mp3", first.AudioPath)
	assert.Equal(t, 1200, first.Duration)
	require.NotNil(t, first.PublishedAt)
}

func TestFetchChannel_SinglePage(t *testing.T) {
	var offsets []string
	srv := newPagedServer(t, 5, &offsets)
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, episodes, err := c.FetchChannel(context.Background(), "123")
	require.NoError(t, err)

	assert.Equal(t, []string{"0"}, offsets)
	assert.Len(t, episodes, 5)
}

func TestFetchChannel_UpstreamError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "upstream broke", http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, _, err := c.FetchChannel(context.Background(), "123")

	var fetchErr *apperr.SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "podbbang", fetchErr.Source)
	assert.Equal(t, http.StatusInternalServerError, fetchErr.Status)
}

func TestFetchChannel_EpisodeMissingID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/channels/123/episodes":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"data": []map[string]interface{}{
					{"title": "No ID Here"},
				},
				"summary": map[string]int{"totalCount": 1},
			})
		case "/channels/123":
			json.NewEncoder(w).Encode(map[string]interface{}{"title": "My Show"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewClient(Config{BaseURL: srv.URL})
	_, _, err := c.FetchChannel(context.Background(), "123")

	var fetchErr *apperr.SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "podbbang", fetchErr.Source)
	assert.Contains(t, fetchErr.Error(), "episode id missing")
}

func TestMapEpisode_Fallbacks(t *testing.T) {
	ep := mapEpisode("123", episodeJSON{ID: 7})
	assert.Equal(t, "7", ep.ID)
	assert.Equal(t, "Untitled Episode", ep.Title)
	assert.Empty(t, ep.AudioPath)
	assert.Nil(t, ep.PublishedAt)
}
