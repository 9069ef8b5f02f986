package spotify

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

func TestExtractShowID(t *testing.T) {
	id, err := ExtractShowID("https://open.spotify.com/show/4rOoJ6Egrf8K2IrywzwOMk?si=abc")
	require.NoError(t, err)
	assert.Equal(t, "4rOoJ6Egrf8K2IrywzwOMk", id)

	_, err = ExtractShowID("https://open.spotify.com/playlist/xyz")
	var validation *apperr.ValidationError
	require.ErrorAs(t, err, &validation)
}

func newSpotifyServer(t *testing.T, totalEpisodes int, offsets *[]int) (*httptest.Server, *httptest.Server) {
	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/token", r.URL.Path)
		assert.NoError(t, r.ParseForm())
		assert.Equal(t, "client_credentials", r.PostFormValue("grant_type"))
		json.NewEncoder(w).Encode(map[string]string{"access_token": "test-token"})
	}))

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-token", r.Header.Get("Authorization"))
		switch r.URL.Path {
		case "/v1/shows/show1":
			json.NewEncoder(w).Encode(map[string]interface{}{
				"id":             "show1",
				"name":           "My Spotify Show",
				"description":    "A show",
				"publisher":      "Alice Media",
				"images":         []map[string]string{{"url": "https://img.example.com/show.jpg"}},
				"total_episodes": totalEpisodes,
			})
		case "/v1/shows/show1/episodes":
			offset, _ := strconv.Atoi(r.URL.Query().Get("offset"))
			*offsets = append(*offsets, offset)
			count := totalEpisodes - offset
			if count > pageSize {
				count = pageSize
			}
			items := make([]map[string]interface{}, 0, count)
			for i := 0; i < count; i++ {
				items = append(items, map[string]interface{}{
					"id":           fmt.Sprintf("ep%d", offset+i),
					"name":         fmt.Sprintf("Episode %d", offset+i),
					"release_date": "2024-01-15",
					"duration_ms":  1500000,
				})
			}
			json.NewEncoder(w).Encode(map[string]interface{}{"items": items})
		default:
			http.NotFound(w, r)
		}
	}))
	return accounts, api
}

func TestFetchShow_PaginatesInPagesOfFifty(t *testing.T) {
	var offsets []int
	accounts, api := newSpotifyServer(t, 120, &offsets)
	defer accounts.Close()
	defer api.Close()

	c := NewClient(Config{ClientID: "id", ClientSecret: "secret", APIURL: api.URL, AccountsURL: accounts.URL})
	info, episodes, err := c.FetchShow(context.Background(), "https://open.spotify.com/show/show1")
	require.NoError(t, err)

	assert.Equal(t, []int{0, 50, 100}, offsets)
	assert.Len(t, episodes, 120)

	assert.Equal(t, "show1", info.NativeID)
	assert.Equal(t, "My Spotify Show", info.Title)
	assert.Equal(t, "Alice Media", info.Author)
	assert.Equal(t, "https://img.example.com/show.jpg", info.Thumbnail)

	first := episodes[0]
	assert.Equal(t, "ep0", first.ID)
	assert.Equal(t, "https://open.spotify.com/episode/ep0", first.URL)
	// show image propagates when the episode has none of its own
	assert.Equal(t, "https://img.example.com/show.jpg", first.Thumbnail)
	assert.Equal(t, 1500, first.Duration)
	require.NotNil(t, first.PublishedAt)
}

func TestFetchShow_TokenRejected(t *testing.T) {
	accounts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "bad credentials", http.StatusUnauthorized)
	}))
	defer accounts.Close()

	c := NewClient(Config{AccountsURL: accounts.URL, APIURL: "http://127.0.0.1:0"})
	_, _, err := c.FetchShow(context.Background(), "https://open.spotify.com/show/show1")

	var fetchErr *apperr.SourceFetchError
	require.ErrorAs(t, err, &fetchErr)
	assert.Equal(t, "spotify", fetchErr.Source)
	assert.Equal(t, http.StatusUnauthorized, fetchErr.Status)
}

func TestMapEpisode_Fallbacks(t *testing.T) {
	ep := mapEpisode(episodeJSON{ID: "ep1"}, "https://img.example.com/show.jpg")
	assert.Equal(t, "Untitled Episode", ep.Title)
	assert.Equal(t, "https://img.example.com/show.jpg", ep.Thumbnail)

	withOwnImage := mapEpisode(episodeJSON{
		ID:     "ep2",
		Images: []imageJSON{{URL: "https://img.example.com/ep.jpg"}},
	}, "https://img.example.com/show.jpg")
	assert.Equal(t, "https://img.example.com/ep.jpg", withOwnImage.Thumbnail)
}
