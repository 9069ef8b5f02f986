// Package handlers is the HTTP boundary. It maps the typed domain errors to
// status codes; nothing below this layer knows about transport semantics.
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"casterd/internal/apperr"
	"casterd/internal/config"
	"casterd/internal/feed"
	"casterd/internal/models"
	"casterd/internal/normalize"
	"casterd/internal/source"
	"casterd/internal/source/youtube"
	"casterd/pkg/tasks"
)

// ChannelStore is the repository surface the HTTP layer uses.
type ChannelStore interface {
	Get(ctx context.Context, id string) (*models.Channel, error)
	GetAll(ctx context.Context) ([]models.Channel, error)
	InsertIfAbsent(ctx context.Context, ch *models.Channel) (*models.Channel, error)
	ReplaceEpisodes(ctx context.Context, id string, episodes []models.Episode) (*models.Channel, error)
	Delete(ctx context.Context, id string) (bool, error)
}

// PodbbangSource fetches a Podbbang show by native channel id.
type PodbbangSource interface {
	FetchChannel(ctx context.Context, channelID string) (source.ChannelInfo, []models.Episode, error)
}

// SpotifySource fetches a Spotify show by its open.spotify.com URL.
type SpotifySource interface {
	FetchShow(ctx context.Context, showURL string) (source.ChannelInfo, []models.Episode, error)
}

// AppleDirectory resolves a show title to a directory-hosted feed URL.
type AppleDirectory interface {
	FeedURL(ctx context.Context, showTitle string) (string, error)
}

// YouTubeSource resolves YouTube URLs via yt-dlp.
type YouTubeSource interface {
	FetchChannelInfo(ctx context.Context, url string) (youtube.ChannelInfo, error)
	FetchVideos(ctx context.Context, url string, limit int) ([]models.Episode, error)
	FetchVideoInfo(ctx context.Context, videoID string) (youtube.VideoInfo, error)
}

type Handlers struct {
	store       ChannelStore
	normalizer  *normalize.Normalizer
	renderer    *feed.Renderer
	podbbang    PodbbangSource
	spotify     SpotifySource
	apple       AppleDirectory
	youtube     YouTubeSource
	asynqClient tasks.TaskEnqueuer
	cfg         config.Config
}

func New(store ChannelStore, podbbang PodbbangSource, spotify SpotifySource, apple AppleDirectory, yt YouTubeSource, asynqClient tasks.TaskEnqueuer, cfg config.Config) *Handlers {
	return &Handlers{
		store:       store,
		normalizer:  normalize.New(cfg),
		renderer:    feed.New(cfg),
		podbbang:    podbbang,
		spotify:     spotify,
		apple:       apple,
		youtube:     yt,
		asynqClient: asynqClient,
		cfg:         cfg,
	}
}

// Register wires every route onto the router. The caller may wrap the ingest
// routes with rate limiting middleware before serving.
func (h *Handlers) Register(r *mux.Router) {
	r.HandleFunc("/health", h.Health).Methods(http.MethodGet)
	r.HandleFunc("/channels", h.ListChannels).Methods(http.MethodGet)
	r.HandleFunc("/channel/{channelId}", h.DeleteChannel).Methods(http.MethodDelete)

	r.HandleFunc("/podbbang/channel", h.AddPodbbangChannel).Methods(http.MethodPost)
	r.HandleFunc("/podbbang/update/{channelId}", h.UpdatePodbbangChannel).Methods(http.MethodPost)
	r.HandleFunc("/spotify/show", h.AddSpotifyShow).Methods(http.MethodPost)
	r.HandleFunc("/spotify/update/{showId}", h.UpdateSpotifyShow).Methods(http.MethodPost)
	r.HandleFunc("/spotify/rss", h.LookupSpotifyRSS).Methods(http.MethodPost)
	r.HandleFunc("/youtube/process", h.ProcessYouTubeURL).Methods(http.MethodPost)
	r.HandleFunc("/youtube/update/{channelId}", h.UpdateYouTubeChannel).Methods(http.MethodPost)

	r.HandleFunc("/rss/{channelId}", h.GetRSSFeed).Methods(http.MethodGet)
	r.HandleFunc("/audio/{filename}", h.ServeAudioFile).Methods(http.MethodGet)
}

func (h *Handlers) Health(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.GetAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":   "ok",
		"message":  "casterd is running",
		"channels": len(channels),
	})
}

func respondJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Printf("failed to encode response: %v", err)
	}
}

// respondError maps the typed domain errors onto status codes.
func respondError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError

	var notFound *apperr.NotFoundError
	var noMatch *apperr.NoMatchError
	var validation *apperr.ValidationError
	var unavailable *apperr.FeedUnavailableError
	var fetch *apperr.SourceFetchError
	switch {
	case errors.As(err, &notFound), errors.As(err, &noMatch):
		status = http.StatusNotFound
	case errors.As(err, &validation):
		status = http.StatusBadRequest
	case errors.As(err, &unavailable), errors.As(err, &fetch):
		status = http.StatusBadGateway
	}

	if status == http.StatusInternalServerError {
		log.Printf("internal error: %v", err)
	}
	respondJSON(w, status, map[string]string{"error": err.Error()})
}

func decodeBody(r *http.Request, out interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		return &apperr.ValidationError{Field: "body", Reason: "malformed JSON"}
	}
	return nil
}

func pathVar(r *http.Request, name string) string {
	return mux.Vars(r)[name]
}
