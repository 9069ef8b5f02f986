// Package worker holds the asynq task handlers: per-channel refresh, the
// hourly all-channel sweep, and audio extraction for YouTube episodes.
package worker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/hibiken/asynq"
	"golang.org/x/time/rate"

	"casterd/internal/config"
	"casterd/internal/models"
	"casterd/internal/update"
	"casterd/pkg/tasks"
)

var execCommandContext = exec.CommandContext

// downloadPause spaces bulk audio extractions to stay polite with YouTube.
const downloadPause = 2 * time.Second

// ChannelStore is the subset of the repository the worker needs.
type ChannelStore interface {
	Get(ctx context.Context, id string) (*models.Channel, error)
	GetAll(ctx context.Context) ([]models.Channel, error)
	ReplaceEpisodes(ctx context.Context, id string, episodes []models.Episode) (*models.Channel, error)
}

// EpisodeFetcher fetches a source's complete episode list by native id.
type EpisodeFetcher interface {
	FetchEpisodes(ctx context.Context, nativeID string) ([]models.Episode, error)
}

// VideoLister lists a YouTube channel's or playlist's videos, newest first.
type VideoLister interface {
	FetchVideos(ctx context.Context, url string, limit int) ([]models.Episode, error)
}

// ItemResult is one entry of a batch outcome; callers inspect the list
// instead of assuming all-or-nothing success.
type ItemResult struct {
	ID      string `json:"id"`
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

type TaskHandler struct {
	store       ChannelStore
	podbbang    EpisodeFetcher
	spotify     EpisodeFetcher
	youtube     VideoLister
	asynqClient tasks.TaskEnqueuer
	cfg         config.Config
	downloads   *rate.Limiter
}

func NewTaskHandler(store ChannelStore, podbbang, spotify EpisodeFetcher, youtube VideoLister, client tasks.TaskEnqueuer, cfg config.Config) *TaskHandler {
	return &TaskHandler{
		store:       store,
		podbbang:    podbbang,
		spotify:     spotify,
		youtube:     youtube,
		asynqClient: client,
		cfg:         cfg,
		downloads:   rate.NewLimiter(rate.Every(downloadPause), 1),
	}
}

// HandleRefreshChannelTask refreshes one channel's episode list.
func (h *TaskHandler) HandleRefreshChannelTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.RefreshChannelPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	ch, err := h.store.Get(ctx, p.ChannelID)
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	return h.refreshChannel(ctx, ch)
}

// HandleRefreshAllTask is the hourly sweep. Every stored channel is refreshed
// to completion before the next one starts; one channel's failure never
// aborts the sweep. The sweep itself always reports success so a partial run
// is not retried before the next tick.
func (h *TaskHandler) HandleRefreshAllTask(ctx context.Context, t *asynq.Task) error {
	log.Println("Refreshing all channels...")

	channels, err := h.store.GetAll(ctx)
	if err != nil {
		return fmt.Errorf("failed to get channels: %w", err)
	}

	results := h.RefreshAll(ctx, channels)
	succeeded := 0
	for _, r := range results {
		if r.Success {
			succeeded++
		}
	}
	log.Printf("Sweep finished: %d succeeded, %d failed", succeeded, len(results)-succeeded)
	return nil
}

// RefreshAll refreshes each channel independently and reports a per-channel
// result list.
func (h *TaskHandler) RefreshAll(ctx context.Context, channels []models.Channel) []ItemResult {
	results := make([]ItemResult, 0, len(channels))
	for i := range channels {
		ch := &channels[i]
		if err := h.refreshChannel(ctx, ch); err != nil {
			log.Printf("failed to refresh channel %s: %v", ch.ID, err)
			results = append(results, ItemResult{ID: ch.ID, Error: err.Error()})
			continue
		}
		results = append(results, ItemResult{ID: ch.ID, Success: true})
	}
	return results
}

// refreshChannel fetches fresh episodes for one channel and applies the
// per-source policy: wholesale replace for Podbbang/Spotify, incremental
// merge for YouTube. A merge with nothing new leaves the stored record (and
// lastUpdate) untouched.
func (h *TaskHandler) refreshChannel(ctx context.Context, ch *models.Channel) error {
	if ch.IsPointer() {
		// pointer records have no local episodes to refresh
		return nil
	}
	if strings.HasPrefix(ch.ID, "youtube-video-") {
		// single-video channels are frozen at ingest
		return nil
	}

	var fresh []models.Episode
	var err error
	switch ch.Type {
	case models.TypePodbbang:
		fresh, err = h.podbbang.FetchEpisodes(ctx, strings.TrimPrefix(ch.ID, "podbbang_"))
	case models.TypeSpotify:
		fresh, err = h.spotify.FetchEpisodes(ctx, strings.TrimPrefix(ch.ID, "spotify_"))
	case models.TypeYouTube, models.TypePlaylist, models.TypeChannel:
		fresh, err = h.youtube.FetchVideos(ctx, ch.URL, 0)
	default:
		return fmt.Errorf("unknown channel type %q", ch.Type)
	}
	if err != nil {
		return err
	}

	episodes, newCount, changed := update.Apply(update.PolicyFor(ch.Type), ch.Videos, fresh)
	if !changed {
		return nil
	}
	if _, err := h.store.ReplaceEpisodes(ctx, ch.ID, episodes); err != nil {
		return fmt.Errorf("failed to replace episodes: %w", err)
	}
	log.Printf("Refreshed channel %s: %d new episodes", ch.ID, newCount)

	// newly merged YouTube episodes still need their audio extracted
	if update.PolicyFor(ch.Type) == update.PolicyMerge {
		for i := 0; i < newCount; i++ {
			ep := episodes[i]
			task, err := tasks.NewProcessAudioTask(ch.ID, ep.ID, ep.URL)
			if err != nil {
				log.Printf("failed to create audio task for %s: %v", ep.ID, err)
				continue
			}
			if _, err := h.asynqClient.Enqueue(task); err != nil {
				log.Printf("failed to enqueue audio task for %s: %v", ep.ID, err)
			}
		}
	}
	return nil
}

type ytDlpOutput struct {
	ID       string  `json:"id"`
	Title    string  `json:"title"`
	Duration float64 `json:"duration"`
	Filename string  `json:"_filename"`
}

// HandleProcessAudioTask extracts one episode's audio with yt-dlp and patches
// the hosted audio URL and size back onto the stored episode. Downloads are
// paced two seconds apart.
func (h *TaskHandler) HandleProcessAudioTask(ctx context.Context, t *asynq.Task) error {
	var p tasks.ProcessAudioPayload
	if err := json.Unmarshal(t.Payload(), &p); err != nil {
		return fmt.Errorf("failed to unmarshal task payload: %w", err)
	}

	if err := h.downloads.Wait(ctx); err != nil {
		return err
	}
	log.Printf("Extracting audio: %s", p.EpisodeID)

	audioPath := filepath.Join(h.cfg.AudioStoragePath, p.EpisodeID+".mp3")
	cmd := execCommandContext(ctx, "yt-dlp",
		"-x",
		"--audio-format", "mp3",
		"-o", audioPath,
		"--no-playlist",
		"--print-json",
		p.NativeURL,
	)
	output, err := cmd.CombinedOutput()
	if err != nil {
		log.Printf("failed to execute yt-dlp command: %v, output: %s", err, string(output))
		return fmt.Errorf("failed to execute yt-dlp command: %w", err)
	}

	// yt-dlp sometimes prints progress lines before the JSON
	jsonStart := strings.Index(string(output), "{")
	if jsonStart == -1 {
		return fmt.Errorf("no JSON found in yt-dlp output")
	}
	var meta ytDlpOutput
	if err := json.Unmarshal(output[jsonStart:], &meta); err != nil {
		return fmt.Errorf("failed to unmarshal yt-dlp output: %w", err)
	}

	fileInfo, err := os.Stat(audioPath)
	if err != nil {
		return fmt.Errorf("failed to get file info: %w", err)
	}

	audioURL := fmt.Sprintf("%s/audio/%s.mp3", h.cfg.BaseURL, p.EpisodeID)
	if err := h.attachAudio(ctx, p.ChannelID, p.EpisodeID, audioURL, fileInfo.Size()); err != nil {
		return err
	}

	log.Printf("Successfully extracted audio: %s", p.EpisodeID)
	return nil
}

// attachAudio patches one episode's audioPath/audioSize inside the channel's
// stored list.
func (h *TaskHandler) attachAudio(ctx context.Context, channelID, episodeID, audioURL string, size int64) error {
	ch, err := h.store.Get(ctx, channelID)
	if err != nil {
		return fmt.Errorf("failed to get channel: %w", err)
	}
	found := false
	episodes := make([]models.Episode, len(ch.Videos))
	copy(episodes, ch.Videos)
	for i := range episodes {
		if episodes[i].ID == episodeID {
			episodes[i].AudioPath = audioURL
			episodes[i].AudioSize = size
			found = true
			break
		}
	}
	if !found {
		return fmt.Errorf("episode %s not found in channel %s", episodeID, channelID)
	}
	if _, err := h.store.ReplaceEpisodes(ctx, channelID, episodes); err != nil {
		return fmt.Errorf("failed to replace episodes: %w", err)
	}
	return nil
}
