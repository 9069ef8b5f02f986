package handlers

import (
	"log"
	"net/http"

	"casterd/internal/apperr"
	"casterd/internal/models"
	"casterd/internal/normalize"
	"casterd/internal/source"
	"casterd/internal/source/youtube"
	"casterd/internal/update"
	"casterd/pkg/tasks"
)

// AddPodbbangChannel ingests a Podbbang show: fetch everything, normalize,
// create the channel if absent, then write the complete episode list.
func (h *Handlers) AddPodbbangChannel(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ChannelID string `json:"channelId"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.ChannelID == "" {
		respondError(w, &apperr.ValidationError{Field: "channelId", Reason: "is required"})
		return
	}

	info, episodes, err := h.podbbang.FetchChannel(r.Context(), body.ChannelID)
	if err != nil {
		respondError(w, err)
		return
	}

	ch := h.normalizer.Channel(models.TypePodbbang, info, episodes)
	if _, err := h.store.InsertIfAbsent(r.Context(), ch); err != nil {
		respondError(w, err)
		return
	}
	stored, err := h.store.ReplaceEpisodes(r.Context(), ch.ID, episodes)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"channel":  stored,
		"episodes": len(episodes),
	})
}

// UpdatePodbbangChannel replaces the stored episode list with a fresh
// complete fetch.
func (h *Handlers) UpdatePodbbangChannel(w http.ResponseWriter, r *http.Request) {
	nativeID := pathVar(r, "channelId")
	channelID := normalize.ChannelID(models.TypePodbbang, nativeID)

	if _, err := h.store.Get(r.Context(), channelID); err != nil {
		respondError(w, err)
		return
	}
	_, episodes, err := h.podbbang.FetchChannel(r.Context(), nativeID)
	if err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.store.ReplaceEpisodes(r.Context(), channelID, episodes); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": len(episodes),
	})
}

// AddSpotifyShow ingests a Spotify show from its public URL.
func (h *Handlers) AddSpotifyShow(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ShowURL string `json:"showUrl"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.ShowURL == "" {
		respondError(w, &apperr.ValidationError{Field: "showUrl", Reason: "is required"})
		return
	}

	info, episodes, err := h.spotify.FetchShow(r.Context(), body.ShowURL)
	if err != nil {
		respondError(w, err)
		return
	}

	ch := h.normalizer.Channel(models.TypeSpotify, info, episodes)
	if _, err := h.store.InsertIfAbsent(r.Context(), ch); err != nil {
		respondError(w, err)
		return
	}
	stored, err := h.store.ReplaceEpisodes(r.Context(), ch.ID, episodes)
	if err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"channel":  stored,
		"episodes": len(episodes),
	})
}

// UpdateSpotifyShow replaces the stored episode list with a fresh complete
// fetch.
func (h *Handlers) UpdateSpotifyShow(w http.ResponseWriter, r *http.Request) {
	showID := pathVar(r, "showId")
	channelID := normalize.ChannelID(models.TypeSpotify, showID)

	if _, err := h.store.Get(r.Context(), channelID); err != nil {
		respondError(w, err)
		return
	}
	_, episodes, err := h.spotify.FetchShow(r.Context(), "https://open.spotify.com/show/"+showID)
	if err != nil {
		respondError(w, err)
		return
	}
	if _, err := h.store.ReplaceEpisodes(r.Context(), channelID, episodes); err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": len(episodes),
	})
}

// LookupSpotifyRSS resolves a Spotify show to its Apple-directory RSS feed
// and stores a pointer record instead of synthesizing a local feed.
func (h *Handlers) LookupSpotifyRSS(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ShowURL string `json:"showUrl"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.ShowURL == "" {
		respondError(w, &apperr.ValidationError{Field: "showUrl", Reason: "is required"})
		return
	}

	info, _, err := h.spotify.FetchShow(r.Context(), body.ShowURL)
	if err != nil {
		respondError(w, err)
		return
	}
	feedURL, err := h.apple.FeedURL(r.Context(), info.Title)
	if err != nil {
		respondError(w, err)
		return
	}

	ch := h.normalizer.Channel(models.TypeSpotify, info, nil)
	ch.ExternalRSSURL = feedURL
	if _, err := h.store.InsertIfAbsent(r.Context(), ch); err != nil {
		respondError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"feedUrl": feedURL,
	})
}

// ProcessYouTubeURL ingests a video, playlist or channel URL. Episodes are
// stored immediately with no enclosure; audio extraction runs as background
// tasks that patch the audio URL in once hosted.
func (h *Handlers) ProcessYouTubeURL(w http.ResponseWriter, r *http.Request) {
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.URL == "" {
		respondError(w, &apperr.ValidationError{Field: "url", Reason: "is required"})
		return
	}

	var ch *models.Channel
	switch youtube.DetectURLType(body.URL) {
	case youtube.URLTypeVideo:
		videoID, err := youtube.ExtractVideoID(body.URL)
		if err != nil {
			respondError(w, err)
			return
		}
		video, err := h.youtube.FetchVideoInfo(r.Context(), videoID)
		if err != nil {
			respondError(w, err)
			return
		}
		ep := video.Episode()
		ch = h.normalizer.Channel(models.TypeYouTube, source.ChannelInfo{
			NativeID:    video.ID,
			Title:       ep.Title,
			Description: ep.Description,
			URL:         ep.URL,
			Thumbnail:   ep.Thumbnail,
			Author:      video.Author,
		}, []models.Episode{ep})
		ch.ID = normalize.VideoChannelID(video.ID)

	case youtube.URLTypePlaylist, youtube.URLTypeChannel:
		info, err := h.youtube.FetchChannelInfo(r.Context(), body.URL)
		if err != nil {
			respondError(w, err)
			return
		}
		episodes, err := h.youtube.FetchVideos(r.Context(), body.URL, 0)
		if err != nil {
			respondError(w, err)
			return
		}
		channelType := models.TypeChannel
		if info.Type == youtube.URLTypePlaylist {
			channelType = models.TypePlaylist
		}
		ch = h.normalizer.Channel(channelType, source.ChannelInfo{
			NativeID:    info.NativeID,
			Title:       info.Title,
			Description: info.Description,
			URL:         body.URL,
			Thumbnail:   info.Thumbnail,
			Author:      info.Author,
		}, episodes)

	default:
		respondError(w, &apperr.ValidationError{Field: "url", Reason: "not a recognized YouTube URL"})
		return
	}

	stored, err := h.store.InsertIfAbsent(r.Context(), ch)
	if err != nil {
		respondError(w, err)
		return
	}
	h.enqueueAudioTasks(stored)

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rssUrl": h.cfg.BaseURL + "/rss/" + stored.ID,
	})
}

// UpdateYouTubeChannel merges freshly listed videos into the stored episode
// list; nothing is written when no new videos appeared.
func (h *Handlers) UpdateYouTubeChannel(w http.ResponseWriter, r *http.Request) {
	channelID := pathVar(r, "channelId")
	var body struct {
		URL string `json:"url"`
	}
	if err := decodeBody(r, &body); err != nil {
		respondError(w, err)
		return
	}
	if body.URL == "" {
		respondError(w, &apperr.ValidationError{Field: "url", Reason: "is required"})
		return
	}

	ch, err := h.store.Get(r.Context(), channelID)
	if err != nil {
		respondError(w, err)
		return
	}
	fresh, err := h.youtube.FetchVideos(r.Context(), body.URL, 0)
	if err != nil {
		respondError(w, err)
		return
	}

	merged, newCount := update.Merge(ch.Videos, fresh)
	if newCount > 0 {
		stored, err := h.store.ReplaceEpisodes(r.Context(), channelID, merged)
		if err != nil {
			respondError(w, err)
			return
		}
		h.enqueueAudioTasksFor(stored.ID, merged[:newCount])
	}

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"updated": newCount,
		"total":   len(merged),
	})
}

// enqueueAudioTasks schedules extraction for every episode still missing an
// audio asset.
func (h *Handlers) enqueueAudioTasks(ch *models.Channel) {
	var pending []models.Episode
	for _, ep := range ch.Videos {
		if ep.AudioPath == "" {
			pending = append(pending, ep)
		}
	}
	h.enqueueAudioTasksFor(ch.ID, pending)
}

func (h *Handlers) enqueueAudioTasksFor(channelID string, episodes []models.Episode) {
	for _, ep := range episodes {
		task, err := tasks.NewProcessAudioTask(channelID, ep.ID, ep.URL)
		if err != nil {
			log.Printf("failed to create audio task for %s: %v", ep.ID, err)
			continue
		}
		if _, err := h.asynqClient.Enqueue(task); err != nil {
			log.Printf("failed to enqueue audio task for %s: %v", ep.ID, err)
		}
	}
}
