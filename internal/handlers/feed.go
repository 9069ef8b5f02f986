package handlers

import (
	"errors"
	"log"
	"net/http"
	"path/filepath"
	"time"

	"casterd/internal/apperr"
)

// GetRSSFeed serves the synthesized podcast feed for a channel. Pointer
// channels redirect to their directory-hosted feed instead.
func (h *Handlers) GetRSSFeed(w http.ResponseWriter, r *http.Request) {
	channelID := pathVar(r, "channelId")

	ch, err := h.store.Get(r.Context(), channelID)
	if err != nil {
		var notFound *apperr.NotFoundError
		if errors.As(err, &notFound) {
			http.Error(w, "Channel not found", http.StatusNotFound)
			return
		}
		log.Printf("Error loading channel %s: %v", channelID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	if ch.IsPointer() {
		http.Redirect(w, r, ch.ExternalRSSURL, http.StatusFound)
		return
	}

	rss, err := h.renderer.Render(ch, ch.Videos, h.cfg.BaseURL, time.Now())
	if err != nil {
		log.Printf("Error generating RSS for %s: %v", channelID, err)
		http.Error(w, "Internal server error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/rss+xml")
	w.Write([]byte(rss))
}

// ServeAudioFile serves a locally extracted audio asset.
func (h *Handlers) ServeAudioFile(w http.ResponseWriter, r *http.Request) {
	filename := pathVar(r, "filename")

	filePath := filepath.Join(h.cfg.AudioStoragePath, filepath.Base(filename))
	http.ServeFile(w, r, filePath)
}
