package handlers

import (
	"net/http"

	"casterd/internal/apperr"
)

func (h *Handlers) ListChannels(w http.ResponseWriter, r *http.Request) {
	channels, err := h.store.GetAll(r.Context())
	if err != nil {
		respondError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"channels": channels})
}

func (h *Handlers) DeleteChannel(w http.ResponseWriter, r *http.Request) {
	channelID := pathVar(r, "channelId")

	deleted, err := h.store.Delete(r.Context(), channelID)
	if err != nil {
		respondError(w, err)
		return
	}
	if !deleted {
		respondError(w, &apperr.NotFoundError{Kind: "channel", ID: channelID})
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "Channel deleted successfully",
	})
}
