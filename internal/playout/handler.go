package playout

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
)

// Handler exposes the playout HTTP endpoints using go-chi.
type Handler struct {
	svc *Service
	log *slog.Logger
}

// NewHandler returns a Handler that serves next-vod requests via svc.
func NewHandler(svc *Service, log *slog.Logger) *Handler {
	return &Handler{svc: svc, log: log}
}

// GetNextVod handles GET /next-vod?channelId=<id>.
// Responds 200 with {id, title, hlsUrl}, 400 when channelId is missing,
// 404 for an unknown channel, 409 for an empty playlist or lost advancement
// race, 503 when the store is unreachable.
func (h *Handler) GetNextVod(w http.ResponseWriter, r *http.Request) {
	channelID := r.URL.Query().Get("channelId")
	if channelID == "" {
		writeError(w, http.StatusBadRequest, "missing channelId parameter")
		return
	}

	vod, err := h.svc.GetNextVod(r.Context(), channelID)
	if err != nil {
		switch {
		case errors.Is(err, ErrChannelNotFound):
			writeError(w, http.StatusNotFound, "channel not found")
		case errors.Is(err, ErrEmptyPlaylist):
			h.log.Warn("channel has no assets", slog.String("channel_id", channelID))
			writeError(w, http.StatusConflict, "channel playlist is empty")
		case errors.Is(err, ErrPositionConflict):
			h.log.Warn("advancement contention", slog.String("channel_id", channelID))
			writeError(w, http.StatusConflict, "channel is being advanced concurrently")
		case errors.Is(err, ErrStoreUnavailable):
			h.log.Error("channel store unavailable", slog.String("error", err.Error()))
			writeError(w, http.StatusServiceUnavailable, "channel store unavailable")
		default:
			h.log.Error("next vod failed",
				slog.String("channel_id", channelID),
				slog.String("error", err.Error()))
			writeError(w, http.StatusInternalServerError, "internal error")
		}
		return
	}

	h.log.Debug("next vod served",
		slog.String("channel_id", channelID),
		slog.String("asset_id", vod.ID))
	writeJSON(w, http.StatusOK, vod)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
