package httpserver

import (
	"encoding/json"
	"net/http"
	"time"
)

type handler struct {
	sessions SessionLister
	ready    ReadyFunc
}

// sessionView is the JSON shape of one live session.
type sessionView struct {
	ID         string    `json:"id"`
	User       string    `json:"user"`
	Transport  string    `json:"transport"`
	Remote     string    `json:"remote"`
	Local      bool      `json:"local"`
	Capability byte      `json:"capability"`
	OpenedAt   time.Time `json:"opened_at"`
}

func (h *handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleReady(w http.ResponseWriter, r *http.Request) {
	if h.ready != nil && !h.ready() {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"status": "not ready"})
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{
		"status": "ready",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (h *handler) handleSessions(w http.ResponseWriter, r *http.Request) {
	infos := h.sessions.Sessions()
	views := make([]sessionView, 0, len(infos))
	for _, info := range infos {
		views = append(views, sessionView{
			ID:         info.ID.String(),
			User:       info.User,
			Transport:  info.Kind.String(),
			Remote:     info.RemoteAddr,
			Local:      info.Local,
			Capability: info.Capability,
			OpenedAt:   info.OpenedAt.UTC(),
		})
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"total":    len(views),
		"sessions": views,
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
