package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/storyforge/backend/middleware"
	"github.com/storyforge/backend/notify"
)

type EventsHandler struct {
	Broker *notify.Broker
}

// Stream pushes book-changed events for the authenticated user over
// server-sent events, so open views learn about background cover updates
// and edits from other tabs.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	userID, ok := middleware.UserIDFromContext(r.Context())
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeError(w, http.StatusInternalServerError, "streaming unsupported")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch := h.Broker.Subscribe(userID.Hex())
	defer h.Broker.Unsubscribe(ch)

	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(30 * time.Second)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev := <-ch:
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: book\ndata: %s\n\n", data)
			flusher.Flush()
		}
	}
}
