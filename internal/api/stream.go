package api

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
)

// handleObserveSettlement serves the live settlement feed via Server-Sent
// Events. The first frame is the current snapshot; every mutation pushes a
// fresh one, and a {"gone": true} frame ends the stream when the receipt is
// archived or destroyed.
//
// SSE over WebSocket keeps the transport plain HTTP and HTTP/2 friendly.
func (s *Server) handleObserveSettlement(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	initial, events, cancel, err := s.settlements.ObserveSettlement(r.Context(), chi.URLParam(r, "shareCode"))
	if err != nil {
		writeError(w, err)
		return
	}
	if initial == nil {
		writeJSON(w, http.StatusNotFound, map[string]string{"error": "unknown share code"})
		return
	}
	defer cancel()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)

	liveObservers.Inc()
	defer liveObservers.Dec()

	if err := writeSSE(w, initial); err != nil {
		return
	}
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			return
		case ev, open := <-events:
			if !open {
				return
			}
			if err := writeSSE(w, ev); err != nil {
				return
			}
			flusher.Flush()
			if ev.Gone {
				return
			}
		}
	}
}

func writeSSE(w http.ResponseWriter, payload interface{}) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	if _, err := w.Write([]byte("data: ")); err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return err
	}
	_, err = w.Write([]byte("\n\n"))
	return err
}
