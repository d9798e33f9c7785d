package event_api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	events "eventhub/internal/events/service"
	"eventhub/internal/logger"
	"eventhub/internal/sse"
	"eventhub/internal/utils"
)

// SSEHandler streams live attendance updates for an event. The stream
// is a freshness optimization: viewers still pull current stats on
// load, since updates sent before they connected are gone.
type SSEHandler struct {
	EventService *events.EventService
	Emitter      *sse.AttendeeEventEmitter
	Log          *logger.Logger
}

func NewSSEHandler(eventService *events.EventService, emitter *sse.AttendeeEventEmitter, log *logger.Logger) *SSEHandler {
	return &SSEHandler{EventService: eventService, Emitter: emitter, Log: log}
}

// HandleEventUpdates handles GET /api/events/{eventID}/live.
func (h *SSEHandler) HandleEventUpdates(w http.ResponseWriter, r *http.Request) {
	eventID := chi.URLParam(r, "eventID")

	// A stream for a missing event is a 404, not an empty stream.
	if _, err := h.EventService.GetEvent(r.Context(), eventID); err != nil {
		utils.WriteError(w, err)
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	// The stream outlives the server's write timeout; clear the deadline
	// for this response only.
	if err := http.NewResponseController(w).SetWriteDeadline(time.Time{}); err != nil && h.Log != nil {
		h.Log.Warn("SSE", fmt.Sprintf("Failed to clear write deadline: %v", err))
	}

	setupSSEHeaders(w)

	ctx := r.Context()
	updateChan := h.Emitter.SubscribeToEvent(ctx, eventID)

	fmt.Fprintf(w, "event: connected\ndata: {\"status\":\"connected\",\"eventId\":%q}\n\n", eventID)
	flusher.Flush()

	if h.Log != nil {
		h.Log.Info("SSE", fmt.Sprintf("Viewer connected to live updates for event %s", eventID))
	}

	for {
		select {
		case update, open := <-updateChan:
			if !open {
				return
			}

			jsonData, err := json.Marshal(update)
			if err != nil {
				if h.Log != nil {
					h.Log.Error("SSE", fmt.Sprintf("Failed to serialize attendee update: %v", err))
				}
				continue
			}

			fmt.Fprintf(w, "event: attendee_update\ndata: %s\n\n", jsonData)
			flusher.Flush()

		case <-ctx.Done():
			if h.Log != nil {
				h.Log.Debug("SSE", fmt.Sprintf("Viewer disconnected from event %s", eventID))
			}
			return
		}
	}
}

func setupSSEHeaders(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "text/event-stream;charset=UTF-8")
	w.Header().Set("Cache-Control", "no-cache, no-store, max-age=0, must-revalidate")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("X-Content-Type-Options", "nosniff")
}
