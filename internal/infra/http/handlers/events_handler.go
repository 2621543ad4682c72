package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/xavierca1/leadflow/internal/entity"
	"github.com/xavierca1/leadflow/internal/usecase"
)

type EventSubscriber interface {
	Subscribe(companyID string) (<-chan entity.ChangeEvent, func())
}

// EventsHandler streams a company's change events as Server-Sent Events.
type EventsHandler struct {
	Events    EventSubscriber
	Heartbeat time.Duration
}

func NewEventsHandler(events EventSubscriber) *EventsHandler {
	return &EventsHandler{Events: events, Heartbeat: 25 * time.Second}
}

func (h *EventsHandler) Handle(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		writeErrorCode(w, http.StatusInternalServerError, usecase.CodeInternal, "streaming unsupported")
		return
	}

	stream, stop := h.Events.Subscribe(companyID(r))
	defer stop()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	heartbeat := time.NewTicker(h.Heartbeat)
	defer heartbeat.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-heartbeat.C:
			fmt.Fprint(w, ": ping\n\n")
			flusher.Flush()
		case ev, open := <-stream:
			if !open {
				return
			}
			data, err := json.Marshal(ev)
			if err != nil {
				continue
			}
			fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data)
			flusher.Flush()
		}
	}
}
