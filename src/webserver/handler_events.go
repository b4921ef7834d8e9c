package webserver

import (
	"encoding/json"
	"fmt"
	"net/http"

	"github.com/vankolev/coverd/src/fetch"
)

// EventsHandler streams artwork arrival notifications as server-sent
// events. The host listens here to refresh its views when a cover shows up.
// The engine's event channel has a single reader, so only one client at a
// time gets the full stream. The host opens one connection, which is enough.
type EventsHandler struct {
	engine *fetch.Engine
}

// NewEventsHandler returns a handler around the given resolution engine.
func NewEventsHandler(engine *fetch.Engine) *EventsHandler {
	return &EventsHandler{engine: engine}
}

type artworkEvent struct {
	Kind string `json:"kind"`
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ServeHTTP is required by the http.Handler's interface
func (eh EventsHandler) ServeHTTP(writer http.ResponseWriter, req *http.Request) {
	flusher, ok := writer.(http.Flusher)
	if !ok {
		http.Error(
			writer,
			"streaming is not supported",
			http.StatusInternalServerError,
		)
		return
	}

	writer.Header().Set("Content-Type", "text/event-stream")
	writer.Header().Set("Cache-Control", "no-cache")
	writer.WriteHeader(http.StatusOK)
	flusher.Flush()

	for {
		select {
		case <-req.Context().Done():
			return
		case ev, ok := <-eh.engine.Events():
			if !ok {
				return
			}

			payload, err := json.Marshal(artworkEvent{
				Kind: ev.Kind.String(),
				ID:   ev.ID,
				Name: ev.Name,
			})
			if err != nil {
				continue
			}

			if _, err := fmt.Fprintf(writer, "data: %s\n\n", payload); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
