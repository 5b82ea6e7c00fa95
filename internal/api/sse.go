package api

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/r3labs/sse/v2"

	"github.com/Stainless-Nata/awesomation/internal/push"
)

// Events publishes push batches as server-sent events, one stream per
// channel. It implements push.Publisher.
type Events struct {
	server *sse.Server
}

// NewEvents creates an SSE publisher. Streams are created on first use and
// late subscribers do not see earlier batches.
func NewEvents() *Events {
	server := sse.New()
	server.AutoReplay = false
	return &Events{server: server}
}

// Publish sends events to channel's stream as one message.
func (e *Events) Publish(_ context.Context, channel string, events []json.RawMessage) error {
	data, err := json.Marshal(events)
	if err != nil {
		return err
	}
	e.ensure(channel)
	e.server.Publish(channel, &sse.Event{Data: data})
	return nil
}

// Close ends every stream.
func (e *Events) Close() {
	e.server.Close()
}

func (e *Events) ensure(channel string) {
	if !e.server.StreamExists(channel) {
		e.server.CreateStream(channel)
	}
}

// handleEvents streams a private channel the person may read.
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	if s.events == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "event streaming is disabled")
		return
	}

	channel := r.URL.Query().Get("stream")
	if channel == "" {
		channel = push.ChannelName(buildingFromContext(r.Context()))
		q := r.URL.Query()
		q.Set("stream", channel)
		r.URL.RawQuery = q.Encode()
	}
	if err := s.authorizer.Check(personFromContext(r.Context()), channel); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	s.events.ensure(channel)
	s.events.server.ServeHTTP(w, r)
}
