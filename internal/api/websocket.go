package api

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Stainless-Nata/awesomation/internal/auth"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/config"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/logging"
	"github.com/Stainless-Nata/awesomation/internal/push"
)

// Frame types.
const (
	FrameSubscribe   = "subscribe"
	FrameUnsubscribe = "unsubscribe"
	FramePing        = "ping"
	FramePong        = "pong"
	FrameEvent       = "event"
	FrameResponse    = "response"
	FrameError       = "error"

	// outboxSize is the number of frames buffered per connection.
	outboxSize = 256
)

// Frame is one websocket message in either direction. Event frames carry a
// push batch (a JSON array of events) for Channel.
type Frame struct {
	Type      string          `json:"type"`
	ID        string          `json:"id,omitempty"`
	Channel   string          `json:"channel,omitempty"`
	Timestamp string          `json:"timestamp,omitempty"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

// ChannelsPayload is the payload of subscribe and unsubscribe frames.
type ChannelsPayload struct {
	Channels []string `json:"channels"`
}

func encodeFrame(typ, id, channel string, payload any) ([]byte, error) {
	f := Frame{Type: typ, ID: id, Channel: channel, Timestamp: time.Now().UTC().Format(time.RFC3339)}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		f.Payload = raw
	}
	return json.Marshal(f)
}

// Hub delivers push batches to websocket subscribers. It indexes
// subscribers by channel and implements push.Publisher.
type Hub struct {
	cfg        config.WebSocketConfig
	authorizer *push.Authorizer
	logger     *logging.Logger

	mu       sync.RWMutex
	conns    map[*subscriber]struct{}
	channels map[string]map[*subscriber]struct{}
}

// NewHub creates a Hub. Subscriptions are checked with authorizer.
func NewHub(cfg config.WebSocketConfig, authorizer *push.Authorizer, logger *logging.Logger) *Hub {
	return &Hub{
		cfg:        cfg,
		authorizer: authorizer,
		logger:     logger,
		conns:      make(map[*subscriber]struct{}),
		channels:   make(map[string]map[*subscriber]struct{}),
	}
}

// Run blocks until ctx is cancelled, then disconnects every subscriber.
func (h *Hub) Run(ctx context.Context) {
	<-ctx.Done()

	h.mu.Lock()
	conns := make([]*subscriber, 0, len(h.conns))
	for s := range h.conns {
		conns = append(conns, s)
	}
	h.conns = make(map[*subscriber]struct{})
	h.channels = make(map[string]map[*subscriber]struct{})
	h.mu.Unlock()

	for _, s := range conns {
		s.shutdown()
		s.conn.Close()
	}
}

// Publish sends one push batch to every subscriber of channel. Subscribers
// whose outbox is full miss the batch.
func (h *Hub) Publish(_ context.Context, channel string, events []json.RawMessage) error {
	h.mu.RLock()
	targets := make([]*subscriber, 0, len(h.channels[channel]))
	for s := range h.channels[channel] {
		targets = append(targets, s)
	}
	h.mu.RUnlock()

	if len(targets) == 0 {
		return nil
	}

	data, err := encodeFrame(FrameEvent, "", channel, events)
	if err != nil {
		return err
	}
	dropped := 0
	for _, s := range targets {
		if !s.enqueue(data) {
			dropped++
		}
	}
	h.logger.Debug("push batch sent", "channel", channel, "events", len(events),
		"recipients", len(targets)-dropped, "dropped", dropped)
	return nil
}

// ClientCount returns the number of connected subscribers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns)
}

func (h *Hub) attach(s *subscriber) {
	h.mu.Lock()
	h.conns[s] = struct{}{}
	n := len(h.conns)
	h.mu.Unlock()
	h.logger.Debug("websocket client connected", "person_id", s.person.ID, "clients", n)
}

// detach drops s from every channel and closes its outbox.
func (h *Hub) detach(s *subscriber) {
	h.mu.Lock()
	delete(h.conns, s)
	for ch, set := range h.channels {
		delete(set, s)
		if len(set) == 0 {
			delete(h.channels, ch)
		}
	}
	n := len(h.conns)
	h.mu.Unlock()

	s.shutdown()
	h.logger.Debug("websocket client disconnected", "person_id", s.person.ID, "clients", n)
}

// subscribe adds s to the channels its person may read and returns the
// granted and denied names.
func (h *Hub) subscribe(s *subscriber, channels []string) (granted, denied []string) {
	granted, denied = []string{}, []string{}

	h.mu.Lock()
	defer h.mu.Unlock()
	if _, live := h.conns[s]; !live {
		return granted, channels
	}
	for _, ch := range channels {
		if err := h.authorizer.Check(s.person, ch); err != nil {
			denied = append(denied, ch)
			continue
		}
		set, ok := h.channels[ch]
		if !ok {
			set = make(map[*subscriber]struct{})
			h.channels[ch] = set
		}
		set[s] = struct{}{}
		granted = append(granted, ch)
	}
	return granted, denied
}

func (h *Hub) unsubscribe(s *subscriber, channels []string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for _, ch := range channels {
		if set, ok := h.channels[ch]; ok {
			delete(set, s)
			if len(set) == 0 {
				delete(h.channels, ch)
			}
		}
	}
}

// subscriber is one websocket connection of an authenticated person.
type subscriber struct {
	hub    *Hub
	conn   *websocket.Conn
	person *auth.Person

	mu     sync.Mutex
	outbox chan []byte
	closed bool
}

// enqueue queues data for the writer. It reports false when the outbox is
// full or already closed.
func (s *subscriber) enqueue(data []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.outbox <- data:
		return true
	default:
		return false
	}
}

// shutdown closes the outbox once, which stops the writer.
func (s *subscriber) shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.outbox)
	}
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Origins are enforced by the CORS middleware; tickets authenticate.
	CheckOrigin: func(*http.Request) bool { return true },
}

// handleWebSocket redeems the ticket query parameter (issued by
// POST /user/ws-ticket) and upgrades the connection.
func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	ticket := r.URL.Query().Get("ticket")
	if ticket == "" {
		writeUnauthorized(w, "ticket query parameter is required")
		return
	}
	personID, ok := s.tickets.redeem(ticket)
	if !ok {
		writeUnauthorized(w, "invalid or expired ticket")
		return
	}
	person, err := s.persons.Get(r.Context(), personID)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Error("websocket upgrade failed", "error", err)
		return
	}

	sub := &subscriber{
		hub:    s.hub,
		conn:   conn,
		person: person,
		outbox: make(chan []byte, outboxSize),
	}
	s.hub.attach(sub)

	keepalive := newKeepalive(s.wsCfg)
	go sub.writeLoop(keepalive)
	go sub.readLoop(keepalive, int64(s.wsCfg.MaxMessageSize))
}

// keepalive holds the ping schedule of a connection.
type keepalive struct {
	interval time.Duration
	wait     time.Duration
}

func newKeepalive(cfg config.WebSocketConfig) keepalive {
	return keepalive{
		interval: time.Duration(cfg.PingInterval) * time.Second,
		wait:     time.Duration(cfg.PongTimeout) * time.Second,
	}
}

func (k keepalive) readDeadline() time.Time {
	return time.Now().Add(k.interval + k.wait)
}

func (k keepalive) writeDeadline() time.Time {
	return time.Now().Add(k.wait)
}

func (s *subscriber) readLoop(k keepalive, limit int64) {
	defer func() {
		s.hub.detach(s)
		s.conn.Close()
	}()

	s.conn.SetReadLimit(limit)
	s.conn.SetReadDeadline(k.readDeadline()) //nolint:errcheck // read error surfaces below
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(k.readDeadline())
	})

	for {
		_, data, err := s.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				s.hub.logger.Warn("websocket read error", "person_id", s.person.ID, "error", err)
			}
			return
		}
		s.conn.SetReadDeadline(k.readDeadline()) //nolint:errcheck // read error surfaces on next read
		s.dispatch(data)
	}
}

func (s *subscriber) writeLoop(k keepalive) {
	ticker := time.NewTicker(k.interval)
	defer func() {
		ticker.Stop()
		s.conn.Close()
	}()

	for {
		select {
		case data, ok := <-s.outbox:
			s.conn.SetWriteDeadline(k.writeDeadline()) //nolint:errcheck // write error surfaces below
			if !ok {
				s.conn.WriteMessage(websocket.CloseMessage, nil) //nolint:errcheck // closing anyway
				return
			}
			if err := s.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				return
			}
		case <-ticker.C:
			s.conn.SetWriteDeadline(k.writeDeadline()) //nolint:errcheck // write error surfaces below
			if err := s.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// dispatch handles one inbound frame.
func (s *subscriber) dispatch(data []byte) {
	var f Frame
	if err := json.Unmarshal(data, &f); err != nil {
		s.reply("", FrameError, map[string]string{"message": "invalid JSON message"})
		return
	}

	switch f.Type {
	case FrameSubscribe:
		channels, ok := s.channelsOf(f)
		if !ok {
			return
		}
		granted, denied := s.hub.subscribe(s, channels)
		if len(denied) > 0 {
			s.hub.logger.Warn("websocket subscription denied", "person_id", s.person.ID, "channels", denied)
		}
		s.reply(f.ID, FrameResponse, map[string][]string{"subscribed": granted, "denied": denied})

	case FrameUnsubscribe:
		channels, ok := s.channelsOf(f)
		if !ok {
			return
		}
		s.hub.unsubscribe(s, channels)
		s.reply(f.ID, FrameResponse, map[string][]string{"unsubscribed": channels})

	case FramePing:
		s.reply(f.ID, FramePong, nil)

	default:
		s.reply(f.ID, FrameError, map[string]string{"message": "unknown message type: " + f.Type})
	}
}

func (s *subscriber) channelsOf(f Frame) ([]string, bool) {
	var p ChannelsPayload
	if len(f.Payload) == 0 || json.Unmarshal(f.Payload, &p) != nil {
		s.reply(f.ID, FrameError, map[string]string{"message": "invalid " + f.Type + " payload"})
		return nil, false
	}
	return p.Channels, true
}

func (s *subscriber) reply(id, typ string, payload any) {
	data, err := encodeFrame(typ, id, "", payload)
	if err != nil {
		return
	}
	s.enqueue(data)
}
