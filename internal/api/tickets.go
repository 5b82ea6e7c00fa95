package api

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"
)

const (
	// ticketBytes is the number of random bytes in a WebSocket ticket.
	ticketBytes = 32

	defaultTicketTTL = 60 * time.Second
)

// ticketStore holds single-use WebSocket tickets mapped to person IDs.
type ticketStore struct {
	cache *ttlcache.Cache[string, string]
	ttl   time.Duration
	mu    sync.Mutex
}

func newTicketStore(ttl time.Duration) *ticketStore {
	if ttl <= 0 {
		ttl = defaultTicketTTL
	}
	return &ticketStore{
		cache: ttlcache.New(
			ttlcache.WithTTL[string, string](ttl),
		),
		ttl: ttl,
	}
}

// run evicts expired tickets until ctx is cancelled.
func (t *ticketStore) run(ctx context.Context) {
	go t.cache.Start()
	<-ctx.Done()
	t.cache.Stop()
}

// issue returns a fresh ticket for personID.
func (t *ticketStore) issue(personID string) (string, error) {
	b := make([]byte, ticketBytes)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	ticket := hex.EncodeToString(b)
	t.cache.Set(ticket, personID, t.ttl)
	return ticket, nil
}

// redeem consumes ticket and returns the person it was issued to.
func (t *ticketStore) redeem(ticket string) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	item := t.cache.Get(ticket)
	if item == nil || item.IsExpired() {
		return "", false
	}
	t.cache.Delete(ticket)
	return item.Value(), true
}

// handleWSTicket issues a single-use ticket for GET /ws.
func (s *Server) handleWSTicket(w http.ResponseWriter, r *http.Request) {
	person := personFromContext(r.Context())
	ticket, err := s.tickets.issue(person.ID)
	if err != nil {
		writeInternalError(w, "failed to generate ticket")
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"ticket":     ticket,
		"expires_in": int(s.tickets.ttl / time.Second),
	})
}
