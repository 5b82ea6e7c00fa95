package api

import (
	"encoding/json"
	"net/http"

	"github.com/Stainless-Nata/awesomation/internal/proxy"
)

// handleProxyEvent ingests a notification posted by a proxy process. The
// gateway runs its own unit of work for the request's building.
func (s *Server) handleProxyEvent(w http.ResponseWriter, r *http.Request) {
	if s.gateway == nil {
		writeError(w, http.StatusNotFound, ErrCodeNotFound, "proxy ingest is disabled")
		return
	}

	var ev proxy.Event
	if err := json.NewDecoder(r.Body).Decode(&ev); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if err := s.gateway.Ingest(r.Context(), buildingFromContext(r.Context()), ev); err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
