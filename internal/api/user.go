package api

import (
	"net/http"
)

// handleGetUser returns the authenticated person.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, personFromContext(r.Context()))
}

// handleChannelAuth grants a hosted push client access to a private
// channel. Parameters arrive form-encoded as socket_id and channel_name.
func (s *Server) handleChannelAuth(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseForm(); err != nil {
		writeBadRequest(w, "invalid form body")
		return
	}
	socketID := r.PostForm.Get("socket_id")
	channel := r.PostForm.Get("channel_name")
	if socketID == "" || channel == "" {
		writeBadRequest(w, "socket_id and channel_name are required")
		return
	}

	grant, err := s.authorizer.Authorize(personFromContext(r.Context()), socketID, channel)
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, grant)
}
