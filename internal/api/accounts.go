package api

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Stainless-Nata/awesomation/internal/account"
	"github.com/Stainless-Nata/awesomation/internal/push"
)

// handleAccountStart begins an OAuth flow and redirects to the provider.
func (s *Server) handleAccountStart(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		s.writeDomainError(w, r, account.ErrUnknownAccountType)
		return
	}

	var redirect string
	err := s.unitOfWork(r, func(ctx context.Context) error {
		var err error
		redirect, _, err = s.accounts.Start(ctx, buildingFromContext(ctx), r.URL.Query().Get("type"))
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	http.Redirect(w, r, redirect, http.StatusFound)
}

// handleAccountRedirect completes an OAuth flow. The provider calls it
// without credentials; the state parameter names the link, and push events
// go to the link owner's channel.
func (s *Server) handleAccountRedirect(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		s.writeDomainError(w, r, account.ErrLinkNotFound)
		return
	}

	q := r.URL.Query()
	batch := push.NewBatch()
	link, err := s.accounts.Callback(push.NewContext(r.Context(), batch), q.Get("code"), q.Get("state"))
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	if err := s.fanout.Flush(r.Context(), link.Owner, batch); err != nil {
		s.writeDomainError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK")) //nolint:errcheck // best-effort body
}

// handleListAccounts returns the account links of the request's building.
func (s *Server) handleListAccounts(w http.ResponseWriter, r *http.Request) {
	links := []account.Link{}
	if s.accounts != nil {
		found, err := s.accounts.List(r.Context(), buildingFromContext(r.Context()))
		if err != nil {
			s.writeDomainError(w, r, err)
			return
		}
		if found != nil {
			links = found
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"accounts": links,
		"count":    len(links),
	})
}

// handleAccountCommand runs refresh_access_token or refresh_devices.
func (s *Server) handleAccountCommand(w http.ResponseWriter, r *http.Request) {
	if s.accounts == nil {
		s.writeDomainError(w, r, account.ErrLinkNotFound)
		return
	}
	env, ok := s.readEnvelope(w, r)
	if !ok {
		return
	}

	id := chi.URLParam(r, "id")
	var link *account.Link
	err := s.unitOfWork(r, func(ctx context.Context) error {
		var err error
		link, err = s.accounts.Dispatch(ctx, buildingFromContext(ctx), id, env)
		return err
	})
	if err != nil {
		s.writeDomainError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, link)
}
