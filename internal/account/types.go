package account

import (
	"context"
	"net/http"
	"sort"
	"sync"
	"time"

	"golang.org/x/oauth2"
)

// Link is one OAuth2 connection between a building and a provider account.
// The ID doubles as the OAuth state parameter of the flow that created it.
type Link struct {
	ID           string     `json:"id"`
	Owner        string     `json:"owner"`
	Type         string     `json:"type"`
	AuthCode     string     `json:"-"`
	AccessToken  string     `json:"-"`
	Expires      *time.Time `json:"expires,omitempty"`
	RefreshToken string     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"last_update"`
}

// Linked reports whether the link has completed the token exchange.
func (l *Link) Linked() bool {
	return l.AccessToken != ""
}

// Token returns the link's credentials in oauth2 form.
func (l *Link) Token() *oauth2.Token {
	tok := &oauth2.Token{
		AccessToken:  l.AccessToken,
		RefreshToken: l.RefreshToken,
		TokenType:    "Bearer",
	}
	if l.Expires != nil {
		tok.Expiry = *l.Expires
	}
	return tok
}

// applyToken stores the result of a token exchange. A missing refresh token
// keeps the one already held.
func (l *Link) applyToken(tok *oauth2.Token) {
	l.AccessToken = tok.AccessToken
	if tok.RefreshToken != "" {
		l.RefreshToken = tok.RefreshToken
	}
	l.Expires = nil
	if !tok.Expiry.IsZero() {
		expiry := tok.Expiry.UTC()
		l.Expires = &expiry
	}
}

// Type is a provider the hub can link accounts with.
type Type interface {
	// Name is the value of the start_flow type parameter.
	Name() string

	// OAuth2 returns the client configuration used for the flow.
	OAuth2() *oauth2.Config

	// RefreshDevices discovers the provider's devices for a linked account.
	// client carries the link's credentials.
	RefreshDevices(ctx context.Context, link *Link, client *http.Client) error
}

// Types holds the account types enabled at startup.
//
// Thread Safety:
//   - All methods are safe for concurrent use.
type Types struct {
	mu    sync.RWMutex
	types map[string]Type
}

// NewTypes creates an empty account type registry.
func NewTypes() *Types {
	return &Types{types: make(map[string]Type)}
}

// Register adds t, replacing any type of the same name.
func (r *Types) Register(t Type) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.types[t.Name()] = t
}

// Get returns the type called name.
func (r *Types) Get(name string) (Type, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.types[name]
	return t, ok
}

// Names lists the registered type names in order.
func (r *Types) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	names := make([]string, 0, len(r.types))
	for name := range r.types {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
