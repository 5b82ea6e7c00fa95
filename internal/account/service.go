package account

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"

	"github.com/Stainless-Nata/awesomation/internal/command"
	"github.com/Stainless-Nata/awesomation/internal/push"
)

const defaultTimeout = 10 * time.Second

// Account command names.
const (
	CommandRefreshAccessToken = "refresh_access_token"
	CommandRefreshDevices     = "refresh_devices"
)

// Push event class and names for account links.
const (
	EventClass  = "account"
	EventUpdate = "update"
)

// Event is the push payload describing a changed link.
type Event struct {
	Class string `json:"class"`
	Event string `json:"event"`
	ID    string `json:"id"`
	Obj   *Link  `json:"obj,omitempty"`
}

// Logger defines the logging interface used by the Service.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Service drives the OAuth2 link flow:
//
//	Start     -> link created, user redirected to the provider with state = link id
//	Callback  -> code exchanged for tokens, devices discovered
//	Refresh   -> tokens renewed from the refresh token
type Service struct {
	repo   Repository
	types  *Types
	client *http.Client
	logger Logger
}

// NewService creates a Service. Provider calls time out after timeout;
// zero selects a default.
func NewService(repo Repository, types *Types, timeout time.Duration) *Service {
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	return &Service{
		repo:   repo,
		types:  types,
		client: &http.Client{Timeout: timeout},
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the service.
func (s *Service) SetLogger(logger Logger) {
	s.logger = logger
}

// Types returns the account types the service can link.
func (s *Service) Types() *Types {
	return s.types
}

// Start begins a flow for owner and returns the provider URL to redirect to.
func (s *Service) Start(ctx context.Context, owner, typeName string) (string, *Link, error) {
	if typeName == "" {
		return "", nil, fmt.Errorf("%w: type is required", ErrInvalidRequest)
	}
	t, ok := s.types.Get(typeName)
	if !ok {
		return "", nil, fmt.Errorf("%w: %q", ErrUnknownAccountType, typeName)
	}

	link := &Link{ID: uuid.NewString(), Owner: owner, Type: typeName}
	if err := s.repo.Create(ctx, link); err != nil {
		return "", nil, err
	}

	s.logger.Info("account flow started", "link_id", link.ID, "type", typeName, "owner", owner)
	return t.OAuth2().AuthCodeURL(link.ID), link, nil
}

// Callback completes a flow. Nothing is stored when the exchange fails.
// Device discovery failures are logged; the link stays valid.
func (s *Service) Callback(ctx context.Context, code, state string) (*Link, error) {
	if code == "" || state == "" {
		return nil, fmt.Errorf("%w: code and state are required", ErrInvalidRequest)
	}

	link, err := s.repo.Get(ctx, state)
	if err != nil {
		if errors.Is(err, ErrLinkNotFound) {
			s.logger.Warn("account callback for unknown state", "state", state)
		}
		return nil, err
	}
	t, ok := s.types.Get(link.Type)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAccountType, link.Type)
	}

	tok, err := t.OAuth2().Exchange(s.httpContext(ctx), code)
	if err != nil {
		s.logger.Error("token exchange failed", "link_id", link.ID, "type", link.Type, "error", err)
		return nil, fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	link.AuthCode = code
	link.applyToken(tok)
	if err := s.save(ctx, link); err != nil {
		return nil, err
	}
	s.logger.Info("account linked", "link_id", link.ID, "type", link.Type, "owner", link.Owner)

	if err := s.refreshDevices(ctx, t, link); err != nil {
		s.logger.Warn("device discovery failed", "link_id", link.ID, "error", err)
	}
	return link, nil
}

// Refresh renews the access token of the link with id.
func (s *Service) Refresh(ctx context.Context, id string) (*Link, error) {
	link, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return link, s.refresh(ctx, link)
}

// Get returns the link with id if it belongs to owner.
func (s *Service) Get(ctx context.Context, owner, id string) (*Link, error) {
	link, err := s.repo.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if link.Owner != owner {
		return nil, ErrLinkNotFound
	}
	return link, nil
}

// List returns the links of owner.
func (s *Service) List(ctx context.Context, owner string) ([]Link, error) {
	return s.repo.ListByOwner(ctx, owner)
}

// Dispatch runs an account command against the link with id.
func (s *Service) Dispatch(ctx context.Context, owner, id string, env command.Envelope) (*Link, error) {
	link, err := s.Get(ctx, owner, id)
	if err != nil {
		return nil, err
	}
	if err := env.Decode(&struct{}{}); err != nil {
		return nil, err
	}

	switch env.Name {
	case CommandRefreshAccessToken:
		return link, s.refresh(ctx, link)
	case CommandRefreshDevices:
		t, ok := s.types.Get(link.Type)
		if !ok {
			return nil, fmt.Errorf("%w: %q", ErrUnknownAccountType, link.Type)
		}
		return link, s.refreshDevices(ctx, t, link)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownCommand, env.Name)
	}
}

func (s *Service) refresh(ctx context.Context, link *Link) error {
	if link.RefreshToken == "" {
		return fmt.Errorf("%w: %s", ErrNotLinked, link.ID)
	}
	t, ok := s.types.Get(link.Type)
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownAccountType, link.Type)
	}

	// An empty access token forces the source to use the refresh grant.
	src := t.OAuth2().TokenSource(s.httpContext(ctx), &oauth2.Token{RefreshToken: link.RefreshToken})
	tok, err := src.Token()
	if err != nil {
		s.logger.Error("token refresh failed", "link_id", link.ID, "type", link.Type, "error", err)
		return fmt.Errorf("%w: %w", ErrExchangeFailed, err)
	}

	link.applyToken(tok)
	if err := s.save(ctx, link); err != nil {
		return err
	}
	s.logger.Info("access token refreshed", "link_id", link.ID)
	return nil
}

func (s *Service) refreshDevices(ctx context.Context, t Type, link *Link) error {
	if !link.Linked() {
		return fmt.Errorf("%w: %s", ErrNotLinked, link.ID)
	}
	client := oauth2.NewClient(s.httpContext(ctx), oauth2.StaticTokenSource(link.Token()))
	client.Timeout = s.client.Timeout
	return t.RefreshDevices(ctx, link, client)
}

func (s *Service) save(ctx context.Context, link *Link) error {
	if err := s.repo.Update(ctx, link); err != nil {
		return err
	}
	obj := *link
	push.Emit(ctx, link.Owner, Event{Class: EventClass, Event: EventUpdate, ID: link.ID, Obj: &obj})
	return nil
}

// httpContext routes oauth2 token calls through the service's client.
func (s *Service) httpContext(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, s.client)
}
