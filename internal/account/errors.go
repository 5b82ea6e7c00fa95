package account

import "errors"

// Domain errors for account linking.
var (
	// ErrUnknownAccountType is returned when no account type has the requested name.
	ErrUnknownAccountType = errors.New("account: unknown account type")

	// ErrInvalidRequest is returned when a flow step is missing a required parameter.
	ErrInvalidRequest = errors.New("account: invalid request")

	// ErrLinkNotFound is returned when no link matches the id or OAuth state.
	ErrLinkNotFound = errors.New("account: link not found")

	// ErrExchangeFailed is returned when the provider rejects a token exchange.
	ErrExchangeFailed = errors.New("account: token exchange failed")

	// ErrUnknownCommand is returned for account commands that do not exist.
	ErrUnknownCommand = errors.New("account: unknown command")

	// ErrNotLinked is returned when a link has no tokens yet.
	ErrNotLinked = errors.New("account: link has no tokens")
)
