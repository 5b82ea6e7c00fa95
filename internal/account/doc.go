// Package account links third-party device-cloud accounts over OAuth2.
//
// A link is created by Start, whose id is the OAuth state sent to the
// provider. The provider redirects back to Callback with a code, which is
// exchanged for tokens; the account's devices are then discovered and
// stored as hub devices. Refresh renews tokens from the refresh token.
//
// Account types are registered at startup from the accounts: config
// section. Nest is the only built-in type.
package account
