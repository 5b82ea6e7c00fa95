package push

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Member is an identity that belongs to a set of buildings. MemberOf must
// report false on a nil receiver.
type Member interface {
	MemberOf(building string) bool
}

// Authorizer grants private channel subscriptions.
//
// Grants use the Pusher private-channel signature:
// "<key>:" + hex(HMAC-SHA256(secret, "<socketID>:<channel>")).
type Authorizer struct {
	key    string
	secret []byte
}

// NewAuthorizer creates an Authorizer signing with key and secret.
func NewAuthorizer(key, secret string) *Authorizer {
	return &Authorizer{key: key, secret: []byte(secret)}
}

// Check reports whether m may subscribe to channel.
func (a *Authorizer) Check(m Member, channel string) error {
	building, err := ParseChannel(channel)
	if err != nil {
		return err
	}
	if m == nil || !m.MemberOf(building) {
		return fmt.Errorf("%w: %s", ErrChannelForbidden, channel)
	}
	return nil
}

// Authorize checks membership and returns the signed grant for socketID.
func (a *Authorizer) Authorize(m Member, socketID, channel string) (map[string]string, error) {
	if err := a.Check(m, channel); err != nil {
		return nil, err
	}
	return map[string]string{"auth": a.key + ":" + a.sign(socketID+":"+channel)}, nil
}

func (a *Authorizer) sign(msg string) string {
	mac := hmac.New(sha256.New, a.secret)
	mac.Write([]byte(msg))
	return hex.EncodeToString(mac.Sum(nil))
}
