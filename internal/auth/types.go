package auth

import (
	"errors"
	"slices"
	"time"
)

// Person is an identity that may act on one or more buildings.
type Person struct {
	ID        string    `json:"id"`
	Email     string    `json:"email,omitempty"`
	Buildings []string  `json:"buildings"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// MemberOf reports whether building is one of the person's buildings.
func (p *Person) MemberOf(building string) bool {
	return p != nil && slices.Contains(p.Buildings, building)
}

// Building picks the building a request acts on. An empty requested id
// selects the person's first building.
func (p *Person) Building(requested string) (string, error) {
	if requested == "" {
		if len(p.Buildings) == 0 {
			return "", ErrBuildingForbidden
		}
		return p.Buildings[0], nil
	}
	if !p.MemberOf(requested) {
		return "", ErrBuildingForbidden
	}
	return requested, nil
}

// Sentinel errors for auth operations.
var (
	ErrPersonNotFound    = errors.New("auth: person not found")
	ErrTokenInvalid      = errors.New("auth: invalid token")
	ErrBuildingForbidden = errors.New("auth: building not permitted")
)
