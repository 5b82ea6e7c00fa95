package location

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

const maxNameLength = 100

// ValidateName checks if a room name is valid.
func ValidateName(name string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrInvalidName)
	}
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: name exceeds %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidateRoom checks a room before it is stored.
func ValidateRoom(r *Room) error {
	if r == nil {
		return ErrInvalidRoom
	}
	if r.Owner == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidRoom)
	}
	return ValidateName(r.Name)
}

// GenerateID returns a new room ID.
func GenerateID() string {
	return uuid.New().String()
}
