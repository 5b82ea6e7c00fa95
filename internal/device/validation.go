package device

import (
	"fmt"

	"github.com/google/uuid"
)

const maxNameLength = 100

// ValidateDevice checks identity and that exactly the variant named by Kind
// is populated.
func ValidateDevice(d *Device) error {
	if d == nil {
		return ErrInvalidDevice
	}
	if d.Owner == "" {
		return fmt.Errorf("%w: owner is required", ErrInvalidDevice)
	}
	if err := ValidateName(d.Name); err != nil {
		return err
	}
	return validateVariant(d)
}

// ValidateName checks the display name. Names are optional.
func ValidateName(name string) error {
	if len(name) > maxNameLength {
		return fmt.Errorf("%w: must be at most %d characters", ErrInvalidName, maxNameLength)
	}
	return nil
}

// ValidKind reports whether k is a known kind.
func ValidKind(k Kind) bool {
	for _, known := range AllKinds() {
		if k == known {
			return true
		}
	}
	return false
}

func validateVariant(d *Device) error {
	set := 0
	for _, populated := range []bool{d.ZWave != nil, d.Switch != nil, d.Nest != nil} {
		if populated {
			set++
		}
	}
	if set != 1 {
		return fmt.Errorf("%w: exactly one variant must be set, got %d", ErrInvalidKind, set)
	}

	var ok bool
	switch d.Kind {
	case KindZWave:
		ok = d.ZWave != nil
	case KindSwitch:
		ok = d.Switch != nil
	case KindNest:
		ok = d.Nest != nil
	}
	if !ok {
		return fmt.Errorf("%w: %q does not match variant", ErrInvalidKind, d.Kind)
	}
	return nil
}

// GenerateID returns a new device ID.
func GenerateID() string {
	return uuid.New().String()
}
