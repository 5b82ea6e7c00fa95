package push

import (
	"fmt"
	"strings"
)

// ChannelPrefix marks channels that require authorization.
const ChannelPrefix = "private-"

// ChannelName returns the push channel for building.
func ChannelName(building string) string {
	return ChannelPrefix + building
}

// ParseChannel extracts the building from a private-<building> channel name.
func ParseChannel(name string) (string, error) {
	building, ok := strings.CutPrefix(name, ChannelPrefix)
	if !ok || building == "" {
		return "", fmt.Errorf("%w: %q", ErrInvalidChannel, name)
	}
	return building, nil
}
