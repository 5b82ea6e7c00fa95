package location

import (
	"slices"
	"time"
)

// Room is a physical space in a building.
//
// DeviceIDs is an ordered set of device references. Membership does not
// own the devices: deleting a device does not guarantee its removal here.
type Room struct {
	ID         string    `json:"id"`
	Owner      string    `json:"owner"`
	Name       string    `json:"name"`
	DeviceIDs  []string  `json:"devices"`
	HueGroupID *string   `json:"hue_group_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
}

// HasDevice reports whether deviceID is a member of the room.
func (r *Room) HasDevice(deviceID string) bool {
	return slices.Contains(r.DeviceIDs, deviceID)
}
