package device

import (
	"time"

	"github.com/Stainless-Nata/awesomation/internal/driver"
)

// Kind tags which variant payload a Device carries.
type Kind string

// Device kinds.
const (
	KindZWave  Kind = "zwave"
	KindSwitch Kind = "switch"
	KindNest   Kind = "nest"
)

// AllKinds returns every known device kind.
func AllKinds() []Kind {
	return []Kind{KindZWave, KindSwitch, KindNest}
}

// Device is a physical device owned by one building.
//
// Exactly one of ZWave, Switch or Nest is non-nil and it matches Kind.
// Owner never changes after creation. RoomID, when set, references a room
// of the same owner.
type Device struct {
	ID     string  `json:"id"`
	Owner  string  `json:"owner"`
	Name   string  `json:"name"`
	RoomID *string `json:"room_id,omitempty"`
	Kind   Kind    `json:"kind"`

	ZWave  *ZWave  `json:"zwave,omitempty"`
	Switch *Switch `json:"switch,omitempty"`
	Nest   *Nest   `json:"nest,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"last_update"`
}

// AttributeValue is one protocol-reported value, keyed on the device by
// (CommandClass, Index).
type AttributeValue struct {
	CommandClass string `json:"command_class"`
	Index        int    `json:"index"`
	Value        any    `json:"value"`
	ReadOnly     bool   `json:"read_only"`
	Units        string `json:"units,omitempty"`
	Genre        string `json:"genre,omitempty"`
	Label        string `json:"label,omitempty"`
	ValueID      uint64 `json:"value_id"`
	Type         string `json:"type,omitempty"`
}

// ZWave is the state of a Z-Wave mesh node.
type ZWave struct {
	HomeID int64  `json:"home_id,omitempty"`
	NodeID *int64 `json:"node_id,omitempty"`

	NodeType         string `json:"node_type,omitempty"`
	NodeName         string `json:"node_name,omitempty"`
	ManufacturerName string `json:"manufacturer_name,omitempty"`
	ManufacturerID   string `json:"manufacturer_id,omitempty"`
	ProductName      string `json:"product_name,omitempty"`
	ProductType      string `json:"product_type,omitempty"`
	ProductID        string `json:"product_id,omitempty"`

	Values []AttributeValue `json:"values,omitempty"`

	// State is the last switched state, when the device can be switched.
	State *bool `json:"state,omitempty"`
}

// DriverKey returns the product fingerprint used to resolve the driver.
func (z *ZWave) DriverKey() driver.Key {
	return driver.Key{
		ManufacturerID: z.ManufacturerID,
		ProductType:    z.ProductType,
		ProductID:      z.ProductID,
	}
}

// Value returns the attribute stored under (commandClass, index).
func (z *ZWave) Value(commandClass string, index int) (AttributeValue, bool) {
	for _, v := range z.Values {
		if v.CommandClass == commandClass && v.Index == index {
			return v, true
		}
	}
	return AttributeValue{}, false
}

// Upsert stores v, replacing any attribute with the same (CommandClass,
// Index). It reports whether v was appended as a new attribute.
func (z *ZWave) Upsert(v AttributeValue) bool {
	for i := range z.Values {
		if z.Values[i].CommandClass == v.CommandClass && z.Values[i].Index == v.Index {
			z.Values[i] = v
			return false
		}
	}
	z.Values = append(z.Values, v)
	return true
}

// Switch is a plain on/off switch.
type Switch struct {
	On bool `json:"on"`
}

// Nest is a thermostat discovered through a linked Nest account.
type Nest struct {
	ExternalID          string   `json:"external_id"`
	AccountID           string   `json:"account_id"`
	Online              bool     `json:"online"`
	AmbientTemperatureC *float64 `json:"ambient_temperature_c,omitempty"`
	TargetTemperatureC  *float64 `json:"target_temperature_c,omitempty"`
}

// New returns a device of kind with an empty variant payload.
func New(owner string, kind Kind, name string) (*Device, error) {
	d := &Device{Owner: owner, Kind: kind, Name: name}
	switch kind {
	case KindZWave:
		d.ZWave = &ZWave{}
	case KindSwitch:
		d.Switch = &Switch{}
	case KindNest:
		d.Nest = &Nest{}
	default:
		return nil, ErrInvalidKind
	}
	return d, nil
}

// InRoom reports whether the device is placed in roomID.
func (d *Device) InRoom(roomID string) bool {
	return d.RoomID != nil && *d.RoomID == roomID
}

// DeepCopy creates a complete independent copy of the Device.
// Variant payloads and attribute values are cloned so modifications to the
// copy do not affect the original. This is essential for cache isolation.
func (d *Device) DeepCopy() *Device {
	if d == nil {
		return nil
	}

	cpy := *d

	if d.RoomID != nil {
		room := *d.RoomID
		cpy.RoomID = &room
	}

	if d.ZWave != nil {
		z := *d.ZWave
		if d.ZWave.NodeID != nil {
			node := *d.ZWave.NodeID
			z.NodeID = &node
		}
		if d.ZWave.State != nil {
			state := *d.ZWave.State
			z.State = &state
		}
		if d.ZWave.Values != nil {
			z.Values = make([]AttributeValue, len(d.ZWave.Values))
			for i, v := range d.ZWave.Values {
				v.Value = deepCopyValue(v.Value)
				z.Values[i] = v
			}
		}
		cpy.ZWave = &z
	}

	if d.Switch != nil {
		s := *d.Switch
		cpy.Switch = &s
	}

	if d.Nest != nil {
		n := *d.Nest
		if d.Nest.AmbientTemperatureC != nil {
			t := *d.Nest.AmbientTemperatureC
			n.AmbientTemperatureC = &t
		}
		if d.Nest.TargetTemperatureC != nil {
			t := *d.Nest.TargetTemperatureC
			n.TargetTemperatureC = &t
		}
		cpy.Nest = &n
	}

	return &cpy
}

// deepCopyMap creates a deep copy of a map[string]any.
func deepCopyMap(m map[string]any) map[string]any {
	if m == nil {
		return nil
	}
	cpy := make(map[string]any, len(m))
	for k, v := range m {
		cpy[k] = deepCopyValue(v)
	}
	return cpy
}

// deepCopyValue recursively copies a decoded JSON value.
func deepCopyValue(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return deepCopyMap(val)
	case []any:
		cpy := make([]any, len(val))
		for i, elem := range val {
			cpy[i] = deepCopyValue(elem)
		}
		return cpy
	default:
		return v
	}
}
