package zwave

import (
	"encoding/json"
	"fmt"
	"strconv"
)

// Notification types the normalizer folds into device state.
const (
	TypeValueAdded     = "ValueAdded"
	TypeValueChanged   = "ValueChanged"
	TypeNodeInfoUpdate = "NodeInfoUpdate"
)

// CommandClassSensorBinary drives room lighting when it changes.
const CommandClassSensorBinary = "COMMAND_CLASS_SENSOR_BINARY"

// CommandClassSwitchBinary is used to switch plugs and relays.
const CommandClassSwitchBinary = "COMMAND_CLASS_SWITCH_BINARY"

// Notification is one raw event relayed from the mesh by a proxy.
type Notification struct {
	Type   string   `json:"notificationType"`
	HomeID *int64   `json:"homeId,omitempty"`
	NodeID *int64   `json:"nodeId,omitempty"`
	Value  *ValueID `json:"valueId,omitempty"`

	NodeType         string `json:"node_type,omitempty"`
	NodeName         string `json:"node_name,omitempty"`
	ManufacturerID   string `json:"manufacturer_id,omitempty"`
	ManufacturerName string `json:"manufacturer_name,omitempty"`
	ProductType      string `json:"product_type,omitempty"`
	ProductID        string `json:"product_id,omitempty"`
	ProductName      string `json:"product_name,omitempty"`
}

// ValueID is the value record carried by ValueAdded and ValueChanged.
type ValueID struct {
	CommandClass string      `json:"commandClass"`
	Index        int         `json:"index"`
	Instance     int         `json:"instance,omitempty"`
	HomeID       int64       `json:"homeId,omitempty"`
	NodeID       int64       `json:"nodeId,omitempty"`
	ID           json.Number `json:"id"`
	ReadOnly     *bool       `json:"readOnly,omitempty"`
	Genre        string      `json:"genre,omitempty"`
	Label        string      `json:"label,omitempty"`
	Type         string      `json:"type,omitempty"`
	Units        string      `json:"units,omitempty"`
	Value        any         `json:"value"`
}

// ParseNotification decodes a notification and checks that it names a type.
func ParseNotification(raw []byte) (Notification, error) {
	var n Notification
	if err := json.Unmarshal(raw, &n); err != nil {
		return Notification{}, fmt.Errorf("%w: %v", ErrInvalidNotification, err)
	}
	if n.Type == "" {
		return Notification{}, fmt.Errorf("%w: notificationType is required", ErrInvalidNotification)
	}
	return n, nil
}

// valueID parses the protocol-assigned value id. Ids are 64-bit and may be
// sent as JSON numbers or strings.
func (v *ValueID) valueID() (uint64, error) {
	if v.ID == "" {
		return 0, nil
	}
	id, err := strconv.ParseUint(v.ID.String(), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: value id %q", ErrInvalidNotification, v.ID)
	}
	return id, nil
}

// coerceBool interprets a reported value as on/off.
func coerceBool(v any) bool {
	switch val := v.(type) {
	case bool:
		return val
	case float64:
		return val != 0
	case json.Number:
		f, err := val.Float64()
		return err == nil && f != 0
	case string:
		switch val {
		case "true", "True", "on", "On", "1":
			return true
		}
	}
	return false
}

// numeric converts a reported value to a float for telemetry.
func numeric(v any) (float64, bool) {
	switch val := v.(type) {
	case float64:
		return val, true
	case bool:
		if val {
			return 1, true
		}
		return 0, true
	case json.Number:
		f, err := val.Float64()
		return f, err == nil
	}
	return 0, false
}
