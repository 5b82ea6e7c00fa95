package device

import (
	"encoding/json"
	"fmt"
)

// encodeState serialises the variant payload selected by Kind.
func encodeState(d *Device) ([]byte, error) {
	var payload any
	switch d.Kind {
	case KindZWave:
		payload = d.ZWave
	case KindSwitch:
		payload = d.Switch
	case KindNest:
		payload = d.Nest
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidKind, d.Kind)
	}
	return json.Marshal(payload)
}

// decodeState fills the variant payload for kind from its stored JSON.
func decodeState(d *Device, kind Kind, raw []byte) error {
	d.Kind = kind
	switch kind {
	case KindZWave:
		d.ZWave = &ZWave{}
		return json.Unmarshal(raw, d.ZWave)
	case KindSwitch:
		d.Switch = &Switch{}
		return json.Unmarshal(raw, d.Switch)
	case KindNest:
		d.Nest = &Nest{}
		return json.Unmarshal(raw, d.Nest)
	default:
		return fmt.Errorf("%w: %q", ErrInvalidKind, kind)
	}
}
