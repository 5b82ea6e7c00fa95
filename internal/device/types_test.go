package device

import (
	"errors"
	"testing"
)

func TestZWave_UpsertIsIdempotent(t *testing.T) {
	z := &ZWave{}

	if created := z.Upsert(AttributeValue{CommandClass: "COMMAND_CLASS_SENSOR_BINARY", Index: 0, Value: false}); !created {
		t.Error("first upsert should append")
	}
	if created := z.Upsert(AttributeValue{CommandClass: "COMMAND_CLASS_SENSOR_BINARY", Index: 0, Value: true}); created {
		t.Error("second upsert with same key should update in place")
	}

	if len(z.Values) != 1 {
		t.Fatalf("len(Values) = %d, want 1", len(z.Values))
	}
	if z.Values[0].Value != true {
		t.Errorf("Value = %v, want true (last write wins)", z.Values[0].Value)
	}
}

func TestZWave_UpsertDistinctKeys(t *testing.T) {
	z := &ZWave{}
	z.Upsert(AttributeValue{CommandClass: "COMMAND_CLASS_SENSOR_MULTILEVEL", Index: 1, Value: 21.5})
	z.Upsert(AttributeValue{CommandClass: "COMMAND_CLASS_SENSOR_MULTILEVEL", Index: 3, Value: 120.0})
	z.Upsert(AttributeValue{CommandClass: "COMMAND_CLASS_SWITCH_BINARY", Index: 1, Value: true})

	if len(z.Values) != 3 {
		t.Fatalf("len(Values) = %d, want 3", len(z.Values))
	}

	v, ok := z.Value("COMMAND_CLASS_SENSOR_MULTILEVEL", 3)
	if !ok || v.Value != 120.0 {
		t.Errorf("Value(multilevel, 3) = %v, %v", v.Value, ok)
	}
	if _, ok := z.Value("COMMAND_CLASS_SENSOR_MULTILEVEL", 2); ok {
		t.Error("Value() found an attribute that was never stored")
	}
}

func TestZWave_DriverKey(t *testing.T) {
	z := &ZWave{ManufacturerID: "0x0086", ProductType: "0x0003", ProductID: "0x0060"}
	if got := z.DriverKey().String(); got != "0x0086-0x0003-0x0060" {
		t.Errorf("DriverKey() = %q", got)
	}
}

func TestNew(t *testing.T) {
	tests := []struct {
		kind    Kind
		wantErr error
	}{
		{KindZWave, nil},
		{KindSwitch, nil},
		{KindNest, nil},
		{Kind("toaster"), ErrInvalidKind},
	}
	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			d, err := New("b1", tt.kind, "x")
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("New() error = %v, want %v", err, tt.wantErr)
			}
			if err == nil {
				if vErr := ValidateDevice(d); vErr != nil {
					t.Errorf("new device fails validation: %v", vErr)
				}
			}
		})
	}
}

func TestValidateDevice(t *testing.T) {
	tests := []struct {
		name    string
		device  *Device
		wantErr error
	}{
		{"nil", nil, ErrInvalidDevice},
		{"no owner", &Device{Kind: KindSwitch, Switch: &Switch{}}, ErrInvalidDevice},
		{"kind mismatch", &Device{Owner: "b1", Kind: KindZWave, Switch: &Switch{}}, ErrInvalidKind},
		{"two variants", &Device{Owner: "b1", Kind: KindZWave, ZWave: &ZWave{}, Switch: &Switch{}}, ErrInvalidKind},
		{"no variant", &Device{Owner: "b1", Kind: KindSwitch}, ErrInvalidKind},
		{"valid", &Device{Owner: "b1", Kind: KindSwitch, Switch: &Switch{}}, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if err := ValidateDevice(tt.device); !errors.Is(err, tt.wantErr) {
				t.Errorf("ValidateDevice() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDevice_DeepCopy(t *testing.T) {
	room := "r1"
	node := int64(5)
	on := true
	orig := &Device{
		ID:     "d1",
		Owner:  "b1",
		RoomID: &room,
		Kind:   KindZWave,
		ZWave: &ZWave{
			NodeID: &node,
			State:  &on,
			Values: []AttributeValue{{CommandClass: "X", Index: 0, Value: map[string]any{"a": []any{1.0}}}},
		},
	}

	cpy := orig.DeepCopy()
	*cpy.RoomID = "r2"
	*cpy.ZWave.NodeID = 9
	*cpy.ZWave.State = false
	cpy.ZWave.Values[0].Value.(map[string]any)["a"].([]any)[0] = 2.0
	cpy.ZWave.Upsert(AttributeValue{CommandClass: "Y"})

	if *orig.RoomID != "r1" {
		t.Error("RoomID shared with copy")
	}
	if *orig.ZWave.NodeID != 5 || !*orig.ZWave.State {
		t.Error("ZWave pointers shared with copy")
	}
	if orig.ZWave.Values[0].Value.(map[string]any)["a"].([]any)[0] != 1.0 {
		t.Error("attribute value shared with copy")
	}
	if len(orig.ZWave.Values) != 1 {
		t.Error("Values slice shared with copy")
	}
	if (*Device)(nil).DeepCopy() != nil {
		t.Error("DeepCopy(nil) should be nil")
	}
}
