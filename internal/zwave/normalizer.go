package zwave

import (
	"context"
	"fmt"
	"time"

	"github.com/kr/pretty"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/influxdb"
)

// Logger defines the logging interface used by the Normalizer.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Lights switches the lights of the room a sensor is placed in.
type Lights interface {
	Lights(ctx context.Context, sensor *device.Device, on bool) error
}

// Telemetry records numeric readings. *influxdb.Client implements it.
type Telemetry interface {
	WriteZWaveValue(v influxdb.ZWaveValue)
}

// Normalizer folds mesh notifications into Z-Wave device state.
//
// Notifications arrive as an unordered stream; attribute upserts keyed on
// (command class, index) make applying them idempotent, and later
// notifications overwrite earlier ones.
type Normalizer struct {
	lights    Lights
	telemetry Telemetry
	logger    Logger
	now       func() time.Time
}

// NewNormalizer creates a Normalizer. lights may be nil, in which case
// binary sensor changes switch nothing.
func NewNormalizer(lights Lights) *Normalizer {
	return &Normalizer{lights: lights, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger for the normalizer.
func (n *Normalizer) SetLogger(logger Logger) {
	n.logger = logger
}

// SetTelemetry enables recording of numeric readings.
func (n *Normalizer) SetTelemetry(t Telemetry) {
	n.telemetry = t
}

// Apply folds note into d. The caller persists d afterwards.
//
// Unknown notification types are logged and ignored.
func (n *Normalizer) Apply(ctx context.Context, d *device.Device, note Notification) error {
	if d.ZWave == nil {
		return ErrNotZWave
	}
	z := d.ZWave

	var attr device.AttributeValue
	isValue := note.Type == TypeValueAdded || note.Type == TypeValueChanged
	if isValue {
		if note.Value == nil {
			return fmt.Errorf("%w: %s without valueId", ErrInvalidNotification, note.Type)
		}
		prev, _ := z.Value(note.Value.CommandClass, note.Value.Index)
		if note.Type == TypeValueAdded {
			prev = device.AttributeValue{}
		}
		var err error
		if attr, err = mergeAttribute(prev, note.Value); err != nil {
			return err
		}
	}

	if note.HomeID != nil {
		z.HomeID = *note.HomeID
	}
	if note.NodeID != nil {
		node := *note.NodeID
		z.NodeID = &node
	}

	switch {
	case isValue:
		z.Upsert(attr)
		n.logger.Debug("zwave value stored",
			"device_id", d.ID, "node_id", z.NodeID, "command_class", attr.CommandClass, "index", attr.Index)
		n.record(d, attr)

		if attr.CommandClass == CommandClassSensorBinary && n.lights != nil {
			if err := n.lights.Lights(ctx, d, coerceBool(attr.Value)); err != nil {
				return fmt.Errorf("switching room lights: %w", err)
			}
		}

	case note.Type == TypeNodeInfoUpdate:
		z.NodeType = note.NodeType
		z.NodeName = note.NodeName
		z.ManufacturerName = note.ManufacturerName
		z.ManufacturerID = note.ManufacturerID
		z.ProductName = note.ProductName
		z.ProductType = note.ProductType
		z.ProductID = note.ProductID
		n.logger.Info("zwave node info updated", "device_id", d.ID, "driver_key", z.DriverKey().String())

	default:
		n.logger.Debug("ignoring zwave notification", "device_id", d.ID, "type", note.Type, "dump", pretty.Sprint(note))
	}
	return nil
}

// mergeAttribute strips the addressing fields from v and lays the fields v
// carries over prev. A ValueChanged usually carries little more than the new
// value, so the metadata of the stored attribute survives it.
func mergeAttribute(prev device.AttributeValue, v *ValueID) (device.AttributeValue, error) {
	attr := prev
	attr.CommandClass = v.CommandClass
	attr.Index = v.Index
	attr.Value = v.Value

	if v.ID != "" {
		id, err := v.valueID()
		if err != nil {
			return device.AttributeValue{}, err
		}
		attr.ValueID = id
	}
	if v.ReadOnly != nil {
		attr.ReadOnly = *v.ReadOnly
	}
	if v.Units != "" {
		attr.Units = v.Units
	}
	if v.Genre != "" {
		attr.Genre = v.Genre
	}
	if v.Label != "" {
		attr.Label = v.Label
	}
	if v.Type != "" {
		attr.Type = v.Type
	}
	return attr, nil
}

func (n *Normalizer) record(d *device.Device, attr device.AttributeValue) {
	if n.telemetry == nil {
		return
	}
	value, ok := numeric(attr.Value)
	if !ok {
		return
	}
	n.telemetry.WriteZWaveValue(influxdb.ZWaveValue{
		Building:     d.Owner,
		DeviceID:     d.ID,
		CommandClass: attr.CommandClass,
		Index:        attr.Index,
		Label:        attr.Label,
		Units:        attr.Units,
		Value:        value,
		Time:         n.now(),
	})
}
