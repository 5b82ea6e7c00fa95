package command

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
	"github.com/Stainless-Nata/awesomation/internal/location"
	"github.com/Stainless-Nata/awesomation/internal/zwave"
)

// Logger defines the logging interface used by the Dispatcher.
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

// GroupLights switches a lighting group on an external bridge.
type GroupLights interface {
	SetGroupLights(ctx context.Context, groupID string, on bool) error
}

// Dispatcher routes command envelopes to device, kind and room handlers.
type Dispatcher struct {
	devices    *device.Registry
	rooms      *location.Registry
	drivers    *driver.Registry
	mesh       zwave.Mesh
	normalizer *zwave.Normalizer
	groups     GroupLights
	logger     Logger
}

// NewDispatcher creates a Dispatcher. The driver registry must be fully
// populated before the first dispatch.
func NewDispatcher(devices *device.Registry, rooms *location.Registry, drivers *driver.Registry, mesh zwave.Mesh) *Dispatcher {
	s := &Dispatcher{
		devices: devices,
		rooms:   rooms,
		drivers: drivers,
		mesh:    mesh,
		logger:  noopLogger{},
	}
	s.normalizer = zwave.NewNormalizer(s)
	return s
}

// SetLogger sets the logger for the dispatcher and its normalizer.
func (s *Dispatcher) SetLogger(logger Logger) {
	s.logger = logger
	s.normalizer.SetLogger(logger)
}

// SetTelemetry records numeric Z-Wave readings through t.
func (s *Dispatcher) SetTelemetry(t zwave.Telemetry) {
	s.normalizer.SetTelemetry(t)
}

// SetGroupLights enables switching of room lighting groups.
func (s *Dispatcher) SetGroupLights(g GroupLights) {
	s.groups = g
}

// Dispatch runs env against the device with deviceID and persists it.
func (s *Dispatcher) Dispatch(ctx context.Context, deviceID string, env Envelope) (any, error) {
	d, err := s.devices.GetDevice(ctx, deviceID)
	if err != nil {
		return nil, err
	}
	return s.run(ctx, d, env, false)
}

// HandleEvent folds a raw mesh notification into d and persists it.
func (s *Dispatcher) HandleEvent(ctx context.Context, d *device.Device, event json.RawMessage) error {
	_, err := s.run(ctx, d, eventEnvelope(event), true)
	return err
}

// DispatchStatic runs a kind-level command for building.
func (s *Dispatcher) DispatchStatic(ctx context.Context, building string, kind device.Kind, env Envelope) (any, error) {
	handler, ok := s.staticCommands(kind)[env.Name]
	if !ok {
		return nil, fmt.Errorf("%w: %q for kind %s", ErrUnknownCommand, env.Name, kind)
	}
	s.logger.Info("dispatching static command", "kind", kind, "command", env.Name, "building", building)
	return handler(ctx, building, env)
}

// DispatchRoom runs a room command. The only room command is set_lights.
func (s *Dispatcher) DispatchRoom(ctx context.Context, roomID string, env Envelope) (any, error) {
	if env.Name != NameSetLights {
		return nil, fmt.Errorf("%w: %q for rooms", ErrUnknownCommand, env.Name)
	}
	var args struct {
		State *bool `json:"state"`
	}
	if err := env.Decode(&args); err != nil {
		return nil, err
	}
	if args.State == nil {
		return nil, fmt.Errorf("%w: state is required", ErrInvalidArgs)
	}
	return nil, s.SetRoomLights(ctx, roomID, *args.State)
}

func (s *Dispatcher) run(ctx context.Context, d *device.Device, env Envelope, internal bool) (any, error) {
	entry, ok := s.commands(d)[env.Name]
	if !ok || (!entry.Command && !internal) {
		s.logger.Warn("rejected command", "device_id", d.ID, "kind", d.Kind, "command", env.Name)
		return nil, fmt.Errorf("%w: %q for %s device", ErrUnknownCommand, env.Name, d.Kind)
	}

	result, err := entry.Handler(ctx, d, env)
	if err != nil {
		return nil, err
	}

	if err := s.devices.UpdateDevice(ctx, d); err != nil {
		return nil, fmt.Errorf("saving device %s: %w", d.ID, err)
	}
	if !internal {
		s.logger.Info("command dispatched", "device_id", d.ID, "command", env.Name)
	}
	return result, nil
}

// placeInRoom moves d into roomID.
//
// The room set is written first, the previous room second and d.RoomID
// last (when the caller persists d). The writes are not atomic; each is
// idempotent, so retrying a failed set_room converges.
func (s *Dispatcher) placeInRoom(ctx context.Context, d *device.Device, roomID string) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	if room.Owner != d.Owner {
		return location.ErrRoomNotFound
	}

	if err := s.rooms.AddDevice(ctx, roomID, d.ID); err != nil {
		return err
	}

	if d.RoomID != nil && *d.RoomID != roomID {
		err := s.rooms.RemoveDevice(ctx, *d.RoomID, d.ID)
		if err != nil && !errors.Is(err, location.ErrRoomNotFound) {
			return err
		}
	}

	d.RoomID = &roomID
	return nil
}
