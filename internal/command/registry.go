package command

import (
	"context"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/driver"
	"github.com/Stainless-Nata/awesomation/internal/zwave"
)

// Handler runs one command against a device loaded for the current unit of
// work. The dispatcher persists the device when the handler succeeds.
type Handler func(ctx context.Context, d *device.Device, env Envelope) (any, error)

// Entry is one named operation of a device variant. Only entries with
// Command set may be invoked from outside the hub.
type Entry struct {
	Handler Handler
	Command bool
}

// StaticHandler runs a command addressed to a device kind rather than to a
// single device.
type StaticHandler func(ctx context.Context, building string, env Envelope) (any, error)

// Command names.
const (
	NameSetRoom     = "set_room"
	NameTurnOn      = "turn_on"
	NameTurnOff     = "turn_off"
	NameLights      = "lights"
	NameHealNode    = "heal_node"
	NameHandleEvent = "handle_event"
	NameHeal        = "heal"
	NameSetLights   = "set_lights"
)

// commands returns the registry for d. The Z-Wave entries depend on the
// driver resolved for the device, so the registry is built per unit of work.
func (s *Dispatcher) commands(d *device.Device) map[string]Entry {
	entries := map[string]Entry{
		NameSetRoom: {Handler: s.setRoom, Command: true},
	}

	switch d.Kind {
	case device.KindZWave:
		entries[NameLights] = Entry{Handler: s.lightsCommand, Command: true}
		entries[NameHealNode] = Entry{Handler: s.healNode, Command: true}
		entries[NameHandleEvent] = Entry{Handler: s.handleEvent}

		drv := zwave.Resolve(s.drivers, d, s.mesh)
		if sw, ok := drv.(driver.Switcher); ok {
			entries[NameTurnOn] = Entry{Handler: zwaveSwitch(sw, true), Command: true}
			entries[NameTurnOff] = Entry{Handler: zwaveSwitch(sw, false), Command: true}
		}

	case device.KindSwitch:
		entries[NameTurnOn] = Entry{Handler: switchState(true), Command: true}
		entries[NameTurnOff] = Entry{Handler: switchState(false), Command: true}

	case device.KindNest:
	}
	return entries
}

// staticCommands returns the kind-level registry.
func (s *Dispatcher) staticCommands(kind device.Kind) map[string]StaticHandler {
	switch kind {
	case device.KindZWave:
		return map[string]StaticHandler{
			NameHeal: func(ctx context.Context, building string, _ Envelope) (any, error) {
				return nil, zwave.Heal(ctx, s.mesh, building)
			},
		}
	default:
		return nil
	}
}

// CommandNames lists the externally callable commands of d in name order.
func (s *Dispatcher) CommandNames(d *device.Device) []string {
	names := []string{}
	for name, e := range s.commands(d) {
		if e.Command {
			names = append(names, name)
		}
	}
	slices.Sort(names)
	return names
}

// Capabilities lists what d can do. A Z-Wave device whose product has no
// registered driver has no capabilities.
func (s *Dispatcher) Capabilities(d *device.Device) []driver.Capability {
	var caps []driver.Capability
	switch d.Kind {
	case device.KindZWave:
		caps = zwave.Resolve(s.drivers, d, s.mesh).Capabilities()
	case device.KindSwitch:
		caps = []driver.Capability{driver.CapSwitch}
	case device.KindNest:
		caps = []driver.Capability{driver.CapTemperature}
	}
	if caps == nil {
		return []driver.Capability{}
	}
	return caps
}

func (s *Dispatcher) setRoom(ctx context.Context, d *device.Device, env Envelope) (any, error) {
	var args struct {
		RoomID string `json:"room_id"`
	}
	if err := env.Decode(&args); err != nil {
		return nil, err
	}
	if args.RoomID == "" {
		return nil, fmt.Errorf("%w: room_id is required", ErrInvalidArgs)
	}
	return nil, s.placeInRoom(ctx, d, args.RoomID)
}

func (s *Dispatcher) lightsCommand(ctx context.Context, d *device.Device, env Envelope) (any, error) {
	var args struct {
		State *bool `json:"state"`
	}
	if err := env.Decode(&args); err != nil {
		return nil, err
	}
	if args.State == nil {
		return nil, fmt.Errorf("%w: state is required", ErrInvalidArgs)
	}
	return nil, s.Lights(ctx, d, *args.State)
}

func (s *Dispatcher) healNode(ctx context.Context, d *device.Device, env Envelope) (any, error) {
	if err := env.Decode(&struct{}{}); err != nil {
		return nil, err
	}
	return nil, zwave.HealNode(ctx, s.mesh, d)
}

func (s *Dispatcher) handleEvent(ctx context.Context, d *device.Device, env Envelope) (any, error) {
	raw, ok := env.Args["event"]
	if !ok {
		return nil, fmt.Errorf("%w: event is required", ErrInvalidArgs)
	}
	note, err := zwave.ParseNotification(raw)
	if err != nil {
		return nil, err
	}
	return nil, s.normalizer.Apply(ctx, d, note)
}

func zwaveSwitch(sw driver.Switcher, on bool) Handler {
	return func(ctx context.Context, d *device.Device, env Envelope) (any, error) {
		if err := env.Decode(&struct{}{}); err != nil {
			return nil, err
		}
		var err error
		if on {
			err = sw.TurnOn(ctx)
		} else {
			err = sw.TurnOff(ctx)
		}
		if err != nil {
			return nil, err
		}
		d.ZWave.State = &on
		return nil, nil
	}
}

func switchState(on bool) Handler {
	return func(_ context.Context, d *device.Device, env Envelope) (any, error) {
		if err := env.Decode(&struct{}{}); err != nil {
			return nil, err
		}
		d.Switch.On = on
		return nil, nil
	}
}

// eventEnvelope wraps a raw notification for the handle_event entry.
func eventEnvelope(raw json.RawMessage) Envelope {
	return Envelope{Name: NameHandleEvent, Args: map[string]json.RawMessage{"event": raw}}
}
