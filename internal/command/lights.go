package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/location"
)

// Lights switches the lights of the room sensor is placed in. A sensor
// outside any room, or in a room that no longer exists, switches nothing.
func (s *Dispatcher) Lights(ctx context.Context, sensor *device.Device, on bool) error {
	if sensor.RoomID == nil {
		return nil
	}
	err := s.setRoomLights(ctx, *sensor.RoomID, on, sensor.ID)
	if errors.Is(err, location.ErrRoomNotFound) {
		s.logger.Warn("sensor references missing room", "device_id", sensor.ID, "room_id", *sensor.RoomID)
		return nil
	}
	return err
}

// SetRoomLights switches every device in the room that can be switched,
// and the room's lighting group when one is configured.
func (s *Dispatcher) SetRoomLights(ctx context.Context, roomID string, on bool) error {
	return s.setRoomLights(ctx, roomID, on, "")
}

func (s *Dispatcher) setRoomLights(ctx context.Context, roomID string, on bool, exclude string) error {
	room, err := s.rooms.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}

	name := NameTurnOff
	if on {
		name = NameTurnOn
	}

	var errs []error
	switched := 0
	for _, id := range room.DeviceIDs {
		if id == exclude {
			continue
		}
		member, err := s.devices.GetDevice(ctx, id)
		if errors.Is(err, device.ErrDeviceNotFound) {
			continue // stale membership
		}
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if entry, ok := s.commands(member)[name]; !ok || !entry.Command {
			continue
		}
		if _, err := s.run(ctx, member, Envelope{Name: name}, false); err != nil {
			errs = append(errs, fmt.Errorf("switching %s: %w", id, err))
			continue
		}
		switched++
	}

	if room.HueGroupID != nil && s.groups != nil {
		if err := s.groups.SetGroupLights(ctx, *room.HueGroupID, on); err != nil {
			errs = append(errs, fmt.Errorf("switching group %s: %w", *room.HueGroupID, err))
		}
	}

	s.logger.Info("room lights switched", "room_id", roomID, "on", on, "devices", switched)
	return errors.Join(errs...)
}
