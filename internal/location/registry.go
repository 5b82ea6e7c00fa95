package location

import (
	"context"

	"github.com/Stainless-Nata/awesomation/internal/push"
)

// Logger defines the logging interface used by the Registry.
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

// Push event names emitted by the registry.
const (
	EventClass  = "room"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Event is the push payload describing a room change.
type Event struct {
	Class string `json:"class"`
	Event string `json:"event"`
	ID    string `json:"id"`
	Obj   *Room  `json:"obj,omitempty"`
}

// Registry wraps a Repository and emits a push event for every change.
type Registry struct {
	repo   Repository
	logger Logger
}

// NewRegistry creates a room registry.
func NewRegistry(repo Repository) *Registry {
	return &Registry{repo: repo, logger: noopLogger{}}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// GetRoom returns a room by ID.
func (r *Registry) GetRoom(ctx context.Context, id string) (*Room, error) {
	return r.repo.GetRoom(ctx, id)
}

// ListRooms returns the rooms of one building.
func (r *Registry) ListRooms(ctx context.Context, owner string) ([]Room, error) {
	return r.repo.ListRooms(ctx, owner)
}

// CreateRoom validates and stores a room, generating its ID if needed.
func (r *Registry) CreateRoom(ctx context.Context, room *Room) error {
	if room.ID == "" {
		room.ID = GenerateID()
	}
	if room.DeviceIDs == nil {
		room.DeviceIDs = []string{}
	}
	if err := ValidateRoom(room); err != nil {
		return err
	}
	if err := r.repo.CreateRoom(ctx, room); err != nil {
		return err
	}
	r.emit(ctx, room)
	r.logger.Info("room created", "id", room.ID, "owner", room.Owner)
	return nil
}

// UpdateRoom stores a new name or Hue group for a room.
func (r *Registry) UpdateRoom(ctx context.Context, room *Room) error {
	if err := ValidateRoom(room); err != nil {
		return err
	}
	if err := r.repo.UpdateRoom(ctx, room); err != nil {
		return err
	}
	return r.emitCurrent(ctx, room.ID)
}

// DeleteRoom removes a room. Devices placed in it have their room cleared
// by the storage layer.
func (r *Registry) DeleteRoom(ctx context.Context, id string) error {
	room, err := r.repo.GetRoom(ctx, id)
	if err != nil {
		return err
	}
	if err := r.repo.DeleteRoom(ctx, id); err != nil {
		return err
	}
	push.Emit(ctx, room.Owner, Event{Class: EventClass, Event: EventDelete, ID: id})
	r.logger.Info("room deleted", "id", id)
	return nil
}

// AddDevice appends deviceID to the room. Repeating it is harmless.
func (r *Registry) AddDevice(ctx context.Context, roomID, deviceID string) error {
	if err := r.repo.AddDevice(ctx, roomID, deviceID); err != nil {
		return err
	}
	return r.emitCurrent(ctx, roomID)
}

// RemoveDevice drops deviceID from the room.
func (r *Registry) RemoveDevice(ctx context.Context, roomID, deviceID string) error {
	if err := r.repo.RemoveDevice(ctx, roomID, deviceID); err != nil {
		return err
	}
	return r.emitCurrent(ctx, roomID)
}

func (r *Registry) emitCurrent(ctx context.Context, roomID string) error {
	room, err := r.repo.GetRoom(ctx, roomID)
	if err != nil {
		return err
	}
	r.emit(ctx, room)
	return nil
}

func (r *Registry) emit(ctx context.Context, room *Room) {
	cpy := *room
	cpy.DeviceIDs = append([]string{}, room.DeviceIDs...)
	push.Emit(ctx, room.Owner, Event{Class: EventClass, Event: EventUpdate, ID: room.ID, Obj: &cpy})
}
