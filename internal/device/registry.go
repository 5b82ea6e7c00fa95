package device

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/Stainless-Nata/awesomation/internal/push"
)

// Logger defines the logging interface used by the Registry.
// This allows different logging implementations to be used.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// noopLogger is a logger that does nothing.
type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Push event names emitted by the registry.
const (
	EventClass  = "device"
	EventUpdate = "update"
	EventDelete = "delete"
)

// Event is the push payload describing a device change.
type Event struct {
	Class string  `json:"class"`
	Event string  `json:"event"`
	ID    string  `json:"id"`
	Obj   *Device `json:"obj,omitempty"`
}

// Registry provides device management with caching and thread safety.
// It wraps a Repository and adds an in-memory cache for fast lookups.
//
// Every successful create, update or delete emits an Event into the push
// batch carried by the context, addressed to the device's owner.
//
// All public methods are thread-safe. There is no per-device lock: two
// units of work updating the same device concurrently may lose an update.
type Registry struct {
	repo    Repository
	cache   map[string]*Device // Cached devices by ID
	loaded  bool               // cache holds every device
	cacheMu sync.RWMutex       // Protects cache and loaded
	logger  Logger
}

// NewRegistry creates a new device registry.
// The repository is used for persistence; the registry adds caching.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]*Device),
		logger: noopLogger{},
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// RefreshCache reloads all devices from the repository into the cache.
// This should be called on application startup.
func (r *Registry) RefreshCache(ctx context.Context) error {
	devices, err := r.repo.List(ctx)
	if err != nil {
		return fmt.Errorf("loading devices: %w", err)
	}

	r.cacheMu.Lock()
	defer r.cacheMu.Unlock()

	r.cache = make(map[string]*Device, len(devices))
	for i := range devices {
		r.cache[devices[i].ID] = devices[i].DeepCopy()
	}
	r.loaded = true

	r.logger.Info("device cache refreshed", "count", len(devices))
	return nil
}

// GetDevice retrieves a device by ID.
// Returns ErrDeviceNotFound if the device does not exist.
// The returned device is a deep copy; callers can safely modify it.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	r.cacheMu.RLock()
	cached, ok := r.cache[id]
	r.cacheMu.RUnlock()

	if ok {
		return cached.DeepCopy(), nil
	}

	device, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	r.cache[id] = device.DeepCopy()
	r.cacheMu.Unlock()

	return device, nil
}

// ListDevices retrieves the devices of one building, ordered by name.
func (r *Registry) ListDevices(ctx context.Context, owner string) ([]Device, error) {
	return r.filter(ctx, func(d *Device) bool { return d.Owner == owner },
		func() ([]Device, error) { return r.repo.ListByOwner(ctx, owner) })
}

// GetDevicesByRoom retrieves all devices placed in roomID, ordered by name.
func (r *Registry) GetDevicesByRoom(ctx context.Context, roomID string) ([]Device, error) {
	return r.filter(ctx, func(d *Device) bool { return d.InRoom(roomID) },
		func() ([]Device, error) { return r.repo.ListByRoom(ctx, roomID) })
}

// filter answers from the cache once it is fully loaded and from the
// repository before that. Results are deep copies.
func (r *Registry) filter(ctx context.Context, match func(*Device) bool, fallback func() ([]Device, error)) ([]Device, error) {
	r.cacheMu.RLock()
	if !r.loaded {
		r.cacheMu.RUnlock()
		return fallback()
	}

	var devices []Device
	for _, d := range r.cache {
		if match(d) {
			devices = append(devices, *d.DeepCopy())
		}
	}
	r.cacheMu.RUnlock()

	sort.Slice(devices, func(i, j int) bool {
		if devices[i].Name != devices[j].Name {
			return devices[i].Name < devices[j].Name
		}
		return devices[i].ID < devices[j].ID
	})
	return devices, nil
}

// CreateDevice validates and persists a new device, generating its ID if
// needed.
func (r *Registry) CreateDevice(ctx context.Context, device *Device) error {
	if device.ID == "" {
		device.ID = GenerateID()
	}

	if err := ValidateDevice(device); err != nil {
		return err
	}

	if err := r.repo.Create(ctx, device); err != nil {
		return err
	}

	r.store(device)
	r.emit(ctx, EventUpdate, device)

	r.logger.Info("device created", "id", device.ID, "kind", device.Kind, "owner", device.Owner)
	return nil
}

// UpdateDevice validates and persists changes to an existing device.
// Returns ErrOwnerChanged if the owner differs from the stored one.
func (r *Registry) UpdateDevice(ctx context.Context, device *Device) error {
	existing, err := r.GetDevice(ctx, device.ID)
	if err != nil {
		return err
	}
	if existing.Owner != device.Owner {
		return ErrOwnerChanged
	}

	if err := ValidateDevice(device); err != nil {
		return err
	}

	if err := r.repo.Update(ctx, device); err != nil {
		return err
	}

	r.store(device)
	r.emit(ctx, EventUpdate, device)

	r.logger.Debug("device updated", "id", device.ID, "kind", device.Kind)
	return nil
}

// DeleteDevice removes a device. Room membership is not cleaned up here.
func (r *Registry) DeleteDevice(ctx context.Context, id string) error {
	existing, err := r.GetDevice(ctx, id)
	if err != nil {
		return err
	}

	if err := r.repo.Delete(ctx, id); err != nil {
		return err
	}

	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()

	push.Emit(ctx, existing.Owner, Event{Class: EventClass, Event: EventDelete, ID: id})

	r.logger.Info("device deleted", "id", id)
	return nil
}

// GetOrCreate returns the device with id, creating an empty one of kind
// for owner if it does not exist yet. Used when a proxy reports a device
// the hub has not seen. An existing device of another owner or kind is
// rejected.
func (r *Registry) GetOrCreate(ctx context.Context, id, owner string, kind Kind) (*Device, bool, error) {
	existing, err := r.GetDevice(ctx, id)
	switch {
	case err == nil:
		if existing.Owner != owner {
			return nil, false, ErrOwnerChanged
		}
		if existing.Kind != kind {
			return nil, false, fmt.Errorf("%w: device %s is %s, not %s", ErrInvalidKind, id, existing.Kind, kind)
		}
		return existing, false, nil
	case !errors.Is(err, ErrDeviceNotFound):
		return nil, false, err
	}

	device, err := New(owner, kind, "")
	if err != nil {
		return nil, false, err
	}
	device.ID = id

	if err := r.CreateDevice(ctx, device); err != nil {
		return nil, false, err
	}
	return device, true, nil
}

// store caches a deep copy of device.
func (r *Registry) store(device *Device) {
	r.cacheMu.Lock()
	r.cache[device.ID] = device.DeepCopy()
	r.cacheMu.Unlock()
}

func (r *Registry) emit(ctx context.Context, event string, device *Device) {
	push.Emit(ctx, device.Owner, Event{
		Class: EventClass,
		Event: event,
		ID:    device.ID,
		Obj:   device.DeepCopy(),
	})
}
