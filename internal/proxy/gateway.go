package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Stainless-Nata/awesomation/internal/device"
	"github.com/Stainless-Nata/awesomation/internal/infrastructure/mqtt"
	"github.com/Stainless-Nata/awesomation/internal/push"
)

// messageTimeout bounds the unit of work for one MQTT message.
const messageTimeout = 30 * time.Second

// Logger defines the logging interface used by the Gateway.
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

// Devices is the part of the device registry the gateway needs.
type Devices interface {
	GetOrCreate(ctx context.Context, id, owner string, kind device.Kind) (*device.Device, bool, error)
}

// EventHandler folds a raw notification into a device and persists it.
type EventHandler interface {
	HandleEvent(ctx context.Context, d *device.Device, event json.RawMessage) error
}

// MQTTSubscriber is the part of the MQTT client used for inbound messages.
type MQTTSubscriber interface {
	Subscribe(topic string, qos byte, handler mqtt.MessageHandler) error
}

// Event is one notification reported by a proxy.
type Event struct {
	DeviceID   string          `json:"device_id"`
	DeviceType string          `json:"device_type"`
	Event      json.RawMessage `json:"event"`
}

// Gateway ingests proxy events.
type Gateway struct {
	devices Devices
	handler EventHandler
	fanout  *push.Fanout
	topics  mqtt.Topics
	logger  Logger
}

// NewGateway creates a Gateway.
func NewGateway(devices Devices, handler EventHandler, fanout *push.Fanout, topics mqtt.Topics) *Gateway {
	return &Gateway{
		devices: devices,
		handler: handler,
		fanout:  fanout,
		topics:  topics,
		logger:  noopLogger{},
	}
}

// SetLogger sets the logger for the gateway.
func (g *Gateway) SetLogger(logger Logger) {
	g.logger = logger
}

// Ingest processes one event for building as a unit of work. Devices not
// seen before are created empty.
func (g *Gateway) Ingest(ctx context.Context, building string, ev Event) error {
	if building == "" || ev.DeviceID == "" || len(ev.Event) == 0 {
		return fmt.Errorf("%w: building, device_id and event are required", ErrInvalidEvent)
	}
	kind := device.Kind(ev.DeviceType)
	if kind != device.KindZWave {
		return fmt.Errorf("%w: %q", ErrUnsupportedDeviceType, ev.DeviceType)
	}

	return g.fanout.Run(ctx, building, func(ctx context.Context) error {
		d, created, err := g.devices.GetOrCreate(ctx, ev.DeviceID, building, kind)
		if err != nil {
			return err
		}
		if created {
			g.logger.Info("device discovered by proxy", "device_id", d.ID, "building", building)
		}
		return g.handler.HandleEvent(ctx, d, ev.Event)
	})
}

// HandleMessage is the mqtt.MessageHandler for proxy event topics.
func (g *Gateway) HandleMessage(topic string, payload []byte) error {
	addr, ok := g.topics.ParseProxyEvent(topic)
	if !ok {
		return fmt.Errorf("%w: unexpected topic %q", ErrInvalidEvent, topic)
	}

	ctx, cancel := context.WithTimeout(context.Background(), messageTimeout)
	defer cancel()

	err := g.Ingest(ctx, addr.Building, Event{
		DeviceID:   addr.DeviceID,
		DeviceType: addr.DeviceType,
		Event:      json.RawMessage(payload),
	})
	if err != nil {
		g.logger.Warn("proxy event rejected", "topic", topic, "error", err)
		return err
	}
	g.logger.Debug("proxy event applied", "building", addr.Building, "device_id", addr.DeviceID)
	return nil
}

// Subscribe registers the gateway for every proxy event topic.
func (g *Gateway) Subscribe(sub MQTTSubscriber, qos byte) error {
	if err := sub.Subscribe(g.topics.AllProxyEvents(), qos, g.HandleMessage); err != nil {
		return fmt.Errorf("subscribing to proxy events: %w", err)
	}
	return nil
}
