package proxy

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/Stainless-Nata/awesomation/internal/infrastructure/mqtt"
	"github.com/Stainless-Nata/awesomation/internal/zwave"
)

const defaultCommandTimeout = 5 * time.Second

// MQTTPublisher is the part of the MQTT client used for outbound messages.
type MQTTPublisher interface {
	PublishContext(ctx context.Context, topic string, payload []byte, qos byte, retained bool) error
}

// Mesh sends Z-Wave mesh commands to a building's proxy over MQTT.
type Mesh struct {
	pub     MQTTPublisher
	topics  mqtt.Topics
	qos     byte
	timeout time.Duration
}

// NewMesh creates a Mesh. A non-positive timeout selects the default.
func NewMesh(pub MQTTPublisher, topics mqtt.Topics, qos byte, timeout time.Duration) *Mesh {
	if timeout <= 0 {
		timeout = defaultCommandTimeout
	}
	return &Mesh{pub: pub, topics: topics, qos: qos, timeout: timeout}
}

// Send implements zwave.Mesh.
func (m *Mesh) Send(ctx context.Context, building string, cmd zwave.MeshCommand) error {
	payload, err := json.Marshal(cmd)
	if err != nil {
		return fmt.Errorf("encoding mesh command: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, m.timeout)
	defer cancel()

	if err := m.pub.PublishContext(ctx, m.topics.ProxyCommand(building), payload, m.qos, false); err != nil {
		return fmt.Errorf("sending %s to %s: %w", cmd.Command, building, err)
	}
	return nil
}

// Mirror republishes push batches on MQTT. It implements push.Publisher.
type Mirror struct {
	pub    MQTTPublisher
	topics mqtt.Topics
	qos    byte
}

// NewMirror creates a Mirror.
func NewMirror(pub MQTTPublisher, topics mqtt.Topics, qos byte) *Mirror {
	return &Mirror{pub: pub, topics: topics, qos: qos}
}

// Publish implements push.Publisher.
func (m *Mirror) Publish(ctx context.Context, channel string, events []json.RawMessage) error {
	payload, err := json.Marshal(events)
	if err != nil {
		return fmt.Errorf("encoding push batch: %w", err)
	}
	return m.pub.PublishContext(ctx, m.topics.PushChannel(channel), payload, m.qos, false)
}
