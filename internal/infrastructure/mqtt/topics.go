package mqtt

import (
	"fmt"
	"strings"
)

// DefaultPrefix is the root of every hub topic unless configured otherwise.
const DefaultPrefix = "awesomation"

// Topics builds the hub's MQTT topic names under a shared prefix.
//
// Proxy topics carry the building the proxy serves so the hub can route
// events into the right namespace:
//
//	{prefix}/proxy/{building}/{deviceType}/{deviceID}/event   proxy -> hub
//	{prefix}/proxy/{building}/command                         hub -> proxy
//	{prefix}/push/{channel}                                   hub -> local UIs
//	{prefix}/hub/status                                       retained status
type Topics struct {
	Prefix string
}

// NewTopics returns a builder for prefix, falling back to DefaultPrefix.
func NewTopics(prefix string) Topics {
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return Topics{Prefix: strings.TrimRight(prefix, "/")}
}

func (t Topics) root() string {
	if t.Prefix == "" {
		return DefaultPrefix
	}
	return t.Prefix
}

// ProxyEvent is the topic a proxy publishes one device's notifications on.
//
// Example: awesomation/proxy/b-123/zwave/node-7/event
func (t Topics) ProxyEvent(building, deviceType, deviceID string) string {
	return fmt.Sprintf("%s/proxy/%s/%s/%s/event", t.root(), building, deviceType, deviceID)
}

// AllProxyEvents matches every proxy event topic.
//
// Pattern: awesomation/proxy/+/+/+/event
func (t Topics) AllProxyEvents() string {
	return t.root() + "/proxy/+/+/+/event"
}

// ProxyCommand is where mesh commands for a building's proxy are published.
//
// Example: awesomation/proxy/b-123/command
func (t Topics) ProxyCommand(building string) string {
	return fmt.Sprintf("%s/proxy/%s/command", t.root(), building)
}

// PushChannel mirrors a realtime channel onto MQTT.
//
// Example: awesomation/push/private-b-123
func (t Topics) PushChannel(channel string) string {
	return fmt.Sprintf("%s/push/%s", t.root(), channel)
}

// HubStatus is the retained online/offline topic.
func (t Topics) HubStatus() string {
	return t.root() + "/hub/status"
}

// ProxyEventAddress is the routing information encoded in a proxy event topic.
type ProxyEventAddress struct {
	Building   string
	DeviceType string
	DeviceID   string
}

// ParseProxyEvent extracts the address from a concrete proxy event topic.
func (t Topics) ParseProxyEvent(topic string) (ProxyEventAddress, bool) {
	rest, ok := strings.CutPrefix(topic, t.root()+"/proxy/")
	if !ok {
		return ProxyEventAddress{}, false
	}
	parts := strings.Split(rest, "/")
	if len(parts) != 4 || parts[3] != "event" {
		return ProxyEventAddress{}, false
	}
	for _, p := range parts[:3] {
		if p == "" {
			return ProxyEventAddress{}, false
		}
	}
	return ProxyEventAddress{Building: parts[0], DeviceType: parts[1], DeviceID: parts[2]}, true
}
