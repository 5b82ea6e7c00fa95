// Package proxy links the hub with the mesh proxies running in each
// building.
//
// Inbound, a proxy reports Z-Wave notifications either over MQTT
//
//	{prefix}/proxy/{building}/zwave/{deviceID}/event   payload: notification
//
// or over HTTP (POST /api/v1/proxy/events). Each notification is one unit of
// work: the device is loaded or created, the notification is folded into
// its state, and the resulting push events are flushed to the building's
// channel.
//
// Outbound, mesh commands are published to {prefix}/proxy/{building}/command
// and push batches are mirrored to {prefix}/push/{channel} for UIs on the
// local network.
package proxy
