// Package mqtt connects the hub to its MQTT broker.
//
// Mesh proxies (the processes sitting next to the Z-Wave controller) publish
// device notifications to the broker and receive mesh commands from it:
//
//	Z-Wave mesh ↔ proxy ↔ MQTT broker ↔ hub
//
// The client wraps paho.mqtt.golang with auto-reconnect, subscription
// restoration, a retained online/offline status with LWT, and
// context-bounded publishes.
//
//	client, err := mqtt.Connect(cfg.MQTT, mqtt.NewTopics(cfg.Proxy.TopicPrefix))
//	if err != nil {
//	    return err
//	}
//	defer client.Close()
//
//	err = client.Subscribe(client.Topics().AllProxyEvents(), 1,
//	    func(topic string, payload []byte) error {
//	        return ingest(topic, payload)
//	    })
package mqtt
