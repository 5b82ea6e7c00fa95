// Package influxdb records Z-Wave readings in InfluxDB v2.
//
// Numeric and boolean attribute values reported by the mesh are written as
// points in the zwave_value measurement through the non-blocking, batched
// WriteAPI of influxdb-client-go.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // telemetry off
//	}
//	client.WriteZWaveValue(influxdb.ZWaveValue{DeviceID: id, CommandClass: cc, Value: 21.5})
package influxdb
