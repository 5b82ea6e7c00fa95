package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

// MeasurementZWaveValue holds one point per reported Z-Wave value.
const MeasurementZWaveValue = "zwave_value"

// ZWaveValue identifies a numeric Z-Wave reading.
type ZWaveValue struct {
	Building     string
	DeviceID     string
	CommandClass string
	Index        int
	Label        string
	Units        string
	Value        float64
	Time         time.Time
}

// WriteZWaveValue queues a reading. Building, device and command class are
// tags; label and units ride along as fields to keep cardinality low.
func (c *Client) WriteZWaveValue(v ZWaveValue) {
	if !c.IsConnected() {
		return
	}

	ts := v.Time
	if ts.IsZero() {
		ts = time.Now()
	}

	fields := map[string]any{"value": v.Value}
	if v.Label != "" {
		fields["label"] = v.Label
	}
	if v.Units != "" {
		fields["units"] = v.Units
	}

	c.writeAPI.WritePoint(write.NewPoint(
		MeasurementZWaveValue,
		map[string]string{
			"building":      v.Building,
			"device_id":     v.DeviceID,
			"command_class": v.CommandClass,
			"index":         strconv.Itoa(v.Index),
		},
		fields,
		ts,
	))
}
