package influxdb

import "errors"

// Sentinel errors for InfluxDB operations. Most write failures surface
// asynchronously through SetOnError instead.
var (
	ErrNotConnected     = errors.New("influxdb: not connected")
	ErrConnectionFailed = errors.New("influxdb: connection failed")
	ErrDisabled         = errors.New("influxdb: disabled in configuration")
)
