package driver

import (
	"context"
	"fmt"
	"slices"
)

// Capability names one behaviour a driver exposes on its device.
type Capability string

// Known capabilities.
const (
	CapSwitch       Capability = "switch"
	CapSensorBinary Capability = "sensor_binary"
	CapTemperature  Capability = "temperature"
	CapLuminance    Capability = "luminance"
	CapHumidity     Capability = "humidity"
	CapMeter        Capability = "meter"
)

// Key is the product fingerprint a driver is registered under.
type Key struct {
	ManufacturerID string `json:"manufacturer_id"`
	ProductType    string `json:"product_type"`
	ProductID      string `json:"product_id"`
}

// String renders the key as "manufacturer-type-product".
func (k Key) String() string {
	return fmt.Sprintf("%s-%s-%s", k.ManufacturerID, k.ProductType, k.ProductID)
}

// Target is the device a driver instance is bound to for one operation.
type Target interface {
	// NodeID returns the mesh node id, if the device has reported one.
	NodeID() (int64, bool)

	// Send delivers a protocol command for this device to the mesh.
	Send(ctx context.Context, command string, params map[string]any) error
}

// Driver is stateless, product-specific behaviour for a device.
// Any state lives on the device the driver is bound to.
type Driver interface {
	Name() string
	Capabilities() []Capability
}

// Switcher is implemented by drivers that can switch their device on and off.
type Switcher interface {
	TurnOn(ctx context.Context) error
	TurnOff(ctx context.Context) error
}

// Factory builds a driver bound to target. It must not use target until a
// capability method is invoked; the registry calls it with a nil target to
// describe the driver.
type Factory func(target Target) Driver

// Has reports whether d declares capability c.
func Has(d Driver, c Capability) bool {
	return slices.Contains(d.Capabilities(), c)
}

// fallbackName is reported by the driver returned for unknown products.
const fallbackName = "generic"

// fallback has no capabilities and performs no protocol action.
type fallback struct{}

func (fallback) Name() string               { return fallbackName }
func (fallback) Capabilities() []Capability { return nil }

// Fallback returns the driver used when no product match exists.
func Fallback() Driver {
	return fallback{}
}
