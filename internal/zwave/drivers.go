package zwave

import (
	"context"

	"github.com/Stainless-Nata/awesomation/internal/driver"
)

// Product fingerprints of the bundled drivers.
var (
	KeyAeotecMultiSensor = driver.Key{ManufacturerID: "0x0086", ProductType: "0x0002", ProductID: "0x0064"}
	KeyAeotecSmartSwitch = driver.Key{ManufacturerID: "0x0086", ProductType: "0x0003", ProductID: "0x0060"}
	KeyFibaroWallPlug    = driver.Key{ManufacturerID: "0x010f", ProductType: "0x0600", ProductID: "0x1000"}
)

// RegisterDrivers adds the bundled Z-Wave drivers to reg. It is called once
// at startup before traffic is accepted.
func RegisterDrivers(reg *driver.Registry) {
	reg.Register(KeyAeotecMultiSensor, "Aeotec MultiSensor", newMultiSensor)
	reg.Register(KeyAeotecSmartSwitch, "Aeotec Smart Switch", newBinarySwitch("Aeotec Smart Switch"))
	reg.Register(KeyFibaroWallPlug, "Fibaro Wall Plug", newBinarySwitch("Fibaro Wall Plug"))
}

// multiSensor reports motion, temperature, light and humidity. It has no
// actuators.
type multiSensor struct{}

func newMultiSensor(driver.Target) driver.Driver { return multiSensor{} }

func (multiSensor) Name() string { return "Aeotec MultiSensor" }

func (multiSensor) Capabilities() []driver.Capability {
	return []driver.Capability{
		driver.CapSensorBinary,
		driver.CapTemperature,
		driver.CapLuminance,
		driver.CapHumidity,
	}
}

// binarySwitch is a metering plug switched through the binary switch class.
type binarySwitch struct {
	name   string
	target driver.Target
}

func newBinarySwitch(name string) driver.Factory {
	return func(t driver.Target) driver.Driver {
		return &binarySwitch{name: name, target: t}
	}
}

func (s *binarySwitch) Name() string { return s.name }

func (s *binarySwitch) Capabilities() []driver.Capability {
	return []driver.Capability{driver.CapSwitch, driver.CapMeter}
}

func (s *binarySwitch) TurnOn(ctx context.Context) error  { return s.set(ctx, true) }
func (s *binarySwitch) TurnOff(ctx context.Context) error { return s.set(ctx, false) }

func (s *binarySwitch) set(ctx context.Context, on bool) error {
	return s.target.Send(ctx, CommandSetValue, map[string]any{
		"command_class": CommandClassSwitchBinary,
		"index":         0,
		"value":         on,
	})
}
