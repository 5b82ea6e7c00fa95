// Package driver resolves product-specific device behaviour.
//
// A Driver is looked up by the (manufacturer, product type, product id)
// fingerprint a device reports and is bound to that device for a single
// operation. Unknown fingerprints resolve to a fallback driver with no
// capabilities, so callers always get a usable handle.
//
//	reg := driver.NewRegistry()
//	zwave.RegisterDrivers(reg)
//	d := reg.Resolve(driver.Key{ManufacturerID: "0x0086", ProductType: "0x0003", ProductID: "0x0060"}, target)
//	if sw, ok := d.(driver.Switcher); ok {
//	    err = sw.TurnOn(ctx)
//	}
package driver
