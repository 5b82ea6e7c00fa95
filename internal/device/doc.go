// Package device provides the device model and registry.
//
// A Device is a tagged variant: Kind selects which payload (ZWave, Switch
// or Nest) is populated. Devices are stored one row per device with the
// payload encoded as JSON in the state column and decoded by kind.
//
// # Key Types
//
//   - Device: identity, owning building, optional room and variant payload
//   - ZWave: mesh identifiers, product fingerprint and AttributeValues
//   - AttributeValue: one reported value keyed by (CommandClass, Index)
//   - Registry: cached CRUD that emits push events per change
//
// # Usage
//
//	repo := device.NewSQLiteRepository(db.DB)
//	registry := device.NewRegistry(repo)
//	if err := registry.RefreshCache(ctx); err != nil {
//	    return err
//	}
//
//	d, err := registry.GetDevice(ctx, id)
//
// # Thread Safety
//
// Registry methods are safe for concurrent use. Returned devices are deep
// copies; mutate them and call UpdateDevice to persist.
package device
