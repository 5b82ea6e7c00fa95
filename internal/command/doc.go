// Package command routes command envelopes to devices, device kinds and
// rooms.
//
// Each device variant has an explicit registry of named entries. Only
// entries flagged as commands may be invoked from outside the hub; others
// (handle_event) are internal hooks. Z-Wave devices expose turn_on and
// turn_off only when their resolved driver can switch.
//
//	env, err := command.ParseEnvelope([]byte(`{"command":"set_room","room_id":"r1"}`))
//	result, err := dispatcher.Dispatch(ctx, deviceID, env)
//
// A successful handler is followed by persisting the device, which emits
// its push event into the unit of work.
package command
