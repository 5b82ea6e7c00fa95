// Package zwave normalizes Z-Wave mesh notifications and provides the
// product drivers for Z-Wave devices.
//
// A proxy process bridges the mesh controller to the hub. Notifications it
// relays are folded into device state by the Normalizer; commands for the
// mesh travel back through a Mesh implementation as MeshCommand objects.
//
// Supported notifications:
//
//   - ValueAdded, ValueChanged: upsert an AttributeValue keyed on
//     (command class, index). A binary sensor change also switches the
//     lights of the sensor's room.
//   - NodeInfoUpdate: replace the node, manufacturer and product fields.
//
// Everything else is logged and dropped.
package zwave
