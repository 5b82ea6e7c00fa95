// Package location provides rooms and their device membership.
//
// A Room belongs to one building and holds an ordered set of device IDs.
// Membership is a reference only; devices live in package device and carry
// their own room reference. The two are written separately, so a reader may
// briefly see a device listed in a room it does not yet point to.
//
// The Registry emits a push event for every room change.
//
// # Thread Safety
//
// SQLiteRepository is safe for concurrent use from multiple goroutines
// (SQLite WAL mode + connection pooling).
package location
