// Package watch runs watch cycles: lock the target, fetch, detect, compare with
// the persisted state, record a trigger event when the mode says so, notify.
//
// A cycle never notifies before its state is persisted, and a notification
// failure never changes what was persisted.
package watch
