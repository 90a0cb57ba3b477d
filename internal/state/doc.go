// Package state persists per-target watch state on a partitioned key-value
// substrate: the last fingerprint, the last status, the trigger flag with its
// event record, and the run lock.
//
// Every backend stores the same five keys under the target key as partition, so
// a Store behaves identically on a local directory, a NATS KV bucket or a SQL table.
package state
