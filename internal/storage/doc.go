// Package storage provides the embedded key/value engine used for durable
// client-side state.
//
// The engine is a thin layer over Badger: point reads and writes, prefix
// scans, and periodic value-log garbage collection. The session package
// builds its BadgerStore on top of it.
package storage
