// Package kvstore provides the string key-value backends the cached item
// store persists into.
//
// A Store knows nothing about TTLs or payload structure. It maps a key to a
// string and back. Backends available:
//
//   - MemoryStore: process-local map, used by tests and ephemeral runs
//   - RedisStore: Redis strings without expiry
//   - SQLiteStore: the device database "no_sql" table
//   - CloverStore: a clover document collection on disk
//
// Open builds one of them from a Config and wraps it with Instrumented so
// operation latency is exported to Prometheus.
package kvstore

import (
	"context"
	"errors"
)

// ErrClosed is returned by backends used after Close.
var ErrClosed = errors.New("kvstore: store closed")

// Store is a durable key to string mapping.
type Store interface {
	// GetValue returns the value stored under key. found is false when the
	// key has never been written. err is reserved for backend I/O failures.
	GetValue(ctx context.Context, key string) (value string, found bool, err error)

	// SetValue overwrites the value stored under key.
	SetValue(ctx context.Context, key, value string) error

	// Close releases backend resources.
	Close() error
}
