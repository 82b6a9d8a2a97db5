package cacheditem

import (
	"context"
	"time"
)

// Producer yields a value for a cached item, typically from the network or a bundled asset.
type Producer[T any] func(ctx context.Context) (T, error)

// Option customizes a single lookup.
type Option[T any] func(*callOptions[T])

type callOptions[T any] struct {
	secondary Producer[T]
	ttl       time.Duration
	isEmpty   func(T) bool
}

// WithFallback sets the producer used when the primary fails and nothing is stored.
// Its results are never persisted.
func WithFallback[T any](secondary Producer[T]) Option[T] {
	return func(o *callOptions[T]) {
		o.secondary = secondary
	}
}

// WithTTL overrides the store's default ttl for this call. A ttl of 0 makes
// every stored payload stale, so each call reaches the primary producer.
func WithTTL[T any](ttl time.Duration) Option[T] {
	return func(o *callOptions[T]) {
		if ttl < 0 {
			ttl = 0
		}
		o.ttl = ttl
	}
}

// WithEmptyCheck replaces the default empty payload rule. Values for which
// isEmpty returns true are returned but never persisted.
func WithEmptyCheck[T any](isEmpty func(T) bool) Option[T] {
	return func(o *callOptions[T]) {
		o.isEmpty = isEmpty
	}
}

func resolveOptions[T any](defaultTTL time.Duration, opts []Option[T]) callOptions[T] {
	o := callOptions[T]{ttl: defaultTTL}
	for _, opt := range opts {
		if opt != nil {
			opt(&o)
		}
	}
	return o
}
