package cacheditem

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"github.com/Sternrassler/learn-cache/pkg/kvstore"
	"github.com/Sternrassler/learn-cache/pkg/logging"
)

// DefaultTTL is used when Config.DefaultTTL is not set.
const DefaultTTL = 2 * time.Hour

const (
	opGetCached = "get_cached"
	opGet       = "get"
	opRefresh   = "refresh"
)

// Config holds the cached item store configuration.
type Config struct {
	// DefaultTTL is the freshness window for calls without WithTTL.
	DefaultTTL time.Duration

	// Logger receives cache events. Defaults to the "cached-item-store" component logger.
	Logger *zerolog.Logger

	// Now is the clock used for freshness decisions (default: time.Now).
	Now func() time.Time
}

// DefaultConfig returns the default configuration.
func DefaultConfig() Config {
	return Config{
		DefaultTTL: DefaultTTL,
	}
}

// Store serves cached items from a content store and a flag store.
type Store struct {
	content    kvstore.Store
	flags      kvstore.Store
	defaultTTL time.Duration
	logger     zerolog.Logger
	now        func() time.Time
}

// New creates a cached item store. flags may be nil, in which case ttl
// records are kept in the content store.
func New(content, flags kvstore.Store, cfg Config) *Store {
	if content == nil {
		panic("content store cannot be nil")
	}
	if flags == nil {
		flags = content
	}

	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultTTL
	}

	logger := logging.NewLogger("cached-item-store")
	if cfg.Logger != nil {
		logger = *cfg.Logger
	}

	now := cfg.Now
	if now == nil {
		now = time.Now
	}

	return &Store{
		content:    content,
		flags:      flags,
		defaultTTL: cfg.DefaultTTL,
		logger:     logger,
		now:        now,
	}
}

// GetCached returns the item for key, preferring the stored payload while it is fresh.
//
// Lookup order:
//  1. fresh ttl record: decode and return the stored payload
//  2. primary producer: persist (unless empty) and return
//  3. primary failed: return the stored payload, even if stale
//  4. nothing stored: return the fallback producer's result, or the primary's error
func GetCached[T any](ctx context.Context, s *Store, key Key, primary Producer[T], opts ...Option[T]) (T, error) {
	if primary == nil {
		var zero T
		return zero, ErrNoProducer
	}

	o := resolveOptions(s.defaultTTL, opts)

	if data, ok := s.readFresh(ctx, key); ok {
		value, err := decode[T](data)
		if err == nil {
			ItemRequests.WithLabelValues(opGetCached, outcomeFresh).Inc()
			s.logger.Debug().Str("key", key.ContentKey()).Msg("Cache hit")
			return value, nil
		}
		StoreErrors.WithLabelValues("decode").Inc()
		s.logger.Warn().Err(err).Str("key", key.ContentKey()).Msg("Discarding undecodable cached payload")
	}

	return fetch(ctx, s, opGetCached, key, primary, o)
}

// Get returns the item for key from the primary producer, falling back to the
// stored payload and then to the fallback producer when the primary fails.
// A successful primary result is persisted even if the stored payload is still fresh.
func Get[T any](ctx context.Context, s *Store, key Key, primary Producer[T], opts ...Option[T]) (T, error) {
	if primary == nil {
		var zero T
		return zero, ErrNoProducer
	}

	return fetch(ctx, s, opGet, key, primary, resolveOptions(s.defaultTTL, opts))
}

// Refresh calls the primary producer and persists its result. Unlike Get it
// never serves a stored payload or the fallback: the primary's error and a
// failed store write are returned. Empty results are not persisted and are
// not an error.
func Refresh[T any](ctx context.Context, s *Store, key Key, primary Producer[T], opts ...Option[T]) error {
	if primary == nil {
		return ErrNoProducer
	}

	value, err := primary(ctx)
	if err != nil {
		ProducerErrors.WithLabelValues("primary").Inc()
		ItemRequests.WithLabelValues(opRefresh, outcomeError).Inc()
		return err
	}

	if err := persist(ctx, s, opRefresh, key, value, resolveOptions(s.defaultTTL, opts)); err != nil {
		return fmt.Errorf("refresh %s: %w", key.ContentKey(), err)
	}
	return nil
}

func fetch[T any](ctx context.Context, s *Store, op string, key Key, primary Producer[T], o callOptions[T]) (T, error) {
	value, err := primary(ctx)
	if err == nil {
		_ = persist(ctx, s, op, key, value, o)
		return value, nil
	}

	ProducerErrors.WithLabelValues("primary").Inc()

	if data, ok := s.readContent(ctx, key); ok {
		stale, decodeErr := decode[T](data)
		if decodeErr == nil {
			ItemRequests.WithLabelValues(op, outcomeStale).Inc()
			s.logger.Warn().
				Err(err).
				Str("key", key.ContentKey()).
				Msg("Primary producer failed, serving stored payload")
			return stale, nil
		}
		StoreErrors.WithLabelValues("decode").Inc()
		s.logger.Warn().Err(decodeErr).Str("key", key.ContentKey()).Msg("Discarding undecodable cached payload")
	}

	if o.secondary == nil {
		ItemRequests.WithLabelValues(op, outcomeError).Inc()
		var zero T
		return zero, err
	}

	s.logger.Debug().
		Err(err).
		Str("key", key.ContentKey()).
		Msg("Primary producer failed with nothing stored, using fallback")

	value, secondaryErr := o.secondary(ctx)
	if secondaryErr != nil {
		ProducerErrors.WithLabelValues("secondary").Inc()
		ItemRequests.WithLabelValues(op, outcomeError).Inc()
		var zero T
		return zero, secondaryErr
	}

	ItemRequests.WithLabelValues(op, outcomeFallback).Inc()
	return value, nil
}

// persist writes a primary result and its ttl record. Failures are logged
// and returned; lookups drop them.
func persist[T any](ctx context.Context, s *Store, op string, key Key, value T, o callOptions[T]) error {
	if o.isEmpty != nil && o.isEmpty(value) {
		s.skipEmpty(op, key)
		return nil
	}

	data, err := encode(value)
	if err != nil {
		StoreErrors.WithLabelValues("encode").Inc()
		ItemRequests.WithLabelValues(op, outcomeFetched).Inc()
		s.logger.Warn().Err(err).Str("key", key.ContentKey()).Msg("Failed to encode payload, not caching")
		return err
	}

	if o.isEmpty == nil && IsEmptyJSON(data) {
		s.skipEmpty(op, key)
		return nil
	}

	ItemRequests.WithLabelValues(op, outcomeFetched).Inc()

	if err := s.content.SetValue(ctx, key.ContentKey(), data); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key.ContentKey()).Msg("Failed to cache payload")
		return err
	}

	freshness := NewFreshness(s.now(), o.ttl)
	if err := s.flags.SetValue(ctx, key.TTLKey(), freshness.String()); err != nil {
		StoreErrors.WithLabelValues("set").Inc()
		s.logger.Warn().Err(err).Str("key", key.TTLKey()).Msg("Failed to record cache ttl")
		return err
	}

	s.logger.Debug().
		Str("key", key.ContentKey()).
		Dur("ttl", o.ttl).
		Msg("Cached payload")
	return nil
}

func (s *Store) skipEmpty(op string, key Key) {
	ItemRequests.WithLabelValues(op, outcomeEmpty).Inc()
	s.logger.Debug().Str("key", key.ContentKey()).Msg("Empty payload, not caching")
}

// readFresh returns the stored payload when its ttl record exists and has not expired.
func (s *Store) readFresh(ctx context.Context, key Key) (string, bool) {
	raw, found, err := s.flags.GetValue(ctx, key.TTLKey())
	if err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", key.TTLKey()).Msg("Cache ttl read error, treating as stale")
		return "", false
	}
	if !found {
		s.logger.Debug().Str("key", key.ContentKey()).Msg("Cache miss")
		return "", false
	}

	freshness, err := ParseFreshness(raw)
	if err != nil {
		StoreErrors.WithLabelValues("decode").Inc()
		s.logger.Warn().Err(err).Str("key", key.TTLKey()).Msg("Invalid cache ttl record, treating as stale")
		return "", false
	}
	if freshness.IsExpired(s.now()) {
		s.logger.Debug().Str("key", key.ContentKey()).Msg("Cache entry stale")
		return "", false
	}

	return s.readContent(ctx, key)
}

// readContent returns the stored payload regardless of its ttl record.
func (s *Store) readContent(ctx context.Context, key Key) (string, bool) {
	data, found, err := s.content.GetValue(ctx, key.ContentKey())
	if err != nil {
		StoreErrors.WithLabelValues("get").Inc()
		s.logger.Warn().Err(err).Str("key", key.ContentKey()).Msg("Cache read error, treating as absent")
		return "", false
	}
	if !found || data == "" {
		return "", false
	}
	return data, true
}
