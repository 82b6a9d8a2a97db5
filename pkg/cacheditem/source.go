package cacheditem

import (
	"context"
	"fmt"
	"strings"
)

// Source selects which side a lookup prefers.
type Source string

const (
	// SourceCache serves a fresh stored payload before asking the primary (GetCached).
	SourceCache Source = "cache"

	// SourceServer asks the primary first (Get).
	SourceServer Source = "server"
)

// ParseSource parses a source name. The empty string selects SourceCache.
func ParseSource(name string) (Source, error) {
	switch Source(strings.ToLower(strings.TrimSpace(name))) {
	case "", SourceCache:
		return SourceCache, nil
	case SourceServer:
		return SourceServer, nil
	default:
		return "", fmt.Errorf("unknown source %q", name)
	}
}

// Lookup dispatches to Get for SourceServer and to GetCached otherwise.
func Lookup[T any](ctx context.Context, s *Store, from Source, key Key, primary Producer[T], opts ...Option[T]) (T, error) {
	if from == SourceServer {
		return Get(ctx, s, key, primary, opts...)
	}
	return GetCached(ctx, s, key, primary, opts...)
}
