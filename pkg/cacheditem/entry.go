package cacheditem

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Freshness is the record stored under a ttl key.
type Freshness struct {
	// ExpiresAt is when the cached payload becomes stale.
	ExpiresAt time.Time
}

// NewFreshness returns a record expiring ttl after now.
// A non-positive ttl yields a record that is already stale.
func NewFreshness(now time.Time, ttl time.Duration) Freshness {
	if ttl < 0 {
		ttl = 0
	}
	return Freshness{ExpiresAt: now.Add(ttl)}
}

// IsExpired returns true once now has reached ExpiresAt.
func (f Freshness) IsExpired(now time.Time) bool {
	return !now.Before(f.ExpiresAt)
}

// TTL returns the time left until expiry.
// Returns 0 if already expired.
func (f Freshness) TTL(now time.Time) time.Duration {
	ttl := f.ExpiresAt.Sub(now)
	if ttl < 0 {
		return 0
	}
	return ttl
}

// String encodes the record as milliseconds since epoch.
func (f Freshness) String() string {
	return strconv.FormatInt(f.ExpiresAt.UnixMilli(), 10)
}

// ParseFreshness decodes a ttl key value written by Freshness.String.
func ParseFreshness(value string) (Freshness, error) {
	ms, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil {
		return Freshness{}, fmt.Errorf("parse expiry %q: %w", value, err)
	}
	return Freshness{ExpiresAt: time.UnixMilli(ms)}, nil
}
