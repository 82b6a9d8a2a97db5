package cacheditem

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Outcomes recorded on ItemRequests.
const (
	outcomeFresh    = "fresh"    // served from store within ttl
	outcomeFetched  = "fetched"  // primary succeeded and was persisted
	outcomeEmpty    = "empty"    // primary succeeded with an empty payload
	outcomeStale    = "stale"    // primary failed, stored payload served
	outcomeFallback = "fallback" // primary failed, fallback succeeded
	outcomeError    = "error"    // surfaced to the caller
)

var (
	// ItemRequests tracks lookups by operation and outcome
	ItemRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learncache_item_requests_total",
			Help: "Total number of cached item lookups by operation and outcome",
		},
		[]string{"op", "outcome"}, // op: "get_cached", "get", "refresh"
	)

	// ProducerErrors tracks failed producer calls
	ProducerErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learncache_producer_errors_total",
			Help: "Total number of failed producer calls",
		},
		[]string{"producer"}, // "primary", "secondary"
	)

	// StoreErrors tracks swallowed store errors
	StoreErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learncache_store_errors_total",
			Help: "Total number of cached item store errors",
		},
		[]string{"operation"}, // "get", "set", "decode", "encode"
	)
)
