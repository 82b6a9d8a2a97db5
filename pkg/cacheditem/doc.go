// Package cacheditem provides the offline-first cached item store.
//
// A cached item lives under two keys of a kvstore.Store:
//
//   - content key "<namespace>-<id>": the JSON payload
//   - ttl key "<ttlNamespace>-<id>": expiry instant in milliseconds since epoch
//
// Content and ttl may live in different stores (for example the device
// database for payloads and a preferences store for the ttl flags).
//
// # Cache-first lookups
//
//	store := cacheditem.New(contentStore, flagStore, cacheditem.DefaultConfig())
//
//	key := cacheditem.Key{
//		ID:           "student_profile_edit",
//		Namespace:    "form-",
//		TTLNamespace: "ttl_form-",
//	}
//
//	form, err := cacheditem.GetCached(ctx, store, key, fetchFromServer,
//		cacheditem.WithFallback(readBundledAsset),
//	)
//
// GetCached returns the stored payload while its ttl has not passed. Once
// stale it calls the primary producer and persists the result. When the
// primary fails it serves whatever payload is stored, stale or not, and only
// when nothing is stored it calls the fallback producer.
//
// # Network-first lookups
//
// Get always calls the primary producer first and uses the stored payload and
// the fallback only when that call fails.
//
// # Empty payloads
//
// Payloads that encode to null, "", {} or [] are returned to the caller but
// never persisted, so a transient empty response does not pin the cache.
// WithEmptyCheck replaces that rule with a caller predicate.
//
// # Failures
//
// Store read errors count as "not stored" and store write errors are logged
// and dropped. A call fails only when the primary fails, nothing is stored and
// the fallback is missing or fails too.
//
// # Metrics
//
//   - learncache_item_requests_total{op,outcome}
//   - learncache_producer_errors_total{producer}
//   - learncache_store_errors_total{operation}
package cacheditem
