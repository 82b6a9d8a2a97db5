package kvstore

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// OperationDuration tracks backend latency by backend and operation.
	OperationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "learncache_kv_operation_duration_seconds",
			Help:    "Duration of key-value store operations",
			Buckets: []float64{0.0001, 0.001, 0.01, 0.1, 1.0},
		},
		[]string{"backend", "operation"}, // "get", "set"
	)

	// OperationErrors tracks backend failures by backend and operation.
	OperationErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "learncache_kv_operation_errors_total",
			Help: "Total number of failed key-value store operations",
		},
		[]string{"backend", "operation"},
	)
)

type instrumentedStore struct {
	impl    Store
	backend string
}

// Instrumented wraps a Store and records per-operation metrics labelled with backend.
func Instrumented(impl Store, backend string) Store {
	return &instrumentedStore{
		impl:    impl,
		backend: backend,
	}
}

func (s *instrumentedStore) GetValue(ctx context.Context, key string) (string, bool, error) {
	start := time.Now()
	value, found, err := s.impl.GetValue(ctx, key)
	s.record("get", start, err)
	return value, found, err
}

func (s *instrumentedStore) SetValue(ctx context.Context, key, value string) error {
	start := time.Now()
	err := s.impl.SetValue(ctx, key, value)
	s.record("set", start, err)
	return err
}

func (s *instrumentedStore) Close() error {
	return s.impl.Close()
}

func (s *instrumentedStore) record(operation string, start time.Time, err error) {
	OperationDuration.WithLabelValues(s.backend, operation).Observe(time.Since(start).Seconds())
	if err != nil {
		OperationErrors.WithLabelValues(s.backend, operation).Inc()
	}
}
