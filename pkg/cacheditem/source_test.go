package cacheditem

import (
	"context"
	"testing"
	"time"

	"github.com/Sternrassler/learn-cache/pkg/kvstore"
)

func TestParseSource(t *testing.T) {
	tests := []struct {
		in      string
		want    Source
		wantErr bool
	}{
		{"", SourceCache, false},
		{"cache", SourceCache, false},
		{"server", SourceServer, false},
		{" SERVER ", SourceServer, false},
		{"disk", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseSource(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseSource(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("ParseSource(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestLookup_DispatchesBySource(t *testing.T) {
	ctx := context.Background()
	store := New(kvstore.NewMemoryStore(), nil, DefaultConfig())
	key := Key{ID: "tnc", Namespace: "system-settings-", TTLNamespace: "ttl_system-settings-"}

	calls := 0
	primary := func(context.Context) (string, error) {
		calls++
		return "v", nil
	}

	for _, from := range []Source{SourceCache, SourceCache, SourceServer} {
		if _, err := Lookup(ctx, store, from, key, primary, WithTTL[string](time.Hour)); err != nil {
			t.Fatalf("Lookup(%s) error = %v", from, err)
		}
	}

	// Second cache lookup is served fresh, the server lookup always calls the primary.
	if calls != 2 {
		t.Errorf("primary calls = %d, want 2", calls)
	}
}
