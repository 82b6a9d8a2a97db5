package cacheditem

import "testing"

func TestKey(t *testing.T) {
	tests := []struct {
		name        string
		key         Key
		wantContent string
		wantTTL     string
	}{
		{
			name:        "namespace with trailing separator",
			key:         Key{ID: "sample_id_42", Namespace: "form-", TTLNamespace: "ttl_form-"},
			wantContent: "form-sample_id_42",
			wantTTL:     "ttl_form-sample_id_42",
		},
		{
			name:        "bare namespace",
			key:         Key{ID: "sample_id_1", Namespace: "sample_no_sql_key", TTLNamespace: "sample_ttl_key"},
			wantContent: "sample_no_sql_key-sample_id_1",
			wantTTL:     "sample_ttl_key-sample_id_1",
		},
		{
			name:        "empty namespace",
			key:         Key{ID: "id"},
			wantContent: "id",
			wantTTL:     "id",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.key.ContentKey(); got != tt.wantContent {
				t.Errorf("ContentKey() = %q, want %q", got, tt.wantContent)
			}
			if got := tt.key.TTLKey(); got != tt.wantTTL {
				t.Errorf("TTLKey() = %q, want %q", got, tt.wantTTL)
			}
			if got := tt.key.String(); got != tt.wantContent {
				t.Errorf("String() = %q, want %q", got, tt.wantContent)
			}
		})
	}
}
