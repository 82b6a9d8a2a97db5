package assets

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"testing/fstest"
)

func TestReader_Read(t *testing.T) {
	r := New(fstest.MapFS{
		"data/form/form-content_default_get.json": {Data: []byte(`{"result":{"form":{}}}`)},
	})

	tests := []struct {
		name    string
		path    string
		want    string
		wantErr error
	}{
		{"existing", "data/form/form-content_default_get.json", `{"result":{"form":{}}}`, nil},
		{"leading slash", "/data/form/form-content_default_get.json", `{"result":{"form":{}}}`, nil},
		{"unclean path", "data/form/../form/form-content_default_get.json", `{"result":{"form":{}}}`, nil},
		{"missing", "data/form/form-missing.json", "", ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := r.Read(tt.path)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("Read() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if string(got) != tt.want {
				t.Errorf("Read() = %s, want %s", got, tt.want)
			}
		})
	}
}

func TestReadJSON(t *testing.T) {
	r := New(fstest.MapFS{
		"ok.json":     {Data: []byte(`{"result":{"response":{"id":"tnc"}}}`)},
		"broken.json": {Data: []byte(`{"result":`)},
	})

	type envelope struct {
		Result struct {
			Response struct {
				ID string `json:"id"`
			} `json:"response"`
		} `json:"result"`
	}

	got, err := ReadJSON[envelope](r, "ok.json")
	if err != nil {
		t.Fatalf("ReadJSON() error = %v", err)
	}
	if got.Result.Response.ID != "tnc" {
		t.Errorf("ReadJSON() = %+v", got)
	}

	if _, err := ReadJSON[envelope](r, "broken.json"); err == nil || errors.Is(err, ErrNotFound) {
		t.Errorf("ReadJSON(broken) error = %v, want decode error", err)
	}
	if _, err := ReadJSON[envelope](r, "missing.json"); !errors.Is(err, ErrNotFound) {
		t.Errorf("ReadJSON(missing) error = %v, want ErrNotFound", err)
	}
}

func TestDir(t *testing.T) {
	dir := t.TempDir()
	if err := os.WriteFile(filepath.Join(dir, "a.json"), []byte(`[]`), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := Dir(dir).Read("a.json")
	if err != nil || string(got) != "[]" {
		t.Errorf("Read() = %q, %v", got, err)
	}
}

func TestNew_NilPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("New(nil) should panic")
		}
	}()
	New(nil)
}
