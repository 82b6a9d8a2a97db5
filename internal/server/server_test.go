package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/assets"
	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/form"
	"github.com/Sternrassler/learn-cache/pkg/systemsettings"
)

type recorded struct {
	form     form.Request
	settings systemsettings.Request
}

func newTestServer(formErr, settingsErr error) (*Server, *recorded) {
	rec := &recorded{}
	forms := api.HandlerFunc[form.Request, form.Form](func(ctx context.Context, req form.Request) (form.Form, error) {
		rec.form = req
		if formErr != nil {
			return nil, formErr
		}
		return form.Form{"id": req.ID()}, nil
	})
	settings := api.HandlerFunc[systemsettings.Request, systemsettings.SystemSettings](func(ctx context.Context, req systemsettings.Request) (systemsettings.SystemSettings, error) {
		rec.settings = req
		if settingsErr != nil {
			return systemsettings.SystemSettings{}, settingsErr
		}
		return systemsettings.SystemSettings{ID: req.ID, Value: "v"}, nil
	})
	return New(forms, settings, Config{}), rec
}

func do(t *testing.T, h http.Handler, target string) (*http.Response, string) {
	t.Helper()
	w := httptest.NewRecorder()
	h.ServeHTTP(w, httptest.NewRequest(http.MethodGet, target, nil))
	resp := w.Result()
	body, _ := io.ReadAll(resp.Body)
	return resp, string(body)
}

func TestHealthEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	resp, body := do(t, s.Handler(), "/health")

	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("health = %d %q", resp.StatusCode, body)
	}
}

func TestMetricsEndpoint(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	resp, body := do(t, s.Handler(), "/metrics")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("metrics status = %d", resp.StatusCode)
	}
	if !strings.Contains(body, "go_goroutines") {
		t.Error("metrics output should contain runtime metrics")
	}
}

func TestGetForm(t *testing.T) {
	tests := []struct {
		name       string
		target     string
		handlerErr error
		wantStatus int
		wantBody   string
		wantFrom   cacheditem.Source
	}{
		{
			name:       "cache first",
			target:     "/v1/forms/profileConfig/default/get?rootOrgId=org",
			wantStatus: http.StatusOK,
			wantBody:   `{"form":{"id":"profileConfig_default_get"}}`,
			wantFrom:   cacheditem.SourceCache,
		},
		{
			name:       "network first",
			target:     "/v1/forms/profileConfig/default/get?from=server",
			wantStatus: http.StatusOK,
			wantFrom:   cacheditem.SourceServer,
		},
		{
			name:       "unknown source",
			target:     "/v1/forms/profileConfig/default/get?from=disk",
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "missing form",
			target:     "/v1/forms/a/b/c",
			handlerErr: fmt.Errorf("get form a_b_c: %w", assets.ErrNotFound),
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "platform 404",
			target:     "/v1/forms/a/b/c",
			handlerErr: &api.APIError{StatusCode: 404, ErrorClass: api.ErrorClassClient},
			wantStatus: http.StatusNotFound,
		},
		{
			name:       "platform down",
			target:     "/v1/forms/a/b/c",
			handlerErr: fmt.Errorf("get form: %w", api.ErrRetryExhausted),
			wantStatus: http.StatusBadGateway,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, rec := newTestServer(tt.handlerErr, nil)
			resp, body := do(t, s.Handler(), tt.target)

			if resp.StatusCode != tt.wantStatus {
				t.Fatalf("status = %d, want %d (body %s)", resp.StatusCode, tt.wantStatus, body)
			}
			if tt.wantBody != "" && body != tt.wantBody {
				t.Errorf("body = %s, want %s", body, tt.wantBody)
			}
			if tt.wantStatus == http.StatusOK && rec.form.From != tt.wantFrom {
				t.Errorf("From = %q, want %q", rec.form.From, tt.wantFrom)
			}
		})
	}
}

func TestGetForm_PassesQueryFields(t *testing.T) {
	s, rec := newTestServer(nil, nil)
	do(t, s.Handler(), "/v1/forms/user/tenant/get?component=app&rootOrgId=org-1&framework=fw")

	want := form.Request{Type: "user", SubType: "tenant", Action: "get", Component: "app", RootOrgID: "org-1", Framework: "fw", From: cacheditem.SourceCache}
	if rec.form != want {
		t.Errorf("request = %+v, want %+v", rec.form, want)
	}
}

func TestGetSystemSettings(t *testing.T) {
	s, rec := newTestServer(nil, nil)
	resp, body := do(t, s.Handler(), "/v1/system-settings/tncConfig?from=server")

	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if body != `{"response":{"id":"tncConfig","field":"","value":"v"}}` {
		t.Errorf("body = %s", body)
	}
	if rec.settings.From != cacheditem.SourceServer {
		t.Errorf("From = %q", rec.settings.From)
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{assets.ErrNotFound, http.StatusNotFound},
		{context.DeadlineExceeded, http.StatusGatewayTimeout},
		{errors.New("boom"), http.StatusBadGateway},
	}
	for _, tt := range tests {
		if got := statusFor(tt.err); got != tt.want {
			t.Errorf("statusFor(%v) = %d, want %d", tt.err, got, tt.want)
		}
	}
}

func TestServe_GracefulShutdown(t *testing.T) {
	s, _ := newTestServer(nil, nil)
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- s.Serve(ctx, ln) }()

	resp, err := http.Get("http://" + ln.Addr().String() + "/health")
	if err != nil {
		t.Fatalf("GET /health error = %v", err)
	}
	resp.Body.Close()

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Errorf("Serve() error = %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("Serve() did not return after cancel")
	}
}
