package warmup

import (
	"context"
	"errors"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	promtest "github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Sternrassler/learn-cache/internal/testutil"
	"github.com/Sternrassler/learn-cache/pkg/api"
	"github.com/Sternrassler/learn-cache/pkg/cacheditem"
	"github.com/Sternrassler/learn-cache/pkg/form"
	"github.com/Sternrassler/learn-cache/pkg/kvstore"
	"github.com/Sternrassler/learn-cache/pkg/systemsettings"
)

func countingJob(name string, running, peak *int32, err error) Job {
	return Job{
		Name: name,
		Run: func(ctx context.Context) error {
			n := atomic.AddInt32(running, 1)
			for {
				p := atomic.LoadInt32(peak)
				if n <= p || atomic.CompareAndSwapInt32(peak, p, n) {
					break
				}
			}
			time.Sleep(10 * time.Millisecond)
			atomic.AddInt32(running, -1)
			return err
		},
	}
}

func TestWarmer_RespectsConcurrency(t *testing.T) {
	var running, peak int32
	jobs := make([]Job, 10)
	for i := range jobs {
		jobs[i] = countingJob("job", &running, &peak, nil)
	}

	w := NewWarmer(jobs, Config{Concurrency: 3, Timeout: time.Second})
	if err := w.Run(context.Background()); err != nil {
		t.Fatalf("Run() error = %v", err)
	}
	if peak > 3 {
		t.Errorf("peak concurrency = %d, want <= 3", peak)
	}
	if peak == 0 {
		t.Error("no job ran")
	}
}

func TestWarmer_JoinsJobErrors(t *testing.T) {
	var running, peak int32
	errA := errors.New("a failed")
	errB := errors.New("b failed")

	w := NewWarmer([]Job{
		countingJob("a", &running, &peak, errA),
		countingJob("ok", &running, &peak, nil),
		countingJob("b", &running, &peak, errB),
	}, DefaultConfig())

	err := w.Run(context.Background())
	if !errors.Is(err, errA) || !errors.Is(err, errB) {
		t.Fatalf("Run() error = %v, want both job errors", err)
	}
	if strings.Contains(err.Error(), "ok:") {
		t.Errorf("successful job reported as failed: %v", err)
	}
}

func TestWarmer_JobTimeout(t *testing.T) {
	w := NewWarmer([]Job{{
		Name: "slow",
		Run: func(ctx context.Context) error {
			<-ctx.Done()
			return ctx.Err()
		},
	}}, Config{Concurrency: 1, Timeout: 20 * time.Millisecond})

	if err := w.Run(context.Background()); !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("Run() error = %v, want deadline exceeded", err)
	}
}

func TestWarmer_CancelledContext(t *testing.T) {
	var ran int32
	jobs := []Job{{Name: "x", Run: func(context.Context) error {
		atomic.AddInt32(&ran, 1)
		return nil
	}}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := NewWarmer(jobs, DefaultConfig()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("Run() error = %v, want context.Canceled", err)
	}
	if ran != 0 {
		t.Errorf("jobs ran = %d, want 0", ran)
	}
}

func TestJobs_RefreshThroughServices(t *testing.T) {
	mock := testutil.NewMockPlatform()
	defer mock.Close()
	mock.SetResponse("/data/v1/form/read", testutil.NewResultResponse(`{"form":{"fields":[]}}`))
	mock.SetResponse("/data/v1/system/settings/read/tncConfig",
		testutil.NewResultResponse(`{"response":{"id":"tncConfig","value":"v4"}}`))

	client, err := api.New(api.DefaultConfig(mock.URL()))
	if err != nil {
		t.Fatal(err)
	}
	mem := kvstore.NewMemoryStore()
	store := cacheditem.New(mem, nil, cacheditem.DefaultConfig())

	forms := form.NewService(client, nil, store, form.Config{APIPath: "/data/v1/form"})
	settings := systemsettings.NewService(client, nil, store, systemsettings.Config{APIPath: "/data/v1/system/settings"})

	req := form.Request{Type: "profileConfig", SubType: "default", Action: "get"}
	w := NewWarmer([]Job{
		FormJob(forms, req),
		SettingsJob(settings, "tncConfig"),
	}, DefaultConfig())

	for i := 0; i < 2; i++ {
		if err := w.Run(context.Background()); err != nil {
			t.Fatalf("Run() error = %v", err)
		}
	}

	// Jobs call the API on every run.
	if got := mock.RequestCount(); got != 4 {
		t.Errorf("API calls = %d, want 4", got)
	}
	ctx := context.Background()
	for _, key := range []string{"form-profileConfig_default_get", "system-settings-tncConfig"} {
		if _, found, _ := mem.GetValue(ctx, key); !found {
			t.Errorf("%s not stored", key)
		}
	}
	if got := FormJob(forms, req).Name; got != "form-profileConfig_default_get" {
		t.Errorf("FormJob name = %q", got)
	}
}

func TestJobs_FailWhenPlatformFails(t *testing.T) {
	const formPath = "/data/v1/form/read"
	mock := testutil.NewMockPlatform()
	defer mock.Close()
	mock.SetResponse(formPath, testutil.NewResultResponse(`{"form":{"version":1}}`))

	cfg := api.DefaultConfig(mock.URL())
	cfg.Retry = api.RetryConfig{MaxAttempts: 1, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond, BackoffMultiplier: 1}
	client, err := api.New(cfg)
	if err != nil {
		t.Fatal(err)
	}
	mem := kvstore.NewMemoryStore()
	forms := form.NewService(client, nil, cacheditem.New(mem, nil, cacheditem.DefaultConfig()), form.Config{APIPath: "/data/v1/form"})
	w := NewWarmer([]Job{
		FormJob(forms, form.Request{Type: "profileConfig", SubType: "default", Action: "get"}),
	}, DefaultConfig())
	ctx := context.Background()

	if err := w.Run(ctx); err != nil {
		t.Fatalf("first Run() error = %v", err)
	}

	mock.SetResponse(formPath, testutil.NewServerErrorResponse())
	okBefore := promtest.ToFloat64(JobsTotal.WithLabelValues("ok"))
	errBefore := promtest.ToFloat64(JobsTotal.WithLabelValues("error"))

	if err := w.Run(ctx); err == nil {
		t.Error("Run() should fail when the platform answers 500")
	}
	if got := promtest.ToFloat64(JobsTotal.WithLabelValues("ok")) - okBefore; got != 0 {
		t.Errorf("ok jobs = %v, want 0", got)
	}
	if got := promtest.ToFloat64(JobsTotal.WithLabelValues("error")) - errBefore; got != 1 {
		t.Errorf("failed jobs = %v, want 1", got)
	}
	if got := mock.PathCount(formPath); got != 2 {
		t.Errorf("API calls = %d, want 2", got)
	}
	value, _, _ := mem.GetValue(ctx, "form-profileConfig_default_get")
	if value != `{"version":1}` {
		t.Errorf("stored form = %q, want it unchanged", value)
	}
}
