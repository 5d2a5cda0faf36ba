package pipeline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"clipforge/config"
	"clipforge/fault"
	"clipforge/storage"
)

func probeServer(present map[string]bool) *httptest.Server {
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		if present[r.URL.Path] {
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
}

func TestStatusPartialReadiness(t *testing.T) {
	srv := probeServer(map[string]bool{
		"/" + SegmentKey("job-123", 0): true,
	})
	defer srv.Close()

	cfg := config.StorageConfig{
		VideosBucket:        "videos",
		VideosPublicBaseURL: srv.URL,
		VideosPublicBucket:  "videos",
	}
	prober := NewProber(cfg, storage.NewResolver(cfg))

	report, err := prober.Status(context.Background(), "job-123", 2)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Ready != 1 || report.Total != 2 {
		t.Errorf("ready/total = %d/%d, want 1/2", report.Ready, report.Total)
	}
	want := []bool{true, false}
	for i, v := range want {
		if report.PerIndex[i] != v {
			t.Errorf("per_index[%d] = %v, want %v", i, report.PerIndex[i], v)
		}
	}
}

func TestStatusDefaultProbeRange(t *testing.T) {
	srv := probeServer(nil)
	defer srv.Close()

	cfg := config.StorageConfig{
		VideosBucket:        "videos",
		VideosPublicBaseURL: srv.URL,
		VideosPublicBucket:  "videos",
	}
	prober := NewProber(cfg, storage.NewResolver(cfg))

	report, err := prober.Status(context.Background(), "job-123", 0)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Total != config.DefaultProbeRange {
		t.Errorf("total = %d, want %d", report.Total, config.DefaultProbeRange)
	}
	if report.Ready != 0 || len(report.PerIndex) != config.DefaultProbeRange {
		t.Errorf("ready = %d, len(per_index) = %d", report.Ready, len(report.PerIndex))
	}
}

func TestStatusAllReady(t *testing.T) {
	present := map[string]bool{}
	for i := 0; i < 3; i++ {
		present["/"+SegmentKey("job-7", i)] = true
	}
	srv := probeServer(present)
	defer srv.Close()

	cfg := config.StorageConfig{
		VideosBucket:        "videos",
		VideosPublicBaseURL: srv.URL,
		VideosPublicBucket:  "videos",
	}
	prober := NewProber(cfg, storage.NewResolver(cfg))

	report, err := prober.Status(context.Background(), "job-7", 3)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if report.Ready != 3 {
		t.Errorf("ready = %d, want 3", report.Ready)
	}
}

func TestStatusNoProbeSurface(t *testing.T) {
	cfg := config.StorageConfig{VideosBucket: "videos"}
	prober := NewProber(cfg, storage.NewResolver(cfg))

	_, err := prober.Status(context.Background(), "job-1", 2)
	if !fault.Is(err, fault.NoPresignMethod) {
		t.Errorf("kind = %v, want NO_PRESIGN_METHOD_AVAILABLE", err)
	}
}

func TestStatusInvalidJobID(t *testing.T) {
	cfg := config.StorageConfig{VideosBucket: "videos"}
	prober := NewProber(cfg, storage.NewResolver(cfg))

	_, err := prober.Status(context.Background(), "a/b", 2)
	if !fault.Is(err, fault.InvalidParameters) {
		t.Errorf("kind = %v, want INVALID_PARAMETERS", err)
	}
}
