package storage

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"clipforge/config"
	"clipforge/fault"
)

func TestFetchObjectStoreNoMethodAvailable(t *testing.T) {
	r := NewResolver(config.StorageConfig{})
	loc := ObjectRef("bucket", "some/key.wav")

	err := r.FetchToFile(context.Background(), loc, filepath.Join(t.TempDir(), "out"))
	if err == nil {
		t.Fatal("expected error with no credentials and no public base")
	}
	if !fault.Is(err, fault.NoPresignMethod) {
		t.Errorf("kind = %s, want %s", fault.KindOf(err), fault.NoPresignMethod)
	}
}

func TestPublicFallbackRestrictedBucket(t *testing.T) {
	r := NewResolver(config.StorageConfig{
		PublicBaseURL: "https://pub.example.com",
		PublicBucket:  "allowed",
	})

	if _, err := r.publicURLFor(ObjectRef("other", "k")); !fault.Is(err, fault.NoPresignMethod) {
		t.Errorf("restricted fallback must reject other buckets, got %v", err)
	}

	url, err := r.publicURLFor(ObjectRef("allowed", "a/b.wav"))
	if err != nil {
		t.Fatalf("allowed bucket should resolve: %v", err)
	}
	if url != "https://pub.example.com/a/b.wav" {
		t.Errorf("url = %q", url)
	}
}

func TestPublicFallbackVideosBase(t *testing.T) {
	r := NewResolver(config.StorageConfig{
		VideosPublicBaseURL: "https://videos.example.com",
	})
	url, err := r.publicURLFor(ObjectRef("videos", "pipelines/j/x.wav"))
	if err != nil {
		t.Fatalf("unrestricted videos base should resolve: %v", err)
	}
	if url != "https://videos.example.com/pipelines/j/x.wav" {
		t.Errorf("url = %q", url)
	}
}

func TestFetchHTTPToFile(t *testing.T) {
	const body = "media-bytes"
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/clip.wav" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, body)
	}))
	defer srv.Close()

	r := NewResolver(config.StorageConfig{})
	dest := filepath.Join(t.TempDir(), "clip.wav")
	loc, err := ParseLocator(srv.URL + "/clip.wav")
	if err != nil {
		t.Fatalf("ParseLocator failed: %v", err)
	}
	if err := r.FetchToFile(context.Background(), loc, dest); err != nil {
		t.Fatalf("FetchToFile failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("reading fetched file: %v", err)
	}
	if string(data) != body {
		t.Errorf("fetched %q, want %q", data, body)
	}
}

func TestFetchHTTPStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusForbidden)
	}))
	defer srv.Close()

	r := NewResolver(config.StorageConfig{})
	loc := Locator{Kind: KindHTTP, URL: srv.URL + "/missing"}
	err := r.FetchToFile(context.Background(), loc, filepath.Join(t.TempDir(), "out"))
	if !fault.Is(err, fault.TransferFailed) {
		t.Errorf("expected TRANSFER_FAILED, got %v", err)
	}
}

func TestFetchObjectViaPublicBase(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/pipelines/j1/inputs/audio/master.wav" {
			http.NotFound(w, r)
			return
		}
		io.WriteString(w, "wav")
	}))
	defer srv.Close()

	r := NewResolver(config.StorageConfig{PublicBaseURL: srv.URL})
	dest := filepath.Join(t.TempDir(), "master.wav")
	loc := ObjectRef("videos", "pipelines/j1/inputs/audio/master.wav")
	if err := r.FetchToFile(context.Background(), loc, dest); err != nil {
		t.Fatalf("public fallback fetch failed: %v", err)
	}
}

func TestPresignedPutUploader(t *testing.T) {
	var received []byte
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPut {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		received, _ = io.ReadAll(r.Body)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	r := NewResolver(config.StorageConfig{})
	uploader, err := r.ResolveOutput(Presigned(srv.URL + "/out?X-Amz-Signature=sig"))
	if err != nil {
		t.Fatalf("ResolveOutput failed: %v", err)
	}

	local := filepath.Join(t.TempDir(), "out.bin")
	if err := os.WriteFile(local, []byte("payload"), 0644); err != nil {
		t.Fatal(err)
	}
	if err := uploader.Upload(context.Background(), local); err != nil {
		t.Fatalf("Upload failed: %v", err)
	}
	if string(received) != "payload" {
		t.Errorf("server received %q", received)
	}
}

func TestResolveOutputObjectStoreNeedsCredentials(t *testing.T) {
	r := NewResolver(config.StorageConfig{})
	_, err := r.ResolveOutput(ObjectRef("bucket", "key"))
	if !fault.Is(err, fault.NoPresignMethod) {
		t.Errorf("expected NO_PRESIGN_METHOD_AVAILABLE, got %v", err)
	}
}

func TestExistsViaPublicHead(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodHead {
			http.Error(w, "method", http.StatusMethodNotAllowed)
			return
		}
		if r.URL.Path == "/present.wav" {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	r := NewResolver(config.StorageConfig{PublicBaseURL: srv.URL})

	exists, err := r.Exists(context.Background(), ObjectRef("videos", "present.wav"))
	if err != nil || !exists {
		t.Errorf("present.wav: exists=%v err=%v, want true", exists, err)
	}
	exists, err = r.Exists(context.Background(), ObjectRef("videos", "absent.wav"))
	if err != nil || exists {
		t.Errorf("absent.wav: exists=%v err=%v, want false", exists, err)
	}
}

func TestExistsNoProbeSurface(t *testing.T) {
	r := NewResolver(config.StorageConfig{})
	_, err := r.Exists(context.Background(), ObjectRef("videos", "k"))
	if !fault.Is(err, fault.NoPresignMethod) {
		t.Errorf("expected NO_PRESIGN_METHOD_AVAILABLE, got %v", err)
	}
}
