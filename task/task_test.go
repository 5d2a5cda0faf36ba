package task

import (
	"strings"
	"testing"

	"clipforge/fault"
	"clipforge/storage"
)

func TestOutputLocatorPrecedence(t *testing.T) {
	// A presigned PUT URL wins even when an object URI is also present.
	loc, err := outputLocator("https://example.com/put?sig=abc", "s3://videos/out.mp4")
	if err != nil {
		t.Fatalf("outputLocator failed: %v", err)
	}
	if loc.Kind != storage.KindPresigned {
		t.Errorf("kind = %v, want KindPresigned", loc.Kind)
	}
	if loc.URL != "https://example.com/put?sig=abc" {
		t.Errorf("url = %q", loc.URL)
	}
}

func TestOutputLocatorURIOnly(t *testing.T) {
	loc, err := outputLocator("", "s3://videos/pipelines/j/out.mp4")
	if err != nil {
		t.Fatalf("outputLocator failed: %v", err)
	}
	if loc.Kind != storage.KindObjectStore || loc.Bucket != "videos" {
		t.Errorf("locator = %+v", loc)
	}
}

func TestOutputLocatorNeither(t *testing.T) {
	_, err := outputLocator("", "")
	if !fault.Is(err, fault.InvalidParameters) {
		t.Errorf("missing output must be INVALID_PARAMETERS, got %v", err)
	}
}

func TestDecodeParamsMalformed(t *testing.T) {
	exec := newTestExecutor(&stubTranscoder{})

	var p AudioTrimParams
	err := decodeParams([]byte(`{"start_sec": "twelve"}`), exec.validate, &p)
	if !fault.Is(err, fault.InvalidParameters) {
		t.Errorf("malformed JSON must be INVALID_PARAMETERS, got %v", err)
	}

	err = decodeParams(nil, exec.validate, &p)
	if !fault.Is(err, fault.InvalidParameters) {
		t.Errorf("missing parameters must be INVALID_PARAMETERS, got %v", err)
	}
}

func TestInvalidFieldsMessage(t *testing.T) {
	exec := newTestExecutor(&stubTranscoder{})
	var p DownsamplingParams
	err := decodeParams([]byte(`{}`), exec.validate, &p)
	if err == nil {
		t.Fatal("expected validation error")
	}
	msg := err.Error()
	for _, want := range []string{"OriginalVideoURI", "Resolution", "is required"} {
		if !strings.Contains(msg, want) {
			t.Errorf("error %q missing %q", msg, want)
		}
	}
}
