package transcoder

import (
	"testing"

	"clipforge/fault"
)

func TestResolveScaleFixedMapping(t *testing.T) {
	cases := map[string]string{
		"240p":  "426:240",
		"360p":  "640:360",
		"480p":  "854:480",
		"720p":  "1280:720",
		"1080p": "1920:1080",
	}
	for tag, want := range cases {
		got, err := ResolveScale(tag)
		if err != nil {
			t.Fatalf("ResolveScale(%q) failed: %v", tag, err)
		}
		if got != want {
			t.Errorf("ResolveScale(%q) = %q, want %q", tag, got, want)
		}
		// Mapping is fixed across calls.
		again, _ := ResolveScale(tag)
		if again != got {
			t.Errorf("ResolveScale(%q) not stable: %q vs %q", tag, got, again)
		}
	}
}

func TestResolveScaleUnknownTag(t *testing.T) {
	for _, tag := range []string{"", "144p", "4k", "480"} {
		_, err := ResolveScale(tag)
		if err == nil {
			t.Errorf("ResolveScale(%q) should fail", tag)
			continue
		}
		if !fault.Is(err, fault.InvalidParameters) {
			t.Errorf("ResolveScale(%q): kind = %s, want INVALID_PARAMETERS", tag, fault.KindOf(err))
		}
	}
}

func TestBinPathFallsBackToPath(t *testing.T) {
	// With no override and no container binary present, the PATH name is
	// returned as-is.
	if got := BinPath("/nonexistent/ffmpeg-override"); got != "ffmpeg" && got != "/ffmpeg" {
		t.Errorf("BinPath = %q", got)
	}
}

func TestFormatSeconds(t *testing.T) {
	cases := map[float64]string{
		0:    "0",
		12.5: "12.5",
		6.2:  "6.2",
	}
	for in, want := range cases {
		if got := formatSeconds(in); got != want {
			t.Errorf("formatSeconds(%v) = %q, want %q", in, got, want)
		}
	}
}
