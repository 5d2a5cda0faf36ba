// Package transcoder invokes the native ffmpeg binary. Every transform takes
// explicit local input/output paths and returns the captured stderr on
// failure so the caller can surface it.
package transcoder

import (
	"bytes"
	"context"
	"os"
	"os/exec"
	"strings"

	"clipforge/fault"
	"clipforge/logger"
)

// FontsDir is baked into the container image alongside the binary; subtitle
// filters reference it for font resolution.
const FontsDir = "/assets"

// BinPath resolves the ffmpeg binary: explicit override first, then the
// container-root binary, then PATH lookup.
func BinPath(override string) string {
	if override != "" && isExecutable(override) {
		return override
	}
	if isExecutable("/ffmpeg") {
		return "/ffmpeg"
	}
	return "ffmpeg"
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir() && info.Mode()&0111 != 0
}

// run executes one ffmpeg invocation and returns its stderr output.
// A nil error with a missing output file is still a failure; callers check
// the output path between fallback attempts.
func run(ctx context.Context, bin string, args []string) (string, error) {
	logger.Debugf("ffmpeg: %s %s", bin, strings.Join(args, " "))

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, args...)
	cmd.Stderr = &stderr

	err := cmd.Run()
	return stderr.String(), err
}

// attempt runs one fallback tier and reports whether it produced the output.
func attempt(ctx context.Context, bin string, args []string, output string) (string, bool) {
	stderr, err := run(ctx, bin, args)
	if err != nil {
		return stderr, false
	}
	if _, statErr := os.Stat(output); statErr != nil {
		return stderr, false
	}
	return stderr, true
}

func transformFailed(stderr string) error {
	const maxDiag = 4096
	if len(stderr) > maxDiag {
		stderr = stderr[len(stderr)-maxDiag:]
	}
	return fault.Newf(fault.TransformFailed, "ffmpeg exited non-zero: %s", strings.TrimSpace(stderr))
}
