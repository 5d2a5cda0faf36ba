package transcoder

import (
	"context"
	"strconv"
)

// Trim extracts the [start, start+duration) window of the source audio into
// a PCM wav. A window extending past end-of-stream truncates there; ffmpeg
// stops at EOF rather than erroring.
func Trim(ctx context.Context, bin, input, output string, startSec, durationSec float64) error {
	args := []string{
		"-ss", formatSeconds(startSec),
		"-t", formatSeconds(durationSec),
		"-i", input,
		"-vn", "-acodec", "pcm_s16le",
		output,
	}
	stderr, ok := attempt(ctx, bin, args, output)
	if !ok {
		return transformFailed(stderr)
	}
	return nil
}

func formatSeconds(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
