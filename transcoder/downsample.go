package transcoder

import (
	"context"
	"fmt"

	"clipforge/fault"
	"clipforge/logger"
)

// resolutions is the closed map of nominal-height tags to target dimensions.
// Widths are the even 16:9 values the h264 encoders require. Unknown tags
// are rejected, never defaulted.
var resolutions = map[string][2]int{
	"240p":  {426, 240},
	"360p":  {640, 360},
	"480p":  {854, 480},
	"720p":  {1280, 720},
	"1080p": {1920, 1080},
}

// ResolveScale maps a resolution tag to an ffmpeg scale expression.
func ResolveScale(tag string) (string, error) {
	dims, ok := resolutions[tag]
	if !ok {
		return "", fault.Newf(fault.InvalidParameters, "unknown resolution tag %q", tag)
	}
	return fmt.Sprintf("%d:%d", dims[0], dims[1]), nil
}

// Downsample rescales the input to the tag's dimensions with the same
// fallback ladder as Encode: CUDA scale + NVENC, software scale + NVENC,
// software scale + libx264.
func Downsample(ctx context.Context, bin, input, output, tag string) error {
	scale, err := ResolveScale(tag)
	if err != nil {
		return err
	}

	gpuArgs := []string{"-hwaccel", "cuvid", "-hwaccel_output_format", "cuda",
		"-i", input, "-vcodec", "h264_nvenc", "-vf", "scale_cuda=" + scale, "-cq", "26", output}
	stderr, ok := attempt(ctx, bin, gpuArgs, output)
	if ok {
		return nil
	}
	logger.Warnf("GPU scale failed or output missing, falling back to software scale: %s", tail(stderr))

	swArgs := []string{"-i", input, "-vf", "scale=" + scale, "-c:v", "h264_nvenc", "-cq", "26", output}
	stderr, ok = attempt(ctx, bin, swArgs, output)
	if ok {
		return nil
	}
	logger.Warnf("NVENC encode failed, falling back to libx264: %s", tail(stderr))

	cpuArgs := []string{"-i", input, "-vf", "scale=" + scale, "-c:v", "libx264", "-crf", "23", output}
	stderr, ok = attempt(ctx, bin, cpuArgs, output)
	if !ok {
		return transformFailed(stderr)
	}
	return nil
}
