package transcoder

import (
	"context"

	"clipforge/logger"
)

// EncodeParams drives the composite mux of a video track, an audio track and
// optional burned-in subtitles.
type EncodeParams struct {
	InputVideo string
	InputAudio string
	Subtitles  string // .ass file, only read when SubtitlesEnabled
	Output     string

	SubtitlesEnabled bool
	Matroska         bool
}

// Encode muxes audio and video into the output, burning subtitles in when
// enabled. It walks a three-tier fallback ladder: full GPU decode+filter+
// encode, software filters with NVENC, then pure libx264.
func Encode(ctx context.Context, bin string, p EncodeParams) error {
	subtitleFilter := "ass=" + p.Subtitles + ":fontsdir=" + FontsDir

	// Tier 1: NVDEC decode, CUDA-side filters, NVENC encode.
	gpuArgs := []string{"-hwaccel", "nvdec", "-hwaccel_output_format", "cuda",
		"-i", p.InputVideo, "-i", p.InputAudio}
	if p.SubtitlesEnabled {
		gpuArgs = append(gpuArgs, "-vf", subtitleFilter+",hwupload_cuda")
	}
	gpuArgs = append(gpuArgs, containerArgs(p.Matroska)...)
	gpuArgs = append(gpuArgs, "-map", "0:v", "-map", "1:a", "-c:v", "h264_nvenc", "-c:a", "aac", p.Output)

	stderr, ok := attempt(ctx, bin, gpuArgs, p.Output)
	if ok {
		return nil
	}
	logger.Warnf("GPU encode pipeline failed, retrying with software filters + NVENC: %s", tail(stderr))

	// Tier 2: software decode and filters, NVENC encode.
	swArgs := []string{"-i", p.InputVideo, "-i", p.InputAudio}
	if p.SubtitlesEnabled {
		swArgs = append(swArgs, "-vf", subtitleFilter)
	}
	swArgs = append(swArgs, containerArgs(p.Matroska)...)
	swArgs = append(swArgs, "-map", "0:v", "-map", "1:a", "-c:v", "h264_nvenc", "-c:a", "aac", p.Output)

	stderr, ok = attempt(ctx, bin, swArgs, p.Output)
	if ok {
		return nil
	}
	logger.Warnf("NVENC unavailable or failed, retrying with libx264: %s", tail(stderr))

	// Tier 3: libx264, no hardware requirements.
	cpuArgs := []string{"-i", p.InputVideo, "-i", p.InputAudio}
	if p.SubtitlesEnabled {
		cpuArgs = append(cpuArgs, "-vf", subtitleFilter)
	}
	cpuArgs = append(cpuArgs, containerArgs(p.Matroska)...)
	cpuArgs = append(cpuArgs, "-map", "0:v", "-map", "1:a", "-c:v", "libx264", "-c:a", "aac", p.Output)

	stderr, ok = attempt(ctx, bin, cpuArgs, p.Output)
	if !ok {
		return transformFailed(stderr)
	}
	return nil
}

func containerArgs(matroska bool) []string {
	if matroska {
		return []string{"-f", "matroska"}
	}
	return nil
}

func tail(s string) string {
	const n = 512
	if len(s) > n {
		return s[len(s)-n:]
	}
	return s
}
