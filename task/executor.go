package task

import (
	"context"
	"os"
	"path/filepath"

	"github.com/go-playground/validator/v10"

	"clipforge/fault"
	"clipforge/logger"
	"clipforge/storage"
	"clipforge/transcoder"
)

// Transcoder is the native transform boundary: explicit local input/output
// paths in, success or captured diagnostics out.
type Transcoder interface {
	Encode(ctx context.Context, p transcoder.EncodeParams) error
	Downsample(ctx context.Context, input, output, tag string) error
	Trim(ctx context.Context, input, output string, startSec, durationSec float64) error
}

type ffmpegTranscoder struct {
	bin string
}

func (f ffmpegTranscoder) Encode(ctx context.Context, p transcoder.EncodeParams) error {
	return transcoder.Encode(ctx, f.bin, p)
}

func (f ffmpegTranscoder) Downsample(ctx context.Context, input, output, tag string) error {
	return transcoder.Downsample(ctx, f.bin, input, output, tag)
}

func (f ffmpegTranscoder) Trim(ctx context.Context, input, output string, startSec, durationSec float64) error {
	return transcoder.Trim(ctx, f.bin, input, output, startSec, durationSec)
}

// Result reports a finished task. Exactly one output object (or presigned
// file) exists on success; nothing was written on failure.
type Result struct {
	ID        string `json:"id,omitempty"`
	State     State  `json:"status"`
	OutputURI string `json:"output_uri,omitempty"`
}

type Executor struct {
	resolver *storage.Resolver
	trans    Transcoder
	validate *validator.Validate
}

// NewExecutor builds an executor backed by the ffmpeg binary. ffmpegBin may
// be empty, in which case the binary is discovered at invocation.
func NewExecutor(resolver *storage.Resolver, ffmpegBin string) *Executor {
	return &Executor{
		resolver: resolver,
		trans:    ffmpegTranscoder{bin: transcoder.BinPath(ffmpegBin)},
		validate: validator.New(),
	}
}

// NewExecutorWith injects a Transcoder, used by tests and by deployments
// that wrap the native step.
func NewExecutorWith(resolver *storage.Resolver, trans Transcoder) *Executor {
	return &Executor{resolver: resolver, trans: trans, validate: validator.New()}
}

// Execute runs one task synchronously end to end:
// RECEIVED → INPUTS_RESOLVING → TRANSFORMING → OUTPUT_UPLOADING → DONE.
// Temporary files are scoped to this invocation and removed on every path.
func (e *Executor) Execute(ctx context.Context, payload Payload) (Result, error) {
	logger.Infof("task received: %s", payload.Task)

	switch payload.Task {
	case Encoding:
		return e.execEncoding(ctx, payload.Parameters)
	case Downsampling:
		return e.execDownsampling(ctx, payload.Parameters)
	case AudioTrim:
		return e.execAudioTrim(ctx, payload.Parameters)
	case StageObject:
		return e.execStageObject(ctx, payload.Parameters)
	default:
		return Result{State: StateFailed},
			fault.Newf(fault.InvalidParameters, "unknown task type %q", payload.Task)
	}
}

func (e *Executor) execEncoding(ctx context.Context, raw []byte) (Result, error) {
	var p EncodingParams
	if err := decodeParams(raw, e.validate, &p); err != nil {
		return Result{State: StateFailed}, err
	}

	videoLoc, audioLoc, subsLoc, outLoc, err := encodingLocators(p)
	if err != nil {
		return Result{ID: p.ID, State: StateFailed}, err
	}
	uploader, err := e.resolver.ResolveOutput(outLoc)
	if err != nil {
		return Result{ID: p.ID, State: StateFailed}, err
	}

	tmpDir, err := os.MkdirTemp("", "clipforge-encode-")
	if err != nil {
		return Result{ID: p.ID, State: StateFailed}, fault.Wrap(err, fault.TransferFailed, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	lang := p.Language
	if lang == "" {
		lang = "en"
	}
	inputVideo := filepath.Join(tmpDir, "video.mp4")
	inputAudio := filepath.Join(tmpDir, "exported_with_music.wav")
	subtitleFile := filepath.Join(tmpDir, "subtitles_"+lang+".ass")
	outputVideo := filepath.Join(tmpDir, "exported_video.mp4")

	logger.Debugf("encoding %s: resolving inputs", p.ID)
	if err := e.resolver.FetchToFile(ctx, videoLoc, inputVideo); err != nil {
		return Result{ID: p.ID, State: StateFailed}, err
	}
	if err := e.resolver.FetchToFile(ctx, audioLoc, inputAudio); err != nil {
		return Result{ID: p.ID, State: StateFailed}, err
	}
	if p.Subtitles {
		if err := e.resolver.FetchToFile(ctx, subsLoc, subtitleFile); err != nil {
			return Result{ID: p.ID, State: StateFailed}, err
		}
	}

	logger.Debugf("encoding %s: transforming", p.ID)
	err = e.trans.Encode(ctx, transcoder.EncodeParams{
		InputVideo:       inputVideo,
		InputAudio:       inputAudio,
		Subtitles:        subtitleFile,
		Output:           outputVideo,
		SubtitlesEnabled: p.Subtitles,
		Matroska:         p.Matroska,
	})
	if err != nil {
		return Result{ID: p.ID, State: StateFailed}, err
	}

	logger.Debugf("encoding %s: uploading output", p.ID)
	if err := uploader.Upload(ctx, outputVideo); err != nil {
		return Result{ID: p.ID, State: StateFailed}, err
	}

	logger.Infof("encoding %s done: %s", p.ID, uploader.Destination())
	return Result{ID: p.ID, State: StateDone, OutputURI: uploader.Destination()}, nil
}

// encodingLocators resolves the two input shapes (explicit URIs vs legacy
// bucket layout) into locators, validating that everything required is
// addressable before any network call.
func encodingLocators(p EncodingParams) (video, audio, subs, out storage.Locator, err error) {
	if p.InputVideoURI != "" && p.InputAudioURI != "" {
		if video, err = storage.ParseLocator(p.InputVideoURI); err != nil {
			return
		}
		if audio, err = storage.ParseLocator(p.InputAudioURI); err != nil {
			return
		}
		if p.Subtitles {
			if p.SubtitlesURI == "" {
				err = fault.New(fault.InvalidParameters, "subtitles_uri is required when subtitles is true")
				return
			}
			if subs, err = storage.ParseLocator(p.SubtitlesURI); err != nil {
				return
			}
		}
	} else {
		videoName := p.InputVideoName
		if videoName == "" {
			videoName = "video.mp4"
		}
		if video, err = storage.LegacyObjectRef(p.Bucket, p.BucketParentFolder, p.ID, videoName); err != nil {
			return
		}
		if audio, err = storage.LegacyObjectRef(p.Bucket, p.BucketParentFolder, p.ID, "exported_with_music.wav"); err != nil {
			return
		}
		if p.Subtitles {
			lang := p.Language
			if lang == "" {
				lang = "en"
			}
			if subs, err = storage.LegacyObjectRef(p.Bucket, p.BucketParentFolder, p.ID, "subtitles_"+lang+".ass"); err != nil {
				return
			}
		}
	}

	if p.OutputPutURL != "" || p.OutputVideoURI != "" {
		out, err = outputLocator(p.OutputPutURL, p.OutputVideoURI)
		return
	}
	name := p.Name
	if name == "" {
		name = "exported_video.mp4"
	}
	out, err = storage.LegacyObjectRef(p.Bucket, p.BucketParentFolder, p.ID, name)
	return
}

func (e *Executor) execDownsampling(ctx context.Context, raw []byte) (Result, error) {
	var p DownsamplingParams
	if err := decodeParams(raw, e.validate, &p); err != nil {
		return Result{State: StateFailed}, err
	}

	// Reject unknown resolution tags before resolving anything.
	if _, err := transcoder.ResolveScale(p.Resolution); err != nil {
		return Result{State: StateFailed}, err
	}

	inLoc, err := storage.ParseLocator(p.OriginalVideoURI)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	outLoc, err := outputLocator(p.OutputPutURL, p.OutputVideoURI)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	uploader, err := e.resolver.ResolveOutput(outLoc)
	if err != nil {
		return Result{State: StateFailed}, err
	}

	tmpDir, err := os.MkdirTemp("", "clipforge-downsample-")
	if err != nil {
		return Result{State: StateFailed}, fault.Wrap(err, fault.TransferFailed, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "video.mp4")
	output := filepath.Join(tmpDir, "output.mp4")

	if err := e.resolver.FetchToFile(ctx, inLoc, input); err != nil {
		return Result{State: StateFailed}, err
	}
	if err := e.trans.Downsample(ctx, input, output, p.Resolution); err != nil {
		return Result{State: StateFailed}, err
	}
	if err := uploader.Upload(ctx, output); err != nil {
		return Result{State: StateFailed}, err
	}

	logger.Infof("downsampling to %s done: %s", p.Resolution, uploader.Destination())
	return Result{State: StateDone, OutputURI: uploader.Destination()}, nil
}

func (e *Executor) execAudioTrim(ctx context.Context, raw []byte) (Result, error) {
	var p AudioTrimParams
	if err := decodeParams(raw, e.validate, &p); err != nil {
		return Result{State: StateFailed}, err
	}

	inLoc, err := storage.ParseLocator(p.SourceURI)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	outLoc, err := outputLocator(p.OutputPutURL, p.OutputVideoURI)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	uploader, err := e.resolver.ResolveOutput(outLoc)
	if err != nil {
		return Result{State: StateFailed}, err
	}

	tmpDir, err := os.MkdirTemp("", "clipforge-trim-")
	if err != nil {
		return Result{State: StateFailed}, fault.Wrap(err, fault.TransferFailed, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	input := filepath.Join(tmpDir, "source"+extOrDefault(inLoc, ".wav"))
	output := filepath.Join(tmpDir, "segment.wav")

	if err := e.resolver.FetchToFile(ctx, inLoc, input); err != nil {
		return Result{State: StateFailed}, err
	}
	if err := e.trans.Trim(ctx, input, output, p.StartSec, p.DurationSec); err != nil {
		return Result{State: StateFailed}, err
	}
	if err := uploader.Upload(ctx, output); err != nil {
		return Result{State: StateFailed}, err
	}

	logger.Infof("audio trim [%g, +%g) done: %s", p.StartSec, p.DurationSec, uploader.Destination())
	return Result{State: StateDone, OutputURI: uploader.Destination()}, nil
}

// execStageObject copies a source into a destination with no transform.
// Staging the same source to the same destination twice writes identical
// bytes, so the operation is idempotent.
func (e *Executor) execStageObject(ctx context.Context, raw []byte) (Result, error) {
	var p StageObjectParams
	if err := decodeParams(raw, e.validate, &p); err != nil {
		return Result{State: StateFailed}, err
	}

	inLoc, err := storage.ParseLocator(p.SourceURI)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	outLoc, err := outputLocator(p.OutputPutURL, p.DestinationURI)
	if err != nil {
		return Result{State: StateFailed}, err
	}
	uploader, err := e.resolver.ResolveOutput(outLoc)
	if err != nil {
		return Result{State: StateFailed}, err
	}

	tmpDir, err := os.MkdirTemp("", "clipforge-stage-")
	if err != nil {
		return Result{State: StateFailed}, fault.Wrap(err, fault.TransferFailed, "failed to create temp dir")
	}
	defer os.RemoveAll(tmpDir)

	local := filepath.Join(tmpDir, "object")
	if err := e.resolver.FetchToFile(ctx, inLoc, local); err != nil {
		return Result{State: StateFailed}, err
	}
	if err := uploader.Upload(ctx, local); err != nil {
		return Result{State: StateFailed}, err
	}

	logger.Infof("staged %s to %s", inLoc, uploader.Destination())
	return Result{State: StateDone, OutputURI: uploader.Destination()}, nil
}

func extOrDefault(loc storage.Locator, def string) string {
	name := loc.Filename()
	if ext := filepath.Ext(name); ext != "" {
		return ext
	}
	return def
}
