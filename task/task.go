// Package task maps a task type to its resolve → transform → upload
// sequence with task-specific parameter validation.
package task

import (
	"encoding/json"
	"strings"

	"github.com/go-playground/validator/v10"

	"clipforge/fault"
	"clipforge/storage"
)

type Type string

const (
	Encoding     Type = "ENCODING"
	Downsampling Type = "DOWNSAMPLING"
	AudioTrim    Type = "AUDIO_TRIM"
	StageObject  Type = "STAGE_OBJECT"
)

// State is the per-task execution state. FAILED is reachable from any of
// the first three working states; the upload step only begins once the
// transform has fully succeeded.
type State string

const (
	StateReceived        State = "RECEIVED"
	StateInputsResolving State = "INPUTS_RESOLVING"
	StateTransforming    State = "TRANSFORMING"
	StateOutputUploading State = "OUTPUT_UPLOADING"
	StateDone            State = "DONE"
	StateFailed          State = "FAILED"
)

// Payload is the job submission body: a task type plus type-specific
// parameters, immutable once dispatched.
type Payload struct {
	Task       Type            `json:"task"`
	Parameters json.RawMessage `json:"parameters"`
}

// EncodingParams drive the composite audio/video mux. Inputs are addressed
// either by explicit URIs or by the legacy bucket/bucket_parent_folder
// shape, which is normalized into object-store locators before
// classification.
type EncodingParams struct {
	ID        string `json:"id" validate:"required"`
	Language  string `json:"language"`
	Subtitles bool   `json:"subtitles"`
	Matroska  bool   `json:"matroska"`

	InputVideoURI  string `json:"input_video_uri"`
	InputAudioURI  string `json:"input_audio_uri"`
	SubtitlesURI   string `json:"subtitles_uri"`
	OutputVideoURI string `json:"output_video_uri"`
	OutputPutURL   string `json:"output_put_url"`

	// Legacy shape.
	Bucket             string `json:"bucket"`
	BucketParentFolder string `json:"bucket_parent_folder"`
	InputVideoName     string `json:"input_video_name"`
	Name               string `json:"name"`
}

type DownsamplingParams struct {
	OriginalVideoURI string `json:"original_video_uri" validate:"required"`
	OutputVideoURI   string `json:"output_video_uri"`
	OutputPutURL     string `json:"output_put_url"`
	Resolution       string `json:"resolution" validate:"required"`
}

type AudioTrimParams struct {
	SourceURI      string  `json:"source_uri" validate:"required"`
	StartSec       float64 `json:"start_sec" validate:"gte=0"`
	DurationSec    float64 `json:"duration_sec" validate:"required,gt=0"`
	OutputVideoURI string  `json:"output_video_uri"`
	OutputPutURL   string  `json:"output_put_url"`
}

type StageObjectParams struct {
	SourceURI      string `json:"source_uri" validate:"required"`
	DestinationURI string `json:"destination_uri"`
	OutputPutURL   string `json:"output_put_url"`
}

// outputLocator applies the fixed output precedence: a presigned PUT URL
// wins over an object-store URI when both are present.
func outputLocator(putURL, uri string) (storage.Locator, error) {
	if putURL != "" {
		return storage.Presigned(putURL), nil
	}
	if uri == "" {
		return storage.Locator{}, fault.New(fault.InvalidParameters,
			"an output_put_url or output URI is required")
	}
	return storage.ParseLocator(uri)
}

func decodeParams(raw json.RawMessage, v *validator.Validate, into interface{}) error {
	if len(raw) == 0 {
		return fault.New(fault.InvalidParameters, "missing parameters")
	}
	if err := json.Unmarshal(raw, into); err != nil {
		return fault.Wrap(err, fault.InvalidParameters, "malformed parameters")
	}
	if err := v.Struct(into); err != nil {
		return invalidFields(err)
	}
	return nil
}

func invalidFields(err error) error {
	verrs, ok := err.(validator.ValidationErrors)
	if !ok {
		return fault.Wrap(err, fault.InvalidParameters, "parameter validation failed")
	}
	fields := make([]string, 0, len(verrs))
	for _, e := range verrs {
		fields = append(fields, e.Field()+" "+failureFor(e.Tag()))
	}
	return fault.Newf(fault.InvalidParameters, "invalid parameters: %s", strings.Join(fields, "; "))
}

func failureFor(tag string) string {
	switch tag {
	case "required":
		return "is required"
	case "gte":
		return "must be non-negative"
	case "gt":
		return "must be positive"
	default:
		return "is invalid"
	}
}
