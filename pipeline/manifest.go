package pipeline

import (
	"encoding/json"

	"clipforge/fault"
)

// Segment is a time-bounded slice of the master audio, addressed solely by
// its index in the manifest. Index order names the outputs, so concurrent
// dispatch can never race on naming.
type Segment struct {
	StartSec    float64 `json:"start_sec"`
	DurationSec float64 `json:"duration_sec"`
}

// ParseManifest decodes and validates an ordered segment list. The manifest
// is immutable for the life of a job.
func ParseManifest(data []byte) ([]Segment, error) {
	var segments []Segment
	if err := json.Unmarshal(data, &segments); err != nil {
		return nil, fault.Wrap(err, fault.InvalidParameters, "malformed segments manifest")
	}
	if err := ValidateSegments(segments); err != nil {
		return nil, err
	}
	return segments, nil
}

func ValidateSegments(segments []Segment) error {
	if len(segments) == 0 {
		return fault.New(fault.InvalidParameters, "segment list is empty")
	}
	for i, s := range segments {
		if s.StartSec < 0 {
			return fault.Newf(fault.InvalidParameters, "segment %d: start_sec must be >= 0", i)
		}
		if s.DurationSec <= 0 {
			return fault.Newf(fault.InvalidParameters, "segment %d: duration_sec must be > 0", i)
		}
	}
	return nil
}
