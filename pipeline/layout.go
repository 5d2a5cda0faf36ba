// Package pipeline orchestrates segmentation jobs: staging shared inputs
// once, fanning out one trim sub-job per segment, and probing output
// existence for status. There is no job table; every question about a job is
// answered by the objects under its canonical prefix.
package pipeline

import (
	"fmt"
	"strings"

	"clipforge/fault"
)

// Canonical object layout under pipelines/<job_id>/.
const (
	segmentationStage = "stage/segmentation"
	audioSegmentsDir  = segmentationStage + "/audio_segments"
)

func JobPrefix(jobID string) string {
	return "pipelines/" + jobID
}

func MasterAudioKey(jobID, ext string) string {
	return JobPrefix(jobID) + "/inputs/audio/master" + ext
}

func PresenterImageKey(jobID, ext string) string {
	return JobPrefix(jobID) + "/inputs/image/presenter" + ext
}

func SegmentKey(jobID string, index int) string {
	return fmt.Sprintf("%s/%s/segment_%d.wav", JobPrefix(jobID), audioSegmentsDir, index)
}

func ManifestKey(jobID string) string {
	return JobPrefix(jobID) + "/" + segmentationStage + "/segments.json"
}

// ValidateJobID rejects ids that would not be safe as an object key path
// segment.
func ValidateJobID(jobID string) error {
	if jobID == "" {
		return fault.New(fault.InvalidParameters, "job_id is required")
	}
	if strings.ContainsAny(jobID, "/\\?#%") || strings.Contains(jobID, "..") {
		return fault.Newf(fault.InvalidParameters, "job_id %q is not safe for object keys", jobID)
	}
	return nil
}
