package pipeline

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"clipforge/config"
	"clipforge/dispatch"
	"clipforge/fault"
	"clipforge/logger"
	"clipforge/storage"
	"clipforge/task"
)

// SegmentRequest is the orchestration payload. Exactly one of the r2/http
// master audio fields is required; the inline segment list takes precedence
// over segments_uri.
type SegmentRequest struct {
	JobID string `json:"job_id"`

	MasterAudioR2URI    string `json:"master_audio_r2_uri,omitempty"`
	PresenterImageR2URI string `json:"presenter_image_r2_uri,omitempty"`

	MasterAudioHTTPURL    string `json:"master_audio_http_url,omitempty"`
	PresenterImageHTTPURL string `json:"presenter_image_http_url,omitempty"`

	Segments    []Segment `json:"segments,omitempty"`
	SegmentsURI string    `json:"segments_uri,omitempty"`

	// Presigned overrides the configured fully-presigned default when set.
	Presigned *bool `json:"presigned,omitempty"`
}

// SegmentResponse reports how many trim sub-jobs reached the remote queue.
type SegmentResponse struct {
	Dispatched int `json:"dispatched"`
}

// Orchestrator fans a job out into per-segment AUDIO_TRIM sub-jobs. It holds
// no in-memory job state: a restart loses nothing, and status is always
// recomputed from storage.
type Orchestrator struct {
	cfg        config.Config
	resolver   *storage.Resolver
	executor   *task.Executor
	dispatcher dispatch.Dispatcher
}

func NewOrchestrator(cfg config.Config, resolver *storage.Resolver, executor *task.Executor, dispatcher dispatch.Dispatcher) *Orchestrator {
	return &Orchestrator{cfg: cfg, resolver: resolver, executor: executor, dispatcher: dispatcher}
}

// Segment stages shared inputs once, resolves the segment list, and
// dispatches one AUDIO_TRIM sub-job per segment in manifest order. Staging
// failures abort atomically before any dispatch; a dispatch failure for one
// segment does not cancel segments already dispatched — the missing indices
// stay recoverable by re-invoking segmentation.
func (o *Orchestrator) Segment(ctx context.Context, req SegmentRequest) (SegmentResponse, error) {
	if err := ValidateJobID(req.JobID); err != nil {
		return SegmentResponse{}, err
	}

	presigned := o.cfg.Worker.Presigned
	if req.Presigned != nil {
		presigned = *req.Presigned
	}

	master, err := o.masterAudio(ctx, req, presigned)
	if err != nil {
		return SegmentResponse{}, err
	}

	if err := o.presenterImage(ctx, req, presigned); err != nil {
		return SegmentResponse{}, err
	}

	segments, err := o.resolveSegments(ctx, req)
	if err != nil {
		return SegmentResponse{}, err
	}

	if len(req.Segments) > 0 {
		o.storeManifest(ctx, req.JobID, segments)
	}

	return o.fanOut(ctx, req.JobID, master, segments, presigned)
}

// masterAudio returns the object-store locator for the master audio,
// staging an HTTP source into the canonical path when needed. In
// fully-presigned mode nothing is staged: the object must already exist.
func (o *Orchestrator) masterAudio(ctx context.Context, req SegmentRequest, presigned bool) (storage.Locator, error) {
	if req.MasterAudioR2URI != "" {
		loc, err := storage.ParseLocator(req.MasterAudioR2URI)
		if err != nil {
			return storage.Locator{}, err
		}
		if loc.Kind != storage.KindObjectStore {
			return storage.Locator{}, fault.New(fault.InvalidParameters,
				"master_audio_r2_uri must be an s3:// or gs:// URI")
		}
		return loc, nil
	}

	if req.MasterAudioHTTPURL == "" {
		return storage.Locator{}, fault.New(fault.InvalidParameters,
			"one of master_audio_r2_uri or master_audio_http_url is required")
	}

	key := MasterAudioKey(req.JobID, urlExt(req.MasterAudioHTTPURL, ".wav"))
	canonical := storage.ObjectRef(o.cfg.Storage.VideosBucket, key)

	if presigned {
		// Never stage in this mode; verify the precondition instead.
		exists, err := o.resolver.Exists(ctx, canonical)
		if err != nil {
			return storage.Locator{}, fault.Rewrap(err, fault.StagingFailed, "failed to probe master audio")
		}
		if !exists {
			return storage.Locator{}, fault.Newf(fault.StagingFailed,
				"fully-presigned mode requires master audio at %s", canonical)
		}
		return canonical, nil
	}

	if err := o.stage(ctx, req.MasterAudioHTTPURL, canonical); err != nil {
		return storage.Locator{}, fault.Rewrap(err, fault.StagingFailed, "failed to stage master audio")
	}
	return canonical, nil
}

func (o *Orchestrator) presenterImage(ctx context.Context, req SegmentRequest, presigned bool) error {
	if req.PresenterImageR2URI != "" || req.PresenterImageHTTPURL == "" || presigned {
		return nil
	}
	key := PresenterImageKey(req.JobID, urlExt(req.PresenterImageHTTPURL, ".png"))
	dest := storage.ObjectRef(o.cfg.Storage.VideosBucket, key)
	if err := o.stage(ctx, req.PresenterImageHTTPURL, dest); err != nil {
		return fault.Rewrap(err, fault.StagingFailed, "failed to stage presenter image")
	}
	return nil
}

// stage runs STAGE_OBJECT semantics locally through the task executor, so
// orchestration staging and worker staging share one code path.
func (o *Orchestrator) stage(ctx context.Context, sourceURI string, dest storage.Locator) error {
	params, err := json.Marshal(task.StageObjectParams{
		SourceURI:      sourceURI,
		DestinationURI: dest.String(),
	})
	if err != nil {
		return err
	}
	_, err = o.executor.Execute(ctx, task.Payload{Task: task.StageObject, Parameters: params})
	return err
}

func (o *Orchestrator) resolveSegments(ctx context.Context, req SegmentRequest) ([]Segment, error) {
	if len(req.Segments) > 0 {
		if err := ValidateSegments(req.Segments); err != nil {
			return nil, err
		}
		return req.Segments, nil
	}
	if req.SegmentsURI == "" {
		return nil, fault.New(fault.InvalidParameters, "segments or segments_uri is required")
	}

	loc, err := storage.ParseLocator(req.SegmentsURI)
	if err != nil {
		return nil, err
	}

	tmp, err := os.MkdirTemp("", "clipforge-manifest-")
	if err != nil {
		return nil, fault.Wrap(err, fault.TransferFailed, "failed to create temp dir")
	}
	defer os.RemoveAll(tmp)

	local := filepath.Join(tmp, "segments.json")
	if err := o.resolver.FetchToFile(ctx, loc, local); err != nil {
		return nil, err
	}
	data, err := os.ReadFile(local)
	if err != nil {
		return nil, fault.Wrap(err, fault.TransferFailed, "failed to read fetched manifest")
	}
	return ParseManifest(data)
}

// storeManifest writes an inline segment list to the canonical manifest key,
// once. The manifest is bookkeeping for later probes and re-invocations, so
// a write failure is logged rather than aborting the fan-out.
func (o *Orchestrator) storeManifest(ctx context.Context, jobID string, segments []Segment) {
	dest := storage.ObjectRef(o.cfg.Storage.VideosBucket, ManifestKey(jobID))

	if exists, err := o.resolver.Exists(ctx, dest); err == nil && exists {
		return
	}

	uploader, err := o.resolver.ResolveOutput(dest)
	if err != nil {
		logger.Warnf("skipping manifest write for %s: %v", jobID, err)
		return
	}

	tmp, err := os.CreateTemp("", "clipforge-segments-*.json")
	if err != nil {
		logger.Warnf("skipping manifest write for %s: %v", jobID, err)
		return
	}
	defer os.Remove(tmp.Name())

	if err := json.NewEncoder(tmp).Encode(segments); err != nil {
		tmp.Close()
		logger.Warnf("skipping manifest write for %s: %v", jobID, err)
		return
	}
	tmp.Close()

	if err := uploader.Upload(ctx, tmp.Name()); err != nil {
		logger.Warnf("manifest write failed for %s: %v", jobID, err)
	}
}

func (o *Orchestrator) fanOut(ctx context.Context, jobID string, master storage.Locator, segments []Segment, presigned bool) (SegmentResponse, error) {
	sourceURI := master.String()
	if presigned {
		signed, err := o.resolver.PresignGet(ctx, master)
		if err != nil {
			return SegmentResponse{}, err
		}
		sourceURI = signed
	}

	dispatched := 0
	var failed []int
	for i, seg := range segments {
		params := task.AudioTrimParams{
			SourceURI:   sourceURI,
			StartSec:    seg.StartSec,
			DurationSec: seg.DurationSec,
		}

		out := storage.ObjectRef(o.cfg.Storage.VideosBucket, SegmentKey(jobID, i))
		if presigned {
			putURL, err := o.resolver.PresignPut(ctx, out)
			if err != nil {
				return SegmentResponse{Dispatched: dispatched}, err
			}
			params.OutputPutURL = putURL
		} else {
			params.OutputVideoURI = out.String()
		}

		raw, err := json.Marshal(params)
		if err != nil {
			return SegmentResponse{Dispatched: dispatched},
				fault.Wrap(err, fault.TransferFailed, "failed to marshal trim parameters")
		}

		if err := o.dispatcher.Dispatch(ctx, task.Payload{Task: task.AudioTrim, Parameters: raw}); err != nil {
			logger.Errorf("dispatch failed for segment %d of %s: %v", i, jobID, err)
			failed = append(failed, i)
			continue
		}
		dispatched++
	}

	if len(failed) > 0 {
		return SegmentResponse{Dispatched: dispatched}, fault.Newf(fault.TransferFailed,
			"failed to dispatch segments %s of %s", joinInts(failed), jobID)
	}

	logger.Infof("dispatched %d segment jobs for %s", dispatched, jobID)
	return SegmentResponse{Dispatched: dispatched}, nil
}

func urlExt(rawURL, def string) string {
	path := rawURL
	if i := strings.IndexAny(path, "?#"); i >= 0 {
		path = path[:i]
	}
	if ext := filepath.Ext(filepath.Base(path)); ext != "" {
		return ext
	}
	return def
}

func joinInts(vals []int) string {
	parts := make([]string, len(vals))
	for i, v := range vals {
		parts[i] = fmt.Sprint(v)
	}
	return strings.Join(parts, ",")
}
