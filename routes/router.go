// Package routes exposes the HTTP surface: synchronous task execution,
// segmentation orchestration, status probing, and failure diagnostics.
package routes

import (
	"context"

	"github.com/go-chi/chi/v5"

	"clipforge/config"
	"clipforge/pipeline"
	"clipforge/task"
)

type TaskExecutor interface {
	Execute(ctx context.Context, payload task.Payload) (task.Result, error)
}

type Segmenter interface {
	Segment(ctx context.Context, req pipeline.SegmentRequest) (pipeline.SegmentResponse, error)
}

type StatusProber interface {
	Status(ctx context.Context, jobID string, expected int) (pipeline.StatusReport, error)
}

type Handler struct {
	cfg      config.Config
	executor TaskExecutor
	segments Segmenter
	prober   StatusProber
}

func NewHandler(cfg config.Config, executor TaskExecutor, segments Segmenter, prober StatusProber) *Handler {
	return &Handler{cfg: cfg, executor: executor, segments: segments, prober: prober}
}

// NewRouter wires the HTTP surface. Health and version stay open for load
// balancers; everything else sits behind the shared API key.
func NewRouter(h *Handler) chi.Router {
	r := chi.NewRouter()

	r.Get("/health", h.Health)
	r.Get("/version", h.Version)

	r.Group(func(r chi.Router) {
		r.Use(requireAPIKey(h.cfg.APIKey))

		r.Post("/task", h.RunTask)
		r.Route("/pipeline", func(r chi.Router) {
			r.Post("/segment", h.SegmentJob)
			r.Get("/status", h.PipelineStatus)
		})
		r.Get("/failures", h.FailureQuery)
		r.Get("/failures/list", h.FailureList)
	})

	return r
}
