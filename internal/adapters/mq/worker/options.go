package worker

import (
	"github.com/okian/outreach/pkg/logger"
)

// Option applies a configuration option to the InMemoryWorker.
type Option func(*InMemoryWorker)

// WithName sets the worker name for identification and logging.
func WithName(name string) Option {
	return func(w *InMemoryWorker) {
		if name != "" {
			w.name = name
		}
	}
}

// WithLogger sets a custom logger for the worker.
func WithLogger(l logger.Logger) Option {
	return func(w *InMemoryWorker) {
		if l != nil {
			w.logger = l
		}
	}
}

func withCounters(c *Counters) Option {
	return func(w *InMemoryWorker) { w.counters = c }
}

// HandlerOption configures a Handler.
type HandlerOption func(*Handler)

// WithHistorySource enables fetching funding history after an ingest.
func WithHistorySource(src HistorySource) HandlerOption {
	return func(h *Handler) { h.history = src }
}

// WithEnqueuer lets the handler schedule follow-up rescore jobs.
func WithEnqueuer(e Enqueuer) HandlerOption {
	return func(h *Handler) { h.enqueuer = e }
}

// WithForgetter lets the handler release a dedup key whose insert failed.
func WithForgetter(f Forgetter) HandlerOption {
	return func(h *Handler) { h.forgetter = f }
}

// WithHandlerLogger sets the handler's logger.
func WithHandlerLogger(l logger.Logger) HandlerOption {
	return func(h *Handler) {
		if l != nil {
			h.logger = l
		}
	}
}
