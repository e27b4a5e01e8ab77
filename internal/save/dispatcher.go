package save

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// Backend performs the transformation an Operation describes and returns the
// path it wrote.
type Backend interface {
	Save(ctx context.Context, op Operation) (string, error)
}

// Dispatcher sends operations to a Backend and classifies the result.
type Dispatcher struct {
	backend Backend
	logger  *slog.Logger
}

func NewDispatcher(backend Backend, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{backend: backend, logger: logger}
}

// Dispatch awaits the backend. Validation errors pass through unchanged;
// every other failure is returned as *BackendError. Nothing is retried.
func (d *Dispatcher) Dispatch(ctx context.Context, op Operation) (string, error) {
	start := time.Now()
	path, err := d.backend.Save(ctx, op)
	if err != nil {
		retryable := isRetryable(err)
		if d.logger != nil {
			d.logger.Error("save dispatch failed",
				"output", op.Output.Path,
				"duration_ms", time.Since(start).Milliseconds(),
				"retryable", retryable,
				"error", err,
			)
		}
		if alreadyClassified(err) {
			return "", err
		}
		return "", &BackendError{Err: err, Retryable: retryable}
	}
	if path == "" {
		path = op.Output.Path
	}
	if d.logger != nil {
		d.logger.Info("save dispatch succeeded",
			"output", path,
			"container", op.Output.Container,
			"compressed", op.Compressed(),
			"duration_ms", time.Since(start).Milliseconds(),
		)
	}
	return path, nil
}

func alreadyClassified(err error) bool {
	var backendErr *BackendError
	return Code(err) != CodeBackendError || errors.As(err, &backendErr)
}

// isRetryable reports whether err carries a backend error that classifies
// itself as transient.
func isRetryable(err error) bool {
	var r interface{ IsRetryable() bool }
	return errors.As(err, &r) && r.IsRetryable()
}
