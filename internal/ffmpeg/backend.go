package ffmpeg

import (
	"context"
	"errors"
	"log/slog"

	"github.com/framecut/framecut-agent/internal/save"
)

// Backend performs save operations with the local ffmpeg.
type Backend struct {
	runner Runner
	doctor *CachedDoctor
	logger *slog.Logger
}

// NewBackend returns a backend. doctor may be nil, in which case encoder
// availability is not checked before running.
func NewBackend(runner Runner, doctor *CachedDoctor, logger *slog.Logger) *Backend {
	return &Backend{runner: runner, doctor: doctor, logger: logger}
}

func (b *Backend) Save(ctx context.Context, op save.Operation) (string, error) {
	if err := b.checkEncoders(ctx, op); err != nil {
		return "", err
	}

	args := BuildArgs(op)
	if b.logger != nil {
		b.logger.Info("running ffmpeg", "args", args)
	}

	result := b.runner.RunFFmpeg(ctx, args...)
	if result.IsSuccess() {
		return op.Output.Path, nil
	}

	reason := Classify(result.StderrTail)
	if errors.Is(result.Err, context.DeadlineExceeded) || errors.Is(result.Err, context.Canceled) {
		reason = ReasonTimeout
	}
	return "", &FailureError{
		ExitCode:   result.ExitCode,
		Reason:     reason,
		StderrTail: result.StderrTail,
		Err:        result.Err,
	}
}

func (b *Backend) checkEncoders(ctx context.Context, op save.Operation) error {
	required := RequiredEncoders(op.Changes.Compression)
	if b.doctor == nil || len(required) == 0 {
		return nil
	}
	caps, err := b.doctor.Get(ctx)
	if err != nil {
		// Let ffmpeg report the problem itself.
		return nil
	}
	for _, enc := range required {
		if !caps.HasEncoder(enc) {
			return &MissingEncoderError{Encoder: enc}
		}
	}
	return nil
}
