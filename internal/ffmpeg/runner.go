package ffmpeg

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os/exec"
	"time"
)

const (
	maxStderrBytes = 8 * 1024 // 8 KB tail of stderr kept for diagnostics
	maxStdoutBytes = 4 << 20
)

// Runner executes the ffmpeg tools as subprocesses.
type Runner interface {
	RunFFmpeg(ctx context.Context, args ...string) RunResult
	RunFFprobe(ctx context.Context, args ...string) RunResult
}

// Config holds the runner's configuration.
type Config struct {
	FFmpegPath  string // empty = look up "ffmpeg" on PATH
	FFprobePath string // empty = look up "ffprobe" on PATH
	Logger      *slog.Logger
}

// SubprocessRunner is the production implementation of Runner.
type SubprocessRunner struct {
	ffmpeg  string
	ffprobe string
	logger  *slog.Logger
}

// NewRunner resolves the binaries. A missing ffmpeg is an error; a missing
// ffprobe only disables probing.
func NewRunner(cfg Config) (*SubprocessRunner, error) {
	ffmpegBin, err := resolveBinary(cfg.FFmpegPath, "ffmpeg")
	if err != nil {
		return nil, fmt.Errorf("cannot locate ffmpeg: %w", err)
	}
	ffprobeBin, err := resolveBinary(cfg.FFprobePath, "ffprobe")
	if err != nil && cfg.Logger != nil {
		cfg.Logger.Warn("ffprobe unavailable, loaded files will not be probed", "error", err)
	}

	if cfg.Logger != nil {
		cfg.Logger.Info("ffmpeg runner initialised", "ffmpeg", ffmpegBin, "ffprobe", ffprobeBin)
	}
	return &SubprocessRunner{ffmpeg: ffmpegBin, ffprobe: ffprobeBin, logger: cfg.Logger}, nil
}

// FFmpegPath returns the resolved ffmpeg binary.
func (r *SubprocessRunner) FFmpegPath() string {
	return r.ffmpeg
}

func (r *SubprocessRunner) RunFFmpeg(ctx context.Context, args ...string) RunResult {
	return r.exec(ctx, r.ffmpeg, args...)
}

func (r *SubprocessRunner) RunFFprobe(ctx context.Context, args ...string) RunResult {
	if r.ffprobe == "" {
		return RunResult{ExitCode: -1, Err: errors.New("ffprobe not available")}
	}
	return r.exec(ctx, r.ffprobe, args...)
}

// exec is the core subprocess execution helper.
func (r *SubprocessRunner) exec(ctx context.Context, bin string, args ...string) RunResult {
	start := time.Now()

	cmd := exec.CommandContext(ctx, bin, args...)

	var stdoutBuf, stderrBuf bytes.Buffer
	cmd.Stdout = &limitedWriter{w: &stdoutBuf, limit: maxStdoutBytes}
	cmd.Stderr = &limitedWriter{w: &stderrBuf, limit: maxStderrBytes}

	if r.logger != nil {
		r.logger.Debug("executing command", "bin", bin, "args", args)
	}

	err := cmd.Run()
	elapsed := time.Since(start)

	exitCode := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
			err = nil
		} else {
			exitCode = -1
		}
	}
	if ctxErr := ctx.Err(); ctxErr != nil && exitCode != 0 {
		err = ctxErr
	}

	result := RunResult{
		ExitCode:   exitCode,
		Stdout:     stdoutBuf.Bytes(),
		StderrTail: stderrBuf.String(),
		Duration:   elapsed,
		Err:        err,
	}

	if r.logger != nil {
		if !result.IsSuccess() {
			r.logger.Warn("command failed",
				"bin", bin,
				"exit_code", exitCode,
				"duration_ms", elapsed.Milliseconds(),
				"stderr_tail", truncate(result.StderrTail, 512),
				"error", err,
			)
		} else {
			r.logger.Debug("command succeeded", "bin", bin, "duration_ms", elapsed.Milliseconds())
		}
	}
	return result
}

// resolveBinary finds a usable executable, preferring the configured path.
func resolveBinary(preferred, name string) (string, error) {
	if preferred != "" {
		if p, err := exec.LookPath(preferred); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("configured %s %q not found", name, preferred)
	}
	p, err := exec.LookPath(name)
	if err != nil {
		return "", fmt.Errorf("no %s binary found on PATH", name)
	}
	return p, nil
}

func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return "..." + s[len(s)-maxLen:]
}

// limitedWriter is an io.Writer that keeps only the last `limit` bytes.
type limitedWriter struct {
	w     *bytes.Buffer
	limit int
}

func (lw *limitedWriter) Write(p []byte) (int, error) {
	n := len(p)
	lw.w.Write(p)
	if lw.w.Len() > lw.limit {
		// Keep only the tail
		b := lw.w.Bytes()
		tail := make([]byte, lw.limit)
		copy(tail, b[len(b)-lw.limit:])
		lw.w.Reset()
		lw.w.Write(tail)
	}
	return n, nil
}
