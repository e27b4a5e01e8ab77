package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
)

const defaultCacheTTL = 5 * time.Minute

// ListEncoders runs `ffmpeg -encoders` and parses the result.
func ListEncoders(ctx context.Context, runner Runner) (*Capabilities, error) {
	result := runner.RunFFmpeg(ctx, "-hide_banner", "-encoders")
	if !result.IsSuccess() {
		if result.Err != nil {
			return nil, fmt.Errorf("ffmpeg -encoders: %w", result.Err)
		}
		return nil, fmt.Errorf("ffmpeg -encoders exited %d: %s", result.ExitCode, lastLine(result.StderrTail))
	}
	caps := ParseEncoders(result.Stdout)
	caps.ProbedAt = time.Now()
	return caps, nil
}

// ParseEncoders parses the table printed by `ffmpeg -encoders`. Rows follow
// a line of dashes and start with a six character flag field whose first
// character is the media type.
func ParseEncoders(out []byte) *Capabilities {
	caps := &Capabilities{Encoders: make(map[string]bool)}

	scanner := bufio.NewScanner(bytes.NewReader(out))
	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !inTable {
			inTable = strings.HasPrefix(line, "---")
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 {
			continue
		}
		name := fields[1]
		caps.Encoders[name] = true
		switch fields[0][0] {
		case 'V':
			caps.Video = append(caps.Video, name)
		case 'A':
			caps.Audio = append(caps.Audio, name)
		}
	}
	sort.Strings(caps.Video)
	sort.Strings(caps.Audio)
	return caps
}

// CachedDoctor caches encoder listings for a TTL so saves do not spawn an
// extra ffmpeg each time.
type CachedDoctor struct {
	runner Runner
	ttl    time.Duration
	logger *slog.Logger
	path   string

	mu     sync.RWMutex
	cached *Capabilities
}

// NewCachedDoctor creates a caching wrapper around encoder probes. path is
// reported in the capabilities.
func NewCachedDoctor(runner Runner, path string, logger *slog.Logger) *CachedDoctor {
	return &CachedDoctor{
		runner: runner,
		ttl:    defaultCacheTTL,
		logger: logger,
		path:   path,
	}
}

// Get returns cached capabilities if fresh, otherwise re-probes.
func (d *CachedDoctor) Get(ctx context.Context) (*Capabilities, error) {
	d.mu.RLock()
	if d.cached != nil && time.Since(d.cached.ProbedAt) < d.ttl {
		caps := d.cached
		d.mu.RUnlock()
		return caps, nil
	}
	d.mu.RUnlock()

	return d.Refresh(ctx)
}

func (d *CachedDoctor) Peek() *Capabilities {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.cached
}

// Refresh forces a new probe regardless of cache freshness.
func (d *CachedDoctor) Refresh(ctx context.Context) (*Capabilities, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	caps, err := ListEncoders(ctx, d.runner)
	if err != nil {
		if d.logger != nil {
			d.logger.Warn("encoder probe failed", "error", err)
		}
		// Return stale cache if available
		if d.cached != nil {
			return d.cached, nil
		}
		return nil, err
	}

	caps.FFmpegPath = d.path
	d.cached = caps
	if d.logger != nil {
		d.logger.Info("encoder probe complete", "video", len(caps.Video), "audio", len(caps.Audio))
	}
	return caps, nil
}

// Invalidate clears the cached capabilities.
func (d *CachedDoctor) Invalidate() {
	d.mu.Lock()
	d.cached = nil
	d.mu.Unlock()
}
