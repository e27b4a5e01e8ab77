// Package ffmpeg runs the local ffmpeg and ffprobe binaries: probing loaded
// files, listing available encoders and performing save operations.
package ffmpeg

import "time"

// RunResult is the outcome of one subprocess execution.
type RunResult struct {
	ExitCode   int
	Stdout     []byte
	StderrTail string
	Duration   time.Duration
	Err        error
}

// IsSuccess reports whether the command exited cleanly.
func (r RunResult) IsSuccess() bool {
	return r.ExitCode == 0 && r.Err == nil
}

// Capabilities describes what the installed ffmpeg can encode.
type Capabilities struct {
	FFmpegPath string          `json:"ffmpeg_path"`
	Encoders   map[string]bool `json:"-"`
	Video      []string        `json:"video_encoders"`
	Audio      []string        `json:"audio_encoders"`
	ProbedAt   time.Time       `json:"probed_at"`
}

// HasEncoder reports whether name was listed by `ffmpeg -encoders`.
func (c *Capabilities) HasEncoder(name string) bool {
	return c != nil && c.Encoders[name]
}
