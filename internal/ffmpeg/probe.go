package ffmpeg

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/framecut/framecut-agent/internal/media"
)

// Prober reads stream metadata with a single ffprobe JSON call.
type Prober struct {
	runner  Runner
	timeout time.Duration
}

func NewProber(runner Runner, timeout time.Duration) *Prober {
	return &Prober{runner: runner, timeout: timeout}
}

func (p *Prober) Probe(ctx context.Context, path string) (*media.Probe, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	result := p.runner.RunFFprobe(ctx,
		"-v", "quiet",
		"-print_format", "json",
		"-show_format", "-show_streams",
		path,
	)
	if !result.IsSuccess() {
		if result.Err != nil {
			return nil, fmt.Errorf("ffprobe %q: %w", path, result.Err)
		}
		return nil, fmt.Errorf("ffprobe %q exited %d: %s", path, result.ExitCode, lastLine(result.StderrTail))
	}
	return ParseProbeJSON(result.Stdout)
}

// --- ffprobe JSON wire types ---

type ffprobeOutput struct {
	Format  ffprobeFormat   `json:"format"`
	Streams []ffprobeStream `json:"streams"`
}

type ffprobeFormat struct {
	FormatName string `json:"format_name"`
	Duration   string `json:"duration"`
	Size       string `json:"size"`
}

type ffprobeStream struct {
	CodecName    string         `json:"codec_name"`
	CodecType    string         `json:"codec_type"`
	Width        int            `json:"width"`
	Height       int            `json:"height"`
	Duration     string         `json:"duration"`
	AvgFrameRate string         `json:"avg_frame_rate"`
	RFrameRate   string         `json:"r_frame_rate"`
	Disposition  map[string]int `json:"disposition"`
}

// ParseProbeJSON converts raw ffprobe output into a media.Probe. The first
// video stream that is not cover art and the first audio stream are used.
func ParseProbeJSON(data []byte) (*media.Probe, error) {
	var raw ffprobeOutput
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("parse ffprobe JSON: %w", err)
	}

	p := &media.Probe{
		FormatName: raw.Format.FormatName,
		Duration:   parseFloat(raw.Format.Duration),
		Size:       parseInt64(raw.Format.Size),
	}

	var videoSeen, audioSeen bool
	for i := range raw.Streams {
		s := &raw.Streams[i]
		switch s.CodecType {
		case "video":
			if videoSeen || s.Disposition["attached_pic"] == 1 {
				continue
			}
			videoSeen = true
			p.VideoCodec = s.CodecName
			p.Width = s.Width
			p.Height = s.Height
			p.FrameRate = media.ParseFrameRate(s.AvgFrameRate)
			if p.FrameRate == 0 {
				p.FrameRate = media.ParseFrameRate(s.RFrameRate)
			}
			if p.Duration == 0 {
				p.Duration = parseFloat(s.Duration)
			}
		case "audio":
			if audioSeen {
				continue
			}
			audioSeen = true
			p.AudioCodec = s.CodecName
		}
	}
	return p, nil
}

// --- Numeric parsing helpers (ffprobe returns numbers as strings) ---

func parseInt64(s string) int64 {
	n, _ := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	return n
}

func parseFloat(s string) float64 {
	f, _ := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return f
}
