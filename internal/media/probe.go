package media

import (
	"strconv"
	"strings"
)

// DefaultFrameRate is assumed when a probe reports no usable frame rate.
const DefaultFrameRate = 30.0

// Probe is the subset of stream metadata the editor reads from a probe of the
// source file. Zero values mean the field was not reported.
type Probe struct {
	FormatName string  `json:"format_name,omitempty"`
	Duration   float64 `json:"duration"`
	Size       int64   `json:"size"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	FrameRate  float64 `json:"frame_rate"`
}

// ParseFrameRate parses an ffprobe rate such as "30000/1001" or "25".
// It returns 0 for anything unusable.
func ParseFrameRate(s string) float64 {
	num, den, found := strings.Cut(strings.TrimSpace(s), "/")
	n, err := strconv.ParseFloat(num, 64)
	if err != nil || n <= 0 {
		return 0
	}
	d := 1.0
	if found {
		d, err = strconv.ParseFloat(den, 64)
		if err != nil || d <= 0 {
			return 0
		}
	}
	return n / d
}

// FrameRateOrDefault returns fps, or DefaultFrameRate when fps is unusable.
func FrameRateOrDefault(fps float64) float64 {
	if fps > 0 {
		return fps
	}
	return DefaultFrameRate
}
