package edit

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/framecut/framecut-agent/internal/media"
)

// CompressionPanel is the state of the compression controls at the moment
// of the save. Active is the panel mode; when false the other fields are
// ignored.
type CompressionPanel struct {
	Active     bool   `json:"active"`
	VideoCodec string `json:"video_codec"`
	AudioCodec string `json:"audio_codec"`
	Quality    string `json:"quality"`
}

// Pending is a snapshot of every staged edit. Callers build it from their
// own UI state; nothing is read from shared state.
type Pending struct {
	Trim        *TrimChange      `json:"trim,omitempty"`
	Crop        *CropChange      `json:"crop,omitempty"`
	Compression CompressionPanel `json:"compression"`

	// SourceContainer seeds CompressionChange.Container until the output
	// container is known.
	SourceContainer media.Container `json:"-"`
}

// InvalidQualityError reports a quality value that is not an integer
// percentage in [0, 100].
type InvalidQualityError struct {
	Input string
}

func (e *InvalidQualityError) Error() string {
	return fmt.Sprintf("invalid quality %q: want an integer percentage between 0 and 100", e.Input)
}

// Assemble builds the change-set for p. Each edit is included only when it is
// present in the snapshot.
func Assemble(p Pending) (ChangeSet, error) {
	var cs ChangeSet

	if p.Trim != nil {
		t := *p.Trim
		cs.Trim = &t
	}
	if p.Crop != nil {
		c := *p.Crop
		cs.Crop = &c
	}

	if p.Compression.Active {
		quality, err := ParseQuality(p.Compression.Quality)
		if err != nil {
			return ChangeSet{}, err
		}
		video, _ := media.ParseVideoCodec(p.Compression.VideoCodec)
		audio, _ := media.ParseAudioCodec(p.Compression.AudioCodec)
		cs.Compression = &CompressionChange{
			VideoCodec: video,
			AudioCodec: audio,
			Quality:    quality,
			Container:  p.SourceContainer,
		}
	}

	return cs, nil
}

// ParseQuality parses a percentage such as "80" or "80%".
func ParseQuality(s string) (int, error) {
	trimmed := strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(trimmed, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, &InvalidQualityError{Input: s}
	}
	if v < 0 || v > 100 || v != math.Trunc(v) {
		return 0, &InvalidQualityError{Input: s}
	}
	return int(v), nil
}
