// Package edit turns a snapshot of the editor's pending edits into the
// change-set carried by a save operation.
package edit

import (
	"fmt"

	"github.com/framecut/framecut-agent/internal/media"
)

// TrimChange keeps the [StartTime, EndTime) range of the source, in seconds.
type TrimChange struct {
	StartTime float64 `json:"start_time"`
	EndTime   float64 `json:"end_time"`
}

// CropChange keeps a rectangle of the source frame, in pixels.
type CropChange struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// CompressionChange re-encodes the source. Container is the target container
// and is rewritten to the chosen output container when the save is built.
type CompressionChange struct {
	VideoCodec media.VideoCodec `json:"video_codec"`
	AudioCodec media.AudioCodec `json:"audio_codec"`
	Quality    int              `json:"quality"`
	Container  media.Container  `json:"container"`
}

// ChangeSet is the set of staged edits. A nil field means no change of that
// kind was requested.
type ChangeSet struct {
	Trim        *TrimChange        `json:"trim,omitempty"`
	Crop        *CropChange        `json:"crop,omitempty"`
	Compression *CompressionChange `json:"compression,omitempty"`
}

// Empty reports whether no edit was requested at all.
func (c ChangeSet) Empty() bool {
	return c.Trim == nil && c.Crop == nil && c.Compression == nil
}

// Clone returns a deep copy so callers can hand it off without sharing.
func (c ChangeSet) Clone() ChangeSet {
	var out ChangeSet
	if c.Trim != nil {
		t := *c.Trim
		out.Trim = &t
	}
	if c.Crop != nil {
		cr := *c.Crop
		out.Crop = &cr
	}
	if c.Compression != nil {
		cm := *c.Compression
		out.Compression = &cm
	}
	return out
}

// Bounds describes the source a change-set is applied to.
type Bounds struct {
	Duration float64
	Width    int
	Height   int
}

// InvalidEditError reports a trim or crop that falls outside the source.
type InvalidEditError struct {
	Field  string
	Reason string
}

func (e *InvalidEditError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks trim and crop against b. Zero duration or dimensions
// mean unknown and skip the corresponding upper-bound check.
func (c ChangeSet) Validate(b Bounds) error {
	if t := c.Trim; t != nil {
		if t.StartTime < 0 {
			return &InvalidEditError{Field: "trim", Reason: "start_time must not be negative"}
		}
		if t.StartTime >= t.EndTime {
			return &InvalidEditError{Field: "trim", Reason: "start_time must be less than end_time"}
		}
		if b.Duration > 0 && t.EndTime > b.Duration {
			return &InvalidEditError{Field: "trim", Reason: fmt.Sprintf("end_time %.3f exceeds duration %.3f", t.EndTime, b.Duration)}
		}
	}
	if cr := c.Crop; cr != nil {
		if cr.X < 0 || cr.Y < 0 {
			return &InvalidEditError{Field: "crop", Reason: "origin must not be negative"}
		}
		if cr.Width <= 0 || cr.Height <= 0 {
			return &InvalidEditError{Field: "crop", Reason: "width and height must be positive"}
		}
		if b.Width > 0 && cr.X+cr.Width > b.Width {
			return &InvalidEditError{Field: "crop", Reason: "rectangle exceeds frame width"}
		}
		if b.Height > 0 && cr.Y+cr.Height > b.Height {
			return &InvalidEditError{Field: "crop", Reason: "rectangle exceeds frame height"}
		}
	}
	return nil
}
