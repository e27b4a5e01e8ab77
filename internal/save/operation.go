// Package save builds validated save operations from a loaded source and a
// change-set, and dispatches them to a processing backend.
package save

import (
	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/media"
)

// CurrentFile is the file handle of the loaded video.
type CurrentFile struct {
	Path string
	Name string
	Size int64
}

// VideoMeta is what the player knows about the loaded video.
type VideoMeta struct {
	Duration float64
	Width    int
	Height   int
}

// SourceInfo is the snapshot of the loaded file taken at save time.
type SourceInfo struct {
	Path      string          `json:"path"`
	Name      string          `json:"name"`
	Size      int64           `json:"size"`
	Container media.Container `json:"container"`
	Duration  float64         `json:"duration"`
	Width     int             `json:"width"`
	Height    int             `json:"height"`
}

// Output is where the backend writes the result.
type Output struct {
	Path      string          `json:"path"`
	Container media.Container `json:"container"`
}

// Operation is the complete request handed to a backend. It is built once
// per save by Builder.PrepareSave and must be treated as read-only.
type Operation struct {
	Source  SourceInfo     `json:"source"`
	Changes edit.ChangeSet `json:"changes"`
	Output  Output         `json:"output"`
}

// Compressed reports whether the operation re-encodes the source.
func (o Operation) Compressed() bool {
	return o.Changes.Compression != nil
}
