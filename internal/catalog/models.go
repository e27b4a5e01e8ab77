package catalog

import (
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// File is a video the editor has loaded, with the metadata probed at load time.
type File struct {
	ID         string    `json:"id"`
	Path       string    `json:"path"`
	Filename   string    `json:"filename"`
	Size       int64     `json:"size"`
	Mtime      time.Time `json:"mtime"`
	Container  string    `json:"container"`
	MimeType   string    `json:"mime_type,omitempty"`
	Duration   float64   `json:"duration"`
	Width      int       `json:"width"`
	Height     int       `json:"height"`
	FrameRate  float64   `json:"frame_rate"`
	VideoCodec string    `json:"video_codec,omitempty"`
	AudioCodec string    `json:"audio_codec,omitempty"`
	Present    bool      `json:"present"`
	CreatedAt  time.Time `json:"created_at"`
}

const (
	SaveStatusPending   = "pending"
	SaveStatusRunning   = "running"
	SaveStatusCompleted = "completed"
	SaveStatusFailed    = "failed"
)

// SaveJob records one dispatched save. Operation holds the JSON request sent
// to the backend.
type SaveJob struct {
	ID              string    `json:"id"`
	FileID          string    `json:"file_id"`
	OutputPath      string    `json:"output_path"`
	OutputContainer string    `json:"output_container"`
	Compressed      bool      `json:"compressed"`
	Status          string    `json:"status"`
	ErrorCode       string    `json:"error_code,omitempty"`
	Error           string    `json:"error,omitempty"`
	Operation       string    `json:"operation,omitempty"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

var VideoExtensions = map[string]bool{
	".mp4":  true,
	".mov":  true,
	".mkv":  true,
	".webm": true,
	".avi":  true,
}

func NewID() string {
	return uuid.NewString()
}

func IsVideoFile(filename string) bool {
	return VideoExtensions[strings.ToLower(filepath.Ext(filename))]
}
