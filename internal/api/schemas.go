package api

import (
	"time"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/edit"
	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/save"
)

type HealthResponse struct {
	Status   string `json:"status"`
	Version  string `json:"version"`
	UptimeS  int64  `json:"uptime_s"`
	DeviceID string `json:"device_id"`
}

type StatusResponse struct {
	State        string            `json:"state"`
	LastError    string            `json:"last_error,omitempty"`
	Backend      string            `json:"backend"`
	FilesCount   int               `json:"files_count"`
	SavesRunning int               `json:"saves_running"`
	LastSave     *SaveResponse     `json:"last_save,omitempty"`
	Encoders     *EncodersResponse `json:"encoders,omitempty"`
}

type EncodersResponse struct {
	FFmpegPath  string   `json:"ffmpeg_path"`
	Video       []string `json:"video"`
	Audio       []string `json:"audio"`
	LastProbeAt string   `json:"last_probe_at,omitempty"`
}

type CodecsResponse struct {
	Video      []media.Option    `json:"video"`
	Audio      []media.Option    `json:"audio"`
	Containers []media.Container `json:"containers"`
}

type CompatResponse struct {
	VideoCodec media.VideoCodec  `json:"video_codec"`
	AudioCodec media.AudioCodec  `json:"audio_codec"`
	Compatible []media.Container `json:"compatible"`
	Ranked     []media.Container `json:"ranked"`
	Warning    string            `json:"warning"`
	Alert      bool              `json:"alert"`
}

type OpenFileRequest struct {
	Path string `json:"path"`
}

type FileResponse struct {
	ID         string  `json:"id"`
	Path       string  `json:"path"`
	Filename   string  `json:"filename"`
	Size       int64   `json:"size"`
	Container  string  `json:"container"`
	MimeType   string  `json:"mime_type,omitempty"`
	Duration   float64 `json:"duration"`
	Width      int     `json:"width"`
	Height     int     `json:"height"`
	FrameRate  float64 `json:"frame_rate"`
	VideoCodec string  `json:"video_codec,omitempty"`
	AudioCodec string  `json:"audio_codec,omitempty"`
	Present    bool    `json:"present"`
	CreatedAt  string  `json:"created_at"`
}

type FilesResponse struct {
	Files []FileResponse `json:"files"`
}

// SavePlanRequest is the editor state the save dialog is opened with.
type SavePlanRequest = edit.Pending

type SaveRequest = save.Request

type SaveResultResponse struct {
	SaveID    string         `json:"save_id"`
	Path      string         `json:"path"`
	Operation save.Operation `json:"operation"`
}

type SaveResponse struct {
	ID              string `json:"id"`
	FileID          string `json:"file_id"`
	OutputPath      string `json:"output_path"`
	OutputContainer string `json:"output_container"`
	Compressed      bool   `json:"compressed"`
	Status          string `json:"status"`
	ErrorCode       string `json:"error_code,omitempty"`
	Error           string `json:"error,omitempty"`
	CreatedAt       string `json:"created_at"`
	UpdatedAt       string `json:"updated_at"`
}

type SavesResponse struct {
	Saves []SaveResponse `json:"saves"`
}

type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

func FileToResponse(f *catalog.File) FileResponse {
	return FileResponse{
		ID:         f.ID,
		Path:       f.Path,
		Filename:   f.Filename,
		Size:       f.Size,
		Container:  f.Container,
		MimeType:   f.MimeType,
		Duration:   f.Duration,
		Width:      f.Width,
		Height:     f.Height,
		FrameRate:  f.FrameRate,
		VideoCodec: f.VideoCodec,
		AudioCodec: f.AudioCodec,
		Present:    f.Present,
		CreatedAt:  f.CreatedAt.Format(time.RFC3339),
	}
}

func SaveToResponse(j *catalog.SaveJob) SaveResponse {
	return SaveResponse{
		ID:              j.ID,
		FileID:          j.FileID,
		OutputPath:      j.OutputPath,
		OutputContainer: j.OutputContainer,
		Compressed:      j.Compressed,
		Status:          j.Status,
		ErrorCode:       j.ErrorCode,
		Error:           j.Error,
		CreatedAt:       j.CreatedAt.Format(time.RFC3339),
		UpdatedAt:       j.UpdatedAt.Format(time.RFC3339),
	}
}
