package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/h2non/filetype"

	"github.com/framecut/framecut-agent/internal/media"
	"github.com/framecut/framecut-agent/internal/watcher"
)

// sniffSize is the header length filetype needs to recognise every video
// format it supports.
const sniffSize = 261

// ErrNotFound is returned for an unknown file ID.
var ErrNotFound = errors.New("file not found")

// UnsupportedFileError is returned when a dropped path is not a video.
type UnsupportedFileError struct {
	Path   string
	Reason string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("%s is not a supported video: %s", filepath.Base(e.Path), e.Reason)
}

// Prober reads stream metadata from a media file.
type Prober interface {
	Probe(ctx context.Context, path string) (*media.Probe, error)
}

type CatalogService interface {
	OpenFile(ctx context.Context, path string) (*File, error)
	GetFile(ctx context.Context, id string) (*File, error)
	ListFiles(ctx context.Context) ([]*File, error)
	CountFiles(ctx context.Context) (int, error)
}

type Service struct {
	repo    Repository
	prober  Prober
	watcher watcher.Watcher
	logger  *slog.Logger
}

// NewService wires the catalog. prober and w may be nil; without a prober
// files are loaded with the metadata the filesystem provides.
func NewService(repo Repository, prober Prober, w watcher.Watcher, logger *slog.Logger) *Service {
	if w == nil {
		w = watcher.NopWatcher{}
	}
	s := &Service{repo: repo, prober: prober, watcher: w, logger: logger}
	w.OnChange(s.handleChange)
	return s
}

// OpenFile loads the video at path, probes it and records it as the source of
// subsequent saves. Opening a path again refreshes its metadata and keeps its ID.
func (s *Service) OpenFile(ctx context.Context, path string) (*File, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("invalid path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("path does not exist: %w", err)
	}
	if info.IsDir() {
		return nil, &UnsupportedFileError{Path: absPath, Reason: "path is a directory"}
	}

	mimeType, err := sniffVideo(absPath)
	if err != nil {
		return nil, err
	}

	file := &File{
		ID:        NewID(),
		Path:      absPath,
		Filename:  filepath.Base(absPath),
		Size:      info.Size(),
		Mtime:     info.ModTime(),
		Container: string(media.ContainerFromName(absPath)),
		MimeType:  mimeType,
		Present:   true,
		CreatedAt: time.Now(),
	}
	if file.MimeType == "" {
		file.MimeType = media.ContainerFromName(absPath).MIMEType()
	}

	s.applyProbe(ctx, file)

	if err := s.repo.UpsertFile(ctx, file); err != nil {
		return nil, err
	}

	if err := s.watcher.Watch(ctx, absPath); err != nil && s.logger != nil {
		s.logger.Warn("failed to watch file", "path", absPath, "error", err)
	}

	if s.logger != nil {
		s.logger.Info("file opened",
			"file_id", file.ID,
			"path", absPath,
			"container", file.Container,
			"video_codec", file.VideoCodec,
			"audio_codec", file.AudioCodec,
		)
	}
	return file, nil
}

func (s *Service) applyProbe(ctx context.Context, file *File) {
	file.FrameRate = media.DefaultFrameRate
	if s.prober == nil {
		return
	}
	p, err := s.prober.Probe(ctx, file.Path)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("probe failed, using file metadata only", "path", file.Path, "error", err)
		}
		return
	}
	file.Duration = p.Duration
	file.Width = p.Width
	file.Height = p.Height
	file.VideoCodec = p.VideoCodec
	file.AudioCodec = p.AudioCodec
	file.FrameRate = media.FrameRateOrDefault(p.FrameRate)
}

// sniffVideo rejects files whose content is a recognised non-video type and
// files whose extension is not a video one when the content is unrecognised.
// It returns the sniffed MIME type, or "" when unrecognised.
func sniffVideo(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()

	head := make([]byte, sniffSize)
	n, err := io.ReadFull(f, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return "", err
	}
	head = head[:n]

	kind, _ := filetype.Match(head)
	if kind == filetype.Unknown {
		if !IsVideoFile(path) {
			return "", &UnsupportedFileError{Path: path, Reason: "unrecognised file type"}
		}
		return "", nil
	}
	if !filetype.IsVideo(head) {
		return "", &UnsupportedFileError{Path: path, Reason: "detected " + kind.MIME.Value}
	}
	return kind.MIME.Value, nil
}

func (s *Service) GetFile(ctx context.Context, id string) (*File, error) {
	f, err := s.repo.GetFile(ctx, id)
	if err != nil {
		return nil, err
	}
	if f == nil {
		return nil, ErrNotFound
	}
	return f, nil
}

func (s *Service) ListFiles(ctx context.Context) ([]*File, error) {
	return s.repo.ListFiles(ctx)
}

func (s *Service) CountFiles(ctx context.Context) (int, error) {
	return s.repo.CountFiles(ctx)
}

func (s *Service) handleChange(path string, event watcher.EventType) {
	var present bool
	switch event {
	case watcher.EventDelete:
		present = false
	case watcher.EventCreate:
		present = true
	default:
		return
	}

	ctx := context.Background()
	f, err := s.repo.GetFileByPath(ctx, path)
	if err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to look up changed file", "path", path, "error", err)
		}
		return
	}
	if f == nil || f.Present == present {
		return
	}

	if err := s.repo.UpdateFilePresent(ctx, path, present); err != nil {
		if s.logger != nil {
			s.logger.Warn("failed to update file presence", "file_id", f.ID, "path", path, "error", err)
		}
		return
	}
	if s.logger != nil {
		s.logger.Info("file presence changed", "file_id", f.ID, "path", path, "present", present)
	}
}

// Reconcile re-checks every known file after a restart: files that vanished
// while the agent was down are marked not present, the rest are watched again.
func (s *Service) Reconcile(ctx context.Context) error {
	files, err := s.repo.ListFiles(ctx)
	if err != nil {
		return err
	}
	for _, f := range files {
		_, statErr := os.Stat(f.Path)
		present := statErr == nil
		if present != f.Present {
			if err := s.repo.UpdateFilePresent(ctx, f.Path, present); err != nil {
				return err
			}
		}
		if present {
			if err := s.watcher.Watch(ctx, f.Path); err != nil && s.logger != nil {
				s.logger.Warn("failed to watch file", "path", f.Path, "error", err)
			}
		}
	}
	if s.logger != nil {
		s.logger.Info("catalog reconciled", "files", len(files))
	}
	return nil
}
