// Package playback streams loaded videos to the player with HTTP range
// support.
package playback

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"strconv"

	"github.com/framecut/framecut-agent/internal/catalog"
	"github.com/framecut/framecut-agent/internal/media"
)

type PlaybackService interface {
	ServeFile(w http.ResponseWriter, r *http.Request, file *catalog.File) error
}

type Server struct {
	logger *slog.Logger
}

func NewServer(logger *slog.Logger) *Server {
	return &Server{logger: logger}
}

// ContentType prefers the MIME type sniffed when the file was opened and
// falls back to the one implied by its container.
func ContentType(file *catalog.File) string {
	if file.MimeType != "" {
		return file.MimeType
	}
	return media.Container(file.Container).MIMEType()
}

func (s *Server) ServeFile(w http.ResponseWriter, r *http.Request, file *catalog.File) error {
	f, err := os.Open(file.Path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			http.Error(w, "file not found", http.StatusNotFound)
			return nil
		}
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer f.Close()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("failed to stat file: %w", err)
	}
	size := stat.Size()

	w.Header().Set("Accept-Ranges", "bytes")
	w.Header().Set("Content-Type", ContentType(file))
	w.Header().Set("Last-Modified", stat.ModTime().UTC().Format(http.TimeFormat))

	span, partial, err := ParseRange(r.Header.Get("Range"), size)
	switch {
	case errors.Is(err, ErrUnsatisfiable):
		w.Header().Set("Content-Range", fmt.Sprintf("bytes */%d", size))
		http.Error(w, "Range Not Satisfiable", http.StatusRequestedRangeNotSatisfiable)
		return nil
	case err != nil:
		// A malformed header is ignored and the whole file is served.
		partial = false
	}

	if !partial {
		w.Header().Set("Content-Length", strconv.FormatInt(size, 10))
		w.WriteHeader(http.StatusOK)
		if r.Method != http.MethodHead {
			io.Copy(w, f)
		}
		return nil
	}

	if _, err := f.Seek(span.Start, io.SeekStart); err != nil {
		return fmt.Errorf("failed to seek: %w", err)
	}
	w.Header().Set("Content-Length", strconv.FormatInt(span.Length(), 10))
	w.Header().Set("Content-Range", span.Header(size))
	w.WriteHeader(http.StatusPartialContent)
	if r.Method != http.MethodHead {
		if _, err := io.CopyN(w, f, span.Length()); err != nil && s.logger != nil {
			s.logger.Debug("playback copy interrupted", "file_id", file.ID, "error", err)
		}
	}
	return nil
}
