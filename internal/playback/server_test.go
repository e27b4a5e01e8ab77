package playback

import (
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/framecut/framecut-agent/internal/catalog"
)

func writeVideo(t *testing.T, size int) *catalog.File {
	t.Helper()
	path := filepath.Join(t.TempDir(), "clip.webm")
	data := make([]byte, size)
	for i := range data {
		data[i] = byte(i % 251)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		t.Fatal(err)
	}
	return &catalog.File{ID: "f1", Path: path, Filename: "clip.webm", Container: "webm", Size: int64(size)}
}

func TestServeFile_Full(t *testing.T) {
	file := writeVideo(t, 1000)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file?file_id=f1", nil)

	if err := NewServer(nil).ServeFile(rec, req, file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if rec.Body.Len() != 1000 {
		t.Errorf("body length = %d, want 1000", rec.Body.Len())
	}
	if got := rec.Header().Get("Content-Type"); got != "video/webm" {
		t.Errorf("Content-Type = %q, want video/webm", got)
	}
	if rec.Header().Get("Accept-Ranges") != "bytes" {
		t.Error("Accept-Ranges header missing")
	}
}

func TestServeFile_Partial(t *testing.T) {
	file := writeVideo(t, 1000)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	req.Header.Set("Range", "bytes=100-199")

	if err := NewServer(nil).ServeFile(rec, req, file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusPartialContent {
		t.Fatalf("status = %d, want 206", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes 100-199/1000" {
		t.Errorf("Content-Range = %q", got)
	}
	body := rec.Body.Bytes()
	if len(body) != 100 || body[0] != byte(100%251) {
		t.Errorf("unexpected body: len=%d first=%d", len(body), body[0])
	}
}

func TestServeFile_Unsatisfiable(t *testing.T) {
	file := writeVideo(t, 10)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	req.Header.Set("Range", "bytes=50-")

	NewServer(nil).ServeFile(rec, req, file)
	if rec.Code != http.StatusRequestedRangeNotSatisfiable {
		t.Fatalf("status = %d, want 416", rec.Code)
	}
	if got := rec.Header().Get("Content-Range"); got != "bytes */10" {
		t.Errorf("Content-Range = %q", got)
	}
}

func TestServeFile_MalformedRangeServesWholeFile(t *testing.T) {
	file := writeVideo(t, 10)
	rec := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/playback/file", nil)
	req.Header.Set("Range", "pages=1-2")

	NewServer(nil).ServeFile(rec, req, file)
	if rec.Code != http.StatusOK || rec.Body.Len() != 10 {
		t.Fatalf("status = %d len = %d, want 200 and 10 bytes", rec.Code, rec.Body.Len())
	}
}

func TestServeFile_Missing(t *testing.T) {
	file := &catalog.File{ID: "gone", Path: filepath.Join(t.TempDir(), "gone.mp4")}
	rec := httptest.NewRecorder()

	if err := NewServer(nil).ServeFile(rec, httptest.NewRequest(http.MethodGet, "/", nil), file); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", rec.Code)
	}
}

func TestContentType(t *testing.T) {
	if got := ContentType(&catalog.File{Container: "mov"}); got != "video/quicktime" {
		t.Errorf("ContentType(mov) = %q", got)
	}
	if got := ContentType(&catalog.File{Container: "mkv", MimeType: "video/webm"}); got != "video/webm" {
		t.Errorf("sniffed type should win, got %q", got)
	}
}
